package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/3000Studios/vite-react/internal/app"
	"github.com/3000Studios/vite-react/internal/cache"
	"github.com/3000Studios/vite-react/internal/catalog"
	"github.com/3000Studios/vite-react/internal/config"
	"github.com/3000Studios/vite-react/internal/scenario"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(fmt.Sprintf("Smoke-Check MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			config.GetVersion(), config.Build, config.GitCommit)), nil
	}
}

func handleListScenarios(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatScenarioList(a.Catalog)), nil
	}
}

func handleRunScenario(a *app.App, results *cache.OutcomeCache) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("scenario")
		if err != nil || name == "" {
			return errorResult("Error: scenario parameter is required"), nil
		}

		baseURL := request.GetString("base_url", "")
		if baseURL != "" {
			u, err := url.Parse(baseURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return errorResult(fmt.Sprintf("Error: base_url %q must be an absolute http(s) URL", baseURL)), nil
			}
		}

		outcomes, err := a.Run(ctx, []string{name}, baseURL)
		if errors.Is(err, catalog.ErrUnknownScenario) {
			return errorResult(fmt.Sprintf("Error: unknown scenario %q. Use list_scenarios to see what is available.", name)), nil
		}
		if err != nil && len(outcomes) == 0 {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		if len(outcomes) == 0 || outcomes[0] == nil {
			return errorResult(fmt.Sprintf("Error: scenario %q produced no outcome", name)), nil
		}

		// Screenshot paths depend only on the scenario, so this run has
		// overwritten the files any earlier outcome points at.
		results.InvalidateScenario(name)
		results.Put(outcomes[0])
		return textResult(formatOutcome(outcomes[0])), nil
	}
}

func handleGetLastResult(results *cache.OutcomeCache) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("scenario")
		if err != nil || name == "" {
			return errorResult("Error: scenario parameter is required"), nil
		}

		var (
			o  *scenario.Outcome
			ok bool
		)
		if baseURL := request.GetString("base_url", ""); baseURL != "" {
			o, ok = results.Get(cache.MakeKey(name, baseURL))
		} else {
			o, ok = results.Latest(name)
		}
		if !ok {
			return errorResult(fmt.Sprintf("No recent result for scenario %q. Use run_scenario to run it.", name)), nil
		}
		return textResult(formatOutcome(o)), nil
	}
}
