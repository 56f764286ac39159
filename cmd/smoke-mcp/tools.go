package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/3000Studios/vite-react/internal/app"
	"github.com/3000Studios/vite-react/internal/cache"
)

// registerTools registers all MCP tools on the server.
func registerTools(s *server.MCPServer, a *app.App, results *cache.OutcomeCache) {
	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createListScenariosTool(), handleListScenarios(a))
	s.AddTool(createRunScenarioTool(), handleRunScenario(a, results))
	s.AddTool(createGetLastResultTool(), handleGetLastResult(results))
}

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the smoke-check MCP server version. Use this to verify connectivity."),
	)
}

func createListScenariosTool() mcp.Tool {
	return mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the browser smoke scenarios this server can run, with their steps."),
	)
}

func createRunScenarioTool() mcp.Tool {
	return mcp.NewTool("run_scenario",
		mcp.WithDescription("Run a browser smoke scenario against the site and return the pass/fail report, including screenshot paths. Runs are serialized; a long run blocks the next."),
		mcp.WithString("scenario", mcp.Required(), mcp.Description("Scenario name as returned by list_scenarios (e.g., 'planner-link')")),
		mcp.WithString("base_url", mcp.Description("Base URL of the site under test (e.g., 'https://staging.example.com'). Uses the configured target if not specified.")),
	)
}

func createGetLastResultTool() mcp.Tool {
	return mcp.NewTool("get_last_result",
		mcp.WithDescription("FAST: Return the report of the most recent run_scenario call for a scenario without opening a browser. Results are kept for a limited time."),
		mcp.WithString("scenario", mcp.Required(), mcp.Description("Scenario name (e.g., 'planner-link')")),
		mcp.WithString("base_url", mcp.Description("Only return a run against this base URL. Uses the latest run against any URL if not specified.")),
	)
}
