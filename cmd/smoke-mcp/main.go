package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/3000Studios/vite-react/internal/app"
	"github.com/3000Studios/vite-react/internal/cache"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/config"
)

const (
	resultTTL  = 24 * time.Hour
	maxResults = 100
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	var configFiles configPaths
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	stdio := flag.Bool("stdio", false, "Use stdio transport")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if len(configFiles) == 0 {
		if _, err := os.Stat("smoke-check.toml"); err == nil {
			configFiles = append(configFiles, "smoke-check.toml")
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.MCP.Port = *port
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	// Report lines are returned to the caller, never written to stdout: the
	// stdio transport owns it.
	application, err := app.New(cfg, logger, io.Discard)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize application")
		os.Exit(1)
	}

	mcpServer := server.NewMCPServer(
		cfg.MCP.Name,
		config.GetVersion(),
		server.WithToolCapabilities(true),
	)
	registerTools(mcpServer, application, cache.New(resultTTL, maxResults))

	if *stdio {
		if err := server.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	addr := ":" + strconv.Itoa(cfg.MCP.Port)
	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)

	logger.Info().Str("addr", addr).Msg("starting MCP streamable HTTP")

	if err := httpServer.Start(addr); err != nil {
		fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
		os.Exit(1)
	}
}
