package config

import "github.com/3000Studios/vite-react/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			BaseURL: "http://localhost:5173",
		},
		Browser: BrowserConfig{
			Headless:        true,
			Viewport:        "1280x800",
			TimeoutSecs:     60,
			PageLoadSecs:    15,
			WaitTimeoutSecs: 5,
			PollIntervalMs:  100,
		},
		Artifacts: ArtifactsConfig{
			Dir:     "verification",
			Summary: true,
		},
		Run: RunConfig{
			Scenarios:     []string{},
			ScenarioFiles: []string{},
		},
		MCP: MCPConfig{
			Name: "Smoke-MCP",
			Port: 4251,
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/smoke-check.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
