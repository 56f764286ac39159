package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/3000Studios/vite-react/internal/common"
)

// Config represents the smoke-check configuration.
type Config struct {
	Target    TargetConfig         `toml:"target"`
	Browser   BrowserConfig        `toml:"browser"`
	Artifacts ArtifactsConfig      `toml:"artifacts"`
	Run       RunConfig            `toml:"run"`
	MCP       MCPConfig            `toml:"mcp"`
	Logging   common.LoggingConfig `toml:"logging"`
}

// TargetConfig identifies the site under test.
type TargetConfig struct {
	BaseURL string `toml:"base_url"`
}

// BrowserConfig contains browser session settings.
type BrowserConfig struct {
	Headless        bool   `toml:"headless"`
	RemoteURL       string `toml:"remote_url"`
	Viewport        string `toml:"viewport"`
	TimeoutSecs     int    `toml:"timeout_seconds"`
	PageLoadSecs    int    `toml:"page_load_timeout_seconds"`
	WaitTimeoutSecs int    `toml:"wait_timeout_seconds"`
	PollIntervalMs  int    `toml:"poll_interval_ms"`
}

// ArtifactsConfig controls where screenshots and the run summary are written.
type ArtifactsConfig struct {
	Dir     string `toml:"dir"`
	Summary bool   `toml:"summary"`
}

// RunConfig selects what runs and how failures map to the exit code.
type RunConfig struct {
	Scenarios     []string `toml:"scenarios"`
	ScenarioFiles []string `toml:"scenario_files"`
	Strict        bool     `toml:"strict"`
}

// MCPConfig contains smoke-mcp server settings.
type MCPConfig struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
}

// Timeout returns the bound on one whole scenario run.
func (c BrowserConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PageLoadTimeout returns the bound on a single navigation.
func (c BrowserConfig) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadSecs) * time.Second
}

// WaitTimeout returns the bound on a single wait-for-condition.
func (c BrowserConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSecs) * time.Second
}

// PollInterval returns the delay between condition polls.
func (c BrowserConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SMOKE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if base := os.Getenv("SMOKE_BASE_URL"); base != "" {
		config.Target.BaseURL = base
	}
	if remote := os.Getenv("SMOKE_BROWSER_REMOTE_URL"); remote != "" {
		config.Browser.RemoteURL = remote
	}
	if headless := os.Getenv("SMOKE_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if wait := os.Getenv("SMOKE_WAIT_TIMEOUT_SECONDS"); wait != "" {
		if n, err := strconv.Atoi(wait); err == nil {
			config.Browser.WaitTimeoutSecs = n
		}
	}
	if dir := os.Getenv("SMOKE_ARTIFACTS_DIR"); dir != "" {
		config.Artifacts.Dir = dir
	}
	if strict := os.Getenv("SMOKE_STRICT"); strict != "" {
		if b, err := strconv.ParseBool(strict); err == nil {
			config.Run.Strict = b
		}
	}
	if level := os.Getenv("SMOKE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if port := os.Getenv("SMOKE_MCP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.MCP.Port = p
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, baseURL string, scenarios []string) {
	if baseURL != "" {
		config.Target.BaseURL = baseURL
	}
	if len(scenarios) > 0 {
		config.Run.Scenarios = scenarios
	}
}

// Validate returns a list of problems with the configuration; empty means valid.
func (c *Config) Validate() []string {
	var issues []string

	if strings.TrimSpace(c.Target.BaseURL) == "" {
		issues = append(issues, "target.base_url is required (SMOKE_BASE_URL)")
	} else if u, err := url.Parse(c.Target.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, fmt.Sprintf("target.base_url %q is not an absolute URL", c.Target.BaseURL))
	}
	if c.Browser.RemoteURL != "" {
		if u, err := url.Parse(c.Browser.RemoteURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http") {
			issues = append(issues, fmt.Sprintf("browser.remote_url %q must be a ws://, wss:// or http:// URL", c.Browser.RemoteURL))
		}
	}
	if c.Browser.TimeoutSecs <= 0 {
		issues = append(issues, "browser.timeout_seconds must be positive")
	}
	if c.Browser.PageLoadSecs <= 0 {
		issues = append(issues, "browser.page_load_timeout_seconds must be positive")
	}
	if c.Browser.WaitTimeoutSecs <= 0 {
		issues = append(issues, "browser.wait_timeout_seconds must be positive")
	}
	if c.Browser.PollIntervalMs <= 0 {
		issues = append(issues, "browser.poll_interval_ms must be positive")
	}
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		issues = append(issues, "artifacts.dir is required")
	}

	return issues
}

// BaseURL returns the target base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.Target.BaseURL, "/")
}
