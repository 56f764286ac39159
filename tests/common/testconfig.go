package common

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type TestConfig struct {
	Results struct {
		Dir string `toml:"dir"`
	} `toml:"results"`
	Site struct {
		URL string `toml:"url"`
	} `toml:"site"`
	Browser struct {
		RemoteURL   string `toml:"remote_url"`
		TimeoutSecs int    `toml:"timeout_seconds"`
	} `toml:"browser"`
}

var (
	globalConfig     *TestConfig
	globalConfigOnce sync.Once
	resultsDir       string
	resultsDirOnce   sync.Once
)

func LoadTestConfig() *TestConfig {
	globalConfigOnce.Do(func() {
		globalConfig = &TestConfig{}
		globalConfig.Results.Dir = "tests/results"
		globalConfig.Browser.TimeoutSecs = 60

		configPaths := []string{
			"tests/smoke/test_config.toml",
			"test_config.toml",
		}

		for _, path := range configPaths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := toml.Unmarshal(data, globalConfig); err == nil {
				return
			}
		}
	})
	return globalConfig
}

// ManualMode reports whether tests should use an existing site and browser
// instead of starting containers.
func ManualMode() bool {
	return GetTestURL() != "" && GetRemoteURL() != ""
}

func GetTestURL() string {
	if url := os.Getenv("SMOKE_TEST_URL"); url != "" {
		return url
	}
	return LoadTestConfig().Site.URL
}

func GetRemoteURL() string {
	if url := os.Getenv("SMOKE_BROWSER_REMOTE_URL"); url != "" {
		return url
	}
	return LoadTestConfig().Browser.RemoteURL
}

func InitResultsDir() string {
	resultsDirOnce.Do(func() {
		baseDir := LoadTestConfig().Results.Dir
		if !filepath.IsAbs(baseDir) {
			baseDir = filepath.Join(FindProjectRoot(), baseDir)
		}

		timestamp := time.Now().Format("2006-01-02-15-04-05")
		resultsDir = filepath.Join(baseDir, timestamp)

		if err := os.MkdirAll(resultsDir, 0755); err != nil {
			panic("failed to create results dir: " + err.Error())
		}
	})
	return resultsDir
}

func GetResultsDir() string {
	if dir := os.Getenv("SMOKE_TEST_RESULTS_DIR"); dir != "" {
		if !filepath.IsAbs(dir) {
			if absDir, err := filepath.Abs(dir); err == nil {
				return absDir
			}
		}
		return dir
	}
	return InitResultsDir()
}

// FindProjectRoot walks up from the working directory to the go.mod.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
