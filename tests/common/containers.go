package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	siteImage    = "nginx:1.27-alpine"
	browserImage = "chromedp/headless-shell:latest"

	// siteAlias is the fixture site's host name on the shared network, as
	// seen from the browser container.
	siteAlias = "site"
)

var (
	envOnce     sync.Once
	envStartErr error
	environment *SmokeEnvironment
)

// SmokeEnvironment wraps a testcontainers environment: a headless Chrome and
// an nginx serving tests/fixtures/site, on one Docker network.
type SmokeEnvironment struct {
	site    testcontainers.Container
	browser testcontainers.Container
	network *testcontainers.DockerNetwork
	cancel  context.CancelFunc

	siteURL   string
	remoteURL string
}

// SiteURL returns the fixture site's base URL as the browser resolves it.
func (e *SmokeEnvironment) SiteURL() string {
	return e.siteURL
}

// RemoteURL returns the DevTools endpoint of the browser container.
func (e *SmokeEnvironment) RemoteURL() string {
	return e.remoteURL
}

// CollectLogs saves container stdout/stderr to dir/.
func (e *SmokeEnvironment) CollectLogs(dir string) {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	os.MkdirAll(dir, 0755)

	collect := func(c testcontainers.Container, name string) {
		if c == nil {
			return
		}
		reader, err := c.Logs(ctx)
		if err != nil {
			return
		}
		defer reader.Close()

		logs, err := io.ReadAll(reader)
		if err != nil {
			return
		}
		os.WriteFile(filepath.Join(dir, name+".log"), logs, 0644)
	}

	collect(e.site, "site")
	collect(e.browser, "browser")
}

// Cleanup tears down all containers and the network.
// Uses a fresh context for teardown in case the main context expired.
func (e *SmokeEnvironment) Cleanup() {
	if e == nil {
		return
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cleanupCancel()

	if e.browser != nil {
		e.browser.Terminate(cleanupCtx)
	}
	if e.site != nil {
		e.site.Terminate(cleanupCtx)
	}
	if e.network != nil {
		e.network.Remove(cleanupCtx)
	}
	if e.cancel != nil {
		e.cancel()
	}
}

// fixtureFiles lists every file under tests/fixtures/site for copying into nginx.
func fixtureFiles() ([]testcontainers.ContainerFile, error) {
	root := filepath.Join(FindProjectRoot(), "tests", "fixtures", "site")

	var files []testcontainers.ContainerFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, testcontainers.ContainerFile{
			HostFilePath:      path,
			ContainerFilePath: "/usr/share/nginx/html/" + filepath.ToSlash(rel),
			FileMode:          0644,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect fixtures under %s: %w", root, err)
	}
	return files, nil
}

// startEnvironment creates the fixture site and the browser on a shared network.
func startEnvironment() (*SmokeEnvironment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)

	files, err := fixtureFiles()
	if err != nil {
		cancel()
		return nil, err
	}

	// 1. Create Docker network
	testNet, err := network.New(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create docker network: %w", err)
	}

	// 2. Start the fixture site
	siteCtr, err := testcontainers.Run(ctx, siteImage,
		testcontainers.WithExposedPorts("80/tcp"),
		testcontainers.WithFiles(files...),
		network.WithNetwork([]string{siteAlias}, testNet),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/").WithPort("80/tcp").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		testNet.Remove(ctx)
		cancel()
		return nil, fmt.Errorf("start fixture site: %w", err)
	}

	// 3. Start headless Chrome
	browserCtr, err := testcontainers.Run(ctx, browserImage,
		testcontainers.WithExposedPorts("9222/tcp"),
		network.WithNetwork([]string{"browser"}, testNet),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/json/version").WithPort("9222/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		siteCtr.Terminate(ctx)
		testNet.Remove(ctx)
		cancel()
		return nil, fmt.Errorf("start headless-shell: %w", err)
	}

	// 4. Get mapped DevTools endpoint
	mappedPort, err := browserCtr.MappedPort(ctx, "9222/tcp")
	if err != nil {
		browserCtr.Terminate(ctx)
		siteCtr.Terminate(ctx)
		testNet.Remove(ctx)
		cancel()
		return nil, fmt.Errorf("get browser mapped port: %w", err)
	}

	host, err := browserCtr.Host(ctx)
	if err != nil {
		browserCtr.Terminate(ctx)
		siteCtr.Terminate(ctx)
		testNet.Remove(ctx)
		cancel()
		return nil, fmt.Errorf("get browser host: %w", err)
	}

	return &SmokeEnvironment{
		site:      siteCtr,
		browser:   browserCtr,
		network:   testNet,
		cancel:    cancel,
		siteURL:   "http://" + siteAlias,
		remoteURL: fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
	}, nil
}

// StartEnvironment starts the test environment (one per test process). It
// skips the test when Docker is unavailable and returns nil when
// SMOKE_TEST_URL and SMOKE_BROWSER_REMOTE_URL point at an existing setup.
func StartEnvironment(t *testing.T) *SmokeEnvironment {
	t.Helper()
	if ManualMode() {
		return nil
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	envOnce.Do(func() {
		environment, envStartErr = startEnvironment()
	})

	if envStartErr != nil {
		t.Fatalf("Failed to start test environment: %v", envStartErr)
	}
	return environment
}

// StopEnvironment tears down the shared environment, if one was started.
func StopEnvironment() {
	if environment != nil {
		environment.CollectLogs(GetResultsDir())
		environment.Cleanup()
	}
}
