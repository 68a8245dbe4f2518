// Package testutil provides a shared harness for integration tests that run
// the full application against real design documents on disk.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/rtlforge/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	OutDir    string
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts...)
}

// RunIntegrationTestWithContext runs the full app against the given document
// files with a caller-provided context. File map keys are paths relative to
// the test's document root; subdirectories are created as needed. Startup
// panics are recovered and reported through HarnessResult.Err.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts ...func(*app.Config)) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	docsDir := filepath.Join(tmpDir, "docs")
	outDir := filepath.Join(tmpDir, "out")
	require.NoError(t, os.Mkdir(docsDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(docsDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg := app.Config{
		DocPaths:  []string{docsDir},
		OutDir:    outDir,
		PDK:       "sky130A",
		Library:   "sky130_fd_sc_hd",
		LogLevel:  "debug",
		LogFormat: "text",
		Workers:   4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{OutDir: outDir}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked: %v", r)
			}
		}()
		testApp := app.NewApp(logBuffer, appConfig)
		result.Err = testApp.Run(ctx)
	}()

	result.LogOutput = logBuffer.String()

	t.Cleanup(func() {
		if os.Getenv("RTLFORGE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
		}
	})

	return result
}
