// Package integration provides integration testing utilities for streamdl.
package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestHarness manages the test environment for integration tests.
type TestHarness struct {
	t          *testing.T
	httpServer *http.Server
	httpPort   int
	serveDir   string
	outputDir  string

	streamdlCmd *exec.Cmd
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	cancel      context.CancelFunc
}

// Result is the outcome of a finished streamdl run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	return &TestHarness{
		t:         t,
		httpPort:  findAvailablePort(t),
		serveDir:  t.TempDir(),
		outputDir: t.TempDir(),
	}
}

// StartHTTPServer starts an HTTP server serving the files added with AddFile.
func (h *TestHarness) StartHTTPServer() {
	h.t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(h.serveDir)))

	h.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", h.httpPort),
		Handler: mux,
	}

	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.t.Logf("HTTP server error: %v", err)
		}
	}()

	h.waitForServer(h.URL("/"), 5*time.Second)
	h.t.Logf("HTTP server started on port %d", h.httpPort)
}

// AddFile writes content under the served directory, replacing any previous
// version. It may be called while the server runs.
func (h *TestHarness) AddFile(name, content string) {
	h.t.Helper()

	path := filepath.Join(h.serveDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create directory for %s: %v", name, err)
	}

	// Write then rename so a concurrent reader never sees a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		h.t.Fatalf("failed to publish %s: %v", name, err)
	}
}

// URL returns the served URL of path.
func (h *TestHarness) URL(path string) string {
	return fmt.Sprintf("http://localhost:%d/%s", h.httpPort, strings.TrimPrefix(path, "/"))
}

// OutputPath returns a path in the run's scratch directory.
func (h *TestHarness) OutputPath(name string) string {
	return filepath.Join(h.outputDir, name)
}

// ReadOutput returns the content of a file in the scratch directory, or ""
// when it does not exist yet.
func (h *TestHarness) ReadOutput(name string) string {
	h.t.Helper()

	data, err := os.ReadFile(h.OutputPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ""
		}
		h.t.Fatalf("failed to read output %s: %v", name, err)
	}
	return string(data)
}

// Run executes streamdl to completion with the given arguments.
func (h *TestHarness) Run(stdin string, args ...string) Result {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.findStreamdlBinary(), args...)
	cmd.Dir = h.outputDir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		h.t.Fatalf("failed to run streamdl: %v", err)
	}

	h.t.Logf("streamdl %s exited with %d\n%s", strings.Join(args, " "), result.ExitCode, result.Stderr)
	return result
}

// StartStreamdl starts streamdl in the background.
func (h *TestHarness) StartStreamdl(args ...string) {
	h.t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.streamdlCmd = exec.CommandContext(ctx, h.findStreamdlBinary(), args...)
	h.streamdlCmd.Dir = h.outputDir
	h.streamdlCmd.Stdout = &h.stdout
	h.streamdlCmd.Stderr = &h.stderr

	if err := h.streamdlCmd.Start(); err != nil {
		h.t.Fatalf("failed to start streamdl: %v", err)
	}
	h.t.Logf("streamdl started with pid %d", h.streamdlCmd.Process.Pid)
}

// Interrupt sends SIGINT to the background streamdl and waits for it to exit.
func (h *TestHarness) Interrupt(timeout time.Duration) Result {
	h.t.Helper()

	if h.streamdlCmd == nil {
		h.t.Fatal("StartStreamdl must be called before Interrupt")
	}

	if err := h.streamdlCmd.Process.Signal(os.Interrupt); err != nil {
		h.t.Fatalf("failed to interrupt streamdl: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- h.streamdlCmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(timeout):
		h.t.Fatalf("streamdl did not exit within %v after interrupt", timeout)
	}
	h.streamdlCmd = nil

	result := Result{Stdout: h.stdout.String(), Stderr: h.stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		h.t.Fatalf("failed waiting for streamdl: %v", err)
	}
	return result
}

// Cleanup stops all running services.
func (h *TestHarness) Cleanup() {
	h.t.Helper()

	if h.cancel != nil {
		h.cancel()
	}
	if h.streamdlCmd != nil && h.streamdlCmd.Process != nil {
		h.streamdlCmd.Process.Kill()
		h.streamdlCmd.Wait()
	}

	if h.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.httpServer.Shutdown(ctx)
	}
}

// findStreamdlBinary locates the streamdl binary.
func (h *TestHarness) findStreamdlBinary() string {
	h.t.Helper()

	candidates := []string{
		"../../streamdl",          // From test/integration
		"./streamdl",              // From project root
		"../streamdl",             // From test directory
		"./cmd/streamdl/streamdl", // Built in place
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			return absPath
		}
	}

	h.t.Fatal("streamdl binary not found. Run 'go build -o streamdl ./cmd/streamdl' first")
	return ""
}

// waitForServer waits for a server to become available.
func (h *TestHarness) waitForServer(url string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	h.t.Fatalf("server at %s did not become available within %v", url, timeout)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

// WaitForCondition polls until a condition is met or timeout occurs.
func (h *TestHarness) WaitForCondition(condition func() bool, timeout time.Duration, description string) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		<-ticker.C
		if time.Now().After(deadline) {
			h.t.Fatalf("timeout waiting for condition: %s", description)
		}
	}
}
