// Package testutil provides common test helpers for vmgrader tests.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmgrader/vmgrader/internal/vm"
)

// DiscardLogger returns a logger that swallows everything. Tests that
// assert on diagnostics should build their own handler instead.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GuestRoot returns a normalized guest root suitable for tests.
func GuestRoot() vm.GuestRoot {
	return vm.GuestRoot{Native: "/grading/", Shell: "/grading/", Separator: "/"}.Normalize()
}

// WriteFiles creates each named file under dir with placeholder content,
// creating parent directories as needed.
func WriteFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte("content of "+name+"\n"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// CampaignDirs creates temporary jobs and scripts directories populated
// with the given files.
func CampaignDirs(t *testing.T, jobs, scripts []string) (jobsDir, scriptsDir string) {
	t.Helper()
	jobsDir = t.TempDir()
	scriptsDir = t.TempDir()
	WriteFiles(t, jobsDir, jobs...)
	WriteFiles(t, scriptsDir, scripts...)
	return jobsDir, scriptsDir
}
