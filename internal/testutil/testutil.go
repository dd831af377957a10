// Package testutil provides fixtures shared by package tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PNGHeader is enough for content sniffing to report image/png.
//
//nolint:gochecknoglobals // Read-only fixture
var PNGHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// IsolatedHome points TESTMO_HOME at a fresh directory, switches colors off
// and lowers the bcrypt cost so logins stay fast. It returns the directory.
//
// Tests calling it must not run in parallel.
func IsolatedHome(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	tb.Setenv("TESTMO_HOME", dir)
	tb.Setenv("TESTMO_AUTH_BCRYPT_COST", "4")
	tb.Setenv("NO_COLOR", "1")
	return dir
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
