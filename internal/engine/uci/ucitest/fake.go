// Package ucitest provides a scripted stand-in for a UCI engine binary.
package ucitest

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// DefaultSearch is what the fake engine prints for every "go" command
// unless other lines are supplied.
var DefaultSearch = []string{
	"info depth 1 multipv 1 score cp 12 pv e2e4",
	"info depth 12 multipv 1 score cp 34 pv e7e5 g1f3 b8c6",
	"bestmove e7e5 ponder g1f3",
}

// Engine writes an executable shell script that speaks enough UCI for the
// driver and returns its path. Each "go" prints searchLines.
func Engine(t testing.TB, searchLines ...string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if len(searchLines) == 0 {
		searchLines = DefaultSearch
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("while IFS= read -r line; do\n")
	sb.WriteString("  case \"$line\" in\n")
	sb.WriteString("    uci) printf 'id name ucitest\\nuciok\\n' ;;\n")
	sb.WriteString("    isready) echo readyok ;;\n")
	sb.WriteString("    go*)\n")
	for _, l := range searchLines {
		sb.WriteString("      echo '" + strings.ReplaceAll(l, "'", "") + "'\n")
	}
	sb.WriteString("      ;;\n")
	sb.WriteString("    quit) exit 0 ;;\n")
	sb.WriteString("  esac\n")
	sb.WriteString("done\n")

	path := filepath.Join(t.TempDir(), "fake-engine")
	if err := os.WriteFile(path, []byte(sb.String()), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

// Silent returns an engine that completes the handshake but never answers a
// search, for timeout paths.
func Silent(t testing.TB) string {
	t.Helper()
	return Engine(t, "info string thinking")
}
