// Package main provides the entry point for the testmo CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/testmo/internal/cli"
	"github.com/mrz1836/testmo/internal/signal"
)

// Set by goreleaser through -ldflags.
//
//nolint:gochecknoglobals // build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	h := signal.NewHandler(context.Background())
	code := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	code = h.ExitCode(code)
	h.Stop()
	os.Exit(code)
}
