// Package main provides the entry point for the zipsign CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/zipsign/internal/cli"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // build metadata
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := cli.Execute(context.Background(), cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	os.Exit(cli.ExitCodeForError(err))
}
