package main

import (
	"pubcheck/internal/cli"
	_ "pubcheck/internal/fetcher/providers"
	_ "pubcheck/internal/rules/checks"
)

// These variables are populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
