package main

import (
	"pkgmedic/internal/cli"
	_ "pkgmedic/internal/rules/checks"
)

// These variables are populated at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
