// Command gopades reports the PAdES baseline conformance level of PDF
// signatures from a validation event log.
//
// Usage:
//
//	gopades <command> [options] <args>
//
// Commands:
//
//	level    Determine the PAdES level from a validation event log
//	version  Show version information
//	help     Show help message
//
// Examples:
//
//	# Text report
//	gopades level events.yaml
//
//	# JSON report with a policy file
//	gopades level -json -config gopades.yaml events.yaml
package main

import (
	"os"

	"github.com/georgepadayatti/gopades/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/gopades
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	cli.Run(os.Args)
}
