// Package cli provides the command-line interface for PAdES level reports.
package cli

import (
	"fmt"
	"io"
	"os"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the CLI with the given arguments.
// This is the main entry point for the CLI.
func Run(args []string) {
	if len(args) < 2 {
		Usage()
		return
	}

	command := args[1]

	switch command {
	case "level":
		LevelCommand(args)
	case "version":
		VersionCommand()
	case "help", "-h", "--help":
		Usage()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		Usage()
		osExit(2)
	}
}

// Usage prints the CLI usage information.
func Usage() {
	prog := programName()
	fmt.Fprintf(stdout, "gopades - PAdES baseline conformance level reports\n\n")
	fmt.Fprintf(stdout, "Usage: %s <command> [options] <args>\n\n", prog)
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "  level    Determine the PAdES level from a validation event log")
	fmt.Fprintln(stdout, "  version  Show version information")
	fmt.Fprintln(stdout, "  help     Show this help message")
	fmt.Fprintln(stdout, "")
	fmt.Fprintf(stdout, "Use '%s <command> -h' for command-specific help\n", prog)
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintf(stdout, "  %s level events.yaml\n", prog)
	fmt.Fprintf(stdout, "  %s level -json -config gopades.yaml events.yaml\n", prog)
}

// VersionCommand prints version information.
func VersionCommand() {
	fmt.Fprintf(stdout, "gopades version %s\n", Version)
	fmt.Fprintf(stdout, "Build time: %s\n", BuildTime)
}

func programName() string {
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return "gopades"
}
