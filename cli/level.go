package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/georgepadayatti/gopades/config"
	"github.com/georgepadayatti/gopades/sign/pades"
	"github.com/georgepadayatti/gopades/sign/pades/eventlog"
)

// LevelOptions contains options for the level command.
type LevelOptions struct {
	ConfigFile   string
	JSON         bool
	Verbose      bool
	Color        string
	HideWarnings bool
}

// LevelCommand implements the 'level' command. It exits with status 1 when
// the document level is NONE or INDETERMINATE and 2 on usage or input errors.
func LevelCommand(args []string) {
	levelFlags := flag.NewFlagSet("level", flag.ContinueOnError)
	levelFlags.SetOutput(stderr)

	var opts LevelOptions

	levelFlags.StringVar(&opts.ConfigFile, "config", "", "YAML configuration file")
	levelFlags.BoolVar(&opts.JSON, "json", false, "Output the report in JSON format")
	levelFlags.BoolVar(&opts.Verbose, "verbose", false, "Log every validation event")
	levelFlags.StringVar(&opts.Color, "color", "", "Styled output: auto, always, never")
	levelFlags.BoolVar(&opts.HideWarnings, "no-warnings", false, "Omit warnings from text output")

	levelFlags.Usage = func() {
		prog := programName()
		fmt.Fprintf(stderr, "Usage: %s level [options] <events.yaml>\n\n", prog)
		fmt.Fprintln(stderr, "Replay a validation event log and report the PAdES level of each signature.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Arguments:")
		fmt.Fprintln(stderr, "  events.yaml  Validation event log")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		levelFlags.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Examples:")
		fmt.Fprintf(stderr, "  %s level events.yaml\n", prog)
		fmt.Fprintf(stderr, "  %s level -json events.yaml\n", prog)
		fmt.Fprintf(stderr, "  %s level -config gopades.yaml -verbose events.yaml\n", prog)
	}

	if err := levelFlags.Parse(args[2:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error parsing flags: %v\n", err)
		}
		osExit(2)
		return
	}

	if levelFlags.NArg() < 1 {
		levelFlags.Usage()
		osExit(2)
		return
	}

	report, appConfig, err := runLevel(levelFlags.Arg(0), &opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(2)
		return
	}

	if appConfig.Output.Format == "json" {
		if err := outputReportJSON(report); err != nil {
			fmt.Fprintf(stderr, "Error encoding JSON: %v\n", err)
			osExit(2)
			return
		}
	} else {
		st := newStyles(stdout, appConfig.Output.Color)
		outputReportText(report, st, *appConfig.Output.ShowWarnings)
	}

	if !report.DocumentLevel().OnLadder() {
		osExit(1)
	}
}

// runLevel loads configuration, replays the event log and returns the
// report along with the effective configuration.
func runLevel(logPath string, opts *LevelOptions) (*pades.DocumentReport, *config.AppConfig, error) {
	appConfig := config.DefaultAppConfig()
	if opts.ConfigFile != "" {
		loaded, err := config.LoadAppConfig(opts.ConfigFile)
		if err != nil {
			return nil, nil, err
		}
		appConfig = loaded
	}
	applyFlagOverrides(appConfig, opts)
	if err := appConfig.Validate(); err != nil {
		return nil, nil, err
	}

	logger, closeLog, err := appConfig.Logging.NewLogger(stdout, stderr)
	if err != nil {
		return nil, nil, err
	}
	defer closeLog()

	events, err := eventlog.Load(logPath)
	if err != nil {
		return nil, nil, err
	}

	generator := pades.NewReportGenerator(
		pades.WithLogger(logger),
		pades.WithClassifier(appConfig.Policy.AlgorithmPolicy()),
	)
	events.Replay(generator)
	if depth := generator.Depth(); depth > 0 {
		logger.Warn("event log ended with open validation scopes", "depth", depth)
	}
	return generator.Report(), appConfig, nil
}

func applyFlagOverrides(c *config.AppConfig, opts *LevelOptions) {
	if opts.JSON {
		c.Output.Format = "json"
	}
	if opts.Color != "" {
		c.Output.Color = opts.Color
	}
	if opts.HideWarnings {
		show := false
		c.Output.ShowWarnings = &show
	}
	if opts.Verbose {
		c.Logging.Level = "debug"
	}
}

func outputReportJSON(report *pades.DocumentReport) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
