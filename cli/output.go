package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/georgepadayatti/gopades/sign/pades"
)

type styles struct {
	title lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

// newStyles builds the text report styles for w. mode is auto, always or
// never; auto colours only when w is a terminal.
func newStyles(w io.Writer, mode string) *styles {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case "always":
		r.SetColorProfile(termenv.ANSI256)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	default:
		if !isTerminal(w) {
			r.SetColorProfile(termenv.Ascii)
		}
	}

	return &styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		good:  r.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *styles) level(l pades.Level) string {
	switch {
	case l == pades.LevelIndeterminate:
		return s.warn.Render(l.String())
	case l.OnLadder():
		return s.good.Render(l.String())
	default:
		return s.bad.Render(l.String())
	}
}

// outputReportText writes the report in human-readable text format.
func outputReportText(report *pades.DocumentReport, s *styles, showWarnings bool) {
	fmt.Fprintln(stdout, s.title.Render("PAdES Conformance Report"))
	fmt.Fprintf(stdout, "========================\n\n")

	fmt.Fprintf(stdout, "Document level: %s\n", s.level(report.DocumentLevel()))
	fmt.Fprintf(stdout, "Report ID: %s\n", s.dim.Render(report.ID().String()))
	if summary := report.DSSSummary(); summary != "" {
		fmt.Fprintf(stdout, "%s\n", summary)
	}
	fmt.Fprintf(stdout, "Found %d signature(s)\n", report.Len())

	for _, sig := range report.SignatureReports() {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Signature %q: %s\n", sig.Name(), s.level(sig.Level()))

		printBuckets(s.bad, "Non-conformities", sig.NonConformities())
		if showWarnings {
			printBuckets(s.warn, "Warnings", sig.Warnings())
		}
	}
}

func printBuckets(style lipgloss.Style, heading string, buckets map[pades.Level][]string) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(stdout, "  %s:\n", heading)
	for _, level := range pades.LadderLevels {
		for _, msg := range buckets[level] {
			fmt.Fprintf(stdout, "    [%s] %s\n", level, style.Render(msg))
		}
	}
}
