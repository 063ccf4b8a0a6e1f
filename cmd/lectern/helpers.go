package main

import (
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorState renders a phase or run state for terminal output. Plain text
// is returned when stdout is not a terminal.
func colorState(state string) string {
	if !stdoutIsTerminal() {
		return state
	}
	switch strings.ToLower(state) {
	case "complete", "succeeded":
		return text.FgGreen.Sprint(state)
	case "warning", "pending", "running":
		return text.FgYellow.Sprint(state)
	case "error", "failed":
		return text.FgRed.Sprint(state)
	case "cancelled":
		return text.FgMagenta.Sprint(state)
	default:
		return state
	}
}

// humanizeIdentifier turns a snake_case identifier into a display label.
func humanizeIdentifier(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func joinPhases(phases []string) string {
	if len(phases) == 0 {
		return "-"
	}
	return strings.Join(phases, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
