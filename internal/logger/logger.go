// Package logger provides the leveled terminal output used across the CLI.
//
// Levels map to verbosity flags: quiet shows errors and warnings only, the
// default adds info, verbose adds debug, and trace is debug plus call-level
// noise for bug reports.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Level controls which messages are printed.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ColorMode controls whether level tags are styled.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

var (
	mu     sync.Mutex
	level  = LevelInfo
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	colorOut bool
	colorErr bool

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// Init sets the verbosity and color mode for the process.
func Init(l Level, mode ColorMode) {
	mu.Lock()
	defer mu.Unlock()

	level = l
	switch mode {
	case ColorAlways:
		colorOut, colorErr = true, true
	case ColorNever:
		colorOut, colorErr = false, false
	default:
		colorOut = isatty.IsTerminal(os.Stdout.Fd())
		colorErr = isatty.IsTerminal(os.Stderr.Fd())
	}
}

// SetOutput redirects log output, for tests.
func SetOutput(out, err io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout, stderr = out, err
	colorOut, colorErr = false, false
}

// Enabled reports whether messages at l would be printed.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l <= level
}

func logf(w io.Writer, color bool, style lipgloss.Style, tag, format string, args ...any) {
	if color {
		tag = style.Render(tag)
	}
	fmt.Fprintf(w, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

// Errorf prints an error message to stderr. Always shown.
func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logf(stderr, colorErr, errorStyle, "[ERROR]", format, args...)
}

// Warnf prints a warning to stdout.
func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < LevelWarn {
		return
	}
	logf(stdout, colorOut, warnStyle, "[WARN] ", format, args...)
}

// Infof prints an info message to stdout.
func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < LevelInfo {
		return
	}
	logf(stdout, colorOut, infoStyle, "[INFO] ", format, args...)
}

// Debugf prints a debug message to stdout when verbose output is enabled.
func Debugf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < LevelDebug {
		return
	}
	logf(stdout, colorOut, debugStyle, "[DEBUG]", format, args...)
}

// Tracef prints call-level detail at the highest verbosity.
func Tracef(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < LevelTrace {
		return
	}
	logf(stdout, colorOut, debugStyle, "[TRACE]", format, args...)
}
