package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// Success prints a green check line.
func Success(w io.Writer, format string, args ...interface{}) {
	_, _ = successColor.Fprintln(w, "✓ "+fmt.Sprintf(format, args...))
}

// Error prints a red cross line.
func Error(w io.Writer, format string, args ...interface{}) {
	_, _ = errorColor.Fprintln(w, "✗ "+fmt.Sprintf(format, args...))
}

func Warning(w io.Writer, format string, args ...interface{}) {
	_, _ = warningColor.Fprintln(w, "! "+fmt.Sprintf(format, args...))
}

func Info(w io.Writer, format string, args ...interface{}) {
	_, _ = infoColor.Fprintln(w, fmt.Sprintf(format, args...))
}

// SQL prints a generated statement under a dim caption.
func SQL(w io.Writer, statement string) {
	_, _ = dimColor.Fprintln(w, "Generated SQL:")
	_, _ = fmt.Fprintln(w, statement)
}
