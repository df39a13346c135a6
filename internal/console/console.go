package console

import (
	"fmt"
	"io"
	"os"

	"github.com/TwiN/go-color"
	"github.com/mattn/go-isatty"
)

var (
	// Out receives regular output, Err receives warnings and errors.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	// Colors are only emitted when stdout is a terminal.
	Colors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	verbose bool
)

// SetVerbose enables Verbose output.
func SetVerbose(v bool) {
	verbose = v
}

func paint(c string, s string) string {
	if !Colors {
		return s
	}
	return color.Ize(c, s)
}

// Print a verbose message. Only printed when verbose output is enabled.
func Verbose(message string, vars ...any) {
	if !verbose {
		return
	}
	fmt.Fprint(Err, paint(color.Gray, fmt.Sprintf(message, vars...))+"\n")
}

// Print a success message.
func Success(message string, vars ...any) {
	fmt.Fprint(Out, paint(color.Green, fmt.Sprintf(message, vars...))+"\n")
}

// Print an info message.
func Info(message string, vars ...any) {
	fmt.Fprint(Out, paint(color.Cyan, fmt.Sprintf(message, vars...))+"\n")
}

// Print a warning message.
func Warning(message string, vars ...any) {
	fmt.Fprint(Err, paint(color.Yellow, fmt.Sprintf(message, vars...))+"\n")
}

// Print an error message.
func ErrorPrint(message string, vars ...any) {
	fmt.Fprint(Err, paint(color.Red, fmt.Sprintf(message, vars...))+"\n")
}

// Plain writes s to Out unchanged, for output meant to be piped.
func Plain(s string) {
	fmt.Fprintln(Out, s)
}
