package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// Prompt returns the interactive lookup prompt, colored when the
// terminal supports it.
func Prompt() string {
	p := termenv.ColorProfile()
	return termenv.String("> ").Foreground(p.Color("#818cf8")).Bold().String()
}

// PrintGreeting introduces an interactive lookup session on stdout.
func PrintGreeting(source, version string) {
	p := termenv.ColorProfile()
	name := termenv.String(fmt.Sprintf("hfstol %s", version)).Foreground(p.Color("#818cf8")).Bold()
	hint := termenv.String(fmt.Sprintf("looking up against %s; one word per line, ctrl-d ends the session", source)).Faint()

	fmt.Println(name)
	fmt.Println(hint)
	fmt.Println()
}
