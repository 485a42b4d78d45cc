// Package ui handles terminal output and interactive prompts for the
// build driver. The pipeline itself never prints or prompts: it
// receives resolved booleans, and this package is where those booleans
// come from in interactive sessions.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Printer writes user-facing status lines. Logging goes to zerolog;
// this is the human-readable progress channel of an interactive build.
type Printer struct {
	info    pterm.PrefixPrinter
	success pterm.PrefixPrinter
	warn    pterm.PrefixPrinter
	err     pterm.PrefixPrinter
}

// NewPrinter creates a Printer. With color disabled the prefixes
// degrade to plain text markers.
func NewPrinter(color bool) *Printer {
	if !color {
		pterm.DisableColor()
	}
	return &Printer{
		info:    pterm.Info,
		success: pterm.Success,
		warn:    pterm.Warning,
		err:     pterm.Error,
	}
}

func (p *Printer) Info(format string, args ...interface{})    { p.info.Printfln(format, args...) }
func (p *Printer) Success(format string, args ...interface{}) { p.success.Printfln(format, args...) }
func (p *Printer) Warn(format string, args ...interface{})    { p.warn.Printfln(format, args...) }
func (p *Printer) Error(format string, args ...interface{})   { p.err.Printfln(format, args...) }

// IsInteractive reports whether stdin and stdout are attached to a
// terminal. Piped or CI invocations must never block on a prompt.
func IsInteractive() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

// PromptProvider answers yes/no questions. The pipeline receives its
// destructive-action booleans through this abstraction and never knows
// whether a human or a flag supplied them.
type PromptProvider interface {
	// Confirm asks a yes/no question. The answer on plain enter is
	// always no: every prompted action is destructive.
	Confirm(question string) bool
}

// ConsolePrompter asks on the terminal.
type ConsolePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewConsolePrompter creates a ConsolePrompter reading stdin.
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{in: os.Stdin, out: os.Stdout}
}

// Confirm implements PromptProvider.
func (c *ConsolePrompter) Confirm(question string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", question)

	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// StaticPrompter answers every question with a fixed value. It backs
// non-interactive mode, where prompts resolve to their safe default.
type StaticPrompter struct {
	Answer bool
}

// Confirm implements PromptProvider.
func (s StaticPrompter) Confirm(string) bool {
	return s.Answer
}
