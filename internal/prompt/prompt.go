// Package prompt abstracts operator decisions behind a provider interface,
// so the same interactive flow runs against a console, a scripted replay in
// tests, or an auto-accepting provider for --yes runs.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter obtains operator decisions.
type Prompter interface {
	// Ask prints label, reads a line, and returns it trimmed; empty input
	// yields def.
	Ask(label, def string) string

	// Confirm prints label and interprets the answer as yes/no; empty
	// input yields def.
	Confirm(label string, def bool) bool
}

// Console reads decisions from an interactive terminal.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console prompter on stdin/stdout.
func NewConsole() *Console {
	return NewConsoleWith(os.Stdin, os.Stdout)
}

// NewConsoleWith creates a console prompter on the given streams.
func NewConsoleWith(r io.Reader, w io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(r),
		out: w,
	}
}

func (c *Console) readLine(label string) string {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// Ask implements Prompter.
func (c *Console) Ask(label, def string) string {
	answer := c.readLine(label)
	if answer == "" {
		return def
	}
	return answer
}

// Confirm implements Prompter.
func (c *Console) Confirm(label string, def bool) bool {
	answer := strings.ToLower(c.readLine(label))
	if answer == "" {
		return def
	}
	return answer == "y"
}

// Scripted replays a fixed sequence of answers; once exhausted every answer
// is the default. Preserves the interactive state transitions in tests.
type Scripted struct {
	answers []string
	next    int
}

// NewScripted creates a scripted prompter with the given answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) pop() (string, bool) {
	if s.next >= len(s.answers) {
		return "", false
	}
	answer := s.answers[s.next]
	s.next++
	return answer, true
}

// Ask implements Prompter.
func (s *Scripted) Ask(_, def string) string {
	answer, ok := s.pop()
	if !ok || answer == "" {
		return def
	}
	return answer
}

// Confirm implements Prompter.
func (s *Scripted) Confirm(_ string, def bool) bool {
	answer, ok := s.pop()
	if !ok || answer == "" {
		return def
	}
	return strings.ToLower(answer) == "y"
}

// Auto answers every question without blocking: asks resolve to their
// defaults and confirmations are accepted. Used for --yes runs.
type Auto struct{}

// NewAuto creates an auto-accepting prompter.
func NewAuto() *Auto {
	return &Auto{}
}

// Ask implements Prompter.
func (a *Auto) Ask(_, def string) string {
	return def
}

// Confirm implements Prompter.
func (a *Auto) Confirm(string, bool) bool {
	return true
}
