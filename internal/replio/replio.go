// Package replio contains the line readers used by cmd/glossa's repl
// subcommand, adapted from the engine's own command-input readers: a
// direct reader for piped/non-tty input, and a GNU-readline-backed one
// for interactive sessions with history and line editing.
package replio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DirectReader reads lines from any io.Reader with no editing or
// history support. Use it for piped input or when readline can't
// attach to a real tty.
//
// DirectReader should not be used directly; create one with
// [NewDirectReader].
type DirectReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveReader reads lines from stdin via GNU readline, giving
// history and line editing. Its Close method must be called before
// disposal to tear down readline's terminal state.
//
// InteractiveReader should not be used directly; create one with
// [NewInteractiveReader].
type InteractiveReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader wraps r in a buffered DirectReader.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{r: bufio.NewReader(r)}
}

// NewInteractiveReader initializes readline with prompt "glossa> ".
func NewInteractiveReader() (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "glossa> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveReader{rl: rl, prompt: "glossa> "}, nil
}

// Close is a no-op; DirectReader owns no resources that outlive it.
func (dr *DirectReader) Close() error { return nil }

// Close tears down readline's terminal state.
func (ir *InteractiveReader) Close() error { return ir.rl.Close() }

// ReadLine blocks until a non-blank line is read (unless AllowBlank was
// set), returning io.EOF once input is exhausted.
func (dr *DirectReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" && dr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// ReadLine blocks until a non-blank line is read (unless AllowBlank was
// set), returning io.EOF once input is exhausted. An interrupt (Ctrl-C)
// is returned as readline.ErrInterrupt.
func (ir *InteractiveReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ir.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" && ir.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// AllowBlank sets whether a blank line is returned as-is rather than
// skipped. Off by default.
func (dr *DirectReader) AllowBlank(allow bool) { dr.blanksAllowed = allow }

// AllowBlank sets whether a blank line is returned as-is rather than
// skipped. Off by default.
func (ir *InteractiveReader) AllowBlank(allow bool) { ir.blanksAllowed = allow }

// SetPrompt updates the displayed prompt.
func (ir *InteractiveReader) SetPrompt(p string) {
	ir.prompt = p
	ir.rl.SetPrompt(p)
}
