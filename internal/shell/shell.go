// Package shell is the line-oriented control surface of a running
// exploration. It only validates and queues pairs; it never calls the
// oracle itself.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPrompt is printed before each line is read.
const DefaultPrompt = "] "

// Catalog answers questions about known elements.
type Catalog interface {
	Known(name string) bool
	Elements() []string
}

// Submitter accepts validated pairs for exploration.
type Submitter interface {
	Submit(first, second string) bool
}

// Shell reads commands from in and writes replies to out.
type Shell struct {
	in      io.Reader
	out     io.Writer
	prompt  string
	catalog Catalog
	queue   Submitter
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt overrides DefaultPrompt. An empty prompt disables it.
func WithPrompt(p string) Option {
	return func(s *Shell) {
		s.prompt = p
	}
}

// New creates a shell.
func New(in io.Reader, out io.Writer, catalog Catalog, queue Submitter, opts ...Option) *Shell {
	s := &Shell{
		in:      in,
		out:     out,
		prompt:  DefaultPrompt,
		catalog: catalog,
		queue:   queue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes lines until EOF or until ctx is done. EOF is a normal exit.
//
// A read blocked in in is not interrupted by ctx: the reading goroutine
// exits only once in returns. Callers that need it gone pass a reader they
// can close.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()

	for {
		s.printf("%s", s.prompt)
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			s.printf("\n")
			if err != nil {
				return fmt.Errorf("read command: %w", err)
			}
			return nil
		case line := <-lines:
			if reply := s.Execute(line); reply != "" {
				s.printf("%s\n", reply)
			}
		}
	}
}

// Execute handles one command line and returns the reply, if any.
func (s *Shell) Execute(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return ""
	case line == "exit":
		return "Press CTRL-D to exit"
	case strings.HasPrefix(line, "?"):
		return strings.Join(s.Complete(strings.TrimSpace(line[1:])), "\n")
	}

	if strings.Count(line, "+") != 1 {
		return "Please enter two words separated by plus, i.e. FOO + BAR"
	}
	first, second, _ := strings.Cut(line, "+")
	var names [2]string
	for i, typed := range []string{first, second} {
		name, ok := s.lookup(typed)
		if !ok {
			return fmt.Sprintf("Not yet discovered: '%s'", strings.TrimSpace(typed))
		}
		names[i] = name
	}
	if !s.queue.Submit(names[0], names[1]) {
		return "Exploration has stopped"
	}
	return ""
}

// Complete returns the known element names starting with prefix, sorted.
func (s *Shell) Complete(prefix string) []string {
	prefix = normalize(prefix)
	var out []string
	for _, name := range s.catalog.Elements() {
		if strings.HasPrefix(norm.NFC.String(name), prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// lookup returns the stored name for a typed one: the name as typed, then
// its NFC form, then any known name with the same NFC form.
func (s *Shell) lookup(typed string) (string, bool) {
	typed = strings.TrimSpace(typed)
	if s.catalog.Known(typed) {
		return typed, true
	}
	name := norm.NFC.String(typed)
	if s.catalog.Known(name) {
		return name, true
	}
	for _, known := range s.catalog.Elements() {
		if norm.NFC.String(known) == name {
			return known, true
		}
	}
	return "", false
}

// normalize trims and NFC-normalizes a typed name so that composed and
// decomposed input match the names the oracle returns.
func normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
