package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Runner executes one command line split into arguments.
type Runner func(ctx context.Context, args []string) error

// REPL is the read-eval-print loop.
type REPL struct {
	in        io.Reader
	out       io.Writer
	prompt    string
	run       Runner
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.in = in
		r.out = out
	}
}

// WithHistory records lines in h.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithCompleter enables "prefix?" listings.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// New creates a REPL that dispatches to run.
func New(run Runner, opts ...Option) *REPL {
	r := &REPL{
		in:     os.Stdin,
		out:    os.Stdout,
		prompt: "zumi> ",
		run:    run,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.completer == nil {
		r.completer = NewCompleter(nil)
	}
	return r
}

// Run reads lines until EOF, exit, quit or ctx cancellation. Command
// errors are printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.out, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line != "" {
			if done := r.eval(ctx, line); done {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(r.out)
			return nil
		}
	}
}

func (r *REPL) eval(ctx context.Context, line string) (done bool) {
	switch line {
	case "exit", "quit":
		return true
	case "history":
		if r.history != nil {
			for i, e := range r.history.Entries() {
				fmt.Fprintf(r.out, "%4d  %s\n", i+1, e)
			}
		}
		return false
	}

	if strings.HasSuffix(line, "?") {
		for _, c := range r.completer.Complete(strings.TrimSpace(strings.TrimSuffix(line, "?"))) {
			fmt.Fprintln(r.out, c)
		}
		return false
	}

	if r.history != nil {
		r.history.Add(line)
	}
	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	if err := r.run(ctx, args); err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return false
}

// Split breaks line into arguments. Single and double quotes group words
// and a backslash escapes the next character outside single quotes.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
