// Package repl drives the read-compile-execute-print loop §6.3
// describes as external to the core, plus bootstrap-file loading.
// It generalizes the teacher's lisp/repl.go (Repl/LoadFile) from a
// whole-string bufio.Scanner loop into one that can tell "needs more
// input" apart from "syntax error" via the parser's Status, and
// replaces bufio.Scanner with github.com/chzyer/readline for history
// and line editing the way launix-de-memcp/scm/prompt.go does for its
// own Scheme-like REPL.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/corvid-scheme/corvid/builtins"
	"github.com/corvid-scheme/corvid/compiler"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/lexer"
	"github.com/corvid-scheme/corvid/parser"
	"github.com/corvid-scheme/corvid/value"
	"github.com/corvid-scheme/corvid/vm"
)

// ErrQuit is returned by Drain when the input stream contains the
// #!quit directive §6.1 requires the lexer to accept and the REPL to
// act on; RunInteractive treats it as a normal exit and returns nil.
var ErrQuit = errors.New("repl: #!quit")

// Session is one REPL's persistent state: a heap, its top-level
// environment (seeded once via builtins.Seed), and the VM that
// executes every subsequent top-level form against it. One Session
// outlives any number of Eval/Drain calls, matching §6.2's "added
// bindings persist across REPL input batches".
type Session struct {
	H   *heap.Heap
	Top heap.Ref
	VM  *vm.VM
	Out io.Writer

	// reloads carries file paths a WatchFile goroutine wants reread.
	// It exists so the watcher never touches H/VM itself (§5 requires
	// a single VM run on a single thread sharing no mutable state
	// with any other goroutine); RunInteractive drains it on the same
	// thread that drives Eval, serializing every reload against the
	// REPL's own compile-and-run calls. Buffered by one and drained
	// with a non-blocking send, so a burst of file events collapses
	// into "reload at least once" rather than blocking the watcher or
	// queuing redundant reloads.
	reloads chan string
}

// New builds a Session whose display/write/newline natives write to
// out (os.Stdout for an interactive session, or any io.Writer a
// caller wants to capture output from instead).
func New(out io.Writer) *Session {
	h := heap.New()
	top := builtins.Seed(h, out)
	return &Session{H: h, Top: top, VM: vm.New(h, top), Out: out, reloads: make(chan string, 1)}
}

// Eval compiles and runs exactly one already-parsed datum against the
// session's persistent top-level environment.
func (s *Session) Eval(datum value.Value) (value.Value, error) {
	c := compiler.New(s.H, s.Top)
	instr, err := c.Compile(datum, compiler.InstrHalt(s.H))
	if err != nil {
		return value.Value{}, err
	}
	return s.VM.Run(instr)
}

// isQuit reports whether datum is the #!quit directive the parser
// turns into the symbol "#!quit" (parser.go's Directive case).
func isQuit(d value.Value) bool {
	return d.Tag == value.TagSymbol && d.AsSymbol() == "#!quit"
}

// Drain repeatedly parses and evaluates every complete top-level form
// currently sitting in src, printing each result to the session's Out
// the way a REPL would. It returns the unconsumed remainder of src -
// empty unless the last form in src is still incomplete, in which
// case the caller (RunInteractive) should append more input and call
// Drain again - and ErrQuit if a #!quit directive was evaluated. A
// genuine lex/parse error is reported and the rest of src is
// discarded, since there is no reliable resync point past it.
func (s *Session) Drain(src string, echo bool) (remainder string, err error) {
	runes := []rune(src)
	for {
		l := lexer.New(string(runes))
		res := parser.Parse(s.H, l)
		switch res.Status {
		case parser.StatusEOF:
			return "", nil
		case parser.StatusIncomplete:
			return string(runes), nil
		case parser.StatusComplete:
			if isQuit(res.Datum) {
				return "", ErrQuit
			}
			result, evalErr := s.Eval(res.Datum)
			if evalErr != nil {
				fmt.Fprintf(s.Out, "error: %v\n", evalErr)
			} else if echo && result.Tag != value.TagUnspecified {
				fmt.Fprintln(s.Out, value.Write(s.H, result, true))
			}
			tok, tokErr := l.Get()
			if tokErr != nil {
				return "", tokErr
			}
			l.Unget()
			runes = runes[tok.Pos:]
		default:
			return "", res.Err
		}
	}
}

// LoadFile reads path and evaluates every top-level form in it in
// order, the way the teacher's LoadFile bootstraps stdlib.lisp before
// starting the interactive loop. A trailing incomplete form (file
// truncated mid-datum) is reported as an error, since there is no
// further input coming to complete it.
func (s *Session) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	remainder, err := s.Drain(string(data), false)
	if err != nil {
		return err
	}
	if remainder != "" {
		return fmt.Errorf("repl: %s: unterminated form at end of file", path)
	}
	return nil
}
