package repl

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

const (
	newPrompt  = "\033[32mcorvid>\033[0m "
	contPrompt = "\033[32m     .>\033[0m "
)

// readResult carries one rl.Readline() call's outcome across to the
// select loop in RunInteractive, since readline itself only offers a
// blocking call and reloads must be served while the user is still
// sitting at the prompt.
type readResult struct {
	line string
	err  error
}

// RunInteractive drives s from the terminal via readline, mirroring
// launix-de-memcp/scm/prompt.go's Repl: a new/continuation prompt pair,
// history persisted to historyFile, and oldline-style accumulation of
// a form that spans multiple lines - generalized to use Drain's
// Status-based incomplete/complete distinction instead of that
// teacher's panic/recover-on-"expecting matching )" trick. Every
// Eval, whether triggered by a completed line or by a pending
// WatchFile reload, runs here on this single goroutine, so the two
// never touch s.H/s.VM concurrently.
func (s *Session) RunInteractive(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            newPrompt,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	rl.CaptureExitSignal()

	lines := make(chan readResult)
	go func() {
		for {
			line, err := rl.Readline()
			lines <- readResult{line, err}
			if err != nil {
				return
			}
		}
	}()

	pending := ""
	for {
		select {
		case path := <-s.reloads:
			if err := s.LoadFile(path); err != nil {
				fmt.Fprintf(s.Out, "watch: reload %s: %v\n", path, err)
			}

		case r := <-lines:
			if errors.Is(r.err, readline.ErrInterrupt) {
				if pending == "" {
					continue
				}
				pending = ""
				rl.SetPrompt(newPrompt)
				continue
			}
			if errors.Is(r.err, io.EOF) {
				return nil
			}
			if r.err != nil {
				return r.err
			}

			pending += r.line + "\n"
			remainder, drainErr := s.Drain(pending, true)
			if errors.Is(drainErr, ErrQuit) {
				return nil
			}
			if drainErr != nil {
				fmt.Fprintf(s.Out, "error: %v\n", drainErr)
				pending = ""
				rl.SetPrompt(newPrompt)
				continue
			}
			pending = remainder
			if pending == "" {
				rl.SetPrompt(newPrompt)
			} else {
				rl.SetPrompt(contPrompt)
			}
		}
	}
}
