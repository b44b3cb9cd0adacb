// Command corvid is the host entry point §6 describes as external to
// the core: it wires flag-based configuration onto repl.Session,
// generalizing the teacher's main.go (three hardcoded LoadFile calls
// then Repl) into a configurable bootstrap-then-interactive-loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corvid-scheme/corvid/repl"
)

// loadFlags collects repeated -load flags, the way memcp's main.go
// defines an arrayFlags type to let a single flag name be given more
// than once on the command line.
type loadFlags []string

func (f *loadFlags) String() string     { return strings.Join(*f, ",") }
func (f *loadFlags) Set(s string) error { *f = append(*f, s); return nil }

func main() {
	var loads loadFlags
	flag.Var(&loads, "load", "bootstrap file to load before the REPL starts (repeatable)")
	watch := flag.String("watch", "", "bootstrap file to load and keep reloading on change, instead of -load")
	historyFile := flag.String("history", defaultHistoryFile(), "readline history file")
	flag.Parse()

	s := repl.New(os.Stdout)

	for _, path := range loads {
		if err := s.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "corvid: loading %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if *watch != "" {
		if err := s.WatchFile(*watch); err != nil {
			fmt.Fprintf(os.Stderr, "corvid: watching %s: %v\n", *watch, err)
			os.Exit(1)
		}
	}

	for _, path := range flag.Args() {
		if err := s.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "corvid: loading %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if err := s.RunInteractive(*historyFile); err != nil {
		fmt.Fprintf(os.Stderr, "corvid: %v\n", err)
		os.Exit(1)
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".corvid-history"
	}
	return filepath.Join(home, ".corvid-history")
}
