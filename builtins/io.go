package builtins

import (
	"fmt"

	"github.com/corvid-scheme/corvid/value"
)

// defineIO seeds display/write/newline (§6.2's "observable I/O"),
// generalizing the teacher's fmt.Printf(Print(output)) repl echo
// (repl.go) into natives any Scheme program can call directly rather
// than only seeing at the top level.
func (r *registry) defineIO() {
	h := r.h

	r.native("display", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("display", 1, len(args))
		}
		if r.out != nil {
			fmt.Fprint(r.out, value.Write(h, args[0], false))
		}
		return value.Unspecified, nil
	})

	r.native("write", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("write", 1, len(args))
		}
		if r.out != nil {
			fmt.Fprint(r.out, value.Write(h, args[0], true))
		}
		return value.Unspecified, nil
	})

	r.native("newline", func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return arityError("newline", 0, len(args))
		}
		if r.out != nil {
			fmt.Fprintln(r.out)
		}
		return value.Unspecified, nil
	})
}
