// Package vm executes the tree-threaded instruction stream the
// compiler package produces (spec §4.6): a five-register machine -
// acc, exp, env, rib, frame - stepping through the 12 opcodes until it
// reaches halt. It generalizes the teacher's interpreter.go tree-walk
// (Eval(expr, env) called recursively, with Go's own call stack
// standing in for Scheme's) into an explicit register loop, which is
// what makes proper tail calls and first-class continuations
// representable at all: a tail call just replaces the current frame
// register instead of recursing, and a captured continuation is
// nothing more than a snapshot of the frame register, reinstalled
// later by the nuate opcode.
package vm

import (
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// Frame is one saved call frame (§4.6): the instruction to resume at,
// the caller's environment and argument rib, and the frame beneath it
// in the call chain. Frame is heap-allocated (not a Go stack frame) so
// it can outlive the call that pushed it, which is exactly what a
// reified continuation requires.
type Frame struct {
	Ret  value.Value
	Env  heap.Ref
	Rib  []value.Value
	Next heap.Ref
}

func (f *Frame) References() []heap.Ref {
	refs := value.RefsOf(f.Ret)
	refs = append(refs, value.RefsOf(f.Rib...)...)
	if f.Env != 0 {
		refs = append(refs, f.Env)
	}
	if f.Next != 0 {
		refs = append(refs, f.Next)
	}
	return refs
}

func getFrame(h *heap.Heap, r heap.Ref) *Frame {
	return h.Get(r).(*Frame)
}
