// Package builtins seeds a fresh top-level environment with the
// primitive forms the compiler dispatches on (§3.4) and the native
// procedure registry §6.2 describes as host-provided (out of the
// core's scope, but required to exist for §8's scenarios to run at
// all). It generalizes the teacher's lisp/repl.go NewTopLevelFrame,
// which seeds only SpecialForm bindings, to also seed Native ones.
package builtins

import (
	"io"

	"github.com/corvid-scheme/corvid/env"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// Seed allocates a fresh top-level environment bound with every
// primitive form and every native this package implements, and
// returns its heap.Ref. out is where display/newline write; a nil out
// defaults to discarding output, which is convenient for tests that
// only care about the returned value.
func Seed(h *heap.Heap, out io.Writer) heap.Ref {
	top := env.New(h, 0)
	defineForms(h, top)
	reg := &registry{h: h, top: top, out: out}
	reg.definePredicates()
	reg.definePairs()
	reg.defineNumeric()
	reg.defineVectors()
	reg.defineIO()
	reg.defineMisc()
	return top
}

func defineForms(h *heap.Heap, top heap.Ref) {
	forms := map[string]value.PrimitiveForm{
		"quote": value.FormQuote, "define": value.FormDefine, "lambda": value.FormLambda,
		"if": value.FormIf, "set!": value.FormSetBang, "begin": value.FormBegin,
		"call/cc": value.FormCallCC, "call-with-current-continuation": value.FormCallCC,
		"let": value.FormLet, "let*": value.FormLetStar, "letrec": value.FormLetrec,
		"and": value.FormAnd, "or": value.FormOr, "cond": value.FormCond,
		"when": value.FormWhen, "unless": value.FormUnless,
	}
	for name, f := range forms {
		env.Define(h, top, name, value.Form(f))
	}
}

// registry carries the shared handles every group of natives needs:
// the heap for construction, the top-level environment to bind into,
// and the output stream display/newline write to.
type registry struct {
	h   *heap.Heap
	top heap.Ref
	out io.Writer
}

func (r *registry) native(name string, fn value.NativeFn) {
	env.Define(r.h, r.top, name, value.NativeVal(&value.Native{Name: name, Fn: fn}))
}

// retainVal and releaseVal mirror vm's own register-update helpers:
// a native returning a value some rib element already owns (car,
// cdr, a vector element) must retain it first, since apply releases
// the rib right after the call returns (see vm.stepApply's doc
// comment) - only values built fresh in this call (cons, vector,
// list, string->symbol) can be returned unretained.
func retainVal(h *heap.Heap, v value.Value) {
	for _, ref := range value.RefsOf(v) {
		h.Retain(ref)
	}
}
