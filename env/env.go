// Package env implements chained binding frames (spec §3.5/§4.4). An
// environment is a mapping from symbols to value cells plus an
// optional parent; lookup walks the chain to the first match, define
// always binds in the nearest frame, and assign mutates the nearest
// existing binding or fails. Environments are heap-allocated
// (§4.1 lists "captured Environment" among the compound values the
// manager owns), referenced by heap.Ref so closures can share one
// without this package needing to know about value.Closure.
package env

import (
	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// Environment is the heap object backing one binding frame. It
// implements heap.Object via References, generalizing the teacher's
// lisp_type.Frame{Parent *Frame, Bindings map[string]Value} from a
// native-pointer parent chain to a heap.Ref one.
type Environment struct {
	Parent   heap.Ref
	Bindings map[string]value.Value
}

func (e *Environment) References() []heap.Ref {
	refs := value.RefsOf(valuesOf(e.Bindings)...)
	if e.Parent != 0 {
		refs = append(refs, e.Parent)
	}
	return refs
}

func valuesOf(m map[string]value.Value) []value.Value {
	out := make([]value.Value, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// New allocates a fresh environment with the given parent (0 for
// none), retaining the parent reference on the caller's behalf.
func New(h *heap.Heap, parent heap.Ref) heap.Ref {
	if parent != 0 {
		h.Retain(parent)
	}
	return h.Allocate(&Environment{Parent: parent, Bindings: map[string]value.Value{}})
}

func get(h *heap.Heap, ref heap.Ref) *Environment {
	return h.Get(ref).(*Environment)
}

// Define unconditionally binds sym to val in the frame ref refers to
// (§4.4), discarding any previous binding of sym in that same frame.
func Define(h *heap.Heap, ref heap.Ref, sym string, val value.Value) {
	e := get(h, ref)
	retainIfHeap(h, val)
	if old, ok := e.Bindings[sym]; ok {
		releaseIfHeap(h, old)
	}
	e.Bindings[sym] = val
}

// Lookup walks the parent chain starting at ref for the nearest
// binding of sym, failing with a kind-coded unbound-variable error if
// none exists anywhere in the chain.
func Lookup(h *heap.Heap, ref heap.Ref, sym string) (value.Value, error) {
	for r := ref; r != 0; r = get(h, r).Parent {
		if v, ok := get(h, r).Bindings[sym]; ok {
			return v, nil
		}
	}
	return value.Value{}, corerr.New(corerr.KindRuntimeUnboundVariable, "lookup", sym)
}

// Assign mutates the nearest enclosing binding of sym to val, failing
// if no such binding exists anywhere in the chain (§4.4: "fails if
// none"). Bindings are stored in a shared map per frame, so any
// closure capturing that frame observes the mutation immediately -
// this is what gives set! its expected visibility.
func Assign(h *heap.Heap, ref heap.Ref, sym string, val value.Value) error {
	for r := ref; r != 0; r = get(h, r).Parent {
		e := get(h, r)
		if old, ok := e.Bindings[sym]; ok {
			retainIfHeap(h, val)
			releaseIfHeap(h, old)
			e.Bindings[sym] = val
			return nil
		}
	}
	return corerr.New(corerr.KindRuntimeUnboundVariable, "set!", sym)
}

// IsDefined walks the chain looking for a binding of sym, without
// producing an error when it is absent.
func IsDefined(h *heap.Heap, ref heap.Ref, sym string) bool {
	for r := ref; r != 0; r = get(h, r).Parent {
		if _, ok := get(h, r).Bindings[sym]; ok {
			return true
		}
	}
	return false
}

func retainIfHeap(h *heap.Heap, v value.Value) {
	for _, r := range value.RefsOf(v) {
		h.Retain(r)
	}
}

func releaseIfHeap(h *heap.Heap, v value.Value) {
	for _, r := range value.RefsOf(v) {
		h.Release(r)
	}
}
