package vm

import (
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// VM is a single Scheme activation's register file plus the heap it
// runs against and the fixed top-level environment Run resets to
// before each new top-level form (§4.6, §5: one VM per REPL session,
// reused across every form a user types, which is exactly what lets a
// continuation captured in one form still be invoked by a later one).
type VM struct {
	H      *heap.Heap
	TopEnv heap.Ref

	Acc   value.Value
	Exp   value.Value
	Env   heap.Ref
	Rib   []value.Value
	Frame heap.Ref
}

func New(h *heap.Heap, topEnv heap.Ref) *VM {
	return &VM{H: h, TopEnv: topEnv, Env: topEnv}
}

// The registers below are not transient Go locals: a Value or Ref
// sitting in one of them is an independent owner of whatever it
// refers to, exactly like a binding in an Environment. Two helpers per
// register distinguish the two ways a register's content can change:
//
//   - adopt*: the new content was just allocated and has no other
//     owner yet (Allocate already gave it refcount 1 on the
//     register's behalf), so only the old content needs releasing.
//   - dup*/copy*: the new content already has another owner that
//     keeps holding it (an env binding, a frame's saved field, a
//     sibling register), so storing a second copy here needs its own
//     retain before the old content is released.
//
// Retaining before releasing (rather than the other way around)
// matters when old and new happen to share a ref: it guarantees the
// shared node's count never dips to zero in between.

func retainVal(h *heap.Heap, v value.Value) {
	for _, r := range value.RefsOf(v) {
		h.Retain(r)
	}
}

func releaseVal(h *heap.Heap, v value.Value) {
	for _, r := range value.RefsOf(v) {
		h.Release(r)
	}
}

func retainRib(h *heap.Heap, rib []value.Value) {
	for _, v := range rib {
		retainVal(h, v)
	}
}

func releaseRib(h *heap.Heap, rib []value.Value) {
	for _, v := range rib {
		releaseVal(h, v)
	}
}

func (vm *VM) adoptAcc(v value.Value) {
	releaseVal(vm.H, vm.Acc)
	vm.Acc = v
}

func (vm *VM) copyAcc(v value.Value) {
	retainVal(vm.H, v)
	releaseVal(vm.H, vm.Acc)
	vm.Acc = v
}

func (vm *VM) adoptEnv(r heap.Ref) {
	if vm.Env != 0 {
		vm.H.Release(vm.Env)
	}
	vm.Env = r
}

func (vm *VM) dupEnv(r heap.Ref) {
	if r != 0 {
		vm.H.Retain(r)
	}
	if vm.Env != 0 {
		vm.H.Release(vm.Env)
	}
	vm.Env = r
}

func (vm *VM) adoptFrame(r heap.Ref) {
	if vm.Frame != 0 {
		vm.H.Release(vm.Frame)
	}
	vm.Frame = r
}

func (vm *VM) dupFrame(r heap.Ref) {
	if r != 0 {
		vm.H.Retain(r)
	}
	if vm.Frame != 0 {
		vm.H.Release(vm.Frame)
	}
	vm.Frame = r
}

// roots lists every register and in-flight register that Collect must
// treat as live, per §4.1's "VM's five registers, the current frame
// chain, and all top-level environment bindings" - the last of those
// is reached transitively, since every environment's Parent chain
// ends at TopEnv.
func (vm *VM) roots() []heap.Ref {
	var roots []heap.Ref
	if vm.Env != 0 {
		roots = append(roots, vm.Env)
	}
	if vm.Frame != 0 {
		roots = append(roots, vm.Frame)
	}
	if vm.TopEnv != 0 {
		roots = append(roots, vm.TopEnv)
	}
	roots = append(roots, value.RefsOf(vm.Acc)...)
	roots = append(roots, value.RefsOf(vm.Exp)...)
	roots = append(roots, value.RefsOf(vm.Rib...)...)
	return roots
}

// CollectIfDue runs a cycle-collection pass when the heap's allocation
// watermark has been crossed. The VM's own Run loop calls it at the
// top of every step so a single long tail-recursive loop cannot
// outrun collection.
func (vm *VM) CollectIfDue() {
	if vm.H.CollectionDue() {
		vm.H.Collect(vm.roots())
	}
}
