// Package heap implements the reference-counted, cycle-aware store
// every compound value in the system is allocated into (spec §4.1).
// It knows nothing about Scheme values: it stores anything satisfying
// Object and hands back an opaque Ref, so value.Pair, env.Environment
// and vm.Frame can all live in the same heap without this package
// importing any of them.
package heap

// Ref is an opaque handle into a Heap. The zero Ref never refers to a
// live node; callers use it as "no reference" (e.g. the top-level
// environment's Parent, or a closure with no captured frame).
type Ref uint64

// Object is anything a Heap can store: it must be able to report the
// other heap nodes it points to, so the cycle collector can walk it.
type Object interface {
	References() []Ref
}

type node struct {
	obj      Object
	refcount int
	live     bool
}

// Heap is a single VM's managed store. It is not safe for concurrent
// use, matching §5's single-threaded-per-VM model.
type Heap struct {
	nodes    []node
	freeList []Ref
	watch    int  // allocations since last collect, for the watermark policy
	due      bool // watermark crossed since the last Collect
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{nodes: make([]node, 1)} // index 0 is reserved so Ref(0) is never live
}

// Allocate registers obj and returns a strong (refcount 1) reference
// to it.
func (h *Heap) Allocate(obj Object) Ref {
	var r Ref
	if n := len(h.freeList); n > 0 {
		r = h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		h.nodes[r] = node{obj: obj, refcount: 1, live: true}
	} else {
		r = Ref(len(h.nodes))
		h.nodes = append(h.nodes, node{obj: obj, refcount: 1, live: true})
	}
	h.watch++
	if h.watch >= collectWatermark {
		// The caller decides when it's safe to actually run Collect
		// (it must supply roots); we only track that we're due.
		h.watch = 0
		h.due = true
	}
	return r
}

// collectWatermark bounds how many allocations pass between
// allocation-triggered GC checks (§4.1's "allocation-triggered
// watermark policy").
const collectWatermark = 4096

// CollectionDue reports whether the watermark has been crossed since
// the last Collect.
func (h *Heap) CollectionDue() bool { return h.due }

// Get dereferences r. It panics on a dangling or zero Ref, which
// indicates a bug in the caller (per §4.1's invariant, no live Value
// should ever hold a dangling reference).
func (h *Heap) Get(r Ref) Object {
	if r == 0 || int(r) >= len(h.nodes) || !h.nodes[r].live {
		panic("heap: dereference of invalid ref")
	}
	return h.nodes[r].obj
}

// Retain increments r's refcount. A zero Ref is a no-op, matching the
// "no reference" convention.
func (h *Heap) Retain(r Ref) {
	if r == 0 {
		return
	}
	h.nodes[r].refcount++
}

// Release decrements r's refcount and frees the node immediately if
// it reaches zero. Freeing a node decrements its own outgoing
// references (§4.1) but does not run the cycle collector - it is the
// fast, non-cyclic path.
func (h *Heap) Release(r Ref) {
	if r == 0 {
		return
	}
	n := &h.nodes[r]
	if !n.live {
		return
	}
	n.refcount--
	if n.refcount > 0 {
		return
	}
	obj := n.obj
	*n = node{}
	h.freeList = append(h.freeList, r)
	for _, child := range obj.References() {
		h.Release(child)
	}
}

// Live returns the number of currently registered (allocated, not
// yet freed) nodes. Tests use this as the heap-size accessor §8's
// cycle-collection scenario requires.
func (h *Heap) Live() int {
	count := 0
	for i := 1; i < len(h.nodes); i++ {
		if h.nodes[i].live {
			count++
		}
	}
	return count
}

// Collect runs a tri-color mark-sweep pass rooted at roots (the VM's
// five registers, the current frame chain, and all top-level
// environment bindings, per §4.1). Any registered node not reached
// from roots is freed regardless of its refcount; this is what
// reclaims cycles refcounting alone cannot. Freeing during sweep does
// not recurse through refcount - the mark phase has already
// accounted for every live reference.
func (h *Heap) Collect(roots []Ref) {
	h.due = false
	marked := make([]bool, len(h.nodes))
	queue := append([]Ref(nil), roots...)
	for len(queue) > 0 {
		r := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if r == 0 || int(r) >= len(h.nodes) || !h.nodes[r].live || marked[r] {
			continue
		}
		marked[r] = true
		queue = append(queue, h.nodes[r].obj.References()...)
	}
	for i := 1; i < len(h.nodes); i++ {
		if h.nodes[i].live && !marked[i] {
			h.nodes[i] = node{}
			h.freeList = append(h.freeList, Ref(i))
		}
	}
}
