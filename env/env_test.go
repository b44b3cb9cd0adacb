package env

import (
	"testing"

	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/numeric"
	"github.com/corvid-scheme/corvid/value"
)

func TestDefineThenLookup(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	Define(h, top, "x", value.Num(numeric.FromInt64(42)))
	v, err := Lookup(h, top, "x")
	if err != nil {
		t.Fatal(err)
	}
	if v.AsNumber().String() != "42" {
		t.Fatalf("got %v, want 42", v.AsNumber())
	}
}

func TestLookupWalksParentChain(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	Define(h, top, "x", value.Sym("outer"))
	child := New(h, top)
	v, err := Lookup(h, child, "x")
	if err != nil || v.AsSymbol() != "outer" {
		t.Fatalf("expected inner lookup to find outer binding, got %v, %v", v, err)
	}
}

func TestDefineShadowsInChildFrame(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	Define(h, top, "x", value.Sym("outer"))
	child := New(h, top)
	Define(h, child, "x", value.Sym("inner"))
	v, _ := Lookup(h, child, "x")
	if v.AsSymbol() != "inner" {
		t.Fatalf("expected shadowed binding, got %v", v)
	}
	outer, _ := Lookup(h, top, "x")
	if outer.AsSymbol() != "outer" {
		t.Fatalf("outer frame should be unaffected, got %v", outer)
	}
}

func TestAssignMutatesNearestBinding(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	Define(h, top, "x", value.Num(numeric.FromInt64(1)))
	child := New(h, top)
	if err := Assign(h, child, "x", value.Num(numeric.FromInt64(2))); err != nil {
		t.Fatal(err)
	}
	v, _ := Lookup(h, top, "x")
	if v.AsNumber().String() != "2" {
		t.Fatalf("assign should mutate the outer binding, got %v", v)
	}
}

func TestAssignUnboundFails(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	if err := Assign(h, top, "nope", value.Null); err == nil {
		t.Fatal("expected assign of unbound symbol to fail")
	}
}

func TestLookupUnboundFails(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	if _, err := Lookup(h, top, "nope"); err == nil {
		t.Fatal("expected lookup of unbound symbol to fail")
	}
}

func TestIsDefined(t *testing.T) {
	h := heap.New()
	top := New(h, 0)
	if IsDefined(h, top, "x") {
		t.Fatal("x should not be defined yet")
	}
	Define(h, top, "x", value.Null)
	if !IsDefined(h, top, "x") {
		t.Fatal("x should now be defined")
	}
}

func TestSharedFrameObservesMutation(t *testing.T) {
	// Two "closures" over the same frame ref must see set!'s effect,
	// since bindings live in a shared map instance per frame.
	h := heap.New()
	top := New(h, 0)
	Define(h, top, "counter", value.Num(numeric.FromInt64(0)))
	ref1, ref2 := top, top
	Assign(h, ref1, "counter", value.Num(numeric.FromInt64(1)))
	v, _ := Lookup(h, ref2, "counter")
	if v.AsNumber().String() != "1" {
		t.Fatalf("expected shared frame to observe mutation, got %v", v)
	}
}
