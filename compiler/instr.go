package compiler

import (
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// The instruction constructors below build one list per the 12-opcode
// table in spec §4.5: the head is the opcode symbol and the tail
// embeds the instruction's fields, with any "next instruction" field
// itself being a Value produced by one of these same constructors.
// This is what makes the instruction stream homoiconic (§9): a
// continuation is just a pair, not a separate bytecode address.

func sym(s string) value.Value { return value.Sym(s) }

func list(h *heap.Heap, vs ...value.Value) value.Value { return value.SliceToList(h, vs) }

func instrHalt(h *heap.Heap) value.Value { return list(h, sym("halt")) }

// InstrHalt is the exported form of instrHalt: callers outside this
// package (the vm package's Run entrypoint, the repl) need a way to
// build the terminal instruction a top-level Compile call threads as
// its continuation, without reaching into this package's internals.
func InstrHalt(h *heap.Heap) value.Value { return instrHalt(h) }

func instrRefer(h *heap.Heap, v string, next value.Value) value.Value {
	return list(h, sym("refer"), sym(v), next)
}

func instrConstant(h *heap.Heap, obj, next value.Value) value.Value {
	return list(h, sym("constant"), obj, next)
}

func instrClose(h *heap.Heap, vars, body, next value.Value) value.Value {
	return list(h, sym("close"), vars, body, next)
}

func instrTest(h *heap.Heap, then, els value.Value) value.Value {
	return list(h, sym("test"), then, els)
}

func instrAssign(h *heap.Heap, v string, next value.Value) value.Value {
	return list(h, sym("assign"), sym(v), next)
}

func instrConti(h *heap.Heap, next value.Value) value.Value {
	return list(h, sym("conti"), next)
}

func instrFrame(h *heap.Heap, x, ret value.Value) value.Value {
	return list(h, sym("frame"), x, ret)
}

func instrArgument(h *heap.Heap, next value.Value) value.Value {
	return list(h, sym("argument"), next)
}

func instrApply(h *heap.Heap) value.Value { return list(h, sym("apply")) }

func instrReturn(h *heap.Heap) value.Value { return list(h, sym("return")) }
