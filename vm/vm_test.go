package vm

import (
	"testing"

	"github.com/corvid-scheme/corvid/compiler"
	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/env"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/lexer"
	"github.com/corvid-scheme/corvid/numeric"
	"github.com/corvid-scheme/corvid/parser"
	"github.com/corvid-scheme/corvid/value"
)

// seedTop stands in for what the builtins package does at startup: it
// binds the primitive forms compiler_test.go's own seedForms binds,
// plus a handful of arithmetic/comparison natives, enough to run
// non-trivial programs against a real compiled instruction stream.
func seedTop(h *heap.Heap) heap.Ref {
	top := env.New(h, 0)
	forms := map[string]value.PrimitiveForm{
		"quote": value.FormQuote, "define": value.FormDefine, "lambda": value.FormLambda,
		"if": value.FormIf, "set!": value.FormSetBang, "begin": value.FormBegin,
		"call/cc": value.FormCallCC, "let": value.FormLet, "let*": value.FormLetStar,
		"letrec": value.FormLetrec, "and": value.FormAnd, "or": value.FormOr,
		"cond": value.FormCond, "when": value.FormWhen, "unless": value.FormUnless,
	}
	for name, f := range forms {
		env.Define(h, top, name, value.Form(f))
	}
	native := func(name string, fn value.NativeFn) {
		env.Define(h, top, name, value.NativeVal(&value.Native{Name: name, Fn: fn}))
	}
	native("+", func(args []value.Value) (value.Value, error) {
		acc := numeric.FromInt64(0)
		for _, a := range args {
			var err error
			acc, err = acc.Add(a.AsNumber())
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Num(acc), nil
	})
	native("-", func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, corerr.New(corerr.KindRuntimeWrongArgCount, "-", "wants at least 1 argument")
		}
		acc := args[0].AsNumber()
		if len(args) == 1 {
			zero := numeric.FromInt64(0)
			r, err := zero.Sub(acc)
			return value.Num(r), err
		}
		for _, a := range args[1:] {
			var err error
			acc, err = acc.Sub(a.AsNumber())
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Num(acc), nil
	})
	native("*", func(args []value.Value) (value.Value, error) {
		acc := numeric.FromInt64(1)
		for _, a := range args {
			var err error
			acc, err = acc.Mul(a.AsNumber())
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Num(acc), nil
	})
	native("<", func(args []value.Value) (value.Value, error) {
		for i := 0; i+1 < len(args); i++ {
			if !args[i].AsNumber().Lt(args[i+1].AsNumber()) {
				return value.False, nil
			}
		}
		return value.True, nil
	})
	native("=", func(args []value.Value) (value.Value, error) {
		for i := 0; i+1 < len(args); i++ {
			if !args[i].AsNumber().Eq(args[i+1].AsNumber()) {
				return value.False, nil
			}
		}
		return value.True, nil
	})
	native("cons", func(args []value.Value) (value.Value, error) {
		// args still belong to the rib apply is about to release once
		// this call returns, so the new pair needs its own retained
		// claim on each - PairRef itself only adopts fresh values, it
		// never retains values handed to it that already have another
		// owner (the same reason bindParams retains a rest-arg list's
		// elements in vm.go).
		retainVal(h, args[0])
		retainVal(h, args[1])
		return value.PairRef(h, args[0], args[1]), nil
	})
	native("car", func(args []value.Value) (value.Value, error) {
		p := args[0].Pair(h)
		retainVal(h, p.Car)
		return p.Car, nil
	})
	native("cdr", func(args []value.Value) (value.Value, error) {
		p := args[0].Pair(h)
		retainVal(h, p.Cdr)
		return p.Cdr, nil
	})
	return top
}

func run(t *testing.T, h *heap.Heap, top heap.Ref, src string) value.Value {
	t.Helper()
	parsed := parser.Parse(h, lexer.New(src))
	if parsed.Status != parser.StatusComplete {
		t.Fatalf("parse(%q): status=%v err=%v", src, parsed.Status, parsed.Err)
	}
	c := compiler.New(h, top)
	instr, err := c.Compile(parsed.Datum, compiler.InstrHalt(h))
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	m := New(h, top)
	result, err := m.Run(instr)
	if err != nil {
		t.Fatalf("run(%q): %v", src, err)
	}
	return result
}

func num(t *testing.T, v value.Value) int64 {
	t.Helper()
	if v.Tag != value.TagNumber {
		t.Fatalf("expected a number, got tag %v", v.Tag)
	}
	f := v.AsNumber().Float64()
	return int64(f)
}

func TestRunLiteral(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "42")
	if num(t, got) != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestRunArithmetic(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "(+ 1 (* 2 3) 4)")
	if num(t, got) != 11 {
		t.Fatalf("expected 11, got %v", got)
	}
}

func TestRunClosureAndLexicalCapture(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "((lambda (x) ((lambda (y) (+ x y)) 10)) 5)")
	if num(t, got) != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
}

func TestRunDefineAndCall(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	run(t, h, top, "(define (square n) (* n n))")
	got := run(t, h, top, "(square 7)")
	if num(t, got) != 49 {
		t.Fatalf("expected 49, got %v", got)
	}
}

func TestRunLetAndCond(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "(let ((x 3) (y 4)) (cond ((< x y) 'less) (else 'more)))")
	if got.Tag != value.TagSymbol || got.AsSymbol() != "less" {
		t.Fatalf("expected symbol less, got %v", got)
	}
}

// TestTailCallDoesNotGrowFrameChain drives a named-let loop many
// iterations and checks the heap's live node count stays small, which
// is the whole point of compiling tail position without a frame push
// (§4.5, §8): each iteration should reuse the current frame register
// instead of pushing a new one, so live heap size is bounded by O(1)
// call frames rather than O(n).
func TestTailCallDoesNotGrowFrameChain(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "(let loop ((i 0) (acc 0)) (if (< i 2000) (loop (+ i 1) (+ acc i)) acc))")
	if num(t, got) != 1999000 {
		t.Fatalf("expected 1999000, got %v", got)
	}
	if live := h.Live(); live > 500 {
		t.Fatalf("expected tail-recursive loop to keep live heap small, got %d live nodes", live)
	}
}

func TestCallCCEscapes(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "(+ 1 (call/cc (lambda (k) (+ 10 (k 5)))))")
	if num(t, got) != 6 {
		t.Fatalf("expected call/cc to escape with 5, giving 6 overall, got %v", got)
	}
}

// TestCallCCReinvokedMultipleTimes checks that a captured continuation
// is not a one-shot escape: it can be invoked from separate later
// top-level forms, each time correctly resuming the original call/cc
// site's pending (+ 1 <hole>) with whatever argument this invocation
// supplied.
func TestCallCCReinvokedMultipleTimes(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	run(t, h, top, "(define saved-k #f)")
	got := run(t, h, top, "(+ 1 (call/cc (lambda (k) (set! saved-k k) 0)))")
	if num(t, got) != 1 {
		t.Fatalf("expected first pass through call/cc to give 1, got %v", got)
	}
	got = run(t, h, top, "(saved-k 10)")
	if num(t, got) != 11 {
		t.Fatalf("expected reinvoking the saved continuation with 10 to give 11, got %v", got)
	}
	got = run(t, h, top, "(saved-k 100)")
	if num(t, got) != 101 {
		t.Fatalf("expected reinvoking the saved continuation a second time with 100 to give 101, got %v", got)
	}
}

func TestApplyingNonProcedureIsRuntimeError(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	parsed := parser.Parse(h, lexer.New("(5 6)"))
	c := compiler.New(h, top)
	instr, err := c.Compile(parsed.Datum, compiler.InstrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m := New(h, top)
	if _, err := m.Run(instr); err == nil {
		t.Fatalf("expected an error applying a non-procedure")
	}
}

func TestConsCarCdr(t *testing.T) {
	h := heap.New()
	top := seedTop(h)
	got := run(t, h, top, "(car (cdr (cons 1 (cons 2 3))))")
	if num(t, got) != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}
