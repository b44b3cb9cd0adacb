package compiler

import (
	"testing"

	"github.com/corvid-scheme/corvid/env"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/lexer"
	"github.com/corvid-scheme/corvid/parser"
	"github.com/corvid-scheme/corvid/value"
)

// seedForms binds every primitive form this package recognizes into a
// fresh top-level environment, standing in for what the builtins
// package does at VM startup.
func seedForms(h *heap.Heap) heap.Ref {
	top := env.New(h, 0)
	forms := map[string]value.PrimitiveForm{
		"quote":    value.FormQuote,
		"define":   value.FormDefine,
		"lambda":   value.FormLambda,
		"if":       value.FormIf,
		"set!":     value.FormSetBang,
		"begin":    value.FormBegin,
		"call/cc":  value.FormCallCC,
		"let":      value.FormLet,
		"let*":     value.FormLetStar,
		"letrec":   value.FormLetrec,
		"and":      value.FormAnd,
		"or":       value.FormOr,
		"cond":     value.FormCond,
		"when":     value.FormWhen,
		"unless":   value.FormUnless,
	}
	for name, form := range forms {
		env.Define(h, top, name, value.Form(form))
	}
	return top
}

func parseOne(t *testing.T, h *heap.Heap, src string) value.Value {
	t.Helper()
	res := parser.Parse(h, lexer.New(src))
	if res.Status != parser.StatusComplete {
		t.Fatalf("parse(%q) status=%v err=%v", src, res.Status, res.Err)
	}
	return res.Datum
}

func head(h *heap.Heap, instr value.Value) string {
	return instr.Pair(h).Car.AsSymbol()
}

func TestCompileConstant(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "42")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "constant" {
		t.Fatalf("expected constant, got %v", head(h, instr))
	}
}

func TestCompileVariableReference(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "x")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "refer" {
		t.Fatalf("expected refer, got %v", head(h, instr))
	}
}

func TestCompileIf(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(if #t 1 2)")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "constant" {
		t.Fatalf("expected the test expr compiled first (constant #t), got %v", head(h, instr))
	}
	testInstr := instr.Pair(h).Cdr.Pair(h).Cdr.Pair(h).Car
	if head(h, testInstr) != "test" {
		t.Fatalf("expected test instruction, got %v", head(h, testInstr))
	}
}

func TestCompileLambdaProducesClose(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(lambda (x) x)")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "close" {
		t.Fatalf("expected close, got %v", head(h, instr))
	}
}

func TestCompileApplicationProducesFrame(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(f 1 2)")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "frame" {
		t.Fatalf("expected frame, got %v", head(h, instr))
	}
}

func TestCompileShadowedIfIsApplication(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(if 1 2)")
	sc := newScope(nil, []string{"if"})
	instr, err := c.compile(datum, instrHalt(h), sc, false)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "frame" {
		t.Fatalf("expected shadowed if to compile as an application (frame), got %v", head(h, instr))
	}
}

func TestCompileQuoteIsConstant(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "'(1 2 3)")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "constant" {
		t.Fatalf("expected constant, got %v", head(h, instr))
	}
	obj := instr.Pair(h).Cdr.Pair(h).Car
	items, ok := value.ListToSlice(h, obj)
	if !ok || len(items) != 3 {
		t.Fatalf("expected quoted 3-list, got %v ok=%v", items, ok)
	}
}

func TestCompileAndOrDesugarToIf(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	for _, src := range []string{"(and 1 2 3)", "(or 1 2 3)"} {
		datum := parseOne(t, h, src)
		_, err := c.Compile(datum, instrHalt(h))
		if err != nil {
			t.Fatalf("compile(%q): %v", src, err)
		}
	}
}

func TestCompileCondWithElse(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(cond (#f 1) (else 2))")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "constant" {
		t.Fatalf("expected leading test to compile as constant #f, got %v", head(h, instr))
	}
}

func TestCompileLetDesugarsToApplication(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(let ((x 1) (y 2)) (+ x y))")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "frame" {
		t.Fatalf("expected let to desugar to an application, got %v", head(h, instr))
	}
}

func TestCompileNamedLet(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(let loop ((i 0)) (if (< i 10) (loop (+ i 1)) i))")
	if _, err := c.Compile(datum, instrHalt(h)); err != nil {
		t.Fatalf("compile named let: %v", err)
	}
}

func TestCompileInnerDefinesDesugarToLetrec(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(lambda () (define (even? n) (if (= n 0) #t (odd? (- n 1)))) (define (odd? n) (if (= n 0) #f (even? (- n 1)))) (even? 4))")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "close" {
		t.Fatalf("expected close, got %v", head(h, instr))
	}
}

func TestCompileDefineInsertsTopLevelBinding(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(define x 10)")
	if _, err := c.Compile(datum, instrHalt(h)); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !env.IsDefined(h, top, "x") {
		t.Fatalf("expected define to eagerly insert a top-level binding")
	}
}

func TestCompileUnboundHeadIsApplicationNotError(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	datum := parseOne(t, h, "(mystery-proc 1 2)")
	instr, err := c.Compile(datum, instrHalt(h))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if head(h, instr) != "frame" {
		t.Fatalf("expected application, got %v", head(h, instr))
	}
}

func TestCompileEmptyApplicationIsError(t *testing.T) {
	h := heap.New()
	top := seedForms(h)
	c := New(h, top)
	_, err := c.Compile(value.Null, instrHalt(h))
	if err == nil {
		t.Fatalf("expected an error compiling ()")
	}
}
