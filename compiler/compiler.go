// Package compiler lowers a parsed datum into the tree-threaded
// instruction stream the vm package executes (spec §4.5). It
// generalizes the teacher's assembler.go (which walked a Value tree
// and emitted a flat []Instruction slice keyed by jump index) into a
// recursive compile(expr, next) that, instead of computing jump
// targets, makes the "next instruction" an explicit embedded argument
// of each opcode - so a continuation is just a pair, reachable and
// inspectable like any other datum, per §9.
//
// A second thread carries tail position: an application compiled with
// tail=true skips the frame push entirely and lets apply reuse the
// caller's own call frame, which is what bounds tail recursion by
// heap rather than by Go's native stack (§4.6, §8).
package compiler

import (
	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/env"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// scope tracks which names are lexically bound at compile time, purely
// to decide whether a head symbol can still be treated as a primitive
// special form or must be treated as an ordinary variable reference -
// this is what lets (let ((if some-proc)) (if 1 2)) degrade to an
// application instead of being mistaken for a conditional.
type scope struct {
	names  map[string]bool
	parent *scope
}

func newScope(parent *scope, names []string) *scope {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return &scope{names: m, parent: parent}
}

func (s *scope) has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

// Compiler lowers data against one fixed top-level environment, used
// both to decide primitive-form dispatch (§3.4: forms are looked up by
// name in the initial environment) and to eagerly insert top-level
// define bindings as they are compiled (§4.4).
type Compiler struct {
	H      *heap.Heap
	TopEnv heap.Ref
}

func New(h *heap.Heap, topEnv heap.Ref) *Compiler {
	return &Compiler{H: h, TopEnv: topEnv}
}

// Compile lowers one top-level datum, threading into the instruction
// next (typically (halt) or the compiled continuation of whatever
// follows this form in a program or REPL transcript). Top-level forms
// are never in tail position - there is no enclosing call frame to
// reuse.
func (c *Compiler) Compile(datum, next value.Value) (value.Value, error) {
	return c.compile(datum, next, nil, false)
}

func (c *Compiler) compile(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	switch d.Tag {
	case value.TagSymbol:
		return instrRefer(c.H, d.AsSymbol(), next), nil
	case value.TagPair:
		return c.compilePair(d, next, sc, tail)
	case value.TagNull:
		return value.Value{}, corerr.New(corerr.KindCompileEmptyApplication, "compile", "()")
	default:
		// Booleans, numbers, characters, strings, vectors, bytevectors
		// and the sentinel values are all self-evaluating (§3.1).
		return instrConstant(c.H, d, next), nil
	}
}

func (c *Compiler) compilePair(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	pair := d.Pair(c.H)
	if pair.Car.Tag == value.TagSymbol && !sc.has(pair.Car.AsSymbol()) {
		if bound, err := env.Lookup(c.H, c.TopEnv, pair.Car.AsSymbol()); err == nil && bound.Tag == value.TagPrimitiveForm {
			return c.compileForm(bound.AsForm(), d, next, sc, tail)
		}
	}
	return c.compileApplication(d, next, sc, tail)
}

func (c *Compiler) compileForm(form value.PrimitiveForm, d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	switch form {
	case value.FormQuote:
		return c.compileQuote(d, next)
	case value.FormDefine:
		return c.compileDefine(d, next)
	case value.FormLambda:
		return c.compileLambda(d, next, sc)
	case value.FormIf:
		return c.compileIf(d, next, sc, tail)
	case value.FormSetBang:
		return c.compileSetBang(d, next, sc)
	case value.FormBegin:
		return c.compileBeginForm(d, next, sc, tail)
	case value.FormCallCC:
		return c.compileCallCC(d, next, sc)
	case value.FormLet:
		return c.compileLet(d, next, sc, tail)
	case value.FormLetStar:
		return c.compileLetStar(d, next, sc, tail)
	case value.FormLetrec:
		return c.compileLetrec(d, next, sc, tail)
	case value.FormAnd:
		return c.compileAnd(d, next, sc, tail)
	case value.FormOr:
		return c.compileOr(d, next, sc, tail)
	case value.FormCond:
		return c.compileCond(d, next, sc, tail)
	case value.FormWhen:
		return c.compileWhen(d, next, sc, tail)
	case value.FormUnless:
		return c.compileUnless(d, next, sc, tail)
	}
	return value.Value{}, corerr.New(corerr.KindCompileUnknownForm, "compile", "unrecognized primitive form")
}

func operands(h *heap.Heap, d value.Value) ([]value.Value, error) {
	elems, ok := value.ListToSlice(h, d)
	if !ok || len(elems) == 0 {
		return nil, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "malformed form: not a proper list")
	}
	return elems[1:], nil
}

func (c *Compiler) compileQuote(d, next value.Value) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) != 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "quote wants exactly 1 operand")
	}
	return instrConstant(c.H, args[0], next), nil
}

// compileApplication lowers (f a1 ... an): per §4.5 the arguments are
// compiled right to left, so that the innermost instruction (f's own
// evaluation feeding apply) is constructed first but runs last, after
// every argument has been evaluated, and each "argument"
// instruction pushes its acc onto rib in left-to-right evaluation
// order. Operator and operand positions are themselves never in tail
// position - only the call as a whole can be. When it is (tail=true),
// no frame is pushed and apply reuses the current call frame.
func (c *Compiler) compileApplication(d value.Value, next value.Value, sc *scope, tail bool) (value.Value, error) {
	elems, ok := value.ListToSlice(c.H, d)
	if !ok || len(elems) == 0 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "application must be a proper, non-empty list")
	}
	fn := elems[0]
	args := elems[1:]
	cur, err := c.compile(fn, instrApply(c.H), sc, false)
	if err != nil {
		return value.Value{}, err
	}
	for i := len(args) - 1; i >= 0; i-- {
		cur, err = c.compile(args[i], instrArgument(c.H, cur), sc, false)
		if err != nil {
			return value.Value{}, err
		}
	}
	if tail {
		return cur, nil
	}
	return instrFrame(c.H, cur, next), nil
}

func (c *Compiler) compileIf(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) != 2 && len(args) != 3 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "if wants 2 or 3 operands")
	}
	elseD := value.Unspecified
	if len(args) == 3 {
		elseD = args[2]
	}
	thenInstr, err := c.compile(args[1], next, sc, tail)
	if err != nil {
		return value.Value{}, err
	}
	elseInstr, err := c.compile(elseD, next, sc, tail)
	if err != nil {
		return value.Value{}, err
	}
	return c.compile(args[0], instrTest(c.H, thenInstr, elseInstr), sc, false)
}

func (c *Compiler) compileSetBang(d, next value.Value, sc *scope) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) != 2 || args[0].Tag != value.TagSymbol {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "set! wants (set! var expr)")
	}
	return c.compile(args[1], instrAssign(c.H, args[0].AsSymbol(), next), sc, false)
}

func (c *Compiler) compileBeginForm(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	return c.compileSeq(args, next, sc, tail)
}

// compileSeq threads a sequence of body forms so each but the last is
// compiled for effect (never tail), continuing into the next; the
// last form's continuation is next and inherits the caller's tail
// status.
func (c *Compiler) compileSeq(forms []value.Value, next value.Value, sc *scope, tail bool) (value.Value, error) {
	if len(forms) == 0 {
		return instrConstant(c.H, value.Unspecified, next), nil
	}
	if len(forms) == 1 {
		return c.compile(forms[0], next, sc, tail)
	}
	rest, err := c.compileSeq(forms[1:], next, sc, tail)
	if err != nil {
		return value.Value{}, err
	}
	return c.compile(forms[0], rest, sc, false)
}

func (c *Compiler) compileCallCC(d, next value.Value, sc *scope) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) != 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "call/cc wants exactly 1 operand")
	}
	receiverInstr, err := c.compile(args[0], instrApply(c.H), sc, false)
	if err != nil {
		return value.Value{}, err
	}
	return instrFrame(c.H, instrConti(c.H, instrArgument(c.H, receiverInstr)), next), nil
}

// compileDefine always binds against the compiler's top-level
// environment. The leading defines of a body have already been
// rewritten away by desugarBodyDefines before the generic dispatcher
// sees them (see sugar.go); a define anywhere else, including one
// after a body's first non-define form, reaches here and binds at top
// level (§4.4, §9 open question on inner defines).
func (c *Compiler) compileDefine(d, next value.Value) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	name, rhs, err := parseDefineHead(c.H, args)
	if err != nil {
		return value.Value{}, err
	}
	if !env.IsDefined(c.H, c.TopEnv, name) {
		env.Define(c.H, c.TopEnv, name, value.Unspecified)
	}
	return c.compile(rhs, instrAssign(c.H, name, next), nil, false)
}
