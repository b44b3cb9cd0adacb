package compiler

import (
	"strings"

	"github.com/google/uuid"

	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// gensym produces a hygienic, collision-free identifier for binding
// forms the compiler synthesizes internally (or's left-to-right
// single-evaluation rewrite, cond's => clauses), grounded on the
// host-facing gensym contract §6.3 names for the native registry.
func gensym(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func bindingPair(h *heap.Heap, b value.Value) (string, value.Value, error) {
	parts, ok := value.ListToSlice(h, b)
	if !ok || len(parts) != 2 || parts[0].Tag != value.TagSymbol {
		return "", value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "binding must be (name expr)")
	}
	return parts[0].AsSymbol(), parts[1], nil
}

// desugarBodyDefines rewrites a leading run of (define name expr)
// forms into a single application of a synthetic lambda whose formals
// are the defined names and whose body opens with set! for each, so
// mutually-recursive inner defines share one frame the way letrec
// requires (§9). Forms past the leading run of defines are left
// untouched and appended after the set!s.
func desugarBodyDefines(h *heap.Heap, forms []value.Value) ([]value.Value, error) {
	var names []string
	var inits []value.Value
	i := 0
	for ; i < len(forms); i++ {
		elems, ok := value.ListToSlice(h, forms[i])
		if !ok || len(elems) == 0 || elems[0].Tag != value.TagSymbol || elems[0].AsSymbol() != "define" {
			break
		}
		name, rhs, err := parseDefineHead(h, elems[1:])
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		inits = append(inits, rhs)
	}
	if i == 0 {
		return forms, nil
	}
	return []value.Value{buildLetrecCall(h, names, inits, forms[i:])}, nil
}

// parseDefineHead supports both (define name expr) and the function
// shorthand (define (name . formals) body...).
func parseDefineHead(h *heap.Heap, args []value.Value) (string, value.Value, error) {
	if len(args) < 1 {
		return "", value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "define wants at least a name")
	}
	if args[0].Tag == value.TagPair {
		head := args[0].Pair(h)
		if head.Car.Tag != value.TagSymbol {
			return "", value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "malformed function define")
		}
		rhs := list(h, append([]value.Value{sym("lambda"), head.Cdr}, args[1:]...)...)
		return head.Car.AsSymbol(), rhs, nil
	}
	if args[0].Tag != value.TagSymbol {
		return "", value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "define's target must be a symbol or (name . formals)")
	}
	if len(args) == 1 {
		return args[0].AsSymbol(), value.Unspecified, nil
	}
	return args[0].AsSymbol(), args[1], nil
}

// buildLetrecCall produces ((lambda (n1 n2 ...) (set! n1 e1) (set! n2
// e2) ... rest...) #f #f ...): the dummy arguments only occupy the
// formal slots until the set!s overwrite them, so any closure formed
// while evaluating e_i that captures this frame observes every
// binding's final value regardless of definition order.
func buildLetrecCall(h *heap.Heap, names []string, inits []value.Value, rest []value.Value) value.Value {
	params := make([]value.Value, len(names))
	for i, n := range names {
		params[i] = sym(n)
	}
	lambdaBody := make([]value.Value, 0, len(names)+len(rest))
	for i, n := range names {
		lambdaBody = append(lambdaBody, list(h, sym("set!"), sym(n), inits[i]))
	}
	lambdaBody = append(lambdaBody, rest...)
	lambdaDatum := list(h, append([]value.Value{sym("lambda"), list(h, params...)}, lambdaBody...)...)
	call := make([]value.Value, len(names)+1)
	call[0] = lambdaDatum
	for i := range names {
		call[i+1] = value.False
	}
	return list(h, call...)
}

func (c *Compiler) compileLetrec(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "letrec wants a binding list")
	}
	bindings, ok := value.ListToSlice(c.H, args[0])
	if !ok {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "letrec bindings must be a proper list")
	}
	names := make([]string, len(bindings))
	inits := make([]value.Value, len(bindings))
	for i, b := range bindings {
		n, rhs, err := bindingPair(c.H, b)
		if err != nil {
			return value.Value{}, err
		}
		names[i] = n
		inits[i] = rhs
	}
	call := buildLetrecCall(c.H, names, inits, args[1:])
	return c.compile(call, next, sc, tail)
}

func (c *Compiler) compileLet(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) >= 1 && args[0].Tag == value.TagSymbol {
		return c.compileNamedLet(args, next, sc, tail)
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "let wants a binding list")
	}
	bindings, ok := value.ListToSlice(c.H, args[0])
	if !ok {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "let bindings must be a proper list")
	}
	params := make([]value.Value, len(bindings))
	callArgs := make([]value.Value, len(bindings)+1)
	for i, b := range bindings {
		n, rhs, err := bindingPair(c.H, b)
		if err != nil {
			return value.Value{}, err
		}
		params[i] = sym(n)
		callArgs[i+1] = rhs
	}
	lambdaDatum := list(c.H, append([]value.Value{sym("lambda"), list(c.H, params...)}, args[1:]...)...)
	callArgs[0] = lambdaDatum
	return c.compile(list(c.H, callArgs...), next, sc, tail)
}

// compileNamedLet desugars (let loop ((v init)...) body...) into a
// letrec binding loop to a lambda of the vs, applied to the inits, so
// recursive calls to loop inside body reuse the ordinary application
// and tail-call machinery rather than needing any dedicated opcode.
func (c *Compiler) compileNamedLet(args []value.Value, next value.Value, sc *scope, tail bool) (value.Value, error) {
	loopName := args[0].AsSymbol()
	if len(args) < 2 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "named let wants a binding list")
	}
	bindings, ok := value.ListToSlice(c.H, args[1])
	if !ok {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "named let bindings must be a proper list")
	}
	params := make([]value.Value, len(bindings))
	inits := make([]value.Value, len(bindings))
	for i, b := range bindings {
		n, rhs, err := bindingPair(c.H, b)
		if err != nil {
			return value.Value{}, err
		}
		params[i] = sym(n)
		inits[i] = rhs
	}
	lambdaDatum := list(c.H, append([]value.Value{sym("lambda"), list(c.H, params...)}, args[2:]...)...)
	letrecBinding := list(c.H, list(c.H, sym(loopName), lambdaDatum))
	call := make([]value.Value, len(inits)+1)
	call[0] = sym(loopName)
	copy(call[1:], inits)
	letrecDatum := list(c.H, sym("letrec"), letrecBinding, list(c.H, call...))
	return c.compile(letrecDatum, next, sc, tail)
}

func (c *Compiler) compileLetStar(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "let* wants a binding list")
	}
	bindings, ok := value.ListToSlice(c.H, args[0])
	if !ok {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "let* bindings must be a proper list")
	}
	body := args[1:]
	if len(bindings) == 0 {
		letDatum := list(c.H, append([]value.Value{sym("let"), value.Null}, body...)...)
		return c.compile(letDatum, next, sc, tail)
	}
	first := bindings[0]
	innerBindings := value.SliceToList(c.H, bindings[1:])
	innerLetStar := list(c.H, append([]value.Value{sym("let*"), innerBindings}, body...)...)
	outerLet := list(c.H, sym("let"), value.SliceToList(c.H, []value.Value{first}), innerLetStar)
	return c.compile(outerLet, next, sc, tail)
}

// compileAnd folds (and a b c) into nested ifs: #f as soon as any
// operand is false, otherwise the value of the last operand. An empty
// and is #t.
func (c *Compiler) compileAnd(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) == 0 {
		return c.compile(value.True, next, sc, tail)
	}
	result := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		result = list(c.H, sym("if"), args[i], result, value.False)
	}
	return c.compile(result, next, sc, tail)
}

// compileOr folds (or a b c) into nested lets binding a gensym so each
// operand is evaluated at most once, the property a naive (if a a (or
// b c)) expansion would violate. An empty or is #f.
func (c *Compiler) compileOr(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) == 0 {
		return c.compile(value.False, next, sc, tail)
	}
	result := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		g := gensym("or$")
		result = list(c.H, sym("let"), list(c.H, list(c.H, sym(g), args[i])), list(c.H, sym("if"), sym(g), sym(g), result))
	}
	return c.compile(result, next, sc, tail)
}

// compileCond desugars the clause chain into nested ifs from the last
// clause backward, supporting a trailing else clause, a test-only
// clause (returns the test's value if truthy), and the => receiver
// form.
func (c *Compiler) compileCond(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	clauses, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	result := value.Unspecified
	for i := len(clauses) - 1; i >= 0; i-- {
		parts, ok := value.ListToSlice(c.H, clauses[i])
		if !ok || len(parts) == 0 {
			return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "malformed cond clause")
		}
		test := parts[0]
		if test.Tag == value.TagSymbol && test.AsSymbol() == "else" && i == len(clauses)-1 {
			result = list(c.H, append([]value.Value{sym("begin")}, parts[1:]...)...)
			continue
		}
		switch {
		case len(parts) == 1:
			result = list(c.H, sym("or"), test, result)
		case len(parts) == 3 && parts[1].Tag == value.TagSymbol && parts[1].AsSymbol() == "=>":
			g := gensym("cond$")
			result = list(c.H, sym("let"), list(c.H, list(c.H, sym(g), test)),
				list(c.H, sym("if"), sym(g), list(c.H, parts[2], sym(g)), result))
		default:
			result = list(c.H, sym("if"), test, list(c.H, append([]value.Value{sym("begin")}, parts[1:]...)...), result)
		}
	}
	return c.compile(result, next, sc, tail)
}

func (c *Compiler) compileWhen(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "when wants a test")
	}
	body := list(c.H, append([]value.Value{sym("begin")}, args[1:]...)...)
	ifDatum := list(c.H, sym("if"), args[0], body, value.Unspecified)
	return c.compile(ifDatum, next, sc, tail)
}

func (c *Compiler) compileUnless(d, next value.Value, sc *scope, tail bool) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "unless wants a test")
	}
	body := list(c.H, append([]value.Value{sym("begin")}, args[1:]...)...)
	ifDatum := list(c.H, sym("if"), args[0], value.Unspecified, body)
	return c.compile(ifDatum, next, sc, tail)
}
