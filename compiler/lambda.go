package compiler

import (
	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

// compileLambda lowers (lambda formals body...) to a close
// instruction whose body is compiled with (return) as its own
// continuation (§4.5: a closure's body always ends by returning
// control to whatever frame invoked it, per the CallFrame it pops).
func (c *Compiler) compileLambda(d, next value.Value, sc *scope) (value.Value, error) {
	args, err := operands(c.H, d)
	if err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 {
		return value.Value{}, corerr.New(corerr.KindCompileBadSpecialForm, "compile", "lambda wants a parameter list")
	}
	names, err := parseFormals(c.H, args[0])
	if err != nil {
		return value.Value{}, err
	}
	bodyInstr, err := c.compileBody(args[1:], instrReturn(c.H), newScope(sc, names))
	if err != nil {
		return value.Value{}, err
	}
	return instrClose(c.H, args[0], bodyInstr, next), nil
}

// compileBody desugars any leading internal defines into a letrec
// before compiling forms[] as an ordinary sequence, so names
// introduced further down the body remain visible to closures formed
// earlier (§9: body-internal define is equivalent to letrec-style
// binding insertion). A body's last form is always in tail position
// relative to its own lambda, independent of how that lambda itself
// was invoked.
func (c *Compiler) compileBody(forms []value.Value, next value.Value, sc *scope) (value.Value, error) {
	if len(forms) == 0 {
		return instrConstant(c.H, value.Unspecified, next), nil
	}
	rewritten, err := desugarBodyDefines(c.H, forms)
	if err != nil {
		return value.Value{}, err
	}
	return c.compileSeq(rewritten, next, sc, true)
}

// parseFormals walks a parameter-list datum into the flat set of
// names it binds, validating there are no duplicates across the fixed
// and rest portions (§4.4 parameter lists: proper list, dotted list,
// or a bare symbol for a fully-variadic lambda).
func parseFormals(h *heap.Heap, v value.Value) ([]string, error) {
	var names []string
	cur := v
	for cur.Tag == value.TagPair {
		p := cur.Pair(h)
		if p.Car.Tag != value.TagSymbol {
			return nil, corerr.New(corerr.KindCompileBadParamList, "compile", "parameter names must be symbols")
		}
		names = append(names, p.Car.AsSymbol())
		cur = p.Cdr
	}
	switch cur.Tag {
	case value.TagSymbol:
		names = append(names, cur.AsSymbol())
	case value.TagNull:
		// fixed-arity, no rest parameter
	default:
		return nil, corerr.New(corerr.KindCompileBadParamList, "compile", "malformed parameter list")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, corerr.New(corerr.KindCompileDuplicateFormal, "compile", n)
		}
		seen[n] = true
	}
	return names, nil
}
