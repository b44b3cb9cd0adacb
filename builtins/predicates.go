package builtins

import "github.com/corvid-scheme/corvid/value"

func tagPredicate(tags ...value.Tag) value.NativeFn {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("predicate", 1, len(args))
		}
		for _, t := range tags {
			if args[0].Tag == t {
				return value.True, nil
			}
		}
		return value.False, nil
	}
}

func (r *registry) definePredicates() {
	r.native("pair?", tagPredicate(value.TagPair))
	r.native("null?", tagPredicate(value.TagNull))
	r.native("boolean?", tagPredicate(value.TagBoolean))
	r.native("symbol?", tagPredicate(value.TagSymbol))
	r.native("string?", tagPredicate(value.TagString))
	r.native("char?", tagPredicate(value.TagCharacter))
	r.native("number?", tagPredicate(value.TagNumber))
	r.native("vector?", tagPredicate(value.TagVector))
	r.native("bytevector?", tagPredicate(value.TagBytevector))
	r.native("eof-object?", tagPredicate(value.TagEOF))
	r.native("procedure?", tagPredicate(value.TagClosure, value.TagNative))

	r.native("list?", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("list?", 1, len(args))
		}
		return value.Bool(value.IsList(r.h, args[0])), nil
	})

	r.native("not", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("not", 1, len(args))
		}
		return value.Bool(args[0].IsFalse()), nil
	})

	r.native("eq?", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("eq?", 2, len(args))
		}
		return value.Bool(value.Eqv(args[0], args[1])), nil
	})
	r.native("eqv?", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("eqv?", 2, len(args))
		}
		return value.Bool(value.Eqv(args[0], args[1])), nil
	})
	r.native("equal?", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("equal?", 2, len(args))
		}
		return value.Bool(value.Equal(r.h, args[0], args[1])), nil
	})
}
