package builtins

import (
	"github.com/corvid-scheme/corvid/numeric"
	"github.com/corvid-scheme/corvid/value"
)

func fromInt(i int) numeric.Number        { return numeric.FromInt64(int64(i)) }
func numVal(n numeric.Number) value.Value { return value.Num(n) }

func nums(op string, args []value.Value) ([]numeric.Number, error) {
	out := make([]numeric.Number, len(args))
	for i, a := range args {
		if a.Tag != value.TagNumber {
			_, err := typeError(op, a)
			return nil, err
		}
		out[i] = a.AsNumber()
	}
	return out, nil
}

func (r *registry) defineNumeric() {
	r.native("+", func(args []value.Value) (value.Value, error) {
		ns, err := nums("+", args)
		if err != nil {
			return value.Value{}, err
		}
		acc := fromInt(0)
		for _, n := range ns {
			acc, err = acc.Add(n)
			if err != nil {
				return value.Value{}, err
			}
		}
		return numVal(acc), nil
	})

	r.native("*", func(args []value.Value) (value.Value, error) {
		ns, err := nums("*", args)
		if err != nil {
			return value.Value{}, err
		}
		acc := fromInt(1)
		for _, n := range ns {
			acc, err = acc.Mul(n)
			if err != nil {
				return value.Value{}, err
			}
		}
		return numVal(acc), nil
	})

	r.native("-", func(args []value.Value) (value.Value, error) {
		ns, err := nums("-", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) == 0 {
			return arityError("-", 1, 0)
		}
		if len(ns) == 1 {
			r, err := fromInt(0).Sub(ns[0])
			return numVal(r), err
		}
		acc := ns[0]
		for _, n := range ns[1:] {
			acc, err = acc.Sub(n)
			if err != nil {
				return value.Value{}, err
			}
		}
		return numVal(acc), nil
	})

	r.native("/", func(args []value.Value) (value.Value, error) {
		ns, err := nums("/", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) == 0 {
			return arityError("/", 1, 0)
		}
		if len(ns) == 1 {
			r, err := fromInt(1).Div(ns[0])
			return numVal(r), err
		}
		acc := ns[0]
		for _, n := range ns[1:] {
			acc, err = acc.Div(n)
			if err != nil {
				return value.Value{}, err
			}
		}
		return numVal(acc), nil
	})

	compare := func(name string, ok func(a, b numeric.Number) bool) value.NativeFn {
		return func(args []value.Value) (value.Value, error) {
			ns, err := nums(name, args)
			if err != nil {
				return value.Value{}, err
			}
			for i := 0; i+1 < len(ns); i++ {
				if !ok(ns[i], ns[i+1]) {
					return value.False, nil
				}
			}
			return value.True, nil
		}
	}
	r.native("=", compare("=", numeric.Number.Eq))
	r.native("<", compare("<", numeric.Number.Lt))
	r.native("<=", compare("<=", numeric.Number.Le))
	r.native(">", compare(">", numeric.Number.Gt))
	r.native(">=", compare(">=", numeric.Number.Ge))

	r.native("zero?", func(args []value.Value) (value.Value, error) {
		ns, err := nums("zero?", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) != 1 {
			return arityError("zero?", 1, len(ns))
		}
		return value.Bool(ns[0].IsZero()), nil
	})

	r.native("positive?", func(args []value.Value) (value.Value, error) {
		ns, err := nums("positive?", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) != 1 {
			return arityError("positive?", 1, len(ns))
		}
		return value.Bool(ns[0].Gt(fromInt(0))), nil
	})

	r.native("negative?", func(args []value.Value) (value.Value, error) {
		ns, err := nums("negative?", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) != 1 {
			return arityError("negative?", 1, len(ns))
		}
		return value.Bool(ns[0].Lt(fromInt(0))), nil
	})

	r.native("abs", func(args []value.Value) (value.Value, error) {
		ns, err := nums("abs", args)
		if err != nil {
			return value.Value{}, err
		}
		if len(ns) != 1 {
			return arityError("abs", 1, len(ns))
		}
		if ns[0].Lt(fromInt(0)) {
			neg, err := fromInt(0).Sub(ns[0])
			return numVal(neg), err
		}
		return numVal(ns[0]), nil
	})
}
