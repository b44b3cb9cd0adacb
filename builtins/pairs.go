package builtins

import (
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

func (r *registry) definePairs() {
	h := r.h

	r.native("cons", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("cons", 2, len(args))
		}
		// args still belong to the rib apply is about to release once
		// this call returns; the new pair needs its own retained claim
		// on each (value.PairRef only adopts fresh values).
		retainVal(h, args[0])
		retainVal(h, args[1])
		return value.PairRef(h, args[0], args[1]), nil
	})

	r.native("car", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("car", 1, len(args))
		}
		if args[0].Tag != value.TagPair {
			return typeError("car", args[0])
		}
		car := args[0].Pair(h).Car
		retainVal(h, car)
		return car, nil
	})

	r.native("cdr", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("cdr", 1, len(args))
		}
		if args[0].Tag != value.TagPair {
			return typeError("cdr", args[0])
		}
		cdr := args[0].Pair(h).Cdr
		retainVal(h, cdr)
		return cdr, nil
	})

	r.native("set-car!", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("set-car!", 2, len(args))
		}
		if args[0].Tag != value.TagPair {
			return typeError("set-car!", args[0])
		}
		p := args[0].Pair(h)
		retainVal(h, args[1])
		releaseVal(h, p.Car)
		p.Car = args[1]
		return value.Unspecified, nil
	})

	r.native("set-cdr!", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("set-cdr!", 2, len(args))
		}
		if args[0].Tag != value.TagPair {
			return typeError("set-cdr!", args[0])
		}
		p := args[0].Pair(h)
		retainVal(h, args[1])
		releaseVal(h, p.Cdr)
		p.Cdr = args[1]
		return value.Unspecified, nil
	})

	r.native("list", func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			retainVal(h, a)
		}
		return value.SliceToList(h, args), nil
	})

	r.native("length", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("length", 1, len(args))
		}
		items, ok := value.ListToSlice(h, args[0])
		if !ok {
			return typeError("length", args[0])
		}
		return numVal(fromInt(len(items))), nil
	})

	r.native("append", func(args []value.Value) (value.Value, error) {
		var all []value.Value
		for _, a := range args {
			items, ok := value.ListToSlice(h, a)
			if !ok {
				return typeError("append", a)
			}
			all = append(all, items...)
		}
		for _, v := range all {
			retainVal(h, v)
		}
		return value.SliceToList(h, all), nil
	})

	r.native("reverse", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("reverse", 1, len(args))
		}
		items, ok := value.ListToSlice(h, args[0])
		if !ok {
			return typeError("reverse", args[0])
		}
		rev := make([]value.Value, len(items))
		for i, v := range items {
			retainVal(h, v)
			rev[len(items)-1-i] = v
		}
		return value.SliceToList(h, rev), nil
	})
}

func releaseVal(h *heap.Heap, v value.Value) {
	for _, ref := range value.RefsOf(v) {
		h.Release(ref)
	}
}
