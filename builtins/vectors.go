package builtins

import "github.com/corvid-scheme/corvid/value"

func (r *registry) defineVectors() {
	h := r.h

	r.native("vector", func(args []value.Value) (value.Value, error) {
		items := make([]value.Value, len(args))
		for i, a := range args {
			retainVal(h, a)
			items[i] = a
		}
		return value.VectorRef(h, items), nil
	})

	r.native("make-vector", func(args []value.Value) (value.Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return arityError("make-vector", 1, len(args))
		}
		if args[0].Tag != value.TagNumber {
			return typeError("make-vector", args[0])
		}
		n := int(args[0].AsNumber().Float64())
		fill := value.Unspecified
		if len(args) == 2 {
			fill = args[1]
		}
		items := make([]value.Value, n)
		for i := range items {
			retainVal(h, fill)
			items[i] = fill
		}
		return value.VectorRef(h, items), nil
	})

	r.native("vector-length", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return arityError("vector-length", 1, len(args))
		}
		if args[0].Tag != value.TagVector {
			return typeError("vector-length", args[0])
		}
		return numVal(fromInt(len(args[0].Vector(h).Items))), nil
	})

	r.native("vector-ref", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return arityError("vector-ref", 2, len(args))
		}
		if args[0].Tag != value.TagVector || args[1].Tag != value.TagNumber {
			return typeError("vector-ref", args[0])
		}
		items := args[0].Vector(h).Items
		i := int(args[1].AsNumber().Float64())
		if i < 0 || i >= len(items) {
			return outOfRangeError("vector-ref", i)
		}
		retainVal(h, items[i])
		return items[i], nil
	})

	r.native("vector-set!", func(args []value.Value) (value.Value, error) {
		if len(args) != 3 {
			return arityError("vector-set!", 3, len(args))
		}
		if args[0].Tag != value.TagVector || args[1].Tag != value.TagNumber {
			return typeError("vector-set!", args[0])
		}
		vec := args[0].Vector(h)
		i := int(args[1].AsNumber().Float64())
		if i < 0 || i >= len(vec.Items) {
			return outOfRangeError("vector-set!", i)
		}
		retainVal(h, args[2])
		releaseVal(h, vec.Items[i])
		vec.Items[i] = args[2]
		return value.Unspecified, nil
	})

	r.native("vector->list", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Tag != value.TagVector {
			return typeError("vector->list", args[0])
		}
		items := args[0].Vector(h).Items
		out := make([]value.Value, len(items))
		for i, v := range items {
			retainVal(h, v)
			out[i] = v
		}
		return value.SliceToList(h, out), nil
	})

	r.native("make-bytevector", func(args []value.Value) (value.Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return arityError("make-bytevector", 1, len(args))
		}
		n := int(args[0].AsNumber().Float64())
		var fill byte
		if len(args) == 2 {
			fill = byte(int(args[1].AsNumber().Float64()))
		}
		bytes := make([]byte, n)
		for i := range bytes {
			bytes[i] = fill
		}
		return value.BytevectorRef(h, bytes), nil
	})

	r.native("bytevector-length", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Tag != value.TagBytevector {
			return typeError("bytevector-length", args[0])
		}
		return numVal(fromInt(len(args[0].Bytevector(h).Bytes))), nil
	})

	r.native("bytevector-u8-ref", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 || args[0].Tag != value.TagBytevector {
			return typeError("bytevector-u8-ref", args[0])
		}
		bytes := args[0].Bytevector(h).Bytes
		i := int(args[1].AsNumber().Float64())
		if i < 0 || i >= len(bytes) {
			return outOfRangeError("bytevector-u8-ref", i)
		}
		return numVal(fromInt(int(bytes[i]))), nil
	})

	r.native("bytevector-u8-set!", func(args []value.Value) (value.Value, error) {
		if len(args) != 3 || args[0].Tag != value.TagBytevector {
			return typeError("bytevector-u8-set!", args[0])
		}
		bytes := args[0].Bytevector(h).Bytes
		i := int(args[1].AsNumber().Float64())
		if i < 0 || i >= len(bytes) {
			return outOfRangeError("bytevector-u8-set!", i)
		}
		bytes[i] = byte(int(args[2].AsNumber().Float64()))
		return value.Unspecified, nil
	})

	r.native("string-length", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Tag != value.TagString {
			return typeError("string-length", args[0])
		}
		return numVal(fromInt(len(args[0].String(h).Chars))), nil
	})

	r.native("string-ref", func(args []value.Value) (value.Value, error) {
		if len(args) != 2 || args[0].Tag != value.TagString {
			return typeError("string-ref", args[0])
		}
		chars := args[0].String(h).Chars
		i := int(args[1].AsNumber().Float64())
		if i < 0 || i >= len(chars) {
			return outOfRangeError("string-ref", i)
		}
		return value.Char(chars[i]), nil
	})
}
