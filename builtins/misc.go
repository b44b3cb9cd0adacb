package builtins

import (
	"strings"

	"github.com/google/uuid"

	"github.com/corvid-scheme/corvid/value"
)

// defineMisc seeds the remaining natives that round out §8's
// scenarios without belonging to any of the other groups: symbol/
// string conversion and gensym, the same guaranteed-unique-name
// generator the compiler's own hygienic sugar (compiler/sugar.go)
// uses for its internal bindings, exposed here as a native per the
// DOMAIN STACK table.
func (r *registry) defineMisc() {
	h := r.h

	r.native("symbol->string", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Tag != value.TagSymbol {
			return typeError("symbol->string", args[0])
		}
		return value.StringRef(h, args[0].AsSymbol()), nil
	})

	r.native("string->symbol", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 || args[0].Tag != value.TagString {
			return typeError("string->symbol", args[0])
		}
		return value.Sym(args[0].StringValue(h)), nil
	})

	r.native("gensym", func(args []value.Value) (value.Value, error) {
		prefix := "g$"
		if len(args) == 1 {
			if args[0].Tag != value.TagSymbol {
				return typeError("gensym", args[0])
			}
			prefix = args[0].AsSymbol() + "$"
		}
		name := prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
		return value.Sym(name), nil
	})
}
