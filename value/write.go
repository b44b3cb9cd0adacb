package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvid-scheme/corvid/heap"
)

// Write renders v as an external representation, generalizing the
// teacher's printValue (print.go)'s type switch from its single Nil/
// Boolean/Number/String/ConsCell/Symbol set to the full tag table
// §3.1 defines. display and the repl's result echo both build on this;
// the difference between write and display (string quoting) is
// handled by the caller passing quoteStrings.
func Write(h *heap.Heap, v Value, quoteStrings bool) string {
	switch v.Tag {
	case TagNull:
		return "()"
	case TagBoolean:
		if v.b {
			return "#t"
		}
		return "#f"
	case TagSymbol:
		return v.sym
	case TagCharacter:
		if quoteStrings {
			return writeCharacter(v.ch)
		}
		return string(v.ch)
	case TagNumber:
		return v.num.String()
	case TagString:
		s := string(v.String(h).Chars)
		if quoteStrings {
			return "\"" + escapeString(s) + "\""
		}
		return s
	case TagPair:
		return "(" + writeList(h, v, quoteStrings) + ")"
	case TagVector:
		items := v.Vector(h).Items
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = Write(h, it, quoteStrings)
		}
		return "#(" + strings.Join(parts, " ") + ")"
	case TagBytevector:
		bytes := v.Bytevector(h).Bytes
		parts := make([]string, len(bytes))
		for i, b := range bytes {
			parts[i] = fmt.Sprintf("%d", b)
		}
		return "#u8(" + strings.Join(parts, " ") + ")"
	case TagClosure:
		if v.Closure(h).CapturedFrame != 0 {
			return "#<continuation>"
		}
		return "#<procedure>"
	case TagPrimitiveForm:
		return "#<special form>"
	case TagNative:
		return "#<procedure " + v.nat.Name + ">"
	case TagUnspecified:
		return ""
	case TagEOF:
		return "#<eof>"
	default:
		return "#<unknown>"
	}
}

func writeList(h *heap.Heap, v Value, quoteStrings bool) string {
	p := v.Pair(h)
	result := Write(h, p.Car, quoteStrings)
	rest := p.Cdr
	for rest.Tag == TagPair {
		p = rest.Pair(h)
		result += " " + Write(h, p.Car, quoteStrings)
		rest = p.Cdr
	}
	if rest.Tag == TagNull {
		return result
	}
	return result + " . " + Write(h, rest, quoteStrings)
}

func escapeString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return r.Replace(s)
}

// namedCharWrite mirrors lexer.go's namedChars in reverse, so that
// write's output round-trips back through the lexer's #\<name> case
// instead of producing a bare glyph the lexer would re-read as a
// symbol (#\a -> "a" -> Symbol("a")) or a raw control byte.
var namedCharWrite = map[rune]string{
	'\a': "alarm",
	'\b': "backspace",
	0x7f: "delete",
	0x1b: "escape",
	'\n': "newline",
	0:    "null",
	'\r': "return",
	' ':  "space",
	'\t': "tab",
}

// writeCharacter renders r as write's #\ external representation:
// a named form when the lexer has one, the bare glyph when r prints
// as itself, and #\xHH; (the lexer's hex-escape case) otherwise.
func writeCharacter(r rune) string {
	if name, ok := namedCharWrite[r]; ok {
		return "#\\" + name
	}
	if r < 0x20 || r == 0x7f || !strconv.IsPrint(r) {
		return fmt.Sprintf("#\\x%x;", r)
	}
	return "#\\" + string(r)
}
