// Package parser consumes the token stream and produces a single
// Value datum per top-level form (spec §4.3). It generalizes the
// teacher's readList/readString/readNumber recursive-descent shape
// (read.go) from scanning raw characters to consuming lexer.Tokens,
// and replaces the teacher's string-matching on err.Error() (`"unexpected
// ')'"` vs `"unexpected '.'"`) with a proper Status result that
// distinguishes incomplete input from genuine syntax errors.
package parser

import (
	"errors"

	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/lexer"
	"github.com/corvid-scheme/corvid/numeric"
	"github.com/corvid-scheme/corvid/value"
)

// Status is one of the five outcomes §4.3 names.
type Status int

const (
	StatusEOF Status = iota // no more top-level forms; not one of §4.3's five, added so REPL/LoadFile loops have a clean stop signal distinct from Incomplete ("started a form but didn't finish it")
	StatusComplete
	StatusIncomplete
	StatusLexError
	StatusParserError
)

// Result is what Parse returns.
type Result struct {
	Datum  value.Value
	Status Status
	Err    error
}

var quoteSym = value.Sym("quote")
var quasiquoteSym = value.Sym("quasiquote")
var unquoteSym = value.Sym("unquote")
var unquoteSplicingSym = value.Sym("unquote-splicing")

// Parse reads exactly one top-level datum from l.
func Parse(h *heap.Heap, l *lexer.Lexer) Result {
	tok, err := l.Peek()
	if err != nil {
		return classify(err)
	}
	if tok.Kind == lexer.EOF {
		return Result{Status: StatusEOF}
	}
	d, err := nextDatum(h, l)
	if err != nil {
		return classify(err)
	}
	return Result{Datum: d, Status: StatusComplete}
}

func classify(err error) Result {
	var inc *corerr.Incomplete
	if errors.As(err, &inc) {
		return Result{Status: StatusIncomplete, Err: err}
	}
	var kerr *corerr.Error
	if errors.As(err, &kerr) {
		if kerr.Kind >= corerr.KindParseUnexpectedToken && kerr.Kind < corerr.KindCompileUnknownForm {
			return Result{Status: StatusParserError, Err: err}
		}
		return Result{Status: StatusLexError, Err: err}
	}
	return Result{Status: StatusLexError, Err: err}
}

// nextDatum skips any number of leading #; datum comments (each of
// which discards exactly the following datum) and then parses one
// real datum.
func nextDatum(h *heap.Heap, l *lexer.Lexer) (value.Value, error) {
	for {
		tok, err := l.Peek()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind != lexer.DatumComment {
			break
		}
		l.Get()
		if _, err := nextDatum(h, l); err != nil {
			return value.Value{}, err
		}
	}
	return parseDatum(h, l)
}

func parseDatum(h *heap.Heap, l *lexer.Lexer) (value.Value, error) {
	tok, err := l.Get()
	if err != nil {
		return value.Value{}, err
	}
	switch tok.Kind {
	case lexer.EOF:
		return value.Value{}, &corerr.Incomplete{Reason: "expected a datum, found end of input"}
	case lexer.ParenLeft:
		return parseList(h, l)
	case lexer.VectorStart:
		return parseVector(h, l)
	case lexer.BytevectorStart:
		return parseBytevector(h, l)
	case lexer.Quote:
		return parseWrapped(h, l, quoteSym)
	case lexer.Backtick:
		return parseWrapped(h, l, quasiquoteSym)
	case lexer.Comma:
		return parseWrapped(h, l, unquoteSym)
	case lexer.CommaAt:
		return parseWrapped(h, l, unquoteSplicingSym)
	case lexer.Identifier:
		return value.Sym(tok.Text), nil
	case lexer.BooleanTrue:
		return value.True, nil
	case lexer.BooleanFalse:
		return value.False, nil
	case lexer.NumberTok:
		n, err := parseNumber(tok.Text)
		if err != nil {
			return value.Value{}, corerr.Wrap(corerr.KindParseUnexpectedToken, "parse", tok.Text, err)
		}
		return value.Num(n), nil
	case lexer.StringTok:
		return value.StringRef(h, tok.Str), nil
	case lexer.CharacterTok:
		return value.Char(tok.Char), nil
	case lexer.Directive:
		return value.Sym("#!" + tok.Text), nil
	case lexer.ParenRight:
		return value.Value{}, corerr.New(corerr.KindParseUnexpectedToken, "parse", ")")
	case lexer.Period:
		return value.Value{}, corerr.New(corerr.KindParseUnexpectedToken, "parse", ".")
	case lexer.DatumComment:
		// A #; that nextDatum didn't already consume (e.g. right after
		// a quote prefix): discard the following datum and read again.
		if _, err := nextDatum(h, l); err != nil {
			return value.Value{}, err
		}
		return nextDatum(h, l)
	}
	return value.Value{}, corerr.New(corerr.KindParseUnexpectedToken, "parse", "?")
}

func parseWrapped(h *heap.Heap, l *lexer.Lexer, head value.Value) (value.Value, error) {
	d, err := nextDatum(h, l)
	if err != nil {
		return value.Value{}, err
	}
	return value.SliceToList(h, []value.Value{head, d}), nil
}

func parseList(h *heap.Heap, l *lexer.Lexer) (value.Value, error) {
	var elems []value.Value
	for {
		tok, err := l.Peek()
		if err != nil {
			return value.Value{}, err
		}
		switch tok.Kind {
		case lexer.EOF:
			return value.Value{}, &corerr.Incomplete{Reason: "unterminated list"}
		case lexer.ParenRight:
			l.Get()
			return value.SliceToList(h, elems), nil
		case lexer.Period:
			l.Get()
			tail, err := nextDatum(h, l)
			if err != nil {
				return value.Value{}, err
			}
			closeTok, err := l.Get()
			if err != nil {
				return value.Value{}, err
			}
			if closeTok.Kind != lexer.ParenRight {
				return value.Value{}, corerr.New(corerr.KindParseBadDotted, "parse", "expected ) after dotted tail")
			}
			return buildDotted(h, elems, tail), nil
		case lexer.DatumComment:
			l.Get()
			if _, err := nextDatum(h, l); err != nil {
				return value.Value{}, err
			}
			continue
		}
		d, err := parseDatum(h, l)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, d)
	}
}

func buildDotted(h *heap.Heap, elems []value.Value, tail value.Value) value.Value {
	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = value.PairRef(h, elems[i], result)
	}
	return result
}

func parseVector(h *heap.Heap, l *lexer.Lexer) (value.Value, error) {
	var items []value.Value
	for {
		tok, err := l.Peek()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind == lexer.EOF {
			return value.Value{}, &corerr.Incomplete{Reason: "unterminated vector literal"}
		}
		if tok.Kind == lexer.ParenRight {
			l.Get()
			return value.VectorRef(h, items), nil
		}
		if tok.Kind == lexer.DatumComment {
			l.Get()
			if _, err := nextDatum(h, l); err != nil {
				return value.Value{}, err
			}
			continue
		}
		d, err := parseDatum(h, l)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, d)
	}
}

func parseBytevector(h *heap.Heap, l *lexer.Lexer) (value.Value, error) {
	var bytes []byte
	for {
		tok, err := l.Peek()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind == lexer.EOF {
			return value.Value{}, &corerr.Incomplete{Reason: "unterminated bytevector literal"}
		}
		if tok.Kind == lexer.ParenRight {
			l.Get()
			return value.BytevectorRef(h, bytes), nil
		}
		if tok.Kind != lexer.NumberTok {
			return value.Value{}, corerr.New(corerr.KindParseBadVector, "parse", "bytevector elements must be byte literals")
		}
		l.Get()
		n, err := parseNumber(tok.Text)
		if err != nil {
			return value.Value{}, corerr.Wrap(corerr.KindParseBadVector, "parse", tok.Text, err)
		}
		iv := n.Float64()
		if iv < 0 || iv > 255 {
			return value.Value{}, corerr.New(corerr.KindParseBadVector, "parse", "byte out of range 0-255")
		}
		bytes = append(bytes, byte(iv))
	}
}

// parseNumber turns lexed number text into a numeric.Number,
// following §3.2/§4.2: integers, decimal fractions, and n/d rational
// literals. A leading #b/#o/#d/#x/#e/#i radix/exactness prefix the
// lexer folded into the token text is handled by
// numeric.ParseWithPrefix.
func parseNumber(text string) (numeric.Number, error) {
	if len(text) > 1 && text[0] == '#' {
		return numeric.ParseWithPrefix(text)
	}
	return numeric.Parse(text)
}
