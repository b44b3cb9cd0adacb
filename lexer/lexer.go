// Package lexer converts a character stream into a token stream
// (spec §4.2). It supports backtracking via a two-ended buffer of
// already-produced tokens (Get/Peek/Unget), generalizing the
// teacher's ad hoc readNumber/readSymbol/readString character
// dispatch (read.go) into discrete, classified tokens and giving
// every failure a stable kind code instead of a bare error string.
package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/corvid-scheme/corvid/corerr"
)

// Kind enumerates the token kinds §4.2 lists. Block and line
// comments are consumed internally by the scanner and never surface
// as tokens - the spec calls for them to be "skipped transparently" -
// but a datum comment (#;) does surface, since the parser must act on
// it by discarding exactly the next datum.
type Kind int

const (
	ParenLeft Kind = iota
	ParenRight
	VectorStart
	BytevectorStart
	Quote
	Backtick
	Comma
	CommaAt
	Period
	Identifier
	BooleanTrue
	BooleanFalse
	NumberTok
	StringTok
	CharacterTok
	Directive
	DatumComment
	EOF
)

// Token is one lexical unit. Text carries the literal spelling for
// Identifier/NumberTok/Directive; Str carries the decoded string body
// for StringTok; Char carries the decoded scalar for CharacterTok.
type Token struct {
	Kind Kind
	Text string
	Str  string
	Char rune
	Pos  int
}

// Lexer is a buffered tokenizer over a rune stream, grounded on
// original_source's Tokenizer.hpp double-ended buffer shape: tokens
// already produced are kept in buf so Unget can rewind without
// re-scanning, and Get only calls scanOne when the cursor runs past
// the end of what's been buffered so far.
type Lexer struct {
	src    []rune
	offset int // rune index into src; also the Pos given to tokens
	buf    []Token
	cursor int
}

// New returns a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

// Get returns the next token, advancing the cursor.
func (l *Lexer) Get() (Token, error) {
	t, err := l.Peek()
	if err != nil {
		return t, err
	}
	l.cursor++
	return t, nil
}

// Peek returns the next token without advancing the cursor.
func (l *Lexer) Peek() (Token, error) {
	for l.cursor >= len(l.buf) {
		tok, err := l.scanOne()
		if err != nil {
			return Token{}, err
		}
		l.buf = append(l.buf, tok)
	}
	return l.buf[l.cursor], nil
}

// Unget rewinds the cursor by one token. It is a no-op at the start
// of the stream.
func (l *Lexer) Unget() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *Lexer) peekRune() (rune, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset], true
}

func (l *Lexer) peekRuneAt(n int) (rune, bool) {
	if l.offset+n >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset+n], true
}

func (l *Lexer) advance() rune {
	r := l.src[l.offset]
	l.offset++
	return r
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isDelimiter(r rune) bool {
	return isWhitespace(r) || r == '(' || r == ')' || r == '"' || r == ';' || r == '|'
}

// skipAtmosphere consumes whitespace, line comments and nested block
// comments, leaving l.offset at the start of the next real token (or
// at end of input). It returns an error only if a block comment is
// left unterminated.
func (l *Lexer) skipAtmosphere() error {
	for {
		r, ok := l.peekRune()
		if !ok {
			return nil
		}
		switch {
		case isWhitespace(r):
			l.advance()
		case r == ';':
			for {
				r, ok := l.peekRune()
				if !ok || r == '\n' {
					break
				}
				l.advance()
			}
		case r == '#':
			next, ok := l.peekRuneAt(1)
			if ok && next == '|' {
				l.advance()
				l.advance()
				if err := l.skipBlockComment(); err != nil {
					return err
				}
				continue
			}
			return nil
		default:
			return nil
		}
	}
}

func (l *Lexer) skipBlockComment() error {
	depth := 1
	for depth > 0 {
		r, ok := l.peekRune()
		if !ok {
			return &corerr.Incomplete{Reason: "unterminated block comment"}
		}
		if r == '#' {
			if n, ok := l.peekRuneAt(1); ok && n == '|' {
				l.advance()
				l.advance()
				depth++
				continue
			}
		}
		if r == '|' {
			if n, ok := l.peekRuneAt(1); ok && n == '#' {
				l.advance()
				l.advance()
				depth--
				continue
			}
		}
		l.advance()
	}
	return nil
}

func (l *Lexer) scanOne() (Token, error) {
	if err := l.skipAtmosphere(); err != nil {
		return Token{}, err
	}
	pos := l.offset
	r, ok := l.peekRune()
	if !ok {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	switch r {
	case '(':
		l.advance()
		return Token{Kind: ParenLeft, Pos: pos}, nil
	case ')':
		l.advance()
		return Token{Kind: ParenRight, Pos: pos}, nil
	case '\'':
		l.advance()
		return Token{Kind: Quote, Pos: pos}, nil
	case '`':
		l.advance()
		return Token{Kind: Backtick, Pos: pos}, nil
	case ',':
		l.advance()
		if n, ok := l.peekRune(); ok && n == '@' {
			l.advance()
			return Token{Kind: CommaAt, Pos: pos}, nil
		}
		return Token{Kind: Comma, Pos: pos}, nil
	case '"':
		l.advance()
		return l.scanString(pos)
	case '#':
		return l.scanHash(pos)
	}

	if r == '.' {
		if n, ok := l.peekRuneAt(1); !ok || isDelimiter(n) {
			l.advance()
			return Token{Kind: Period, Pos: pos}, nil
		}
	}

	return l.scanAtom(pos)
}

func (l *Lexer) scanHash(pos int) (Token, error) {
	l.advance() // consume '#'
	r, ok := l.peekRune()
	if !ok {
		return Token{}, &corerr.Incomplete{Reason: "truncated # form"}
	}
	switch r {
	case '(':
		l.advance()
		return Token{Kind: VectorStart, Pos: pos}, nil
	case 't':
		l.consumeRestOfWord()
		return Token{Kind: BooleanTrue, Pos: pos}, nil
	case 'f':
		l.consumeRestOfWord()
		return Token{Kind: BooleanFalse, Pos: pos}, nil
	case '\\':
		l.advance()
		return l.scanCharacter(pos)
	case ';':
		l.advance()
		return Token{Kind: DatumComment, Pos: pos}, nil
	case '!':
		l.advance()
		start := l.offset
		for {
			r, ok := l.peekRune()
			if !ok || isDelimiter(r) {
				break
			}
			l.advance()
		}
		return Token{Kind: Directive, Text: string(l.src[start:l.offset]), Pos: pos}, nil
	case 'u':
		if n1, ok1 := l.peekRuneAt(1); ok1 && n1 == '8' {
			if n2, ok2 := l.peekRuneAt(2); ok2 && n2 == '(' {
				l.advance()
				l.advance()
				l.advance()
				return Token{Kind: BytevectorStart, Pos: pos}, nil
			}
		}
	case 'b', 'o', 'd', 'x', 'e', 'i':
		// numeric radix/exactness prefix: fold it into the atom scan.
		start := l.offset - 1
		for {
			r, ok := l.peekRune()
			if !ok || isDelimiter(r) {
				break
			}
			l.advance()
		}
		return Token{Kind: NumberTok, Text: string(l.src[start:l.offset]), Pos: pos}, nil
	}
	return Token{}, corerr.New(corerr.KindLexUnknownHash, "lex", "#"+string(r))
}

func (l *Lexer) consumeRestOfWord() {
	for {
		r, ok := l.peekRune()
		if !ok || isDelimiter(r) {
			return
		}
		l.advance()
	}
}

var namedChars = map[string]rune{
	"alarm":     '\a',
	"backspace": '\b',
	"delete":    0x7f,
	"escape":    0x1b,
	"newline":   '\n',
	"null":      0,
	"return":    '\r',
	"space":     ' ',
	"tab":       '\t',
}

func (l *Lexer) scanCharacter(pos int) (Token, error) {
	r, ok := l.peekRune()
	if !ok {
		return Token{}, corerr.New(corerr.KindLexBadCharacter, "lex", "#\\")
	}
	// A bare delimiter right after #\ is itself the character.
	if isDelimiter(r) {
		l.advance()
		return Token{Kind: CharacterTok, Char: r, Pos: pos}, nil
	}
	start := l.offset
	l.advance()
	for {
		r, ok := l.peekRune()
		if !ok || isDelimiter(r) {
			break
		}
		l.advance()
	}
	word := string(l.src[start:l.offset])
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		return Token{Kind: CharacterTok, Char: r, Pos: pos}, nil
	}
	if c, ok := namedChars[word]; ok {
		return Token{Kind: CharacterTok, Char: c, Pos: pos}, nil
	}
	if (word[0] == 'x' || word[0] == 'X') && len(word) > 1 {
		n, err := strconv.ParseInt(word[1:], 16, 32)
		if err != nil {
			return Token{}, corerr.Wrap(corerr.KindLexBadHexEscape, "lex", word, err)
		}
		return Token{Kind: CharacterTok, Char: rune(n), Pos: pos}, nil
	}
	return Token{}, corerr.New(corerr.KindLexBadCharacter, "lex", word)
}

func (l *Lexer) scanString(pos int) (Token, error) {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return Token{}, &corerr.Incomplete{Reason: "unterminated string literal"}
		}
		l.advance()
		if r == '"' {
			return Token{Kind: StringTok, Str: b.String(), Pos: pos}, nil
		}
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		esc, ok := l.peekRune()
		if !ok {
			return Token{}, &corerr.Incomplete{Reason: "unterminated escape"}
		}
		l.advance()
		switch esc {
		case 'a':
			b.WriteRune('\a')
		case 'b':
			b.WriteRune('\b')
		case 't':
			b.WriteRune('\t')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case '"':
			b.WriteRune('"')
		case '\\':
			b.WriteRune('\\')
		case 'x':
			start := l.offset
			for {
				r, ok := l.peekRune()
				if !ok {
					return Token{}, corerr.New(corerr.KindLexBadHexEscape, "lex", `\x`)
				}
				if r == ';' {
					break
				}
				l.advance()
			}
			hex := string(l.src[start:l.offset])
			l.advance() // consume ';'
			n, err := strconv.ParseInt(hex, 16, 32)
			if err != nil {
				return Token{}, corerr.Wrap(corerr.KindLexBadHexEscape, "lex", hex, err)
			}
			if n < 0 || n > 0x10FFFF {
				return Token{}, corerr.New(corerr.KindLexByteOutOfRange, "lex", hex)
			}
			b.WriteRune(rune(n))
		case '\n':
			l.skipLineContinuationWhitespace()
		case ' ', '\t':
			// whitespace before a line-continuation newline
			l.skipLineContinuationWhitespace()
		default:
			return Token{}, corerr.New(corerr.KindLexBadEscape, "lex", `\`+string(esc))
		}
	}
}

// skipLineContinuationWhitespace consumes trailing intraline
// whitespace, the newline, and leading intraline whitespace of the
// next line, implementing the \<whitespace>*<newline><whitespace>*
// line-continuation escape.
func (l *Lexer) skipLineContinuationWhitespace() {
	for {
		r, ok := l.peekRune()
		if !ok || (r != ' ' && r != '\t') {
			break
		}
		l.advance()
	}
	if r, ok := l.peekRune(); ok && r == '\n' {
		l.advance()
	}
	for {
		r, ok := l.peekRune()
		if !ok || (r != ' ' && r != '\t') {
			break
		}
		l.advance()
	}
}

func isInitial(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
		return true
	}
	switch r {
	case '!', '$', '%', '&', '*', '/', ':', '<', '=', '>', '?', '^', '_', '~', '+', '-', '.':
		return true
	}
	return r > 127
}

func isSubsequent(r rune) bool {
	return isInitial(r) || (r >= '0' && r <= '9')
}

func (l *Lexer) scanAtom(pos int) (Token, error) {
	if r, ok := l.peekRune(); ok && r == '|' {
		return l.scanPipeIdentifier(pos)
	}
	start := l.offset
	for {
		r, ok := l.peekRune()
		if !ok || isDelimiter(r) || (r == '\'' || r == '`' || r == ',') {
			break
		}
		l.advance()
	}
	text := string(l.src[start:l.offset])
	if text == "" {
		r, _ := l.peekRune()
		return Token{}, corerr.New(corerr.KindLexUnknownHash, "lex", string(r))
	}
	if looksNumeric(text) {
		return Token{Kind: NumberTok, Text: text, Pos: pos}, nil
	}
	return Token{Kind: Identifier, Text: text, Pos: pos}, nil
}

func (l *Lexer) scanPipeIdentifier(pos int) (Token, error) {
	l.advance() // opening '|'
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return Token{}, &corerr.Incomplete{Reason: "unterminated |identifier|"}
		}
		l.advance()
		if r == '|' {
			return Token{Kind: Identifier, Text: b.String(), Pos: pos}, nil
		}
		if r == '\\' {
			esc, ok := l.peekRune()
			if !ok {
				return Token{}, corerr.New(corerr.KindLexBadEscape, "lex", "|...|")
			}
			l.advance()
			switch esc {
			case '|':
				b.WriteRune('|')
			case '\\':
				b.WriteRune('\\')
			case 'x':
				start := l.offset
				for {
					r, ok := l.peekRune()
					if !ok || r == ';' {
						break
					}
					l.advance()
				}
				hex := string(l.src[start:l.offset])
				l.advance()
				n, err := strconv.ParseInt(hex, 16, 32)
				if err != nil {
					return Token{}, corerr.Wrap(corerr.KindLexBadHexEscape, "lex", hex, err)
				}
				b.WriteRune(rune(n))
			default:
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(r)
	}
}

// looksNumeric is a light-weight classifier used only to decide
// between NumberTok and Identifier; the parser owns actual numeric
// parsing (and thus promotion-lattice construction via the numeric
// package).
func looksNumeric(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	sawDigit := false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
		case c == '.' || c == '/':
			// allowed punctuation within a number
		default:
			return false
		}
	}
	return sawDigit
}
