package value_test

import (
	"testing"

	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/lexer"
	"github.com/corvid-scheme/corvid/parser"
	. "github.com/corvid-scheme/corvid/value"
)

func TestWriteCharacterUsesNamedAndHexForms(t *testing.T) {
	cases := []struct {
		ch   rune
		want string
	}{
		{'a', `#\a`},
		{' ', `#\space`},
		{'\n', `#\newline`},
		{'\t', `#\tab`},
		{0, `#\null`},
		{0x7f, `#\delete`},
		{0x1b, `#\escape`},
		{0x01, `#\x1;`},
	}
	h := heap.New()
	for _, c := range cases {
		got := Write(h, Char(c.ch), true)
		if got != c.want {
			t.Fatalf("write(%q): got %q, want %q", c.ch, got, c.want)
		}
	}
}

func TestDisplayCharacterUsesBareGlyph(t *testing.T) {
	h := heap.New()
	if got := Write(h, Char('a'), false); got != "a" {
		t.Fatalf("display: got %q, want %q", got, "a")
	}
	if got := Write(h, Char(' '), false); got != " " {
		t.Fatalf("display: got %q, want %q", got, " ")
	}
}

// parseOne parses exactly one datum out of src, the way the §8
// print-parse round-trip scenario requires.
func parseOne(t *testing.T, h *heap.Heap, src string) Value {
	t.Helper()
	res := parser.Parse(h, lexer.New(src))
	if res.Status != parser.StatusComplete {
		t.Fatalf("parse(%q): status=%v err=%v", src, res.Status, res.Err)
	}
	return res.Datum
}

func TestWriteCharacterRoundTripsThroughParser(t *testing.T) {
	h := heap.New()
	for _, src := range []string{`#\a`, `#\space`, `#\newline`, `#\tab`} {
		datum := parseOne(t, h, src)
		printed := Write(h, datum, true)
		again := parseOne(t, h, printed)
		if again.Tag != TagCharacter || again.AsChar() != datum.AsChar() {
			t.Fatalf("round-trip %q -> %q -> %q changed the datum", src, printed, Write(h, again, true))
		}
	}
}

func TestWriteBareGlyphWouldMisparseAsSymbol(t *testing.T) {
	// Guards the bug the bare-glyph path had: display's rendering of
	// #\a is the bare string "a", which is what write must NOT
	// produce, since re-parsing "a" yields a symbol, not a character.
	h := heap.New()
	datum := parseOne(t, h, `#\a`)
	glyph := Write(h, datum, false)
	reparsed := parseOne(t, h, glyph)
	if reparsed.Tag != TagSymbol {
		t.Fatalf("expected the bare glyph to parse back as a symbol, got tag %v", reparsed.Tag)
	}
	if writeForm := Write(h, datum, true); writeForm == glyph {
		t.Fatalf("write(%q) must differ from the bare glyph %q", writeForm, glyph)
	}
}
