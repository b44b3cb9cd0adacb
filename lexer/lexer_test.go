package lexer

import "testing"

func kinds(t *testing.T, src string) []Kind {
	t.Helper()
	l := New(src)
	var out []Kind
	for {
		tok, err := l.Get()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		out = append(out, tok.Kind)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestBasicList(t *testing.T) {
	got := kinds(t, "(+ 1 2)")
	want := []Kind{ParenLeft, Identifier, NumberTok, NumberTok, ParenRight, EOF}
	if !equalKinds(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestQuoteShorthand(t *testing.T) {
	got := kinds(t, "'x")
	want := []Kind{Quote, Identifier, EOF}
	if !equalKinds(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCommentsSkippedTransparently(t *testing.T) {
	got := kinds(t, "; comment\n(a #| nested #| block |# comment |# b)")
	want := []Kind{ParenLeft, Identifier, Identifier, ParenRight, EOF}
	if !equalKinds(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDatumComment(t *testing.T) {
	got := kinds(t, "(a #;b c)")
	want := []Kind{ParenLeft, Identifier, DatumComment, Identifier, Identifier, ParenRight, EOF}
	if !equalKinds(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\x41;c"`)
	tok, err := l.Get()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != StringTok || tok.Str != "a\nbAc" {
		t.Fatalf("got %+v", tok)
	}
}

func TestUnterminatedStringIsIncomplete(t *testing.T) {
	l := New(`"abc`)
	_, err := l.Get()
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNamedCharacter(t *testing.T) {
	l := New(`#\newline`)
	tok, err := l.Get()
	if err != nil || tok.Kind != CharacterTok || tok.Char != '\n' {
		t.Fatalf("got %+v, err %v", tok, err)
	}
}

func TestPeekThenUnget(t *testing.T) {
	l := New("(a b)")
	first, _ := l.Peek()
	if first.Kind != ParenLeft {
		t.Fatalf("peek should not advance: got %v", first.Kind)
	}
	got1, _ := l.Get()
	got2, _ := l.Get()
	l.Unget()
	got2Again, _ := l.Get()
	if got1.Kind != ParenLeft || got2.Kind != Identifier || got2Again.Kind != got2.Kind {
		t.Fatalf("unget/get mismatch: %v %v %v", got1.Kind, got2.Kind, got2Again.Kind)
	}
}

func TestVectorAndBytevectorStart(t *testing.T) {
	got := kinds(t, "#(1 2) #u8(1 2)")
	want := []Kind{VectorStart, NumberTok, NumberTok, ParenRight, BytevectorStart, NumberTok, NumberTok, ParenRight, EOF}
	if !equalKinds(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDirective(t *testing.T) {
	l := New("#!quit")
	tok, err := l.Get()
	if err != nil || tok.Kind != Directive || tok.Text != "quit" {
		t.Fatalf("got %+v, err %v", tok, err)
	}
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
