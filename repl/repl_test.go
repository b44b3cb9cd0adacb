package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDrainEvaluatesMultipleFormsOneBatch(t *testing.T) {
	var out strings.Builder
	s := New(&out)
	remainder, err := s.Drain("(define x 10) (display (+ x 5))", true)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if remainder != "" {
		t.Fatalf("expected no remainder, got %q", remainder)
	}
	if out.String() != "15" {
		t.Fatalf("expected %q, got %q", "15", out.String())
	}
}

func TestDrainReportsIncompleteRemainder(t *testing.T) {
	var out strings.Builder
	s := New(&out)
	remainder, err := s.Drain("(+ 1 2", true)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if remainder != "(+ 1 2" {
		t.Fatalf("expected the whole fragment back, got %q", remainder)
	}
	remainder, err = s.Drain(remainder+" 3)", true)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if remainder != "" {
		t.Fatalf("expected no remainder once closed, got %q", remainder)
	}
	if strings.TrimSpace(out.String()) != "6" {
		t.Fatalf("expected 6, got %q", out.String())
	}
}

func TestDrainHandlesQuitDirective(t *testing.T) {
	var out strings.Builder
	s := New(&out)
	_, err := s.Drain("(define x 1) #!quit (define x 2)", true)
	if err != ErrQuit {
		t.Fatalf("expected ErrQuit, got %v", err)
	}
	if _, err := s.Drain("(display x)", true); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.String() != "1" {
		t.Fatalf("expected x to still be 1 (quit before the second define ran), got %q", out.String())
	}
}

func TestDrainBindingsPersistAcrossCalls(t *testing.T) {
	var out strings.Builder
	s := New(&out)
	if _, err := s.Drain("(define (double n) (* n 2))", false); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := s.Drain("(display (double 21))", true); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.String() != "42" {
		t.Fatalf("expected 42, got %q", out.String())
	}
}

func TestLoadFileBootstraps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bootstrap.scm")
	if err := os.WriteFile(path, []byte("(define answer (* 6 7))\n"), 0o644); err != nil {
		t.Fatalf("write bootstrap file: %v", err)
	}
	var out strings.Builder
	s := New(&out)
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if _, err := s.Drain("(display answer)", true); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.String() != "42" {
		t.Fatalf("expected 42, got %q", out.String())
	}
}

func TestLoadFileRejectsTruncatedForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.scm")
	if err := os.WriteFile(path, []byte("(define x (+ 1 "), 0o644); err != nil {
		t.Fatalf("write truncated file: %v", err)
	}
	s := New(nil)
	if err := s.LoadFile(path); err == nil {
		t.Fatalf("expected an error loading a truncated bootstrap file")
	}
}
