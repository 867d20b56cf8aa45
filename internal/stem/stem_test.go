package stem

import "testing"

func TestStemReducesSuffixes(t *testing.T) {
	s := New()
	stemmed, ok := s.Stem("running")
	if !ok {
		t.Fatal("expected stemmed form to differ")
	}
	if stemmed == "" {
		t.Fatal("expected non-empty stem")
	}
}

func TestStemIdempotentFormReportsNoChange(t *testing.T) {
	s := New()
	_, ok := s.Stem("a")
	if ok {
		t.Fatal("expected single-letter term to stem to itself")
	}
}
