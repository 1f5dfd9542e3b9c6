package draft

import "testing"

func TestTokenSetEqualIgnoresOrderOfConstruction(t *testing.T) {
	a := NewTokenSet("mon", "tue", "wed")
	b := NewTokenSet("wed", "mon", "tue")
	if !a.Equal(b) {
		t.Error("sets with same members compare unequal")
	}

	b.Remove("wed")
	if a.Equal(b) {
		t.Error("sets with different cardinality compare equal")
	}

	b.Add("fri")
	if a.Equal(b) {
		t.Error("sets with same cardinality but different members compare equal")
	}
}

func TestTokenSetCloneIsIndependent(t *testing.T) {
	orig := NewTokenSet("mon")
	clone := orig.Clone()
	clone.Add("tue")

	if orig.Has("tue") {
		t.Error("mutating a clone reached the original")
	}
	if !clone.Has("mon") {
		t.Error("clone lost original members")
	}
}

func TestTokenSetSliceIsSorted(t *testing.T) {
	s := NewTokenSet("wed", "mon", "fri")
	got := s.Slice()
	want := []string{"fri", "mon", "wed"}
	if len(got) != len(want) {
		t.Fatalf("unexpected slice length: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slice not sorted: %v", got)
		}
	}
}

func TestNewTokenSetCollapsesDuplicates(t *testing.T) {
	s := NewTokenSet("mon", "mon", "tue")
	if s.Len() != 2 {
		t.Errorf("expected 2 members, got %d", s.Len())
	}
}

func TestVocabularyNormalize(t *testing.T) {
	v := NewVocabulary("mon", "tue")

	set, discarded := v.Normalize([]string{"mon", "bogus", "tue", "nope"})
	if discarded != 2 {
		t.Errorf("expected 2 discards, got %d", discarded)
	}
	if !set.Equal(NewTokenSet("mon", "tue")) {
		t.Errorf("unexpected normalized set: %v", set.Slice())
	}

	// Duplicates collapse without counting as discards.
	set, discarded = v.Normalize([]string{"mon", "mon"})
	if discarded != 0 {
		t.Errorf("duplicate counted as discard: %d", discarded)
	}
	if set.Len() != 1 {
		t.Errorf("expected singleton set, got %v", set.Slice())
	}

	set, discarded = v.Normalize(nil)
	if discarded != 0 || set.Len() != 0 {
		t.Errorf("nil input should normalize to empty set, got %v (%d)", set.Slice(), discarded)
	}
}

func TestVocabularyKeepsDeclarationOrder(t *testing.T) {
	v := NewVocabulary("mon", "tue", "wed", "thu", "fri", "mon")

	got := v.Tokens()
	want := []string{"mon", "tue", "wed", "thu", "fri"}
	if len(got) != len(want) {
		t.Fatalf("unexpected tokens: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens not in declaration order: %v", got)
		}
	}

	ordered := v.Order(NewTokenSet("fri", "mon", "wed"))
	want = []string{"mon", "wed", "fri"}
	if len(ordered) != len(want) {
		t.Fatalf("unexpected ordered slice: %v", ordered)
	}
	for i := range want {
		if ordered[i] != want[i] {
			t.Fatalf("members not in vocabulary order: %v", ordered)
		}
	}
}

func TestVocabularyContains(t *testing.T) {
	v := NewVocabulary("mon", "tue")
	if !v.Contains("mon") {
		t.Error("vocabulary missing declared token")
	}
	if v.Contains("sunday") {
		t.Error("vocabulary accepts undeclared token")
	}
}
