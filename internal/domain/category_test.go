package domain

import "testing"

func TestParseCategory(t *testing.T) {
	for _, cat := range Categories() {
		parsed, err := ParseCategory(string(cat))
		if err != nil {
			t.Errorf("ParseCategory(%q) failed: %v", cat, err)
		}
		if parsed != cat {
			t.Errorf("ParseCategory(%q) = %q", cat, parsed)
		}
	}

	if _, err := ParseCategory("dog-coins"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := ParseCategory(""); err == nil {
		t.Error("expected error for empty category")
	}
}

func TestCategory_Descriptors(t *testing.T) {
	for _, cat := range Categories() {
		desc, ok := cat.Descriptor()
		if !ok {
			t.Fatalf("missing descriptor for %q", cat)
		}
		if desc.Label == "" || desc.Description == "" {
			t.Errorf("incomplete descriptor for %q: %+v", cat, desc)
		}
	}
}

func TestCategory_Synthetic(t *testing.T) {
	// watchlist and all are resolved locally; everything else carries an
	// upstream filter tag.
	for _, cat := range Categories() {
		desc, _ := cat.Descriptor()
		wantSynthetic := cat == CategoryWatchlist || cat == CategoryAll
		if cat.IsSynthetic() != wantSynthetic {
			t.Errorf("%q IsSynthetic = %v, want %v", cat, cat.IsSynthetic(), wantSynthetic)
		}
		if wantSynthetic && desc.APICategory != "" {
			t.Errorf("%q should have no upstream filter", cat)
		}
		if !wantSynthetic && desc.APICategory == "" {
			t.Errorf("%q should have an upstream filter", cat)
		}
	}
}

func TestCategories_StableOrder(t *testing.T) {
	cats := Categories()
	if len(cats) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(cats))
	}
	if cats[0] != CategoryWatchlist || cats[1] != CategoryAll {
		t.Errorf("unexpected leading categories: %v", cats[:2])
	}

	// returned slice must be a copy
	cats[0] = Category("mutated")
	if Categories()[0] != CategoryWatchlist {
		t.Error("Categories() leaked internal slice")
	}
}
