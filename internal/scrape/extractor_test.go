package scrape

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// TestExtract_SectionWalk tests the document-order section register.
func TestExtract_SectionWalk(t *testing.T) {
	t.Parallel()

	t.Run("collects both directions in document order", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon",
			[]evolutionEntry{{site: "/Koromon", citations: []string{"/Book1"}}},
			[]evolutionEntry{
				{site: "/Greymon", citations: []string{"/Book2"}},
				{site: "/Tyrannomon", citations: []string{"/Book3"}},
			})

		e := NewExtractor(newFakeClassifier(), 1, 3)
		prev, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Koromon"}; !reflect.DeepEqual(prev, want) {
			t.Errorf("prev = %v, want %v", prev, want)
		}
		if want := []string{"/Greymon", "/Tyrannomon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("links before any evolution section are ignored", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>` +
			`<ul><li><a title="Profile" href="/Profile">Profile</a></li></ul>` +
			`<h2>Evolves To</h2><ul><li><a title="Greymon" href="/Greymon">Greymon</a></li></ul>` +
			`</body></html>`

		e := NewExtractor(newFakeClassifier(), 1, 3)
		prev, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if len(prev) != 0 {
			t.Errorf("prev = %v, want empty", prev)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("section after evolves-to ends the walk", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>` +
			`<h2>Evolves To</h2><ul><li><a title="Greymon" href="/Greymon">Greymon</a></li></ul>` +
			`<h2>Gallery</h2><ul><li><a title="Artwork" href="/Artwork">Artwork</a></li></ul>` +
			`</body></html>`

		e := NewExtractor(newFakeClassifier(), 1, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("unrelated heading before evolves-to does not end the walk", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>` +
			`<h2>Evolves From</h2><ul><li><a title="Koromon" href="/Koromon">Koromon</a></li></ul>` +
			`<h2>Attacks</h2>` +
			`<h2>Evolves To</h2><ul><li><a title="Greymon" href="/Greymon">Greymon</a></li></ul>` +
			`</body></html>`

		e := NewExtractor(newFakeClassifier(), 1, 3)
		prev, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Koromon"}; !reflect.DeepEqual(prev, want) {
			t.Errorf("prev = %v, want %v", prev, want)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("card game link text is skipped", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>` +
			`<h2>Evolves To</h2><ul>` +
			`<li><a title="Greymon" href="/Greymon">Greymon</a></li>` +
			`<li><a title="Greymon (Card Game)" href="/Greymon_(Card)">Greymon (Card Game)</a></li>` +
			`</ul></body></html>`

		e := NewExtractor(newFakeClassifier(), 1, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("empty evolves-from section yields empty prev", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Botamon",
			nil,
			[]evolutionEntry{{site: "/Koromon", citations: []string{"/Book1"}}})

		e := NewExtractor(newFakeClassifier(), 1, 3)
		prev, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if len(prev) != 0 {
			t.Errorf("prev = %v, want empty", prev)
		}
		if want := []string{"/Koromon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})
}

// TestExtract_ThresholdPolicy tests the citation-strength acceptance
// rules.
func TestExtract_ThresholdPolicy(t *testing.T) {
	t.Parallel()

	t.Run("weakly cited candidate dropped in a large direction", func(t *testing.T) {
		t.Parallel()

		// Four candidates exceed the low-evolution threshold of 3, so
		// the minimum of 2 non-card citations applies.
		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Book1", "/Book2"}},
			{site: "/Tyrannomon", citations: []string{"/Book1", "/Book3"}},
			{site: "/Meramon", citations: []string{"/Book2", "/Book3"}},
			{site: "/Numemon", citations: []string{"/Book1"}},
		})

		e := NewExtractor(newFakeClassifier(), 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		want := []string{"/Greymon", "/Tyrannomon", "/Meramon"}
		if !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("small direction accepts weakly cited candidates", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Book1"}},
			{site: "/Tyrannomon"},
		})

		e := NewExtractor(newFakeClassifier(), 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		want := []string{"/Greymon", "/Tyrannomon"}
		if !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("card-only candidate dropped before the direction is counted", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Book1", "/Book2"}},
			{site: "/CardOnlyMon", citations: []string{"/Card1", "/Card2"}},
		})

		fc := newFakeClassifier()
		fc.cards["/Card1"] = true
		fc.cards["/Card2"] = true

		e := NewExtractor(fc, 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("uncited candidate is not treated as card-only", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon"},
		})

		e := NewExtractor(newFakeClassifier(), 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("keep-card-only retains card-backed candidates", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/CardOnlyMon", citations: []string{"/Card1"}},
		})

		fc := newFakeClassifier()
		fc.cards["/Card1"] = true

		e := NewExtractor(fc, 2, 3, WithKeepCardOnly(true))
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/CardOnlyMon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("card citations do not count toward the minimum", func(t *testing.T) {
		t.Parallel()

		// Four candidates force the minimum; the last one's citations
		// are mostly cards and fall short of it.
		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Book1", "/Book2"}},
			{site: "/Tyrannomon", citations: []string{"/Book1", "/Book2"}},
			{site: "/Meramon", citations: []string{"/Book1", "/Book2"}},
			{site: "/Numemon", citations: []string{"/Book1", "/Card1", "/Card2"}},
		})

		fc := newFakeClassifier()
		fc.cards["/Card1"] = true
		fc.cards["/Card2"] = true

		e := NewExtractor(fc, 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		want := []string{"/Greymon", "/Tyrannomon", "/Meramon"}
		if !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})
}

// TestExtract_CitationExclusions tests per-citation skip rules.
func TestExtract_CitationExclusions(t *testing.T) {
	t.Parallel()

	t.Run("battle-spirits citations are never classified", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Battle-Spirits_Set_1", "/Book1"}},
		})

		fc := newFakeClassifier()
		e := NewExtractor(fc, 1, 0)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
		if fc.calls["/Battle-Spirits_Set_1"] != 0 {
			t.Error("battle-spirits target was classified")
		}
	})

	t.Run("non-local citations are skipped", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"https://example.com/ref", "/Book1"}},
		})

		fc := newFakeClassifier()
		e := NewExtractor(fc, 1, 0)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
		if fc.calls["https://example.com/ref"] != 0 {
			t.Error("non-local target was classified")
		}
	})

	t.Run("unresolvable citation marker is skipped", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>` +
			`<h2>Evolves To</h2><ul>` +
			`<li><a title="Greymon" href="/Greymon">Greymon</a>` +
			`<sup><a href="#cite_note-1">[1]</a></sup>` +
			`<sup><a href="#cite_note-99">[99]</a></sup></li>` +
			`</ul><ol class="references">` +
			`<li id="cite_note-1"><span class="reference-text"><a href="/Book1">src</a></span></li>` +
			`</ol></body></html>`

		e := NewExtractor(newFakeClassifier(), 1, 0)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("candidate with only unresolvable citations stays card-only", func(t *testing.T) {
		t.Parallel()

		// Excluded citations never clear the all-card verdict, so with
		// one citation marker and nothing resolvable the candidate is
		// treated as card-backed and dropped.
		html := `<html><body>` +
			`<h2>Evolves To</h2><ul>` +
			`<li><a title="Greymon" href="/Greymon">Greymon</a>` +
			`<sup><a href="#cite_note-99">[99]</a></sup></li>` +
			`</ul><ol class="references"></ol></body></html>`

		e := NewExtractor(newFakeClassifier(), 2, 3)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if len(next) != 0 {
			t.Errorf("next = %v, want empty", next)
		}
	})

	t.Run("classification failure excludes the citation only", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Broken", "/Book1"}},
		})

		fc := newFakeClassifier()
		fc.errs["/Broken"] = &ClassificationError{Target: "/Broken", Err: errors.New("boom")}

		e := NewExtractor(fc, 1, 0)
		_, next, err := e.Extract(context.Background(), mustParse(t, html))
		if err != nil {
			t.Fatalf("Extract() error: %v", err)
		}
		if want := []string{"/Greymon"}; !reflect.DeepEqual(next, want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("cache failure aborts extraction", func(t *testing.T) {
		t.Parallel()

		html := creaturePage("Agumon", nil, []evolutionEntry{
			{site: "/Greymon", citations: []string{"/Book1"}},
		})

		fc := newFakeClassifier()
		wantErr := errors.New("store unavailable")
		fc.errs["/Book1"] = wantErr

		e := NewExtractor(fc, 1, 0)
		if _, _, err := e.Extract(context.Background(), mustParse(t, html)); !errors.Is(err, wantErr) {
			t.Errorf("Extract() error = %v, want %v", err, wantErr)
		}
	})
}
