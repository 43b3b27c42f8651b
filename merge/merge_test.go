package merge

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/glyphkit/corefont/internal/testutil"
	"github.com/glyphkit/corefont/ot"
)

func findTestFont(name string) string {
	return testutil.FindTestFont(name)
}

func loadFont(t *testing.T, name string) []byte {
	t.Helper()
	path := findTestFont(name)
	if path == "" {
		t.Skipf("%s not found", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return data
}

func TestMergeNoFonts(t *testing.T) {
	_, err := Merge(nil)
	if err != ErrNoFonts {
		t.Fatalf("expected ErrNoFonts, got %v", err)
	}
}

func TestMergeSingleFontRoundTrips(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")

	result, err := Merge([][]byte{data})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	font, err := ot.ParseFont(result.Data, 0)
	if err != nil {
		t.Fatalf("failed to parse merged font: %v", err)
	}

	orig, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("failed to parse original font: %v", err)
	}

	if font.NumGlyphs() != orig.NumGlyphs() {
		t.Errorf("merged numGlyphs = %d, want %d", font.NumGlyphs(), orig.NumGlyphs())
	}
	for _, tag := range []ot.Tag{ot.TagGlyf, ot.TagLoca, ot.TagCmap, ot.TagHead, ot.TagHhea, ot.TagMaxp, ot.TagHmtx, ot.TagOS2, ot.TagPost, ot.TagName} {
		if !font.HasTable(tag) {
			t.Errorf("merged font missing table %v", tag)
		}
	}
}

func TestMergeUnitsPerEmMismatch(t *testing.T) {
	a := loadFont(t, "Roboto-Regular.ttf")
	b := loadFont(t, "Roboto-Variable.ttf")

	fontA, err := ot.ParseFont(a, 0)
	if err != nil {
		t.Fatalf("failed to parse font a: %v", err)
	}
	fontB, err := ot.ParseFont(b, 0)
	if err != nil {
		t.Fatalf("failed to parse font b: %v", err)
	}
	headAData, _ := fontA.TableData(ot.TagHead)
	headBData, _ := fontB.TableData(ot.TagHead)
	headA, _ := ot.ParseHead(headAData)
	headB, _ := ot.ParseHead(headBData)
	if headA.UnitsPerEm == headB.UnitsPerEm {
		t.Skip("fixture fonts happen to share unitsPerEm; mismatch case not exercised")
	}

	_, err = Merge([][]byte{a, b})
	if err != ErrIncompatibleUPM {
		t.Fatalf("expected ErrIncompatibleUPM, got %v", err)
	}
}

func TestMergeTwoFontsUnifiesGlyphOrder(t *testing.T) {
	a := loadFont(t, "Roboto-Regular.ttf")
	b := loadFont(t, "Roboto-Regular.ttf")

	fontA, _ := ot.ParseFont(a, 0)

	result, err := Merge([][]byte{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	merged, err := ot.ParseFont(result.Data, 0)
	if err != nil {
		t.Fatalf("failed to parse merged font: %v", err)
	}

	// Merging a font with itself keeps every glyph from both copies (the
	// merger never deduplicates identical glyph data), so the glyph
	// count should double.
	if want := fontA.NumGlyphs() * 2; merged.NumGlyphs() != want {
		t.Errorf("merged numGlyphs = %d, want %d", merged.NumGlyphs(), want)
	}

	if len(result.Warnings) == 0 {
		t.Error("expected a warning about recovered cmap collisions when merging identical fonts")
	}
}

func TestMergeCFFPassthrough(t *testing.T) {
	data := loadFont(t, "Roboto-CFF.otf")

	result, err := Merge([][]byte{data, data})
	require.NoError(t, err)
	require.Len(t, result.Data, len(data), "CFF passthrough should return the first font unchanged")
	require.NotEmpty(t, result.Warnings, "expected a warning about CFF passthrough")
}

func TestUnifyGlyphOrderSuffixesCollisions(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")
	font, err := ot.ParseFont(data, 0)
	require.NoError(t, err)

	in := &inputFont{font: font}
	order := unifyGlyphOrder([]*inputFont{in, in})

	n := font.NumGlyphs()
	want := make([]string, n)
	for i, name := range order.names[:n] {
		// The second copy's names are the first copy's names with a
		// ".1" collision suffix appended.
		want[i] = name + ".1"
	}
	if diff := cmp.Diff(want, order.names[n:2*n]); diff != "" {
		t.Errorf("second copy's glyph names should be the first copy's names with a .1 suffix (-want +second):\n%s", diff)
	}
	require.Len(t, order.remaps, 2)
}
