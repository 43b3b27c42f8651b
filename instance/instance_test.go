package instance

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glyphkit/corefont/internal/testutil"
	"github.com/glyphkit/corefont/ot"
)

func findTestFont(name string) string {
	return testutil.FindTestFont(name)
}

func loadVariableFont(t *testing.T) []byte {
	t.Helper()
	fontPath := findTestFont("Roboto-Variable.ttf")
	if fontPath == "" {
		t.Skip("Roboto-Variable.ttf not found")
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		t.Fatalf("Failed to read font: %v", err)
	}
	return data
}

func TestInstantiateDropsVariationTables(t *testing.T) {
	data := loadVariableFont(t)

	out, err := Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 700})
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	font, err := ot.ParseFont(out, 0)
	if err != nil {
		t.Fatalf("Failed to parse instanced font: %v", err)
	}

	for _, tag := range []ot.Tag{ot.TagFvar, ot.TagGvar, ot.TagAvar, ot.TagHvar, ot.TagMvar} {
		if font.HasTable(tag) {
			t.Errorf("instanced font should not have table %v", tag)
		}
	}

	if !font.HasTable(ot.TagGlyf) {
		t.Error("instanced font should still have glyf")
	}
	if !font.HasTable(ot.TagSTAT) {
		t.Error("instanced font should carry a rebuilt STAT table")
	}
}

func TestInstantiateRejectsStaticFont(t *testing.T) {
	fontPath := findTestFont("Roboto-Regular.ttf")
	if fontPath == "" {
		t.Skip("Roboto-Regular.ttf not found")
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		t.Fatalf("Failed to read font: %v", err)
	}

	_, err = Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 700})
	if err != ErrNotVariable {
		t.Errorf("expected ErrNotVariable, got %v", err)
	}
}

func TestInstantiatePreservesGlyphCount(t *testing.T) {
	data := loadVariableFont(t)

	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("Failed to parse font: %v", err)
	}

	out, err := Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 400})
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	subFont, err := ot.ParseFont(out, 0)
	if err != nil {
		t.Fatalf("Failed to parse instanced font: %v", err)
	}

	if subFont.NumGlyphs() != font.NumGlyphs() {
		t.Errorf("instancing should not change glyph count: got %d, want %d",
			subFont.NumGlyphs(), font.NumGlyphs())
	}
}

func TestInstantiateAtDifferentWeightsChangesAdvances(t *testing.T) {
	data := loadVariableFont(t)

	light, err := Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 100})
	if err != nil {
		t.Fatalf("Instantiate(100) failed: %v", err)
	}
	bold, err := Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 900})
	if err != nil {
		t.Fatalf("Instantiate(900) failed: %v", err)
	}

	lightFont, err := ot.ParseFont(light, 0)
	if err != nil {
		t.Fatalf("Failed to parse light instance: %v", err)
	}
	boldFont, err := ot.ParseFont(bold, 0)
	if err != nil {
		t.Fatalf("Failed to parse bold instance: %v", err)
	}

	lightHmtx, err := ot.ParseHmtxFromFont(lightFont)
	if err != nil {
		t.Fatalf("Failed to parse light hmtx: %v", err)
	}
	boldHmtx, err := ot.ParseHmtxFromFont(boldFont)
	if err != nil {
		t.Fatalf("Failed to parse bold hmtx: %v", err)
	}

	cmapData, err := lightFont.TableData(ot.TagCmap)
	if err != nil {
		t.Fatalf("Failed to read cmap: %v", err)
	}
	cmap, err := ot.ParseCmap(cmapData)
	if err != nil {
		t.Fatalf("Failed to parse cmap: %v", err)
	}
	gid, ok := cmap.Lookup('H')
	if !ok {
		t.Skip("font has no 'H' glyph")
	}

	lightAdvance := lightHmtx.GetAdvanceWidth(gid)
	boldAdvance := boldHmtx.GetAdvanceWidth(gid)
	if lightAdvance == boldAdvance {
		t.Errorf("expected advance for 'H' to differ between weight 100 and 900, both were %d", lightAdvance)
	}
}

func TestInstantiateAtDefaultMatchesOriginalAdvances(t *testing.T) {
	data := loadVariableFont(t)

	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("Failed to parse font: %v", err)
	}
	fvarData, err := font.TableData(ot.TagFvar)
	if err != nil {
		t.Fatalf("Failed to read fvar: %v", err)
	}
	fvar, err := ot.ParseFvar(fvarData)
	if err != nil {
		t.Fatalf("Failed to parse fvar: %v", err)
	}
	defaults := make(map[ot.Tag]float32)
	for _, ax := range fvar.AxisInfos() {
		defaults[ax.Tag] = ax.DefaultValue
	}

	out, err := Instantiate(data, defaults)
	if err != nil {
		t.Fatalf("Instantiate at default failed: %v", err)
	}
	subFont, err := ot.ParseFont(out, 0)
	if err != nil {
		t.Fatalf("Failed to parse instanced font: %v", err)
	}

	origHmtx, err := ot.ParseHmtxFromFont(font)
	if err != nil {
		t.Fatalf("Failed to parse original hmtx: %v", err)
	}
	subHmtx, err := ot.ParseHmtxFromFont(subFont)
	if err != nil {
		t.Fatalf("Failed to parse instanced hmtx: %v", err)
	}

	n := font.NumGlyphs()
	if n > 64 {
		n = 64 // enough glyphs to catch a systematic offset without an expensive full scan
	}
	wantAdvances := make([]uint16, n)
	gotAdvances := make([]uint16, n)
	for gid := 0; gid < n; gid++ {
		wantAdvances[gid] = origHmtx.GetAdvanceWidth(ot.GlyphID(gid))
		gotAdvances[gid] = subHmtx.GetAdvanceWidth(ot.GlyphID(gid))
	}

	if diff := cmp.Diff(wantAdvances, gotAdvances); diff != "" {
		t.Errorf("instancing at every axis' default should reproduce the original advance widths (-want +got):\n%s", diff)
	}
}

func TestBucketWidthClass(t *testing.T) {
	cases := []struct {
		percent float32
		want    uint16
	}{
		{50, 1},
		{62.5, 2},
		{75, 3},
		{100, 5},
		{200, 9},
	}
	for _, c := range cases {
		if got := bucketWidthClass(c.percent); got != c.want {
			t.Errorf("bucketWidthClass(%v) = %d, want %d", c.percent, got, c.want)
		}
	}
}
