package freeze

import (
	"os"
	"testing"

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

func TestFreezeNoFeaturesRequested(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")
	_, err := Freeze(data, nil, nil)
	if err != ErrNoMatchingFeatures {
		t.Fatalf("expected ErrNoMatchingFeatures, got %v", err)
	}
}

func TestFreezeUnknownFeature(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")
	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("failed to parse font: %v", err)
	}
	if !font.HasTable(ot.TagGSUB) {
		t.Skip("font has no GSUB table to exercise feature resolution against")
	}

	_, err = Freeze(data, []string{"zzzz"}, nil)
	if err != ErrNoMatchingFeatures {
		t.Fatalf("expected ErrNoMatchingFeatures for an unknown tag, got %v", err)
	}
}

func TestFreezeMissingGSUB(t *testing.T) {
	data := loadFont(t, "Roboto-CFF.otf")
	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("failed to parse font: %v", err)
	}
	if font.HasTable(ot.TagGSUB) {
		t.Skip("fixture font unexpectedly carries GSUB")
	}

	_, err = Freeze(data, []string{"liga"}, nil)
	if err != ErrNoGSUB {
		t.Fatalf("expected ErrNoGSUB, got %v", err)
	}
}

func TestFreezeLigaRewritesCmap(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")
	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("failed to parse font: %v", err)
	}
	if !font.HasTable(ot.TagGSUB) {
		t.Skip("font has no GSUB table")
	}

	result, err := Freeze(data, []string{"liga"}, nil)
	if err != nil {
		t.Skipf("font's GSUB doesn't carry a single/alternate-substitution 'liga' feature: %v", err)
	}

	frozen, err := ot.ParseFont(result.Data, 0)
	if err != nil {
		t.Fatalf("failed to parse frozen font: %v", err)
	}
	if !frozen.HasTable(ot.TagCmap) {
		t.Error("frozen font missing cmap")
	}
	if !frozen.HasTable(ot.TagGSUB) {
		t.Error("frozen font should still carry the original GSUB lookup")
	}
}

func TestFreezeZapGlyphNames(t *testing.T) {
	data := loadFont(t, "Roboto-Regular.ttf")
	font, err := ot.ParseFont(data, 0)
	if err != nil {
		t.Fatalf("failed to parse font: %v", err)
	}
	if !font.HasTable(ot.TagGSUB) {
		t.Skip("font has no GSUB table")
	}

	result, err := Freeze(data, []string{"liga"}, &Options{ZapGlyphNames: true})
	if err != nil {
		t.Skipf("font's GSUB doesn't carry a usable 'liga' feature: %v", err)
	}

	postData, err := func() ([]byte, error) {
		f, err := ot.ParseFont(result.Data, 0)
		if err != nil {
			return nil, err
		}
		return f.TableData(ot.TagPost)
	}()
	if err != nil {
		t.Fatalf("failed to read post table: %v", err)
	}
	post, err := ot.ParsePost(postData)
	if err != nil {
		t.Fatalf("failed to parse post table: %v", err)
	}
	if post.Version != 0x00030000 {
		t.Errorf("post version = %#x, want 0x00030000", post.Version)
	}
}

func TestDecodeOptionsTOML(t *testing.T) {
	doc := []byte(`
script = "latn"
lang = "ENG "
suffix = "auto"
info = true
zap_glyph_names = true
`)
	opts, err := DecodeOptionsTOML(doc)
	require.NoError(t, err)
	require.Equal(t, "latn", opts.Script)
	require.Equal(t, "ENG ", opts.Lang)
	require.Equal(t, SuffixAuto, opts.Suffix)
	require.True(t, opts.Info)
	require.True(t, opts.ZapGlyphNames)
}

func TestDecodeOptionsTOMLCustomSuffix(t *testing.T) {
	doc := []byte(`suffix = "SmallCaps"`)
	opts, err := DecodeOptionsTOML(doc)
	require.NoError(t, err)
	require.Equal(t, SuffixCustom, opts.Suffix)
	require.Equal(t, "SmallCaps", opts.SuffixText)
}
