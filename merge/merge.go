// Package merge combines several independent fonts into one, unifying
// their glyph orders, cmaps, outlines and layout tables the way
// spec.md's §4.4 merger describes: every input font keeps its own
// glyphs (renamed on collision rather than deduplicated), cmap claims
// are settled first-font-wins with later claims recovered through a
// synthesized 'locl' feature, and metrics tables fold together by
// whichever rule (max, min, OR, first-font) keeps the merged font
// usable by every input's own text.
package merge

import (
	"errors"
	"fmt"

	"github.com/glyphkit/corefont/ot"
	"github.com/glyphkit/corefont/ot/builder"
)

var (
	// ErrNoFonts is returned when Merge is called with no input fonts.
	ErrNoFonts = errors.New("merge: no input fonts")
	// ErrIncompatibleUPM is returned when the input fonts don't share a
	// unitsPerEm value; the merger has no unit-scaling pass, so every
	// glyph's coordinates would be wrong in at least one of the inputs.
	ErrIncompatibleUPM = errors.New("merge: input fonts have different units per em")
)

// inputFont is one parsed input, carrying the pieces every merge pass
// needs repeatedly: the full parsed font and its decoded head table.
type inputFont struct {
	font *ot.Font
	head *ot.Head
}

// Result is the outcome of a successful merge.
type Result struct {
	// Data is the serialized merged font.
	Data []byte
	// Warnings records non-fatal simplifications the merge made, such as
	// CFF passthrough, hinting instructions stripped from later fonts, or
	// cmap collisions recovered through 'locl', without failing the merge
	// outright.
	Warnings []string
}

// Merge combines fontBytes, in order, into a single font. The first
// font's name table, CFF outlines (if any), and overall conventions
// (direction hint, creation date, hinting programs) anchor the merged
// font; later fonts contribute glyphs, cmap entries, and layout rules
// the first font doesn't already provide.
//
// Merging CFF/CFF2 outlines across independent charstring indexes is
// unsupported (spec.md's own merger non-goal): when the first font
// carries CFF outlines, Merge degrades to passing that font through
// unchanged, with every other input dropped and recorded as a warning.
func Merge(fontBytes [][]byte) (*Result, error) {
	if len(fontBytes) == 0 {
		return nil, ErrNoFonts
	}

	inputs := make([]*inputFont, len(fontBytes))
	for i, b := range fontBytes {
		font, err := ot.ParseFont(b, 0)
		if err != nil {
			return nil, fmt.Errorf("merge: parsing font %d: %w", i, err)
		}
		headData, err := font.TableData(ot.TagHead)
		if err != nil {
			return nil, fmt.Errorf("merge: font %d has no head table: %w", i, err)
		}
		head, err := ot.ParseHead(headData)
		if err != nil {
			return nil, fmt.Errorf("merge: font %d: %w", i, err)
		}
		inputs[i] = &inputFont{font: font, head: head}
	}

	for _, in := range inputs[1:] {
		if in.head.UnitsPerEm != inputs[0].head.UnitsPerEm {
			return nil, ErrIncompatibleUPM
		}
	}

	if inputs[0].font.HasTable(ot.TagCFF) || inputs[0].font.HasTable(ot.TagCFF2) {
		return mergeCFFPassthrough(inputs[0], fontBytes[0])
	}

	return mergeTrueType(inputs)
}

// mergeCFFPassthrough returns the first font's own bytes unchanged, since
// splicing CFF charstring data across independently-indexed fonts isn't
// attempted here. The CFF table is still parsed structurally
// (ot.ParseCFF) so a malformed CFF table is reported rather than
// silently passed through.
func mergeCFFPassthrough(first *inputFont, raw []byte) (*Result, error) {
	if data, err := first.font.TableData(ot.TagCFF); err == nil {
		if _, err := ot.ParseCFF(data); err != nil {
			return nil, fmt.Errorf("merge: first font's CFF table is malformed: %w", err)
		}
	}
	warnings := []string{"first input carries CFF outlines; merge degraded to passthrough of that font alone"}
	return &Result{Data: raw, Warnings: warnings}, nil
}

func mergeTrueType(inputs []*inputFont) (*Result, error) {
	order := unifyGlyphOrder(inputs)
	numGlyphs := len(order.names)

	glyfData, offsets, bbox, err := mergeGlyf(inputs, order)
	if err != nil {
		return nil, fmt.Errorf("merge: merging glyf: %w", err)
	}

	useShortLoca := fitsShortLoca(offsets)
	locaData := ot.BuildLoca(offsets, useShortLoca)
	indexToLocFormat := int16(0)
	if !useShortLoca {
		indexToLocFormat = 1
	}

	mappings, collisions := synthesizeCmap(inputs, order)
	cmapData := ot.BuildCmapFormat12Table(mappings, ot.StandardCmapPlatforms)

	head := mergeHead(inputs, bbox, indexToLocFormat)

	hhea, err := mergeHhea(inputs)
	if err != nil {
		return nil, fmt.Errorf("merge: merging hhea: %w", err)
	}

	maxp, err := mergeMaxp(inputs, numGlyphs)
	if err != nil {
		return nil, fmt.Errorf("merge: merging maxp: %w", err)
	}

	hmtxData, numberOfHMetrics, err := mergeHmtx(inputs, order)
	if err != nil {
		return nil, fmt.Errorf("merge: merging hmtx: %w", err)
	}
	hhea.NumberOfHMetrics = numberOfHMetrics

	os2, os2Raw, err := mergeOS2(inputs)
	if err != nil {
		return nil, fmt.Errorf("merge: merging OS/2: %w", err)
	}
	os2Data := os2.PatchInto(os2Raw)

	postData := mergePost(inputs, order)

	gsubData := mergeGSUB(inputs, order, collisions)
	gposData := mergeGPOS(inputs, order)

	nameData, err := inputs[0].font.TableData(ot.TagName)
	if err != nil {
		return nil, fmt.Errorf("merge: first font has no name table: %w", err)
	}

	var warnings []string
	if len(collisions) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d codepoint(s) reclaimed by a later font were recovered through a synthesized 'locl' feature", len(collisions)))
	}
	for i, in := range inputs[1:] {
		if in.font.HasTable(ot.TagFpgm) || in.font.HasTable(ot.TagPrep) || in.font.HasTable(ot.TagCvt) {
			warnings = append(warnings, fmt.Sprintf("font %d: hinting instructions stripped; only the first font's fpgm/prep/cvt are kept", i+1))
		}
	}

	b := builder.New(builder.VersionTrueType)
	b.AddTable(ot.TagHead, head.Bytes())
	b.AddTable(ot.TagHhea, hhea.Bytes())
	b.AddTable(ot.TagMaxp, maxp.Bytes())
	b.AddTable(ot.TagHmtx, hmtxData)
	b.AddTable(ot.TagCmap, cmapData)
	b.AddTable(ot.TagGlyf, glyfData)
	b.AddTable(ot.TagLoca, locaData)
	b.AddTable(ot.TagName, nameData)
	b.AddTable(ot.TagPost, postData)
	b.AddTable(ot.TagOS2, os2Data)
	if len(gsubData) > 0 {
		b.AddTable(ot.TagGSUB, gsubData)
	}
	if len(gposData) > 0 {
		b.AddTable(ot.TagGPOS, gposData)
	}
	for _, tag := range []ot.Tag{ot.TagFpgm, ot.TagPrep, ot.TagCvt} {
		if data, err := inputs[0].font.TableData(tag); err == nil {
			b.AddTable(tag, data)
		}
	}

	data, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("merge: building output font: %w", err)
	}

	return &Result{Data: data, Warnings: warnings}, nil
}

// fitsShortLoca reports whether every offset fits the short loca format's
// halved, 16-bit representation (every offset is even and the largest
// one fits in 17 bits before halving).
func fitsShortLoca(offsets []uint32) bool {
	last := offsets[len(offsets)-1]
	return last <= 0x1FFFE
}
