package merge

import "github.com/glyphkit/corefont/ot"

// mergeHead combines every input's head table into one: unitsPerEm is
// already checked equal by the caller, fontRevision takes the highest
// value seen, the bounding box is the union bbox computed while merging
// glyf, flags/macStyle fold non-conflicting bits in from every font, and
// everything else (magic number, direction hint, creation date) comes
// from the first font.
func mergeHead(inputs []*inputFont, bbox glyphBBox, indexToLocFormat int16) *ot.Head {
	first := *inputs[0].head
	h := first
	h.XMin, h.YMin, h.XMax, h.YMax = bbox.xMin, bbox.yMin, bbox.xMax, bbox.yMax
	h.IndexToLocFormat = indexToLocFormat

	for _, in := range inputs[1:] {
		if in.head.FontRevision > h.FontRevision {
			h.FontRevision = in.head.FontRevision
		}
		h.Flags |= in.head.Flags
		// Bold/italic bits (0,1) come from the first font only; the rest
		// (bit 2 underline and up: outline, shadow, condensed, extended)
		// are OR'd in from every font.
		h.MacStyle = (first.MacStyle & 0x0003) | ((h.MacStyle | in.head.MacStyle) &^ 0x0003)
	}
	return &h
}

// mergeHhea folds horizontal header metrics across inputs: ascender and
// lineGap take the largest value seen so no font's glyphs clip, descender
// takes the smallest (most negative), and numberOfHMetrics is set by the
// caller once the merged hmtx table is known.
func mergeHhea(inputs []*inputFont) (*ot.Hhea, error) {
	var h ot.Hhea
	for i, in := range inputs {
		data, err := in.font.TableData(ot.TagHhea)
		if err != nil {
			return nil, err
		}
		hh, err := ot.ParseHhea(data)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			h = *hh
			continue
		}
		if hh.Ascender > h.Ascender {
			h.Ascender = hh.Ascender
		}
		if hh.Descender < h.Descender {
			h.Descender = hh.Descender
		}
		if hh.LineGap > h.LineGap {
			h.LineGap = hh.LineGap
		}
		if hh.AdvanceWidthMax > h.AdvanceWidthMax {
			h.AdvanceWidthMax = hh.AdvanceWidthMax
		}
		if hh.MinLeftSideBearing < h.MinLeftSideBearing {
			h.MinLeftSideBearing = hh.MinLeftSideBearing
		}
		if hh.MinRightSideBearing < h.MinRightSideBearing {
			h.MinRightSideBearing = hh.MinRightSideBearing
		}
		if hh.XMaxExtent > h.XMaxExtent {
			h.XMaxExtent = hh.XMaxExtent
		}
	}
	return &h, nil
}

// mergeMaxp rebuilds the profile table for the unified glyph order: the
// glyph count is the size of the unified order, the point, contour and
// component maxima take the largest value any input font reported, and the
// remaining maxima (zones, twilight points, storage, function and
// instruction definitions, stack elements, instruction size) come from the
// first font.
func mergeMaxp(inputs []*inputFont, numGlyphs int) (*ot.Maxp, error) {
	var m ot.Maxp
	for i, in := range inputs {
		mp, err := ot.ParseMaxpFromFont(in.font)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			m = *mp
			continue
		}
		if mp.MaxPoints > m.MaxPoints {
			m.MaxPoints = mp.MaxPoints
		}
		if mp.MaxContours > m.MaxContours {
			m.MaxContours = mp.MaxContours
		}
		if mp.MaxCompositePoints > m.MaxCompositePoints {
			m.MaxCompositePoints = mp.MaxCompositePoints
		}
		if mp.MaxCompositeContours > m.MaxCompositeContours {
			m.MaxCompositeContours = mp.MaxCompositeContours
		}
		if mp.MaxComponentElements > m.MaxComponentElements {
			m.MaxComponentElements = mp.MaxComponentElements
		}
		if mp.MaxComponentDepth > m.MaxComponentDepth {
			m.MaxComponentDepth = mp.MaxComponentDepth
		}
	}
	m.Version = 0x00010000
	m.NumGlyphs = uint16(numGlyphs)
	return &m, nil
}

// mergeHmtx builds one advance/lsb pair per mega glyph by reading every
// input font's own hmtx through its unified-name remap; glyphs beyond a
// font's numberOfHMetrics inherit that font's last advance, per hmtx's
// own compaction rule, before being copied into the merged table (which
// stores one full record per glyph rather than re-compacting).
func mergeHmtx(inputs []*inputFont, order *glyphOrder) ([]byte, uint16, error) {
	numGlyphs := len(order.names)
	advances := make([]uint16, numGlyphs)
	lsbs := make([]int16, numGlyphs)

	for fi, in := range inputs {
		hheaData, err := in.font.TableData(ot.TagHhea)
		if err != nil {
			return nil, 0, err
		}
		hhea, err := ot.ParseHhea(hheaData)
		if err != nil {
			return nil, 0, err
		}
		hmtxData, err := in.font.TableData(ot.TagHmtx)
		if err != nil {
			return nil, 0, err
		}
		nGlyphs := in.font.NumGlyphs()
		hmtx, err := ot.ParseHmtx(hmtxData, int(hhea.NumberOfHMetrics), nGlyphs)
		if err != nil {
			return nil, 0, err
		}

		remap := order.remaps[fi]
		for gid := 0; gid < nGlyphs; gid++ {
			mega := remap[ot.GlyphID(gid)]
			adv, lsb := hmtx.GetMetrics(ot.GlyphID(gid))
			advances[mega] = adv
			lsbs[mega] = lsb
		}
	}

	numberOfHMetrics := uint16(numGlyphs)
	return ot.BuildHmtx(advances, lsbs, numGlyphs), numberOfHMetrics, nil
}

// mergeOS2 combines the OS/2 metrics table: numeric style fields (weight
// class, width class, panose, vendor ID, and the version-gated x-height/
// cap-height/default-char fields) come from the first font, unicode- and
// codepage-range bitfields are OR'd across every input so the merged font
// claims coverage for every script any input declared, fsSelection takes
// the first font's style bits but OR's in the optional USE_TYPO_METRICS/
// WWS/OBLIQUE bits from the rest, typo/win vertical metrics take the
// extremum that keeps every input's glyphs from clipping, and the
// character index span widens to cover every input's own span.
func mergeOS2(inputs []*inputFont) (*ot.OS2, []byte, error) {
	firstData, err := inputs[0].font.TableData(ot.TagOS2)
	if err != nil {
		return nil, nil, err
	}
	first, err := ot.ParseOS2(firstData)
	if err != nil {
		return nil, nil, err
	}
	o := *first

	const optionalFsSelectionBits = 0x0080 | 0x0100 | 0x0200 // USE_TYPO_METRICS, WWS, OBLIQUE

	for _, in := range inputs[1:] {
		data, err := in.font.TableData(ot.TagOS2)
		if err != nil {
			continue
		}
		other, err := ot.ParseOS2(data)
		if err != nil {
			continue
		}

		o.UlUnicodeRange1 |= other.UlUnicodeRange1
		o.UlUnicodeRange2 |= other.UlUnicodeRange2
		o.UlUnicodeRange3 |= other.UlUnicodeRange3
		o.UlUnicodeRange4 |= other.UlUnicodeRange4
		o.UlCodePageRange1 |= other.UlCodePageRange1
		o.UlCodePageRange2 |= other.UlCodePageRange2
		o.FsSelection |= other.FsSelection & optionalFsSelectionBits

		if other.STypoAscender > o.STypoAscender {
			o.STypoAscender = other.STypoAscender
		}
		if other.STypoDescender < o.STypoDescender {
			o.STypoDescender = other.STypoDescender
		}
		if other.STypoLineGap > o.STypoLineGap {
			o.STypoLineGap = other.STypoLineGap
		}
		if other.UsWinAscent > o.UsWinAscent {
			o.UsWinAscent = other.UsWinAscent
		}
		if other.UsWinDescent > o.UsWinDescent {
			o.UsWinDescent = other.UsWinDescent
		}
		if other.UsFirstCharIndex < o.UsFirstCharIndex {
			o.UsFirstCharIndex = other.UsFirstCharIndex
		}
		if other.UsLastCharIndex > o.UsLastCharIndex {
			o.UsLastCharIndex = other.UsLastCharIndex
		}
	}

	return &o, firstData, nil
}

// mergePost builds a version 2.0 post table carrying every mega glyph's
// unified name, so tools reading the merged font's glyph names still see
// the collision-resolved identities the merge assigned; italic angle and
// underline metrics are carried forward from the first font's post table.
func mergePost(inputs []*inputFont, order *glyphOrder) []byte {
	var italicAngle int32
	var underlinePosition, underlineThickness int16
	var isFixedPitch uint32
	if data, err := inputs[0].font.TableData(ot.TagPost); err == nil {
		if p, err := ot.ParsePost(data); err == nil {
			italicAngle = p.ItalicAngle
			underlinePosition = p.UnderlinePosition
			underlineThickness = p.UnderlineThickness
			isFixedPitch = p.IsFixedPitch
		}
	}
	return ot.BuildPostV2(italicAngle, underlinePosition, underlineThickness, isFixedPitch, order.names)
}
