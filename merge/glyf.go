package merge

import (
	"encoding/binary"

	"github.com/glyphkit/corefont/ot"
)

// glyphBBox is the union of every non-empty merged glyph's own bounding
// box, used to rebuild head's xMin/yMin/xMax/yMax after merging rather
// than trusting any one input font's values.
type glyphBBox struct {
	xMin, yMin, xMax, yMax int16
	seen                   bool
}

func (b *glyphBBox) include(xMin, yMin, xMax, yMax int16) {
	if !b.seen {
		b.xMin, b.yMin, b.xMax, b.yMax = xMin, yMin, xMax, yMax
		b.seen = true
		return
	}
	if xMin < b.xMin {
		b.xMin = xMin
	}
	if yMin < b.yMin {
		b.yMin = yMin
	}
	if xMax > b.xMax {
		b.xMax = xMax
	}
	if yMax > b.yMax {
		b.yMax = yMax
	}
}

// mergeGlyf assembles the merged glyf/loca pair: one slot per mega glyph,
// first-claim-wins when more than one input font supplies a glyph under
// the same unified name (which cannot happen here since unifyGlyphOrder
// never reuses a mega GID across fonts, but every font still contributes
// its own glyphs at its own mega GIDs). Component glyph IDs are remapped
// through the owning font's remap table; every font but the first has its
// hinting instructions stripped, since only the first font's fpgm/prep/cvt
// programs are carried into the output. Returns the union bounding box of
// every non-empty glyph alongside the table bytes, for head reconstruction.
func mergeGlyf(inputs []*inputFont, order *glyphOrder) (glyfData []byte, offsets []uint32, bbox glyphBBox, err error) {
	offsets = make([]uint32, len(order.names)+1)
	var buf []byte

	for fi, in := range inputs {
		glyf, gerr := ot.ParseGlyfFromFont(in.font)
		if gerr != nil {
			// Fonts without outline data (e.g. a CFF font slipping through)
			// contribute empty glyphs at every one of their mega GIDs.
			continue
		}
		remap := order.remaps[fi]
		numGlyphs := in.font.NumGlyphs()

		for gid := 0; gid < numGlyphs; gid++ {
			mega := remap[ot.GlyphID(gid)]
			raw := glyf.GetGlyphBytes(ot.GlyphID(gid))
			if len(raw) == 0 {
				offsets[mega] = uint32(len(buf))
				continue
			}

			data := raw
			if fi > 0 {
				data = ot.StripInstructions(data)
			}
			data = ot.RemapComposite(data, remap)
			if len(data) >= 10 {
				bbox.include(
					int16(binary.BigEndian.Uint16(data[2:])), int16(binary.BigEndian.Uint16(data[4:])),
					int16(binary.BigEndian.Uint16(data[6:])), int16(binary.BigEndian.Uint16(data[8:])),
				)
			}

			offsets[mega] = uint32(len(buf))
			buf = append(buf, data...)
			if len(data)%2 != 0 {
				buf = append(buf, 0)
			}
		}
	}

	offsets[len(order.names)] = uint32(len(buf))
	zapEmptyComposites(buf, offsets)
	return buf, offsets, bbox, nil
}

// zapEmptyComposites rewrites any composite glyph whose component glyph ID
// resolves to an empty outline (offsets[g] == offsets[g+1]) to reference
// glyph 0 instead, matching the boundary scenario where a merged font's
// composite referenced a glyph that glyf compaction left empty.
func zapEmptyComposites(buf []byte, offsets []uint32) {
	isEmpty := func(gid ot.GlyphID) bool {
		g := int(gid)
		if g+1 >= len(offsets) {
			return true
		}
		return offsets[g] == offsets[g+1]
	}

	zeroMap := map[ot.GlyphID]ot.GlyphID{}
	for g := 0; g+1 < len(offsets); g++ {
		start, end := offsets[g], offsets[g+1]
		if start == end {
			continue
		}
		data := buf[start:end]
		if len(data) < 10 {
			continue
		}
		components := ot.ParseComposite(data)
		needsZap := false
		for _, c := range components {
			if isEmpty(c.GlyphID) {
				needsZap = true
				zeroMap[c.GlyphID] = 0
			}
		}
		if needsZap {
			remapped := ot.RemapComposite(data, zeroMap)
			copy(buf[start:end], remapped)
		}
	}
}
