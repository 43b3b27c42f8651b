package instance

import (
	"encoding/binary"
	"math"

	"github.com/glyphkit/corefont/ot"
)

// glyphInfo carries one glyph's instanced outline and metrics through the
// pipeline that turns parsed gvar/HVAR deltas into final glyf/hmtx/head
// bytes.
type glyphInfo struct {
	composite  bool
	empty      bool
	data       []byte
	components []ot.CompositeComponent
	advance    uint16
	lsb        int16
	xMin       int16
	yMin       int16
	xMax       int16
	yMax       int16
}

// instanceGlyphs applies gvar deltas (falling back to HVAR for the
// advance when a glyph carries no gvar variation data of its own) to
// every glyph in the font, producing new outline bytes for simple
// glyphs and new offset-anchor positions for composites. Composite
// bounding boxes are left at their pre-instancing placeholder values;
// resolveCompositeBBoxes fills them in once every glyph's own outline
// has settled.
func instanceGlyphs(glyf *ot.Glyf, gvar *ot.Gvar, hmtx *ot.Hmtx, hvar *ot.Hvar, numGlyphs int, coords []int) []*glyphInfo {
	glyphs := make([]*glyphInfo, numGlyphs)

	for gid := 0; gid < numGlyphs; gid++ {
		advance, lsb := hmtx.GetMetrics(ot.GlyphID(gid))
		info := &glyphInfo{advance: advance, lsb: lsb}
		glyphs[gid] = info

		glyph := glyf.GetGlyph(ot.GlyphID(gid))
		if glyph == nil || len(glyph.Data) == 0 {
			info.empty = true
			deltas := gvar.GetGlyphDeltasWithContours(ot.GlyphID(gid), coords, 4, make([]ot.GlyphPoint, 4), nil)
			applyAdvanceDelta(info, deltas, hvar, ot.GlyphID(gid), coords)
			continue
		}

		if glyph.NumberOfContours >= 0 {
			instanceSimpleGlyphInfo(info, glyph.Data, gvar, hvar, ot.GlyphID(gid), coords)
		} else {
			instanceCompositeGlyphInfo(info, glyph.Data, gvar, hvar, ot.GlyphID(gid), coords)
		}
	}

	return glyphs
}

func instanceSimpleGlyphInfo(info *glyphInfo, data []byte, gvar *ot.Gvar, hvar *ot.Hvar, gid ot.GlyphID, coords []int) {
	points, endPts, err := ot.ParseSimpleGlyph(data)
	if err != nil {
		info.empty = true
		return
	}

	numPoints := len(points) + 4
	origCoords := make([]ot.GlyphPoint, numPoints)
	for i, p := range points {
		origCoords[i] = ot.GlyphPoint{X: p.X, Y: p.Y}
	}

	deltas := gvar.GetGlyphDeltasWithContours(gid, coords, numPoints, origCoords, endPts)
	if deltas == nil {
		info.data = data
		info.xMin, info.yMin, info.xMax, info.yMax = readBBox(data)
		applyAdvanceDelta(info, nil, hvar, gid, coords)
		return
	}

	newData := ot.InstanceSimpleGlyph(data, deltas.XDeltas[:len(points)], deltas.YDeltas[:len(points)])
	info.data = newData
	info.xMin, info.yMin, info.xMax, info.yMax = readBBox(newData)
	info.lsb = info.xMin
	applyAdvanceDelta(info, deltas, hvar, gid, coords)
}

func instanceCompositeGlyphInfo(info *glyphInfo, data []byte, gvar *ot.Gvar, hvar *ot.Hvar, gid ot.GlyphID, coords []int) {
	info.composite = true
	components := ot.ParseComposite(data)

	numPoints := len(components) + 4
	origCoords := make([]ot.GlyphPoint, numPoints)
	for i, c := range components {
		origCoords[i] = ot.GlyphPoint{X: c.Arg1, Y: c.Arg2}
	}

	deltas := gvar.GetGlyphDeltasWithContours(gid, coords, numPoints, origCoords, nil)
	if deltas == nil {
		info.data = data
		info.components = components
		info.xMin, info.yMin, info.xMax, info.yMax = readBBox(data)
		applyAdvanceDelta(info, nil, hvar, gid, coords)
		return
	}

	newData := ot.InstanceComposite(data, deltas.XDeltas[:len(components)], deltas.YDeltas[:len(components)])
	info.data = newData
	info.components = ot.ParseComposite(newData)
	// xMin/yMin/xMax/yMax resolved later by resolveCompositeBBoxes, which
	// needs every glyph's own outline settled first.
	applyAdvanceDelta(info, deltas, hvar, gid, coords)
}

// applyAdvanceDelta sets info.advance from the gvar advance-width phantom
// point delta (deltas.XDeltas[numOutlinePoints+1]) when present, or falls
// back to the HVAR advance-width delta when the glyph carries no gvar
// variation data of its own.
func applyAdvanceDelta(info *glyphInfo, deltas *ot.GlyphDeltas, hvar *ot.Hvar, gid ot.GlyphID, coords []int) {
	if deltas != nil && len(deltas.XDeltas) >= 4 {
		phantomAdvance := deltas.XDeltas[len(deltas.XDeltas)-3]
		info.advance = uint16(int32(info.advance) + int32(phantomAdvance))
		return
	}
	if hvar != nil && hvar.HasData() {
		d := hvar.GetAdvanceDelta(gid, coords)
		info.advance = uint16(int32(info.advance) + int32(roundFloat32(d)))
	}
}

// resolveCompositeBBoxes computes each composite glyph's bounding box by
// transforming and unioning its components' (already-resolved) boxes,
// iterating to a fixed point since a composite may reference another
// composite that hasn't settled yet.
func resolveCompositeBBoxes(glyphs []*glyphInfo) {
	const maxPasses = 8
	for pass := 0; pass < maxPasses; pass++ {
		for _, info := range glyphs {
			if !info.composite || info.empty {
				continue
			}

			var xMin, yMin, xMax, yMax int16
			first := true
			for _, c := range info.components {
				if int(c.GlyphID) >= len(glyphs) {
					continue
				}
				child := glyphs[c.GlyphID]
				if child.empty {
					continue
				}

				corners := [4][2]float32{
					{float32(child.xMin), float32(child.yMin)},
					{float32(child.xMax), float32(child.yMin)},
					{float32(child.xMax), float32(child.yMax)},
					{float32(child.xMin), float32(child.yMax)},
				}
				for _, corner := range corners {
					x, y := corner[0], corner[1]
					newX := c.ScaleX*x + c.Scale10*y
					newY := c.Scale01*x + c.ScaleY*y
					if c.ArgsAreXYValues() {
						newX += float32(c.Arg1)
						newY += float32(c.Arg2)
					}
					xi, yi := int16(roundFloat32(newX)), int16(roundFloat32(newY))
					if first {
						xMin, yMin, xMax, yMax = xi, yi, xi, yi
						first = false
						continue
					}
					if xi < xMin {
						xMin = xi
					}
					if yi < yMin {
						yMin = yi
					}
					if xi > xMax {
						xMax = xi
					}
					if yi > yMax {
						yMax = yi
					}
				}
			}
			if !first {
				info.xMin, info.yMin, info.xMax, info.yMax = xMin, yMin, xMax, yMax
			}
		}
	}

	for _, info := range glyphs {
		if info.composite && !info.empty {
			info.lsb = info.xMin
			patchBBox(info.data, info.xMin, info.yMin, info.xMax, info.yMax)
		}
	}
}

// unionBBoxes computes the whole font's bounding box, for head.xMin/
// yMin/xMax/yMax.
func unionBBoxes(glyphs []*glyphInfo) (xMin, yMin, xMax, yMax int16) {
	first := true
	for _, g := range glyphs {
		if g.empty {
			continue
		}
		if first {
			xMin, yMin, xMax, yMax = g.xMin, g.yMin, g.xMax, g.yMax
			first = false
			continue
		}
		if g.xMin < xMin {
			xMin = g.xMin
		}
		if g.yMin < yMin {
			yMin = g.yMin
		}
		if g.xMax > xMax {
			xMax = g.xMax
		}
		if g.yMax > yMax {
			yMax = g.yMax
		}
	}
	return
}

// assembleGlyf concatenates every glyph's final bytes into one glyf blob,
// 2-byte-padding each entry so loca offsets stay valid, and returns the
// loca offset array (numGlyphs+1 entries).
func assembleGlyf(glyphs []*glyphInfo) ([]byte, []uint32) {
	var out []byte
	offsets := make([]uint32, len(glyphs)+1)

	for i, g := range glyphs {
		offsets[i] = uint32(len(out))
		if g.empty {
			continue
		}
		out = append(out, g.data...)
		for len(out)%2 != 0 {
			out = append(out, 0)
		}
	}
	offsets[len(glyphs)] = uint32(len(out))

	return out, offsets
}

func readBBox(data []byte) (xMin, yMin, xMax, yMax int16) {
	if len(data) < 10 {
		return 0, 0, 0, 0
	}
	xMin = int16(binary.BigEndian.Uint16(data[2:]))
	yMin = int16(binary.BigEndian.Uint16(data[4:]))
	xMax = int16(binary.BigEndian.Uint16(data[6:]))
	yMax = int16(binary.BigEndian.Uint16(data[8:]))
	return
}

func patchBBox(data []byte, xMin, yMin, xMax, yMax int16) {
	if len(data) < 10 {
		return
	}
	binary.BigEndian.PutUint16(data[2:], uint16(xMin))
	binary.BigEndian.PutUint16(data[4:], uint16(yMin))
	binary.BigEndian.PutUint16(data[6:], uint16(xMax))
	binary.BigEndian.PutUint16(data[8:], uint16(yMax))
}

func roundFloat32(f float32) int32 {
	return int32(math.Round(float64(f)))
}
