package vf

import (
	"encoding/binary"

	"github.com/glyphkit/corefont/fixedpoint"
	"github.com/glyphkit/corefont/ot"
)

// iupTolerance is how far (in font units) an IUP-interpolated delta may
// drift from the true per-master delta before that point's explicit
// delta must be kept.
const iupTolerance = 0.5

// glyphPoints returns a glyph's outline (or composite offset) points plus
// its 4 phantom points, in the order gvar expects: outline points first,
// then left-side-bearing, advance-width, top-side-bearing and
// advance-height phantom points (the latter two are unused for a
// horizontal-only font and are always (0, 0)).
func glyphPoints(glyf *ot.Glyf, hmtx *ot.Hmtx, gid int) (points []ot.GlyphPoint, isComposite bool, endPts []uint16) {
	glyph := glyf.GetGlyph(ot.GlyphID(gid))
	advance, lsb := hmtx.GetMetrics(ot.GlyphID(gid))

	if glyph == nil || len(glyph.Data) == 0 {
		return phantomOnly(advance, lsb), false, nil
	}

	if glyph.NumberOfContours >= 0 {
		pts, ends, err := ot.ParseSimpleGlyph(glyph.Data)
		if err != nil {
			return phantomOnly(advance, lsb), false, nil
		}
		out := make([]ot.GlyphPoint, 0, len(pts)+4)
		for _, p := range pts {
			out = append(out, ot.GlyphPoint{X: p.X, Y: p.Y})
		}
		out = appendPhantoms(out, advance, lsb)
		return out, false, ends
	}

	components := ot.ParseComposite(glyph.Data)
	out := make([]ot.GlyphPoint, 0, len(components)+4)
	for _, c := range components {
		out = append(out, ot.GlyphPoint{X: c.Arg1, Y: c.Arg2})
	}
	out = appendPhantoms(out, advance, lsb)
	return out, true, nil
}

func phantomOnly(advance uint16, lsb int16) []ot.GlyphPoint {
	return appendPhantoms(nil, advance, lsb)
}

func appendPhantoms(points []ot.GlyphPoint, advance uint16, lsb int16) []ot.GlyphPoint {
	return append(points,
		ot.GlyphPoint{X: lsb, Y: 0},
		ot.GlyphPoint{X: lsb + int16(advance), Y: 0},
		ot.GlyphPoint{X: 0, Y: 0},
		ot.GlyphPoint{X: 0, Y: 0},
	)
}

// buildGvar computes every glyph's per-region deltas across all masters
// and serializes the whole gvar table.
func buildGvar(model *variationModel, glyfs []*ot.Glyf, hmtxs []*ot.Hmtx, numGlyphs int) []byte {
	perGlyph := make([][]byte, numGlyphs)
	for gid := 0; gid < numGlyphs; gid++ {
		perGlyph[gid] = buildGlyphVariationData(model, glyfs, hmtxs, gid)
	}
	return assembleGvarTable(perGlyph, len(model.axes), numGlyphs)
}

func buildGlyphVariationData(model *variationModel, glyfs []*ot.Glyf, hmtxs []*ot.Hmtx, gid int) []byte {
	defaultPoints, _, contourEnds := glyphPoints(glyfs[model.order[0]], hmtxs[model.order[0]], gid)
	numPoints := len(defaultPoints)

	masterPoints := make([][]ot.GlyphPoint, len(model.masters))
	for mi := range model.masters {
		pts, _, _ := glyphPoints(glyfs[mi], hmtxs[mi], gid)
		masterPoints[mi] = pts
	}

	xDeltaRegions := make([][]float32, numPoints)
	yDeltaRegions := make([][]float32, numPoints)
	for p := 0; p < numPoints; p++ {
		if p >= len(defaultPoints) {
			continue
		}
		defX := float32(defaultPoints[p].X)
		defY := float32(defaultPoints[p].Y)
		xDeltaRegions[p] = model.deltasForRegions(func(mi int) float32 {
			if p < len(masterPoints[mi]) {
				return float32(masterPoints[mi][p].X)
			}
			return defX
		}, defX)
		yDeltaRegions[p] = model.deltasForRegions(func(mi int) float32 {
			if p < len(masterPoints[mi]) {
				return float32(masterPoints[mi][p].Y)
			}
			return defY
		}, defY)
	}

	var headers [][]byte
	var bodies [][]byte

	for regionIdx := 1; regionIdx < len(model.order); regionIdx++ {
		m := model.masters[model.order[regionIdx]]

		xDeltas := make([]int16, numPoints)
		yDeltas := make([]int16, numPoints)
		for p := 0; p < numPoints; p++ {
			if xDeltaRegions[p] != nil {
				xDeltas[p] = int16(round(xDeltaRegions[p][regionIdx]))
				yDeltas[p] = int16(round(yDeltaRegions[p][regionIdx]))
			}
		}

		touched := optimizeIUP(defaultPoints, contourEnds, xDeltas, yDeltas)

		header, body := encodeTuple(model.axes, m.region, touched, xDeltas, yDeltas, numPoints)
		headers = append(headers, header)
		bodies = append(bodies, body)
	}

	return serializeGlyphVariationData(headers, bodies)
}

func round(f float32) int32 {
	if f >= 0 {
		return int32(f + 0.5)
	}
	return int32(f - 0.5)
}

// optimizeIUP decides, per point, whether its explicit delta can be
// dropped because within-tolerance IUP interpolation from its
// surrounding touched neighbors (in the same contour) would reproduce
// it. Phantom points and composite "points" (which have no contour
// structure) always stay touched.
func optimizeIUP(points []ot.GlyphPoint, contourEnds []uint16, xDeltas, yDeltas []int16) []bool {
	touched := make([]bool, len(points))
	for i := range touched {
		touched[i] = true
	}
	if len(contourEnds) == 0 {
		return touched
	}

	start := 0
	for _, end16 := range contourEnds {
		end := int(end16)
		if end >= len(points) || end < start {
			start = end + 1
			continue
		}
		n := end - start + 1
		if n <= 2 {
			start = end + 1
			continue
		}

		for i := start; i <= end; i++ {
			prev := prevTouched(touched, start, end, i)
			next := nextTouched(touched, start, end, i)
			if prev == i || next == i || prev == next {
				continue
			}
			ix := iupInterpolate(points[i].X, points[prev].X, points[next].X, xDeltas[prev], xDeltas[next])
			iy := iupInterpolate(points[i].Y, points[prev].Y, points[next].Y, yDeltas[prev], yDeltas[next])
			if absInt16(ix-xDeltas[i]) <= iupTolerance && absInt16(iy-yDeltas[i]) <= iupTolerance {
				touched[i] = false
			}
		}
		start = end + 1
	}
	return touched
}

func absInt16(v int16) float32 {
	if v < 0 {
		return float32(-v)
	}
	return float32(v)
}

func prevTouched(touched []bool, start, end, i int) int {
	n := end - start + 1
	for k := 1; k <= n; k++ {
		idx := start + ((i-start-k)%n+n)%n
		if touched[idx] {
			return idx
		}
	}
	return i
}

func nextTouched(touched []bool, start, end, i int) int {
	n := end - start + 1
	for k := 1; k <= n; k++ {
		idx := start + (i-start+k)%n
		if touched[idx] {
			return idx
		}
	}
	return i
}

func iupInterpolate(coord, coord1, coord2 int16, delta1, delta2 int16) int16 {
	if coord1 == coord2 {
		if delta1 == delta2 {
			return delta1
		}
		return 0
	}
	if coord1 > coord2 {
		coord1, coord2 = coord2, coord1
		delta1, delta2 = delta2, delta1
	}
	if coord <= coord1 {
		return delta1
	}
	if coord >= coord2 {
		return delta2
	}
	t := float32(coord-coord1) / float32(coord2-coord1)
	return int16(float32(delta1) + t*float32(delta2-delta1))
}

const (
	tupleEmbeddedPeak   = 0x8000
	tupleIntermediate   = 0x4000
	tuplePrivatePoints  = 0x2000
)

// encodeTuple builds one tuple variation header plus its serialized
// per-point data (private point numbers, then packed x deltas, then
// packed y deltas).
func encodeTuple(axes []Axis, r region, touched []bool, xDeltas, yDeltas []int16, numPoints int) (header, body []byte) {
	peak := make([]int16, len(axes))
	interStart := make([]int16, len(axes))
	interEnd := make([]int16, len(axes))
	for i, ax := range axes {
		tent, ok := r[ax.Tag]
		if !ok {
			continue
		}
		interStart[i] = fixedpoint.ToF2Dot14(tent[0])
		peak[i] = fixedpoint.ToF2Dot14(tent[1])
		interEnd[i] = fixedpoint.ToF2Dot14(tent[2])
	}

	allTouched := true
	var touchedIdx []int
	for i, t := range touched {
		if t {
			touchedIdx = append(touchedIdx, i)
		} else {
			allTouched = false
		}
	}

	var pointData []byte
	if allTouched {
		pointData = []byte{0}
	} else {
		pointData = packPointNumbers(touchedIdx)
	}

	xs := make([]int16, len(touchedIdx))
	ys := make([]int16, len(touchedIdx))
	for i, idx := range touchedIdx {
		xs[i] = xDeltas[idx]
		ys[i] = yDeltas[idx]
	}
	if allTouched {
		xs, ys = xDeltas, yDeltas
	}

	body = append(body, pointData...)
	body = append(body, packDeltas(xs)...)
	body = append(body, packDeltas(ys)...)

	flags := uint16(tupleEmbeddedPeak | tupleIntermediate | tuplePrivatePoints)
	h := make([]byte, 4+len(axes)*2*3)
	binary.BigEndian.PutUint16(h[2:], flags)
	off := 4
	for i := range axes {
		binary.BigEndian.PutUint16(h[off:], uint16(peak[i]))
		off += 2
	}
	for i := range axes {
		binary.BigEndian.PutUint16(h[off:], uint16(interStart[i]))
		off += 2
	}
	for i := range axes {
		binary.BigEndian.PutUint16(h[off:], uint16(interEnd[i]))
		off += 2
	}
	return h, body
}

// packPointNumbers encodes an explicit, ascending list of point indices
// using the gvar packed point number format: a count, then runs of
// consecutive deltas-from-previous-point, each run capped at 128 points
// and tagged byte- or word-width depending on the largest delta in it.
func packPointNumbers(points []int) []byte {
	var out []byte
	count := len(points)
	if count < 128 {
		out = append(out, byte(count))
	} else {
		out = append(out, byte(0x80|(count>>8)), byte(count))
	}

	deltas := make([]int, count)
	prev := 0
	for i, p := range points {
		deltas[i] = p - prev
		prev = p
	}

	i := 0
	for i < len(deltas) {
		j := i
		useWords := false
		for j < len(deltas) && j-i < 128 {
			if deltas[j] > 255 {
				useWords = true
			}
			j++
		}
		control := byte(j - i - 1)
		if useWords {
			control |= 0x80
		}
		out = append(out, control)
		for _, d := range deltas[i:j] {
			if useWords {
				out = append(out, byte(d>>8), byte(d))
			} else {
				out = append(out, byte(d))
			}
		}
		i = j
	}
	return out
}

// packDeltas encodes a delta array using the gvar packed-deltas format:
// runs of up to 64 zero deltas, or up to 64 byte/word deltas.
func packDeltas(deltas []int16) []byte {
	var out []byte
	i := 0
	for i < len(deltas) {
		if deltas[i] == 0 {
			j := i
			for j < len(deltas) && deltas[j] == 0 && j-i < 64 {
				j++
			}
			out = append(out, byte(0x80|(j-i-1)))
			i = j
			continue
		}

		j := i
		useWords := false
		for j < len(deltas) && deltas[j] != 0 && j-i < 64 {
			if deltas[j] < -128 || deltas[j] > 127 {
				useWords = true
			}
			j++
		}
		control := byte(j - i - 1)
		if useWords {
			control |= 0x40
		}
		out = append(out, control)
		for _, d := range deltas[i:j] {
			if useWords {
				out = append(out, byte(uint16(d)>>8), byte(d))
			} else {
				out = append(out, byte(d))
			}
		}
		i = j
	}
	return out
}

// serializeGlyphVariationData assembles one glyph's GlyphVariationData
// block: header (tupleVariationCount, dataOffset, tuple headers) followed
// by each tuple's serialized point/delta data.
func serializeGlyphVariationData(headers, bodies [][]byte) []byte {
	if len(headers) == 0 {
		return nil
	}

	headerBytes := 4
	for _, h := range headers {
		headerBytes += len(h)
	}

	out := make([]byte, headerBytes)
	binary.BigEndian.PutUint16(out[0:], uint16(len(headers)))
	binary.BigEndian.PutUint16(out[2:], uint16(headerBytes))

	off := 4
	for i, h := range headers {
		// encodeTuple leaves h[0:2] for variationDataSize.
		binary.BigEndian.PutUint16(h[0:], uint16(len(bodies[i])))
		copy(out[off:], h)
		off += len(h)
	}

	for _, b := range bodies {
		out = append(out, b...)
	}
	return out
}

// assembleGvarTable builds the full gvar table from each glyph's already
// serialized GlyphVariationData, no shared tuples.
func assembleGvarTable(perGlyph [][]byte, axisCount, numGlyphs int) []byte {
	offsets := make([]uint32, numGlyphs+1)
	var blob []byte
	for i, data := range perGlyph {
		offsets[i] = uint32(len(blob))
		blob = append(blob, data...)
		for len(blob)%2 != 0 {
			blob = append(blob, 0)
		}
	}
	offsets[numGlyphs] = uint32(len(blob))

	useLong := offsets[numGlyphs] > 0x1FFFF
	var offsetBytes []byte
	if useLong {
		offsetBytes = make([]byte, (numGlyphs+1)*4)
		for i, o := range offsets {
			binary.BigEndian.PutUint32(offsetBytes[i*4:], o)
		}
	} else {
		offsetBytes = make([]byte, (numGlyphs+1)*2)
		for i, o := range offsets {
			binary.BigEndian.PutUint16(offsetBytes[i*2:], uint16(o/2))
		}
	}

	headerLen := 20
	dataStart := headerLen + len(offsetBytes)
	out := make([]byte, dataStart+len(blob))
	binary.BigEndian.PutUint16(out[0:], 1) // version
	binary.BigEndian.PutUint16(out[2:], 0)
	binary.BigEndian.PutUint16(out[4:], uint16(axisCount))
	binary.BigEndian.PutUint16(out[6:], 0) // sharedTupleCount
	binary.BigEndian.PutUint32(out[8:], uint32(headerLen+len(offsetBytes)))
	binary.BigEndian.PutUint16(out[12:], uint16(numGlyphs))
	var flags uint16
	if useLong {
		flags = 1
	}
	binary.BigEndian.PutUint16(out[14:], flags)
	binary.BigEndian.PutUint32(out[16:], uint32(dataStart))
	copy(out[headerLen:], offsetBytes)
	copy(out[dataStart:], blob)
	return out
}
