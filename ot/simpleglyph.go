package ot

import "encoding/binary"

// Simple glyph point flags.
const (
	flagOnCurve      uint8 = 0x01
	flagXShort       uint8 = 0x02
	flagYShort       uint8 = 0x04
	flagRepeat       uint8 = 0x08
	flagXSameOrPos   uint8 = 0x10
	flagYSameOrPos   uint8 = 0x20
	flagOverlapSimple uint8 = 0x40
)

// SimpleGlyphPoint is one absolute (x, y) outline point.
type SimpleGlyphPoint struct {
	X       int16
	Y       int16
	OnCurve bool
}

// ParseSimpleGlyph decodes a simple glyph's points and per-contour end
// indices from its raw glyf bytes (header through the end of the Y
// coordinate array; trailing instructions have already been walked past).
func ParseSimpleGlyph(data []byte) ([]SimpleGlyphPoint, []uint16, error) {
	if len(data) < 10 {
		return nil, nil, ErrInvalidTable
	}
	numberOfContours := int16(binary.BigEndian.Uint16(data[0:]))
	if numberOfContours < 0 {
		return nil, nil, ErrInvalidFormat
	}

	off := 10
	endPts := make([]uint16, numberOfContours)
	for i := range endPts {
		if off+2 > len(data) {
			return nil, nil, ErrInvalidTable
		}
		endPts[i] = binary.BigEndian.Uint16(data[off:])
		off += 2
	}

	numPoints := 0
	if len(endPts) > 0 {
		numPoints = int(endPts[len(endPts)-1]) + 1
	}

	if off+2 > len(data) {
		return nil, nil, ErrInvalidTable
	}
	instructionLength := int(binary.BigEndian.Uint16(data[off:]))
	off += 2 + instructionLength

	flags := make([]uint8, numPoints)
	for i := 0; i < numPoints; {
		if off >= len(data) {
			return nil, nil, ErrInvalidTable
		}
		f := data[off]
		off++
		flags[i] = f
		i++
		if f&flagRepeat != 0 {
			if off >= len(data) {
				return nil, nil, ErrInvalidTable
			}
			repeatCount := int(data[off])
			off++
			for r := 0; r < repeatCount && i < numPoints; r++ {
				flags[i] = f
				i++
			}
		}
	}

	points := make([]SimpleGlyphPoint, numPoints)
	x := int16(0)
	for i := 0; i < numPoints; i++ {
		f := flags[i]
		var dx int16
		if f&flagXShort != 0 {
			if off >= len(data) {
				return nil, nil, ErrInvalidTable
			}
			v := int16(data[off])
			off++
			if f&flagXSameOrPos == 0 {
				v = -v
			}
			dx = v
		} else if f&flagXSameOrPos == 0 {
			if off+2 > len(data) {
				return nil, nil, ErrInvalidTable
			}
			dx = int16(binary.BigEndian.Uint16(data[off:]))
			off += 2
		}
		x += dx
		points[i].X = x
		points[i].OnCurve = f&flagOnCurve != 0
	}

	y := int16(0)
	for i := 0; i < numPoints; i++ {
		f := flags[i]
		var dy int16
		if f&flagYShort != 0 {
			if off >= len(data) {
				return nil, nil, ErrInvalidTable
			}
			v := int16(data[off])
			off++
			if f&flagYSameOrPos == 0 {
				v = -v
			}
			dy = v
		} else if f&flagYSameOrPos == 0 {
			if off+2 > len(data) {
				return nil, nil, ErrInvalidTable
			}
			dy = int16(binary.BigEndian.Uint16(data[off:]))
			off += 2
		}
		y += dy
		points[i].Y = y
	}

	return points, endPts, nil
}

// InstanceSimpleGlyph applies per-point (x, y) deltas to a simple glyph and
// re-serializes it, preserving flags and instructions, with xMin/yMin/xMax/
// yMax recomputed from the moved points. xDeltas/yDeltas must have one
// entry per outline point (not counting phantom points).
func InstanceSimpleGlyph(data []byte, xDeltas, yDeltas []int16) []byte {
	points, endPts, err := ParseSimpleGlyph(data)
	if err != nil || len(points) == 0 || len(points) != len(xDeltas) || len(points) != len(yDeltas) {
		return data
	}

	for i := range points {
		points[i].X += xDeltas[i]
		points[i].Y += yDeltas[i]
	}

	return buildSimpleGlyph(points, endPts, instructionsOf(data, len(endPts)))
}

func instructionsOf(data []byte, numContours int) []byte {
	off := 10 + numContours*2
	if off+2 > len(data) {
		return nil
	}
	instructionLength := int(binary.BigEndian.Uint16(data[off:]))
	off += 2
	if off+instructionLength > len(data) {
		return nil
	}
	return data[off : off+instructionLength]
}

// buildSimpleGlyph serializes points/contours/instructions back into glyf
// wire format, recomputing the bbox header.
func buildSimpleGlyph(points []SimpleGlyphPoint, endPts []uint16, instructions []byte) []byte {
	xMin, yMin, xMax, yMax := int16(0), int16(0), int16(0), int16(0)
	if len(points) > 0 {
		xMin, yMin = points[0].X, points[0].Y
		xMax, yMax = points[0].X, points[0].Y
		for _, p := range points[1:] {
			if p.X < xMin {
				xMin = p.X
			}
			if p.X > xMax {
				xMax = p.X
			}
			if p.Y < yMin {
				yMin = p.Y
			}
			if p.Y > yMax {
				yMax = p.Y
			}
		}
	}

	flags := make([]uint8, len(points))
	var xBytes, yBytes []byte
	prevX, prevY := int16(0), int16(0)
	for i, p := range points {
		dx := int32(p.X) - int32(prevX)
		dy := int32(p.Y) - int32(prevY)
		prevX, prevY = p.X, p.Y

		var f uint8
		if p.OnCurve {
			f |= flagOnCurve
		}

		switch {
		case dx == 0:
			f |= flagXSameOrPos
		case dx >= -255 && dx <= 255:
			f |= flagXShort
			if dx >= 0 {
				f |= flagXSameOrPos
				xBytes = append(xBytes, byte(dx))
			} else {
				xBytes = append(xBytes, byte(-dx))
			}
		default:
			xBytes = append(xBytes, byte(dx>>8), byte(dx))
		}

		switch {
		case dy == 0:
			f |= flagYSameOrPos
		case dy >= -255 && dy <= 255:
			f |= flagYShort
			if dy >= 0 {
				f |= flagYSameOrPos
				yBytes = append(yBytes, byte(dy))
			} else {
				yBytes = append(yBytes, byte(-dy))
			}
		default:
			yBytes = append(yBytes, byte(dy>>8), byte(dy))
		}

		flags[i] = f
	}

	// No run-length flag compaction: one flag byte per point keeps this
	// simple and correct; compaction is a size optimization, not a
	// semantic requirement.
	out := make([]byte, 0, 10+len(endPts)*2+2+len(instructions)+len(flags)+len(xBytes)+len(yBytes))
	header := make([]byte, 10)
	binary.BigEndian.PutUint16(header[0:], uint16(int16(len(endPts))))
	binary.BigEndian.PutUint16(header[2:], uint16(xMin))
	binary.BigEndian.PutUint16(header[4:], uint16(yMin))
	binary.BigEndian.PutUint16(header[6:], uint16(xMax))
	binary.BigEndian.PutUint16(header[8:], uint16(yMax))
	out = append(out, header...)

	for _, e := range endPts {
		eb := make([]byte, 2)
		binary.BigEndian.PutUint16(eb, e)
		out = append(out, eb...)
	}

	il := make([]byte, 2)
	binary.BigEndian.PutUint16(il, uint16(len(instructions)))
	out = append(out, il...)
	out = append(out, instructions...)

	out = append(out, flags...)
	out = append(out, xBytes...)
	out = append(out, yBytes...)

	return out
}
