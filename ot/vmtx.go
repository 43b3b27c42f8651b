package ot

import "encoding/binary"

// Vhea represents the vertical header table. Same layout as Hhea with
// vertical-metric field names.
type Vhea struct {
	Version              uint32
	VertTypoAscender     int16
	VertTypoDescender    int16
	VertTypoLineGap      int16
	AdvanceHeightMax     uint16
	MinTopSideBearing    int16
	MinBottomSideBearing int16
	YMaxExtent           int16
	CaretSlopeRise       int16
	CaretSlopeRun        int16
	CaretOffset          int16
	MetricDataFormat     int16
	NumOfLongVerMetrics  uint16
}

// ParseVhea parses the vhea table.
func ParseVhea(data []byte) (*Vhea, error) {
	if len(data) < 36 {
		return nil, ErrInvalidTable
	}
	return &Vhea{
		Version:              binary.BigEndian.Uint32(data[0:]),
		VertTypoAscender:     int16(binary.BigEndian.Uint16(data[4:])),
		VertTypoDescender:    int16(binary.BigEndian.Uint16(data[6:])),
		VertTypoLineGap:      int16(binary.BigEndian.Uint16(data[8:])),
		AdvanceHeightMax:     binary.BigEndian.Uint16(data[10:]),
		MinTopSideBearing:    int16(binary.BigEndian.Uint16(data[12:])),
		MinBottomSideBearing: int16(binary.BigEndian.Uint16(data[14:])),
		YMaxExtent:           int16(binary.BigEndian.Uint16(data[16:])),
		CaretSlopeRise:       int16(binary.BigEndian.Uint16(data[18:])),
		CaretSlopeRun:        int16(binary.BigEndian.Uint16(data[20:])),
		CaretOffset:          int16(binary.BigEndian.Uint16(data[22:])),
		MetricDataFormat:     int16(binary.BigEndian.Uint16(data[32:])),
		NumOfLongVerMetrics:  binary.BigEndian.Uint16(data[34:]),
	}, nil
}

// Bytes serializes the vhea table back to wire format.
func (v *Vhea) Bytes() []byte {
	data := make([]byte, 36)
	binary.BigEndian.PutUint32(data[0:], v.Version)
	binary.BigEndian.PutUint16(data[4:], uint16(v.VertTypoAscender))
	binary.BigEndian.PutUint16(data[6:], uint16(v.VertTypoDescender))
	binary.BigEndian.PutUint16(data[8:], uint16(v.VertTypoLineGap))
	binary.BigEndian.PutUint16(data[10:], v.AdvanceHeightMax)
	binary.BigEndian.PutUint16(data[12:], uint16(v.MinTopSideBearing))
	binary.BigEndian.PutUint16(data[14:], uint16(v.MinBottomSideBearing))
	binary.BigEndian.PutUint16(data[16:], uint16(v.YMaxExtent))
	binary.BigEndian.PutUint16(data[18:], uint16(v.CaretSlopeRise))
	binary.BigEndian.PutUint16(data[20:], uint16(v.CaretSlopeRun))
	binary.BigEndian.PutUint16(data[22:], uint16(v.CaretOffset))
	binary.BigEndian.PutUint16(data[32:], uint16(v.MetricDataFormat))
	binary.BigEndian.PutUint16(data[34:], v.NumOfLongVerMetrics)
	return data
}

// Vmtx represents the vertical metrics table. Mirrors Hmtx's long-metric /
// trailing-bearing split.
type Vmtx struct {
	vMetrics          []LongVerMetric
	topSideBearings   []int16
	lastAdvanceHeight uint16
}

// LongVerMetric contains the advance height and top side bearing for a glyph.
type LongVerMetric struct {
	AdvanceHeight uint16
	Tsb           int16
}

// ParseVmtx parses the vmtx table given numOfLongVerMetrics (from vhea) and
// numGlyphs (from maxp).
func ParseVmtx(data []byte, numOfLongVerMetrics, numGlyphs int) (*Vmtx, error) {
	if numOfLongVerMetrics <= 0 {
		return nil, ErrInvalidTable
	}
	expectedSize := numOfLongVerMetrics*4 + (numGlyphs-numOfLongVerMetrics)*2
	if len(data) < expectedSize {
		return nil, ErrInvalidTable
	}

	v := &Vmtx{
		vMetrics:        make([]LongVerMetric, numOfLongVerMetrics),
		topSideBearings: make([]int16, numGlyphs-numOfLongVerMetrics),
	}

	off := 0
	for i := 0; i < numOfLongVerMetrics; i++ {
		v.vMetrics[i].AdvanceHeight = binary.BigEndian.Uint16(data[off:])
		v.vMetrics[i].Tsb = int16(binary.BigEndian.Uint16(data[off+2:]))
		off += 4
	}
	if numOfLongVerMetrics > 0 {
		v.lastAdvanceHeight = v.vMetrics[numOfLongVerMetrics-1].AdvanceHeight
	}
	for i := 0; i < numGlyphs-numOfLongVerMetrics; i++ {
		v.topSideBearings[i] = int16(binary.BigEndian.Uint16(data[off:]))
		off += 2
	}

	return v, nil
}

// GetAdvanceHeight returns the advance height for a glyph.
func (v *Vmtx) GetAdvanceHeight(glyph GlyphID) uint16 {
	if int(glyph) < len(v.vMetrics) {
		return v.vMetrics[glyph].AdvanceHeight
	}
	return v.lastAdvanceHeight
}

// GetTsb returns the top side bearing for a glyph.
func (v *Vmtx) GetTsb(glyph GlyphID) int16 {
	if int(glyph) < len(v.vMetrics) {
		return v.vMetrics[glyph].Tsb
	}
	idx := int(glyph) - len(v.vMetrics)
	if idx >= 0 && idx < len(v.topSideBearings) {
		return v.topSideBearings[idx]
	}
	return 0
}
