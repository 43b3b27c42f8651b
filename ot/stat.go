package ot

import "encoding/binary"

// StatAxisRecord describes one design axis as listed in STAT.
type StatAxisRecord struct {
	Tag          Tag
	NameID       uint16
	AxisOrdering uint16
}

// StatAxisValueFlags for an axis-value record.
type StatAxisValueFlags uint16

const (
	// StatFlagOlderSiblingFontAttribute is unused by this library but kept
	// for completeness of the bit layout.
	StatFlagOlderSiblingFontAttribute StatAxisValueFlags = 0x0001
	// StatFlagElidableAxisValueName marks a value that should be omitted
	// from the composed style name when it equals the axis default.
	StatFlagElidableAxisValueName StatAxisValueFlags = 0x0002
)

// StatAxisValue is a single stop on an axis (format 1 or 3 only — formats 2
// and 4 are rare enough in practice that this library treats them as
// opaque and passes their raw bytes through unexamined).
type StatAxisValue struct {
	Format       uint16
	AxisIndex    uint16
	Flags        StatAxisValueFlags
	ValueNameID  uint16
	Value        float32 // Fixed 16.16
	LinkedValue  float32 // format 3 only
	Raw          []byte  // non-nil for formats this library doesn't decode
}

// Stat represents a parsed STAT (Style Attributes) table.
type Stat struct {
	MajorVersion         uint16
	MinorVersion         uint16
	ElidedFallbackNameID uint16
	Axes                 []StatAxisRecord
	Values               []StatAxisValue
}

// ParseSTAT parses the STAT table.
func ParseSTAT(data []byte) (*Stat, error) {
	if len(data) < 12 {
		return nil, ErrInvalidTable
	}

	s := &Stat{
		MajorVersion: binary.BigEndian.Uint16(data[0:]),
		MinorVersion: binary.BigEndian.Uint16(data[2:]),
	}
	designAxisSize := int(binary.BigEndian.Uint16(data[4:]))
	designAxisCount := int(binary.BigEndian.Uint16(data[6:]))
	designAxesOffset := int(binary.BigEndian.Uint32(data[8:]))

	if len(data) < 16 {
		return nil, ErrInvalidTable
	}
	axisValueCount := int(binary.BigEndian.Uint16(data[12:]))
	offsetToAxisValueOffsets := int(binary.BigEndian.Uint32(data[14:]))

	if s.MinorVersion >= 1 && len(data) >= 20 {
		s.ElidedFallbackNameID = binary.BigEndian.Uint16(data[18:])
	}

	for i := 0; i < designAxisCount; i++ {
		off := designAxesOffset + i*designAxisSize
		if off+8 > len(data) {
			break
		}
		s.Axes = append(s.Axes, StatAxisRecord{
			Tag:          Tag(binary.BigEndian.Uint32(data[off:])),
			NameID:       binary.BigEndian.Uint16(data[off+4:]),
			AxisOrdering: binary.BigEndian.Uint16(data[off+6:]),
		})
	}

	for i := 0; i < axisValueCount; i++ {
		offOff := offsetToAxisValueOffsets + i*2
		if offOff+2 > len(data) {
			break
		}
		valOff := offsetToAxisValueOffsets + int(binary.BigEndian.Uint16(data[offOff:]))
		if valOff+2 > len(data) {
			continue
		}
		format := binary.BigEndian.Uint16(data[valOff:])
		switch format {
		case 1:
			if valOff+12 > len(data) {
				continue
			}
			s.Values = append(s.Values, StatAxisValue{
				Format:      1,
				AxisIndex:   binary.BigEndian.Uint16(data[valOff+2:]),
				Flags:       StatAxisValueFlags(binary.BigEndian.Uint16(data[valOff+4:])),
				ValueNameID: binary.BigEndian.Uint16(data[valOff+6:]),
				Value:       fixed1616ToFloat(binary.BigEndian.Uint32(data[valOff+8:])),
			})
		case 3:
			if valOff+16 > len(data) {
				continue
			}
			s.Values = append(s.Values, StatAxisValue{
				Format:      3,
				AxisIndex:   binary.BigEndian.Uint16(data[valOff+2:]),
				Flags:       StatAxisValueFlags(binary.BigEndian.Uint16(data[valOff+4:])),
				ValueNameID: binary.BigEndian.Uint16(data[valOff+6:]),
				Value:       fixed1616ToFloat(binary.BigEndian.Uint32(data[valOff+8:])),
				LinkedValue: fixed1616ToFloat(binary.BigEndian.Uint32(data[valOff+12:])),
			})
		default:
			s.Values = append(s.Values, StatAxisValue{Format: format, Raw: data[valOff:]})
		}
	}

	return s, nil
}

// BuildSTAT serializes a Stat back to wire format. Only formats 1 and 3 are
// emitted; format-2/4 entries (Raw != nil) are skipped, matching this
// library's read-side limitation.
func BuildSTAT(s *Stat) []byte {
	const designAxisSize = 8
	axesOff := 20
	axesLen := len(s.Axes) * designAxisSize

	// First pass: compute value-record sizes to lay out the offsets table.
	type laidOut struct {
		bytes []byte
	}
	var values []laidOut
	for _, v := range s.Values {
		switch v.Format {
		case 1:
			buf := make([]byte, 12)
			binary.BigEndian.PutUint16(buf[0:], 1)
			binary.BigEndian.PutUint16(buf[2:], v.AxisIndex)
			binary.BigEndian.PutUint16(buf[4:], uint16(v.Flags))
			binary.BigEndian.PutUint16(buf[6:], v.ValueNameID)
			binary.BigEndian.PutUint32(buf[8:], floatToFixed1616(v.Value))
			values = append(values, laidOut{buf})
		case 3:
			buf := make([]byte, 16)
			binary.BigEndian.PutUint16(buf[0:], 3)
			binary.BigEndian.PutUint16(buf[2:], v.AxisIndex)
			binary.BigEndian.PutUint16(buf[4:], uint16(v.Flags))
			binary.BigEndian.PutUint16(buf[6:], v.ValueNameID)
			binary.BigEndian.PutUint32(buf[8:], floatToFixed1616(v.Value))
			binary.BigEndian.PutUint32(buf[12:], floatToFixed1616(v.LinkedValue))
			values = append(values, laidOut{buf})
		}
	}

	offsetsOff := axesOff + axesLen
	offsetsLen := len(values) * 2
	valuesOff := offsetsOff + offsetsLen

	total := valuesOff
	for _, v := range values {
		total += len(v.bytes)
	}

	out := make([]byte, total)
	binary.BigEndian.PutUint16(out[0:], 1)
	binary.BigEndian.PutUint16(out[2:], 2)
	binary.BigEndian.PutUint16(out[4:], designAxisSize)
	binary.BigEndian.PutUint16(out[6:], uint16(len(s.Axes)))
	binary.BigEndian.PutUint32(out[8:], uint32(axesOff))
	binary.BigEndian.PutUint16(out[12:], uint16(len(values)))
	binary.BigEndian.PutUint32(out[14:], uint32(offsetsOff))
	binary.BigEndian.PutUint16(out[18:], s.ElidedFallbackNameID)

	for i, a := range s.Axes {
		off := axesOff + i*designAxisSize
		binary.BigEndian.PutUint32(out[off:], uint32(a.Tag))
		binary.BigEndian.PutUint16(out[off+4:], a.NameID)
		binary.BigEndian.PutUint16(out[off+6:], a.AxisOrdering)
	}

	cur := valuesOff
	for i, v := range values {
		binary.BigEndian.PutUint16(out[offsetsOff+i*2:], uint16(cur-offsetsOff))
		copy(out[cur:], v.bytes)
		cur += len(v.bytes)
	}

	return out
}
