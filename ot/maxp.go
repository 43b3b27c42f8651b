package ot

import "encoding/binary"

// Maxp represents the maximum profile table. Version 1.0 (TrueType) carries
// the full set of glyph-complexity maxima; version 0.5 (CFF) carries only
// numGlyphs.
type Maxp struct {
	Version               uint32
	NumGlyphs             uint16
	MaxPoints             uint16
	MaxContours            uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

// ParseMaxp parses the maxp table. Only NumGlyphs is required; the TrueType
// fields are left zero for version 0.5 (CFF) fonts.
func ParseMaxp(data []byte) (*Maxp, error) {
	if len(data) < 6 {
		return nil, ErrInvalidTable
	}

	m := &Maxp{
		Version:   binary.BigEndian.Uint32(data[0:]),
		NumGlyphs: binary.BigEndian.Uint16(data[4:]),
	}

	if len(data) >= 32 {
		m.MaxPoints = binary.BigEndian.Uint16(data[6:])
		m.MaxContours = binary.BigEndian.Uint16(data[8:])
		m.MaxCompositePoints = binary.BigEndian.Uint16(data[10:])
		m.MaxCompositeContours = binary.BigEndian.Uint16(data[12:])
		m.MaxZones = binary.BigEndian.Uint16(data[14:])
		m.MaxTwilightPoints = binary.BigEndian.Uint16(data[16:])
		m.MaxStorage = binary.BigEndian.Uint16(data[18:])
		m.MaxFunctionDefs = binary.BigEndian.Uint16(data[20:])
		m.MaxInstructionDefs = binary.BigEndian.Uint16(data[22:])
		m.MaxStackElements = binary.BigEndian.Uint16(data[24:])
		m.MaxSizeOfInstructions = binary.BigEndian.Uint16(data[26:])
		m.MaxComponentElements = binary.BigEndian.Uint16(data[28:])
		m.MaxComponentDepth = binary.BigEndian.Uint16(data[30:])
	}

	return m, nil
}

// IsTrueType reports whether the table carries the TrueType (1.0) fields.
func (m *Maxp) IsTrueType() bool {
	return m.Version == 0x00010000
}

// Bytes serializes the maxp table back to wire format, preserving the
// version (and therefore the field set) it was parsed with.
func (m *Maxp) Bytes() []byte {
	if !m.IsTrueType() {
		data := make([]byte, 6)
		binary.BigEndian.PutUint32(data[0:], 0x00005000)
		binary.BigEndian.PutUint16(data[4:], m.NumGlyphs)
		return data
	}

	data := make([]byte, 32)
	binary.BigEndian.PutUint32(data[0:], 0x00010000)
	binary.BigEndian.PutUint16(data[4:], m.NumGlyphs)
	binary.BigEndian.PutUint16(data[6:], m.MaxPoints)
	binary.BigEndian.PutUint16(data[8:], m.MaxContours)
	binary.BigEndian.PutUint16(data[10:], m.MaxCompositePoints)
	binary.BigEndian.PutUint16(data[12:], m.MaxCompositeContours)
	binary.BigEndian.PutUint16(data[14:], m.MaxZones)
	binary.BigEndian.PutUint16(data[16:], m.MaxTwilightPoints)
	binary.BigEndian.PutUint16(data[18:], m.MaxStorage)
	binary.BigEndian.PutUint16(data[20:], m.MaxFunctionDefs)
	binary.BigEndian.PutUint16(data[22:], m.MaxInstructionDefs)
	binary.BigEndian.PutUint16(data[24:], m.MaxStackElements)
	binary.BigEndian.PutUint16(data[26:], m.MaxSizeOfInstructions)
	binary.BigEndian.PutUint16(data[28:], m.MaxComponentElements)
	binary.BigEndian.PutUint16(data[30:], m.MaxComponentDepth)
	return data
}

// ParseMaxpFromFont is a convenience wrapper around Font.TableData.
func ParseMaxpFromFont(font *Font) (*Maxp, error) {
	data, err := font.TableData(TagMaxp)
	if err != nil {
		return nil, err
	}
	return ParseMaxp(data)
}
