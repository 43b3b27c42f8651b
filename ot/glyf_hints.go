package ot

import "encoding/binary"

// StripInstructions returns a copy of a glyph's raw glyf bytes with its
// hinting program removed (instructionLength/instructions set to empty).
// Used by the merger to drop instructions from every font but the first,
// since fpgm/prep/cvt (the programs those instructions call into) are
// only carried forward from the first font.
func StripInstructions(data []byte) []byte {
	if len(data) < 10 {
		return data
	}
	numberOfContours := int16(binary.BigEndian.Uint16(data[0:]))
	if numberOfContours >= 0 {
		return stripSimpleInstructions(data, int(numberOfContours))
	}
	return stripCompositeInstructions(data)
}

func stripSimpleInstructions(data []byte, numberOfContours int) []byte {
	off := 10 + numberOfContours*2
	if off+2 > len(data) {
		return data
	}
	instructionLength := int(binary.BigEndian.Uint16(data[off:]))
	if off+2+instructionLength > len(data) {
		return data
	}

	out := make([]byte, 0, len(data)-instructionLength)
	out = append(out, data[:off]...)
	out = append(out, 0, 0) // instructionLength = 0
	out = append(out, data[off+2+instructionLength:]...)
	return out
}

func stripCompositeInstructions(data []byte) []byte {
	tail := compositeInstructionTail(data)
	if tail == nil {
		return data
	}
	// tail starts at the instructionLength field and runs to the end of
	// data; everything before it is the component record list, which we
	// keep, but the last component's moreComponents==0 / weHaveInstr bit
	// stays set with instructionLength rewritten to 0 and no instruction
	// bytes following.
	lengthOff := len(data) - len(tail)
	out := make([]byte, lengthOff+2)
	copy(out, data[:lengthOff])
	binary.BigEndian.PutUint16(out[lengthOff:], 0)
	return out
}
