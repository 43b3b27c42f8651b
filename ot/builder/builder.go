// Package builder assembles sfnt table data back into a font binary. It is
// the one place every subsystem (instance, vf, merge, freeze) goes to
// produce output bytes, so the table-directory/checksum bookkeeping lives
// here exactly once.
package builder

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/glyphkit/corefont/ot"
)

// ErrNoTables is returned by Build when no tables were added.
var ErrNoTables = errors.New("builder: no tables to build")

// SfntVersion selects the offset-table version word.
type SfntVersion uint32

const (
	// VersionTrueType marks a font with glyf/loca outlines.
	VersionTrueType SfntVersion = 0x00010000
	// VersionCFF marks a font with CFF/CFF2 outlines ("OTTO").
	VersionCFF SfntVersion = 0x4F54544F // "OTTO"
)

// FontBuilder accumulates tables and assembles them into an sfnt binary.
type FontBuilder struct {
	tables  map[ot.Tag][]byte
	version SfntVersion
}

// New creates a builder for the given sfnt version. Callers building a
// TrueType-outline output (instancer, VF builder, merger merging glyf
// fonts) pass VersionTrueType; callers carrying CFF/CFF2 passthrough pass
// VersionCFF.
func New(version SfntVersion) *FontBuilder {
	return &FontBuilder{
		tables:  make(map[ot.Tag][]byte),
		version: version,
	}
}

// AddTable adds or replaces a table.
func (b *FontBuilder) AddTable(tag ot.Tag, data []byte) {
	b.tables[tag] = data
}

// RemoveTable drops a table if present (used when an instancer/merger
// decides a source table no longer applies, e.g. fvar after full
// instancing).
func (b *FontBuilder) RemoveTable(tag ot.Tag) {
	delete(b.tables, tag)
}

// HasTable reports whether a table has been added.
func (b *FontBuilder) HasTable(tag ot.Tag) bool {
	_, ok := b.tables[tag]
	return ok
}

// TableData returns a previously added table's bytes, for callers that
// need to read back what they staged (e.g. to patch loca offsets after
// glyf is finalized).
func (b *FontBuilder) TableData(tag ot.Tag) ([]byte, bool) {
	d, ok := b.tables[tag]
	return d, ok
}

// Build produces the final font binary: sorted table directory, 4-byte
// padded table data, per-table checksums, and a recomputed head
// checksumAdjustment. Mirrors the classic sfnt writer algorithm.
func (b *FontBuilder) Build() ([]byte, error) {
	if len(b.tables) == 0 {
		return nil, ErrNoTables
	}

	tags := make([]ot.Tag, 0, len(b.tables))
	for tag := range b.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	numTables := len(tags)
	searchRange, entrySelector, rangeShift := calcSearchParams(numTables)

	headerSize := 12 + numTables*16
	if headerSize%4 != 0 {
		headerSize += 4 - (headerSize % 4)
	}

	dataSize := 0
	for _, tag := range tags {
		tableLen := len(b.tables[tag])
		dataSize += tableLen
		if tableLen%4 != 0 {
			dataSize += 4 - (tableLen % 4)
		}
	}

	out := make([]byte, headerSize+dataSize)

	binary.BigEndian.PutUint32(out[0:], uint32(b.version))
	binary.BigEndian.PutUint16(out[4:], uint16(numTables))
	binary.BigEndian.PutUint16(out[6:], searchRange)
	binary.BigEndian.PutUint16(out[8:], entrySelector)
	binary.BigEndian.PutUint16(out[10:], rangeShift)

	offset := headerSize
	recordOff := 12
	headOffset := -1

	for _, tag := range tags {
		data := b.tables[tag]
		checksum := calcChecksum(data)

		binary.BigEndian.PutUint32(out[recordOff:], uint32(tag))
		binary.BigEndian.PutUint32(out[recordOff+4:], checksum)
		binary.BigEndian.PutUint32(out[recordOff+8:], uint32(offset))
		binary.BigEndian.PutUint32(out[recordOff+12:], uint32(len(data)))

		if tag == ot.TagHead {
			headOffset = offset
		}

		recordOff += 16
		copy(out[offset:], data)
		offset += len(data)
		for offset%4 != 0 {
			out[offset] = 0
			offset++
		}
	}

	if headOffset >= 0 && headOffset+12 <= len(out) {
		binary.BigEndian.PutUint32(out[headOffset+8:], 0)
		fontChecksum := calcChecksum(out)
		adjustment := uint32(0xB1B0AFBA) - fontChecksum
		binary.BigEndian.PutUint32(out[headOffset+8:], adjustment)
	}

	return out, nil
}

func calcSearchParams(numTables int) (searchRange, entrySelector, rangeShift uint16) {
	entrySelector = 0
	power := 1
	for power*2 <= numTables {
		power *= 2
		entrySelector++
	}
	searchRange = uint16(power * 16)
	rangeShift = uint16(numTables*16) - searchRange
	return
}

func calcChecksum(data []byte) uint32 {
	var sum uint32
	length := len(data)
	for i := 0; i+4 <= length; i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	remaining := length % 4
	if remaining > 0 {
		var last uint32
		off := length - remaining
		for i := 0; i < remaining; i++ {
			last |= uint32(data[off+i]) << (24 - i*8)
		}
		sum += last
	}
	return sum
}
