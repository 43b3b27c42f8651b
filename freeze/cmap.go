package freeze

import (
	"encoding/binary"

	"github.com/glyphkit/corefont/ot"
)

// cmapEncodingRecord is one (platform, encoding) pair a font's cmap
// declares, read directly off the table's encoding-record list so the
// rewritten cmap can preserve every original platform/encoding pair
// rather than only the single "best" subtable ot.ParseCmap keeps.
type cmapEncodingRecord struct {
	platformID, encodingID uint16
}

func readCmapEncodingRecords(data []byte) []cmapEncodingRecord {
	if len(data) < 4 {
		return nil
	}
	numTables := int(binary.BigEndian.Uint16(data[2:]))
	var records []cmapEncodingRecord
	for i := 0; i < numTables; i++ {
		off := 4 + i*8
		if off+8 > len(data) {
			break
		}
		records = append(records, cmapEncodingRecord{
			platformID: binary.BigEndian.Uint16(data[off:]),
			encodingID: binary.BigEndian.Uint16(data[off+2:]),
		})
	}
	return records
}

// rewriteCmap applies subs to every codepoint the font's cmap resolves
// (via the shared best-subtable mapping ot.Cmap already selects) and
// re-emits the result as a format 12 subtable under every platform/
// encoding pair the original cmap declared, matching spec.md §4.5's
// "preserving original platform/encoding records" rule. Every declared
// record ends up pointing at the same rewritten mapping: this codebase's
// cmap reader does not keep distinct per-subtable mappings the way a
// symbol-vs-Unicode cmap pair might otherwise warrant, which is a
// documented simplification.
func rewriteCmap(data []byte, subs map[ot.GlyphID]ot.GlyphID) ([]byte, error) {
	cm, err := ot.ParseCmap(data)
	if err != nil {
		return nil, err
	}
	records := readCmapEncodingRecords(data)
	if len(records) == 0 {
		records = []cmapEncodingRecord{{platformID: 3, encodingID: 10}}
	}

	var mappings []ot.CmapMapping
	for cp, gid := range cm.CollectMapping() {
		if mapped, ok := subs[gid]; ok {
			gid = mapped
		}
		mappings = append(mappings, ot.CmapMapping{CP: cp, GID: gid})
	}

	platforms := make([]ot.CmapPlatformEncoding, len(records))
	for i, r := range records {
		platforms[i] = ot.CmapPlatformEncoding{PlatformID: r.platformID, EncodingID: r.encodingID}
	}

	return ot.BuildCmapFormat12Table(mappings, platforms), nil
}
