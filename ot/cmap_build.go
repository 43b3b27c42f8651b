package ot

import (
	"encoding/binary"
	"sort"
)

// CmapMapping is one codepoint-to-glyph pair destined for a rebuilt cmap.
type CmapMapping struct {
	CP  rune
	GID GlyphID
}

// CmapPlatformEncoding names one (platformID, encodingID) pair that should
// point at the shared format-12 subtable BuildCmapFormat12Table produces.
type CmapPlatformEncoding struct {
	PlatformID uint16
	EncodingID uint16
}

// StandardCmapPlatforms is the pair of platform records every cmap table
// built by this codebase carries: Unicode platform (full repertoire) and
// Windows platform with the Unicode full-repertoire (UCS-4) encoding.
var StandardCmapPlatforms = []CmapPlatformEncoding{
	{PlatformID: 0, EncodingID: 4},
	{PlatformID: 3, EncodingID: 10},
}

// BuildCmapFormat12Table assembles a complete cmap table: a header, one
// encoding record per platform in platforms, and a single shared format-12
// subtable built from mappings. Runs of consecutive (codepoint, glyph)
// pairs are compacted into cmap groups, mirroring subset's format-12
// builder.
func BuildCmapFormat12Table(mappings []CmapMapping, platforms []CmapPlatformEncoding) []byte {
	sorted := append([]CmapMapping(nil), mappings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CP < sorted[j].CP })

	subtable := buildCmapFormat12Subtable(sorted)

	headerLen := 4 + len(platforms)*8
	out := make([]byte, headerLen+len(subtable))
	binary.BigEndian.PutUint16(out[0:], 0) // version
	binary.BigEndian.PutUint16(out[2:], uint16(len(platforms)))

	subtableOff := headerLen
	for i, p := range platforms {
		recOff := 4 + i*8
		binary.BigEndian.PutUint16(out[recOff:], p.PlatformID)
		binary.BigEndian.PutUint16(out[recOff+2:], p.EncodingID)
		binary.BigEndian.PutUint32(out[recOff+4:], uint32(subtableOff))
	}
	copy(out[subtableOff:], subtable)
	return out
}

func buildCmapFormat12Subtable(sorted []CmapMapping) []byte {
	type group struct {
		startChar, endChar, startGlyph uint32
	}

	var groups []group
	i := 0
	for i < len(sorted) {
		start := sorted[i]
		startGlyph := uint32(start.GID)
		endChar := uint32(start.CP)

		j := i + 1
		for j < len(sorted) {
			next := sorted[j]
			if uint32(next.CP) != endChar+1 || uint32(next.GID) != startGlyph+uint32(j-i) {
				break
			}
			endChar = uint32(next.CP)
			j++
		}
		groups = append(groups, group{startChar: uint32(start.CP), endChar: endChar, startGlyph: startGlyph})
		i = j
	}

	subtableLen := 16 + len(groups)*12
	subtable := make([]byte, subtableLen)
	binary.BigEndian.PutUint16(subtable[0:], 12)
	binary.BigEndian.PutUint16(subtable[2:], 0)
	binary.BigEndian.PutUint32(subtable[4:], uint32(subtableLen))
	binary.BigEndian.PutUint32(subtable[8:], 0)
	binary.BigEndian.PutUint32(subtable[12:], uint32(len(groups)))

	off := 16
	for _, g := range groups {
		binary.BigEndian.PutUint32(subtable[off:], g.startChar)
		binary.BigEndian.PutUint32(subtable[off+4:], g.endChar)
		binary.BigEndian.PutUint32(subtable[off+8:], g.startGlyph)
		off += 12
	}
	return subtable
}
