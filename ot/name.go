package ot

import (
	"encoding/binary"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// nameUTF16BE is shared by both the decode and encode paths so the byte
// order and BOM policy can't drift between them.
var nameUTF16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// NameRecord is one (platform, encoding, language, nameID) -> string entry
// in the name table, preserved verbatim so a merge/instance/freeze pass can
// round-trip records it doesn't touch.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// Name represents the name table: both a flat record list (for exact
// round-tripping) and a nameID -> preferred-string index (for lookups).
type Name struct {
	Records []NameRecord
	entries map[uint16]string // nameID -> best string found
}

// ParseName parses the name table (formats 0 and 1; format 1's
// language-tag records are skipped, matching this library's read needs).
func ParseName(data []byte) (*Name, error) {
	if len(data) < 6 {
		return nil, ErrInvalidTable
	}

	format := binary.BigEndian.Uint16(data[0:])
	count := binary.BigEndian.Uint16(data[2:])
	storageOffset := binary.BigEndian.Uint16(data[4:])

	n := &Name{entries: make(map[uint16]string)}

	if format > 1 {
		return n, nil
	}

	recordOffset := 6
	for i := 0; i < int(count); i++ {
		if recordOffset+12 > len(data) {
			break
		}

		platformID := binary.BigEndian.Uint16(data[recordOffset:])
		encodingID := binary.BigEndian.Uint16(data[recordOffset+2:])
		languageID := binary.BigEndian.Uint16(data[recordOffset+4:])
		nameID := binary.BigEndian.Uint16(data[recordOffset+6:])
		length := binary.BigEndian.Uint16(data[recordOffset+8:])
		offset := binary.BigEndian.Uint16(data[recordOffset+10:])

		recordOffset += 12

		stringOffset := int(storageOffset) + int(offset)
		if stringOffset+int(length) > len(data) {
			continue
		}
		stringData := data[stringOffset : stringOffset+int(length)]

		var str string
		if platformID == 3 || platformID == 0 {
			str = decodeUTF16BE(stringData)
		} else if platformID == 1 && encodingID == 0 {
			str = string(stringData)
		} else {
			continue
		}
		if str == "" {
			continue
		}

		n.Records = append(n.Records, NameRecord{
			PlatformID: platformID,
			EncodingID: encodingID,
			LanguageID: languageID,
			NameID:     nameID,
			Value:      str,
		})

		// Windows Unicode records take priority as the "best" string for a
		// nameID; Mac Roman fills gaps.
		if _, ok := n.entries[nameID]; !ok || platformID == 3 {
			n.entries[nameID] = str
		}
	}

	return n, nil
}

func decodeUTF16BE(data []byte) string {
	out, err := nameUTF16BE.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return string(out)
}

func encodeUTF16BE(s string) []byte {
	out, err := nameUTF16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}

// Get returns the preferred string for a nameID.
func (n *Name) Get(nameID uint16) string {
	if n == nil {
		return ""
	}
	return n.entries[nameID]
}

// PostScriptName returns the PostScript name (nameID 6).
func (n *Name) PostScriptName() string { return n.Get(6) }

// FamilyName returns the font family name (nameID 1).
func (n *Name) FamilyName() string { return n.Get(1) }

// FullName returns the full font name (nameID 4).
func (n *Name) FullName() string { return n.Get(4) }

// NameBuilder accumulates records for a new or rewritten name table. Unlike
// Name, which exposes only the single "best" string per ID, the builder
// works entirely in terms of explicit platform records, since vf/merge/
// freeze all need precise control over what ships for Windows vs Mac.
type NameBuilder struct {
	records []NameRecord
	nextID  uint16
}

// NewNameBuilder creates an empty builder. firstFreeNameID should be 256
// for fonts following the convention that IDs 0-255 are reserved/predefined
// and 256+ are available for custom strings (STAT value names, etc).
func NewNameBuilder(firstFreeNameID uint16) *NameBuilder {
	if firstFreeNameID < 256 {
		firstFreeNameID = 256
	}
	return &NameBuilder{nextID: firstFreeNameID}
}

// SetASCII adds both a Windows (platform 3, encoding 1, language 0x409)
// and a Mac (platform 1, encoding 0, language 0) record for nameID.
func (b *NameBuilder) SetASCII(nameID uint16, value string) {
	b.records = append(b.records,
		NameRecord{PlatformID: 3, EncodingID: 1, LanguageID: 0x0409, NameID: nameID, Value: value},
		NameRecord{PlatformID: 1, EncodingID: 0, LanguageID: 0, NameID: nameID, Value: value},
	)
}

// AddRecord appends an arbitrary pre-built record (used when carrying
// forward records verbatim from a source font).
func (b *NameBuilder) AddRecord(r NameRecord) {
	b.records = append(b.records, r)
}

// NewID allocates and returns the next free custom nameID.
func (b *NameBuilder) NewID() uint16 {
	id := b.nextID
	b.nextID++
	return id
}

// Build serializes the accumulated records into a name table (format 0).
func (b *NameBuilder) Build() []byte {
	recs := make([]NameRecord, len(b.records))
	copy(recs, b.records)
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].PlatformID != recs[j].PlatformID {
			return recs[i].PlatformID < recs[j].PlatformID
		}
		if recs[i].EncodingID != recs[j].EncodingID {
			return recs[i].EncodingID < recs[j].EncodingID
		}
		if recs[i].LanguageID != recs[j].LanguageID {
			return recs[i].LanguageID < recs[j].LanguageID
		}
		return recs[i].NameID < recs[j].NameID
	})

	type encoded struct {
		rec   NameRecord
		bytes []byte
	}
	strs := make([]encoded, len(recs))
	for i, r := range recs {
		var raw []byte
		if r.PlatformID == 1 && r.EncodingID == 0 {
			raw = []byte(r.Value)
		} else {
			raw = encodeUTF16BE(r.Value)
		}
		strs[i] = encoded{r, raw}
	}

	headerSize := 6 + len(strs)*12
	storageOff := headerSize

	var storage []byte
	out := make([]byte, headerSize)
	binary.BigEndian.PutUint16(out[0:], 0)
	binary.BigEndian.PutUint16(out[2:], uint16(len(strs)))
	binary.BigEndian.PutUint16(out[4:], uint16(storageOff))

	cur := 0
	for i, e := range strs {
		recOff := 6 + i*12
		binary.BigEndian.PutUint16(out[recOff:], e.rec.PlatformID)
		binary.BigEndian.PutUint16(out[recOff+2:], e.rec.EncodingID)
		binary.BigEndian.PutUint16(out[recOff+4:], e.rec.LanguageID)
		binary.BigEndian.PutUint16(out[recOff+6:], e.rec.NameID)
		binary.BigEndian.PutUint16(out[recOff+8:], uint16(len(e.bytes)))
		binary.BigEndian.PutUint16(out[recOff+10:], uint16(cur))
		storage = append(storage, e.bytes...)
		cur += len(e.bytes)
	}

	return append(out, storage...)
}
