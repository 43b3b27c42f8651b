package ot

import "encoding/binary"

// macGlyphOrder is the standard Macintosh glyph order referenced by post
// table version 2.0 entries whose glyph name index is below 258.
var macGlyphOrder = []string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl",
	"numbersign", "dollar", "percent", "ampersand", "quotesingle",
	"parenleft", "parenright", "asterisk", "plus", "comma", "hyphen",
	"period", "slash", "zero", "one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "colon", "semicolon", "less", "equal",
	"greater", "question", "at", "A", "B", "C", "D", "E", "F", "G", "H",
	"I", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T", "U", "V",
	"W", "X", "Y", "Z", "bracketleft", "backslash", "bracketright",
	"asciicircum", "underscore", "grave", "a", "b", "c", "d", "e", "f",
	"g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r", "s", "t",
	"u", "v", "w", "x", "y", "z", "braceleft", "bar", "braceright",
	"asciitilde", "Adieresis", "Aring", "Ccedilla", "Eacute", "Ntilde",
	"Odieresis", "Udieresis", "aacute", "agrave", "acircumflex",
	"adieresis", "atilde", "aring", "ccedilla", "eacute", "egrave",
	"ecircumflex", "edieresis", "iacute", "igrave", "icircumflex",
	"idieresis", "ntilde", "oacute", "ograve", "ocircumflex", "odieresis",
	"otilde", "uacute", "ugrave", "ucircumflex", "udieresis", "dagger",
	"degree", "cent", "sterling", "section", "bullet", "paragraph",
	"germandbls", "registered", "copyright", "trademark", "acute",
	"dieresis", "notequal", "AE", "Oslash", "infinity", "plusminus",
	"lessequal", "greaterequal", "yen", "mu", "partialdiff", "summation",
	"product", "pi", "integral", "ordfeminine", "ordmasculine", "Omega",
	"ae", "oslash", "questiondown", "exclamdown", "logicalnot", "radical",
	"florin", "approxequal", "Delta", "guillemotleft", "guillemotright",
	"ellipsis", "nonbreakingspace", "Agrave", "Atilde", "Otilde", "OE",
	"oe", "endash", "emdash", "quotedblleft", "quotedblright", "quoteleft",
	"quoteright", "divide", "lozenge", "ydieresis", "Ydieresis",
	"fraction", "currency", "guilsinglleft", "guilsinglright", "fi", "fl",
	"daggerdbl", "periodcentered", "quotesinglbase", "quotedblbase",
	"perthousand", "Acircumflex", "Ecircumflex", "Aacute", "Edieresis",
	"Egrave", "Iacute", "Icircumflex", "Idieresis", "Igrave", "Oacute",
	"Ocircumflex", "apple", "Ograve", "Uacute", "Ucircumflex", "Ugrave",
	"dotlessi", "circumflex", "tilde", "macron", "breve", "dotaccent",
	"ring", "cedilla", "hungarumlaut", "ogonek", "caron", "Lslash",
	"lslash", "Scaron", "scaron", "Zcaron", "zcaron", "brokenbar", "Eth",
	"eth", "Yacute", "yacute", "Thorn", "thorn", "minus", "multiply",
	"onesuperior", "twosuperior", "threesuperior", "onehalf", "onequarter",
	"threequarters", "franc", "Gbreve", "gbreve", "Idotaccent", "Scedilla",
	"scedilla", "Cacute", "cacute", "Ccaron", "ccaron", "dcroat",
}

// GlyphNamesFromPost returns the per-glyph name for every glyph index in a
// version 2.0 post table, or nil if data is not a version 2.0 table (or
// is malformed). Callers that need a name for every glyph regardless of
// post version should fall back to a synthesized name.
func GlyphNamesFromPost(data []byte, numGlyphs int) []string {
	if len(data) < 34 {
		return nil
	}
	version := binary.BigEndian.Uint32(data[0:])
	if version != 0x00020000 {
		return nil
	}

	count := int(binary.BigEndian.Uint16(data[32:]))
	if count != numGlyphs || 34+count*2 > len(data) {
		return nil
	}

	indices := make([]uint16, count)
	for i := 0; i < count; i++ {
		indices[i] = binary.BigEndian.Uint16(data[34+i*2:])
	}

	pascalOff := 34 + count*2
	var pascalNames []string
	for pascalOff < len(data) {
		n := int(data[pascalOff])
		pascalOff++
		if pascalOff+n > len(data) {
			break
		}
		pascalNames = append(pascalNames, string(data[pascalOff:pascalOff+n]))
		pascalOff += n
	}

	names := make([]string, count)
	for i, idx := range indices {
		if idx < 258 {
			if int(idx) < len(macGlyphOrder) {
				names[i] = macGlyphOrder[idx]
			}
			continue
		}
		pi := int(idx) - 258
		if pi >= 0 && pi < len(pascalNames) {
			names[i] = pascalNames[pi]
		}
	}
	return names
}

// SynthesizedGlyphName produces the fallback name the merger uses for a
// glyph with no name in its post table: glyphNNNNN, zero padded to five
// digits, matching fonttools' convention for name-less glyphs.
func SynthesizedGlyphName(gid GlyphID) string {
	digits := [5]byte{}
	n := int(gid)
	for i := 4; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return "glyph" + string(digits[:])
}

// BuildPostV3 emits a version 3.0 post table (no glyph names, used when
// zapping names or when the merger cannot construct a unified name list).
func BuildPostV3(italicAngle int32, underlinePosition, underlineThickness int16, isFixedPitch uint32) []byte {
	data := make([]byte, 32)
	binary.BigEndian.PutUint32(data[0:], 0x00030000)
	binary.BigEndian.PutUint32(data[4:], uint32(italicAngle))
	binary.BigEndian.PutUint16(data[8:], uint16(underlinePosition))
	binary.BigEndian.PutUint16(data[10:], uint16(underlineThickness))
	binary.BigEndian.PutUint32(data[12:], isFixedPitch)
	return data
}

// BuildPostV2 emits a version 2.0 post table with an explicit glyph name
// for every glyph, used by the merger to carry a unified glyph-name list
// forward.
func BuildPostV2(italicAngle int32, underlinePosition, underlineThickness int16, isFixedPitch uint32, names []string) []byte {
	header := make([]byte, 34)
	binary.BigEndian.PutUint32(header[0:], 0x00020000)
	binary.BigEndian.PutUint32(header[4:], uint32(italicAngle))
	binary.BigEndian.PutUint16(header[8:], uint16(underlinePosition))
	binary.BigEndian.PutUint16(header[10:], uint16(underlineThickness))
	binary.BigEndian.PutUint32(header[12:], isFixedPitch)
	binary.BigEndian.PutUint16(header[32:], uint16(len(names)))

	macIndex := make(map[string]uint16, len(macGlyphOrder))
	for i, n := range macGlyphOrder {
		macIndex[n] = uint16(i)
	}

	indices := make([]byte, len(names)*2)
	var pascal []byte
	nextCustom := uint16(258)
	for i, name := range names {
		var idx uint16
		if mi, ok := macIndex[name]; ok {
			idx = mi
		} else {
			idx = nextCustom
			nextCustom++
			n := name
			if len(n) > 255 {
				n = n[:255]
			}
			pascal = append(pascal, byte(len(n)))
			pascal = append(pascal, n...)
		}
		binary.BigEndian.PutUint16(indices[i*2:], idx)
	}

	out := make([]byte, 0, len(header)+len(indices)+len(pascal))
	out = append(out, header...)
	out = append(out, indices...)
	out = append(out, pascal...)
	return out
}
