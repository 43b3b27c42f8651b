package merge

import "github.com/glyphkit/corefont/ot"

// locEntry records a codepoint whose claim was lost to an earlier font:
// laterGID is the glyph the later font would have reached for this
// codepoint had it shipped alone, earlierGID is the glyph the merged
// cmap actually resolves the codepoint to.
type locEntry struct {
	fontIndex  int
	cp         rune
	laterGID   ot.GlyphID
	earlierGID ot.GlyphID
}

// synthesizeCmap walks every input font's cmap, preferring each font's
// best subtable the same way ot.ParseCmap already ranks them (format 12
// over format 4 over anything else), and resolves every codepoint to a
// mega glyph ID through that font's unified-name remap. The first font
// to claim a codepoint wins it in the output cmap; every later claim is
// recorded as a collision so the GSUB merge can synthesize a 'locl'
// substitution reaching the shadowed glyph.
func synthesizeCmap(inputs []*inputFont, order *glyphOrder) ([]ot.CmapMapping, []locEntry) {
	claimed := make(map[rune]ot.GlyphID)
	var mappings []ot.CmapMapping
	var collisions []locEntry

	for fi, in := range inputs {
		data, err := in.font.TableData(ot.TagCmap)
		if err != nil {
			continue
		}
		cm, err := ot.ParseCmap(data)
		if err != nil {
			continue
		}
		remap := order.remaps[fi]

		for cp, gid := range cm.CollectMapping() {
			mega, ok := remap[gid]
			if !ok {
				continue
			}
			if existing, already := claimed[cp]; already {
				collisions = append(collisions, locEntry{
					fontIndex:  fi,
					cp:         cp,
					laterGID:   mega,
					earlierGID: existing,
				})
				continue
			}
			claimed[cp] = mega
			mappings = append(mappings, ot.CmapMapping{CP: cp, GID: mega})
		}
	}

	return mappings, collisions
}
