package merge

import (
	"fmt"

	"github.com/glyphkit/corefont/ot"
)

// glyphOrder is the unified glyph inventory produced by folding every
// input font's own glyph order into one list: a mega glyph ID per
// unified name, plus, per input font, the map from that font's own
// glyph IDs to the mega glyph IDs they were assigned.
type glyphOrder struct {
	names  []string                    // mega GID -> unified name
	remaps []map[ot.GlyphID]ot.GlyphID // per font index: source GID -> mega GID
}

// unifyGlyphOrder walks every font's glyph names in source-GID order and
// appends them to one running list, renaming on collision by appending
// ".N", where N counts how many times the name was already claimed. This
// mirrors the way font-merging tools (and subset's own post-table
// handling) treat glyph names as the only stable cross-font identity a
// glyph carries.
func unifyGlyphOrder(inputs []*inputFont) *glyphOrder {
	seen := make(map[string]int)
	var names []string
	remaps := make([]map[ot.GlyphID]ot.GlyphID, len(inputs))

	for fi, in := range inputs {
		numGlyphs := in.font.NumGlyphs()
		sourceNames := glyphNamesFor(in.font, numGlyphs)
		remap := make(map[ot.GlyphID]ot.GlyphID, numGlyphs)

		for gid := 0; gid < numGlyphs; gid++ {
			name := sourceNames[gid]
			unique := name
			if prior, ok := seen[name]; ok {
				unique = fmt.Sprintf("%s.%d", name, prior)
			}
			seen[name]++

			mega := ot.GlyphID(len(names))
			names = append(names, unique)
			remap[ot.GlyphID(gid)] = mega
		}
		remaps[fi] = remap
	}

	return &glyphOrder{names: names, remaps: remaps}
}

// glyphNamesFor returns one name per glyph: the post table's names where
// the font carries a fully-named post (version 2.0), or synthesized
// "glyphNNNNN" names otherwise (version 1.0/3.0 post, or no post table
// at all).
func glyphNamesFor(font *ot.Font, numGlyphs int) []string {
	if data, err := font.TableData(ot.TagPost); err == nil {
		if names := ot.GlyphNamesFromPost(data, numGlyphs); names != nil && allNamed(names) {
			return names
		}
	}

	names := make([]string, numGlyphs)
	for i := range names {
		names[i] = ot.SynthesizedGlyphName(ot.GlyphID(i))
	}
	return names
}

func allNamed(names []string) bool {
	for _, n := range names {
		if n == "" {
			return false
		}
	}
	return true
}
