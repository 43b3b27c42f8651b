package merge

import (
	"sort"

	"github.com/glyphkit/corefont/ot"
)

// mergeGSUB folds every input font's substitution rules into one output
// table, remapping glyph IDs through each font's unified-name map as it
// goes. Only Single, Multiple, Alternate and Ligature substitution
// lookups are carried forward; this is the same scope subset/gsub.go
// already applies to a single font's rules (its own builder carries a
// literal "TODO: Context, ChainContext, Extension"), so merge narrows no
// further than subsetting already does. After every font is folded in,
// one extra lookup is synthesized from the cmap merge's collision list:
// a 'locl' feature reaching whichever glyph a later font's codepoint
// claim was shadowed by the earlier font that already owned it.
func mergeGSUB(inputs []*inputFont, order *glyphOrder, collisions []locEntry) []byte {
	lb := &layoutBuilder{}

	for fi, in := range inputs {
		data, err := in.font.TableData(ot.TagGSUB)
		if err != nil {
			continue
		}
		gsub, err := ot.ParseGSUB(data)
		if err != nil {
			continue
		}
		remap := order.remaps[fi]

		localToGlobalLookup := make(map[int]uint16)
		for li := 0; li < gsub.NumLookups(); li++ {
			lookup := gsub.GetLookup(li)
			if lookup == nil {
				continue
			}
			subtables := remapGSUBLookup(lookup, remap)
			if idx, ok := lb.addLookup(lookup.Type, lookup.Flag, subtables); ok {
				localToGlobalLookup[li] = idx
			}
		}

		featList, err := gsub.ParseFeatureList()
		if err != nil {
			continue
		}
		localFeatureToGlobal := make(map[uint16]uint16)
		for i := 0; i < featList.Count(); i++ {
			rec, err := featList.GetFeature(i)
			if err != nil {
				continue
			}
			var globalLookups []uint16
			for _, li := range rec.Lookups {
				if gi, ok := localToGlobalLookup[int(li)]; ok {
					globalLookups = append(globalLookups, gi)
				}
			}
			if idx, ok := lb.addFeature(rec.Tag, globalLookups); ok {
				localFeatureToGlobal[uint16(i)] = idx
			}
		}

		scriptList, err := gsub.ParseScriptList()
		if err != nil {
			continue
		}
		lb.mergeScriptList(scriptList, localFeatureToGlobal)
	}

	if feature, ok := buildLoclFeature(lb, collisions); ok {
		lb.addToEveryScript(feature)
	}

	return lb.build()
}

// remapGSUBLookup rebuilds a lookup's subtables with glyph IDs remapped
// through remap, dropping any rule that references a glyph the font's
// own remap doesn't cover (which cannot normally happen, since remap
// carries every glyph in the font, but protects against a malformed
// lookup referencing an out-of-range glyph).
func remapGSUBLookup(lookup *ot.GSUBLookup, remap map[ot.GlyphID]ot.GlyphID) [][]byte {
	var subtables [][]byte
	for _, st := range lookup.Subtables() {
		var data []byte
		switch s := st.(type) {
		case *ot.SingleSubst:
			data = remapSingleSubst(s, remap)
		case *ot.MultipleSubst:
			data = remapMultipleSubst(s, remap)
		case *ot.AlternateSubst:
			data = remapAlternateSubst(s, remap)
		case *ot.LigatureSubst:
			data = remapLigatureSubst(s, remap)
		}
		if len(data) > 0 {
			subtables = append(subtables, data)
		}
	}
	return subtables
}

type singleSubstEntry struct{ in, out ot.GlyphID }

func remapSingleSubst(st *ot.SingleSubst, remap map[ot.GlyphID]ot.GlyphID) []byte {
	var entries []singleSubstEntry
	for in, out := range st.Mapping() {
		newIn, okIn := remap[in]
		newOut, okOut := remap[out]
		if okIn && okOut {
			entries = append(entries, singleSubstEntry{newIn, newOut})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].in < entries[j].in })

	glyphs := make([]ot.GlyphID, len(entries))
	for i, e := range entries {
		glyphs[i] = e.in
	}
	coverage := buildCoverageFormat1(glyphs)

	headerSize := 6 + len(entries)*2
	data := make([]byte, headerSize+len(coverage))
	dataPutU16(data, 0, 2)
	dataPutU16(data, 2, uint16(headerSize))
	dataPutU16(data, 4, uint16(len(entries)))
	for i, e := range entries {
		dataPutU16(data, 6+i*2, uint16(e.out))
	}
	copy(data[headerSize:], coverage)
	return data
}

func remapMultipleSubst(st *ot.MultipleSubst, remap map[ot.GlyphID]ot.GlyphID) []byte {
	type entry struct {
		in  ot.GlyphID
		out []ot.GlyphID
	}
	var entries []entry
	for in, outs := range st.Mapping() {
		newIn, ok := remap[in]
		if !ok {
			continue
		}
		newOuts := make([]ot.GlyphID, 0, len(outs))
		allOk := true
		for _, g := range outs {
			if ng, ok := remap[g]; ok {
				newOuts = append(newOuts, ng)
			} else {
				allOk = false
				break
			}
		}
		if allOk {
			entries = append(entries, entry{newIn, newOuts})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].in < entries[j].in })

	glyphs := make([]ot.GlyphID, len(entries))
	for i, e := range entries {
		glyphs[i] = e.in
	}
	coverage := buildCoverageFormat1(glyphs)

	headerSize := 6 + len(entries)*2
	var seqData []byte
	seqOffsets := make([]uint16, len(entries))
	for i, e := range entries {
		seqOffsets[i] = uint16(headerSize + len(seqData))
		seq := make([]byte, 2+len(e.out)*2)
		dataPutU16(seq, 0, uint16(len(e.out)))
		for j, g := range e.out {
			dataPutU16(seq, 2+j*2, uint16(g))
		}
		seqData = append(seqData, seq...)
	}

	data := make([]byte, headerSize+len(seqData)+len(coverage))
	dataPutU16(data, 0, 1)
	dataPutU16(data, 2, uint16(headerSize+len(seqData)))
	dataPutU16(data, 4, uint16(len(entries)))
	for i, off := range seqOffsets {
		dataPutU16(data, 6+i*2, off)
	}
	copy(data[headerSize:], seqData)
	copy(data[headerSize+len(seqData):], coverage)
	return data
}

func remapAlternateSubst(st *ot.AlternateSubst, remap map[ot.GlyphID]ot.GlyphID) []byte {
	type entry struct {
		in   ot.GlyphID
		alts []ot.GlyphID
	}
	var entries []entry
	for in, alts := range st.Mapping() {
		newIn, ok := remap[in]
		if !ok {
			continue
		}
		newAlts := make([]ot.GlyphID, 0, len(alts))
		for _, g := range alts {
			if ng, ok := remap[g]; ok {
				newAlts = append(newAlts, ng)
			}
		}
		if len(newAlts) > 0 {
			entries = append(entries, entry{newIn, newAlts})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].in < entries[j].in })

	glyphs := make([]ot.GlyphID, len(entries))
	for i, e := range entries {
		glyphs[i] = e.in
	}
	coverage := buildCoverageFormat1(glyphs)

	headerSize := 6 + len(entries)*2
	var altData []byte
	altOffsets := make([]uint16, len(entries))
	for i, e := range entries {
		altOffsets[i] = uint16(headerSize + len(altData))
		set := make([]byte, 2+len(e.alts)*2)
		dataPutU16(set, 0, uint16(len(e.alts)))
		for j, g := range e.alts {
			dataPutU16(set, 2+j*2, uint16(g))
		}
		altData = append(altData, set...)
	}

	data := make([]byte, headerSize+len(altData)+len(coverage))
	dataPutU16(data, 0, 1)
	dataPutU16(data, 2, uint16(headerSize+len(altData)))
	dataPutU16(data, 4, uint16(len(entries)))
	for i, off := range altOffsets {
		dataPutU16(data, 6+i*2, off)
	}
	copy(data[headerSize:], altData)
	copy(data[headerSize+len(altData):], coverage)
	return data
}

func remapLigatureSubst(st *ot.LigatureSubst, remap map[ot.GlyphID]ot.GlyphID) []byte {
	type ligEntry struct {
		ligGlyph ot.GlyphID
		comps    []ot.GlyphID
	}
	type setEntry struct {
		first ot.GlyphID
		ligs  []ligEntry
	}

	ligSets := st.LigatureSets()
	covGlyphs := st.Coverage().Glyphs()
	var sets []setEntry

	for i, ligSet := range ligSets {
		if i >= len(covGlyphs) {
			break
		}
		newFirst, ok := remap[covGlyphs[i]]
		if !ok {
			continue
		}
		var ligs []ligEntry
		for _, lig := range ligSet {
			newLig, ok := remap[lig.LigGlyph]
			if !ok {
				continue
			}
			comps := make([]ot.GlyphID, 0, len(lig.Components))
			allOk := true
			for _, c := range lig.Components {
				if nc, ok := remap[c]; ok {
					comps = append(comps, nc)
				} else {
					allOk = false
					break
				}
			}
			if allOk {
				ligs = append(ligs, ligEntry{newLig, comps})
			}
		}
		if len(ligs) > 0 {
			sets = append(sets, setEntry{newFirst, ligs})
		}
	}
	if len(sets) == 0 {
		return nil
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].first < sets[j].first })

	glyphs := make([]ot.GlyphID, len(sets))
	for i, s := range sets {
		glyphs[i] = s.first
	}
	coverage := buildCoverageFormat1(glyphs)

	headerSize := 6 + len(sets)*2
	var setData []byte
	setOffsets := make([]uint16, len(sets))
	for i, set := range sets {
		setOffsets[i] = uint16(headerSize + len(setData))
		setHeaderSize := 2 + len(set.ligs)*2
		var ligTables []byte
		ligOffsets := make([]uint16, len(set.ligs))
		for j, lig := range set.ligs {
			ligOffsets[j] = uint16(setHeaderSize + len(ligTables))
			table := make([]byte, 4+len(lig.comps)*2)
			dataPutU16(table, 0, uint16(lig.ligGlyph))
			dataPutU16(table, 2, uint16(len(lig.comps)+1))
			for k, c := range lig.comps {
				dataPutU16(table, 4+k*2, uint16(c))
			}
			ligTables = append(ligTables, table...)
		}
		setTable := make([]byte, setHeaderSize+len(ligTables))
		dataPutU16(setTable, 0, uint16(len(set.ligs)))
		for j, off := range ligOffsets {
			dataPutU16(setTable, 2+j*2, off)
		}
		copy(setTable[setHeaderSize:], ligTables)
		setData = append(setData, setTable...)
	}

	data := make([]byte, headerSize+len(setData)+len(coverage))
	dataPutU16(data, 0, 1)
	dataPutU16(data, 2, uint16(headerSize+len(setData)))
	dataPutU16(data, 4, uint16(len(sets)))
	for i, off := range setOffsets {
		dataPutU16(data, 6+i*2, off)
	}
	copy(data[headerSize:], setData)
	copy(data[headerSize+len(setData):], coverage)
	return data
}

// buildLoclFeature synthesizes a single substitution lookup mapping each
// collision's cmap-resolved (earlier font's) glyph to the later font's
// shadowed glyph, wraps
// it in a 'locl' feature, and returns its global feature index. Returns
// ok=false when there were no collisions to recover.
func buildLoclFeature(lb *layoutBuilder, collisions []locEntry) (uint16, bool) {
	if len(collisions) == 0 {
		return 0, false
	}

	entries := make([]singleSubstEntry, 0, len(collisions))
	seen := make(map[ot.GlyphID]bool)
	for _, c := range collisions {
		if seen[c.earlierGID] {
			continue
		}
		seen[c.earlierGID] = true
		entries = append(entries, singleSubstEntry{in: c.earlierGID, out: c.laterGID})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].in < entries[j].in })

	glyphs := make([]ot.GlyphID, len(entries))
	for i, e := range entries {
		glyphs[i] = e.in
	}
	coverage := buildCoverageFormat1(glyphs)

	headerSize := 6 + len(entries)*2
	subtable := make([]byte, headerSize+len(coverage))
	dataPutU16(subtable, 0, 2)
	dataPutU16(subtable, 2, uint16(headerSize))
	dataPutU16(subtable, 4, uint16(len(entries)))
	for i, e := range entries {
		dataPutU16(subtable, 6+i*2, uint16(e.out))
	}
	copy(subtable[headerSize:], coverage)

	lookupIdx, ok := lb.addLookup(1, 0, [][]byte{subtable})
	if !ok {
		return 0, false
	}
	return lb.addFeature(ot.MakeTag('l', 'o', 'c', 'l'), []uint16{lookupIdx})
}

func dataPutU16(b []byte, off int, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}
