package merge

import "github.com/glyphkit/corefont/ot"

// mergeGPOS folds every input font's positioning rules into one table,
// remapping glyph IDs the same way mergeGSUB does. Scope is narrower than
// GSUB's: only single-adjustment and explicit-pair-set kerning survive.
// Cursive attachment, mark attachment (base/ligature/mark), context and
// chaining context, extension lookups, and class-based pair kerning
// (PairPos format 2) are all dropped, the same kind of narrowing
// spec.md's own "Extension lookups are skipped" note already accepts for
// the rest of the pipeline; nothing in this codebase models device
// tables either, so value records round-trip without them.
func mergeGPOS(inputs []*inputFont, order *glyphOrder) []byte {
	lb := &layoutBuilder{}

	for fi, in := range inputs {
		data, err := in.font.TableData(ot.TagGPOS)
		if err != nil {
			continue
		}
		gpos, err := ot.ParseGPOS(data)
		if err != nil {
			continue
		}
		remap := order.remaps[fi]

		localToGlobalLookup := make(map[int]uint16)
		for li := 0; li < gpos.NumLookups(); li++ {
			lookup := gpos.GetLookup(li)
			if lookup == nil {
				continue
			}
			subtables := remapGPOSLookup(lookup, remap)
			if idx, ok := lb.addLookup(lookup.Type, lookup.Flag, subtables); ok {
				localToGlobalLookup[li] = idx
			}
		}

		featList, err := gpos.ParseFeatureList()
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

		scriptList, err := gpos.ParseScriptList()
		if err != nil {
			continue
		}
		lb.mergeScriptList(scriptList, localFeatureToGlobal)
	}

	return lb.build()
}

func remapGPOSLookup(lookup *ot.GPOSLookup, remap map[ot.GlyphID]ot.GlyphID) [][]byte {
	var subtables [][]byte
	for _, st := range lookup.Subtables() {
		var data []byte
		switch s := st.(type) {
		case *ot.SinglePos:
			data = remapSinglePos(s, remap)
		case *ot.PairPos:
			data = remapPairPos(s, remap)
		}
		if len(data) > 0 {
			subtables = append(subtables, data)
		}
	}
	return subtables
}

// remapSinglePos normalizes both source formats (one shared value record,
// or one per glyph) down to per-glyph records, since merging may drop
// some of the covered glyphs and a single shared adjustment can no
// longer be assumed to apply evenly once that happens.
func remapSinglePos(st *ot.SinglePos, remap map[ot.GlyphID]ot.GlyphID) []byte {
	type entry struct {
		glyph ot.GlyphID
		value ot.ValueRecord
	}
	var entries []entry

	switch st.Format() {
	case 1:
		vr := st.ValueRecord()
		for _, g := range st.Coverage().Glyphs() {
			if ng, ok := remap[g]; ok {
				entries = append(entries, entry{ng, vr})
			}
		}
	case 2:
		glyphs := st.Coverage().Glyphs()
		values := st.ValueRecords()
		for i, g := range glyphs {
			if i >= len(values) {
				break
			}
			if ng, ok := remap[g]; ok {
				entries = append(entries, entry{ng, values[i]})
			}
		}
	default:
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	glyphs := make([]ot.GlyphID, len(entries))
	for i, e := range entries {
		glyphs[i] = e.glyph
	}
	coverage := buildCoverageFormat1(glyphs)

	const valueFormat = 0x000F
	headerSize := 8
	var body []byte
	for _, e := range entries {
		body = append(body, buildValueRecord(e.value)...)
	}

	data := make([]byte, headerSize+len(body)+len(coverage))
	dataPutU16(data, 0, 2)
	dataPutU16(data, 2, uint16(headerSize+len(body)))
	dataPutU16(data, 4, valueFormat)
	dataPutU16(data, 6, uint16(len(entries)))
	copy(data[headerSize:], body)
	copy(data[headerSize+len(body):], coverage)
	return data
}

// remapPairPos carries forward only explicit pair sets (format 1);
// class-based kerning (format 2) is dropped entirely, per mergeGPOS's
// doc comment.
func remapPairPos(st *ot.PairPos, remap map[ot.GlyphID]ot.GlyphID) []byte {
	if st.Format() != 1 {
		return nil
	}

	type pair struct {
		second ot.GlyphID
		v1, v2 ot.ValueRecord
	}
	type firstEntry struct {
		first ot.GlyphID
		pairs []pair
	}

	pairSets := st.PairSets()
	covGlyphs := st.Coverage().Glyphs()
	var firsts []firstEntry

	for i, set := range pairSets {
		if i >= len(covGlyphs) {
			break
		}
		newFirst, ok := remap[covGlyphs[i]]
		if !ok {
			continue
		}
		var pairs []pair
		for _, rec := range set {
			if newSecond, ok := remap[rec.SecondGlyph]; ok {
				pairs = append(pairs, pair{newSecond, rec.Value1, rec.Value2})
			}
		}
		if len(pairs) > 0 {
			firsts = append(firsts, firstEntry{newFirst, pairs})
		}
	}
	if len(firsts) == 0 {
		return nil
	}

	glyphs := make([]ot.GlyphID, len(firsts))
	for i, f := range firsts {
		glyphs[i] = f.first
	}
	coverage := buildCoverageFormat1(glyphs)

	const valueFormat1 = 0x000F
	const valueFormat2 = 0x000F
	headerSize := 10 + len(firsts)*2
	var setData []byte
	setOffsets := make([]uint16, len(firsts))
	for i, f := range firsts {
		setOffsets[i] = uint16(headerSize + len(setData))
		set := make([]byte, 2)
		dataPutU16(set, 0, uint16(len(f.pairs)))
		for _, p := range f.pairs {
			rec := make([]byte, 2)
			dataPutU16(rec, 0, uint16(p.second))
			rec = append(rec, buildValueRecord(p.v1)...)
			rec = append(rec, buildValueRecord(p.v2)...)
			set = append(set, rec...)
		}
		setData = append(setData, set...)
	}

	data := make([]byte, headerSize+len(setData)+len(coverage))
	dataPutU16(data, 0, 1)
	dataPutU16(data, 2, uint16(headerSize+len(setData)))
	dataPutU16(data, 4, valueFormat1)
	dataPutU16(data, 6, valueFormat2)
	dataPutU16(data, 8, uint16(len(firsts)))
	for i, off := range setOffsets {
		dataPutU16(data, 10+i*2, off)
	}
	copy(data[headerSize:], setData)
	copy(data[headerSize+len(setData):], coverage)
	return data
}

// buildValueRecord always emits the full four-field format (XPlacement,
// YPlacement, XAdvance, YAdvance); device tables aren't modeled anywhere
// in this codebase so there is nothing else to round-trip.
func buildValueRecord(vr ot.ValueRecord) []byte {
	out := make([]byte, 8)
	dataPutU16(out, 0, uint16(vr.XPlacement))
	dataPutU16(out, 2, uint16(vr.YPlacement))
	dataPutU16(out, 4, uint16(vr.XAdvance))
	dataPutU16(out, 6, uint16(vr.YAdvance))
	return out
}
