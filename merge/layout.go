package merge

import (
	"encoding/binary"
	"sort"

	"github.com/glyphkit/corefont/ot"
)

// builtLookup is one output GSUB/GPOS lookup: its type and flag carried
// straight from the source font, and its subtable bytes already remapped
// to mega glyph IDs.
type builtLookup struct {
	lookupType uint16
	flag       uint16
	subtables  [][]byte
}

type builtFeature struct {
	tag     ot.Tag
	lookups []uint16
}

// langSysEntry is one script's language system: tag 0 names the script's
// default language system, any other tag names one of its explicit ones.
type langSysEntry struct {
	tag      ot.Tag
	features []uint16
}

type builtScript struct {
	tag      ot.Tag
	langSyss []langSysEntry
}

// layoutBuilder accumulates a merged GSUB or GPOS table across every
// input font. GSUB and GPOS share an identical ScriptList/FeatureList/
// LookupList wire layout; only the subtable bytes inside a lookup differ
// between the two, so this builder is shared and the two lookup-type-
// specific merge passes (gsub.go, gpos.go) only produce subtable bytes
// and hand them here.
type layoutBuilder struct {
	lookups  []builtLookup
	features []builtFeature
	scripts  []builtScript
}

// addLookup appends a lookup built from non-empty subtable bytes and
// returns its global index; ok is false (and nothing is appended) when
// every subtable in this lookup vanished during remapping.
func (lb *layoutBuilder) addLookup(lookupType, flag uint16, subtables [][]byte) (idx uint16, ok bool) {
	if len(subtables) == 0 {
		return 0, false
	}
	idx = uint16(len(lb.lookups))
	lb.lookups = append(lb.lookups, builtLookup{lookupType: lookupType, flag: flag, subtables: subtables})
	return idx, true
}

// addFeature appends a feature referencing already-global lookup indices;
// ok is false when every one of the feature's lookups was dropped.
func (lb *layoutBuilder) addFeature(tag ot.Tag, lookups []uint16) (idx uint16, ok bool) {
	if len(lookups) == 0 {
		return 0, false
	}
	idx = uint16(len(lb.features))
	lb.features = append(lb.features, builtFeature{tag: tag, lookups: lookups})
	return idx, true
}

func (lb *layoutBuilder) scriptBucket(tag ot.Tag) *builtScript {
	for i := range lb.scripts {
		if lb.scripts[i].tag == tag {
			return &lb.scripts[i]
		}
	}
	lb.scripts = append(lb.scripts, builtScript{tag: tag})
	return &lb.scripts[len(lb.scripts)-1]
}

func (s *builtScript) langSys(tag ot.Tag) *langSysEntry {
	for i := range s.langSyss {
		if s.langSyss[i].tag == tag {
			return &s.langSyss[i]
		}
	}
	s.langSyss = append(s.langSyss, langSysEntry{tag: tag})
	return &s.langSyss[len(s.langSyss)-1]
}

// mergeScriptList folds one font's ScriptList into lb, translating each
// language system's feature indices through localFeatureToGlobal (built
// by the caller while appending that font's FeatureList) and dropping
// any feature that didn't survive. When two fonts both declare rules for
// the same script, their per-language feature sets simply accumulate:
// shapers apply whichever features a language system lists, so folding
// two fonts' lists together just widens what a script/language run can
// reach.
func (lb *layoutBuilder) mergeScriptList(sl *ot.ScriptList, localFeatureToGlobal map[uint16]uint16) {
	if sl == nil {
		return
	}
	for _, script := range sl.Scripts {
		bucket := lb.scriptBucket(script.Tag)
		addLangSys := func(tag ot.Tag, ls *ot.LangSys) {
			if ls == nil {
				return
			}
			var translated []uint16
			for _, fi := range ls.FeatureIndices {
				if gi, ok := localFeatureToGlobal[fi]; ok {
					translated = append(translated, gi)
				}
			}
			if len(translated) == 0 {
				return
			}
			entry := bucket.langSys(tag)
			entry.features = append(entry.features, translated...)
		}
		addLangSys(0, script.DefaultLangSys)
		for _, r := range script.LangSysRecords {
			addLangSys(r.Tag, r.LangSys)
		}
	}
}

// addToEveryScript appends featureIdx to every script bucket's every
// language system (falling back to each script's default if it has no
// named language systems yet). Used for the 'locl' feature the cmap
// merge's collision handling synthesizes: every script needs a path to
// the lookup that recovers a later font's shadowed glyph.
func (lb *layoutBuilder) addToEveryScript(featureIdx uint16) {
	if len(lb.scripts) == 0 {
		bucket := lb.scriptBucket(ot.MakeTag('D', 'F', 'L', 'T'))
		bucket.langSys(0).features = append(bucket.langSys(0).features, featureIdx)
		return
	}
	for i := range lb.scripts {
		if len(lb.scripts[i].langSyss) == 0 {
			lb.scripts[i].langSys(0).features = append(lb.scripts[i].langSys(0).features, featureIdx)
			continue
		}
		for j := range lb.scripts[i].langSyss {
			lb.scripts[i].langSyss[j].features = append(lb.scripts[i].langSyss[j].features, featureIdx)
		}
	}
}

// build serializes the accumulated lookups/features/scripts into a
// complete GSUB/GPOS table (version 1.0), or nil if no lookup survived.
func (lb *layoutBuilder) build() []byte {
	if len(lb.lookups) == 0 {
		return nil
	}

	lookupList := lb.buildLookupList()
	featureList := lb.buildFeatureList()
	scriptList := lb.buildScriptListBytes()

	headerSize := 10
	scriptListOff := headerSize
	featureListOff := scriptListOff + len(scriptList)
	lookupListOff := featureListOff + len(featureList)

	out := make([]byte, lookupListOff+len(lookupList))
	binary.BigEndian.PutUint16(out[0:], 1)
	binary.BigEndian.PutUint16(out[2:], 0)
	binary.BigEndian.PutUint16(out[4:], uint16(scriptListOff))
	binary.BigEndian.PutUint16(out[6:], uint16(featureListOff))
	binary.BigEndian.PutUint16(out[8:], uint16(lookupListOff))
	copy(out[scriptListOff:], scriptList)
	copy(out[featureListOff:], featureList)
	copy(out[lookupListOff:], lookupList)
	return out
}

func (lb *layoutBuilder) buildLookupList() []byte {
	headerSize := 2 + len(lb.lookups)*2
	var body []byte
	offsets := make([]uint16, len(lb.lookups))

	for i, lk := range lb.lookups {
		offsets[i] = uint16(headerSize + len(body))
		lookupHeaderSize := 6 + len(lk.subtables)*2
		var subData []byte
		subOffsets := make([]uint16, len(lk.subtables))
		for j, st := range lk.subtables {
			subOffsets[j] = uint16(lookupHeaderSize + len(subData))
			subData = append(subData, st...)
		}
		lt := make([]byte, lookupHeaderSize+len(subData))
		binary.BigEndian.PutUint16(lt[0:], lk.lookupType)
		binary.BigEndian.PutUint16(lt[2:], lk.flag)
		binary.BigEndian.PutUint16(lt[4:], uint16(len(lk.subtables)))
		for j, off := range subOffsets {
			binary.BigEndian.PutUint16(lt[6+j*2:], off)
		}
		copy(lt[lookupHeaderSize:], subData)
		body = append(body, lt...)
	}

	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(out[0:], uint16(len(lb.lookups)))
	for i, off := range offsets {
		binary.BigEndian.PutUint16(out[2+i*2:], off)
	}
	copy(out[headerSize:], body)
	return out
}

func (lb *layoutBuilder) buildFeatureList() []byte {
	headerSize := 2 + len(lb.features)*6
	var body []byte
	offsets := make([]uint16, len(lb.features))

	for i, f := range lb.features {
		offsets[i] = uint16(headerSize + len(body))
		feat := make([]byte, 4+len(f.lookups)*2)
		binary.BigEndian.PutUint16(feat[2:], uint16(len(f.lookups)))
		for j, li := range f.lookups {
			binary.BigEndian.PutUint16(feat[4+j*2:], li)
		}
		body = append(body, feat...)
	}

	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(out[0:], uint16(len(lb.features)))
	for i, f := range lb.features {
		recOff := 2 + i*6
		binary.BigEndian.PutUint32(out[recOff:], uint32(f.tag))
		binary.BigEndian.PutUint16(out[recOff+4:], offsets[i])
	}
	copy(out[headerSize:], body)
	return out
}

func (lb *layoutBuilder) buildScriptListBytes() []byte {
	scripts := append([]builtScript(nil), lb.scripts...)
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].tag < scripts[j].tag })

	headerSize := 2 + len(scripts)*6
	var body []byte
	offsets := make([]uint16, len(scripts))

	for i, s := range scripts {
		offsets[i] = uint16(headerSize + len(body))
		body = append(body, buildScriptTable(s)...)
	}

	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(out[0:], uint16(len(scripts)))
	for i, s := range scripts {
		recOff := 2 + i*6
		binary.BigEndian.PutUint32(out[recOff:], uint32(s.tag))
		binary.BigEndian.PutUint16(out[recOff+4:], offsets[i])
	}
	copy(out[headerSize:], body)
	return out
}

func buildScriptTable(s builtScript) []byte {
	var dflt *langSysEntry
	var named []langSysEntry
	for i := range s.langSyss {
		if s.langSyss[i].tag == 0 {
			dflt = &s.langSyss[i]
		} else {
			named = append(named, s.langSyss[i])
		}
	}
	sort.Slice(named, func(i, j int) bool { return named[i].tag < named[j].tag })

	headerSize := 4 + len(named)*6
	var body []byte
	var defaultOff uint16
	if dflt != nil {
		defaultOff = uint16(headerSize)
		body = append(body, buildLangSysTable(dflt.features)...)
	}
	namedOffsets := make([]uint16, len(named))
	for i, ls := range named {
		namedOffsets[i] = uint16(headerSize + len(body))
		body = append(body, buildLangSysTable(ls.features)...)
	}

	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint16(out[0:], defaultOff)
	binary.BigEndian.PutUint16(out[2:], uint16(len(named)))
	for i, ls := range named {
		recOff := 4 + i*6
		binary.BigEndian.PutUint32(out[recOff:], uint32(ls.tag))
		binary.BigEndian.PutUint16(out[recOff+4:], namedOffsets[i])
	}
	copy(out[headerSize:], body)
	return out
}

func buildLangSysTable(features []uint16) []byte {
	uniq := dedupeSortedUint16(features)
	out := make([]byte, 6+len(uniq)*2)
	binary.BigEndian.PutUint16(out[2:], 0xFFFF) // no required feature tracked across a merge
	binary.BigEndian.PutUint16(out[4:], uint16(len(uniq)))
	for i, fi := range uniq {
		binary.BigEndian.PutUint16(out[6+i*2:], fi)
	}
	return out
}

func dedupeSortedUint16(in []uint16) []uint16 {
	seen := make(map[uint16]bool, len(in))
	out := make([]uint16, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// buildCoverageFormat1 builds a format 1 coverage table from glyphs,
// sorting them first as format 1 requires numerically increasing order.
func buildCoverageFormat1(glyphs []ot.GlyphID) []byte {
	sorted := append([]ot.GlyphID(nil), glyphs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	data := make([]byte, 4+len(sorted)*2)
	binary.BigEndian.PutUint16(data[0:], 1)
	binary.BigEndian.PutUint16(data[2:], uint16(len(sorted)))
	for i, g := range sorted {
		binary.BigEndian.PutUint16(data[4+i*2:], uint16(g))
	}
	return data
}
