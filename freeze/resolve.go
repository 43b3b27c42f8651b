package freeze

import (
	"sort"

	"github.com/glyphkit/corefont/ot"
)

// resolveLookups applies spec.md §4.5's feature resolution rule: collect
// the feature indices reachable from the requested script/lang filter
// (or every script's default LangSys, if no filter is given), intersect
// with the feature records whose tag is in features, and return the
// lookup indices those features reference.
func resolveLookups(gsub *ot.GSUB, features map[ot.Tag]bool, script, lang string) ([]uint16, error) {
	scriptList, err := gsub.ParseScriptList()
	if err != nil {
		return nil, err
	}
	featureList, err := gsub.ParseFeatureList()
	if err != nil {
		return nil, err
	}

	featureIndices := collectFeatureIndices(scriptList, script, lang)

	seenLookup := make(map[uint16]bool)
	var lookups []uint16
	for i := 0; i < featureList.Count(); i++ {
		if featureIndices != nil && !featureIndices[uint16(i)] {
			continue
		}
		rec, err := featureList.GetFeature(i)
		if err != nil {
			continue
		}
		if !features[rec.Tag] {
			continue
		}
		for _, li := range rec.Lookups {
			if !seenLookup[li] {
				seenLookup[li] = true
				lookups = append(lookups, li)
			}
		}
	}

	sort.Slice(lookups, func(i, j int) bool { return lookups[i] < lookups[j] })
	return lookups, nil
}

// collectFeatureIndices returns the set of feature indices reachable from
// the matching LangSys tables: with no script/lang filter, the default
// LangSys of every script; otherwise the LangSys tables the filter selects.
func collectFeatureIndices(sl *ot.ScriptList, script, lang string) map[uint16]bool {
	indices := make(map[uint16]bool)
	for _, sr := range sl.Scripts {
		if script != "" && sr.Tag.String() != script {
			continue
		}
		if lang != "" {
			for _, lr := range sr.LangSysRecords {
				if lr.Tag.String() == lang && lr.LangSys != nil {
					for _, fi := range lr.LangSys.FeatureIndices {
						indices[fi] = true
					}
				}
			}
			continue
		}
		if sr.DefaultLangSys != nil {
			for _, fi := range sr.DefaultLangSys.FeatureIndices {
				indices[fi] = true
			}
		}
	}
	return indices
}

// collectSubstitutions walks the resolved lookups and builds the
// substitution map spec.md §4.5 describes: single-substitution entries
// (both formats, already fully expanded by ot.SingleSubst.Mapping) and
// alternate-substitution entries (input -> its first alternate). Any
// other lookup type is ignored, since only single-glyph outcomes can be
// folded into a cmap rewrite. The result is forward-closed: a chain
// a->b, b->c collapses to a->c (and b->c is kept too), so every entry in
// the returned map is already resolved to its final target.
func collectSubstitutions(gsub *ot.GSUB, lookups []uint16) map[ot.GlyphID]ot.GlyphID {
	raw := make(map[ot.GlyphID]ot.GlyphID)

	for _, li := range lookups {
		lookup := gsub.GetLookup(int(li))
		if lookup == nil {
			continue
		}
		for _, st := range lookup.Subtables() {
			switch s := st.(type) {
			case *ot.SingleSubst:
				for in, out := range s.Mapping() {
					raw[in] = out
				}
			case *ot.AlternateSubst:
				for in, alts := range s.Mapping() {
					if len(alts) > 0 {
						raw[in] = alts[0]
					}
				}
			}
		}
	}

	return closeForward(raw)
}

// closeForward resolves every entry to its final target by following
// chains through the same map (a->b, b->c becomes a->c, b->c), so a
// single pass of cmap rewriting always lands on the chain's end.
func closeForward(raw map[ot.GlyphID]ot.GlyphID) map[ot.GlyphID]ot.GlyphID {
	resolved := make(map[ot.GlyphID]ot.GlyphID, len(raw))
	for in := range raw {
		seen := map[ot.GlyphID]bool{in: true}
		cur := in
		for {
			next, ok := raw[cur]
			if !ok || seen[next] {
				break
			}
			cur = next
			seen[cur] = true
		}
		resolved[in] = cur
	}
	return resolved
}
