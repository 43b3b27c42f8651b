package freeze

import (
	"fmt"

	"github.com/glyphkit/corefont/ot"
	"github.com/glyphkit/corefont/ot/builder"
)

// Result is the outcome of a successful Freeze call.
type Result struct {
	// Data is the serialized font with substitutions baked into its cmap.
	Data []byte
	// Warnings records substitutions where neither the source nor the
	// target glyph has a cmap entry, so the remapped cmap can never
	// actually reach them.
	Warnings []string
}

// Freeze permanently applies the GSUB substitutions named by features
// (4-character OpenType feature tags, e.g. "smcp") by rewriting the
// font's cmap to resolve each affected codepoint straight to its
// substituted glyph. See spec.md §4.5 for the full contract.
func Freeze(fontBytes []byte, features []string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if len(features) == 0 {
		return nil, ErrNoMatchingFeatures
	}

	font, err := ot.ParseFont(fontBytes, 0)
	if err != nil {
		return nil, fmt.Errorf("freeze: parsing font: %w", err)
	}

	gsubData, err := font.TableData(ot.TagGSUB)
	if err != nil {
		return nil, ErrNoGSUB
	}
	gsub, err := ot.ParseGSUB(gsubData)
	if err != nil {
		return nil, fmt.Errorf("freeze: parsing GSUB: %w", err)
	}

	featureTags := make(map[ot.Tag]bool, len(features))
	for _, f := range features {
		featureTags[tagFromString(f)] = true
	}

	lookups, err := resolveLookups(gsub, featureTags, opts.Script, opts.Lang)
	if err != nil {
		return nil, fmt.Errorf("freeze: resolving features: %w", err)
	}
	if len(lookups) == 0 {
		return nil, ErrNoMatchingFeatures
	}

	subs := collectSubstitutions(gsub, lookups)
	if len(subs) == 0 {
		return nil, ErrNoSubstitutions
	}

	cmapData, err := font.TableData(ot.TagCmap)
	if err != nil {
		return nil, ErrNoCmap
	}
	newCmap, err := rewriteCmap(cmapData, subs)
	if err != nil {
		return nil, fmt.Errorf("freeze: rewriting cmap: %w", err)
	}

	warnings := unreachableSubstitutionWarnings(cmapData, subs)

	b := rebuildWith(font, ot.TagCmap, newCmap)

	if wantsNameEdits(opts) {
		nameData, err := font.TableData(ot.TagName)
		if err == nil {
			if newName, err := applyNameEdits(nameData, opts, features); err == nil {
				b.AddTable(ot.TagName, newName)
			}
		}
	}

	if opts.ZapGlyphNames {
		if postData, err := font.TableData(ot.TagPost); err == nil {
			if post, err := ot.ParsePost(postData); err == nil {
				b.AddTable(ot.TagPost, ot.BuildPostV3(post.ItalicAngle, post.UnderlinePosition, post.UnderlineThickness, post.IsFixedPitch))
			}
		}
	}

	data, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("freeze: building output font: %w", err)
	}

	return &Result{Data: data, Warnings: warnings}, nil
}

func wantsNameEdits(opts *Options) bool {
	return opts.Suffix != SuffixNone || opts.ReplaceNames != "" || opts.Info
}

// rebuildWith copies every table from font into a fresh builder, except
// tag (whose replacement the caller supplies), so later AddTable calls
// for optional side-effects layer on top cleanly.
func rebuildWith(font *ot.Font, tag ot.Tag, replacement []byte) *builder.FontBuilder {
	version := builder.VersionTrueType
	if font.HasTable(ot.TagCFF) || font.HasTable(ot.TagCFF2) {
		version = builder.VersionCFF
	}
	b := builder.New(version)
	for _, t := range font.Tags() {
		if t == tag {
			continue
		}
		if data, err := font.TableData(t); err == nil {
			b.AddTable(t, data)
		}
	}
	b.AddTable(tag, replacement)
	return b
}

// unreachableSubstitutionWarnings flags substitution entries where
// neither the source nor the target glyph appears in the original cmap,
// so the rewritten cmap can't actually reach them from any codepoint.
func unreachableSubstitutionWarnings(cmapData []byte, subs map[ot.GlyphID]ot.GlyphID) []string {
	cm, err := ot.ParseCmap(cmapData)
	if err != nil {
		return nil
	}
	hasUnicode := make(map[ot.GlyphID]bool)
	for _, gid := range cm.CollectMapping() {
		hasUnicode[gid] = true
	}

	var warnings []string
	for from, to := range subs {
		if from == to {
			continue
		}
		if !hasUnicode[from] && !hasUnicode[to] {
			warnings = append(warnings, fmt.Sprintf("substitution %d -> %d unreachable: neither glyph has a cmap entry", from, to))
		}
	}
	return warnings
}

func tagFromString(s string) ot.Tag {
	var b [4]byte
	for i := 0; i < 4; i++ {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return ot.MakeTag(b[0], b[1], b[2], b[3])
}
