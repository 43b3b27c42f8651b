// Package freeze implements the OpenType feature freezer: it resolves a
// set of requested GSUB feature tags down to the single/alternate
// substitution they apply, collapses that into one glyph->glyph map, and
// bakes the result permanently into the font's cmap, so a shaper that
// never runs the GSUB feature still reaches the substituted glyph from
// the codepoint alone.
package freeze

import (
	"bytes"

	"github.com/BurntSushi/toml"
)

// SuffixMode selects how (or whether) Freeze appends a suffix to the
// font's family-bearing name entries.
type SuffixMode int

const (
	// SuffixNone leaves family names untouched.
	SuffixNone SuffixMode = iota
	// SuffixAuto derives the suffix from a sorted, space-joined list of
	// the requested feature tags.
	SuffixAuto
	// SuffixCustom appends Options.SuffixText verbatim.
	SuffixCustom
)

// Options controls a Freeze call beyond the font bytes and feature tags.
type Options struct {
	// Script and Lang restrict feature resolution to a single script's
	// (optionally, a single language system's) LangSys table. Left
	// empty, every script's default LangSys is consulted.
	Script string `toml:"script"`
	Lang   string `toml:"lang"`

	// Suffix selects how the family name is extended; SuffixText is only
	// read when Suffix is SuffixCustom.
	Suffix     SuffixMode `toml:"-"`
	SuffixText string     `toml:"suffix"`

	// ReplaceNames is a comma-separated list of "old/new" substring
	// replacements applied to the family name before suffixing.
	ReplaceNames string `toml:"replace_names"`

	// Info appends "; featfreeze: <csv>" to the version name entry
	// (name ID 5) and ";featfreeze:<csv>" to the unique identifier entry
	// (name ID 3).
	Info bool `toml:"info"`

	// ZapGlyphNames rebuilds post as version 3.0, discarding glyph names.
	ZapGlyphNames bool `toml:"zap_glyph_names"`
}

// tomlOptions mirrors Options' wire shape for decoding, since TOML has no
// notion of the SuffixMode enum Options resolves suffix handling to.
type tomlOptions struct {
	Script        string `toml:"script"`
	Lang          string `toml:"lang"`
	Suffix        string `toml:"suffix"`
	ReplaceNames  string `toml:"replace_names"`
	Info          bool   `toml:"info"`
	ZapGlyphNames bool   `toml:"zap_glyph_names"`
}

// DecodeOptionsTOML decodes a TOML document into Options. The "suffix"
// key is absent or empty for SuffixNone, the literal string "auto" for
// SuffixAuto, or any other string for SuffixCustom with that value as
// SuffixText.
func DecodeOptionsTOML(data []byte) (*Options, error) {
	var raw tomlOptions
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, err
	}

	opts := &Options{
		Script:        raw.Script,
		Lang:          raw.Lang,
		ReplaceNames:  raw.ReplaceNames,
		Info:          raw.Info,
		ZapGlyphNames: raw.ZapGlyphNames,
	}
	switch raw.Suffix {
	case "":
		opts.Suffix = SuffixNone
	case "auto":
		opts.Suffix = SuffixAuto
	default:
		opts.Suffix = SuffixCustom
		opts.SuffixText = raw.Suffix
	}
	return opts, nil
}
