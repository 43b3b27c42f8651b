package freeze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glyphkit/corefont/ot"
)

const (
	nameIDCopyright          = 0
	nameIDFamily             = 1
	nameIDUniqueID           = 3
	nameIDFullName           = 4
	nameIDVersion            = 5
	nameIDPostScript         = 6
	nameIDTypographicFamily  = 16
	nameIDTypographicSubfam  = 17
	nameIDCompatibleFullName = 18
	nameIDWWSFamily          = 21
)

var suffixedFamilyIDs = map[uint16]bool{
	nameIDFamily:             true,
	nameIDFullName:           true,
	nameIDTypographicFamily:  true,
	nameIDCompatibleFullName: true,
	nameIDWWSFamily:          true,
}

var suffixedNoSpaceIDs = map[uint16]bool{
	nameIDPostScript: true,
	20:               true, // PostScript CID findfont name
}

// suffixString builds the appended-name-entry suffix: a single leading
// space followed either by opts.SuffixText verbatim (SuffixCustom) or by
// a sorted, space-joined list of the requested feature tags (SuffixAuto).
func suffixString(opts *Options, features []string) string {
	switch opts.Suffix {
	case SuffixCustom:
		return " " + opts.SuffixText
	case SuffixAuto:
		sorted := append([]string(nil), features...)
		sort.Strings(sorted)
		return " " + strings.Join(sorted, " ")
	default:
		return ""
	}
}

// applyNameEdits rewrites the name table per spec.md §4.5's optional
// side-effects: Suffix appends to family-bearing entries (no-space form
// on the PostScript-style entries), ReplaceNames substitutes old/new
// substrings in the family name before suffixing, and Info appends a
// "; featfreeze: <csv>" marker to the version string entry and a
// ";featfreeze:<csv>" marker to the unique identifier entry.
func applyNameEdits(nameData []byte, opts *Options, features []string) ([]byte, error) {
	name, err := ot.ParseName(nameData)
	if err != nil {
		return nil, err
	}

	familyOld := name.Get(nameIDTypographicFamily)
	if familyOld == "" {
		familyOld = name.Get(nameIDFamily)
	}
	if familyOld == "" {
		familyOld = "UnknownFamily"
	}

	family := familyOld
	for _, pair := range strings.Split(opts.ReplaceNames, ",") {
		old, new, ok := strings.Cut(pair, "/")
		if !ok {
			continue
		}
		family = strings.ReplaceAll(family, old, new)
	}
	suffix := suffixString(opts, features)
	familyNew := family + suffix

	familyOldNS := strings.ReplaceAll(familyOld, " ", "")
	familyNewNS := strings.ReplaceAll(familyNew, " ", "")
	csv := strings.Join(features, ",")

	b := &ot.NameBuilder{}
	for _, r := range name.Records {
		value := r.Value
		switch {
		case suffixedFamilyIDs[r.NameID]:
			value = strings.ReplaceAll(value, familyOld, familyNew)
		case suffixedNoSpaceIDs[r.NameID]:
			value = strings.ReplaceAll(value, familyOldNS, familyNewNS)
		case r.NameID == nameIDUniqueID && opts.Info:
			value = fmt.Sprintf("%s;featfreeze:%s", value, csv)
		case r.NameID == nameIDVersion && opts.Info:
			value = fmt.Sprintf("%s; featfreeze: %s", value, csv)
		}
		b.AddRecord(ot.NameRecord{
			PlatformID: r.PlatformID,
			EncodingID: r.EncodingID,
			LanguageID: r.LanguageID,
			NameID:     r.NameID,
			Value:      value,
		})
	}

	return b.Build(), nil
}
