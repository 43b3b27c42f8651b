// Package vf builds a variable font from a designspace: a default master
// plus a set of deviating masters, each pinned at a location on one or
// more design axes. It constructs the variation model that apportions
// each master's contribution to the interpolation, encodes per-glyph
// gvar deltas, and emits fvar/gvar/STAT/name alongside the default
// master's glyf/loca/head/GSUB/GPOS/GDEF, stripped of anything that
// assumes a fixed, non-varying glyph set.
package vf

import (
	"errors"
	"sort"

	"github.com/glyphkit/corefont/ot"
	"github.com/glyphkit/corefont/ot/builder"
)

var (
	// ErrNoAxes is returned when a Designspace declares no axes.
	ErrNoAxes = errors.New("vf: designspace has no axes")
	// ErrNoSources is returned when a Designspace declares no sources.
	ErrNoSources = errors.New("vf: designspace has no sources")
	// ErrNoDefaultSource is returned when no source, or more than one,
	// sits at every axis's default value.
	ErrNoDefaultSource = errors.New("vf: designspace has no default source")
	// ErrIncompatibleMaster is returned when a non-default source's glyph
	// count does not match the default master's.
	ErrIncompatibleMaster = errors.New("vf: master is incompatible with the default source")
	// ErrAxisTagInvalid is returned by Build for an Axis whose Tag is
	// zero, and by the designspace YAML decoder for a tag string that is
	// empty or longer than 4 bytes.
	ErrAxisTagInvalid = errors.New("vf: axis tag must be 4 bytes")
)

// Axis is one design axis of the variable font being built.
type Axis struct {
	Tag     ot.Tag
	Name    string
	Min     float32
	Default float32
	Max     float32
	Hidden  bool
}

// Source is one master in the designspace: a static font pinned at
// Location on every axis. The source whose Location equals every axis's
// Default value is the default master; its glyf/loca/head/hmtx/cmap/
// GSUB/GPOS/name become the base the built font carries forward.
type Source struct {
	Name      string
	Location  map[ot.Tag]float32
	FontBytes []byte
}

// Instance is a named point in the designspace that fvar should expose
// directly to applications (e.g. "Bold", "Condensed Light").
type Instance struct {
	Name     string
	Location map[ot.Tag]float32
}

// Designspace describes the variable font to build: its axes, the
// masters that populate them, and any named instances fvar should list.
type Designspace struct {
	Axes      []Axis
	Sources   []Source
	Instances []Instance
}

// normalizedLocation maps each axis to a [-1, 1] normalized value.
type normalizedLocation map[ot.Tag]float32

// region is a per-axis tent (lower, peak, upper) support.
type region map[ot.Tag][3]float32

type master struct {
	source   Source
	font     *ot.Font
	loc      normalizedLocation
	region   region
	numNonZero int
}

// Build constructs a static-glyph-set variable font from a designspace.
func Build(ds Designspace) ([]byte, error) {
	if len(ds.Axes) == 0 {
		return nil, ErrNoAxes
	}
	if len(ds.Sources) == 0 {
		return nil, ErrNoSources
	}
	for _, ax := range ds.Axes {
		if ax.Tag == 0 {
			return nil, ErrAxisTagInvalid
		}
	}

	masters := make([]*master, 0, len(ds.Sources))
	var defaultIdx = -1
	for i, src := range ds.Sources {
		font, err := ot.ParseFont(src.FontBytes, 0)
		if err != nil {
			return nil, err
		}
		loc := normalizeLocation(ds.Axes, src.Location)
		m := &master{source: src, font: font, loc: loc}
		for _, v := range loc {
			if v != 0 {
				m.numNonZero++
			}
		}
		if m.numNonZero == 0 {
			if defaultIdx >= 0 {
				return nil, ErrNoDefaultSource
			}
			defaultIdx = len(masters)
		}
		masters = append(masters, m)
	}
	if defaultIdx < 0 {
		return nil, ErrNoDefaultSource
	}

	defaultFont := masters[defaultIdx].font
	defaultMaxp, err := ot.ParseMaxpFromFont(defaultFont)
	if err != nil {
		return nil, err
	}
	numGlyphs := int(defaultMaxp.NumGlyphs)
	for _, m := range masters {
		maxp, err := ot.ParseMaxpFromFont(m.font)
		if err != nil {
			return nil, err
		}
		if int(maxp.NumGlyphs) != numGlyphs {
			return nil, ErrIncompatibleMaster
		}
	}

	order := sortMasters(masters)
	computeRegions(masters, order)

	model := &variationModel{axes: ds.Axes, masters: masters, order: order}
	model.computeScalarMatrix()

	return assembleFont(ds, model, defaultIdx)
}

// normalizeLocation converts a source's user-space axis values to
// normalized [-1, 1] design-space coordinates, piecewise-linear around
// each axis's default.
func normalizeLocation(axes []Axis, loc map[ot.Tag]float32) normalizedLocation {
	out := make(normalizedLocation, len(axes))
	for _, ax := range axes {
		v, ok := loc[ax.Tag]
		if !ok {
			v = ax.Default
		}
		switch {
		case v == ax.Default:
			out[ax.Tag] = 0
		case v > ax.Default:
			if ax.Max == ax.Default {
				out[ax.Tag] = 0
			} else {
				out[ax.Tag] = clamp((v-ax.Default)/(ax.Max-ax.Default), 0, 1)
			}
		default:
			if ax.Min == ax.Default {
				out[ax.Tag] = 0
			} else {
				out[ax.Tag] = clamp((v-ax.Default)/(ax.Default-ax.Min), -1, 0)
			}
		}
	}
	return out
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortMasters orders master indices by ascending count of non-default
// axes (the default master, with zero, sorts first), breaking ties by
// the order sources were declared.
func sortMasters(masters []*master) []int {
	order := make([]int, len(masters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return masters[order[a]].numNonZero < masters[order[b]].numNonZero
	})
	return order
}

// computeRegions derives each master's per-axis tent support via the
// neighbor rule: for every axis the master deviates on, its bound on the
// zero side narrows from zero to the closest same-sign, smaller-magnitude
// value among masters already placed earlier in order, and its bound on
// the far side stays at the space extreme (-1 or 1).
//
// This narrows per axis independently. A designspace whose masters mix
// axes sparsely (a master that is non-default on two axes at once, with
// other masters bracketing just one of them) can need the fully general
// subset-box neighbor rule to reproduce exactly; this library's model
// covers the common case of masters that vary one axis at a time, or
// uniformly across all their non-default axes.
func computeRegions(masters []*master, order []int) {
	for rank, idx := range order {
		m := masters[idx]
		m.region = make(region, len(m.loc))
		for axis, peak := range m.loc {
			if peak == 0 {
				continue
			}
			lower, upper := float32(-1), float32(1)
			if peak > 0 {
				lower = 0
			} else {
				upper = 0
			}
			for _, priorRank := range order[:rank] {
				other := masters[priorRank]
				ov, ok := other.loc[axis]
				if !ok || ov == 0 {
					continue
				}
				if peak > 0 && ov > 0 && ov < peak && ov > lower {
					lower = ov
				}
				if peak < 0 && ov < 0 && ov > peak && ov < upper {
					upper = ov
				}
			}
			m.region[axis] = [3]float32{lower, peak, upper}
		}
	}
}

// variationModel holds the ordered masters and their pairwise scalar
// matrix, ready to compute per-region deltas for any scalar quantity
// (an outline point coordinate, an advance width) sampled at each
// master.
type variationModel struct {
	axes    []Axis
	masters []*master
	order   []int
	// scalars[i][j] is region order[j]'s tent scalar evaluated at region
	// order[i]'s peak location, for j < i.
	scalars [][]float32
}

// computeScalarMatrix builds the triangular S[i][j] matrix: for every
// pair of regions i > j (in model order), how much of region j's delta
// bleeds into region i's peak location.
func (vm *variationModel) computeScalarMatrix() {
	n := len(vm.order)
	vm.scalars = make([][]float32, n)
	for i := 0; i < n; i++ {
		vm.scalars[i] = make([]float32, i)
		peakLoc := vm.masters[vm.order[i]].loc
		for j := 0; j < i; j++ {
			vm.scalars[i][j] = regionScalarAt(vm.masters[vm.order[j]].region, peakLoc)
		}
	}
}

// regionScalarAt evaluates a tent region's support scalar at a given
// normalized location: the product, across every axis the region
// constrains, of that axis's piecewise-linear tent value.
func regionScalarAt(r region, loc normalizedLocation) float32 {
	scalar := float32(1)
	for axis, tent := range r {
		lower, peak, upper := tent[0], tent[1], tent[2]
		v := loc[axis]
		switch {
		case peak == v:
			continue
		case v <= lower || v >= upper:
			return 0
		case v < peak:
			if peak == lower {
				continue
			}
			scalar *= (v - lower) / (peak - lower)
		default:
			if upper == peak {
				continue
			}
			scalar *= (upper - v) / (upper - peak)
		}
	}
	return scalar
}

// deltasForRegions computes, for every region in model order, the delta
// that region contributes, given each master's sample value (indexed by
// its original Sources index, i.e. master index prior to sorting) and
// the default master's value.
func (vm *variationModel) deltasForRegions(sampleAt func(masterIdx int) float32, defaultValue float32) []float32 {
	n := len(vm.order)
	deltas := make([]float32, n)
	for i := 0; i < n; i++ {
		mi := vm.order[i]
		d := sampleAt(mi) - defaultValue
		for j := 0; j < i; j++ {
			d -= vm.scalars[i][j] * deltas[j]
		}
		deltas[i] = d
	}
	return deltas
}

func assembleFont(ds Designspace, model *variationModel, defaultIdx int) ([]byte, error) {
	defaultMaster := model.masters[defaultIdx]
	font := defaultMaster.font

	maxp, err := ot.ParseMaxpFromFont(font)
	if err != nil {
		return nil, err
	}
	numGlyphs := int(maxp.NumGlyphs)

	glyf, err := ot.ParseGlyfFromFont(font)
	if err != nil {
		return nil, ErrIncompatibleMaster
	}

	hheaData, err := font.TableData(ot.TagHhea)
	if err != nil {
		return nil, err
	}
	hhea, err := ot.ParseHhea(hheaData)
	if err != nil {
		return nil, err
	}
	hmtxData, err := font.TableData(ot.TagHmtx)
	if err != nil {
		return nil, err
	}
	hmtx, err := ot.ParseHmtx(hmtxData, int(hhea.NumberOfHMetrics), numGlyphs)
	if err != nil {
		return nil, err
	}

	masterGlyfs := make([]*ot.Glyf, len(model.masters))
	masterHmtx := make([]*ot.Hmtx, len(model.masters))
	for i, m := range model.masters {
		if i == defaultIdx {
			masterGlyfs[i] = glyf
			masterHmtx[i] = hmtx
			continue
		}
		g, err := ot.ParseGlyfFromFont(m.font)
		if err != nil {
			return nil, ErrIncompatibleMaster
		}
		masterGlyfs[i] = g

		mh, err := ot.ParseMaxpFromFont(m.font)
		if err != nil {
			return nil, err
		}
		mHheaData, err := m.font.TableData(ot.TagHhea)
		if err != nil {
			return nil, err
		}
		mHhea, err := ot.ParseHhea(mHheaData)
		if err != nil {
			return nil, err
		}
		mHmtxData, err := m.font.TableData(ot.TagHmtx)
		if err != nil {
			return nil, err
		}
		masterHmtxTable, err := ot.ParseHmtx(mHmtxData, int(mHhea.NumberOfHMetrics), int(mh.NumGlyphs))
		if err != nil {
			return nil, err
		}
		masterHmtx[i] = masterHmtxTable
	}

	gvarData := buildGvar(model, masterGlyfs, masterHmtx, numGlyphs)

	b := builder.New(builder.VersionTrueType)
	for _, tag := range font.Tags() {
		switch tag {
		case ot.TagGvar, ot.TagAvar, ot.TagCvar, ot.TagHvar, ot.TagMvar, ot.TagVvar, ot.TagFvar, ot.TagSTAT:
			continue
		case ot.TagGDEF:
			if data, err := font.TableData(tag); err == nil {
				b.AddTable(tag, stripGDEFVariation(data))
			}
		case ot.TagGSUB:
			if data, err := font.TableData(tag); err == nil {
				b.AddTable(tag, stripGSUBFeatureVariations(data))
			}
		default:
			data, err := font.TableData(tag)
			if err == nil {
				b.AddTable(tag, data)
			}
		}
	}

	b.AddTable(ot.TagGvar, gvarData)

	nameData, _ := font.TableData(ot.TagName)
	fvarData, patchedName := buildFvarAndNames(ds, nameData)
	b.AddTable(ot.TagFvar, fvarData)
	if patchedName != nil {
		b.AddTable(ot.TagName, patchedName)
	}
	b.AddTable(ot.TagSTAT, ot.BuildSTAT(buildSTAT(ds.Axes)))

	return b.Build()
}

// stripGDEFVariation drops GDEF's ItemVariationStore (version 1.3), since
// it couples to the source fonts' own axis indices, which may not match
// this build's fvar.
func stripGDEFVariation(data []byte) []byte {
	if len(data) < 12 {
		return data
	}
	major := uint16(data[0])<<8 | uint16(data[1])
	minor := uint16(data[2])<<8 | uint16(data[3])
	if major != 1 || minor < 3 {
		return data
	}
	out := make([]byte, len(data))
	copy(out, data)
	if len(out) >= 18 {
		out[14], out[15], out[16], out[17] = 0, 0, 0, 0
	}
	return out
}

// stripGSUBFeatureVariations rewrites a GSUB 1.1 header's version to 1.0,
// so readers ignore the FeatureVariations offset (its bytes stay in
// place), for the same reason: it names
// conditions over the source fonts' axis indices, not this build's.
func stripGSUBFeatureVariations(data []byte) []byte {
	if len(data) < 10 {
		return data
	}
	minor := uint16(data[2])<<8 | uint16(data[3])
	if minor == 0 {
		return data
	}
	out := make([]byte, len(data))
	copy(out, data)
	out[2], out[3] = 0, 0
	return out
}
