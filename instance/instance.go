// Package instance pins a variable font at a fixed location on its design
// axes, producing an ordinary static font. It applies gvar/HVAR/MVAR
// deltas at that location, recomputes the metrics and bounding boxes that
// depend on the outlines it just moved, and drops every table that only
// makes sense for a font that still varies.
package instance

import (
	"errors"

	"github.com/glyphkit/corefont/fixedpoint"
	"github.com/glyphkit/corefont/ot"
	"github.com/glyphkit/corefont/ot/builder"
)

var (
	// ErrNotVariable is returned when the input has no fvar table.
	ErrNotVariable = errors.New("instance: font has no fvar table")
	// ErrNoOutlines is returned when the input has no glyf table (CFF
	// outlines are not supported by this instancer).
	ErrNoOutlines = errors.New("instance: font has no glyf table")
	// ErrNoGvar is returned when the input has no gvar table.
	ErrNoGvar = errors.New("instance: font has no gvar table")
)

// Instantiate pins fontBytes at axisLocations (axis tag -> user-space
// value) and returns a new, fully static font image. Axes absent from
// axisLocations keep their fvar default value.
func Instantiate(fontBytes []byte, axisLocations map[ot.Tag]float32) ([]byte, error) {
	font, err := ot.ParseFont(fontBytes, 0)
	if err != nil {
		return nil, err
	}

	fvarData, err := font.TableData(ot.TagFvar)
	if err != nil {
		return nil, ErrNotVariable
	}
	fvar, err := ot.ParseFvar(fvarData)
	if err != nil || !fvar.HasData() {
		return nil, ErrNotVariable
	}

	if !font.HasTable(ot.TagGlyf) {
		return nil, ErrNoOutlines
	}

	gvarData, err := font.TableData(ot.TagGvar)
	if err != nil {
		return nil, ErrNoGvar
	}
	gvar, err := ot.ParseGvar(gvarData)
	if err != nil || !gvar.HasData() {
		return nil, ErrNoGvar
	}

	maxp, err := ot.ParseMaxpFromFont(font)
	if err != nil {
		return nil, err
	}
	numGlyphs := int(maxp.NumGlyphs)

	headData, err := font.TableData(ot.TagHead)
	if err != nil {
		return nil, err
	}
	head, err := ot.ParseHead(headData)
	if err != nil {
		return nil, err
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

	glyf, err := ot.ParseGlyfFromFont(font)
	if err != nil {
		return nil, err
	}

	var avar *ot.Avar
	if data, err := font.TableData(ot.TagAvar); err == nil {
		avar, _ = ot.ParseAvar(data)
	}
	var hvar *ot.Hvar
	if data, err := font.TableData(ot.TagHvar); err == nil {
		hvar, _ = ot.ParseHvar(data)
	}
	var mvar *ot.Mvar
	if data, err := font.TableData(ot.TagMvar); err == nil {
		mvar, _ = ot.ParseMvar(data)
	}
	var os2 *ot.OS2
	var os2Data []byte
	if data, err := font.TableData(ot.TagOS2); err == nil {
		os2Data = data
		os2, _ = ot.ParseOS2(data)
	}
	var post *ot.Post
	var postData []byte
	if data, err := font.TableData(ot.TagPost); err == nil {
		postData = data
		post, _ = ot.ParsePost(data)
	}

	coords := normalizeCoords(fvar, avar, axisLocations)

	glyphs := instanceGlyphs(glyf, gvar, hmtx, hvar, numGlyphs, coords)
	resolveCompositeBBoxes(glyphs)

	fontXMin, fontYMin, fontXMax, fontYMax := unionBBoxes(glyphs)

	glyfData, offsets := assembleGlyf(glyphs)
	locaData := ot.BuildLoca(offsets, false)

	advances := make([]uint16, numGlyphs)
	lsbs := make([]int16, numGlyphs)
	advanceMax := uint16(0)
	minLSB := int16(0)
	minRSB := int16(0)
	xMaxExtent := int16(0)
	first := true
	for gid := 0; gid < numGlyphs; gid++ {
		advances[gid] = glyphs[gid].advance
		lsbs[gid] = glyphs[gid].lsb
		if glyphs[gid].advance > advanceMax {
			advanceMax = glyphs[gid].advance
		}
		if !glyphs[gid].empty {
			width := glyphs[gid].xMax - glyphs[gid].xMin
			rsb := int16(int32(glyphs[gid].advance) - int32(glyphs[gid].lsb) - int32(width))
			extent := glyphs[gid].lsb + width
			if first {
				minLSB, minRSB, xMaxExtent = glyphs[gid].lsb, rsb, extent
				first = false
			} else {
				if glyphs[gid].lsb < minLSB {
					minLSB = glyphs[gid].lsb
				}
				if rsb < minRSB {
					minRSB = rsb
				}
				if extent > xMaxExtent {
					xMaxExtent = extent
				}
			}
		}
	}
	hmtxData = ot.BuildHmtx(advances, lsbs, int(hhea.NumberOfHMetrics))

	head.XMin, head.YMin, head.XMax, head.YMax = fontXMin, fontYMin, fontXMax, fontYMax
	head.IndexToLocFormat = 1

	hhea.AdvanceWidthMax = advanceMax
	hhea.MinLeftSideBearing = minLSB
	hhea.MinRightSideBearing = minRSB
	hhea.XMaxExtent = xMaxExtent

	if mvar != nil && mvar.HasData() {
		hhea.Ascender += int16(mvar.GetDelta(ot.MvarTagHorizontalAscender, coords))
		hhea.Descender += int16(mvar.GetDelta(ot.MvarTagHorizontalDescender, coords))
		hhea.LineGap += int16(mvar.GetDelta(ot.MvarTagHorizontalLineGap, coords))

		if os2 != nil {
			os2.STypoAscender += int16(mvar.GetDelta(ot.MvarTagHorizontalAscender, coords))
			os2.STypoDescender += int16(mvar.GetDelta(ot.MvarTagHorizontalDescender, coords))
			os2.STypoLineGap += int16(mvar.GetDelta(ot.MvarTagHorizontalLineGap, coords))
			os2.UsWinAscent = uint16(int32(os2.UsWinAscent) + int32(mvar.GetDelta(ot.MvarTagHorizontalClippingAscent, coords)))
			os2.UsWinDescent = uint16(int32(os2.UsWinDescent) + int32(mvar.GetDelta(ot.MvarTagHorizontalClippingDescent, coords)))
			os2.YStrikeoutSize += int16(mvar.GetDelta(ot.MvarTagStrikeoutSize, coords))
			os2.YStrikeoutPosition += int16(mvar.GetDelta(ot.MvarTagStrikeoutOffset, coords))
			os2.YSubscriptXSize += int16(mvar.GetDelta(ot.MvarTagSubscriptEmXSize, coords))
			os2.YSubscriptYSize += int16(mvar.GetDelta(ot.MvarTagSubscriptEmYSize, coords))
			os2.YSubscriptXOffset += int16(mvar.GetDelta(ot.MvarTagSubscriptEmXOffset, coords))
			os2.YSubscriptYOffset += int16(mvar.GetDelta(ot.MvarTagSubscriptEmYOffset, coords))
			os2.YSuperscriptXSize += int16(mvar.GetDelta(ot.MvarTagSuperscriptEmXSize, coords))
			os2.YSuperscriptYSize += int16(mvar.GetDelta(ot.MvarTagSuperscriptEmYSize, coords))
			os2.YSuperscriptXOffset += int16(mvar.GetDelta(ot.MvarTagSuperscriptEmXOffset, coords))
			os2.YSuperscriptYOffset += int16(mvar.GetDelta(ot.MvarTagSuperscriptEmYOffset, coords))
			if os2.Version >= 2 {
				os2.SxHeight += int16(mvar.GetDelta(ot.MvarTagXHeight, coords))
				os2.SCapHeight += int16(mvar.GetDelta(ot.MvarTagCapHeight, coords))
			}
		}
		if post != nil {
			post.UnderlinePosition += int16(mvar.GetDelta(ot.MvarTagUnderlineOffset, coords))
			post.UnderlineThickness += int16(mvar.GetDelta(ot.MvarTagUnderlineSize, coords))
		}
	}

	if os2 != nil {
		if wght, ok := findAxisValue(fvar, axisLocations, ot.TagAxisWeight); ok {
			os2.UsWeightClass = uint16(wght)
		}
		if wdth, ok := findAxisValue(fvar, axisLocations, ot.TagAxisWidth); ok {
			os2.UsWidthClass = bucketWidthClass(wdth)
		}
	}

	if post != nil {
		postData = ot.PatchPost(postData, post.UnderlinePosition, post.UnderlineThickness)
	}

	b := builder.New(builder.VersionTrueType)
	for _, tag := range font.Tags() {
		switch tag {
		case ot.TagFvar, ot.TagGvar, ot.TagAvar, ot.TagCvar,
			ot.TagHvar, ot.TagMvar, ot.TagVvar, ot.TagSTAT, ot.TagDSIG:
			continue
		case ot.TagHead:
			b.AddTable(tag, head.Bytes())
		case ot.TagHhea:
			b.AddTable(tag, hhea.Bytes())
		case ot.TagHmtx:
			b.AddTable(tag, hmtxData)
		case ot.TagMaxp:
			b.AddTable(tag, maxp.Bytes())
		case ot.TagGlyf:
			b.AddTable(tag, glyfData)
		case ot.TagLoca:
			b.AddTable(tag, locaData)
		case ot.TagOS2:
			if os2 != nil {
				b.AddTable(tag, os2.PatchInto(os2Data))
			} else if os2Data != nil {
				b.AddTable(tag, os2Data)
			}
		case ot.TagPost:
			if postData != nil {
				b.AddTable(tag, postData)
			}
		default:
			data, err := font.TableData(tag)
			if err == nil {
				b.AddTable(tag, data)
			}
		}
	}

	b.AddTable(ot.TagSTAT, ot.BuildSTAT(buildInstanceSTAT(fvar, axisLocations)))

	return b.Build()
}

// normalizeCoords converts axisLocations (user-space) to F2DOT14 normalized
// coordinates in fvar axis order, applying avar's piecewise remap if
// present. Axes absent from axisLocations use their fvar default (which
// normalizes to 0).
func normalizeCoords(fvar *ot.Fvar, avar *ot.Avar, axisLocations map[ot.Tag]float32) []int {
	axes := fvar.AxisInfos()
	coords := make([]int, len(axes))
	for i, axis := range axes {
		value := axis.DefaultValue
		if v, ok := axisLocations[axis.Tag]; ok {
			value = v
		}
		norm := fvar.NormalizeAxisValue(i, value)
		coords[i] = int(fixedpoint.ToF2Dot14(norm))
	}
	if avar != nil && avar.HasData() {
		coords = avar.MapCoords(coords)
	}
	return coords
}

// findAxisValue returns the pinned (or default) user-space value for tag,
// if the font declares that axis.
func findAxisValue(fvar *ot.Fvar, axisLocations map[ot.Tag]float32, tag ot.Tag) (float32, bool) {
	axis, ok := fvar.FindAxis(tag)
	if !ok {
		return 0, false
	}
	if v, ok := axisLocations[tag]; ok {
		return v, true
	}
	return axis.DefaultValue, true
}

// bucketWidthClass maps a wdth axis percentage to the OS/2 usWidthClass
// 1..9 scale.
func bucketWidthClass(percent float32) uint16 {
	switch {
	case percent <= 56.25:
		return 1
	case percent <= 68.75:
		return 2
	case percent <= 81.25:
		return 3
	case percent <= 93.75:
		return 4
	case percent <= 106.25:
		return 5
	case percent <= 118.75:
		return 6
	case percent <= 137.5:
		return 7
	case percent <= 175:
		return 8
	default:
		return 9
	}
}
