package instance

import "github.com/glyphkit/corefont/ot"

// buildInstanceSTAT emits a minimal STAT table describing the single
// point the font has been pinned to: one axis record per fvar axis, one
// axis-value record carrying the pinned (or default) value. A value
// equal to the axis default is marked elidable so name-table composition
// can drop it from the style name.
func buildInstanceSTAT(fvar *ot.Fvar, axisLocations map[ot.Tag]float32) *ot.Stat {
	axes := fvar.AxisInfos()
	s := &ot.Stat{
		MajorVersion: 1,
		MinorVersion: 2,
	}
	for i, axis := range axes {
		s.Axes = append(s.Axes, ot.StatAxisRecord{
			Tag:          axis.Tag,
			NameID:       axis.NameID,
			AxisOrdering: uint16(i),
		})

		value := axis.DefaultValue
		if v, ok := axisLocations[axis.Tag]; ok {
			value = v
		}

		var flags ot.StatAxisValueFlags
		if value == axis.DefaultValue {
			flags = ot.StatFlagElidableAxisValueName
		}

		s.Values = append(s.Values, ot.StatAxisValue{
			Format:      1,
			AxisIndex:   uint16(i),
			Flags:       flags,
			ValueNameID: axis.NameID,
			Value:       value,
		})
	}
	return s
}
