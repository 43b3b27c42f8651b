package vf

import (
	"encoding/binary"

	"github.com/glyphkit/corefont/fixedpoint"
	"github.com/glyphkit/corefont/ot"
)

// fvarFirstAxisNameID follows the convention
// every name-table-consuming tool expects: font-specific name-table
// entries for variable-font metadata start at 256, axis names first,
// then named-instance subfamily names.
const fvarFirstAxisNameID = 256

// buildFvarAndNames emits the fvar table and, if a name table was
// supplied, a copy of it with axis-name and named-instance entries
// added for Windows-Unicode-English and Macintosh-Roman, dropping every
// existing record at name ID 256 or above.
func buildFvarAndNames(ds Designspace, nameData []byte) (fvarBytes []byte, patchedName []byte) {
	axisCount := len(ds.Axes)
	instanceCount := len(ds.Instances)

	nextNameID := uint16(fvarFirstAxisNameID)
	axisNameIDs := make([]uint16, axisCount)
	var nb *ot.NameBuilder
	if nameData != nil {
		nb = ot.NewNameBuilder(fvarFirstAxisNameID)
	}
	for i, ax := range ds.Axes {
		axisNameIDs[i] = nextNameID
		if nb != nil {
			nb.SetASCII(nextNameID, ax.Name)
		}
		nextNameID++
	}

	instanceNameIDs := make([]uint16, instanceCount)
	for i, inst := range ds.Instances {
		instanceNameIDs[i] = nextNameID
		if nb != nil {
			nb.SetASCII(nextNameID, inst.Name)
		}
		nextNameID++
	}

	headerSize := 16
	axisSize := 20
	instanceSize := 4 + axisCount*4 // no postScriptNameID

	total := headerSize + axisCount*axisSize + instanceCount*instanceSize
	out := make([]byte, total)
	binary.BigEndian.PutUint16(out[0:], 1) // majorVersion
	binary.BigEndian.PutUint16(out[2:], 0) // minorVersion
	binary.BigEndian.PutUint16(out[4:], uint16(headerSize))
	binary.BigEndian.PutUint16(out[6:], 2) // reserved / axisSize placeholder (unused by readers)
	binary.BigEndian.PutUint16(out[8:], uint16(axisCount))
	binary.BigEndian.PutUint16(out[10:], uint16(axisSize))
	binary.BigEndian.PutUint16(out[12:], uint16(instanceCount))
	binary.BigEndian.PutUint16(out[14:], uint16(instanceSize))

	off := headerSize
	for i, ax := range ds.Axes {
		binary.BigEndian.PutUint32(out[off:], uint32(ax.Tag))
		binary.BigEndian.PutUint32(out[off+4:], fixedpoint.ToFixed1616(ax.Min))
		binary.BigEndian.PutUint32(out[off+8:], fixedpoint.ToFixed1616(ax.Default))
		binary.BigEndian.PutUint32(out[off+12:], fixedpoint.ToFixed1616(ax.Max))
		flags := uint16(0)
		if ax.Hidden {
			flags = 1
		}
		binary.BigEndian.PutUint16(out[off+16:], flags)
		binary.BigEndian.PutUint16(out[off+18:], axisNameIDs[i])
		off += axisSize
	}

	for i, inst := range ds.Instances {
		binary.BigEndian.PutUint16(out[off:], instanceNameIDs[i])
		binary.BigEndian.PutUint16(out[off+2:], 0) // flags
		coordOff := off + 4
		for a, ax := range ds.Axes {
			v := ax.Default
			if cv, ok := inst.Location[ax.Tag]; ok {
				v = cv
			}
			binary.BigEndian.PutUint32(out[coordOff+a*4:], fixedpoint.ToFixed1616(v))
		}
		off += instanceSize
	}

	if nb != nil {
		patchedName = nb.Build()
		patchedName = mergeNameTables(nameData, patchedName)
	}
	return out, patchedName
}

// mergeNameTables carries forward every record from original whose
// nameID falls below the range this build assigns (256+), then adds the
// freshly built axis/instance records, producing one merged table.
func mergeNameTables(original, augmentedOnly []byte) []byte {
	orig, err := ot.ParseName(original)
	if err != nil {
		return augmentedOnly
	}
	added, err := ot.ParseName(augmentedOnly)
	if err != nil {
		return augmentedOnly
	}

	nb := ot.NewNameBuilder(fvarFirstAxisNameID)
	for _, r := range orig.Records {
		if r.NameID >= fvarFirstAxisNameID {
			continue
		}
		nb.AddRecord(r)
	}
	for _, r := range added.Records {
		nb.AddRecord(r)
	}
	return nb.Build()
}

// buildSTAT emits one axis record per design axis and a single "normal"
// axis-value stop at each axis's default, mirroring the instancer's
// minimal STAT (a full STAT with every named stop is left to callers
// that want to post-process the built font with richer style data).
func buildSTAT(axes []Axis) *ot.Stat {
	s := &ot.Stat{MajorVersion: 1, MinorVersion: 2}
	for i, ax := range axes {
		nameID := uint16(fvarFirstAxisNameID + i)
		s.Axes = append(s.Axes, ot.StatAxisRecord{
			Tag:          ax.Tag,
			NameID:       nameID,
			AxisOrdering: uint16(i),
		})
		s.Values = append(s.Values, ot.StatAxisValue{
			Format:      1,
			AxisIndex:   uint16(i),
			Flags:       ot.StatFlagElidableAxisValueName,
			ValueNameID: nameID,
			Value:       ax.Default,
		})
	}
	return s
}
