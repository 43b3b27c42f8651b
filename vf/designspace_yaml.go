package vf

import (
	"fmt"

	"github.com/glyphkit/corefont/ot"
	"gopkg.in/yaml.v3"
)

// axisDoc, sourceDoc and instanceDoc mirror Axis/Source/Instance in a
// YAML-friendly shape: tags as 4-character strings, locations as
// string-keyed maps, and a source's font held by file path rather than
// by embedded bytes.
type axisDoc struct {
	Tag     string  `yaml:"tag"`
	Name    string  `yaml:"name"`
	Min     float32 `yaml:"min"`
	Default float32 `yaml:"default"`
	Max     float32 `yaml:"max"`
	Hidden  bool    `yaml:"hidden,omitempty"`
}

type sourceDoc struct {
	Name     string             `yaml:"name"`
	Path     string             `yaml:"path"`
	Location map[string]float32 `yaml:"location"`
}

type instanceDoc struct {
	Name     string             `yaml:"name"`
	Location map[string]float32 `yaml:"location"`
}

type designspaceDoc struct {
	Axes      []axisDoc     `yaml:"axes"`
	Sources   []sourceDoc   `yaml:"sources"`
	Instances []instanceDoc `yaml:"instances"`
}

// SourceRef is one source master as decoded from a designspace document:
// everything Source carries except the font bytes, which the document
// doesn't embed.
type SourceRef struct {
	Name     string
	Path     string
	Location map[ot.Tag]float32
}

// DesignspaceDoc is a designspace description decoded from YAML. Axes and
// Instances are ready to use directly; Sources name an external font file
// by Path rather than embedding it, since decoding a document is a pure
// parse with no file access. ResolveSources combines it with the caller's
// own loaded font bytes (keyed by Path) into a buildable Designspace.
type DesignspaceDoc struct {
	Axes      []Axis
	Sources   []SourceRef
	Instances []Instance
}

// DecodeDesignspaceYAML parses a designspace document. Axis tags and
// location keys must be 1 to 4 bytes long (matching the `tag` field
// fontmake-style designspace files use); shorter ones are space-padded
// to 4 bytes.
func DecodeDesignspaceYAML(data []byte) (*DesignspaceDoc, error) {
	var doc designspaceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("vf: decoding designspace YAML: %w", err)
	}

	out := &DesignspaceDoc{
		Axes:      make([]Axis, len(doc.Axes)),
		Sources:   make([]SourceRef, len(doc.Sources)),
		Instances: make([]Instance, len(doc.Instances)),
	}
	for i, a := range doc.Axes {
		tag, err := tagFromYAMLString(a.Tag)
		if err != nil {
			return nil, err
		}
		out.Axes[i] = Axis{
			Tag:     tag,
			Name:    a.Name,
			Min:     a.Min,
			Default: a.Default,
			Max:     a.Max,
			Hidden:  a.Hidden,
		}
	}
	for i, s := range doc.Sources {
		loc, err := locationFromYAML(s.Location)
		if err != nil {
			return nil, err
		}
		out.Sources[i] = SourceRef{Name: s.Name, Path: s.Path, Location: loc}
	}
	for i, inst := range doc.Instances {
		loc, err := locationFromYAML(inst.Location)
		if err != nil {
			return nil, err
		}
		out.Instances[i] = Instance{Name: inst.Name, Location: loc}
	}
	return out, nil
}

// ResolveSources combines d with fontBytes (keyed by each SourceRef's
// Path) into a Designspace ready for Build. It is the caller's
// responsibility to have read those files; ResolveSources itself does no
// file I/O.
func (d *DesignspaceDoc) ResolveSources(fontBytes map[string][]byte) (Designspace, error) {
	sources := make([]Source, len(d.Sources))
	for i, ref := range d.Sources {
		data, ok := fontBytes[ref.Path]
		if !ok {
			return Designspace{}, fmt.Errorf("vf: no font bytes provided for source %q (path %q)", ref.Name, ref.Path)
		}
		sources[i] = Source{Name: ref.Name, Location: ref.Location, FontBytes: data}
	}
	return Designspace{Axes: d.Axes, Sources: sources, Instances: d.Instances}, nil
}

// EncodeDesignspaceYAML serializes ds back to a designspace document.
// sourcePaths supplies the file path each source's bytes were (or would
// be) loaded from, keyed by Source.Name, since Designspace itself only
// carries the loaded bytes rather than a path.
func EncodeDesignspaceYAML(ds Designspace, sourcePaths map[string]string) ([]byte, error) {
	doc := designspaceDoc{
		Axes:      make([]axisDoc, len(ds.Axes)),
		Sources:   make([]sourceDoc, len(ds.Sources)),
		Instances: make([]instanceDoc, len(ds.Instances)),
	}
	for i, a := range ds.Axes {
		doc.Axes[i] = axisDoc{
			Tag:     a.Tag.String(),
			Name:    a.Name,
			Min:     a.Min,
			Default: a.Default,
			Max:     a.Max,
			Hidden:  a.Hidden,
		}
	}
	for i, s := range ds.Sources {
		doc.Sources[i] = sourceDoc{Name: s.Name, Path: sourcePaths[s.Name], Location: locationToYAML(s.Location)}
	}
	for i, inst := range ds.Instances {
		doc.Instances[i] = instanceDoc{Name: inst.Name, Location: locationToYAML(inst.Location)}
	}
	return yaml.Marshal(doc)
}

func locationFromYAML(loc map[string]float32) (map[ot.Tag]float32, error) {
	out := make(map[ot.Tag]float32, len(loc))
	for k, v := range loc {
		tag, err := tagFromYAMLString(k)
		if err != nil {
			return nil, err
		}
		out[tag] = v
	}
	return out, nil
}

func locationToYAML(loc map[ot.Tag]float32) map[string]float32 {
	out := make(map[string]float32, len(loc))
	for tag, v := range loc {
		out[tag.String()] = v
	}
	return out
}

// tagFromYAMLString packs a tag string to exactly 4 bytes, space-padded,
// matching ErrAxisTagInvalid's own length rule.
func tagFromYAMLString(s string) (ot.Tag, error) {
	if len(s) == 0 || len(s) > 4 {
		return 0, ErrAxisTagInvalid
	}
	var b [4]byte
	for i := range b {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return ot.MakeTag(b[0], b[1], b[2], b[3]), nil
}
