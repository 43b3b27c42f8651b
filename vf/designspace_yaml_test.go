package vf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/glyphkit/corefont/ot"
)

const testDesignspaceYAML = `
axes:
  - tag: wght
    name: Weight
    min: 400
    default: 400
    max: 700
sources:
  - name: Regular
    path: Regular.ttf
    location:
      wght: 400
  - name: Bold
    path: Bold.ttf
    location:
      wght: 700
instances:
  - name: Medium
    location:
      wght: 500
`

func TestDecodeDesignspaceYAML(t *testing.T) {
	doc, err := DecodeDesignspaceYAML([]byte(testDesignspaceYAML))
	require.NoError(t, err)
	require.Len(t, doc.Axes, 1)
	require.Equal(t, ot.TagAxisWeight, doc.Axes[0].Tag)
	require.Equal(t, "Weight", doc.Axes[0].Name)

	require.Len(t, doc.Sources, 2)
	require.Equal(t, "Regular.ttf", doc.Sources[0].Path)
	require.Equal(t, float32(400), doc.Sources[0].Location[ot.TagAxisWeight])
	require.Equal(t, "Bold.ttf", doc.Sources[1].Path)

	require.Len(t, doc.Instances, 1)
	require.Equal(t, "Medium", doc.Instances[0].Name)
	require.Equal(t, float32(500), doc.Instances[0].Location[ot.TagAxisWeight])
}

func TestDecodeDesignspaceYAMLRejectsBadTag(t *testing.T) {
	_, err := DecodeDesignspaceYAML([]byte(`axes:
  - tag: toolongtag
    name: Bad
`))
	require.ErrorIs(t, err, ErrAxisTagInvalid)
}

func TestResolveSourcesMissingBytes(t *testing.T) {
	doc, err := DecodeDesignspaceYAML([]byte(testDesignspaceYAML))
	require.NoError(t, err)

	_, err = doc.ResolveSources(map[string][]byte{"Regular.ttf": []byte("...")})
	require.Error(t, err, "expected an error for the Bold source whose path has no bytes")
}

func TestResolveSourcesThenEncodeRoundTrips(t *testing.T) {
	doc, err := DecodeDesignspaceYAML([]byte(testDesignspaceYAML))
	require.NoError(t, err)

	ds, err := doc.ResolveSources(map[string][]byte{
		"Regular.ttf": []byte("regular-bytes"),
		"Bold.ttf":    []byte("bold-bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "Regular", ds.Sources[0].Name)
	require.Equal(t, []byte("bold-bytes"), ds.Sources[1].FontBytes)

	paths := map[string]string{"Regular": "Regular.ttf", "Bold": "Bold.ttf"}
	out, err := EncodeDesignspaceYAML(ds, paths)
	require.NoError(t, err)

	roundTripped, err := DecodeDesignspaceYAML(out)
	require.NoError(t, err)

	if diff := cmp.Diff(doc.Axes, roundTripped.Axes); diff != "" {
		t.Errorf("axes changed across a YAML round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Instances, roundTripped.Instances); diff != "" {
		t.Errorf("instances changed across a YAML round trip (-want +got):\n%s", diff)
	}
}
