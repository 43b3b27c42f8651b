package vf

import (
	"os"
	"testing"

	"github.com/glyphkit/corefont/instance"
	"github.com/glyphkit/corefont/internal/testutil"
	"github.com/glyphkit/corefont/ot"
)

func loadVariableFont(t *testing.T) []byte {
	t.Helper()
	path := testutil.FindTestFont("Roboto-Variable.ttf")
	if path == "" {
		t.Skip("Roboto-Variable.ttf not found")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read font: %v", err)
	}
	return data
}

// buildTwoMasterDesignspace uses the instancer to carve two static
// masters (at wght=400 and wght=700) out of one variable test font, so
// the builder can be exercised without needing standalone static master
// fixtures on disk.
func buildTwoMasterDesignspace(t *testing.T) Designspace {
	t.Helper()
	data := loadVariableFont(t)

	regular, err := instance.Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 400})
	if err != nil {
		t.Fatalf("instantiate regular: %v", err)
	}
	bold, err := instance.Instantiate(data, map[ot.Tag]float32{ot.TagAxisWeight: 700})
	if err != nil {
		t.Fatalf("instantiate bold: %v", err)
	}

	return Designspace{
		Axes: []Axis{
			{Tag: ot.TagAxisWeight, Name: "Weight", Min: 400, Default: 400, Max: 700},
		},
		Sources: []Source{
			{Name: "Regular", Location: map[ot.Tag]float32{ot.TagAxisWeight: 400}, FontBytes: regular},
			{Name: "Bold", Location: map[ot.Tag]float32{ot.TagAxisWeight: 700}, FontBytes: bold},
		},
	}
}

func TestBuildProducesParsableVariableFont(t *testing.T) {
	ds := buildTwoMasterDesignspace(t)

	out, err := Build(ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	font, err := ot.ParseFont(out, 0)
	if err != nil {
		t.Fatalf("failed to parse built font: %v", err)
	}

	if !font.HasTable(ot.TagFvar) {
		t.Error("built font should have fvar")
	}
	if !font.HasTable(ot.TagGvar) {
		t.Error("built font should have gvar")
	}
	if !font.HasTable(ot.TagSTAT) {
		t.Error("built font should have STAT")
	}

	fvarData, err := font.TableData(ot.TagFvar)
	if err != nil {
		t.Fatalf("TableData(fvar): %v", err)
	}
	fvar, err := ot.ParseFvar(fvarData)
	if err != nil {
		t.Fatalf("ParseFvar: %v", err)
	}
	if fvar.AxisCount() != 1 {
		t.Errorf("expected 1 axis, got %d", fvar.AxisCount())
	}
}

func TestBuildRejectsEmptyDesignspace(t *testing.T) {
	if _, err := Build(Designspace{}); err != ErrNoAxes {
		t.Errorf("expected ErrNoAxes, got %v", err)
	}
	if _, err := Build(Designspace{Axes: []Axis{{Tag: ot.TagAxisWeight}}}); err != ErrNoSources {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestBuildRejectsMissingDefaultSource(t *testing.T) {
	ds := buildTwoMasterDesignspace(t)
	ds.Sources = ds.Sources[1:] // only the bold master, no wght=400 source

	if _, err := Build(ds); err != ErrNoDefaultSource {
		t.Errorf("expected ErrNoDefaultSource, got %v", err)
	}
}

func TestNormalizeLocation(t *testing.T) {
	axes := []Axis{{Tag: ot.TagAxisWeight, Min: 100, Default: 400, Max: 900}}

	cases := []struct {
		value float32
		want  float32
	}{
		{400, 0},
		{100, -1},
		{900, 1},
		{250, -0.5},
		{650, 0.5},
	}
	for _, c := range cases {
		loc := normalizeLocation(axes, map[ot.Tag]float32{ot.TagAxisWeight: c.value})
		if got := loc[ot.TagAxisWeight]; got != c.want {
			t.Errorf("normalizeLocation(%v) = %v, want %v", c.value, got, c.want)
		}
	}
}
