package gdbexport

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var plan = []reference.ExportGroup{
	{Group: "IDOT Delineations", FeatureClasses: []string{"Project_Boundaries", "Wetland_Sites"}},
	{Group: "IDOT BMPs", FeatureClasses: []string{"BMP_Project_Boundaries"}},
}

// master writes a geodatabase holding one square per named feature class.
func master(t *testing.T, dir, file string, names ...string) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(dir, file)
	g, err := geopackage.Create(ctx, path, testLogger())
	require.NoError(t, err)
	defer g.Close()

	for _, name := range names {
		require.NoError(t, g.CreateFeatureClass(ctx, workspace.FeatureClass{
			Name:     domain.TargetPrefix + name,
			Geometry: domain.GeometryPolygon,
			SRSID:    3435,
			Fields:   []workspace.Field{{Name: "PID", Type: workspace.FieldText}},
		}))
		require.NoError(t, g.InsertFeatures(ctx, domain.TargetPrefix+name, []workspace.Feature{{
			Geometry:   orb.Polygon{orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}},
			Attributes: map[string]any{"PID": "P-" + name},
		}}))
	}
	return path
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ws := []string{
		master(t, dir, "delineations.gpkg", "Project_Boundaries", "Wetland_Sites", "Wetland_Sites_Line"),
		master(t, dir, "bmps.gpkg", "BMP_Project_Boundaries"),
	}
	out := t.TempDir()

	report, err := New(plan, testLogger()).Run(ctx, ws, out, "Delivery_2018")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Delivery_2018.gpkg"), report.Output)
	require.Len(t, report.Copied, 3)
	assert.Equal(t, Copied{Group: "IDOT BMPs", FeatureClass: "IDOT_Wetlands.INHS_IDOT.BMP_Project_Boundaries", Features: 1}, report.Copied[2])

	g, err := geopackage.Open(ctx, report.Output, testLogger())
	require.NoError(t, err)
	defer g.Close()
	fcs, err := g.FeatureClasses(ctx)
	require.NoError(t, err)
	names := make([]string, len(fcs))
	for i, fc := range fcs {
		names[i] = fc.Name
	}
	assert.ElementsMatch(t, []string{
		"IDOT_Wetlands.INHS_IDOT.Project_Boundaries",
		"IDOT_Wetlands.INHS_IDOT.Wetland_Sites",
		"IDOT_Wetlands.INHS_IDOT.BMP_Project_Boundaries",
	}, names, "only planned feature classes are exported")
}

func TestRun_MissingFeatureClassAborts(t *testing.T) {
	dir := t.TempDir()
	ws := []string{
		master(t, dir, "delineations.gpkg", "Project_Boundaries", "Wetland_Sites"),
		master(t, dir, "bmps.gpkg", "Project_Boundaries"),
	}
	out := t.TempDir()

	_, err := New(plan, testLogger()).Run(context.Background(), ws, out, "Delivery")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "features from IDOT BMPs could not be exported")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.NoFileExists(t, filepath.Join(out, "Delivery.gpkg"))
}

func TestRun_OutputExists(t *testing.T) {
	dir := t.TempDir()
	ws := []string{
		master(t, dir, "delineations.gpkg", "Project_Boundaries", "Wetland_Sites"),
		master(t, dir, "bmps.gpkg", "BMP_Project_Boundaries"),
	}

	_, err := New(plan, testLogger()).Run(context.Background(), ws, dir, "bmps")
	assert.ErrorIs(t, err, domain.ErrResourceExists)
	assert.FileExists(t, filepath.Join(dir, "bmps.gpkg"))
}

func TestRun_BadArguments(t *testing.T) {
	e := New(plan, testLogger())

	_, err := e.Run(context.Background(), []string{"only-one.gpkg"}, t.TempDir(), "x")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = e.Run(context.Background(), []string{"a.gpkg", "b.gpkg"}, filepath.Join(t.TempDir(), "missing"), "x")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	out := t.TempDir()
	_, err = e.Run(context.Background(), []string{filepath.Join(out, "a.gpkg"), "b.gpkg"}, out, "x")
	assert.Contains(t, err.Error(), "features from IDOT Delineations could not be exported")
	assert.NoFileExists(t, filepath.Join(out, "x.gpkg"))
}
