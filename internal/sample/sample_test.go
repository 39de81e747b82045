package sample_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/cleanup"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapdoc"
	"github.com/couchcryptid/wetland-gis-tools/internal/pipeline"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
	"github.com/couchcryptid/wetland-gis-tools/internal/sample"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func build(t *testing.T) *sample.Paths {
	t.Helper()
	tables, err := reference.Embedded()
	require.NoError(t, err)
	paths, err := sample.Build(context.Background(), t.TempDir(), tables, testLogger())
	require.NoError(t, err)
	return paths
}

func TestBuild_ProjectDataValidates(t *testing.T) {
	ctx := context.Background()
	paths := build(t)

	for _, src := range []string{paths.Project, paths.Shapefiles} {
		ws, err := pipeline.OpenSource(ctx, src, testLogger())
		require.NoError(t, err, src)

		inv, err := new(pipeline.Validator).Validate(ctx, ws)
		require.NoError(t, err, src)
		assert.Len(t, inv.Layers, 9, src)
		require.NoError(t, ws.Close())
	}
}

func TestBuild_AppendFillsEveryTarget(t *testing.T) {
	ctx := context.Background()
	paths := build(t)

	src, err := pipeline.OpenSource(ctx, paths.Shapefiles, testLogger())
	require.NoError(t, err)
	dst, err := geopackage.Open(ctx, paths.Master, testLogger())
	require.NoError(t, err)
	defer dst.Close()

	report, err := pipeline.New(dst, testLogger()).Run(ctx, src)
	require.NoError(t, err)
	assert.False(t, report.Partial())
	for _, c := range report.Categories {
		assert.Equal(t, pipeline.StatusAdded, c.Status, c.Category.Name)
	}
	features, _ := report.Counts()
	assert.Equal(t, 11, features)
}

func TestBuild_Domains(t *testing.T) {
	ctx := context.Background()
	paths := build(t)

	g, err := geopackage.Open(ctx, paths.Domains, testLogger())
	require.NoError(t, err)
	defer g.Close()

	report, err := cleanup.New(testLogger()).Run(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, []string{"Legacy", "Percent"}, report.Deleted)
	assert.Equal(t, []string{"CoverClass"}, report.Dangling)
}

func TestBuild_TemplatesAndMaps(t *testing.T) {
	paths := build(t)

	for _, name := range []string{"StPl_IL_East_Blank.mapx", "StPl_IL_West_Blank.mapx"} {
		_, err := mapdoc.Load(filepath.Join(paths.Templates, name))
		assert.NoError(t, err, name)
	}

	entries, err := os.ReadDir(paths.Maps)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Fig1_Project_Location.mapx", "Fig3_Determination_Map.mapx"}, names)

	atlas, err := mapdoc.Load(filepath.Join(paths.Maps, "Fig3_Determination_Map.mapx"))
	require.NoError(t, err)
	enabled, pages := atlas.DataDrivenPages()
	assert.True(t, enabled)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestBuild_ExportWorkspaces(t *testing.T) {
	ctx := context.Background()
	paths := build(t)
	require.Len(t, paths.Export, 3)

	g, err := geopackage.Open(ctx, paths.Export[2], testLogger())
	require.NoError(t, err)
	defer g.Close()
	_, ok, err := g.FeatureClass(ctx, domain.TargetPrefix+"BMP_Project_Boundaries")
	require.NoError(t, err)
	assert.True(t, ok)
}
