package scaffold

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapdoc"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScaffolder(t *testing.T) *Scaffolder {
	t.Helper()
	tables, err := reference.Embedded()
	require.NoError(t, err)

	templates := t.TempDir()
	for _, county := range []string{"Cook", "Adams"} {
		zone, err := tables.Zone(county)
		require.NoError(t, err)
		doc, err := mapdoc.Blank(templates, zone)
		require.NoError(t, err)
		require.NoError(t, doc.Save())
	}
	return New(tables, templates, testLogger())
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(des))
	for i, d := range des {
		names[i] = d.Name()
	}
	return names
}

func TestCreate_ProjectLayout(t *testing.T) {
	s := newScaffolder(t)
	root := t.TempDir()

	res, err := s.Create(context.Background(), Request{
		Layout: reference.LayoutProject, Root: root, Name: "P-91-004-18", County: "Kane", Size: "Large",
	})
	require.NoError(t, err)

	dir := filepath.Join(root, "P-91-004-18")
	assert.Equal(t, dir, res.Dir)
	assert.Equal(t, domain.ZoneEast, res.Zone.Zone)
	assert.Equal(t, domain.District1ADID, res.District1)

	want := []string{
		"Fig1_Project_Location.mapx", "Fig2_NWI.mapx", "Fig3_ADID.mapx", "Fig4_Soils.mapx",
		"Fig5_Overview_Map.mapx", "Fig6_Determination_Map.mapx",
		"Files from IDOT", "GIS Files Final", "GNSS", "In_Progress.gpkg", "Notes", "PDF",
	}
	if diff := cmp.Diff(want, entries(t, dir)); diff != "" {
		t.Errorf("project tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"DGN_files_IL_StPL_East_NAD83", "Shapefiles_IL_StPL_East_NAD83"},
		entries(t, filepath.Join(dir, "GIS Files Final")))

	gpkg, err := geopackage.Open(context.Background(), res.Geodatabase, testLogger())
	require.NoError(t, err)
	fcs, err := gpkg.FeatureClasses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fcs)
	require.NoError(t, gpkg.Close())

	doc, err := mapdoc.Load(filepath.Join(dir, "Fig3_ADID.mapx"))
	require.NoError(t, err)
	assert.Equal(t, "Fig3_ADID.mapx", doc.Name())
	assert.Equal(t, "P-91-004-18", doc.Get("project").String())
	assert.Equal(t, "StPl_IL_East_Blank", doc.Get("template").String())
	assert.Len(t, res.Documents, 6)
}

func TestCreate_WestSmallOutsideDistrict1(t *testing.T) {
	s := newScaffolder(t)
	root := t.TempDir()

	res, err := s.Create(context.Background(), Request{
		Layout: reference.LayoutProject, Root: root, Name: "Quincy", County: "Adams", Size: "Small",
	})
	require.NoError(t, err)
	assert.Equal(t, 3436, res.Zone.SRSID)
	assert.DirExists(t, filepath.Join(res.Dir, "GIS Files Final", "Shapefiles_IL_StPL_West_NAD83"))
	assert.Equal(t, []string{
		filepath.Join(res.Dir, "Fig1_Project_Location.mapx"),
		filepath.Join(res.Dir, "Fig2_NWI.mapx"),
		filepath.Join(res.Dir, "Fig3_Determination_Map.mapx"),
	}, res.Documents)
}

func TestCreate_SecondRunFails(t *testing.T) {
	s := newScaffolder(t)
	root := t.TempDir()
	req := Request{Layout: reference.LayoutProject, Root: root, Name: "P1", County: "Cook", Size: "Small"}

	_, err := s.Create(context.Background(), req)
	require.NoError(t, err)
	marker := filepath.Join(root, "P1", "Notes", "field.txt")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))

	_, err = s.Create(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResourceExists)
	assert.FileExists(t, marker)
}

func TestCreate_UnknownCountyTouchesNothing(t *testing.T) {
	s := newScaffolder(t)
	root := t.TempDir()

	_, err := s.Create(context.Background(), Request{
		Layout: reference.LayoutProject, Root: root, Name: "P1", County: "Dupont", Size: "Small",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "check spelling & capitalization of county name")
	assert.Contains(t, err.Error(), "project not created")
	assert.Empty(t, entries(t, root))
}

func TestCreate_InvalidInputs(t *testing.T) {
	s := newScaffolder(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"bad size", Request{Layout: reference.LayoutProject, Name: "P1", County: "Cook", Size: "medium"}},
		{"empty name", Request{Layout: reference.LayoutProject, County: "Cook", Size: "Small"}},
		{"nested name", Request{Layout: reference.LayoutProject, Name: "a/b", County: "Cook", Size: "Small"}},
		{"unknown layout", Request{Layout: "legacy", Name: "P1", County: "Cook", Size: "Small"}},
		{"person not allowed", Request{Layout: reference.LayoutPerson, Person: "Mallory", Name: "P1", County: "Cook"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.req.Root = root
			_, err := s.Create(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
			assert.Empty(t, entries(t, root))
		})
	}
}

func TestCreate_MissingTemplate(t *testing.T) {
	tables, err := reference.Embedded()
	require.NoError(t, err)
	s := New(tables, t.TempDir(), testLogger())
	root := t.TempDir()

	_, err = s.Create(context.Background(), Request{
		Layout: reference.LayoutProject, Root: root, Name: "P1", County: "Cook", Size: "Small",
	})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Empty(t, entries(t, root))
}

func TestCreate_PersonLayout(t *testing.T) {
	s := newScaffolder(t)
	root := t.TempDir()

	res, err := s.Create(context.Background(), Request{
		Layout: reference.LayoutPerson, Root: root, Person: "Chen", Name: "Route 47", County: "Will", Size: "Large",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "Chen", "Route 47"), res.Dir)
	assert.Equal(t, domain.SizeSmall, res.Size, "person projects are always small")
	assert.DirExists(t, filepath.Join(res.Dir, "Shapefiles Final", "DGN_files_IL_StPL_East_NAD83"))
	assert.FileExists(t, filepath.Join(res.Dir, "Fig4_Determination_Map.mapx"))
	assert.NoFileExists(t, filepath.Join(res.Dir, "Fig4_Overview_Map.mapx"))

	_, err = s.Create(context.Background(), Request{
		Layout: reference.LayoutPerson, Root: root, Person: "Chen", Name: "Route 59", County: "Cook",
	})
	require.NoError(t, err, "person folder may already exist")
}
