package shapefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

var siteFields = []workspace.Field{
	{Name: "PID", Type: workspace.FieldText},
	{Name: "Seq_Num", Type: workspace.FieldInteger},
	{Name: "Site", Type: workspace.FieldText},
	{Name: "Acres", Type: workspace.FieldReal},
	{Name: "Surveyed", Type: workspace.FieldDate},
}

// Outer ring counter-clockwise and hole clockwise, the opposite of shapefile
// winding, so Write has to fix both.
var withHole = orb.Polygon{
	orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
	orb.Ring{{2, 2}, {2, 4}, {4, 4}, {4, 2}, {2, 2}},
}

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, Write(dir, workspace.FeatureClass{
		Name: "Wetland_Sites", Geometry: domain.GeometryPolygon, Fields: siteFields,
	}, []workspace.Feature{
		{Geometry: withHole, Attributes: map[string]any{"PID": "P-1", "Seq_Num": int64(1), "Site": "W1", "Acres": 2.5, "Surveyed": "20180307"}},
		{Geometry: orb.MultiPolygon{
			{{{20, 20}, {20, 25}, {25, 25}, {25, 20}, {20, 20}}},
			{{{30, 30}, {30, 35}, {35, 35}, {35, 30}, {30, 30}}},
		}, Attributes: map[string]any{"PID": "P-1", "Seq_Num": int64(2)}},
	}))

	require.NoError(t, Write(dir, workspace.FeatureClass{
		Name: "Sampling_Points", Geometry: domain.GeometryPoint,
		Fields: []workspace.Field{{Name: "PID", Type: workspace.FieldText}, {Name: "Point", Type: workspace.FieldText}},
	}, []workspace.Feature{
		{Geometry: orb.Point{5, 5}, Attributes: map[string]any{"PID": "P-1", "Point": "SP1"}},
	}))

	require.NoError(t, Write(dir, workspace.FeatureClass{
		Name: "Transects", Geometry: domain.GeometryLine,
		Fields: []workspace.Field{{Name: "PID", Type: workspace.FieldText}},
	}, []workspace.Feature{
		{Geometry: orb.LineString{{0, 0}, {5, 5}, {10, 0}}, Attributes: map[string]any{"PID": "P-1"}},
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a shapefile"), 0o644))
	return dir
}

func TestFolder_FeatureClasses(t *testing.T) {
	dir := writeFixture(t)
	f, err := Open(dir)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, workspace.KindFileSystem, f.Kind())

	fcs, err := f.FeatureClasses(context.Background())
	require.NoError(t, err)
	require.Len(t, fcs, 3)

	assert.Equal(t, "Sampling_Points", fcs[0].Name)
	assert.Equal(t, domain.GeometryPoint, fcs[0].Geometry)
	assert.Equal(t, "Transects", fcs[1].Name)
	assert.Equal(t, domain.GeometryLine, fcs[1].Geometry)
	assert.Equal(t, "Wetland_Sites", fcs[2].Name)
	assert.Equal(t, domain.GeometryPolygon, fcs[2].Geometry)
	assert.Equal(t, "MULTIPOLYGON", fcs[2].GeometryName)
	assert.Equal(t, siteFields, fcs[2].Fields)
}

func TestFolder_Features(t *testing.T) {
	dir := writeFixture(t)
	f, err := Open(dir)
	require.NoError(t, err)

	feats, err := f.Features(context.Background(), "Wetland_Sites")
	require.NoError(t, err)
	require.Len(t, feats, 2)

	first := feats[0]
	mp, ok := first.Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, mp, 1, "the hole stays with its outer ring")
	require.Len(t, mp[0], 2)
	assert.Equal(t, orb.CW, mp[0][0].Orientation())
	assert.Equal(t, orb.CCW, mp[0][1].Orientation())

	assert.Equal(t, "P-1", first.Attributes["PID"])
	assert.Equal(t, int64(1), first.Attributes["Seq_Num"])
	assert.Equal(t, "W1", first.Attributes["Site"])
	assert.InDelta(t, 2.5, first.Attributes["Acres"], 1e-9)
	assert.Equal(t, "20180307", first.Attributes["Surveyed"])

	second := feats[1]
	assert.Len(t, second.Geometry.(orb.MultiPolygon), 2)
	assert.True(t, workspace.IsBlank(second.Attributes["Site"]))
	assert.Nil(t, second.Attributes["Acres"])

	lines, err := f.Features(context.Background(), "Transects")
	require.NoError(t, err)
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {5, 5}, {10, 0}}}, lines[0].Geometry)

	_, err = f.Features(context.Background(), "wetland_sites")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed, "names are case-sensitive")
}

func TestWrite_Existing(t *testing.T) {
	dir := writeFixture(t)
	err := Write(dir, workspace.FeatureClass{Name: "Transects", Geometry: domain.GeometryLine}, nil)
	assert.ErrorIs(t, err, domain.ErrResourceExists)
}

func TestWrite_CompanionFiles(t *testing.T) {
	dir := t.TempDir()
	fc := workspace.FeatureClass{
		Name:     "Transects",
		Geometry: domain.GeometryLine,
		Fields:   []workspace.Field{{Name: "PID", Type: workspace.FieldText}},
	}
	require.NoError(t, Write(dir, fc, []workspace.Feature{
		{Geometry: orb.LineString{{0, 0}, {1, 1}}, Attributes: map[string]any{"PID": "P-1"}},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Transects.cpg", "Transects.dbf", "Transects.shp", "Transects.shx"}, names)

	f, err := Open(dir)
	require.NoError(t, err)
	feats, err := f.Features(context.Background(), "Transects")
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, "P-1", feats[0].Attributes["PID"])
}

func TestOpen_NotAFolder(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestTextDecoding(t *testing.T) {
	latin := "Kankakee Marais \xe0 l'Eau"

	assert.Equal(t, "Kankakee Marais à l'Eau", textDecoder(codePage(""))(latin))
	assert.Equal(t, "Kankakee Marais à l'Eau", textDecoder(codePage("ISO-8859-1"))(latin))
	assert.Equal(t, "Cañon", textDecoder(codePage("UTF-8"))("Cañon"))
	assert.Equal(t, "plain", textDecoder(codePage("1252"))("plain"))
	assert.Equal(t, charmap.Windows1252, codePage("ANSI 1252"))
}

func TestParseValue(t *testing.T) {
	num := shp.NumberField("Seq_Num", 10)
	assert.Equal(t, int64(42), parseValue(num, "        42"))
	assert.Nil(t, parseValue(num, "          "))
	assert.Nil(t, parseValue(num, "**********"))
	assert.Equal(t, int64(7), parseValue(num, "       7.0"))
	assert.InDelta(t, 0.4, parseValue(num, "       0.4"), 1e-9, "fractions are kept, not truncated to blank")
	assert.InDelta(t, 1e20, parseValue(num, "     1e20"), 1, "out of int64 range stays a float")

	flt := shp.FloatField("Acres", 19, 6)
	assert.InDelta(t, 0.5, parseValue(flt, "0.500000"), 1e-9)

	str := shp.StringField("Site", 20)
	assert.Equal(t, "", parseValue(str, "    \x00"), "dBASE padding is not data")
	assert.Equal(t, "  W1", parseValue(str, "  W1  "))
}
