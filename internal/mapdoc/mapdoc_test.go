package mapdoc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

var eastZone = domain.ZoneInfo{
	Zone: domain.ZoneEast, Template: "StPl_IL_East_Blank", SRSID: 3435,
	SpatialReference: "NAD83 / Illinois East (ftUS)",
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const twoDates = `{
  "name": "Fig2_NWI",
  "custom": {"keep": true},
  "elements": [
    {"type": "TEXT_ELEMENT", "name": "Date", "text": "1/1/2017", "x": 6, "y": 10, "size": 10},
    {"type": "TEXT_ELEMENT", "name": "date", "text": "untouched", "x": 1, "y": 1},
    {"type": "LEGEND_ELEMENT", "name": "Date"},
    {"type": "TEXT_ELEMENT", "name": "Date", "text": "", "x": 6, "y": 9}
  ]
}`

func TestSetElementText_ExactNameOnly(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "Fig2_NWI.mapx", twoDates)
	doc, err := Load(path)
	require.NoError(t, err)

	n, err := doc.SetElementText("Date", "3/7/2018")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, doc.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	els := reloaded.TextElements()
	require.Len(t, els, 3)
	assert.Equal(t, "3/7/2018", els[0].Text)
	assert.Equal(t, "untouched", els[1].Text)
	assert.Equal(t, "3/7/2018", els[2].Text)
	assert.Equal(t, 3, els[2].Index)
	assert.True(t, reloaded.Get("custom.keep").Bool(), "unknown members survive")
}

func TestSetElementText_NoMatch(t *testing.T) {
	doc, err := Parse("x.mapx", []byte(`{"elements": [{"type": "TEXT_ELEMENT", "name": "Title", "text": "A"}]}`))
	require.NoError(t, err)
	n, err := doc.SetElementText("Date", "3/7/2018")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParse_Invalid(t *testing.T) {
	for _, body := range []string{`{"elements": `, `[1, 2]`, `{"elements": "none"}`} {
		_, err := Parse("bad.mapx", []byte(body))
		assert.ErrorIs(t, err, domain.ErrPreconditionFailed, body)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.mapx"))
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestBlank_SaveACopy(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := Blank(dir, eastZone)
	require.NoError(t, err)
	require.NoError(t, tmpl.Save())
	assert.FileExists(t, filepath.Join(dir, "StPl_IL_East_Blank.mapx"))
	assert.Equal(t, int64(3435), tmpl.Get("spatialReference.wkid").Int())

	require.NoError(t, tmpl.SetProperty("name", "Fig1_Project_Location"))
	require.NoError(t, tmpl.SetProperty("project", "I-55 Bridge"))
	copyPath := filepath.Join(dir, "Fig1_Project_Location.mapx")
	require.NoError(t, tmpl.SaveACopy(copyPath))
	assert.Equal(t, filepath.Join(dir, "StPl_IL_East_Blank.mapx"), tmpl.Path(), "copy keeps the original binding")

	cp, err := Load(copyPath)
	require.NoError(t, err)
	assert.Equal(t, "Fig1_Project_Location", cp.Name())
	assert.Equal(t, "I-55 Bridge", cp.Get("project").String())

	err = tmpl.SaveACopy(copyPath)
	assert.ErrorIs(t, err, domain.ErrResourceExists)
}

func TestDataDrivenPages(t *testing.T) {
	doc, err := Parse("ddp.mapx", []byte(`{"dataDrivenPages": {"enabled": true, "pages": ["North", "South"]}}`))
	require.NoError(t, err)
	enabled, pages := doc.DataDrivenPages()
	assert.True(t, enabled)
	assert.Equal(t, []string{"North", "South"}, pages)

	doc, err = Parse("plain.mapx", []byte(`{"dataDrivenPages": {"enabled": false, "pages": ["North"]}}`))
	require.NoError(t, err)
	enabled, pages = doc.DataDrivenPages()
	assert.False(t, enabled)
	assert.Nil(t, pages)
}

func pdfPageCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	return bytes.Count(data, []byte("/Type /Page\n"))
}

func TestExportPDF(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := Blank(dir, eastZone)
	require.NoError(t, err)
	_, err = tmpl.SetElementText("Date", "3/7/2018")
	require.NoError(t, err)

	single := filepath.Join(dir, "single.pdf")
	require.NoError(t, tmpl.ExportPDF(single))
	assert.Equal(t, 1, pdfPageCount(t, single))

	require.NoError(t, tmpl.SetProperty("dataDrivenPages", map[string]any{"enabled": true, "pages": []string{"1", "2", "3"}}))
	_, err = tmpl.SetElementText("Title", "Sheet "+PageToken)
	require.NoError(t, err)
	multi := filepath.Join(dir, "multi.pdf")
	require.NoError(t, tmpl.ExportPDF(multi))
	assert.Equal(t, 3, pdfPageCount(t, multi))
}

func TestExportPDF_UnwritableTarget(t *testing.T) {
	tmpl, err := Blank(t.TempDir(), eastZone)
	require.NoError(t, err)
	err = tmpl.ExportPDF(filepath.Join(t.TempDir(), "missing", "out.pdf"))
	assert.ErrorIs(t, err, domain.ErrExternalCallFailed)
}

func TestIsMapDocument(t *testing.T) {
	assert.True(t, IsMapDocument("Fig1.mapx"))
	assert.True(t, IsMapDocument("FIG1.MAPX"))
	assert.False(t, IsMapDocument("Fig1.mxd"))
	assert.False(t, IsMapDocument("mapx"))
}
