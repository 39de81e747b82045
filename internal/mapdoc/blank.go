package mapdoc

import (
	"path/filepath"

	"github.com/tidwall/sjson"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

const blankJSON = `{
  "name": "",
  "template": "",
  "project": "",
  "spatialReference": {"wkid": 0, "name": ""},
  "page": {"width": 8.5, "height": 11, "units": "in"},
  "elements": [
    {"type": "MAPFRAME_ELEMENT", "name": "Main Map", "x": 0.5, "y": 1.5, "width": 7.5, "height": 8},
    {"type": "TEXT_ELEMENT", "name": "Title", "text": "", "x": 0.5, "y": 0.9, "size": 16},
    {"type": "TEXT_ELEMENT", "name": "Project", "text": "", "x": 0.5, "y": 10.2, "size": 10},
    {"type": "TEXT_ELEMENT", "name": "Date", "text": "", "x": 6.5, "y": 10.2, "size": 10},
    {"type": "TEXT_ELEMENT", "name": "Credits", "text": "Illinois Natural History Survey", "x": 0.5, "y": 10.6, "size": 8}
  ],
  "dataDrivenPages": {"enabled": false, "pages": []}
}`

// Blank builds the empty zone template a project's figures are copied from.
func Blank(dir string, zone domain.ZoneInfo) (*Document, error) {
	data := []byte(blankJSON)
	var err error
	for _, set := range []struct {
		key   string
		value any
	}{
		{"name", zone.Template},
		{"template", zone.Template},
		{"spatialReference.wkid", zone.SRSID},
		{"spatialReference.name", zone.SpatialReference},
	} {
		if data, err = sjson.SetBytes(data, set.key, set.value); err != nil {
			return nil, domain.External("build template", err)
		}
	}
	return Parse(filepath.Join(dir, zone.Template+Ext), data)
}
