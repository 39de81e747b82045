package domain

import "fmt"

// Zone is an Illinois State Plane projection zone.
type Zone string

const (
	ZoneEast Zone = "East"
	ZoneWest Zone = "West"
)

// District1Status says which District 1 reference figures a county needs.
type District1Status string

const (
	District1ADID   District1Status = "ADID"
	District1NoADID District1Status = "NoADID"
	District1None   District1Status = "None"
)

// ProjectSize selects whether an overview figure is produced.
type ProjectSize string

const (
	SizeSmall ProjectSize = "Small"
	SizeLarge ProjectSize = "Large"
)

// ParseProjectSize accepts exactly "Small" or "Large".
func ParseProjectSize(s string) (ProjectSize, error) {
	switch ProjectSize(s) {
	case SizeSmall, SizeLarge:
		return ProjectSize(s), nil
	}
	return "", Precondition("parse project size", "project size must be %q or %q, got %q", SizeSmall, SizeLarge, s)
}

// ZoneInfo holds the per-zone names and spatial reference used when a project is created.
type ZoneInfo struct {
	Zone             Zone   `yaml:"-"`
	Template         string `yaml:"template"`
	ShapefileFolder  string `yaml:"shapefile_folder"`
	DGNFolder        string `yaml:"dgn_folder"`
	SRSID            int    `yaml:"srs_id"`
	SpatialReference string `yaml:"spatial_reference"`
}

func (z ZoneInfo) String() string {
	return fmt.Sprintf("%s (EPSG:%d)", z.Zone, z.SRSID)
}
