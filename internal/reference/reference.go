// Package reference holds the versioned lookup tables behind project creation and
// geodatabase export: county to projection zone, District 1 status, project folder
// layouts, the people allow-list and the export plan.
//
// The tables ship embedded in the binary (reference.yaml) and can be replaced by a
// file with the same shape.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

//go:embed reference.yaml
var embedded []byte

// Layout names.
const (
	LayoutProject = "project"
	LayoutPerson  = "person"
)

// Layout is a versioned project folder tree.
type Layout struct {
	Name    string   `yaml:"-"`
	Version string   `yaml:"version"`
	Folders []string `yaml:"folders"`
	// FinalFolder receives the zone-named shapefile and DGN folders.
	FinalFolder string `yaml:"final_folder"`
	Geodatabase string `yaml:"geodatabase"`
}

// ExportGroup is one workspace's share of the geodatabase export.
type ExportGroup struct {
	Group          string   `yaml:"group"`
	FeatureClasses []string `yaml:"feature_classes"`
}

// QualifiedNames returns the feature class names with the master geodatabase prefix.
func (g ExportGroup) QualifiedNames() []string {
	out := make([]string, len(g.FeatureClasses))
	for i, fc := range g.FeatureClasses {
		out[i] = domain.TargetPrefix + fc
	}
	return out
}

type file struct {
	Version   string                          `yaml:"version"`
	Zones     map[domain.Zone]domain.ZoneInfo `yaml:"zones"`
	Counties  map[domain.Zone][]string        `yaml:"counties"`
	District1 struct {
		ADID   []string `yaml:"adid"`
		NoADID []string `yaml:"no_adid"`
	} `yaml:"district1"`
	Layouts map[string]Layout `yaml:"layouts"`
	People  []string          `yaml:"people"`
	Export  []ExportGroup     `yaml:"export"`
}

// Tables is an immutable, validated set of lookup tables.
type Tables struct {
	version   string
	zones     map[domain.Zone]domain.ZoneInfo
	countyMap map[string]domain.Zone
	district1 map[string]domain.District1Status
	layouts   map[string]Layout
	people    []string
	export    []ExportGroup
}

// Embedded parses the tables compiled into the binary.
func Embedded() (*Tables, error) {
	return Parse(embedded)
}

// Load reads tables from path, or the embedded tables when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Embedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates YAML lookup tables.
func Parse(data []byte) (*Tables, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode reference tables: %w", err)
	}

	t := &Tables{
		version:   f.Version,
		zones:     make(map[domain.Zone]domain.ZoneInfo),
		countyMap: make(map[string]domain.Zone),
		district1: make(map[string]domain.District1Status),
		layouts:   make(map[string]Layout),
		people:    slices.Clone(f.People),
		export:    f.Export,
	}

	for _, zone := range []domain.Zone{domain.ZoneEast, domain.ZoneWest} {
		info, ok := f.Zones[zone]
		if !ok {
			return nil, fmt.Errorf("zone %s has no attributes", zone)
		}
		if info.Template == "" {
			return nil, fmt.Errorf("zone %s has no template", zone)
		}
		info.Zone = zone
		t.zones[zone] = info

		counties := f.Counties[zone]
		if len(counties) == 0 {
			return nil, fmt.Errorf("zone %s has no counties", zone)
		}
		for _, c := range counties {
			if other, dup := t.countyMap[c]; dup && other != zone {
				return nil, fmt.Errorf("county %q listed in both %s and %s", c, other, zone)
			}
			t.countyMap[c] = zone
		}
	}

	for status, counties := range map[domain.District1Status][]string{
		domain.District1ADID:   f.District1.ADID,
		domain.District1NoADID: f.District1.NoADID,
	} {
		for _, c := range counties {
			if _, ok := t.countyMap[c]; !ok {
				return nil, fmt.Errorf("district 1 county %q has no zone", c)
			}
			if prev, dup := t.district1[c]; dup && prev != status {
				return nil, fmt.Errorf("district 1 county %q listed as both %s and %s", c, prev, status)
			}
			t.district1[c] = status
		}
	}

	for name, l := range f.Layouts {
		if len(l.Folders) == 0 {
			return nil, fmt.Errorf("layout %q has no folders", name)
		}
		if l.FinalFolder != "" && !slices.Contains(l.Folders, l.FinalFolder) {
			return nil, fmt.Errorf("layout %q final folder %q is not one of its folders", name, l.FinalFolder)
		}
		l.Name = name
		t.layouts[name] = l
	}

	if len(t.export) == 0 {
		return nil, errors.New("export plan is empty")
	}

	return t, nil
}

// Version identifies the table revision.
func (t *Tables) Version() string { return t.version }

// Zone resolves a county name to its projection zone.
func (t *Tables) Zone(county string) (domain.ZoneInfo, error) {
	zone, ok := t.countyMap[county]
	if !ok {
		return domain.ZoneInfo{}, domain.Precondition("resolve county",
			"county %q not in list; check spelling & capitalization of county name", county)
	}
	return t.zones[zone], nil
}

// District1 returns the District 1 status of a county. Unlisted counties are None.
func (t *Tables) District1(county string) domain.District1Status {
	if s, ok := t.district1[county]; ok {
		return s
	}
	return domain.District1None
}

// Counties lists every county name of a zone, sorted.
func (t *Tables) Counties(zone domain.Zone) []string {
	var out []string
	for c, z := range t.countyMap {
		if z == zone {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// Layout returns a named folder layout.
func (t *Tables) Layout(name string) (Layout, error) {
	l, ok := t.layouts[name]
	if !ok {
		return Layout{}, domain.Precondition("resolve layout", "unknown project layout %q", name)
	}
	return l, nil
}

// PersonAllowed reports whether name is on the people allow-list.
func (t *Tables) PersonAllowed(name string) bool {
	return slices.Contains(t.people, name)
}

// People returns a copy of the allow-list.
func (t *Tables) People() []string {
	return slices.Clone(t.people)
}

// ExportPlan returns the export groups in workspace order.
func (t *Tables) ExportPlan() []ExportGroup {
	return slices.Clone(t.export)
}
