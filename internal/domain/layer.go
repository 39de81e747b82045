package domain

import "strings"

// GeometryType is the coarse shape class of a feature class.
type GeometryType string

const (
	GeometryPoint   GeometryType = "POINT"
	GeometryLine    GeometryType = "LINE"
	GeometryPolygon GeometryType = "POLYGON"
	GeometryUnknown GeometryType = "UNKNOWN"
)

// TargetPrefix qualifies every master geodatabase feature class name.
const TargetPrefix = "IDOT_Wetlands.INHS_IDOT."

// Fields every delivered feature class must carry, fully populated.
const (
	FieldPID    = "PID"
	FieldSeqNum = "Seq_Num"
	FieldSite   = "Site"
	FieldPoint  = "Point"
)

// BaseRequiredFields apply to every feature class in a source workspace.
var BaseRequiredFields = []string{FieldPID, FieldSeqNum}

// LayerCategory is one destination layer in the master geodatabase.
type LayerCategory struct {
	Name     string
	Label    string
	Prefix   string
	Geometry GeometryType
	Target   string
	// Required lists fields beyond BaseRequiredFields.
	Required []string
}

// TargetName is the fully qualified destination feature class.
func (c LayerCategory) TargetName() string {
	return TargetPrefix + c.Target
}

// Matches reports whether a feature class belongs to the category.
func (c LayerCategory) Matches(name string, geom GeometryType) bool {
	return strings.HasPrefix(name, c.Prefix) && geom == c.Geometry
}

var (
	CategoryProjectBoundary = LayerCategory{Name: "project_boundary", Label: "Project boundary", Prefix: "Project", Geometry: GeometryPolygon, Target: "Project_Boundaries"}
	CategoryWetlandSites    = LayerCategory{Name: "wetland_sites", Label: "Wetland sites", Prefix: "Wetland", Geometry: GeometryPolygon, Target: "Wetland_Sites", Required: []string{FieldSite}}
	CategoryWetlandLines    = LayerCategory{Name: "wetland_sites_line", Label: "Wetland site lines", Prefix: "Wetland", Geometry: GeometryLine, Target: "Wetland_Sites_Line", Required: []string{FieldSite}}
	CategoryNonWetland      = LayerCategory{Name: "non_wetland_sites", Label: "Non wetland determination sites", Prefix: "Non", Geometry: GeometryPoint, Target: "Non_Wetland_NWI_Sites", Required: []string{FieldSite}}
	CategorySamplingPoints  = LayerCategory{Name: "sampling_points", Label: "Sampling points", Prefix: "Sampling", Geometry: GeometryPoint, Target: "Sampling_Points", Required: []string{FieldPoint}}
	CategoryWatersPoly      = LayerCategory{Name: "waters_poly", Label: "Other surface waters (polygon)", Prefix: "Other", Geometry: GeometryPolygon, Target: "Waters_poly", Required: []string{FieldSite}}
	CategoryWatersLine      = LayerCategory{Name: "waters_line", Label: "Other surface waters (lines)", Prefix: "Other", Geometry: GeometryLine, Target: "Waters_line", Required: []string{FieldSite}}
	CategoryTransects       = LayerCategory{Name: "transects", Label: "Transects", Prefix: "Transect", Geometry: GeometryLine, Target: "Transects"}
)

// Categories lists every layer category in append order.
var Categories = []LayerCategory{
	CategoryProjectBoundary,
	CategoryWetlandSites,
	CategoryWetlandLines,
	CategoryNonWetland,
	CategorySamplingPoints,
	CategoryWatersPoly,
	CategoryWatersLine,
	CategoryTransects,
}

// CategoryFor returns the category a feature class appends to.
func CategoryFor(name string, geom GeometryType) (LayerCategory, bool) {
	for _, c := range Categories {
		if c.Matches(name, geom) {
			return c, true
		}
	}
	return LayerCategory{}, false
}

// PrefixGeometries returns the geometries allowed for a feature class name, keyed
// by its matching prefix. ok is false when the name matches no known prefix.
func PrefixGeometries(name string) (prefix string, geoms []GeometryType, ok bool) {
	for _, c := range Categories {
		if !strings.HasPrefix(name, c.Prefix) {
			continue
		}
		prefix = c.Prefix
		ok = true
		geoms = append(geoms, c.Geometry)
	}
	return prefix, geoms, ok
}

// PrefixRequirements groups the extra required fields by prefix in validation order.
// Categories sharing a prefix share their requirement.
func PrefixRequirements() []PrefixRequirement {
	var out []PrefixRequirement
	seen := make(map[string]bool)
	for _, c := range Categories {
		if len(c.Required) == 0 || seen[c.Prefix] {
			continue
		}
		seen[c.Prefix] = true
		for _, f := range c.Required {
			out = append(out, PrefixRequirement{Prefix: c.Prefix, Field: f})
		}
	}
	return out
}

// PrefixRequirement is a field that every feature class with Prefix must carry.
type PrefixRequirement struct {
	Prefix string
	Field  string
}
