// Package workspace describes a source of feature classes: a folder of shapefiles
// or a geodatabase. Validation and append work only through these types.
package workspace

import (
	"context"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Kind names the storage behind a workspace.
type Kind string

const (
	KindFileSystem  Kind = "FileSystem"
	KindGeodatabase Kind = "Geodatabase"
)

// FieldType is the attribute storage class of a field.
type FieldType string

const (
	FieldInteger FieldType = "INTEGER"
	FieldReal    FieldType = "REAL"
	FieldText    FieldType = "TEXT"
	FieldDate    FieldType = "DATE"
	FieldBlob    FieldType = "BLOB"
)

// Field is one attribute column.
type Field struct {
	Name string
	Type FieldType
}

// FeatureClass is the schema of one layer.
type FeatureClass struct {
	Name     string
	Geometry domain.GeometryType
	// GeometryName is the storage geometry type, e.g. MULTIPOLYGON.
	GeometryName string
	SRSID        int
	Fields       []Field
}

// Field looks a field up by name, ignoring case.
func (fc FeatureClass) Field(name string) (Field, bool) {
	for _, f := range fc.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether the feature class carries name, ignoring case.
func (fc FeatureClass) HasField(name string) bool {
	_, ok := fc.Field(name)
	return ok
}

// Feature is one row: a geometry and its attributes keyed by field name.
type Feature struct {
	Geometry   orb.Geometry
	Attributes map[string]any
}

// Value returns the attribute for a field name, ignoring case.
func (f Feature) Value(name string) (any, bool) {
	if v, ok := f.Attributes[name]; ok {
		return v, true
	}
	for k, v := range f.Attributes {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// Workspace is a readable collection of feature classes.
type Workspace interface {
	Kind() Kind
	Path() string
	FeatureClasses(ctx context.Context) ([]FeatureClass, error)
	Features(ctx context.Context, name string) ([]Feature, error)
	Close() error
}

// IsBlank reports whether an attribute value counts as missing: null, numeric
// zero, or a string that is empty after trimming.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return strings.TrimSpace(string(x)) == ""
	case int:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case float32:
		return x == 0
	case float64:
		return x == 0 || math.IsNaN(x)
	case bool:
		return false
	}
	return false
}

// Int64 converts f to an int64 when it is a whole number inside the int64
// range. Fractions, NaN and out-of-range values report false.
func Int64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// GeometryOf maps a storage geometry type name to its coarse type.
func GeometryOf(name string) domain.GeometryType {
	switch strings.ToUpper(name) {
	case "POINT", "MULTIPOINT":
		return domain.GeometryPoint
	case "LINESTRING", "MULTILINESTRING":
		return domain.GeometryLine
	case "POLYGON", "MULTIPOLYGON":
		return domain.GeometryPolygon
	}
	return domain.GeometryUnknown
}

// StorageName is the storage geometry type used when a feature class of the
// given coarse type is created.
func StorageName(g domain.GeometryType) string {
	switch g {
	case domain.GeometryPoint:
		return "POINT"
	case domain.GeometryLine:
		return "MULTILINESTRING"
	case domain.GeometryPolygon:
		return "MULTIPOLYGON"
	}
	return "GEOMETRY"
}
