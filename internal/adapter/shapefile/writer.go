package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Write creates dir/<fc.Name>.shp with its .shx, .dbf and a UTF-8 .cpg, and
// writes every feature. An existing shapefile of the same name is an error.
func Write(dir string, fc workspace.FeatureClass, features []workspace.Feature) error {
	const op = "write shapefile"
	path := filepath.Join(dir, fc.Name+Ext)
	if _, err := os.Stat(path); err == nil {
		return domain.Exists(op, path)
	}

	shapeType, err := shapeTypeFor(fc)
	if err != nil {
		return domain.Precondition(op, "%s: %v", fc.Name, err)
	}

	w, err := shp.Create(path, shapeType)
	if err != nil {
		return domain.External(op, err)
	}
	werr := writeFeatures(w, fc, shapeType, features)
	w.Close()

	// go-shp names the attribute table <base>dbf; readers expect <base>.dbf.
	base := strings.TrimSuffix(path, Ext)
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return domain.External(op, err)
	}
	if werr != nil {
		return werr
	}

	cpg := filepath.Join(dir, fc.Name+".cpg")
	return domain.External(op, os.WriteFile(cpg, []byte("UTF-8"), 0o644))
}

func writeFeatures(w *shp.Writer, fc workspace.FeatureClass, shapeType shp.ShapeType, features []workspace.Feature) error {
	const op = "write shapefile"
	fields := make([]shp.Field, len(fc.Fields))
	for i, f := range fc.Fields {
		fields[i] = dbfField(f)
	}
	if err := w.SetFields(fields); err != nil {
		return domain.External(op, err)
	}

	for i, feat := range features {
		shape, err := fromOrb(feat.Geometry, shapeType)
		if err != nil {
			return domain.Precondition(op, "%s feature %d: %v", fc.Name, i+1, err)
		}
		row := int(w.Write(shape))
		for j, f := range fc.Fields {
			v, _ := feat.Value(f.Name)
			cell, ok := dbfValue(v)
			if !ok {
				continue
			}
			if err := w.WriteAttribute(row, j, cell); err != nil {
				return domain.External(op, fmt.Errorf("%s feature %d field %s: %w", fc.Name, i+1, f.Name, err))
			}
		}
	}
	return nil
}

func shapeTypeFor(fc workspace.FeatureClass) (shp.ShapeType, error) {
	switch fc.Geometry {
	case domain.GeometryPoint:
		if fc.GeometryName == "MULTIPOINT" {
			return shp.MULTIPOINT, nil
		}
		return shp.POINT, nil
	case domain.GeometryLine:
		return shp.POLYLINE, nil
	case domain.GeometryPolygon:
		return shp.POLYGON, nil
	}
	return shp.NULL, fmt.Errorf("unsupported geometry %s", fc.Geometry)
}

// dBASE field names are limited to 10 characters.
func dbfField(f workspace.Field) shp.Field {
	switch f.Type {
	case workspace.FieldInteger:
		return shp.NumberField(f.Name, 10)
	case workspace.FieldReal:
		return shp.FloatField(f.Name, 19, 6)
	case workspace.FieldDate:
		return shp.DateField(f.Name)
	}
	return shp.StringField(f.Name, 254)
}

// dbfValue converts a value to a type the dBASE writer accepts. ok is false for
// nulls, which are left blank.
func dbfValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		return x, true
	case time.Time:
		return x.Format("20060102"), true
	}
	return fmt.Sprint(v), true
}
