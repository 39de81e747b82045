// Package shapefile reads and writes a folder of shapefiles as a workspace.
package shapefile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Ext is the main shapefile extension.
const Ext = ".shp"

// Folder is a directory of shapefiles. Each .shp file is one feature class named
// after the file.
type Folder struct {
	dir string
}

var _ workspace.Workspace = (*Folder)(nil)

// Open opens a folder of shapefiles.
func Open(dir string) (*Folder, error) {
	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Precondition("open folder", "folder %q does not exist", dir)
		}
		return nil, domain.External("open folder", err)
	}
	if !st.IsDir() {
		return nil, domain.Precondition("open folder", "%q is not a folder", dir)
	}
	return &Folder{dir: dir}, nil
}

// Kind reports the workspace type.
func (f *Folder) Kind() workspace.Kind { return workspace.KindFileSystem }

// Path is the folder.
func (f *Folder) Path() string { return f.dir }

// Close is a no-op; readers are closed per call.
func (f *Folder) Close() error { return nil }

// files maps each feature class name in the folder to its .shp path.
func (f *Folder) files() (map[string]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, domain.External("list shapefiles", err)
	}
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		files[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = filepath.Join(f.dir, e.Name())
	}
	return files, nil
}

func (f *Folder) shpPath(name string) (string, error) {
	files, err := f.files()
	if err != nil {
		return "", err
	}
	path, ok := files[name]
	if !ok {
		return "", domain.Precondition("open shapefile", "feature class %q does not exist in %s", name, f.dir)
	}
	return path, nil
}

// FeatureClasses describes every shapefile in the folder.
func (f *Folder) FeatureClasses(ctx context.Context) ([]workspace.FeatureClass, error) {
	files, err := f.files()
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(files))
	out := make([]workspace.FeatureClass, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fc, err := describe(name, files[name])
		if err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, nil
}

func describe(name, path string) (workspace.FeatureClass, error) {
	r, err := shp.Open(path)
	if err != nil {
		return workspace.FeatureClass{}, domain.External("open shapefile", fmt.Errorf("%s: %w", name, err))
	}
	defer r.Close()
	return featureClass(name, r), nil
}

func featureClass(name string, r *shp.Reader) workspace.FeatureClass {
	geom, storage := geometryType(r.GeometryType)
	fc := workspace.FeatureClass{Name: name, Geometry: geom, GeometryName: storage}
	for _, fld := range r.Fields() {
		fc.Fields = append(fc.Fields, workspace.Field{Name: fieldName(fld), Type: fieldType(fld)})
	}
	return fc
}

// Features reads every record of a shapefile. Text is decoded with the code page
// named by the shapefile's .cpg file.
func (f *Folder) Features(ctx context.Context, name string) ([]workspace.Feature, error) {
	path, err := f.shpPath(name)
	if err != nil {
		return nil, err
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, domain.External("open shapefile", fmt.Errorf("%s: %w", name, err))
	}
	defer r.Close()

	fields := r.Fields()
	dec := decoderFor(path)

	var features []workspace.Feature
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, shape := r.Shape()
		geom, err := toOrb(shape)
		if err != nil {
			return nil, domain.External("read shapefile", fmt.Errorf("%s record %d: %w", name, row, err))
		}
		attrs := make(map[string]any, len(fields))
		for i, fld := range fields {
			attrs[fieldName(fld)] = parseValue(fld, dec(r.ReadAttribute(row, i)))
		}
		features = append(features, workspace.Feature{Geometry: geom, Attributes: attrs})
	}
	if err := r.Err(); err != nil {
		return nil, domain.External("read shapefile", fmt.Errorf("%s: %w", name, err))
	}
	return features, nil
}

func geometryType(t shp.ShapeType) (domain.GeometryType, string) {
	switch t {
	case shp.POINT, shp.POINTZ, shp.POINTM:
		return domain.GeometryPoint, "POINT"
	case shp.MULTIPOINT, shp.MULTIPOINTZ, shp.MULTIPOINTM:
		return domain.GeometryPoint, "MULTIPOINT"
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		return domain.GeometryLine, "MULTILINESTRING"
	case shp.POLYGON, shp.POLYGONZ, shp.POLYGONM:
		return domain.GeometryPolygon, "MULTIPOLYGON"
	}
	return domain.GeometryUnknown, "GEOMETRY"
}

func fieldName(f shp.Field) string {
	return strings.TrimRight(string(f.Name[:]), "\x00 ")
}

func fieldType(f shp.Field) workspace.FieldType {
	switch f.Fieldtype {
	case 'N':
		if f.Precision > 0 {
			return workspace.FieldReal
		}
		return workspace.FieldInteger
	case 'F':
		return workspace.FieldReal
	case 'D':
		return workspace.FieldDate
	}
	return workspace.FieldText
}

// parseValue converts a raw dBASE cell into a typed value. Empty and unparsable
// numeric cells are null.
func parseValue(f shp.Field, raw string) any {
	s := strings.Trim(raw, " \x00")
	switch fieldType(f) {
	case workspace.FieldInteger:
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			if n, ok := workspace.Int64(v); ok {
				return n
			}
			return v
		}
		return nil
	case workspace.FieldReal:
		if s == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return nil
	case workspace.FieldDate:
		if s == "" {
			return nil
		}
		return s
	}
	if f.Fieldtype == 'L' {
		switch strings.ToUpper(s) {
		case "T", "Y":
			return "T"
		case "F", "N":
			return "F"
		}
		return nil
	}
	return strings.TrimRight(raw, " \x00")
}
