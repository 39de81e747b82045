package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// DefaultGeometryColumn is the geometry column of feature classes created here.
const DefaultGeometryColumn = "geom"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// layer is a feature class plus the storage details needed to read and write it.
type layer struct {
	workspace.FeatureClass
	geomColumn string
	pkColumn   string
}

// FeatureClasses lists every feature table, sorted by name.
func (g *GeoPackage) FeatureClasses(ctx context.Context) ([]workspace.FeatureClass, error) {
	layers, err := g.layers(ctx, g.db)
	if err != nil {
		return nil, err
	}
	out := make([]workspace.FeatureClass, len(layers))
	for i, l := range layers {
		out[i] = l.FeatureClass
	}
	return out, nil
}

// FeatureClass returns the schema of one feature table. ok is false when the
// geodatabase has no feature class of that exact name.
func (g *GeoPackage) FeatureClass(ctx context.Context, name string) (workspace.FeatureClass, bool, error) {
	l, ok, err := g.layer(ctx, g.db, name)
	return l.FeatureClass, ok, err
}

// Tables lists the non-spatial attribute tables, sorted by name.
func (g *GeoPackage) Tables(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT table_name FROM gpkg_contents WHERE data_type = 'attributes' ORDER BY table_name`)
	if err != nil {
		return nil, domain.External("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.External("list tables", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.External("list tables", err)
	}
	return names, nil
}

// Fields lists the attribute columns of any table, excluding the primary key
// and geometry columns.
func (g *GeoPackage) Fields(ctx context.Context, table string) ([]workspace.Field, error) {
	geomColumn := ""
	if l, ok, err := g.layer(ctx, g.db, table); err != nil {
		return nil, err
	} else if ok {
		geomColumn = l.geomColumn
	}
	fields, _, err := tableFields(ctx, g.db, table, geomColumn)
	return fields, err
}

func (g *GeoPackage) layers(ctx context.Context, q querier) ([]layer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT c.table_name, gc.column_name, gc.geometry_type_name, gc.srs_id
		 FROM gpkg_contents c JOIN gpkg_geometry_columns gc ON gc.table_name = c.table_name
		 WHERE c.data_type = 'features' ORDER BY c.table_name`)
	if err != nil {
		return nil, domain.External("list feature classes", err)
	}
	var layers []layer
	for rows.Next() {
		var l layer
		if err := rows.Scan(&l.Name, &l.geomColumn, &l.GeometryName, &l.SRSID); err != nil {
			rows.Close()
			return nil, domain.External("list feature classes", err)
		}
		l.Geometry = workspace.GeometryOf(l.GeometryName)
		layers = append(layers, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, domain.External("list feature classes", err)
	}
	rows.Close()

	for i := range layers {
		fields, pk, err := tableFields(ctx, q, layers[i].Name, layers[i].geomColumn)
		if err != nil {
			return nil, err
		}
		layers[i].Fields = fields
		layers[i].pkColumn = pk
	}
	return layers, nil
}

func (g *GeoPackage) layer(ctx context.Context, q querier, name string) (layer, bool, error) {
	var l layer
	err := q.QueryRowContext(ctx,
		`SELECT gc.column_name, gc.geometry_type_name, gc.srs_id
		 FROM gpkg_contents c JOIN gpkg_geometry_columns gc ON gc.table_name = c.table_name
		 WHERE c.data_type = 'features' AND c.table_name = ?`, name).
		Scan(&l.geomColumn, &l.GeometryName, &l.SRSID)
	if errors.Is(err, sql.ErrNoRows) {
		return layer{}, false, nil
	}
	if err != nil {
		return layer{}, false, domain.External("describe feature class", err)
	}
	l.Name = name
	l.Geometry = workspace.GeometryOf(l.GeometryName)
	fields, pk, err := tableFields(ctx, q, name, l.geomColumn)
	if err != nil {
		return layer{}, false, err
	}
	l.Fields = fields
	l.pkColumn = pk
	return l, true, nil
}

// tableFields reads a table's columns. It returns the attribute fields and the
// integer primary key column, if any.
func tableFields(ctx context.Context, q querier, table, geomColumn string) ([]workspace.Field, string, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+ident(table)+")")
	if err != nil {
		return nil, "", domain.External("describe "+table, err)
	}
	defer rows.Close()

	var (
		fields []workspace.Field
		pk     string
		found  bool
	)
	for rows.Next() {
		var (
			cid      int
			name     string
			declType string
			notNull  int
			dflt     sql.NullString
			pkOrder  int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pkOrder); err != nil {
			return nil, "", domain.External("describe "+table, err)
		}
		found = true
		if pkOrder == 1 && strings.Contains(strings.ToUpper(declType), "INT") {
			pk = name
			continue
		}
		if name == geomColumn {
			continue
		}
		fields = append(fields, workspace.Field{Name: name, Type: fieldType(declType)})
	}
	if err := rows.Err(); err != nil {
		return nil, "", domain.External("describe "+table, err)
	}
	if !found {
		return nil, "", domain.Precondition("describe table", "table %q does not exist", table)
	}
	return fields, pk, nil
}

func fieldType(decl string) workspace.FieldType {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "INT"), d == "BOOLEAN":
		return workspace.FieldInteger
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"), strings.Contains(d, "NUMERIC"):
		return workspace.FieldReal
	case strings.HasPrefix(d, "DATE"):
		return workspace.FieldDate
	case strings.Contains(d, "BLOB"):
		return workspace.FieldBlob
	}
	return workspace.FieldText
}

func declType(t workspace.FieldType) string {
	switch t {
	case workspace.FieldInteger:
		return "INTEGER"
	case workspace.FieldReal:
		return "REAL"
	case workspace.FieldDate:
		return "DATE"
	case workspace.FieldBlob:
		return "BLOB"
	}
	return "TEXT"
}

// Features reads every row of a feature class in primary key order.
func (g *GeoPackage) Features(ctx context.Context, name string) ([]workspace.Feature, error) {
	l, ok, err := g.layer(ctx, g.db, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Precondition("read features", "feature class %q does not exist", name)
	}
	return readFeatures(ctx, g.db, l)
}

func readFeatures(ctx context.Context, q querier, l layer) ([]workspace.Feature, error) {
	cols := []string{ident(l.geomColumn)}
	for _, f := range l.Fields {
		cols = append(cols, ident(f.Name))
	}
	order := "rowid"
	if l.pkColumn != "" {
		order = ident(l.pkColumn)
	}
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(cols, ", "), ident(l.Name), order))
	if err != nil {
		return nil, domain.External("read "+l.Name, err)
	}
	defer rows.Close()

	var features []workspace.Feature
	for rows.Next() {
		var blob []byte
		values := make([]any, len(l.Fields))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &blob)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, domain.External("read "+l.Name, err)
		}
		geom, _, err := DecodeGeometry(blob)
		if err != nil {
			return nil, domain.External("read "+l.Name, err)
		}
		attrs := make(map[string]any, len(l.Fields))
		for i, f := range l.Fields {
			attrs[f.Name] = values[i]
		}
		features = append(features, workspace.Feature{Geometry: geom, Attributes: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.External("read "+l.Name, err)
	}
	return features, nil
}

// CreateFeatureClass adds an empty feature table. The spatial reference must
// already be registered.
func (g *GeoPackage) CreateFeatureClass(ctx context.Context, fc workspace.FeatureClass) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External("create feature class", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createFeatureClass(ctx, tx, fc); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.External("create feature class", err)
	}
	g.logger.Debug("feature class created", "name", fc.Name, "geometry", fc.GeometryName, "srs_id", fc.SRSID)
	return nil
}

func createFeatureClass(ctx context.Context, q querier, fc workspace.FeatureClass) error {
	const op = "create feature class"
	if exists, err := tableExists(ctx, q, fc.Name); err != nil {
		return domain.External(op, err)
	} else if exists {
		return domain.Exists(op, fc.Name)
	}
	if ok, err := srsExists(ctx, q, fc.SRSID); err != nil {
		return domain.External(op, err)
	} else if !ok {
		return domain.Precondition(op, "spatial reference %d is not registered", fc.SRSID)
	}

	geomName := fc.GeometryName
	if geomName == "" {
		geomName = workspace.StorageName(fc.Geometry)
	}

	cols := []string{`"fid" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL`, ident(DefaultGeometryColumn) + " " + geomName}
	for _, f := range fc.Fields {
		if strings.EqualFold(f.Name, "fid") || strings.EqualFold(f.Name, DefaultGeometryColumn) {
			continue
		}
		cols = append(cols, ident(f.Name)+" "+declType(f.Type))
	}

	stmts := []struct {
		query string
		args  []any
	}{
		{query: fmt.Sprintf("CREATE TABLE %s (%s)", ident(fc.Name), strings.Join(cols, ", "))},
		{
			query: `INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES (?, 'features', ?, ?)`,
			args:  []any{fc.Name, fc.Name, fc.SRSID},
		},
		{
			query: `INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m) VALUES (?, ?, ?, ?, 0, 0)`,
			args:  []any{fc.Name, DefaultGeometryColumn, geomName, fc.SRSID},
		},
	}
	for _, s := range stmts {
		if _, err := q.ExecContext(ctx, s.query, s.args...); err != nil {
			return domain.External(op, fmt.Errorf("%s: %w", fc.Name, err))
		}
	}
	return nil
}

// CreateTable adds an empty non-spatial attribute table.
func (g *GeoPackage) CreateTable(ctx context.Context, name string, fields []workspace.Field) error {
	const op = "create table"
	if exists, err := tableExists(ctx, g.db, name); err != nil {
		return domain.External(op, err)
	} else if exists {
		return domain.Exists(op, name)
	}

	cols := []string{`"OBJECTID" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL`}
	for _, f := range fields {
		cols = append(cols, ident(f.Name)+" "+declType(f.Type))
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident(name), strings.Join(cols, ", "))); err != nil {
		return domain.External(op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO gpkg_contents (table_name, data_type, identifier) VALUES (?, 'attributes', ?)`, name, name); err != nil {
		return domain.External(op, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.External(op, err)
	}
	return nil
}

// InsertRows adds rows to an attribute table. Each row maps column name to value.
func (g *GeoPackage) InsertRows(ctx context.Context, table string, rows []map[string]any) error {
	fields, err := g.Fields(ctx, table)
	if err != nil {
		return err
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External("insert rows", err)
	}
	defer func() { _ = tx.Rollback() }()

	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = ident(f.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(table), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return domain.External("insert rows", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = row[f.Name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return domain.External("insert rows", fmt.Errorf("%s: %w", table, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.External("insert rows", err)
	}
	return nil
}

// InsertFeatures writes features into a feature class with the layer's own
// schema and spatial reference.
func (g *GeoPackage) InsertFeatures(ctx context.Context, name string, features []workspace.Feature) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External("insert features", err)
	}
	defer func() { _ = tx.Rollback() }()

	l, ok, err := g.layer(ctx, tx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Precondition("insert features", "feature class %q does not exist", name)
	}
	if _, err := insertFeatures(ctx, tx, l, features, exactValue); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.External("insert features", err)
	}
	return nil
}

// valueFunc converts a source attribute into the value stored in a target field.
type valueFunc func(v any, target workspace.Field) (any, error)

func exactValue(v any, _ workspace.Field) (any, error) { return v, nil }

// insertFeatures writes features into l. Attribute values are looked up by
// target field name, ignoring case; features missing a field store NULL.
func insertFeatures(ctx context.Context, q querier, l layer, features []workspace.Feature, conv valueFunc) (int, error) {
	if len(features) == 0 {
		return 0, nil
	}
	cols := []string{ident(l.geomColumn)}
	marks := []string{"?"}
	for _, f := range l.Fields {
		cols = append(cols, ident(f.Name))
		marks = append(marks, "?")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(l.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	var extent orb.Bound
	haveExtent := false
	for i, feat := range features {
		geom, err := promote(feat.Geometry, strings.ToUpper(l.GeometryName))
		if err != nil {
			return 0, domain.Precondition("insert features", "%s feature %d: %v", l.Name, i+1, err)
		}
		blob, err := EncodeGeometry(geom, l.SRSID)
		if err != nil {
			return 0, domain.External("insert features", err)
		}
		args := []any{blob}
		for _, f := range l.Fields {
			raw, _ := feat.Value(f.Name)
			v, err := conv(raw, f)
			if err != nil {
				return 0, domain.Precondition("insert features", "%s feature %d field %s: %v", l.Name, i+1, f.Name, err)
			}
			args = append(args, v)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return 0, domain.External("insert features", fmt.Errorf("%s: %w", l.Name, err))
		}
		if geom != nil && !isEmpty(geom) {
			if haveExtent {
				extent = extent.Union(geom.Bound())
			} else {
				extent, haveExtent = geom.Bound(), true
			}
		}
	}

	if haveExtent {
		if _, err := q.ExecContext(ctx,
			`UPDATE gpkg_contents SET
				min_x = min(coalesce(min_x, ?1), ?1), min_y = min(coalesce(min_y, ?2), ?2),
				max_x = max(coalesce(max_x, ?3), ?3), max_y = max(coalesce(max_y, ?4), ?4),
				last_change = strftime('%Y-%m-%dT%H:%M:%fZ','now')
			 WHERE table_name = ?5`,
			extent.Min[0], extent.Min[1], extent.Max[0], extent.Max[1], l.Name); err != nil {
			return 0, domain.External("insert features", err)
		}
	}
	return len(features), nil
}

// CopyFeatureClass copies the schema, spatial reference and rows of a feature
// class from src into g under the same name.
func (g *GeoPackage) CopyFeatureClass(ctx context.Context, src *GeoPackage, name string) (int, error) {
	const op = "copy feature class"
	l, ok, err := src.layer(ctx, src.db, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.Precondition(op, "feature class %q does not exist in %s", name, src.Path())
	}
	features, err := readFeatures(ctx, src.db, l)
	if err != nil {
		return 0, err
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.External(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := copySpatialRef(ctx, src.db, tx, l.SRSID); err != nil {
		return 0, err
	}
	if err := createFeatureClass(ctx, tx, l.FeatureClass); err != nil {
		return 0, err
	}
	dst, _, err := g.layer(ctx, tx, name)
	if err != nil {
		return 0, err
	}
	n, err := insertFeatures(ctx, tx, dst, features, exactValue)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, domain.External(op, err)
	}
	g.logger.Debug("feature class copied", "name", name, "from", src.Path(), "features", n)
	return n, nil
}

func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, name).Scan(&n)
	return n > 0, err
}

func srsExists(ctx context.Context, q querier, id int) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, id).Scan(&n)
	return n > 0, err
}

func copySpatialRef(ctx context.Context, from, to querier, id int) error {
	if ok, err := srsExists(ctx, to, id); err != nil {
		return domain.External("copy spatial reference", err)
	} else if ok {
		return nil
	}
	var (
		srs  SpatialRef
		desc sql.NullString
	)
	err := from.QueryRowContext(ctx,
		`SELECT srs_name, srs_id, organization, organization_coordsys_id, definition, description
		 FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, id).
		Scan(&srs.Name, &srs.ID, &srs.Organization, &srs.OrgID, &srs.Definition, &desc)
	if err != nil {
		return domain.External("copy spatial reference", fmt.Errorf("srs %d: %w", id, err))
	}
	_, err = to.ExecContext(ctx,
		`INSERT INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		srs.Name, srs.ID, srs.Organization, srs.OrgID, srs.Definition, desc.String)
	return domain.External("copy spatial reference", err)
}
