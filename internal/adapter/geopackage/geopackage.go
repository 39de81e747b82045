// Package geopackage implements the geodatabase on an OGC GeoPackage (SQLite)
// file: feature classes, attribute tables, coded-value domains, subtypes and
// attachment tables.
package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Ext is the geodatabase file extension.
const Ext = ".gpkg"

// GeoPackage header values written to every new file.
const (
	applicationID = 0x47504B47 // "GPKG"
	userVersion   = 10300
)

// GeoPackage is an open geodatabase. It is not safe for concurrent use.
type GeoPackage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ workspace.Workspace = (*GeoPackage)(nil)

// Create makes a new, empty geodatabase at path. An existing file is never
// touched: it fails with ResourceExists.
func Create(ctx context.Context, path string, logger *slog.Logger) (*GeoPackage, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, domain.Exists("create geodatabase", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, domain.External("create geodatabase", err)
	}
	if st, err := os.Stat(filepath.Dir(path)); err != nil || !st.IsDir() {
		return nil, domain.Precondition("create geodatabase", "output folder %q does not exist", filepath.Dir(path))
	}

	g, err := open(path, logger)
	if err != nil {
		return nil, err
	}
	if err := g.bootstrap(ctx); err != nil {
		_ = g.Close()
		_ = os.Remove(path)
		return nil, domain.External("create geodatabase", err)
	}
	g.logger.Debug("geodatabase created", "path", path)
	return g, nil
}

// Open opens an existing geodatabase.
func Open(ctx context.Context, path string, logger *slog.Logger) (*GeoPackage, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Precondition("open geodatabase", "geodatabase %q does not exist", path)
		}
		return nil, domain.External("open geodatabase", err)
	}
	if st.IsDir() {
		return nil, domain.Precondition("open geodatabase", "%q is a directory", path)
	}

	g, err := open(path, logger)
	if err != nil {
		return nil, err
	}
	ok, err := tableExists(ctx, g.db, "gpkg_contents")
	if err != nil {
		_ = g.Close()
		return nil, domain.External("open geodatabase", err)
	}
	if !ok {
		_ = g.Close()
		return nil, domain.Precondition("open geodatabase", "%q is not a geopackage", path)
	}
	return g, nil
}

func open(path string, logger *slog.Logger) (*GeoPackage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.External("open geodatabase", err)
	}
	// One connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoPackage{db: db, path: path, logger: logger}, nil
}

// Close releases the database handle.
func (g *GeoPackage) Close() error {
	return g.db.Close()
}

// Kind reports the workspace type.
func (g *GeoPackage) Kind() workspace.Kind { return workspace.KindGeodatabase }

// Path is the file the geodatabase was opened from.
func (g *GeoPackage) Path() string { return g.path }

// Name is the file name without extension.
func (g *GeoPackage) Name() string {
	return strings.TrimSuffix(filepath.Base(g.path), filepath.Ext(g.path))
}

var schema = []string{
	`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL PRIMARY KEY,
		organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL,
		definition TEXT NOT NULL,
		description TEXT)`,
	`CREATE TABLE gpkg_contents (
		table_name TEXT NOT NULL PRIMARY KEY,
		data_type TEXT NOT NULL,
		identifier TEXT UNIQUE,
		description TEXT DEFAULT '',
		last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
		srs_id INTEGER,
		CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id))`,
	`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL,
		z TINYINT NOT NULL,
		m TINYINT NOT NULL,
		CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
		CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
		CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id))`,
	`CREATE TABLE gpkg_extensions (
		table_name TEXT,
		column_name TEXT,
		extension_name TEXT NOT NULL,
		definition TEXT NOT NULL,
		scope TEXT NOT NULL,
		CONSTRAINT ge_tce UNIQUE (table_name, column_name, extension_name))`,
	`CREATE TABLE gpkg_data_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		name TEXT,
		title TEXT,
		description TEXT,
		mime_type TEXT,
		constraint_name TEXT,
		CONSTRAINT pk_gdc PRIMARY KEY (table_name, column_name),
		CONSTRAINT gdc_tn UNIQUE (table_name, name))`,
	`CREATE TABLE gpkg_data_column_constraints (
		constraint_name TEXT NOT NULL,
		constraint_type TEXT NOT NULL,
		value TEXT,
		min NUMERIC,
		min_is_inclusive BOOLEAN,
		max NUMERIC,
		max_is_inclusive BOOLEAN,
		description TEXT,
		CONSTRAINT gdcc_ntv UNIQUE (constraint_name, constraint_type, value))`,
	`CREATE TABLE wetgis_subtypes (
		table_name TEXT NOT NULL,
		subtype_field TEXT NOT NULL,
		subtype_code INTEGER NOT NULL,
		subtype_name TEXT NOT NULL,
		CONSTRAINT pk_ws PRIMARY KEY (table_name, subtype_code))`,
	`CREATE TABLE wetgis_subtype_domains (
		table_name TEXT NOT NULL,
		subtype_code INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		CONSTRAINT pk_wsd PRIMARY KEY (table_name, subtype_code, column_name))`,
	`INSERT INTO gpkg_extensions VALUES
		('gpkg_data_columns', NULL, 'gpkg_schema', 'http://www.geopackage.org/spec/#extension_schema', 'read-write'),
		('gpkg_data_column_constraints', NULL, 'gpkg_schema', 'http://www.geopackage.org/spec/#extension_schema', 'read-write'),
		('wetgis_subtypes', NULL, 'wetgis_subtypes', 'subtype codes and per-subtype field domains', 'read-write'),
		('wetgis_subtype_domains', NULL, 'wetgis_subtypes', 'subtype codes and per-subtype field domains', 'read-write')`,
}

func (g *GeoPackage) bootstrap(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, fmt.Sprintf("PRAGMA application_id = %d", applicationID)); err != nil {
		return fmt.Errorf("set application_id: %w", err)
	}
	if _, err := g.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", userVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, srs := range spatialRefs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			srs.Name, srs.ID, srs.Organization, srs.OrgID, srs.Definition, srs.Description); err != nil {
			return fmt.Errorf("seed spatial reference %d: %w", srs.ID, err)
		}
	}
	return tx.Commit()
}

// ident quotes an SQL identifier. Feature class names contain dots.
func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
