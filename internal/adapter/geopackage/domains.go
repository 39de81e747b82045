package geopackage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Domain constraint types.
const (
	DomainCodedValue = "enum"
	DomainRange      = "range"
)

// CodedValue is one allowed value of a coded-value domain.
type CodedValue struct {
	Code        string
	Description string
}

// Domains lists the names of every attribute domain, sorted.
func (g *GeoPackage) Domains(ctx context.Context) ([]string, error) {
	if ok, err := tableExists(ctx, g.db, "gpkg_data_column_constraints"); err != nil {
		return nil, domain.External("list domains", err)
	} else if !ok {
		return nil, nil
	}
	return queryStrings(ctx, g.db, "list domains",
		`SELECT DISTINCT constraint_name FROM gpkg_data_column_constraints ORDER BY constraint_name`)
}

// AddCodedValueDomain registers a coded-value domain.
func (g *GeoPackage) AddCodedValueDomain(ctx context.Context, name string, values []CodedValue) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External("add domain", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gpkg_data_column_constraints (constraint_name, constraint_type, value, description) VALUES (?, ?, ?, ?)`,
			name, DomainCodedValue, v.Code, v.Description); err != nil {
			return domain.External("add domain", fmt.Errorf("%s: %w", name, err))
		}
	}
	return domain.External("add domain", tx.Commit())
}

// AddRangeDomain registers an inclusive numeric range domain.
func (g *GeoPackage) AddRangeDomain(ctx context.Context, name string, lo, hi float64) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO gpkg_data_column_constraints
			(constraint_name, constraint_type, min, min_is_inclusive, max, max_is_inclusive)
		 VALUES (?, ?, ?, 1, ?, 1)`, name, DomainRange, lo, hi)
	return domain.External("add domain", err)
}

// AssignDomain attaches a domain to a field. The domain need not exist.
func (g *GeoPackage) AssignDomain(ctx context.Context, table, column, constraint string) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO gpkg_data_columns (table_name, column_name, constraint_name) VALUES (?, ?, ?)
		 ON CONFLICT (table_name, column_name) DO UPDATE SET constraint_name = excluded.constraint_name`,
		table, column, constraint)
	return domain.External("assign domain", err)
}

// AddSubtype defines a subtype code on a table. Every subtype of a table shares
// one subtype field.
func (g *GeoPackage) AddSubtype(ctx context.Context, table, field string, code int, name string) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO wetgis_subtypes (table_name, subtype_field, subtype_code, subtype_name) VALUES (?, ?, ?, ?)`,
		table, field, code, name)
	return domain.External("add subtype", err)
}

// AssignSubtypeDomain attaches a domain to a field for one subtype code.
func (g *GeoPackage) AssignSubtypeDomain(ctx context.Context, table string, code int, column, constraint string) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO wetgis_subtype_domains (table_name, subtype_code, column_name, constraint_name) VALUES (?, ?, ?, ?)
		 ON CONFLICT (table_name, subtype_code, column_name) DO UPDATE SET constraint_name = excluded.constraint_name`,
		table, code, column, constraint)
	return domain.External("assign subtype domain", err)
}

// SubtypeField returns the subtype field of a table, or "" when it has none.
func (g *GeoPackage) SubtypeField(ctx context.Context, table string) (string, error) {
	if ok, err := tableExists(ctx, g.db, "wetgis_subtypes"); err != nil || !ok {
		return "", domain.External("read subtypes", err)
	}
	var field sql.NullString
	err := g.db.QueryRowContext(ctx,
		`SELECT subtype_field FROM wetgis_subtypes WHERE table_name = ? LIMIT 1`, table).Scan(&field)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", domain.External("read subtypes", err)
	}
	return field.String, nil
}

// FieldDomains lists the domains assigned directly to fields of a table.
func (g *GeoPackage) FieldDomains(ctx context.Context, table string) ([]string, error) {
	if _, _, err := tableFields(ctx, g.db, table, ""); err != nil {
		return nil, err
	}
	if ok, err := tableExists(ctx, g.db, "gpkg_data_columns"); err != nil || !ok {
		return nil, domain.External("read field domains", err)
	}
	return queryStrings(ctx, g.db, "read field domains",
		`SELECT DISTINCT constraint_name FROM gpkg_data_columns
		 WHERE table_name = ? AND constraint_name IS NOT NULL AND constraint_name <> ''
		 ORDER BY constraint_name`, table)
}

// SubtypeDomains lists the domains referenced by the subtype field-value
// mappings of a table.
func (g *GeoPackage) SubtypeDomains(ctx context.Context, table string) ([]string, error) {
	if ok, err := tableExists(ctx, g.db, "wetgis_subtype_domains"); err != nil || !ok {
		return nil, domain.External("read subtype domains", err)
	}
	return queryStrings(ctx, g.db, "read subtype domains",
		`SELECT DISTINCT constraint_name FROM wetgis_subtype_domains
		 WHERE table_name = ? ORDER BY constraint_name`, table)
}

// DeleteDomain removes every constraint row of a domain. Deleting a domain that
// does not exist is an error.
func (g *GeoPackage) DeleteDomain(ctx context.Context, name string) error {
	res, err := g.db.ExecContext(ctx, `DELETE FROM gpkg_data_column_constraints WHERE constraint_name = ?`, name)
	if err != nil {
		return domain.External("delete domain", fmt.Errorf("%s: %w", name, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.External("delete domain", err)
	}
	if n == 0 {
		return domain.External("delete domain", fmt.Errorf("domain %q does not exist", name))
	}
	g.logger.Debug("domain deleted", "domain", name, "rows", n)
	return nil
}

func queryStrings(ctx context.Context, q querier, op, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.External(op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, domain.External(op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.External(op, err)
	}
	return out, nil
}
