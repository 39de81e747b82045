package geopackage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Attachment table columns.
const (
	ColAttachmentID = "ATTACHMENTID"
	ColAttName      = "ATT_NAME"
	ColData         = "DATA"
)

// Attachment is one stored file.
type Attachment struct {
	ID          int64
	Name        string
	ContentType string
	Data        []byte
}

// CreateAttachmentTable adds an attachment table in the layout desktop GIS uses
// for feature attachments.
func (g *GeoPackage) CreateAttachmentTable(ctx context.Context, name string) error {
	const op = "create attachment table"
	if exists, err := tableExists(ctx, g.db, name); err != nil {
		return domain.External(op, err)
	} else if exists {
		return domain.Exists(op, name)
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.External(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (
		"ATTACHMENTID" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
		"REL_GLOBALID" TEXT,
		"CONTENT_TYPE" TEXT,
		"ATT_NAME" TEXT NOT NULL,
		"DATA_SIZE" INTEGER,
		"DATA" BLOB)`, ident(name))); err != nil {
		return domain.External(op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO gpkg_contents (table_name, data_type, identifier) VALUES (?, 'attributes', ?)`, name, name); err != nil {
		return domain.External(op, err)
	}
	return domain.External(op, tx.Commit())
}

// AddAttachment stores one file in an attachment table and returns its id.
func (g *GeoPackage) AddAttachment(ctx context.Context, table string, a Attachment) (int64, error) {
	res, err := g.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s ("CONTENT_TYPE", "ATT_NAME", "DATA_SIZE", "DATA") VALUES (?, ?, ?, ?)`, ident(table)),
		a.ContentType, a.Name, len(a.Data), a.Data)
	if err != nil {
		return 0, domain.External("add attachment", err)
	}
	id, err := res.LastInsertId()
	return id, domain.External("add attachment", err)
}

// Attachments calls fn for every row of an attachment table in ATTACHMENTID
// order. The table must have ATTACHMENTID, ATT_NAME and DATA columns. Iteration
// stops at the first error from fn.
func (g *GeoPackage) Attachments(ctx context.Context, table string, fn func(Attachment) error) error {
	const op = "read attachments"
	cols, err := columnNames(ctx, g, table)
	if err != nil {
		return err
	}
	for _, want := range []string{ColAttachmentID, ColAttName, ColData} {
		if !slices.ContainsFunc(cols, func(c string) bool { return strings.EqualFold(c, want) }) {
			return domain.Precondition(op, "table %q has no %s column", table, want)
		}
	}

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, %s, %s FROM %s ORDER BY %s`,
		ident(ColAttachmentID), ident(ColAttName), ident(ColData), ident(table), ident(ColAttachmentID)))
	if err != nil {
		return domain.External(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.Name, &a.Data); err != nil {
			return domain.External(op, err)
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return domain.External(op, rows.Err())
}

func columnNames(ctx context.Context, g *GeoPackage, table string) ([]string, error) {
	if ok, err := tableExists(ctx, g.db, table); err != nil {
		return nil, domain.External("describe "+table, err)
	} else if !ok {
		return nil, domain.Precondition("describe table", "table %q does not exist", table)
	}
	rows, err := g.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, domain.External("describe "+table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, domain.External("describe "+table, err)
		}
		names = append(names, n)
	}
	return names, domain.External("describe "+table, rows.Err())
}
