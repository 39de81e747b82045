// Package attachments writes the files stored in a geodatabase attachment
// table out to a blob bucket.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Source iterates the rows of an attachment table.
type Source interface {
	Attachments(ctx context.Context, table string, fn func(geopackage.Attachment) error) error
}

// Exporter copies attachments into a bucket.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// SplitTablePath splits "<path>.gpkg/<table>" into the geodatabase path and the
// table name.
func SplitTablePath(p string) (gpkg, table string, err error) {
	i := strings.LastIndex(strings.ToLower(p), geopackage.Ext+"/")
	if i < 0 {
		i = strings.LastIndex(strings.ToLower(p), geopackage.Ext+`\`)
	}
	if i < 0 {
		return "", "", domain.Precondition("resolve table", "%q is not <geodatabase>%s/<table>", p, geopackage.Ext)
	}
	gpkg = p[:i+len(geopackage.Ext)]
	table = p[i+len(geopackage.Ext)+1:]
	if table == "" {
		return "", "", domain.Precondition("resolve table", "%q names no table", p)
	}
	return gpkg, table, nil
}

// OpenBucket opens the output location. A plain path must be an existing
// directory; anything with a URL scheme is opened through gocloud.
func OpenBucket(ctx context.Context, output string) (*blob.Bucket, error) {
	if strings.Contains(output, "://") {
		b, err := blob.OpenBucket(ctx, output)
		if err != nil {
			return nil, domain.External("open output", err)
		}
		return b, nil
	}
	st, err := os.Stat(output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Precondition("open output", "output folder %q does not exist", output)
		}
		return nil, domain.External("open output", err)
	}
	if !st.IsDir() {
		return nil, domain.Precondition("open output", "output %q is not a folder", output)
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, domain.External("open output", err)
	}
	b, err := fileblob.OpenBucket(abs, &fileblob.Options{Metadata: fileblob.MetadataDontWrite})
	if err != nil {
		return nil, domain.External("open output", err)
	}
	return b, nil
}

// Export writes the DATA of every row of table to an object named by its
// ATT_NAME, in ATTACHMENTID order. Existing objects are overwritten. The first
// read or write failure aborts the export. It returns the number written.
func (e *Exporter) Export(ctx context.Context, src Source, table string, bucket *blob.Bucket) (int, error) {
	written := 0
	err := src.Attachments(ctx, table, func(a geopackage.Attachment) error {
		if a.Name == "" {
			return domain.Precondition("export attachment", "attachment %d has no name", a.ID)
		}
		if err := bucket.WriteAll(ctx, a.Name, a.Data, nil); err != nil {
			return domain.External("write attachment", fmt.Errorf("%s: %w", a.Name, err))
		}
		written++
		e.logger.Debug("attachment written", "id", a.ID, "name", a.Name, "bytes", len(a.Data))
		return nil
	})
	if err != nil {
		return written, err
	}
	e.logger.Info("attachments exported", "table", table, "count", written)
	return written, nil
}
