// Package mapbatch stamps a date into every map document of a folder and
// exports each one to PDF.
package mapbatch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapdoc"
)

const (
	// DateElement is the text element name that receives the date.
	DateElement = "Date"
	// PDFFolder is created under the workspace for exported PDFs.
	PDFFolder = "PDF"
)

// Result records what happened to one map document.
type Result struct {
	Document string
	// Edited is true when the document was saved.
	Edited bool
	// DateElements counts the elements that received the date.
	DateElements int
	PDF          string
	EditErr      error
	ExportErr    error
}

// Failed reports whether either step failed.
func (r Result) Failed() bool { return r.EditErr != nil || r.ExportErr != nil }

// Report summarizes a batch run.
type Report struct {
	Results []Result
}

// Partial reports whether any step of any document failed.
func (r Report) Partial() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}

// Counts returns the number of saved documents, exported PDFs and failed steps.
func (r Report) Counts() (saved, exported, failed int) {
	for _, res := range r.Results {
		if res.Edited {
			saved++
		}
		if res.PDF != "" {
			exported++
		}
		if res.EditErr != nil {
			failed++
		}
		if res.ExportErr != nil {
			failed++
		}
	}
	return saved, exported, failed
}

// Batch runs the date-and-export job over one folder.
type Batch struct {
	logger *slog.Logger
}

// New creates a Batch.
func New(logger *slog.Logger) *Batch {
	return &Batch{logger: logger}
}

// Run processes every map document directly inside dir, in name order. Each
// document gets two guarded steps: set the Date text and save, then export to
// PDF/<name>.pdf. A failing step is logged and recorded and the batch moves on;
// a document that cannot be opened skips its export. Only a missing folder or
// cancellation fails the whole run.
func (b *Batch) Run(ctx context.Context, dir, date string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, domain.Precondition("update maps", "workspace %q does not exist", dir)
		}
		return Report{}, domain.External("update maps", err)
	}

	var report Report
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !e.Type().IsRegular() || !mapdoc.IsMapDocument(e.Name()) {
			continue
		}
		report.Results = append(report.Results, b.process(dir, e.Name(), date))
	}

	saved, exported, failed := report.Counts()
	b.logger.Info("map batch finished", "workspace", dir, "documents", len(report.Results),
		"saved", saved, "exported", exported, "failed_steps", failed)
	return report, nil
}

func (b *Batch) process(dir, name, date string) Result {
	res := Result{Document: name}
	path := filepath.Join(dir, name)

	doc, err := b.edit(path, date, &res)
	if err != nil {
		res.EditErr = err
		b.logger.Error("step 1 failed", "document", name, "error", err)
		if doc == nil {
			return res
		}
	}

	pdfPath, err := b.export(dir, name, doc)
	if err != nil {
		res.ExportErr = err
		b.logger.Error("step 2 failed", "document", name, "error", err)
		return res
	}
	res.PDF = pdfPath
	return res
}

func (b *Batch) edit(path, date string, res *Result) (*mapdoc.Document, error) {
	doc, err := mapdoc.Load(path)
	if err != nil {
		return nil, err
	}
	n, err := doc.SetElementText(DateElement, date)
	if err != nil {
		return doc, err
	}
	res.DateElements = n
	if n == 0 {
		b.logger.Warn("no date element, saving unchanged", "document", filepath.Base(path))
	}
	if err := doc.Save(); err != nil {
		return doc, err
	}
	res.Edited = true
	return doc, nil
}

func (b *Batch) export(dir, name string, doc *mapdoc.Document) (string, error) {
	pdfDir := filepath.Join(dir, PDFFolder)
	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		return "", domain.External("create pdf folder", err)
	}
	out := filepath.Join(pdfDir, strings.TrimSuffix(name, filepath.Ext(name))+".pdf")
	if err := doc.ExportPDF(out); err != nil {
		return "", err
	}
	return out, nil
}
