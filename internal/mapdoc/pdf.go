package mapdoc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/natefinch/atomic"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// PageToken in element text is replaced with the current data driven page name.
const PageToken = "{page}"

// ExportPDF renders the page layout to a PDF at path. With data driven pages
// enabled every page is rendered, one PDF page each; otherwise one page.
func (d *Document) ExportPDF(path string) error {
	page := d.Page()
	orientation := "P"
	if page.Width > page.Height {
		orientation = "L"
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        page.Units,
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetTitle(d.Name(), true)
	pdf.SetCreator("wetgis", true)
	pdf.SetCreationDate(domain.Now().UTC().Truncate(time.Second))
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pages := []string{""}
	if enabled, names := d.DataDrivenPages(); enabled && len(names) > 0 {
		pages = names
	}

	margin := min(page.Width, page.Height) * 0.03
	for _, name := range pages {
		pdf.AddPage()
		pdf.Rect(margin, margin, page.Width-2*margin, page.Height-2*margin, "D")
		for _, el := range d.TextElements() {
			size := el.Size
			if size <= 0 {
				size = 10
			}
			pdf.SetFont("Helvetica", "", size)
			pdf.Text(el.X, el.Y, tr(strings.ReplaceAll(el.Text, PageToken, name)))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return domain.External("export pdf", fmt.Errorf("%s: %w", d.Name(), err))
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return domain.External("export pdf", err)
	}
	return nil
}
