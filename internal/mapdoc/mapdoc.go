// Package mapdoc reads, edits and exports JSON map documents (.mapx).
//
// A document is a JSON object:
//
//	{
//	  "name": "Fig1_Project_Location",
//	  "template": "StPl_IL_East_Blank",
//	  "project": "",
//	  "spatialReference": {"wkid": 3435, "name": "NAD83 / Illinois East (ftUS)"},
//	  "page": {"width": 8.5, "height": 11, "units": "in"},
//	  "elements": [
//	    {"type": "TEXT_ELEMENT", "name": "Date", "text": "", "x": 6.5, "y": 10.5, "size": 10}
//	  ],
//	  "dataDrivenPages": {"enabled": false, "pages": []}
//	}
//
// Edits go through gjson/sjson so unknown members survive a load-edit-save cycle.
package mapdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

// Ext is the map document extension.
const Ext = domain.MapDocumentExt

// TextElementType marks a layout text element.
const TextElementType = "TEXT_ELEMENT"

// Document is a map document held in memory.
type Document struct {
	path string
	data []byte
}

// TextElement is one text element of the page layout.
type TextElement struct {
	Index int
	Name  string
	Text  string
	X, Y  float64
	Size  float64
}

// Page is the layout page size.
type Page struct {
	Width  float64
	Height float64
	Units  string
}

// Load reads a map document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Precondition("open map document", "%q does not exist", path)
		}
		return nil, domain.External("open map document", err)
	}
	return Parse(path, data)
}

// Parse wraps raw document bytes. path is where Save writes.
func Parse(path string, data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, domain.Precondition("open map document", "%s is not valid JSON", filepath.Base(path))
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, domain.Precondition("open map document", "%s is not a map document", filepath.Base(path))
	}
	if els := root.Get("elements"); els.Exists() && !els.IsArray() {
		return nil, domain.Precondition("open map document", "%s: elements is not a list", filepath.Base(path))
	}
	return &Document{path: path, data: bytes.Clone(data)}, nil
}

// Path is the file the document saves to.
func (d *Document) Path() string { return d.path }

// Bytes returns the document JSON.
func (d *Document) Bytes() []byte { return bytes.Clone(d.data) }

// Name is the document's name property.
func (d *Document) Name() string {
	return gjson.GetBytes(d.data, "name").String()
}

// Get returns a top-level or dotted property.
func (d *Document) Get(key string) gjson.Result {
	return gjson.GetBytes(d.data, key)
}

// Page returns the page size. Missing members default to US Letter portrait.
func (d *Document) Page() Page {
	p := gjson.GetBytes(d.data, "page")
	page := Page{Width: 8.5, Height: 11, Units: "in"}
	if w := p.Get("width"); w.Exists() && w.Float() > 0 {
		page.Width = w.Float()
	}
	if h := p.Get("height"); h.Exists() && h.Float() > 0 {
		page.Height = h.Float()
	}
	if u := p.Get("units").String(); u != "" {
		page.Units = u
	}
	return page
}

// TextElements lists the text elements in layout order.
func (d *Document) TextElements() []TextElement {
	var out []TextElement
	gjson.GetBytes(d.data, "elements").ForEach(func(key, el gjson.Result) bool {
		if el.Get("type").String() != TextElementType {
			return true
		}
		out = append(out, TextElement{
			Index: int(key.Int()),
			Name:  el.Get("name").String(),
			Text:  el.Get("text").String(),
			X:     el.Get("x").Float(),
			Y:     el.Get("y").Float(),
			Size:  el.Get("size").Float(),
		})
		return true
	})
	return out
}

// SetElementText replaces the text of every text element whose name matches
// exactly. It returns how many elements changed.
func (d *Document) SetElementText(name, text string) (int, error) {
	n := 0
	for _, el := range d.TextElements() {
		if el.Name != name {
			continue
		}
		data, err := sjson.SetBytes(d.data, "elements."+strconv.Itoa(el.Index)+".text", text)
		if err != nil {
			return n, domain.External("set element text", err)
		}
		d.data = data
		n++
	}
	return n, nil
}

// SetProperty sets a top-level or dotted property.
func (d *Document) SetProperty(key string, value any) error {
	data, err := sjson.SetBytes(d.data, key, value)
	if err != nil {
		return domain.External("set property", fmt.Errorf("%s: %w", key, err))
	}
	d.data = data
	return nil
}

// DataDrivenPages reports whether the document has data driven pages enabled,
// and the page names when it does.
func (d *Document) DataDrivenPages() (bool, []string) {
	ddp := gjson.GetBytes(d.data, "dataDrivenPages")
	if !ddp.Get("enabled").Bool() {
		return false, nil
	}
	var pages []string
	for _, p := range ddp.Get("pages").Array() {
		pages = append(pages, p.String())
	}
	return true, pages
}

// Save writes the document back to its path. The file is replaced atomically.
func (d *Document) Save() error {
	return d.write(d.path)
}

// SaveACopy writes the document to path and leaves the loaded document bound
// to its original path. An existing file at path is an error.
func (d *Document) SaveACopy(path string) error {
	if _, err := os.Stat(path); err == nil {
		return domain.Exists("save map document copy", path)
	}
	return d.write(path)
}

func (d *Document) write(path string) error {
	if err := atomic.WriteFile(path, bytes.NewReader(d.data)); err != nil {
		return domain.External("save map document", err)
	}
	return nil
}

// IsMapDocument reports whether a file name has the map document extension,
// ignoring case.
func IsMapDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext)
}
