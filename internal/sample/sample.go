// Package sample writes a complete set of demo inputs for every tool: zone
// templates, a master geodatabase, delivered project data, the export
// workspaces, a geodatabase with attribute domains, an attachment table and a
// folder of map documents.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/shapefile"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapdoc"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Project identifiers used throughout the sample data.
const (
	PID        = "P-91-004-18"
	SRSID      = 3435
	Surveyed   = "20180307"
	AttachName = "Wetland_Sites__ATTACH"
)

// Paths lists everything Build wrote.
type Paths struct {
	Templates  string
	Master     string
	Project    string
	Shapefiles string
	Domains    string
	Export     []string
	Maps       string
}

// origin is a point in Illinois East State Plane feet, near Elgin.
var origin = orb.Point{1_020_000, 1_930_000}

func square(dx, dy, size float64) orb.Polygon {
	x, y := origin[0]+dx, origin[1]+dy
	return orb.Polygon{orb.Ring{{x, y}, {x, y + size}, {x + size, y + size}, {x + size, y}, {x, y}}}
}

func line(dx, dy, length float64) orb.LineString {
	x, y := origin[0]+dx, origin[1]+dy
	return orb.LineString{{x, y}, {x + length/2, y + length/4}, {x + length, y}}
}

func point(dx, dy float64) orb.Point {
	return orb.Point{origin[0] + dx, origin[1] + dy}
}

func baseFields(extra ...string) []workspace.Field {
	fields := []workspace.Field{
		{Name: domain.FieldPID, Type: workspace.FieldText},
		{Name: domain.FieldSeqNum, Type: workspace.FieldInteger},
	}
	for _, e := range extra {
		fields = append(fields, workspace.Field{Name: e, Type: workspace.FieldText})
	}
	return append(fields, workspace.Field{Name: "Surveyed", Type: workspace.FieldDate})
}

type layer struct {
	fc       workspace.FeatureClass
	features []workspace.Feature
}

// projectLayers is a delivered project with one valid feature class per
// category plus a photo layer no category takes.
func projectLayers() []layer {
	seq := 0
	attrs := func(extra, value string) map[string]any {
		seq++
		a := map[string]any{domain.FieldPID: PID, domain.FieldSeqNum: int64(seq), "Surveyed": Surveyed}
		if extra != "" {
			a[extra] = value
		}
		return a
	}
	fc := func(name string, geom domain.GeometryType, extra ...string) workspace.FeatureClass {
		return workspace.FeatureClass{Name: name, Geometry: geom, SRSID: SRSID, Fields: baseFields(extra...)}
	}

	return []layer{
		{fc("Project_Boundary", domain.GeometryPolygon), []workspace.Feature{
			{Geometry: square(0, 0, 2000), Attributes: attrs("", "")},
		}},
		{fc("Wetland_Sites", domain.GeometryPolygon, domain.FieldSite), []workspace.Feature{
			{Geometry: square(100, 100, 300), Attributes: attrs(domain.FieldSite, "W1")},
			{Geometry: square(800, 400, 250), Attributes: attrs(domain.FieldSite, "W2")},
		}},
		{fc("Wetland_Swales", domain.GeometryLine, domain.FieldSite), []workspace.Feature{
			{Geometry: line(500, 1200, 600), Attributes: attrs(domain.FieldSite, "W3")},
		}},
		{fc("Non_Wetland_NWI", domain.GeometryPoint, domain.FieldSite), []workspace.Feature{
			{Geometry: point(1500, 1500), Attributes: attrs(domain.FieldSite, "NW1")},
		}},
		{fc("Sampling_Points", domain.GeometryPoint, domain.FieldPoint), []workspace.Feature{
			{Geometry: point(200, 200), Attributes: attrs(domain.FieldPoint, "SP1")},
			{Geometry: point(450, 450), Attributes: attrs(domain.FieldPoint, "SP2")},
			{Geometry: point(900, 500), Attributes: attrs(domain.FieldPoint, "SP3")},
		}},
		{fc("Other_Waters_Ponds", domain.GeometryPolygon, domain.FieldSite), []workspace.Feature{
			{Geometry: square(1600, 200, 150), Attributes: attrs(domain.FieldSite, "OW1")},
		}},
		{fc("Other_Waters_Ditches", domain.GeometryLine, domain.FieldSite), []workspace.Feature{
			{Geometry: line(0, 1900, 2000), Attributes: attrs(domain.FieldSite, "OW2")},
		}},
		{fc("Transects", domain.GeometryLine), []workspace.Feature{
			{Geometry: line(100, 150, 400), Attributes: attrs("", "")},
		}},
		{fc("Photo_Points", domain.GeometryPoint), []workspace.Feature{
			{Geometry: point(300, 300), Attributes: attrs("", "")},
		}},
	}
}

// Build writes the sample set under dir, which must exist.
func Build(ctx context.Context, dir string, tables *reference.Tables, logger *slog.Logger) (*Paths, error) {
	p := &Paths{
		Templates:  filepath.Join(dir, "templates"),
		Master:     filepath.Join(dir, "master.gpkg"),
		Project:    filepath.Join(dir, "project.gpkg"),
		Shapefiles: filepath.Join(dir, "shapefiles"),
		Domains:    filepath.Join(dir, "domains.gpkg"),
		Maps:       filepath.Join(dir, "maps"),
	}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"templates", func() error { return writeTemplates(p.Templates, tables) }},
		{"master geodatabase", func() error { return writeMaster(ctx, p.Master, logger) }},
		{"project geodatabase", func() error { return writeProject(ctx, p.Project, logger) }},
		{"project shapefiles", func() error { return writeShapefiles(p.Shapefiles) }},
		{"domain geodatabase", func() error { return writeDomains(ctx, p.Domains, logger) }},
		{"export workspaces", func() error {
			var err error
			p.Export, err = writeExportWorkspaces(ctx, dir, tables.ExportPlan(), logger)
			return err
		}},
		{"map documents", func() error { return writeMaps(p.Maps, tables) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.name, err)
		}
		logger.Debug("sample written", "part", s.name)
	}
	return p, nil
}

func writeTemplates(dir string, tables *reference.Tables) error {
	if err := os.Mkdir(dir, 0o755); err != nil {
		return domain.External("create templates folder", err)
	}
	for _, county := range []string{"Cook", "Adams"} {
		zone, err := tables.Zone(county)
		if err != nil {
			return err
		}
		doc, err := mapdoc.Blank(dir, zone)
		if err != nil {
			return err
		}
		if err := doc.Save(); err != nil {
			return err
		}
	}
	return nil
}

// writeMaster creates every append target. Targets carry a Notes field the
// sources lack and the sources carry Surveyed, which targets lack.
func writeMaster(ctx context.Context, path string, logger *slog.Logger) error {
	g, err := geopackage.Create(ctx, path, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	for _, c := range domain.Categories {
		fields := []workspace.Field{
			{Name: domain.FieldPID, Type: workspace.FieldText},
			{Name: domain.FieldSeqNum, Type: workspace.FieldInteger},
		}
		for _, f := range c.Required {
			fields = append(fields, workspace.Field{Name: f, Type: workspace.FieldText})
		}
		fields = append(fields, workspace.Field{Name: "Notes", Type: workspace.FieldText})
		if err := g.CreateFeatureClass(ctx, workspace.FeatureClass{
			Name: c.TargetName(), Geometry: c.Geometry, SRSID: SRSID, Fields: fields,
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeProject(ctx context.Context, path string, logger *slog.Logger) error {
	g, err := geopackage.Create(ctx, path, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	for _, l := range projectLayers() {
		if err := g.CreateFeatureClass(ctx, l.fc); err != nil {
			return err
		}
		if err := g.InsertFeatures(ctx, l.fc.Name, l.features); err != nil {
			return err
		}
	}

	if err := g.CreateAttachmentTable(ctx, AttachName); err != nil {
		return err
	}
	for _, a := range Attachments() {
		if _, err := g.AddAttachment(ctx, AttachName, a); err != nil {
			return err
		}
	}
	return nil
}

// Attachments are the files stored in the sample attachment table.
func Attachments() []geopackage.Attachment {
	return []geopackage.Attachment{
		{Name: "W1_north.jpg", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xff\xe0 W1 looking north")},
		{Name: "W1_soil_pit.jpg", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xff\xe0 W1 soil pit")},
		{Name: "W2_datasheet.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 W2 datasheet")},
	}
}

func writeShapefiles(dir string) error {
	if err := os.Mkdir(dir, 0o755); err != nil {
		return domain.External("create shapefile folder", err)
	}
	for _, l := range projectLayers() {
		if err := shapefile.Write(dir, l.fc, l.features); err != nil {
			return err
		}
	}
	return nil
}

// writeDomains builds a geodatabase with used, unused and dangling domains:
// SiteType and Indicator are used, Percent and Legacy are not, and CoverClass
// is referenced without being defined.
func writeDomains(ctx context.Context, path string, logger *slog.Logger) error {
	g, err := geopackage.Create(ctx, path, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	sites := workspace.FeatureClass{
		Name: "Wetland_Sites", Geometry: domain.GeometryPolygon, SRSID: SRSID,
		Fields: []workspace.Field{
			{Name: domain.FieldSite, Type: workspace.FieldText},
			{Name: "Cover", Type: workspace.FieldInteger},
		},
	}
	steps := []func() error{
		func() error { return g.CreateFeatureClass(ctx, sites) },
		func() error {
			return g.CreateTable(ctx, "Plants", []workspace.Field{
				{Name: "Kind", Type: workspace.FieldInteger},
				{Name: "Status", Type: workspace.FieldText},
			})
		},
		func() error {
			return g.AddCodedValueDomain(ctx, "SiteType", []geopackage.CodedValue{
				{Code: "W", Description: "Wetland"}, {Code: "U", Description: "Upland"},
			})
		},
		func() error {
			return g.AddCodedValueDomain(ctx, "Indicator", []geopackage.CodedValue{
				{Code: "OBL", Description: "Obligate"}, {Code: "FACW", Description: "Facultative wetland"},
			})
		},
		func() error {
			return g.AddCodedValueDomain(ctx, "Legacy", []geopackage.CodedValue{{Code: "X", Description: "Retired"}})
		},
		func() error { return g.AddRangeDomain(ctx, "Percent", 0, 100) },
		func() error { return g.AssignDomain(ctx, sites.Name, domain.FieldSite, "SiteType") },
		func() error { return g.AssignDomain(ctx, sites.Name, "Cover", "CoverClass") },
		func() error { return g.AddSubtype(ctx, "Plants", "Kind", 1, "Herb") },
		func() error { return g.AssignSubtypeDomain(ctx, "Plants", 1, "Status", "Indicator") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// writeExportWorkspaces writes one geodatabase per export group holding the
// planned feature classes and one extra the export must leave behind.
func writeExportWorkspaces(ctx context.Context, dir string, plan []reference.ExportGroup, logger *slog.Logger) ([]string, error) {
	paths := make([]string, 0, len(plan))
	for i, group := range plan {
		path := filepath.Join(dir, fmt.Sprintf("export_%d.gpkg", i+1))
		if err := writeExportWorkspace(ctx, path, group, logger); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeExportWorkspace(ctx context.Context, path string, group reference.ExportGroup, logger *slog.Logger) error {
	g, err := geopackage.Create(ctx, path, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	names := append(group.QualifiedNames(), domain.TargetPrefix+"Scratch")
	for i, name := range names {
		if err := g.CreateFeatureClass(ctx, workspace.FeatureClass{
			Name: name, Geometry: domain.GeometryPolygon, SRSID: SRSID, Fields: baseFields(),
		}); err != nil {
			return err
		}
		if err := g.InsertFeatures(ctx, name, []workspace.Feature{{
			Geometry:   square(float64(i)*500, 0, 400),
			Attributes: map[string]any{domain.FieldPID: PID, domain.FieldSeqNum: int64(i + 1), "Surveyed": "2018-03-07"},
		}}); err != nil {
			return err
		}
	}
	return nil
}

// writeMaps copies the East template twice: one figure with a Date element and
// one atlas with data driven pages.
func writeMaps(dir string, tables *reference.Tables) error {
	if err := os.Mkdir(dir, 0o755); err != nil {
		return domain.External("create maps folder", err)
	}
	zone, err := tables.Zone("Kane")
	if err != nil {
		return err
	}
	doc, err := mapdoc.Blank(dir, zone)
	if err != nil {
		return err
	}

	if err := doc.SetProperty("project", PID); err != nil {
		return err
	}
	if _, err := doc.SetElementText("Title", "Project Location"); err != nil {
		return err
	}
	if err := doc.SaveACopy(filepath.Join(dir, "Fig1_Project_Location"+mapdoc.Ext)); err != nil {
		return err
	}

	if _, err := doc.SetElementText("Title", "Wetland Determination Map, Sheet "+mapdoc.PageToken); err != nil {
		return err
	}
	if err := doc.SetProperty("dataDrivenPages", map[string]any{
		"enabled": true,
		"pages":   []string{"1", "2", "3"},
	}); err != nil {
		return err
	}
	return doc.SaveACopy(filepath.Join(dir, "Fig3_Determination_Map"+mapdoc.Ext))
}
