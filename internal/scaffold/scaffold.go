// Package scaffold creates a new wetland delineation project: the folder tree,
// an empty geodatabase, the zone-named delivery folders and one map document
// per report figure.
package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapdoc"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
)

// Request describes one project to create.
type Request struct {
	// Layout is reference.LayoutProject or reference.LayoutPerson.
	Layout string
	// Root is the folder the project directory is created in. For the person
	// layout it is the projects root and the person's folder is added beneath it.
	Root   string
	Person string
	Name   string
	County string
	Size   string
}

// Result lists what was created.
type Result struct {
	Dir         string
	Zone        domain.ZoneInfo
	District1   domain.District1Status
	Size        domain.ProjectSize
	Folders     []string
	Geodatabase string
	Documents   []string
}

// Scaffolder creates projects from the reference tables and zone templates.
type Scaffolder struct {
	tables      *reference.Tables
	templateDir string
	logger      *slog.Logger
}

// New creates a Scaffolder reading zone templates from templateDir.
func New(tables *reference.Tables, templateDir string, logger *slog.Logger) *Scaffolder {
	return &Scaffolder{tables: tables, templateDir: templateDir, logger: logger}
}

type plan struct {
	layout   reference.Layout
	zone     domain.ZoneInfo
	status   domain.District1Status
	size     domain.ProjectSize
	template *mapdoc.Document
	dir      string
}

// Create validates the request and builds the project. Nothing is written until
// every input has been checked and the template loaded. The project directory
// must not exist; a second run with the same inputs fails with ResourceExists.
func (s *Scaffolder) Create(ctx context.Context, req Request) (*Result, error) {
	p, err := s.plan(req)
	if err != nil {
		s.logger.Error("project not created", "project", req.Name, "county", req.County, "error", err)
		return nil, err
	}

	if req.Layout == reference.LayoutPerson {
		if err := os.MkdirAll(filepath.Dir(p.dir), 0o755); err != nil {
			return nil, domain.External("create person folder", err)
		}
	}
	if err := os.Mkdir(p.dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, domain.Exists("create project", p.dir)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Precondition("create project", "project folder parent %q does not exist", filepath.Dir(p.dir))
		}
		return nil, domain.External("create project", err)
	}
	s.logger.Info("project folder created", "dir", p.dir, "layout", p.layout.Name, "layout_version", p.layout.Version)

	res := &Result{Dir: p.dir, Zone: p.zone, District1: p.status, Size: p.size}

	for _, name := range p.layout.Folders {
		path := filepath.Join(p.dir, name)
		if err := os.Mkdir(path, 0o755); err != nil {
			return res, domain.External("create project folder", err)
		}
		res.Folders = append(res.Folders, path)
	}

	if p.layout.Geodatabase != "" {
		path := filepath.Join(p.dir, p.layout.Geodatabase)
		gpkg, err := geopackage.Create(ctx, path, s.logger)
		if err != nil {
			return res, err
		}
		if err := gpkg.Close(); err != nil {
			return res, domain.External("close geodatabase", err)
		}
		res.Geodatabase = path
	}

	final := p.dir
	if p.layout.FinalFolder != "" {
		final = filepath.Join(p.dir, p.layout.FinalFolder)
	}
	for _, name := range []string{p.zone.ShapefileFolder, p.zone.DGNFolder} {
		if name == "" {
			continue
		}
		path := filepath.Join(final, name)
		if err := os.Mkdir(path, 0o755); err != nil {
			return res, domain.External("create zone folder", err)
		}
		res.Folders = append(res.Folders, path)
	}

	for _, fig := range domain.Figures(p.status, p.size) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(p.dir, fig.FileName())
		if err := p.template.SetProperty("name", fig.FileName()); err != nil {
			return res, err
		}
		if err := p.template.SetProperty("project", req.Name); err != nil {
			return res, err
		}
		if err := p.template.SaveACopy(path); err != nil {
			return res, err
		}
		res.Documents = append(res.Documents, path)
	}

	s.logger.Info("project created", "dir", p.dir, "zone", p.zone.Zone, "district1", p.status,
		"size", p.size, "figures", len(res.Documents))
	return res, nil
}

func (s *Scaffolder) plan(req Request) (plan, error) {
	var p plan
	if req.Name == "" {
		return p, domain.Precondition("create project", "project name is empty")
	}
	if filepath.Base(req.Name) != req.Name || req.Name == "." || req.Name == ".." {
		return p, domain.Precondition("create project", "project name %q must be a single folder name", req.Name)
	}

	layout, err := s.tables.Layout(req.Layout)
	if err != nil {
		return p, err
	}
	p.layout = layout

	if p.zone, err = s.tables.Zone(req.County); err != nil {
		return p, domain.Precondition("create project",
			"county %q not in list; check spelling & capitalization of county name; project not created", req.County)
	}
	p.status = s.tables.District1(req.County)

	switch req.Layout {
	case reference.LayoutPerson:
		if !s.tables.PersonAllowed(req.Person) {
			return p, domain.Precondition("create project", "person %q is not on the allow-list", req.Person)
		}
		p.size = domain.SizeSmall
		p.dir = filepath.Join(req.Root, req.Person, req.Name)
	default:
		if p.size, err = domain.ParseProjectSize(req.Size); err != nil {
			return p, err
		}
		p.dir = filepath.Join(req.Root, req.Name)
	}

	if p.template, err = mapdoc.Load(filepath.Join(s.templateDir, p.zone.Template+mapdoc.Ext)); err != nil {
		return p, err
	}
	return p, nil
}
