// Package pipeline validates a delivered project workspace and appends its
// feature classes into the master geodatabase, one layer category at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/shapefile"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Loader appends source feature classes into one target feature class as a
// single unit.
type Loader interface {
	Append(ctx context.Context, target string, sources []geopackage.AppendSource) (int, error)
}

// Status is the result of one category's append.
type Status string

const (
	StatusAdded   Status = "added"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// CategoryResult records the append of one layer category.
type CategoryResult struct {
	Category       domain.LayerCategory
	Status         Status
	FeatureClasses []string
	Features       int
	Err            error
}

// Report summarizes a run.
type Report struct {
	Inventory  *Inventory
	Categories []CategoryResult
}

// Partial reports whether any category failed to append.
func (r Report) Partial() bool {
	for _, c := range r.Categories {
		if c.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Counts returns the number of features added and of categories per status.
func (r Report) Counts() (features int, byStatus map[Status]int) {
	byStatus = make(map[Status]int)
	for _, c := range r.Categories {
		features += c.Features
		byStatus[c.Status]++
	}
	return features, byStatus
}

// Pipeline runs validation followed by the per-category commit.
type Pipeline struct {
	loader Loader
	logger *slog.Logger
}

// New creates a Pipeline appending through loader.
func New(loader Loader, logger *slog.Logger) *Pipeline {
	return &Pipeline{loader: loader, logger: logger}
}

// Run validates src and, only when every check passes, appends each category in
// order. A category that fails is rolled back on its own and logged; the next
// category still runs.
func (p *Pipeline) Run(ctx context.Context, src workspace.Workspace) (Report, error) {
	var v Validator
	inv, err := v.Validate(ctx, src)
	report := Report{Inventory: inv}
	if err != nil {
		p.logger.Error("validation failed, nothing appended", "source", src.Path(), "error", err)
		return report, err
	}
	p.logger.Info("source validated", "source", src.Path(), "type", inv.Kind, "feature_classes", len(inv.Layers))

	for _, cat := range domain.Categories {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Categories = append(report.Categories, p.commit(ctx, src, inv, cat))
	}

	features, byStatus := report.Counts()
	p.logger.Info("append finished", "features", features, "added", byStatus[StatusAdded],
		"failed", byStatus[StatusFailed], "skipped", byStatus[StatusSkipped])
	return report, nil
}

func (p *Pipeline) commit(ctx context.Context, src workspace.Workspace, inv *Inventory, cat domain.LayerCategory) CategoryResult {
	res := CategoryResult{Category: cat}
	var sources []geopackage.AppendSource
	for _, l := range inv.Layers {
		if !l.Matched || l.Category.Name != cat.Name {
			continue
		}
		features, err := inv.load(ctx, src, l.FeatureClass.Name)
		if err != nil {
			return p.failed(res, err)
		}
		sources = append(sources, geopackage.AppendSource{FeatureClass: l.FeatureClass, Features: features})
		res.FeatureClasses = append(res.FeatureClasses, l.FeatureClass.Name)
	}

	if len(sources) == 0 {
		res.Status = StatusSkipped
		p.logger.Warn(fmt.Sprintf("%s were not added to geodatabase", cat.Label),
			"target", cat.TargetName(), "reason", "no matching feature classes")
		return res
	}

	n, err := p.loader.Append(ctx, cat.TargetName(), sources)
	if err != nil {
		return p.failed(res, err)
	}
	res.Status = StatusAdded
	res.Features = n
	p.logger.Info(fmt.Sprintf("%s were added to the geodatabase", cat.Label),
		"target", cat.TargetName(), "feature_classes", len(sources), "features", n)
	return res
}

func (p *Pipeline) failed(res CategoryResult, err error) CategoryResult {
	res.Status = StatusFailed
	res.Err = err
	p.logger.Warn(fmt.Sprintf("%s were not added to geodatabase", res.Category.Label),
		"target", res.Category.TargetName(), "error", err)
	return res
}

// OpenSource opens a delivered workspace: a .gpkg file as a geodatabase,
// anything else as a folder of shapefiles.
func OpenSource(ctx context.Context, path string, logger *slog.Logger) (workspace.Workspace, error) {
	if strings.EqualFold(filepath.Ext(path), geopackage.Ext) {
		g, err := geopackage.Open(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	if st, err := os.Stat(path); err != nil || !st.IsDir() {
		return nil, domain.Precondition("open source", "%q is neither a geodatabase nor a folder", path)
	}
	f, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
