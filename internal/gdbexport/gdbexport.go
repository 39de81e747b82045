// Package gdbexport copies the delivered feature classes of the master
// geodatabases into one new geodatabase.
package gdbexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
)

// Copied is one exported feature class.
type Copied struct {
	Group        string
	FeatureClass string
	Features     int
}

// Report lists the output and everything copied into it.
type Report struct {
	Output string
	Copied []Copied
}

// Exporter runs the export plan.
type Exporter struct {
	plan   []reference.ExportGroup
	logger *slog.Logger
}

// New creates an Exporter for the given plan.
func New(plan []reference.ExportGroup, logger *slog.Logger) *Exporter {
	return &Exporter{plan: plan, logger: logger}
}

// Run creates <outDir>/<name>.gpkg and copies each group's feature classes from
// the workspace at the same position in workspaces. Any failure aborts the run
// and removes the incomplete output.
func (e *Exporter) Run(ctx context.Context, workspaces []string, outDir, name string) (Report, error) {
	const op = "export geodatabase"
	if len(workspaces) != len(e.plan) {
		return Report{}, domain.Precondition(op, "expected %d workspaces, got %d", len(e.plan), len(workspaces))
	}
	if name == "" {
		return Report{}, domain.Precondition(op, "output name is empty")
	}

	out := filepath.Join(outDir, name+geopackage.Ext)
	dst, err := geopackage.Create(ctx, out, e.logger)
	if err != nil {
		e.logger.Error("output geodatabase could not be created", "path", out, "error", err)
		return Report{}, err
	}

	report := Report{Output: out}
	for i, group := range e.plan {
		copied, err := e.copyGroup(ctx, dst, group, workspaces[i])
		if err != nil {
			e.logger.Error(fmt.Sprintf("features from %s could not be exported", group.Group),
				"workspace", workspaces[i], "error", err)
			_ = dst.Close()
			_ = os.Remove(out)
			return Report{}, fmt.Errorf("features from %s could not be exported: %w", group.Group, err)
		}
		report.Copied = append(report.Copied, copied...)
		e.logger.Info(fmt.Sprintf("features from %s exported", group.Group), "feature_classes", len(copied))
	}

	if err := dst.Close(); err != nil {
		return report, domain.External(op, err)
	}
	e.logger.Info("geodatabase exported", "path", out, "feature_classes", len(report.Copied))
	return report, nil
}

func (e *Exporter) copyGroup(ctx context.Context, dst *geopackage.GeoPackage, group reference.ExportGroup, path string) ([]Copied, error) {
	src, err := geopackage.Open(ctx, path, e.logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var copied []Copied
	for _, fc := range group.QualifiedNames() {
		n, err := dst.CopyFeatureClass(ctx, src, fc)
		if err != nil {
			return nil, err
		}
		copied = append(copied, Copied{Group: group.Group, FeatureClass: fc, Features: n})
	}
	return copied, nil
}
