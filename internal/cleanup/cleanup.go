// Package cleanup deletes attribute domains that no field or subtype uses.
package cleanup

import (
	"context"
	"log/slog"
	"slices"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Store is the geodatabase surface the cleanup needs.
type Store interface {
	Domains(ctx context.Context) ([]string, error)
	FeatureClasses(ctx context.Context) ([]workspace.FeatureClass, error)
	Tables(ctx context.Context) ([]string, error)
	FieldDomains(ctx context.Context, table string) ([]string, error)
	SubtypeField(ctx context.Context, table string) (string, error)
	SubtypeDomains(ctx context.Context, table string) ([]string, error)
	DeleteDomain(ctx context.Context, name string) error
}

// Report lists what the run found and removed.
type Report struct {
	Existing []string
	Used     []string
	Deleted  []string
	// Dangling are referenced by a field or subtype but not defined.
	Dangling []string
	// Skipped are tables that could not be inspected.
	Skipped []string
}

// Unused returns the existing domains nothing references, and the referenced
// domains that do not exist. Both are sorted.
func Unused(existing, used []string) (unused, dangling []string) {
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[d] = true
	}
	want := make(map[string]bool, len(used))
	for _, d := range used {
		want[d] = true
	}
	for d := range have {
		if !want[d] {
			unused = append(unused, d)
		}
	}
	for d := range want {
		if !have[d] {
			dangling = append(dangling, d)
		}
	}
	slices.Sort(unused)
	slices.Sort(dangling)
	return unused, dangling
}

// Cleaner runs the unused-domain deletion.
type Cleaner struct {
	logger *slog.Logger
}

// New creates a Cleaner.
func New(logger *slog.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Run collects the domains used by every feature class and table of store and
// deletes the rest in name order. The first failed delete aborts the run.
func (c *Cleaner) Run(ctx context.Context, store Store) (Report, error) {
	var report Report

	existing, err := store.Domains(ctx)
	if err != nil {
		return report, err
	}
	report.Existing = existing

	tables, err := c.tables(ctx, store)
	if err != nil {
		return report, err
	}

	seen := make(map[string]bool)
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		used, err := c.inspect(ctx, store, table)
		if err != nil {
			c.logger.Warn("could not inspect table", "table", table, "error", err)
			report.Skipped = append(report.Skipped, table)
			continue
		}
		for _, d := range used {
			if !seen[d] {
				seen[d] = true
				report.Used = append(report.Used, d)
			}
		}
	}
	slices.Sort(report.Used)

	unused, dangling := Unused(existing, report.Used)
	report.Dangling = dangling
	for _, d := range dangling {
		c.logger.Warn("domain is referenced but not defined", "domain", d)
	}

	for _, d := range unused {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := store.DeleteDomain(ctx, d); err != nil {
			return report, domain.External("delete unused domain", err)
		}
		c.logger.Info("deleted domain", "domain", d)
		report.Deleted = append(report.Deleted, d)
	}

	c.logger.Info("domain cleanup finished", "existing", len(existing), "used", len(report.Used),
		"deleted", len(report.Deleted), "dangling", len(dangling), "skipped_tables", len(report.Skipped))
	return report, nil
}

func (c *Cleaner) tables(ctx context.Context, store Store) ([]string, error) {
	fcs, err := store.FeatureClasses(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := store.Tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fcs)+len(tables))
	for _, fc := range fcs {
		names = append(names, fc.Name)
	}
	return append(names, tables...), nil
}

func (c *Cleaner) inspect(ctx context.Context, store Store, table string) ([]string, error) {
	used, err := store.FieldDomains(ctx, table)
	if err != nil {
		return nil, err
	}
	field, err := store.SubtypeField(ctx, table)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return used, nil
	}
	sub, err := store.SubtypeDomains(ctx, table)
	if err != nil {
		return nil, err
	}
	return append(used, sub...), nil
}
