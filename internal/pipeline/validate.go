package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// Layer is one source feature class and the category it appends to.
type Layer struct {
	FeatureClass workspace.FeatureClass
	Category     domain.LayerCategory
	// Matched is false when no category takes the feature class.
	Matched bool
}

// Inventory is a validated source workspace. Features read during validation
// are kept for the commit phase.
type Inventory struct {
	Kind   workspace.Kind
	Path   string
	Layers []Layer

	features map[string][]workspace.Feature
}

// Features returns the rows read for a feature class.
func (inv *Inventory) Features(name string) []workspace.Feature {
	return inv.features[name]
}

// Check is one named validation step.
type Check struct {
	Name string
	Err  error
}

// Validator runs the pre-append checks against a source workspace.
type Validator struct {
	// Checks records every step attempted, in order, including the failing one.
	Checks []Check
}

// Validate checks the workspace and stops at the first failure, in this order:
// a Project polygon exists; prefixed feature classes have an allowed geometry;
// PID exists everywhere, then is complete everywhere; the same for Seq_Num;
// then the extra field of each prefix, exists then complete.
func (v *Validator) Validate(ctx context.Context, ws workspace.Workspace) (*Inventory, error) {
	v.Checks = nil
	fcs, err := ws.FeatureClasses(ctx)
	if err != nil {
		return nil, err
	}
	inv := &Inventory{
		Kind:     ws.Kind(),
		Path:     ws.Path(),
		features: make(map[string][]workspace.Feature),
	}
	for _, fc := range fcs {
		cat, ok := domain.CategoryFor(fc.Name, fc.Geometry)
		inv.Layers = append(inv.Layers, Layer{FeatureClass: fc, Category: cat, Matched: ok})
	}

	if err := v.run("project boundary", func() error { return checkProjectBoundary(fcs) }); err != nil {
		return inv, err
	}
	if err := v.run("geometry types", func() error { return checkGeometries(fcs) }); err != nil {
		return inv, err
	}

	for _, field := range domain.BaseRequiredFields {
		if err := v.requireField(ctx, ws, inv, fcs, field); err != nil {
			return inv, err
		}
	}
	for _, req := range domain.PrefixRequirements() {
		matching := slices.DeleteFunc(slices.Clone(fcs), func(fc workspace.FeatureClass) bool {
			return !strings.HasPrefix(fc.Name, req.Prefix)
		})
		if err := v.requireField(ctx, ws, inv, matching, req.Field); err != nil {
			return inv, err
		}
	}
	return inv, nil
}

func (v *Validator) run(name string, fn func() error) error {
	err := fn()
	v.Checks = append(v.Checks, Check{Name: name, Err: err})
	return err
}

func (v *Validator) requireField(ctx context.Context, ws workspace.Workspace, inv *Inventory, fcs []workspace.FeatureClass, field string) error {
	if err := v.run(field+" exists", func() error {
		for _, fc := range fcs {
			if !fc.HasField(field) {
				return domain.Precondition("validate", "field '%s' does not exist in %s", field, fc.Name)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return v.run(field+" complete", func() error {
		for _, fc := range fcs {
			features, err := inv.load(ctx, ws, fc.Name)
			if err != nil {
				return err
			}
			for _, f := range features {
				if val, _ := f.Value(field); workspace.IsBlank(val) {
					return domain.Precondition("validate",
						"at least one feature in %s is missing a value in the '%s' field", fc.Name, field)
				}
			}
		}
		return nil
	})
}

func (inv *Inventory) load(ctx context.Context, ws workspace.Workspace, name string) ([]workspace.Feature, error) {
	if features, ok := inv.features[name]; ok {
		return features, nil
	}
	features, err := ws.Features(ctx, name)
	if err != nil {
		return nil, err
	}
	inv.features[name] = features
	return features, nil
}

func checkProjectBoundary(fcs []workspace.FeatureClass) error {
	for _, fc := range fcs {
		if domain.CategoryProjectBoundary.Matches(fc.Name, fc.Geometry) {
			return nil
		}
	}
	return domain.Precondition("validate", "project boundary is not a polygon")
}

func checkGeometries(fcs []workspace.FeatureClass) error {
	for _, fc := range fcs {
		prefix, geoms, ok := domain.PrefixGeometries(fc.Name)
		if !ok || slices.Contains(geoms, fc.Geometry) {
			continue
		}
		return domain.Precondition("validate", "%s has geometry %s; %s feature classes must be %s",
			fc.Name, fc.Geometry, prefix, joinGeometries(geoms))
	}
	return nil
}

func joinGeometries(geoms []domain.GeometryType) string {
	parts := make([]string, len(geoms))
	for i, g := range geoms {
		parts[i] = string(g)
	}
	return strings.Join(parts, " or ")
}

// Summary is a one-line description of a layer for reports.
func (l Layer) Summary() string {
	if !l.Matched {
		return fmt.Sprintf("%s (%s, not appended)", l.FeatureClass.Name, l.FeatureClass.Geometry)
	}
	return fmt.Sprintf("%s (%s -> %s)", l.FeatureClass.Name, l.FeatureClass.Geometry, l.Category.TargetName())
}
