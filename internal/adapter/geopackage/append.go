package geopackage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/workspace"
)

// AppendSource is one source feature class and the rows to load from it.
type AppendSource struct {
	FeatureClass workspace.FeatureClass
	Features     []workspace.Feature
}

// Append loads every source into the target feature class inside one
// transaction. Schemas need not match: fields are paired by name ignoring case,
// source fields without a partner are dropped, target fields without one stay
// NULL, and geometries are re-encoded with the target's spatial reference. Any
// failure rolls the whole call back. It returns the number of features added.
func (g *GeoPackage) Append(ctx context.Context, target string, sources []AppendSource) (int, error) {
	const op = "append"
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.External(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	l, ok, err := g.layer(ctx, tx, target)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.Precondition(op, "target feature class %q does not exist", target)
	}

	total := 0
	for _, src := range sources {
		n, err := insertFeatures(ctx, tx, l, src.Features, coerce)
		if err != nil {
			return 0, fmt.Errorf("%s into %s: %w", src.FeatureClass.Name, target, err)
		}
		total += n
		g.logger.Debug("features appended", "source", src.FeatureClass.Name, "target", target, "count", n)
	}
	if err := tx.Commit(); err != nil {
		return 0, domain.External(op, err)
	}
	return total, nil
}

const dateLayout = "2006-01-02"

// coerce converts a source value into the storage class of the target field.
func coerce(v any, target workspace.Field) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && target.Type != workspace.FieldText {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v = s
	}

	switch target.Type {
	case workspace.FieldInteger:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case float64:
			if n, ok := workspace.Int64(x); ok {
				return n, nil
			}
			return nil, fmt.Errorf("%v is not an integer", x)
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n, nil
			}
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				if n, ok := workspace.Int64(f); ok {
					return n, nil
				}
			}
			return nil, fmt.Errorf("%q is not an integer", x)
		}
	case workspace.FieldReal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", x)
			}
			return f, nil
		}
	case workspace.FieldText:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case time.Time:
			return x.Format(dateLayout), nil
		}
		return fmt.Sprint(v), nil
	case workspace.FieldDate:
		switch x := v.(type) {
		case time.Time:
			return x.Format(dateLayout), nil
		case string:
			// dBASE dates are YYYYMMDD.
			if t, err := time.Parse("20060102", x); err == nil {
				return t.Format(dateLayout), nil
			}
			if _, err := time.Parse(dateLayout, x); err == nil {
				return x, nil
			}
			return nil, fmt.Errorf("%q is not a date", x)
		}
	case workspace.FieldBlob:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	}
	return nil, fmt.Errorf("cannot store %T in a %s field", v, target.Type)
}
