package shapefile

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// toOrb converts a shapefile record. Z and M values are dropped. Polygon rings
// are grouped by winding: a clockwise ring starts a new polygon and each
// counter-clockwise ring is a hole in the polygon before it.
func toOrb(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case *shp.Null:
		return nil, nil
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointM:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		return multiPoint(v.Points), nil
	case *shp.MultiPointZ:
		return multiPoint(v.Points), nil
	case *shp.MultiPointM:
		return multiPoint(v.Points), nil
	case *shp.PolyLine:
		return lines(v.Parts, v.Points), nil
	case *shp.PolyLineZ:
		return lines(v.Parts, v.Points), nil
	case *shp.PolyLineM:
		return lines(v.Parts, v.Points), nil
	case *shp.Polygon:
		return polygons(v.Parts, v.Points), nil
	case *shp.PolygonZ:
		return polygons(v.Parts, v.Points), nil
	case *shp.PolygonM:
		return polygons(v.Parts, v.Points), nil
	}
	return nil, fmt.Errorf("unsupported shape %T", s)
}

func multiPoint(pts []shp.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

// split cuts the flat point list into parts.
func split(parts []int32, pts []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := len(pts)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) > end || end > len(pts) {
			break
		}
		part := make([]orb.Point, 0, end-int(start))
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lines(parts []int32, pts []shp.Point) orb.MultiLineString {
	var mls orb.MultiLineString
	for _, part := range split(parts, pts) {
		mls = append(mls, orb.LineString(part))
	}
	return mls
}

func polygons(parts []int32, pts []shp.Point) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for _, part := range split(parts, pts) {
		ring := orb.Ring(part)
		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}
	return mp
}

// fromOrb converts a geometry into a shapefile record of the given type.
// Outer rings are written clockwise and holes counter-clockwise.
func fromOrb(g orb.Geometry, t shp.ShapeType) (shp.Shape, error) {
	if g == nil {
		return &shp.Null{}, nil
	}
	switch t {
	case shp.POINT:
		if p, ok := g.(orb.Point); ok {
			return &shp.Point{X: p[0], Y: p[1]}, nil
		}
	case shp.MULTIPOINT:
		var pts []orb.Point
		switch v := g.(type) {
		case orb.Point:
			pts = []orb.Point{v}
		case orb.MultiPoint:
			pts = v
		}
		if pts != nil {
			sp := toShpPoints(pts)
			return &shp.MultiPoint{Box: shp.BBoxFromPoints(sp), NumPoints: int32(len(sp)), Points: sp}, nil
		}
	case shp.POLYLINE:
		var parts [][]shp.Point
		switch v := g.(type) {
		case orb.LineString:
			parts = [][]shp.Point{toShpPoints(v)}
		case orb.MultiLineString:
			for _, ls := range v {
				parts = append(parts, toShpPoints(ls))
			}
		}
		if parts != nil {
			return shp.NewPolyLine(parts), nil
		}
	case shp.POLYGON:
		var polys []orb.Polygon
		switch v := g.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{v}
		case orb.MultiPolygon:
			polys = v
		}
		if polys != nil {
			var parts [][]shp.Point
			for _, poly := range polys {
				for i, ring := range poly {
					want := orb.CCW
					if i == 0 {
						want = orb.CW
					}
					if ring.Orientation() != want {
						ring = reversed(ring)
					}
					parts = append(parts, toShpPoints(ring))
				}
			}
			p := shp.Polygon(*shp.NewPolyLine(parts))
			return &p, nil
		}
	}
	return nil, fmt.Errorf("cannot write %s as shape type %d", g.GeoJSONType(), t)
}

func toShpPoints(pts []orb.Point) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func reversed(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}
