package geopackage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Standard GeoPackage binary header: magic, version, flags, srs_id, envelope.
const (
	headerSize = 8

	flagLittleEndian = 0x01
	flagEmpty        = 0x10
	envelopeShift    = 1
	envelopeMask     = 0x07
)

// envelopeSizes indexes envelope byte length by the flags envelope code.
var envelopeSizes = [...]int{0, 32, 48, 48, 64}

// EncodeGeometry wraps g in a GeoPackage geometry blob. Points carry no envelope;
// other geometries carry an XY envelope. A nil geometry encodes to nil (SQL NULL).
func EncodeGeometry(g orb.Geometry, srsID int) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}

	flags := byte(flagLittleEndian)
	_, isPoint := g.(orb.Point)
	empty := isEmpty(g)
	if empty {
		flags |= flagEmpty
	}
	withEnvelope := !isPoint && !empty
	if withEnvelope {
		flags |= 1 << envelopeShift
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + 32 + len(body))
	buf.Write([]byte{'G', 'P', 0, flags})
	_ = binary.Write(&buf, binary.LittleEndian, int32(srsID))
	if withEnvelope {
		b := g.Bound()
		_ = binary.Write(&buf, binary.LittleEndian, [4]float64{b.Min[0], b.Max[0], b.Min[1], b.Max[1]})
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// DecodeGeometry parses a GeoPackage geometry blob. A nil blob decodes to nil.
func DecodeGeometry(blob []byte) (orb.Geometry, int, error) {
	if blob == nil {
		return nil, 0, nil
	}
	if len(blob) < headerSize || blob[0] != 'G' || blob[1] != 'P' {
		return nil, 0, errors.New("not a geopackage geometry blob")
	}
	if blob[2] != 0 {
		return nil, 0, fmt.Errorf("unsupported geometry blob version %d", blob[2])
	}
	flags := blob[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&flagLittleEndian != 0 {
		order = binary.LittleEndian
	}
	srsID := int(int32(order.Uint32(blob[4:8])))

	code := int(flags>>envelopeShift) & envelopeMask
	if code >= len(envelopeSizes) {
		return nil, 0, fmt.Errorf("invalid envelope code %d", code)
	}
	start := headerSize + envelopeSizes[code]
	if len(blob) < start {
		return nil, 0, errors.New("truncated geometry blob")
	}

	g, err := wkb.Unmarshal(blob[start:])
	if err != nil {
		return nil, 0, fmt.Errorf("decode wkb: %w", err)
	}
	return g, srsID, nil
}

func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	}
	return false
}

// promote converts single geometries to the multi type a target column expects.
// Mismatched geometry kinds are an error.
func promote(g orb.Geometry, target string) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	switch target {
	case "GEOMETRY":
		return g, nil
	case "POINT":
		if p, ok := g.(orb.Point); ok {
			return p, nil
		}
		if mp, ok := g.(orb.MultiPoint); ok && len(mp) == 1 {
			return mp[0], nil
		}
	case "MULTIPOINT":
		switch v := g.(type) {
		case orb.Point:
			return orb.MultiPoint{v}, nil
		case orb.MultiPoint:
			return v, nil
		}
	case "LINESTRING":
		switch v := g.(type) {
		case orb.LineString:
			return v, nil
		case orb.MultiLineString:
			if len(v) == 1 {
				return v[0], nil
			}
		}
	case "MULTILINESTRING":
		switch v := g.(type) {
		case orb.LineString:
			return orb.MultiLineString{v}, nil
		case orb.MultiLineString:
			return v, nil
		}
	case "POLYGON":
		switch v := g.(type) {
		case orb.Polygon:
			return v, nil
		case orb.MultiPolygon:
			if len(v) == 1 {
				return v[0], nil
			}
		}
	case "MULTIPOLYGON":
		switch v := g.(type) {
		case orb.Polygon:
			return orb.MultiPolygon{v}, nil
		case orb.MultiPolygon:
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot store %s in a %s column", g.GeoJSONType(), target)
}
