package geopackage

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryBlob_RoundTrip(t *testing.T) {
	geoms := []orb.Geometry{
		orb.Point{1052000.5, 1900000.25},
		orb.MultiLineString{{{0, 0}, {10, 10}}, {{20, 0}, {30, 5}}},
		orb.MultiPolygon{square(0, 0, 10)},
	}
	for _, g := range geoms {
		t.Run(g.GeoJSONType(), func(t *testing.T) {
			blob, err := EncodeGeometry(g, 3435)
			require.NoError(t, err)
			assert.Equal(t, []byte("GP"), blob[:2])

			got, srs, err := DecodeGeometry(blob)
			require.NoError(t, err)
			assert.Equal(t, 3435, srs)
			assert.Equal(t, g, got)
		})
	}
}

func TestEncodeGeometry_Envelope(t *testing.T) {
	point, err := EncodeGeometry(orb.Point{1, 2}, 4326)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), point[3], "points carry no envelope")

	poly, err := EncodeGeometry(square(2, 3, 4), 4326)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), poly[3], "little endian with xy envelope")
	env := make([]float64, 4)
	for i := range env {
		env[i] = math.Float64frombits(binary.LittleEndian.Uint64(poly[8+8*i:]))
	}
	assert.Equal(t, []float64{2, 6, 3, 7}, env)
}

func TestDecodeGeometry_BigEndianNoEnvelope(t *testing.T) {
	body, err := wkb.Marshal(orb.Point{5, 6}, binary.BigEndian)
	require.NoError(t, err)
	blob := append([]byte{'G', 'P', 0, 0x00, 0, 0, 0x0d, 0x6b}, body...)

	g, srs, err := DecodeGeometry(blob)
	require.NoError(t, err)
	assert.Equal(t, 3435, srs)
	assert.Equal(t, orb.Point{5, 6}, g)
}

func TestDecodeGeometry_Invalid(t *testing.T) {
	for _, blob := range [][]byte{{'X', 'Y', 0, 1, 0, 0, 0, 0}, {'G', 'P'}, {'G', 'P', 1, 1, 0, 0, 0, 0}, {'G', 'P', 0, 0x0f, 0, 0, 0, 0}} {
		_, _, err := DecodeGeometry(blob)
		assert.Error(t, err)
	}

	g, _, err := DecodeGeometry(nil)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestPromote(t *testing.T) {
	g, err := promote(orb.LineString{{0, 0}, {1, 1}}, "MULTILINESTRING")
	require.NoError(t, err)
	assert.Equal(t, orb.MultiLineString{{{0, 0}, {1, 1}}}, g)

	_, err = promote(orb.Point{0, 0}, "MULTIPOLYGON")
	assert.Error(t, err)
}
