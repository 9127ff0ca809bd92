package geodata_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.fiblab.net/sim/accessibility/access/sample"
	"git.fiblab.net/sim/accessibility/geodata"
	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

type shpRecord struct {
	shape shp.Shape
	attrs []any
}

func writeShapefile(t *testing.T, shapeType shp.ShapeType, fields []shp.Field, records []shpRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.shp")
	w, err := shp.Create(path, shapeType)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))
	for _, r := range records {
		row := int(w.Write(r.shape))
		for i, a := range r.attrs {
			require.NoError(t, w.WriteAttribute(row, i, a))
		}
	}
	w.Close()
	// Writer建立的dbf文件名缺少"."
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	return path
}

func polygon(parts ...[]shp.Point) *shp.Polygon {
	p := shp.Polygon(*shp.NewPolyLine(parts))
	return &p
}

func TestReadAreasShapefile(t *testing.T) {
	// 外环顺时针，洞逆时针
	shell := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}, {X: 2, Y: 2}}
	island := []shp.Point{{X: 20, Y: 20}, {X: 20, Y: 21}, {X: 21, Y: 21}, {X: 21, Y: 20}, {X: 20, Y: 20}}
	path := writeShapefile(t, shp.POLYGON,
		[]shp.Field{shp.StringField("GEOID", 8), shp.FloatField("POP", 10, 1)},
		[]shpRecord{
			{polygon(shell, hole, island), []any{"t1", 250.5}},
			{polygon(island), []any{"t2"}},
		})

	areas, err := geodata.ReadAreasShapefile(path, geodata.Columns{ID: "geoid", Weight: "POP"})
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "t1", areas[0].ID)
	assert.Equal(t, 250.5, areas[0].Weight)
	assert.Equal(t, "t2", areas[1].ID)
	assert.True(t, math.IsNaN(areas[1].Weight))

	mp, ok := areas[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
	assert.Equal(t, 1, mp.Polygon(1).NumLinearRings())
	assert.True(t, sample.Contains(areas[0].Geometry, 1, 1))
	assert.False(t, sample.Contains(areas[0].Geometry, 5, 5))
	assert.True(t, sample.Contains(areas[0].Geometry, 20.5, 20.5))

	areas, err = geodata.ReadAreasShapefile(path, geodata.Columns{})
	require.NoError(t, err)
	assert.Equal(t, "0", areas[0].ID)
	assert.Equal(t, 1.0, areas[0].Weight)
}

func TestReadPOIsShapefile(t *testing.T) {
	path := writeShapefile(t, shp.POINT,
		[]shp.Field{shp.StringField("NAME", 8), shp.NumberField("BEDS", 6)},
		[]shpRecord{
			{&shp.Point{X: 1, Y: 2}, []any{"h1", 30}},
			{&shp.Point{X: 3, Y: 4}, []any{"h2", 5}},
		})
	pois, err := geodata.ReadPOIsShapefile(path, geodata.Columns{ID: "name", Weight: "beds"})
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "h1", pois[0].ID)
	assert.Equal(t, 1.0, pois[0].X)
	assert.Equal(t, 2.0, pois[0].Y)
	assert.Equal(t, 30.0, pois[0].Weight)
	assert.Equal(t, 5.0, pois[1].Weight)

	_, err = geodata.ReadPOIsShapefile(filepath.Join(t.TempDir(), "missing.shp"), geodata.Columns{})
	assert.Error(t, err)
}
