package sample_test

import (
	"math/rand"
	"testing"

	"git.fiblab.net/sim/accessibility/access/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(x0, y0, size float64) []geom.Coord {
	return []geom.Coord{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}
}

func TestPointsCountAndContainment(t *testing.T) {
	lshape := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {10, 0}, {10, 1}, {1, 1}, {1, 10}, {0, 10}, {0, 0},
	}})
	donut := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		square(0, 0, 10),
		square(2, 2, 6),
	})
	multi := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{square(0, 0, 1)},
		{square(100, 100, 1)},
	})
	for name, g := range map[string]geom.T{"L": lshape, "donut": donut, "multi": multi} {
		for _, n := range []int{1, 5, 137} {
			xs, ys, err := sample.Points(g, n, rand.New(rand.NewSource(42)))
			require.NoError(t, err, name)
			require.Len(t, xs, n, name)
			require.Len(t, ys, n, name)
			for i := range xs {
				assert.True(t, sample.Contains(g, xs[i], ys[i]), "%s: (%v, %v)", name, xs[i], ys[i])
			}
		}
	}
}

func TestPointsDeterministic(t *testing.T) {
	g := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {7, 1}, {3, 9}, {0, 0}}})
	xs1, ys1, err := sample.Points(g, 20, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	xs2, ys2, err := sample.Points(g, 20, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, xs1, xs2)
	assert.Equal(t, ys1, ys2)

	xs3, _, err := sample.Points(g, 20, rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	assert.NotEqual(t, xs1, xs3)
}

func TestContains(t *testing.T) {
	donut := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		square(0, 0, 10),
		square(2, 2, 6),
	})
	assert.True(t, sample.Contains(donut, 1, 1))
	assert.True(t, sample.Contains(donut, 0, 5)) // 外边界
	assert.True(t, sample.Contains(donut, 2, 5)) // 洞边界
	assert.False(t, sample.Contains(donut, 5, 5))
	assert.False(t, sample.Contains(donut, 11, 5))
	assert.False(t, sample.Contains(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{0, 0}), 0, 0))
}

func TestPointsErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 1)})

	_, _, err := sample.Points(g, 0, rng)
	assert.ErrorIs(t, err, sample.ErrInvalidCount)

	_, _, err = sample.Points(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{0, 0}), 3, rng)
	assert.ErrorIs(t, err, sample.ErrUnsupportedGeometry)

	_, _, err = sample.Points(geom.NewPolygon(geom.XY), 3, rng)
	assert.ErrorIs(t, err, sample.ErrDegenerate)

	line := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {1, 0}, {2, 0}, {0, 0}}})
	_, _, err = sample.Points(line, 3, rng)
	assert.ErrorIs(t, err, sample.ErrDegenerate)

	diagonal := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {1, 1}, {2, 2}, {0, 0}}})
	_, _, err = sample.Points(diagonal, 3, rng)
	assert.ErrorIs(t, err, sample.ErrDegenerate)
}

func TestPointsSliver(t *testing.T) {
	// 面积与外包框之比约为5e-5
	sliver := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {1000, 1000}, {1000, 1000.1}, {0, 0},
	}})
	xs, ys, err := sample.Points(sliver, 5, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, xs, 5)
	assert.Equal(t, 5, cap(xs))
	assert.Equal(t, 5, cap(ys))
	for i := range xs {
		assert.True(t, sample.Contains(sliver, xs[i], ys[i]), "(%v, %v)", xs[i], ys[i])
	}
}
