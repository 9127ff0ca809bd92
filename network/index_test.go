package network_test

import (
	"math"
	"testing"

	"git.fiblab.net/sim/accessibility/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexResolve(t *testing.T) {
	g := network.NewGraph()
	for i := int64(0); i < 10; i++ {
		for j := int64(0); j < 10; j++ {
			require.NoError(t, g.AddNode(i*10+j, network.Point{X: float64(i) * 100, Y: float64(j) * 100}))
		}
	}
	idx := network.NewIndex(g)
	assert.Equal(t, 100, idx.Len())

	nodes, err := idx.Resolve([]float64{0, 140, 960, 449}, []float64{0, 260, 990, 51})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 13, 99, 41}, nodes)

	nodes, err = idx.Resolve(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestIndexResolveFailures(t *testing.T) {
	g := network.NewGraph()
	require.NoError(t, g.AddNode(1, network.Point{X: 0, Y: 0}))
	idx := network.NewIndex(g)

	_, err := idx.Resolve([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, network.ErrResolution)
	_, err = idx.Resolve([]float64{math.NaN()}, []float64{1})
	assert.ErrorIs(t, err, network.ErrResolution)

	idx.MaxDistance = 5
	_, err = idx.Resolve([]float64{3}, []float64{4})
	assert.NoError(t, err)
	_, err = idx.Resolve([]float64{30}, []float64{40})
	assert.ErrorIs(t, err, network.ErrResolution)

	empty := network.NewIndex(network.NewGraph())
	_, err = empty.Resolve([]float64{0}, []float64{0})
	assert.ErrorIs(t, err, network.ErrResolution)
}
