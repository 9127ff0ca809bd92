package network_test

import (
	"math"
	"testing"

	"git.fiblab.net/sim/accessibility/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 0 -> 1 -> 2 -> 3，另有0 -> 2的长边和1 -> 2的平行边
func newLineGraph(t *testing.T) *network.Graph {
	g := network.NewGraph()
	for i := int64(0); i < 4; i++ {
		require.NoError(t, g.AddNode(i, network.Point{X: float64(i), Y: 0}))
	}
	mustEdge := func(u, v int64, key int, length float64) {
		_, err := g.AddEdge(u, v, key, map[string]float64{"length": length})
		require.NoError(t, err)
	}
	mustEdge(0, 1, 0, 1)
	mustEdge(1, 2, 0, 3)
	mustEdge(1, 2, 1, 1)
	mustEdge(2, 3, 0, 1)
	mustEdge(0, 2, 0, 10)
	return g
}

func TestGraphAttributes(t *testing.T) {
	g := newLineGraph(t)
	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 5, g.NumEdges())

	k := network.EdgeKey{U: 1, V: 2, Key: 1}
	length, ok := g.EdgeAttr(k, "length")
	assert.True(t, ok)
	assert.Equal(t, 1.0, length)

	_, ok = g.EdgeAttr(k, "load")
	assert.False(t, ok)
	require.NoError(t, g.AddEdgeAttr(k, "load", 2.5))
	require.NoError(t, g.AddEdgeAttr(k, "load", 0.5))
	load, _ := g.EdgeAttr(k, "load")
	assert.Equal(t, 3.0, load)

	g.InitEdgeAttr("load", 0)
	for _, e := range g.Edges() {
		v, ok := g.EdgeAttr(e, "load")
		assert.True(t, ok)
		assert.Equal(t, 0.0, v)
	}

	require.NoError(t, g.SetNodeAttr(3, "poi", 4))
	v, ok := g.NodeAttr(3, "poi")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	assert.ErrorIs(t, g.SetEdgeAttr(network.EdgeKey{U: 3, V: 0}, "load", 1), network.ErrEdgeNotFound)
	assert.ErrorIs(t, g.SetNodeAttr(9, "poi", 1), network.ErrNodeNotFound)
	assert.ErrorIs(t, g.AddNode(0, network.Point{}), network.ErrDuplicateNode)
	_, err := g.AddEdge(0, 1, 0, nil)
	assert.ErrorIs(t, err, network.ErrDuplicateEdge)
	_, err = g.AddEdge(0, 7, 0, nil)
	assert.ErrorIs(t, err, network.ErrNodeNotFound)
}

func TestGraphCopyIsolated(t *testing.T) {
	g := newLineGraph(t)
	c := g.Copy()
	k := network.EdgeKey{U: 0, V: 1}
	require.NoError(t, c.SetEdgeAttr(k, "length", 100))
	c.TagEdges()

	length, _ := g.EdgeAttr(k, "length")
	assert.Equal(t, 1.0, length)
	_, ok := g.OrigName(k)
	assert.False(t, ok)
	name, ok := c.OrigName(k)
	assert.True(t, ok)
	assert.Equal(t, k, name)

	// 拷贝上的边权变化影响最短路
	tree, err := c.ShortestPathTree(0, "length")
	require.NoError(t, err)
	assert.Equal(t, 10.0, tree.Cost(2))
	tree, err = g.ShortestPathTree(0, "length")
	require.NoError(t, err)
	assert.Equal(t, 2.0, tree.Cost(2))
}

func TestShortestPathTree(t *testing.T) {
	g := newLineGraph(t)
	tree, err := g.ShortestPathTree(0, "length")
	require.NoError(t, err)

	assert.Equal(t, int64(0), tree.Source())
	assert.Equal(t, []int64{0, 1, 2, 3}, tree.Nodes())
	assert.Equal(t, 0.0, tree.Cost(0))
	assert.Equal(t, 3.0, tree.Cost(3))
	assert.Empty(t, tree.EdgePath(0))
	assert.Equal(t, []network.EdgeKey{
		{U: 0, V: 1, Key: 0},
		{U: 1, V: 2, Key: 1},
		{U: 2, V: 3, Key: 0},
	}, tree.EdgePath(3))

	// 反向不可达
	back, err := g.ShortestPathTree(3, "length")
	require.NoError(t, err)
	assert.False(t, back.Reachable(0))
	assert.True(t, math.IsInf(back.Cost(0), 1))
	assert.Empty(t, back.EdgePath(0))

	_, err = g.ShortestPathTree(42, "length")
	assert.ErrorIs(t, err, network.ErrNodeNotFound)
}

func TestShortestPathTreeSkipsInvalidWeights(t *testing.T) {
	g := newLineGraph(t)
	require.NoError(t, g.SetEdgeAttr(network.EdgeKey{U: 1, V: 2, Key: 1}, "length", math.NaN()))
	tree, err := g.ShortestPathTree(0, "length")
	require.NoError(t, err)
	assert.Equal(t, 4.0, tree.Cost(2))

	// 缺失的边权视为不可通行
	tree, err = g.ShortestPathTree(0, "travel_time")
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, tree.Nodes())
}

func TestCostMatrix(t *testing.T) {
	g := newLineGraph(t)
	g.SetWorkers(2)
	m, err := g.CostMatrix([]int64{0, 1, 3}, []int64{3, 0}, "length")
	require.NoError(t, err)
	require.Len(t, m, 3)
	assert.Equal(t, []float64{3, 0}, m[0])
	assert.Equal(t, 2.0, m[1][0])
	assert.True(t, math.IsInf(m[1][1], 1))
	assert.Equal(t, 0.0, m[2][0])
	assert.True(t, math.IsInf(m[2][1], 1))

	empty, err := g.CostMatrix([]int64{0}, nil, "length")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{}}, empty)

	_, err = g.CostMatrix([]int64{0}, []int64{99}, "length")
	assert.ErrorIs(t, err, network.ErrNodeNotFound)
}

func TestTreeAccumulate(t *testing.T) {
	g := newLineGraph(t)
	tree, err := g.ShortestPathTree(0, "length")
	require.NoError(t, err)

	// 每个节点的值为1，边上累加的值等于经过该边的节点数
	edges := g.Edges()
	got := make(map[network.EdgeKey]float64)
	tree.Accumulate(
		func(id int64, cost float64) float64 { return 1 },
		func(edge int, total float64) { got[edges[edge]] += total },
	)
	assert.Equal(t, map[network.EdgeKey]float64{
		{U: 0, V: 1, Key: 0}: 3,
		{U: 1, V: 2, Key: 1}: 2,
		{U: 2, V: 3, Key: 0}: 1,
	}, got)

	// 与逐条路径累加的结果一致
	want := make(map[network.EdgeKey]float64)
	for _, id := range tree.Nodes() {
		for _, e := range tree.EdgePath(id) {
			want[e] += float64(id)
		}
	}
	got = make(map[network.EdgeKey]float64)
	tree.Accumulate(
		func(id int64, cost float64) float64 { return float64(id) },
		func(edge int, total float64) { got[edges[edge]] += total },
	)
	assert.Equal(t, want, got)
}
