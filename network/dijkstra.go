package network

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Tree is a single-source shortest path tree. Unreachable nodes have +Inf cost
// and no predecessor edge.
type Tree struct {
	g      *Graph
	source int
	order  []int     // 按出堆顺序排列的节点下标，起点在首位
	cost   []float64 // 节点下标 -> 累计代价
	pred   []int     // 节点下标 -> 前驱边下标，-1表示无
}

// dijkstra在调用方持有读锁时执行。targets非空时，所有目标出堆后提前结束
func (g *Graph) dijkstra(start int, w []float64, targets map[int]struct{}) ([]float64, []int, []int) {
	n := len(g.nodes)
	dist := make([]float64, n)
	pred := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = -1
	}
	settled := make([]bool, n)
	order := make([]int, 0)
	remaining := len(targets)

	items := make([]*Item, n) // 节点下标 -> 堆中元素
	openSet := make(PriorityQueue, 1)
	dist[start] = 0
	openSet[0] = &Item{Value: start, Priority: 0, Index: 0}
	items[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		settled[cur] = true
		order = append(order, cur)
		if targets != nil {
			if _, ok := targets[cur]; ok {
				remaining--
				if remaining == 0 {
					break
				}
			}
		}
		for _, ei := range g.nodes[cur].out {
			if math.IsInf(w[ei], 1) {
				continue
			}
			neighbor := g.edges[ei].to
			if settled[neighbor] {
				continue
			}
			tentative := dist[cur] + w[ei]
			if tentative < dist[neighbor] {
				dist[neighbor] = tentative
				pred[neighbor] = ei
				if item := items[neighbor]; item != nil {
					// 已在堆中的节点，修改其优先级
					item.Priority = tentative
					heap.Fix(&openSet, item.Index)
				} else {
					item := &Item{Value: neighbor, Priority: tentative}
					heap.Push(&openSet, item)
					items[neighbor] = item
				}
			}
		}
	}
	return dist, pred, order
}

// CostMatrix returns the shortest path cost from every source to every target
// under the named edge weight. Unreachable pairs are +Inf. Rows are computed
// independently on up to SetWorkers goroutines.
func (g *Graph) CostMatrix(sources, targets []int64, weight string) ([][]float64, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)

	srcIdx, err := g.indices(sources)
	if err != nil {
		return nil, err
	}
	dstIdx, err := g.indices(targets)
	if err != nil {
		return nil, err
	}
	w := g.weights(weight)
	targetSet := lo.SliceToMap(dstIdx, func(i int) (int, struct{}) { return i, struct{}{} })

	rows := make([][]float64, len(sources))
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for r, s := range srcIdx {
		r, s := r, s
		eg.Go(func() error {
			var dist []float64
			if len(targetSet) > 0 {
				dist, _, _ = g.dijkstra(s, w, targetSet)
			}
			rows[r] = lo.Map(dstIdx, func(t int, _ int) float64 { return dist[t] })
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.Debugf("cost matrix %dx%d on %q", len(sources), len(targets), weight)
	return rows, nil
}

// ShortestPathTree computes the shortest path from source to every reachable node.
func (g *Graph) ShortestPathTree(source int64, weight string) (*Tree, error) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	s, ok := g.nodeIndex[source]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, source)
	}
	dist, pred, order := g.dijkstra(s, g.weights(weight), nil)
	return &Tree{g: g, source: s, order: order, cost: dist, pred: pred}, nil
}

func (g *Graph) indices(ids []int64) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := g.nodeIndex[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
		out[i] = idx
	}
	return out, nil
}

func (t *Tree) Source() int64 {
	return t.g.nodes[t.source].id
}

// Nodes returns the reachable node ids in settle order, source first.
func (t *Tree) Nodes() []int64 {
	return lo.Map(t.order, func(i int, _ int) int64 { return t.g.nodes[i].id })
}

func (t *Tree) Reachable(id int64) bool {
	i, ok := t.g.nodeIndex[id]
	return ok && !math.IsInf(t.cost[i], 1)
}

// Cost returns the cumulative cost from the source, +Inf if unreachable.
func (t *Tree) Cost(id int64) float64 {
	i, ok := t.g.nodeIndex[id]
	if !ok {
		return math.Inf(1)
	}
	return t.cost[i]
}

// EdgePath returns the identities of the edges from the source to id, in
// travel order. Tagged edges report their original name. The path to the
// source itself and to unreachable nodes is empty.
func (t *Tree) EdgePath(id int64) []EdgeKey {
	i, ok := t.g.nodeIndex[id]
	if !ok {
		return nil
	}
	pathBeforeReversed := make([]EdgeKey, 0)
	for ei := t.pred[i]; ei != -1; ei = t.pred[t.g.edges[ei].from] {
		e := t.g.edges[ei]
		if e.tagged {
			pathBeforeReversed = append(pathBeforeReversed, e.origName)
		} else {
			pathBeforeReversed = append(pathBeforeReversed, e.key)
		}
	}
	return lo.Reverse(pathBeforeReversed)
}

// Accumulate spreads per-node values over the tree: every tree edge receives
// the sum of value(v) over all nodes v whose path from the source uses it,
// which equals adding value(v) to each edge of EdgePath(v) for every v.
// add is called once per tree edge with a non-zero total; edge is the edge
// index (position in Graph.Edges).
func (t *Tree) Accumulate(value func(id int64, cost float64) float64, add func(edge int, total float64)) {
	subtree := make(map[int]float64, len(t.order))
	// 逆出堆顺序，子节点总在父节点之前处理
	for i := len(t.order) - 1; i >= 0; i-- {
		v := t.order[i]
		total := subtree[v] + value(t.g.nodes[v].id, t.cost[v])
		ei := t.pred[v]
		if ei == -1 || total == 0 {
			continue
		}
		add(ei, total)
		subtree[t.g.edges[ei].from] += total
	}
}
