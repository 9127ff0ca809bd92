package network

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

type Point struct {
	X float64
	Y float64
}

// EdgeKey identifies a directed edge of a multigraph: Key separates parallel
// edges between the same pair of nodes.
type EdgeKey struct {
	U   int64
	V   int64
	Key int
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("(%d, %d, %d)", k.U, k.V, k.Key)
}

type node struct {
	id    int64
	p     Point
	attrs map[string]float64
	out   []int // 出边在edges中的下标
}

type edge struct {
	key      EdgeKey
	from, to int // 节点在nodes中的下标
	attrs    map[string]float64
	origName EdgeKey
	tagged   bool
}

// Graph is a directed multigraph with named float attributes on nodes and
// edges. Topology is append-only, so internal indices stay valid for the
// lifetime of the graph.
type Graph struct {
	nodes     []node
	nodeIndex map[int64]int
	edges     []edge
	edgeIndex map[EdgeKey]int

	// 最短路并发数
	workers int

	// 按属性名缓存的边权，属性写入时失效
	weightCache map[string][]float64
	cacheMu     sync.Mutex

	// 拓扑与属性的读写锁，最短路计算只读
	mu *xsync.RBMutex
}

func NewGraph() *Graph {
	return &Graph{
		nodes:       make([]node, 0),
		nodeIndex:   make(map[int64]int),
		edges:       make([]edge, 0),
		edgeIndex:   make(map[EdgeKey]int),
		workers:     runtime.NumCPU(),
		weightCache: make(map[string][]float64),
		mu:          xsync.NewRBMutex(),
	}
}

// SetWorkers bounds the number of goroutines CostMatrix uses. n < 1 means 1.
func (g *Graph) SetWorkers(n int) {
	g.workers = max(n, 1)
}

func (g *Graph) AddNode(id int64, p Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodeIndex[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}
	g.nodeIndex[id] = len(g.nodes)
	g.nodes = append(g.nodes, node{id: id, p: p, attrs: make(map[string]float64)})
	return nil
}

func (g *Graph) AddEdge(u, v int64, key int, attrs map[string]float64) (EdgeKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := EdgeKey{U: u, V: v, Key: key}
	from, ok := g.nodeIndex[u]
	if !ok {
		return k, fmt.Errorf("%w: %d", ErrNodeNotFound, u)
	}
	to, ok := g.nodeIndex[v]
	if !ok {
		return k, fmt.Errorf("%w: %d", ErrNodeNotFound, v)
	}
	if _, ok := g.edgeIndex[k]; ok {
		return k, fmt.Errorf("%w: %v", ErrDuplicateEdge, k)
	}
	e := edge{key: k, from: from, to: to, attrs: make(map[string]float64, len(attrs))}
	for name, val := range attrs {
		e.attrs[name] = val
	}
	g.edgeIndex[k] = len(g.edges)
	g.nodes[from].out = append(g.nodes[from].out, len(g.edges))
	g.edges = append(g.edges, e)
	g.invalidate("")
	return k, nil
}

// getter

func (g *Graph) NumNodes() int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return len(g.edges)
}

func (g *Graph) HasNode(id int64) bool {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	_, ok := g.nodeIndex[id]
	return ok
}

func (g *Graph) Node(id int64) (Point, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.nodeIndex[id]
	if !ok {
		return Point{}, false
	}
	return g.nodes[i].p, true
}

// NodeIDs returns node ids in insertion order.
func (g *Graph) NodeIDs() []int64 {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return lo.Map(g.nodes, func(n node, _ int) int64 { return n.id })
}

// Edges returns edge keys in insertion order. The position of a key in the
// returned slice is its edge index (see EdgeAt).
func (g *Graph) Edges() []EdgeKey {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return lo.Map(g.edges, func(e edge, _ int) EdgeKey { return e.key })
}

func (g *Graph) EdgeAt(i int) EdgeKey {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return g.edges[i].key
}

func (g *Graph) HasEdge(k EdgeKey) bool {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	_, ok := g.edgeIndex[k]
	return ok
}

// attributes

func (g *Graph) SetNodeAttr(id int64, name string, v float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	g.nodes[i].attrs[name] = v
	return nil
}

func (g *Graph) NodeAttr(id int64, name string) (float64, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.nodeIndex[id]
	if !ok {
		return 0, false
	}
	v, ok := g.nodes[i].attrs[name]
	return v, ok
}

func (g *Graph) SetEdgeAttr(k EdgeKey, name string, v float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.edgeIndex[k]
	if !ok {
		return fmt.Errorf("%w: %v", ErrEdgeNotFound, k)
	}
	g.edges[i].attrs[name] = v
	g.invalidate(name)
	return nil
}

// AddEdgeAttr adds delta to an edge attribute, treating a missing attribute as 0.
func (g *Graph) AddEdgeAttr(k EdgeKey, name string, delta float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.edgeIndex[k]
	if !ok {
		return fmt.Errorf("%w: %v", ErrEdgeNotFound, k)
	}
	g.edges[i].attrs[name] += delta
	g.invalidate(name)
	return nil
}

func (g *Graph) EdgeAttr(k EdgeKey, name string) (float64, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.edgeIndex[k]
	if !ok {
		return 0, false
	}
	v, ok := g.edges[i].attrs[name]
	return v, ok
}

// EdgeAttrs returns a copy of all attributes of an edge.
func (g *Graph) EdgeAttrs(k EdgeKey) (map[string]float64, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.edgeIndex[k]
	if !ok {
		return nil, false
	}
	return lo.Assign(g.edges[i].attrs), true
}

// InitEdgeAttr sets the attribute on every edge to v, overwriting old values.
func (g *Graph) InitEdgeAttr(name string, v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.edges {
		g.edges[i].attrs[name] = v
	}
	g.invalidate(name)
}

// TagEdges records the current key of every edge as its original name, so
// that edge identities survive copies and re-indexing.
func (g *Graph) TagEdges() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.edges {
		g.edges[i].origName = g.edges[i].key
		g.edges[i].tagged = true
	}
}

func (g *Graph) OrigName(k EdgeKey) (EdgeKey, bool) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	i, ok := g.edgeIndex[k]
	if !ok || !g.edges[i].tagged {
		return EdgeKey{}, false
	}
	return g.edges[i].origName, true
}

// Copy returns a deep copy: attribute writes on the copy never reach g.
func (g *Graph) Copy() *Graph {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	c := NewGraph()
	c.workers = g.workers
	c.nodes = lo.Map(g.nodes, func(n node, _ int) node {
		return node{id: n.id, p: n.p, attrs: lo.Assign(n.attrs), out: append([]int(nil), n.out...)}
	})
	c.edges = lo.Map(g.edges, func(e edge, _ int) edge {
		e.attrs = lo.Assign(e.attrs)
		return e
	})
	c.nodeIndex = lo.Assign(g.nodeIndex)
	c.edgeIndex = lo.Assign(g.edgeIndex)
	return c
}

// 边权缓存。缺失、NaN或负数的边权记为+Inf，即不可通行
func (g *Graph) weights(name string) []float64 {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	if w, ok := g.weightCache[name]; ok {
		return w
	}
	w := make([]float64, len(g.edges))
	for i, e := range g.edges {
		v, ok := e.attrs[name]
		if !ok || math.IsNaN(v) || v < 0 {
			v = math.Inf(1)
		}
		w[i] = v
	}
	g.weightCache[name] = w
	return w
}

// 调用方需持有写锁；name为空时清空全部缓存
func (g *Graph) invalidate(name string) {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	if name == "" {
		g.weightCache = make(map[string][]float64)
		return
	}
	delete(g.weightCache, name)
}
