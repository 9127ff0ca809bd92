package network_test

import (
	"container/heap"
	"testing"

	"git.fiblab.net/sim/accessibility/network"
	"github.com/stretchr/testify/assert"
)

func TestPriorityQueue(t *testing.T) {
	pq := make(network.PriorityQueue, 0)
	heap.Push(&pq, &network.Item{Value: 4, Priority: 4})
	heap.Push(&pq, &network.Item{Value: 2, Priority: 2})
	heap.Push(&pq, &network.Item{Value: 1, Priority: 1})
	heap.Push(&pq, &network.Item{Value: 3, Priority: 3})

	item := heap.Pop(&pq).(*network.Item)
	assert.Equal(t, 1, item.Value)
	assert.Equal(t, 1.0, item.Priority)
	assert.Equal(t, -1, item.Index)
	item = heap.Pop(&pq).(*network.Item)
	assert.Equal(t, 2, item.Value)
	assert.Equal(t, 2.0, item.Priority)
}

func TestPriorityQueueDecreaseKey(t *testing.T) {
	pq := make(network.PriorityQueue, 0)
	for _, v := range []int{4, 2, 1, 3} {
		heap.Push(&pq, &network.Item{Value: v, Priority: float64(v)})
	}

	// 将Value==3的优先级改为0
	for _, item := range pq {
		if item.Value == 3 {
			item.Priority = 0
			heap.Fix(&pq, item.Index)
		}
	}

	for _, want := range []int{3, 1, 2, 4} {
		item := heap.Pop(&pq).(*network.Item)
		assert.Equal(t, want, item.Value)
	}
	assert.Equal(t, 0, pq.Len())
}
