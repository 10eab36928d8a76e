package vecindex

import (
	"container/heap"
	"math"
	"math/rand"
)

// HNSWConfig contains the graph construction and search knobs.
type HNSWConfig struct {
	// M is the maximum number of connections per node per layer.
	// Higher M = better recall but more memory and slower construction.
	M int

	// MMax is the maximum number of connections at layer 0.
	// Usually set to 2*M.
	MMax int

	// EfConstruction is the beam width during construction.
	EfConstruction int

	// EfSearch is the beam width during search.
	EfSearch int

	// ML is the level generation factor, typically 1/ln(M).
	ML float64
}

// DefaultHNSWConfig returns sensible defaults for the graph.
func DefaultHNSWConfig() HNSWConfig {
	m := 16
	return HNSWConfig{
		M:              m,
		MMax:           m * 2,
		EfConstruction: 200,
		EfSearch:       100,
		ML:             1.0 / math.Log(float64(m)),
	}
}

// hnswNode is one vector in the graph with its per-layer neighbor lists.
type hnswNode struct {
	slot      int
	vector    []float32
	neighbors [][]int // neighbors[layer] = neighbor slots
	layer     int
}

// hnswIndex implements the Hierarchical Navigable Small World graph of
// Malkov & Yashunin (2016) over side-table slots. Insert-only; the Manager
// handles removal by tombstoning and rebuilds.
type hnswIndex struct {
	nodes      map[int]*hnswNode
	entryPoint int
	maxLevel   int
	config     HNSWConfig
	rng        *rand.Rand
}

func newHNSWIndex(config HNSWConfig) *hnswIndex {
	return &hnswIndex{
		nodes:      make(map[int]*hnswNode),
		entryPoint: -1,
		maxLevel:   -1,
		config:     config,
		rng:        rand.New(rand.NewSource(42)), // deterministic construction
	}
}

func (idx *hnswIndex) Add(slot int, vec []float32) {
	level := idx.randomLevel()

	node := &hnswNode{
		slot:      slot,
		vector:    vec,
		neighbors: make([][]int, level+1),
		layer:     level,
	}
	for i := range node.neighbors {
		node.neighbors[i] = make([]int, 0)
	}
	idx.nodes[slot] = node

	if idx.entryPoint < 0 {
		idx.entryPoint = slot
		idx.maxLevel = level
		return
	}

	// Greedy descent from the top layer down to level+1.
	entry := idx.greedyDescend(vec, idx.entryPoint, idx.maxLevel, level)

	// Connect on each layer from min(level, maxLevel) down to 0.
	for l := min(level, idx.maxLevel); l >= 0; l-- {
		candidates := idx.searchLayer(vec, entry, idx.config.EfConstruction, l)

		mLayer := idx.config.M
		if l == 0 {
			mLayer = idx.config.MMax
		}
		if len(candidates) > mLayer {
			candidates = candidates[:mLayer]
		}

		node.neighbors[l] = make([]int, 0, len(candidates))
		for _, c := range candidates {
			node.neighbors[l] = append(node.neighbors[l], c.Slot)

			neighbor := idx.nodes[c.Slot]
			if neighbor == nil || l >= len(neighbor.neighbors) {
				continue
			}
			neighbor.neighbors[l] = append(neighbor.neighbors[l], slot)
			if len(neighbor.neighbors[l]) > mLayer {
				neighbor.neighbors[l] = idx.pruneConnections(neighbor.vector, neighbor.neighbors[l], mLayer)
			}
		}

		if len(candidates) > 0 {
			entry = candidates[0].Slot
		}
	}

	if level > idx.maxLevel {
		idx.entryPoint = slot
		idx.maxLevel = level
	}
}

func (idx *hnswIndex) Search(query []float32, k int) []slotScore {
	if len(idx.nodes) == 0 || idx.entryPoint < 0 || k <= 0 {
		return nil
	}

	entry := idx.greedyDescend(query, idx.entryPoint, idx.maxLevel, 0)

	ef := idx.config.EfSearch
	if ef < k {
		ef = k
	}
	candidates := idx.searchLayer(query, entry, ef, 0)

	results := make([]slotScore, 0, min(k, len(candidates)))
	for i := 0; i < len(candidates) && i < k; i++ {
		results = append(results, slotScore{
			Slot:  candidates[i].Slot,
			Score: 1 - candidates[i].Distance, // distance back to similarity
		})
	}
	return results
}

// greedyDescend walks from the entry point down to targetLevel+1, always
// moving to the closer neighbor.
func (idx *hnswIndex) greedyDescend(query []float32, entrySlot, fromLevel, targetLevel int) int {
	current := idx.nodes[entrySlot]
	for l := fromLevel; l > targetLevel; l-- {
		changed := true
		for changed {
			changed = false
			if l >= len(current.neighbors) {
				continue
			}
			for _, neighborSlot := range current.neighbors[l] {
				neighbor := idx.nodes[neighborSlot]
				if neighbor == nil {
					continue
				}
				if distance(query, neighbor.vector) < distance(query, current.vector) {
					current = neighbor
					entrySlot = neighborSlot
					changed = true
				}
			}
		}
	}
	return entrySlot
}

// searchLayer performs beam search at a specific layer, returning up to ef
// candidates sorted closest first.
func (idx *hnswIndex) searchLayer(query []float32, entrySlot, ef, layer int) []distanceSlot {
	entryNode := idx.nodes[entrySlot]
	if entryNode == nil {
		return nil
	}

	visited := map[int]bool{entrySlot: true}

	// Candidates to expand, closest first.
	candidates := &minDistanceHeap{}
	heap.Init(candidates)
	// Current best set, furthest first for eviction.
	results := &maxDistanceHeap{}
	heap.Init(results)

	entryDist := distance(query, entryNode.vector)
	heap.Push(candidates, distanceSlot{Slot: entrySlot, Distance: entryDist})
	heap.Push(results, distanceSlot{Slot: entrySlot, Distance: entryDist})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distanceSlot)

		if results.Len() > 0 && closest.Distance > (*results)[0].Distance {
			break // everything left is further than our worst result
		}

		node := idx.nodes[closest.Slot]
		if node == nil || layer >= len(node.neighbors) {
			continue
		}

		for _, neighborSlot := range node.neighbors[layer] {
			if visited[neighborSlot] {
				continue
			}
			visited[neighborSlot] = true

			neighbor := idx.nodes[neighborSlot]
			if neighbor == nil {
				continue
			}

			dist := distance(query, neighbor.vector)
			if results.Len() < ef {
				heap.Push(candidates, distanceSlot{Slot: neighborSlot, Distance: dist})
				heap.Push(results, distanceSlot{Slot: neighborSlot, Distance: dist})
			} else if dist < (*results)[0].Distance {
				heap.Push(candidates, distanceSlot{Slot: neighborSlot, Distance: dist})
				heap.Pop(results)
				heap.Push(results, distanceSlot{Slot: neighborSlot, Distance: dist})
			}
		}
	}

	// Drain the max-heap into closest-first order.
	output := make([]distanceSlot, results.Len())
	for i := len(output) - 1; i >= 0; i-- {
		output[i] = heap.Pop(results).(distanceSlot)
	}
	return output
}

// pruneConnections keeps the m closest neighbors of a node.
func (idx *hnswIndex) pruneConnections(nodeVector []float32, neighbors []int, m int) []int {
	if len(neighbors) <= m {
		return neighbors
	}

	dists := make([]distanceSlot, 0, len(neighbors))
	for _, slot := range neighbors {
		node := idx.nodes[slot]
		if node != nil {
			dists = append(dists, distanceSlot{Slot: slot, Distance: distance(nodeVector, node.vector)})
		}
	}

	sortByDistance(dists)

	kept := make([]int, 0, m)
	for i := 0; i < m && i < len(dists); i++ {
		kept = append(kept, dists[i].Slot)
	}
	return kept
}

// randomLevel generates a node level with P(level = l) decaying by ML.
func (idx *hnswIndex) randomLevel() int {
	level := 0
	for idx.rng.Float64() < idx.config.ML && level < 16 {
		level++
	}
	return level
}

func (idx *hnswIndex) Len() int {
	return len(idx.nodes)
}

func (idx *hnswIndex) Kind() string {
	return "hnsw"
}

// distanceSlot pairs a slot with its distance for heap operations.
type distanceSlot struct {
	Slot     int
	Distance float32
}

func sortByDistance(items []distanceSlot) {
	for i := 0; i < len(items)-1; i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].Distance < items[i].Distance {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
}

type minDistanceHeap []distanceSlot

func (h minDistanceHeap) Len() int            { return len(h) }
func (h minDistanceHeap) Less(i, j int) bool  { return h[i].Distance < h[j].Distance }
func (h minDistanceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minDistanceHeap) Push(x interface{}) { *h = append(*h, x.(distanceSlot)) }
func (h *minDistanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type maxDistanceHeap []distanceSlot

func (h maxDistanceHeap) Len() int            { return len(h) }
func (h maxDistanceHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h maxDistanceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistanceHeap) Push(x interface{}) { *h = append(*h, x.(distanceSlot)) }
func (h *maxDistanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
