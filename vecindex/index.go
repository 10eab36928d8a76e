package vecindex

import "github.com/poiesic/candidex/core"

// slotScore pairs a side-table slot with its similarity to a query.
type slotScore struct {
	Slot  int
	Score float32
}

// index is the contract shared by the flat and HNSW structures. Slots are
// assigned by the Manager; an index never reuses or reorders them.
type index interface {
	// Add registers a vector under the given slot.
	Add(slot int, vec []float32)

	// Search returns up to k slots by descending similarity to query.
	Search(query []float32, k int) []slotScore

	// Len returns the number of searchable vectors.
	Len() int

	// Kind names the index structure ("flat" or "hnsw").
	Kind() string
}

// distance converts an inner product on unit vectors into a distance.
func distance(a, b []float32) float32 {
	return 1 - core.Dot(a, b)
}
