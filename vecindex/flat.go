package vecindex

import (
	"sort"

	"github.com/poiesic/candidex/core"
)

// flatIndex is an exact inner-product index backed by a slot-addressed
// vector slice. Removal is supported in place, so tombstoned chunks never
// surface from search.
type flatIndex struct {
	vectors [][]float32 // slot -> vector; nil marks a removed slot
	live    int
}

func newFlatIndex() *flatIndex {
	return &flatIndex{}
}

func (f *flatIndex) Add(slot int, vec []float32) {
	for len(f.vectors) <= slot {
		f.vectors = append(f.vectors, nil)
	}
	if f.vectors[slot] == nil {
		f.live++
	}
	f.vectors[slot] = vec
}

// Remove drops the vector at slot from search. Unknown slots are ignored.
func (f *flatIndex) Remove(slot int) {
	if slot < 0 || slot >= len(f.vectors) || f.vectors[slot] == nil {
		return
	}
	f.vectors[slot] = nil
	f.live--
}

func (f *flatIndex) Search(query []float32, k int) []slotScore {
	if k <= 0 {
		return nil
	}

	scored := make([]slotScore, 0, f.live)
	for slot, vec := range f.vectors {
		if vec == nil {
			continue
		}
		scored = append(scored, slotScore{Slot: slot, Score: core.Dot(query, vec)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Slot < scored[j].Slot
		}
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func (f *flatIndex) Len() int {
	return f.live
}

func (f *flatIndex) Kind() string {
	return "flat"
}
