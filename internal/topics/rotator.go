package topics

import "math/rand/v2"

// Rotator serves catalog items by cursor, wrapping around forever.
// The order is permuted once at construction and never changes afterwards,
// so two rotators built from the same items and seed agree on every cursor.
type Rotator struct {
	items []Item
	seed  uint64
}

// NewRotator copies items and shuffles the copy with a PCG source seeded
// from seed. It panics if items is empty.
func NewRotator(items []Item, seed uint64) *Rotator {
	if len(items) == 0 {
		panic("topics: rotator needs at least one item")
	}

	shuffled := make([]Item, len(items))
	copy(shuffled, items)

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return &Rotator{items: shuffled, seed: seed}
}

// NewSeed returns a random seed for a fresh run.
func NewSeed() uint64 {
	return rand.Uint64()
}

// Next returns the item at cursor modulo the catalog length.
func (r *Rotator) Next(cursor int) Item {
	n := len(r.items)
	i := cursor % n
	if i < 0 {
		i += n
	}
	return r.items[i]
}

// Len returns the number of items in one rotation.
func (r *Rotator) Len() int {
	return len(r.items)
}

// Seed returns the seed the order was derived from.
func (r *Rotator) Seed() uint64 {
	return r.seed
}

// Items returns a copy of the shuffled order.
func (r *Rotator) Items() []Item {
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}
