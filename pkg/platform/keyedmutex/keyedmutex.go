// Package keyedmutex provides striped per-key mutual exclusion.
//
// It hashes keys onto a fixed, power-of-two set of mutexes so that holders
// of unrelated keys almost never contend, without growing state per key.
// Two keys hashing to the same stripe serialize against each other; for the
// stripe counts used here that collision cost is negligible next to the
// store I/O performed under the lock.
package keyedmutex

import (
	"hash/maphash"
	"sync"
)

// DefaultStripes is the default number of lock stripes.
const DefaultStripes = 64

// Mutex is a set of striped locks addressed by string key.
type Mutex struct {
	stripes []sync.Mutex
	mask    uint64
	seed    maphash.Seed
}

// New creates a keyed mutex with the default stripe count.
func New() *Mutex {
	return NewWithStripes(DefaultStripes)
}

// NewWithStripes creates a keyed mutex with the given stripe count.
// stripeCount must be a power of 2; anything else falls back to the default.
func NewWithStripes(stripeCount int) *Mutex {
	if stripeCount <= 0 || stripeCount&(stripeCount-1) != 0 {
		stripeCount = DefaultStripes
	}
	return &Mutex{
		stripes: make([]sync.Mutex, stripeCount),
		mask:    uint64(stripeCount - 1),
		seed:    maphash.MakeSeed(),
	}
}

// Lock acquires the stripe for key.
func (m *Mutex) Lock(key string) {
	m.stripe(key).Lock()
}

// Unlock releases the stripe for key.
func (m *Mutex) Unlock(key string) {
	m.stripe(key).Unlock()
}

func (m *Mutex) stripe(key string) *sync.Mutex {
	idx := maphash.String(m.seed, key) & m.mask
	return &m.stripes[idx]
}
