package types

import (
	"sync"
)

// SequenceMap holds a signing account's txn count to avoid account nonce mismatch errors
type SequenceMap struct {
	mu sync.Mutex
	// map domain -> signing account nonce
	sequenceMap map[Domain]uint64
}

func NewSequenceMap() *SequenceMap {
	return &SequenceMap{
		sequenceMap: map[Domain]uint64{},
	}
}

func (m *SequenceMap) Put(domain Domain, val uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequenceMap[domain] = val
}

// Has reports whether a nonce was ever recorded for domain.
func (m *SequenceMap) Has(domain Domain) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sequenceMap[domain]
	return ok
}

func (m *SequenceMap) Next(domain Domain) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := m.sequenceMap[domain]
	m.sequenceMap[domain]++
	return result
}
