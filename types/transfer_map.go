package types

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// TransferMap wraps go-cache with type safety
// maps burn tx hash (or transfer id before a burn exists) -> Transfer
type TransferMap struct {
	Mu       sync.Mutex
	internal *cache.Cache
}

// NewTransferMap returns a map whose entries expire after ttl. A non-positive ttl keeps entries forever.
func NewTransferMap(ttl time.Duration) *TransferMap {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &TransferMap{
		internal: cache.New(ttl, 10*time.Minute),
	}
}

// Load loads the transfer tied to a specific key
func (tm *TransferMap) Load(key string) (value *Transfer, ok bool) {
	tm.Mu.Lock()
	defer tm.Mu.Unlock()

	internalResult, ok := tm.internal.Get(key)
	if !ok {
		return nil, ok
	}
	return internalResult.(*Transfer), ok
}

func (tm *TransferMap) Delete(key string) {
	tm.Mu.Lock()
	defer tm.Mu.Unlock()

	tm.internal.Delete(key)
}

// Store stores the transfer under key with the default expiration
func (tm *TransferMap) Store(key string, value *Transfer) {
	tm.Mu.Lock()
	defer tm.Mu.Unlock()

	tm.internal.SetDefault(key, value)
}

// Pending returns the transfers that burned funds without a confirmed mint.
func (tm *TransferMap) Pending() []*Transfer {
	tm.Mu.Lock()
	defer tm.Mu.Unlock()

	seen := make(map[string]bool)
	var out []*Transfer
	for _, item := range tm.internal.Items() {
		t := item.Object.(*Transfer)
		if seen[t.ID] || t.BurnTxHash == "" || t.Status == StatusMintConfirmed {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
