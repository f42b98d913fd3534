package app

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"reviewsync/internal/domain"
)

// DedupOracle answers "which review ids are already stored" for a business.
// Each business hits the store at most once per run; the answer is cached
// for the oracle's lifetime, so build a fresh oracle for every run.
type DedupOracle struct {
	store domain.Store
	force bool

	mu    sync.Mutex
	known map[domain.BusinessID]map[int64]struct{}
	sf    singleflight.Group
}

// NewDedupOracle returns an oracle backed by store. A nil store (file exports)
// or force == true makes every lookup return the empty set.
func NewDedupOracle(store domain.Store, force bool) *DedupOracle {
	return &DedupOracle{
		store: store,
		force: force,
		known: make(map[domain.BusinessID]map[int64]struct{}),
	}
}

// KnownIDs returns the stored review ids for b. Callers must treat the set as read-only.
func (o *DedupOracle) KnownIDs(ctx context.Context, b domain.BusinessID) (map[int64]struct{}, error) {
	if o.force || o.store == nil {
		return map[int64]struct{}{}, nil
	}

	o.mu.Lock()
	ids, ok := o.known[b]
	o.mu.Unlock()
	if ok {
		return ids, nil
	}

	v, err, _ := o.sf.Do(string(b), func() (any, error) {
		o.mu.Lock()
		ids, ok := o.known[b]
		o.mu.Unlock()
		if ok {
			return ids, nil
		}
		ids, err := o.store.KnownReviewIDs(ctx, b)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = map[int64]struct{}{}
		}
		o.mu.Lock()
		o.known[b] = ids
		o.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]struct{}), nil
}
