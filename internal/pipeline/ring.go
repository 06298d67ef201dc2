package pipeline

import (
	"sync"

	"github.com/solscope/sandwichd/pkg/types"
)

// recentRing keeps the last N opportunities for the status API.
type recentRing struct {
	mu    sync.RWMutex
	items []*types.Opportunity
	next  int
	full  bool
}

func newRecentRing(size int) *recentRing {
	return &recentRing{items: make([]*types.Opportunity, size)}
}

func (r *recentRing) add(opp *types.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = opp
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// snapshot returns the buffered opportunities, newest first.
func (r *recentRing) snapshot() []*types.Opportunity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.items)
	}

	out := make([]*types.Opportunity, 0, count)
	for i := 0; i < count; i++ {
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.items)
		}
		out = append(out, r.items[idx])
	}
	return out
}
