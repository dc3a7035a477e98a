package entities

import (
	"errors"
	"sync"
)

// MatchCollection holds groups in discovery order.
// It is safe to read while another goroutine appends.
type MatchCollection struct {
	mu     sync.RWMutex
	groups []*MatchGroup
}

// NewMatchCollection creates an empty collection
func NewMatchCollection() *MatchCollection {
	return &MatchCollection{groups: make([]*MatchGroup, 0)}
}

// Add appends a group; nil and empty groups are ignored
func (mc *MatchCollection) Add(group *MatchGroup) {
	if group == nil || len(group.Members) == 0 {
		return
	}
	mc.mu.Lock()
	mc.groups = append(mc.groups, group)
	mc.mu.Unlock()
}

// Groups returns a snapshot of the group list
func (mc *MatchCollection) Groups() []*MatchGroup {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make([]*MatchGroup, len(mc.groups))
	copy(out, mc.groups)
	return out
}

// Len returns the number of groups
func (mc *MatchCollection) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.groups)
}

// FileCount returns the number of member paths across all groups
func (mc *MatchCollection) FileCount() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	n := 0
	for _, g := range mc.groups {
		n += len(g.Members)
	}
	return n
}

// DuplicatesSize sums DuplicatesSize over all groups
func (mc *MatchCollection) DuplicatesSize() int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	var total int64
	for _, g := range mc.groups {
		total += g.DuplicatesSize()
	}
	return total
}

// TotalSize sums TotalSize over all groups
func (mc *MatchCollection) TotalSize() int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	var total int64
	for _, g := range mc.groups {
		total += g.TotalSize()
	}
	return total
}

// SortMatches sorts the members of every group
func (mc *MatchCollection) SortMatches(order MatchOrdering) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, g := range mc.groups {
		g.SortMembers(order)
	}
}

// DeleteMatches sorts each group, drains all but one member and hands every
// drained path to del. The returned byte count is the duplicates size of the
// collection before draining, whether or not del succeeded.
//
// Per-path failures belong to del and do not stop the batch. An error
// wrapping ErrStopDeletion does: the path it was given and every later one
// are put back into their groups.
func (mc *MatchCollection) DeleteMatches(order MatchOrdering, del func(path string) error) int64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var total int64
	for _, g := range mc.groups {
		total += g.DuplicatesSize()
	}

	for _, g := range mc.groups {
		g.SortMembers(order)
		removals := g.RemoveAllButOne()
		for i, path := range removals {
			if err := del(path); errors.Is(err, ErrStopDeletion) {
				g.Members = append(removals[i:], g.Members...)
				return total
			}
		}
	}
	return total
}
