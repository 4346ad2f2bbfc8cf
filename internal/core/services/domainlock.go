package services

import (
	"sort"
	"sync"
)

// DomainLocks serializes reconciliation per domain name. The filesystem and
// certificate side effects are not atomic with the store commit, so two
// mutations racing on one domain would interleave them arbitrarily.
// Locks are created on demand and kept; the set of managed domains is small.
type DomainLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDomainLocks() *DomainLocks {
	return &DomainLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *DomainLocks) get(name string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.locks[name]
	if !ok {
		m = &sync.Mutex{}
		d.locks[name] = m
	}
	return m
}

// Lock acquires the locks for the given domains in sorted order, so a
// rename locking both names can never deadlock against another rename.
// Duplicates are acquired once. The returned function releases them.
func (d *DomainLocks) Lock(domains ...string) func() {
	names := make([]string, 0, len(domains))
	seen := make(map[string]bool, len(domains))
	for _, n := range domains {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)

	held := make([]*sync.Mutex, 0, len(names))
	for _, n := range names {
		m := d.get(n)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
