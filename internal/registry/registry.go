// Package registry tracks the identifiers of child processes that are
// believed to be running and are subject to termination.
//
// Membership is best effort: an identifier stays in the set after its
// process exits until it is removed, pruned, or cleared by a termination
// sweep. The OS may reuse an identifier once its process is gone.
package registry

import (
	"slices"
	"strconv"
	"sync"
)

// PID is an OS process identifier.
type PID uint32

// String returns the decimal form of the identifier.
func (p PID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePID parses a decimal process identifier.
func ParsePID(s string) (PID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return PID(n), nil
}

// Registry is a set of process identifiers safe for concurrent use.
// Every operation holds the lock only for the set mutation itself.
type Registry struct {
	mu sync.Mutex
	// +checklocks:mu
	pids map[PID]struct{}
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		pids: make(map[PID]struct{}),
	}
}

// Insert adds pid to the set. Inserting a present pid is a no-op.
func (r *Registry) Insert(pid PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[pid] = struct{}{}
}

// Remove deletes pid from the set. Removing an absent pid is a no-op.
func (r *Registry) Remove(pid PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pids, pid)
}

// Contains reports whether pid is tracked.
func (r *Registry) Contains(pid PID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pids[pid]
	return ok
}

// Len returns the number of tracked identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pids)
}

// Snapshot returns a sorted point-in-time copy of the set.
// Later mutations do not affect the returned slice.
func (r *Registry) Snapshot() []PID {
	r.mu.Lock()
	out := make([]PID, 0, len(r.pids))
	for pid := range r.pids {
		out = append(out, pid)
	}
	r.mu.Unlock()

	slices.Sort(out)
	return out
}

// Clear empties the set.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.pids)
}

// Prune removes every tracked pid for which exited reports true and returns
// the removed identifiers in ascending order. exited is called without the
// lock held, so it may block or call back into the registry.
func (r *Registry) Prune(exited func(PID) bool) []PID {
	var removed []PID
	for _, pid := range r.Snapshot() {
		if !exited(pid) {
			continue
		}
		r.Remove(pid)
		removed = append(removed, pid)
	}
	return removed
}
