// Package blackboard implements the shared artifact store an agent execution
// reads and writes. Each run owns one Blackboard; tools and the loop engine
// publish typed artifacts to it and consult the most recent artifact of each
// type when computing readiness and dynamic tool bindings.
package blackboard

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Entry is one recorded artifact with its publication order.
type Entry struct {
	Value     any
	Type      reflect.Type
	Timestamp time.Time
	Sequence  int
}

// Blackboard is a mutex-guarded ordered artifact log with a per-type latest
// index. Later artifacts of the same type shadow earlier ones for binding
// purposes; the log keeps every entry.
type Blackboard struct {
	mu      sync.RWMutex
	entries []Entry
	latest  map[reflect.Type]int // index into entries
	seq     int
}

// New creates an empty Blackboard.
func New() *Blackboard {
	return &Blackboard{
		latest: make(map[reflect.Type]int),
	}
}

// Add publishes an artifact. Nil values are ignored.
func (b *Blackboard) Add(artifact any) {
	if artifact == nil {
		return
	}
	t := reflect.TypeOf(artifact)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.entries = append(b.entries, Entry{
		Value:     artifact,
		Type:      t,
		Timestamp: time.Now(),
		Sequence:  b.seq,
	})
	b.latest[t] = len(b.entries) - 1
}

// Latest returns the most recently added artifact of the given type, or nil.
func (b *Blackboard) Latest(t reflect.Type) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx, ok := b.latest[t]
	if !ok {
		return nil
	}
	return b.entries[idx].Value
}

// Has reports whether at least one artifact of the given type is present.
func (b *Blackboard) Has(t reflect.Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.latest[t]
	return ok
}

// All returns a copy of the full artifact log in publication order.
func (b *Blackboard) All() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Types returns every artifact type currently present.
func (b *Blackboard) Types() []reflect.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]reflect.Type, 0, len(b.latest))
	for t := range b.latest {
		out = append(out, t)
	}
	return out
}

// Len returns the number of logged entries.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Blackboard) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fmt.Sprintf("blackboard(%d entries, %d types)", len(b.entries), len(b.latest))
}

// LatestOf returns the most recent artifact of type T, with presence flag.
func LatestOf[T any](b *Blackboard) (T, bool) {
	var zero T
	v := b.Latest(reflect.TypeOf(zero))
	if v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// HasType reports whether an artifact of type T is present.
func HasType[T any](b *Blackboard) bool {
	var zero T
	return b.Has(reflect.TypeOf(zero))
}

// TypeOf is a convenience for registering bindings by example value.
func TypeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}
