// Package strpool implements the interned byte-string pool backing every
// STRING value in the interpreter: equal byte contents always resolve to
// the same *Str, so value equality can be tested by pointer.
//
// This generalizes the teacher's symbols table (a flat []string plus a
// map[string]uint used only to back FIRST's dictionary names) into a
// refcounted pool, since the interpreter must be able to free a string the
// moment the last value/ident/bytecode reference to it goes away.
package strpool

import "sync"

// Str is an interned, refcounted byte string. The zero value is not valid;
// Strs are only produced by a Pool.
type Str struct {
	pool  *Pool
	bytes string
	refs  int32
}

// Bytes returns the string's content. The returned string shares storage
// with the pool and must not be mutated (Go strings are immutable anyway,
// so this is always safe).
func (s *Str) Bytes() string {
	if s == nil {
		return ""
	}
	return s.bytes
}

// Len returns the length of the string's content, not counting any
// trailing NUL the spec's C heritage implies but Go strings don't need.
func (s *Str) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bytes)
}

// Refs reports the current reference count, for tests.
func (s *Str) Refs() int32 {
	if s == nil {
		return 0
	}
	return s.refs
}

// Pool returns the pool that owns s, so holders of a bare *Str can ref,
// unref, or clone it without threading the pool through separately.
func (s *Str) Pool() *Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Pool interns byte strings with per-string reference counting.
type Pool struct {
	mu      sync.Mutex
	strings map[string]*Str
}

// NewPool constructs an empty string pool.
func NewPool() *Pool {
	return &Pool{strings: make(map[string]*Str)}
}

// Intern returns the pool's handle for bytes, allocating and inserting a
// fresh entry with refcount 1 if none exists yet, or incrementing the
// refcount of the existing entry.
func (p *Pool) Intern(bytes string) *Str {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.strings[bytes]; ok {
		s.refs++
		return s
	}
	s := &Str{pool: p, bytes: bytes, refs: 1}
	p.strings[bytes] = s
	return s
}

// Find looks up bytes without taking a reference; returns nil if the
// string is not currently interned.
func (p *Pool) Find(bytes string) *Str {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strings[bytes]
}

// Steal adopts a freshly built string as the pool's canonical handle for
// its content: if an equal string is already interned, the fresh one is
// discarded (refcount bumped on the existing handle) and that handle is
// returned; otherwise the fresh string content is inserted unchanged.
//
// Go strings have no separately-owned backing buffer to actually free, so
// Steal differs from the spec's C-level twin only in that there is no
// explicit free() call on the discarded path; the contract (one allocation
// per distinct content, by the time Steal returns) is identical.
func (p *Pool) Steal(bytes string) *Str {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.strings[bytes]; ok {
		s.refs++
		return s
	}
	s := &Str{pool: p, bytes: bytes, refs: 1}
	p.strings[bytes] = s
	return s
}

// Ref increments s's reference count and returns s, for chaining.
func (p *Pool) Ref(s *Str) *Str {
	if s == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s.refs++
	return s
}

// Unref decrements s's reference count, removing and freeing the entry
// once it reaches zero.
func (p *Pool) Unref(s *Str) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s.refs--
	if s.refs <= 0 {
		delete(p.strings, s.bytes)
	}
}

// Len reports how many distinct strings are currently interned, for tests.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strings)
}
