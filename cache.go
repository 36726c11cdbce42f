// seehuhn.de/go/pdfobj - a library for manipulating PDF object graphs
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdfobj

import "sync"

// lruCache keeps the decoded data of recently used streams.
//
// An entry is only valid while the stream still holds the same payload
// and filter chain as when the entry was stored.  Since payloads are
// never modified in place, comparing the payload pointer is enough to
// detect replaced data.
type lruCache struct {
	mu          sync.Mutex
	capacity    int
	entries     map[Reference]*cacheEntry
	first, last *cacheEntry
}

type cacheEntry struct {
	prev, next *cacheEntry
	key        Reference

	stream *stream
	raw    *payload
	chain  string
	data   []byte
}

// newCache creates a new LRU cache with the given capacity.
func newCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		entries:  make(map[Reference]*cacheEntry, max(capacity, 0)),
	}
}

// Put stores decoded data.
func (l *lruCache) Put(key Reference, s *stream, raw *payload, chain string, data []byte) {
	if l.capacity <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[key]; ok {
		ent.stream, ent.raw, ent.chain, ent.data = s, raw, chain, data
		l.moveToFront(ent)
		return
	}

	ent := &cacheEntry{
		key:    key,
		stream: s,
		raw:    raw,
		chain:  chain,
		data:   data,
	}
	l.entries[key] = ent
	l.moveToFront(ent)

	if len(l.entries) > l.capacity {
		l.removeLast()
	}
}

// Get returns the decoded data for key and marks the entry as recently
// used.  Entries for a different stream, payload or filter chain are
// discarded.
func (l *lruCache) Get(key Reference, s *stream, raw *payload, chain string) ([]byte, bool) {
	if l.capacity <= 0 {
		return nil, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	if ent.stream != s || ent.raw != raw || ent.chain != chain {
		l.remove(ent)
		return nil, false
	}

	l.moveToFront(ent)
	return ent.data, true
}

// Len returns the number of entries in the cache.
func (l *lruCache) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *lruCache) moveToFront(ent *cacheEntry) {
	if ent == l.first {
		return
	}

	l.unlink(ent)
	ent.next = l.first
	if l.first != nil {
		l.first.prev = ent
	}
	l.first = ent
	if l.last == nil {
		l.last = ent
	}
}

func (l *lruCache) unlink(ent *cacheEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == l.first {
		l.first = ent.next
	}
	if ent == l.last {
		l.last = ent.prev
	}
	ent.prev = nil
	ent.next = nil
}

func (l *lruCache) remove(ent *cacheEntry) {
	l.unlink(ent)
	delete(l.entries, ent.key)
}

func (l *lruCache) removeLast() {
	if l.last != nil {
		l.remove(l.last)
	}
}
