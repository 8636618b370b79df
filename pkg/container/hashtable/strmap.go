// Copyright 2024 The Tabular Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashtable

import "bytes"

// StrHashMap maps variable-length key bytes to dense ids assigned in
// first-insertion order, the property the group-by engine relies on for its
// insertion-ordered output. Open addressing with linear probing; key bytes
// live in one arena so collisions verify against contiguous memory.
type StrHashMap struct {
	bucketMask uint64
	// ids holds group id + 1 per bucket; 0 marks an empty bucket.
	ids    []uint64
	hashes []uint64

	arena []byte
	spans []span
	count uint64
}

type span struct {
	off, len uint32
}

const defaultBuckets = 128

// NewStrHashMap returns a map pre-sized for capacityHint distinct keys.
// A hint of 0 uses the default size; the hint is performance-only.
func NewStrHashMap(capacityHint uint64) *StrHashMap {
	n := uint64(defaultBuckets)
	for n < capacityHint*2 {
		n <<= 1
	}
	return &StrHashMap{
		bucketMask: n - 1,
		ids:        make([]uint64, n),
		hashes:     make([]uint64, n),
	}
}

// Count returns the number of distinct keys inserted.
func (m *StrHashMap) Count() uint64 {
	return m.count
}

func (m *StrHashMap) key(id uint64) []byte {
	sp := m.spans[id]
	return m.arena[sp.off : sp.off+sp.len]
}

// Insert returns the dense id for key, allocating the next id when the key
// is new.
func (m *StrHashMap) Insert(key []byte) (id uint64, isNew bool) {
	if m.count*4 >= uint64(len(m.ids))*3 {
		m.grow()
	}
	h := Hash(key)
	slot := h & m.bucketMask
	for {
		stored := m.ids[slot]
		if stored == 0 {
			id = m.count
			m.count++
			m.ids[slot] = id + 1
			m.hashes[slot] = h
			off := uint32(len(m.arena))
			m.arena = append(m.arena, key...)
			m.spans = append(m.spans, span{off: off, len: uint32(len(key))})
			return id, true
		}
		if m.hashes[slot] == h && bytes.Equal(m.key(stored-1), key) {
			return stored - 1, false
		}
		slot = (slot + 1) & m.bucketMask
	}
}

// Find returns the id for key without inserting.
func (m *StrHashMap) Find(key []byte) (id uint64, ok bool) {
	h := Hash(key)
	slot := h & m.bucketMask
	for {
		stored := m.ids[slot]
		if stored == 0 {
			return 0, false
		}
		if m.hashes[slot] == h && bytes.Equal(m.key(stored-1), key) {
			return stored - 1, true
		}
		slot = (slot + 1) & m.bucketMask
	}
}

func (m *StrHashMap) grow() {
	newMask := uint64(len(m.ids))*2 - 1
	ids := make([]uint64, newMask+1)
	hashes := make([]uint64, newMask+1)
	for slot, stored := range m.ids {
		if stored == 0 {
			continue
		}
		h := m.hashes[slot]
		ns := h & newMask
		for ids[ns] != 0 {
			ns = (ns + 1) & newMask
		}
		ids[ns] = stored
		hashes[ns] = h
	}
	m.ids = ids
	m.hashes = hashes
	m.bucketMask = newMask
}
