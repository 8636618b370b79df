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

// Package dict implements the shared string dictionary backing
// dictionary-encoded columns. A Dictionary is immutable once built and is
// shared by reference: two columns using the same *Dictionary can compare
// indices directly, which the join engine detects by pointer identity.
package dict

import (
	"github.com/google/btree"
)

type Dictionary struct {
	values []string
}

// Len returns the number of distinct entries.
func (d *Dictionary) Len() int {
	return len(d.values)
}

// Get returns entry ix. The index must be in range.
func (d *Dictionary) Get(ix uint32) string {
	return d.values[ix]
}

// Values returns the backing slice. Callers must not mutate it.
func (d *Dictionary) Values() []string {
	return d.values
}

// Lookup resolves a literal to its index with a linear scan. There is at
// most one match because entries are distinct.
func (d *Dictionary) Lookup(s string) (uint32, bool) {
	for i, v := range d.values {
		if v == s {
			return uint32(i), true
		}
	}
	return 0, false
}

// foldASCII lowercases A-Z only; non-ASCII bytes pass through untouched so
// folding never changes the byte length.
func foldASCII(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if b == nil {
				b = []byte(s)
			}
			b[i] = c + 'a' - 'A'
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}

// LookupFold returns every index whose entry equals s under ASCII case
// folding.
func (d *Dictionary) LookupFold(s string) []uint32 {
	folded := foldASCII(s)
	var out []uint32
	for i, v := range d.values {
		if foldASCII(v) == folded {
			out = append(out, uint32(i))
		}
	}
	return out
}

// Min returns the lexicographically smallest entry, with ok=false for an
// empty dictionary. Entries are sorted, so this is the first one.
func (d *Dictionary) Min() (string, bool) {
	if len(d.values) == 0 {
		return "", false
	}
	return d.values[0], true
}

func (d *Dictionary) Max() (string, bool) {
	if len(d.values) == 0 {
		return "", false
	}
	return d.values[len(d.values)-1], true
}

type item string

func (a item) Less(b btree.Item) bool {
	return a < b.(item)
}

// Builder accumulates distinct strings and produces a Dictionary with its
// entries in sorted order, so equal input sets always build identical
// dictionaries.
type Builder struct {
	tree *btree.BTree
}

func NewBuilder() *Builder {
	return &Builder{tree: btree.New(8)}
}

func (b *Builder) Add(s string) {
	b.tree.ReplaceOrInsert(item(s))
}

func (b *Builder) Len() int {
	return b.tree.Len()
}

// Build freezes the accumulated entries into a Dictionary.
func (b *Builder) Build() *Dictionary {
	values := make([]string, 0, b.tree.Len())
	b.tree.Ascend(func(i btree.Item) bool {
		values = append(values, string(i.(item)))
		return true
	})
	return &Dictionary{values: values}
}

// FromValues builds a dictionary from raw values, deduplicating and sorting.
func FromValues(values []string) *Dictionary {
	b := NewBuilder()
	for _, v := range values {
		b.Add(v)
	}
	return b.Build()
}
