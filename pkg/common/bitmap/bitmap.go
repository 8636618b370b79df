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

package bitmap

import (
	"fmt"
	"math/bits"
)

// Bitmap is a fixed-length dense bit vector used as a row mask.
// Bits beyond len in the last word are always kept zero; every
// mutating method below preserves that invariant.
type Bitmap struct {
	len  int64
	data []uint64
}

// New returns an all-zero bitmap of n bits.
func New(n int64) *Bitmap {
	return &Bitmap{
		len:  n,
		data: make([]uint64, (n+63)/64),
	}
}

// NewFull returns an all-one bitmap of n bits.
func NewFull(n int64) *Bitmap {
	m := New(n)
	m.AddRange(0, uint64(n))
	return m
}

// FromRows returns an n-bit bitmap with exactly the given rows set.
// Rows outside [0, n) are ignored.
func FromRows(n int64, rows []int64) *Bitmap {
	m := New(n)
	for _, row := range rows {
		if row >= 0 && row < n {
			m.Add(uint64(row))
		}
	}
	return m
}

func (n *Bitmap) Clone() *Bitmap {
	if n == nil {
		return nil
	}
	return &Bitmap{
		len:  n.len,
		data: append([]uint64(nil), n.data...),
	}
}

// Len returns the number of bits in the Bitmap.
func (n *Bitmap) Len() int64 {
	return n.len
}

// Add sets bit row. The row must be in range.
func (n *Bitmap) Add(row uint64) {
	n.data[row>>6] |= 1 << (row & 0x3F)
}

func (n *Bitmap) Remove(row uint64) {
	if row >= uint64(n.len) {
		return
	}
	n.data[row>>6] &^= 1 << (row & 0x3F)
}

// Contains returns true if bit row is set.
func (n *Bitmap) Contains(row uint64) bool {
	if row >= uint64(n.len) {
		return false
	}
	return n.data[row>>6]&(1<<(row&0x3F)) != 0
}

func (n *Bitmap) AddRange(start, end uint64) {
	if end > uint64(n.len) {
		end = uint64(n.len)
	}
	if start >= end {
		return
	}
	i, j := start>>6, (end-1)>>6
	lo := ^uint64(0) << (start & 0x3F)
	hi := ^uint64(0) >> ((64 - (end & 0x3F)) & 0x3F)
	if i == j {
		n.data[i] |= lo & hi
		return
	}
	n.data[i] |= lo
	for k := i + 1; k < j; k++ {
		n.data[k] = ^uint64(0)
	}
	n.data[j] |= hi
}

// And replaces n with n AND m. The two bitmaps must have equal length.
func (n *Bitmap) And(m *Bitmap) {
	for i := range n.data {
		n.data[i] &= m.data[i]
	}
}

// Or replaces n with n OR m. The two bitmaps must have equal length.
func (n *Bitmap) Or(m *Bitmap) {
	for i := range n.data {
		n.data[i] |= m.data[i]
	}
}

// AndNot clears in n every bit set in m.
func (n *Bitmap) AndNot(m *Bitmap) {
	for i := range n.data {
		n.data[i] &^= m.data[i]
	}
}

// Negate flips every bit, keeping the trailing bits of the last word zero.
func (n *Bitmap) Negate() {
	nBlock, nTail := int(n.len)/64, int(n.len)%64
	for i := 0; i < nBlock; i++ {
		n.data[i] = ^n.data[i]
	}
	if nTail > 0 {
		n.data[nBlock] ^= (uint64(1) << nTail) - 1
	}
}

// IsEmpty returns true if no bit is set.
func (n *Bitmap) IsEmpty() bool {
	for _, w := range n.data {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsFull returns true if every one of the len bits is set.
func (n *Bitmap) IsFull() bool {
	if n.len == 0 {
		return true
	}
	nBlock, nTail := int(n.len)/64, int(n.len)%64
	for i := 0; i < nBlock; i++ {
		if n.data[i] != ^uint64(0) {
			return false
		}
	}
	if nTail > 0 {
		return n.data[nBlock] == (uint64(1)<<nTail)-1
	}
	return true
}

// Count returns the number of set bits.
func (n *Bitmap) Count() int {
	var cnt int
	for _, w := range n.data {
		cnt += bits.OnesCount64(w)
	}
	return cnt
}

func (n *Bitmap) IsSame(m *Bitmap) bool {
	if n.len != m.len {
		return false
	}
	for i := range n.data {
		if n.data[i] != m.data[i] {
			return false
		}
	}
	return true
}

// ToI64Array materializes the set bits as ascending row indices.
func (n *Bitmap) ToI64Array() []int64 {
	rows := make([]int64, 0, n.Count())
	itr := n.Iterator()
	for itr.HasNext() {
		rows = append(rows, int64(itr.Next()))
	}
	return rows
}

func (n *Bitmap) String() string {
	return fmt.Sprintf("%v", n.ToI64Array())
}

// Iterator walks set bits in ascending order, skipping zero words whole.
type Iterator struct {
	bm   *Bitmap
	word uint64
	base uint64
	next int
}

func (n *Bitmap) Iterator() *Iterator {
	itr := &Iterator{bm: n, next: 0}
	if len(n.data) > 0 {
		itr.word = n.data[0]
	}
	itr.advance()
	return itr
}

func (itr *Iterator) advance() {
	for itr.word == 0 {
		itr.next++
		if itr.next >= len(itr.bm.data) {
			return
		}
		itr.word = itr.bm.data[itr.next]
		itr.base = uint64(itr.next) * 64
	}
}

func (itr *Iterator) HasNext() bool {
	return itr.word != 0
}

// Next returns the next set bit position. Call only after HasNext.
func (itr *Iterator) Next() uint64 {
	pos := itr.base + uint64(bits.TrailingZeros64(itr.word))
	itr.word &= itr.word - 1
	itr.advance()
	return pos
}
