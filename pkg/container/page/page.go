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

// Package page implements the physical column page encodings and the scalar
// cursor decoding them. The set of page kinds is closed: FloatPage,
// BoolPage, IntPage and DictPage. Code dispatching over pages type-switches
// over exactly those four and treats anything else as an internal error.
package page

import (
	"github.com/wilson-anysphere/tabular/pkg/container/nulls"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Page is one encoded chunk of a column. All pages are immutable after
// construction; concurrent readers share them freely.
type Page interface {
	Rows() int
	Nulls() *nulls.Nulls
	isPage()
}

type pageBase struct {
	rows int
	nsp  *nulls.Nulls
}

func (p *pageBase) Rows() int {
	return p.rows
}

func (p *pageBase) Nulls() *nulls.Nulls {
	return p.nsp
}

func (p *pageBase) isPage() {}

// FloatPage stores Number values as a raw float array, optionally held as an
// lz4-compressed block.
type FloatPage struct {
	pageBase
	values     []float64
	compressed []byte
}

// NewFloatPage builds an uncompressed float page. The values slice is owned
// by the page afterwards.
func NewFloatPage(values []float64, nsp *nulls.Nulls) *FloatPage {
	return &FloatPage{
		pageBase: pageBase{rows: len(values), nsp: nsp},
		values:   values,
	}
}

// NewCompressedFloatPage builds a float page holding its payload as an lz4
// block. Falls back to raw storage when the block does not shrink.
func NewCompressedFloatPage(values []float64, nsp *nulls.Nulls) *FloatPage {
	blob, ok := compressFloats(values)
	p := &FloatPage{pageBase: pageBase{rows: len(values), nsp: nsp}}
	if ok {
		p.compressed = blob
	} else {
		p.values = values
	}
	return p
}

// Compressed reports whether the payload is stored lz4-compressed.
func (p *FloatPage) Compressed() bool {
	return p.compressed != nil
}

// Values returns the decoded float payload. For a compressed page the
// payload is decompressed into scratch (grown as needed); the page itself is
// never mutated, so concurrent readers stay safe.
func (p *FloatPage) Values(scratch []float64) []float64 {
	if p.compressed == nil {
		return p.values
	}
	return decompressFloats(p.compressed, p.rows, scratch)
}

// BoolPage stores Boolean values bit-packed LSB-first, byte aligned.
type BoolPage struct {
	pageBase
	bits []byte
}

func NewBoolPage(values []bool, nsp *nulls.Nulls) *BoolPage {
	bits := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			bits[i>>3] |= 1 << (i & 7)
		}
	}
	return &BoolPage{
		pageBase: pageBase{rows: len(values), nsp: nsp},
		bits:     bits,
	}
}

// Bits exposes the packed payload for byte-at-a-time scanning. Callers must
// not mutate it. Trailing bits of the last byte are zero.
func (p *BoolPage) Bits() []byte {
	return p.bits
}

func (p *BoolPage) Get(i int) bool {
	return p.bits[i>>3]&(1<<(i&7)) != 0
}

// IntPage stores integer-like values (DateTime, Currency, Percentage) as a
// page minimum plus a non-negative offset per row, the offsets either
// bit-packed or run-length-encoded. Offsets of null rows are zero.
type IntPage struct {
	pageBase
	min    int64
	packed *PackedUints
	rle    *RLEUints
}

func intOffsets(values []int64, nsp *nulls.Nulls) (int64, []uint64) {
	var min int64
	first := true
	for i, v := range values {
		if nulls.Contains(nsp, uint64(i)) {
			continue
		}
		if first || v < min {
			min = v
			first = false
		}
	}
	if first {
		min = 0
	}
	offsets := make([]uint64, len(values))
	for i, v := range values {
		if nulls.Contains(nsp, uint64(i)) {
			continue
		}
		offsets[i] = uint64(v - min)
	}
	return min, offsets
}

func NewIntPagePacked(values []int64, nsp *nulls.Nulls) *IntPage {
	min, offsets := intOffsets(values, nsp)
	return &IntPage{
		pageBase: pageBase{rows: len(values), nsp: nsp},
		min:      min,
		packed:   PackUints(offsets),
	}
}

func NewIntPageRLE(values []int64, nsp *nulls.Nulls) *IntPage {
	min, offsets := intOffsets(values, nsp)
	return &IntPage{
		pageBase: pageBase{rows: len(values), nsp: nsp},
		min:      min,
		rle:      RLEFromValues(offsets),
	}
}

func (p *IntPage) Min() int64 {
	return p.min
}

// Get returns the decoded value of row i; undefined for null rows.
func (p *IntPage) Get(i int) int64 {
	if p.packed != nil {
		return p.min + int64(p.packed.Get(i))
	}
	return p.min + int64(p.rle.Get(i))
}

// DictPage stores dictionary indices, bit-packed or run-length-encoded.
type DictPage struct {
	pageBase
	packed *PackedUints
	rle    *RLEUints
}

func NewDictPagePacked(indices []uint32, nsp *nulls.Nulls) *DictPage {
	vals := make([]uint64, len(indices))
	for i, ix := range indices {
		vals[i] = uint64(ix)
	}
	return &DictPage{
		pageBase: pageBase{rows: len(indices), nsp: nsp},
		packed:   PackUints(vals),
	}
}

func NewDictPageRLE(indices []uint32, nsp *nulls.Nulls) *DictPage {
	vals := make([]uint64, len(indices))
	for i, ix := range indices {
		vals[i] = uint64(ix)
	}
	return &DictPage{
		pageBase: pageBase{rows: len(indices), nsp: nsp},
		rle:      RLEFromValues(vals),
	}
}

// IsRLE reports whether the index sequence is run-length-encoded.
func (p *DictPage) IsRLE() bool {
	return p.rle != nil
}

// RLE returns the run-length payload, nil for packed pages.
func (p *DictPage) RLE() *RLEUints {
	return p.rle
}

// Get returns the dictionary index of row i; undefined for null rows.
func (p *DictPage) Get(i int) uint32 {
	if p.packed != nil {
		return uint32(p.packed.Get(i))
	}
	return uint32(p.rle.Get(i))
}

// Decode returns the scalar at row in p, using scratch to hold decompressed
// float payloads. Null rows decode to the Null scalar for every page kind.
func Decode(p Page, row int, scratch []float64) types.Scalar {
	if nulls.Contains(p.Nulls(), uint64(row)) {
		return types.Null()
	}
	switch pg := p.(type) {
	case *FloatPage:
		return types.NewFloat64(pg.Values(scratch)[row])
	case *BoolPage:
		return types.NewBool(pg.Get(row))
	case *IntPage:
		return types.NewInt64(pg.Get(row))
	case *DictPage:
		return types.NewDictIndex(pg.Get(row))
	}
	return types.Null()
}
