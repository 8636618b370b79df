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

package page

import (
	"encoding/binary"
	"math/bits"
)

// PackedUints stores n unsigned values at a fixed bit width. The data slice
// carries 8 bytes of zero padding past the last packed bit so Get can always
// issue two aligned 8-byte loads.
type PackedUints struct {
	width uint8
	n     int
	data  []byte
}

// widthFor returns the number of bits needed to store max.
func widthFor(max uint64) uint8 {
	if max == 0 {
		return 1
	}
	return uint8(bits.Len64(max))
}

// PackUints bit-packs values at the minimum width that fits their maximum.
func PackUints(values []uint64) *PackedUints {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	width := widthFor(max)
	nbits := len(values) * int(width)
	data := make([]byte, (nbits+7)/8+8)
	for i, v := range values {
		bitPos := i * int(width)
		b, shift := bitPos>>3, uint(bitPos&7)
		cur := binary.LittleEndian.Uint64(data[b:])
		cur |= v << shift
		binary.LittleEndian.PutUint64(data[b:], cur)
		if shift+uint(width) > 64 {
			hi := v >> (64 - shift)
			cur = binary.LittleEndian.Uint64(data[b+8:])
			binary.LittleEndian.PutUint64(data[b+8:], cur|hi)
		}
	}
	return &PackedUints{width: width, n: len(values), data: data}
}

func (p *PackedUints) Len() int {
	return p.n
}

func (p *PackedUints) Width() uint8 {
	return p.width
}

// Get returns value i. The index must be in range.
func (p *PackedUints) Get(i int) uint64 {
	bitPos := i * int(p.width)
	b, shift := bitPos>>3, uint(bitPos&7)
	v := binary.LittleEndian.Uint64(p.data[b:]) >> shift
	if shift+uint(p.width) > 64 {
		v |= binary.LittleEndian.Uint64(p.data[b+8:]) << (64 - shift)
	}
	if p.width == 64 {
		return v
	}
	return v & ((uint64(1) << p.width) - 1)
}
