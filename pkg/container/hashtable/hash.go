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

// Package hashtable provides the mixing hash and hash-map primitives used by
// the group-by and join engines. Hashes operate on canonicalized key bytes
// and are seeded per process; they must never be persisted.
package hashtable

import (
	"encoding/binary"
	"math/bits"
	"math/rand"
)

// Seed randomizes hash values across processes. Tests stub it for
// reproducible bucket layouts.
var Seed = rand.Uint64()

const (
	m1 = 0xa0761d6478bd642f
	m2 = 0xe7037ed1a0b428db
	m3 = 0x8ebc6af09c88c6e3
	m4 = 0x589965cc75374cc3
	m5 = 0x1d8e4e27c47d124f
)

func mix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

func r4(b []byte, p int) uint64 {
	return uint64(binary.LittleEndian.Uint32(b[p:]))
}

func r8(b []byte, p int) uint64 {
	return binary.LittleEndian.Uint64(b[p:])
}

// Hash mixes data with the process seed, wyhash style.
func Hash(data []byte) uint64 {
	seed := Seed ^ m1
	s := len(data)
	var a, b uint64
	switch {
	case s == 0:
		return seed
	case s < 4:
		a = uint64(data[0])
		a |= uint64(data[s>>1]) << 8
		a |= uint64(data[s-1]) << 16
	case s == 4:
		a = r4(data, 0)
		b = a
	case s < 8:
		a = r4(data, 0)
		b = r4(data, s-4)
	case s == 8:
		a = r8(data, 0)
		b = a
	case s <= 16:
		a = r8(data, 0)
		b = r8(data, s-8)
	default:
		l := s
		p := 0
		if l > 48 {
			seed1 := seed
			seed2 := seed
			for ; l > 48; l -= 48 {
				seed = mix(r8(data, p)^m2, r8(data, p+8)^seed)
				seed1 = mix(r8(data, p+16)^m3, r8(data, p+24)^seed1)
				seed2 = mix(r8(data, p+32)^m4, r8(data, p+40)^seed2)
				p += 48
			}
			seed ^= seed1 ^ seed2
		}
		for ; l > 16; l -= 16 {
			seed = mix(r8(data, p)^m2, r8(data, p+8)^seed)
			p += 16
		}
		a = r8(data, p+l-16)
		b = r8(data, p+l-8)
	}
	return mix(m5^uint64(s), mix(a^m2, b^seed))
}

// HashUint64 is the fixed-width shortcut for 8-byte keys.
func HashUint64(x uint64) uint64 {
	return mix(m5^8, mix(x^m2, x^Seed^m1))
}
