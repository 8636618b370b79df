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

package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind tags a Scalar. The set is closed; code switching on it must handle
// every variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt64
	KindFloat64
	KindBool
	KindDictIndex
)

// canonicalNaN is the single NaN representative every NaN payload folds to.
var canonicalNaN = math.Float64frombits(0x7FF8000000000000)

// Scalar is one decoded cell, independent of the physical page encoding.
type Scalar struct {
	Kind Kind
	I64  int64
	F64  float64
	B    bool
	Dict uint32
}

func Null() Scalar {
	return Scalar{Kind: KindNull}
}

func NewInt64(v int64) Scalar {
	return Scalar{Kind: KindInt64, I64: v}
}

func NewFloat64(v float64) Scalar {
	return Scalar{Kind: KindFloat64, F64: v}
}

func NewBool(v bool) Scalar {
	return Scalar{Kind: KindBool, B: v}
}

func NewDictIndex(v uint32) Scalar {
	return Scalar{Kind: KindDictIndex, Dict: v}
}

func (s Scalar) IsNull() bool {
	return s.Kind == KindNull
}

func (s Scalar) String() string {
	switch s.Kind {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", s.I64)
	case KindFloat64:
		return fmt.Sprintf("%g", s.F64)
	case KindBool:
		return fmt.Sprintf("%t", s.B)
	case KindDictIndex:
		return fmt.Sprintf("#%d", s.Dict)
	}
	return "?"
}

// CanonicalFloat folds every NaN bit pattern to one representative and -0.0
// to +0.0, so that bit-identical canonical values mean equal keys.
func CanonicalFloat(f float64) float64 {
	if math.IsNaN(f) {
		return canonicalNaN
	}
	if f == 0 {
		return 0
	}
	return f
}

// Canonical returns the scalar with its payload canonicalized for hashing
// and key equality.
func (s Scalar) Canonical() Scalar {
	if s.Kind == KindFloat64 {
		s.F64 = CanonicalFloat(s.F64)
	}
	return s
}

// AppendKey appends the canonical key bytes of s to buf: one kind tag byte
// followed by a fixed-width payload. Two scalars form the same key iff their
// appended bytes are identical.
func (s Scalar) AppendKey(buf []byte) []byte {
	buf = append(buf, byte(s.Kind))
	switch s.Kind {
	case KindNull:
	case KindInt64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(s.I64))
		buf = append(buf, b[:]...)
	case KindFloat64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(CanonicalFloat(s.F64)))
		buf = append(buf, b[:]...)
	case KindBool:
		if s.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindDictIndex:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], s.Dict)
		buf = append(buf, b[:]...)
	}
	return buf
}

// Float returns the numeric value of s as a float64. Only meaningful for
// KindInt64 and KindFloat64.
func (s Scalar) Float() float64 {
	if s.Kind == KindInt64 {
		return float64(s.I64)
	}
	return s.F64
}

// totalOrderBits maps a float to an integer whose natural ordering is a
// total order over floats: -NaN < -Inf < ... < -0 < +0 < ... < +Inf < +NaN.
// Min/Max use it so NaN inputs order deterministically instead of poisoning
// every < comparison.
func totalOrderBits(f float64) int64 {
	b := int64(math.Float64bits(f))
	if b < 0 {
		b = math.MinInt64 - b - 1
	}
	return b
}

// CompareTotal compares two floats under the total order above.
func CompareTotal(a, b float64) int {
	x, y := totalOrderBits(a), totalOrderBits(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// CompareFloat applies op with IEEE semantics: any comparison against NaN is
// false except Ne, which is true.
func CompareFloat(a, b float64, op CompareOp) bool {
	switch op {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	default:
		return a >= b
	}
}

// CompareInt applies op over 64-bit integers.
func CompareInt(a, b int64, op CompareOp) bool {
	switch op {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	default:
		return a >= b
	}
}
