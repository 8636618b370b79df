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

// Package stats collects optional per-column statistics at table build time.
// Every field of Column may be absent; engines that consult statistics must
// degrade to a scan when one is missing. Distinct counts are exact for
// dictionary columns (tracked with a Roaring bitmap over indices) and
// HyperLogLog estimates elsewhere, which is acceptable because distinct
// counts only ever size hash tables.
package stats

import (
	"math"

	"github.com/RoaringBitmap/roaring"
	"github.com/axiomhq/hyperloglog"

	"github.com/wilson-anysphere/tabular/pkg/container/dict"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Column holds the optional statistics of one column. Nil pointer = absent.
type Column struct {
	NullCount     *int64
	DistinctCount *int64

	// Number range; set only for Number columns.
	MinFloat *float64
	MaxFloat *float64

	// Integer-like range; set only for DateTime/Currency/Percentage.
	MinInt *int64
	MaxInt *int64

	// Lexicographic range; set only for String columns.
	MinStr *string
	MaxStr *string

	// Sum of non-null values. For Boolean columns this is the true count
	// stored as a float, the permissive legacy representation.
	Sum *float64
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func strp(v string) *string  { return &v }

// Builder accumulates statistics for one column of the given logical type.
// For String columns d must be the column's dictionary.
type Builder struct {
	typ types.T
	d   *dict.Dictionary

	rows  int64
	nulls int64

	minF, maxF float64
	minI, maxI int64
	sum        float64
	hasRange   bool

	hll *hyperloglog.Sketch
	set *roaring.Bitmap
}

func NewBuilder(typ types.T, d *dict.Dictionary) *Builder {
	b := &Builder{typ: typ, d: d}
	if typ == types.T_string {
		b.set = roaring.New()
	} else {
		b.hll = hyperloglog.New14()
	}
	return b
}

// Add folds one decoded cell into the statistics.
func (b *Builder) Add(s types.Scalar) {
	b.rows++
	if s.IsNull() {
		b.nulls++
		return
	}
	switch s.Kind {
	case types.KindFloat64:
		v := s.F64
		// NaN never enters the range; a NaN min/max would defeat every
		// statistics-driven comparison short-circuit
		if !math.IsNaN(v) {
			if !b.hasRange || v < b.minF {
				b.minF = v
			}
			if !b.hasRange || v > b.maxF {
				b.maxF = v
			}
			b.hasRange = true
		}
		b.sum += v
		b.hll.Insert(types.NewFloat64(v).AppendKey(nil))
	case types.KindInt64:
		v := s.I64
		if !b.hasRange || v < b.minI {
			b.minI = v
		}
		if !b.hasRange || v > b.maxI {
			b.maxI = v
		}
		b.hasRange = true
		b.sum += float64(v)
		b.hll.Insert(s.AppendKey(nil))
	case types.KindBool:
		if s.B {
			b.sum++
		}
		b.hll.Insert(s.AppendKey(nil))
	case types.KindDictIndex:
		b.set.Add(s.Dict)
	case types.KindNull:
	}
}

// Build freezes the accumulated statistics.
func (b *Builder) Build() *Column {
	c := &Column{NullCount: i64(b.nulls)}
	nonNull := b.rows - b.nulls

	switch b.typ {
	case types.T_number:
		c.DistinctCount = i64(int64(b.hll.Estimate()))
		if b.hasRange {
			c.MinFloat = f64(b.minF)
			c.MaxFloat = f64(b.maxF)
		}
		if nonNull > 0 {
			c.Sum = f64(b.sum)
		}
	case types.T_datetime, types.T_currency, types.T_percentage:
		c.DistinctCount = i64(int64(b.hll.Estimate()))
		if b.hasRange {
			c.MinInt = i64(b.minI)
			c.MaxInt = i64(b.maxI)
		}
		if nonNull > 0 {
			c.Sum = f64(b.sum)
		}
	case types.T_bool:
		c.DistinctCount = i64(int64(b.hll.Estimate()))
		c.Sum = f64(b.sum)
	case types.T_string:
		c.DistinctCount = i64(int64(b.set.GetCardinality()))
		if !b.set.IsEmpty() && b.d != nil {
			// the dictionary is sorted, so index extremes are the
			// lexicographic extremes of the observed values
			c.MinStr = strp(b.d.Get(b.set.Minimum()))
			c.MaxStr = strp(b.d.Get(b.set.Maximum()))
		}
	}
	return c
}
