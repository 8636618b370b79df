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

package filter

import (
	"math"

	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/common/mathutil"
	"github.com/wilson-anysphere/tabular/pkg/container/nulls"
	"github.com/wilson-anysphere/tabular/pkg/container/page"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func evalCompare(tbl *table.Table, x *Compare) *bitmap.Bitmap {
	c := tbl.Columns()[x.Col]
	switch c.Typ {
	case types.T_number:
		return compareNumber(tbl, c, x.Op, x.Lit.F)
	case types.T_bool:
		return compareBool(tbl, c, x.Op, x.Lit.B)
	case types.T_string:
		return compareString(tbl, c, x.Op, x.Lit.S)
	default:
		return compareInt(tbl, c, x.Op, x.Lit.I)
	}
}

// compareNumber scans a Number column. A NaN literal short-circuits:
// only = and <> can ever hold against NaN, so relational operators
// yield the empty mask without touching a page.
func compareNumber(tbl *table.Table, c *table.Column, op types.CompareOp, lit float64) *bitmap.Bitmap {
	if math.IsNaN(lit) {
		if op != types.Eq && op != types.Ne {
			return bitmap.New(tbl.Rows())
		}
		return scanFloats(tbl, c, func(v float64) bool {
			if op == types.Eq {
				return math.IsNaN(v)
			}
			return !math.IsNaN(v)
		})
	}
	if m, ok := pruneNumber(tbl, c, op, lit); ok {
		return m
	}
	return scanFloats(tbl, c, func(v float64) bool {
		return types.CompareFloat(v, lit, op)
	})
}

// pruneNumber resolves the predicate to a constant mask from the
// min/max statistics when the literal lies outside the observed range.
// The range excludes NaN values, which makes the empty-mask direction
// always sound (NaN fails every operator except <>) while the
// all-valid direction additionally needs a NaN-free column; the sum
// statistic witnesses that, since any NaN contaminates it.
func pruneNumber(tbl *table.Table, c *table.Column, op types.CompareOp, lit float64) (*bitmap.Bitmap, bool) {
	if c.Stats == nil || c.Stats.MinFloat == nil || c.Stats.MaxFloat == nil {
		return nil, false
	}
	min, max := *c.Stats.MinFloat, *c.Stats.MaxFloat
	noNaN := c.Stats.Sum != nil && !math.IsNaN(*c.Stats.Sum)

	empty := false
	switch op {
	case types.Eq:
		empty = lit < min || lit > max
	case types.Ne:
		empty = min == max && min == lit && noNaN
	case types.Lt:
		empty = lit <= min
	case types.Le:
		empty = lit < min
	case types.Gt:
		empty = lit >= max
	case types.Ge:
		empty = lit > max
	}
	if empty {
		return bitmap.New(tbl.Rows()), true
	}

	all := false
	switch op {
	case types.Eq:
		all = min == max && min == lit && noNaN
	case types.Ne:
		// a NaN value satisfies <> too, so no NaN witness needed
		all = lit < min || lit > max
	case types.Lt:
		all = max < lit && noNaN
	case types.Le:
		all = max <= lit && noNaN
	case types.Gt:
		all = min > lit && noNaN
	case types.Ge:
		all = min >= lit && noNaN
	}
	if all {
		return validMaskOf(tbl, c), true
	}
	return nil, false
}

func compareInt(tbl *table.Table, c *table.Column, op types.CompareOp, lit int64) *bitmap.Bitmap {
	if c.Stats != nil && c.Stats.MinInt != nil && c.Stats.MaxInt != nil {
		min, max := *c.Stats.MinInt, *c.Stats.MaxInt

		empty := false
		all := false
		switch op {
		case types.Eq:
			empty = lit < min || lit > max
			all = min == max && min == lit
		case types.Ne:
			empty = min == max && min == lit
			all = lit < min || lit > max
		case types.Lt:
			empty = lit <= min
			all = max < lit
		case types.Le:
			empty = lit < min
			all = max <= lit
		case types.Gt:
			empty = lit >= max
			all = min > lit
		case types.Ge:
			empty = lit > max
			all = min >= lit
		}
		if empty {
			return bitmap.New(tbl.Rows())
		}
		if all {
			return validMaskOf(tbl, c)
		}
	}

	m := bitmap.New(tbl.Rows())
	for p, pg := range c.Pages {
		ip := pg.(*page.IntPage)
		start, _ := tbl.PageBounds(p)
		nsp := ip.Nulls()
		if nulls.All(nsp, ip.Rows()) {
			continue
		}
		hasNulls := nulls.Any(nsp)
		for i := 0; i < ip.Rows(); i++ {
			if hasNulls && nulls.Contains(nsp, uint64(i)) {
				continue
			}
			if types.CompareInt(ip.Get(i), lit, op) {
				m.Add(uint64(start) + uint64(i))
			}
		}
	}
	return m
}

// compareBool scans a Boolean column. Only = and <> are accepted, so
// the scan reduces to matching one wanted truth value; the true-count
// statistic resolves all-true and all-false columns without a scan,
// and uniform mask bytes are handled eight rows at a time.
func compareBool(tbl *table.Table, c *table.Column, op types.CompareOp, lit bool) *bitmap.Bitmap {
	want := lit
	if op == types.Ne {
		want = !lit
	}

	if c.Stats != nil && c.Stats.Sum != nil && c.Stats.NullCount != nil {
		nonNull := tbl.Rows() - *c.Stats.NullCount
		// the stored sum is a float and may be fractional, negative or
		// oversized; round and clamp rather than reject
		trueCount := mathutil.Clamp(int64(math.Round(*c.Stats.Sum)), 0, nonNull)
		wantCount := trueCount
		if !want {
			wantCount = nonNull - trueCount
		}
		switch wantCount {
		case 0:
			return bitmap.New(tbl.Rows())
		case nonNull:
			return validMaskOf(tbl, c)
		}
	}

	m := bitmap.New(tbl.Rows())
	for p, pg := range c.Pages {
		bp := pg.(*page.BoolPage)
		start, _ := tbl.PageBounds(p)
		nsp := bp.Nulls()
		if nulls.All(nsp, bp.Rows()) {
			continue
		}
		if nulls.Any(nsp) {
			for i := 0; i < bp.Rows(); i++ {
				if nulls.Contains(nsp, uint64(i)) {
					continue
				}
				if bp.Get(i) == want {
					m.Add(uint64(start) + uint64(i))
				}
			}
			continue
		}
		bits := bp.Bits()
		for bi := range bits {
			b := bits[bi]
			if !want {
				b = ^b
			}
			n := mathutil.Min(8, bp.Rows()-bi*8)
			rstart := uint64(start) + uint64(bi)*8
			if b == 0 {
				continue
			}
			if b == 0xff && n == 8 {
				m.AddRange(rstart, rstart+8)
				continue
			}
			for k := 0; k < n; k++ {
				if b>>uint(k)&1 == 1 {
					m.Add(rstart + uint64(k))
				}
			}
		}
	}
	return m
}

// compareString scans a String column. Only = and <> are accepted. The
// literal is resolved to a dictionary index once; a literal outside
// the dictionary, or outside the lexicographic min/max, settles the
// predicate without a scan.
func compareString(tbl *table.Table, c *table.Column, op types.CompareOp, lit string) *bitmap.Bitmap {
	if c.Stats != nil && c.Stats.MinStr != nil && c.Stats.MaxStr != nil {
		if lit < *c.Stats.MinStr || lit > *c.Stats.MaxStr {
			if op == types.Eq {
				return bitmap.New(tbl.Rows())
			}
			return validMaskOf(tbl, c)
		}
	}
	ix, ok := c.Dict.Lookup(lit)
	if !ok {
		if op == types.Eq {
			return bitmap.New(tbl.Rows())
		}
		return validMaskOf(tbl, c)
	}
	return scanDict(tbl, c, func(v uint32) bool {
		if op == types.Eq {
			return v == ix
		}
		return v != ix
	})
}

func evalFold(tbl *table.Table, x *CompareFold) *bitmap.Bitmap {
	c := tbl.Columns()[x.Col]
	matches := c.Dict.LookupFold(x.Lit)
	if len(matches) == 0 {
		if x.Op == types.Eq {
			return bitmap.New(tbl.Rows())
		}
		return validMaskOf(tbl, c)
	}
	if len(matches) == c.Dict.Len() {
		if x.Op == types.Eq {
			return validMaskOf(tbl, c)
		}
		return bitmap.New(tbl.Rows())
	}
	set := make(map[uint32]struct{}, len(matches))
	for _, ix := range matches {
		set[ix] = struct{}{}
	}
	return scanDict(tbl, c, func(v uint32) bool {
		_, in := set[v]
		if x.Op == types.Eq {
			return in
		}
		return !in
	})
}

// scanFloats applies match to every non-null value of a Number column.
// Decompression scratch is reused across pages.
func scanFloats(tbl *table.Table, c *table.Column, match func(float64) bool) *bitmap.Bitmap {
	m := bitmap.New(tbl.Rows())
	var scratch []float64
	for p, pg := range c.Pages {
		fp := pg.(*page.FloatPage)
		start, _ := tbl.PageBounds(p)
		nsp := fp.Nulls()
		if nulls.All(nsp, fp.Rows()) {
			continue
		}
		values := fp.Values(scratch)
		if fp.Compressed() {
			scratch = values
		}
		hasNulls := nulls.Any(nsp)
		for i, v := range values {
			if hasNulls && nulls.Contains(nsp, uint64(i)) {
				continue
			}
			if match(v) {
				m.Add(uint64(start) + uint64(i))
			}
		}
	}
	return m
}

// scanDict applies match to the dictionary index of every non-null
// value of a String column. Run-length pages are tested once per run.
func scanDict(tbl *table.Table, c *table.Column, match func(uint32) bool) *bitmap.Bitmap {
	m := bitmap.New(tbl.Rows())
	for p, pg := range c.Pages {
		dp := pg.(*page.DictPage)
		start, _ := tbl.PageBounds(p)
		nsp := dp.Nulls()
		if nulls.All(nsp, dp.Rows()) {
			continue
		}
		hasNulls := nulls.Any(nsp)
		if dp.IsRLE() && !hasNulls {
			dp.RLE().Runs(func(rs, re int, v uint64) bool {
				if match(uint32(v)) {
					m.AddRange(uint64(start)+uint64(rs), uint64(start)+uint64(re))
				}
				return true
			})
			continue
		}
		for i := 0; i < dp.Rows(); i++ {
			if hasNulls && nulls.Contains(nsp, uint64(i)) {
				continue
			}
			if match(dp.Get(i)) {
				m.Add(uint64(start) + uint64(i))
			}
		}
	}
	return m
}

// validMaskOf is validMask for an already-resolved column.
func validMaskOf(tbl *table.Table, c *table.Column) *bitmap.Bitmap {
	if c.Stats != nil && c.Stats.NullCount != nil && *c.Stats.NullCount == 0 {
		return bitmap.NewFull(tbl.Rows())
	}
	m := bitmap.New(tbl.Rows())
	for p, pg := range c.Pages {
		start, end := tbl.PageBounds(p)
		nsp := pg.Nulls()
		if !nulls.Any(nsp) {
			m.AddRange(uint64(start), uint64(end))
			continue
		}
		for row := start; row < end; row++ {
			if !nulls.Contains(nsp, uint64(row-start)) {
				m.Add(uint64(row))
			}
		}
	}
	return m
}
