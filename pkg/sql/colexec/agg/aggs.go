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

package agg

import (
	"math"

	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func isNumeric(s types.Scalar) bool {
	return s.Kind == types.KindFloat64 || s.Kind == types.KindInt64
}

// countAgg backs Count, CountColumn and CountNumbers; the flags select
// which cells a group charges for.
type countAgg struct {
	countNulls  bool
	numbersOnly bool
	counts      []int64
}

func (a *countAgg) Grows(n int) {
	for len(a.counts) < n {
		a.counts = append(a.counts, 0)
	}
}

func (a *countAgg) Fill(ix int, s types.Scalar) {
	switch {
	case a.countNulls:
		a.counts[ix]++
	case a.numbersOnly:
		if isNumeric(s) {
			a.counts[ix]++
		}
	default:
		if !s.IsNull() {
			a.counts[ix]++
		}
	}
}

func (a *countAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.counts))
	for i, c := range a.counts {
		out[i] = types.NewFloat64(float64(c))
	}
	return out
}

// sumAgg sums integer-like columns in int64 and Number columns in
// float64. A group with no numeric values sums to NULL.
type sumAgg struct {
	typ  types.T
	sumI []int64
	sumF []float64
	seen []bool
}

func (a *sumAgg) Grows(n int) {
	for len(a.seen) < n {
		a.sumI = append(a.sumI, 0)
		a.sumF = append(a.sumF, 0)
		a.seen = append(a.seen, false)
	}
}

func (a *sumAgg) Fill(ix int, s types.Scalar) {
	switch s.Kind {
	case types.KindInt64:
		a.sumI[ix] += s.I64
		a.seen[ix] = true
	case types.KindFloat64:
		a.sumF[ix] += s.F64
		a.seen[ix] = true
	}
}

func (a *sumAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.seen))
	for i := range a.seen {
		switch {
		case !a.seen[i]:
			out[i] = types.Null()
		case a.typ.IsIntegerLike():
			out[i] = types.NewInt64(a.sumI[i])
		default:
			out[i] = types.NewFloat64(a.sumF[i])
		}
	}
	return out
}

type avgAgg struct {
	sums   []float64
	counts []int64
}

func (a *avgAgg) Grows(n int) {
	for len(a.counts) < n {
		a.sums = append(a.sums, 0)
		a.counts = append(a.counts, 0)
	}
}

func (a *avgAgg) Fill(ix int, s types.Scalar) {
	if isNumeric(s) {
		a.sums[ix] += s.Float()
		a.counts[ix]++
	}
}

func (a *avgAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.counts))
	for i, n := range a.counts {
		if n == 0 {
			out[i] = types.Null()
		} else {
			out[i] = types.NewFloat64(a.sums[i] / float64(n))
		}
	}
	return out
}

// minMaxAgg orders floats by the total order, so NaN sorts above +Inf
// deterministically instead of poisoning the comparison. Booleans
// order false before true, which makes Min an AND and Max an OR.
type minMaxAgg struct {
	typ  types.T
	max  bool
	seen []bool
	vals []types.Scalar
}

func (a *minMaxAgg) Grows(n int) {
	for len(a.seen) < n {
		a.seen = append(a.seen, false)
		a.vals = append(a.vals, types.Null())
	}
}

func (a *minMaxAgg) Fill(ix int, s types.Scalar) {
	if s.IsNull() {
		return
	}
	if !a.seen[ix] {
		a.seen[ix] = true
		a.vals[ix] = s
		return
	}
	cur := a.vals[ix]
	better := false
	switch s.Kind {
	case types.KindFloat64:
		c := types.CompareTotal(s.F64, cur.F64)
		better = (a.max && c > 0) || (!a.max && c < 0)
	case types.KindInt64:
		better = (a.max && s.I64 > cur.I64) || (!a.max && s.I64 < cur.I64)
	case types.KindBool:
		better = (a.max && s.B && !cur.B) || (!a.max && !s.B && cur.B)
	}
	if better {
		a.vals[ix] = s
	}
}

func (a *minMaxAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.vals))
	for i := range a.vals {
		if a.seen[i] {
			out[i] = a.vals[i]
		} else {
			out[i] = types.Null()
		}
	}
	return out
}

// distinctAgg hashes canonical key bytes, so every NaN payload lands in
// one bucket and -0 joins +0.
type distinctAgg struct {
	sets []map[string]struct{}
}

func (a *distinctAgg) Grows(n int) {
	for len(a.sets) < n {
		a.sets = append(a.sets, nil)
	}
}

func (a *distinctAgg) Fill(ix int, s types.Scalar) {
	if s.IsNull() {
		return
	}
	if a.sets[ix] == nil {
		a.sets[ix] = make(map[string]struct{})
	}
	a.sets[ix][string(s.AppendKey(nil))] = struct{}{}
}

func (a *distinctAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.sets))
	for i, set := range a.sets {
		out[i] = types.NewFloat64(float64(len(set)))
	}
	return out
}

// varAgg runs Welford's recurrence per group. The mean moves before the
// second delta is taken; summing squares and subtracting would lose the
// small-variance cases to cancellation.
type varAgg struct {
	sample bool
	sqrt   bool

	ns    []int64
	means []float64
	m2s   []float64
}

func (a *varAgg) Grows(n int) {
	for len(a.ns) < n {
		a.ns = append(a.ns, 0)
		a.means = append(a.means, 0)
		a.m2s = append(a.m2s, 0)
	}
}

func (a *varAgg) Fill(ix int, s types.Scalar) {
	if !isNumeric(s) {
		return
	}
	x := s.Float()
	a.ns[ix]++
	delta := x - a.means[ix]
	a.means[ix] += delta / float64(a.ns[ix])
	delta2 := x - a.means[ix]
	a.m2s[ix] += delta * delta2
}

func (a *varAgg) Eval() []types.Scalar {
	out := make([]types.Scalar, len(a.ns))
	for i, n := range a.ns {
		div := n
		if a.sample {
			div = n - 1
		}
		if div < 1 {
			out[i] = types.Null()
			continue
		}
		v := a.m2s[i] / float64(div)
		if a.sqrt {
			v = math.Sqrt(v)
		}
		out[i] = types.NewFloat64(v)
	}
	return out
}
