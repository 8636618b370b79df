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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func fill(t *testing.T, a Aggregator, groups []int, vals []types.Scalar) {
	t.Helper()
	require.Equal(t, len(groups), len(vals))
	max := 0
	for _, g := range groups {
		if g >= max {
			max = g + 1
		}
	}
	a.Grows(max)
	for i, g := range groups {
		a.Fill(g, vals[i])
	}
}

func TestCountVariants(t *testing.T) {
	groups := []int{0, 0, 0, 1, 1}
	vals := []types.Scalar{
		types.NewFloat64(1), types.Null(), types.NewBool(true),
		types.NewInt64(7), types.Null(),
	}

	count, err := New(Count, types.T_number)
	require.NoError(t, err)
	fill(t, count, groups, vals)
	require.Equal(t, []types.Scalar{types.NewFloat64(3), types.NewFloat64(2)}, count.Eval())

	counta, err := New(CountColumn, types.T_number)
	require.NoError(t, err)
	fill(t, counta, groups, vals)
	require.Equal(t, []types.Scalar{types.NewFloat64(2), types.NewFloat64(1)}, counta.Eval())

	nums, err := New(CountNumbers, types.T_number)
	require.NoError(t, err)
	fill(t, nums, groups, vals)
	require.Equal(t, []types.Scalar{types.NewFloat64(1), types.NewFloat64(1)}, nums.Eval())
}

func TestSum(t *testing.T) {
	a, err := New(Sum, types.T_number)
	require.NoError(t, err)
	fill(t, a, []int{0, 0, 1, 2}, []types.Scalar{
		types.NewFloat64(1.5), types.NewFloat64(2.5), types.Null(), types.NewFloat64(-3),
	})
	require.Equal(t, []types.Scalar{
		types.NewFloat64(4), types.Null(), types.NewFloat64(-3),
	}, a.Eval())

	// integer-like columns sum without float rounding
	c, err := New(Sum, types.T_currency)
	require.NoError(t, err)
	fill(t, c, []int{0, 0}, []types.Scalar{
		types.NewInt64(1 << 60), types.NewInt64(3),
	})
	require.Equal(t, []types.Scalar{types.NewInt64(1<<60 + 3)}, c.Eval())

	// a boolean column carries no numeric values
	b, err := New(Sum, types.T_bool)
	require.NoError(t, err)
	fill(t, b, []int{0, 0}, []types.Scalar{types.NewBool(true), types.NewBool(false)})
	require.Equal(t, []types.Scalar{types.Null()}, b.Eval())
}

func TestAvg(t *testing.T) {
	a, err := New(Avg, types.T_number)
	require.NoError(t, err)
	fill(t, a, []int{0, 0, 0, 1}, []types.Scalar{
		types.NewFloat64(2), types.NewFloat64(4), types.Null(), types.Null(),
	})
	require.Equal(t, []types.Scalar{types.NewFloat64(3), types.Null()}, a.Eval())
}

func TestMinMaxNumber(t *testing.T) {
	vals := []types.Scalar{
		types.NewFloat64(3), types.NewFloat64(math.NaN()),
		types.NewFloat64(math.Inf(1)), types.NewFloat64(-1),
	}
	groups := []int{0, 0, 0, 0}

	min, err := New(Min, types.T_number)
	require.NoError(t, err)
	fill(t, min, groups, vals)
	require.Equal(t, -1.0, min.Eval()[0].F64)

	// NaN sorts above +Inf under the total order
	max, err := New(Max, types.T_number)
	require.NoError(t, err)
	fill(t, max, groups, vals)
	require.True(t, math.IsNaN(max.Eval()[0].F64))
}

func TestMinMaxBool(t *testing.T) {
	vals := []types.Scalar{
		types.NewBool(true), types.NewBool(false), types.NewBool(true), types.NewBool(true),
	}
	groups := []int{0, 0, 1, 1}

	min, err := New(Min, types.T_bool)
	require.NoError(t, err)
	fill(t, min, groups, vals)
	require.Equal(t, []types.Scalar{types.NewBool(false), types.NewBool(true)}, min.Eval())

	max, err := New(Max, types.T_bool)
	require.NoError(t, err)
	fill(t, max, groups, vals)
	require.Equal(t, []types.Scalar{types.NewBool(true), types.NewBool(true)}, max.Eval())
}

func TestMinMaxInt(t *testing.T) {
	a, err := New(Min, types.T_datetime)
	require.NoError(t, err)
	fill(t, a, []int{0, 0, 1}, []types.Scalar{
		types.NewInt64(200), types.NewInt64(100), types.Null(),
	})
	require.Equal(t, []types.Scalar{types.NewInt64(100), types.Null()}, a.Eval())
}

func TestDistinctCount(t *testing.T) {
	a, err := New(DistinctCount, types.T_number)
	require.NoError(t, err)
	fill(t, a, []int{0, 0, 0, 0, 0, 1}, []types.Scalar{
		types.NewFloat64(math.NaN()),
		types.NewFloat64(math.NaN()),
		types.NewFloat64(0),
		types.NewFloat64(math.Copysign(0, -1)),
		types.Null(),
		types.NewFloat64(5),
	})
	// the NaNs collapse and the zero signs collapse
	require.Equal(t, []types.Scalar{types.NewFloat64(2), types.NewFloat64(1)}, a.Eval())
}

func TestWelfordVariance(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	feed := func(k Kind) types.Scalar {
		a, err := New(k, types.T_number)
		require.NoError(t, err)
		a.Grows(1)
		for _, v := range vals {
			a.Fill(0, types.NewFloat64(v))
		}
		return a.Eval()[0]
	}

	require.InDelta(t, 4.0, feed(VarPop).F64, 1e-12)
	require.InDelta(t, 32.0/7.0, feed(Var).F64, 1e-12)
	require.InDelta(t, 2.0, feed(StdDevPop).F64, 1e-12)
	require.InDelta(t, math.Sqrt(32.0/7.0), feed(StdDev).F64, 1e-12)
}

// Shifted data is where a naive sum-of-squares accumulator loses all
// significant digits.
func TestWelfordShifted(t *testing.T) {
	a, err := New(VarPop, types.T_number)
	require.NoError(t, err)
	a.Grows(1)
	for _, d := range []float64{4, 7, 13, 16} {
		a.Fill(0, types.NewFloat64(1e9+d))
	}
	require.InDelta(t, 22.5, a.Eval()[0].F64, 1e-6)
}

func TestVarianceSmallGroups(t *testing.T) {
	samp, err := New(Var, types.T_number)
	require.NoError(t, err)
	fill(t, samp, []int{0, 1}, []types.Scalar{types.NewFloat64(3), types.Null()})
	require.Equal(t, []types.Scalar{types.Null(), types.Null()}, samp.Eval())

	pop, err := New(VarPop, types.T_number)
	require.NoError(t, err)
	fill(t, pop, []int{0}, []types.Scalar{types.NewFloat64(3)})
	require.Equal(t, []types.Scalar{types.NewFloat64(0)}, pop.Eval())
}

func TestCompatible(t *testing.T) {
	require.NoError(t, Compatible(CountColumn, types.T_string))
	require.NoError(t, Compatible(DistinctCount, types.T_string))
	require.NoError(t, Compatible(Sum, types.T_bool))

	for _, k := range []Kind{Sum, Avg, Min, Max, CountNumbers, Var, StdDevPop} {
		err := Compatible(k, types.T_string)
		require.True(t, taberr.IsCode(err, taberr.ErrUnsupportedColumnType), "kind %v", k)
	}

	_, err := New(Min, types.T_string)
	require.Error(t, err)
}

func TestResultType(t *testing.T) {
	require.Equal(t, types.T_number, ResultType(Count, types.T_string))
	require.Equal(t, types.T_number, ResultType(Avg, types.T_currency))
	require.Equal(t, types.T_currency, ResultType(Sum, types.T_currency))
	require.Equal(t, types.T_number, ResultType(Sum, types.T_number))
	require.Equal(t, types.T_datetime, ResultType(Min, types.T_datetime))
	require.Equal(t, types.T_bool, ResultType(Max, types.T_bool))
}
