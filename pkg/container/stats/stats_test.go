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

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/tabular/pkg/container/dict"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func TestNumberStats(t *testing.T) {
	b := NewBuilder(types.T_number, nil)
	for _, v := range []float64{3, -1, 4, -1, 5} {
		b.Add(types.NewFloat64(v))
	}
	b.Add(types.Null())

	c := b.Build()
	require.Equal(t, int64(1), *c.NullCount)
	require.Equal(t, float64(-1), *c.MinFloat)
	require.Equal(t, float64(5), *c.MaxFloat)
	require.Equal(t, float64(10), *c.Sum)
	require.Equal(t, int64(4), *c.DistinctCount)
}

func TestNumberStatsNaNExcludedFromRange(t *testing.T) {
	b := NewBuilder(types.T_number, nil)
	b.Add(types.NewFloat64(math.NaN()))
	c := b.Build()
	require.Nil(t, c.MinFloat)
	require.Nil(t, c.MaxFloat)

	b = NewBuilder(types.T_number, nil)
	b.Add(types.NewFloat64(math.NaN()))
	b.Add(types.NewFloat64(2))
	c = b.Build()
	require.Equal(t, float64(2), *c.MinFloat)
	require.Equal(t, float64(2), *c.MaxFloat)
}

func TestBoolStatsTrueCountAsSum(t *testing.T) {
	b := NewBuilder(types.T_bool, nil)
	b.Add(types.NewBool(true))
	b.Add(types.NewBool(false))
	b.Add(types.NewBool(true))
	b.Add(types.Null())

	c := b.Build()
	require.Equal(t, float64(2), *c.Sum)
	require.Equal(t, int64(1), *c.NullCount)
}

func TestStringStats(t *testing.T) {
	d := dict.FromValues([]string{"apple", "banana", "pear"})
	b := NewBuilder(types.T_string, d)
	ix, _ := d.Lookup("banana")
	b.Add(types.NewDictIndex(ix))
	ix, _ = d.Lookup("pear")
	b.Add(types.NewDictIndex(ix))
	b.Add(types.NewDictIndex(ix))

	c := b.Build()
	require.Equal(t, int64(2), *c.DistinctCount)
	require.Equal(t, "banana", *c.MinStr)
	require.Equal(t, "pear", *c.MaxStr)
}

func TestIntStats(t *testing.T) {
	b := NewBuilder(types.T_datetime, nil)
	for _, v := range []int64{100, 50, 200} {
		b.Add(types.NewInt64(v))
	}
	c := b.Build()
	require.Equal(t, int64(50), *c.MinInt)
	require.Equal(t, int64(200), *c.MaxInt)
	require.Equal(t, float64(350), *c.Sum)
}

func TestEmptyStats(t *testing.T) {
	c := NewBuilder(types.T_number, nil).Build()
	require.Equal(t, int64(0), *c.NullCount)
	require.Nil(t, c.MinFloat)
	require.Nil(t, c.Sum)
}
