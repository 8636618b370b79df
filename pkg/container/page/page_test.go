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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/tabular/pkg/container/nulls"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func TestPackedUints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, width := range []uint64{1, 2, 100, 1 << 20, 1 << 40, 1<<63 - 1} {
		values := make([]uint64, 1000)
		for i := range values {
			values[i] = rng.Uint64() % (width + 1)
		}
		p := PackUints(values)
		require.Equal(t, len(values), p.Len())
		for i, want := range values {
			require.Equal(t, want, p.Get(i), "width %d index %d", width, i)
		}
	}
}

func TestPackedUintsAllZero(t *testing.T) {
	p := PackUints([]uint64{0, 0, 0})
	require.Equal(t, uint8(1), p.Width())
	require.Equal(t, uint64(0), p.Get(2))
}

func TestRLEUints(t *testing.T) {
	values := []uint64{5, 5, 5, 1, 1, 9, 5, 5}
	r := RLEFromValues(values)
	require.Equal(t, len(values), r.Len())
	require.Equal(t, 4, r.NumRuns())
	for i, want := range values {
		require.Equal(t, want, r.Get(i))
	}

	var runs [][3]uint64
	r.Runs(func(start, end int, value uint64) bool {
		runs = append(runs, [3]uint64{uint64(start), uint64(end), value})
		return true
	})
	require.Equal(t, [][3]uint64{{0, 3, 5}, {3, 5, 1}, {5, 6, 9}, {6, 8, 5}}, runs)
}

func TestFloatPageRoundTrip(t *testing.T) {
	values := []float64{1.5, -2, 0, 3.25, 1e300}
	nsp := nulls.Build(int64(len(values)), 2)
	p := NewFloatPage(values, nsp)

	require.Equal(t, types.NewFloat64(1.5), Decode(p, 0, nil))
	require.True(t, Decode(p, 2, nil).IsNull())
}

func TestCompressedFloatPage(t *testing.T) {
	// constant data compresses well
	values := make([]float64, 4096)
	for i := range values {
		values[i] = 42
	}
	p := NewCompressedFloatPage(values, nil)
	require.True(t, p.Compressed())

	got := p.Values(nil)
	require.Equal(t, values, got)

	// incompressible data falls back to raw storage
	rng := rand.New(rand.NewSource(7))
	noisy := make([]float64, 512)
	for i := range noisy {
		noisy[i] = rng.NormFloat64()
	}
	q := NewCompressedFloatPage(noisy, nil)
	require.False(t, q.Compressed())
	require.Equal(t, noisy, q.Values(nil))
}

func TestBoolPage(t *testing.T) {
	values := make([]bool, 20)
	values[0], values[7], values[8], values[19] = true, true, true, true
	p := NewBoolPage(values, nil)
	for i, want := range values {
		require.Equal(t, want, p.Get(i))
	}
	require.Equal(t, byte(0x81), p.Bits()[0])
	require.Equal(t, types.NewBool(true), Decode(p, 8, nil))
}

func TestIntPage(t *testing.T) {
	values := []int64{100, -5, 300, 0, -5}
	for _, build := range []func([]int64, *nulls.Nulls) *IntPage{NewIntPagePacked, NewIntPageRLE} {
		p := build(values, nil)
		require.Equal(t, int64(-5), p.Min())
		for i, want := range values {
			require.Equal(t, want, p.Get(i))
		}
	}
}

func TestIntPageWithNulls(t *testing.T) {
	values := []int64{10, 0, 30}
	nsp := nulls.Build(3, 1)
	p := NewIntPagePacked(values, nsp)
	require.Equal(t, int64(10), p.Get(0))
	require.Equal(t, int64(30), p.Get(2))
	require.True(t, Decode(p, 1, nil).IsNull())
}

func TestDictPage(t *testing.T) {
	indices := []uint32{0, 0, 2, 1, 1, 1}
	packed := NewDictPagePacked(indices, nil)
	require.False(t, packed.IsRLE())
	rle := NewDictPageRLE(indices, nil)
	require.True(t, rle.IsRLE())
	for i, want := range indices {
		require.Equal(t, want, packed.Get(i))
		require.Equal(t, want, rle.Get(i))
	}
	require.Equal(t, 3, rle.RLE().NumRuns())
}

func TestCursor(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i % 3)
	}
	p := NewCompressedFloatPage(values, nulls.Build(1000, 5))

	c := NewCursor(p)
	var n int
	for {
		s, ok := c.Next()
		if !ok {
			break
		}
		if n == 5 {
			require.True(t, s.IsNull())
		} else {
			require.Equal(t, float64(n%3), s.F64)
		}
		n++
	}
	require.Equal(t, 1000, n)

	// reuse across pages
	c.Reset(NewBoolPage([]bool{true, false}, nil))
	s, ok := c.Next()
	require.True(t, ok)
	require.Equal(t, types.NewBool(true), s)
}
