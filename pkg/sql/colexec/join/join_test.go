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

package join

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/dict"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
)

func sp(v string) *string { return &v }

func numberTable(t *testing.T, name string, values []float64) *table.Table {
	tbl, err := table.NewBuilder(8).AddNumber(name, values).Build()
	require.NoError(t, err)
	return tbl
}

func TestJoinTypes(t *testing.T) {
	left := numberTable(t, "id", []float64{1, 2})
	right := numberTable(t, "id", []float64{1, 3})

	res, err := InnerOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, res.LeftRows)
	require.Equal(t, []int64{0}, res.RightRows)

	res, err = LeftOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, res.LeftRows)
	require.Equal(t, []int64{0, Absent}, res.RightRows)

	res, err = RightOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, Absent}, res.LeftRows)
	require.Equal(t, []int64{0, 1}, res.RightRows)

	res, err = FullOuterOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, Absent}, res.LeftRows)
	require.Equal(t, []int64{0, Absent, 1}, res.RightRows)
	require.Equal(t, 3, res.Len())
	require.True(t, res.HasLeft(1))
	require.False(t, res.HasRight(1))
	require.False(t, res.HasLeft(2))
	require.True(t, res.HasRight(2))
}

func TestJoinDuplicateBuildKeys(t *testing.T) {
	left := numberTable(t, "id", []float64{1})
	right := numberTable(t, "id", []float64{1, 1})

	res, err := InnerOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0}, res.LeftRows)
	// chains are head-inserted, so matches walk the build rows backwards
	require.Equal(t, []int64{1, 0}, res.RightRows)
}

func TestJoinCompressedPages(t *testing.T) {
	lvals := make([]float64, 48)
	rvals := make([]float64, 48)
	for i := range lvals {
		lvals[i] = float64(i % 6)
		rvals[i] = float64(i % 9)
	}
	build := func(values []float64, compress bool) *table.Table {
		tbl, err := table.NewBuilder(16).Compress(compress).
			AddNumber("id", values).Build()
		require.NoError(t, err)
		return tbl
	}

	want, err := FullOuterOn(build(lvals, false), build(rvals, false), 0, 0)
	require.NoError(t, err)
	got, err := FullOuterOn(build(lvals, true), build(rvals, true), 0, 0)
	require.NoError(t, err)
	require.Equal(t, want.LeftRows, got.LeftRows)
	require.Equal(t, want.RightRows, got.RightRows)
}

func TestJoinNullKeysNeverMatch(t *testing.T) {
	fp := func(v float64) *float64 { return &v }
	left, err := table.NewBuilder(8).
		AddNumberNullable("id", []*float64{fp(1), nil}).Build()
	require.NoError(t, err)
	right, err := table.NewBuilder(8).
		AddNumberNullable("id", []*float64{nil, fp(1)}).Build()
	require.NoError(t, err)

	res, err := InnerOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, res.LeftRows)
	require.Equal(t, []int64{1}, res.RightRows)

	res, err = FullOuterOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, Absent}, res.LeftRows)
	require.Equal(t, []int64{1, Absent, 0}, res.RightRows)
}

func TestJoinMultiKey(t *testing.T) {
	left, err := table.NewBuilder(8).
		AddNumber("a", []float64{1, 1, 2}).
		AddString("b", []*string{sp("x"), sp("y"), sp("x")}).
		Build()
	require.NoError(t, err)
	right, err := table.NewBuilder(8).
		AddNumber("a", []float64{1, 2, 1}).
		AddString("b", []*string{sp("y"), sp("x"), sp("z")}).
		Build()
	require.NoError(t, err)

	res, err := InnerJoin(left, right, []int{0, 1}, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, res.LeftRows)
	require.Equal(t, []int64{0, 1}, res.RightRows)
}

func TestJoinSharedDictionary(t *testing.T) {
	d := dict.FromValues([]string{"ann", "bob", "cal"})
	left, err := table.NewBuilder(8).
		AddStringShared("name", d, []*string{sp("ann"), sp("bob")}).Build()
	require.NoError(t, err)
	right, err := table.NewBuilder(8).
		AddStringShared("name", d, []*string{sp("bob"), sp("cal"), sp("ann")}).Build()
	require.NoError(t, err)
	require.Same(t, left.Columns()[0].Dict, right.Columns()[0].Dict)

	res, err := InnerOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, res.LeftRows)
	require.Equal(t, []int64{2, 0}, res.RightRows)
}

func TestJoinDistinctDictionaries(t *testing.T) {
	left, err := table.NewBuilder(8).
		AddString("name", []*string{sp("ann"), sp("bob"), sp("cal")}).Build()
	require.NoError(t, err)
	right, err := table.NewBuilder(8).
		AddString("name", []*string{sp("bob"), sp("dan"), sp("cal")}).Build()
	require.NoError(t, err)
	require.NotSame(t, left.Columns()[0].Dict, right.Columns()[0].Dict)

	// probe order first: ann is unmatched, bob and cal remap and match;
	// then the unmatched right row (dan) is appended
	res, err := FullOuterOn(left, right, 0, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2, Absent}, res.LeftRows)
	require.Equal(t, []int64{Absent, 0, 2, 1}, res.RightRows)
}

func TestJoinValidation(t *testing.T) {
	left := numberTable(t, "id", []float64{1})
	right := numberTable(t, "id", []float64{1})
	strs, err := table.NewBuilder(8).
		AddString("name", []*string{sp("x")}).Build()
	require.NoError(t, err)

	_, err = Join(left, right, nil, nil, Inner)
	require.True(t, taberr.IsCode(err, taberr.ErrEmptyKeyList))

	_, err = Join(left, right, []int{0}, []int{0, 0}, Inner)
	require.True(t, taberr.IsCode(err, taberr.ErrJoinKeyCountMismatch))

	_, err = InnerOn(left, right, 0, 5)
	require.True(t, taberr.IsCode(err, taberr.ErrColumnIndexOutOfRange))

	_, err = InnerOn(left, strs, 0, 0)
	require.True(t, taberr.IsCode(err, taberr.ErrJoinKeyTypeMismatch))
}

func TestJoinInnerSizeMatchesPairCount(t *testing.T) {
	left := numberTable(t, "id", []float64{1, 2, 2, 3})
	right := numberTable(t, "id", []float64{2, 2, 3, 4})

	res, err := InnerOn(left, right, 0, 0)
	require.NoError(t, err)

	pairs := 0
	for _, lv := range []float64{1, 2, 2, 3} {
		for _, rv := range []float64{2, 2, 3, 4} {
			if lv == rv {
				pairs++
			}
		}
	}
	require.Equal(t, pairs, res.Len())

	marked := make(map[[2]int64]bool)
	for i := range res.LeftRows {
		pair := [2]int64{res.LeftRows[i], res.RightRows[i]}
		require.False(t, marked[pair], "pair emitted twice")
		marked[pair] = true
		lv, err := left.Columns()[0].Get(left, res.LeftRows[i])
		require.NoError(t, err)
		rv, err := right.Columns()[0].Get(right, res.RightRows[i])
		require.NoError(t, err)
		require.Equal(t, lv, rv)
	}
}
