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

package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

func strptr(s string) *string { return &s }

func buildTestTable(t *testing.T, pageSize int) *Table {
	tbl, err := NewBuilder(pageSize).
		AddNumber("score", []float64{1, 2, 3, 4, 5, 6, 7}).
		AddString("name", []*string{
			strptr("ann"), strptr("bob"), nil, strptr("ann"),
			strptr("cal"), strptr("bob"), strptr("ann"),
		}).
		AddBool("active", []bool{true, false, true, true, false, false, true}).
		Build()
	require.NoError(t, err)
	return tbl
}

func TestBuilderBasics(t *testing.T) {
	tbl := buildTestTable(t, 3)
	require.Equal(t, int64(7), tbl.Rows())
	require.Equal(t, 3, tbl.NumCols())
	require.Equal(t, 3, tbl.NumPages())

	start, end := tbl.PageBounds(2)
	require.Equal(t, int64(6), start)
	require.Equal(t, int64(7), end)

	col, err := tbl.Column(1)
	require.NoError(t, err)
	require.Equal(t, types.T_string, col.Typ)
	require.NotNil(t, col.Dict)
	require.Equal(t, 3, col.Dict.Len())

	_, err = tbl.Column(9)
	require.True(t, taberr.IsCode(err, taberr.ErrColumnIndexOutOfRange))
}

func TestColumnGet(t *testing.T) {
	tbl := buildTestTable(t, 3)
	col, _ := tbl.Column(0)

	s, err := col.Get(tbl, 6)
	require.NoError(t, err)
	require.Equal(t, float64(7), s.F64)

	_, err = col.Get(tbl, 7)
	require.True(t, taberr.IsCode(err, taberr.ErrRowIndexOutOfRange))

	name, _ := tbl.Column(1)
	s, err = name.Get(tbl, 2)
	require.NoError(t, err)
	require.True(t, s.IsNull())
}

func TestReaderMatchesGet(t *testing.T) {
	vals := make([]float64, 64)
	strs := make([]*string, 64)
	names := []string{"ann", "bob", "cal"}
	for i := range vals {
		vals[i] = float64(i % 4)
		strs[i] = strptr(names[i%3])
	}
	tbl, err := NewBuilder(16).Compress(true).
		AddNumber("v", vals).
		AddString("s", strs).
		Build()
	require.NoError(t, err)

	for ci := 0; ci < tbl.NumCols(); ci++ {
		col, _ := tbl.Column(ci)
		rd := col.Reader(tbl)
		// forward scan, then jumps back across page boundaries
		order := []int64{0, 1, 15, 16, 17, 31, 32, 63, 3, 40}
		for _, row := range order {
			want, err := col.Get(tbl, row)
			require.NoError(t, err)
			got, err := rd.Get(row)
			require.NoError(t, err)
			require.Equal(t, want, got, "col %d row %d", ci, row)
		}
	}

	col, _ := tbl.Column(0)
	_, err = col.Reader(tbl).Get(64)
	require.True(t, taberr.IsCode(err, taberr.ErrRowIndexOutOfRange))
}

func TestFilterByMaskCompressed(t *testing.T) {
	vals := make([]float64, 64)
	for i := range vals {
		vals[i] = float64(i % 5)
	}
	tbl, err := NewBuilder(16).Compress(true).AddNumber("v", vals).Build()
	require.NoError(t, err)

	mask := bitmap.FromRows(64, []int64{0, 15, 16, 17, 48, 63})
	out, err := tbl.FilterByMask(mask)
	require.NoError(t, err)
	col, _ := out.Column(0)
	for i, row := range []int64{0, 15, 16, 17, 48, 63} {
		s, err := col.Get(out, int64(i))
		require.NoError(t, err)
		require.Equal(t, float64(row%5), s.F64)
	}
}

func TestColumnStats(t *testing.T) {
	tbl := buildTestTable(t, 3)
	score, _ := tbl.Column(0)
	require.Equal(t, float64(1), *score.Stats.MinFloat)
	require.Equal(t, float64(7), *score.Stats.MaxFloat)
	require.Equal(t, float64(28), *score.Stats.Sum)
	require.Equal(t, int64(0), *score.Stats.NullCount)

	name, _ := tbl.Column(1)
	require.Equal(t, int64(1), *name.Stats.NullCount)
	require.Equal(t, "ann", *name.Stats.MinStr)
	require.Equal(t, "cal", *name.Stats.MaxStr)

	active, _ := tbl.Column(2)
	require.Equal(t, float64(4), *active.Stats.Sum)
}

func TestBuilderRowMismatch(t *testing.T) {
	_, err := NewBuilder(4).
		AddNumber("a", []float64{1, 2}).
		AddNumber("b", []float64{1}).
		Build()
	require.True(t, taberr.IsCode(err, taberr.ErrInvalidInput))
}

func TestFilterByMask(t *testing.T) {
	tbl := buildTestTable(t, 3)

	mask := bitmap.FromRows(7, []int64{0, 3, 6})
	out, err := tbl.FilterByMask(mask)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.Rows())
	require.Equal(t, tbl.NumCols(), out.NumCols())

	// row order preserved
	score, _ := out.Column(0)
	for i, want := range []float64{1, 4, 7} {
		s, err := score.Get(out, int64(i))
		require.NoError(t, err)
		require.Equal(t, want, s.F64)
	}

	// dictionary object is shared, not copied
	src, _ := tbl.Column(1)
	dst, _ := out.Column(1)
	require.True(t, src.Dict == dst.Dict)
}

func TestFilterByMaskExtremes(t *testing.T) {
	tbl := buildTestTable(t, 3)

	all, err := tbl.FilterByMask(bitmap.NewFull(7))
	require.NoError(t, err)
	require.Equal(t, tbl.Rows(), all.Rows())
	sa, _ := all.ToGrid()
	sb, _ := tbl.ToGrid()
	require.Equal(t, sb.Rows, sa.Rows)

	none, err := tbl.FilterByMask(bitmap.New(7))
	require.NoError(t, err)
	require.Equal(t, int64(0), none.Rows())
	require.Equal(t, tbl.NumCols(), none.NumCols())

	_, err = tbl.FilterByMask(bitmap.New(5))
	require.True(t, taberr.IsCode(err, taberr.ErrInternal))
}

func TestToGridAndCellString(t *testing.T) {
	tbl := buildTestTable(t, 3)
	g, err := tbl.ToGrid()
	require.NoError(t, err)
	require.Equal(t, []string{"score", "name", "active"}, g.Names)
	require.Len(t, g.Rows, 7)

	require.Equal(t, "ann", tbl.CellString(1, g.Rows[0][1]))
	require.Equal(t, "NULL", tbl.CellString(1, g.Rows[2][1]))
}
