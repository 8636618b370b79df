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

// Package table implements the in-memory columnar table: a fixed page
// stride, one encoded page sequence per column, optional per-column
// statistics and a shared dictionary per string column. Tables are immutable
// once built; every engine takes shared references and never mutates them.
package table

import (
	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/dict"
	"github.com/wilson-anysphere/tabular/pkg/container/nulls"
	"github.com/wilson-anysphere/tabular/pkg/container/page"
	"github.com/wilson-anysphere/tabular/pkg/container/stats"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Column is one named, typed, paged column.
type Column struct {
	Name  string
	Typ   types.T
	Dict  *dict.Dictionary // non-nil iff Typ is T_string
	Pages []page.Page
	Stats *stats.Column // optional
}

type Table struct {
	rows     int64
	pageSize int
	cols     []*Column
}

func (t *Table) Rows() int64 {
	return t.rows
}

// PageSize returns the fixed row stride of the table's pages; only the last
// page of a column may be shorter.
func (t *Table) PageSize() int {
	return t.pageSize
}

func (t *Table) NumCols() int {
	return len(t.cols)
}

// Column returns column ix, range-checked.
func (t *Table) Column(ix int) (*Column, error) {
	if ix < 0 || ix >= len(t.cols) {
		return nil, taberr.NewColumnIndexOutOfRange(ix, len(t.cols))
	}
	return t.cols[ix], nil
}

// Columns returns the backing column slice. Callers must not mutate it.
func (t *Table) Columns() []*Column {
	return t.cols
}

// NumPages returns the number of pages per column.
func (t *Table) NumPages() int {
	if t.rows == 0 {
		return 0
	}
	return int((t.rows + int64(t.pageSize) - 1) / int64(t.pageSize))
}

// PageBounds returns the [start, end) row range of page p.
func (t *Table) PageBounds(p int) (int64, int64) {
	start := int64(p) * int64(t.pageSize)
	end := start + int64(t.pageSize)
	if end > t.rows {
		end = t.rows
	}
	return start, end
}

// Get decodes one cell. This is the convenience path; engines scan pages
// with cursors instead.
func (c *Column) Get(t *Table, row int64) (types.Scalar, error) {
	if row < 0 || row >= t.rows {
		return types.Null(), taberr.NewRowIndexOutOfRange(row, t.rows)
	}
	p := int(row) / t.pageSize
	off := int(row) % t.pageSize
	return page.Decode(c.Pages[p], off, nil), nil
}

// Reader decodes cells of one column through a page cursor. The cursor
// keeps the current page decoded, so walking rows in page order touches
// each page once even when the payload is compressed. A Reader is
// single-caller scan state; the table itself stays read-only.
type Reader struct {
	t    *Table
	col  *Column
	page int
	cur  *page.Cursor
}

// Reader returns a cursor-backed reader over c.
func (c *Column) Reader(t *Table) *Reader {
	return &Reader{t: t, col: c, page: -1, cur: new(page.Cursor)}
}

// Get decodes one cell, rebinding the cursor when row lands on another
// page.
func (r *Reader) Get(row int64) (types.Scalar, error) {
	if row < 0 || row >= r.t.rows {
		return types.Null(), taberr.NewRowIndexOutOfRange(row, r.t.rows)
	}
	p := int(row) / r.t.pageSize
	if p != r.page {
		r.cur.Reset(r.col.Pages[p])
		r.page = p
	}
	return r.cur.Get(int(row) % r.t.pageSize), nil
}

// buildColumn slices scalars into pages of the table stride, choosing the
// page encoding per type and collecting statistics. For string columns d
// is the (possibly shared) dictionary the scalars' indices refer to.
func buildColumn(name string, typ types.T, d *dict.Dictionary, scalars []types.Scalar, pageSize int, compress bool) *Column {
	col := &Column{Name: name, Typ: typ, Dict: d}
	sb := stats.NewBuilder(typ, d)
	for _, s := range scalars {
		sb.Add(s)
	}

	for start := 0; start < len(scalars); start += pageSize {
		end := start + pageSize
		if end > len(scalars) {
			end = len(scalars)
		}
		col.Pages = append(col.Pages, buildPage(typ, scalars[start:end], compress))
	}
	col.Stats = sb.Build()
	return col
}

func buildPage(typ types.T, scalars []types.Scalar, compress bool) page.Page {
	n := int64(len(scalars))
	nsp := &nulls.Nulls{}
	for i, s := range scalars {
		if s.IsNull() {
			nsp.Add(n, uint64(i))
		}
	}
	if !nulls.Any(nsp) {
		// absent validity means provably no nulls
		nsp = nil
	}

	switch typ {
	case types.T_number:
		values := make([]float64, len(scalars))
		for i, s := range scalars {
			if !s.IsNull() {
				values[i] = s.F64
			}
		}
		if compress {
			return page.NewCompressedFloatPage(values, nsp)
		}
		return page.NewFloatPage(values, nsp)
	case types.T_bool:
		values := make([]bool, len(scalars))
		for i, s := range scalars {
			if !s.IsNull() {
				values[i] = s.B
			}
		}
		return page.NewBoolPage(values, nsp)
	case types.T_datetime, types.T_currency, types.T_percentage:
		values := make([]int64, len(scalars))
		for i, s := range scalars {
			if !s.IsNull() {
				values[i] = s.I64
			}
		}
		if runFriendly(len(scalars), intRuns(values)) {
			return page.NewIntPageRLE(values, nsp)
		}
		return page.NewIntPagePacked(values, nsp)
	case types.T_string:
		values := make([]uint32, len(scalars))
		for i, s := range scalars {
			if !s.IsNull() {
				values[i] = s.Dict
			}
		}
		if runFriendly(len(scalars), dictRuns(values)) {
			return page.NewDictPageRLE(values, nsp)
		}
		return page.NewDictPagePacked(values, nsp)
	}
	return nil
}

// runFriendly picks RLE when the sequence averages at least four rows per
// run.
func runFriendly(rows, runs int) bool {
	return rows > 0 && runs*4 <= rows
}

func intRuns(values []int64) int {
	runs := 0
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			runs++
		}
	}
	return runs
}

func dictRuns(values []uint32) int {
	runs := 0
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			runs++
		}
	}
	return runs
}

// FilterByMask returns a new table containing only the masked rows, in row
// order, with identical schema. String columns keep sharing the source
// dictionary object, so joins between source and filtered tables take the
// identity fast path.
func (t *Table) FilterByMask(mask *bitmap.Bitmap) (*Table, error) {
	if mask.Len() != t.rows {
		return nil, taberr.NewInternal("mask length %d does not match row count %d", mask.Len(), t.rows)
	}
	rows := mask.ToI64Array()
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		rd := c.Reader(t)
		scalars := make([]types.Scalar, len(rows))
		for j, row := range rows {
			s, err := rd.Get(row)
			if err != nil {
				return nil, err
			}
			scalars[j] = s
		}
		cols[i] = buildColumn(c.Name, c.Typ, c.Dict, scalars, t.pageSize, false)
	}
	return &Table{rows: int64(len(rows)), pageSize: t.pageSize, cols: cols}, nil
}
