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

// Package group implements streaming group-by over a columnar table.
// A GroupBy is fed row sets in any order and any number of calls, then
// finished exactly once. Group ids are handed out in first-seen order
// and that order is the output row order; results are never sorted.
package group

import (
	"go.uber.org/zap"

	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/common/mathutil"
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/hashtable"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
	"github.com/wilson-anysphere/tabular/pkg/logutil"
	"github.com/wilson-anysphere/tabular/pkg/sql/colexec/agg"
)

// AggSpec binds one aggregate function to one input column. Count runs
// over whole rows and ignores Col.
type AggSpec struct {
	Kind agg.Kind
	Col  int
}

// GroupBy accumulates aggregates per distinct key tuple. It is owned
// by a single caller for its whole life; the source table is only ever
// read.
type GroupBy struct {
	tbl   *table.Table
	keys  []int
	specs []AggSpec
	aggs  []agg.Aggregator

	ht        *hashtable.StrHashMap
	groupRows []int64 // first source row of each group, for key output

	// distinct source columns to decode per row, shared between keys
	// and aggregates bound to the same column
	cols    []int
	readers []*table.Reader
	keyPos  []int
	aggPos  []int // -1 for Count
	scalars []types.Scalar
	keyBuf  []byte

	finished bool
}

// New validates the whole request up front; a GroupBy is never
// partially constructed.
func New(tbl *table.Table, keys []int, aggs []AggSpec) (*GroupBy, error) {
	if len(keys) == 0 {
		return nil, taberr.NewEmptyKeyList()
	}
	g := &GroupBy{tbl: tbl, keys: keys, specs: aggs}

	colPos := make(map[int]int)
	need := func(col int) int {
		if pos, ok := colPos[col]; ok {
			return pos
		}
		pos := len(g.cols)
		colPos[col] = pos
		g.cols = append(g.cols, col)
		return pos
	}

	for _, k := range keys {
		c, err := tbl.Column(k)
		if err != nil {
			return nil, err
		}
		if c.Typ == types.T_string && c.Dict == nil {
			return nil, taberr.NewMissingDictionary(k)
		}
		g.keyPos = append(g.keyPos, need(k))
	}

	for _, spec := range aggs {
		if spec.Kind == agg.Count {
			a, err := agg.New(spec.Kind, types.T_number)
			if err != nil {
				return nil, err
			}
			g.aggs = append(g.aggs, a)
			g.aggPos = append(g.aggPos, -1)
			continue
		}
		c, err := tbl.Column(spec.Col)
		if err != nil {
			return nil, err
		}
		a, err := agg.New(spec.Kind, c.Typ)
		if err != nil {
			return nil, err
		}
		g.aggs = append(g.aggs, a)
		g.aggPos = append(g.aggPos, need(spec.Col))
	}

	g.ht = hashtable.NewStrHashMap(capacityHint(tbl, keys))
	g.scalars = make([]types.Scalar, len(g.cols))
	g.readers = make([]*table.Reader, len(g.cols))
	for i, col := range g.cols {
		g.readers[i] = tbl.Columns()[col].Reader(tbl)
	}
	logutil.Debug("group-by created",
		zap.Int("keys", len(keys)), zap.Int("aggs", len(aggs)))
	return g, nil
}

// capacityHint multiplies the key columns' distinct counts, capped at
// the row count. Zero means unknown and leaves the table unsized.
func capacityHint(tbl *table.Table, keys []int) uint64 {
	hint := uint64(1)
	for _, k := range keys {
		c := tbl.Columns()[k]
		if c.Stats == nil || c.Stats.DistinctCount == nil || *c.Stats.DistinctCount < 0 {
			return 0
		}
		hint = mathutil.Min(hint*uint64(*c.Stats.DistinctCount), uint64(tbl.Rows()))
		if hint == uint64(tbl.Rows()) {
			return hint
		}
	}
	return hint
}

func (g *GroupBy) consumeRow(row int64) error {
	for i, rd := range g.readers {
		s, err := rd.Get(row)
		if err != nil {
			return err
		}
		g.scalars[i] = s
	}
	g.keyBuf = g.keyBuf[:0]
	for _, kp := range g.keyPos {
		g.keyBuf = g.scalars[kp].AppendKey(g.keyBuf)
	}
	id, isNew := g.ht.Insert(g.keyBuf)
	gid := int(id)
	if isNew {
		g.groupRows = append(g.groupRows, row)
		for _, a := range g.aggs {
			a.Grows(gid + 1)
		}
	}
	for i, a := range g.aggs {
		if pos := g.aggPos[i]; pos >= 0 {
			a.Fill(gid, g.scalars[pos])
		} else {
			a.Fill(gid, types.Null())
		}
	}
	return nil
}

func (g *GroupBy) check() error {
	if g.finished {
		return taberr.NewEngineFinished("group-by")
	}
	return nil
}

// ConsumeRows folds the given rows, in the given order.
func (g *GroupBy) ConsumeRows(rows []int64) error {
	if err := g.check(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := g.consumeRow(row); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeMask folds every set row of mask, ascending.
func (g *GroupBy) ConsumeMask(mask *bitmap.Bitmap) error {
	if err := g.check(); err != nil {
		return err
	}
	if mask.Len() != g.tbl.Rows() {
		return taberr.NewInternal(
			"mask length %d does not match row count %d", mask.Len(), g.tbl.Rows())
	}
	itr := mask.Iterator()
	for itr.HasNext() {
		if err := g.consumeRow(int64(itr.Next())); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeChunks folds the rows of pages [start, end).
func (g *GroupBy) ConsumeChunks(start, end int) error {
	if err := g.check(); err != nil {
		return err
	}
	if start < 0 || end < start || end > g.tbl.NumPages() {
		return taberr.NewInvalidInput(
			"page range [%d, %d) outside [0, %d)", start, end, g.tbl.NumPages())
	}
	for p := start; p < end; p++ {
		lo, hi := g.tbl.PageBounds(p)
		for row := lo; row < hi; row++ {
			if err := g.consumeRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// ConsumeAll folds every row of the table.
func (g *GroupBy) ConsumeAll() error {
	return g.ConsumeChunks(0, g.tbl.NumPages())
}

// Finish freezes the accumulation and materializes the result: the key
// columns in caller order, then one column per aggregate in caller
// order, one row per group in first-seen order. Finish is terminal; any
// later call on the engine errors.
func (g *GroupBy) Finish() (*Result, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	g.finished = true

	n := len(g.groupRows)
	b := table.NewBuilder(g.tbl.PageSize())

	for _, k := range g.keys {
		c := g.tbl.Columns()[k]
		rd := c.Reader(g.tbl)
		scalars := make([]types.Scalar, n)
		for i, row := range g.groupRows {
			s, err := rd.Get(row)
			if err != nil {
				return nil, err
			}
			// the group representative is the canonical key value, so
			// a group keyed on -0 reads back as +0
			scalars[i] = s.Canonical()
		}
		b.AddScalarColumn(c.Name, c.Typ, c.Dict, scalars)
	}

	for i, spec := range g.specs {
		name := spec.Kind.String() + "(*)"
		typ := types.T_number
		if g.aggPos[i] >= 0 {
			c := g.tbl.Columns()[spec.Col]
			name = spec.Kind.String() + "(" + c.Name + ")"
			typ = agg.ResultType(spec.Kind, c.Typ)
		}
		b.AddScalarColumn(name, typ, nil, g.aggs[i].Eval())
	}

	out, err := b.Build()
	if err != nil {
		return nil, err
	}
	logutil.Debug("group-by finished", zap.Int("groups", n))
	return &Result{out: out}, nil
}

// Result is the materialized group-by output.
type Result struct {
	out *table.Table
}

func (r *Result) NumGroups() int64 {
	return r.out.Rows()
}

// Table returns the output as a table sharing the source dictionaries.
func (r *Result) Table() *table.Table {
	return r.out
}

// Grid materializes the output as a generic scalar grid.
func (r *Result) Grid() (*table.Grid, error) {
	return r.out.ToGrid()
}
