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
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/dict"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Builder assembles a table column by column. Columns may be appended in any
// order; Build validates that they agree on row count.
type Builder struct {
	pageSize int
	compress bool
	cols     []*Column
	rows     []int
}

func NewBuilder(pageSize int) *Builder {
	if pageSize <= 0 {
		pageSize = 8192
	}
	return &Builder{pageSize: pageSize}
}

// Compress enables lz4 compression of Number pages built from here on.
func (b *Builder) Compress(on bool) *Builder {
	b.compress = on
	return b
}

// AddScalarColumn appends a column from pre-typed scalars. For string
// columns the scalars must be dictionary indices into d.
func (b *Builder) AddScalarColumn(name string, typ types.T, d *dict.Dictionary, scalars []types.Scalar) *Builder {
	b.cols = append(b.cols, buildColumn(name, typ, d, scalars, b.pageSize, b.compress))
	b.rows = append(b.rows, len(scalars))
	return b
}

// AddNumber appends a Number column; NaN inputs are kept, use AddNumberNullable
// for nulls.
func (b *Builder) AddNumber(name string, values []float64) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		scalars[i] = types.NewFloat64(v)
	}
	return b.AddScalarColumn(name, types.T_number, nil, scalars)
}

// AddNumberNullable appends a Number column with nil entries as NULL.
func (b *Builder) AddNumberNullable(name string, values []*float64) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		if v == nil {
			scalars[i] = types.Null()
		} else {
			scalars[i] = types.NewFloat64(*v)
		}
	}
	return b.AddScalarColumn(name, types.T_number, nil, scalars)
}

// AddBool appends a Boolean column.
func (b *Builder) AddBool(name string, values []bool) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		scalars[i] = types.NewBool(v)
	}
	return b.AddScalarColumn(name, types.T_bool, nil, scalars)
}

// AddBoolNullable appends a Boolean column with nil entries as NULL.
func (b *Builder) AddBoolNullable(name string, values []*bool) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		if v == nil {
			scalars[i] = types.Null()
		} else {
			scalars[i] = types.NewBool(*v)
		}
	}
	return b.AddScalarColumn(name, types.T_bool, nil, scalars)
}

// AddInt appends an integer-like column of the given type (DateTime,
// Currency or Percentage).
func (b *Builder) AddInt(name string, typ types.T, values []int64) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		scalars[i] = types.NewInt64(v)
	}
	return b.AddScalarColumn(name, typ, nil, scalars)
}

// AddString appends a String column, building its dictionary from the
// distinct values. nil entries are NULL.
func (b *Builder) AddString(name string, values []*string) *Builder {
	db := dict.NewBuilder()
	for _, v := range values {
		if v != nil {
			db.Add(*v)
		}
	}
	d := db.Build()
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		if v == nil {
			scalars[i] = types.Null()
		} else {
			ix, _ := d.Lookup(*v)
			scalars[i] = types.NewDictIndex(ix)
		}
	}
	return b.AddScalarColumn(name, types.T_string, d, scalars)
}

// AddStringShared appends a String column whose scalars index an existing
// shared dictionary. Used when two tables must share one dictionary object.
func (b *Builder) AddStringShared(name string, d *dict.Dictionary, values []*string) *Builder {
	scalars := make([]types.Scalar, len(values))
	for i, v := range values {
		if v == nil {
			scalars[i] = types.Null()
			continue
		}
		ix, ok := d.Lookup(*v)
		if !ok {
			// treat out-of-dictionary values as NULL rather than
			// growing a dictionary someone else shares
			scalars[i] = types.Null()
			continue
		}
		scalars[i] = types.NewDictIndex(ix)
	}
	return b.AddScalarColumn(name, types.T_string, d, scalars)
}

// Build validates column lengths and freezes the table.
func (b *Builder) Build() (*Table, error) {
	var rows int
	for i, n := range b.rows {
		if i == 0 {
			rows = n
		} else if n != rows {
			return nil, taberr.NewInvalidInput("column %q has %d rows, expected %d", b.cols[i].Name, n, rows)
		}
	}
	return &Table{rows: int64(rows), pageSize: b.pageSize, cols: b.cols}, nil
}
