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
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Grid is a fully materialized, row-major view of tabular values, the
// generic exchange format for engine results.
type Grid struct {
	Names []string
	Rows  [][]types.Scalar
}

// ToGrid decodes the whole table into a grid. String cells stay dictionary
// indices; use CellString to render them.
func (t *Table) ToGrid() (*Grid, error) {
	g := &Grid{
		Names: make([]string, len(t.cols)),
		Rows:  make([][]types.Scalar, t.rows),
	}
	readers := make([]*Reader, len(t.cols))
	for i, c := range t.cols {
		g.Names[i] = c.Name
		readers[i] = c.Reader(t)
	}
	for row := int64(0); row < t.rows; row++ {
		cells := make([]types.Scalar, len(t.cols))
		for i := range t.cols {
			s, err := readers[i].Get(row)
			if err != nil {
				return nil, err
			}
			cells[i] = s
		}
		g.Rows[row] = cells
	}
	return g, nil
}

// CellString renders one cell of column col for display, resolving
// dictionary indices through the column's dictionary.
func (t *Table) CellString(col int, s types.Scalar) string {
	if s.Kind == types.KindDictIndex {
		if c := t.cols[col]; c.Dict != nil && int(s.Dict) < c.Dict.Len() {
			return c.Dict.Get(s.Dict)
		}
	}
	return s.String()
}
