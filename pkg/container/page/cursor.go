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
	"github.com/wilson-anysphere/tabular/pkg/container/nulls"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Cursor decodes one page into a sequence of scalars. It owns a scratch
// buffer so compressed float pages are decompressed once per page, not once
// per row.
type Cursor struct {
	page    Page
	row     int
	floats  []float64
	scratch []float64
}

func NewCursor(p Page) *Cursor {
	c := &Cursor{}
	c.Reset(p)
	return c
}

// Reset rebinds the cursor to another page, reusing the scratch buffer.
func (c *Cursor) Reset(p Page) {
	c.page = p
	c.row = 0
	c.floats = nil
	if fp, ok := p.(*FloatPage); ok {
		if fp.Compressed() {
			// decompress once into scratch; scratch is owned by this
			// cursor, never by the page
			c.scratch = fp.Values(c.scratch)
			c.floats = c.scratch
		} else {
			c.floats = fp.Values(nil)
		}
	}
}

// Seek positions the cursor at row.
func (c *Cursor) Seek(row int) {
	c.row = row
}

// Next decodes the scalar at the current position and advances. ok is false
// past the end of the page.
func (c *Cursor) Next() (types.Scalar, bool) {
	if c.row >= c.page.Rows() {
		return types.Null(), false
	}
	s := c.Get(c.row)
	c.row++
	return s, true
}

// Get decodes the scalar at row without moving the cursor.
func (c *Cursor) Get(row int) types.Scalar {
	if c.floats != nil {
		if nulls.Contains(c.page.Nulls(), uint64(row)) {
			return types.Null()
		}
		return types.NewFloat64(c.floats[row])
	}
	return Decode(c.page, row, nil)
}
