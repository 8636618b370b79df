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

// Package nulls tracks the NULL rows of one column page. A nil or empty set
// means the page has no nulls, so fully-valid pages carry no bitmap at all.
package nulls

import (
	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
)

type Nulls struct {
	Np *bitmap.Bitmap
}

// Build returns a null set of capacity n containing the given rows, or an
// empty set when rows is empty.
func Build(n int64, rows ...uint64) *Nulls {
	nsp := &Nulls{}
	if len(rows) == 0 {
		return nsp
	}
	nsp.Np = bitmap.New(n)
	for _, row := range rows {
		nsp.Np.Add(row)
	}
	return nsp
}

// Any reports whether nsp contains at least one null row.
func Any(nsp *Nulls) bool {
	return nsp != nil && nsp.Np != nil && !nsp.Np.IsEmpty()
}

// Contains reports whether row is null.
func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(row)
}

// Count returns the number of null rows.
func Count(nsp *Nulls) int {
	if nsp == nil || nsp.Np == nil {
		return 0
	}
	return nsp.Np.Count()
}

// All reports whether every one of the n rows is null.
func All(nsp *Nulls, n int) bool {
	return Count(nsp) == n
}

func (nsp *Nulls) Add(n int64, rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	if nsp.Np == nil {
		nsp.Np = bitmap.New(n)
	}
	for _, row := range rows {
		nsp.Np.Add(row)
	}
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil {
		return nil
	}
	return &Nulls{Np: nsp.Np.Clone()}
}
