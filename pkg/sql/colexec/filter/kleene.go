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

package filter

import (
	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
)

// evalKleene evaluates e under Kleene three-valued logic and returns
// the true and unknown masks; a row in neither mask is definitely
// false. Negation flips true and false but leaves unknown in place,
// which is why trees containing Not cannot use the two-valued
// evaluator: NOT(unknown) must stay unknown rather than become true.
//
// A comparison leaf is unknown exactly on the NULL rows of its column;
// NaN mismatches are ordinary false, and the null tests are never
// unknown.
func evalKleene(tbl *table.Table, e Expr) (t, u *bitmap.Bitmap) {
	switch x := e.(type) {
	case *Not:
		ct, cu := evalKleene(tbl, x.X)
		f := falseMask(ct, cu)
		return f, cu
	case *And:
		lt, lu := evalKleene(tbl, x.L)
		rt, ru := evalKleene(tbl, x.R)
		f := falseMask(lt, lu)
		f.Or(falseMask(rt, ru))
		lt.And(rt)
		u = unknownMask(lt, f)
		return lt, u
	case *Or:
		lt, lu := evalKleene(tbl, x.L)
		rt, ru := evalKleene(tbl, x.R)
		f := falseMask(lt, lu)
		f.And(falseMask(rt, ru))
		lt.Or(rt)
		u = unknownMask(lt, f)
		return lt, u
	case *IsNull:
		return nullMask(tbl, x.Col), bitmap.New(tbl.Rows())
	case *IsNotNull:
		return validMask(tbl, x.Col), bitmap.New(tbl.Rows())
	case *Compare:
		return evalCompare(tbl, x), nullMask(tbl, x.Col)
	case *CompareFold:
		return evalFold(tbl, x), nullMask(tbl, x.Col)
	default:
		panic("filter: unreachable expression")
	}
}

func falseMask(t, u *bitmap.Bitmap) *bitmap.Bitmap {
	f := t.Clone()
	f.Or(u)
	f.Negate()
	return f
}

func unknownMask(t, f *bitmap.Bitmap) *bitmap.Bitmap {
	u := t.Clone()
	u.Or(f)
	u.Negate()
	return u
}
