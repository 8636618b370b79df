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

// Package filter evaluates predicate trees against columnar tables and
// produces row bitmaps. Evaluation is two-valued at the surface: a row
// is selected iff its predicate result is definitely true, so NULL
// comparisons never select. Trees containing Not are routed through a
// Kleene three-valued evaluator internally so that negation cannot
// promote an unknown to true.
package filter

import (
	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Evaluate returns the selection bitmap of expr over tbl. Bit i is set
// iff row i definitely satisfies the predicate.
func Evaluate(tbl *table.Table, expr Expr) (*bitmap.Bitmap, error) {
	if err := validate(tbl, expr); err != nil {
		return nil, err
	}
	expr = rewrite(tbl, expr)
	if containsNot(expr) {
		t, _ := evalKleene(tbl, expr)
		return t, nil
	}
	return eval2(tbl, expr), nil
}

// rewrite pushes Not through leaves where the complement is exact under
// three-valued semantics, so trees drop onto the two-valued fast path
// and its statistics pruning whenever possible.
func rewrite(tbl *table.Table, e Expr) Expr {
	switch x := e.(type) {
	case *And:
		return &And{L: rewrite(tbl, x.L), R: rewrite(tbl, x.R)}
	case *Or:
		return &Or{L: rewrite(tbl, x.L), R: rewrite(tbl, x.R)}
	case *Not:
		inner := rewrite(tbl, x.X)
		if neg, ok := negateLeaf(tbl, inner); ok {
			return neg
		}
		return &Not{X: inner}
	default:
		return e
	}
}

// negateLeaf returns the exact complement of a leaf when one exists.
// A relational compare on a Number column has none: a NaN value fails
// both the comparison and its negation, so negating the operator would
// wrongly select NaN rows.
func negateLeaf(tbl *table.Table, e Expr) (Expr, bool) {
	switch x := e.(type) {
	case *Not:
		return x.X, true
	case *IsNull:
		return &IsNotNull{Col: x.Col}, true
	case *IsNotNull:
		return &IsNull{Col: x.Col}, true
	case *Compare:
		if x.Op != types.Eq && x.Op != types.Ne &&
			tbl.Columns()[x.Col].Typ == types.T_number {
			return nil, false
		}
		return &Compare{Col: x.Col, Op: x.Op.Negate(), Lit: x.Lit}, true
	case *CompareFold:
		return &CompareFold{Col: x.Col, Op: x.Op.Negate(), Lit: x.Lit}, true
	}
	return nil, false
}

// Rows returns the selected row indices in ascending order.
func Rows(tbl *table.Table, expr Expr) ([]int64, error) {
	mask, err := Evaluate(tbl, expr)
	if err != nil {
		return nil, err
	}
	return mask.ToI64Array(), nil
}

// FilterTable evaluates expr and materializes the selected rows as a
// new table, preserving row order and sharing dictionaries.
func FilterTable(tbl *table.Table, expr Expr) (*table.Table, error) {
	mask, err := Evaluate(tbl, expr)
	if err != nil {
		return nil, err
	}
	return tbl.FilterByMask(mask)
}

// eval2 is the two-valued evaluator. It never sees Not; the second
// operand of a conjunction or disjunction is skipped whenever the
// first one already fixes the result.
func eval2(tbl *table.Table, e Expr) *bitmap.Bitmap {
	switch x := e.(type) {
	case *And:
		l := eval2(tbl, x.L)
		if l.IsEmpty() {
			return l
		}
		l.And(eval2(tbl, x.R))
		return l
	case *Or:
		l := eval2(tbl, x.L)
		if l.IsFull() {
			return l
		}
		l.Or(eval2(tbl, x.R))
		return l
	case *Compare:
		return evalCompare(tbl, x)
	case *CompareFold:
		return evalFold(tbl, x)
	case *IsNull:
		return nullMask(tbl, x.Col)
	case *IsNotNull:
		return validMask(tbl, x.Col)
	default:
		panic("filter: unreachable expression")
	}
}

// validMask returns the rows of col that are not NULL. The null-count
// statistic settles the all-valid case in O(1).
func validMask(tbl *table.Table, col int) *bitmap.Bitmap {
	return validMaskOf(tbl, tbl.Columns()[col])
}

func nullMask(tbl *table.Table, col int) *bitmap.Bitmap {
	m := validMask(tbl, col)
	m.Negate()
	return m
}
