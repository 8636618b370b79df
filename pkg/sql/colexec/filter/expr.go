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
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Expr is a predicate over the rows of a table. Leaves compare one
// column against a literal or test it for NULL; inner nodes combine
// child predicates. Expressions are immutable and safe to share.
type Expr interface {
	isExpr()
}

type And struct {
	L, R Expr
}

type Or struct {
	L, R Expr
}

type Not struct {
	X Expr
}

// Compare matches rows whose column value relates to the literal under
// Op. NULL values never match.
type Compare struct {
	Col int
	Op  types.CompareOp
	Lit Literal
}

// CompareFold is case-insensitive string equality or inequality. The
// fold is ASCII-only.
type CompareFold struct {
	Col int
	Op  types.CompareOp
	Lit string
}

// IsNull matches rows whose column value is NULL.
type IsNull struct {
	Col int
}

// IsNotNull matches rows whose column value is not NULL.
type IsNotNull struct {
	Col int
}

func (*And) isExpr()         {}
func (*Or) isExpr()          {}
func (*Not) isExpr()         {}
func (*Compare) isExpr()     {}
func (*CompareFold) isExpr() {}
func (*IsNull) isExpr()      {}
func (*IsNotNull) isExpr()   {}

// LitKind discriminates the payload of a Literal.
type LitKind uint8

const (
	LitNumber LitKind = iota
	LitInt
	LitBool
	LitString
)

// Literal is a typed constant on the right-hand side of a Compare.
type Literal struct {
	Kind LitKind
	F    float64
	I    int64
	B    bool
	S    string
}

func Number(f float64) Literal { return Literal{Kind: LitNumber, F: f} }
func Int(v int64) Literal      { return Literal{Kind: LitInt, I: v} }
func Bool(b bool) Literal      { return Literal{Kind: LitBool, B: b} }
func String(s string) Literal  { return Literal{Kind: LitString, S: s} }

func containsNot(e Expr) bool {
	switch x := e.(type) {
	case *Not:
		return true
	case *And:
		return containsNot(x.L) || containsNot(x.R)
	case *Or:
		return containsNot(x.L) || containsNot(x.R)
	default:
		return false
	}
}

// validate walks the tree once and rejects bad column indices,
// literal/column type mismatches and operators a column type does not
// support, before any page is touched.
func validate(tbl *table.Table, e Expr) error {
	switch x := e.(type) {
	case *And:
		if err := validate(tbl, x.L); err != nil {
			return err
		}
		return validate(tbl, x.R)
	case *Or:
		if err := validate(tbl, x.L); err != nil {
			return err
		}
		return validate(tbl, x.R)
	case *Not:
		return validate(tbl, x.X)
	case *Compare:
		col, err := tbl.Column(x.Col)
		if err != nil {
			return err
		}
		if col.Typ == types.T_string && col.Dict == nil {
			return taberr.NewMissingDictionary(x.Col)
		}
		return validateCompare(col.Typ, x.Op, x.Lit)
	case *CompareFold:
		col, err := tbl.Column(x.Col)
		if err != nil {
			return err
		}
		if col.Typ != types.T_string {
			return taberr.NewUnsupportedColumnType("case-insensitive compare", col.Typ.String())
		}
		if x.Op != types.Eq && x.Op != types.Ne {
			return taberr.NewUnsupportedColumnType("case-insensitive "+x.Op.String(), col.Typ.String())
		}
		if col.Dict == nil {
			return taberr.NewMissingDictionary(x.Col)
		}
		return nil
	case *IsNull:
		_, err := tbl.Column(x.Col)
		return err
	case *IsNotNull:
		_, err := tbl.Column(x.Col)
		return err
	default:
		return taberr.NewInternal("unknown filter expression")
	}
}

func validateCompare(typ types.T, op types.CompareOp, lit Literal) error {
	switch typ {
	case types.T_number:
		if lit.Kind != LitNumber {
			return taberr.NewUnsupportedColumnType("compare with non-numeric literal", typ.String())
		}
	case types.T_datetime, types.T_currency, types.T_percentage:
		if lit.Kind != LitInt {
			return taberr.NewUnsupportedColumnType("compare with non-integer literal", typ.String())
		}
	case types.T_bool:
		if lit.Kind != LitBool {
			return taberr.NewUnsupportedColumnType("compare with non-boolean literal", typ.String())
		}
		if op != types.Eq && op != types.Ne {
			return taberr.NewUnsupportedColumnType(op.String(), typ.String())
		}
	case types.T_string:
		if lit.Kind != LitString {
			return taberr.NewUnsupportedColumnType("compare with non-string literal", typ.String())
		}
		if op != types.Eq && op != types.Ne {
			return taberr.NewUnsupportedColumnType(op.String(), typ.String())
		}
	default:
		return taberr.NewUnsupportedColumnType("compare", typ.String())
	}
	return nil
}
