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

// Package agg implements the streaming aggregate functions used by
// group-by execution. An Aggregator keeps one running state per group
// and never buffers input rows; callers grow the group count as new
// groups appear and feed decoded cells one at a time.
package agg

import (
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
)

// Kind identifies an aggregate function.
type Kind uint8

const (
	// Count counts every row of the group, NULL or not. It binds to no
	// column.
	Count Kind = iota
	// CountColumn counts the non-null values of its column.
	CountColumn
	// CountNumbers counts the numeric values of its column; booleans
	// and NULLs do not count.
	CountNumbers
	Sum
	Avg
	Min
	Max
	// DistinctCount counts distinct non-null values. NaNs collapse to
	// one value and the two zero signs to another.
	DistinctCount
	// Var is the sample variance, VarPop the population variance, and
	// StdDev/StdDevPop their square roots. All four run Welford's
	// online recurrence.
	Var
	VarPop
	StdDev
	StdDevPop
)

func (k Kind) String() string {
	switch k {
	case Count:
		return "count"
	case CountColumn:
		return "counta"
	case CountNumbers:
		return "countnumbers"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Min:
		return "min"
	case Max:
		return "max"
	case DistinctCount:
		return "distinctcount"
	case Var:
		return "var"
	case VarPop:
		return "varp"
	case StdDev:
		return "stdev"
	case StdDevPop:
		return "stdevp"
	}
	return "unknown"
}

// Aggregator accumulates one aggregate over any number of groups.
// Implementations are not safe for concurrent use.
type Aggregator interface {
	// Grows extends the state to n groups. Shrinking is not supported.
	Grows(n int)
	// Fill folds one cell of the bound column into group ix.
	Fill(ix int, s types.Scalar)
	// Eval emits the per-group results. The aggregator must not be
	// filled afterwards.
	Eval() []types.Scalar
}

// Compatible reports whether kind accepts a column of the given type.
// String columns only support the counting aggregates; every other
// function needs an ordered or numeric domain. Boolean columns pass
// the numeric functions but contribute no numeric values, so those
// groups evaluate to NULL.
func Compatible(kind Kind, typ types.T) error {
	switch kind {
	case Count, CountColumn, DistinctCount:
		return nil
	case Min, Max, Sum, Avg, CountNumbers, Var, VarPop, StdDev, StdDevPop:
		if typ == types.T_string {
			return taberr.NewUnsupportedColumnType(kind.String(), typ.String())
		}
		return nil
	}
	return taberr.NewInternal("unknown aggregate kind")
}

// ResultType is the logical type of the output column kind produces
// over a column of type typ.
func ResultType(kind Kind, typ types.T) types.T {
	switch kind {
	case Min, Max:
		return typ
	case Sum:
		if typ.IsIntegerLike() {
			return typ
		}
		return types.T_number
	default:
		return types.T_number
	}
}

// New builds the aggregator for kind over a column of type typ. Count
// ignores typ. The column type must already have passed Compatible.
func New(kind Kind, typ types.T) (Aggregator, error) {
	if kind != Count {
		if err := Compatible(kind, typ); err != nil {
			return nil, err
		}
	}
	switch kind {
	case Count:
		return &countAgg{countNulls: true}, nil
	case CountColumn:
		return &countAgg{}, nil
	case CountNumbers:
		return &countAgg{numbersOnly: true}, nil
	case Sum:
		return &sumAgg{typ: typ}, nil
	case Avg:
		return &avgAgg{}, nil
	case Min:
		return &minMaxAgg{typ: typ}, nil
	case Max:
		return &minMaxAgg{typ: typ, max: true}, nil
	case DistinctCount:
		return &distinctAgg{}, nil
	case Var:
		return &varAgg{sample: true}, nil
	case VarPop:
		return &varAgg{}, nil
	case StdDev:
		return &varAgg{sample: true, sqrt: true}, nil
	case StdDevPop:
		return &varAgg{sqrt: true}, nil
	}
	return nil, taberr.NewInternal("unknown aggregate kind")
}
