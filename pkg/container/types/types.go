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

// Package types defines the logical column types of a table and the Scalar,
// the canonical decoded-cell representation shared by every engine.
package types

// T is the logical type of a column.
type T uint8

const (
	T_number T = iota
	T_string
	T_bool
	T_datetime
	T_currency
	T_percentage
)

var typeNames = [...]string{
	T_number:     "Number",
	T_string:     "String",
	T_bool:       "Boolean",
	T_datetime:   "DateTime",
	T_currency:   "Currency",
	T_percentage: "Percentage",
}

func (t T) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// IsIntegerLike reports whether values of this type are stored and compared
// as 64-bit integers.
func (t T) IsIntegerLike() bool {
	switch t {
	case T_datetime, T_currency, T_percentage:
		return true
	}
	return false
}

// IsNumeric reports whether values of this type participate in numeric
// aggregation (Sum, Avg, CountNumbers, variance).
func (t T) IsNumeric() bool {
	return t == T_number || t.IsIntegerLike()
}

// CompareOp is a filter comparison operator.
type CompareOp uint8

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opNames = [...]string{
	Eq: "=",
	Ne: "<>",
	Lt: "<",
	Le: "<=",
	Gt: ">",
	Ge: ">=",
}

func (op CompareOp) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Negate returns the complementary operator, used when rewriting NOT over a
// comparison is not possible and the tri-state path derives false masks.
func (op CompareOp) Negate() CompareOp {
	switch op {
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Le:
		return Gt
	case Gt:
		return Le
	default:
		return Lt
	}
}
