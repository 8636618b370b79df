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

// Package taberr defines the closed set of structured errors returned by the
// query engines. Every entry point either succeeds or returns one of these;
// malformed caller input never panics.
package taberr

import "fmt"

const (
	// Group 1: internal errors
	ErrInternal uint16 = 20101

	// Group 2: invalid caller input
	ErrColumnIndexOutOfRange uint16 = 20201
	ErrRowIndexOutOfRange    uint16 = 20202
	ErrUnsupportedColumnType uint16 = 20203
	ErrJoinKeyCountMismatch  uint16 = 20204
	ErrJoinKeyTypeMismatch   uint16 = 20205
	ErrMissingDictionary     uint16 = 20206
	ErrEmptyKeyList          uint16 = 20207
	ErrEngineFinished        uint16 = 20208

	// Group 3: import / configuration
	ErrBadConfig    uint16 = 20301
	ErrInvalidInput uint16 = 20302
)

// Error carries a stable error code plus a rendered message.
type Error struct {
	code uint16
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Code() uint16 {
	return e.code
}

// Is matches two taberr errors by code, so callers can test with errors.Is
// against a template error of the same kind.
func (e *Error) Is(other error) bool {
	t, ok := other.(*Error)
	return ok && t.code == e.code
}

func newError(code uint16, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a taberr error with the given code.
func IsCode(err error, code uint16) bool {
	e, ok := err.(*Error)
	return ok && e.code == code
}

func NewInternal(format string, args ...any) *Error {
	return newError(ErrInternal, "internal error: "+format, args...)
}

func NewColumnIndexOutOfRange(idx, count int) *Error {
	return newError(ErrColumnIndexOutOfRange, "column index %d out of range, table has %d columns", idx, count)
}

func NewRowIndexOutOfRange(idx, count int64) *Error {
	return newError(ErrRowIndexOutOfRange, "row index %d out of range, table has %d rows", idx, count)
}

func NewUnsupportedColumnType(op string, typ string) *Error {
	return newError(ErrUnsupportedColumnType, "operation %s does not support column type %s", op, typ)
}

func NewJoinKeyCountMismatch(left, right int) *Error {
	return newError(ErrJoinKeyCountMismatch, "join key count mismatch: %d left keys, %d right keys", left, right)
}

func NewJoinKeyTypeMismatch(pos int, left, right string) *Error {
	return newError(ErrJoinKeyTypeMismatch, "join key %d type mismatch: left %s, right %s", pos, left, right)
}

func NewMissingDictionary(col int) *Error {
	return newError(ErrMissingDictionary, "string column %d has no dictionary", col)
}

func NewEmptyKeyList() *Error {
	return newError(ErrEmptyKeyList, "key column list is empty")
}

func NewEngineFinished(engine string) *Error {
	return newError(ErrEngineFinished, "%s already finished", engine)
}

func NewBadConfig(format string, args ...any) *Error {
	return newError(ErrBadConfig, "bad configuration: "+format, args...)
}

func NewInvalidInput(format string, args ...any) *Error {
	return newError(ErrInvalidInput, "invalid input: "+format, args...)
}
