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

// Package load imports CSV data into tables. Parsing runs on simdcsv
// in batches; column types are inferred from the cell contents unless
// the caller fixes them. Empty cells load as NULL.
package load

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matrixorigin/simdcsv"
	"github.com/pierrec/lz4"
	"go.uber.org/zap"

	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/config"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
	"github.com/wilson-anysphere/tabular/pkg/logutil"
)

const batchRows = 4000

// Options controls one CSV import.
type Options struct {
	// PageSize is the page stride of the built table; zero picks the
	// config default.
	PageSize int
	// Compress block-compresses Number pages.
	Compress bool
	// Header consumes the first record as column names.
	Header bool
	// Types fixes the column types instead of inferring them. When
	// set, its length must match the column count.
	Types []types.T
}

// File loads a CSV file; a .lz4 suffix selects frame decompression.
func File(ctx context.Context, path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, taberr.NewInvalidInput("open %s: %v", path, err)
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".lz4") {
		r = lz4.NewReader(f)
	}
	tbl, err := FromReader(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	logutil.Debug("csv loaded",
		zap.String("path", path), zap.Int64("rows", tbl.Rows()))
	return tbl, nil
}

// FromReader loads CSV content from r.
func FromReader(ctx context.Context, r io.Reader, opts Options) (*table.Table, error) {
	reader := simdcsv.NewReaderWithOptions(r, ',', '#', true, true)
	var records [][]string
	buf := make([][]string, batchRows)
	for {
		out, cnt, err := reader.Read(batchRows, ctx, buf)
		if err != nil {
			return nil, taberr.NewInvalidInput("csv read: %v", err)
		}
		for i := 0; i < cnt; i++ {
			row := make([]string, len(out[i]))
			copy(row, out[i])
			records = append(records, row)
		}
		if cnt < batchRows {
			break
		}
	}
	if len(records) == 0 {
		return nil, taberr.NewInvalidInput("csv input is empty")
	}

	var names []string
	if opts.Header {
		names = records[0]
		records = records[1:]
	} else {
		names = make([]string, len(records[0]))
		for i := range names {
			names[i] = "col" + strconv.Itoa(i)
		}
	}
	for i, rec := range records {
		if len(rec) != len(names) {
			return nil, taberr.NewInvalidInput(
				"record %d has %d fields, want %d", i, len(rec), len(names))
		}
	}

	colTypes := opts.Types
	if colTypes == nil {
		colTypes = make([]types.T, len(names))
		for j := range names {
			colTypes[j] = inferType(records, j)
		}
	} else if len(colTypes) != len(names) {
		return nil, taberr.NewInvalidInput(
			"%d column types for %d columns", len(colTypes), len(names))
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	b := table.NewBuilder(pageSize).Compress(opts.Compress)
	for j, name := range names {
		if err := addColumn(b, name, colTypes[j], records, j); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// inferType picks Boolean over Number over String, judging non-empty
// cells only. An all-empty column loads as String.
func inferType(records [][]string, col int) types.T {
	allBool, allNum, seen := true, true, false
	for _, rec := range records {
		cell := rec[col]
		if cell == "" {
			continue
		}
		seen = true
		if _, ok := parseBool(cell); !ok {
			allBool = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allNum = false
		}
		if !allBool && !allNum {
			return types.T_string
		}
	}
	switch {
	case !seen:
		return types.T_string
	case allBool:
		return types.T_bool
	default:
		return types.T_number
	}
}

func parseBool(cell string) (bool, bool) {
	switch strings.ToLower(cell) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDatetime(cell string) (int64, bool) {
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts.Unix(), true
		}
	}
	return 0, false
}

func addColumn(b *table.Builder, name string, typ types.T, records [][]string, col int) error {
	switch typ {
	case types.T_number:
		vals := make([]*float64, len(records))
		for i, rec := range records {
			cell := rec[col]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return taberr.NewInvalidInput("column %s row %d: %q is not a number", name, i, cell)
			}
			vals[i] = &v
		}
		b.AddNumberNullable(name, vals)
	case types.T_bool:
		vals := make([]*bool, len(records))
		for i, rec := range records {
			cell := rec[col]
			if cell == "" {
				continue
			}
			v, ok := parseBool(cell)
			if !ok {
				return taberr.NewInvalidInput("column %s row %d: %q is not a boolean", name, i, cell)
			}
			vals[i] = &v
		}
		b.AddBoolNullable(name, vals)
	case types.T_string:
		vals := make([]*string, len(records))
		for i, rec := range records {
			if rec[col] == "" {
				continue
			}
			cell := rec[col]
			vals[i] = &cell
		}
		b.AddString(name, vals)
	case types.T_datetime:
		scalars := make([]types.Scalar, len(records))
		for i, rec := range records {
			cell := rec[col]
			if cell == "" {
				scalars[i] = types.Null()
				continue
			}
			ts, ok := parseDatetime(cell)
			if !ok {
				return taberr.NewInvalidInput("column %s row %d: %q is not a datetime", name, i, cell)
			}
			scalars[i] = types.NewInt64(ts)
		}
		b.AddScalarColumn(name, typ, nil, scalars)
	case types.T_currency, types.T_percentage:
		// fixed-point columns import as raw base units
		scalars := make([]types.Scalar, len(records))
		for i, rec := range records {
			cell := rec[col]
			if cell == "" {
				scalars[i] = types.Null()
				continue
			}
			v, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return taberr.NewInvalidInput("column %s row %d: %q is not an integer", name, i, cell)
			}
			scalars[i] = types.NewInt64(v)
		}
		b.AddScalarColumn(name, typ, nil, scalars)
	default:
		return taberr.NewUnsupportedColumnType("csv import", typ.String())
	}
	return nil
}
