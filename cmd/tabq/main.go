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

// tabq loads CSV files and runs filter, group-by or join queries over
// them, printing the result as a text table.
//
//	tabq describe -file sales.csv
//	tabq filter   -file sales.csv -where 'amount>=100'
//	tabq group    -file sales.csv -by city -agg 'count,sum:amount'
//	tabq join     -left a.csv -right b.csv -on id=id -type inner
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/wilson-anysphere/tabular/pkg/config"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
	"github.com/wilson-anysphere/tabular/pkg/logutil"
	"github.com/wilson-anysphere/tabular/pkg/sql/colexec/agg"
	"github.com/wilson-anysphere/tabular/pkg/sql/colexec/filter"
	"github.com/wilson-anysphere/tabular/pkg/sql/colexec/group"
	"github.com/wilson-anysphere/tabular/pkg/sql/colexec/join"
	"github.com/wilson-anysphere/tabular/pkg/sql/load"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "describe":
		err = runDescribe(os.Args[2:])
	case "filter":
		err = runFilter(os.Args[2:])
	case "group":
		err = runGroup(os.Args[2:])
	case "join":
		err = runJoin(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "tabq:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tabq describe|filter|group|join [flags]")
}

func setup(fs *flag.FlagSet) *string {
	return fs.String("config", "", "toml config file")
}

func initConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := logutil.Setup(cfg.Log); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadTable(cfg config.Config, path string) (*table.Table, error) {
	return load.File(context.Background(), path, load.Options{
		PageSize: cfg.PageSize,
		Compress: cfg.CompressPages,
		Header:   true,
	})
}

func columnIndex(tbl *table.Table, name string) (int, error) {
	for i, c := range tbl.Columns() {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column named %q", name)
}

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	cfgPath := setup(fs)
	file := fs.String("file", "", "csv file")
	fs.Parse(args)

	cfg, err := initConfig(*cfgPath)
	if err != nil {
		return err
	}
	tbl, err := loadTable(cfg, *file)
	if err != nil {
		return err
	}

	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"column", "type", "nulls", "distinct"})
	for _, c := range tbl.Columns() {
		nulls, distinct := "?", "?"
		if c.Stats != nil {
			if c.Stats.NullCount != nil {
				nulls = strconv.FormatInt(*c.Stats.NullCount, 10)
			}
			if c.Stats.DistinctCount != nil {
				distinct = strconv.FormatInt(*c.Stats.DistinctCount, 10)
			}
		}
		w.Append([]string{c.Name, c.Typ.String(), nulls, distinct})
	}
	w.SetCaption(true, fmt.Sprintf("%d rows", tbl.Rows()))
	w.Render()
	return nil
}

func runFilter(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	cfgPath := setup(fs)
	file := fs.String("file", "", "csv file")
	where := fs.String("where", "", "predicate, e.g. amount>=100 or name=ann")
	fs.Parse(args)

	cfg, err := initConfig(*cfgPath)
	if err != nil {
		return err
	}
	tbl, err := loadTable(cfg, *file)
	if err != nil {
		return err
	}
	expr, err := parseWhere(tbl, *where)
	if err != nil {
		return err
	}
	out, err := filter.FilterTable(tbl, expr)
	if err != nil {
		return err
	}
	return render(out)
}

func runGroup(args []string) error {
	fs := flag.NewFlagSet("group", flag.ExitOnError)
	cfgPath := setup(fs)
	file := fs.String("file", "", "csv file")
	by := fs.String("by", "", "comma-separated key columns")
	aggArg := fs.String("agg", "count", "aggregates, e.g. count,sum:amount,min:day")
	fs.Parse(args)

	cfg, err := initConfig(*cfgPath)
	if err != nil {
		return err
	}
	tbl, err := loadTable(cfg, *file)
	if err != nil {
		return err
	}

	var keys []int
	for _, name := range strings.Split(*by, ",") {
		ix, err := columnIndex(tbl, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		keys = append(keys, ix)
	}
	specs, err := parseAggs(tbl, *aggArg)
	if err != nil {
		return err
	}

	g, err := group.New(tbl, keys, specs)
	if err != nil {
		return err
	}
	if err := g.ConsumeAll(); err != nil {
		return err
	}
	res, err := g.Finish()
	if err != nil {
		return err
	}
	return render(res.Table())
}

func runJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	cfgPath := setup(fs)
	leftFile := fs.String("left", "", "left csv file")
	rightFile := fs.String("right", "", "right csv file")
	on := fs.String("on", "", "key columns, leftcol=rightcol")
	typArg := fs.String("type", "inner", "inner|left|right|full")
	fs.Parse(args)

	cfg, err := initConfig(*cfgPath)
	if err != nil {
		return err
	}
	l, err := loadTable(cfg, *leftFile)
	if err != nil {
		return err
	}
	r, err := loadTable(cfg, *rightFile)
	if err != nil {
		return err
	}

	parts := strings.SplitN(*on, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("bad -on %q, want leftcol=rightcol", *on)
	}
	lk, err := columnIndex(l, strings.TrimSpace(parts[0]))
	if err != nil {
		return err
	}
	rk, err := columnIndex(r, strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	var typ join.Type
	switch *typArg {
	case "inner":
		typ = join.Inner
	case "left":
		typ = join.Left
	case "right":
		typ = join.Right
	case "full":
		typ = join.FullOuter
	default:
		return fmt.Errorf("unknown join type %q", *typArg)
	}

	res, err := join.Join(l, r, []int{lk}, []int{rk}, typ)
	if err != nil {
		return err
	}
	return renderJoin(l, r, res)
}

// parseWhere accepts a single comparison: <column><op><value> with op
// one of =, !=, <, <=, >, >=. Values parse against the column type.
func parseWhere(tbl *table.Table, s string) (filter.Expr, error) {
	ops := []struct {
		tok string
		op  types.CompareOp
	}{
		{"!=", types.Ne}, {">=", types.Ge}, {"<=", types.Le},
		{"=", types.Eq}, {">", types.Gt}, {"<", types.Lt},
	}
	for _, o := range ops {
		ix := strings.Index(s, o.tok)
		if ix <= 0 {
			continue
		}
		name := strings.TrimSpace(s[:ix])
		val := strings.TrimSpace(s[ix+len(o.tok):])
		col, err := columnIndex(tbl, name)
		if err != nil {
			return nil, err
		}
		lit, err := parseLiteral(tbl.Columns()[col].Typ, val)
		if err != nil {
			return nil, err
		}
		return &filter.Compare{Col: col, Op: o.op, Lit: lit}, nil
	}
	return nil, fmt.Errorf("cannot parse predicate %q", s)
}

func parseLiteral(typ types.T, val string) (filter.Literal, error) {
	switch typ {
	case types.T_number:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return filter.Literal{}, err
		}
		return filter.Number(f), nil
	case types.T_bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return filter.Literal{}, err
		}
		return filter.Bool(b), nil
	case types.T_string:
		return filter.String(val), nil
	default:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return filter.Literal{}, err
		}
		return filter.Int(i), nil
	}
}

func parseAggs(tbl *table.Table, s string) ([]group.AggSpec, error) {
	kinds := map[string]agg.Kind{
		"count": agg.Count, "counta": agg.CountColumn,
		"countnumbers": agg.CountNumbers, "sum": agg.Sum, "avg": agg.Avg,
		"min": agg.Min, "max": agg.Max, "distinct": agg.DistinctCount,
		"var": agg.Var, "varp": agg.VarPop,
		"stdev": agg.StdDev, "stdevp": agg.StdDevPop,
	}
	var specs []group.AggSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		name, colName, hasCol := strings.Cut(part, ":")
		kind, ok := kinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown aggregate %q", name)
		}
		spec := group.AggSpec{Kind: kind}
		if kind != agg.Count {
			if !hasCol {
				return nil, fmt.Errorf("aggregate %q needs a column, e.g. %s:amount", name, name)
			}
			ix, err := columnIndex(tbl, strings.TrimSpace(colName))
			if err != nil {
				return nil, err
			}
			spec.Col = ix
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func render(tbl *table.Table) error {
	grid, err := tbl.ToGrid()
	if err != nil {
		return err
	}
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(grid.Names)
	for _, row := range grid.Rows {
		cells := make([]string, len(row))
		for j, s := range row {
			cells[j] = tbl.CellString(j, s)
		}
		w.Append(cells)
	}
	w.SetCaption(true, fmt.Sprintf("%d rows", tbl.Rows()))
	w.Render()
	return nil
}

func renderJoin(l, r *table.Table, res *join.Result) error {
	lg, err := l.ToGrid()
	if err != nil {
		return err
	}
	rg, err := r.ToGrid()
	if err != nil {
		return err
	}

	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(append(append([]string{}, lg.Names...), rg.Names...))
	for i := 0; i < res.Len(); i++ {
		cells := make([]string, 0, len(lg.Names)+len(rg.Names))
		cells = appendSide(cells, l, lg, res.LeftRows[i])
		cells = appendSide(cells, r, rg, res.RightRows[i])
		w.Append(cells)
	}
	w.SetCaption(true, fmt.Sprintf("%d rows", res.Len()))
	w.Render()
	return nil
}

func appendSide(cells []string, tbl *table.Table, grid *table.Grid, row int64) []string {
	for j := range grid.Names {
		if row == join.Absent {
			cells = append(cells, "NULL")
			continue
		}
		cells = append(cells, tbl.CellString(j, grid.Rows[row][j]))
	}
	return cells
}
