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

// Package join implements equi-joins between two columnar tables with
// one chained-hash algorithm shared by all four join types. The build
// side is always the right table; chains are integer offsets into a
// row-indexed next array, never pointer nodes. All build and probe
// state is local to one call.
package join

import (
	"go.uber.org/zap"

	"github.com/wilson-anysphere/tabular/pkg/common/mathutil"
	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/container/hashtable"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
	"github.com/wilson-anysphere/tabular/pkg/container/types"
	"github.com/wilson-anysphere/tabular/pkg/logutil"
)

// Type selects which unmatched rows a join emits.
type Type uint8

const (
	Inner Type = iota
	Left
	Right
	FullOuter
)

func (t Type) String() string {
	switch t {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Right:
		return "right"
	case FullOuter:
		return "full outer"
	}
	return "unknown"
}

// Absent marks a missing side in a join result row.
const Absent int64 = -1

// Result holds parallel row-index arrays; row i of the result pairs
// left row LeftRows[i] with right row RightRows[i], either side Absent
// for outer rows.
type Result struct {
	LeftRows  []int64
	RightRows []int64
}

func (r *Result) Len() int {
	return len(r.LeftRows)
}

// HasLeft reports whether result row i carries a left row.
func (r *Result) HasLeft(i int) bool {
	return r.LeftRows[i] != Absent
}

// HasRight reports whether result row i carries a right row.
func (r *Result) HasRight(i int) bool {
	return r.RightRows[i] != Absent
}

// InnerJoin emits one result row per key-equal pair.
func InnerJoin(l, r *table.Table, lkeys, rkeys []int) (*Result, error) {
	return Join(l, r, lkeys, rkeys, Inner)
}

// LeftJoin additionally emits every matchless left row.
func LeftJoin(l, r *table.Table, lkeys, rkeys []int) (*Result, error) {
	return Join(l, r, lkeys, rkeys, Left)
}

// RightJoin additionally emits every matchless right row, appended in
// ascending right-row order.
func RightJoin(l, r *table.Table, lkeys, rkeys []int) (*Result, error) {
	return Join(l, r, lkeys, rkeys, Right)
}

// FullOuterJoin emits matchless rows of both sides.
func FullOuterJoin(l, r *table.Table, lkeys, rkeys []int) (*Result, error) {
	return Join(l, r, lkeys, rkeys, FullOuter)
}

func InnerOn(l, r *table.Table, lk, rk int) (*Result, error) {
	return Join(l, r, []int{lk}, []int{rk}, Inner)
}

func LeftOn(l, r *table.Table, lk, rk int) (*Result, error) {
	return Join(l, r, []int{lk}, []int{rk}, Left)
}

func RightOn(l, r *table.Table, lk, rk int) (*Result, error) {
	return Join(l, r, []int{lk}, []int{rk}, Right)
}

func FullOuterOn(l, r *table.Table, lk, rk int) (*Result, error) {
	return Join(l, r, []int{lk}, []int{rk}, FullOuter)
}

// Join runs the generic chained-hash join. A NULL key component never
// matches anything: such build rows are left out of the hash table and
// such probe rows go straight to the unmatched path.
func Join(l, r *table.Table, lkeys, rkeys []int, typ Type) (*Result, error) {
	remaps, err := validate(l, r, lkeys, rkeys)
	if err != nil {
		return nil, err
	}

	needRight := typ == Right || typ == FullOuter
	needLeft := typ == Left || typ == FullOuter

	ht := hashtable.NewStrHashMap(capacityHint(r, rkeys))
	heads := make([]int64, 0, 16)
	next := make([]int64, r.Rows())
	var matched []bool
	if needRight {
		matched = make([]bool, r.Rows())
	}

	rreaders := make([]*table.Reader, len(rkeys))
	for i, k := range rkeys {
		rreaders[i] = r.Columns()[k].Reader(r)
	}
	lreaders := make([]*table.Reader, len(lkeys))
	for i, k := range lkeys {
		lreaders[i] = l.Columns()[k].Reader(l)
	}

	// build over the right table
	var keyBuf []byte
	scalars := make([]types.Scalar, len(rkeys))
	for row := int64(0); row < r.Rows(); row++ {
		ok := true
		for i, rd := range rreaders {
			s, err := rd.Get(row)
			if err != nil {
				return nil, err
			}
			if s.IsNull() {
				ok = false
				break
			}
			if s.Kind == types.KindDictIndex && remaps[i] != nil {
				mapped := remaps[i][s.Dict]
				if mapped < 0 {
					// the value does not exist on the left side
					ok = false
					break
				}
				s = types.NewDictIndex(uint32(mapped))
			}
			scalars[i] = s
		}
		if !ok {
			continue
		}
		keyBuf = keyBuf[:0]
		for _, s := range scalars {
			keyBuf = s.AppendKey(keyBuf)
		}
		id, isNew := ht.Insert(keyBuf)
		if isNew {
			heads = append(heads, Absent)
		}
		next[row] = heads[id]
		heads[id] = row
	}

	// probe over the left table
	res := &Result{}
	leftUnmatched := func(row int64) {
		if needLeft {
			res.LeftRows = append(res.LeftRows, row)
			res.RightRows = append(res.RightRows, Absent)
		}
	}
	for row := int64(0); row < l.Rows(); row++ {
		ok := true
		for i, rd := range lreaders {
			s, err := rd.Get(row)
			if err != nil {
				return nil, err
			}
			if s.IsNull() {
				ok = false
				break
			}
			scalars[i] = s
		}
		if !ok {
			leftUnmatched(row)
			continue
		}
		keyBuf = keyBuf[:0]
		for _, s := range scalars {
			keyBuf = s.AppendKey(keyBuf)
		}
		id, found := ht.Find(keyBuf)
		if !found {
			leftUnmatched(row)
			continue
		}
		for rrow := heads[id]; rrow != Absent; rrow = next[rrow] {
			res.LeftRows = append(res.LeftRows, row)
			res.RightRows = append(res.RightRows, rrow)
			if needRight {
				matched[rrow] = true
			}
		}
	}

	// unmatched build rows, ascending
	if needRight {
		for row := int64(0); row < r.Rows(); row++ {
			if !matched[row] {
				res.LeftRows = append(res.LeftRows, Absent)
				res.RightRows = append(res.RightRows, row)
			}
		}
	}

	logutil.Debug("join done",
		zap.String("type", typ.String()), zap.Int("rows", res.Len()))
	return res, nil
}

// validate checks key arity and pairwise types and resolves one
// right→left dictionary remap per string key pair. A nil entry means
// indices are usable as-is, either because the pair shares the
// identical dictionary object or because the key is not a string.
func validate(l, r *table.Table, lkeys, rkeys []int) ([][]int64, error) {
	if len(lkeys) == 0 || len(rkeys) == 0 {
		return nil, taberr.NewEmptyKeyList()
	}
	if len(lkeys) != len(rkeys) {
		return nil, taberr.NewJoinKeyCountMismatch(len(lkeys), len(rkeys))
	}
	remaps := make([][]int64, len(lkeys))
	for i := range lkeys {
		lc, err := l.Column(lkeys[i])
		if err != nil {
			return nil, err
		}
		rc, err := r.Column(rkeys[i])
		if err != nil {
			return nil, err
		}
		if lc.Typ != rc.Typ {
			return nil, taberr.NewJoinKeyTypeMismatch(i, lc.Typ.String(), rc.Typ.String())
		}
		if lc.Typ != types.T_string {
			continue
		}
		if lc.Dict == nil {
			return nil, taberr.NewMissingDictionary(lkeys[i])
		}
		if rc.Dict == nil {
			return nil, taberr.NewMissingDictionary(rkeys[i])
		}
		// identity, not content: equal-valued but distinct dictionaries
		// still take the remap path
		if lc.Dict == rc.Dict {
			continue
		}
		remap := make([]int64, rc.Dict.Len())
		for ix := 0; ix < rc.Dict.Len(); ix++ {
			if lix, ok := lc.Dict.Lookup(rc.Dict.Get(uint32(ix))); ok {
				remap[ix] = int64(lix)
			} else {
				remap[ix] = Absent
			}
		}
		remaps[i] = remap
	}
	return remaps, nil
}

// capacityHint multiplies the build keys' distinct counts, capped at
// the build row count. Zero leaves the table unsized.
func capacityHint(r *table.Table, rkeys []int) uint64 {
	hint := uint64(1)
	for _, k := range rkeys {
		c := r.Columns()[k]
		if c.Stats == nil || c.Stats.DistinctCount == nil || *c.Stats.DistinctCount < 0 {
			return 0
		}
		hint = mathutil.Min(hint*uint64(*c.Stats.DistinctCount), uint64(r.Rows()))
		if hint == uint64(r.Rows()) {
			return hint
		}
	}
	return hint
}
