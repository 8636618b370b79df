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

package page

import "sort"

// RLEUints stores a sequence as (value, run-end) pairs, run ends exclusive
// and strictly increasing; the last run end equals the sequence length.
type RLEUints struct {
	values []uint64
	ends   []int
}

// RLEFromValues run-length-encodes values.
func RLEFromValues(values []uint64) *RLEUints {
	r := &RLEUints{}
	for i, v := range values {
		if i == 0 || v != r.values[len(r.values)-1] {
			r.values = append(r.values, v)
			r.ends = append(r.ends, i+1)
		} else {
			r.ends[len(r.ends)-1] = i + 1
		}
	}
	return r
}

func (r *RLEUints) Len() int {
	if len(r.ends) == 0 {
		return 0
	}
	return r.ends[len(r.ends)-1]
}

// NumRuns returns the number of runs.
func (r *RLEUints) NumRuns() int {
	return len(r.values)
}

// Get returns value i by binary search over run ends.
func (r *RLEUints) Get(i int) uint64 {
	run := sort.SearchInts(r.ends, i+1)
	return r.values[run]
}

// Runs calls fn once per run with [start, end) row bounds and the run value.
// Iteration stops when fn returns false.
func (r *RLEUints) Runs(fn func(start, end int, value uint64) bool) {
	start := 0
	for i, v := range r.values {
		if !fn(start, r.ends[i], v) {
			return
		}
		start = r.ends[i]
	}
}
