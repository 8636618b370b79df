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
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/wilson-anysphere/tabular/pkg/common/bitmap"
	"github.com/wilson-anysphere/tabular/pkg/container/table"
)

// EvaluateAll evaluates the given predicates concurrently over the
// same table on a bounded worker pool and returns one mask per
// predicate, in input order. Tables are immutable, so the workers
// share tbl without coordination. The first error wins; remaining
// predicates still run to completion.
func EvaluateAll(tbl *table.Table, exprs []Expr, workers int) ([]*bitmap.Bitmap, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	masks := make([]*bitmap.Bitmap, len(exprs))
	errs := make([]error, len(exprs))
	var wg sync.WaitGroup
	for i, e := range exprs {
		i, e := i, e
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			masks[i], errs[i] = Evaluate(tbl, e)
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return masks, nil
}
