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

import (
	"encoding/binary"
	"math"

	"github.com/pierrec/lz4"
)

// compressFloats lz4-block-compresses a float payload. Returns ok=false when
// compression does not pay for itself, in which case the caller keeps the
// raw slice.
func compressFloats(values []float64) ([]byte, bool) {
	src := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(src[i*8:], math.Float64bits(v))
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var ht [1 << 16]int
	n, err := lz4.CompressBlock(src, dst, ht[:])
	if err != nil || n == 0 || n >= len(src) {
		return nil, false
	}
	return dst[:n], true
}

// decompressFloats expands an lz4 block into scratch, growing it as needed.
func decompressFloats(blob []byte, rows int, scratch []float64) []float64 {
	raw := make([]byte, rows*8)
	if _, err := lz4.UncompressBlock(blob, raw); err != nil {
		// the blob was produced by compressFloats; failure here means
		// memory corruption, not caller error
		panic(err)
	}
	if cap(scratch) < rows {
		scratch = make([]float64, rows)
	}
	scratch = scratch[:rows]
	for i := range scratch {
		scratch[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return scratch
}
