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

package dict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSortedDistinct(t *testing.T) {
	d := FromValues([]string{"pear", "apple", "pear", "banana", "apple"})
	require.Equal(t, 3, d.Len())
	require.Equal(t, []string{"apple", "banana", "pear"}, d.Values())

	mn, ok := d.Min()
	require.True(t, ok)
	require.Equal(t, "apple", mn)
	mx, ok := d.Max()
	require.True(t, ok)
	require.Equal(t, "pear", mx)
}

func TestLookup(t *testing.T) {
	d := FromValues([]string{"a", "b", "c"})
	ix, ok := d.Lookup("b")
	require.True(t, ok)
	require.Equal(t, uint32(1), ix)
	require.Equal(t, "b", d.Get(ix))

	_, ok = d.Lookup("missing")
	require.False(t, ok)
}

func TestLookupFold(t *testing.T) {
	d := FromValues([]string{"Foo", "FOO", "bar", "foo", "fOQ"})
	matches := d.LookupFold("foo")
	require.Len(t, matches, 3)
	for _, ix := range matches {
		require.Equal(t, "foo", foldASCII(d.Get(ix)))
	}

	require.Empty(t, d.LookupFold("nope"))
}

func TestEmptyDictionary(t *testing.T) {
	d := NewBuilder().Build()
	require.Equal(t, 0, d.Len())
	_, ok := d.Min()
	require.False(t, ok)
	_, ok = d.Lookup("x")
	require.False(t, ok)
}
