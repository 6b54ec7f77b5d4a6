// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package record

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEntry(t *testing.T) {

	t.Run("nominal case", func(t *testing.T) {
		t.Parallel()

		input := map[string]interface{}{
			"nil":      nil,
			"bool":     true,
			"int":      7,
			"negative": int32(-7),
			"uint8":    uint8(8),
			"number":   json.Number("-12"),
			"float":    json.Number("1.25"),
			"float32":  float32(0.5),
			"text":     "text",
			"bytes":    []byte{1, 2, 3},
			"list":     []string{"a", "b"},
			"nested":   map[string]int{"x": 1},
		}

		entry, err := NormalizeEntry(input)

		require.NoError(t, err)
		assert.Equal(t, Entry{
			"nil":      nil,
			"bool":     true,
			"int":      uint64(7),
			"negative": int64(-7),
			"uint8":    uint64(8),
			"number":   int64(-12),
			"float":    1.25,
			"float32":  0.5,
			"text":     "text",
			"bytes":    []byte{1, 2, 3},
			"list":     []interface{}{"a", "b"},
			"nested":   map[string]interface{}{"x": uint64(1)},
		}, entry)
	})

	t.Run("minimum integer", func(t *testing.T) {
		t.Parallel()

		entry, err := NormalizeEntry(map[string]interface{}{
			"min": json.Number("-9223372036854775808"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(math.MinInt64), entry["min"])
	})

	t.Run("copies byte slices", func(t *testing.T) {
		t.Parallel()

		data := []byte{1}
		entry, err := NormalizeEntry(map[string]interface{}{"data": data})
		require.NoError(t, err)

		data[0] = 2

		assert.Equal(t, []byte{1}, entry["data"])
	})

	invalid := map[string]interface{}{
		"not a record":   42,
		"nil map":        map[string]interface{}(nil),
		"integer keys":   map[int]string{1: "a"},
		"nan":            map[string]interface{}{"x": math.NaN()},
		"infinity":       map[string]interface{}{"x": math.Inf(1)},
		"invalid text":   map[string]interface{}{"x": "\xff"},
		"invalid key":    map[string]interface{}{"\xff": 1},
		"unsupported":    map[string]interface{}{"x": struct{}{}},
		"nested invalid": map[string]interface{}{"x": []interface{}{func() {}}},
		"invalid number": map[string]interface{}{"x": json.Number("1e999")},
	}

	for name, input := range invalid {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NormalizeEntry(input)

			assert.Error(t, err)
		})
	}
}

func TestEntry_Clone(t *testing.T) {
	entry := Entry{
		"list":   []interface{}{map[string]interface{}{"a": uint64(1)}},
		"nested":         map[string]interface{}{"b": []byte{1}},
	}

	dup := entry.Clone()
	dup["list"].([]interface{})[0].(map[string]interface{})["a"] = uint64(2)
	dup["nested"].(map[string]interface{})["b"].([]byte)[0] = 2

	assert.Equal(t, uint64(1), entry["list"].([]interface{})[0].(map[string]interface{})["a"])
	assert.Equal(t, []byte{1}, entry["nested"].(map[string]interface{})["b"])
	assert.Nil(t, Entry(nil).Clone())
}

func TestInteger(t *testing.T) {
	tests := []struct {
		value    interface{}
		unsigned uint64
		signed   int64
		ok       bool
	}{
		{value: 0, ok: true},
		{value: uint64(math.MaxUint64), unsigned: math.MaxUint64, ok: true},
		{value: json.Number("-0"), ok: true},
		{value: int64(math.MinInt64), signed: math.MinInt64, ok: true},
		{value: json.Number("1e3"), ok: false},
		{value: 1.0, ok: false},
		{value: "1", ok: false},
	}

	for _, test := range tests {
		_, ok := integer(test.value)
		assert.Equal(t, test.ok, ok, "value %v", test.value)
		if !ok {
			continue
		}
		if test.signed < 0 {
			got, ok := signedInteger(test.value)
			assert.True(t, ok)
			assert.Equal(t, test.signed, got)
			continue
		}
		got, ok := unsigned(test.value)
		assert.True(t, ok)
		assert.Equal(t, test.unsigned, got)
	}
}
