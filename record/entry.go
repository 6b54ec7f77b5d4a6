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
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Entry is an opaque key-value record, used for proof-of-history entries and
// for transactions kept opaque by permissive blocks.
//
// Entries held by a Block are normalized: nested values are only nil, bool,
// string, uint64 (non-negative integers), int64 (negative integers), float64
// (finite), []byte, []interface{} and map[string]interface{}. This is the
// exact set of values the canonical decoder produces, so normalized entries
// survive encoding unchanged.
type Entry map[string]interface{}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	if e == nil {
		return nil
	}
	return Entry(cloneMap(e))
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return cloneMap(v)
	case []interface{}:
		dup := make([]interface{}, len(v))
		for i, item := range v {
			dup[i] = cloneValue(item)
		}
		return dup
	case []byte:
		dup := make([]byte, len(v))
		copy(dup, v)
		return dup
	default:
		return v
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	dup := make(map[string]interface{}, len(m))
	for key, value := range m {
		dup[key] = cloneValue(value)
	}
	return dup
}

// NormalizeEntry converts an untyped record into its normalized form. It fails
// if the value is not a key-value record with text keys, or if it contains
// values that have no canonical representation.
func NormalizeEntry(value interface{}) (Entry, error) {
	m, ok := asRecord(value)
	if !ok {
		return nil, fmt.Errorf("value is not a key-value record (%T)", value)
	}
	normalized, err := normalizeMap(m)
	if err != nil {
		return nil, err
	}
	return Entry(normalized), nil
}

// asRecord returns the value as a map with text keys, without normalizing its
// values.
func asRecord(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case Entry:
		if v == nil {
			return nil, false
		}
		return v, true
	case map[string]interface{}:
		if v == nil {
			return nil, false
		}
		return v, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]interface{}, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		m[it.Key().String()] = it.Value().Interface()
	}
	return m, true
}

// asList returns the value as a list of untyped values.
func asList(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []Entry:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = item
		}
		return list, true
	case []byte, string:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	list := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}

func normalizeMap(m map[string]interface{}) (map[string]interface{}, error) {
	normalized := make(map[string]interface{}, len(m))
	for key, value := range m {
		if !utf8.ValidString(key) {
			return nil, fmt.Errorf("key is not valid UTF-8 (%q)", key)
		}
		v, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("could not normalize value (key: %s): %w", key, err)
		}
		normalized[key] = v
	}
	return normalized, nil
}

func normalizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool, uint64:
		return v, nil
	case int64:
		if v >= 0 {
			return uint64(v), nil
		}
		return v, nil
	case string:
		if !utf8.ValidString(v) {
			return nil, fmt.Errorf("text is not valid UTF-8")
		}
		return v, nil
	case json.Number:
		return normalizeNumber(v)
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case []byte:
		dup := make([]byte, len(v))
		copy(dup, v)
		return dup, nil
	}

	if n, ok := integer(value); ok {
		if n.negative {
			return -int64(n.magnitude), nil
		}
		return n.magnitude, nil
	}

	if m, ok := asRecord(value); ok {
		return normalizeMap(m)
	}

	if list, ok := asList(value); ok {
		normalized := make([]interface{}, len(list))
		for i, item := range list {
			v, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("could not normalize item (index: %d): %w", i, err)
			}
			normalized[i] = v
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("unsupported value type (%T)", value)
}

func normalizeNumber(number json.Number) (interface{}, error) {
	if n, ok := integer(number); ok {
		if n.negative {
			return -int64(n.magnitude), nil
		}
		return n.magnitude, nil
	}
	f, err := strconv.ParseFloat(string(number), 64)
	if err != nil {
		return nil, fmt.Errorf("could not parse number (%s): %w", number, err)
	}
	return normalizeFloat(f)
}

func normalizeFloat(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("number is not finite")
	}
	return f, nil
}
