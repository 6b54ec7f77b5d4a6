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
	"strconv"
	"strings"
)

// number is an integer of either sign that fits in 64 bits of magnitude.
type number struct {
	negative  bool
	magnitude uint64
}

// integer recognizes Go integer kinds and JSON numbers written as integers.
// Floating point values are never accepted, even when they are integral.
func integer(value interface{}) (number, bool) {
	switch v := value.(type) {
	case int:
		return signed(int64(v)), true
	case int8:
		return signed(int64(v)), true
	case int16:
		return signed(int64(v)), true
	case int32:
		return signed(int64(v)), true
	case int64:
		return signed(v), true
	case uint:
		return number{magnitude: uint64(v)}, true
	case uint8:
		return number{magnitude: uint64(v)}, true
	case uint16:
		return number{magnitude: uint64(v)}, true
	case uint32:
		return number{magnitude: uint64(v)}, true
	case uint64:
		return number{magnitude: v}, true
	case json.Number:
		text := string(v)
		negative := strings.HasPrefix(text, "-")
		magnitude, err := strconv.ParseUint(strings.TrimPrefix(text, "-"), 10, 64)
		if err != nil {
			return number{}, false
		}
		if negative && magnitude > 1<<63 {
			return number{}, false
		}
		if negative && magnitude == 0 {
			return number{}, true
		}
		return number{negative: negative, magnitude: magnitude}, true
	default:
		return number{}, false
	}
}

func signed(v int64) number {
	if v >= 0 {
		return number{magnitude: uint64(v)}
	}
	if v == math.MinInt64 {
		return number{negative: true, magnitude: 1 << 63}
	}
	return number{negative: true, magnitude: uint64(-v)}
}

// unsigned returns the value if it is a non-negative integer.
func unsigned(value interface{}) (uint64, bool) {
	n, ok := integer(value)
	if !ok || n.negative {
		return 0, false
	}
	return n.magnitude, true
}

// signedInteger returns the value if it is an integer in the int64 range.
func signedInteger(value interface{}) (int64, bool) {
	n, ok := integer(value)
	if !ok {
		return 0, false
	}
	if !n.negative {
		if n.magnitude > math.MaxInt64 {
			return 0, false
		}
		return int64(n.magnitude), true
	}
	return -int64(n.magnitude), true
}

// text returns the value if it is a string.
func text(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}
