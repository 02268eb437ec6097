/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tablero Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package columns

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Compare compares two cell values.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Missing values (nil) sort after all present values. Values of different
// kinds fall back to comparing their text.
func Compare(a, b any) int {
	if a == nil || b == nil {
		return compareNils(a == nil, b == nil)
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBools(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return compareTimes(x, y)
		}
	case time.Duration:
		if y, ok := b.(time.Duration); ok {
			return compareDurations(x, y)
		}
	}

	if x, ok := toFloat64(a); ok {
		if y, ok := toFloat64(b); ok {
			return compareFloat64s(x, y)
		}
	}

	return strings.Compare(FormatValue(a), FormatValue(b))
}

// CompareAs compares two values as the given column type. Text cells of a
// number column are parsed so "10" sorts after "9".
func CompareAs(t Type, a, b any) int {
	if t == TypeNumber {
		x, okA := toFloat64(a)
		y, okB := toFloat64(b)
		if okA && okB {
			return compareFloat64s(x, y)
		}
		if okA != okB {
			// Unparseable values sort to the end.
			return compareNils(!okA, !okB)
		}
	}
	return Compare(a, b)
}

// toFloat64 converts numeric values, including numeric strings, to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToFloat64 is the exported form of toFloat64 used by filter operators.
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return toFloat64(v)
}

// FormatValue returns the default text of a cell value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// compareNils orders missing values after present ones.
func compareNils(aNil, bNil bool) int {
	if aNil && bNil {
		return 0
	}
	if aNil {
		return 1
	}
	return -1
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareDurations compares two time.Duration values
func compareDurations(a, b time.Duration) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareBools compares two bool values (false < true)
func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// compareFloat64s compares two float64 values with NaN handling.
// NaN values are considered greater than all other values (sort to end).
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)

	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}

	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
