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

package tables

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/rows"
)

// Operator is a filter operator.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpContains       Operator = "contains"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpIsEmpty        Operator = "isEmpty"
	OpIsNotEmpty     Operator = "isNotEmpty"
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpIsAnyOf        Operator = "isAnyOf"
	// OpMatches evaluates the match syntax described on Match.
	OpMatches Operator = "matches"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpContains, OpStartsWith, OpEndsWith,
	OpIsEmpty, OpIsNotEmpty, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual,
	OpIsAnyOf, OpMatches,
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	for _, op := range Operators {
		if op == o {
			return true
		}
	}
	return false
}

func (o Operator) needsValue() bool {
	return o != OpIsEmpty && o != OpIsNotEmpty
}

// Filter returns the rows of rs matching m, in order.
func Filter(rs []rows.Row, cols []columns.Column, m FilterModel) []rows.Row {
	if m.IsEmpty() {
		return rs
	}
	byField := make(map[string]columns.Column, len(cols))
	for _, c := range cols {
		byField[c.Field] = c
	}
	terms := strings.Fields(strings.ToLower(m.QuickFilter))

	out := make([]rows.Row, 0, len(rs))
	for _, r := range rs {
		if matchItems(r, byField, m) && matchQuick(r, cols, terms) {
			out = append(out, r)
		}
	}
	return out
}

func matchItems(r rows.Row, byField map[string]columns.Column, m FilterModel) bool {
	active := 0
	for _, it := range m.Items {
		if it.Operator.needsValue() && isBlank(it.Value) {
			// Items without a value do not filter yet.
			continue
		}
		active++
		ok := matchItem(byField[it.Field], r, it)
		if m.Logic == LogicOr && ok {
			return true
		}
		if m.Logic == LogicAnd && !ok {
			return false
		}
	}
	if m.Logic == LogicOr {
		return active == 0
	}
	return true
}

// matchQuick requires every term to appear in at least one data column.
func matchQuick(r rows.Row, cols []columns.Column, terms []string) bool {
	for _, term := range terms {
		found := false
		for _, c := range cols {
			if c.IsActions() {
				continue
			}
			if strings.Contains(strings.ToLower(cellText(c, r)), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchItem(col columns.Column, r rows.Row, it FilterItem) bool {
	v := r.Get(col.Field)
	text := strings.ToLower(cellText(col, r))
	want := strings.ToLower(valueText(it.Value))

	switch it.Operator {
	case OpIsEmpty:
		return text == ""
	case OpIsNotEmpty:
		return text != ""
	case OpContains:
		return strings.Contains(text, want)
	case OpStartsWith:
		return strings.HasPrefix(text, want)
	case OpEndsWith:
		return strings.HasSuffix(text, want)
	case OpEquals:
		return equalValue(col, v, text, it.Value)
	case OpNotEquals:
		return !equalValue(col, v, text, it.Value)
	case OpIsAnyOf:
		for _, candidate := range valueList(it.Value) {
			if equalValue(col, v, text, candidate) {
				return true
			}
		}
		return false
	case OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		if v == nil {
			return false
		}
		cmp := columns.CompareAs(col.Type, v, coerce(col, it.Value))
		switch it.Operator {
		case OpGreater:
			return cmp > 0
		case OpGreaterOrEqual:
			return cmp >= 0
		case OpLess:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpMatches:
		return Match(valueText(it.Value), cellText(col, r))
	default:
		return false
	}
}

// equalValue compares numerically for number columns and case-insensitively
// as text otherwise.
func equalValue(col columns.Column, v any, text string, want any) bool {
	if col.Type == columns.TypeNumber {
		a, okA := columns.ToFloat64(v)
		b, okB := columns.ToFloat64(want)
		if okA && okB {
			return a == b
		}
	}
	if col.Type == columns.TypeDateTime {
		if t, ok := v.(time.Time); ok {
			if w, ok := coerce(col, want).(time.Time); ok {
				return t.Equal(w)
			}
		}
	}
	return text == strings.ToLower(valueText(want))
}

// coerce converts filter input to the column's value type when it arrives
// as text.
func coerce(col columns.Column, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if col.Type == columns.TypeDateTime {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return s
}

// cellText is the text filters match against. A panicking formatter yields
// no text; the render pass reports the failure.
func cellText(c columns.Column, r rows.Row) string {
	text, _ := c.SafeText(r)
	return text
}

func valueText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return columns.FormatValue(v)
	}
}

// valueList expands isAnyOf input: a slice, or a comma separated string.
func valueList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case string:
		var out []any
		for _, part := range strings.Split(x, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []any{v}
	}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// Match evaluates a match expression against value.
//
// A double-quoted term is an exact match, a single-quoted term is a
// substring match and a bare term is an exact match. Terms combine with
// "!" (not), "&" (and) and "|" (or), in that order of precedence.
// Parentheses are not supported.
//
//	"CLOSED"          exact match
//	'CLOSED'          contains
//	"CLOSED"|"OPEN"   either
//	'a'&!'b'          contains a but not b
func Match(filter string, value string) bool {
	orMatch := false
	for _, or := range strings.Split(filter, "|") {
		andMatch := true
		for _, and := range strings.Split(or, "&") {
			and = strings.Trim(and, " ")
			not := false
			if strings.HasPrefix(and, "!") {
				not = true
				and = and[1:]
			}
			match := false
			switch {
			case len(and) >= 2 && strings.HasPrefix(and, `"`) && strings.HasSuffix(and, `"`):
				match = value == and[1:len(and)-1]
			case len(and) >= 2 && strings.HasPrefix(and, "'") && strings.HasSuffix(and, "'"):
				match = strings.Contains(value, and[1:len(and)-1])
			case and != "":
				match = value == and
			}
			if not {
				match = !match
			}
			andMatch = andMatch && match
		}
		orMatch = orMatch || andMatch
	}
	return orMatch
}

// describeItem is used in diagnostics.
func describeItem(it FilterItem) string {
	return fmt.Sprintf("%s %s %v", it.Field, it.Operator, it.Value)
}
