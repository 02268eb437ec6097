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

// Package columns declares grid columns and canonicalizes column sets.
package columns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/safehtml"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/rows"
)

// ActionsField is the reserved field of the per-row actions column.
const ActionsField = "actions"

const component = "columns"

// ErrFormatPanic is returned by SafeText when a Format function panics.
var ErrFormatPanic = errors.New("column formatter panicked")

// Type describes how a column's values compare and filter.
type Type int

const (
	// TypeString compares values as text.
	TypeString Type = iota
	// TypeNumber compares values numerically.
	TypeNumber
	// TypeBool compares false before true.
	TypeBool
	// TypeDateTime compares time.Time values.
	TypeDateTime
	// TypeActions marks the actions column.
	TypeActions
)

// String returns the string representation of a Type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeDateTime:
		return "dateTime"
	case TypeActions:
		return "actions"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// CellRenderer renders the cell of one row. A renderer may return an error or
// panic; both are contained by the grid's render boundary.
type CellRenderer func(row rows.Row) (safehtml.HTML, error)

// Column declares one grid column.
type Column struct {
	Field      string
	HeaderName string

	// Width is a fixed width in pixels; Flex distributes remaining space.
	// Width wins when both are set.
	Width int
	Flex  float64

	Sortable   bool
	Filterable bool
	Hideable   bool

	Type Type

	// Render overrides the default escaped text rendering of the cell.
	Render CellRenderer
	// Format overrides the default text formatting of the value. It is used
	// for display, export and quick filtering.
	Format func(v any) string
}

// IsActions reports whether c is the actions column.
func (c Column) IsActions() bool {
	return c.Field == ActionsField || c.Type == TypeActions
}

// Text returns the display text of the column's value in row.
func (c Column) Text(row rows.Row) string {
	v := row.Get(c.Field)
	if c.Format != nil {
		return c.Format(v)
	}
	return FormatValue(v)
}

// SafeText is Text with a panicking Format turned into ErrFormatPanic.
func (c Column) SafeText(row rows.Row) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: field %q: %v", ErrFormatPanic, c.Field, r)
		}
	}()
	return c.Text(row), nil
}

// Normalize validates and canonicalizes a column set.
//
// Columns with an empty field are dropped. When fields repeat the first
// column wins. The reserved actions field may appear once and is always
// typed as the actions column. An empty result is left empty for the
// presentation layer to report as a configuration error.
func Normalize(raw []Column, d *diag.Collector) []Column {
	out := make([]Column, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	hasActions := false

	for i, c := range raw {
		c.Field = strings.TrimSpace(c.Field)
		if c.Field == "" {
			d.Report(component, diag.CodeColumnFieldEmpty,
				fmt.Sprintf("column %d has no field", i), "index", i)
			continue
		}
		if c.IsActions() {
			if hasActions {
				d.Report(component, diag.CodeDuplicateColumnField,
					fmt.Sprintf("column %d is a second actions column", i), "index", i, "field", c.Field)
				continue
			}
			c.Field = ActionsField
			c.Type = TypeActions
			c.Sortable = false
			c.Filterable = false
			hasActions = true
		}
		if seen[c.Field] {
			d.Report(component, diag.CodeDuplicateColumnField,
				fmt.Sprintf("column %d repeats field %q", i, c.Field), "index", i, "field", c.Field)
			continue
		}
		seen[c.Field] = true

		if c.HeaderName == "" {
			c.HeaderName = c.Field
		}
		if c.Width < 0 {
			c.Width = 0
		}
		if c.Flex < 0 {
			c.Flex = 0
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		d.Report(component, diag.CodeEmptyColumns, "column set is empty")
	}
	return out
}

// Find returns the column with the given field.
func Find(cols []Column, field string) (Column, bool) {
	for _, c := range cols {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// HasActions reports whether cols already contain an actions column.
func HasActions(cols []Column) bool {
	for _, c := range cols {
		if c.IsActions() {
			return true
		}
	}
	return false
}

// Fields returns the fields of cols in order.
func Fields(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Field
	}
	return out
}
