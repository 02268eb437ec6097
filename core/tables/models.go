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

// Package tables derives the visible state of a grid (pagination, sorting,
// filtering and selection) from caller rows and the grid's own state.
package tables

import "fmt"

// Mode selects where a feature is computed.
type Mode int

const (
	// ModeDefault inherits: pagination defaults to client, sorting and
	// filtering default to the pagination mode.
	ModeDefault Mode = iota
	// ModeClient computes locally over the full row set.
	ModeClient
	// ModeServer delegates to the data source; rows are used as given.
	ModeServer
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// PaginationModel is the effective pagination of one render pass.
type PaginationModel struct {
	PageIndex     int
	PageSize      int
	TotalRowCount int
	Mode          Mode
}

// PageCount returns the number of pages, at least 1.
func (p PaginationModel) PageCount() int {
	if p.PageSize <= 0 || p.TotalRowCount <= 0 {
		return 1
	}
	return (p.TotalRowCount-1)/p.PageSize + 1
}

// HasNext reports whether a page follows the current one.
func (p PaginationModel) HasNext() bool {
	return p.PageIndex < p.PageCount()-1
}

// HasPrev reports whether a page precedes the current one.
func (p PaginationModel) HasPrev() bool {
	return p.PageIndex > 0
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortItem sorts by one field.
type SortItem struct {
	Field     string
	Direction Direction
}

// SortModel lists sort items in priority order. Empty means unsorted.
type SortModel []SortItem

// DirectionOf returns the direction of field, or "" when it is not sorted.
func (m SortModel) DirectionOf(field string) Direction {
	for _, it := range m {
		if it.Field == field {
			return it.Direction
		}
	}
	return ""
}

// Clone returns a copy of m.
func (m SortModel) Clone() SortModel {
	if m == nil {
		return nil
	}
	out := make(SortModel, len(m))
	copy(out, m)
	return out
}

// Logic combines filter items.
type Logic int

const (
	// LogicAnd requires all items to match.
	LogicAnd Logic = iota
	// LogicOr requires at least one item to match.
	LogicOr
)

// String returns the string representation of a Logic.
func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "and"
	case LogicOr:
		return "or"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// FilterItem is one predicate over a field.
type FilterItem struct {
	Field    string
	Operator Operator
	Value    any
}

// FilterModel is the set of predicates applied to rows. QuickFilter is a
// free-text search across all data columns and is always combined with AND.
type FilterModel struct {
	Items       []FilterItem
	Logic       Logic
	QuickFilter string
}

// IsEmpty reports whether the model filters nothing.
func (m FilterModel) IsEmpty() bool {
	return len(m.Items) == 0 && m.QuickFilter == ""
}

// Clone returns a copy of m.
func (m FilterModel) Clone() FilterModel {
	out := m
	if m.Items != nil {
		out.Items = make([]FilterItem, len(m.Items))
		copy(out.Items, m.Items)
	}
	return out
}

// SelectionModel is the ordered set of selected row identifiers.
type SelectionModel []string

// Contains reports whether id is selected.
func (s SelectionModel) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Clone returns a copy of s.
func (s SelectionModel) Clone() SelectionModel {
	if s == nil {
		return nil
	}
	out := make(SelectionModel, len(s))
	copy(out, s)
	return out
}

// dedupe removes repeated identifiers, keeping first occurrences.
func (s SelectionModel) dedupe() SelectionModel {
	seen := make(map[string]bool, len(s))
	out := make(SelectionModel, 0, len(s))
	for _, id := range s {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func equalSelection(a, b SelectionModel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSort(a, b SortModel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
