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

// Package query encodes grid state in URLs. Every link and form in a
// rendered grid carries the full state, so a request alone is enough to
// rebuild the view.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"
	"github.com/google/tablero/core/tables"
)

// SortColumn is one entry of the sort parameter.
type SortColumn struct {
	Name       string
	Descending bool
}

// Filter is one filter parameter.
type Filter struct {
	Field    string
	Operator string
	Value    string
}

// Query represents the parsed state of a grid URL
type Query struct {
	// Base path (e.g., "/grid")
	Path string

	Screen   string
	User     string // acting user, for per-user grid instances
	Page     int
	PageSize int // 0 = screen default
	Sort     []SortColumn
	Filters  []Filter
	Or       bool // combine filters with OR
	Quick    string
	Hidden   []string
	Density  string
	Selected []string
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) *Query {
	s := &Query{Path: u.Path}
	q := u.Query()

	s.Screen = q.Get("screen")
	s.User = q.Get("user")
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 0 {
		s.Page = page
	}
	if size, err := strconv.Atoi(q.Get("size")); err == nil && size > 0 {
		s.PageSize = size
	}

	// Sort format: name,-seats (leading "-" = descending)
	for _, part := range splitList(q.Get("sort")) {
		if strings.HasPrefix(part, "-") {
			s.Sort = append(s.Sort, SortColumn{Name: part[1:], Descending: true})
		} else {
			s.Sort = append(s.Sort, SortColumn{Name: part})
		}
	}

	// Filter format: filter:field=operator:value, repeatable per field.
	var keys []string
	for key := range q {
		if strings.HasPrefix(key, "filter:") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		field := strings.TrimPrefix(key, "filter:")
		for _, v := range q[key] {
			op, value, _ := strings.Cut(v, ":")
			if field == "" || op == "" {
				continue
			}
			s.Filters = append(s.Filters, Filter{Field: field, Operator: op, Value: value})
		}
	}

	s.Or = q.Get("logic") == "or"
	s.Quick = q.Get("q")
	s.Hidden = splitList(q.Get("hide"))
	s.Density = q.Get("density")
	// Row ids may contain commas, so each selected id is its own parameter.
	for _, id := range q["sel"] {
		if id != "" {
			s.Selected = append(s.Selected, id)
		}
	}
	return s
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	clone.Sort = append([]SortColumn(nil), s.Sort...)
	clone.Filters = append([]Filter(nil), s.Filters...)
	clone.Hidden = append([]string(nil), s.Hidden...)
	clone.Selected = append([]string(nil), s.Selected...)
	return &clone
}

// values encodes the state as URL parameters.
func (s *Query) values() url.Values {
	q := url.Values{}
	if s.Screen != "" {
		q.Set("screen", s.Screen)
	}
	if s.User != "" {
		q.Set("user", s.User)
	}
	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.PageSize > 0 {
		q.Set("size", strconv.Itoa(s.PageSize))
	}
	if len(s.Sort) > 0 {
		parts := make([]string, 0, len(s.Sort))
		for _, sc := range s.Sort {
			if sc.Descending {
				parts = append(parts, "-"+sc.Name)
			} else {
				parts = append(parts, sc.Name)
			}
		}
		q.Set("sort", strings.Join(parts, ","))
	}
	for _, f := range s.Filters {
		q.Add("filter:"+f.Field, f.Operator+":"+f.Value)
	}
	if s.Or {
		q.Set("logic", "or")
	}
	if s.Quick != "" {
		q.Set("q", s.Quick)
	}
	if len(s.Hidden) > 0 {
		q.Set("hide", strings.Join(s.Hidden, ","))
	}
	if s.Density != "" {
		q.Set("density", s.Density)
	}
	for _, id := range s.Selected {
		q.Add("sel", id)
	}
	return q
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path, RawQuery: s.values().Encode()}
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// WithPath returns a URL carrying the same state to another endpoint.
func (s *Query) WithPath(path string) safehtml.URL {
	newState := s.Clone()
	newState.Path = path
	return newState.ToSafeURL()
}

// ApplyForm returns a copy of the state with a submitted toolbar form
// merged in. "q" replaces the quick filter; "ff", "fo" and "fv" add one
// filter. Either resets the page.
func (s *Query) ApplyForm(form url.Values) *Query {
	newState := s.Clone()
	if v, ok := form["q"]; ok && len(v) > 0 {
		newState.Quick = strings.TrimSpace(v[0])
		newState.Page = 0
	}
	if field, op := form.Get("ff"), form.Get("fo"); field != "" && op != "" {
		newState.Filters = append(newState.Filters, Filter{Field: field, Operator: op, Value: form.Get("fv")})
		newState.Page = 0
	}
	return newState
}

// WithPage returns a URL for page index i.
func (s *Query) WithPage(i int) safehtml.URL {
	newState := s.Clone()
	newState.Page = max(i, 0)
	return newState.ToSafeURL()
}

// WithPageSize returns a URL for page size n on the first page.
func (s *Query) WithPageSize(n int) safehtml.URL {
	newState := s.Clone()
	newState.PageSize = n
	newState.Page = 0
	return newState.ToSafeURL()
}

// SortDirection returns "asc", "desc" or "" for a column.
func (s *Query) SortDirection(column string) string {
	for _, sc := range s.Sort {
		if sc.Name == column {
			if sc.Descending {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}

// WithSortToggled returns a URL sorting by column alone, cycling
// ascending, descending and unsorted.
func (s *Query) WithSortToggled(column string) safehtml.URL {
	newState := s.Clone()
	switch s.SortDirection(column) {
	case "":
		newState.Sort = []SortColumn{{Name: column}}
	case "asc":
		newState.Sort = []SortColumn{{Name: column, Descending: true}}
	default:
		newState.Sort = nil
	}
	return newState.ToSafeURL()
}

// WithFilter returns a URL with a filter added, on the first page.
func (s *Query) WithFilter(field, operator, value string) safehtml.URL {
	newState := s.Clone()
	newState.Filters = append(newState.Filters, Filter{Field: field, Operator: operator, Value: value})
	newState.Page = 0
	return newState.ToSafeURL()
}

// WithoutFilter returns a URL with the i-th filter removed.
func (s *Query) WithoutFilter(i int) safehtml.URL {
	newState := s.Clone()
	if i >= 0 && i < len(newState.Filters) {
		newState.Filters = append(newState.Filters[:i], newState.Filters[i+1:]...)
	}
	newState.Page = 0
	return newState.ToSafeURL()
}

// WithLogicToggled returns a URL switching between AND and OR filtering.
func (s *Query) WithLogicToggled() safehtml.URL {
	newState := s.Clone()
	newState.Or = !s.Or
	newState.Page = 0
	return newState.ToSafeURL()
}

// IsColumnVisible checks if a column is not hidden
func (s *Query) IsColumnVisible(column string) bool {
	for _, col := range s.Hidden {
		if col == column {
			return false
		}
	}
	return true
}

// HiddenSet returns the hidden columns as a set.
func (s *Query) HiddenSet() map[string]bool {
	out := make(map[string]bool, len(s.Hidden))
	for _, col := range s.Hidden {
		out[col] = true
	}
	return out
}

// WithColumnToggled returns a URL with the column hidden or shown.
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newState.Hidden = toggle(s.Hidden, column)
	return newState.ToSafeURL()
}

// WithDensity returns a URL with the row density changed.
func (s *Query) WithDensity(density string) safehtml.URL {
	newState := s.Clone()
	newState.Density = density
	return newState.ToSafeURL()
}

// IsSelected checks if a row id is selected
func (s *Query) IsSelected(id string) bool {
	for _, v := range s.Selected {
		if v == id {
			return true
		}
	}
	return false
}

// WithRowToggled returns a URL with the row selected or unselected.
func (s *Query) WithRowToggled(id string) safehtml.URL {
	newState := s.Clone()
	newState.Selected = toggle(s.Selected, id)
	return newState.ToSafeURL()
}

// WithRowsSelected returns a URL with ids added to the selection.
func (s *Query) WithRowsSelected(ids []string) safehtml.URL {
	newState := s.Clone()
	for _, id := range ids {
		if !newState.IsSelected(id) {
			newState.Selected = append(newState.Selected, id)
		}
	}
	return newState.ToSafeURL()
}

// WithSelectionCleared returns a URL with an empty selection.
func (s *Query) WithSelectionCleared() safehtml.URL {
	newState := s.Clone()
	newState.Selected = nil
	return newState.ToSafeURL()
}

func toggle(list []string, v string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, item := range list {
		if item == v {
			found = true
		} else {
			out = append(out, item)
		}
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// SortModel converts the sort parameter to a table sort model.
func (s *Query) SortModel() tables.SortModel {
	m := make(tables.SortModel, 0, len(s.Sort))
	for _, sc := range s.Sort {
		dir := tables.Asc
		if sc.Descending {
			dir = tables.Desc
		}
		m = append(m, tables.SortItem{Field: sc.Name, Direction: dir})
	}
	return m
}

// FilterModel converts the filter parameters to a table filter model.
func (s *Query) FilterModel() tables.FilterModel {
	m := tables.FilterModel{QuickFilter: s.Quick}
	if s.Or {
		m.Logic = tables.LogicOr
	}
	for _, f := range s.Filters {
		m.Items = append(m.Items, tables.FilterItem{
			Field:    f.Field,
			Operator: tables.Operator(f.Operator),
			Value:    f.Value,
		})
	}
	return m
}

// FromState returns a copy of s with page, sort, filter and selection taken
// from a derived table state. The server uses it to canonicalize URLs after
// invalid parameters were dropped.
func (s *Query) FromState(st *tables.State) *Query {
	newState := s.Clone()
	newState.Page = st.Pagination.PageIndex
	newState.Sort = nil
	for _, it := range st.Sort {
		newState.Sort = append(newState.Sort, SortColumn{Name: it.Field, Descending: it.Direction == tables.Desc})
	}
	newState.Filters = nil
	for _, it := range st.Filter.Items {
		newState.Filters = append(newState.Filters, Filter{
			Field:    it.Field,
			Operator: string(it.Operator),
			Value:    filterText(it.Value),
		})
	}
	newState.Or = st.Filter.Logic == tables.LogicOr
	newState.Quick = st.Filter.QuickFilter
	newState.Selected = append([]string(nil), st.Selection...)
	return newState
}

func filterText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(x)
	}
}
