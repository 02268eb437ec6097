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
	"reflect"
	"strings"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/rows"
)

const component = "tables"

// Input is what the caller supplies on every render pass.
type Input struct {
	Rows       []rows.Row
	Columns    []columns.Column
	Controlled Controlled
	// TotalRowCount is required with server pagination.
	TotalRowCount *int
}

// State is the derived table state of one render pass.
type State struct {
	// Rows are the rows visible on the current page.
	Rows []rows.Row
	// RowCount is the number of rows the caller supplied, before filtering.
	RowCount int

	Pagination      PaginationModel
	PageSizeOptions []int
	Sort            SortModel
	Filter          FilterModel
	Selection       SelectionModel
	Features        Features
}

// IsSelected reports whether the row id is selected.
func (s *State) IsSelected(id string) bool {
	return s.Selection.Contains(id)
}

// AllOnPageSelected reports whether every visible row is selected.
func (s *State) AllOnPageSelected() bool {
	if len(s.Rows) == 0 {
		return false
	}
	for _, r := range s.Rows {
		if !s.Selection.Contains(r.ID) {
			return false
		}
	}
	return true
}

type ownership struct {
	pageIndex bool
	pageSize  bool
	sort      bool
	filter    bool
	selection bool
}

// Controller owns the pagination, sorting, filtering and selection state of
// one grid instance. Each model is either controlled by the caller or owned
// by the controller; the choice is made once, at construction, from the
// fields present in the initial Controlled value.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	cfg   resolved
	owned ownership
	d     *diag.Collector

	// Current models: the caller's latest value for controlled models, the
	// internal value otherwise.
	pageIndex int
	pageSize  int
	sort      SortModel
	filter    FilterModel
	selection SelectionModel

	// From the latest Derive.
	cols    []columns.Column
	present map[string]bool
	page    []string

	flagged map[string]bool
}

// NewController creates a controller for cfg. Ownership of each model is
// taken from initial.
func NewController(cfg Config, initial Controlled, d *diag.Collector) *Controller {
	c := &Controller{
		cfg: resolveConfig(cfg),
		owned: ownership{
			pageIndex: initial.PageIndex != nil,
			pageSize:  initial.PageSize != nil,
			sort:      initial.SortModel != nil,
			filter:    initial.FilterModel != nil,
			selection: initial.Selection != nil,
		},
		d:       d,
		flagged: make(map[string]bool),
	}
	c.pageSize = c.cfg.pageSize
	c.sort = c.cfg.defaultSort
	c.filter = c.cfg.defaultFilter
	c.adopt(initial)
	return c
}

// Snapshot is a copy of the controller's current models.
type Snapshot struct {
	PageIndex int
	PageSize  int
	Sort      SortModel
	Filter    FilterModel
	Selection SelectionModel
}

// Snapshot returns the current models. Data sources computing in server
// mode read the page, sort and filter they must apply from it.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		PageIndex: c.pageIndex,
		PageSize:  c.pageSize,
		Sort:      c.sort.Clone(),
		Filter:    c.filter.Clone(),
		Selection: c.selection.Clone(),
	}
}

// DefaultPageSize returns the configured page size.
func (c *Controller) DefaultPageSize() int {
	return c.cfg.pageSize
}

// Features returns the resolved feature set.
func (c *Controller) Features() Features {
	return c.cfg.Features
}

// adoptModel takes a controlled value into dst. A value appearing for an
// uncontrolled model, or disappearing for a controlled one, is reported and
// ignored.
func adoptModel[T any](c *Controller, name string, owned bool, v *T, dst *T) {
	switch {
	case owned && v != nil:
		*dst = *v
	case owned != (v != nil):
		if !c.flagged[name] {
			c.flagged[name] = true
			c.d.Report(component, diag.CodeOwnershipChanged,
				fmt.Sprintf("%s switched between controlled and uncontrolled; keeping original ownership", name),
				"model", name, "controlled", owned)
		}
	}
}

func (c *Controller) adopt(ctl Controlled) {
	adoptModel(c, "pageIndex", c.owned.pageIndex, ctl.PageIndex, &c.pageIndex)
	adoptModel(c, "pageSize", c.owned.pageSize, ctl.PageSize, &c.pageSize)
	adoptModel(c, "sortModel", c.owned.sort, ctl.SortModel, &c.sort)
	adoptModel(c, "filterModel", c.owned.filter, ctl.FilterModel, &c.filter)
	adoptModel(c, "selection", c.owned.selection, ctl.Selection, &c.selection)
	c.selection = c.selection.dedupe()
}

// Derive computes the visible state from in. It is deterministic in the
// current models and in.
func (c *Controller) Derive(in Input) *State {
	c.adopt(in.Controlled)
	c.cols = in.Columns

	st := &State{
		RowCount:        len(in.Rows),
		PageSizeOptions: c.cfg.pageSizeOptions,
		Features:        c.cfg.Features,
	}

	if c.cfg.Sorting {
		c.sort = c.sanitizeSort(c.sort)
		st.Sort = c.sort.Clone()
	}
	if c.cfg.Filtering {
		c.filter = c.sanitizeFilter(c.filter)
		st.Filter = c.filter.Clone()
	}
	c.sanitizePagination()

	c.present = make(map[string]bool, len(in.Rows))
	for _, r := range in.Rows {
		c.present[r.ID] = true
	}
	if c.cfg.Selection {
		c.pruneSelection()
		st.Selection = c.selection.Clone()
	}

	visible := in.Rows
	clientPaging := c.cfg.Pagination && c.cfg.PaginationMode == ModeClient
	if c.cfg.Filtering && c.cfg.FilteringMode == ModeClient {
		visible = Filter(visible, in.Columns, c.filter)
	}
	total := len(visible)
	start, end := 0, total
	if clientPaging {
		start, end = pageBounds(c.pageIndex, c.pageSize, total)
	}
	if c.cfg.Sorting && c.cfg.SortingMode == ModeClient && len(c.sort) > 0 && start < total {
		visible = SortedTopK(visible, in.Columns, c.sort, end)
	}

	switch {
	case !c.cfg.Pagination:
		st.Pagination = PaginationModel{PageSize: total, TotalRowCount: total, Mode: ModeClient}
	case clientPaging:
		visible = visible[start:end]
		st.Pagination = PaginationModel{PageIndex: c.pageIndex, PageSize: c.pageSize, TotalRowCount: total, Mode: ModeClient}
	default:
		total = len(in.Rows)
		if in.TotalRowCount != nil {
			total = *in.TotalRowCount
		} else {
			c.d.Report(component, diag.CodeMissingTotalRowCount,
				"server pagination without a total row count; using the number of supplied rows",
				"rows", total)
		}
		st.Pagination = PaginationModel{PageIndex: c.pageIndex, PageSize: c.pageSize, TotalRowCount: total, Mode: ModeServer}
	}

	st.Rows = visible
	c.page = rows.IDs(visible)
	return st
}

// pageBounds returns the [start, end) range of page index over n rows.
// Pages past the end are empty. size must be positive.
func pageBounds(index, size, n int) (int, int) {
	if n == 0 || index > (n-1)/size {
		return n, n
	}
	start := index * size
	return start, start + min(size, n-start)
}

// Processed returns rs filtered and sorted by the current models, without
// pagination. Only client-mode features are applied.
func (c *Controller) Processed(rs []rows.Row) []rows.Row {
	out := rs
	if c.cfg.Filtering && c.cfg.FilteringMode == ModeClient {
		out = Filter(out, c.cols, c.filter)
	}
	if c.cfg.Sorting && c.cfg.SortingMode == ModeClient {
		out = Sort(out, c.cols, c.sort)
	}
	return out
}

func (c *Controller) sanitizePagination() {
	if c.pageIndex < 0 {
		c.d.Report(component, diag.CodeInvalidPagination,
			fmt.Sprintf("page index %d is negative; using 0", c.pageIndex))
		c.pageIndex = 0
	}
	if c.pageSize <= 0 {
		c.d.Report(component, diag.CodeInvalidPagination,
			fmt.Sprintf("page size %d is not positive; using %d", c.pageSize, c.cfg.pageSize))
		c.pageSize = c.cfg.pageSize
	}
	if c.pageSize > MaxPageSize {
		c.d.Report(component, diag.CodeInvalidPagination,
			fmt.Sprintf("page size %d exceeds %d; using %d", c.pageSize, MaxPageSize, MaxPageSize))
		c.pageSize = MaxPageSize
	}
}

// sanitizeSort drops items referencing unknown or unsortable fields, and
// repeated fields. Without columns there is nothing to check against.
func (c *Controller) sanitizeSort(m SortModel) SortModel {
	if c.cols == nil || len(m) == 0 {
		return m
	}
	out := make(SortModel, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, it := range m {
		col, ok := columns.Find(c.cols, it.Field)
		if !ok || !col.Sortable {
			c.d.Report(component, diag.CodeUnknownSortField,
				fmt.Sprintf("sort on %q dropped: no sortable column with that field", it.Field),
				"field", it.Field)
			continue
		}
		if seen[it.Field] {
			continue
		}
		seen[it.Field] = true
		if it.Direction != Desc {
			it.Direction = Asc
		}
		out = append(out, it)
	}
	return out
}

func (c *Controller) sanitizeFilter(m FilterModel) FilterModel {
	if c.cols == nil {
		return m
	}
	out := FilterModel{Logic: m.Logic, QuickFilter: strings.TrimSpace(m.QuickFilter)}
	if out.Logic != LogicOr {
		out.Logic = LogicAnd
	}
	for _, it := range m.Items {
		col, ok := columns.Find(c.cols, it.Field)
		if !ok || !col.Filterable {
			c.d.Report(component, diag.CodeUnknownFilterField,
				fmt.Sprintf("filter %q dropped: no filterable column with that field", describeItem(it)),
				"field", it.Field)
			continue
		}
		if !it.Operator.Valid() {
			c.d.Report(component, diag.CodeUnknownFilterOp,
				fmt.Sprintf("filter %q dropped: unknown operator", describeItem(it)),
				"field", it.Field, "operator", string(it.Operator))
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

func (c *Controller) pruneSelection() {
	kept := make(SelectionModel, 0, len(c.selection))
	for _, id := range c.selection {
		if c.present[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) != len(c.selection) {
		c.setSelection(kept)
		// A controlled selection is pruned for this pass even though the
		// caller has not applied the change yet.
		c.selection = kept
	}
}

// SetPage requests page index i.
func (c *Controller) SetPage(i int) {
	if !c.cfg.Pagination {
		return
	}
	if i < 0 {
		i = 0
	}
	if i == c.pageIndex {
		return
	}
	if !c.owned.pageIndex {
		c.pageIndex = i
	}
	if c.cfg.onPageChange != nil {
		c.cfg.onPageChange(i)
	}
}

// SetPageSize requests page size n and returns to the first page.
func (c *Controller) SetPageSize(n int) {
	if n > MaxPageSize {
		c.d.Report(component, diag.CodeInvalidPagination,
			fmt.Sprintf("page size %d exceeds %d; using %d", n, MaxPageSize, MaxPageSize))
		n = MaxPageSize
	}
	if !c.cfg.Pagination || n <= 0 || n == c.pageSize {
		return
	}
	if !c.owned.pageSize {
		c.pageSize = n
	}
	if c.cfg.onPageSizeChange != nil {
		c.cfg.onPageSizeChange(n)
	}
	c.SetPage(0)
}

// SetSortModel requests sort model m.
func (c *Controller) SetSortModel(m SortModel) {
	if !c.cfg.Sorting {
		return
	}
	m = c.sanitizeSort(m.Clone())
	if equalSort(m, c.sort) {
		return
	}
	if !c.owned.sort {
		c.sort = m
	}
	if c.cfg.onSortModelChange != nil {
		c.cfg.onSortModelChange(m.Clone())
	}
}

// ToggleSort cycles field through ascending, descending and unsorted,
// replacing any other sort.
func (c *Controller) ToggleSort(field string) {
	switch c.sort.DirectionOf(field) {
	case "":
		c.SetSortModel(SortModel{{Field: field, Direction: Asc}})
	case Asc:
		c.SetSortModel(SortModel{{Field: field, Direction: Desc}})
	default:
		c.SetSortModel(SortModel{})
	}
}

// SetFilterModel requests filter model m and returns to the first page.
func (c *Controller) SetFilterModel(m FilterModel) {
	if !c.cfg.Filtering {
		return
	}
	m = c.sanitizeFilter(m.Clone())
	if reflect.DeepEqual(m, c.filter) {
		return
	}
	if !c.owned.filter {
		c.filter = m
	}
	if c.cfg.onFilterModelChange != nil {
		c.cfg.onFilterModelChange(m.Clone())
	}
	c.SetPage(0)
}

// SetQuickFilter replaces the quick filter text.
func (c *Controller) SetQuickFilter(q string) {
	m := c.filter.Clone()
	m.QuickFilter = strings.TrimSpace(q)
	c.SetFilterModel(m)
}

// SelectRows replaces the selection with ids. Unknown ids are ignored.
func (c *Controller) SelectRows(ids []string) {
	if !c.cfg.Selection {
		return
	}
	next := make(SelectionModel, 0, len(ids))
	for _, id := range ids {
		if c.known(id) {
			next = append(next, id)
		}
	}
	c.setSelection(next.dedupe())
}

// ToggleRow flips the selection of one row.
func (c *Controller) ToggleRow(id string) {
	if !c.cfg.Selection {
		return
	}
	if c.selection.Contains(id) {
		next := make(SelectionModel, 0, len(c.selection))
		for _, v := range c.selection {
			if v != id {
				next = append(next, v)
			}
		}
		c.setSelection(next)
		return
	}
	if c.known(id) {
		c.setSelection(append(c.selection.Clone(), id))
	}
}

// SelectAllOnPage adds every visible row to the selection.
func (c *Controller) SelectAllOnPage() {
	if !c.cfg.Selection {
		return
	}
	c.setSelection(append(c.selection.Clone(), c.page...).dedupe())
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	if !c.cfg.Selection {
		return
	}
	c.setSelection(SelectionModel{})
}

func (c *Controller) known(id string) bool {
	return id != "" && (c.present == nil || c.present[id])
}

// setSelection emits the full selection whenever it changes.
func (c *Controller) setSelection(s SelectionModel) {
	if equalSelection(s, c.selection) {
		return
	}
	if !c.owned.selection {
		c.selection = s
	}
	if c.cfg.onSelectionChange != nil {
		c.cfg.onSelectionChange(s.Clone())
	}
}
