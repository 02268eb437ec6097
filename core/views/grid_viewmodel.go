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

// Package views turns derived grid state into a template-ready view model.
package views

import (
	"errors"
	"fmt"

	"github.com/google/safehtml"
	"github.com/google/tablero/core/actions"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/errclass"
	"github.com/google/tablero/core/query"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/tables"
	"github.com/google/tablero/core/toolbar"
)

// VirtualizationThreshold is the row count above which the grid asks the
// renderer to virtualize.
const VirtualizationThreshold = 1000

// RenderFailedMessage is shown when a cell or toolbar renderer fails.
const RenderFailedMessage = "Table failed to render."

// ErrRenderPanic wraps a panic recovered from a caller renderer.
var ErrRenderPanic = errors.New("renderer panicked")

var defaultEmptyContent = safehtml.HTMLEscaped("No rows to display.")

// State is the presentation state of a grid. The states are mutually
// exclusive and evaluated in declaration order, except RenderFailed which
// replaces Populated when rendering fails.
type State int

const (
	StateConfigurationError State = iota
	StateAPIError
	StateEmpty
	StatePopulated
	StateRenderFailed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateConfigurationError:
		return "configuration_error"
	case StateAPIError:
		return "api_error"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateRenderFailed:
		return "render_failed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Endpoints are the paths the rendered grid posts events to.
type Endpoints struct {
	Action  string
	Confirm string
	Cancel  string
	Retry   string
	Export  string
}

// Input is everything one render pass needs.
type Input struct {
	Title string
	// Columns are normalized and include the actions column, if any.
	Columns []columns.Column
	Table   *tables.State
	// Query is the canonical URL state of this render.
	Query     *query.Query
	Endpoints Endpoints

	Loading    bool
	Err        error
	Classifier errclass.Classifier
	// CanRetry reports whether the data layer accepts retries.
	CanRetry bool

	EmptyContent safehtml.HTML
	Toolbar      toolbar.Option
	Pending      *actions.Confirmation
	Diag         *diag.Collector
}

// Header is one column header.
type Header struct {
	Field         string
	HeaderName    string
	Width         int
	Flex          float64
	IsActions     bool
	Sortable      bool
	SortDirection string
	SortURL       safehtml.URL
}

// RowView is one rendered row.
type RowView struct {
	ID        string
	Selected  bool
	ToggleURL safehtml.URL
	Cells     []safehtml.HTML
}

// PageSizeLink is one page size choice.
type PageSizeLink struct {
	Size   int
	Active bool
	URL    safehtml.URL
}

// PaginationView is the pagination footer.
type PaginationView struct {
	Enabled       bool
	PageIndex     int
	PageNumber    int
	PageCount     int
	PageSize      int
	TotalRowCount int
	FirstRow      int
	LastRow       int
	HasPrev       bool
	HasNext       bool
	PrevURL       safehtml.URL
	NextURL       safehtml.URL
	PageSizes     []PageSizeLink
}

// SelectionView is the selection summary.
type SelectionView struct {
	Enabled       bool
	Count         int
	AllOnPage     bool
	SelectPageURL safehtml.URL
	ClearURL      safehtml.URL
}

// FilterChip is an active filter with a link removing it.
type FilterChip struct {
	Field     string
	Operator  string
	Value     string
	RemoveURL safehtml.URL
}

// ConfirmView is the pending confirmation dialog.
type ConfirmView struct {
	Title       string
	Body        string
	ActionLabel string
	ActionID    string
	RowID       string
	ConfirmURL  safehtml.URL
	CancelURL   safehtml.URL
}

// GridViewModel contains the grid formatted for template consumption.
type GridViewModel struct {
	Title       string
	State       State
	Message     string
	Diagnostics []diag.Diagnostic

	// ApiError
	Retryable bool
	RetryURL  safehtml.URL

	// Empty
	EmptyContent safehtml.HTML

	// Populated
	Loading         bool
	Virtualize      bool
	Density         string
	Toolbar         *toolbar.Toolbar
	SuppressToolbar bool
	CustomActions   safehtml.HTML
	// FormURL receives the toolbar forms and redirects to the new state.
	FormURL         safehtml.URL
	Filters         []FilterChip
	FilterLogic     string
	LogicToggleURL  safehtml.URL
	Headers         []Header
	Rows            []RowView
	NoRowsOnPage    bool
	Pagination      PaginationView
	Selection       SelectionView
	Confirmation    *ConfirmView
	ActionURL       safehtml.URL
}

// IsState reports whether the model is in the named state, for templates.
func (vm *GridViewModel) IsState(name string) bool {
	return vm.State.String() == name
}

// Build evaluates the presentation state machine and builds the view model.
func Build(in Input) *GridViewModel {
	q := in.Query
	if q == nil {
		q = &query.Query{Path: "/grid"}
	}
	vm := &GridViewModel{Title: in.Title}
	defer func() { vm.Diagnostics = in.Diag.Entries() }()

	switch {
	case !hasDataColumns(in.Columns):
		vm.State = StateConfigurationError
		vm.Message = "No columns are configured for this table."
		in.Diag.Report("views", diag.CodeEmptyColumns, "grid rendered without data columns")
		return vm

	case in.Err != nil:
		cl := errclass.Classify(in.Classifier, in.Err)
		vm.State = StateAPIError
		vm.Message = cl.Message
		vm.Retryable = cl.Retryable
		if cl.Retryable && in.CanRetry && in.Endpoints.Retry != "" {
			vm.RetryURL = q.WithPath(in.Endpoints.Retry)
		}
		return vm

	case in.Table == nil || (in.Table.RowCount == 0 && in.Table.Pagination.TotalRowCount == 0 && !in.Loading):
		vm.State = StateEmpty
		vm.EmptyContent = in.EmptyContent
		if vm.EmptyContent.String() == "" {
			vm.EmptyContent = defaultEmptyContent
		}
		return vm
	}

	vm.State = StatePopulated
	if err := populate(vm, in, q); err != nil {
		in.Diag.Report("views", diag.CodeRenderFailed, err.Error())
		*vm = GridViewModel{
			Title:   in.Title,
			State:   StateRenderFailed,
			Message: RenderFailedMessage,
		}
	}
	return vm
}

func hasDataColumns(cols []columns.Column) bool {
	for _, c := range cols {
		if !c.IsActions() {
			return true
		}
	}
	return false
}

// guard runs a caller renderer, converting a panic into an error.
func guard(render func() (safehtml.HTML, error)) (h safehtml.HTML, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()
	return render()
}

func populate(vm *GridViewModel, in Input, q *query.Query) error {
	st := in.Table
	features := st.Features
	hidden := hiddenColumns(in.Columns, q)

	vm.Loading = in.Loading
	vm.Virtualize = st.Pagination.TotalRowCount > VirtualizationThreshold
	vm.Density = q.Density
	if vm.Density == "" {
		vm.Density = string(toolbar.Standard)
	}
	if in.Endpoints.Action != "" {
		vm.ActionURL = q.WithPath(in.Endpoints.Action)
	}

	// Toolbar
	opt := in.Toolbar
	if !features.Filtering {
		opt.Filter = toolbar.Bool(false)
		opt.QuickFilter = toolbar.Bool(false)
	}
	if in.Endpoints.Export == "" {
		opt.Export = toolbar.Bool(false)
	}
	ops := make([]string, len(tables.Operators))
	for i, op := range tables.Operators {
		ops[i] = string(op)
	}
	tb := toolbar.Compose(opt, toolbar.Inputs{
		Columns:         in.Columns,
		Hidden:          hidden,
		QuickFilter:     st.Filter.QuickFilter,
		Density:         toolbar.Density(vm.Density),
		Operators:       ops,
		ColumnToggleURL: q.WithColumnToggled,
		DensityURL:      func(d toolbar.Density) safehtml.URL { return q.WithDensity(string(d)) },
		ExportURL:       q.WithPath(in.Endpoints.Export),
	})
	vm.Toolbar = tb
	vm.SuppressToolbar = tb.Empty()
	if tb != nil && tb.CustomActions != nil {
		h, err := guard(tb.CustomActions)
		if err != nil {
			return fmt.Errorf("toolbar: %w", err)
		}
		vm.CustomActions = h
	}
	vm.FormURL = q.ToSafeURL()

	for i, it := range st.Filter.Items {
		vm.Filters = append(vm.Filters, FilterChip{
			Field:     it.Field,
			Operator:  string(it.Operator),
			Value:     fmt.Sprint(it.Value),
			RemoveURL: q.WithoutFilter(i),
		})
	}
	vm.FilterLogic = st.Filter.Logic.String()
	vm.LogicToggleURL = q.WithLogicToggled()

	// Headers
	var visible []columns.Column
	for _, c := range in.Columns {
		if hidden[c.Field] {
			continue
		}
		visible = append(visible, c)
		h := Header{
			Field:      c.Field,
			HeaderName: c.HeaderName,
			Width:      c.Width,
			Flex:       c.Flex,
			IsActions:  c.IsActions(),
			Sortable:   features.Sorting && c.Sortable && !c.IsActions(),
		}
		if h.Sortable {
			h.SortDirection = string(st.Sort.DirectionOf(c.Field))
			h.SortURL = q.WithSortToggled(c.Field)
		}
		vm.Headers = append(vm.Headers, h)
	}

	// Rows, inside the render boundary.
	for _, r := range st.Rows {
		rv := RowView{ID: r.ID, Selected: st.IsSelected(r.ID)}
		if features.Selection {
			rv.ToggleURL = q.WithRowToggled(r.ID)
		}
		for _, c := range visible {
			cell, err := renderCell(c, r)
			if err != nil {
				return fmt.Errorf("row %q column %q: %w", r.ID, c.Field, err)
			}
			rv.Cells = append(rv.Cells, cell)
		}
		vm.Rows = append(vm.Rows, rv)
	}
	vm.NoRowsOnPage = len(st.Rows) == 0

	vm.Pagination = paginationView(st, q, features.Pagination)

	if features.Selection {
		ids := make([]string, len(st.Rows))
		for i, r := range st.Rows {
			ids[i] = r.ID
		}
		vm.Selection = SelectionView{
			Enabled:       true,
			Count:         len(st.Selection),
			AllOnPage:     st.AllOnPageSelected(),
			SelectPageURL: q.WithRowsSelected(ids),
			ClearURL:      q.WithSelectionCleared(),
		}
	}

	if p := in.Pending; p != nil {
		label := p.Action.Label.Resolve(p.Row)
		if label == "" {
			label = p.Action.ID
		}
		vm.Confirmation = &ConfirmView{
			Title:       p.Copy.Title,
			Body:        p.Copy.Body,
			ActionLabel: label,
			ActionID:    p.Action.ID,
			RowID:       p.Row.ID,
			ConfirmURL:  q.WithPath(in.Endpoints.Confirm),
			CancelURL:   q.WithPath(in.Endpoints.Cancel),
		}
	}
	return nil
}

// hiddenColumns returns the fields the query hides. Only hideable data
// columns can be hidden.
func hiddenColumns(cols []columns.Column, q *query.Query) map[string]bool {
	requested := q.HiddenSet()
	out := make(map[string]bool, len(requested))
	for _, c := range cols {
		if requested[c.Field] && c.Hideable && !c.IsActions() {
			out[c.Field] = true
		}
	}
	return out
}

func renderCell(c columns.Column, r rows.Row) (safehtml.HTML, error) {
	return guard(func() (safehtml.HTML, error) {
		if c.Render == nil {
			return safehtml.HTMLEscaped(c.Text(r)), nil
		}
		return c.Render(r)
	})
}

func paginationView(st *tables.State, q *query.Query, enabled bool) PaginationView {
	p := st.Pagination
	pv := PaginationView{
		Enabled:       enabled,
		PageIndex:     p.PageIndex,
		PageNumber:    p.PageIndex + 1,
		PageCount:     p.PageCount(),
		PageSize:      p.PageSize,
		TotalRowCount: p.TotalRowCount,
		HasPrev:       p.HasPrev(),
		HasNext:       p.HasNext(),
	}
	if len(st.Rows) > 0 {
		pv.FirstRow = p.PageIndex*p.PageSize + 1
		pv.LastRow = p.PageIndex*p.PageSize + len(st.Rows)
	}
	if !enabled {
		return pv
	}
	if pv.HasPrev {
		pv.PrevURL = q.WithPage(p.PageIndex - 1)
	}
	if pv.HasNext {
		pv.NextURL = q.WithPage(p.PageIndex + 1)
	}
	for _, size := range st.PageSizeOptions {
		pv.PageSizes = append(pv.PageSizes, PageSizeLink{
			Size:   size,
			Active: size == p.PageSize,
			URL:    q.WithPageSize(size),
		})
	}
	return pv
}
