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

package actions

import (
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/rows"
)

// ColumnOptions configures the synthesized actions column.
type ColumnOptions struct {
	HeaderName string
	Width      int
	// TriggerURL is the form target receiving the "action" and "row" fields.
	TriggerURL safehtml.URL
}

var cellTemplate = template.Must(template.New("actions").Parse(
	`<div class="grid-actions">` +
		`{{range .Actions}}` +
		`<form class="grid-action" method="post" action="{{$.TriggerURL}}">` +
		`<input type="hidden" name="action" value="{{.ID}}">` +
		`<input type="hidden" name="row" value="{{$.RowID}}">` +
		`{{if .Disabled}}` +
		`<button type="button" title="{{.Label}}" disabled>{{.Icon}}<span class="grid-action-label">{{.Label}}</span></button>` +
		`{{else}}` +
		`<button type="submit" title="{{.Label}}">{{.Icon}}<span class="grid-action-label">{{.Label}}</span></button>` +
		`{{end}}` +
		`</form>` +
		`{{end}}` +
		`</div>`))

type cellData struct {
	TriggerURL safehtml.URL
	RowID      string
	Actions    []Resolved
}

// BuildColumn returns the actions column for reg, or nil when there are no
// actions or when existing already declares an actions column. The
// caller's own actions column always wins.
func BuildColumn(reg *Registry, existing []columns.Column, opts ColumnOptions) *columns.Column {
	if reg.Len() == 0 || columns.HasActions(existing) {
		return nil
	}
	header := opts.HeaderName
	if header == "" {
		header = "Actions"
	}
	return &columns.Column{
		Field:      columns.ActionsField,
		HeaderName: header,
		Width:      opts.Width,
		Type:       columns.TypeActions,
		Render: func(row rows.Row) (safehtml.HTML, error) {
			resolved, err := reg.ForRow(row)
			if err != nil {
				return safehtml.HTML{}, err
			}
			return cellTemplate.ExecuteToHTML(cellData{
				TriggerURL: opts.TriggerURL,
				RowID:      row.ID,
				Actions:    resolved,
			})
		},
	}
}

// WithActions appends the actions column for reg to cols when one is needed.
func WithActions(cols []columns.Column, reg *Registry, opts ColumnOptions) []columns.Column {
	col := BuildColumn(reg, cols, opts)
	if col == nil {
		return cols
	}
	out := make([]columns.Column, 0, len(cols)+1)
	out = append(out, cols...)
	return append(out, *col)
}
