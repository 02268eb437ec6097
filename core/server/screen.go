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

package server

import (
	"context"

	"github.com/google/safehtml"
	"github.com/google/tablero/core/actions"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/errclass"
	"github.com/google/tablero/core/tables"
	"github.com/google/tablero/core/toolbar"
)

// Request is what a screen's data source must return rows for. In client
// mode only User is meaningful; the grid pages, sorts and filters locally.
type Request struct {
	User     string
	Page     int
	PageSize int
	Sort     tables.SortModel
	Filter   tables.FilterModel
	// Mode is the pagination mode of the grid.
	Mode tables.Mode
}

// Result is one fetch from a data source.
type Result struct {
	// Rows is a list of records: []map[string]any, []rows.Row,
	// []*structpb.Struct or a *structpb.ListValue. Nil means no rows.
	Rows any
	// TotalRowCount is required in server pagination mode. Use tables.Int.
	TotalRowCount *int
	Loading       bool
}

// Options are the optional presentation settings of a screen.
type Options struct {
	Description string
	// Domains restricts the screen to users holding any of them.
	Domains []string
	// IDField names the row identifier field. Defaults to "id".
	IDField      string
	EmptyContent safehtml.HTML
	Toolbar      toolbar.Option
	Classifier   errclass.Classifier
	ActionColumn actions.ColumnOptions
}

// Screen is one list screen: its columns, actions and data source.
type Screen interface {
	Name() string
	Title() string
	Columns() []columns.Column
	Actions() []actions.Action
	GridConfig() tables.Config
	Options() Options
	Fetch(ctx context.Context, req Request) (Result, error)
}

// Retrier is implemented by screens whose data source supports retries.
// Retry is called once per retry request, before the grid fetches again.
type Retrier interface {
	Retry(ctx context.Context) error
}
