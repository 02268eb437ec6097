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

package demo

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/google/tablero/core/actions"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/csvimport"
	"github.com/google/tablero/core/errclass"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/server"
	"github.com/google/tablero/core/tables"
	"github.com/google/tablero/core/toolbar"
)

var badgeTemplate = template.Must(template.New("badge").Parse(
	`<span class="badge badge-{{.}}">{{.}}</span>`))

// badge renders the value of field as a colored label.
func badge(field string) columns.CellRenderer {
	return func(r rows.Row) (safehtml.HTML, error) {
		return badgeTemplate.ExecuteToHTML(columns.FormatValue(r.Get(field)))
	}
}

var (
	tenantsEmpty = safehtml.HTMLEscaped("No tenants match the current filters.")
	markdownLink = template.Must(template.New("md").Parse(
		`<a class="toolbar-link" href="/grid/export?screen=tenants&amp;format=md">Markdown</a>`))
)

// TenantsScreen lists tenants with client-side paging, sorting and
// filtering, and per-row lifecycle actions.
type TenantsScreen struct {
	store *TenantStore
	log   logr.Logger
}

// NewTenantsScreen returns the tenants screen backed by store.
func NewTenantsScreen(store *TenantStore, log logr.Logger) *TenantsScreen {
	return &TenantsScreen{store: store, log: log.WithName("tenants")}
}

func (s *TenantsScreen) Name() string  { return "tenants" }
func (s *TenantsScreen) Title() string { return "Tenants" }

func (s *TenantsScreen) Columns() []columns.Column {
	return []columns.Column{
		{Field: "name", HeaderName: "Name", Flex: 2, Sortable: true, Filterable: true},
		{Field: "plan", HeaderName: "Plan", Width: 120, Sortable: true, Filterable: true, Hideable: true, Render: badge("plan")},
		{Field: "seats", HeaderName: "Seats", Width: 90, Sortable: true, Filterable: true, Hideable: true, Type: columns.TypeNumber},
		{Field: "region", HeaderName: "Region", Width: 120, Sortable: true, Filterable: true, Hideable: true},
		{Field: "status", HeaderName: "Status", Width: 120, Sortable: true, Filterable: true, Render: badge("status")},
		{Field: "created", HeaderName: "Created", Width: 120, Sortable: true, Filterable: true, Hideable: true},
		{Field: "owner", HeaderName: "Owner", Flex: 1.5, Filterable: true, Hideable: true},
	}
}

func (s *TenantsScreen) Actions() []actions.Action {
	hasStatus := func(status string) func(rows.Row) bool {
		return func(r rows.Row) bool { return r.Get("status") == status }
	}
	return []actions.Action{
		{
			ID:      "suspend",
			Label:   actions.StaticLabel("Suspend"),
			Icon:    actions.StaticIcon("pause"),
			Visible: hasStatus(StatusActive),
			OnClick: func(r rows.Row) { s.setStatus(r.ID, StatusSuspended) },
		},
		{
			ID:      "resume",
			Label:   actions.StaticLabel("Resume"),
			Icon:    actions.StaticIcon("play_arrow"),
			Visible: hasStatus(StatusSuspended),
			OnClick: func(r rows.Row) { s.setStatus(r.ID, StatusActive) },
		},
		{
			ID:    "delete",
			Label: actions.StaticLabel("Delete"),
			Icon:  actions.StaticIcon("delete"),
			Order: 10,
			// Enterprise tenants must be downgraded first.
			Disabled:             func(r rows.Row) bool { return r.Get("plan") == "enterprise" },
			RequiresConfirmation: true,
			Confirmation: &actions.ConfirmationCopy{
				Title: "Delete tenant?",
				Body:  "The tenant and all of its data will be removed. This cannot be undone.",
			},
			OnClick: func(r rows.Row) {
				if err := s.store.Delete(r.ID); err != nil {
					s.log.Error(err, "delete failed", "tenant", r.ID)
					return
				}
				s.log.Info("tenant deleted", "tenant", r.ID)
			},
		},
	}
}

func (s *TenantsScreen) setStatus(id, status string) {
	if err := s.store.SetStatus(id, status); err != nil {
		s.log.Error(err, "status change failed", "tenant", id, "status", status)
		return
	}
	s.log.Info("tenant status changed", "tenant", id, "status", status)
}

func (s *TenantsScreen) GridConfig() tables.Config {
	return tables.Config{
		Pagination: &tables.PaginationConfig{PageSize: 10},
		Sorting: &tables.SortingConfig{
			DefaultModel: tables.SortModel{{Field: "name", Direction: tables.Asc}},
		},
	}
}

func (s *TenantsScreen) Options() server.Options {
	return server.Options{
		Description:  "Customer tenants, their plans and lifecycle.",
		Domains:      []string{"billing", "operations"},
		EmptyContent: tenantsEmpty,
		Toolbar: toolbar.Option{
			QuickFilter: toolbar.Bool(true),
			CustomActions: func() (safehtml.HTML, error) {
				return markdownLink.ExecuteToHTML(nil)
			},
		},
	}
}

func (s *TenantsScreen) Fetch(ctx context.Context, req server.Request) (server.Result, error) {
	return server.Result{Rows: s.store.List()}, nil
}

// AuditScreen pages through the audit log on the server.
type AuditScreen struct {
	log *AuditLog
}

// NewAuditScreen returns the audit screen backed by log.
func NewAuditScreen(log *AuditLog) *AuditScreen {
	return &AuditScreen{log: log}
}

func (s *AuditScreen) Name() string  { return "audit" }
func (s *AuditScreen) Title() string { return "Audit log" }

func (s *AuditScreen) Columns() []columns.Column {
	return []columns.Column{
		{Field: "at", HeaderName: "Time", Width: 200, Sortable: true, Filterable: true, Type: columns.TypeDateTime},
		{Field: "actor", HeaderName: "Actor", Width: 120, Sortable: true, Filterable: true},
		{Field: "tenant", HeaderName: "Tenant", Width: 120, Sortable: true, Filterable: true, Hideable: true},
		{Field: "action", HeaderName: "Action", Flex: 1, Sortable: true, Filterable: true},
		{Field: "severity", HeaderName: "Severity", Width: 110, Sortable: true, Filterable: true, Render: badge("severity")},
		{Field: "bytes", HeaderName: "Bytes", Width: 100, Sortable: true, Filterable: true, Hideable: true, Type: columns.TypeNumber},
	}
}

func (s *AuditScreen) Actions() []actions.Action { return nil }

func (s *AuditScreen) GridConfig() tables.Config {
	return tables.Config{
		Pagination: &tables.PaginationConfig{
			Mode:            tables.ModeServer,
			PageSize:        50,
			PageSizeOptions: []int{50, 100, 500, 2000},
		},
		Sorting: &tables.SortingConfig{
			DefaultModel: tables.SortModel{{Field: "at", Direction: tables.Desc}},
		},
		Selection: &tables.SelectionConfig{Disabled: true},
	}
}

func (s *AuditScreen) Options() server.Options {
	return server.Options{
		Description: "Every administrative event, newest first.",
		Domains:     []string{"operations"},
		Toolbar:     toolbar.Option{QuickFilter: toolbar.Bool(true)},
	}
}

func (s *AuditScreen) Fetch(ctx context.Context, req server.Request) (server.Result, error) {
	page, total := s.log.Query(s.Columns(), req.Filter, req.Sort, req.Page, req.PageSize)
	return server.Result{Rows: page, TotalRowCount: tables.Int(total)}, nil
}

// errBackendDown is returned by StatusScreen until it is retried.
var errBackendDown = errors.New("status backend unavailable")

// StatusScreen reads from a backend that is down until the first retry.
type StatusScreen struct {
	services []map[string]any

	mu   sync.Mutex
	down bool
}

// NewStatusScreen returns a status screen over the embedded service list.
// Its backend starts down.
func NewStatusScreen() (*StatusScreen, error) {
	services, err := csvimport.ImportFromFS(dataFS, "data/services.csv", csvimport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &StatusScreen{services: services, down: true}, nil
}

func (s *StatusScreen) Name() string  { return "status" }
func (s *StatusScreen) Title() string { return "Service status" }

func (s *StatusScreen) Columns() []columns.Column {
	return []columns.Column{
		{Field: "service", HeaderName: "Service", Flex: 1, Sortable: true},
		{Field: "state", HeaderName: "State", Width: 120, Sortable: true, Render: badge("state")},
		{Field: "latency_ms", HeaderName: "Latency (ms)", Width: 120, Sortable: true, Type: columns.TypeNumber},
		{Field: "since", HeaderName: "Since", Width: 200, Sortable: true, Type: columns.TypeDateTime},
		{Field: "paged", HeaderName: "Paged", Width: 80, Sortable: true, Type: columns.TypeBool},
	}
}

func (s *StatusScreen) Actions() []actions.Action { return nil }

func (s *StatusScreen) GridConfig() tables.Config {
	return tables.Config{
		Pagination: &tables.PaginationConfig{Disabled: true},
		Filtering:  &tables.FilteringConfig{Disabled: true},
		Selection:  &tables.SelectionConfig{Disabled: true},
	}
}

func (s *StatusScreen) Options() server.Options {
	return server.Options{
		Description: "Health of the platform services.",
		IDField:     "service",
		Toolbar:     toolbar.Off(),
	}
}

func (s *StatusScreen) Fetch(ctx context.Context, req server.Request) (server.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return server.Result{}, errclass.NewStatusError(http.StatusServiceUnavailable, errBackendDown)
	}
	return server.Result{Rows: s.services}, nil
}

// Retry brings the backend back.
func (s *StatusScreen) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = false
	return nil
}
