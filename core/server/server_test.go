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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/tablero/core/actions"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/errclass"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/tables"
	"github.com/google/tablero/core/users"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// tenantScreen is an in-memory screen over a few tenants.
type tenantScreen struct {
	name     string
	cfg      tables.Config
	opts     Options
	data     []map[string]any
	fetchErr error
	requests []Request
	deleted  []string
}

func newTenantScreen(name string) *tenantScreen {
	return &tenantScreen{
		name: name,
		data: []map[string]any{
			{"id": "t1", "name": "Acme", "plan": "pro", "seats": 10},
			{"id": "t2", "name": "Globex", "plan": "free", "seats": 3},
			{"id": "t3", "name": "Initech", "plan": "pro", "seats": 7},
			{"id": "t4", "name": "Umbrella", "plan": "free", "seats": 1},
			{"id": "t5", "name": "Hooli", "plan": "pro", "seats": 25},
		},
	}
}

func (s *tenantScreen) Name() string              { return s.name }
func (s *tenantScreen) Title() string             { return "Tenants" }
func (s *tenantScreen) GridConfig() tables.Config { return s.cfg }
func (s *tenantScreen) Options() Options          { return s.opts }

func (s *tenantScreen) Columns() []columns.Column {
	return []columns.Column{
		{Field: "name", HeaderName: "Name", Sortable: true, Filterable: true, Hideable: true},
		{Field: "plan", HeaderName: "Plan", Filterable: true, Hideable: true},
		{Field: "seats", HeaderName: "Seats", Type: columns.TypeNumber, Sortable: true, Filterable: true},
	}
}

func (s *tenantScreen) Actions() []actions.Action {
	return []actions.Action{
		{
			ID:                   "delete",
			Label:                actions.StaticLabel("Delete"),
			RequiresConfirmation: true,
			OnClick: func(r rows.Row) {
				s.deleted = append(s.deleted, r.ID)
				for i, d := range s.data {
					if d["id"] == r.ID {
						s.data = append(s.data[:i], s.data[i+1:]...)
						break
					}
				}
			},
		},
		{
			ID:      "upgrade",
			Label:   actions.StaticLabel("Upgrade"),
			Visible: func(r rows.Row) bool { return r.Get("plan") == "free" },
			OnClick: func(r rows.Row) {
				for _, d := range s.data {
					if d["id"] == r.ID {
						d["plan"] = "pro"
					}
				}
			},
		},
	}
}

func (s *tenantScreen) Fetch(_ context.Context, req Request) (Result, error) {
	s.requests = append(s.requests, req)
	if s.fetchErr != nil {
		return Result{}, s.fetchErr
	}
	if req.Mode != tables.ModeServer {
		return Result{Rows: s.data}, nil
	}
	start := len(s.data)
	if req.Page <= len(s.data)/req.PageSize {
		start = req.Page * req.PageSize
	}
	end := start + min(req.PageSize, len(s.data)-start)
	return Result{Rows: s.data[start:end], TotalRowCount: tables.Int(len(s.data))}, nil
}

// flakyScreen fails with a retryable status until retried.
type flakyScreen struct {
	*tenantScreen
	retries int
}

func (s *flakyScreen) Retry(context.Context) error {
	s.retries++
	s.fetchErr = nil
	return nil
}

func newTestServer(t *testing.T, screens ...Screen) (*Server, http.Handler) {
	t.Helper()
	s, err := NewServer(DefaultConfig(), screens...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body:\n%s", rec.Code, want, rec.Body.String())
	}
}

func TestGridRender(t *testing.T) {
	s, h := newTestServer(t, newTenantScreen("tenants"))

	rec := do(t, h, "GET", "/grid?screen=tenants&sort=-seats", nil)
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	hooli, acme, umbrella := strings.Index(body, "Hooli"), strings.Index(body, "Acme"), strings.Index(body, "Umbrella")
	if hooli < 0 || !(hooli < acme && acme < umbrella) {
		t.Errorf("rows not sorted by seats descending")
	}
	if !strings.Contains(body, "/grid/action?screen=tenants&amp;sort=-seats") {
		t.Error("action forms must carry the grid state")
	}
	if got := testutil.ToFloat64(s.metrics.renders.WithLabelValues("tenants", "populated")); got != 1 {
		t.Errorf("populated renders = %v, want 1", got)
	}
}

func TestRequestErrors(t *testing.T) {
	_, h := newTestServer(t, newTenantScreen("tenants"))

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing screen", "GET", "/grid", http.StatusBadRequest},
		{"unknown screen", "GET", "/grid?screen=nope", http.StatusNotFound},
		{"retry unsupported", "POST", "/grid/retry?screen=tenants", http.StatusBadRequest},
		{"nothing to confirm", "POST", "/grid/confirm?screen=tenants", http.StatusConflict},
		{"bad export format", "GET", "/grid/export?screen=tenants&format=xlsx", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, h, tt.method, tt.target, nil), tt.want)
		})
	}
}

func TestRetryableErrorRetriesOnce(t *testing.T) {
	flaky := &flakyScreen{tenantScreen: newTenantScreen("flaky")}
	flaky.fetchErr = errclass.NewStatusError(http.StatusServiceUnavailable, nil)
	s, h := newTestServer(t, flaky)

	rec := do(t, h, "GET", "/grid?screen=flaky", nil)
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "Service Unavailable") || !strings.Contains(body, "/grid/retry?screen=flaky") {
		t.Fatalf("expected a retryable error panel:\n%s", body)
	}

	rec = do(t, h, "POST", "/grid/retry?screen=flaky", nil)
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/grid?screen=flaky" {
		t.Errorf("Location = %q", loc)
	}
	if flaky.retries != 1 {
		t.Errorf("retries = %d, want exactly 1", flaky.retries)
	}

	rec = do(t, h, "GET", "/grid?screen=flaky", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Acme") {
		t.Error("grid should be populated after the retry")
	}
	if flaky.retries != 1 {
		t.Errorf("rendering must not retry again, retries = %d", flaky.retries)
	}
	if got := testutil.ToFloat64(s.metrics.renders.WithLabelValues("flaky", "api_error")); got != 1 {
		t.Errorf("api_error renders = %v, want 1", got)
	}
}

func TestTerminalErrorHasNoRetry(t *testing.T) {
	tests := []struct {
		name   string
		screen Screen
		err    error
	}{
		{"forbidden", &flakyScreen{tenantScreen: newTenantScreen("s")}, errclass.NewStatusError(http.StatusForbidden, nil)},
		{"no retry support", newTenantScreen("s"), errclass.NewStatusError(http.StatusServiceUnavailable, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch sc := tt.screen.(type) {
			case *flakyScreen:
				sc.fetchErr = tt.err
			case *tenantScreen:
				sc.fetchErr = tt.err
			}
			_, h := newTestServer(t, tt.screen)
			rec := do(t, h, "GET", "/grid?screen=s", nil)
			expectStatus(t, rec, http.StatusOK)
			if strings.Contains(rec.Body.String(), "Retry</button>") {
				t.Error("terminal errors must not offer a retry")
			}
		})
	}
}

func TestConfirmationFlow(t *testing.T) {
	screen := newTenantScreen("tenants")
	s, h := newTestServer(t, screen)
	trigger := func(action, row string) *httptest.ResponseRecorder {
		return do(t, h, "POST", "/grid/action?screen=tenants", url.Values{"action": {action}, "row": {row}})
	}

	expectStatus(t, trigger("delete", "t1"), http.StatusSeeOther)
	if len(screen.deleted) != 0 {
		t.Fatal("delete ran before confirmation")
	}
	expectStatus(t, trigger("delete", "t1"), http.StatusSeeOther)
	expectStatus(t, trigger("upgrade", "t2"), http.StatusConflict)

	rec := do(t, h, "GET", "/grid?screen=tenants", nil)
	if body := rec.Body.String(); !strings.Contains(body, `role="alertdialog"`) || !strings.Contains(body, "Delete?") {
		t.Fatalf("expected the confirmation dialog:\n%s", body)
	}

	expectStatus(t, do(t, h, "POST", "/grid/confirm?screen=tenants", nil), http.StatusSeeOther)
	expectStatus(t, do(t, h, "POST", "/grid/confirm?screen=tenants", nil), http.StatusConflict)
	if diff := cmp.Diff([]string{"t1"}, screen.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, "GET", "/grid?screen=tenants", nil)
	if body := rec.Body.String(); strings.Contains(body, "Acme") || strings.Contains(body, "alertdialog") {
		t.Error("deleted row and dialog must be gone")
	}

	for _, tt := range []struct {
		action, outcome string
		want            float64
	}{
		{"delete", "pending", 1},
		{"delete", "coalesced", 1},
		{"delete", "confirmed", 1},
		{"upgrade", "rejected", 1},
	} {
		if got := testutil.ToFloat64(s.metrics.actions.WithLabelValues("tenants", tt.action, tt.outcome)); got != tt.want {
			t.Errorf("%s/%s = %v, want %v", tt.action, tt.outcome, got, tt.want)
		}
	}
}

func TestCancelAndImmediateActions(t *testing.T) {
	screen := newTenantScreen("tenants")
	_, h := newTestServer(t, screen)
	trigger := func(action, row string) *httptest.ResponseRecorder {
		return do(t, h, "POST", "/grid/action?screen=tenants", url.Values{"action": {action}, "row": {row}})
	}

	expectStatus(t, trigger("delete", "t1"), http.StatusSeeOther)
	expectStatus(t, do(t, h, "POST", "/grid/cancel?screen=tenants", nil), http.StatusSeeOther)
	if len(screen.deleted) != 0 {
		t.Error("cancel must not run the handler")
	}

	expectStatus(t, trigger("upgrade", "t2"), http.StatusSeeOther)
	if screen.data[1]["plan"] != "pro" {
		t.Error("upgrade should run immediately")
	}
	expectStatus(t, trigger("upgrade", "t2"), http.StatusForbidden)
	expectStatus(t, trigger("nope", "t2"), http.StatusBadRequest)
	expectStatus(t, trigger("delete", "t99"), http.StatusNotFound)
}

func TestUnknownActionMetricLabel(t *testing.T) {
	s, h := newTestServer(t, newTenantScreen("tenants"))
	for _, id := range []string{"drop-table-1", "drop-table-2"} {
		rec := do(t, h, "POST", "/grid/action?screen=tenants", url.Values{"action": {id}, "row": {"t1"}})
		expectStatus(t, rec, http.StatusBadRequest)
	}
	if got := testutil.ToFloat64(s.metrics.actions.WithLabelValues("tenants", "unknown", "rejected")); got != 2 {
		t.Errorf("unknown rejections = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(s.metrics.actions); n != 1 {
		t.Errorf("action series = %d, want 1", n)
	}
}

func TestFormPostRedirects(t *testing.T) {
	_, h := newTestServer(t, newTenantScreen("tenants"))

	rec := do(t, h, "POST", "/grid?screen=tenants&page=1", url.Values{"q": {"acme"}})
	expectStatus(t, rec, http.StatusSeeOther)
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "q=acme") || strings.Contains(loc, "page=") {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, h, "GET", loc, nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Acme") || strings.Contains(body, "Globex") {
		t.Error("quick filter not applied")
	}
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t, newTenantScreen("tenants"))

	rec := do(t, h, "GET", "/grid/export?screen=tenants&sort=-seats&filter:seats=%3E:1&hide=plan&size=10&page=0", nil)
	expectStatus(t, rec, http.StatusOK)
	want := "Name,Seats\nHooli,25\nAcme,10\nInitech,7\nGlobex,3\n"
	if diff := cmp.Diff(want, rec.Body.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "tenants.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestServerModeRequests(t *testing.T) {
	screen := newTenantScreen("tenants")
	screen.cfg = tables.Config{Pagination: &tables.PaginationConfig{Mode: tables.ModeServer, PageSize: 2}}
	_, h := newTestServer(t, screen)

	rec := do(t, h, "GET", "/grid?screen=tenants&page=1&sort=-seats", nil)
	expectStatus(t, rec, http.StatusOK)

	last := screen.requests[len(screen.requests)-1]
	want := Request{
		Page:     1,
		PageSize: 2,
		Sort:     tables.SortModel{{Field: "seats", Direction: tables.Desc}},
		Mode:     tables.ModeServer,
	}
	if diff := cmp.Diff(want, last, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	body := rec.Body.String()
	// Rows are used as supplied: page 1 of the unsorted store.
	if !strings.Contains(body, "Initech") || !strings.Contains(body, "Umbrella") || strings.Contains(body, "Hooli") {
		t.Errorf("server page not passed through:\n%s", body)
	}
	if !strings.Contains(body, "Page 2 of 3") {
		t.Error("page count must come from the total row count")
	}
}

func TestOutOfRangePagination(t *testing.T) {
	client := newTenantScreen("client")
	client.cfg = tables.Config{Sorting: &tables.SortingConfig{
		DefaultModel: tables.SortModel{{Field: "name", Direction: tables.Asc}},
	}}
	server := newTenantScreen("server")
	server.cfg = tables.Config{Pagination: &tables.PaginationConfig{Mode: tables.ModeServer, PageSize: 2}}
	_, h := newTestServer(t, client, server)

	for _, target := range []string{
		"/grid?screen=client&user=alice&page=368934881474191034&size=25",
		"/grid?screen=client&page=1&size=9223372036854775807",
		"/grid?screen=server&page=368934881474191034&size=25",
		"/grid?screen=server&size=9223372036854775807",
		"/grid/export?screen=client&page=368934881474191034&size=25",
	} {
		t.Run(target, func(t *testing.T) {
			expectStatus(t, do(t, h, "GET", target, nil), http.StatusOK)
		})
	}

	last := server.requests[len(server.requests)-1]
	if last.PageSize != tables.MaxPageSize {
		t.Errorf("server request page size = %d, want %d", last.PageSize, tables.MaxPageSize)
	}
}

func TestSelectionFromURL(t *testing.T) {
	var changes []tables.SelectionModel
	screen := newTenantScreen("tenants")
	screen.cfg = tables.Config{Selection: &tables.SelectionConfig{
		OnSelectionChange: func(s tables.SelectionModel) { changes = append(changes, s) },
	}}
	_, h := newTestServer(t, screen)

	rec := do(t, h, "GET", "/grid?screen=tenants&sel=t1&sel=t9", nil)
	if !strings.Contains(rec.Body.String(), "1 selected") {
		t.Error("unknown ids must be pruned from the selection")
	}
	if len(changes) == 0 || !cmp.Equal(changes[len(changes)-1], tables.SelectionModel{"t1"}) {
		t.Errorf("selection callbacks = %v", changes)
	}
}

func TestUserDomains(t *testing.T) {
	billing := newTenantScreen("billing")
	billing.opts.Domains = []string{"billing"}
	s, h := newTestServer(t, billing, newTenantScreen("public"))
	s.SetUserStore(users.NewMemoryStore(&users.Profile{Name: "alice", Domains: []string{"billing"}}))

	expectStatus(t, do(t, h, "GET", "/grid?screen=billing&user=alice", nil), http.StatusOK)
	expectStatus(t, do(t, h, "GET", "/grid?screen=billing&user=bob", nil), http.StatusForbidden)

	body := do(t, h, "GET", "/?user=bob", nil).Body.String()
	if strings.Contains(body, "screen=billing") || !strings.Contains(body, "screen=public") {
		t.Errorf("landing must list only accessible screens:\n%s", body)
	}
	if !strings.Contains(body, "bob (unknown)") {
		t.Error("unknown users are flagged on the landing page")
	}
}

func TestInstancesArePerUser(t *testing.T) {
	_, h := newTestServer(t, newTenantScreen("tenants"))

	rec := do(t, h, "POST", "/grid/action?screen=tenants&user=alice", url.Values{"action": {"delete"}, "row": {"t1"}})
	expectStatus(t, rec, http.StatusSeeOther)

	if strings.Contains(do(t, h, "GET", "/grid?screen=tenants&user=bob", nil).Body.String(), "alertdialog") {
		t.Error("bob must not see alice's pending confirmation")
	}
	if !strings.Contains(do(t, h, "GET", "/grid?screen=tenants&user=alice", nil).Body.String(), "alertdialog") {
		t.Error("alice should see her pending confirmation")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, newTenantScreen("tenants"))
	do(t, h, "GET", "/grid?screen=tenants", nil)

	rec := do(t, h, "GET", "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	for _, want := range []string{"tablero_grid_renders_total", "tablero_grid_phase_duration_seconds"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestDuplicateScreens(t *testing.T) {
	if _, err := NewServer(DefaultConfig(), newTenantScreen("a"), newTenantScreen("a")); err == nil {
		t.Error("expected an error for duplicate screen names")
	}
}
