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

// Package server hosts grid screens over HTTP. Every link and form in a
// rendered grid carries the full grid state in its URL; each request
// replays that state through the grid's event handlers, fetches rows from
// the screen and renders the result.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/tablero/core/actions"
	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/query"
	"github.com/google/tablero/core/rendering"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/tables"
	"github.com/google/tablero/core/users"
	"github.com/google/tablero/core/views"
)

// Config configures a Server.
type Config struct {
	Title    string
	Subtitle string
	// GridPath serves the grid page and receives the toolbar forms.
	GridPath  string
	Endpoints views.Endpoints
	// MetricsPath serves Prometheus metrics. Empty disables it.
	MetricsPath string
	Logger      logr.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Title:    "Tablero",
		GridPath: "/grid",
		Endpoints: views.Endpoints{
			Action:  "/grid/action",
			Confirm: "/grid/confirm",
			Cancel:  "/grid/cancel",
			Retry:   "/grid/retry",
			Export:  "/grid/export",
		},
		MetricsPath: "/metrics",
		Logger:      logr.Discard(),
	}
}

// Server represents the grid host with all its dependencies.
type Server struct {
	cfg       Config
	log       logr.Logger
	renderer  *rendering.GridRenderer
	metrics   *Metrics
	screens   map[string]Screen
	order     []string
	userStore users.UserStore

	mu        sync.Mutex
	instances map[string]*instance
}

// instance is one grid, kept per user and screen.
type instance struct {
	screen Screen
	opts   Options

	mu     sync.Mutex
	d      *diag.Collector
	setup  []diag.Diagnostic
	cols   []columns.Column
	reg    *actions.Registry
	gate   *actions.Gate
	ctl    *tables.Controller
	seeded bool
	// rows supplied by the latest fetch.
	rows []rows.Row
}

// pass is the outcome of one replay of URL state.
type pass struct {
	st      *tables.State
	q       *query.Query
	err     error
	loading bool
}

// HandlerResult represents the result of handling a request.
type HandlerResult struct {
	Error      error
	StatusCode int
	Message    string
	// Redirect is set when the client should follow up with a GET.
	Redirect string
}

// NewServer creates a server hosting screens. Screen names must be unique.
func NewServer(cfg Config, screens ...Screen) (*Server, error) {
	renderer, err := rendering.NewGridRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	if cfg.GridPath == "" {
		cfg.GridPath = DefaultConfig().GridPath
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}

	s := &Server{
		cfg:       cfg,
		log:       cfg.Logger,
		renderer:  renderer,
		metrics:   NewMetrics(),
		screens:   make(map[string]Screen, len(screens)),
		instances: make(map[string]*instance),
	}
	for _, sc := range screens {
		name := sc.Name()
		if name == "" {
			return nil, errors.New("screen without a name")
		}
		if _, dup := s.screens[name]; dup {
			return nil, fmt.Errorf("duplicate screen %q", name)
		}
		s.screens[name] = sc
		s.order = append(s.order, name)
	}
	return s, nil
}

// SetUserStore enables domain based access to screens.
func (s *Server) SetUserStore(store users.UserStore) {
	s.userStore = store
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// makeCacheKey creates a cache key combining user and screen name.
func makeCacheKey(userName, screenName string) string {
	if userName == "" {
		return screenName
	}
	return userName + ":" + screenName
}

func (s *Server) instanceFor(userName string, sc Screen) *instance {
	key := makeCacheKey(userName, sc.Name())
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[key]; ok {
		return inst
	}

	opts := sc.Options()
	if opts.IDField == "" {
		opts.IDField = rows.IDField
	}
	d := diag.NewCollector(s.log.WithValues("screen", sc.Name(), "user", userName))
	reg := actions.NewRegistry(sc.Actions(), d)
	cols := columns.Normalize(sc.Columns(), d)
	inst := &instance{
		screen: sc,
		opts:   opts,
		d:      d,
		cols:   cols,
		reg:    reg,
		gate:   actions.NewGate(reg),
		ctl:    tables.NewController(sc.GridConfig(), tables.Controlled{}, d),
	}
	inst.setup = d.Entries()
	s.instances[key] = inst
	return inst
}

// allowed reports whether userName may open sc.
func (s *Server) allowed(userName string, sc Screen) bool {
	domains := sc.Options().Domains
	if s.userStore == nil || len(domains) == 0 {
		return true
	}
	return users.HasAnyDomain(s.userStore.GetUser(userName), domains)
}

// resolve finds the screen and instance a request addresses.
func (s *Server) resolve(q *query.Query) (*instance, *HandlerResult) {
	if q.Screen == "" {
		return nil, &HandlerResult{StatusCode: http.StatusBadRequest, Message: "Screen parameter is required"}
	}
	sc, ok := s.screens[q.Screen]
	if !ok {
		return nil, &HandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Screen '%s' not found", q.Screen)}
	}
	if !s.allowed(q.User, sc) {
		return nil, &HandlerResult{StatusCode: http.StatusForbidden, Message: fmt.Sprintf("Screen '%s' is not available", q.Screen)}
	}
	return s.instanceFor(q.User, sc), nil
}

// replay applies the URL state through the controller's event handlers,
// fetches rows and derives the visible state. The caller holds inst.mu.
func (s *Server) replay(ctx context.Context, inst *instance, q *query.Query, tc *TimingCollector) *pass {
	inst.d.Reset()
	inst.d.Restore(inst.setup)
	ctl := inst.ctl

	start := time.Now()
	// A bare first visit keeps the configured default sort and filter.
	bare := len(q.Sort) == 0 && len(q.Filters) == 0 && q.Quick == ""
	if inst.seeded || !bare {
		ctl.SetFilterModel(q.FilterModel())
		ctl.SetSortModel(q.SortModel())
	}
	inst.seeded = true
	size := q.PageSize
	if size == 0 {
		size = ctl.DefaultPageSize()
	}
	ctl.SetPageSize(size)
	ctl.SetPage(q.Page)
	ctl.SelectRows(q.Selected)
	tc.Record("apply", start)

	snap := ctl.Snapshot()
	features := ctl.Features()
	start = time.Now()
	res, err := inst.screen.Fetch(ctx, Request{
		User:     q.User,
		Page:     snap.PageIndex,
		PageSize: snap.PageSize,
		Sort:     snap.Sort,
		Filter:   snap.Filter,
		Mode:     features.PaginationMode,
	})
	tc.Record("fetch", start)

	p := &pass{err: err, loading: res.Loading}
	var rs []rows.Row
	if err == nil && res.Rows != nil {
		rs = rows.Normalize(res.Rows, rows.FieldExtractor(inst.opts.IDField), inst.d)
	}
	in := tables.Input{Rows: rs, Columns: inst.cols}
	if err == nil && features.Pagination && features.PaginationMode == tables.ModeServer {
		in.TotalRowCount = res.TotalRowCount
	}

	start = time.Now()
	p.st = ctl.Derive(in)
	tc.Record("derive", start)

	inst.rows = rs
	present := make(map[string]bool, len(rs))
	for _, r := range rs {
		present[r.ID] = true
	}
	inst.gate.Prune(func(id string) bool { return present[id] })

	p.q = s.canonical(q, p.st, ctl)
	return p
}

// canonical returns the URL state matching st, on the grid path.
func (s *Server) canonical(q *query.Query, st *tables.State, ctl *tables.Controller) *query.Query {
	cq := q.FromState(st)
	cq.Path = s.cfg.GridPath
	cq.PageSize = 0
	if size := st.Pagination.PageSize; st.Features.Pagination && size != ctl.DefaultPageSize() {
		cq.PageSize = size
	}
	return cq
}

// HandleGridRequest processes a grid page request and writes the response.
// Returns an error result if the request is invalid, nil on success.
func (s *Server) HandleGridRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	tc := s.metrics.NewTimingCollector()
	defer tc.Total()

	q := query.NewQuery(requestURL)
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	p := s.replay(ctx, inst, q, tc)
	sc := inst.screen
	_, canRetry := sc.(Retrier)

	var pending *actions.Confirmation
	if c, ok := inst.gate.Pending(); ok {
		pending = &c
	}
	cols := actions.WithActions(inst.cols, inst.reg, s.actionColumnOptions(inst, p.q))

	start := time.Now()
	vm := views.Build(views.Input{
		Title:        sc.Title(),
		Columns:      cols,
		Table:        p.st,
		Query:        p.q,
		Endpoints:    s.cfg.Endpoints,
		Loading:      p.loading,
		Err:          p.err,
		Classifier:   inst.opts.Classifier,
		CanRetry:     canRetry,
		EmptyContent: inst.opts.EmptyContent,
		Toolbar:      inst.opts.Toolbar,
		Pending:      pending,
		Diag:         inst.d,
	})
	tc.Record("build", start)

	s.metrics.renders.WithLabelValues(sc.Name(), vm.State.String()).Inc()
	if vm.State == views.StateRenderFailed {
		s.metrics.renderFailures.WithLabelValues(sc.Name()).Inc()
	}
	for _, d := range vm.Diagnostics {
		s.metrics.diagnostics.WithLabelValues(sc.Name(), d.Code).Inc()
	}
	if p.err != nil {
		s.log.Info("grid fetch failed", "screen", sc.Name(), "user", q.User, "error", p.err.Error())
	}

	// Render to a buffer so a template failure can still produce a 500.
	start = time.Now()
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, vm); err != nil {
		s.metrics.renderFailures.WithLabelValues(sc.Name()).Inc()
		s.log.Error(err, "template rendering failed", "screen", sc.Name())
		return &HandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: views.RenderFailedMessage}
	}
	tc.Record("render", start)

	setHeader("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		return &HandlerResult{Error: err}
	}
	return nil
}

func (s *Server) actionColumnOptions(inst *instance, q *query.Query) actions.ColumnOptions {
	opts := inst.opts.ActionColumn
	opts.TriggerURL = q.WithPath(s.cfg.Endpoints.Action)
	return opts
}

// gridURL is the redirect target carrying q's state.
func (s *Server) gridURL(q *query.Query) string {
	next := q.Clone()
	next.Path = s.cfg.GridPath
	return next.ToURL()
}

// HandleFormPost merges a submitted toolbar form into the URL state and
// redirects to the resulting grid.
func (s *Server) HandleFormPost(requestURL *url.URL, form url.Values) *HandlerResult {
	q := query.NewQuery(requestURL).ApplyForm(form)
	if _, res := s.resolve(q); res != nil {
		return res
	}
	return &HandlerResult{StatusCode: http.StatusSeeOther, Redirect: s.gridURL(q)}
}

// HandleAction triggers the action named by the "action" form field on the
// row named by "row".
func (s *Server) HandleAction(ctx context.Context, requestURL *url.URL, form url.Values) *HandlerResult {
	q := query.NewQuery(requestURL)
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	actionID, rowID := form.Get("action"), form.Get("row")
	if actionID == "" || rowID == "" {
		return &HandlerResult{StatusCode: http.StatusBadRequest, Message: "action and row are required"}
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	tc := s.metrics.NewTimingCollector()
	p := s.replay(ctx, inst, q, tc)
	if p.err != nil {
		return &HandlerResult{Error: p.err, StatusCode: http.StatusBadGateway, Message: "rows could not be loaded"}
	}
	row, ok := findRow(inst.rows, rowID)
	if !ok {
		return &HandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Row '%s' not found", rowID)}
	}

	name := inst.screen.Name()
	outcome, err := inst.gate.Trigger(actionID, row)
	if err != nil {
		label := actionID
		if errors.Is(err, actions.ErrUnknownAction) {
			// Keep client-supplied ids out of the label set.
			label = "unknown"
		}
		s.metrics.actions.WithLabelValues(name, label, "rejected").Inc()
		return &HandlerResult{Error: err, StatusCode: triggerStatus(err), Message: err.Error()}
	}
	s.metrics.actions.WithLabelValues(name, actionID, outcome.String()).Inc()
	s.log.V(1).Info("action triggered", "screen", name, "action", actionID, "row", rowID, "outcome", outcome.String())
	return &HandlerResult{StatusCode: http.StatusSeeOther, Redirect: s.gridURL(p.q)}
}

func triggerStatus(err error) int {
	switch {
	case errors.Is(err, actions.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, actions.ErrConfirmationPending):
		return http.StatusConflict
	default:
		return http.StatusForbidden
	}
}

func findRow(rs []rows.Row, id string) (rows.Row, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return rows.Row{}, false
}

// HandleConfirm runs the pending action once.
func (s *Server) HandleConfirm(requestURL *url.URL) *HandlerResult {
	q := query.NewQuery(requestURL)
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	c, err := inst.gate.Confirm()
	if err != nil {
		return &HandlerResult{Error: err, StatusCode: http.StatusConflict, Message: err.Error()}
	}
	s.metrics.actions.WithLabelValues(inst.screen.Name(), c.Action.ID, "confirmed").Inc()
	s.log.V(1).Info("action confirmed", "screen", inst.screen.Name(), "action", c.Action.ID, "row", c.Row.ID)
	return &HandlerResult{StatusCode: http.StatusSeeOther, Redirect: s.gridURL(q)}
}

// HandleCancel drops the pending confirmation.
func (s *Server) HandleCancel(requestURL *url.URL) *HandlerResult {
	q := query.NewQuery(requestURL)
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	if c, ok := inst.gate.Pending(); ok && inst.gate.Cancel() {
		s.metrics.actions.WithLabelValues(inst.screen.Name(), c.Action.ID, "cancelled").Inc()
	}
	return &HandlerResult{StatusCode: http.StatusSeeOther, Redirect: s.gridURL(q)}
}

// HandleRetry asks the screen's data source to retry, then redirects to
// the grid, which fetches again.
func (s *Server) HandleRetry(ctx context.Context, requestURL *url.URL) *HandlerResult {
	q := query.NewQuery(requestURL)
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	r, ok := inst.screen.(Retrier)
	if !ok {
		return &HandlerResult{StatusCode: http.StatusBadRequest, Message: "Retry is not supported for this screen"}
	}
	if err := r.Retry(ctx); err != nil {
		s.log.Info("retry failed", "screen", inst.screen.Name(), "error", err.Error())
	}
	return &HandlerResult{StatusCode: http.StatusSeeOther, Redirect: s.gridURL(q)}
}

// HandleExport writes the filtered and sorted rows of the grid, ignoring
// pagination. In server mode the rows are those of the current page.
func (s *Server) HandleExport(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	q := query.NewQuery(requestURL)
	format, err := rendering.ParseFormat(requestURL.Query().Get("format"))
	if err != nil {
		return &HandlerResult{Error: err, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	inst, res := s.resolve(q)
	if res != nil {
		return res
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	p := s.replay(ctx, inst, q, s.metrics.NewTimingCollector())
	if p.err != nil {
		return &HandlerResult{Error: p.err, StatusCode: http.StatusBadGateway, Message: "rows could not be loaded"}
	}

	var buf bytes.Buffer
	if err := rendering.Export(&buf, format, inst.cols, q.HiddenSet(), inst.ctl.Processed(inst.rows)); err != nil {
		return &HandlerResult{Error: err, StatusCode: http.StatusInternalServerError, Message: "export failed"}
	}
	setHeader("Content-Type", format.ContentType())
	setHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inst.screen.Name()+"."+format.Extension()))
	if _, err := buf.WriteTo(w); err != nil {
		return &HandlerResult{Error: err}
	}
	return nil
}

// HandleLandingRequest lists the screens the user may open.
func (s *Server) HandleLandingRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")

	userName := requestURL.Query().Get("user")
	vm := views.LandingViewModel{
		Title:    s.cfg.Title,
		Subtitle: s.cfg.Subtitle,
		UserName: userName,
	}
	if s.userStore != nil && userName != "" && s.userStore.GetUser(userName) == nil {
		vm.UserName = userName + " (unknown)"
	}

	for _, name := range s.order {
		sc := s.screens[name]
		if !s.allowed(userName, sc) {
			continue
		}
		q := &query.Query{Path: s.cfg.GridPath, Screen: name, User: userName}
		vm.Screens = append(vm.Screens, views.ScreenInfo{
			Name:        name,
			Title:       sc.Title(),
			Description: sc.Options().Description,
			URL:         q.ToSafeURL(),
		})
	}

	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.log.Error(err, "landing page rendering failed")
		return err
	}
	return nil
}

