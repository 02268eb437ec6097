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

// Package diag collects configuration diagnostics raised while a grid is
// normalized and derived. Diagnostics never abort a render; they are logged
// and surfaced to the presentation layer.
package diag

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Diagnostic codes reported by the grid components.
const (
	CodeRowsNotEnumerable    = "rows_not_enumerable"
	CodeRowIDUnresolved      = "row_id_unresolved"
	CodeDuplicateRowID       = "duplicate_row_id"
	CodeColumnFieldEmpty     = "column_field_empty"
	CodeDuplicateColumnField = "duplicate_column_field"
	CodeEmptyColumns         = "empty_columns"
	CodeInvalidAction        = "invalid_action"
	CodeDuplicateActionID    = "duplicate_action_id"
	CodeUnknownSortField     = "unknown_sort_field"
	CodeUnknownFilterField   = "unknown_filter_field"
	CodeUnknownFilterOp      = "unknown_filter_operator"
	CodeInvalidPagination    = "invalid_pagination"
	CodeMissingTotalRowCount = "missing_total_row_count"
	CodeOwnershipChanged     = "ownership_changed"
	CodeRenderFailed         = "render_failed"
)

// Diagnostic is a single recoverable configuration problem.
type Diagnostic struct {
	Code      string
	Component string
	Message   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Component, d.Code, d.Message)
}

// Collector records diagnostics and forwards them to a logger.
// A nil *Collector is valid and discards everything.
type Collector struct {
	mu      sync.Mutex
	log     logr.Logger
	entries []Diagnostic
}

// NewCollector creates a collector that logs through log.
func NewCollector(log logr.Logger) *Collector {
	return &Collector{log: log}
}

// Discard returns a collector that records diagnostics but never logs them.
func Discard() *Collector {
	return NewCollector(logr.Discard())
}

// Report records a diagnostic. keysAndValues are passed to the logger only.
func (c *Collector) Report(component, code, message string, keysAndValues ...any) {
	if c == nil {
		return
	}
	d := Diagnostic{Code: code, Component: component, Message: message}

	c.mu.Lock()
	c.entries = append(c.entries, d)
	c.mu.Unlock()

	kv := append([]any{"component", component, "code", code}, keysAndValues...)
	c.log.V(1).Info(message, kv...)
}

// Entries returns a copy of the recorded diagnostics.
func (c *Collector) Entries() []Diagnostic {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether a diagnostic with the given code was recorded.
func (c *Collector) Has(code string) bool {
	for _, d := range c.Entries() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Reset drops all recorded diagnostics. Called at the start of each render pass.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Restore records entries again without logging them. Hosts use it to
// carry construction-time diagnostics into every render pass.
func (c *Collector) Restore(entries []Diagnostic) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = append(c.entries, entries...)
	c.mu.Unlock()
}

// Logger returns the underlying logger.
func (c *Collector) Logger() logr.Logger {
	if c == nil {
		return logr.Discard()
	}
	return c.log
}
