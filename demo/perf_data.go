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
	"fmt"
	"time"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/tables"
)

// Audit log size; large enough that the client page sizes virtualize.
const (
	AuditNumEvents  = 5_000
	auditNumTenants = 32
)

var auditStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// AuditLog is a read-only, generated event log served page by page, the way
// a remote data source would.
type AuditLog struct {
	events []rows.Row
}

// NewAuditLog generates n events. The output depends only on n.
func NewAuditLog(n int) *AuditLog {
	actors := []string{"alice", "bob", "carol", "dave", "erin", "system"}
	verbs := []string{"login", "update", "export", "invite", "suspend", "resume", "delete"}
	severities := []string{"info", "info", "info", "warning", "error"}

	events := make([]rows.Row, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ev-%05d", i+1)
		// Cycle lengths are coprime so combinations do not repeat early.
		events[i] = rows.Row{ID: id, Values: map[string]any{
			"id":       id,
			"at":       auditStart.Add(time.Duration(i) * 7 * time.Minute),
			"actor":    actors[i%len(actors)],
			"tenant":   fmt.Sprintf("tn-%03d", i%auditNumTenants+1),
			"action":   verbs[i%len(verbs)],
			"severity": severities[(i/3)%len(severities)],
			"bytes":    (i * 7919) % 100_000,
		}}
	}
	return &AuditLog{events: events}
}

// Len returns the number of events.
func (l *AuditLog) Len() int { return len(l.events) }

// Query filters, sorts and pages the log. It returns the page and the
// number of matching events.
func (l *AuditLog) Query(cols []columns.Column, filter tables.FilterModel, sort tables.SortModel, page, pageSize int) ([]rows.Row, int) {
	matched := tables.Filter(l.events, cols, filter)
	total := len(matched)
	if pageSize <= 0 {
		pageSize = tables.DefaultPageSize
	}
	if page < 0 || total == 0 || page > (total-1)/pageSize {
		return []rows.Row{}, total
	}
	start := page * pageSize
	end := start + min(pageSize, total-start)
	if len(sort) > 0 {
		matched = tables.SortedTopK(matched, cols, sort, end)
	}
	return matched[start:end], total
}
