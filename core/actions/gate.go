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
	"errors"
	"fmt"
	"sync"

	"github.com/google/tablero/core/rows"
)

// Errors returned by Gate.
var (
	ErrUnknownAction       = errors.New("unknown action")
	ErrActionHidden        = errors.New("action is not available for this row")
	ErrActionDisabled      = errors.New("action is disabled for this row")
	ErrConfirmationPending = errors.New("another confirmation is pending")
	ErrNothingPending      = errors.New("no confirmation is pending")
)

// Outcome reports what a trigger did.
type Outcome int

const (
	// OutcomeInvoked means the handler ran immediately.
	OutcomeInvoked Outcome = iota
	// OutcomePending means the gate now waits for confirmation.
	OutcomePending
	// OutcomeCoalesced means the same confirmation was already pending.
	OutcomeCoalesced
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeInvoked:
		return "invoked"
	case OutcomePending:
		return "pending"
	case OutcomeCoalesced:
		return "coalesced"
	default:
		return fmt.Sprintf("unknown(%d)", o)
	}
}

// Confirmation is a pending destructive action awaiting the user's answer.
type Confirmation struct {
	Action Action
	Row    rows.Row
	Copy   ConfirmationCopy
}

// Gate is the confirmation state machine of one grid instance. It is
// either idle or holds exactly one pending confirmation.
//
//	Idle --trigger(confirmable)--> Pending --confirm--> OnClick, Idle
//	                               Pending --cancel---> Idle
type Gate struct {
	reg *Registry

	mu      sync.Mutex
	pending *Confirmation
}

// NewGate creates an idle gate over the actions in reg.
func NewGate(reg *Registry) *Gate {
	return &Gate{reg: reg}
}

// Trigger handles a user trigger of actionID on row. Actions that do not
// require confirmation run immediately.
func (g *Gate) Trigger(actionID string, row rows.Row) (Outcome, error) {
	a, ok := g.reg.Lookup(actionID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}
	if !a.visibleFor(row) {
		return 0, fmt.Errorf("%w: %q on row %q", ErrActionHidden, actionID, row.ID)
	}
	if a.disabledFor(row) {
		return 0, fmt.Errorf("%w: %q on row %q", ErrActionDisabled, actionID, row.ID)
	}

	g.mu.Lock()
	if g.pending != nil {
		same := g.pending.Action.ID == actionID && g.pending.Row.ID == row.ID
		g.mu.Unlock()
		if same {
			return OutcomeCoalesced, nil
		}
		return 0, ErrConfirmationPending
	}
	if a.RequiresConfirmation {
		g.pending = &Confirmation{Action: a, Row: row, Copy: a.confirmationCopy(row)}
		g.mu.Unlock()
		return OutcomePending, nil
	}
	g.mu.Unlock()

	a.OnClick(row)
	return OutcomeInvoked, nil
}

// Confirm runs the pending action's handler once and returns to idle.
func (g *Gate) Confirm() (Confirmation, error) {
	g.mu.Lock()
	p := g.pending
	g.pending = nil
	g.mu.Unlock()

	if p == nil {
		return Confirmation{}, ErrNothingPending
	}
	p.Action.OnClick(p.Row)
	return *p, nil
}

// Cancel drops the pending confirmation without running its handler.
// It reports whether anything was pending.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	had := g.pending != nil
	g.pending = nil
	return had
}

// Pending returns the active confirmation, if any.
func (g *Gate) Pending() (Confirmation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Confirmation{}, false
	}
	return *g.pending, true
}

// Prune cancels the pending confirmation when its row is no longer present.
func (g *Gate) Prune(present func(id string) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil && !present(g.pending.Row.ID) {
		g.pending = nil
	}
}
