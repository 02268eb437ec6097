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
	"fmt"
	"sort"

	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/rows"
)

const component = "actions"

// Registry holds the validated, ordered actions of one grid.
type Registry struct {
	ordered []Action
	byID    map[string]int
}

// NewRegistry validates list and orders it by Order, keeping declaration
// order for ties. Actions without an ID or OnClick, and repeated IDs, are
// dropped with a diagnostic.
func NewRegistry(list []Action, d *diag.Collector) *Registry {
	r := &Registry{byID: make(map[string]int, len(list))}
	seen := make(map[string]bool, len(list))
	for i, a := range list {
		switch {
		case a.ID == "":
			d.Report(component, diag.CodeInvalidAction,
				fmt.Sprintf("action %d has no id", i), "index", i)
			continue
		case a.OnClick == nil:
			d.Report(component, diag.CodeInvalidAction,
				fmt.Sprintf("action %q has no handler", a.ID), "id", a.ID)
			continue
		case seen[a.ID]:
			d.Report(component, diag.CodeDuplicateActionID,
				fmt.Sprintf("action id %q is declared more than once", a.ID), "id", a.ID)
			continue
		}
		seen[a.ID] = true
		r.ordered = append(r.ordered, a)
	}

	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Order < r.ordered[j].Order
	})
	for i, a := range r.ordered {
		r.byID[a.ID] = i
	}
	return r
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// Lookup returns the action with the given id.
func (r *Registry) Lookup(id string) (Action, bool) {
	if r == nil {
		return Action{}, false
	}
	i, ok := r.byID[id]
	if !ok {
		return Action{}, false
	}
	return r.ordered[i], true
}

// ForRow returns the visible actions for row in display order, with labels
// and icons resolved.
func (r *Registry) ForRow(row rows.Row) ([]Resolved, error) {
	if r == nil {
		return nil, nil
	}
	out := make([]Resolved, 0, len(r.ordered))
	for _, a := range r.ordered {
		if !a.visibleFor(row) {
			continue
		}
		icon, err := a.Icon.Resolve(row)
		if err != nil {
			return nil, fmt.Errorf("resolving icon of action %q: %w", a.ID, err)
		}
		out = append(out, Resolved{
			ID:                   a.ID,
			Label:                a.Label.Resolve(row),
			Icon:                 icon,
			Disabled:             a.disabledFor(row),
			RequiresConfirmation: a.RequiresConfirmation,
		})
	}
	return out, nil
}
