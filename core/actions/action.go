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

// Package actions turns declarative per-row actions into an actions column
// and gates destructive actions behind an explicit confirmation.
package actions

import (
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/google/tablero/core/rows"
)

// ConfirmationCopy is the text shown on the confirmation surface.
type ConfirmationCopy struct {
	Title string
	Body  string
}

// Label is either a static string or computed per row.
type Label struct {
	static   string
	computed func(rows.Row) string
}

// StaticLabel returns a label that is the same for every row.
func StaticLabel(s string) Label { return Label{static: s} }

// ComputedLabel returns a label derived from each row.
func ComputedLabel(fn func(rows.Row) string) Label { return Label{computed: fn} }

// Resolve returns the label text for row.
func (l Label) Resolve(row rows.Row) string {
	if l.computed != nil {
		return l.computed(row)
	}
	return l.static
}

// Icon is either a static icon name or HTML computed per row.
type Icon struct {
	static   string
	computed func(rows.Row) safehtml.HTML
}

// StaticIcon returns an icon rendered from a ligature icon name such as "delete".
func StaticIcon(name string) Icon { return Icon{static: name} }

// ComputedIcon returns an icon rendered per row.
func ComputedIcon(fn func(rows.Row) safehtml.HTML) Icon { return Icon{computed: fn} }

var iconTemplate = template.Must(template.New("icon").Parse(
	`<span class="material-icons" aria-hidden="true">{{.}}</span>`))

// Resolve returns the icon markup for row. An empty static icon renders nothing.
func (i Icon) Resolve(row rows.Row) (safehtml.HTML, error) {
	if i.computed != nil {
		return i.computed(row), nil
	}
	if i.static == "" {
		return safehtml.HTML{}, nil
	}
	return iconTemplate.ExecuteToHTML(i.static)
}

// Action describes one per-row operation. Actions own no state.
type Action struct {
	ID      string
	Label   Label
	Icon    Icon
	OnClick func(row rows.Row)

	// Order positions the action in the actions column; ties keep
	// declaration order.
	Order int

	// Visible hides the action for rows where it returns false.
	// Nil means always visible.
	Visible func(row rows.Row) bool
	// Disabled keeps the action visible but not triggerable.
	Disabled func(row rows.Row) bool

	RequiresConfirmation bool
	Confirmation         *ConfirmationCopy
}

func (a Action) visibleFor(row rows.Row) bool {
	return a.Visible == nil || a.Visible(row)
}

func (a Action) disabledFor(row rows.Row) bool {
	return a.Disabled != nil && a.Disabled(row)
}

// confirmationCopy returns the caller's copy or a default built from the label.
func (a Action) confirmationCopy(row rows.Row) ConfirmationCopy {
	if a.Confirmation != nil {
		return *a.Confirmation
	}
	label := a.Label.Resolve(row)
	if label == "" {
		label = a.ID
	}
	return ConfirmationCopy{
		Title: label + "?",
		Body:  "This action cannot be undone.",
	}
}

// Resolved is an action evaluated for one row.
type Resolved struct {
	ID                   string
	Label                string
	Icon                 safehtml.HTML
	Disabled             bool
	RequiresConfirmation bool
}
