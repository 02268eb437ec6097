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

// Package toolbar composes the grid toolbar from caller options merged over
// fixed defaults.
package toolbar

import (
	"github.com/google/safehtml"
	"github.com/google/tablero/core/columns"
)

// Density is the row density offered by the settings menu.
type Density string

const (
	Compact     Density = "compact"
	Standard    Density = "standard"
	Comfortable Density = "comfortable"
)

// Densities lists the densities in menu order.
var Densities = []Density{Compact, Standard, Comfortable}

// Option configures the toolbar. Nil fields take the value from Defaults.
type Option struct {
	// Hidden suppresses the toolbar; it is the "no toolbar at all" form.
	Hidden bool

	Show        *bool
	QuickFilter *bool
	Columns     *bool
	Filter      *bool
	Export      *bool
	Settings    *bool

	// CustomActions renders extra caller content. It runs inside the
	// grid's render boundary.
	CustomActions func() (safehtml.HTML, error)
}

func boolPtr(b bool) *bool { return &b }

// Defaults returns the project-wide toolbar defaults: quick filter off,
// every other control on.
func Defaults() Option {
	return Option{
		Show:        boolPtr(true),
		QuickFilter: boolPtr(false),
		Columns:     boolPtr(true),
		Filter:      boolPtr(true),
		Export:      boolPtr(true),
		Settings:    boolPtr(true),
	}
}

// Off returns an option that suppresses the toolbar.
func Off() Option {
	return Option{Hidden: true}
}

// Bool returns a pointer to b, for Option literals.
func Bool(b bool) *bool { return boolPtr(b) }

// merge fills unset fields of o from def.
func merge(o, def Option) Option {
	pick := func(v, d *bool) *bool {
		if v != nil {
			return v
		}
		return d
	}
	o.Show = pick(o.Show, def.Show)
	o.QuickFilter = pick(o.QuickFilter, def.QuickFilter)
	o.Columns = pick(o.Columns, def.Columns)
	o.Filter = pick(o.Filter, def.Filter)
	o.Export = pick(o.Export, def.Export)
	o.Settings = pick(o.Settings, def.Settings)
	return o
}

// Inputs is the grid state the toolbar controls operate on.
type Inputs struct {
	Columns []columns.Column
	// Hidden holds the fields of currently hidden columns.
	Hidden      map[string]bool
	QuickFilter string
	Density     Density
	Operators   []string

	ColumnToggleURL func(field string) safehtml.URL
	DensityURL      func(Density) safehtml.URL
	ExportURL       safehtml.URL
}

// ColumnToggle is one entry of the columns menu.
type ColumnToggle struct {
	Field      string
	HeaderName string
	Visible    bool
	ToggleURL  safehtml.URL
}

// FilterField is a column offered by the filter panel.
type FilterField struct {
	Field      string
	HeaderName string
}

// DensityChoice is one entry of the settings menu.
type DensityChoice struct {
	Density Density
	Active  bool
	URL     safehtml.URL
}

// Toolbar is the composed toolbar. Disabled controls are nil or empty.
type Toolbar struct {
	QuickFilter     bool
	QuickFilterText string

	Columns []ColumnToggle

	FilterFields []FilterField
	Operators    []string

	Export    bool
	ExportURL safehtml.URL

	Densities []DensityChoice

	CustomActions func() (safehtml.HTML, error)
}

// Compose merges opt over Defaults and builds the toolbar. It returns nil
// when the toolbar is suppressed; callers must then render no toolbar at
// all rather than a fallback.
func Compose(opt Option, in Inputs) *Toolbar {
	if opt.Hidden {
		return nil
	}
	opt = merge(opt, Defaults())
	if !*opt.Show {
		return nil
	}

	tb := &Toolbar{CustomActions: opt.CustomActions}
	if *opt.QuickFilter {
		tb.QuickFilter = true
		tb.QuickFilterText = in.QuickFilter
	}
	if *opt.Columns {
		for _, c := range in.Columns {
			if !c.Hideable || c.IsActions() {
				continue
			}
			toggle := ColumnToggle{Field: c.Field, HeaderName: c.HeaderName, Visible: !in.Hidden[c.Field]}
			if in.ColumnToggleURL != nil {
				toggle.ToggleURL = in.ColumnToggleURL(c.Field)
			}
			tb.Columns = append(tb.Columns, toggle)
		}
	}
	if *opt.Filter {
		for _, c := range in.Columns {
			if c.Filterable && !c.IsActions() {
				tb.FilterFields = append(tb.FilterFields, FilterField{Field: c.Field, HeaderName: c.HeaderName})
			}
		}
		if len(tb.FilterFields) > 0 {
			tb.Operators = in.Operators
		}
	}
	if *opt.Export {
		tb.Export = true
		tb.ExportURL = in.ExportURL
	}
	if *opt.Settings {
		current := in.Density
		if current == "" {
			current = Standard
		}
		for _, d := range Densities {
			choice := DensityChoice{Density: d, Active: d == current}
			if in.DensityURL != nil {
				choice.URL = in.DensityURL(d)
			}
			tb.Densities = append(tb.Densities, choice)
		}
	}
	return tb
}

// Empty reports whether the toolbar has no visible control.
func (t *Toolbar) Empty() bool {
	return t == nil || (!t.QuickFilter && len(t.Columns) == 0 && len(t.FilterFields) == 0 &&
		!t.Export && len(t.Densities) == 0 && t.CustomActions == nil)
}
