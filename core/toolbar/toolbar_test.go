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

package toolbar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/safehtml"
	"github.com/google/tablero/core/columns"
)

var cols = []columns.Column{
	{Field: "name", HeaderName: "Name", Hideable: true, Filterable: true},
	{Field: "plan", HeaderName: "Plan", Hideable: true},
	{Field: "id", HeaderName: "ID"},
	{Field: columns.ActionsField, HeaderName: "Actions", Type: columns.TypeActions, Hideable: true},
}

func TestComposeDefaults(t *testing.T) {
	tb := Compose(Option{}, Inputs{
		Columns:         cols,
		Hidden:          map[string]bool{"plan": true},
		Operators:       []string{"contains"},
		ColumnToggleURL: func(field string) safehtml.URL { return safehtml.URLSanitized("/grid?toggle=" + field) },
		ExportURL:       safehtml.URLSanitized("/grid/export"),
	})
	if tb == nil {
		t.Fatal("expected a toolbar with default options")
	}
	if tb.QuickFilter {
		t.Error("quick filter must be off by default")
	}
	if !tb.Export || tb.ExportURL.String() != "/grid/export" {
		t.Errorf("export = %v %q", tb.Export, tb.ExportURL.String())
	}

	var got []string
	for _, c := range tb.Columns {
		state := "shown"
		if !c.Visible {
			state = "hidden"
		}
		got = append(got, c.Field+":"+state+":"+c.ToggleURL.String())
	}
	want := []string{"name:shown:/grid?toggle=name", "plan:hidden:/grid?toggle=plan"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("columns menu mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FilterField{{Field: "name", HeaderName: "Name"}}, tb.FilterFields); diff != "" {
		t.Errorf("filter fields mismatch (-want +got):\n%s", diff)
	}
	if len(tb.Densities) != 3 || !tb.Densities[1].Active {
		t.Errorf("expected standard density active, got %+v", tb.Densities)
	}
}

func TestComposeSuppressed(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"off", Off()},
		{"show false", Option{Show: Bool(false), QuickFilter: Bool(true)}},
		{"hidden wins over show", Option{Hidden: true, Show: Bool(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tb := Compose(tt.opt, Inputs{Columns: cols}); tb != nil {
				t.Errorf("expected nil toolbar, got %+v", tb)
			}
		})
	}
}

func TestComposeOverrides(t *testing.T) {
	tb := Compose(Option{
		QuickFilter: Bool(true),
		Columns:     Bool(false),
		Filter:      Bool(false),
		Export:      Bool(false),
		Settings:    Bool(false),
	}, Inputs{Columns: cols, QuickFilter: "acme"})

	if !tb.QuickFilter || tb.QuickFilterText != "acme" {
		t.Errorf("quick filter = %v %q", tb.QuickFilter, tb.QuickFilterText)
	}
	if len(tb.Columns) != 0 || len(tb.FilterFields) != 0 || tb.Export || len(tb.Densities) != 0 {
		t.Errorf("disabled controls should be empty, got %+v", tb)
	}
	if tb.Empty() {
		t.Error("toolbar with a quick filter is not empty")
	}
}

func TestDefaultsAreFresh(t *testing.T) {
	d := Defaults()
	*d.QuickFilter = true
	if *Defaults().QuickFilter {
		t.Error("mutating a returned default must not leak into later calls")
	}
}
