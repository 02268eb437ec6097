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

package tables

import (
	"fmt"
	"testing"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/rows"
)

var benchColumns = []columns.Column{
	{Field: "name", Sortable: true, Filterable: true},
	{Field: "status", Sortable: true, Filterable: true},
	{Field: "amount", Sortable: true, Filterable: true, Type: columns.TypeNumber},
}

// createBenchRows builds n rows with a low cardinality status column and a
// high cardinality amount column.
func createBenchRows(n int) []rows.Row {
	statuses := []string{"pending", "completed", "cancelled", "processing"}
	rs := make([]rows.Row, n)
	for i := range rs {
		id := fmt.Sprintf("r%d", i)
		rs[i] = rows.Row{ID: id, Values: map[string]any{
			"name":   fmt.Sprintf("customer-%d", i%5000),
			"status": statuses[i%len(statuses)],
			"amount": float64((i * 7919) % 100_000),
		}}
	}
	return rs
}

func BenchmarkFilterEquals100K(b *testing.B) {
	rs := createBenchRows(100_000)
	m := FilterModel{Items: []FilterItem{{Field: "status", Operator: OpEquals, Value: "completed"}}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rs, benchColumns, m)
	}
}

func BenchmarkFilterQuick100K(b *testing.B) {
	rs := createBenchRows(100_000)
	m := FilterModel{QuickFilter: "customer-42"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rs, benchColumns, m)
	}
}

func BenchmarkFilterSelectivity(b *testing.B) {
	rs := createBenchRows(100_000)
	for _, limit := range []int{100, 10_000, 90_000} {
		m := FilterModel{Items: []FilterItem{{Field: "amount", Operator: OpLess, Value: float64(limit)}}}
		b.Run(fmt.Sprintf("below_%d", limit), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				Filter(rs, benchColumns, m)
			}
		})
	}
}

func BenchmarkSortFull100K(b *testing.B) {
	rs := createBenchRows(100_000)
	m := SortModel{{Field: "status", Direction: Asc}, {Field: "amount", Direction: Desc}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sort(rs, benchColumns, m)
	}
}

func BenchmarkSortedTopK100K(b *testing.B) {
	rs := createBenchRows(100_000)
	m := SortModel{{Field: "status", Direction: Asc}, {Field: "amount", Direction: Desc}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SortedTopK(rs, benchColumns, m, DefaultPageSize)
	}
}

func BenchmarkDeriveFirstPage100K(b *testing.B) {
	rs := createBenchRows(100_000)
	c := NewController(Config{}, Controlled{}, diag.Discard())
	c.SetSortModel(SortModel{{Field: "amount", Direction: Desc}})
	c.SetFilterModel(FilterModel{Items: []FilterItem{{Field: "status", Operator: OpNotEquals, Value: "cancelled"}}})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Derive(Input{Rows: rs, Columns: benchColumns})
	}
}

func TestTopKMatchesFullSort(t *testing.T) {
	rs := createBenchRows(2_000)
	m := SortModel{{Field: "name", Direction: Desc}, {Field: "amount", Direction: Asc}}
	full := Sort(rs, benchColumns, m)
	top := SortedTopK(rs, benchColumns, m, 50)
	for i := range top {
		if top[i].ID != full[i].ID {
			t.Fatalf("row %d: top-k %s, full sort %s", i, top[i].ID, full[i].ID)
		}
	}
}
