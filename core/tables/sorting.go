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
	"container/heap"
	"sort"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/rows"
)

// sortKey holds a column and its sort direction.
type sortKey struct {
	col        columns.Column
	descending bool
}

// rowOrder compares row positions by the sort keys, then by position so
// that rows which compare equal keep their input order.
type rowOrder struct {
	rs   []rows.Row
	keys []sortKey
}

func (o rowOrder) compare(i, j int) int {
	for _, k := range o.keys {
		cmp := columns.CompareAs(k.col.Type, o.rs[i].Get(k.col.Field), o.rs[j].Get(k.col.Field))
		if cmp != 0 {
			if k.descending {
				return -cmp
			}
			return cmp
		}
	}
	switch {
	case i < j:
		return -1
	case i > j:
		return 1
	}
	return 0
}

// topKHeap is a max-heap holding the K best positions seen so far; the
// worst of them sits on top.
type topKHeap struct {
	positions []int
	order     rowOrder
}

func (h *topKHeap) Len() int { return len(h.positions) }

func (h *topKHeap) Less(i, j int) bool {
	return h.order.compare(h.positions[i], h.positions[j]) > 0
}

func (h *topKHeap) Swap(i, j int) {
	h.positions[i], h.positions[j] = h.positions[j], h.positions[i]
}

func (h *topKHeap) Push(x any) {
	h.positions = append(h.positions, x.(int))
}

func (h *topKHeap) Pop() any {
	old := h.positions
	n := len(old)
	x := old[n-1]
	h.positions = old[:n-1]
	return x
}

func (h *topKHeap) peek() int {
	return h.positions[0]
}

// sortKeys resolves m against cols, skipping fields that are unknown or
// not sortable.
func sortKeys(cols []columns.Column, m SortModel) []sortKey {
	keys := make([]sortKey, 0, len(m))
	for _, it := range m {
		col, ok := columns.Find(cols, it.Field)
		if !ok || !col.Sortable {
			continue
		}
		keys = append(keys, sortKey{col: col, descending: it.Direction == Desc})
	}
	return keys
}

// Sort returns rs ordered by m. The sort is stable.
func Sort(rs []rows.Row, cols []columns.Column, m SortModel) []rows.Row {
	return SortedTopK(rs, cols, m, len(rs))
}

// SortedTopK returns the first limit rows of rs ordered by m.
// Uses heap-based selection: O(n log k) instead of O(n log n) for a full
// sort, which is what a paginated view needs.
func SortedTopK(rs []rows.Row, cols []columns.Column, m SortModel, limit int) []rows.Row {
	if len(rs) == 0 || limit <= 0 {
		return []rows.Row{}
	}
	keys := sortKeys(cols, m)
	if len(keys) == 0 {
		if limit >= len(rs) {
			return rs
		}
		return rs[:limit]
	}
	order := rowOrder{rs: rs, keys: keys}

	var positions []int
	if limit >= len(rs) {
		positions = make([]int, len(rs))
		for i := range positions {
			positions[i] = i
		}
	} else {
		h := &topKHeap{positions: make([]int, 0, limit), order: order}
		for i := 0; i < limit; i++ {
			h.positions = append(h.positions, i)
		}
		heap.Init(h)
		for i := limit; i < len(rs); i++ {
			if order.compare(i, h.peek()) < 0 {
				heap.Pop(h)
				heap.Push(h, i)
			}
		}
		positions = h.positions
	}

	sort.Slice(positions, func(a, b int) bool {
		return order.compare(positions[a], positions[b]) < 0
	})
	out := make([]rows.Row, len(positions))
	for i, p := range positions {
		out[i] = rs[p]
	}
	return out
}
