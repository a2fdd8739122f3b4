// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package plexdb

import "sort"

// PriorityFromReadOrder converts a model's scenario read order into the
// priority map the resolution engine consumes, where a smaller number
// wins. PLEXOS reads scenarios in order and lets later reads override
// earlier ones, so the last-read scenario gets priority 1.
func PriorityFromReadOrder(orders []ScenarioOrder) map[string]int {
	sorted := make([]ScenarioOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReadOrder > sorted[j].ReadOrder
	})

	priority := make(map[string]int, len(sorted))
	for i, so := range sorted {
		priority[so.Scenario] = i + 1
	}
	return priority
}
