// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

// Context carries the cross-cutting resolution policy: an optional scenario
// ranking (smaller number wins) and an optional active horizon window.
type Context struct {
	Priority map[string]int
	Horizon  *DateRange
}

// The ambient context threads the resolution policy through deeply nested,
// independently constructed component graphs without re-plumbing every
// accessor. It is deliberately process-wide mutable state and is NOT safe
// for concurrent use: the scoped push/restore pairs assume strictly
// sequential enter/exit within one goroutine.
var ambient Context

// Current returns the ambient resolution context.
func Current() Context { return ambient }

// SetPriority replaces the ambient scenario ranking. Prefer PushPriority for
// scoped changes.
func SetPriority(priority map[string]int) { ambient.Priority = priority }

// SetHorizon replaces the ambient horizon window. Prefer PushHorizon for
// scoped changes.
func SetHorizon(h *DateRange) { ambient.Horizon = h }

// PushPriority installs a scenario ranking and returns a restore func that
// reinstates the exact prior value. The restore must be deferred so nested
// scopes compose and the prior state survives panics:
//
//	defer overlay.PushPriority(map[string]int{"High": 1, "Base": 2})()
func PushPriority(priority map[string]int) (restore func()) {
	previous := ambient.Priority
	ambient.Priority = priority
	return func() { ambient.Priority = previous }
}

// PushHorizon installs an inclusive date window and returns a restore func.
func PushHorizon(from, to string) (restore func()) {
	previous := ambient.Horizon
	ambient.Horizon = &DateRange{From: from, To: to}
	return func() { ambient.Horizon = previous }
}

// PushPriorityAndHorizon installs both toggles and returns a single restore
// func covering both.
func PushPriorityAndHorizon(priority map[string]int, from, to string) (restore func()) {
	restorePriority := PushPriority(priority)
	restoreHorizon := PushHorizon(from, to)
	return func() {
		restoreHorizon()
		restorePriority()
	}
}
