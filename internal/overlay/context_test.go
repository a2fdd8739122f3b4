// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbient_DefaultIsEmpty(t *testing.T) {
	assert.Nil(t, Current().Priority)
	assert.Nil(t, Current().Horizon)
}

func TestPushPriority_RestoresPrior(t *testing.T) {
	restore := PushPriority(map[string]int{"Base": 1, "High": 2})
	assert.Equal(t, map[string]int{"Base": 1, "High": 2}, Current().Priority)
	restore()
	assert.Nil(t, Current().Priority)
}

func TestPushPriority_Nested(t *testing.T) {
	outer := PushPriority(map[string]int{"Base": 1})
	inner := PushPriority(map[string]int{"High": 1, "Base": 2})
	assert.Equal(t, map[string]int{"High": 1, "Base": 2}, Current().Priority)
	inner()
	assert.Equal(t, map[string]int{"Base": 1}, Current().Priority)
	outer()
	assert.Nil(t, Current().Priority)
}

func TestPushPriority_RestoresOnPanic(t *testing.T) {
	func() {
		defer func() { require.NotNil(t, recover()) }()
		defer PushPriority(map[string]int{"Base": 1})()
		panic("boom")
	}()
	assert.Nil(t, Current().Priority)
}

func TestPushHorizon_Nested(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), DateFrom: "2024-01-01", DateTo: "2024-06-30"},
		{Value: val(20.0), DateFrom: "2024-07-01", DateTo: "2024-12-31"},
	})

	restoreOuter := PushHorizon("2024-01-01", "2024-12-31")
	got, _ := o.Value().Scalar()
	assert.Equal(t, 10.0, got)

	restoreInner := PushHorizon("2024-07-01", "2024-12-31")
	got, _ = o.Value().Scalar()
	assert.Equal(t, 20.0, got)
	restoreInner()

	got, _ = o.Value().Scalar()
	assert.Equal(t, 10.0, got)
	restoreOuter()

	got, _ = o.Value().Scalar()
	assert.Equal(t, 10.0, got)
	assert.Nil(t, Current().Horizon)
}

func TestPushPriorityAndHorizon(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
		{Value: val(20.0), Scenario: "s2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
		{Value: val(30.0), Scenario: "s3", DateFrom: "2025-01-01", DateTo: "2025-12-31"},
	})

	restore := PushPriorityAndHorizon(map[string]int{"s1": 1, "s2": 2}, "2024-01-01", "2024-12-31")
	got, ok := o.Value().Scalar()
	require.True(t, ok)
	assert.Equal(t, 10.0, got)
	restore()

	assert.Nil(t, Current().Priority)
	assert.Nil(t, Current().Horizon)
	grouped, ok := o.Value().Grouped()
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"s1": 10.0, "s2": 20.0, "s3": 30.0}, grouped)
}
