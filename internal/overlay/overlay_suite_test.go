// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/gridfold/gridfold/internal/overlay"
)

func TestOverlay(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Overlay Suite")
}

func scalar(v float64) overlay.Record {
	return overlay.Record{Value: overlay.Float(v)}
}

var _ = Describe("resolution cascade", func() {
	It("returns the single default entry unchanged", func() {
		o := overlay.FromRecord(scalar(42.0))
		got, ok := o.Resolve(overlay.Context{}).Scalar()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(42.0))
	})

	It("prefers an explicit default over scenario variation", func() {
		o := overlay.FromRecords([]overlay.Record{
			{Value: overlay.Float(5.0)},
			{Value: overlay.Float(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
		})
		got, ok := o.Resolve(overlay.Context{}).Scalar()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(5.0))
	})

	It("exposes the full multi-band picture when no single winner exists", func() {
		o := overlay.FromRecords([]overlay.Record{
			{Value: overlay.Float(10.0), Band: 1},
			{Value: overlay.Float(15.0), Band: 2},
		})
		bands, ok := o.Resolve(overlay.Context{}).Bands()
		Expect(ok).To(BeTrue())
		Expect(bands).To(Equal(map[int]float64{1: 10.0, 2: 15.0}))
	})

	It("lets a smaller priority number win under a scenario ranking", func() {
		o := overlay.FromRecords([]overlay.Record{
			{Value: overlay.Float(10.0), Scenario: "s1"},
			{Value: overlay.Float(20.0), Scenario: "s2"},
		})
		got, ok := o.Resolve(overlay.Context{Priority: map[string]int{"s2": 1, "s1": 2}}).Scalar()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(20.0))
	})

	It("filters by horizon before ranking", func() {
		o := overlay.FromRecords([]overlay.Record{
			{Value: overlay.Float(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
			{Value: overlay.Float(20.0), Scenario: "s1", DateFrom: "2024-07-01", DateTo: "2024-12-31"},
		})
		ctx := overlay.Context{Horizon: &overlay.DateRange{From: "2024-01-01", To: "2024-06-30"}}
		got, ok := o.Resolve(ctx).Scalar()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(10.0))
	})

	It("resolves to empty when the horizon excludes every entry", func() {
		o := overlay.FromRecord(overlay.Record{
			Value: overlay.Float(10.0), DateFrom: "2024-01-01", DateTo: "2024-12-31",
		})
		ctx := overlay.Context{Horizon: &overlay.DateRange{From: "2030-01-01", To: "2030-12-31"}}
		Expect(o.Resolve(ctx).IsEmpty()).To(BeTrue())
	})
})
