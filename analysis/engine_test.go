package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
)

func fp(v float64) *float64 { return &v }
func sp(s string) *string   { return &s }

// testDataset loads the embedded fixture, failing the test on error.
func testDataset(t *testing.T) []opportunity.Opportunity {
	t.Helper()
	dataset, err := opportunity.Default()
	if err != nil {
		t.Fatalf("could not load embedded dataset: %v", err)
	}
	return dataset
}

func ids(opps []opportunity.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.ID
	}
	return out
}

func TestFilterOpportunities(t *testing.T) {

	dataset := testDataset(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "no constraint keeps dataset order",
			filter: Filter{},
			want: []string{
				"OPP-2025-001", "OPP-2025-002", "OPP-2025-003", "OPP-2025-004",
				"OPP-2025-005", "OPP-2025-006", "OPP-2025-007", "OPP-2025-008",
			},
		},
		{
			name:   "all service types is no constraint",
			filter: Filter{ServiceType: AllServiceTypes},
			want: []string{
				"OPP-2025-001", "OPP-2025-002", "OPP-2025-003", "OPP-2025-004",
				"OPP-2025-005", "OPP-2025-006", "OPP-2025-007", "OPP-2025-008",
			},
		},
		{
			name:   "key focus only",
			filter: Filter{KeyFocusOnly: true},
			want: []string{
				"OPP-2025-001", "OPP-2025-002", "OPP-2025-003", "OPP-2025-004",
				"OPP-2025-005",
			},
		},
		{
			name:   "service type",
			filter: Filter{ServiceType: "Security"},
			want:   []string{"OPP-2025-006", "OPP-2025-008"},
		},
		{
			name:   "conjunction of both conditions",
			filter: Filter{KeyFocusOnly: true, ServiceType: "Landing Zone"},
			want:   []string{"OPP-2025-001", "OPP-2025-005"},
		},
		{
			name:   "empty subset",
			filter: Filter{KeyFocusOnly: true, ServiceType: "Security"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterOpportunities(dataset, tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("subset mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServiceTypes(t *testing.T) {

	got := ServiceTypes(testDataset(t))
	want := []string{
		"All", "Application Modernisation", "Data & AI", "Data Migration",
		"Landing Zone", "Managed Services", "Security",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("service types mismatch (-want +got):\n%s", diff)
	}

	// Duplicates collapse and "All" leads even for an empty dataset.
	if diff := cmp.Diff([]string{"All"}, ServiceTypes(nil)); diff != "" {
		t.Errorf("empty dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestSumDeliveryValue(t *testing.T) {

	tests := []struct {
		name   string
		subset []opportunity.Opportunity
		want   float64
	}{
		{
			name:   "empty subset sums to zero",
			subset: nil,
			want:   0,
		},
		{
			name: "missing quote treated as zero",
			subset: []opportunity.Opportunity{
				{DeliveryPrice: fp(98000)},
				{DeliveryPrice: nil},
				{DeliveryPrice: fp(263000)},
			},
			want: 361000,
		},
		{
			name:   "full dataset",
			subset: testDataset(t),
			want:   1910500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SumDeliveryValue(tt.subset); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSumPotentialLoss(t *testing.T) {

	variance := opportunity.Opportunity{
		DealValue: 99000,
		Issues:    opportunity.FlagVariance,
	}
	lost := opportunity.Opportunity{
		DealValue:   263000,
		StatusLabel: "Closed-Lost",
		Stage:       opportunity.StageClosedLost,
		Lost:        true,
	}
	// The "Closed-Loss" label shows as a closed stage but does not count the
	// deal as lost.
	closedLoss := opportunity.Opportunity{
		DealValue:   100000,
		StatusLabel: "Closed-Loss",
		Stage:       opportunity.StageClosedLost,
	}
	clean := opportunity.Opportunity{
		DealValue: 500000,
	}
	pricingOnly := opportunity.Opportunity{
		DealValue: 767000,
		Issues:    opportunity.FlagPricing,
	}

	tests := []struct {
		name   string
		subset []opportunity.Opportunity
		want   float64
	}{
		{
			name:   "variance flag or lost status",
			subset: []opportunity.Opportunity{variance, lost},
			want:   362000,
		},
		{
			name:   "closed-loss stage without lost status excluded",
			subset: []opportunity.Opportunity{closedLoss},
			want:   0,
		},
		{
			name:   "clean and pricing-only records excluded",
			subset: []opportunity.Opportunity{variance, clean, pricingOnly},
			want:   99000,
		},
		{
			name:   "full dataset",
			subset: testDataset(t),
			want:   647000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SumPotentialLoss(tt.subset); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountVarianceDeals(t *testing.T) {

	tests := []struct {
		name   string
		subset []opportunity.Opportunity
		want   int
	}{
		{
			name: "threshold is strictly greater than",
			subset: []opportunity.Opportunity{
				{DeliveryPrice: fp(151), PartnerPrice: fp(100)}, // above
				{DeliveryPrice: fp(150), PartnerPrice: fp(100)}, // at threshold
			},
			want: 1,
		},
		{
			name: "missing or zero quotes are excluded",
			subset: []opportunity.Opportunity{
				{DeliveryPrice: fp(320000), PartnerPrice: nil},
				{DeliveryPrice: nil, PartnerPrice: fp(100)},
				{DeliveryPrice: fp(320000), PartnerPrice: fp(0)},
			},
			want: 0,
		},
		{
			name:   "full dataset",
			subset: testDataset(t),
			want:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountVarianceDeals(tt.subset); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVariancePct(t *testing.T) {

	tests := []struct {
		name   string
		o      opportunity.Opportunity
		want   float64
		wantOK bool
	}{
		{
			name:   "defined variance",
			o:      opportunity.Opportunity{DeliveryPrice: fp(98000), PartnerPrice: fp(58000)},
			want:   68.9655,
			wantOK: true,
		},
		{
			name:   "negative variance",
			o:      opportunity.Opportunity{DeliveryPrice: fp(76000), PartnerPrice: fp(95000)},
			want:   -20,
			wantOK: true,
		},
		{
			name:   "missing partner quote",
			o:      opportunity.Opportunity{DeliveryPrice: fp(320000)},
			wantOK: false,
		},
		{
			name:   "zero delivery quote treated as absent",
			o:      opportunity.Opportunity{DeliveryPrice: fp(0), PartnerPrice: fp(100)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VariancePct(tt.o)
			if ok != tt.wantOK {
				t.Fatalf("ok got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {

	dataset := testDataset(t)

	tests := []struct {
		name   string
		subset []opportunity.Opportunity
		want   Summary
	}{
		{
			name:   "empty subset yields zeroes",
			subset: nil,
			want:   Summary{},
		},
		{
			name:   "full dataset",
			subset: dataset,
			want: Summary{
				DeliveryPipeline: 1910500,
				PotentialLoss:    647000,
				VarianceDeals:    4,
				AvgVariancePct:   94.69,
			},
		},
		{
			name:   "key focus subset",
			subset: FilterOpportunities(dataset, Filter{KeyFocusOnly: true}),
			want: Summary{
				DeliveryPipeline: 1502500,
				PotentialLoss:    460000,
				VarianceDeals:    3,
				AvgVariancePct:   122.01,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.subset)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 0.01)); diff != "" {
				t.Errorf("summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCountVarianceIndicators(t *testing.T) {

	if got, want := CountVarianceIndicators(testDataset(t)), 4; got != want {
		t.Errorf("got %d, want %d", got, want)
	}

	subset := []opportunity.Opportunity{
		{Issues: opportunity.FlagVariance},
		{Issues: opportunity.FlagPricing},
		{Issues: opportunity.FlagVariance | opportunity.FlagPricing},
		{},
	}
	if got, want := CountVarianceIndicators(subset), 3; got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestEngineEvaluate(t *testing.T) {

	engine := NewEngine(testDataset(t))

	first := engine.Evaluate(Filter{ServiceType: AllServiceTypes})
	second := engine.Evaluate(Filter{ServiceType: ""})

	// The two spellings of "no constraint" share one memoized result.
	if first != second {
		t.Error("equivalent filters should return the same memoized result")
	}
	if got, want := len(first.Opportunities), 8; got != want {
		t.Errorf("got %d records, want %d", got, want)
	}
	if got, want := first.Summary.DeliveryPipeline, float64(1910500); got != want {
		t.Errorf("pipeline got %v, want %v", got, want)
	}

	focused := engine.Evaluate(Filter{KeyFocusOnly: true})
	if focused == first {
		t.Error("distinct filters should have distinct results")
	}
	if got, want := len(focused.Opportunities), 5; got != want {
		t.Errorf("focused got %d records, want %d", got, want)
	}
}

func TestEngineOpportunity(t *testing.T) {

	engine := NewEngine(testDataset(t))

	o, ok := engine.Opportunity("OPP-2025-004")
	if !ok {
		t.Fatal("expected record OPP-2025-004")
	}
	if got, want := o.Customer, "NWC"; got != want {
		t.Errorf("customer got %q, want %q", got, want)
	}

	if _, ok := engine.Opportunity("OPP-2025-099"); ok {
		t.Error("unexpected record for unknown id")
	}
}

func TestEngineServiceTypes(t *testing.T) {
	engine := NewEngine(testDataset(t))
	got := engine.ServiceTypes()
	if len(got) != 7 || got[0] != "All" {
		t.Errorf("unexpected service types %v", got)
	}
}
