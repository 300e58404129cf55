package web

/* view types for the web server */

import (
	"fmt"
	"sort"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/format"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
)

// viewStats carries the four summary statistics, formatted for the stat
// cards.
type viewStats struct {
	DeliveryPipeline string
	AvgVariance      string
	VarianceDeals    string
	PotentialLoss    string
}

// newViewStats formats an analysis.Summary for display.
func newViewStats(s analysis.Summary, f *format.Formatter) viewStats {
	return viewStats{
		DeliveryPipeline: f.USD(&s.DeliveryPipeline),
		AvgVariance:      f.Percent(s.AvgVariancePct),
		VarianceDeals:    fmt.Sprintf("%d", s.VarianceDeals),
		PotentialLoss:    f.USD(&s.PotentialLoss),
	}
}

// viewOpportunity is a view version of an opportunity.Opportunity for the
// listing table, with non-pointer, pre-formatted fields.
type viewOpportunity struct {
	ID             string
	Customer       string
	DeliveryQuote  string // dual USD/SAR
	DeliveryEffort string
	PartnerQuote   string // dual USD/SAR
	PartnerName    string
	PartnerEffort  string
	StatusLabel    string
	Closed         bool
	DetailURL      string
}

// newViewOpportunities maps opportunity records to view rows.
func newViewOpportunities(opps []opportunity.Opportunity, f *format.Formatter) []viewOpportunity {
	views := make([]viewOpportunity, len(opps))
	for i, o := range opps {
		views[i].ID = o.ID
		views[i].Customer = o.Customer
		views[i].DeliveryQuote = f.Dual(o.DeliveryPrice)
		views[i].DeliveryEffort = orPlaceholder(o.DeliveryEffort)
		views[i].PartnerQuote = f.Dual(o.PartnerPrice)
		views[i].PartnerEffort = orPlaceholder(o.PartnerEffort)
		views[i].StatusLabel = o.StatusLabel
		views[i].Closed = o.Stage == opportunity.StageClosedLost
		views[i].DetailURL = "/opportunity/" + o.ID
		if o.PartnerName != nil {
			views[i].PartnerName = *o.PartnerName
		}
	}
	return views
}

// viewDetail is the detail page view of a single opportunity.
type viewDetail struct {
	ID          string
	Customer    string
	StatusLabel string
	Closed      bool
	UseCase     string
	Notes       string

	DeliveryQuote  string
	DeliveryEffort string
	PartnerQuote   string
	PartnerEffort  string
	PartnerBadge   string

	HasVariance   bool
	VarianceLabel string

	CloseDate string
	DealValue string

	HasResources bool
	Table        analysis.ResourceTable
}

// newViewDetail builds the detail view, including the resource table model.
// The variance badge is shown only when variance is defined and positive.
func newViewDetail(o opportunity.Opportunity, f *format.Formatter) viewDetail {
	view := viewDetail{
		ID:             o.ID,
		Customer:       o.Customer,
		StatusLabel:    o.StatusLabel,
		Closed:         o.Stage == opportunity.StageClosedLost,
		UseCase:        o.UseCase,
		Notes:          o.Notes,
		DeliveryQuote:  f.USD(o.DeliveryPrice),
		DeliveryEffort: orNotSpecified(o.DeliveryEffort),
		PartnerQuote:   f.USD(o.PartnerPrice),
		PartnerEffort:  orNotSpecified(o.PartnerEffort),
		PartnerBadge:   "EXTERNAL",
		CloseDate:      o.CloseDate,
		DealValue:      f.USD(&o.DealValue),
		HasResources:   o.HasResourceDetails(),
	}
	if o.PartnerName != nil {
		view.PartnerBadge = *o.PartnerName
	}
	if pct, ok := analysis.VariancePct(o); ok && pct > 0 {
		view.HasVariance = true
		view.VarianceLabel = "Variance: " + f.Percent(pct)
	}
	if view.HasResources {
		view.Table = analysis.BuildResourceTable(o, f)
	}
	return view
}

// viewInsight is a key-insight card comparing the two quotes for one
// flagged account.
type viewInsight struct {
	Customer     string
	DeltaLabel   string
	Description  string
	PartnerWidth int // partner bar width relative to the delivery bar, 0-100
}

// insightsShown caps the number of key-insight cards.
const insightsShown = 3

// newViewInsights builds insight cards for the records with the largest
// defined variance in the subset, largest first.
func newViewInsights(subset []opportunity.Opportunity, f *format.Formatter) []viewInsight {
	type flagged struct {
		o   opportunity.Opportunity
		pct float64
	}
	var candidates []flagged
	for _, o := range subset {
		if pct, ok := analysis.VariancePct(o); ok && pct > 0 {
			candidates = append(candidates, flagged{o, pct})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pct > candidates[j].pct
	})
	if len(candidates) > insightsShown {
		candidates = candidates[:insightsShown]
	}

	insights := make([]viewInsight, len(candidates))
	for i, c := range candidates {
		width := 0
		if *c.o.DeliveryPrice != 0 {
			width = int(*c.o.PartnerPrice / *c.o.DeliveryPrice * 100)
		}
		if width > 100 {
			width = 100
		}
		insights[i] = viewInsight{
			Customer:   c.o.Customer,
			DeltaLabel: "Delta " + f.Percent(c.pct),
			Description: fmt.Sprintf(
				"Delivery quote: %s. Partner quote: %s.",
				f.USD(c.o.DeliveryPrice),
				f.USD(c.o.PartnerPrice),
			),
			PartnerWidth: width,
		}
	}
	return insights
}

// orPlaceholder de-pointers an optional string with a "-" fallback.
func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return format.Placeholder
	}
	return *s
}

// orNotSpecified de-pointers an optional string with the detail page's
// fallback wording.
func orNotSpecified(s *string) string {
	if s == nil || *s == "" {
		return "Not Specified"
	}
	return *s
}
