// Package analysis derives the dashboard's filtered views, summary
// statistics and resource table models from the static opportunity dataset.
//
// All computation is synchronous reduction over the in-memory dataset. The
// Engine memoizes results per filter so repeated renders with an unchanged
// filter reuse the previous, structurally identical result.
package analysis

import (
	"sort"
	"sync"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
)

// VarianceThreshold is the multiple of the partner quote above which a
// delivery quote marks the deal for review.
const VarianceThreshold = 1.5

// AllServiceTypes is the synthetic category label meaning "no service type
// constraint".
const AllServiceTypes = "All"

// Filter selects a subset of the dataset. Its conditions are conjunctive.
type Filter struct {
	// KeyFocusOnly restricts the subset to high-priority records.
	KeyFocusOnly bool
	// ServiceType restricts the subset to records of one category. Empty or
	// AllServiceTypes means no constraint.
	ServiceType string
}

// normalize folds the two spellings of "unconstrained" into one so memoized
// results are shared between them.
func (f Filter) normalize() Filter {
	if f.ServiceType == AllServiceTypes {
		f.ServiceType = ""
	}
	return f
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(o opportunity.Opportunity) bool {
	if f.KeyFocusOnly && !o.HighPriority {
		return false
	}
	if f.ServiceType != "" && f.ServiceType != AllServiceTypes && o.ServiceType != f.ServiceType {
		return false
	}
	return true
}

// Summary holds the four derived statistics for a filtered subset.
type Summary struct {
	// DeliveryPipeline is the sum of delivery quotes, nil treated as 0.
	DeliveryPipeline float64
	// PotentialLoss is the sum of deal values over records flagged with a
	// price variance or whose status counts the deal as lost.
	PotentialLoss float64
	// VarianceDeals counts records whose delivery quote exceeds the partner
	// quote by more than VarianceThreshold.
	VarianceDeals int
	// AvgVariancePct is the mean variance percentage over records where
	// variance is defined; 0 when no record defines one.
	AvgVariancePct float64
}

// Result is a memoized evaluation of one filter: the ordered subset and its
// summary statistics.
type Result struct {
	Opportunities []opportunity.Opportunity
	Summary       Summary
}

// Engine evaluates filters against an immutable dataset. Safe for concurrent
// use by the web handlers.
type Engine struct {
	dataset      []opportunity.Opportunity
	serviceTypes []string
	byID         map[string]int

	mu   sync.RWMutex
	memo map[Filter]*Result
}

// NewEngine creates an Engine over the dataset. The dataset must not be
// mutated after construction.
func NewEngine(dataset []opportunity.Opportunity) *Engine {
	byID := make(map[string]int, len(dataset))
	for i, o := range dataset {
		byID[o.ID] = i
	}
	return &Engine{
		dataset:      dataset,
		serviceTypes: ServiceTypes(dataset),
		byID:         byID,
		memo:         map[Filter]*Result{},
	}
}

// Dataset returns the full ordered dataset.
func (e *Engine) Dataset() []opportunity.Opportunity {
	return e.dataset
}

// ServiceTypes returns the category labels for the filter control: "All"
// first, then the distinct service types in ascending order.
func (e *Engine) ServiceTypes() []string {
	return e.serviceTypes
}

// Opportunity looks up a single record by id.
func (e *Engine) Opportunity(id string) (opportunity.Opportunity, bool) {
	i, ok := e.byID[id]
	if !ok {
		return opportunity.Opportunity{}, false
	}
	return e.dataset[i], true
}

// Evaluate returns the subset and summary for the filter, computing them at
// most once per distinct filter.
func (e *Engine) Evaluate(f Filter) *Result {
	f = f.normalize()

	e.mu.RLock()
	result, ok := e.memo[f]
	e.mu.RUnlock()
	if ok {
		return result
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another request may have computed the result while the write lock was
	// awaited.
	if result, ok := e.memo[f]; ok {
		return result
	}
	subset := FilterOpportunities(e.dataset, f)
	result = &Result{
		Opportunities: subset,
		Summary:       Summarize(subset),
	}
	e.memo[f] = result
	return result
}

// FilterOpportunities returns the records satisfying the filter, preserving
// dataset order.
func FilterOpportunities(dataset []opportunity.Opportunity, f Filter) []opportunity.Opportunity {
	subset := []opportunity.Opportunity{}
	for _, o := range dataset {
		if f.Matches(o) {
			subset = append(subset, o)
		}
	}
	return subset
}

// ServiceTypes derives the ordered category labels across the dataset:
// "All", then the distinct values sorted ascending.
func ServiceTypes(dataset []opportunity.Opportunity) []string {
	seen := map[string]bool{}
	var distinct []string
	for _, o := range dataset {
		if o.ServiceType == "" || seen[o.ServiceType] {
			continue
		}
		seen[o.ServiceType] = true
		distinct = append(distinct, o.ServiceType)
	}
	sort.Strings(distinct)
	return append([]string{AllServiceTypes}, distinct...)
}

// SumDeliveryValue sums the delivery quotes over the subset, treating a
// missing quote as 0.
func SumDeliveryValue(subset []opportunity.Opportunity) float64 {
	var sum float64
	for _, o := range subset {
		if o.DeliveryPrice != nil {
			sum += *o.DeliveryPrice
		}
	}
	return sum
}

// SumPotentialLoss sums deal values over records carrying a variance flag or
// a status counting the deal as lost. The conditions are inclusive-or. Note
// that the lost condition is narrower than the closed-lost display stage: a
// "Closed-Loss" label shows as closed but does not enter the sum.
func SumPotentialLoss(subset []opportunity.Opportunity) float64 {
	var sum float64
	for _, o := range subset {
		if o.Issues.Has(opportunity.FlagVariance) || o.Lost {
			sum += o.DealValue
		}
	}
	return sum
}

// CountVarianceDeals counts records whose delivery quote exceeds the partner
// quote by more than VarianceThreshold. Records missing either quote are
// excluded, not treated as zero-variance.
func CountVarianceDeals(subset []opportunity.Opportunity) int {
	var count int
	for _, o := range subset {
		d, p, ok := quotesPresent(o)
		if ok && d > p*VarianceThreshold {
			count++
		}
	}
	return count
}

// VariancePct returns the relative percentage difference between the
// delivery and partner quotes. It is defined only when both quotes are
// present; the second return reports definedness.
func VariancePct(o opportunity.Opportunity) (float64, bool) {
	d, p, ok := quotesPresent(o)
	if !ok {
		return 0, false
	}
	return (d - p) / p * 100, true
}

// Summarize computes the summary statistics for a subset. An empty subset
// yields zeroes, never an error.
func Summarize(subset []opportunity.Opportunity) Summary {
	s := Summary{
		DeliveryPipeline: SumDeliveryValue(subset),
		PotentialLoss:    SumPotentialLoss(subset),
		VarianceDeals:    CountVarianceDeals(subset),
	}
	var total float64
	var defined int
	for _, o := range subset {
		if pct, ok := VariancePct(o); ok {
			total += pct
			defined++
		}
	}
	if defined > 0 {
		s.AvgVariancePct = total / float64(defined)
	}
	return s
}

// CountVarianceIndicators counts records whose issue text raised a variance
// or pricing concern, shown as a badge on the opportunity table.
func CountVarianceIndicators(subset []opportunity.Opportunity) int {
	var count int
	for _, o := range subset {
		if o.Issues.Has(opportunity.FlagVariance) || o.Issues.Has(opportunity.FlagPricing) {
			count++
		}
	}
	return count
}

// quotesPresent reports both quotes when each is present and non-zero. A
// zero quote is treated as absent, matching the source data's semantics.
func quotesPresent(o opportunity.Opportunity) (delivery, partner float64, ok bool) {
	if o.DeliveryPrice == nil || *o.DeliveryPrice == 0 {
		return 0, 0, false
	}
	if o.PartnerPrice == nil || *o.PartnerPrice == 0 {
		return 0, 0, false
	}
	return *o.DeliveryPrice, *o.PartnerPrice, true
}
