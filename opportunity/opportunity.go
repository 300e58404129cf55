// Package opportunity holds the presales opportunity data model and the
// embedded dataset fixture.
//
// Each opportunity carries two price quotes for the same scope of work: the
// internal delivery estimate and an external partner benchmark. The raw
// status and issue strings from the source data are parsed once at load time
// into tagged values (Stage, IssueFlags); the raw labels are kept for
// display. All records are immutable after loading.
package opportunity

import (
	"fmt"
	"strings"
)

// Stage is the parsed lifecycle stage of an opportunity.
type Stage int

const (
	StageActive Stage = iota
	StageClosedWon
	StageClosedLost
)

// String returns the display name of a Stage.
func (s Stage) String() string {
	switch s {
	case StageClosedWon:
		return "Closed-Won"
	case StageClosedLost:
		return "Closed-Lost"
	default:
		return "Active"
	}
}

// ParseStage derives the display Stage from a raw status label. The source
// data used free-text labels checked by substring; both the "Closed-Loss"
// literal and the "Lost" substring map to StageClosedLost. The collapse is
// for display only: loss accounting keys on LostDeal instead, which the
// "Closed-Loss" literal does not satisfy.
func ParseStage(label string) Stage {
	switch {
	case label == "Closed-Loss", strings.Contains(label, "Lost"):
		return StageClosedLost
	case strings.Contains(label, "Won"):
		return StageClosedWon
	default:
		return StageActive
	}
}

// LostDeal reports whether a raw status label counts the deal as lost for
// loss accounting. Only the "Lost" substring counts.
func LostDeal(label string) bool {
	return strings.Contains(label, "Lost")
}

// IssueFlags is a set of pricing concerns parsed from the free-text issue
// field.
type IssueFlags uint8

const (
	// FlagVariance marks a significant delta between the delivery and
	// partner quotes.
	FlagVariance IssueFlags = 1 << iota
	// FlagPricing marks a general pricing concern raised on the record.
	FlagPricing
)

// ParseIssueFlags derives IssueFlags from raw issue text, preserving the
// source's substring semantics ("Variance", "Pricing"). A nil issue yields
// the empty set.
func ParseIssueFlags(issue *string) IssueFlags {
	var flags IssueFlags
	if issue == nil {
		return flags
	}
	if strings.Contains(*issue, "Variance") {
		flags |= FlagVariance
	}
	if strings.Contains(*issue, "Pricing") {
		flags |= FlagPricing
	}
	return flags
}

// Has reports whether all the given flags are set.
func (f IssueFlags) Has(flags IssueFlags) bool {
	return f&flags == flags
}

// ColumnFormat selects how a resource table column renders its values. The
// set is closed; rendering dispatches through a lookup table rather than
// string comparison at each cell.
type ColumnFormat string

const (
	FormatCurrency ColumnFormat = "currency" // USD display
	FormatSAR      ColumnFormat = "sar"      // SAR display
	FormatNumber   ColumnFormat = "number"   // grouped digits
	FormatText     ColumnFormat = "text"     // raw text
	FormatDual     ColumnFormat = "dual"     // USD and SAR side by side
)

// validColumnFormats is the closed set of recognised formats. The empty
// string is allowed and treated as text.
var validColumnFormats = map[ColumnFormat]bool{
	"":             true,
	FormatCurrency: true,
	FormatSAR:      true,
	FormatNumber:   true,
	FormatText:     true,
	FormatDual:     true,
}

// TableColumnDef defines one column of a resource table: which row field to
// project and how to render it.
type TableColumnDef struct {
	Header string       `yaml:"header"`
	Key    string       `yaml:"key"`
	Format ColumnFormat `yaml:"format"`
}

// rowKeys is the fixed superset of recognised ResourceRow fields. Fields not
// applicable to a customer's pricing model are simply absent from the row.
var rowKeys = map[string]bool{
	"role":         true,
	"seniority":    true,
	"fteDays":      true,
	"qty":          true,
	"unitPrice":    true,
	"totalPrice":   true,
	"cost":         true,
	"price":        true,
	"marginPrice":  true,
	"sureTotal":    true,
	"cntxtTotal":   true,
	"dailyCost":    true,
	"costPerRole":  true,
	"pricingModel": true,
	"section":      true,
	"isSummary":    true,
}

// ResourceRow is one cost/effort line item in an opportunity's breakdown.
// Rather than one struct field per customer-specific column, values live in
// two sparse maps keyed by field name. Key presence distinguishes a missing
// value from an explicitly blank one.
type ResourceRow struct {
	// Labels holds textual values (role, seniority, pricingModel, ...).
	Labels map[string]string
	// Numbers holds numeric values (fteDays, totalPrice, sureTotal, ...).
	Numbers map[string]float64
	// Section optionally groups the row under a named subsection.
	Section string
	// Summary marks a data-supplied subtotal row, excluded from automatic
	// summation to avoid double counting.
	Summary bool
}

// Label returns the textual value for key and whether it is present.
func (r ResourceRow) Label(key string) (string, bool) {
	v, ok := r.Labels[key]
	return v, ok
}

// Number returns the numeric value for key and whether it is present.
func (r ResourceRow) Number(key string) (float64, bool) {
	v, ok := r.Numbers[key]
	return v, ok
}

// UnmarshalYAML decodes a sparse YAML mapping into a ResourceRow, filing
// string values under Labels and numeric values under Numbers. Unknown keys
// are rejected so fixture typos fail at load rather than render as gaps.
func (r *ResourceRow) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := map[string]interface{}{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	r.Labels = map[string]string{}
	r.Numbers = map[string]float64{}
	for key, value := range raw {
		if !rowKeys[key] {
			return fmt.Errorf("unrecognised resource row field %q", key)
		}
		switch v := value.(type) {
		case string:
			if key == "section" {
				r.Section = v
				continue
			}
			r.Labels[key] = v
		case bool:
			if key != "isSummary" {
				return fmt.Errorf("resource row field %q cannot be a boolean", key)
			}
			r.Summary = v
		case int:
			r.Numbers[key] = float64(v)
		case float64:
			r.Numbers[key] = v
		case nil:
			// A bare key renders as explicitly blank.
			r.Labels[key] = ""
		default:
			return fmt.Errorf("resource row field %q has unsupported type %T", key, value)
		}
	}
	return nil
}

// Opportunity is one sales engagement record.
type Opportunity struct {
	ID          string
	Customer    string
	DealValue   float64
	StatusLabel string // raw label for display
	Stage       Stage  // parsed from StatusLabel
	Lost        bool   // LostDeal(StatusLabel), feeds the potential loss sum
	CloseDate   string // display string, not parsed
	ServiceType string // categorical label used for filtering

	DeliveryPrice *float64
	PartnerPrice  *float64
	PartnerName   *string

	IssueText *string    // raw issue text for display
	Issues    IssueFlags // parsed from IssueText

	HighPriority   bool
	UseCase        string
	Notes          string
	DeliveryEffort *string
	PartnerEffort  *string

	ResourceTableTitle string
	ResourceDetails    []ResourceRow
	ResourceColumns    []TableColumnDef
}

// HasResourceDetails reports whether the record carries a resource
// breakdown.
func (o Opportunity) HasResourceDetails() bool {
	return len(o.ResourceDetails) > 0
}
