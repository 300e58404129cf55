package opportunity

// dataset.go loads the opportunity dataset from its YAML fixture. The
// default dataset is embedded in the binary; a path to an alternative
// fixture may be supplied through configuration.

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

//go:embed data/opportunities.yaml
var embeddedFixture []byte

// rawOpportunity mirrors the fixture's field names before parsing into the
// tagged domain type.
type rawOpportunity struct {
	ID                 string           `yaml:"id"`
	Customer           string           `yaml:"customer"`
	DealValue          float64          `yaml:"dealValue"`
	Status             string           `yaml:"status"`
	CloseDate          string           `yaml:"closeDate"`
	ServiceType        string           `yaml:"serviceType"`
	DeliveryPrice      *float64         `yaml:"deliveryPrice"`
	PartnerPrice       *float64         `yaml:"partnerPrice"`
	PartnerName        *string          `yaml:"partnerName"`
	Issue              *string          `yaml:"issue"`
	IsHighPriority     bool             `yaml:"isHighPriority"`
	UseCase            string           `yaml:"useCase"`
	Notes              string           `yaml:"notes"`
	DeliveryEffort     *string          `yaml:"deliveryEffort"`
	PartnerEffort      *string          `yaml:"partnerEffort"`
	ResourceTableTitle string           `yaml:"resourceTableTitle"`
	ResourceDetails    []ResourceRow    `yaml:"resourceDetails"`
	ResourceColumns    []TableColumnDef `yaml:"resourceColumns"`
}

// Default returns the embedded opportunity dataset.
func Default() ([]Opportunity, error) {
	return Parse(embeddedFixture)
}

// LoadFile loads an opportunity dataset from a YAML file on disk.
func LoadFile(path string) ([]Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read dataset %q: %w", path, err)
	}
	opps, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", path, err)
	}
	return opps, nil
}

// Parse decodes and validates a YAML opportunity dataset, parsing raw status
// and issue strings into their tagged equivalents. Record order is
// preserved.
func Parse(data []byte) ([]Opportunity, error) {

	var raws []rawOpportunity
	if err := yaml.UnmarshalStrict(data, &raws); err != nil {
		return nil, fmt.Errorf("could not parse dataset yaml: %w", err)
	}

	seen := map[string]bool{}
	opportunities := make([]Opportunity, len(raws))
	for i, raw := range raws {
		o, err := fromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, o.ID)
		}
		seen[o.ID] = true
		opportunities[i] = o
	}
	return opportunities, nil
}

// fromRaw validates a raw record and constructs the domain Opportunity.
func fromRaw(raw rawOpportunity) (Opportunity, error) {
	var o Opportunity
	if raw.ID == "" {
		return o, fmt.Errorf("id is missing")
	}
	if raw.Customer == "" {
		return o, fmt.Errorf("customer is missing")
	}
	if raw.ServiceType == "" {
		return o, fmt.Errorf("serviceType is missing")
	}
	for _, col := range raw.ResourceColumns {
		if col.Header == "" {
			return o, fmt.Errorf("resource column with empty header")
		}
		if !rowKeys[col.Key] {
			return o, fmt.Errorf("resource column %q projects unrecognised key %q", col.Header, col.Key)
		}
		if !validColumnFormats[col.Format] {
			return o, fmt.Errorf("resource column %q has unrecognised format %q", col.Header, col.Format)
		}
	}

	o = Opportunity{
		ID:                 raw.ID,
		Customer:           raw.Customer,
		DealValue:          raw.DealValue,
		StatusLabel:        raw.Status,
		Stage:              ParseStage(raw.Status),
		Lost:               LostDeal(raw.Status),
		CloseDate:          raw.CloseDate,
		ServiceType:        raw.ServiceType,
		DeliveryPrice:      raw.DeliveryPrice,
		PartnerPrice:       raw.PartnerPrice,
		PartnerName:        raw.PartnerName,
		IssueText:          raw.Issue,
		Issues:             ParseIssueFlags(raw.Issue),
		HighPriority:       raw.IsHighPriority,
		UseCase:            raw.UseCase,
		Notes:              raw.Notes,
		DeliveryEffort:     raw.DeliveryEffort,
		PartnerEffort:      raw.PartnerEffort,
		ResourceTableTitle: raw.ResourceTableTitle,
		ResourceDetails:    raw.ResourceDetails,
		ResourceColumns:    raw.ResourceColumns,
	}
	return o, nil
}
