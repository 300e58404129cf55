package opportunity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataset(t *testing.T) {

	opps, err := Default()
	if err != nil {
		t.Fatalf("unexpected error loading embedded dataset: %v", err)
	}
	if got, want := len(opps), 8; got != want {
		t.Fatalf("got %d records, want %d", got, want)
	}

	// Spot check the first record.
	o := opps[0]
	if got, want := o.ID, "OPP-2025-001"; got != want {
		t.Errorf("id got %q, want %q", got, want)
	}
	if got, want := o.Customer, "PIF"; got != want {
		t.Errorf("customer got %q, want %q", got, want)
	}
	if o.DeliveryPrice == nil || *o.DeliveryPrice != 98000 {
		t.Errorf("delivery price got %v, want 98000", o.DeliveryPrice)
	}
	if o.Stage != StageActive {
		t.Errorf("stage got %v, want StageActive", o.Stage)
	}
	if !o.Issues.Has(FlagVariance) {
		t.Error("expected first record to carry a variance flag")
	}
	if !o.HasResourceDetails() {
		t.Error("expected first record to carry resource details")
	}

	// The closed-lost record parses its raw label into the tagged stage.
	for _, o := range opps {
		if o.ID != "OPP-2025-002" {
			continue
		}
		if o.Stage != StageClosedLost {
			t.Errorf("OPP-2025-002 stage got %v, want StageClosedLost", o.Stage)
		}
		if got, want := o.StatusLabel, "Closed-Lost"; got != want {
			t.Errorf("raw status label got %q, want %q", got, want)
		}
		if !o.Lost {
			t.Error("expected OPP-2025-002 to count as lost")
		}
	}
}

func TestParseClosedLossStatus(t *testing.T) {

	yaml := "- id: OPP-1\n  customer: PIF\n  serviceType: Security\n" +
		"  dealValue: 100000\n  status: Closed-Loss\n"
	opps, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := opps[0]
	if o.Stage != StageClosedLost {
		t.Errorf("stage got %v, want StageClosedLost", o.Stage)
	}
	if o.Lost {
		t.Error("a Closed-Loss status must not count the deal as lost")
	}
}

func TestParseErrors(t *testing.T) {

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "duplicate id",
			yaml:    twoRecords("OPP-1", "OPP-1"),
			wantErr: `duplicate id "OPP-1"`,
		},
		{
			name:    "missing id",
			yaml:    "- customer: PIF\n  serviceType: Security\n",
			wantErr: "id is missing",
		},
		{
			name:    "missing customer",
			yaml:    "- id: OPP-1\n  serviceType: Security\n",
			wantErr: "customer is missing",
		},
		{
			name:    "missing service type",
			yaml:    "- id: OPP-1\n  customer: PIF\n",
			wantErr: "serviceType is missing",
		},
		{
			name: "unknown column key",
			yaml: "- id: OPP-1\n  customer: PIF\n  serviceType: Security\n" +
				"  resourceColumns:\n  - header: Day Rate\n    key: dayRate\n",
			wantErr: `unrecognised key "dayRate"`,
		},
		{
			name: "unknown column format",
			yaml: "- id: OPP-1\n  customer: PIF\n  serviceType: Security\n" +
				"  resourceColumns:\n  - header: Cost\n    key: cost\n    format: euro\n",
			wantErr: `unrecognised format "euro"`,
		},
		{
			name:    "strict decoding rejects unknown record fields",
			yaml:    "- id: OPP-1\n  customer: PIF\n  serviceType: Security\n  owner: someone\n",
			wantErr: "could not parse dataset yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, "opportunities.yaml")
	if err := os.WriteFile(path, []byte(twoRecords("OPP-1", "OPP-2")), 0644); err != nil {
		t.Fatal(err)
	}

	opps, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(opps), 2; got != want {
		t.Errorf("got %d records, want %d", got, want)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// twoRecords builds a minimal two-record fixture with the given ids.
func twoRecords(id1, id2 string) string {
	var b strings.Builder
	for _, id := range []string{id1, id2} {
		b.WriteString("- id: " + id + "\n")
		b.WriteString("  customer: C-" + id + "\n")
		b.WriteString("  serviceType: Security\n")
	}
	return b.String()
}
