package web

import (
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
)

var testServiceTypes = []string{"All", "Landing Zone", "Security"}

func TestNewFilterForm(t *testing.T) {
	form := NewFilterForm()
	want := &FilterForm{KeyFocus: true, ServiceType: "All", Page: 1}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterFormDecode(t *testing.T) {

	tests := []struct {
		name string
		url  string
		want FilterForm
	}{
		{
			name: "no parameters keeps defaults",
			url:  "/",
			want: FilterForm{KeyFocus: true, ServiceType: "All", Page: 1},
		},
		{
			name: "full parameter set",
			url:  "/?focus=false&service-type=Security&page=2",
			want: FilterForm{KeyFocus: false, ServiceType: "Security", Page: 2},
		},
		{
			name: "unknown parameters ignored",
			url:  "/?focus=false&utm_source=mail",
			want: FilterForm{KeyFocus: false, ServiceType: "All", Page: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewFilterForm()
			r := httptest.NewRequest("GET", tt.url, nil)
			if err := DecodeURLParams(r, form); err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if diff := cmp.Diff(tt.want, *form); diff != "" {
				t.Errorf("form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterFormValidate(t *testing.T) {

	tests := []struct {
		name      string
		form      FilterForm
		wantValid bool
		wantForm  FilterForm
	}{
		{
			name:      "defaults are valid",
			form:      FilterForm{KeyFocus: true, ServiceType: "All", Page: 1},
			wantValid: true,
			wantForm:  FilterForm{KeyFocus: true, ServiceType: "All", Page: 1},
		},
		{
			name:      "empty service type folds to All",
			form:      FilterForm{ServiceType: "", Page: 1},
			wantValid: true,
			wantForm:  FilterForm{ServiceType: "All", Page: 1},
		},
		{
			name:      "unknown service type rejected",
			form:      FilterForm{ServiceType: "Blockchain", Page: 1},
			wantValid: false,
			wantForm:  FilterForm{ServiceType: "Blockchain", Page: 1},
		},
		{
			name:      "page below one clamps",
			form:      FilterForm{ServiceType: "Security", Page: -3},
			wantValid: true,
			wantForm:  FilterForm{ServiceType: "Security", Page: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			tt.form.Validate(v, testServiceTypes)
			if got := v.Valid(); got != tt.wantValid {
				t.Fatalf("valid got %v, want %v (errors %v)", got, tt.wantValid, v.Errors)
			}
			if diff := cmp.Diff(tt.wantForm, tt.form); diff != "" {
				t.Errorf("form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterFormFilter(t *testing.T) {
	form := FilterForm{KeyFocus: true, ServiceType: "Security", Page: 2}
	want := analysis.Filter{KeyFocusOnly: true, ServiceType: "Security"}
	if diff := cmp.Diff(want, form.Filter()); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterFormOffset(t *testing.T) {
	tests := []struct {
		page int
		want int
	}{
		{1, 0},
		{2, pageLen},
		{3, 2 * pageLen},
	}
	for _, tt := range tests {
		form := FilterForm{Page: tt.page}
		if got := form.Offset(); got != tt.want {
			t.Errorf("page %d offset got %d, want %d", tt.page, got, tt.want)
		}
	}
}

func TestFilterFormQuery(t *testing.T) {

	form := NewFilterForm()
	if got, want := form.Query(), "focus=true&page=1&service-type=All"; got != want {
		t.Errorf("query got %q, want %q", got, want)
	}

	// The query string round-trips through the session restore path.
	restored := &FilterForm{}
	if err := DecodeQueryString(form.Query(), restored); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if diff := cmp.Diff(form, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterFormToggleURLs(t *testing.T) {

	form := &FilterForm{KeyFocus: true, ServiceType: "Security", Page: 2}

	// Toggling resets pagination and preserves the other conditions.
	if got, want := form.WithKeyFocus(false), "?focus=false&service-type=Security"; got != want {
		t.Errorf("key focus url got %q, want %q", got, want)
	}
	if got, want := form.WithServiceType("Landing Zone"), "?focus=true&service-type=Landing+Zone"; got != want {
		t.Errorf("service type url got %q, want %q", got, want)
	}
	// The receiver is unchanged.
	if form.Page != 2 || form.ServiceType != "Security" {
		t.Errorf("receiver mutated: %+v", form)
	}
}

func TestValidMuxVars(t *testing.T) {
	vars := map[string]string{"id": "OPP-2025-001"}
	got, err := validMuxVars(vars, "id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["id"] != "OPP-2025-001" {
		t.Errorf("id got %q", got["id"])
	}
	if _, err := validMuxVars(vars, "id", "type"); err == nil {
		t.Error("expected an error for a missing key")
	}
}
