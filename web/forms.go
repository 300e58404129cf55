package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/gorilla/schema"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
)

// ------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------

// Validator holds a map of validation errors, keyed by the form field name.
type Validator struct {
	Errors map[string]string
}

// NewValidator creates a new, initialized Validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map is empty.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map for a given field if one
// doesn't already exist for that field.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check is a helper for conditional validation. If `ok` is false, it
// calls AddError with the provided key and message.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// FieldError is a helper to check if the specified field has triggered
// an error.
func (v *Validator) FieldError(field string) bool {
	_, ok := v.Errors[field]
	return ok
}

// ------------------------------------------------------------------------------
// URL parameter parsing, using gorilla mux.Vars
// ------------------------------------------------------------------------------

// validMuxVars checks that the required keys are in the url route variable
// parameters, such as the `id` in
//
//	"/opportunity/{id:[A-Za-z0-9_-]+}"
func validMuxVars(vars map[string]string, keys ...string) (map[string]string, error) {
	for _, key := range keys {
		if _, ok := vars[key]; !ok {
			return nil, fmt.Errorf("parameter %q missing", key)
		}
	}
	return vars, nil
}

// ------------------------------------------------------------------------------
// Forms
// ------------------------------------------------------------------------------

// FilterForm represents the dashboard's URL query parameter filters. The
// same struct round-trips: gorilla/schema decodes it from a request and
// go-querystring encodes it back into the canonical query for filter links.
type FilterForm struct {
	KeyFocus    bool   `schema:"focus" url:"focus"`
	ServiceType string `schema:"service-type" url:"service-type,omitempty"`
	Page        int    `schema:"page" url:"page,omitempty"`
}

// NewFilterForm creates a FilterForm with defaults. The dashboard opens on
// the key focus view.
func NewFilterForm() *FilterForm {
	return &FilterForm{
		KeyFocus:    true,
		ServiceType: analysis.AllServiceTypes,
		Page:        1, // 1-based pagination.
	}
}

// Validate checks FilterForm fields against the known service types and
// populates the Validator with any errors. Note that `Check` is like an
// assertion of truth; if that fails, the provided message is recorded
// against the field.
func (f *FilterForm) Validate(v *Validator, serviceTypes []string) {

	if f.ServiceType == "" {
		f.ServiceType = analysis.AllServiceTypes
	}
	known := false
	for _, st := range serviceTypes {
		if f.ServiceType == st {
			known = true
			break
		}
	}
	v.Check(known, "service-type", "Unknown service type selected.")

	if f.Page < 1 {
		f.Page = 1
	}
}

// Filter converts the form into an analysis filter.
func (f *FilterForm) Filter() analysis.Filter {
	return analysis.Filter{
		KeyFocusOnly: f.KeyFocus,
		ServiceType:  f.ServiceType,
	}
}

// Offset calculates the slice offset for (1-based) pagination.
func (f *FilterForm) Offset() int {
	return (f.Page - 1) * pageLen
}

// Query encodes the form as a URL query string, eg
// "focus=true&service-type=Security".
func (f *FilterForm) Query() string {
	values, err := query.Values(f)
	if err != nil {
		// the form is a fixed struct of supported types
		return ""
	}
	return values.Encode()
}

// WithKeyFocus returns the URL for the same filter with the key focus
// toggle set as given, reset to the first page.
func (f *FilterForm) WithKeyFocus(focus bool) string {
	c := *f
	c.KeyFocus = focus
	c.Page = 0
	return "?" + c.Query()
}

// WithServiceType returns the URL for the same filter constrained to the
// given service type, reset to the first page.
func (f *FilterForm) WithServiceType(serviceType string) string {
	c := *f
	c.ServiceType = serviceType
	c.Page = 0
	return "?" + c.Query()
}

// ------------------------------------------------------------------------------
// General decoding funcs
// ------------------------------------------------------------------------------

// newSchemaDecoder creates a new schema.Decoder instance which ignores
// unknown keys so stray parameters don't fail the page.
func newSchemaDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

// DecodeURLParams is a helper that decodes URL query parameters from a
// request into a destination struct (dst).
func DecodeURLParams(r *http.Request, dst any) error {
	decoder := newSchemaDecoder()
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("url parameter decoding error: %v", err)
	}
	return nil
}

// DecodeQueryString decodes a previously saved query string into a
// destination struct, used to restore a session's last filter.
func DecodeQueryString(rawQuery string, dst any) error {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("query parse error: %v", err)
	}
	decoder := newSchemaDecoder()
	if err := decoder.Decode(dst, values); err != nil {
		return fmt.Errorf("query decoding error: %v", err)
	}
	return nil
}
