package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"visaletter-backend/models"
)

// Clean turns one raw intake value into a trimmed string.
// nil, empty and whitespace-only values are reported as absent.
func Clean(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if cleaned, ok := Clean(item); ok {
				items = append(items, cleaned)
			}
		}
		s = strings.Join(items, ", ")
	case []string:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if cleaned, ok := Clean(item); ok {
				items = append(items, cleaned)
			}
		}
		s = strings.Join(items, ", ")
	default:
		s = fmt.Sprint(t)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// SponsorshipRule reports whether a payload implies a third-party sponsor
type SponsorshipRule func(models.Payload) bool

// Normalizer maps raw intake onto the canonical payload
type Normalizer struct {
	defaults  map[models.Field]string
	sponsored SponsorshipRule
}

// NewNormalizer creates a normalizer. sponsored decides whether sponsor
// identity fields become required; nil disables that check.
func NewNormalizer(defaultCompany, defaultFunding string, sponsored SponsorshipRule) *Normalizer {
	defaults := make(map[models.Field]string, 2)
	if v, ok := Clean(defaultCompany); ok {
		defaults[models.FieldCompanyName] = v
	}
	if v, ok := Clean(defaultFunding); ok {
		defaults[models.FieldFunding] = v
	}
	return &Normalizer{defaults: defaults, sponsored: sponsored}
}

// Normalize cleans raw fields, applies defaults and validates presence.
// Unknown keys are ignored. On failure the returned *ValidationError lists
// the missing base fields in schema order followed by conditional ones.
func (n *Normalizer) Normalize(raw map[string]any) (models.Payload, error) {
	values := make(map[models.Field]string, len(models.PayloadSchema))
	defaulted := make(map[models.Field]bool, len(n.defaults))

	for _, spec := range models.PayloadSchema {
		if v, ok := Clean(raw[string(spec.Field)]); ok {
			values[spec.Field] = v
		}
	}
	for field, v := range n.defaults {
		if _, ok := values[field]; !ok {
			values[field] = v
			defaulted[field] = true
		}
	}

	payload := models.NewPayload(values, defaulted)

	var missing []string
	for _, field := range models.RequiredFields() {
		if !payload.Has(field) {
			missing = append(missing, string(field))
		}
	}

	if n.sponsored != nil && n.sponsored(payload) {
		for _, field := range []models.Field{models.FieldSponsorName, models.FieldSponsorRelationship} {
			if !payload.Has(field) {
				missing = append(missing, string(field))
			}
		}
	}

	if len(missing) > 0 {
		return models.Payload{}, &ValidationError{Missing: missing}
	}
	return payload, nil
}
