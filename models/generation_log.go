package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the outcome of a letter generation request
type GenerationStatus string

const (
	GenerationCompleted GenerationStatus = "completed"
	GenerationRejected  GenerationStatus = "rejected" // validation or asset failure, no model call
	GenerationFailed    GenerationStatus = "failed"
)

// ScenarioList is the set of scenarios detected for a request
type ScenarioList []Scenario

// Value implements driver.Valuer for JSONB
func (s ScenarioList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]Scenario{})
	}
	return json.Marshal([]Scenario(s))
}

// Scan implements sql.Scanner for JSONB
func (s *ScenarioList) Scan(value interface{}) error {
	if value == nil {
		*s = make(ScenarioList, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(ScenarioList, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(ScenarioList, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// GenerationLog is a metadata-only record of one generation request.
// It never holds applicant fields.
type GenerationLog struct {
	ID               uuid.UUID        `json:"id"`
	RequestID        string           `json:"request_id"`
	Status           GenerationStatus `json:"status"`
	Model            *string          `json:"model,omitempty"`
	FallbackUsed     bool             `json:"fallback_used"`
	Scenarios        ScenarioList     `json:"scenarios"`
	AssetFingerprint *string          `json:"asset_fingerprint,omitempty"`
	ErrorCode        *string          `json:"error_code,omitempty"`
	PromptChars      int              `json:"prompt_chars"`
	DurationMs       int64            `json:"duration_ms"`
	CreatedAt        time.Time        `json:"created_at"`
}
