// Package evidence tracks means-of-verification (MOV) references attached to
// indicator responses. The core only records metadata and answers
// existence/type/count queries; file bytes live in an external subsystem.
package evidence

import (
	"time"

	"govseal/pkg/domain"
)

// MOV is one evidence file reference bound to a response field.
type MOV struct {
	ID           domain.MOVID        `json:"id"`
	AssessmentID domain.AssessmentID `json:"assessment_id"`
	IndicatorID  domain.IndicatorID  `json:"indicator_id"`
	FieldID      string              `json:"field_id"`
	FileName     string              `json:"file_name"`
	ContentType  string              `json:"content_type"`
	SizeBytes    int64               `json:"size_bytes"`
	UploadedBy   string              `json:"uploaded_by"`
	UploadedAt   time.Time           `json:"uploaded_at"`
}

// Qualifies reports whether the reference counts as usable evidence:
// a named, non-empty file. Zero-byte uploads and placeholder rows do not
// satisfy evidence requirements.
func (m *MOV) Qualifies() bool {
	return m != nil && m.FileName != "" && m.SizeBytes > 0
}

// Checker answers qualifying-evidence queries for one (assessment,
// indicator) pair from an in-memory snapshot, keeping the schema validator
// pure. Build it from the store's ListByIndicator result.
type Checker struct {
	byField map[string]int
}

// NewChecker indexes a MOV snapshot by field id.
func NewChecker(movs []*MOV) *Checker {
	byField := make(map[string]int, len(movs))
	for _, m := range movs {
		if m.Qualifies() {
			byField[m.FieldID]++
		}
	}
	return &Checker{byField: byField}
}

// HasQualifyingEvidence implements schema.EvidenceChecker.
func (c *Checker) HasQualifyingEvidence(fieldID string) bool {
	return c.byField[fieldID] > 0
}

// Count returns how many qualifying references exist for a field.
func (c *Checker) Count(fieldID string) int {
	return c.byField[fieldID]
}
