// Package domain holds the typed identifiers and small shared value types
// used across the portal core.
package domain

import (
	"github.com/google/uuid"

	dErrors "govseal/pkg/domain-errors"
)

// AssessmentID identifies one (submitting party, cycle year) assessment.
type AssessmentID uuid.UUID

// PartyID identifies the submitting party (the assessed unit).
type PartyID uuid.UUID

// MOVID identifies an uploaded means-of-verification reference.
type MOVID uuid.UUID

// AreaID is the catalog code of a governance area (e.g. "safety").
type AreaID string

// IndicatorID is the catalog code of an indicator (e.g. "safety.1.2").
type IndicatorID string

// NewAssessmentID generates a fresh assessment id.
func NewAssessmentID() AssessmentID { return AssessmentID(uuid.New()) }

// NewPartyID generates a fresh party id.
func NewPartyID() PartyID { return PartyID(uuid.New()) }

// NewMOVID generates a fresh MOV id.
func NewMOVID() MOVID { return MOVID(uuid.New()) }

func (id AssessmentID) String() string { return uuid.UUID(id).String() }
func (id PartyID) String() string      { return uuid.UUID(id).String() }
func (id MOVID) String() string        { return uuid.UUID(id).String() }

func (id AssessmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id MOVID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }

// The uuid-backed ids serialize as canonical strings, not byte arrays.

func (id AssessmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id MOVID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *AssessmentID) UnmarshalText(text []byte) error {
	parsed, err := ParseAssessmentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PartyID) UnmarshalText(text []byte) error {
	parsed, err := ParsePartyID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MOVID) UnmarshalText(text []byte) error {
	parsed, err := ParseMOVID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseAssessmentID parses and validates an assessment id from a string.
// IDs must be valid, non-nil UUIDs.
func ParseAssessmentID(raw string) (AssessmentID, error) {
	u, err := parseUUID(raw, "assessment id")
	return AssessmentID(u), err
}

// ParsePartyID parses and validates a party id from a string.
func ParsePartyID(raw string) (PartyID, error) {
	u, err := parseUUID(raw, "party id")
	return PartyID(u), err
}

// ParseMOVID parses and validates a MOV id from a string.
func ParseMOVID(raw string) (MOVID, error) {
	u, err := parseUUID(raw, "mov id")
	return MOVID(u), err
}

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid uuid", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil uuid", what)
	}
	return u, nil
}
