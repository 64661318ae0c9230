package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "govseal/pkg/domain-errors"
)

func TestParseAssessmentID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAssessmentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed uuid", func(t *testing.T) {
		_, err := ParseAssessmentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil uuid", func(t *testing.T) {
		_, err := ParseAssessmentID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid uuid", func(t *testing.T) {
		want := NewAssessmentID()
		got, err := ParseAssessmentID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestIDsMarshalAsStrings(t *testing.T) {
	id := NewAssessmentID()

	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(raw))

	var back AssessmentID
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, id, back)
}

func TestIDsInsideDocuments(t *testing.T) {
	type doc struct {
		Assessment AssessmentID `json:"assessment_id"`
		Party      PartyID      `json:"party_id"`
		MOV        MOVID        `json:"mov_id"`
	}
	in := doc{Assessment: NewAssessmentID(), Party: NewPartyID(), MOV: NewMOVID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out doc
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestIsZero(t *testing.T) {
	assert.True(t, AssessmentID{}.IsZero())
	assert.True(t, PartyID{}.IsZero())
	assert.False(t, NewAssessmentID().IsZero())
}
