package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
)

var jwtService = NewService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

func Test_GenerateAndValidate(t *testing.T) {
	actor := domain.Actor{Subject: "user-1", Role: domain.RoleSubmitter, Party: domain.NewPartyID()}

	token, err := jwtService.GenerateToken(actor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "submitter", claims.Role)
	assert.Equal(t, actor.Party.String(), claims.Party)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	actor := domain.Actor{Subject: "user-1", Role: domain.RoleAssessor}
	token, err := jwtService.GenerateToken(actor, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_ActorValidator(t *testing.T) {
	validator := NewActorValidator(jwtService)

	t.Run("submitter round trip", func(t *testing.T) {
		want := domain.Actor{Subject: "party-user", Role: domain.RoleSubmitter, Party: domain.NewPartyID()}
		token, err := jwtService.GenerateToken(want, time.Hour)
		require.NoError(t, err)

		got, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("reviewer has no party", func(t *testing.T) {
		want := domain.Actor{Subject: "validator-1", Role: domain.RoleValidator}
		token, err := jwtService.GenerateToken(want, time.Hour)
		require.NoError(t, err)

		got, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.True(t, got.Party.IsZero())
		assert.Equal(t, 2, got.Role.ReviewTier())
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		token, err := jwtService.GenerateToken(domain.Actor{Subject: "x", Role: "auditor"}, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("submitter without party rejected", func(t *testing.T) {
		token, err := jwtService.GenerateToken(domain.Actor{Subject: "x", Role: domain.RoleSubmitter}, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
