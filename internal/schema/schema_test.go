package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "govseal/pkg/domain-errors"
)

func TestCompile_RejectsMalformedSchemas(t *testing.T) {
	t.Run("duplicate field ids", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{
			{ID: "a", Kind: KindText},
			{ID: "a", Kind: KindText},
		}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{{ID: "a", Kind: "spinner"}}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("invalid operator", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{
			{ID: "a", Kind: KindText},
			{ID: "b", Kind: KindText, Conditions: []Condition{{FieldID: "a", Operator: "~=", Value: "x"}}},
		}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("dangling condition target", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{
			{ID: "b", Kind: KindText, Conditions: []Condition{{FieldID: "ghost", Operator: OpEq, Value: "x"}}},
		}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("select without options", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{{ID: "a", Kind: KindSelect}}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("two-field condition cycle", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{
			{ID: "a", Kind: KindText, Conditions: []Condition{{FieldID: "b", Operator: OpEq, Value: "x"}}},
			{ID: "b", Kind: KindText, Conditions: []Condition{{FieldID: "a", Operator: OpEq, Value: "y"}}},
		}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("self-referencing condition", func(t *testing.T) {
		_, err := Compile(Schema{Fields: []Field{
			{ID: "a", Kind: KindText, Conditions: []Condition{{FieldID: "a", Operator: OpEq, Value: "x"}}},
		}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestCompile_AcceptsDeepConditionChains(t *testing.T) {
	compiled, err := Compile(Schema{Fields: []Field{
		{ID: "c", Kind: KindText, Conditions: []Condition{{FieldID: "b", Operator: OpEq, Value: "yes"}}},
		{ID: "b", Kind: KindText, Conditions: []Condition{{FieldID: "a", Operator: OpEq, Value: "yes"}}},
		{ID: "a", Kind: KindText},
	}})
	require.NoError(t, err)
	assert.Len(t, compiled.Fields(), 3)
}
