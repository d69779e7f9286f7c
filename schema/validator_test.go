package schema_test

import (
	"testing"

	"github.com/nicia-ai/typegraph/kind"
	"github.com/nicia-ai/typegraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personValidator() *schema.StructValidator {
	return schema.NewStructValidator([]schema.FieldSchema{
		schema.Field("email", kind.ValueString).Required().NotEmpty().MaxLen(255),
		schema.Field("age", kind.ValueNumber).Default(0.0).Min(0).Max(150),
	})
}

func TestStructValidatorAppliesDefaults(t *testing.T) {
	v := personValidator()
	out, err := v.Validate(map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", out["email"])
	assert.Equal(t, 0.0, out["age"])
}

func TestStructValidatorRejectsMissingRequired(t *testing.T) {
	v := personValidator()
	_, err := v.Validate(map[string]any{"age": 10.0})
	require.Error(t, err)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}

func TestStructValidatorRejectsOutOfRange(t *testing.T) {
	v := personValidator()
	_, err := v.Validate(map[string]any{"email": "a@b.com", "age": 200.0})
	require.Error(t, err)
}

func TestStructValidatorRejectsUnknownProperty(t *testing.T) {
	v := personValidator()
	_, err := v.Validate(map[string]any{"email": "a@b.com", "nickname": "x"})
	require.Error(t, err)
}

func TestStructValidatorAllowExtra(t *testing.T) {
	v := personValidator()
	v.AllowExtra = true
	out, err := v.Validate(map[string]any{"email": "a@b.com", "nickname": "x"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", out["email"])
}

func TestValidatorFunc(t *testing.T) {
	var v schema.Validator = schema.ValidatorFunc(func(props map[string]any) (map[string]any, error) {
		return props, nil
	})
	out, err := v.Validate(map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, out["x"])
}
