package emitter_test

import (
	"testing"

	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/emitter/scalaemitter"
	"github.com/mark3labs/draco/internal/emitter/tsemitter"
	"github.com/mark3labs/draco/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_Scalars(t *testing.T) {
	scala := scalaemitter.DefaultTokens
	assert.Equal(t, "String", scala.Scalar(spec.KindString, emitter.Command))
	assert.Equal(t, "Int or Long", scala.Scalar(spec.KindInteger, emitter.Command))
	assert.Equal(t, "Float", scala.Scalar(spec.KindNumber, emitter.ViewModel))
	assert.Equal(t, "Boolean", scala.Scalar(spec.KindBoolean, emitter.ViewModel))
	assert.Equal(t, "ZonedDateTime", scala.Scalar(spec.KindDate, emitter.Command))
	assert.Equal(t, "Instant", scala.Scalar(spec.KindDate, emitter.ViewModel))
	assert.Equal(t, "String", scala.Param(spec.ParamString))
	assert.Equal(t, "Long", scala.Param(spec.ParamInteger))

	ts := tsemitter.DefaultTokens
	assert.Equal(t, "number", ts.Scalar(spec.KindInteger, emitter.Command))
	assert.Equal(t, "number", ts.Scalar(spec.KindNumber, emitter.Command))
	assert.Equal(t, "Date", ts.Scalar(spec.KindDate, emitter.Command))
	assert.Equal(t, "Date", ts.Scalar(spec.KindDate, emitter.ViewModel))
	assert.Equal(t, "string", ts.Param(spec.ParamString))
	assert.Equal(t, "number", ts.Param(spec.ParamInteger))
}

func TestTokens_ScalarPanicsOnComposite(t *testing.T) {
	assert.Panics(t, func() { scalaemitter.DefaultTokens.Scalar(spec.KindObject, emitter.Command) })
}

func TestTokens_Override(t *testing.T) {
	tokens, err := scalaemitter.DefaultTokens.Override(map[string]string{
		"integer":       "Long",
		"date":          "LocalDate",
		"viewModelDate": "OffsetDateTime",
		"param_integer": "Int",
	})
	require.NoError(t, err)
	assert.Equal(t, "Long", tokens.Integer)
	assert.Equal(t, "LocalDate", tokens.CommandDate)
	assert.Equal(t, "OffsetDateTime", tokens.ViewModelDate)
	assert.Equal(t, "Int", tokens.ParamInteger)
	assert.Equal(t, "String", tokens.String)
	assert.Equal(t, "Int or Long", scalaemitter.DefaultTokens.Integer)

	_, err = scalaemitter.DefaultTokens.Override(map[string]string{"decimal": "BigDecimal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal")
}

func TestPolicy_OverriddenTokensRender(t *testing.T) {
	tokens, err := scalaemitter.DefaultTokens.Override(map[string]string{"integer": "Long"})
	require.NoError(t, err)
	content := spec.Object{Properties: []spec.Property{{Key: "age", Value: spec.Integer}}}
	got := emitter.Emit("Command", content, emitter.Command, scalaemitter.WithTokens(tokens))
	assert.Equal(t, "case class Command(age: Long)\n", got)
}

func TestPolicy_Metadata(t *testing.T) {
	for _, tc := range []struct {
		policy emitter.Policy
		target string
		ext    string
	}{
		{scalaemitter.New(), "scala", "scala"},
		{tsemitter.New(), "typescript", "ts"},
	} {
		assert.Equal(t, tc.target, tc.policy.Target())
		assert.Equal(t, tc.ext, tc.policy.Extension())
	}
}
