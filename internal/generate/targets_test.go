package generate

import (
	"testing"

	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargets_Defaults(t *testing.T) {
	policies, err := Targets(nil, nil)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "scala", policies[0].Target())
	assert.Equal(t, "typescript", policies[1].Target())
}

func TestTargets_AliasesAndDuplicates(t *testing.T) {
	policies, err := Targets([]string{"TS", "typescript", " scala "}, nil)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "typescript", policies[0].Target())
	assert.Equal(t, "scala", policies[1].Target())
}

func TestTargets_Unsupported(t *testing.T) {
	_, err := Targets([]string{"kotlin"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kotlin")
}

func TestTargets_TokenOverrides(t *testing.T) {
	policies, err := Targets([]string{"scala", "ts"}, map[string]map[string]string{
		"scala": {"integer": "Long"},
		"ts":    {"date": "string"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Long", policies[0].Scalar(spec.KindInteger, emitter.Command))
	assert.Equal(t, "Instant", policies[0].Scalar(spec.KindDate, emitter.ViewModel))
	assert.Equal(t, "string", policies[1].Scalar(spec.KindDate, emitter.ViewModel))

	_, err = Targets([]string{"scala"}, map[string]map[string]string{"scala": {"decimal": "BigDecimal"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokens.scala")

	_, err = Targets([]string{"scala"}, map[string]map[string]string{"rust": {"integer": "i64"}})
	require.Error(t, err)
}

func TestFilePath(t *testing.T) {
	policies, err := Targets([]string{"scala", "typescript"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "op/command/op.scala", FilePath("op", emitter.Command, policies[0]))
	assert.Equal(t, "op/viewmodel/op.ts", FilePath("op", emitter.ViewModel, policies[1]))
}
