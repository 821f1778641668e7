package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Objective string `json:"objective" jsonschema:"required,description=what to do"`
}

func TestParametersForGeneratesObjectSchema(t *testing.T) {
	params := ParametersFor(sampleArgs{})
	assert.Equal(t, "object", params["type"])

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	_, hasObjective := props["objective"]
	assert.True(t, hasObjective)
}

func TestParametersForOmitsSchemaMetaFields(t *testing.T) {
	params := ParametersFor(sampleArgs{})
	_, hasSchema := params["$schema"]
	assert.False(t, hasSchema)
}
