package schemas

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles := []string{
		"normalized.schema.json",
		"role_candidates.schema.json",
		"job_description.schema.json",
		"requirements.schema.json",
		"mapping.schema.json",
		"bullets.schema.json",
		"draft.schema.json",
		"edit_intent.schema.json",
		"chat_reply.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := fs.ReadFile(FS, schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v map[string]interface{}
			err = json.Unmarshal(data, &v)
			require.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
			assert.Equal(t, "object", v["type"], "top-level schema should describe an object")
		})
	}
}
