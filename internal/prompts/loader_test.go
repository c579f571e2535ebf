package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(Discovery, "normalize-resume")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.ResumeText}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(Tailoring, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}! {{.Unknown}}"
	result := Format(template, map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp! {{.Unknown}}", result)
}

func TestFormat_ValueContainingPlaceholder(t *testing.T) {
	result := Format("{{.A}} {{.B}}", map[string]string{"A": "{{.B}}", "B": "b"})
	assert.Equal(t, "{{.B}} b", result, "substituted values are not expanded again")
}

func TestRender(t *testing.T) {
	out := Render(Discovery, "short-jd", map[string]string{"Title": "Data Analyst"})
	assert.Contains(t, out, `"Data Analyst"`)
	assert.NotContains(t, out, "{{.Title}}")
}

func TestAllPromptFilesLoad(t *testing.T) {
	ClearCache()

	expected := map[string][]string{
		Discovery: {"normalize-resume", "propose-roles", "short-jd"},
		Tailoring: {"assemble-draft", "extract-requirements", "map-transferable", "rewrite-bullets"},
		Editing:   {"chat-reply", "parse-intent", "transform-batch", "transform-lines"},
		Executor:  {"corrective", "schema-instructions"},
	}
	for file, keys := range expected {
		t.Run(file, func(t *testing.T) {
			got, err := List(file)
			require.NoError(t, err)
			assert.Equal(t, keys, got)
		})
	}
}
