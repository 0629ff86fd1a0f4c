package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	t.Run("strict match", func(t *testing.T) {
		out, err := ParseExtraction(`{"previousActions":"X","difficultiesStrengths":"Y","unmetEvaluationCriteria":"Z"}`, nil)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, ExtractedFields{PreviousActions: "X", DifficultiesStrengths: "Y", UnmetEvaluationCriteria: "Z"}, *out)
	})

	t.Run("missing keys default to empty", func(t *testing.T) {
		out, err := ParseExtraction(`{"previousActions":"X"}`, nil)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, "X", out.PreviousActions)
		assert.Equal(t, "", out.DifficultiesStrengths)
		assert.False(t, out.Empty())
	})

	t.Run("blank content is absent", func(t *testing.T) {
		out, err := ParseExtraction("  \n", nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("json null is absent", func(t *testing.T) {
		for _, content := range []string{"null", " null\n", "```json\nnull\n```"} {
			out, err := ParseExtraction(content, nil)
			require.NoError(t, err, content)
			assert.Nil(t, out, content)
		}
	})

	t.Run("code fence and lenient cleanup", func(t *testing.T) {
		content := "```json\n{\"previous_actions\":\"refuerzo\",\"difficultiesStrengths\":null,\"unmetEvaluationCriteria\":[\"C1\",\"C2\"],\"notes\":\"x\"}\n```"
		out, err := ParseExtraction(content, nil)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, "refuerzo", out.PreviousActions)
		assert.Equal(t, "", out.DifficultiesStrengths)
		assert.Equal(t, "C1\nC2", out.UnmetEvaluationCriteria)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseExtraction("la materia no aparece", nil)
		require.Error(t, err)
	})
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	raw := []byte(`{"previousActions": 3, "dificultades": " ok ", "extra": true, "unmetEvaluationCriteria": {"a": 1}}`)

	cleaned, dropped, err := NormalizeAndSanitizeJSON(raw, nil)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(cleaned, &m))
	assert.Equal(t, map[string]any{
		"previousActions":       "3",
		"difficultiesStrengths": "ok",
	}, m)
	assert.Contains(t, dropped, "extra")
	assert.Contains(t, dropped, "dificultades->difficultiesStrengths")
	assert.Contains(t, dropped, "unmetEvaluationCriteria(type)")
}

func TestExtractedFields_Empty(t *testing.T) {
	assert.True(t, ExtractedFields{PreviousActions: " ", UnmetEvaluationCriteria: "\n"}.Empty())
	assert.False(t, ExtractedFields{DifficultiesStrengths: "x"}.Empty())
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "añ", TruncateRunes("año", 2))
	assert.Equal(t, "año", TruncateRunes("año", 10))
	assert.Equal(t, "", TruncateRunes("año", 0))
}

func TestBuildPrompts(t *testing.T) {
	p := BuildExtractionPrompt(" Matemáticas ", "texto del psp")
	assert.Contains(t, p, `"Matemáticas"`)
	assert.Contains(t, p, "texto del psp")
	for _, k := range SectionKeys {
		assert.Contains(t, p, k)
	}

	r := BuildRefinePrompt("7. Propuesta Metodológica", "  trabajo en grupo ")
	assert.Contains(t, r, "7. Propuesta Metodológica")
	assert.Contains(t, r, "trabajo en grupo")
}
