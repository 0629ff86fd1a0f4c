package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text   string
	err    error
	config *genai.GenerateContentConfig
	model  string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestClient_ExtractSection(t *testing.T) {
	g := &fakeGenerator{text: `{"previousActions":"","difficultiesStrengths":"Lectura","unmetEvaluationCriteria":""}`}
	c := newWithGenerator(Config{ExtractTemperature: 0.1}, g, nil)

	out, err := c.ExtractSection(context.Background(), "Lengua", "texto")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Lectura", out.DifficultiesStrengths)

	assert.Equal(t, "gemini-2.5-flash", g.model)
	assert.Equal(t, "application/json", g.config.ResponseMIMEType)
	require.NotNil(t, g.config.Temperature)
	assert.InDelta(t, 0.1, *g.config.Temperature, 1e-6)
}

func TestClient_ExtractSection_Error(t *testing.T) {
	c := newWithGenerator(Config{}, &fakeGenerator{err: errors.New("quota")}, nil)

	_, err := c.ExtractSection(context.Background(), "Lengua", "texto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestClient_Refine(t *testing.T) {
	g := &fakeGenerator{text: "\n Redacción formal \n"}
	c := newWithGenerator(Config{Model: "m", RefineTemperature: 0.7}, g, nil)

	got, err := c.Refine(context.Background(), "7. Propuesta Metodológica", "trabajo")
	require.NoError(t, err)
	assert.Equal(t, "Redacción formal", got)
	assert.Equal(t, "m", g.model)
	assert.Empty(t, g.config.ResponseMIMEType)

	_, err = newWithGenerator(Config{}, &fakeGenerator{text: " "}, nil).Refine(context.Background(), "x", "trabajo")
	require.Error(t, err)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, nil)
	require.Error(t, err)
}
