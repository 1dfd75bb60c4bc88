package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
)

type fakeGenerator struct {
	text  string
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(f.text)}},
		}},
	}, nil
}

func TestExtractIdentity(t *testing.T) {
	g := &fakeGenerator{text: `{"first_name":"María","last_name":"López","document_number":"LOPM800101MDFRRR09"}`}
	c := newWithGenerator(g, "gemini-test", nil)

	mx, _ := constants.LookupCountry("MX")
	out, raw, err := c.ExtractIdentity(context.Background(), llm.IdentityRequest{Front: []byte{1}, Back: []byte{2}, Country: mx})
	require.NoError(t, err)
	assert.Equal(t, "LOPM800101MDFRRR09", out.DocumentNumber)
	assert.Equal(t, "María López", out.Entity().DisplayName())
	assert.NotEmpty(t, raw)
	assert.Len(t, g.parts, 4, "prompt, schema and two images")
}

func TestExtractIdentity_GenerationError(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{err: errors.New("quota")}, "gemini-test", nil)
	_, _, err := c.ExtractIdentity(context.Background(), llm.IdentityRequest{Front: []byte{1}})
	assert.ErrorContains(t, err, "quota")
}

func TestAnalyzeDamage(t *testing.T) {
	g := &fakeGenerator{text: `{"findings":[{"part":"door","type":"dent","severity":"minor","confidence":0.8}]}`}
	c := newWithGenerator(g, "gemini-test", nil)

	out, _, err := c.AnalyzeDamage(context.Background(), llm.DamageRequest{Image: []byte{1}})
	require.NoError(t, err)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "door", out.Findings[0].Part)
}

func TestAnalyzeCategory(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: `{"category":"Odometer","confidence":0.7}`}, "gemini-test", nil)
	a, err := c.Analyze(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryDashboard, a.Category)
	assert.InDelta(t, 0.7, a.Confidence, 0.0001)

	c = newWithGenerator(&fakeGenerator{text: `{"category":"banana"}`}, "gemini-test", nil)
	a, err = c.Analyze(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryUnknown, a.Category)
}
