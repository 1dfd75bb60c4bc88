package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func newTestServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, seen))
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, chatResponse(content))
	}))
}

func TestExtractIdentity_OK(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{"full_name":"ANA PÉREZ","document_number":"8-123-456","birth_date":"1990-02-01","sex":"F","confidence":0.92}`, &seen)
	defer srv.Close()

	pa, _ := constants.LookupCountry("PA")
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	out, raw, err := c.ExtractIdentity(context.Background(), llm.IdentityRequest{Front: []byte{1}, Back: []byte{2}, Country: pa})
	require.NoError(t, err)

	assert.Equal(t, "ANA PÉREZ", out.FullName)
	assert.Equal(t, "8-123-456", out.DocumentNumber)
	assert.InDelta(t, 0.92, out.ModelConfidence, 0.0001)
	assert.NotEmpty(t, raw)

	messages := seen["messages"].([]any)
	user := messages[len(messages)-1].(map[string]any)
	parts := user["content"].([]any)
	assert.Len(t, parts, 3, "text plus two images")
}

func TestExtractIdentity_LenientSanitize(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "```json\n{\"full_name\":\" Luis Gómez \",\"birth_date\":\"1/2/1985\",\"sex\":\"masculino\",\"eye_color\":\"brown\",\"address\":null}\n```", nil)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	out, _, err := c.ExtractIdentity(context.Background(), llm.IdentityRequest{Front: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "Luis Gómez", out.FullName)
	assert.Equal(t, "1985-02-01", out.BirthDate)
	assert.Equal(t, "M", out.Sex)
	assert.Empty(t, out.Address)
}

func TestExtractIdentity_HTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, "", nil)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, _, err := c.ExtractIdentity(context.Background(), llm.IdentityRequest{Front: []byte{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, _, err = c.ExtractIdentity(context.Background(), llm.IdentityRequest{})
	require.Error(t, err)
}

func TestAnalyzeDamage(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"findings":[{"part":"front bumper","type":"dent","severity":"High","structural_impact":true},{"part":"","type":"scratch","severity":"minor"}],"summary":"front impact"}`, nil)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	out, _, err := c.AnalyzeDamage(context.Background(), llm.DamageRequest{Image: []byte{1}, Description: "golpe"})
	require.NoError(t, err)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "severe", out.Findings[0].Severity)
	assert.True(t, out.Findings[0].StructuralImpact)
	assert.Equal(t, "front impact", out.Summary)
}
