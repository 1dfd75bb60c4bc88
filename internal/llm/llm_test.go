package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
)

func TestSanitizeIdentityFields(t *testing.T) {
	in := []byte(`{"full_name":"  ","document_number":" 8-1-2 ","expiry_date":"2030/13/99","birth_date":"05.07.1970","sex":"mujer","confidence":87,"unknown":1}`)

	out, dropped, err := SanitizeIdentityFields(in)
	require.NoError(t, err)
	require.NoError(t, ValidateJSONAgainstSchema(BuildIdentityJSONSchema(), out))
	assert.ElementsMatch(t, []string{"full_name", "expiry_date", "unknown"}, dropped)

	var f IdentityFields
	_, err = DecodeValidated(BuildIdentityJSONSchema(), out, nil, &f, nil)
	require.NoError(t, err)
	assert.Equal(t, "8-1-2", f.DocumentNumber)
	assert.Equal(t, "1970-07-05", f.BirthDate)
	assert.Equal(t, "F", f.Sex)
	assert.InDelta(t, 0.87, f.ModelConfidence, 0.0001)
}

func TestDecodeValidated_StrictFailure(t *testing.T) {
	var f IdentityFields
	_, err := DecodeValidated(BuildIdentityJSONSchema(), []byte(`{"sex":"unknown"}`), nil, &f, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestDamageFieldsEntity(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d := DamageFields{Findings: []DamageFindingFields{{Part: "hood", Type: "crack", Severity: "severe", SafetyImpact: true}}}

	a := d.Entity("gemini-1.5-flash", at)
	require.Len(t, a.Findings, 1)
	assert.Equal(t, constants.SeveritySevere, a.Findings[0].Severity)
	assert.Equal(t, at, a.AnalyzedAt)
	assert.Equal(t, "gemini-1.5-flash", a.Model)
}

func TestIdentityPrompt(t *testing.T) {
	mx, _ := constants.LookupCountry("MX")
	p := BuildIdentityPrompt(mx, 2)
	assert.Contains(t, p, mx.DocumentLabel)
	assert.Contains(t, p, "second image is the back")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(StripCodeFence([]byte("```json\n{\"a\":1}\n```"))))
	assert.Equal(t, `{"a":1}`, string(StripCodeFence([]byte(" {\"a\":1} "))))
}

func TestValidateJSONAgainstSchema_Errors(t *testing.T) {
	err := ValidateJSONAgainstSchema(BuildDamageJSONSchema(), []byte(`{"findings":"none"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	err = ValidateJSONAgainstSchema(BuildDamageJSONSchema(), []byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchemaMismatch)

	// second compile of the same schema comes from the cache
	s1, err := compileSchema(BuildIdentityJSONSchema())
	require.NoError(t, err)
	s2, err := compileSchema(BuildIdentityJSONSchema())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := common.WithRequestID(context.Background(), "job-7")
	assert.Equal(t, "job-7", RequestID(ctx))
	assert.NotEmpty(t, RequestID(context.Background()))

	attrs := LogAttrs(common.WithInspectionID(ctx, "insp-1"), "job-7")
	assert.Equal(t, []any{"req_id", "job-7", "inspection_id", "insp-1"}, attrs)
	assert.Equal(t, []any{"req_id", "r"}, LogAttrs(context.Background(), "r"))
}
