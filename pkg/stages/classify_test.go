package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/triage"
)

func classificationJSON(t *testing.T, overrides map[string]any) oracle.Response {
	t.Helper()
	out := map[string]any{
		"symptoms":            "crushing chest pain",
		"classification_type": "CARDIAC",
		"severity":            "CRITICAL",
		"confidence":          "HIGH",
		"dispatch_required":   true,
		"dispatch_rationale":  "patient is immobile",
		"location":            "Makati",
		"insurance_provider":  "Maxicare",
		"preferred_hospital":  "None",
	}
	for k, v := range overrides {
		out[k] = v
	}
	return jsonResponse(t, out)
}

func TestClassifyParsesStructuredOutput(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		classificationJSON(t, map[string]any{"preferred_hospital": "Makati Medical Center"}),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.History.AppendPatient("I have crushing chest pain, I'm in Makati, Maxicare.")
	st.History.AppendAgent(string(pipeline.StageOrchestrator), "Patient reports chest pain in Makati.")

	delta, err := env.stages[pipeline.StageClassification](context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageMatch, delta.Next)
	require.NotNil(t, delta.Classification)
	cls := delta.Classification
	assert.Equal(t, triage.CategoryCardiac, cls.Category)
	assert.Equal(t, triage.SeverityCritical, cls.Severity)
	assert.Equal(t, triage.ConfidenceHigh, cls.Confidence)
	assert.True(t, cls.DispatchRequired)
	assert.Equal(t, "Makati Medical Center", cls.PreferredHospital)
	assert.Equal(t, "I have crushing chest pain, I'm in Makati, Maxicare.", cls.CurrentSituation)

	require.Len(t, delta.Messages, 1)
	assert.Contains(t, delta.Messages[0].Content, "CARDIAC")
	assert.Contains(t, delta.Messages[0].Content, "CRITICAL")
}

func TestClassifyNormalizesUnknownEnums(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		classificationJSON(t, map[string]any{
			"classification_type": "ORTHOPEDIC",
			"severity":            "catastrophic",
			"confidence":          "",
		}),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.History.AppendPatient("My leg hurts.")

	delta, err := env.stages[pipeline.StageClassification](context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, delta.Classification)
	assert.Equal(t, triage.CategoryGeneral, delta.Classification.Category)
	assert.Equal(t, triage.SeverityUrgent, delta.Classification.Severity)
	assert.Equal(t, triage.ConfidenceLow, delta.Classification.Confidence)
}

func TestClassifyStripsNoPreferenceAnswers(t *testing.T) {
	for _, raw := range []string{"", "none", "No", "N/A", "no preferred hospital"} {
		env := newTestEnv(t, []oracle.Response{
			classificationJSON(t, map[string]any{"preferred_hospital": raw}),
		}, nil)

		st := pipeline.NewState("s1", "Juan dela Cruz")
		st.History.AppendPatient("Chest pain.")

		delta, err := env.stages[pipeline.StageClassification](context.Background(), st)
		require.NoError(t, err)
		require.NotNil(t, delta.Classification)
		assert.Emptyf(t, delta.Classification.PreferredHospital, "raw answer %q", raw)
	}
}

func TestClassifyMalformedOutputFallsBackToGeneral(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		textResponse("I'd rather chat about this emergency in free text."),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.History.AppendPatient("Something is wrong with my chest.")

	delta, err := env.stages[pipeline.StageClassification](context.Background(), st)
	require.NoError(t, err, "parse failures must not abort the run")

	assert.Equal(t, pipeline.StageMatch, delta.Next)
	require.NotNil(t, delta.Classification)
	assert.Equal(t, triage.CategoryGeneral, delta.Classification.Category)
	assert.Equal(t, triage.SeverityUrgent, delta.Classification.Severity)
	assert.Equal(t, "unknown", delta.Classification.Location)
	assert.Equal(t, "unknown", delta.Classification.InsuranceProvider)
	assert.Equal(t, "Something is wrong with my chest.", delta.Classification.CurrentSituation)
}

func TestClassifyTransportErrorPropagates(t *testing.T) {
	env := newTestEnv(t, nil, []error{errors.New("connection reset")})

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.History.AppendPatient("Chest pain.")

	_, err := env.stages[pipeline.StageClassification](context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classification call failed")
}

func TestClassifySubmittedIntakeOverridesExtraction(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		classificationJSON(t, map[string]any{
			"location":           "somewhere in Visayas",
			"insurance_provider": "unknown",
		}),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.Intake = &triage.Intake{
		Symptoms:         "Crushing chest pain",
		Location:         "Makati",
		Insurance:        "Maxicare",
		CurrentSituation: "Conscious but immobile",
	}
	st.History.AppendPatient("Crushing chest pain")
	st.History.AppendAgent(string(pipeline.StageOrchestrator), st.Intake.Summary())

	delta, err := env.stages[pipeline.StageClassification](context.Background(), st)
	require.NoError(t, err)

	require.NotNil(t, delta.Classification)
	assert.Equal(t, "Makati", delta.Classification.Location,
		"submitted location wins over the model's read-back")
	assert.Equal(t, "Maxicare", delta.Classification.InsuranceProvider)
	assert.Equal(t, "Conscious but immobile", delta.Classification.CurrentSituation)

	require.Len(t, env.mock.Requests, 1)
	prompt := env.mock.Requests[0].Messages[1].Content
	assert.Contains(t, prompt, "Location: Makati.")
	assert.Contains(t, prompt, "Insurance provider: Maxicare.")
}
