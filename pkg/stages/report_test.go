package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/triage"
)

func issuedAuthorization() *triage.Authorization {
	return &triage.Authorization{
		Generated: true,

		LOANumber:  "LOA-20260831-1A2B3C4D",
		DateIssued: "August 31, 2026 10:30 AM",
		ValidUntil: "September 02, 2026 10:30 AM",

		InsuranceProvider: "Maxicare",

		Symptoms:         "severe chest pain radiating to the left arm",
		Category:         triage.CategoryCardiac,
		Severity:         triage.SeverityCritical,
		CurrentSituation: "Patient collapsed at the office with chest pain.",

		HospitalID:       "H002",
		HospitalName:     "Makati Medical Center",
		Address:          "2 Amorsolo St, Legazpi Village, Makati, Metro Manila",
		Contact:          "+63 2 8888 8999",
		EmergencyContact: "+63 2 8888 8911",
		DistanceKm:       1.04,

		ApprovedServices: []string{"Emergency cardiac evaluation and monitoring"},
		RoomType:         "ICU / Cardiac Care Unit",
		Exclusions:       []string{"Elective cosmetic procedures"},

		ClinicalJustification: "Acute coronary syndrome requiring immediate catheterization.",
		Remarks:               "Patient is conscious.",
	}
}

func TestReportMergesNarrativeWithCaseRecord(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		jsonResponse(t, map[string]any{
			"case_summary":                   "Critical cardiac emergency handled end to end.",
			"hospital_recommendation_reason": "Closest accredited cath-lab facility.",
			"next_steps":                     "Proceed to the ER and present the LOA.",
		}),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.Classification = cardiacCritical()
	st.Authorization = issuedAuthorization()

	delta, err := env.stages[pipeline.StageReport](context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageResponse, delta.Next)
	require.NotNil(t, delta.Report)
	rep := delta.Report
	assert.True(t, rep.Generated)
	assert.Equal(t, "Critical cardiac emergency handled end to end.", rep.CaseSummary)
	assert.Equal(t, "Closest accredited cath-lab facility.", rep.RecommendationReason)
	assert.Equal(t, "Proceed to the ER and present the LOA.", rep.NextSteps)

	// Denormalized from the authorization and classification records.
	assert.Equal(t, "LOA-20260831-1A2B3C4D", rep.LOANumber)
	assert.Equal(t, "Makati Medical Center", rep.HospitalName)
	assert.Equal(t, triage.CategoryCardiac, rep.Category)
	assert.True(t, rep.DispatchRequired)
	assert.Equal(t, []string{"Emergency cardiac evaluation and monitoring"}, rep.ApprovedServices)

	assert.Empty(t, delta.Messages, "the report stage never writes to the transcript")
}

func TestReportMalformedNarrativeFallsBackToTemplates(t *testing.T) {
	env := newTestEnv(t, []oracle.Response{
		textResponse("report unavailable"),
	}, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.Classification = cardiacCritical()
	st.Authorization = issuedAuthorization()

	delta, err := env.stages[pipeline.StageReport](context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, delta.Report)
	rep := delta.Report
	assert.Equal(t, "Emergency case: CARDIAC — severe chest pain radiating to the left arm", rep.CaseSummary)
	assert.Contains(t, rep.RecommendationReason, "Makati Medical Center")
	assert.Contains(t, rep.NextSteps, "LOA-20260831-1A2B3C4D")
}

func TestReportRequiresGeneratedAuthorization(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	st := pipeline.NewState("s1", "Juan dela Cruz")
	st.Classification = cardiacCritical()
	st.Authorization = &triage.Authorization{Generated: false, Reason: "nothing resolved"}

	_, err := env.stages[pipeline.StageReport](context.Background(), st)
	require.Error(t, err)
}
