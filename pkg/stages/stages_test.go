package stages

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediroute/pkg/ledger"
	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/registry"
	"mediroute/pkg/triage"
)

var testNow = time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	mock   *oracle.MockClient
	reg    *registry.Registry
	stages map[pipeline.Stage]pipeline.StageFunc
}

func (e *testEnv) findFacility(name string) (registry.Facility, bool) {
	return e.reg.FindByName(name)
}

// newTestEnv wires the stage registry against the embedded facility data, a
// fresh seeded ledger and a scripted mock oracle.
func newTestEnv(t *testing.T, responses []oracle.Response, errs []error) *testEnv {
	t.Helper()

	reg, err := registry.Load()
	require.NoError(t, err)

	led, err := ledger.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = led.Close() })

	mock := oracle.NewMockClient(responses, errs)
	deps := Deps{
		Oracle:   mock,
		Registry: reg,
		Ledger:   led,
		Now:      func() time.Time { return testNow },
	}
	return &testEnv{mock: mock, reg: reg, stages: New(deps)}
}

func jsonResponse(t *testing.T, v any) oracle.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return oracle.Response{Content: string(b)}
}

func textResponse(s string) oracle.Response {
	return oracle.Response{Content: s}
}

// cardiacCritical is a fully populated classification for a chest-pain case
// in Makati under Maxicare.
func cardiacCritical() *triage.Classification {
	return &triage.Classification{
		Symptoms:          "severe chest pain radiating to the left arm",
		Category:          triage.CategoryCardiac,
		Severity:          triage.SeverityCritical,
		Confidence:        triage.ConfidenceHigh,
		DispatchRequired:  true,
		DispatchRationale: "patient cannot self-transport",
		Location:          "Makati",
		InsuranceProvider: "Maxicare",
		CurrentSituation:  "Patient collapsed at the office with chest pain.",
	}
}

// generalUrgent is a non-critical case that should produce a candidate list.
func generalUrgent() *triage.Classification {
	return &triage.Classification{
		Symptoms:          "high fever and dehydration",
		Category:          triage.CategoryGeneral,
		Severity:          triage.SeverityUrgent,
		Confidence:        triage.ConfidenceMedium,
		Location:          "Manila",
		InsuranceProvider: "Insular Life Assurance Company",
		CurrentSituation:  "Patient has had a fever for two days and is weak.",
	}
}
