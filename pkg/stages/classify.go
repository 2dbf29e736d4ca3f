package stages

import (
	"context"
	"fmt"
	"strings"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/triage"
)

type classificationOut struct {
	Symptoms           string `json:"symptoms"`
	ClassificationType string `json:"classification_type"`
	Severity           string `json:"severity"`
	Confidence         string `json:"confidence"`
	DispatchRequired   bool   `json:"dispatch_required"`
	DispatchRationale  string `json:"dispatch_rationale"`
	Location           string `json:"location"`
	InsuranceProvider  string `json:"insurance_provider"`
	PreferredHospital  string `json:"preferred_hospital"`
}

func classificationSchema() oracle.ResponseSchema {
	return oracle.ResponseSchema{
		Name: "classification_response",
		Schema: oracle.ObjectSchema(map[string]oracle.Property{
			"symptoms":            {Type: "string"},
			"classification_type": {Type: "string", Enum: triage.CategoryNames()},
			"severity":            {Type: "string", Enum: triage.SeverityNames()},
			"confidence":          {Type: "string", Enum: triage.ConfidenceNames()},
			"dispatch_required":   {Type: "boolean"},
			"dispatch_rationale":  {Type: "string"},
			"location":            {Type: "string"},
			"insurance_provider":  {Type: "string"},
			"preferred_hospital":  {Type: "string"},
		}, []string{
			"symptoms", "classification_type", "severity", "confidence",
			"dispatch_required", "dispatch_rationale", "location",
			"insurance_provider", "preferred_hospital",
		}),
	}
}

// classify extracts the structured classification record in one
// schema-constrained oracle call. A malformed response degrades to the
// conservative GENERAL fallback instead of aborting the run.
func (d *Deps) classify(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	conversation := "No intake summary available."
	if m, ok := st.History.LastAgentFrom(string(pipeline.StageOrchestrator)); ok {
		conversation = m.Content
	}
	situation := "Not provided"
	if m, ok := st.History.LastPatient(); ok && m.Content != "" {
		situation = m.Content
	}
	if st.Intake != nil {
		conversation = st.Intake.Summary()
		if st.Intake.CurrentSituation != "" {
			situation = st.Intake.CurrentSituation
		}
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(classificationSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(classificationQueryPrompt, conversation, situation)),
	})

	out, res, err := oracle.Structured(ctx, d.Oracle, req, classificationSchema(),
		func(_ string, _ error) classificationOut {
			fb := triage.FallbackClassification(situation)
			return classificationOut{
				Symptoms:           fb.Symptoms,
				ClassificationType: string(fb.Category),
				Severity:           string(fb.Severity),
				Confidence:         string(fb.Confidence),
				DispatchRationale:  fb.DispatchRationale,
				Location:           fb.Location,
				InsuranceProvider:  fb.InsuranceProvider,
			}
		})
	if err != nil {
		return pipeline.Delta{}, fmt.Errorf("classification call failed: %w", err)
	}
	d.noteFallback(pipeline.StageClassification, res)

	cls := &triage.Classification{
		Symptoms:          out.Symptoms,
		Category:          triage.NormalizeCategory(out.ClassificationType),
		Severity:          triage.NormalizeSeverity(out.Severity),
		Confidence:        triage.NormalizeConfidence(out.Confidence),
		DispatchRequired:  out.DispatchRequired,
		DispatchRationale: out.DispatchRationale,
		Location:          out.Location,
		InsuranceProvider: out.InsuranceProvider,
		PreferredHospital: normalizePreferred(out.PreferredHospital),
		CurrentSituation:  situation,
	}

	// Submitted intake fields are facts; they always win over whatever the
	// model read back out of the prompt.
	if st.Intake != nil {
		cls.Location = st.Intake.Location
		cls.InsuranceProvider = st.Intake.Insurance
	}

	d.logger.Info("classification: %s/%s (%s confidence) at %q, payer %q",
		cls.Category, cls.Severity, cls.Confidence, cls.Location, cls.InsuranceProvider)

	narrative := fmt.Sprintf(
		"Classified the emergency as %s with %s severity (%s confidence). Symptoms: %s. "+
			"Location: %s. Insurance provider: %s.",
		cls.Category, cls.Severity, cls.Confidence, cls.Symptoms, cls.Location, cls.InsuranceProvider)
	if cls.PreferredHospital != "" {
		narrative += fmt.Sprintf(" Preferred hospital: %s.", cls.PreferredHospital)
	}

	return pipeline.Delta{
		Next:           pipeline.StageMatch,
		Classification: cls,
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageClassification, Content: narrative},
		},
	}, nil
}

// normalizePreferred strips "no preferred hospital" style answers to empty.
func normalizePreferred(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "none", "no", "n/a", "no preferred hospital", "no preference":
		return ""
	}
	return trimmed
}
