package stages

import (
	"context"
	"fmt"
	"strings"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/triage"
)

type reportFieldsOut struct {
	CaseSummary                  string `json:"case_summary"`
	HospitalRecommendationReason string `json:"hospital_recommendation_reason"`
	NextSteps                    string `json:"next_steps"`
}

func reportFieldsSchema() oracle.ResponseSchema {
	return oracle.ResponseSchema{
		Name: "report_fields",
		Schema: oracle.ObjectSchema(map[string]oracle.Property{
			"case_summary":                   {Type: "string"},
			"hospital_recommendation_reason": {Type: "string"},
			"next_steps":                     {Type: "string"},
		}, []string{"case_summary", "hospital_recommendation_reason", "next_steps"}),
	}
}

// report compiles the denormalized case report: one three-field narrative
// call merged with the authorization and classification records. It does not
// write to conversation history; the response stage owns patient-facing
// phrasing.
func (d *Deps) report(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	cls := st.Classification
	auth := st.Authorization
	if cls == nil || auth == nil || !auth.Generated {
		return pipeline.Delta{}, fmt.Errorf("report requires classification and a generated authorization")
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(reportSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(reportQueryPrompt,
			auth.Symptoms, auth.CurrentSituation, auth.Category, auth.Severity,
			cls.DispatchRequired, cls.DispatchRationale, auth.InsuranceProvider,
			auth.HospitalName, auth.Address, auth.Contact, auth.EmergencyContact,
			auth.DistanceKm, auth.LOANumber, auth.ValidUntil,
			strings.Join(auth.ApprovedServices, ", "), auth.RoomType,
			strings.Join(auth.Exclusions, ", "), auth.ClinicalJustification, auth.Remarks)),
	})

	out, res, err := oracle.Structured(ctx, d.Oracle, req, reportFieldsSchema(),
		func(_ string, _ error) reportFieldsOut {
			return reportFieldsOut{
				CaseSummary: fmt.Sprintf("Emergency case: %s — %s", auth.Category, auth.Symptoms),
				HospitalRecommendationReason: fmt.Sprintf(
					"%s was selected based on proximity, insurance accreditation, and required medical capabilities.",
					auth.HospitalName),
				NextSteps: fmt.Sprintf(
					"Proceed immediately to %s. Present your LOA number %s at the emergency desk.",
					auth.HospitalName, auth.LOANumber),
			}
		})
	if err != nil {
		return pipeline.Delta{}, fmt.Errorf("report call failed: %w", err)
	}
	d.noteFallback(pipeline.StageReport, res)

	rep := &triage.Report{
		Generated: true,

		CaseSummary:          out.CaseSummary,
		RecommendationReason: out.HospitalRecommendationReason,
		NextSteps:            out.NextSteps,

		Symptoms:          auth.Symptoms,
		CurrentSituation:  auth.CurrentSituation,
		Category:          auth.Category,
		Severity:          auth.Severity,
		DispatchRequired:  cls.DispatchRequired,
		DispatchRationale: cls.DispatchRationale,

		InsuranceProvider: auth.InsuranceProvider,

		LOANumber:             auth.LOANumber,
		DateIssued:            auth.DateIssued,
		ValidUntil:            auth.ValidUntil,
		ClinicalJustification: auth.ClinicalJustification,
		Remarks:               auth.Remarks,

		HospitalID:       auth.HospitalID,
		HospitalName:     auth.HospitalName,
		Address:          auth.Address,
		Contact:          auth.Contact,
		EmergencyContact: auth.EmergencyContact,
		DistanceKm:       auth.DistanceKm,

		ApprovedServices: auth.ApprovedServices,
		RoomType:         auth.RoomType,
		Exclusions:       auth.Exclusions,
	}

	d.logger.Info("report: compiled for %s", auth.LOANumber)

	return pipeline.Delta{
		Next:   pipeline.StageResponse,
		Report: rep,
	}, nil
}
