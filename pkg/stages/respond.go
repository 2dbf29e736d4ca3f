package stages

import (
	"context"
	"fmt"
	"strings"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
)

const (
	verificationFailedFallback = "We were unable to verify your insurance. Please contact your provider."
	candidatesFallback         = "Please choose a hospital from the list above."
	finalFallback              = "Your authorization is ready. Please proceed to the facility."
)

// respond is the terminal phrasing stage. It picks one of three phasings by
// state shape: verification failed, case fully resolved, or interim
// candidate presentation. One unconstrained oracle call per branch; empty
// output degrades to a hardcoded line.
func (d *Deps) respond(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	var (
		content string
		err     error
	)

	switch {
	case st.Verification != nil && !st.Verification.Verified:
		content, err = d.respondVerificationFailed(ctx, st)
	case st.Report != nil && st.Report.Generated:
		content, err = d.respondFinal(ctx, st)
	default:
		content, err = d.respondCandidates(ctx, st)
	}
	if err != nil {
		return pipeline.Delta{}, err
	}

	return pipeline.Delta{
		Next: pipeline.StageEnd,
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageResponse, Content: content},
		},
	}, nil
}

func (d *Deps) respondVerificationFailed(ctx context.Context, st *pipeline.State) (string, error) {
	v := st.Verification

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(responseVerificationFailedSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(responseVerificationFailedQueryPrompt,
			st.PatientName, v.Verified, orNA(v.Reason), orNA(v.PolicyNumber),
			orNA(v.InsuranceProvider), orNA(v.PlanName), orNA(v.Status))),
	})

	resp, err := d.Oracle.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("response call failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return verificationFailedFallback, nil
	}
	return resp.Content, nil
}

func (d *Deps) respondCandidates(ctx context.Context, st *pipeline.State) (string, error) {
	cls := st.Classification
	if cls == nil {
		return candidatesFallback, nil
	}

	var hospitalLines []string
	var preferredFail string
	if st.Match != nil {
		preferredFail = st.Match.PreferredFailReason
		for i, c := range st.Match.Candidates {
			hospitalLines = append(hospitalLines, fmt.Sprintf(
				"%d. %s — %.2f km away\n   Address: %s\n   Emergency Contact: %s",
				i+1, c.FacilityName, c.DistanceKm, c.Address, c.EmergencyContact))
		}
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(responseCandidatesSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(responseCandidatesQueryPrompt,
			cls.Symptoms, cls.Category, cls.Severity, cls.DispatchRequired,
			cls.Location, cls.InsuranceProvider,
			orNone(cls.PreferredHospital), orNA(preferredFail),
			strings.Join(hospitalLines, "\n"))),
	})

	resp, err := d.Oracle.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("response call failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return candidatesFallback, nil
	}
	return resp.Content, nil
}

func (d *Deps) respondFinal(ctx context.Context, st *pipeline.State) (string, error) {
	rep := st.Report

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(responseFinalSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(responseFinalQueryPrompt,
			rep.Symptoms, rep.Category, rep.Severity, rep.DispatchRequired,
			orNA(rep.CurrentSituation), rep.InsuranceProvider,
			rep.HospitalName, rep.Address, rep.EmergencyContact, rep.DistanceKm,
			rep.LOANumber, rep.DateIssued, rep.ValidUntil,
			strings.Join(rep.ApprovedServices, ", "), rep.RoomType,
			strings.Join(rep.Exclusions, ", "),
			rep.ClinicalJustification, rep.Remarks,
			rep.CaseSummary, rep.NextSteps)),
	})

	resp, err := d.Oracle.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("response call failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return finalFallback, nil
	}
	return resp.Content, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
