package stages

import (
	"context"
	"errors"
	"fmt"

	"mediroute/pkg/ledger"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/triage"
)

// verify looks up the patient's policy by full name and checks eligibility.
// Pure ledger computation, no oracle call. Verification failures are not
// errors: the run continues to the response stage with a failure record.
func (d *Deps) verify(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	name := st.PatientName
	d.logger.Info("verification: looking up insurance record for %q", name)

	policy, err := d.Ledger.LookupByName(ctx, name)
	if errors.Is(err, ledger.ErrPolicyNotFound) {
		d.logger.Warn("verification: no insurance record found for %q", name)
		reason := fmt.Sprintf("No insurance record found for '%s'.", name)
		summary := fmt.Sprintf(
			"Verification failed: no insurance record found for '%s' in the system. "+
				"The patient may not be registered or the name may not match.", name)
		return pipeline.Delta{
			Next:         pipeline.StageResponse,
			Verification: &triage.Verification{Verified: false, Reason: reason},
			Messages: []pipeline.AgentMessage{
				{Stage: pipeline.StageVerification, Content: summary},
			},
		}, nil
	}
	if err != nil {
		return pipeline.Delta{}, fmt.Errorf("verification lookup failed: %w", err)
	}

	valid, validityReason := policy.Validity(d.Now())
	if !valid {
		d.logger.Warn("verification: policy %s for %q is not valid: %s",
			policy.PolicyNumber, name, validityReason)
		summary := fmt.Sprintf(
			"Verification failed for '%s'. Policy %s (%s — %s) is not currently valid: %s.",
			name, policy.PolicyNumber, policy.InsuranceProvider, policy.PlanName, validityReason)
		return pipeline.Delta{
			Next: pipeline.StageResponse,
			Verification: &triage.Verification{
				Verified:          false,
				Reason:            validityReason,
				PolicyNumber:      policy.PolicyNumber,
				InsuranceProvider: policy.InsuranceProvider,
				PlanName:          policy.PlanName,
				Status:            policy.Status,
			},
			Messages: []pipeline.AgentMessage{
				{Stage: pipeline.StageVerification, Content: summary},
			},
		}, nil
	}

	usage, err := d.Ledger.BenefitUsage(ctx, policy)
	if err != nil {
		return pipeline.Delta{}, fmt.Errorf("verification benefit calculation failed: %w", err)
	}

	d.logger.Info("verification: %q verified, policy %s, used %.2f, remaining %.2f (%d claims)",
		name, policy.PolicyNumber, usage.Used, usage.Remaining, len(usage.Claims))

	originalQuery := "No query found."
	if m, ok := st.History.LastAgentFrom(string(pipeline.StageOrchestrator)); ok {
		originalQuery = m.Content
	}

	summary := fmt.Sprintf(
		"Insurance verified for %s. Policy %s under %s (%s) is active and valid until %s. "+
			"Coverage type: %s. Max benefit limit: PHP %.2f. Used benefits: PHP %.2f. "+
			"Remaining benefits: PHP %.2f (%d claim(s) this period). Verification passed. "+
			"Forwarding the following request to classification: %q",
		policy.FullName, policy.PolicyNumber, policy.InsuranceProvider, policy.PlanName,
		policy.ValidUntil, policy.CoverageType, policy.MaxBenefitLimit, usage.Used,
		usage.Remaining, len(usage.Claims), originalQuery)

	return pipeline.Delta{
		Next: pipeline.StageClassification,
		Verification: &triage.Verification{
			Verified:          true,
			PolicyNumber:      policy.PolicyNumber,
			FullName:          policy.FullName,
			DateOfBirth:       policy.DateOfBirth,
			InsuranceProvider: policy.InsuranceProvider,
			PlanName:          policy.PlanName,
			PlanType:          policy.PlanType,
			CoverageType:      policy.CoverageType,
			ValidFrom:         policy.ValidFrom,
			ValidUntil:        policy.ValidUntil,
			Status:            policy.Status,
			Dependents:        policy.Dependents,
			MaxBenefitLimit:   policy.MaxBenefitLimit,
			RoomAndBoardLimit: policy.RoomAndBoardLimit,
			UsedBenefits:      usage.Used,
			RemainingBenefits: usage.Remaining,
			ClaimsHistory:     usage.Claims,
		},
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageVerification, Content: summary},
		},
	}, nil
}
