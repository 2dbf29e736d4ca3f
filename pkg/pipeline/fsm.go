package pipeline

import (
	"fmt"
)

// Stage identifies one pipeline stage. The values double as the routing
// directive written by stages and as the stage names surfaced in progress
// events and API responses.
type Stage string

const (
	// StageOrchestrator is the entry stage for conversational runs.
	StageOrchestrator Stage = "orchestrator_agent"

	// StageVerification checks insurance eligibility against the ledger.
	StageVerification Stage = "verification_agent"

	// StageClassification extracts the structured classification record.
	StageClassification Stage = "classification_agent"

	// StageMatch filters and ranks facilities.
	StageMatch Stage = "match_agent"

	// StageAuthorization issues the LOA.
	StageAuthorization Stage = "loa_agent"

	// StageReport compiles the denormalized case report.
	StageReport Stage = "report_agent"

	// StageResponse produces the patient-facing message.
	StageResponse Stage = "response_agent"

	// StageEnd is the terminal sentinel. It is a routing target only; no
	// stage function is registered for it.
	StageEnd Stage = "end"
)

// Stages returns every executable stage in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageOrchestrator,
		StageVerification,
		StageClassification,
		StageMatch,
		StageAuthorization,
		StageReport,
		StageResponse,
	}
}

// stageTransitions is the canonical transition map. Every routing directive a
// stage may emit must appear here; the coordinator rejects anything else.
var stageTransitions = map[Stage][]Stage{
	// The orchestrator hands off to verification once intake is complete,
	// routes straight to authorization when the patient names a previously
	// offered facility, or answers the patient directly and terminates.
	StageOrchestrator: {StageVerification, StageAuthorization, StageEnd},

	// Verification always continues: to classification when the policy
	// checks out, to the response stage with a failure record otherwise.
	StageVerification: {StageClassification, StageResponse},

	StageClassification: {StageMatch},

	// A resolved facility goes to authorization; a candidate list goes to
	// the response stage for patient choice; no match terminates.
	StageMatch: {StageAuthorization, StageResponse, StageEnd},

	// Authorization continues to the report unless facility resolution
	// failed, which terminates with a failure record.
	StageAuthorization: {StageReport, StageEnd},

	StageReport: {StageResponse},

	StageResponse: {StageEnd},
}

// ValidNextStages returns the allowed routing targets for a stage.
func ValidNextStages(from Stage) []Stage {
	return stageTransitions[from]
}

// IsValidTransition reports whether from may route to next.
func IsValidTransition(from, next Stage) bool {
	for _, s := range ValidNextStages(from) {
		if s == next {
			return true
		}
	}
	return false
}

// ValidateTransitions checks the transition table for completeness: every
// executable stage has at least one outgoing edge, and every edge target is
// either an executable stage or the terminal sentinel. Called at startup.
func ValidateTransitions() error {
	executable := make(map[Stage]bool, len(Stages()))
	for _, s := range Stages() {
		executable[s] = true
	}

	for _, from := range Stages() {
		targets, ok := stageTransitions[from]
		if !ok || len(targets) == 0 {
			return fmt.Errorf("stage %s has no declared transitions", from)
		}
		for _, to := range targets {
			if to != StageEnd && !executable[to] {
				return fmt.Errorf("stage %s declares transition to unknown stage %s", from, to)
			}
		}
	}

	for from := range stageTransitions {
		if !executable[from] {
			return fmt.Errorf("transition table names unknown stage %s", from)
		}
	}

	return nil
}
