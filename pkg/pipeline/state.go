package pipeline

import (
	"mediroute/pkg/history"
	"mediroute/pkg/triage"
)

// State is the per-session aggregate threaded through the pipeline. Stages
// never mutate it directly; they return a Delta and the coordinator merges.
type State struct {
	SessionID   string
	PatientName string

	// History is append-only for the session's lifetime.
	History *history.History

	// NextStage is the routing directive consumed by the coordinator.
	NextStage Stage

	// Intake is set only for single-shot submissions, where location and
	// payer are given rather than extracted from conversation.
	Intake *triage.Intake

	Classification   *triage.Classification
	Verification     *triage.Verification
	SelectedServices []string
	Match            *triage.MatchResult
	ChosenHospital   string
	Authorization    *triage.Authorization
	Report           *triage.Report

	// Version counts applied deltas.
	Version int
}

// NewState creates an empty session state.
func NewState(sessionID, patientName string) *State {
	return &State{
		SessionID:   sessionID,
		PatientName: patientName,
		History:     history.New(),
	}
}

// AgentMessage is one stage-authored transcript addition carried in a delta.
type AgentMessage struct {
	Stage   Stage
	Content string
}

// Delta is the narrow partial update a stage returns. Nil pointer fields mean
// "no change"; set fields overwrite the state's value (last write wins).
// Messages are appended to history, never overwritten. Next is mandatory for
// every stage.
type Delta struct {
	Next Stage

	Messages []AgentMessage

	Classification   *triage.Classification
	Verification     *triage.Verification
	SelectedServices []string
	Match            *triage.MatchResult
	ChosenHospital   *string
	Authorization    *triage.Authorization
	Report           *triage.Report
}

// Apply merges a delta into the state and bumps the version.
func (s *State) Apply(d Delta) {
	for _, m := range d.Messages {
		s.History.AppendAgent(string(m.Stage), m.Content)
	}

	if d.Classification != nil {
		s.Classification = d.Classification
	}
	if d.Verification != nil {
		s.Verification = d.Verification
	}
	if d.SelectedServices != nil {
		s.SelectedServices = d.SelectedServices
	}
	if d.Match != nil {
		s.Match = d.Match
	}
	if d.ChosenHospital != nil {
		s.ChosenHospital = *d.ChosenHospital
	}
	if d.Authorization != nil {
		s.Authorization = d.Authorization
	}
	if d.Report != nil {
		s.Report = d.Report
	}

	s.NextStage = d.Next
	s.Version++
}
