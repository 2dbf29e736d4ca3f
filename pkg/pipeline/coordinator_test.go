package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/triage"
)

// passThrough builds a registry where every stage routes along the given
// path and records its visit.
func scriptedStages(visited *[]Stage, deltas map[Stage]Delta) map[Stage]StageFunc {
	stages := make(map[Stage]StageFunc, len(Stages()))
	for _, s := range Stages() {
		stage := s
		stages[stage] = func(_ context.Context, _ *State) (Delta, error) {
			*visited = append(*visited, stage)
			if d, ok := deltas[stage]; ok {
				return d, nil
			}
			return Delta{Next: StageEnd}, nil
		}
	}
	return stages
}

func TestNewCoordinatorRejectsMissingStage(t *testing.T) {
	var visited []Stage
	stages := scriptedStages(&visited, nil)
	delete(stages, StageReport)

	_, err := NewCoordinator(stages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_agent")
}

func TestNewCoordinatorRejectsUnknownStage(t *testing.T) {
	var visited []Stage
	stages := scriptedStages(&visited, nil)
	stages[Stage("mystery_agent")] = stages[StageMatch]

	_, err := NewCoordinator(stages)
	require.Error(t, err)
}

func TestRunFollowsFullHappyPath(t *testing.T) {
	var visited []Stage
	deltas := map[Stage]Delta{
		StageOrchestrator:   {Next: StageVerification},
		StageVerification:   {Next: StageClassification, Verification: &triage.Verification{Verified: true}},
		StageClassification: {Next: StageMatch, Classification: &triage.Classification{Category: triage.CategoryCardiac}},
		StageMatch:          {Next: StageAuthorization, Match: &triage.MatchResult{Matched: true}},
		StageAuthorization:  {Next: StageReport, Authorization: &triage.Authorization{Generated: true}},
		StageReport:         {Next: StageResponse, Report: &triage.Report{Generated: true}},
		StageResponse:       {Next: StageEnd},
	}

	c, err := NewCoordinator(scriptedStages(&visited, deltas))
	require.NoError(t, err)

	st := NewState("s1", "Juan dela Cruz")
	require.NoError(t, c.Run(context.Background(), st, nil))

	assert.Equal(t, []Stage{
		StageOrchestrator, StageVerification, StageClassification,
		StageMatch, StageAuthorization, StageReport, StageResponse,
	}, visited)
	assert.Equal(t, StageEnd, st.NextStage)
	assert.Equal(t, 7, st.Version)
	assert.True(t, st.Report.Generated)
}

func TestRunStopsOnStageError(t *testing.T) {
	var visited []Stage
	deltas := map[Stage]Delta{
		StageOrchestrator: {Next: StageVerification, Messages: []AgentMessage{{Stage: StageOrchestrator, Content: "intake done"}}},
	}
	stages := scriptedStages(&visited, deltas)

	boom := errors.New("oracle transport failed")
	stages[StageVerification] = func(_ context.Context, _ *State) (Delta, error) {
		return Delta{}, boom
	}

	c, err := NewCoordinator(stages)
	require.NoError(t, err)

	st := NewState("s2", "Juan dela Cruz")
	err = c.Run(context.Background(), st, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The orchestrator's delta stays committed; the failed stage merged nothing.
	assert.Equal(t, 1, st.Version)
	assert.Equal(t, 1, st.History.Len())
	assert.Nil(t, st.Verification)
}

func TestRunRejectsUndeclaredTransition(t *testing.T) {
	var visited []Stage
	deltas := map[Stage]Delta{
		StageOrchestrator: {Next: StageReport},
	}

	c, err := NewCoordinator(scriptedStages(&visited, deltas))
	require.NoError(t, err)

	st := NewState("s3", "Juan dela Cruz")
	err = c.Run(context.Background(), st, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a declared transition")
}

func TestRunFromStartsAtGivenStage(t *testing.T) {
	var visited []Stage
	deltas := map[Stage]Delta{
		StageClassification: {Next: StageMatch},
		StageMatch:          {Next: StageEnd, Match: &triage.MatchResult{NoMatchReason: "none pass"}},
	}

	c, err := NewCoordinator(scriptedStages(&visited, deltas))
	require.NoError(t, err)

	st := NewState("s4", "Juan dela Cruz")
	require.NoError(t, c.RunFrom(context.Background(), st, StageClassification, nil))
	assert.Equal(t, []Stage{StageClassification, StageMatch}, visited)
}

func TestRunFromRejectsTerminalEntry(t *testing.T) {
	var visited []Stage
	c, err := NewCoordinator(scriptedStages(&visited, nil))
	require.NoError(t, err)

	err = c.RunFrom(context.Background(), NewState("s5", ""), StageEnd, nil)
	require.Error(t, err)
}

func TestRunEmitsOrderedEvents(t *testing.T) {
	var visited []Stage
	deltas := map[Stage]Delta{
		StageOrchestrator: {Next: StageVerification},
		StageVerification: {Next: StageResponse, Verification: &triage.Verification{Verified: false, Reason: "no record"}},
		StageResponse:     {Next: StageEnd},
	}

	c, err := NewCoordinator(scriptedStages(&visited, deltas))
	require.NoError(t, err)

	var events []Event
	st := NewState("s6", "Pedro Penduko")
	require.NoError(t, c.Run(context.Background(), st, func(ev Event) { events = append(events, ev) }))

	require.Len(t, events, 6)
	assert.Equal(t, EventStageStart, events[0].Type)
	assert.Equal(t, StageOrchestrator, events[0].Stage)
	assert.Equal(t, EventStageDone, events[1].Type)

	// The verification excerpt exposes only the whitelisted record.
	verDone := events[3]
	require.Equal(t, EventStageDone, verDone.Type)
	require.Contains(t, verDone.Data, "verification")
	assert.Len(t, verDone.Data, 1)

	// Stages without a whitelist entry expose nothing.
	assert.Nil(t, events[1].Data)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	var visited []Stage
	c, err := NewCoordinator(scriptedStages(&visited, nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Run(ctx, NewState("s7", ""), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, visited)
}

func TestApplyLastWriteWinsAndAppendOnlyHistory(t *testing.T) {
	st := NewState("s8", "Maria Santos")

	st.Apply(Delta{
		Next:             StageMatch,
		Classification:   &triage.Classification{Category: triage.CategoryBurns},
		SelectedServices: []string{"a", "b"},
		Messages:         []AgentMessage{{Stage: StageClassification, Content: "classified"}},
	})
	st.Apply(Delta{
		Next:             StageAuthorization,
		SelectedServices: []string{"c"},
		Messages:         []AgentMessage{{Stage: StageMatch, Content: "matched"}},
	})

	assert.Equal(t, triage.CategoryBurns, st.Classification.Category)
	assert.Equal(t, []string{"c"}, st.SelectedServices)
	assert.Equal(t, 2, st.History.Len())
	assert.Equal(t, 2, st.Version)

	chosen := "St. Luke's Medical Center"
	st.Apply(Delta{Next: StageEnd, ChosenHospital: &chosen})
	assert.Equal(t, chosen, st.ChosenHospital)
	assert.Equal(t, triage.CategoryBurns, st.Classification.Category)
}
