// Package pipeline drives the staged routing run: an explicit FSM over stage
// functions, with typed partial-state deltas merged by the coordinator.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"mediroute/pkg/logx"
)

// maxStepsPerRun bounds a single run. The transition table is acyclic, so a
// legal run can never take more steps than there are stages.
const maxStepsPerRun = 10

// StageFunc executes one stage against the current state and returns the
// delta to merge. On error nothing from the stage is merged.
type StageFunc func(ctx context.Context, st *State) (Delta, error)

// Coordinator owns the stage registry and the run loop.
type Coordinator struct {
	stages  map[Stage]StageFunc
	logger  *logx.Logger
	current atomic.Value // Stage of the most recently entered stage
}

// NewCoordinator validates the transition table and the stage registry:
// every executable stage must be registered, and nothing may be registered
// for the terminal sentinel.
func NewCoordinator(stages map[Stage]StageFunc) (*Coordinator, error) {
	if err := ValidateTransitions(); err != nil {
		return nil, fmt.Errorf("invalid transition table: %w", err)
	}
	for _, s := range Stages() {
		if _, ok := stages[s]; !ok {
			return nil, fmt.Errorf("no stage function registered for %s", s)
		}
	}
	for s := range stages {
		if !IsExecutable(s) {
			return nil, fmt.Errorf("stage function registered for unknown stage %s", s)
		}
	}

	c := &Coordinator{stages: stages, logger: logx.NewLogger("pipeline")}
	c.current.Store(StageOrchestrator)
	return c, nil
}

// IsExecutable reports whether s names a registered, runnable stage.
func IsExecutable(s Stage) bool {
	for _, known := range Stages() {
		if s == known {
			return true
		}
	}
	return false
}

// CurrentStage returns the stage most recently entered by any run. Used to
// label oracle metrics.
func (c *Coordinator) CurrentStage() string {
	if s, ok := c.current.Load().(Stage); ok {
		return string(s)
	}
	return "unknown"
}

// Run executes the pipeline from the conversational entry stage.
func (c *Coordinator) Run(ctx context.Context, st *State, listen Listener) error {
	return c.RunFrom(ctx, st, StageOrchestrator, listen)
}

// RunFrom executes the pipeline starting at entry and loops until a stage
// routes to the terminal sentinel. Each stage's delta is merged before the
// next stage runs; when a stage fails, deltas already merged in this run
// stay committed and the error is surfaced to the caller.
func (c *Coordinator) RunFrom(ctx context.Context, st *State, entry Stage, listen Listener) error {
	if !IsExecutable(entry) {
		return fmt.Errorf("cannot start run at %s", entry)
	}

	runStart := time.Now()
	stage := entry

	for step := 0; ; step++ {
		if step >= maxStepsPerRun {
			observeRun(time.Since(runStart), false)
			return fmt.Errorf("run exceeded %d steps at stage %s", maxStepsPerRun, stage)
		}
		if err := ctx.Err(); err != nil {
			observeRun(time.Since(runStart), false)
			return fmt.Errorf("run canceled at stage %s: %w", stage, err)
		}

		fn, ok := c.stages[stage]
		if !ok {
			observeRun(time.Since(runStart), false)
			return fmt.Errorf("no stage function for %s", stage)
		}

		c.current.Store(stage)
		c.logger.Info("▶ %s (session %s, step %d)", stage, st.SessionID, step)
		emit(listen, Event{Type: EventStageStart, Stage: stage, Message: StartStatus(stage)})

		stageStart := time.Now()
		delta, err := fn(ctx, st)
		if err != nil {
			observeStage(stage, time.Since(stageStart), false)
			observeRun(time.Since(runStart), false)
			return fmt.Errorf("stage %s failed: %w", stage, err)
		}
		observeStage(stage, time.Since(stageStart), true)

		if !IsValidTransition(stage, delta.Next) {
			observeRun(time.Since(runStart), false)
			return fmt.Errorf("stage %s routed to %s, which is not a declared transition", stage, delta.Next)
		}

		st.Apply(delta)
		c.logger.Debug("stage %s merged delta v%d, next=%s", stage, st.Version, delta.Next)
		emit(listen, Event{Type: EventStageDone, Stage: stage, Message: DoneStatus(stage), Data: excerpt(stage, delta)})

		if delta.Next == StageEnd {
			break
		}
		stage = delta.Next
	}

	observeRun(time.Since(runStart), true)
	c.logger.Info("run complete for session %s (state v%d)", st.SessionID, st.Version)
	return nil
}

func emit(listen Listener, ev Event) {
	if listen != nil {
		listen(ev)
	}
}
