package pipeline

// Event types streamed to callers while a run executes. The final and error
// events are emitted by the serving layer, which owns the response payload.
const (
	EventStageStart = "node_start"
	EventStageDone  = "node_done"
	EventFinal      = "final"
	EventError      = "error"
)

// Event is one progress notification. Data carries a stage-specific
// whitelisted excerpt of the stage's output, never the full session state.
type Event struct {
	Type    string         `json:"type"`
	Stage   Stage          `json:"node,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Listener receives progress events during a run. May be nil.
type Listener func(Event)

var startStatus = map[Stage]string{
	StageOrchestrator:   "🧠 Orchestrator is analyzing your request...",
	StageVerification:   "🔐 Verifying insurance eligibility...",
	StageClassification: "🏥 Classifying emergency details...",
	StageMatch:          "🔍 Matching available hospitals and services...",
	StageAuthorization:  "📋 Generating Letter of Authorization...",
	StageReport:         "📝 Compiling medical report...",
	StageResponse:       "💬 Preparing your response...",
}

var doneStatus = map[Stage]string{
	StageOrchestrator:   "✅ Request analyzed.",
	StageVerification:   "✅ Insurance verified.",
	StageClassification: "✅ Emergency classified.",
	StageMatch:          "✅ Hospitals matched.",
	StageAuthorization:  "✅ LOA generated.",
	StageReport:         "✅ Report compiled.",
	StageResponse:       "✅ Response ready.",
}

// StartStatus returns the human status line announced when a stage begins.
func StartStatus(s Stage) string {
	if msg, ok := startStatus[s]; ok {
		return msg
	}
	return "Working..."
}

// DoneStatus returns the human status line announced when a stage completes.
func DoneStatus(s Stage) string {
	if msg, ok := doneStatus[s]; ok {
		return msg
	}
	return "✅ Done."
}

// excerpt selects what of a stage's delta is exposed in its node_done event.
// Reads from the delta, not the merged state, so values are never stale.
func excerpt(stage Stage, d Delta) map[string]any {
	switch stage {
	case StageVerification:
		if d.Verification != nil {
			return map[string]any{"verification": d.Verification}
		}
	case StageClassification:
		if d.Classification != nil {
			return map[string]any{"classification": d.Classification}
		}
	case StageMatch:
		if d.Match != nil {
			return map[string]any{"matched_hospitals": d.Match}
		}
	case StageAuthorization:
		if d.Authorization != nil {
			return map[string]any{"loa_output": d.Authorization}
		}
	case StageReport:
		if d.Report != nil {
			return map[string]any{"report_output": d.Report}
		}
	}
	return nil
}
