// Package stages implements the pipeline stage functions: intake
// orchestration, eligibility verification, classification, hospital
// matching, authorization issuance, report compilation and the
// patient-facing response.
package stages

import (
	"time"

	"mediroute/pkg/ledger"
	"mediroute/pkg/logx"
	"mediroute/pkg/oracle"
	"mediroute/pkg/oracle/middleware/metrics"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/registry"
)

// DefaultHistoryTokenBudget bounds how much transcript is replayed into
// orchestrator prompts.
const DefaultHistoryTokenBudget = 6000

// Deps carries everything the stage functions need.
type Deps struct {
	Oracle   oracle.Client
	Registry *registry.Registry
	Ledger   *ledger.Ledger

	// Metrics records structured-output fallbacks. Nil means no recording.
	Metrics metrics.Recorder

	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time

	// HistoryTokenBudget limits transcript replay; 0 uses the default.
	HistoryTokenBudget int

	logger *logx.Logger
}

func (d *Deps) normalize() {
	if d.Metrics == nil {
		d.Metrics = metrics.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.HistoryTokenBudget == 0 {
		d.HistoryTokenBudget = DefaultHistoryTokenBudget
	}
	if d.logger == nil {
		d.logger = logx.NewLogger("stages")
	}
}

// New builds the stage registry for the coordinator.
func New(deps Deps) map[pipeline.Stage]pipeline.StageFunc {
	deps.normalize()
	d := &deps
	return map[pipeline.Stage]pipeline.StageFunc{
		pipeline.StageOrchestrator:   d.orchestrate,
		pipeline.StageVerification:   d.verify,
		pipeline.StageClassification: d.classify,
		pipeline.StageMatch:          d.match,
		pipeline.StageAuthorization:  d.authorize,
		pipeline.StageReport:         d.report,
		pipeline.StageResponse:       d.respond,
	}
}

// noteFallback logs and counts a structured call that fell back to defaults.
func (d *Deps) noteFallback(stage pipeline.Stage, res oracle.StructuredResult) {
	if !res.Fallback {
		return
	}
	d.logger.Warn("%s: structured output fell back to defaults: %v", stage, res.ParseErr)
	d.Metrics.IncParseFallback(d.Oracle.ModelName(), string(stage))
}
