package metrics

import (
	"context"
	"time"

	"mediroute/pkg/oracle"
)

// StageProvider reports which pipeline stage is currently issuing oracle
// calls, so per-stage metrics can be attributed without threading labels
// through every request.
type StageProvider interface {
	CurrentStage() string
}

// StaticStage is a StageProvider that always reports the same label.
type StaticStage string

// CurrentStage returns the fixed label.
func (s StaticStage) CurrentStage() string { return string(s) }

// StageProviderFunc adapts a function to the StageProvider interface. Useful
// when the provider must be wired before the pipeline exists.
type StageProviderFunc func() string

// CurrentStage invokes the function.
func (f StageProviderFunc) CurrentStage() string { return f() }

// Middleware returns a middleware that records request counts, token usage,
// and durations for every oracle call.
func Middleware(rec Recorder, stages StageProvider) oracle.Middleware {
	if rec == nil {
		rec = Nop()
	}
	if stages == nil {
		stages = StaticStage("unknown")
	}

	return func(next oracle.Client) oracle.Client {
		return oracle.WrapClient(
			func(ctx context.Context, req oracle.Request) (oracle.Response, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)

				errorType := ""
				if err != nil {
					errorType = oracle.TypeOf(err).String()
				}
				rec.ObserveRequest(
					next.ModelName(), stages.CurrentStage(),
					resp.Usage.PromptTokens, resp.Usage.CompletionTokens,
					err == nil, errorType, time.Since(start),
				)
				return resp, err
			},
			next.Stream,
			next.ModelName,
		)
	}
}
