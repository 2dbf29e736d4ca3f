package stages

import (
	"context"
	"fmt"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
)

const orchestratorFallbackReply = "I'm here to help. Could you tell me what's happening and where you are right now?"

const (
	toolCallVerification = "call_verification_agent"
	toolCallLOA          = "call_loa_agent"
)

func orchestratorTools() []oracle.ToolDefinition {
	return []oracle.ToolDefinition{
		{
			Name: toolCallVerification,
			Description: "Use this tool when the patient has provided their symptoms or emergency condition, " +
				"their current location, and an answer about their preferred hospital (including 'none'). " +
				"This routes the request to insurance verification and structured intake.",
			InputSchema: oracle.ObjectSchema(map[string]oracle.Property{
				"query": {
					Type: "string",
					Description: "The full context of the conversation describing the patient's emergency, " +
						"location, preferred hospital answer, and insurance provider.",
				},
				"purpose": {
					Type:        "string",
					Description: "Brief reason why this is being routed onward.",
				},
			}, []string{"query", "purpose"}),
		},
		{
			Name: toolCallLOA,
			Description: "Use this tool when the patient has confirmed or chosen a specific hospital " +
				"they want to be admitted to. This routes the request to Letter of Authorization issuance " +
				"with the chosen hospital.",
			InputSchema: oracle.ObjectSchema(map[string]oracle.Property{
				"query": {
					Type: "string",
					Description: "The full context of the conversation including the patient's emergency " +
						"details, insurance provider, and their chosen hospital.",
				},
				"chosen_hospital": {
					Type:        "string",
					Description: "The name of the hospital the patient has chosen (e.g. 'St. Luke's Medical Center').",
				},
				"purpose": {
					Type:        "string",
					Description: "Brief reason why this is being routed onward.",
				},
			}, []string{"query", "chosen_hospital", "purpose"}),
		},
	}
}

// orchestrate is the conversational entry stage. It either gathers more
// information from the patient (direct reply, run terminates), hands a
// complete intake off to verification, or recognizes a hospital choice and
// routes straight to authorization.
func (d *Deps) orchestrate(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	messages := []oracle.Message{
		oracle.SystemMessage(fmt.Sprintf(orchestratorSystemPrompt, st.PatientName)),
	}
	messages = append(messages, st.History.PromptMessages(d.HistoryTokenBudget)...)

	req := oracle.NewRequest(messages)
	req.Tools = orchestratorTools()

	resp, err := d.Oracle.Complete(ctx, req)
	if err != nil {
		return pipeline.Delta{}, fmt.Errorf("orchestrator call failed: %w", err)
	}

	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		query := stringParam(call.Parameters, "query")

		switch call.Name {
		case toolCallVerification:
			d.logger.Info("orchestrator: routing to verification (%s)", stringParam(call.Parameters, "purpose"))
			return pipeline.Delta{
				Next: pipeline.StageVerification,
				Messages: []pipeline.AgentMessage{
					{Stage: pipeline.StageOrchestrator, Content: query},
				},
			}, nil

		case toolCallLOA:
			chosen := stringParam(call.Parameters, "chosen_hospital")
			d.logger.Info("orchestrator: routing to authorization, chosen hospital %q", chosen)
			return pipeline.Delta{
				Next:           pipeline.StageAuthorization,
				ChosenHospital: &chosen,
				Messages: []pipeline.AgentMessage{
					{Stage: pipeline.StageOrchestrator, Content: query},
				},
			}, nil

		default:
			d.logger.Warn("orchestrator: model called unknown tool %q, answering directly", call.Name)
		}
	}

	reply := resp.Content
	if reply == "" {
		reply = orchestratorFallbackReply
	}

	return pipeline.Delta{
		Next: pipeline.StageEnd,
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageOrchestrator, Content: reply},
		},
	}, nil
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
