package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mediroute/pkg/document"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/session"
	"mediroute/pkg/triage"
)

type processRequest struct {
	PatientName      string `json:"patient_name"`
	Symptoms         string `json:"symptoms"`
	Location         string `json:"location"`
	Insurance        string `json:"insurance"`
	CurrentSituation string `json:"current_situation,omitempty"`
}

type processResponse struct {
	Success  bool           `json:"success"`
	Report   *triage.Report `json:"report,omitempty"`
	Response string         `json:"response,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// handleProcess runs the full routing pipeline in one shot, without the
// conversational intake loop. Location and payer arrive as named fields and
// are seeded into the case directly; only category and severity are left for
// classification to judge.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.Symptoms = strings.TrimSpace(req.Symptoms)
	req.Location = strings.TrimSpace(req.Location)
	req.Insurance = strings.TrimSpace(req.Insurance)
	if req.PatientName == "" || req.Symptoms == "" || req.Location == "" || req.Insurance == "" {
		httpError(w, http.StatusBadRequest, "patient_name, symptoms, location and insurance are required")
		return
	}

	st := pipeline.NewState(uuid.NewString(), req.PatientName)
	st.Intake = &triage.Intake{
		Symptoms:         req.Symptoms,
		Location:         req.Location,
		Insurance:        req.Insurance,
		CurrentSituation: strings.TrimSpace(req.CurrentSituation),
	}
	st.History.AppendPatient(req.Symptoms)
	st.History.AppendAgent(string(pipeline.StageOrchestrator), st.Intake.Summary())

	if err := s.coordinator.RunFrom(r.Context(), st, pipeline.StageClassification, nil); err != nil {
		s.logger.Error("process run failed: %v", err)
		httpError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	if st.Report != nil && st.Report.Generated {
		_, reply := lastAgentReply(st)
		writeJSON(w, http.StatusOK, processResponse{
			Success:  true,
			Report:   st.Report,
			Response: reply,
		})
		return
	}
	writeJSON(w, http.StatusOK, processResponse{
		Success: false,
		Reason:  failureReason(st),
	})
}

type chatRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Message     string `json:"message"`
}

type chatResponse struct {
	SessionID string                `json:"session_id"`
	Response  string                `json:"response"`
	AgentName string                `json:"agent_name,omitempty"`
	NextAgent string                `json:"next_agent"`
	LOA       *triage.Authorization `json:"loa_output,omitempty"`
	Report    *triage.Report        `json:"report_output,omitempty"`
}

// chatTurnPayload assembles the patient-facing result of a completed turn:
// the newest reply, the stage that authored it, where the pipeline routes
// next, and the authorization and report records once they exist.
func chatTurnPayload(st *pipeline.State) chatResponse {
	stage, reply := lastAgentReply(st)
	return chatResponse{
		SessionID: st.SessionID,
		Response:  reply,
		AgentName: stage,
		NextAgent: string(st.NextStage),
		LOA:       st.Authorization,
		Report:    st.Report,
	}
}

// resolveSession validates the chat request and returns a locked session.
func (s *Server) resolveSession(r *http.Request, req *chatRequest) (*pipeline.State, func(), int, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, nil, http.StatusBadRequest, errors.New("message is required")
	}

	if req.SessionID == "" {
		name := strings.TrimSpace(req.PatientName)
		if name == "" {
			return nil, nil, http.StatusBadRequest, errors.New("patient_name is required for a new session")
		}
		req.SessionID = s.sessions.Create(name)
	}

	st, release, err := s.sessions.Acquire(r.Context(), req.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, nil, http.StatusNotFound, fmt.Errorf("session %s not found", req.SessionID)
	}
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}
	return st, release, http.StatusOK, nil
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, release, status, err := s.resolveSession(r, &req)
	if err != nil {
		httpError(w, status, err.Error())
		return
	}
	defer release()

	st.History.AppendPatient(req.Message)
	if err := s.coordinator.Run(r.Context(), st, nil); err != nil {
		s.logger.Error("chat run failed for session %s: %v", st.SessionID, err)
		httpError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	writeJSON(w, http.StatusOK, chatTurnPayload(st))
}

// handleChatMessageStream runs the same turn as handleChatMessage but pushes
// stage progress as server-sent events while the run executes.
func (s *Server) handleChatMessageStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, release, status, err := s.resolveSession(r, &req)
	if err != nil {
		httpError(w, status, err.Error())
		return
	}
	defer release()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan pipeline.Event, 16)
	done := make(chan error, 1)

	st.History.AppendPatient(req.Message)
	go func() {
		defer close(events)
		done <- s.coordinator.Run(r.Context(), st, func(ev pipeline.Event) {
			events <- ev
		})
	}()

	for ev := range events {
		writeSSE(w, flusher, ev)
	}

	if err := <-done; err != nil {
		s.logger.Error("stream run failed for session %s: %v", st.SessionID, err)
		// The error event deliberately carries only the session id and a
		// generic detail line, never internal state.
		writeSSE(w, flusher, pipeline.Event{
			Type:    pipeline.EventError,
			Message: "processing failed",
			Data:    map[string]any{"session_id": st.SessionID},
		})
		return
	}

	payload := chatTurnPayload(st)
	final := map[string]any{
		"session_id": payload.SessionID,
		"response":   payload.Response,
		"agent_name": payload.AgentName,
		"next_agent": payload.NextAgent,
	}
	if payload.LOA != nil {
		final["loa_output"] = payload.LOA
	}
	if payload.Report != nil {
		final["report_output"] = payload.Report
	}
	writeSSE(w, flusher, pipeline.Event{
		Type: pipeline.EventFinal,
		Data: final,
	})
}

// handleLOADocument renders the authorization PDF for a completed case.
func (s *Server) handleLOADocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	st, err := s.sessions.Peek(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if st.Report == nil || !st.Report.Generated {
		httpError(w, http.StatusConflict, "no authorization has been generated for this session")
		return
	}

	data, err := document.RenderLOA(st.PatientName, st.Report)
	if err != nil {
		s.logger.Error("LOA render failed for session %s: %v", id, err)
		httpError(w, http.StatusInternalServerError, "document rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", st.Report.LOANumber+".pdf"))
	_, _ = w.Write(data)
}

// lastAgentReply returns the newest agent-authored transcript line, which is
// the patient-facing output of the turn, along with the stage that wrote it.
func lastAgentReply(st *pipeline.State) (stage, content string) {
	msgs := st.History.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Stage != "" {
			return msgs[i].Stage, msgs[i].Content
		}
	}
	return "", ""
}

// failureReason picks the most specific explanation for a run that ended
// without an authorization.
func failureReason(st *pipeline.State) string {
	if st.Verification != nil && !st.Verification.Verified {
		return st.Verification.Reason
	}
	if st.Authorization != nil && !st.Authorization.Generated && st.Authorization.Reason != "" {
		return st.Authorization.Reason
	}
	if st.Match != nil && st.Match.NoMatchReason != "" {
		return st.Match.NoMatchReason
	}
	if st.Match != nil && len(st.Match.Candidates) > 0 {
		return "Multiple hospitals are available; a facility must be chosen before authorization."
	}
	return "The case could not be completed."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev pipeline.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func httpError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
