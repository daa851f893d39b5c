package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/agent/coach"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/usecase"
)

type profileResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties,omitempty"`
}

func toProfileResponse(entity *model.Entity) profileResponse {
	return profileResponse{
		ID:          entity.EntityID,
		Name:        entity.Name,
		Description: entity.Description,
		Properties:  entity.Properties,
	}
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.usecase.ListClientProfiles(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := struct {
		Profiles []profileResponse `json:"profiles"`
	}{
		Profiles: make([]profileResponse, len(profiles)),
	}
	for i, profile := range profiles {
		resp.Profiles[i] = toProfileResponse(profile)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.usecase.GetClientProfile(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

type sessionResponse struct {
	SessionID        string          `json:"session_id"`
	ProfileID        string          `json:"profile_id"`
	CurrentObjection string          `json:"current_objection"`
	RoundCount       int             `json:"round_count"`
	History          []model.Message `json:"history"`
}

func toSessionResponse(session *model.Session) sessionResponse {
	return sessionResponse{
		SessionID:        session.ID.String(),
		ProfileID:        session.Context.ProfileID,
		CurrentObjection: session.Context.CurrentObjection,
		RoundCount:       session.RoundCount,
		History:          session.Context.History,
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientProfileID string `json:"client_profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidRequest, "invalid request body"))
		return
	}
	if req.ClientProfileID == "" {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidRequest, "client_profile_id is required"))
		return
	}

	session, err := s.usecase.StartSession(r.Context(), req.ClientProfileID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := struct {
		sessionResponse
		FirstMessage string `json:"first_message"`
	}{
		sessionResponse: toSessionResponse(session),
	}
	if len(session.Context.History) > 0 {
		resp.FirstMessage = session.Context.History[0].Content
	}
	writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.usecase.GetSession(r.Context(), types.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(session))
}

type coachResponse struct {
	Classification string                `json:"classification"`
	BehavioralCues []model.BehavioralCue `json:"behavioral_cues,omitempty"`
	Risks          []model.Risk          `json:"risks,omitempty"`
	Solutions      []solutionResponse    `json:"solutions,omitempty"`
}

type solutionResponse struct {
	Strategy  string `json:"strategy"`
	Technique string `json:"technique"`
	Outcome   string `json:"outcome"`
}

// toCoachResponse keeps the analysis fields out of the payload entirely
// when the turn was not substantive.
func toCoachResponse(report *coach.Report) coachResponse {
	resp := coachResponse{
		Classification: report.Classification.String(),
		BehavioralCues: report.Analysis.Cues,
		Risks:          report.Analysis.Risks,
	}
	for _, solution := range report.Solutions {
		resp.Solutions = append(resp.Solutions, solutionResponse{
			Strategy:  solution.Strategy.Description,
			Technique: solution.Technique.Description,
			Outcome:   solution.Outcome.Description,
		})
	}
	return resp
}

func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(usecase.ErrInvalidRequest, "invalid request body"))
		return
	}

	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))
	result, err := s.usecase.SubmitTurn(r.Context(), sessionID, req.Response)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := struct {
		sessionResponse
		ClientReply string        `json:"client_reply"`
		Coach       coachResponse `json:"coach"`
	}{
		sessionResponse: toSessionResponse(result.Session),
		ClientReply:     result.ClientReply,
		Coach:           toCoachResponse(result.Coach),
	}
	writeJSON(w, r, http.StatusOK, resp)
}
