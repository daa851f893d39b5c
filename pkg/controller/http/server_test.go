package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	httpctrl "github.com/pitch-lab/pitchcoach/pkg/controller/http"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/repository/memory"
	"github.com/pitch-lab/pitchcoach/pkg/service/graph"
	"github.com/pitch-lab/pitchcoach/pkg/usecase"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, errors.New("not implemented")
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return errors.New("not implemented")
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, errors.New("not implemented")
}

// mockLLMClient answers client prompts with a fixed reply and coach prompts
// with a classification or extraction payload, in the order the coach
// issues them. classifyAnswer overrides the default substantive verdict.
type mockLLMClient struct {
	mu             sync.Mutex
	analysisCalls  int
	classifyAnswer string
}

const mockExtractJSON = `{"cues":[{"name":"quantified value","evidence_quote":"80%","interpretation":"the objection is engaged with evidence","impact_probability":0.7}],"risks":[{"description":"the cost concern may persist","impact":"deal stalls","impact_level":"Medium"}]}`

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockLLMSession{generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		var prompt string
		for _, in := range input {
			if text, ok := in.(gollem.Text); ok {
				prompt += string(text)
			}
		}
		if strings.Contains(prompt, "Respond as the client.") {
			return &gollem.Response{Texts: []string{"Your price is still above our budget."}}, nil
		}

		c.mu.Lock()
		c.analysisCalls++
		classify := c.analysisCalls%3 == 1
		c.mu.Unlock()

		if classify {
			answer := c.classifyAnswer
			if answer == "" {
				answer = "substantive"
			}
			return &gollem.Response{Texts: []string{answer}}, nil
		}
		return &gollem.Response{Texts: []string{mockExtractJSON}}, nil
	}}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	result := make([][]float64, len(input))
	for i := range input {
		vec := make([]float64, dimension)
		vec[0] = 1
		result[i] = vec
	}
	return result, nil
}

func newServer(t *testing.T, llm *mockLLMClient) *httpctrl.Server {
	t.Helper()
	repo := memory.New()

	graphSvc, err := graph.New(repo.Graph(), llm)
	gt.NoError(t, err).Required()
	_, err = graphSvc.Ingest(context.Background(), &model.KnowledgeFile{
		Profiles: []model.KnowledgeProfile{{
			ProfileID:   "profile-nexumora",
			Name:        "Nexumora",
			Description: "A skeptical mid-market CTO",
			Objections: []model.KnowledgeRecord{{
				ID:          "obj-price",
				Description: "the price is too high for our budget",
				Priority:    1,
				Strategies: []model.KnowledgeStrategy{{
					ID:          "strat-roi",
					Description: "reframe the cost concern as an investment",
					Techniques: []model.KnowledgeTechnique{{
						ID:          "techn-calc",
						Description: "walk through an ROI calculation",
						Outcome:     &model.KnowledgeOutcome{ID: "out-budget", Description: "budget approved"},
					}},
				}},
			}},
		}},
	})
	gt.NoError(t, err).Required()

	uc, err := usecase.New(repo, llm)
	gt.NoError(t, err).Required()
	server, err := httpctrl.New(uc)
	gt.NoError(t, err).Required()
	return server
}

func doJSON(t *testing.T, server *httpctrl.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestListProfiles(t *testing.T) {
	server := newServer(t, &mockLLMClient{})

	rec := doJSON(t, server, http.MethodGet, "/api/profiles", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Profiles []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"profiles"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.Profiles).Length(1).Required()
	gt.Value(t, resp.Profiles[0].ID).Equal("profile-nexumora")
	gt.Value(t, resp.Profiles[0].Name).Equal("Nexumora")
}

func TestGetProfile(t *testing.T) {
	server := newServer(t, &mockLLMClient{})

	t.Run("found", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/profiles/profile-nexumora", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.ID).Equal("profile-nexumora")
		gt.String(t, resp.Description).Contains("CTO")
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/profiles/profile-missing", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestStartSession(t *testing.T) {
	server := newServer(t, &mockLLMClient{})

	t.Run("creates a session", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{
			"client_profile_id": "profile-nexumora",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var resp struct {
			SessionID        string `json:"session_id"`
			CurrentObjection string `json:"current_objection"`
			FirstMessage     string `json:"first_message"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.String(t, resp.SessionID).NotEqual("")
		gt.Value(t, resp.CurrentObjection).Equal("the price is too high for our budget")
		gt.String(t, resp.FirstMessage).Contains("budget")
	})

	t.Run("unknown profile", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{
			"client_profile_id": "profile-missing",
		})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("missing profile id", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestSubmitTurn(t *testing.T) {
	server := newServer(t, &mockLLMClient{})

	rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{
		"client_profile_id": "profile-nexumora",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var created struct {
		SessionID string `json:"session_id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created)).Required()

	t.Run("completes a turn", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+created.SessionID+"/turns", map[string]string{
			"response": "Let me walk you through the ROI for a team your size.",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			RoundCount  int    `json:"round_count"`
			ClientReply string `json:"client_reply"`
			Coach       struct {
				Classification string `json:"classification"`
				Solutions      []struct {
					Outcome string `json:"outcome"`
				} `json:"solutions"`
			} `json:"coach"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Number(t, resp.RoundCount).Equal(1)
		gt.String(t, resp.ClientReply).Contains("budget")
		gt.Value(t, resp.Coach.Classification).Equal("substantive")
		gt.Array(t, resp.Coach.Solutions).Length(1).Required()
		gt.Value(t, resp.Coach.Solutions[0].Outcome).Equal("budget approved")
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions/no-such-session/turns", map[string]string{
			"response": "hello?",
		})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("empty response", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/sessions/"+created.SessionID+"/turns", map[string]string{
			"response": "  ",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestSubmitTurn_MinorResponseOmitsAnalysis(t *testing.T) {
	server := newServer(t, &mockLLMClient{classifyAnswer: "minor"})

	rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{
		"client_profile_id": "profile-nexumora",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var created struct {
		SessionID string `json:"session_id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created)).Required()

	rec = doJSON(t, server, http.MethodPost, "/api/sessions/"+created.SessionID+"/turns", map[string]string{
		"response": "ok",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	body := rec.Body.String()
	gt.String(t, body).Contains(`"classification":"minor"`)
	gt.Bool(t, strings.Contains(body, `"behavioral_cues"`)).False()
	gt.Bool(t, strings.Contains(body, `"risks"`)).False()
	gt.Bool(t, strings.Contains(body, `"solutions"`)).False()
}

func TestGetSession(t *testing.T) {
	server := newServer(t, &mockLLMClient{})

	rec := doJSON(t, server, http.MethodPost, "/api/sessions", map[string]string{
		"client_profile_id": "profile-nexumora",
	})
	var created struct {
		SessionID string `json:"session_id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created)).Required()

	t.Run("found", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/sessions/"+created.SessionID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			History []struct {
				Role string `json:"role"`
			} `json:"history"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.History).Length(1)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/sessions/missing", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}
