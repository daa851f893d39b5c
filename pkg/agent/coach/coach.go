package coach

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/service/retriever"
	"github.com/pitch-lab/pitchcoach/pkg/utils/async"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

//go:embed prompt/classify_system.md
var classifySystemPrompt string

//go:embed prompt/classify_context.md
var classifyContextTmpl string

//go:embed prompt/cues_system.md
var cuesSystemPrompt string

//go:embed prompt/risks_system.md
var risksSystemPrompt string

var classifyContext = template.Must(template.New("classify_context").Parse(classifyContextTmpl))

// analysisTimeout bounds each coach LLM call
const analysisTimeout = 45 * time.Second

// recentExchanges is how many trailing history messages feed the
// classification prompt (3 exchanges, 2 messages each)
const recentExchanges = 6

// ErrAnalysis marks a coach analysis call whose output could not be used,
// either because the model failed or because it returned unparseable JSON.
var ErrAnalysis = errors.New("coach analysis failed")

// Report is the coach's full output for one turn. Analysis and Solutions
// are only populated on a substantive verdict.
type Report struct {
	Classification Classification
	Analysis       model.ProblemAnalysis
	Solutions      []*model.Solution
}

// Agent reviews each trainee response: it classifies the response, extracts
// behavioral cues and deal risks from substantive ones, and resolves
// remediation paths from the knowledge graph.
type Agent struct {
	llmClient gollem.LLMClient
	repo      interfaces.GraphRepository
	retriever *retriever.Service
	timeout   time.Duration
}

// Option configures an Agent
type Option func(*Agent)

// WithTimeout overrides the per-call analysis deadline. Intended for tests.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.timeout = d
	}
}

// New creates a coach agent
func New(llmClient gollem.LLMClient, repo interfaces.GraphRepository, retrieverSvc *retriever.Service, opts ...Option) (*Agent, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if repo == nil {
		return nil, goerr.New("graph repository is required")
	}
	if retrieverSvc == nil {
		return nil, goerr.New("retriever is required")
	}
	agent := &Agent{
		llmClient: llmClient,
		repo:      repo,
		retriever: retrieverSvc,
		timeout:   analysisTimeout,
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent, nil
}

// Analyze runs the coach pipeline for one turn. A minor or failed verdict
// short-circuits with an empty analysis; a substantive one extracts cues
// and risks concurrently and resolves solutions from the graph. Extraction
// failures surface as ErrAnalysis rather than a degraded report.
func (a *Agent) Analyze(ctx context.Context, agentCtx *model.AgentContext) (*Report, error) {
	if agentCtx == nil {
		return nil, goerr.New("agent context is required")
	}

	report := &Report{
		Classification: a.Classify(ctx, agentCtx),
	}
	if report.Classification.Verdict != VerdictSubstantive {
		return report, nil
	}

	var (
		cues  []model.BehavioralCue
		risks []model.Risk
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		result, err := a.extractCues(egCtx, agentCtx)
		if err != nil {
			return err
		}
		cues = result
		return nil
	})
	eg.Go(func() error {
		result, err := a.extractRisks(egCtx, agentCtx)
		if err != nil {
			return err
		}
		risks = result
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrAnalysis, err), "problem analysis failed")
	}
	report.Analysis = model.ProblemAnalysis{Cues: cues, Risks: risks}

	solutions, err := a.ResolveSolutions(ctx, &report.Analysis)
	if err != nil {
		return nil, err
	}
	report.Solutions = solutions

	return report, nil
}

// Classify labels the trainee's latest response. It never fails: any error
// or unrecognized answer becomes a VerdictFailed classification carrying
// the failure text.
func (a *Agent) Classify(ctx context.Context, agentCtx *model.AgentContext) Classification {
	prompt, err := renderClassifyContext(agentCtx)
	if err != nil {
		return Classification{Verdict: VerdictFailed, Detail: err.Error()}
	}

	raw, err := async.Call(ctx, a.timeout, func(ctx context.Context) (string, error) {
		session, err := a.llmClient.NewSession(ctx,
			gollem.WithSessionSystemPrompt(classifySystemPrompt),
		)
		if err != nil {
			return "", goerr.Wrap(err, "failed to create LLM session")
		}

		resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
		if err != nil {
			return "", goerr.Wrap(err, "failed to classify response")
		}
		if resp == nil || len(resp.Texts) == 0 {
			return "", goerr.New("empty classification response")
		}
		return resp.Texts[0], nil
	})
	if err != nil {
		return Classification{Verdict: VerdictFailed, Detail: err.Error()}
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	switch answer {
	case "minor":
		return Classification{Verdict: VerdictMinor}
	case "substantive":
		return Classification{Verdict: VerdictSubstantive}
	default:
		logging.From(ctx).Warn("unrecognized classification answer", "answer", answer)
		return Classification{Verdict: VerdictFailed, Detail: "unrecognized classification answer: " + answer}
	}
}

type cuesResponse struct {
	Cues []model.BehavioralCue `json:"cues"`
}

func (a *Agent) extractCues(ctx context.Context, agentCtx *model.AgentContext) ([]model.BehavioralCue, error) {
	raw, err := a.generateJSON(ctx, cuesSystemPrompt, cuesSchema(), agentCtx)
	if err != nil {
		return nil, err
	}

	var parsed cuesResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse cue extraction response", goerr.V("response", raw))
	}
	return parsed.Cues, nil
}

type risksResponse struct {
	Risks []model.Risk `json:"risks"`
}

func (a *Agent) extractRisks(ctx context.Context, agentCtx *model.AgentContext) ([]model.Risk, error) {
	raw, err := a.generateJSON(ctx, risksSystemPrompt, risksSchema(), agentCtx)
	if err != nil {
		return nil, err
	}

	var parsed risksResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse risk extraction response", goerr.V("response", raw))
	}
	for _, risk := range parsed.Risks {
		if !risk.Level.IsValid() {
			return nil, goerr.New("invalid impact level in risk extraction response",
				goerr.V("level", risk.Level),
				goerr.V("description", risk.Description),
			)
		}
	}
	return parsed.Risks, nil
}

func (a *Agent) generateJSON(ctx context.Context, systemPrompt string, schema *gollem.Parameter, agentCtx *model.AgentContext) (string, error) {
	prompt, err := renderClassifyContext(agentCtx)
	if err != nil {
		return "", err
	}

	return async.Call(ctx, a.timeout, func(ctx context.Context) (string, error) {
		session, err := a.llmClient.NewSession(ctx,
			gollem.WithSessionContentType(gollem.ContentTypeJSON),
			gollem.WithSessionResponseSchema(schema),
			gollem.WithSessionSystemPrompt(systemPrompt),
		)
		if err != nil {
			return "", goerr.Wrap(err, "failed to create LLM session")
		}

		resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate analysis")
		}
		if resp == nil || len(resp.Texts) == 0 {
			return "", goerr.New("empty analysis response")
		}
		return resp.Texts[0], nil
	})
}

// ResolveSolutions maps extracted risks and cues to remediation paths. All
// risk descriptions form one strategy query and all cue interpretations a
// second; the two result sets are unioned, and each retained strategy is
// walked through its techniques to their outcomes. The result is
// deduplicated by triple identity.
func (a *Agent) ResolveSolutions(ctx context.Context, analysis *model.ProblemAnalysis) ([]*model.Solution, error) {
	if analysis.Empty() {
		return nil, nil
	}

	riskTexts := make([]string, 0, len(analysis.Risks))
	for _, risk := range analysis.Risks {
		riskTexts = append(riskTexts, risk.Description)
	}
	cueTexts := make([]string, 0, len(analysis.Cues))
	for _, cue := range analysis.Cues {
		cueTexts = append(cueTexts, cue.Interpretation)
	}

	queries := make([]string, 0, 2)
	if len(riskTexts) > 0 {
		queries = append(queries, strings.Join(riskTexts, " "))
	}
	if len(cueTexts) > 0 {
		queries = append(queries, strings.Join(cueTexts, " "))
	}

	seenStrategies := make(map[string]bool)
	var strategies []*model.Entity
	for _, query := range queries {
		results, err := a.retriever.Search(ctx, query, types.EntityStrategy, 0)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search strategies", goerr.V("query", query))
		}
		for _, strategy := range results {
			if seenStrategies[strategy.EntityID] {
				continue
			}
			seenStrategies[strategy.EntityID] = true
			strategies = append(strategies, strategy)
		}
	}

	seenSolutions := make(map[string]bool)
	var solutions []*model.Solution
	for _, strategy := range strategies {
		techniques, err := a.repo.Neighbors(ctx, strategy.ID, types.RelUses, types.DirectionOut)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk techniques", goerr.V("strategy", strategy.EntityID))
		}
		for _, technique := range techniques {
			outcomes, err := a.repo.Neighbors(ctx, technique.Entity.ID, types.RelResultsIn, types.DirectionOut)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to walk outcomes", goerr.V("technique", technique.Entity.EntityID))
			}
			for _, outcome := range outcomes {
				solution := &model.Solution{
					Strategy:  strategy,
					Technique: technique.Entity,
					Outcome:   outcome.Entity,
				}
				if seenSolutions[solution.Key()] {
					continue
				}
				seenSolutions[solution.Key()] = true
				solutions = append(solutions, solution)
			}
		}
	}
	return solutions, nil
}

type classifyContextInput struct {
	ProfileDescription string
	CurrentObjection   string
	RecentHistory      []model.Message
	LatestResponse     string
}

func renderClassifyContext(agentCtx *model.AgentContext) (string, error) {
	recent := agentCtx.History
	if len(recent) > recentExchanges {
		recent = recent[len(recent)-recentExchanges:]
	}

	var buf bytes.Buffer
	err := classifyContext.Execute(&buf, classifyContextInput{
		ProfileDescription: agentCtx.ProfileDescription,
		CurrentObjection:   agentCtx.CurrentObjection,
		RecentHistory:      recent,
		LatestResponse:     agentCtx.LastSalesmanMessage(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render analysis context")
	}
	return buf.String(), nil
}

func cuesSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "BehavioralCueExtraction",
		Description: "Behavioral cues observed in the trainee's latest response",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"cues": {
				Type:        gollem.TypeArray,
				Description: "List of observed behavioral cues",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"name": {
							Type:        gollem.TypeString,
							Description: "Short label for the cue",
							Required:    true,
						},
						"evidence_quote": {
							Type:        gollem.TypeString,
							Description: "Exact fragment of the response showing the cue",
							Required:    true,
						},
						"interpretation": {
							Type:        gollem.TypeString,
							Description: "What the cue signals about how the client will receive the response",
							Required:    true,
						},
						"impact_probability": {
							Type:        gollem.TypeNumber,
							Description: "Probability between 0 and 1 that the cue affects the deal",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

func risksSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "RiskExtraction",
		Description: "Deal risks introduced or left open by the trainee's latest response",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"risks": {
				Type:        gollem.TypeArray,
				Description: "List of identified deal risks",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"description": {
							Type:        gollem.TypeString,
							Description: "What can go wrong",
							Required:    true,
						},
						"impact": {
							Type:        gollem.TypeString,
							Description: "Concrete consequence for the deal",
							Required:    true,
						},
						"impact_level": {
							Type:        gollem.TypeString,
							Description: "One of High, Medium, Low",
							Required:    true,
						},
					},
				},
			},
		},
	}
}
