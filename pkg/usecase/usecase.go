package usecase

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pitch-lab/pitchcoach/pkg/agent/client"
	"github.com/pitch-lab/pitchcoach/pkg/agent/coach"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/service/graph"
	"github.com/pitch-lab/pitchcoach/pkg/service/retriever"
)

// UseCases wires the knowledge graph, the retriever and both agents into
// the session-facing operations.
type UseCases struct {
	repo        interfaces.Repository
	graph       *graph.Service
	retriever   *retriever.Service
	clientAgent *client.Agent
	coachAgent  *coach.Agent

	// one in-flight turn per session
	turnGuard sync.Map

	clientOpts []client.Option
	coachOpts  []coach.Option
}

type Option func(*UseCases)

// WithClientAgentOptions forwards options to the client agent. Intended
// for tests that shrink the reply deadline.
func WithClientAgentOptions(opts ...client.Option) Option {
	return func(uc *UseCases) {
		uc.clientOpts = opts
	}
}

// WithCoachAgentOptions forwards options to the coach agent
func WithCoachAgentOptions(opts ...coach.Option) Option {
	return func(uc *UseCases) {
		uc.coachOpts = opts
	}
}

// New builds the use case layer on top of a repository and an LLM client
func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	uc := &UseCases{repo: repo}
	for _, opt := range opts {
		opt(uc)
	}

	graphSvc, err := graph.New(repo.Graph(), llmClient)
	if err != nil {
		return nil, err
	}
	retrieverSvc, err := retriever.New(repo.Graph(), llmClient)
	if err != nil {
		return nil, err
	}
	clientAgent, err := client.New(llmClient, uc.clientOpts...)
	if err != nil {
		return nil, err
	}
	coachAgent, err := coach.New(llmClient, repo.Graph(), retrieverSvc, uc.coachOpts...)
	if err != nil {
		return nil, err
	}

	uc.graph = graphSvc
	uc.retriever = retrieverSvc
	uc.clientAgent = clientAgent
	uc.coachAgent = coachAgent
	return uc, nil
}

// Graph exposes the graph service for ingestion commands
func (uc *UseCases) Graph() *graph.Service {
	return uc.graph
}
