package client

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/utils/async"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
)

//go:embed prompt/client_system.md
var systemPrompt string

//go:embed prompt/client_context.md
var contextPromptTmpl string

var contextPrompt = template.Must(template.New("client_context").Parse(contextPromptTmpl))

// replyTimeout is the hard ceiling for one reply generation. A call that
// exceeds it is abandoned and its result, if it ever arrives, discarded.
const replyTimeout = 45 * time.Second

// Fallback replies keep the conversation moving when the model does not
// answer in time or answers with an error.
const (
	TimeoutFallback = "I'm still thinking about your offer. This is taking longer than expected."
	ErrorFallback   = "Something went wrong in our discussion."
)

// Agent simulates the client side of a sales conversation. It plays the
// persona described by the session's client profile and keeps raising the
// profile's objections.
type Agent struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

// Option configures an Agent
type Option func(*Agent)

// WithTimeout overrides the reply deadline. Intended for tests.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.timeout = d
	}
}

// New creates a client agent
func New(llmClient gollem.LLMClient, opts ...Option) (*Agent, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	agent := &Agent{
		llmClient: llmClient,
		timeout:   replyTimeout,
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent, nil
}

// GenerateReply produces the client's next utterance for the given
// conversation state. It never fails: a deadline overrun yields
// TimeoutFallback and any other failure yields ErrorFallback, so one bad
// model call cannot take the session down.
func (a *Agent) GenerateReply(ctx context.Context, agentCtx *model.AgentContext) string {
	logger := logging.From(ctx)

	prompt, err := renderContext(agentCtx)
	if err != nil {
		logger.Error("failed to render client prompt", "error", err.Error())
		return ErrorFallback
	}

	reply, err := async.Call(ctx, a.timeout, func(ctx context.Context) (string, error) {
		return a.generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("client reply timed out", "timeout", a.timeout.String())
			return TimeoutFallback
		}
		logger.Error("client reply failed", "error", err.Error())
		return ErrorFallback
	}
	return reply
}

func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	session, err := a.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate client reply")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty client reply")
	}

	reply := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if reply == "" {
		return "", goerr.New("blank client reply")
	}
	return reply, nil
}

func renderContext(agentCtx *model.AgentContext) (string, error) {
	if agentCtx == nil {
		return "", goerr.New("agent context is required")
	}
	var buf bytes.Buffer
	if err := contextPrompt.Execute(&buf, agentCtx); err != nil {
		return "", goerr.Wrap(err, "failed to render context template")
	}
	return buf.String(), nil
}
