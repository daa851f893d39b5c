package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/pitch-lab/pitchcoach/pkg/agent/client"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return c.newSessionFn(ctx, options...)
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

// mockSession is a mock gollem Session for testing
type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *mockSession) History() (*gollem.History, error) {
	return nil, errors.New("not implemented")
}

func (s *mockSession) AppendHistory(*gollem.History) error {
	return errors.New("not implemented")
}

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, errors.New("not implemented")
}

func textLLM(fn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)) *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockSession{generateContentFn: fn}, nil
		},
	}
}

func testContext() *model.AgentContext {
	agentCtx := &model.AgentContext{
		ProfileID:          "profile-nexumora",
		ProfileDescription: "A skeptical mid-market CTO",
		CurrentObjection:   "the price is too high",
		AllObjections:      []string{"the price is too high", "integration looks painful"},
	}
	agentCtx.Append(types.RoleSalesman, "Our platform pays for itself within a quarter.")
	return agentCtx
}

func TestGenerateReply(t *testing.T) {
	llm := textLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		gt.Array(t, input).Length(1)
		return &gollem.Response{Texts: []string{"A quarter? Show me one customer of our size who saw that."}}, nil
	})
	agent, err := client.New(llm)
	gt.NoError(t, err).Required()

	reply := agent.GenerateReply(context.Background(), testContext())
	gt.String(t, reply).Contains("A quarter?")
}

func TestGenerateReply_Timeout(t *testing.T) {
	llm := textLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		select {
		case <-time.After(10 * time.Second):
			return &gollem.Response{Texts: []string{"too late"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	agent, err := client.New(llm, client.WithTimeout(50*time.Millisecond))
	gt.NoError(t, err).Required()

	start := time.Now()
	reply := agent.GenerateReply(context.Background(), testContext())
	gt.Value(t, reply).Equal(client.TimeoutFallback)
	gt.Bool(t, time.Since(start) < 5*time.Second).True()
}

func TestGenerateReply_SlowCallIsAbandoned(t *testing.T) {
	// The generation goroutine ignores cancellation; the caller must not
	// wait for it.
	llm := textLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		time.Sleep(2 * time.Second)
		return &gollem.Response{Texts: []string{"stale answer"}}, nil
	})
	agent, err := client.New(llm, client.WithTimeout(50*time.Millisecond))
	gt.NoError(t, err).Required()

	start := time.Now()
	reply := agent.GenerateReply(context.Background(), testContext())
	gt.Value(t, reply).Equal(client.TimeoutFallback)
	gt.Bool(t, time.Since(start) < time.Second).True()
}

func TestGenerateReply_Error(t *testing.T) {
	llm := textLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		return nil, errors.New("model unavailable")
	})
	agent, err := client.New(llm)
	gt.NoError(t, err).Required()

	reply := agent.GenerateReply(context.Background(), testContext())
	gt.Value(t, reply).Equal(client.ErrorFallback)
}

func TestGenerateReply_EmptyResponse(t *testing.T) {
	llm := textLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
		return &gollem.Response{}, nil
	})
	agent, err := client.New(llm)
	gt.NoError(t, err).Required()

	reply := agent.GenerateReply(context.Background(), testContext())
	gt.Value(t, reply).Equal(client.ErrorFallback)
}
