package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/repository/memory"
	"github.com/pitch-lab/pitchcoach/pkg/service/retriever"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("no session configured")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return c.generateEmbeddingFn(ctx, dimension, input)
}

// axisEmbedding returns a one-hot embedding so cosine distances are exact:
// identical axes are distance 0, different axes are distance 1.
func axisEmbedding(axis int) []float32 {
	vec := make([]float32, model.EmbeddingDimension)
	vec[axis] = 1
	return vec
}

func axisEmbedder(axisByQuery map[string]int) func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
		result := make([][]float64, len(input))
		for i, text := range input {
			vec := make([]float64, dimension)
			vec[axisByQuery[text]] = 1
			result[i] = vec
		}
		return result, nil
	}
}

func putEntity(t *testing.T, repo *memory.Memory, entityID string, entityType types.EntityType, desc string, axis int) *model.Entity {
	t.Helper()
	entity, err := repo.Graph().PutEntity(context.Background(), &model.Entity{
		EntityID:    entityID,
		Name:        entityID,
		Type:        entityType,
		Description: desc,
		Embedding:   axisEmbedding(axis),
	})
	gt.NoError(t, err).Required()
	return entity
}

func TestSearch(t *testing.T) {
	repo := memory.New()
	putEntity(t, repo, "strat-roi", types.EntityStrategy, "reframe the price as an investment", 0)
	putEntity(t, repo, "strat-proof", types.EntityStrategy, "offer social proof from similar customers", 1)
	putEntity(t, repo, "obj-price", types.EntityObjection, "the price is too high for our budget", 0)

	llm := &mockLLMClient{generateEmbeddingFn: axisEmbedder(map[string]int{
		"worried about the price": 0,
	})}
	svc, err := retriever.New(repo.Graph(), llm)
	gt.NoError(t, err).Required()

	t.Run("returns only the requested type", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "worried about the price", types.EntityStrategy, 0)
		gt.NoError(t, err).Required()
		for _, e := range results {
			gt.Value(t, e.Type).Equal(types.EntityStrategy)
		}
	})

	t.Run("union covers semantic and lexical hits without duplicates", func(t *testing.T) {
		// "price" appears in strat-roi's description (lexical hit) and
		// strat-roi also shares the query's embedding axis (semantic hit);
		// it must appear once. strat-proof is in the semantic top-k only.
		results, err := svc.Search(context.Background(), "worried about the price", types.EntityStrategy, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(2)

		seen := map[string]int{}
		for _, e := range results {
			seen[e.EntityID]++
		}
		gt.Number(t, seen["strat-roi"]).Equal(1)
		gt.Number(t, seen["strat-proof"]).Equal(1)
	})

	t.Run("semantic limit keeps the nearest candidates", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "worried about the price", types.EntityStrategy, 1)
		gt.NoError(t, err).Required()
		// limit 1 semantic slot goes to the distance-0 match; the lexical
		// leg independently returns its own (identical) hit.
		gt.Array(t, results).Length(1)
		gt.Value(t, results[0].EntityID).Equal("strat-roi")
	})

	t.Run("lexical matching is token based", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "investment timing concerns", types.EntityStrategy, 0)
		gt.NoError(t, err).Required()
		ids := map[string]bool{}
		for _, e := range results {
			ids[e.EntityID] = true
		}
		gt.Bool(t, ids["strat-roi"]).True()
	})
}

func TestSearch_EmbeddingUnavailable(t *testing.T) {
	repo := memory.New()
	putEntity(t, repo, "strat-roi", types.EntityStrategy, "reframe the price as an investment", 0)
	putEntity(t, repo, "strat-proof", types.EntityStrategy, "offer social proof from similar customers", 1)

	llm := &mockLLMClient{generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
		return nil, errors.New("embedding backend unreachable")
	}}
	svc, err := retriever.New(repo.Graph(), llm)
	gt.NoError(t, err).Required()

	results, err := svc.Search(context.Background(), "worried about the price", types.EntityStrategy, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1)
	gt.Value(t, results[0].EntityID).Equal("strat-roi")
}
