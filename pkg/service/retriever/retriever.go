package retriever

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit matches the candidate set size used at graph build time
const DefaultLimit = 20

// lexicalTokenCount is how many leading query tokens feed the substring match
const lexicalTokenCount = 5

// Service combines semantic (embedding distance) and lexical (keyword
// containment) search over knowledge graph entities. Results are a
// deduplicated union of both candidate sets with no ordering contract
// across the union.
type Service struct {
	repo      interfaces.GraphRepository
	llmClient gollem.LLMClient
}

// New creates a hybrid retriever
func New(repo interfaces.GraphRepository, llmClient gollem.LLMClient) (*Service, error) {
	if repo == nil {
		return nil, goerr.New("graph repository is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{repo: repo, llmClient: llmClient}, nil
}

// Search returns entities of the given type related to the query text.
// Both search legs run concurrently. If the embedding backend is
// unreachable the semantic leg is dropped and the lexical candidates are
// still returned rather than failing the whole call.
func (s *Service) Search(ctx context.Context, query string, entityType types.EntityType, limit int) ([]*model.Entity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := s.repo.ListEntitiesByType(ctx, entityType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list candidate entities", goerr.V("type", entityType))
	}

	var (
		semantic []*model.Entity
		lexical  []*model.Entity
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		result, err := s.semanticSearch(egCtx, query, candidates, limit)
		if err != nil {
			// Degrade gracefully: keep the lexical leg alive
			logging.From(ctx).Warn("semantic search unavailable, falling back to lexical only",
				"type", entityType.String(),
				"error", err.Error(),
			)
			return nil
		}
		semantic = result
		return nil
	})
	eg.Go(func() error {
		lexical = lexicalSearch(query, candidates, limit)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(semantic)+len(lexical))
	merged := make([]*model.Entity, 0, len(semantic)+len(lexical))
	for _, e := range append(semantic, lexical...) {
		if seen[e.EntityID] {
			continue
		}
		seen[e.EntityID] = true
		merged = append(merged, e)
	}
	return merged, nil
}

// semanticSearch ranks candidates by ascending cosine distance to the query
// embedding and returns the top limit. Candidates without an embedding are
// skipped.
func (s *Service) semanticSearch(ctx context.Context, query string, candidates []*model.Entity, limit int) ([]*model.Entity, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned for query")
	}

	queryVec := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		queryVec[i] = float32(v)
	}

	type scored struct {
		entity   *model.Entity
		distance float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		if e.Embedding == nil {
			continue
		}
		ranked = append(ranked, scored{entity: e, distance: cosineDistance(queryVec, e.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]*model.Entity, len(ranked))
	for i, r := range ranked {
		result[i] = r.entity
	}
	return result, nil
}

// lexicalSearch selects candidates whose description contains at least one
// of the first lexicalTokenCount whitespace-delimited query tokens.
// Matching is case-sensitive substring containment.
func lexicalSearch(query string, candidates []*model.Entity, limit int) []*model.Entity {
	tokens := strings.Fields(query)
	if len(tokens) > lexicalTokenCount {
		tokens = tokens[:lexicalTokenCount]
	}
	if len(tokens) == 0 {
		return nil
	}

	var result []*model.Entity
	for _, e := range candidates {
		for _, token := range tokens {
			if strings.Contains(e.Description, token) {
				result = append(result, e)
				break
			}
		}
		if len(result) >= limit {
			break
		}
	}
	return result
}

// cosineDistance is 1 - cosine similarity. Zero-norm vectors are treated as
// maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
