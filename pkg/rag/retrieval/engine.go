package retrieval

import (
	"math"
	"sort"

	"rag-chat-be/internal/entity"
	"rag-chat-be/pkg/rag/similarity"
)

const (
	DefaultTopK   = 3
	DefaultLambda = 0.5
)

// ScoredChunk pairs a chunk with its relevance to the query. The score
// is always the plain cosine relevance, even when MMR decided the order.
type ScoredChunk struct {
	Score float64
	Chunk *entity.DocumentChunk
}

type Config struct {
	TopK   int
	UseMMR bool
	// Lambda trades relevance against diversity. 1 is pure relevance,
	// 0 is pure diversity.
	Lambda float64
}

func DefaultConfig() Config {
	return Config{
		TopK:   DefaultTopK,
		UseMMR: true,
		Lambda: DefaultLambda,
	}
}

type Engine struct {
	config Config
}

func NewEngine(config Config) *Engine {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.Lambda < 0 || config.Lambda > 1 {
		config.Lambda = DefaultLambda
	}
	return &Engine{config: config}
}

// Rank scores the candidates against the query vector and returns the
// top K in ranked order. Candidates without a usable embedding are
// skipped rather than failing the whole ranking.
func (e *Engine) Rank(query []float32, candidates []*entity.DocumentChunk) ([]ScoredChunk, error) {
	scored := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || len(c.Embedding) == 0 {
			continue
		}
		score, err := similarity.Cosine(query, c.Embedding)
		if err != nil {
			continue
		}
		scored = append(scored, ScoredChunk{Score: score, Chunk: c})
	}

	if len(scored) == 0 {
		return nil, nil
	}

	// Stable keeps the earlier candidate first on score ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if e.config.UseMMR && len(scored) > 1 {
		return e.rerankMMR(scored), nil
	}

	if len(scored) > e.config.TopK {
		scored = scored[:e.config.TopK]
	}
	return scored, nil
}

// rerankMMR applies maximal marginal relevance over the relevance-sorted
// candidates. The first pick is the most relevant chunk; each later pick
// maximizes lambda*relevance - (1-lambda)*maxSimilarityToSelected.
func (e *Engine) rerankMMR(scored []ScoredChunk) []ScoredChunk {
	selected := make([]ScoredChunk, 0, e.config.TopK)
	remaining := make([]ScoredChunk, len(scored))
	copy(remaining, scored)

	// scored is relevance-sorted, so index 0 is the seed pick.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < e.config.TopK && len(remaining) > 0 {
		bestIdx := -1
		bestValue := 0.0
		for i, cand := range remaining {
			// Start below any cosine value so negative similarities count
			// as diversity instead of clamping to zero.
			maxSim := math.Inf(-1)
			for _, sel := range selected {
				sim, err := similarity.Cosine(cand.Chunk.Embedding, sel.Chunk.Embedding)
				if err != nil {
					continue
				}
				if sim > maxSim {
					maxSim = sim
				}
			}
			if math.IsInf(maxSim, -1) {
				maxSim = 0
			}
			value := e.config.Lambda*cand.Score - (1-e.config.Lambda)*maxSim
			// Strict comparison keeps the first-encountered candidate on ties.
			if bestIdx == -1 || value > bestValue {
				bestIdx = i
				bestValue = value
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
