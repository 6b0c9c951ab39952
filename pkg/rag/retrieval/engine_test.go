package retrieval

import (
	"testing"

	"rag-chat-be/internal/entity"

	"github.com/google/uuid"
)

func chunk(text string, embedding []float32) *entity.DocumentChunk {
	return &entity.DocumentChunk{
		Id:        uuid.New(),
		Text:      text,
		Embedding: embedding,
	}
}

func TestRankPlainRelevance(t *testing.T) {
	engine := NewEngine(Config{TopK: 2, UseMMR: false})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("orthogonal", []float32{0, 1, 0}),
		chunk("exact", []float32{1, 0, 0}),
		chunk("close", []float32{0.9, 0.1, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Chunk.Text != "exact" || got[1].Chunk.Text != "close" {
		t.Errorf("order = [%s, %s], want [exact, close]", got[0].Chunk.Text, got[1].Chunk.Text)
	}
	if got[0].Score < 0.999 {
		t.Errorf("exact match score = %f, want ~1.0", got[0].Score)
	}
}

func TestRankSkipsUnusableEmbeddings(t *testing.T) {
	engine := NewEngine(Config{TopK: 5, UseMMR: false})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("no embedding", nil),
		chunk("zero magnitude", []float32{0, 0, 0}),
		chunk("wrong dimensions", []float32{1, 0}),
		chunk("valid", []float32{1, 0, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Chunk.Text != "valid" {
		t.Errorf("kept %q, want valid", got[0].Chunk.Text)
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	got, err := engine.Rank([]float32{1, 0}, nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRankMMRFirstPickIsMostRelevant(t *testing.T) {
	engine := NewEngine(Config{TopK: 3, UseMMR: true, Lambda: 0.5})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("b", []float32{0.7, 0.7, 0}),
		chunk("a", []float32{1, 0, 0}),
		chunk("c", []float32{0, 1, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].Chunk.Text != "a" {
		t.Errorf("first pick = %q, want a", got[0].Chunk.Text)
	}
}

func TestRankMMRPrefersDiversity(t *testing.T) {
	// Two near-duplicates of the best pick and one distinct chunk.
	// With lambda 0.5 the distinct chunk should beat the duplicate
	// even though the duplicate is more relevant.
	engine := NewEngine(Config{TopK: 2, UseMMR: true, Lambda: 0.5})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("best", []float32{0.9, 0.3, 0}),
		chunk("duplicate", []float32{0.9, 0.31, 0}),
		chunk("distinct", []float32{0.6, -0.6, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Chunk.Text != "best" {
		t.Errorf("first pick = %q, want best", got[0].Chunk.Text)
	}
	if got[1].Chunk.Text != "distinct" {
		t.Errorf("second pick = %q, want distinct", got[1].Chunk.Text)
	}
}

func TestRankMMRPureDiversityHonorsNegativeSimilarity(t *testing.T) {
	// With lambda 0 the second pick must be the candidate least similar
	// to the seed. Both candidates point away from the seed, so the
	// similarities are negative and the opposite vector has to win.
	engine := NewEngine(Config{TopK: 2, UseMMR: true, Lambda: 0})

	query := []float32{1, 0}
	candidates := []*entity.DocumentChunk{
		chunk("seed", []float32{1, 0}),
		chunk("mild", []float32{-0.1, 1}),
		chunk("opposite", []float32{-1, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Chunk.Text != "seed" {
		t.Errorf("first pick = %q, want seed", got[0].Chunk.Text)
	}
	if got[1].Chunk.Text != "opposite" {
		t.Errorf("second pick = %q, want opposite", got[1].Chunk.Text)
	}
}

func TestRankMMRReportsBaseRelevance(t *testing.T) {
	engine := NewEngine(Config{TopK: 3, UseMMR: true, Lambda: 0.3})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("a", []float32{1, 0, 0}),
		chunk("b", []float32{0.8, 0.6, 0}),
		chunk("c", []float32{0, 1, 0}),
	}

	plain := NewEngine(Config{TopK: 3, UseMMR: false})
	base, err := plain.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	baseScores := make(map[string]float64)
	for _, s := range base {
		baseScores[s.Chunk.Text] = s.Score
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for _, s := range got {
		if s.Score != baseScores[s.Chunk.Text] {
			t.Errorf("chunk %q score = %f, want base relevance %f", s.Chunk.Text, s.Score, baseScores[s.Chunk.Text])
		}
	}
}

func TestRankTopKExceedsPool(t *testing.T) {
	engine := NewEngine(Config{TopK: 10, UseMMR: true, Lambda: 0.5})

	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("a", []float32{1, 0, 0}),
		chunk("b", []float32{0.5, 0.5, 0}),
		chunk("c", []float32{0, 1, 0}),
	}

	got, err := engine.Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want every candidate once", len(got))
	}
	seen := make(map[uuid.UUID]bool)
	for _, s := range got {
		if seen[s.Chunk.Id] {
			t.Errorf("chunk %q returned twice", s.Chunk.Text)
		}
		seen[s.Chunk.Id] = true
	}
}

func TestRankMMRPureRelevanceMatchesPlain(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []*entity.DocumentChunk{
		chunk("b", []float32{0.8, 0.6, 0}),
		chunk("a", []float32{1, 0, 0}),
		chunk("c", []float32{0.5, 0.8, 0}),
	}

	plain, err := NewEngine(Config{TopK: 3, UseMMR: false}).Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	mmr, err := NewEngine(Config{TopK: 3, UseMMR: true, Lambda: 1.0}).Rank(query, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(plain) != len(mmr) {
		t.Fatalf("lengths differ: plain %d, mmr %d", len(plain), len(mmr))
	}
	for i := range plain {
		if plain[i].Chunk.Id != mmr[i].Chunk.Id {
			t.Errorf("position %d: plain %q, mmr %q", i, plain[i].Chunk.Text, mmr[i].Chunk.Text)
		}
	}
}

func TestRankTieBreaksFirstEncountered(t *testing.T) {
	engine := NewEngine(Config{TopK: 1, UseMMR: false})

	query := []float32{1, 0}
	first := chunk("first", []float32{1, 0})
	second := chunk("second", []float32{1, 0})

	got, err := engine.Rank(query, []*entity.DocumentChunk{first, second})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].Chunk.Id != first.Id {
		t.Errorf("tie winner = %q, want first", got[0].Chunk.Text)
	}
}
