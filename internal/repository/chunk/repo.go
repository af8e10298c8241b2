package chunk

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/parchment-labs/parchment/internal/db"
	"github.com/parchment-labs/parchment/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "chunk:"
	indexID   = domain.KeyPrefix + "chunks:idx"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo persists chunks as Redis hashes under a single HNSW-indexed prefix.
// The chunk id is the hash key suffix, so re-upserting the same id
// overwrites in place; that is the idempotence mechanism for re-indexing.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a chunk repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// WithHNSW sets the HNSW build parameters used by EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexID)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexID,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "doc_id", Type: db.IndexFieldTag},
			{Name: "page", Type: db.IndexFieldNumeric},
			{Name: "seq", Type: db.IndexFieldNumeric},
			{
				Name:              "__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create chunk index: %w", err)
	}
	return nil
}

// Upsert writes one chunk with its vector. An existing id is overwritten.
func (r *Repo) Upsert(ctx context.Context, c domain.Chunk, vector []float32) error {
	if err := r.store.HSet(ctx, keyPrefix+c.ID(), buildHashFields(c, vector)); err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ID(), err)
	}
	return nil
}

// UpsertMulti writes several chunks in one pipelined round-trip.
func (r *Repo) UpsertMulti(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{Key: keyPrefix + c.ID(), Fields: buildHashFields(c, vectors[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// SearchKNN returns the k nearest chunks by cosine similarity, best first.
// A store holding fewer than k chunks returns all of them.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexID,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__content", "doc_id", "source", "page", "seq", "overlap", "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	results := make([]domain.ScoredChunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, domain.ScoredChunk{
			Chunk: parseHashFields(entry.Fields),
			Score: entry.Score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// Count returns the number of stored chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexID, "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Sample enumerates up to limit stored chunks, ordered by id so the same
// store contents always yield the same sample.
func (r *Repo) Sample(ctx context.Context, limit int) ([]domain.Chunk, error) {
	sr, err := r.store.SearchList(ctx, indexID, "*", 0, limit,
		[]string{"__content", "doc_id", "source", "page", "seq", "overlap"})
	if err != nil {
		return nil, fmt.Errorf("sample chunks: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, parseHashFields(entry.Fields))
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocID != chunks[j].DocID {
			return chunks[i].DocID < chunks[j].DocID
		}
		return chunks[i].Seq < chunks[j].Seq
	})
	return chunks, nil
}

func buildHashFields(c domain.Chunk, vector []float32) map[string]string {
	return map[string]string{
		"__content": c.Text,
		"__vector":  vectorToBytes(vector),
		"doc_id":    c.DocID,
		"source":    c.Source,
		"page":      strconv.Itoa(c.Page),
		"seq":       strconv.Itoa(c.Seq),
		"overlap":   strconv.Itoa(c.Overlap),
	}
}

func parseHashFields(m map[string]string) domain.Chunk {
	page, _ := strconv.Atoi(m["page"])
	seq, _ := strconv.Atoi(m["seq"])
	overlap, _ := strconv.Atoi(m["overlap"])
	return domain.Chunk{
		DocID:   m["doc_id"],
		Seq:     seq,
		Text:    m["__content"],
		Source:  m["source"],
		Page:    page,
		Overlap: overlap,
	}
}
