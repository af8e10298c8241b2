package chunk

import (
	"context"
	"errors"
	"testing"

	"github.com/parchment-labs/parchment/internal/db"
	"github.com/parchment-labs/parchment/internal/domain"
)

func testChunk(seq int) domain.Chunk {
	return domain.Chunk{
		DocID:   "lease.pdf",
		Seq:     seq,
		Text:    "clause",
		Source:  "lease.pdf",
		Page:    3,
		Overlap: 200,
	}
}

func TestUpsert_KeyAndFields(t *testing.T) {
	var gotKey string
	var gotFields map[string]string
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			gotKey = key
			gotFields = fields
			return nil
		},
	}
	repo := New(ms, testVectorDim)

	err := repo.Upsert(context.Background(), testChunk(7), []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "parchment:chunk:lease.pdf_chunk_7" {
		t.Errorf("key %q", gotKey)
	}
	if gotFields["doc_id"] != "lease.pdf" || gotFields["seq"] != "7" || gotFields["page"] != "3" {
		t.Errorf("fields %v", gotFields)
	}
	if len(gotFields["__vector"]) != testVectorDim*4 {
		t.Errorf("vector blob %d bytes, want %d", len(gotFields["__vector"]), testVectorDim*4)
	}
}

func TestUpsertMulti_LengthMismatch(t *testing.T) {
	repo := New(&mockStore{}, testVectorDim)

	err := repo.UpsertMulti(context.Background(), []domain.Chunk{testChunk(0)}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestEnsureIndex_SkipsWhenExists(t *testing.T) {
	created := false
	ms := &mockStore{
		indexExistsFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
		createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error {
			created = true
			return nil
		},
	}
	repo := New(ms, testVectorDim)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("index recreated despite existing")
	}
}

func TestEnsureIndex_CreatesVectorField(t *testing.T) {
	var gotDef *db.IndexDefinition
	ms := &mockStore{
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			gotDef = def
			return nil
		},
	}
	repo := New(ms, testVectorDim).WithHNSW(HNSWConfig{M: 16, EFConstruct: 200})

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDef == nil {
		t.Fatal("index not created")
	}
	if gotDef.Name != "parchment:chunks:idx" {
		t.Errorf("index name %q", gotDef.Name)
	}

	var vec *db.IndexField
	for i := range gotDef.Fields {
		if gotDef.Fields[i].Type == db.IndexFieldVector {
			vec = &gotDef.Fields[i]
		}
	}
	if vec == nil {
		t.Fatal("no vector field in definition")
	}
	if vec.VectorDim != testVectorDim || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("vector field %+v", vec)
	}
	if vec.VectorM != 16 || vec.VectorEFConstruct != 200 {
		t.Errorf("hnsw params %d/%d", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestSearchKNN_ParsesAndSorts(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			if q.K != 4 {
				t.Errorf("k %d", q.K)
			}
			return &db.SearchResult{
				Total: 2,
				Entries: []db.SearchEntry{
					{
						Key:   "parchment:chunk:lease.pdf_chunk_1",
						Score: 0.4,
						Fields: map[string]string{
							"__content": "low", "doc_id": "lease.pdf", "source": "lease.pdf",
							"page": "2", "seq": "1", "overlap": "200",
						},
					},
					{
						Key:   "parchment:chunk:lease.pdf_chunk_0",
						Score: 0.9,
						Fields: map[string]string{
							"__content": "high", "doc_id": "lease.pdf", "source": "lease.pdf",
							"page": "1", "seq": "0", "overlap": "0",
						},
					},
				},
			}, nil
		},
	}
	repo := New(ms, testVectorDim)

	out, err := repo.SearchKNN(context.Background(), []float32{1, 0, 0, 0}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d results", len(out))
	}
	if out[0].Score != 0.9 || out[0].Chunk.Text != "high" {
		t.Errorf("best first violated: %+v", out[0])
	}
	if out[0].Chunk.Page != 1 || out[0].Chunk.Seq != 0 {
		t.Errorf("metadata not parsed: %+v", out[0].Chunk)
	}
	if got := out[0].Chunk.Citation(); got != "[lease.pdf p.1 chunk_0]" {
		t.Errorf("citation %q", got)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	repo := New(&mockStore{}, testVectorDim)

	out, err := repo.SearchKNN(context.Background(), []float32{1}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d results from empty store", len(out))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	wantErr := errors.New("ft.search failed")
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
			return nil, wantErr
		},
	}
	repo := New(ms, testVectorDim)

	if _, err := repo.SearchKNN(context.Background(), []float32{1}, 4); !errors.Is(err, wantErr) {
		t.Errorf("got %v", err)
	}
}

func TestCount(t *testing.T) {
	ms := &mockStore{
		searchCountFn: func(_ context.Context, index, query string) (int, error) {
			if index != "parchment:chunks:idx" || query != "*" {
				t.Errorf("count query %s %s", index, query)
			}
			return 12, nil
		},
	}
	repo := New(ms, testVectorDim)

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("count %d", n)
	}
}

func TestSample_Deterministic(t *testing.T) {
	entries := []db.SearchEntry{
		{Fields: map[string]string{"doc_id": "b.pdf", "seq": "0", "__content": "b0"}},
		{Fields: map[string]string{"doc_id": "a.pdf", "seq": "1", "__content": "a1"}},
		{Fields: map[string]string{"doc_id": "a.pdf", "seq": "0", "__content": "a0"}},
	}
	ms := &mockStore{
		searchListFn: func(_ context.Context, _, _ string, _, _ int, _ []string) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 3, Entries: entries}, nil
		},
	}
	repo := New(ms, testVectorDim)

	out, err := repo.Sample(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a0", "a1", "b0"}
	for i, c := range out {
		if c.Text != want[i] {
			t.Fatalf("order %v", out)
		}
	}
}
