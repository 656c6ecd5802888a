package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/snsupratim/pdfrag/internal/domain"
)

type fakeStore struct {
	docs       map[string]domain.Document
	committed  map[string][]domain.Chunk
	failReason map[string]string
	commitErr  error
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:       make(map[string]domain.Document),
		committed:  make(map[string][]domain.Chunk),
		failReason: make(map[string]string),
	}
}

func (s *fakeStore) CreateDocument(_ context.Context, ownerID, filename string) (domain.Document, error) {
	s.nextID++
	doc := domain.Document{
		ID:       string(rune('a' + s.nextID)),
		OwnerID:  ownerID,
		Filename: filename,
		Status:   domain.StatusPending,
	}
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *fakeStore) Commit(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed[documentID] = chunks
	doc := s.docs[documentID]
	doc.Status = domain.StatusIndexed
	doc.ChunkCount = len(chunks)
	s.docs[documentID] = doc
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, documentID, reason string) error {
	s.failReason[documentID] = reason
	doc := s.docs[documentID]
	doc.Status = domain.StatusFailed
	doc.FailReason = reason
	s.docs[documentID] = doc
	return nil
}

func (s *fakeStore) ListDocuments(context.Context, string) ([]domain.Document, error) {
	return nil, nil
}

func (s *fakeStore) DocumentChunks(context.Context, string, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (s *fakeStore) LatestIndexed(context.Context, string) (domain.Document, error) {
	return domain.Document{}, domain.ErrNoDocuments
}

type fakeEmbedder struct {
	err   error
	short bool
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func testIngestor(store *fakeStore, emb *fakeEmbedder) *Ingestor {
	ing := NewIngestor(store, emb, NewChunker(WithChunkSize(100), WithOverlap(20)), time.Second, log.New(io.Discard, "", 0))
	ing.Extract = func(raw []byte) (string, error) { return string(raw), nil }
	return ing
}

func TestIngestSuccess(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	ing := testIngestor(store, emb)

	text := strings.Repeat("z", 250)
	doc, err := ing.Ingest(context.Background(), "owner-1", "report.pdf", []byte(text))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if doc.Status != domain.StatusIndexed {
		t.Fatalf("status = %s, want indexed", doc.Status)
	}
	chunks := store.committed[doc.ID]
	if len(chunks) == 0 {
		t.Fatal("no chunks committed")
	}
	if doc.ChunkCount != len(chunks) {
		t.Fatalf("chunk count %d, committed %d", doc.ChunkCount, len(chunks))
	}
	for i, ch := range chunks {
		if ch.Seq != i {
			t.Fatalf("chunk %d has seq %d", i, ch.Seq)
		}
		if ch.OwnerID != "owner-1" {
			t.Fatalf("chunk %d owner %q", i, ch.OwnerID)
		}
		if ch.DocumentID != doc.ID {
			t.Fatalf("chunk %d document %q", i, ch.DocumentID)
		}
		if len(ch.Embedding) == 0 {
			t.Fatalf("chunk %d has no embedding", i)
		}
	}
}

func TestIngestEncoderFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{err: errors.New("embedding service down")}
	ing := testIngestor(store, emb)

	doc, err := ing.Ingest(context.Background(), "owner-1", "report.pdf", []byte(strings.Repeat("z", 250)))
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.KindEncodingUnavailable) {
		t.Fatalf("error kind = %v, want encoding_unavailable", err)
	}
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", doc.Status)
	}
	if doc.FailReason == "" {
		t.Fatal("fail reason not recorded")
	}
	// Nothing may reach the index when encoding fails.
	if len(store.committed) != 0 {
		t.Fatalf("chunks committed after encoder failure: %v", store.committed)
	}
	if store.failReason[doc.ID] == "" {
		t.Fatal("store was not told the document failed")
	}
}

func TestIngestEmbeddingCountMismatch(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{short: true}
	ing := testIngestor(store, emb)

	doc, err := ing.Ingest(context.Background(), "owner-1", "report.pdf", []byte(strings.Repeat("z", 250)))
	if !domain.IsKind(err, domain.KindEncodingUnavailable) {
		t.Fatalf("error kind = %v, want encoding_unavailable", err)
	}
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", doc.Status)
	}
	if len(store.committed) != 0 {
		t.Fatal("partial embeddings must not commit")
	}
}

func TestIngestUnreadableDocument(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	ing := testIngestor(store, emb)
	ing.Extract = func([]byte) (string, error) { return "", errors.New("malformed xref table") }

	doc, err := ing.Ingest(context.Background(), "owner-1", "broken.pdf", []byte("not a pdf"))
	if !domain.IsKind(err, domain.KindUnreadableDocument) {
		t.Fatalf("error kind = %v, want unreadable_document", err)
	}
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", doc.Status)
	}
	if emb.calls != 0 {
		t.Fatal("encoder must not run for unreadable documents")
	}
}

func TestIngestEmptyTextIndexesZeroChunks(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{}
	ing := testIngestor(store, emb)

	doc, err := ing.Ingest(context.Background(), "owner-1", "scanned.pdf", nil)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if doc.Status != domain.StatusIndexed {
		t.Fatalf("status = %s, want indexed", doc.Status)
	}
	if got := store.committed[doc.ID]; len(got) != 0 {
		t.Fatalf("expected zero chunks, got %d", len(got))
	}
	if emb.calls != 0 {
		t.Fatal("encoder must not run when there is nothing to embed")
	}
}

func TestIngestCommitFailure(t *testing.T) {
	store := newFakeStore()
	store.commitErr = errors.New("connection reset")
	emb := &fakeEmbedder{}
	ing := testIngestor(store, emb)

	doc, err := ing.Ingest(context.Background(), "owner-1", "report.pdf", []byte(strings.Repeat("z", 250)))
	if err == nil {
		t.Fatal("expected error")
	}
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", doc.Status)
	}
}
