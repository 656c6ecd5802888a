package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/snsupratim/pdfrag/internal/domain"
)

func mustIngest(t *testing.T, s *Store, ownerID, filename string, vectors [][]float32) domain.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := s.CreateDocument(ctx, ownerID, filename)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-%d", doc.ID, i),
			DocumentID: doc.ID,
			OwnerID:    ownerID,
			Seq:        i,
			Text:       fmt.Sprintf("chunk %d of %s", i, filename),
			Embedding:  v,
		}
	}
	if err := s.Commit(ctx, doc.ID, chunks); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return doc
}

func TestSearchIsOwnerScoped(t *testing.T) {
	s := New()
	ctx := context.Background()

	mustIngest(t, s, "alice", "a.pdf", [][]float32{{1, 0}, {0.9, 0.1}})
	mustIngest(t, s, "bob", "b.pdf", [][]float32{{1, 0}})

	got, err := s.Search(ctx, "alice", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Chunk.OwnerID != "alice" {
			t.Fatalf("result leaked from owner %q", r.Chunk.OwnerID)
		}
	}

	// An owner with nothing indexed gets an empty result, not an error.
	got, err = s.Search(ctx, "carol", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results for empty owner, got %d", len(got))
	}
}

func TestSearchOrderingAndTieBreak(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Two identical vectors tie on score; insertion order must decide.
	mustIngest(t, s, "alice", "a.pdf", [][]float32{{0, 1}, {1, 0}, {1, 0}})

	for i := 0; i < 5; i++ {
		got, err := s.Search(ctx, "alice", []float32{1, 0}, 2)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 results, got %d", len(got))
		}
		if got[0].Chunk.Seq != 1 || got[1].Chunk.Seq != 2 {
			t.Fatalf("tie not broken by insertion order: seqs %d, %d", got[0].Chunk.Seq, got[1].Chunk.Seq)
		}
		if got[0].Score < got[1].Score {
			t.Fatalf("results not in descending score order: %f < %f", got[0].Score, got[1].Score)
		}
	}
}

func TestUncommittedChunksInvisible(t *testing.T) {
	s := New()
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "alice", "pending.pdf")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	got, err := s.Search(ctx, "alice", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("pending document visible to search: %d results", len(got))
	}
	chunks, err := s.DocumentChunks(ctx, "alice", doc.ID)
	if err != nil {
		t.Fatalf("document chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatal("pending document exposed chunks")
	}
}

func TestCommitRequiresPending(t *testing.T) {
	s := New()
	ctx := context.Background()

	doc := mustIngest(t, s, "alice", "a.pdf", [][]float32{{1, 0}})
	if err := s.Commit(ctx, doc.ID, nil); err == nil {
		t.Fatal("second commit of the same document must fail")
	}
	if err := s.Commit(ctx, "no-such-doc", nil); err == nil {
		t.Fatal("commit of unknown document must fail")
	}
}

func TestLatestIndexedSkipsFailed(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := mustIngest(t, s, "alice", "first.pdf", [][]float32{{1, 0}})

	broken, err := s.CreateDocument(ctx, "alice", "broken.pdf")
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if err := s.MarkFailed(ctx, broken.ID, "malformed"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, err := s.LatestIndexed(ctx, "alice")
	if err != nil {
		t.Fatalf("latest indexed: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("latest indexed = %s, want %s", got.ID, first.ID)
	}

	if _, err := s.LatestIndexed(ctx, "bob"); !errors.Is(err, domain.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestListDocumentsMostRecentFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := mustIngest(t, s, "alice", "a.pdf", nil)
	b := mustIngest(t, s, "alice", "b.pdf", nil)

	docs, err := s.ListDocuments(ctx, "alice")
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != b.ID || docs[1].ID != a.ID {
		t.Fatal("documents not ordered most recent first")
	}
}

func TestDocumentChunksSeqOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	doc := mustIngest(t, s, "alice", "a.pdf", [][]float32{{1, 0}, {0, 1}, {1, 1}})
	chunks, err := s.DocumentChunks(ctx, "alice", doc.ID)
	if err != nil {
		t.Fatalf("document chunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Seq != i {
			t.Fatalf("chunk %d has seq %d", i, ch.Seq)
		}
	}

	// Another owner cannot read the document's chunks.
	chunks, err = s.DocumentChunks(ctx, "bob", doc.ID)
	if err != nil {
		t.Fatalf("document chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatal("chunks visible across owners")
	}
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "alice", "hash-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, "alice", "hash-2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	gotID, hash, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if gotID != id || hash != "hash-1" {
		t.Fatalf("got (%s, %s), want (%s, hash-1)", gotID, hash, id)
	}
	if _, _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
