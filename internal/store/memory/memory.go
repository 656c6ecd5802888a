// Package memory is an in-memory implementation of the document store and
// vector index, used for dev mode and tests. Each owner gets an isolated
// partition with its own lock, so operations for different owners never
// contend and a query scans only that owner's entries.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snsupratim/pdfrag/internal/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

type partition struct {
	mu       sync.RWMutex
	docs     map[string]*domain.Document
	docOrder []string
	chunks   map[string][]domain.Chunk
	entries  []entry
}

type user struct {
	id   string
	hash string
}

// Store keeps everything in process memory.
type Store struct {
	mu       sync.RWMutex
	parts    map[string]*partition
	users    map[string]user
	docOwner map[string]string
}

func New() *Store {
	return &Store{
		parts:    make(map[string]*partition),
		users:    make(map[string]user),
		docOwner: make(map[string]string),
	}
}

func (s *Store) part(ownerID string) *partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[ownerID]
	if !ok {
		p = &partition{
			docs:   make(map[string]*domain.Document),
			chunks: make(map[string][]domain.Chunk),
		}
		s.parts[ownerID] = p
	}
	return p
}

func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return "", domain.ErrUserExists
	}
	id := uuid.New().String()
	s.users[username] = user{id: id, hash: passwordHash}
	return id, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return "", "", domain.ErrNotFound
	}
	return u.id, u.hash, nil
}

func (s *Store) CreateDocument(_ context.Context, ownerID, filename string) (domain.Document, error) {
	p := s.part(ownerID)
	doc := domain.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Filename:   filename,
		Status:     domain.StatusPending,
		UploadedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	p.docs[doc.ID] = &doc
	p.docOrder = append(p.docOrder, doc.ID)
	p.mu.Unlock()

	s.mu.Lock()
	s.docOwner[doc.ID] = ownerID
	s.mu.Unlock()
	return doc, nil
}

func (s *Store) ownerOf(documentID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.docOwner[documentID]
	return owner, ok
}

// Commit stores the chunks and flips the document to indexed under the
// partition lock, so a concurrent Search sees either none of the
// document's entries or all of them.
func (s *Store) Commit(_ context.Context, documentID string, chunks []domain.Chunk) error {
	owner, ok := s.ownerOf(documentID)
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	p := s.part(owner)

	p.mu.Lock()
	defer p.mu.Unlock()
	doc, ok := p.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	if doc.Status != domain.StatusPending {
		return fmt.Errorf("document %s is not pending", documentID)
	}
	for _, ch := range chunks {
		p.entries = append(p.entries, entry{chunk: ch, vector: ch.Embedding})
	}
	p.chunks[documentID] = chunks
	doc.Status = domain.StatusIndexed
	doc.ChunkCount = len(chunks)
	return nil
}

func (s *Store) MarkFailed(_ context.Context, documentID, reason string) error {
	owner, ok := s.ownerOf(documentID)
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	p := s.part(owner)

	p.mu.Lock()
	defer p.mu.Unlock()
	doc, ok := p.docs[documentID]
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	doc.Status = domain.StatusFailed
	doc.FailReason = reason
	return nil
}

func (s *Store) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	p := s.part(ownerID)
	p.mu.RLock()
	defer p.mu.RUnlock()

	docs := make([]domain.Document, 0, len(p.docOrder))
	// Most recent first, matching the SQL store.
	for i := len(p.docOrder) - 1; i >= 0; i-- {
		docs = append(docs, *p.docs[p.docOrder[i]])
	}
	return docs, nil
}

func (s *Store) DocumentChunks(_ context.Context, ownerID, documentID string) ([]domain.Chunk, error) {
	p := s.part(ownerID)
	p.mu.RLock()
	defer p.mu.RUnlock()

	doc, ok := p.docs[documentID]
	if !ok || doc.Status != domain.StatusIndexed {
		return nil, nil
	}
	out := make([]domain.Chunk, len(p.chunks[documentID]))
	copy(out, p.chunks[documentID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *Store) LatestIndexed(_ context.Context, ownerID string) (domain.Document, error) {
	p := s.part(ownerID)
	p.mu.RLock()
	defer p.mu.RUnlock()

	for i := len(p.docOrder) - 1; i >= 0; i-- {
		doc := p.docs[p.docOrder[i]]
		if doc.Status == domain.StatusIndexed {
			return *doc, nil
		}
	}
	return domain.Document{}, domain.ErrNoDocuments
}

// Search runs a brute-force cosine similarity scan over the owner's
// committed entries. Results come back in descending score order; equal
// scores keep insertion order.
func (s *Store) Search(_ context.Context, ownerID string, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 5
	}
	p := s.part(ownerID)
	p.mu.RLock()
	defer p.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(p.entries))
	for _, e := range p.entries {
		results = append(results, domain.SearchResult{Chunk: e.chunk, Score: cosine(vector, e.vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
