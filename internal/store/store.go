// Package store implements the durable document store and vector index on
// Postgres with the pgvector extension. The chunks table is the index:
// committing a document inserts its chunks (embeddings included) and flips
// the status to indexed in one transaction, so search never observes a
// partial chunk set and every index entry has a backing chunk.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/snsupratim/pdfrag/internal/domain"
)

// DefaultEmbeddingDimensions indicates the expected length of semantic
// vectors stored in pgvector columns.
const DefaultEmbeddingDimensions = 1536

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection pool and verifies connectivity.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// CreateUser inserts a user and returns its id. Duplicate usernames map to
// domain.ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO users (username, password_hash) VALUES ($1,$2) RETURNING id
`, username, passwordHash).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return "", domain.ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (string, string, error) {
	var id, hash string
	err := s.DB.QueryRowContext(ctx, `
SELECT id, password_hash FROM users WHERE username=$1
`, username).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", domain.ErrNotFound
		}
		return "", "", fmt.Errorf("get user: %w", err)
	}
	return id, hash, nil
}

// CreateDocument records a new pending document for the owner.
func (s *Store) CreateDocument(ctx context.Context, ownerID, filename string) (domain.Document, error) {
	doc := domain.Document{OwnerID: ownerID, Filename: filename, Status: domain.StatusPending}
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO documents (owner_id, filename, status) VALUES ($1,$2,'pending')
RETURNING id, uploaded_at
`, ownerID, filename).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return domain.Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Commit inserts the document's chunks and marks it indexed in a single
// transaction. A document that is no longer pending cannot be committed.
func (s *Store) Commit(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (id, document_id, owner_id, seq, content, embedding)
VALUES ($1,$2,$3,$4,$5,$6)
`)
		if err != nil {
			return fmt.Errorf("prepare chunk insert: %w", err)
		}
		for _, ch := range chunks {
			if _, err := stmt.ExecContext(ctx, ch.ID, ch.DocumentID, ch.OwnerID, ch.Seq, ch.Text, pgvector.NewVector(ch.Embedding)); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("insert chunk %d: %w", ch.Seq, err)
			}
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("close chunk insert: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
UPDATE documents SET status='indexed', chunk_count=$2 WHERE id=$1 AND status='pending'
`, documentID, len(chunks))
	if err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s is not pending", documentID)
	}

	return tx.Commit()
}

func (s *Store) MarkFailed(ctx context.Context, documentID, reason string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE documents SET status='failed', fail_reason=$2 WHERE id=$1
`, documentID, reason)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, filename, status, COALESCE(fail_reason,''), chunk_count, uploaded_at
FROM documents WHERE owner_id=$1 ORDER BY uploaded_at DESC, id
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc := domain.Document{OwnerID: ownerID}
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Status, &doc.FailReason, &doc.ChunkCount, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DocumentChunks returns every chunk of an owner's indexed document in
// sequence order, without embeddings.
func (s *Store) DocumentChunks(ctx context.Context, ownerID, documentID string) ([]domain.Chunk, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT c.id, c.seq, c.content
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.owner_id=$1 AND c.document_id=$2 AND d.status='indexed'
ORDER BY c.seq
`, ownerID, documentID)
	if err != nil {
		return nil, fmt.Errorf("document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		ch := domain.Chunk{DocumentID: documentID, OwnerID: ownerID}
		if err := rows.Scan(&ch.ID, &ch.Seq, &ch.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

func (s *Store) LatestIndexed(ctx context.Context, ownerID string) (domain.Document, error) {
	doc := domain.Document{OwnerID: ownerID, Status: domain.StatusIndexed}
	err := s.DB.QueryRowContext(ctx, `
SELECT id, filename, chunk_count, uploaded_at
FROM documents WHERE owner_id=$1 AND status='indexed'
ORDER BY uploaded_at DESC, id LIMIT 1
`, ownerID).Scan(&doc.ID, &doc.Filename, &doc.ChunkCount, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, domain.ErrNoDocuments
		}
		return domain.Document{}, fmt.Errorf("latest indexed: %w", err)
	}
	return doc, nil
}

// Search returns the owner's top-k chunks by cosine similarity. Only
// chunks of indexed documents are visible; ties break by chunk insertion
// order (the serial rid column) so results are reproducible.
func (s *Store) Search(ctx context.Context, ownerID string, vector []float32, k int) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	if k <= 0 {
		k = 5
	}

	vec := pgvector.NewVector(vector)
	rows, err := s.DB.QueryContext(ctx, `
SELECT c.id, c.document_id, c.seq, c.content, c.embedding <=> $2 AS distance
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.owner_id=$1 AND d.status='indexed'
ORDER BY c.embedding <=> $2, c.rid
LIMIT $3
`, ownerID, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			ch       domain.Chunk
			distance float64
		)
		ch.OwnerID = ownerID
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Seq, &ch.Text, &distance); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, domain.SearchResult{Chunk: ch, Score: 1 - distance})
	}
	return results, rows.Err()
}
