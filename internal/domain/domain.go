package domain

import "time"

// DocumentStatus tracks a document through its ingestion lifecycle.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusIndexed DocumentStatus = "indexed"
	StatusFailed  DocumentStatus = "failed"
)

// Document is a single uploaded PDF owned by one user. A re-upload of the
// same file creates a new Document with its own identity.
type Document struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"-"`
	Filename   string         `json:"filename"`
	Status     DocumentStatus `json:"status"`
	FailReason string         `json:"fail_reason,omitempty"`
	ChunkCount int            `json:"chunk_count"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// Chunk is a bounded contiguous span of a document's extracted text, the
// unit of embedding and retrieval. Seq preserves document order.
type Chunk struct {
	ID         string
	DocumentID string
	OwnerID    string
	Seq        int
	Text       string
	Embedding  []float32
}

// SearchResult is a matching chunk with its cosine similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}
