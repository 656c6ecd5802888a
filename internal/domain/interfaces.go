package domain

import "context"

// DocumentStore is the durable source of truth for documents and their
// chunks. Commit makes a document's chunks visible to search atomically:
// a concurrent reader sees either no chunks and status pending, or all
// chunks and status indexed, never a partial set.
type DocumentStore interface {
	CreateDocument(ctx context.Context, ownerID, filename string) (Document, error)
	Commit(ctx context.Context, documentID string, chunks []Chunk) error
	MarkFailed(ctx context.Context, documentID, reason string) error
	ListDocuments(ctx context.Context, ownerID string) ([]Document, error)
	// DocumentChunks returns every chunk of an indexed document in Seq order.
	DocumentChunks(ctx context.Context, ownerID, documentID string) ([]Chunk, error)
	// LatestIndexed returns the owner's most recently indexed document,
	// or ErrNoDocuments when the owner has none.
	LatestIndexed(ctx context.Context, ownerID string) (Document, error)
}

// VectorIndex answers top-k similarity queries over one owner's chunk
// embeddings. Results are ordered by descending similarity; ties break by
// chunk insertion order so repeated queries are reproducible. Index entries
// are created only through DocumentStore.Commit, which keeps every entry
// backed by a committed chunk. An owner with no entries yields an empty
// result, not an error.
type VectorIndex interface {
	Search(ctx context.Context, ownerID string, vector []float32, k int) ([]SearchResult, error)
}

// UserStore holds credentials for the external authenticator. The core
// never inspects password hashes; only the auth handler does.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (string, error)
	GetUserByUsername(ctx context.Context, username string) (id string, passwordHash string, err error)
}
