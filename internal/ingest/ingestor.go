package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/snsupratim/pdfrag/internal/domain"
	"github.com/snsupratim/pdfrag/provider"
)

// Ingestor runs the write path: extract text, chunk it, embed every chunk
// in one batched call, and commit the result atomically. Each call is an
// independent unit of work; concurrent ingestions of different documents
// never share state outside the store.
type Ingestor struct {
	Store         domain.DocumentStore
	Provider      provider.Provider
	Chunker       *Chunker
	EncodeTimeout time.Duration
	Logger        *log.Logger

	// Extract parses PDF bytes into plain text. Defaults to ExtractText.
	Extract func(raw []byte) (string, error)
}

// NewIngestor wires an ingestor with the given collaborators.
func NewIngestor(store domain.DocumentStore, prov provider.Provider, chunker *Chunker, encodeTimeout time.Duration, logger *log.Logger) *Ingestor {
	if chunker == nil {
		chunker = NewChunker()
	}
	if encodeTimeout <= 0 {
		encodeTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{Store: store, Provider: prov, Chunker: chunker, EncodeTimeout: encodeTimeout, Logger: logger, Extract: ExtractText}
}

// Ingest processes one uploaded PDF for the given owner. The returned
// document reflects the terminal status: indexed (possibly with zero
// chunks) or failed with a recorded reason. Failures also return a
// domain.Error so callers can map them to responses; the upload itself is
// the retry mechanism.
func (ing *Ingestor) Ingest(ctx context.Context, ownerID, filename string, raw []byte) (domain.Document, error) {
	doc, err := ing.Store.CreateDocument(ctx, ownerID, filename)
	if err != nil {
		return domain.Document{}, err
	}

	text, err := ing.Extract(raw)
	if err != nil {
		return ing.fail(ctx, doc, domain.KindUnreadableDocument, err)
	}

	pieces := ing.Chunker.Split(text)
	if len(pieces) == 0 {
		// An empty or image-only PDF indexes with zero chunks; this is a
		// valid terminal state, not a failure.
		if err := ing.Store.Commit(ctx, doc.ID, nil); err != nil {
			return domain.Document{}, err
		}
		doc.Status = domain.StatusIndexed
		ing.Logger.Printf("document %s indexed with zero chunks", doc.ID)
		return doc, nil
	}

	encodeCtx, cancel := context.WithTimeout(ctx, ing.EncodeTimeout)
	defer cancel()
	vectors, err := ing.Provider.Embed(encodeCtx, pieces)
	if err != nil {
		return ing.fail(ctx, doc, domain.KindEncodingUnavailable, err)
	}
	if len(vectors) != len(pieces) {
		return ing.fail(ctx, doc, domain.KindEncodingUnavailable,
			&countMismatchError{want: len(pieces), got: len(vectors)})
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			OwnerID:    ownerID,
			Seq:        i,
			Text:       piece,
			Embedding:  vectors[i],
		}
	}

	if err := ing.Store.Commit(ctx, doc.ID, chunks); err != nil {
		return ing.fail(ctx, doc, domain.KindEncodingUnavailable, err)
	}
	doc.Status = domain.StatusIndexed
	doc.ChunkCount = len(chunks)
	ing.Logger.Printf("document %s indexed with %d chunks", doc.ID, len(chunks))
	return doc, nil
}

func (ing *Ingestor) fail(ctx context.Context, doc domain.Document, kind domain.ErrorKind, cause error) (domain.Document, error) {
	if err := ing.Store.MarkFailed(ctx, doc.ID, cause.Error()); err != nil {
		ing.Logger.Printf("mark document %s failed: %v", doc.ID, err)
	}
	doc.Status = domain.StatusFailed
	doc.FailReason = cause.Error()
	ing.Logger.Printf("document %s ingestion failed (%s): %v", doc.ID, kind, cause)
	return doc, domain.WrapError(kind, cause)
}

type countMismatchError struct{ want, got int }

func (e *countMismatchError) Error() string {
	return fmt.Sprintf("expected %d embeddings, got %d", e.want, e.got)
}
