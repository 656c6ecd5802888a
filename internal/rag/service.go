// Package rag answers natural-language questions over a user's indexed
// documents by retrieving the most similar chunks and synthesizing a
// grounded reply.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/snsupratim/pdfrag/internal/domain"
	"github.com/snsupratim/pdfrag/provider"
)

// SummarizeSentinel is the reserved message the legacy UI sends to request
// a summary. It is matched byte-exactly; anything else is an ordinary
// question. New clients should send Mode directly instead.
const SummarizeSentinel = "Summarize the document"

// NoInformationAnswer is returned whenever no grounding is available. The
// synthesis backend is not called in that case, so the service can never
// fabricate an answer out of thin air.
const NoInformationAnswer = "I couldn't find relevant information in your documents."

// DefaultTopK bounds retrieval breadth for ask mode.
const DefaultTopK = 5

// Mode selects between open question answering and whole-document
// summarization.
type Mode string

const (
	ModeAsk       Mode = "ask"
	ModeSummarize Mode = "summarize"
)

// ResolveMode maps a request's optional mode field and message to the
// effective mode. An explicit mode wins; with no mode set, only the exact
// sentinel triggers summarization.
func ResolveMode(message, mode string) (Mode, error) {
	switch mode {
	case "":
		if message == SummarizeSentinel {
			return ModeSummarize, nil
		}
		return ModeAsk, nil
	case string(ModeAsk):
		return ModeAsk, nil
	case string(ModeSummarize):
		return ModeSummarize, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

// Service is the read path: encode the query, search the caller's
// partition, synthesize an answer grounded in what came back.
type Service struct {
	Provider provider.Provider
	Store    domain.DocumentStore
	Index    domain.VectorIndex
	TopK     int
	Timeout  time.Duration
	Logger   *log.Logger
}

// NewService wires the read path with the given collaborators.
func NewService(prov provider.Provider, store domain.DocumentStore, index domain.VectorIndex, topK int, timeout time.Duration, logger *log.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &Service{Provider: prov, Store: store, Index: index, TopK: topK, Timeout: timeout, Logger: logger}
}

// Ask answers one question (or summary request) for the given owner. All
// reads are scoped to the owner's partition; there is no session state kept
// across calls.
func (s *Service) Ask(ctx context.Context, ownerID, message string, mode Mode) (string, error) {
	if mode == ModeSummarize {
		return s.summarize(ctx, ownerID)
	}

	results, err := s.Retrieve(ctx, ownerID, message, s.TopK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoInformationAnswer, nil
	}

	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, res.Chunk.Text)
	}

	system := "You answer questions strictly from the provided document excerpts. " +
		"If the excerpts do not contain the answer, reply exactly: " + NoInformationAnswer +
		" Do not use outside knowledge."
	user := fmt.Sprintf("Excerpts:\n%sQuestion: %s", sb.String(), message)

	answer, err := s.complete(ctx, system, user)
	if err != nil {
		return "", domain.WrapError(domain.KindSynthesisUnavailable, err)
	}
	return answer, nil
}

// Retrieve encodes the query and returns the owner's top-k most similar
// chunks. An owner with nothing indexed gets an empty result.
func (s *Service) Retrieve(ctx context.Context, ownerID, query string, k int) ([]domain.SearchResult, error) {
	encodeCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	vecs, err := s.Provider.Embed(encodeCtx, []string{query})
	if err != nil {
		return nil, domain.WrapError(domain.KindEncodingUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, domain.WrapError(domain.KindEncodingUnavailable, fmt.Errorf("expected 1 embedding, got %d", len(vecs)))
	}
	return s.Index.Search(ctx, ownerID, vecs[0], k)
}

// summarize condenses the owner's most recently indexed document. Every
// chunk is passed to the synthesizer in sequence order, not just top-k, so
// the summary follows the document's order of ideas.
func (s *Service) summarize(ctx context.Context, ownerID string) (string, error) {
	doc, err := s.Store.LatestIndexed(ctx, ownerID)
	if err != nil {
		if err == domain.ErrNoDocuments {
			return NoInformationAnswer, nil
		}
		return "", err
	}

	chunks, err := s.Store.DocumentChunks(ctx, ownerID, doc.ID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoInformationAnswer, nil
	}

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Text)
		sb.WriteString("\n")
	}

	system := "You summarize documents. Produce a concise summary that preserves " +
		"the document's order of ideas. Use only the provided text."
	user := fmt.Sprintf("Document %q:\n%s", doc.Filename, sb.String())

	summary, err := s.complete(ctx, system, user)
	if err != nil {
		return "", domain.WrapError(domain.KindSynthesisUnavailable, err)
	}
	return summary, nil
}

func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return s.Provider.Complete(callCtx, system, user)
}
