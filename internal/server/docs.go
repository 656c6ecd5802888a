package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/snsupratim/pdfrag/internal/domain"
	"github.com/snsupratim/pdfrag/internal/ingest"
)

// DocsHandler serves upload and listing for the caller's documents.
type DocsHandler struct {
	Ingestor       *ingest.Ingestor
	Store          domain.DocumentStore
	MaxUploadBytes int64
}

func (h *DocsHandler) Register(g *echo.Group) {
	g.POST("/upload_docs", h.upload)
	g.GET("", h.list)
}

func (h *DocsHandler) upload(c echo.Context) error {
	userID := c.Get("user_id").(string)

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field required")
	}
	if !ingest.IsPDF(fh.Filename) {
		return echo.NewHTTPError(http.StatusBadRequest, "please upload a PDF file")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file upload")
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}

	doc, err := h.Ingestor.Ingest(c.Request().Context(), userID, fh.Filename, raw)
	if err != nil {
		documentsIngested.WithLabelValues(string(domain.StatusFailed)).Inc()
		switch {
		case domain.IsKind(err, domain.KindUnreadableDocument):
			return echo.NewHTTPError(http.StatusBadRequest, "could not read PDF content")
		case domain.IsKind(err, domain.KindEncodingUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "indexing temporarily unavailable, please re-upload later")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	documentsIngested.WithLabelValues(string(doc.Status)).Inc()
	return c.JSON(http.StatusOK, doc)
}

func (h *DocsHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	docs, err := h.Store.ListDocuments(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}
