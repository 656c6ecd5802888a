package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/snsupratim/pdfrag/internal/domain"
	"github.com/snsupratim/pdfrag/internal/rag"
)

// ChatHandler answers questions over the caller's indexed documents.
type ChatHandler struct {
	RAG *rag.Service
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

func (h *ChatHandler) chat(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" && req.Mode != string(rag.ModeSummarize) {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	mode, err := rag.ResolveMode(req.Message, req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	answer, err := h.RAG.Ask(c.Request().Context(), userID, req.Message, mode)
	if err != nil {
		questionsAnswered.WithLabelValues(string(mode), "error").Inc()
		if domain.IsKind(err, domain.KindEncodingUnavailable) || domain.IsKind(err, domain.KindSynthesisUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "answering temporarily unavailable, please retry")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	questionsAnswered.WithLabelValues(string(mode), "ok").Inc()
	return c.JSON(http.StatusOK, ChatResponse{Answer: answer})
}
