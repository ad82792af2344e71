package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/events"
	"github.com/joseph-ayodele/contract-extractor/internal/export"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

const maxBodyBytes = 1 << 20

type documentRequest struct {
	Key string `json:"key"`
}

// NewHTTPHandler routes the daemon's HTTP API. GET /export.xlsx is only
// served when exporter is non-nil.
func NewHTTPHandler(svc *ExtractionService, exporter *export.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpHandler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestIDToContext)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Get("/schema", h.schema)
	r.Post("/events", h.submitEvent)
	r.Post("/documents", h.processDocument)
	if exporter != nil {
		e := &exportHandler{svc: exporter, h: h}
		r.Get("/export.xlsx", e.exportWorkbook)
	}
	return r
}

type httpHandler struct {
	svc    *ExtractionService
	logger *slog.Logger
}

// requestIDToContext copies chi's request id to where the pipeline
// loggers look for it.
func requestIDToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(common.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *httpHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *httpHandler) schema(w http.ResponseWriter, _ *http.Request) {
	b, err := schema.SchemaJSON()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *httpHandler) submitEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, errors.Join(common.ErrInvalidInput, err))
		return
	}
	ev, err := events.Parse(body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	n, err := h.svc.SubmitEvent(r.Context(), ev)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": n})
}

func (h *httpHandler) processDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, errors.Join(common.ErrInvalidInput, err))
		return
	}
	record, err := h.svc.ProcessDocument(r.Context(), req.Key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// httpStatus mirrors common.ToStatus for the HTTP surface.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNoResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, async.ErrQueueClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *httpHandler) writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "status", code, "err", err)
	} else {
		h.logger.Warn("http.request.rejected", "status", code, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := schema.Encode(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
