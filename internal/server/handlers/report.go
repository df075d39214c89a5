// internal/server/handlers/report.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"tweetscope/internal/adapter/storage"
	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/service/pipeline"
	"tweetscope/internal/service/report"
)

// DefaultLimit is the number of tweets analyzed when a request names none
const DefaultLimit = 1000

// Analyzer runs the analysis pipeline
type Analyzer interface {
	RunWithEvents(ctx context.Context, req pipeline.Request, onEvent func(pipeline.Event) error) (*report.Result, error)
}

// ReportRepository persists finished reports
type ReportRepository interface {
	SaveReport(ctx context.Context, res *report.Result) error
	GetReport(ctx context.Context, id string) (*report.Result, error)
	ListReports(ctx context.Context, handle string, limit int) ([]storage.ReportSummary, error)
}

// AnalyzeRequest is the body of a report request and the query of an analyze stream
type AnalyzeRequest struct {
	Handle     string `json:"handle"`
	Limit      int    `json:"limit"`
	Filter     string `json:"filter"`
	NoRetweets bool   `json:"no_retweets"`
	NoTimezone bool   `json:"no_timezone"`
	UTCOffset  *int   `json:"utc_offset"`
	Friends    bool   `json:"friends"`
}

func (a AnalyzeRequest) pipelineRequest() pipeline.Request {
	limit := a.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	return pipeline.Request{
		Handle: a.Handle,
		Options: tweet.Options{
			Limit:           limit,
			SourceFilter:    a.Filter,
			ExcludeRetweets: a.NoRetweets,
			NoTimezone:      a.NoTimezone,
			UTCOffset:       a.UTCOffset,
			Friends:         a.Friends,
		},
	}
}

// parseAnalyzeQuery reads an AnalyzeRequest from query parameters
func parseAnalyzeQuery(q url.Values) (AnalyzeRequest, error) {
	req := AnalyzeRequest{
		Handle:     q.Get("handle"),
		Filter:     q.Get("filter"),
		NoRetweets: queryBool(q, "no_retweets"),
		NoTimezone: queryBool(q, "no_timezone"),
		Friends:    queryBool(q, "friends"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid limit %q", v)
		}
		req.Limit = limit
	}

	if v := q.Get("utc_offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid utc_offset %q", v)
		}
		req.UTCOffset = &offset
	}

	return req, nil
}

func queryBool(q url.Values, key string) bool {
	v, err := strconv.ParseBool(q.Get(key))
	return err == nil && v
}

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	analyzer Analyzer
	store    ReportRepository
	logger   *log.Logger
}

// NewReportHandler creates a new report handler. store may be nil, then reports are not kept.
func NewReportHandler(analyzer Analyzer, store ReportRepository, logger *log.Logger) *ReportHandler {
	return &ReportHandler{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
}

// CreateReport runs an analysis and returns the report
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(body.Handle) == "" {
		respondWithError(w, http.StatusBadRequest, "Missing handle", nil)
		return
	}

	res, err := h.analyzer.RunWithEvents(r.Context(), body.pipelineRequest(), nil)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}

	if h.store != nil {
		if err := h.store.SaveReport(r.Context(), res); err != nil {
			h.logger.Error("failed to save report", "run", res.RunID, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to save report", err)
			return
		}
	}

	respondWithJSON(w, http.StatusCreated, res)
}

// GetReport returns a stored report by run id
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing report ID", nil)
		return
	}
	if h.store == nil {
		respondWithError(w, http.StatusNotFound, "Report not found", nil)
		return
	}

	res, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			respondWithError(w, http.StatusNotFound, "Report not found", nil)
		} else {
			h.logger.Error("failed to get report", "id", id, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to get report", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

// ListReports returns the newest stored reports, optionally for one handle
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	if h.store == nil {
		respondWithJSON(w, http.StatusOK, []storage.ReportSummary{})
		return
	}

	handle := strings.TrimPrefix(r.URL.Query().Get("handle"), "@")
	reports, err := h.store.ListReports(r.Context(), handle, limit)
	if err != nil {
		h.logger.Error("failed to list reports", "handle", handle, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []storage.ReportSummary{}
	}

	respondWithJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) respondWithRunError(w http.ResponseWriter, err error) {
	code := runErrorStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("analysis failed", "error", err)
	}
	respondWithError(w, code, err.Error(), err)
}

// runErrorStatus maps a pipeline error to an HTTP status
func runErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, tweet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tweet.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
