package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/memoir/internal/dates"
	"github.com/pbaille/memoir/internal/metrics"
	"github.com/pbaille/memoir/internal/store"
	"github.com/pbaille/memoir/internal/stories"
	"github.com/pbaille/memoir/internal/theme"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Server handles HTTP requests for the story API
type Server struct {
	stories   *stories.Service
	metrics   *metrics.Recorder
	logger    *zap.Logger
	addr      string
	birthYear int
}

// New creates a new API server. birthYear is the default for /dates requests
// that do not send one.
func New(svc *stories.Service, rec *metrics.Recorder, logger *zap.Logger, addr string, birthYear int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{stories: svc, metrics: rec, logger: logger, addr: addr, birthYear: birthYear}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Stories
	mux.HandleFunc("GET /stories", s.listStories)
	mux.HandleFunc("POST /stories", s.addStory)
	mux.HandleFunc("GET /stories/{id}", s.getStory)
	mux.HandleFunc("PUT /stories/{id}", s.updateStory)
	mux.HandleFunc("DELETE /stories/{id}", s.deleteStory)

	// Analysis without persistence
	mux.HandleFunc("POST /classify", s.classify)
	mux.HandleFunc("POST /dates", s.extractDates)
	mux.HandleFunc("POST /period", s.estimatePeriod)

	mux.HandleFunc("GET /tags", s.listTags)
	mux.HandleFunc("GET /search", s.searchStories)
	mux.HandleFunc("GET /timeline", s.timeline)

	mux.HandleFunc("GET /health", s.health)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return withLogging(s.logger, withCORS(mux))
}

// Run starts the HTTP server and shuts it down when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(logger *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TextRequest is the body for the analysis endpoints
type TextRequest struct {
	Text      string `json:"text"`
	BirthYear *int   `json:"birth_year,omitempty"`
}

// ClassifyResponse is the response for /classify
type ClassifyResponse struct {
	theme.Result
	SentimentScore float64  `json:"sentiment_score"`
	TopTags        []string `json:"top_tags"`
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decode(w, r, &req) {
		return
	}

	res := theme.Classify(req.Text)
	s.metrics.Observe(res)

	writeJSON(w, http.StatusOK, ClassifyResponse{
		Result:         res,
		SentimentScore: theme.SentimentScore(req.Text),
		TopTags:        theme.ExtractTags(req.Text, theme.DefaultMaxTags),
	})
}

func (s *Server) extractDates(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decode(w, r, &req) {
		return
	}

	birthYear := s.birthYear
	if req.BirthYear != nil {
		birthYear = *req.BirthYear
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dates":  dates.Extract(req.Text, birthYear),
		"period": dates.EstimatePeriod(req.Text),
	})
}

func (s *Server) estimatePeriod(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, dates.EstimatePeriod(req.Text))
}

// AddStoryRequest is the request body for adding a story
type AddStoryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) addStory(w http.ResponseWriter, r *http.Request) {
	var req AddStoryRequest
	if !decode(w, r, &req) {
		return
	}

	st, err := s.stories.Create(req.Title, req.Content)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	st, err := s.stories.Get(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) updateStory(w http.ResponseWriter, r *http.Request) {
	var req stories.UpdateInput
	if !decode(w, r, &req) {
		return
	}

	st, err := s.stories.Update(r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.stories.Delete(r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	list, err := s.stories.List(limit, offset, r.URL.Query().Get("chapter"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stories": list,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.stories.Tags()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (s *Server) searchStories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	found, err := s.stories.Search(query)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stories": found,
		"query":   query,
	})
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	groups, err := s.stories.Timeline()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "story not found")
	case errors.Is(err, store.ErrAmbiguousID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stories.ErrEmptyContent), errors.Is(err, stories.ErrInvalidChapter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
