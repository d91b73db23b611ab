package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"abr-search/abr"
	"abr-search/models"
	"abr-search/storage"
	"abr-search/utils"
)

// Runner executes one registry search and export.
type Runner interface {
	Run(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
}

// Artifacts opens stored exports for download.
type Artifacts interface {
	Open(name string) (*os.File, error)
}

// Server exposes the search pipeline over HTTP.
type Server struct {
	runner    Runner
	artifacts Artifacts
	logger    *utils.Logger
}

func New(runner Runner, artifacts Artifacts, logger *utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Server{runner: runner, artifacts: artifacts, logger: logger}
}

// Routes returns the chi router with all handlers mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger.Zap()))

	r.Get("/", s.index)
	r.Get("/healthz", s.healthz)
	r.Post("/search", s.search)
	r.Get("/download/{filename}", s.download)
	return r
}

type searchRequest struct {
	SearchTerm     string `json:"search_term"`
	StateFilter    string `json:"state_filter"`
	PostcodeFilter string `json:"postcode_filter"`
}

type searchResponse struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	Message      string `json:"message"`
	XMLFile      string `json:"xml_file"`
	CSVFile      string `json:"csv_file"`
	RecordsCount int    `json:"records_count"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := models.NewSearchQuery(req.SearchTerm, req.StateFilter, req.PostcodeFilter, 0)
	if err != nil {
		if strings.TrimSpace(req.SearchTerm) == "" {
			writeError(w, http.StatusBadRequest, "Please enter a search term")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.runner.Run(r.Context(), q)
	if err != nil {
		status, msg := failureResponse(err)
		s.logger.Error("[server] search %q failed: %v", q.Term, err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success:      true,
		ID:           res.ID,
		Message:      fmt.Sprintf("Successfully processed %d records from ABR", res.RecordCount),
		XMLFile:      res.XMLFile,
		CSVFile:      res.CSVFile,
		RecordsCount: res.RecordCount,
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := s.artifacts.Open(name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.logger.Error("[server] open %q: %v", name, err)
		writeError(w, http.StatusInternalServerError, "could not open file")
		return
	}
	defer f.Close() //nolint:errcheck

	modTime := time.Time{}
	if st, err := f.Stat(); err == nil {
		modTime = st.ModTime()
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, modTime, f)
}

func decodeSearchRequest(r *http.Request) (searchRequest, error) {
	var req searchRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return req, err
		}
		fallthrough
	default:
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.SearchTerm = r.FormValue("search_term")
		req.StateFilter = r.FormValue("state_filter")
		req.PostcodeFilter = r.FormValue("postcode_filter")
	}
	return req, nil
}

// failureResponse maps pipeline errors to an HTTP status and user message.
func failureResponse(err error) (int, string) {
	switch abr.KindOf(err) {
	case abr.TransportFailure:
		return http.StatusBadGateway, "Failed to retrieve data from ABR API. Please try again."
	case abr.EmptyResponse:
		return http.StatusBadGateway, "No data returned from ABR API"
	case abr.XMLParseFailure:
		return http.StatusBadGateway, "ABR API returned a response that could not be parsed"
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, "Search cancelled"
	}
	return http.StatusInternalServerError, "An error occurred: " + err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>ABR Business Search</title></head>
<body>
<h1>ABR Business Search</h1>
<form method="post" action="/search">
  <label>Search term <input name="search_term" required></label>
  <label>State
    <select name="state_filter">
      <option value="">All</option>
      <option>NSW</option><option>SA</option><option>ACT</option><option>VIC</option>
      <option>WA</option><option>NT</option><option>QLD</option><option>TAS</option>
    </select>
  </label>
  <label>Postcode <input name="postcode_filter"></label>
  <button type="submit">Search</button>
</form>
</body>
</html>
`
