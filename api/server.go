// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	phiguard "github.com/phiguard/phiguard"
	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/prep"
)

// Server wraps the pipeline in an HTTP API.
type Server struct {
	cfg      *config.Config
	pipeline *phiguard.Pipeline
	limiter  *RateLimiter
	logger   *log.Logger
	httpSrv  *http.Server
}

// NewServer builds the HTTP server around an existing pipeline.
func NewServer(cfg *config.Config, pipeline *phiguard.Pipeline) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   log.New(os.Stdout, "[phiguard] ", log.LstdFlags),
	}

	if cfg.RateLimit.Enabled {
		s.limiter = NewRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

type analyzeRequest struct {
	Text        string `json:"text,omitempty"`
	FileContent string `json:"file_content,omitempty"`
	FileType    string `json:"file_type,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	route := "/v1/analyze"

	if s.limiter != nil {
		key := clientKey(r)
		allowed, count, reset := s.limiter.Allow(key)
		if !allowed {
			rateLimited.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
			s.writeError(w, route, http.StatusTooManyRequests, "RATE_LIMITED",
				fmt.Sprintf("rate limit exceeded: %d requests (limit: %d per minute)",
					count, s.cfg.RateLimit.RequestsPerMinute))
			return
		}
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20)).Decode(&req); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}

	inFlight.Inc()
	report, err := s.analyze(r.Context(), req)
	inFlight.Dec()
	if err != nil {
		var validationErr *prep.ValidationError
		if errors.As(err, &validationErr) {
			s.writeError(w, route, http.StatusBadRequest, validationErr.Code, validationErr.Message)
			return
		}
		s.logger.Printf("analysis failed: %v", err)
		s.writeError(w, route, http.StatusInternalServerError, "INTERNAL_ERROR", "analysis failed")
		return
	}

	analysisFindings.Observe(float64(len(report.Findings)))
	analysisScore.Observe(float64(report.ComplianceScore))
	analysesTotal.WithLabelValues(string(report.RiskLevel)).Inc()
	if report.Degraded {
		analysisDegraded.Inc()
	}

	w.Header().Set("X-Request-ID", report.RequestID)
	s.writeJSON(w, route, http.StatusOK, report)
	requestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

// analyze dispatches a request to the right pipeline entry point.
func (s *Server) analyze(ctx context.Context, req analyzeRequest) (*phiguard.Report, error) {
	if req.FileContent != "" {
		data, err := base64.StdEncoding.DecodeString(req.FileContent)
		if err != nil {
			return nil, &prep.ValidationError{
				Code:    "INVALID_FILE_CONTENT",
				Message: "file_content must be base64 encoded",
			}
		}

		switch req.FileType {
		case "pdf":
			return s.pipeline.AnalyzePDF(ctx, data)
		case "txt", "":
			return s.pipeline.Analyze(ctx, string(data))
		default:
			return nil, &prep.ValidationError{
				Code:    "UNSUPPORTED_FILE_TYPE",
				Message: fmt.Sprintf("unsupported file_type: %q (expected txt or pdf)", req.FileType),
			}
		}
	}

	if req.Text == "" {
		return nil, &prep.ValidationError{
			Code:    "MISSING_DOCUMENT",
			Message: "provide either text or file_content",
		}
	}
	return s.pipeline.Analyze(ctx, req.Text)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/v1/health", http.StatusOK, map[string]string{
		"status":   "ok",
		"analyzer": s.pipeline.AnalyzerName(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("failed to encode response: %v", err)
	}
	requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (s *Server) writeError(w http.ResponseWriter, route string, status int, code, message string) {
	s.writeJSON(w, route, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// clientKey identifies a client for rate limiting by IP address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
