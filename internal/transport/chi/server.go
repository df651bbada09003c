// Package chi is the HTTP transport of the image search API.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/search/filter"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/strategy"
	domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"
	logpkg "github.com/kailas-cloud/imgdex/internal/logger"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	healthuc "github.com/kailas-cloud/imgdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/imgdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/imgdex/internal/usecase/usage"
)

const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the image search API.
type Server struct {
	search        *searchuc.Service
	describe      *describeuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. describe can be nil when no describer is configured.
func NewServer(
	search *searchuc.Service,
	describe *describeuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		describe: describe,
		usage:    usage,
		health:   health,
		logger:   logger,
	}
	// Order matters: a SearchError wraps its causes, so it is matched before their sentinels.
	s.errorHandlers = []errorHandler{
		searchErrorHandler,
		sentinelHandler(domain.ErrImageNotFound, http.StatusNotFound, ErrorCodeImageNotFound),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrDescriberQuotaExceeded, http.StatusTooManyRequests, ErrorCodeDescriberQuotaExceeded),
		sentinelHandler(domain.ErrDescriberUnavailable, http.StatusBadGateway, ErrorCodeDescriberUnavailable),
		sentinelHandler(domain.ErrAccessorUnavailable, http.StatusServiceUnavailable, ErrorCodeCatalogUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorCodeNotImplemented),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/images/{id}/similar", s.FindSimilar)
		r.Post("/images/{id}/describe", s.DescribeImage)
		r.Get("/usage", s.GetUsage)
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	s.runSearch(w, r, &searchReq)
}

// FindSimilar handles GET /v1/images/{id}/similar.
func (s *Server) FindSimilar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var params SimilarParams
	q := r.URL.Query()
	if err := bindQuery(q, "limit", &params.Limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(q, "minConfidence", &params.MinConfidence); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	searchReq, err := request.NewSimilar(id, params.Limit, params.MinConfidence)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	r = r.WithContext(logpkg.WithFields(r.Context(), s.logger, zap.String("image_id", id)))
	s.runSearch(w, r, &searchReq)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFromDomain(resp))
}

// DescribeImage handles POST /v1/images/{id}/describe.
func (s *Server) DescribeImage(w http.ResponseWriter, r *http.Request) {
	if s.describe == nil {
		s.handleDomainError(w, r, fmt.Errorf("describe: %w", domain.ErrNotImplemented))
		return
	}

	var params DescribeParams
	if err := bindQuery(r.URL.Query(), "force", &params.Force); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	force := params.Force != nil && *params.Force

	id := chi.URLParam(r, "id")
	r = r.WithContext(logpkg.WithFields(r.Context(), s.logger, zap.String("image_id", id)))
	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.describe.Describe(ctx, id, force)
	setDescriberHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if out.Generated {
		status = http.StatusCreated
	}
	writeJSON(w, status, DescribeResponse{
		ImageID:   id,
		Generated: out.Generated,
		Metadata:  imageDetailsFromDomain(out.Metadata),
	})
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params UsageParams
	if err := bindQuery(r.URL.Query(), "period", &params.Period); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	raw := ""
	if params.Period != nil {
		raw = *params.Period
	}
	period, ok := domusage.ParsePeriod(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "period must be day or month")
		return
	}

	writeJSON(w, http.StatusOK, usageResponseFromDomain(s.usage.GetReport(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindQuery binds an optional form-style query parameter.
func bindQuery(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func searchRequestFromDTO(req SearchRequest) (request.Request, error) {
	filters, err := filter.New(req.Filters)
	if err != nil {
		return request.Request{}, fmt.Errorf("parse filters: %w", err)
	}

	var kinds strategy.Set
	if len(req.SearchTypes) == 0 {
		kinds = strategy.Infer(
			strings.TrimSpace(req.Query), strings.TrimSpace(req.ImageID),
			strings.TrimSpace(req.ColorQuery), strings.TrimSpace(req.SceneType),
		)
	} else {
		list := make([]strategy.Kind, 0, len(req.SearchTypes))
		for _, t := range req.SearchTypes {
			k := strategy.Kind(strings.ToLower(strings.TrimSpace(t)))
			if !k.IsValid() {
				return request.Request{}, fmt.Errorf("unknown search type %q", t)
			}
			list = append(list, k)
		}
		kinds = strategy.NewSet(list...)
	}

	r, err := request.New(request.Params{
		Query:         req.Query,
		ImageID:       req.ImageID,
		ColorQuery:    req.ColorQuery,
		SceneType:     req.SceneType,
		Filters:       filters,
		Limit:         req.Limit,
		MinConfidence: req.MinConfidence,
		Strategies:    kinds,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return r, nil
}

func setDescriberHeaders(w http.ResponseWriter, usage *domain.DescriberUsage) {
	if usage.Used() {
		w.Header().Set("X-Describer-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if err == nil {
		return ""
	}
	sentinels := []error{
		domain.ErrAllStrategiesFailed,
		domain.ErrImageNotFound,
		domain.ErrInvalidQuery,
		domain.ErrDescriberQuotaExceeded,
		domain.ErrDescriberUnavailable,
		domain.ErrAccessorUnavailable,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// searchErrorHandler reports every failed strategy with a sanitized reason.
// A missing reference image is a plain 404 only when it is the sole cause.
func searchErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrAllStrategiesFailed) {
		return false
	}
	var se *domain.SearchError
	hasFailures := errors.As(err, &se)
	if hasFailures && se.Only(domain.ErrImageNotFound) {
		writeError(w, http.StatusNotFound, ErrorCodeImageNotFound, domain.ErrImageNotFound.Error())
		return true
	}
	resp := ErrorResponse{Code: ErrorCodeAllStrategiesFailed, Message: msg}
	if hasFailures {
		for _, f := range se.Failures {
			resp.Failures = append(resp.Failures, StrategyFailure{Strategy: f.Strategy, Reason: safeDomainMessage(f.Err)})
		}
	}
	writeJSON(w, http.StatusBadGateway, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
