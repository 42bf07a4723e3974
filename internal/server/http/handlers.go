package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/observability"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// Query validation limits.
const (
	maxQueryLength = 2048
	maxIDLength    = 256
)

// searchRequest holds the query string of the search endpoints.
type searchRequest struct {
	Query      string   `query:"query" validate:"required,max=2048"`
	MaxResults int      `query:"max_results" validate:"gte=0"`
	Offset     int      `query:"offset" validate:"gte=0"`
	DateFrom   string   `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string   `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Sources    []string `query:"sources" validate:"omitempty,dive,source"`
}

// newValidator returns a validator that reports fields by their query
// parameter name and knows the "source" tag. It panics if a custom rule
// cannot be registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.RegisterValidation("source", validateSource); err != nil {
		panic(fmt.Sprintf("register source validation: %v", err))
	}
	return v
}

func validateSource(fl validator.FieldLevel) bool {
	_, err := domain.ParseSourceType(fl.Field().String())
	return err == nil
}

// listSources handles GET /api/v1/sources.
func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	sources := s.registry.AllSources()
	resp := listSourcesResponse{Sources: make([]sourceResponse, len(sources))}
	for i, src := range sources {
		resp.Sources[i] = sourceToResponse(src)
	}
	writeJSON(w, http.StatusOK, resp)
}

// searchSource handles GET /api/v1/sources/{source}/papers.
func (s *Server) searchSource(w http.ResponseWriter, r *http.Request) {
	source, ok := s.lookupSource(w, r)
	if !ok {
		return
	}

	params, _, err := s.parseSearchRequest(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	ctx := observability.WithSource(r.Context(), source.SourceType().String())
	result, err := source.Search(ctx, params)
	if err != nil {
		s.writeDomainError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToResponse(result))
}

// getPaper handles GET /api/v1/sources/{source}/papers/*. The identifier is
// the rest of the path so identifiers containing slashes need no escaping.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	source, ok := s.lookupSource(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "*"))
	if id == "" {
		s.writeDomainError(w, r, domain.NewValidationError("id", "is required"))
		return
	}
	if len(id) > maxIDLength {
		s.writeDomainError(w, r, domain.NewValidationError("id", fmt.Sprintf("must be at most %d characters", maxIDLength)))
		return
	}

	ctx := observability.WithSource(r.Context(), source.SourceType().String())
	paper, err := source.GetByID(ctx, id)
	if err != nil {
		s.writeDomainError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// searchAll handles GET /api/v1/search. It queries the requested sources,
// or every enabled source, concurrently and reports each outcome separately.
func (s *Server) searchAll(w http.ResponseWriter, r *http.Request) {
	params, sources, err := s.parseSearchRequest(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	for _, st := range sources {
		if _, err := s.registry.Lookup(st); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}

	results := s.registry.SearchSources(r.Context(), params, sources)

	resp := searchAllResponse{Results: make([]sourceSearchResponse, len(results))}
	for i, res := range results {
		item := sourceSearchResponse{Source: res.Source.String()}
		if res.Error != nil {
			_, body := classifyError(res.Error)
			item.Error = &body
			logger := observability.LoggerFromContext(r.Context(), s.logger)
			logger.Warn().
				Err(res.Error).
				Str("source", res.Source.String()).
				Msg("source search failed")
		} else {
			item.Result = searchResultToResponse(res.Result)
		}
		resp.Results[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// lookupSource resolves the {source} path parameter, writing the error
// response when the source is unknown or disabled.
func (s *Server) lookupSource(w http.ResponseWriter, r *http.Request) (papersources.PaperSource, bool) {
	st, err := domain.ParseSourceType(chi.URLParam(r, "source"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return nil, false
	}
	source, err := s.registry.Lookup(st)
	if err != nil {
		s.writeDomainError(w, r, err)
		return nil, false
	}
	return source, true
}

// parseSearchRequest reads and validates the search query parameters.
func (s *Server) parseSearchRequest(r *http.Request) (papersources.SearchParams, []domain.SourceType, error) {
	q := r.URL.Query()

	req := searchRequest{
		Query:    strings.TrimSpace(q.Get("query")),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}

	var err error
	if req.MaxResults, err = intParam(q.Get("max_results"), "max_results"); err != nil {
		return papersources.SearchParams{}, nil, err
	}
	if req.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return papersources.SearchParams{}, nil, err
	}
	for _, name := range strings.Split(q.Get("sources"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			req.Sources = append(req.Sources, name)
		}
	}

	if err := s.validate.Struct(req); err != nil {
		return papersources.SearchParams{}, nil, validationError(err)
	}

	params := papersources.SearchParams{
		Query:      req.Query,
		MaxResults: req.MaxResults,
		Offset:     req.Offset,
	}
	if req.DateFrom != "" {
		t, _ := time.Parse(time.DateOnly, req.DateFrom)
		params.DateFrom = &t
	}
	if req.DateTo != "" {
		t, _ := time.Parse(time.DateOnly, req.DateTo)
		params.DateTo = &t
	}

	sources := make([]domain.SourceType, 0, len(req.Sources))
	seen := make(map[domain.SourceType]bool, len(req.Sources))
	for _, name := range req.Sources {
		st, _ := domain.ParseSourceType(name)
		if !seen[st] {
			seen[st] = true
			sources = append(sources, st)
		}
	}

	return params, sources, nil
}

func intParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be an integer")
	}
	return n, nil
}

// validationError converts the first validator failure into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("request", "is invalid")
	}

	fe := verrs[0]
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}

	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "max":
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxQueryLength))
	case "gte":
		return domain.NewValidationError(field, "must not be negative")
	case "datetime":
		return domain.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	case "source":
		return domain.NewValidationError(field, fmt.Sprintf("unknown source %q", fe.Value()))
	default:
		return domain.NewValidationError(field, "is invalid")
	}
}

// writeDomainError maps connector errors to HTTP status codes and writes a
// JSON error response. Upstream details are logged, not returned.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, body := classifyError(err)

	var rle *domain.RateLimitError
	if status == http.StatusTooManyRequests && errors.As(err, &rle) && rle.HasRetryAfter() {
		w.Header().Set("Retry-After", strconv.Itoa(int(rle.RetryAfter.Round(time.Second)/time.Second)))
	}

	if status >= http.StatusInternalServerError {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Warn().
			Err(err).
			Int("status", status).
			Msg("request failed")
	}

	writeJSON(w, status, body)
}

// classifyError returns the status code and body for err. Exhaustion is
// checked first because an exhausted call also wraps its last failure.
func classifyError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return http.StatusBadRequest, errorResponse{Error: ve.Error()}
		}
		return http.StatusBadRequest, errorResponse{Error: "invalid input"}
	case errors.Is(err, domain.ErrUnknownSource):
		return http.StatusNotFound, errorResponse{Error: "unknown source"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "paper not found"}
	case errors.Is(err, domain.ErrSourceDisabled):
		return http.StatusConflict, errorResponse{Error: "source disabled"}
	case errors.Is(err, domain.ErrRetriesExhausted):
		return http.StatusServiceUnavailable, errorResponse{Error: "upstream unavailable, retries exhausted", Retryable: true}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: "rate limited", Retryable: true}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: "upstream timed out", Retryable: true}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"}
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, errorResponse{Error: "upstream error"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
