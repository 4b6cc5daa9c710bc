package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var openapiSpec []byte

// DefaultMaxBody caps the size of uploaded schemas and request bodies.
const DefaultMaxBody = 8 << 20

// Toolkit is the subset of the teiinfo toolkit served over HTTP.
type Toolkit interface {
	Documents(ctx context.Context) ([]string, error)
	Header(ctx context.Context, id string) (domain.Document, error)
	Query(ctx context.Context, expr string, ids ...string) ([]tei.CorpusMatch, error)
	Inventory(ctx context.Context) (domain.Inventory, error)
	AnalyzeBytes(ctx context.Context, label string, data []byte) (*domain.SchemaAnalysis, error)
	ValidateDocument(ctx context.Context, schema, id string) (*domain.ValidationReport, error)
}

// Server serves a Toolkit.
type Server struct {
	Toolkit  Toolkit
	name     string
	gatherer prometheus.Gatherer
	maxBody  int64
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry exposed on /metrics (default: the global one).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithName sets the corpus name reported by /info.
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// WithMaxBody limits request bodies to n bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the toolkit.
// It fails only if the embedded API description is invalid.
func NewHandler(tk Toolkit, opts ...Option) (http.Handler, error) {
	s := &Server{
		Toolkit:  tk,
		gatherer: prometheus.DefaultGatherer,
		maxBody:  DefaultMaxBody,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := LoadSpec(context.Background()); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(enableCORS)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/documents", s.ListDocuments)
	r.Get("/documents/{id}", s.DocumentHeader)
	r.Get("/documents/{id}/query", s.QueryDocument)
	r.Get("/inventory", s.Inventory)
	r.Post("/schemas/analyze", s.AnalyzeSchema)
	r.Post("/validate", s.Validate)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapiSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>teiinfo API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Toolkit.Documents(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":      s.name,
		"version":   teiinfo.Version,
		"documents": len(ids),
	})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Toolkit.Documents(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// DocumentHeader handles GET /documents/{id}.
func (s *Server) DocumentHeader(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	doc, err := s.Toolkit.Header(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	doc.Path = ""
	s.writeJSON(w, http.StatusOK, doc)
}

// QueryDocument handles GET /documents/{id}/query.
func (s *Server) QueryDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}

	var params struct {
		XPath string
		Limit *int
	}
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "xpath", query, &params.XPath); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		s.badRequest(w, err)
		return
	}
	if params.Limit != nil && *params.Limit < 0 {
		s.badRequest(w, fmt.Errorf("limit must not be negative"))
		return
	}
	expr, err := tei.SanitizeExpression(params.XPath)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	matches, err := s.Toolkit.Query(r.Context(), expr, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if params.Limit != nil && *params.Limit > 0 && len(matches) > *params.Limit {
		matches = matches[:*params.Limit]
	}
	if matches == nil {
		matches = []tei.CorpusMatch{}
	}
	s.writeJSON(w, http.StatusOK, matches)
}

// Inventory handles GET /inventory.
func (s *Server) Inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := s.Toolkit.Inventory(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

// AnalyzeSchema handles POST /schemas/analyze. The body is an XSD document.
func (s *Server) AnalyzeSchema(w http.ResponseWriter, r *http.Request) {
	name := "upload.xsd"
	if err := runtime.BindQueryParameter("form", true, false, "name", r.URL.Query(), &name); err != nil {
		s.badRequest(w, err)
		return
	}
	if strings.ContainsAny(name, `/\`) || name == ".." {
		s.badRequest(w, errors.New("name must be a plain file name"))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.badRequest(w, fmt.Errorf("failed to read body: %w", err))
		return
	}
	if len(data) == 0 {
		s.badRequest(w, errors.New("empty schema"))
		return
	}

	analysis, err := s.Toolkit.AnalyzeBytes(r.Context(), name, data)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"schema":   analysis.Schema,
		"checksum": analysis.Checksum,
		"elements": analysis.Elements,
		"mixed":    analysis.Mixed(),
		"pure":     analysis.Pure(),
	})
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Schema   string `json:"schema"`
	Instance string `json:"instance"`
}

// Validate handles POST /validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&body); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Schema == "" || body.Instance == "" {
		s.badRequest(w, errors.New("schema and instance are required"))
		return
	}

	report, err := s.Toolkit.ValidateDocument(r.Context(), body.Schema, body.Instance)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// -- Helpers --

func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		s.badRequest(w, err)
		return "", false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.logger.Warn("Bad request", "err", err)
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrAnalysisNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedSchema):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrToolNotConfigured), errors.Is(err, domain.ErrJavaNotFound):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		status = 499
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
