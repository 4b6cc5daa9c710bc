package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/pkg/domain"
	"github.com/aretw0/teiinfo/pkg/tei"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// InventoryURI is the resource exposing the corpus inventory.
const InventoryURI = "teiinfo://inventory"

// Toolkit is the subset of the teiinfo toolkit exposed to agents.
type Toolkit interface {
	Documents(ctx context.Context) ([]string, error)
	Header(ctx context.Context, id string) (domain.Document, error)
	Query(ctx context.Context, expr string, ids ...string) ([]tei.CorpusMatch, error)
	Inventory(ctx context.Context) (domain.Inventory, error)
	AnalyzeSchema(ctx context.Context, path string) (*domain.SchemaAnalysis, error)
	ValidateDocument(ctx context.Context, schema, id string) (*domain.ValidationReport, error)
}

// DocumentList is the result of list_documents.
type DocumentList struct {
	Documents []string `json:"documents" jsonschema_description:"Document IDs in lexical order"`
}

// QueryResult is the result of query_corpus.
type QueryResult struct {
	Matches   []tei.CorpusMatch `json:"matches" jsonschema_description:"Matches in document order"`
	Total     int               `json:"total" jsonschema_description:"Number of matches before the limit was applied"`
	Truncated bool              `json:"truncated" jsonschema_description:"Set when matches were dropped by the limit"`
}

// AnalysisResult is the result of analyze_schema.
type AnalysisResult struct {
	Schema   string   `json:"schema"`
	Checksum string   `json:"checksum"`
	Elements int      `json:"elements" jsonschema_description:"Number of declared elements"`
	Mixed    []string `json:"mixed" jsonschema_description:"Elements allowing text and children interleaved"`
	Pure     []string `json:"pure" jsonschema_description:"Elements allowing children only, text only, or nothing"`
}

// Server exposes a Toolkit as an MCP server.
type Server struct {
	toolkit   Toolkit
	mcpServer *server.MCPServer
	maxHits   int
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. Stdio servers must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxMatches caps query_corpus results when the caller gives no limit.
func WithMaxMatches(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHits = n
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(tk Toolkit, opts ...Option) *Server {
	s := &Server{
		toolkit:   tk,
		mcpServer: server.NewMCPServer("teiinfo", teiinfo.Version, server.WithToolCapabilities(false), server.WithResourceCapabilities(false, false)),
		maxHits:   200,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP endpoints over Server-Sent Events until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the IDs of the TEI documents in the corpus."),
		mcp.WithOutputSchema[DocumentList](),
	), mcp.NewStructuredToolHandler(s.handleListDocuments))

	s.mcpServer.AddTool(mcp.NewTool("document_header",
		mcp.WithDescription("Get the bibliographic header (title, authors, date, ...) of one document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID as returned by list_documents")),
		mcp.WithOutputSchema[domain.Document](),
	), mcp.NewStructuredToolHandler(s.handleHeader))

	s.mcpServer.AddTool(mcp.NewTool("query_corpus",
		mcp.WithDescription("Evaluate an XPath 1.0 expression over the corpus. The tei: prefix is bound to the TEI namespace."),
		mcp.WithString("xpath", mcp.Required(), mcp.Description("XPath expression, e.g. //tei:persName")),
		mcp.WithArray("documents", mcp.WithStringItems(), mcp.Description("Restrict the query to these document IDs (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matches to return (optional)")),
		mcp.WithOutputSchema[QueryResult](),
	), mcp.NewStructuredToolHandler(s.handleQuery))

	s.mcpServer.AddTool(mcp.NewTool("corpus_inventory",
		mcp.WithDescription("Survey the corpus: element counts, attribute usage and page breaks."),
	), s.handleInventory)

	s.mcpServer.AddTool(mcp.NewTool("analyze_schema",
		mcp.WithDescription("Classify the elements of an XML Schema (or RELAX NG, if trang is configured) as mixed or pure content."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the .xsd or .rng file")),
		mcp.WithOutputSchema[AnalysisResult](),
	), mcp.NewStructuredToolHandler(s.handleAnalyze))

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Validate one corpus document against a RELAX NG schema with jing."),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Path of the schema")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[domain.ValidationReport](),
	), mcp.NewStructuredToolHandler(s.handleValidate))
}

// Handler methods for structured tools

type emptyArgs struct{}

type headerArgs struct {
	ID string `json:"id"`
}

type queryArgs struct {
	XPath     string   `json:"xpath"`
	Documents []string `json:"documents"`
	Limit     int      `json:"limit"`
}

type analyzeArgs struct {
	Path string `json:"path"`
}

type validateArgs struct {
	Schema string `json:"schema"`
	ID     string `json:"id"`
}

func (s *Server) handleListDocuments(ctx context.Context, _ mcp.CallToolRequest, _ emptyArgs) (DocumentList, error) {
	ids, err := s.toolkit.Documents(ctx)
	if err != nil {
		return DocumentList{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return DocumentList{Documents: ids}, nil
}

func (s *Server) handleHeader(ctx context.Context, _ mcp.CallToolRequest, args headerArgs) (domain.Document, error) {
	if args.ID == "" {
		return domain.Document{}, errors.New("id is required")
	}
	doc, err := s.toolkit.Header(ctx, args.ID)
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *Server) handleQuery(ctx context.Context, _ mcp.CallToolRequest, args queryArgs) (QueryResult, error) {
	expr, err := tei.SanitizeExpression(args.XPath)
	if err != nil {
		s.logger.Warn("MCP query rejected", "err", err, "size", len(args.XPath))
		return QueryResult{}, err
	}
	matches, err := s.toolkit.Query(ctx, expr, args.Documents...)
	if err != nil {
		s.logger.Warn("MCP query failed", "xpath", args.XPath, "err", err)
		return QueryResult{}, err
	}

	limit := s.maxHits
	if args.Limit > 0 {
		limit = args.Limit
	}
	res := QueryResult{Matches: matches, Total: len(matches)}
	if len(matches) > limit {
		res.Matches = matches[:limit]
		res.Truncated = true
	}
	if res.Matches == nil {
		res.Matches = []tei.CorpusMatch{}
	}
	return res, nil
}

func (s *Server) handleInventory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := s.toolkit.Inventory(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inventory failed: %v", err)), nil
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnalyze(ctx context.Context, _ mcp.CallToolRequest, args analyzeArgs) (AnalysisResult, error) {
	if args.Path == "" {
		return AnalysisResult{}, errors.New("path is required")
	}
	a, err := s.toolkit.AnalyzeSchema(ctx, args.Path)
	if err != nil {
		return AnalysisResult{}, err
	}
	return AnalysisResult{
		Schema:   a.Schema,
		Checksum: a.Checksum,
		Elements: len(a.Elements),
		Mixed:    a.Mixed(),
		Pure:     a.Pure(),
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, _ mcp.CallToolRequest, args validateArgs) (domain.ValidationReport, error) {
	if args.Schema == "" || args.ID == "" {
		return domain.ValidationReport{}, errors.New("schema and id are required")
	}
	report, err := s.toolkit.ValidateDocument(ctx, args.Schema, args.ID)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return *report, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(InventoryURI, "Corpus inventory",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		inv, err := s.toolkit.Inventory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to survey corpus: %w", err)
		}
		data, err := json.Marshal(inv)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      InventoryURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
