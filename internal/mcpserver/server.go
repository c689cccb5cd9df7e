package mcpserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/option"

	"suppcheck/internal/database"
	"suppcheck/internal/database/graph"
	"suppcheck/internal/database/rag"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
	"suppcheck/internal/output"
	"suppcheck/internal/verdict"
)

// Server wraps the MCP server with supplement interaction capabilities.
type Server struct {
	mcpServer *mcp.Server

	// Check pipeline collaborators
	normalizer output.EntityNormalizer
	checker    output.Checker
	resolver   output.FallbackResolver
	verdicts   output.VerdictAssessor

	// Enrichment and raw access
	ragEngine   *rag.Engine
	store       *graph.Store
	graphClient graph.GraphClient

	// History
	history relational.ConsultationRepository
	worker  *database.Worker

	neo4jClient  *graph.Neo4jClient
	geminiClient *genai.Client

	checkTimeout time.Duration
	sessionID    string
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string

	GeminiAPIKey string
	GeminiModel  string // Model key: flash, flash-lite, pro

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	SearchAPIKey   string
	SearchEngineID string

	// CheckTimeout caps one check_interactions call. Zero means the
	// 90-second default.
	CheckTimeout time.Duration

	// FallbackWorkers caps concurrent fallback pairs. Zero means the
	// orchestrator default.
	FallbackWorkers int

	SessionID string
}

// NewServer creates a new MCP server instance. The graph is required; the
// Gemini and web search collaborators are optional and their absence only
// degrades the fallback chain.
func NewServer(cfg Config, repo relational.ConsultationRepository, worker *database.Worker) (*Server, error) {
	ctx := context.Background()

	// Initialize Gemini client when a key is configured
	var geminiClient *genai.Client
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		geminiClient = client
	} else {
		fmt.Fprintf(os.Stderr, "Warning: no Gemini API key, normalization and reasoning disabled\n")
	}

	// Initialize Neo4j client. An unreachable graph is fatal.
	neo4jClient, err := graph.NewNeo4jClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		if geminiClient != nil {
			geminiClient.Close()
		}
		return nil, fmt.Errorf("failed to create neo4j client: %w", err)
	}

	store := graph.NewStore(neo4jClient)

	eng, err := engine.New(store, engine.DefaultEngineConfig())
	if err != nil {
		if geminiClient != nil {
			geminiClient.Close()
		}
		neo4jClient.Close(ctx)
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	// Initialize RAG engine with model selection
	modelKey := cfg.GeminiModel
	if modelKey == "" {
		modelKey = "flash" // Default to flash for low latency
	}
	fmt.Fprintf(os.Stderr, "Using Gemini model: %s\n", modelKey)
	ragEngine := rag.NewEngine(store, geminiClient, modelKey)

	// Web search is the first fallback stage; missing credentials just mean
	// the stage always advances
	var searcher fallback.Searcher
	if cfg.SearchAPIKey != "" && cfg.SearchEngineID != "" {
		ws, err := fallback.NewWebSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: web search unavailable: %v\n", err)
		} else {
			searcher = ws
		}
	} else {
		fmt.Fprintf(os.Stderr, "Warning: no web search credentials, fallback starts at reasoning\n")
	}

	fbConfig := fallback.DefaultConfig()
	if cfg.FallbackWorkers > 0 {
		fbConfig.Workers = cfg.FallbackWorkers
	}
	orchestrator := fallback.New(searcher, ragEngine, fbConfig)

	checkTimeout := cfg.CheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = 90 * time.Second
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("mcp-%d", time.Now().Unix())
	}

	// Create MCP server with Implementation
	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	mcpServer := mcp.NewServer(impl, nil)

	s := &Server{
		mcpServer:    mcpServer,
		normalizer:   ragEngine,
		checker:      eng,
		resolver:     orchestrator,
		verdicts:     verdict.NewService(verdict.DefaultConfig()),
		ragEngine:    ragEngine,
		store:        store,
		graphClient:  neo4jClient,
		history:      repo,
		worker:       worker,
		neo4jClient:  neo4jClient,
		geminiClient: geminiClient,
		checkTimeout: checkTimeout,
		sessionID:    sessionID,
	}

	// Register tools
	s.registerTools()

	// Start the history worker so check results persist off the request path
	if worker != nil {
		if err := worker.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history worker not started: %v\n", err)
		}
	}

	return s, nil
}

// CheckInteractionsArgs defines the input for check_interactions tool.
type CheckInteractionsArgs struct {
	Supplements []string `json:"supplements" jsonschema:"supplement names to check"`
	Medications []string `json:"medications" jsonschema:"medication names to check against"`
}

// FindingSummary is one ranked finding in tool output.
type FindingSummary struct {
	Supplement string `json:"supplement" jsonschema:"supplement name"`
	Medication string `json:"medication" jsonschema:"medication or drug name"`
	Severity   string `json:"severity" jsonschema:"HIGH, MEDIUM, LOW, or UNKNOWN"`
	Tier       string `json:"tier" jsonschema:"confidence tier: GRAPH-HIGH, MEDIUM, LOW, or NONE"`
	Source     string `json:"source" jsonschema:"graph pathway or fallback stage that produced it"`
	Warning    string `json:"warning" jsonschema:"human-readable warning"`
}

// CheckInteractionsResult defines the output for check_interactions tool.
type CheckInteractionsResult struct {
	Verdict      string           `json:"verdict" jsonschema:"SAFE or CAUTION ADVISED"`
	RiskScore    int              `json:"risk_score" jsonschema:"weighted risk score, 0-100"`
	Confidence   float64          `json:"confidence" jsonschema:"confidence in the verdict"`
	Explanation  string           `json:"explanation" jsonschema:"headline explanation"`
	Findings     []FindingSummary `json:"findings" jsonschema:"ranked findings, highest confidence and severity first"`
	Safe         []string         `json:"safe" jsonschema:"supplements with no known interactions"`
	UnknownCount int              `json:"unknown_count" jsonschema:"pairs with no data from any source"`
}

// NormalizeEntityArgs defines the input for normalize_entity tool.
type NormalizeEntityArgs struct {
	Name string `json:"name" jsonschema:"free-text supplement or medication name"`
}

// NormalizeEntityResult defines the output for normalize_entity tool.
type NormalizeEntityResult struct {
	Found         bool   `json:"found" jsonschema:"whether the name resolved to a graph entity"`
	Kind          string `json:"kind,omitempty" jsonschema:"supplement or drug"`
	ID            string `json:"id,omitempty" jsonschema:"graph id of the matched entity"`
	CanonicalName string `json:"canonical_name,omitempty" jsonschema:"graph spelling of the name"`
	Confidence    string `json:"confidence" jsonschema:"HIGH, AMBIGUOUS, or NOT_FOUND"`
	Via           string `json:"via,omitempty" jsonschema:"how the match was made: name, brand, ingredient, or llm"`
}

// SupplementInfoArgs defines the input for get_supplement_info tool.
type SupplementInfoArgs struct {
	Name string `json:"name" jsonschema:"supplement name"`
}

// SupplementInfoResult defines the output for get_supplement_info tool.
type SupplementInfoResult struct {
	Found            bool     `json:"found" jsonschema:"whether the supplement exists in the graph"`
	ID               string   `json:"id,omitempty" jsonschema:"graph id"`
	Name             string   `json:"name,omitempty" jsonschema:"canonical name"`
	SafetyRating     string   `json:"safety_rating,omitempty" jsonschema:"curated safety rating"`
	Ingredients      []string `json:"ingredients,omitempty" jsonschema:"active ingredients"`
	Categories       []string `json:"categories,omitempty" jsonschema:"similar-effect drug categories"`
	SideEffects      []string `json:"side_effects,omitempty" jsonschema:"recorded side effects"`
	FoodInteractions []string `json:"food_interactions,omitempty" jsonschema:"food interactions of equivalent drugs"`
}

// AskAdvisorArgs defines the input for ask_advisor tool.
type AskAdvisorArgs struct {
	Question string `json:"question" jsonschema:"the question to ask about supplements and medications"`
}

// AskAdvisorResult defines the output for ask_advisor tool.
type AskAdvisorResult struct {
	Answer string `json:"answer" jsonschema:"AI-generated answer grounded in the knowledge graph"`
}

// QueryGraphArgs defines the input for query_graph tool.
type QueryGraphArgs struct {
	Cypher string `json:"cypher" jsonschema:"read-only Cypher query to execute"`
}

// QueryGraphResult wraps graph query results.
type QueryGraphResult struct {
	Data interface{} `json:"data" jsonschema:"query results"`
}

// SymptomArgs defines the input for find_supplements_for_symptom tool.
type SymptomArgs struct {
	Symptom string `json:"symptom" jsonschema:"symptom or condition to find supplements for"`
}

// SymptomSupplement is one TREATS match in tool output.
type SymptomSupplement struct {
	Name         string `json:"name" jsonschema:"supplement name"`
	SafetyRating string `json:"safety_rating,omitempty" jsonschema:"curated safety rating"`
}

// SymptomResult defines the output for find_supplements_for_symptom tool.
type SymptomResult struct {
	Supplements []SymptomSupplement `json:"supplements" jsonschema:"supplements recorded to treat the symptom"`
}

// CheckHistoryArgs defines the input for get_check_history tool.
type CheckHistoryArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session to filter by; empty for all sessions"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of checks to return"`
}

// CheckHistoryResult wraps stored consultation summaries.
type CheckHistoryResult struct {
	Consultations []relational.ConsultationSummary `json:"consultations" jsonschema:"recent checks, newest first"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	// Tool 1: check_interactions - the full graph + fallback check
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_interactions",
		Description: "Check a list of supplements against a list of medications for interactions. Evaluates the curated knowledge graph first, falls back to web search and cautious AI reasoning for unknown pairs, and returns ranked findings with an overall verdict. Use this whenever the user asks whether supplements and medications are safe to combine.",
	}, s.handleCheckInteractions)

	// Tool 2: normalize_entity - resolve a free-text name
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "normalize_entity",
		Description: "Resolve a free-text supplement or medication name (including brand names and misspellings) to its canonical knowledge-graph entity. Returns the match kind, canonical spelling, and confidence.",
	}, s.handleNormalizeEntity)

	// Tool 3: get_supplement_info - profile card for one supplement
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_supplement_info",
		Description: "Get the knowledge-graph profile of one supplement: active ingredients, similar-effect drug categories, safety rating, recorded side effects, and food interactions of equivalent drugs.",
	}, s.handleGetSupplementInfo)

	// Tool 4: ask_advisor - GraphRAG-powered Q&A
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask_advisor",
		Description: "Ask open questions about supplements, medications, and their interactions using AI-powered graph analysis. Use this for 'why' and 'what about' questions that go beyond a pairwise check.",
	}, s.handleAskAdvisor)

	// Tool 5: query_graph - direct Cypher access for power users
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_graph",
		Description: "Execute read-only Cypher queries directly on the Neo4j knowledge graph. Available nodes: Supplement, ActiveIngredient, Medication, Drug, Category, Symptom, BrandName, FoodInteraction. Write clauses are rejected.",
	}, s.handleQueryGraph)

	// Tool 6: find_supplements_for_symptom - TREATS reverse lookup
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_supplements_for_symptom",
		Description: "Find supplements the knowledge graph records as treating a symptom or condition. Returns names with safety ratings; always pair results with check_interactions before recommending.",
	}, s.handleFindSupplementsForSymptom)

	// Tool 7: get_check_history - query DuckDB for past checks
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_check_history",
		Description: "Query past interaction checks from the consultation history. Returns verdicts, risk scores, and explanations, newest first. Use for questions about what was checked before.",
	}, s.handleGetCheckHistory)
}

// handleCheckInteractions runs the full check pipeline.
func (s *Server) handleCheckInteractions(ctx context.Context, _ *mcp.CallToolRequest, args CheckInteractionsArgs) (*mcp.CallToolResult, CheckInteractionsResult, error) {
	if len(args.Supplements) == 0 || len(args.Medications) == 0 {
		return nil, CheckInteractionsResult{}, fmt.Errorf("both supplements and medications are required")
	}

	if s.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.checkTimeout)
		defer cancel()
	}

	payload, err := output.RunCheck(ctx, s.normalizer, s.checker, s.resolver, s.verdicts, output.CheckRequest{
		SessionID:   s.sessionID,
		Supplements: args.Supplements,
		Medications: args.Medications,
	})
	if err != nil {
		return nil, CheckInteractionsResult{}, fmt.Errorf("check failed: %w", err)
	}

	// Persist off the request path
	if s.worker != nil {
		s.worker.Enqueue(database.Record{
			Consultation: payload.Consultation,
			Findings:     payload.FindingRows,
		})
	}

	result := CheckInteractionsResult{
		Verdict:      payload.Verdict.Overall,
		RiskScore:    payload.Verdict.RiskScore,
		Confidence:   payload.Verdict.Confidence,
		Explanation:  payload.Verdict.Explanation,
		UnknownCount: payload.Verdict.UnknownCount,
	}
	for _, f := range payload.Result.Findings {
		result.Findings = append(result.Findings, FindingSummary{
			Supplement: f.Supplement,
			Medication: f.Drug,
			Severity:   f.Severity.String(),
			Tier:       f.Tier.String(),
			Source:     f.Source,
			Warning:    f.Warning,
		})
	}
	for _, rec := range payload.Result.Safe {
		result.Safe = append(result.Safe, rec.Supplement.Name)
	}

	return nil, result, nil
}

// handleNormalizeEntity resolves one free-text name.
func (s *Server) handleNormalizeEntity(ctx context.Context, _ *mcp.CallToolRequest, args NormalizeEntityArgs) (*mcp.CallToolResult, NormalizeEntityResult, error) {
	match, err := s.normalizer.Normalize(ctx, args.Name)
	if err != nil {
		return nil, NormalizeEntityResult{}, fmt.Errorf("normalization failed: %w", err)
	}

	return nil, NormalizeEntityResult{
		Found:         match.Found(),
		Kind:          match.Kind,
		ID:            match.ID,
		CanonicalName: match.CanonicalName,
		Confidence:    match.Confidence,
		Via:           match.Via,
	}, nil
}

// handleGetSupplementInfo returns one supplement's profile card.
func (s *Server) handleGetSupplementInfo(ctx context.Context, _ *mcp.CallToolRequest, args SupplementInfoArgs) (*mcp.CallToolResult, SupplementInfoResult, error) {
	info, err := s.store.GetSupplementInfo(ctx, args.Name)
	if err != nil {
		return nil, SupplementInfoResult{}, fmt.Errorf("supplement lookup failed: %w", err)
	}
	if info == nil {
		return nil, SupplementInfoResult{Found: false}, nil
	}

	result := SupplementInfoResult{
		Found:        true,
		ID:           info.ID,
		Name:         info.Name,
		SafetyRating: info.SafetyRating,
	}
	ingredientIDs := make([]string, 0, len(info.Ingredients))
	for _, ing := range info.Ingredients {
		result.Ingredients = append(result.Ingredients, ing.Name)
		ingredientIDs = append(ingredientIDs, ing.ID)
	}
	for _, cat := range info.Categories {
		result.Categories = append(result.Categories, cat.Name)
	}

	// Side effects and food interactions are enrichment; the profile stands
	// without them
	if effects, err := s.store.SideEffects(ctx, info.ID); err == nil {
		result.SideEffects = effects
	}
	if interactions, err := s.foodInteractionsFor(ctx, ingredientIDs); err == nil {
		result.FoodInteractions = interactions
	}

	return nil, result, nil
}

// foodInteractionsFor walks ingredient equivalences to the drugs they match
// and collects those drugs' food interactions. A supplement inherits the
// food cautions of whatever pharmaceutical it is equivalent to.
func (s *Server) foodInteractionsFor(ctx context.Context, ingredientIDs []string) ([]string, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}

	equivalences, err := s.store.FindEquivalences(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(equivalences))
	drugIDs := make([]string, 0, len(equivalences))
	for _, eq := range equivalences {
		if !seen[eq.DrugID] {
			seen[eq.DrugID] = true
			drugIDs = append(drugIDs, eq.DrugID)
		}
	}

	interactions, err := s.store.FoodInteractions(ctx, drugIDs)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(interactions))
	for _, fi := range interactions {
		out = append(out, fmt.Sprintf("%s: %s", fi.DrugName, fi.Description))
	}
	return out, nil
}

// handleFindSupplementsForSymptom runs the TREATS reverse lookup.
func (s *Server) handleFindSupplementsForSymptom(ctx context.Context, _ *mcp.CallToolRequest, args SymptomArgs) (*mcp.CallToolResult, SymptomResult, error) {
	matches, err := s.store.SupplementsForSymptom(ctx, args.Symptom)
	if err != nil {
		return nil, SymptomResult{}, fmt.Errorf("symptom lookup failed: %w", err)
	}

	result := SymptomResult{Supplements: []SymptomSupplement{}}
	for _, m := range matches {
		result.Supplements = append(result.Supplements, SymptomSupplement{
			Name:         m.SupplementName,
			SafetyRating: m.SafetyRating,
		})
	}
	return nil, result, nil
}

// handleAskAdvisor uses GraphRAG to answer open questions.
func (s *Server) handleAskAdvisor(ctx context.Context, _ *mcp.CallToolRequest, args AskAdvisorArgs) (*mcp.CallToolResult, AskAdvisorResult, error) {
	answer, err := s.ragEngine.Ask(ctx, args.Question)
	if err != nil {
		return nil, AskAdvisorResult{}, fmt.Errorf("RAG query failed: %w", err)
	}

	return nil, AskAdvisorResult{Answer: answer}, nil
}

// handleQueryGraph executes read-only Cypher queries.
func (s *Server) handleQueryGraph(ctx context.Context, _ *mcp.CallToolRequest, args QueryGraphArgs) (*mcp.CallToolResult, QueryGraphResult, error) {
	result, err := s.graphClient.ExecuteCypher(ctx, args.Cypher, nil)
	if err != nil {
		return nil, QueryGraphResult{}, fmt.Errorf("cypher query failed: %w", err)
	}

	return nil, QueryGraphResult{Data: result}, nil
}

// handleGetCheckHistory queries DuckDB.
func (s *Server) handleGetCheckHistory(ctx context.Context, _ *mcp.CallToolRequest, args CheckHistoryArgs) (*mcp.CallToolResult, CheckHistoryResult, error) {
	consultations, err := s.history.RecentConsultations(ctx, args.SessionID, args.Limit)
	if err != nil {
		return nil, CheckHistoryResult{}, fmt.Errorf("failed to query history: %w", err)
	}

	return nil, CheckHistoryResult{Consultations: consultations}, nil
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "Starting SuppCheck MCP Server on stdio...\n")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}

// Close cleans up resources.
func (s *Server) Close(ctx context.Context) error {
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.geminiClient != nil {
		s.geminiClient.Close()
	}
	if s.neo4jClient != nil {
		s.neo4jClient.Close(ctx)
	}
	return nil
}
