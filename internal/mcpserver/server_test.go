package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"suppcheck/internal/database"
	"suppcheck/internal/database/rag"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
	"suppcheck/internal/verdict"
)

// MockNormalizer implements output.EntityNormalizer for testing
type MockNormalizer struct {
	Match rag.Match
	Err   error
}

func (m *MockNormalizer) Normalize(ctx context.Context, text string) (rag.Match, error) {
	if m.Err != nil {
		return rag.Match{}, m.Err
	}
	if m.Match.Confidence == "" {
		return rag.Match{Confidence: rag.ConfidenceNotFound}, nil
	}
	return m.Match, nil
}

// MockChecker implements output.Checker for testing
type MockChecker struct {
	Unresolved *engine.UnresolvedInput
	Result     *engine.Result
	BuildErr   error
	CheckErr   error
}

func (m *MockChecker) BuildContext(ctx context.Context, supplementNames, medicationNames []string) (*engine.QueryContext, *engine.UnresolvedInput, error) {
	if m.BuildErr != nil {
		return nil, nil, m.BuildErr
	}
	qc := engine.NewQueryContext(
		[]engine.SupplementRef{{ID: "supp-1", Name: "St Johns Wort"}},
		[]engine.MedicationRef{{ID: "med-1", Name: "Sertraline"}},
	)
	unresolved := m.Unresolved
	if unresolved == nil {
		unresolved = &engine.UnresolvedInput{}
	}
	return qc, unresolved, nil
}

func (m *MockChecker) Check(ctx context.Context, qc *engine.QueryContext) (*engine.Result, error) {
	if m.CheckErr != nil {
		return nil, m.CheckErr
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &engine.Result{}, nil
}

// MockResolver implements output.FallbackResolver for testing
type MockResolver struct {
	Outcomes []fallback.Outcome
}

func (m *MockResolver) Resolve(ctx context.Context, pairs []fallback.Pair) []fallback.Outcome {
	return m.Outcomes
}

// MockHistory implements relational.ConsultationRepository for testing
type MockHistory struct {
	Summaries []relational.ConsultationSummary
	Inserted  []relational.Consultation
	QueryErr  error
}

func (m *MockHistory) Migrate(ctx context.Context) error { return nil }

func (m *MockHistory) InsertConsultation(ctx context.Context, c relational.Consultation, findings []relational.ConsultationFinding) (relational.InsertResult, error) {
	m.Inserted = append(m.Inserted, c)
	return relational.InsertResult{ConsultationID: int64(len(m.Inserted))}, nil
}

func (m *MockHistory) RecentConsultations(ctx context.Context, sessionID string, limit int) ([]relational.ConsultationSummary, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.Summaries, nil
}

func (m *MockHistory) FindingsByConsultation(ctx context.Context, consultationID int64) ([]relational.ConsultationFinding, error) {
	return nil, nil
}

func (m *MockHistory) SeverityTrend(ctx context.Context, limit int) ([]relational.TrendPoint, error) {
	return nil, nil
}

func (m *MockHistory) CountBySeverity(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

func (m *MockHistory) Close() error { return nil }

// MockGraphClient implements graph.GraphClient for testing
type MockGraphClient struct {
	CypherResult []map[string]any
	CypherErr    error
}

func (m *MockGraphClient) Close(ctx context.Context) error { return nil }
func (m *MockGraphClient) Ping(ctx context.Context) error  { return nil }

func (m *MockGraphClient) ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if m.CypherErr != nil {
		return nil, m.CypherErr
	}
	return m.CypherResult, nil
}

func checkServer(chk *MockChecker) *Server {
	return &Server{
		normalizer:   &MockNormalizer{},
		checker:      chk,
		resolver:     &MockResolver{},
		verdicts:     verdict.NewService(verdict.DefaultConfig()),
		checkTimeout: time.Minute,
		sessionID:    "test-session",
	}
}

func highFindingResult() *engine.Result {
	return &engine.Result{
		Findings: []engine.AggregatedFinding{{
			SupplementID:   "supp-1",
			SupplementName: "St Johns Wort",
			DrugID:         "drug-1",
			DrugName:       "Sertraline",
			Severity:       engine.SeverityHigh,
			Primary:        engine.PathwayDirect,
			Warning:        "Risk of serotonin syndrome.",
		}},
		Diagnostics: engine.Diagnostics{GraphRows: 1},
	}
}

func TestHandleCheckInteractions_Success(t *testing.T) {
	s := checkServer(&MockChecker{Result: highFindingResult()})

	ctx := context.Background()
	args := CheckInteractionsArgs{
		Supplements: []string{"St Johns Wort"},
		Medications: []string{"Sertraline"},
	}

	_, result, err := s.handleCheckInteractions(ctx, nil, args)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Verdict != "CAUTION ADVISED" {
		t.Errorf("Expected CAUTION ADVISED, got %s", result.Verdict)
	}
	if result.RiskScore != 40 {
		t.Errorf("Expected risk score 40, got %d", result.RiskScore)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Severity != "HIGH" {
		t.Errorf("Expected HIGH, got %s", f.Severity)
	}
	if f.Tier != "GRAPH-HIGH" {
		t.Errorf("Expected GRAPH-HIGH tier, got %s", f.Tier)
	}
	if f.Source != "direct_interaction" {
		t.Errorf("Expected direct_interaction source, got %s", f.Source)
	}
}

func TestHandleCheckInteractions_MissingArgs(t *testing.T) {
	s := checkServer(&MockChecker{})
	ctx := context.Background()

	tests := []struct {
		name string
		args CheckInteractionsArgs
	}{
		{"no supplements", CheckInteractionsArgs{Medications: []string{"Sertraline"}}},
		{"no medications", CheckInteractionsArgs{Supplements: []string{"Ginkgo"}}},
		{"empty", CheckInteractionsArgs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.handleCheckInteractions(ctx, nil, tt.args)
			if err == nil {
				t.Error("Expected error for missing args")
			}
		})
	}
}

func TestHandleCheckInteractions_CheckError(t *testing.T) {
	s := checkServer(&MockChecker{CheckErr: errors.New("graph unavailable")})

	_, _, err := s.handleCheckInteractions(context.Background(), nil, CheckInteractionsArgs{
		Supplements: []string{"Ginkgo"},
		Medications: []string{"Warfarin"},
	})
	if err == nil {
		t.Error("Expected error when graph check fails")
	}
}

func TestHandleCheckInteractions_EnqueuesHistory(t *testing.T) {
	history := &MockHistory{}
	worker, err := database.NewWorker(history)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	s := checkServer(&MockChecker{Result: highFindingResult()})
	s.worker = worker

	_, _, err = s.handleCheckInteractions(context.Background(), nil, CheckInteractionsArgs{
		Supplements: []string{"St Johns Wort"},
		Medications: []string{"Sertraline"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := worker.FlushOnce(context.Background()); err != nil {
		t.Fatalf("FlushOnce failed: %v", err)
	}
	if len(history.Inserted) != 1 {
		t.Fatalf("Expected 1 persisted consultation, got %d", len(history.Inserted))
	}
	if history.Inserted[0].SessionID != "test-session" {
		t.Errorf("Expected test-session, got %s", history.Inserted[0].SessionID)
	}
}

func TestHandleNormalizeEntity_Success(t *testing.T) {
	s := &Server{
		normalizer: &MockNormalizer{Match: rag.Match{
			Kind:          "drug",
			ID:            "drug-7",
			CanonicalName: "Lovastatin",
			Confidence:    rag.ConfidenceHigh,
			Via:           "brand",
		}},
	}

	_, result, err := s.handleNormalizeEntity(context.Background(), nil, NormalizeEntityArgs{Name: "Mevacor"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !result.Found {
		t.Error("Expected match to be found")
	}
	if result.ID != "drug-7" {
		t.Errorf("Expected drug-7, got %s", result.ID)
	}
	if result.CanonicalName != "Lovastatin" {
		t.Errorf("Expected Lovastatin, got %s", result.CanonicalName)
	}
	if result.Via != "brand" {
		t.Errorf("Expected brand, got %s", result.Via)
	}
}

func TestHandleNormalizeEntity_NotFound(t *testing.T) {
	s := &Server{normalizer: &MockNormalizer{}}

	_, result, err := s.handleNormalizeEntity(context.Background(), nil, NormalizeEntityArgs{Name: "xyzzy"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Found {
		t.Error("Expected no match")
	}
	if result.Confidence != rag.ConfidenceNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", result.Confidence)
	}
}

func TestHandleNormalizeEntity_Error(t *testing.T) {
	s := &Server{normalizer: &MockNormalizer{Err: errors.New("llm down")}}

	_, _, err := s.handleNormalizeEntity(context.Background(), nil, NormalizeEntityArgs{Name: "Ginkgo"})
	if err == nil {
		t.Error("Expected error when normalizer fails")
	}
}

func TestHandleQueryGraph_Success(t *testing.T) {
	mockGraph := &MockGraphClient{
		CypherResult: []map[string]any{
			{"supplement_name": "Ginkgo", "safety_rating": "caution"},
		},
	}

	s := &Server{graphClient: mockGraph}

	ctx := context.Background()
	args := QueryGraphArgs{Cypher: "MATCH (s:Supplement) RETURN s.supplement_name"}

	_, result, err := s.handleQueryGraph(ctx, nil, args)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Data == nil {
		t.Error("Expected non-nil data")
	}
}

func TestHandleQueryGraph_Error(t *testing.T) {
	mockGraph := &MockGraphClient{
		CypherErr: errors.New("cypher syntax error"),
	}

	s := &Server{graphClient: mockGraph}

	ctx := context.Background()
	args := QueryGraphArgs{Cypher: "INVALID CYPHER"}

	_, _, err := s.handleQueryGraph(ctx, nil, args)
	if err == nil {
		t.Error("Expected error for invalid cypher")
	}
}

func TestHandleGetCheckHistory_Success(t *testing.T) {
	history := &MockHistory{
		Summaries: []relational.ConsultationSummary{
			{ConsultationID: 1, SessionID: "s1", RequestedAt: time.Now(), Verdict: "SAFE"},
		},
	}

	s := &Server{history: history}

	_, result, err := s.handleGetCheckHistory(context.Background(), nil, CheckHistoryArgs{Limit: 5})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Consultations) != 1 {
		t.Fatalf("Expected 1 consultation, got %d", len(result.Consultations))
	}
	if result.Consultations[0].Verdict != "SAFE" {
		t.Errorf("Expected SAFE, got %s", result.Consultations[0].Verdict)
	}
}

func TestHandleGetCheckHistory_Error(t *testing.T) {
	s := &Server{history: &MockHistory{QueryErr: errors.New("db closed")}}

	_, _, err := s.handleGetCheckHistory(context.Background(), nil, CheckHistoryArgs{})
	if err == nil {
		t.Error("Expected error when history query fails")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{
		ServerName:    "test-server",
		ServerVersion: "1.0.0",
		GeminiAPIKey:  "test-key",
	}

	if cfg.ServerName != "test-server" {
		t.Errorf("Expected ServerName 'test-server', got '%s'", cfg.ServerName)
	}

	if cfg.GeminiModel != "" {
		t.Errorf("Expected empty GeminiModel by default, got '%s'", cfg.GeminiModel)
	}
}

func TestCheckInteractionsArgs(t *testing.T) {
	args := CheckInteractionsArgs{
		Supplements: []string{"Ginkgo"},
		Medications: []string{"Warfarin"},
	}
	if len(args.Supplements) == 0 || len(args.Medications) == 0 {
		t.Error("Args should carry both lists")
	}
}
