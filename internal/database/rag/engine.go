// Package rag layers Gemini on top of the knowledge graph: it normalizes
// free-text supplement and medication mentions to graph entities, produces
// cautious assessments for pairs the graph has no data on, and answers
// open advisor questions with graph records as context.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"suppcheck/internal/engine"
	"suppcheck/internal/util"
	"suppcheck/pkg/logger"
)

// ModelConfig defines configuration for a Gemini model.
type ModelConfig struct {
	Name        string
	Temperature float32
	TopP        float32
	TopK        int32
}

// AvailableModels defines the available Gemini models and their configurations.
// Temperatures stay low across the board; this is a safety domain and creative
// answers are a liability.
var AvailableModels = map[string]ModelConfig{
	"flash": {
		Name:        "gemini-flash-latest",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        40,
	},
	"flash-lite": {
		Name:        "gemini-flash-lite-latest",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        40,
	},
	"pro": {
		Name:        "gemini-pro-latest",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        32,
	},
}

// Temperatures applied per task, overriding the model default.
// Normalization wants near-deterministic output.
const (
	normalizeTemperature float32 = 0.1
	reasonTemperature    float32 = 0.2
)

// Confidence labels attached to a normalization match.
const (
	ConfidenceHigh      = "HIGH"
	ConfidenceAmbiguous = "AMBIGUOUS"
	ConfidenceNotFound  = "NOT_FOUND"
)

var errNoResponse = errors.New("no response from Gemini")

// Match is the outcome of normalizing one free-text mention.
type Match struct {
	Kind          string // supplement, medication, or drug
	ID            string
	CanonicalName string
	Confidence    string // HIGH, AMBIGUOUS, or NOT_FOUND
	Via           string // exact, brand, synonym, or llm
}

// Found reports whether the mention resolved to a graph entity at all.
func (m Match) Found() bool {
	return m.Confidence != ConfidenceNotFound
}

// GraphReader is the slice of the graph store the engine depends on.
type GraphReader interface {
	LookupEntity(ctx context.Context, name string) ([]engine.EntityHit, error)
	ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Engine handles normalization, fallback reasoning, and advisor retrieval
// augmented generation over the knowledge graph.
type Engine struct {
	graph        GraphReader
	geminiClient *genai.Client
	modelName    string
	config       ModelConfig
	backoff      util.Backoff
}

// NewEngine constructs an engine backed by the provided graph reader.
func NewEngine(graph GraphReader, gemini *genai.Client, modelKey string) *Engine {
	if modelKey == "" {
		modelKey = "flash" // Default to flash for low latency
	}

	config, ok := AvailableModels[modelKey]
	if !ok {
		// Fallback to flash if unknown model
		config = AvailableModels["flash"]
	}

	return &Engine{
		graph:        graph,
		geminiClient: gemini,
		modelName:    config.Name,
		config:       config,
		backoff:      util.DefaultBackoff(),
	}
}

// ModelName reports which Gemini model the engine is configured with.
func (e *Engine) ModelName() string {
	return e.modelName
}

// getModel returns a configured GenerativeModel instance at the given temperature.
func (e *Engine) getModel(temperature float32) *genai.GenerativeModel {
	model := e.geminiClient.GenerativeModel(e.modelName)
	model.SetTemperature(temperature)
	model.SetTopP(e.config.TopP)
	model.SetTopK(e.config.TopK)
	return model
}

// Normalize resolves free text to a graph entity. A NOT_FOUND match is a valid
// terminal outcome, never an error; unmatched names belong to the fallback
// chain. Errors are reserved for the graph itself failing.
func (e *Engine) Normalize(ctx context.Context, text string) (Match, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Match{Confidence: ConfidenceNotFound}, nil
	}

	// Step 1: Direct lookup across canonical names, brand names, and synonyms
	hits, err := e.graph.LookupEntity(ctx, text)
	if err != nil {
		return Match{}, fmt.Errorf("failed to look up %q: %w", text, err)
	}
	if len(hits) > 0 {
		return matchFromHit(hits[0], ConfidenceHigh, hits[0].Via), nil
	}

	// Step 2: Let Gemini repair typos and informal aliases
	corrected, err := e.correctName(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return Match{}, ctx.Err()
		}
		logger.Warn("name correction unavailable", "text", text, "error", err)
		return Match{Confidence: ConfidenceNotFound}, nil
	}
	if corrected == "" || strings.EqualFold(corrected, text) {
		return Match{Confidence: ConfidenceNotFound}, nil
	}

	// Step 3: Re-check the graph with the corrected name
	hits, err = e.graph.LookupEntity(ctx, corrected)
	if err != nil {
		return Match{}, fmt.Errorf("failed to look up corrected name %q: %w", corrected, err)
	}
	if len(hits) > 0 {
		logger.Info("resolved via correction", "input", text, "corrected", corrected)
		return matchFromHit(hits[0], ConfidenceAmbiguous, "llm"), nil
	}

	return Match{Confidence: ConfidenceNotFound}, nil
}

// Reason produces a cautious assessment for an interaction question the graph
// and the web both came up empty on. The answer states uncertainty explicitly;
// callers treat it as low-confidence by construction.
func (e *Engine) Reason(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(`You are a cautious clinical pharmacology assistant. A user wants to know whether a dietary supplement and a medication can be taken together. No curated interaction data exists for this pair.

Question: %s

Answer in at most three sentences. Mention a mechanism only if it is well established. If the evidence is lacking or mixed, say so plainly. Never declare the combination safe.`, query)

	answer, err := e.generate(ctx, reasonTemperature, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to reason about %q: %w", query, err)
	}
	return answer, nil
}

// Ask performs a GraphRAG query: it retrieves relevant graph records and
// synthesizes an answer grounded in them.
func (e *Engine) Ask(ctx context.Context, question string) (string, error) {
	// Step 1: Generate Cypher query using Gemini
	cypher, err := e.generateCypher(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to generate cypher: %w", err)
	}

	// Step 2: Execute query on Neo4j to retrieve the relevant subgraph
	graphData, err := e.graph.ExecuteCypher(ctx, cypher, nil)
	if err != nil || len(graphData) == 0 {
		// If the generated query fails or matches nothing, fall back to a
		// broad supplement overview so the model still has grounding
		cypher = `
			MATCH (s:Supplement)
			OPTIONAL MATCH (s)-[:CONTAINS]->(a:ActiveIngredient)
			OPTIONAL MATCH (s)-[:INTERACTS_WITH]->(m:Medication)
			WITH s, collect(DISTINCT a.active_ingredient) as ingredients,
				 collect(DISTINCT m.medication_name) as interacts_with
			RETURN s.supplement_name as supplement,
				   coalesce(s.safety_rating, '') as safety_rating,
				   ingredients,
				   interacts_with
			ORDER BY s.supplement_name
			LIMIT 25
		`
		graphData, err = e.graph.ExecuteCypher(ctx, cypher, nil)
		if err != nil {
			return "", fmt.Errorf("failed to execute graph query: %w", err)
		}
	}

	// Step 3: Synthesize answer using Gemini with the graph context
	answer, err := e.synthesizeAnswer(ctx, question, graphData)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return answer, nil
}

// generateCypher uses Gemini to convert a natural language question into a Cypher query.
func (e *Engine) generateCypher(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`You are a Neo4j Cypher query expert. Convert the following question into a Cypher query for a supplement and medication interaction graph database.

Graph Schema:
- Nodes: Supplement, ActiveIngredient, Medication, Drug, Category, Symptom, BrandName, FoodInteraction
- Relationships:
  - (Supplement)-[:CONTAINS {is_primary}]->(ActiveIngredient)
  - (ActiveIngredient)-[:EQUIVALENT_TO {equivalence_type, notes}]->(Drug)
  - (Supplement)-[:HAS_SIMILAR_EFFECT_TO {confidence, notes}]->(Category)
  - (Supplement)-[:INTERACTS_WITH {description}]->(Medication)
  - (Medication)-[:CONTAINS_DRUG]->(Drug)
  - (BrandName)-[:CONTAINS_DRUG]->(Drug)
  - (Drug)-[:BELONGS_TO]->(Category)
  - (Supplement)-[:CAN_CAUSE]->(Symptom)
  - (Supplement)-[:TREATS]->(Symptom)
  - (Drug)-[:HAS_FOOD_INTERACTION]->(FoodInteraction)

Supplement properties: supplement_id, supplement_name, safety_rating
ActiveIngredient properties: active_ingredient_id, active_ingredient
Medication properties: medication_id, medication_name
Drug properties: drug_id, drug_name
Category properties: category_id, category
Symptom properties: symptom_id, symptom_name

Question: %s

Use only MATCH, OPTIONAL MATCH, WHERE, WITH, RETURN, ORDER BY and LIMIT. Match names case-insensitively with toLower(). Return ONLY the Cypher query, no explanation. Limit results to 25.`, question)

	raw, err := e.generate(ctx, e.config.Temperature, prompt)
	if err != nil {
		return "", err
	}

	// Clean up markdown code blocks if present
	cypher := cleanCypherQuery(raw)
	if cypher == "" {
		return "", fmt.Errorf("model returned an empty query")
	}
	return cypher, nil
}

// synthesizeAnswer uses Gemini to generate a natural language answer from graph data.
func (e *Engine) synthesizeAnswer(ctx context.Context, question string, graphData []map[string]any) (string, error) {
	// Convert graph data to JSON for context
	graphJSON, err := json.MarshalIndent(graphData, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are a supplement safety advisor. Answer the following question based on the graph database results.

Question: %s

Graph Data (from Neo4j):
%s

Provide a clear, concise answer explaining:
1. What the data shows
2. Any interaction risks and their severity
3. Which ingredients or drug classes are involved
4. When to confirm with a pharmacist or doctor

If the graph data is empty or insufficient, say so clearly. Never declare a combination safe beyond what the data supports.`, question, string(graphJSON))

	answer, err := e.generate(ctx, e.config.Temperature, prompt)
	if errors.Is(err, errNoResponse) {
		return "Unable to generate response from the available data.", nil
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

// correctName asks Gemini for the most likely intended entity name.
// An empty return means the model could not recognize the input.
func (e *Engine) correctName(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`A user typed %q as the name of a dietary supplement, a medication, or a drug, but it matched nothing in a medical knowledge base. Assume it contains a typo or an informal alias.

Respond with ONLY the most likely intended name, nothing else. If you do not recognize it as any real supplement, medication, or drug, respond with exactly UNKNOWN.`, text)

	answer, err := e.generate(ctx, normalizeTemperature, prompt)
	if err != nil {
		return "", err
	}

	answer = strings.Trim(cleanCypherQuery(answer), `"'.`)
	if answer == "" || strings.EqualFold(answer, "UNKNOWN") {
		return "", nil
	}
	return answer, nil
}

// generate runs one prompt with bounded retry and the usual response guards.
func (e *Engine) generate(ctx context.Context, temperature float32, prompt string) (string, error) {
	if e.geminiClient == nil {
		return "", fmt.Errorf("gemini client not configured")
	}

	model := e.getModel(temperature)
	return util.RetryWithContext(ctx, e.backoff, func(ctx context.Context) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errNoResponse
		}
		return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
	})
}

func matchFromHit(hit engine.EntityHit, confidence, via string) Match {
	return Match{
		Kind:          hit.Kind,
		ID:            hit.ID,
		CanonicalName: hit.Name,
		Confidence:    confidence,
		Via:           via,
	}
}

// cleanCypherQuery removes markdown code blocks from model output.
func cleanCypherQuery(query string) string {
	// Remove ```cypher and ``` markers
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "```cypher")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(query, "```")
	return strings.TrimSpace(query)
}
