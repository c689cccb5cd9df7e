package graph

import (
	"context"
	"strings"

	"suppcheck/internal/engine"
	"suppcheck/internal/util"
)

// ============================================================================
// CYPHER
// ============================================================================

// All pathway queries take explicit id or name sets as parameters so a check
// always runs against the snapshot it resolved up front.
const (
	resolveSupplementsCypher = `
		MATCH (s:Supplement)
		WHERE toLower(s.supplement_name) IN $names
		OPTIONAL MATCH (s)-[c:CONTAINS]->(a:ActiveIngredient)
		RETURN s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       collect({id: a.active_ingredient_id, name: a.active_ingredient, is_primary: coalesce(c.is_primary, false)}) AS ingredients
	`

	// A bare drug name resolves to itself: the drug set is the drug. Only
	// curated Supplement->Medication edges need a real Medication node.
	resolveMedicationsCypher = `
		MATCH (m:Medication)
		WHERE toLower(m.medication_name) IN $names
		OPTIONAL MATCH (m)-[:CONTAINS_DRUG]->(d:Drug)
		RETURN m.medication_id AS medication_id,
		       m.medication_name AS medication_name,
		       collect({id: d.drug_id, name: d.drug_name}) AS drugs
		UNION
		MATCH (d:Drug)
		WHERE toLower(d.drug_name) IN $names
		RETURN d.drug_id AS medication_id,
		       d.drug_name AS medication_name,
		       [{id: d.drug_id, name: d.drug_name}] AS drugs
	`

	findEquivalencesCypher = `
		MATCH (a:ActiveIngredient)-[e:EQUIVALENT_TO]->(d:Drug)
		WHERE a.active_ingredient_id IN $ids
		RETURN a.active_ingredient_id AS ingredient_id,
		       a.active_ingredient AS ingredient_name,
		       d.drug_id AS drug_id,
		       d.drug_name AS drug_name,
		       coalesce(e.equivalence_type, '') AS equivalence_type,
		       coalesce(e.notes, '') AS notes
	`

	findCategoryLinksCypher = `
		MATCH (s:Supplement)-[r:HAS_SIMILAR_EFFECT_TO]->(c:Category)
		WHERE s.supplement_id IN $ids
		RETURN s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       c.category_id AS category_id,
		       c.category AS category_name,
		       coalesce(r.confidence, '') AS confidence,
		       coalesce(r.notes, '') AS notes
	`

	findCategoryMembershipCypher = `
		MATCH (d:Drug)-[:BELONGS_TO]->(c:Category)
		WHERE d.drug_id IN $ids
		RETURN d.drug_id AS drug_id,
		       d.drug_name AS drug_name,
		       c.category_id AS category_id,
		       c.category AS category_name
	`

	findDirectInteractionsCypher = `
		MATCH (s:Supplement)-[r:INTERACTS_WITH]->(m:Medication)-[:CONTAINS_DRUG]->(d:Drug)
		WHERE s.supplement_id IN $supplement_ids AND m.medication_id IN $medication_ids
		RETURN s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       m.medication_id AS medication_id,
		       m.medication_name AS medication_name,
		       d.drug_id AS drug_id,
		       d.drug_name AS drug_name,
		       coalesce(r.description, '') AS description
	`

	sharedIngredientNotesCypher = `
		MATCH (s:Supplement)-[:CONTAINS]->(a:ActiveIngredient)-[e:EQUIVALENT_TO]->(d:Drug)
		WHERE s.supplement_id IN $ids
		RETURN s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       a.active_ingredient AS ingredient_name,
		       d.drug_name AS drug_name,
		       coalesce(e.equivalence_type, '') AS equivalence_type
	`

	lookupEntityCypher = `
		MATCH (s:Supplement) WHERE toLower(s.supplement_name) = $name
		RETURN 'supplement' AS kind, s.supplement_id AS id, s.supplement_name AS name, 'exact' AS via
		UNION
		MATCH (m:Medication) WHERE toLower(m.medication_name) = $name
		RETURN 'medication' AS kind, m.medication_id AS id, m.medication_name AS name, 'exact' AS via
		UNION
		MATCH (d:Drug) WHERE toLower(d.drug_name) = $name
		RETURN 'drug' AS kind, d.drug_id AS id, d.drug_name AS name, 'exact' AS via
		UNION
		MATCH (b:BrandName)-[:CONTAINS_DRUG]->(d:Drug) WHERE toLower(b.brand_name) = $name
		RETURN 'drug' AS kind, d.drug_id AS id, d.drug_name AS name, 'brand' AS via
		UNION
		MATCH (d:Drug)-[:KNOWN_AS]->(y:Synonym) WHERE toLower(y.synonym_name) = $name
		RETURN 'drug' AS kind, d.drug_id AS id, d.drug_name AS name, 'synonym' AS via
	`

	supplementInfoCypher = `
		MATCH (s:Supplement)
		WHERE toLower(s.supplement_name) = $name
		OPTIONAL MATCH (s)-[c:CONTAINS]->(a:ActiveIngredient)
		WITH s, collect({id: a.active_ingredient_id, name: a.active_ingredient, is_primary: coalesce(c.is_primary, false)}) AS ingredients
		OPTIONAL MATCH (s)-[r:HAS_SIMILAR_EFFECT_TO]->(cat:Category)
		RETURN s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       coalesce(s.safety_rating, '') AS safety_rating,
		       ingredients,
		       collect({name: cat.category, confidence: coalesce(r.confidence, '')}) AS categories
	`

	foodInteractionsCypher = `
		MATCH (d:Drug)-[:HAS_FOOD_INTERACTION]->(f:FoodInteraction)
		WHERE d.drug_id IN $ids
		RETURN d.drug_id AS drug_id,
		       d.drug_name AS drug_name,
		       f.description AS description
	`

	sideEffectsCypher = `
		MATCH (s:Supplement)-[:CAN_CAUSE]->(y:Symptom)
		WHERE s.supplement_id = $id
		RETURN s.supplement_id AS supplement_id,
		       y.symptom_name AS symptom
		ORDER BY y.symptom_name
	`

	supplementsForSymptomCypher = `
		MATCH (s:Supplement)-[:TREATS]->(y:Symptom)
		WHERE toLower(y.symptom_name) CONTAINS toLower($symptom)
		RETURN DISTINCT s.supplement_id AS supplement_id,
		       s.supplement_name AS supplement_name,
		       coalesce(s.safety_rating, '') AS safety_rating
		ORDER BY s.supplement_name
	`
)

// ============================================================================
// STORE
// ============================================================================

// Store adapts the Neo4j client to the engine's GraphStore contract and
// answers the enrichment lookups the MCP and TUI surfaces need.
type Store struct {
	client  *Neo4jClient
	backoff util.Backoff
}

func NewStore(client *Neo4jClient) *Store {
	return &Store{
		client:  client,
		backoff: util.DefaultBackoff(),
	}
}

// query wraps every read in bounded retry. Cancellation stops the retry
// loop immediately; an unreachable graph still surfaces once the attempts
// are spent.
func (s *Store) query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return util.RetryWithContext(ctx, s.backoff, func(ctx context.Context) ([]map[string]any, error) {
		return s.client.read(ctx, cypher, params)
	})
}

// ExecuteCypher exposes the client's guarded raw-query surface, so
// consumers can depend on the Store alone.
func (s *Store) ExecuteCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return s.client.ExecuteCypher(ctx, cypher, params)
}

func (s *Store) ResolveSupplements(ctx context.Context, names []string) ([]engine.SupplementRef, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, resolveSupplementsCypher, map[string]any{"names": lowerAll(names)})
	if err != nil {
		return nil, err
	}

	refs := make([]engine.SupplementRef, 0, len(rows))
	for _, row := range rows {
		ref := engine.SupplementRef{
			ID:   rowString(row, "supplement_id"),
			Name: rowString(row, "supplement_name"),
		}
		for _, ing := range rowMaps(row, "ingredients") {
			id := mapString(ing, "id")
			if id == "" {
				continue
			}
			ref.Ingredients = append(ref.Ingredients, engine.IngredientRef{
				ID:        id,
				Name:      mapString(ing, "name"),
				IsPrimary: mapBool(ing, "is_primary"),
			})
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Store) ResolveMedications(ctx context.Context, names []string) ([]engine.MedicationRef, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, resolveMedicationsCypher, map[string]any{"names": lowerAll(names)})
	if err != nil {
		return nil, err
	}

	refs := make([]engine.MedicationRef, 0, len(rows))
	for _, row := range rows {
		ref := engine.MedicationRef{
			ID:   rowString(row, "medication_id"),
			Name: rowString(row, "medication_name"),
		}
		for _, d := range rowMaps(row, "drugs") {
			id := mapString(d, "id")
			if id == "" {
				continue
			}
			ref.Drugs = append(ref.Drugs, engine.EntityRef{ID: id, Name: mapString(d, "name")})
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Store) FindEquivalences(ctx context.Context, ingredientIDs []string) ([]engine.EquivalenceRow, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, findEquivalencesCypher, map[string]any{"ids": ingredientIDs})
	if err != nil {
		return nil, err
	}

	out := make([]engine.EquivalenceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.EquivalenceRow{
			IngredientID:    rowString(row, "ingredient_id"),
			IngredientName:  rowString(row, "ingredient_name"),
			DrugID:          rowString(row, "drug_id"),
			DrugName:        rowString(row, "drug_name"),
			EquivalenceType: rowString(row, "equivalence_type"),
			Notes:           rowString(row, "notes"),
		})
	}
	return out, nil
}

func (s *Store) FindCategoryLinks(ctx context.Context, supplementIDs []string) ([]engine.CategoryLinkRow, error) {
	if len(supplementIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, findCategoryLinksCypher, map[string]any{"ids": supplementIDs})
	if err != nil {
		return nil, err
	}

	out := make([]engine.CategoryLinkRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.CategoryLinkRow{
			SupplementID:   rowString(row, "supplement_id"),
			SupplementName: rowString(row, "supplement_name"),
			CategoryID:     rowString(row, "category_id"),
			CategoryName:   rowString(row, "category_name"),
			Confidence:     rowString(row, "confidence"),
			Notes:          rowString(row, "notes"),
		})
	}
	return out, nil
}

func (s *Store) FindCategoryMembership(ctx context.Context, drugIDs []string) ([]engine.CategoryMemberRow, error) {
	if len(drugIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, findCategoryMembershipCypher, map[string]any{"ids": drugIDs})
	if err != nil {
		return nil, err
	}

	out := make([]engine.CategoryMemberRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.CategoryMemberRow{
			DrugID:       rowString(row, "drug_id"),
			DrugName:     rowString(row, "drug_name"),
			CategoryID:   rowString(row, "category_id"),
			CategoryName: rowString(row, "category_name"),
		})
	}
	return out, nil
}

func (s *Store) FindDirectInteractions(ctx context.Context, supplementIDs, medicationIDs []string) ([]engine.DirectInteractionRow, error) {
	if len(supplementIDs) == 0 || len(medicationIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, findDirectInteractionsCypher, map[string]any{
		"supplement_ids": supplementIDs,
		"medication_ids": medicationIDs,
	})
	if err != nil {
		return nil, err
	}

	out := make([]engine.DirectInteractionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.DirectInteractionRow{
			SupplementID:   rowString(row, "supplement_id"),
			SupplementName: rowString(row, "supplement_name"),
			MedicationID:   rowString(row, "medication_id"),
			MedicationName: rowString(row, "medication_name"),
			DrugID:         rowString(row, "drug_id"),
			DrugName:       rowString(row, "drug_name"),
			Description:    rowString(row, "description"),
		})
	}
	return out, nil
}

func (s *Store) SharedIngredientNotes(ctx context.Context, supplementIDs []string) ([]engine.SharedIngredientNote, error) {
	if len(supplementIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, sharedIngredientNotesCypher, map[string]any{"ids": supplementIDs})
	if err != nil {
		return nil, err
	}

	out := make([]engine.SharedIngredientNote, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.SharedIngredientNote{
			SupplementID:    rowString(row, "supplement_id"),
			SupplementName:  rowString(row, "supplement_name"),
			IngredientName:  rowString(row, "ingredient_name"),
			DrugName:        rowString(row, "drug_name"),
			EquivalenceType: rowString(row, "equivalence_type"),
		})
	}
	return out, nil
}

// ============================================================================
// NORMALIZATION & ENRICHMENT LOOKUPS
// ============================================================================

// LookupEntity resolves one free-text name against every naming surface the
// graph has: canonical names, brand names, and drug synonyms.
func (s *Store) LookupEntity(ctx context.Context, name string) ([]engine.EntityHit, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	rows, err := s.query(ctx, lookupEntityCypher, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}

	hits := make([]engine.EntityHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, engine.EntityHit{
			Kind: rowString(row, "kind"),
			ID:   rowString(row, "id"),
			Name: rowString(row, "name"),
			Via:  rowString(row, "via"),
		})
	}
	return hits, nil
}

// CategoryConfidence pairs a similar-effect category with the edge's stated
// confidence.
type CategoryConfidence struct {
	Name       string
	Confidence string
}

// SupplementInfo is the profile card for one supplement.
type SupplementInfo struct {
	ID           string
	Name         string
	SafetyRating string
	Ingredients  []engine.IngredientRef
	Categories   []CategoryConfidence
}

// GetSupplementInfo returns the profile for a supplement by name, or nil
// when the graph has never heard of it.
func (s *Store) GetSupplementInfo(ctx context.Context, name string) (*SupplementInfo, error) {
	rows, err := s.query(ctx, supplementInfoCypher, map[string]any{"name": strings.ToLower(strings.TrimSpace(name))})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	info := &SupplementInfo{
		ID:           rowString(row, "supplement_id"),
		Name:         rowString(row, "supplement_name"),
		SafetyRating: rowString(row, "safety_rating"),
	}
	for _, ing := range rowMaps(row, "ingredients") {
		id := mapString(ing, "id")
		if id == "" {
			continue
		}
		info.Ingredients = append(info.Ingredients, engine.IngredientRef{
			ID:        id,
			Name:      mapString(ing, "name"),
			IsPrimary: mapBool(ing, "is_primary"),
		})
	}
	for _, cat := range rowMaps(row, "categories") {
		name := mapString(cat, "name")
		if name == "" {
			continue
		}
		info.Categories = append(info.Categories, CategoryConfidence{
			Name:       name,
			Confidence: mapString(cat, "confidence"),
		})
	}
	return info, nil
}

// FoodInteraction is one HAS_FOOD_INTERACTION edge description.
type FoodInteraction struct {
	DrugID      string
	DrugName    string
	Description string
}

func (s *Store) FoodInteractions(ctx context.Context, drugIDs []string) ([]FoodInteraction, error) {
	if len(drugIDs) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx, foodInteractionsCypher, map[string]any{"ids": drugIDs})
	if err != nil {
		return nil, err
	}

	out := make([]FoodInteraction, 0, len(rows))
	for _, row := range rows {
		out = append(out, FoodInteraction{
			DrugID:      rowString(row, "drug_id"),
			DrugName:    rowString(row, "drug_name"),
			Description: rowString(row, "description"),
		})
	}
	return out, nil
}

// SideEffects lists the symptoms one supplement is recorded to cause.
func (s *Store) SideEffects(ctx context.Context, supplementID string) ([]string, error) {
	if supplementID == "" {
		return nil, nil
	}
	rows, err := s.query(ctx, sideEffectsCypher, map[string]any{"id": supplementID})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if symptom := rowString(row, "symptom"); symptom != "" {
			out = append(out, symptom)
		}
	}
	return out, nil
}

// SymptomMatch is one TREATS reverse-lookup hit.
type SymptomMatch struct {
	SupplementID   string
	SupplementName string
	SafetyRating   string
}

func (s *Store) SupplementsForSymptom(ctx context.Context, symptom string) ([]SymptomMatch, error) {
	symptom = strings.TrimSpace(symptom)
	if symptom == "" {
		return nil, nil
	}
	rows, err := s.query(ctx, supplementsForSymptomCypher, map[string]any{"symptom": symptom})
	if err != nil {
		return nil, err
	}

	out := make([]SymptomMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, SymptomMatch{
			SupplementID:   rowString(row, "supplement_id"),
			SupplementName: rowString(row, "supplement_name"),
			SafetyRating:   rowString(row, "safety_rating"),
		})
	}
	return out, nil
}

// ============================================================================
// ROW EXTRACTION
// ============================================================================

func lowerAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToLower(strings.TrimSpace(n)))
	}
	return out
}

func rowString(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func rowMaps(row map[string]any, key string) []map[string]any {
	list, ok := row[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func mapString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func mapBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
