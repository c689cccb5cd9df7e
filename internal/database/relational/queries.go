package relational

import (
	"context"
	"fmt"
)

// clampLimit keeps history queries bounded.
func clampLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Safety limit
	}
	return limit
}

// RecentConsultations retrieves recent checks, newest first, with optional
// session filtering.
func (r *Repo) RecentConsultations(ctx context.Context, sessionID string, limit int) ([]ConsultationSummary, error) {
	limit = clampLimit(limit)

	query := `
		SELECT
			consultation_id,
			session_id,
			requested_at,
			supplements,
			medications,
			verdict,
			risk_score,
			confidence,
			COALESCE(primary_cause, '') as primary_cause,
			COALESCE(explanation, '') as explanation,
			unknown_count
		FROM consultations
		WHERE 1=1
	`

	args := []interface{}{}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY requested_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query consultations failed: %w", err)
	}
	defer rows.Close()

	summaries := []ConsultationSummary{} // Initialize as empty slice, not nil
	for rows.Next() {
		var s ConsultationSummary
		err := rows.Scan(
			&s.ConsultationID,
			&s.SessionID,
			&s.RequestedAt,
			&s.Supplements,
			&s.Medications,
			&s.Verdict,
			&s.RiskScore,
			&s.Confidence,
			&s.PrimaryCause,
			&s.Explanation,
			&s.UnknownCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan consultation failed: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return summaries, nil
}

// LatestConsultation retrieves the most recent check in a session. An empty
// sessionID searches across all sessions.
func (r *Repo) LatestConsultation(ctx context.Context, sessionID string) (*ConsultationSummary, error) {
	summaries, err := r.RecentConsultations(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no consultations found")
	}
	return &summaries[0], nil
}

// FindingsByConsultation retrieves one check's findings in rank order.
func (r *Repo) FindingsByConsultation(ctx context.Context, consultationID int64) ([]ConsultationFinding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			consultation_id,
			seq,
			supplement,
			drug,
			severity,
			tier,
			source,
			COALESCE(warning, '') as warning
		FROM consultation_findings
		WHERE consultation_id = ?
		ORDER BY seq
	`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("query findings failed: %w", err)
	}
	defer rows.Close()

	findings := []ConsultationFinding{} // Initialize as empty slice, not nil
	for rows.Next() {
		var f ConsultationFinding
		err := rows.Scan(
			&f.ConsultationID,
			&f.Seq,
			&f.Supplement,
			&f.Drug,
			&f.Severity,
			&f.Tier,
			&f.Source,
			&f.Warning,
		)
		if err != nil {
			return nil, fmt.Errorf("scan finding failed: %w", err)
		}
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return findings, nil
}

// SeverityTrend retrieves risk scores for the latest checks, oldest first so
// charts read left to right.
func (r *Repo) SeverityTrend(ctx context.Context, limit int) ([]TrendPoint, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT requested_at, risk_score FROM (
			SELECT requested_at, risk_score
			FROM consultations
			ORDER BY requested_at DESC
			LIMIT ?
		) AS latest ORDER BY requested_at ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trend failed: %w", err)
	}
	defer rows.Close()

	points := []TrendPoint{} // Initialize as empty slice, not nil
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.At, &p.RiskScore); err != nil {
			return nil, fmt.Errorf("scan trend point failed: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return points, nil
}

// CountBySeverity aggregates finding counts across all stored checks.
func (r *Repo) CountBySeverity(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) as n
		FROM consultation_findings
		GROUP BY severity
	`)
	if err != nil {
		return nil, fmt.Errorf("query severity counts failed: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var severity string
		var n int64
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, fmt.Errorf("scan severity count failed: %w", err)
		}
		counts[severity] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return counts, nil
}
