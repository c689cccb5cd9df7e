// Consultation history lives in two DuckDB tables: a wide fact table with
// one row per check, and a child table holding that check's ranked findings
// keyed by consultation_id. DuckDB is columnar and append-only inserts suit
// it well; there are no updates in this schema.
//
// Driver: github.com/marcboeker/go-duckdb
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// =============================================================================
// SCHEMA SQL
// =============================================================================

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS consultations (
  consultation_id BIGINT PRIMARY KEY,
  session_id      VARCHAR NOT NULL,
  requested_at    TIMESTAMP NOT NULL,

  supplements     VARCHAR NOT NULL,
  medications     VARCHAR NOT NULL,

  verdict         VARCHAR NOT NULL,
  risk_score      INTEGER NOT NULL,
  confidence      DOUBLE NOT NULL,
  primary_cause   VARCHAR,
  explanation     VARCHAR,

  finding_count   INTEGER NOT NULL,
  safe_count      INTEGER NOT NULL,
  unknown_count   INTEGER NOT NULL,

  degraded        BOOLEAN NOT NULL,
  graph_rows      INTEGER NOT NULL,
  duration_ms     BIGINT NOT NULL,

  created_at      TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS consultation_findings (
  consultation_id BIGINT NOT NULL,
  seq             INTEGER NOT NULL,
  supplement      VARCHAR NOT NULL,
  drug            VARCHAR NOT NULL,
  severity        VARCHAR NOT NULL,
  tier            VARCHAR NOT NULL,
  source          VARCHAR NOT NULL,
  warning         VARCHAR,
  PRIMARY KEY(consultation_id, seq)
);
`

// =============================================================================
// REPO IMPLEMENTATION
// =============================================================================

// Repo persists consultations and answers history queries.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, SchemaSQL)
	return err
}

// NewID generates a unique ID (time-based).
func NewID() int64 {
	return time.Now().UnixNano()
}

// InsertConsultation persists one check and its findings in a single
// transaction. A zero ConsultationID is assigned here.
func (r *Repo) InsertConsultation(ctx context.Context, c Consultation, findings []ConsultationFinding) (InsertResult, error) {
	if c.ConsultationID == 0 {
		c.ConsultationID = NewID()
	}
	if c.RequestedAt.IsZero() {
		c.RequestedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO consultations(
		  consultation_id, session_id, requested_at,
		  supplements, medications,
		  verdict, risk_score, confidence, primary_cause, explanation,
		  finding_count, safe_count, unknown_count,
		  degraded, graph_rows, duration_ms
		) VALUES (
		  ?,?,?,
		  ?,?,
		  ?,?,?,?,?,
		  ?,?,?,
		  ?,?,?
		)
	`,
		c.ConsultationID, c.SessionID, c.RequestedAt,
		c.Supplements, c.Medications,
		c.Verdict, c.RiskScore, c.Confidence, nullStr(c.PrimaryCause), nullStr(c.Explanation),
		c.FindingCount, c.SafeCount, c.UnknownCount,
		c.Degraded, c.GraphRows, c.DurationMS,
	)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert consultation: %w", err)
	}

	if len(findings) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO consultation_findings(consultation_id, seq, supplement, drug, severity, tier, source, warning)
			VALUES(?,?,?,?,?,?,?,?)
		`)
		if err != nil {
			return InsertResult{}, err
		}
		defer stmt.Close()
		for i, f := range findings {
			if _, err := stmt.ExecContext(ctx, c.ConsultationID, i+1, f.Supplement, f.Drug, f.Severity, f.Tier, f.Source, nullStr(f.Warning)); err != nil {
				return InsertResult{}, fmt.Errorf("insert finding %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, err
	}

	return InsertResult{ConsultationID: c.ConsultationID}, nil
}

// Null helpers
func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
