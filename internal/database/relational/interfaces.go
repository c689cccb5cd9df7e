package relational

import (
	"context"
)

// =============================================================================
// CORE INTERFACES
// =============================================================================

// ConsultationRepository persists finished checks and answers history queries.
type ConsultationRepository interface {
	// Migrate creates or updates the database schema.
	Migrate(ctx context.Context) error
	// InsertConsultation persists one check and its findings.
	InsertConsultation(ctx context.Context, c Consultation, findings []ConsultationFinding) (InsertResult, error)
	// RecentConsultations retrieves recent checks, newest first.
	RecentConsultations(ctx context.Context, sessionID string, limit int) ([]ConsultationSummary, error)
	// FindingsByConsultation retrieves one check's findings in rank order.
	FindingsByConsultation(ctx context.Context, consultationID int64) ([]ConsultationFinding, error)
	// SeverityTrend retrieves risk scores for charting, oldest first.
	SeverityTrend(ctx context.Context, limit int) ([]TrendPoint, error)
	// CountBySeverity aggregates finding counts across all stored checks.
	CountBySeverity(ctx context.Context) (map[string]int64, error)
	// Close releases database resources.
	Close() error
}

// HistoryWorker persists checks off the request path.
type HistoryWorker interface {
	// Start begins draining the persistence queue.
	Start(ctx context.Context) error
	// Stop gracefully stops the worker.
	Stop()
	// FlushOnce drains whatever is queued right now.
	FlushOnce(ctx context.Context) error
}
