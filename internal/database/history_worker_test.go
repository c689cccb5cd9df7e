package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"suppcheck/internal/database"
	"suppcheck/internal/database/relational"
)

// stubRepo records inserts in memory.
type stubRepo struct {
	mu       sync.Mutex
	inserted []relational.Consultation
	err      error
}

func (s *stubRepo) Migrate(ctx context.Context) error { return nil }

func (s *stubRepo) InsertConsultation(ctx context.Context, c relational.Consultation, findings []relational.ConsultationFinding) (relational.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return relational.InsertResult{}, s.err
	}
	s.inserted = append(s.inserted, c)
	return relational.InsertResult{ConsultationID: int64(len(s.inserted))}, nil
}

func (s *stubRepo) RecentConsultations(ctx context.Context, sessionID string, limit int) ([]relational.ConsultationSummary, error) {
	return nil, nil
}

func (s *stubRepo) FindingsByConsultation(ctx context.Context, consultationID int64) ([]relational.ConsultationFinding, error) {
	return nil, nil
}

func (s *stubRepo) SeverityTrend(ctx context.Context, limit int) ([]relational.TrendPoint, error) {
	return nil, nil
}

func (s *stubRepo) CountBySeverity(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func record(session string) database.Record {
	return database.Record{
		Consultation: relational.Consultation{SessionID: session, Verdict: "SAFE"},
	}
}

func TestWorkerFlushOnce(t *testing.T) {
	repo := &stubRepo{}
	worker, err := database.NewWorker(repo)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	worker.Enqueue(record("session-1"))
	worker.Enqueue(record("session-2"))

	if err := worker.FlushOnce(context.Background()); err != nil {
		t.Fatalf("FlushOnce failed: %v", err)
	}
	if repo.count() != 2 {
		t.Errorf("Expected 2 inserts, got %d", repo.count())
	}

	// Queue is now empty; a second flush is a no-op
	if err := worker.FlushOnce(context.Background()); err != nil {
		t.Fatalf("FlushOnce on empty queue failed: %v", err)
	}
	if repo.count() != 2 {
		t.Errorf("Expected still 2 inserts, got %d", repo.count())
	}
}

func TestWorkerFlushOnceError(t *testing.T) {
	repo := &stubRepo{err: errors.New("disk full")}
	worker, err := database.NewWorker(repo)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	worker.Enqueue(record("session-1"))
	if err := worker.FlushOnce(context.Background()); err == nil {
		t.Error("Expected flush error, got nil")
	}
}

func TestWorkerEnqueueDropsWhenFull(t *testing.T) {
	repo := &stubRepo{}
	worker, err := database.NewWorker(repo, database.WithQueueSize(2))
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	worker.Enqueue(record("session-1"))
	worker.Enqueue(record("session-2"))
	worker.Enqueue(record("session-3")) // dropped, queue full

	if err := worker.FlushOnce(context.Background()); err != nil {
		t.Fatalf("FlushOnce failed: %v", err)
	}
	if repo.count() != 2 {
		t.Errorf("Expected 2 inserts after drop, got %d", repo.count())
	}
}

func TestWorkerStartStopFlushes(t *testing.T) {
	repo := &stubRepo{}
	worker, err := database.NewWorker(repo, database.WithFlushInterval(time.Hour))
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The ticker will not fire for an hour; Stop must drain the queue anyway
	worker.Enqueue(record("session-1"))
	worker.Stop()

	if repo.count() != 1 {
		t.Errorf("Expected 1 insert after Stop, got %d", repo.count())
	}
}

func TestWorkerStartTwice(t *testing.T) {
	repo := &stubRepo{}
	worker, err := database.NewWorker(repo)
	if err != nil {
		t.Fatalf("failed to create worker: %v", err)
	}

	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer worker.Stop()

	if err := worker.Start(context.Background()); err == nil {
		t.Error("Expected error on second Start, got nil")
	}
}

func TestNewWorkerRequiresRepo(t *testing.T) {
	if _, err := database.NewWorker(nil); err == nil {
		t.Error("Expected error for nil repo, got nil")
	}
}
