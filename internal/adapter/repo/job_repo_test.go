package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"artistry/internal/domain"
	"artistry/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	tag   string
	row   func(dest ...any) error
	execs []execCall
	rows  []execCall
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return pgconn.NewCommandTag(s.tag), nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.rows = append(s.rows, execCall{query: query, args: args})
	return stubRow{scan: s.row}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func jobRow(id, status string) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = status
		*dest[2].(*[]byte) = []byte(`{}`)
		*dest[3].(*[]byte) = nil
		*dest[4].(**string) = nil
		*dest[5].(*time.Time) = time.Unix(0, 0)
		*dest[6].(*time.Time) = time.Unix(0, 0)
		return nil
	}
}

func TestUpdateStatusPassesSourceStatuses(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 1"}
	repo := NewJobRepository(exec)

	msg := "boom"
	if err := repo.UpdateStatus(context.Background(), "job-1", domain.JobStatusFailed, &msg, nil); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if len(exec.execs) != 1 {
		t.Fatalf("expected one exec, got %d", len(exec.execs))
	}
	call := exec.execs[0]
	if call.query != sqlinline.QUpdateJobStatus {
		t.Fatalf("unexpected query %q", call.query)
	}
	if call.args[1] != "failed" || call.args[4] != "pending" || call.args[5] != "running" {
		t.Fatalf("unexpected args %#v", call.args)
	}
	if b, ok := call.args[3].([]byte); !ok || b != nil {
		t.Fatalf("expected nil result bytes, got %#v", call.args[3])
	}
}

func TestUpdateStatusDistinguishesMissingFromTerminal(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 0", row: jobRow("job-1", "done")}
	repo := NewJobRepository(exec)
	err := repo.UpdateStatus(context.Background(), "job-1", domain.JobStatusRunning, nil, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	exec = &stubExecutor{tag: "UPDATE 0"}
	repo = NewJobRepository(exec)
	err = repo.UpdateStatus(context.Background(), "job-2", domain.JobStatusRunning, nil, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusRejectsUnreachableTarget(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 1"}
	repo := NewJobRepository(exec)
	err := repo.UpdateStatus(context.Background(), "job-1", domain.JobStatusPending, nil, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(exec.execs) != 0 {
		t.Fatal("no statement should run for an unreachable status")
	}
}

func TestClaimPendingEmptyQueue(t *testing.T) {
	repo := NewJobRepository(&stubExecutor{})
	if _, err := repo.ClaimPending(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateFillsDefaults(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	exec := &stubExecutor{row: func(dest ...any) error {
		*dest[0].(*time.Time) = created
		*dest[1].(*time.Time) = created
		return nil
	}}
	repo := NewJobRepository(exec)

	job := &domain.Job{}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if job.ID == "" || job.Status != domain.JobStatusPending {
		t.Fatalf("defaults not applied: %+v", job)
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %s", job.CreatedAt)
	}
	if got := string(exec.rows[0].args[2].([]byte)); got != "{}" {
		t.Fatalf("request json = %q", got)
	}
}
