package domain

import "context"

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// UpdateStatus moves a job to status. It returns ErrInvalidTransition when
	// the stored status does not allow the move and ErrNotFound when the job is
	// unknown.
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, errMsg *string, result []byte) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
}

// JobClaimer hands pending jobs to queue workers, one at a time.
type JobClaimer interface {
	ClaimPending(ctx context.Context) (*Job, error)
}

// SessionRepository persists user preference sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Update(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, sessionID string) (*Session, error)
}

// ResultRepository stores enhanced workflow results.
type ResultRepository interface {
	Save(ctx context.Context, result *StoredResult) error
	GetByID(ctx context.Context, resultID string) (*StoredResult, error)
}

// Stores bundles the repositories a persistence mode provides.
type Stores struct {
	Mode     string
	Jobs     JobRepository
	Claimer  JobClaimer
	Sessions SessionRepository
	Results  ResultRepository
}

// Enabled reports whether any persistence backend is configured.
func (s Stores) Enabled() bool {
	return s.Jobs != nil && s.Sessions != nil && s.Results != nil
}
