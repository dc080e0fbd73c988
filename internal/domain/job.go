package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning, JobStatusFailed},
	JobStatusRunning: {JobStatusDone, JobStatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourceStatuses lists the statuses a job may hold right before entering to.
func SourceStatuses(to JobStatus) []JobStatus {
	var out []JobStatus
	for _, from := range []JobStatus{JobStatusPending, JobStatusRunning} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// Job tracks one asynchronous room redesign request.
type Job struct {
	ID        string
	Status    JobStatus
	Request   json.RawMessage
	Result    json.RawMessage
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRequest is the payload stored with a job at submission time.
type JobRequest struct {
	ImageB64 string     `json:"image_b64"`
	Prompt   string     `json:"prompt"`
	Options  JobOptions `json:"options"`
}

// JobOptions carries the preferences an async job runs with.
type JobOptions struct {
	Budget    string   `json:"budget,omitempty"`
	Items     []string `json:"items,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}
