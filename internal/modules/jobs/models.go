// Package jobs manages quantum job submission and tracking: circuits go
// out through the Superstaq client (or the local simulator), and the
// resulting remote jobs are tracked as one virtual job per submission.
package jobs

import (
	"strings"

	"github.com/1ucian0/client-superstaq/internal/circuit"
)

// Job statuses, matching the remote API vocabulary.
const (
	StatusSubmitted = "Submitted"
	StatusQueued    = "Queued"
	StatusRunning   = "Running"
	StatusDone      = "Done"
	StatusError     = "Error"
	StatusCanceled  = "Canceled"
)

// statusPriority orders non-terminal-first for aggregation: a virtual
// job reports the "least finished" member status. Done is reported only
// when every member is done.
var statusPriority = []string{
	StatusSubmitted,
	StatusQueued,
	StatusRunning,
	StatusError,
	StatusCanceled,
}

// IsTerminal reports whether a status can no longer change.
func IsTerminal(status string) bool {
	switch status {
	case StatusDone, StatusError, StatusCanceled:
		return true
	}
	return false
}

// AggregateStatus reduces member statuses to the virtual job's status.
func AggregateStatus(statuses []string) string {
	if len(statuses) == 0 {
		return StatusError
	}
	for _, candidate := range statusPriority {
		for _, s := range statuses {
			if s == candidate {
				return candidate
			}
		}
	}
	return StatusDone
}

// MemberJob is one remote job inside a virtual job.
type MemberJob struct {
	JobID   string         `json:"job_id" msgpack:"job_id"`
	Status  string         `json:"status" msgpack:"status"`
	Samples map[string]int `json:"samples,omitempty" msgpack:"samples,omitempty"`
}

// Job is a virtual job: one submission of one or more circuits. Its ID
// is the comma-joined member job IDs.
type Job struct {
	ID        string      `json:"id" msgpack:"id"`
	Target    string      `json:"target" msgpack:"target"`
	Shots     int         `json:"shots" msgpack:"shots"`
	Method    string      `json:"method,omitempty" msgpack:"method,omitempty"`
	Status    string      `json:"status" msgpack:"status"`
	Circuits  string      `json:"-" msgpack:"circuits"` // serialized, kept for result decoding
	Members   []MemberJob `json:"members" msgpack:"members"`
	CreatedAt string      `json:"created_at" msgpack:"created_at"`
	UpdatedAt string      `json:"updated_at" msgpack:"updated_at"`
}

// MemberIDs splits a virtual job ID into its member job IDs.
func MemberIDs(virtualID string) []string {
	parts := strings.Split(virtualID, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// SubmitRequest is one job submission.
type SubmitRequest struct {
	Circuits []*circuit.Circuit `json:"circuits"`
	Target   string             `json:"target,omitempty"`
	Shots    int                `json:"shots,omitempty"`
	Method   string             `json:"method,omitempty"`
}

// CountsResult is the measurement outcome of one circuit, with keys in
// qubit order (qubit 0 first).
type CountsResult struct {
	JobID  string         `json:"job_id"`
	Counts map[string]int `json:"counts"`
}

// ReverseBits flips a sample key's bit order. Remote samples arrive
// with the highest qubit first; results are presented qubit 0 first.
func ReverseBits(key string) string {
	runes := []rune(key)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
