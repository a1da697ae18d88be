package superstaq

import "github.com/shopspring/decimal"

// CreateJobRequest is the payload for submitting circuits.
type CreateJobRequest struct {
	SerializedCircuits map[string]string `json:"serialized_circuits"`
	Repetitions        int               `json:"repetitions"`
	Target             string            `json:"target"`
	Method             string            `json:"method,omitempty"`
	Options            string            `json:"options,omitempty"`
}

// CreateJobResponse carries the IDs of the jobs created remotely, one per
// submitted circuit.
type CreateJobResponse struct {
	JobIDs []string `json:"job_ids"`
	Status string   `json:"status"`
}

// JobResult is the remote state of a single job.
type JobResult struct {
	JobID   string         `json:"job_id"`
	Status  string         `json:"status"`
	Target  string         `json:"target"`
	Shots   int            `json:"shots"`
	Samples map[string]int `json:"samples"`
}

// BalanceResponse reports the account balance in dollars.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// TargetsResponse lists the devices and simulators available to the account.
type TargetsResponse struct {
	CompileAndRun []string `json:"compile-and-run"`
	CompileOnly   []string `json:"compile-only"`
	Unavailable   []string `json:"unavailable"`
	Retired       []string `json:"retired"`
}

// TargetInfo is free-form metadata about a single target.
type TargetInfo struct {
	TargetInfo map[string]interface{} `json:"target_info"`
}

// apiError is the error body returned by the API on failures.
type apiError struct {
	Message string `json:"message"`
}
