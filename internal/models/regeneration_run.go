package models

import "time"

// RegenerationRun records one execution of the snapshot pipeline
type RegenerationRun struct {
	Seq int64  `json:"seq" db:"seq"`
	ID  string `json:"id" db:"id"` // UUID

	// Execution
	Trigger string `json:"trigger" db:"triggered_by"` // startup, schedule, manual, cli
	Status  string `json:"status" db:"status"`        // running, completed, failed

	// Results
	InputDigest   string `json:"input_digest,omitempty" db:"input_digest"`
	DistrictCount int    `json:"district_count" db:"district_count"`
	WarningCount  int    `json:"warning_count" db:"warning_count"`
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunTrigger constants
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)
