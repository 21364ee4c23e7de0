package models

import "time"

type JobStatus string

const (
	PendingJobStatus   JobStatus = "pending"
	CompletedJobStatus JobStatus = "completed"
	FailedJobStatus    JobStatus = "failed"
)

// Job is one concrete, dispatchable instance of a Task. Result is non-nil
// exactly when the status is terminal (completed or failed).
type Job struct {
	ID        string                 `json:"id"`         // Unique identifier
	TaskID    string                 `json:"task_id"`    // Foreign key to Task
	Payload   map[string]interface{} `json:"payload"`    // Instance parameters, overlaying Task.Params at dispatch
	Status    JobStatus              `json:"status"`     // "pending", "completed", "failed"
	Result    map[string]interface{} `json:"result"`     // Worker result, nil until terminal
	CreatedAt time.Time              `json:"created_at"` // Creation timestamp (UTC)
	UpdatedAt time.Time              `json:"updated_at"` // Last mutation timestamp (UTC)
}

// Terminal reports whether the job has reached a final status.
func (j Job) Terminal() bool {
	return j.Status == CompletedJobStatus || j.Status == FailedJobStatus
}
