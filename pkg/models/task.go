package models

import "time"

// Task is a reusable template describing a category of work within a
// Mission. Its name must be unique within the owning Mission: the
// interpreter resolves textual follow-up references through it.
type Task struct {
	ID          string                 `json:"id"`          // Unique identifier
	MissionID   string                 `json:"mission_id"`  // Foreign key to Mission
	Name        string                 `json:"name"`        // Unique per Mission (e.g. "analyze_file")
	Description string                 `json:"description"` // What jobs of this task do
	Kind        string                 `json:"kind"`        // Opaque worker hint (e.g. "list_files", "llm_call", "code_task")
	Params      map[string]interface{} `json:"params"`      // Default parameters for jobs of this task
	CreatedAt   time.Time              `json:"created_at"`  // Creation timestamp (UTC)
}
