package models

import "time"

// Mission is the root of a task graph: a top-level autonomous objective
// owning a set of Tasks and Jobs. Missions are created once and mutated in
// place; the core never deletes them.
type Mission struct {
	ID          string                 `json:"id"`          // Unique identifier (caller- or server-assigned)
	Title       string                 `json:"title"`       // Short human-readable title
	Description string                 `json:"description"` // Longer free-form description
	Metadata    map[string]interface{} `json:"metadata"`    // Free-form key/value map (e.g. project root, iteration limits)
	Tags        []string               `json:"tags"`        // Classification tags
	CreatedAt   time.Time              `json:"created_at"`  // Creation timestamp (UTC)
}
