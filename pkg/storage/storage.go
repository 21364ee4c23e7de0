package storage

import "github.com/J3r3C0/sheratan-core-v2/pkg/models"

// Store defines the persistence operations for Sheratan Core.
// Get operations return (nil, nil) for unknown ids: absence is a normal
// outcome, not an error. Referential integrity between kinds is checked by
// the consumers (bridge, interpreter) at dereference time, not on write.
type Store interface {
	// Mission operations
	CreateMission(m models.Mission) error
	GetMission(id string) (*models.Mission, error)
	UpdateMission(m models.Mission) error
	ListMissions() ([]models.Mission, error)

	// Task operations
	CreateTask(t models.Task) error
	GetTask(id string) (*models.Task, error)
	UpdateTask(t models.Task) error
	ListTasks() ([]models.Task, error)
	// FindTaskByName resolves a task by its per-mission unique name.
	FindTaskByName(missionID, name string) (*models.Task, error)

	// Job operations
	CreateJob(j models.Job) error
	GetJob(id string) (*models.Job, error)
	UpdateJob(j models.Job) error
	ListJobs() ([]models.Job, error)
}
