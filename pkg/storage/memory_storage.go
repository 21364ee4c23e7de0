package storage

import (
	"sync"

	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
)

// memoryStore implements Store with in-memory slices. It is used by tests
// and examples that don't need cross-process durability.
type memoryStore struct {
	mu       sync.Mutex
	missions []models.Mission
	tasks    []models.Task
	jobs     []models.Job
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) CreateMission(mission models.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missions = append(m.missions, mission)
	return nil
}

func (m *memoryStore) GetMission(id string) (*models.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.missions) - 1; i >= 0; i-- {
		if m.missions[i].ID == id {
			mission := m.missions[i]
			return &mission, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) UpdateMission(mission models.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.missions) - 1; i >= 0; i-- {
		if m.missions[i].ID == mission.ID {
			m.missions[i] = mission
			break
		}
	}
	return nil
}

func (m *memoryStore) ListMissions() ([]models.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Mission, len(m.missions))
	copy(out, m.missions)
	return out, nil
}

func (m *memoryStore) CreateTask(task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *memoryStore) GetTask(id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].ID == id {
			task := m.tasks[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) UpdateTask(task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = task
			break
		}
	}
	return nil
}

func (m *memoryStore) ListTasks() ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *memoryStore) FindTaskByName(missionID, name string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].MissionID == missionID && m.tasks[i].Name == name {
			task := m.tasks[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateJob(job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *memoryStore) GetJob(id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].ID == id {
			job := m.jobs[i]
			return &job, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) UpdateJob(job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].ID == job.ID {
			m.jobs[i] = job
			break
		}
	}
	return nil
}

func (m *memoryStore) ListJobs() ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Job, len(m.jobs))
	copy(out, m.jobs)
	return out, nil
}
