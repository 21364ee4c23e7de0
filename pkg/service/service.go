package service

import (
	"time"

	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/relay"
	"github.com/J3r3C0/sheratan-core-v2/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for the service layer
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Lookup errors surfaced to callers; the HTTP layer maps them to 404.
var (
	ErrMissionNotFound = errors.New("Mission not found")
	ErrTaskNotFound    = errors.New("Task not found")
)

// MissionService manages mission, task and job records and drives the
// dispatch/sync cycle through the relay bridge. All progress is caller
// driven: the service never spawns background work.
type MissionService struct {
	store       storage.Store
	bridge      *relay.Bridge
	interpreter *Interpreter
	logger      Logger
}

func NewMissionService(store storage.Store, bridge *relay.Bridge, logger Logger) *MissionService {
	return &MissionService{
		store:       store,
		bridge:      bridge,
		interpreter: NewInterpreter(store, bridge, logger),
		logger:      logger,
	}
}

func (s *MissionService) CreateMission(title, description string, metadata map[string]interface{}, tags []string) (*models.Mission, error) {
	if title == "" {
		return nil, errors.New("mission title cannot be empty")
	}
	if len(title) > 200 {
		return nil, errors.New("mission title too long (max 200 characters)")
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if tags == nil {
		tags = []string{}
	}
	mission := models.Mission{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Metadata:    metadata,
		Tags:        tags,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateMission(mission); err != nil {
		return nil, errors.Wrap(err, "create mission")
	}
	s.logger.Infof("Created mission '%s' with ID %s", title, mission.ID)
	return &mission, nil
}

func (s *MissionService) GetMission(id string) (*models.Mission, error) {
	return s.store.GetMission(id)
}

func (s *MissionService) ListMissions() ([]models.Mission, error) {
	return s.store.ListMissions()
}

// UpdateMission overwrites the mutable mission fields (title, description,
// metadata, tags) of an existing mission.
func (s *MissionService) UpdateMission(mission models.Mission) (*models.Mission, error) {
	existing, err := s.store.GetMission(mission.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.Wrapf(ErrMissionNotFound, "%s", mission.ID)
	}
	if mission.Title == "" {
		return nil, errors.New("mission title cannot be empty")
	}
	mission.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateMission(mission); err != nil {
		return nil, errors.Wrapf(err, "update mission %s", mission.ID)
	}
	s.logger.Infof("Updated mission %s", mission.ID)
	return &mission, nil
}

// CreateTask registers a task template under a mission. The task name must
// be unique within the mission: the interpreter resolves follow-up
// references by name, so a duplicate would make resolution ambiguous.
func (s *MissionService) CreateTask(missionID, name, description, kind string, params map[string]interface{}) (*models.Task, error) {
	if name == "" {
		return nil, errors.New("task name cannot be empty")
	}
	if kind == "" {
		return nil, errors.New("task kind cannot be empty")
	}
	mission, err := s.store.GetMission(missionID)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, errors.Wrapf(ErrMissionNotFound, "%s", missionID)
	}
	existing, err := s.store.FindTaskByName(missionID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Errorf("task name %q already exists in mission %s", name, missionID)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	task := models.Task{
		ID:          uuid.NewString(),
		MissionID:   missionID,
		Name:        name,
		Description: description,
		Kind:        kind,
		Params:      params,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateTask(task); err != nil {
		return nil, errors.Wrap(err, "create task")
	}
	s.logger.Infof("Created task '%s' (kind %s) in mission %s", name, kind, missionID)
	return &task, nil
}

func (s *MissionService) GetTask(id string) (*models.Task, error) {
	return s.store.GetTask(id)
}

func (s *MissionService) ListTasks() ([]models.Task, error) {
	return s.store.ListTasks()
}

// CreateJob instantiates a pending job from a task template.
func (s *MissionService) CreateJob(taskID string, payload map[string]interface{}) (*models.Job, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errors.Wrapf(ErrTaskNotFound, "%s", taskID)
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	now := time.Now().UTC()
	job := models.Job{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Payload:   payload,
		Status:    models.PendingJobStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateJob(job); err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	s.logger.Infof("Created job %s for task %s", job.ID, taskID)
	return &job, nil
}

func (s *MissionService) GetJob(id string) (*models.Job, error) {
	return s.store.GetJob(id)
}

func (s *MissionService) ListJobs() ([]models.Job, error) {
	return s.store.ListJobs()
}

// DispatchJob writes the job's envelope into the outbound mailbox.
func (s *MissionService) DispatchJob(jobID string) (string, error) {
	return s.bridge.EnqueueJob(jobID)
}

// SyncJob probes the inbound mailbox for the job's result and, on a
// completed result, expands generative actions into dispatched follow-up
// jobs. Returns (nil, nil, nil) while no result has arrived.
func (s *MissionService) SyncJob(jobID string) (*models.Job, []models.Job, error) {
	job, err := s.bridge.TrySyncResult(jobID, true)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, nil
	}
	followups, err := s.interpreter.HandleJobResult(job)
	if err != nil {
		return job, followups, errors.Wrapf(err, "expand result of job %s", jobID)
	}
	return job, followups, nil
}
