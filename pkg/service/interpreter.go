package service

import (
	"time"

	"github.com/J3r3C0/sheratan-core-v2/pkg/lcp/corev2"
	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/relay"
	"github.com/J3r3C0/sheratan-core-v2/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AnalyzeFileTaskName is the per-mission task a list_files_result fans
// out to, one job per listed file.
const AnalyzeFileTaskName = "analyze_file"

// Interpreter expands generative worker results into follow-up jobs.
// Only two Core v2 actions generate work: list_files_result and
// create_followup_jobs. Everything else, including failed results and
// shapes the interpreter cannot read, produces no jobs; side effects of
// terminal actions such as write_file belong to external collaborators.
type Interpreter struct {
	store  storage.Store
	bridge *relay.Bridge
	logger Logger
}

func NewInterpreter(store storage.Store, bridge *relay.Bridge, logger Logger) *Interpreter {
	return &Interpreter{
		store:  store,
		bridge: bridge,
		logger: logger,
	}
}

// HandleJobResult inspects a terminal job's result and creates and
// dispatches follow-up jobs for generative actions. Created jobs are
// persisted and enqueued before return, in result order; the caller never
// dispatches them separately. Unresolvable task references are skipped,
// not errors: a worker reply must not be able to stall the loop.
func (i *Interpreter) HandleJobResult(job *models.Job) ([]models.Job, error) {
	if job == nil || job.Result == nil {
		return nil, nil
	}
	if ok, _ := job.Result["ok"].(bool); !ok {
		return nil, nil
	}
	action, _ := job.Result["action"].(string)

	switch action {
	case corev2.ActionListFilesResult:
		return i.handleListFiles(job)
	case corev2.ActionCreateFollowupJobs:
		return i.handleCreateFollowups(job)
	default:
		return nil, nil
	}
}

// handleListFiles creates one analyze_file job per listed file.
func (i *Interpreter) handleListFiles(job *models.Job) ([]models.Job, error) {
	mission, err := i.missionOf(job)
	if err != nil || mission == "" {
		return nil, err
	}
	target, err := i.store.FindTaskByName(mission, AnalyzeFileTaskName)
	if err != nil {
		return nil, err
	}
	if target == nil {
		// Without the target task the whole action is skipped, matching
		// how unresolved create_followup_jobs entries are handled.
		i.logger.Warnf("Mission %s has no '%s' task, skipping list_files_result of job %s", mission, AnalyzeFileTaskName, job.ID)
		return nil, nil
	}

	files, ok := job.Result["files"].([]interface{})
	if !ok {
		return nil, nil
	}
	var created []models.Job
	for _, entry := range files {
		file, ok := entry.(string)
		if !ok {
			continue
		}
		newJob, err := i.spawnJob(target.ID, map[string]interface{}{"file": file})
		if err != nil {
			return created, err
		}
		created = append(created, *newJob)
	}
	return created, nil
}

// handleCreateFollowups resolves each requested task by name and creates
// one job per resolved entry, carrying the entry's params as payload.
func (i *Interpreter) handleCreateFollowups(job *models.Job) ([]models.Job, error) {
	mission, err := i.missionOf(job)
	if err != nil || mission == "" {
		return nil, err
	}
	newJobs, ok := job.Result["new_jobs"].([]interface{})
	if !ok {
		return nil, nil
	}
	var created []models.Job
	for _, entry := range newJobs {
		spec, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := spec["task"].(string)
		target, err := i.store.FindTaskByName(mission, name)
		if err != nil {
			return created, err
		}
		if target == nil {
			i.logger.Warnf("Mission %s has no task named %q, skipping follow-up of job %s", mission, name, job.ID)
			continue
		}
		params, ok := spec["params"].(map[string]interface{})
		if !ok {
			params = map[string]interface{}{}
		}
		newJob, err := i.spawnJob(target.ID, params)
		if err != nil {
			return created, err
		}
		created = append(created, *newJob)
	}
	return created, nil
}

// missionOf resolves the mission id owning the job's task. An unknown
// task reference yields "" and a warning, which callers treat as
// "no action".
func (i *Interpreter) missionOf(job *models.Job) (string, error) {
	task, err := i.store.GetTask(job.TaskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		i.logger.Warnf("Job %s references unknown task %s, ignoring result", job.ID, job.TaskID)
		return "", nil
	}
	return task.MissionID, nil
}

// spawnJob persists a new pending job and immediately enqueues it.
func (i *Interpreter) spawnJob(taskID string, payload map[string]interface{}) (*models.Job, error) {
	now := time.Now().UTC()
	job := models.Job{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Payload:   payload,
		Status:    models.PendingJobStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := i.store.CreateJob(job); err != nil {
		return nil, errors.Wrapf(err, "create follow-up job for task %s", taskID)
	}
	if _, err := i.bridge.EnqueueJob(job.ID); err != nil {
		return nil, errors.Wrapf(err, "dispatch follow-up job %s", job.ID)
	}
	i.logger.Infof("Created and dispatched follow-up job %s for task %s", job.ID, taskID)
	return &job, nil
}
