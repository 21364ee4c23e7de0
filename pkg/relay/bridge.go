// Package relay exchanges jobs and results with the external worker
// through a filesystem mailbox: outbound envelopes as <job_id>.job.json,
// inbound results as <job_id>.result.json. Each direction holds at most
// one file per job id; deleting the inbound file acknowledges it.
package relay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/storage"
	"github.com/pkg/errors"
)

// ResponseFormat is the marker requesting a Core v2 LCP reply from the
// worker; it travels in every outbound payload.
const ResponseFormat = "lcp"

// ErrJobNotFound is returned when an operation references an unknown job id.
var ErrJobNotFound = errors.New("Job not found")

// Logger defines the logging interface for the Bridge
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Settings configures the relay directories and session namespace.
type Settings struct {
	RelayOutDir   string `yaml:"relay_out_dir"`  // outbound mailbox, read by the worker
	RelayInDir    string `yaml:"relay_in_dir"`   // inbound mailbox, written by the worker
	SessionPrefix string `yaml:"session_prefix"` // namespaces session ids per deployment
}

// Envelope is the canonical outbound job format the worker consumes.
type Envelope struct {
	JobID     string  `json:"job_id"`
	Kind      string  `json:"kind"`       // owning Task.Kind, passed through verbatim
	SessionID string  `json:"session_id"` // prefix + "_" + mission id
	CreatedAt string  `json:"created_at"` // UTC, RFC3339 with "Z" suffix
	Payload   Payload `json:"payload"`
}

// Payload carries the full mission and task context plus the job's own
// parameters, so the worker needs no callback to act.
type Payload struct {
	ResponseFormat string                 `json:"response_format"`
	Mission        models.Mission         `json:"mission"`
	Task           models.Task            `json:"task"`
	Params         map[string]interface{} `json:"params"`
}

// Bridge serializes outbound work and folds inbound results back into job
// state. It performs local file I/O only; all waiting is the caller's.
type Bridge struct {
	settings Settings
	store    storage.Store
	logger   Logger
}

func NewBridge(settings Settings, store storage.Store, logger Logger) *Bridge {
	return &Bridge{
		settings: settings,
		store:    store,
		logger:   logger,
	}
}

// EnqueueJob writes the job's envelope into the outbound mailbox and
// returns the file path. Re-enqueueing overwrites the prior file, which
// makes dispatch idempotent. An unknown job id yields ErrJobNotFound; a
// missing parent task or mission for a known job is a data integrity
// violation and surfaces as a plain error.
func (b *Bridge) EnqueueJob(jobID string) (string, error) {
	job, err := b.store.GetJob(jobID)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", errors.Wrapf(ErrJobNotFound, "%s", jobID)
	}
	task, err := b.store.GetTask(job.TaskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", errors.Errorf("task %s referenced by job %s does not exist", job.TaskID, jobID)
	}
	mission, err := b.store.GetMission(task.MissionID)
	if err != nil {
		return "", err
	}
	if mission == nil {
		return "", errors.Errorf("mission %s referenced by task %s does not exist", task.MissionID, task.ID)
	}

	params := job.Payload
	if params == nil {
		params = map[string]interface{}{}
	}
	envelope := Envelope{
		JobID:     job.ID,
		Kind:      task.Kind,
		SessionID: b.settings.SessionPrefix + "_" + mission.ID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Payload: Payload{
			ResponseFormat: ResponseFormat,
			Mission:        *mission,
			Task:           *task,
			Params:         params,
		},
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "marshal envelope for job %s", jobID)
	}
	path := filepath.Join(b.settings.RelayOutDir, jobID+".job.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write job file for %s", jobID)
	}
	b.logger.Infof("Enqueued job %s (kind %s) to %s", jobID, task.Kind, path)
	return path, nil
}

// TrySyncResult probes the inbound mailbox for the job's result file.
// No file means "not yet": it returns (nil, nil) without touching the job.
// A present file always transitions the job to a terminal state: malformed
// JSON fails the job with a synthesized error result, otherwise the parsed
// object is stored verbatim and the job completes iff its "ok" is true.
// With removeAfterRead the file is deleted after processing, which is the
// acknowledgment preventing reprocessing.
func (b *Bridge) TrySyncResult(jobID string, removeAfterRead bool) (*models.Job, error) {
	path := filepath.Join(b.settings.RelayInDir, jobID+".result.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read result file for %s", jobID)
	}

	job, err := b.store.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.Wrapf(ErrJobNotFound, "%s", jobID)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		b.logger.Warnf("Job %s returned an unparseable result: %v", jobID, err)
		job.Status = models.FailedJobStatus
		job.Result = map[string]interface{}{
			"ok":    false,
			"error": "invalid JSON in result file: " + err.Error(),
		}
	} else {
		if ok, _ := result["ok"].(bool); ok {
			job.Status = models.CompletedJobStatus
		} else {
			job.Status = models.FailedJobStatus
		}
		job.Result = result
	}
	job.UpdatedAt = time.Now().UTC()

	if err := b.store.UpdateJob(*job); err != nil {
		return nil, errors.Wrapf(err, "persist synced job %s", jobID)
	}
	if removeAfterRead {
		if err := os.Remove(path); err != nil {
			return nil, errors.Wrapf(err, "remove result file for %s", jobID)
		}
	}
	b.logger.Infof("Synced job %s, status %s", jobID, job.Status)
	return job, nil
}
