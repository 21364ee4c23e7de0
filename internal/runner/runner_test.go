package runner_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/J3r3C0/sheratan-core-v2/internal/log"
	"github.com/J3r3C0/sheratan-core-v2/internal/runner"
	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/relay"
	"github.com/J3r3C0/sheratan-core-v2/pkg/service"
	"github.com/J3r3C0/sheratan-core-v2/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestRunnerTick(t *testing.T) {
	base := t.TempDir()
	outDir := filepath.Join(base, "webrelay_out")
	inDir := filepath.Join(base, "webrelay_in")
	assert.NoError(t, os.MkdirAll(outDir, 0o755))
	assert.NoError(t, os.MkdirAll(inDir, 0o755))

	store := storage.NewMemoryStore()
	bridge := relay.NewBridge(relay.Settings{
		RelayOutDir:   outDir,
		RelayInDir:    inDir,
		SessionPrefix: "test",
	}, store, log.GetLogger())
	svc := service.NewMissionService(store, bridge, log.GetLogger())
	r := runner.New(svc, log.GetLogger(), time.Second)

	mission, err := svc.CreateMission("Runner Mission", "", nil, nil)
	assert.NoError(t, err)
	task, err := svc.CreateTask(mission.ID, "discovery", "", "list_files", nil)
	assert.NoError(t, err)
	job, err := svc.CreateJob(task.ID, nil)
	assert.NoError(t, err)
	_, err = svc.DispatchJob(job.ID)
	assert.NoError(t, err)

	// Nothing to collect while the worker is silent.
	assert.Equal(t, 0, r.Tick())

	result, _ := json.Marshal(map[string]interface{}{
		"ok":          true,
		"action":      "analysis_result",
		"target_file": "main.py",
	})
	assert.NoError(t, os.WriteFile(filepath.Join(inDir, job.ID+".result.json"), result, 0o644))

	assert.Equal(t, 1, r.Tick())

	synced, err := svc.GetJob(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.CompletedJobStatus, synced.Status)

	// The slot is empty again, the next pass is a no-op.
	assert.Equal(t, 0, r.Tick())
}
