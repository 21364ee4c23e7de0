package storage_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	internal_storage "github.com/J3r3C0/sheratan-core-v2/internal/storage"
	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/stretchr/testify/assert"
)

func newMission(id, title string) models.Mission {
	return models.Mission{
		ID:          id,
		Title:       title,
		Description: "test description",
		Metadata:    map[string]interface{}{"key": "value"},
		Tags:        []string{"test"},
		CreatedAt:   time.Now().UTC(),
	}
}

func TestFileStore(t *testing.T) {
	newStore := func(t *testing.T) *internal_storage.FileStore {
		store, err := internal_storage.InitStore(t.TempDir())
		assert.NoError(t, err)
		return store
	}

	t.Run("CreateAndGetMission", func(t *testing.T) {
		store := newStore(t)
		err := store.CreateMission(newMission("m1", "Test Mission"))
		assert.NoError(t, err)

		loaded, err := store.GetMission("m1")
		assert.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Equal(t, "m1", loaded.ID)
		assert.Equal(t, "Test Mission", loaded.Title)
		assert.Equal(t, "value", loaded.Metadata["key"])
	})

	t.Run("GetNonexistentMission", func(t *testing.T) {
		store := newStore(t)
		loaded, err := store.GetMission("nonexistent")
		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("UpdateMission", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.CreateMission(newMission("m1", "Test Mission")))

		mission, err := store.GetMission("m1")
		assert.NoError(t, err)
		mission.Title = "Updated Title"
		assert.NoError(t, store.UpdateMission(*mission))

		loaded, err := store.GetMission("m1")
		assert.NoError(t, err)
		assert.Equal(t, "Updated Title", loaded.Title)

		// Update must not duplicate the record.
		missions, err := store.ListMissions()
		assert.NoError(t, err)
		assert.Len(t, missions, 1)
	})

	t.Run("ListMissions", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.CreateMission(newMission("m1", "First")))
		assert.NoError(t, store.CreateMission(newMission("m2", "Second")))

		missions, err := store.ListMissions()
		assert.NoError(t, err)
		assert.Len(t, missions, 2)
		assert.Equal(t, "m1", missions[0].ID)
		assert.Equal(t, "m2", missions[1].ID)
	})

	t.Run("LastWriteWinsPerID", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.CreateMission(newMission("m1", "First")))
		// A second create with the same id appends to the log; reads must
		// resolve to the newest record.
		assert.NoError(t, store.CreateMission(newMission("m1", "Second")))

		loaded, err := store.GetMission("m1")
		assert.NoError(t, err)
		assert.Equal(t, "Second", loaded.Title)

		missions, err := store.ListMissions()
		assert.NoError(t, err)
		assert.Len(t, missions, 1)
	})

	t.Run("TaskCRUDAndFindByName", func(t *testing.T) {
		store := newStore(t)
		task := models.Task{
			ID:          "t1",
			MissionID:   "m1",
			Name:        "test_task",
			Description: "Test task",
			Kind:        "llm_call",
			Params:      map[string]interface{}{"key": "value"},
			CreatedAt:   time.Now().UTC(),
		}
		assert.NoError(t, store.CreateTask(task))

		loaded, err := store.GetTask("t1")
		assert.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Equal(t, "test_task", loaded.Name)
		assert.Equal(t, "llm_call", loaded.Kind)

		byName, err := store.FindTaskByName("m1", "test_task")
		assert.NoError(t, err)
		assert.NotNil(t, byName)
		assert.Equal(t, "t1", byName.ID)

		missing, err := store.FindTaskByName("m1", "nonexistent")
		assert.NoError(t, err)
		assert.Nil(t, missing)

		loaded.Description = "Updated description"
		assert.NoError(t, store.UpdateTask(*loaded))
		reloaded, err := store.GetTask("t1")
		assert.NoError(t, err)
		assert.Equal(t, "Updated description", reloaded.Description)
	})

	t.Run("JobCRUD", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC()
		job := models.Job{
			ID:        "j1",
			TaskID:    "t1",
			Payload:   map[string]interface{}{"file": "test.py"},
			Status:    models.PendingJobStatus,
			CreatedAt: now,
			UpdatedAt: now,
		}
		assert.NoError(t, store.CreateJob(job))

		loaded, err := store.GetJob("j1")
		assert.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Equal(t, models.PendingJobStatus, loaded.Status)
		assert.Equal(t, "test.py", loaded.Payload["file"])
		assert.Nil(t, loaded.Result)

		loaded.Status = models.CompletedJobStatus
		loaded.Result = map[string]interface{}{"ok": true}
		loaded.UpdatedAt = time.Now().UTC()
		assert.NoError(t, store.UpdateJob(*loaded))

		reloaded, err := store.GetJob("j1")
		assert.NoError(t, err)
		assert.Equal(t, models.CompletedJobStatus, reloaded.Status)
		assert.Equal(t, true, reloaded.Result["ok"])
	})

	t.Run("VisibleAcrossInstances", func(t *testing.T) {
		dir := t.TempDir()
		first, err := internal_storage.InitStore(dir)
		assert.NoError(t, err)
		assert.NoError(t, first.CreateMission(newMission("m1", "Shared")))

		// A second store over the same directory stands in for another
		// process; the committed record must be visible immediately.
		second, err := internal_storage.InitStore(dir)
		assert.NoError(t, err)
		loaded, err := second.GetMission("m1")
		assert.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Equal(t, "Shared", loaded.Title)
	})

	t.Run("ConcurrentMissionCreation", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.CreateMission(newMission(fmt.Sprintf("concurrent_%d", i), fmt.Sprintf("Concurrent %d", i)))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}

		missions, err := store.ListMissions()
		assert.NoError(t, err)
		assert.Len(t, missions, 10)
	})

	t.Run("ConcurrentJobUpdates", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC()
		for i := 0; i < 5; i++ {
			assert.NoError(t, store.CreateJob(models.Job{
				ID:        fmt.Sprintf("j%d", i),
				TaskID:    "t1",
				Payload:   map[string]interface{}{},
				Status:    models.PendingJobStatus,
				CreatedAt: now,
				UpdatedAt: now,
			}))
		}
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				job, err := store.GetJob(fmt.Sprintf("j%d", i))
				assert.NoError(t, err)
				job.Status = models.CompletedJobStatus
				job.Result = map[string]interface{}{"ok": true}
				assert.NoError(t, store.UpdateJob(*job))
			}(i)
		}
		wg.Wait()

		jobs, err := store.ListJobs()
		assert.NoError(t, err)
		assert.Len(t, jobs, 5)
		for _, job := range jobs {
			assert.Equal(t, models.CompletedJobStatus, job.Status)
		}
	})
}
