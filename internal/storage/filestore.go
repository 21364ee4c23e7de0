package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// entityLog is one durable record-per-entity JSONL file plus its lock
// domain. The OS file lock guards against other processes, the mutex
// against goroutines in this one; both are held for the whole
// read -> merge -> rewrite cycle of a mutation.
type entityLog struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
}

func newEntityLog(path string) *entityLog {
	return &entityLog{
		path: path,
		fl:   flock.New(path + ".lock"),
	}
}

func (l *entityLog) withLock(fn func() error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fl.Lock(); err != nil {
		return errors.Wrapf(err, "acquire lock on %s", l.path)
	}
	defer func() {
		if unlockErr := l.fl.Unlock(); unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "release lock on %s", l.path)
		}
	}()
	return fn()
}

func (l *entityLog) withReadLock(fn func() error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fl.RLock(); err != nil {
		return errors.Wrapf(err, "acquire read lock on %s", l.path)
	}
	defer func() {
		if unlockErr := l.fl.Unlock(); unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "release lock on %s", l.path)
		}
	}()
	return fn()
}

// readLines returns the raw records of the log, oldest first. A missing
// file is an empty log.
func (l *entityLog) readLines() ([]json.RawMessage, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", l.path)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make(json.RawMessage, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", l.path)
	}
	return lines, nil
}

// appendLine adds one record to the end of the log.
func (l *entityLog) appendLine(record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", l.path)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return errors.Wrapf(err, "append to %s", l.path)
	}
	return errors.Wrapf(f.Close(), "close %s", l.path)
}

// rewrite replaces the log with the given records, via a temp file and
// rename so readers never observe a partially written log.
func (l *entityLog) rewrite(records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", l.path)
	}
	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(append(rec, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return errors.Wrapf(err, "write temp file for %s", l.path)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "flush temp file for %s", l.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close temp file for %s", l.path)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "replace %s", l.path)
	}
	return nil
}

// recordID is the only field the log machinery needs from a record.
type recordID struct {
	ID string `json:"id"`
}

// create appends the record under the exclusive lock.
func (l *entityLog) create(record interface{}) error {
	return l.withLock(func() error {
		return l.appendLine(record)
	})
}

// update merges the record into the log under the exclusive lock: every
// prior line with the same id is replaced, the rest are kept verbatim.
// Updating an unknown id is a no-op, matching SQL UPDATE semantics.
func (l *entityLog) update(id string, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	return l.withLock(func() error {
		lines, err := l.readLines()
		if err != nil {
			return err
		}
		replaced := false
		out := make([]json.RawMessage, 0, len(lines))
		for _, line := range lines {
			var rid recordID
			if err := json.Unmarshal(line, &rid); err == nil && rid.ID == id {
				if !replaced {
					out = append(out, data)
					replaced = true
				}
				continue
			}
			out = append(out, line)
		}
		if !replaced {
			return nil
		}
		return l.rewrite(out)
	})
}

// snapshot reads the log and returns raw records with last-write-wins
// resolution per id, preserving first-seen order.
func (l *entityLog) snapshot() ([]json.RawMessage, error) {
	var result []json.RawMessage
	err := l.withReadLock(func() error {
		lines, err := l.readLines()
		if err != nil {
			return err
		}
		index := make(map[string]int)
		for _, line := range lines {
			var rid recordID
			if err := json.Unmarshal(line, &rid); err != nil {
				return errors.Wrapf(err, "corrupt record in %s", l.path)
			}
			if pos, ok := index[rid.ID]; ok {
				result[pos] = line
				continue
			}
			index[rid.ID] = len(result)
			result = append(result, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FileStore is a file-backed storage.Store: one JSONL log per entity kind
// under dataDir, each with an independent lock domain so mutating missions
// never blocks mutating jobs.
type FileStore struct {
	missions *entityLog
	tasks    *entityLog
	jobs     *entityLog
}

// NewFileStore creates dataDir if needed and opens the three entity logs.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dataDir)
	}
	return &FileStore{
		missions: newEntityLog(filepath.Join(dataDir, "missions.jsonl")),
		tasks:    newEntityLog(filepath.Join(dataDir, "tasks.jsonl")),
		jobs:     newEntityLog(filepath.Join(dataDir, "jobs.jsonl")),
	}, nil
}

// CreateMission appends a mission record to the mission log.
func (s *FileStore) CreateMission(m models.Mission) error {
	return s.missions.create(m)
}

// GetMission returns the latest record for the id, or nil if absent.
func (s *FileStore) GetMission(id string) (*models.Mission, error) {
	missions, err := s.ListMissions()
	if err != nil {
		return nil, err
	}
	for i := range missions {
		if missions[i].ID == id {
			return &missions[i], nil
		}
	}
	return nil, nil
}

func (s *FileStore) UpdateMission(m models.Mission) error {
	return s.missions.update(m.ID, m)
}

func (s *FileStore) ListMissions() ([]models.Mission, error) {
	records, err := s.missions.snapshot()
	if err != nil {
		return nil, err
	}
	missions := make([]models.Mission, 0, len(records))
	for _, rec := range records {
		var m models.Mission
		if err := json.Unmarshal(rec, &m); err != nil {
			return nil, errors.Wrap(err, "decode mission record")
		}
		missions = append(missions, m)
	}
	return missions, nil
}

// CreateTask appends a task record to the task log.
func (s *FileStore) CreateTask(t models.Task) error {
	return s.tasks.create(t)
}

func (s *FileStore) GetTask(id string) (*models.Task, error) {
	tasks, err := s.ListTasks()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

func (s *FileStore) UpdateTask(t models.Task) error {
	return s.tasks.update(t.ID, t)
}

func (s *FileStore) ListTasks() ([]models.Task, error) {
	records, err := s.tasks.snapshot()
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		var t models.Task
		if err := json.Unmarshal(rec, &t); err != nil {
			return nil, errors.Wrap(err, "decode task record")
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// FindTaskByName resolves a task by its per-mission unique name, or nil if
// no task in the mission carries it.
func (s *FileStore) FindTaskByName(missionID, name string) (*models.Task, error) {
	tasks, err := s.ListTasks()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].MissionID == missionID && tasks[i].Name == name {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// CreateJob appends a job record to the job log.
func (s *FileStore) CreateJob(j models.Job) error {
	return s.jobs.create(j)
}

func (s *FileStore) GetJob(id string) (*models.Job, error) {
	jobs, err := s.ListJobs()
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}
	return nil, nil
}

func (s *FileStore) UpdateJob(j models.Job) error {
	return s.jobs.update(j.ID, j)
}

func (s *FileStore) ListJobs() ([]models.Job, error) {
	records, err := s.jobs.snapshot()
	if err != nil {
		return nil, err
	}
	jobs := make([]models.Job, 0, len(records))
	for _, rec := range records {
		var j models.Job
		if err := json.Unmarshal(rec, &j); err != nil {
			return nil, errors.Wrap(err, "decode job record")
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
