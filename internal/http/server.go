package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/J3r3C0/sheratan-core-v2/internal/log"
	"github.com/J3r3C0/sheratan-core-v2/pkg/models"
	"github.com/J3r3C0/sheratan-core-v2/pkg/relay"
	"github.com/J3r3C0/sheratan-core-v2/pkg/service"
	"github.com/pkg/errors"
)

// StartServer exposes the mission/task/job API over HTTP. The server is a
// thin shell: all semantics live in the service layer.
func StartServer(port string, svc *service.MissionService) error {
	log.GetLogger().Infof("Starting Sheratan Core server on :%s", port)
	return http.ListenAndServe(":"+port, NewMux(svc))
}

// NewMux wires all API routes onto a fresh ServeMux.
func NewMux(svc *service.MissionService) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", RootHandler)
	mux.HandleFunc("/api/status", StatusHandler)
	mux.HandleFunc("/api/missions", MissionsHandler(svc))
	mux.HandleFunc("/api/missions/", MissionByIDHandler(svc))
	mux.HandleFunc("/api/tasks", TasksHandler(svc))
	mux.HandleFunc("/api/tasks/", TaskByIDHandler(svc))
	mux.HandleFunc("/api/jobs", JobsHandler(svc))
	mux.HandleFunc("/api/jobs/", JobByIDHandler(svc))
	return mux
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "sheratan_core_v2",
		"status":  "ok",
	})
}

func StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// MissionsHandler serves POST and GET /api/missions.
func MissionsHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			missions, err := svc.ListMissions()
			if err != nil {
				serverError(w, "list missions", err)
				return
			}
			writeJSON(w, http.StatusOK, missions)
		case http.MethodPost:
			var req struct {
				Title       string                 `json:"title"`
				Description string                 `json:"description"`
				Metadata    map[string]interface{} `json:"metadata"`
				Tags        []string               `json:"tags"`
			}
			if !decodeBody(w, r, &req) {
				return
			}
			mission, err := svc.CreateMission(req.Title, req.Description, req.Metadata, req.Tags)
			if err != nil {
				clientOrServerError(w, "create mission", err)
				return
			}
			writeJSON(w, http.StatusOK, mission)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// MissionByIDHandler serves GET /api/missions/{id} and
// POST|GET /api/missions/{id}/tasks.
func MissionByIDHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := splitPath(r.URL.Path, "/api/missions/")
		switch {
		case len(parts) == 1:
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			mission, err := svc.GetMission(parts[0])
			if err != nil {
				serverError(w, "get mission", err)
				return
			}
			if mission == nil {
				http.Error(w, "Mission not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, mission)
		case len(parts) == 2 && parts[1] == "tasks":
			missionTasks(svc, w, r, parts[0])
		default:
			http.NotFound(w, r)
		}
	}
}

func missionTasks(svc *service.MissionService, w http.ResponseWriter, r *http.Request, missionID string) {
	switch r.Method {
	case http.MethodGet:
		tasks, err := svc.ListTasks()
		if err != nil {
			serverError(w, "list tasks", err)
			return
		}
		filtered := make([]models.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.MissionID == missionID {
				filtered = append(filtered, t)
			}
		}
		writeJSON(w, http.StatusOK, filtered)
	case http.MethodPost:
		var req struct {
			Name        string                 `json:"name"`
			Description string                 `json:"description"`
			Kind        string                 `json:"kind"`
			Params      map[string]interface{} `json:"params"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		task, err := svc.CreateTask(missionID, req.Name, req.Description, req.Kind, req.Params)
		if err != nil {
			clientOrServerError(w, "create task", err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TasksHandler serves GET /api/tasks.
func TasksHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tasks, err := svc.ListTasks()
		if err != nil {
			serverError(w, "list tasks", err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

// TaskByIDHandler serves GET /api/tasks/{id} and POST /api/tasks/{id}/jobs.
func TaskByIDHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := splitPath(r.URL.Path, "/api/tasks/")
		switch {
		case len(parts) == 1:
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			task, err := svc.GetTask(parts[0])
			if err != nil {
				serverError(w, "get task", err)
				return
			}
			if task == nil {
				http.Error(w, "Task not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, task)
		case len(parts) == 2 && parts[1] == "jobs":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			var req struct {
				Payload map[string]interface{} `json:"payload"`
			}
			if !decodeBody(w, r, &req) {
				return
			}
			job, err := svc.CreateJob(parts[0], req.Payload)
			if err != nil {
				clientOrServerError(w, "create job", err)
				return
			}
			writeJSON(w, http.StatusOK, job)
		default:
			http.NotFound(w, r)
		}
	}
}

// JobsHandler serves GET /api/jobs.
func JobsHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		jobs, err := svc.ListJobs()
		if err != nil {
			serverError(w, "list jobs", err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

// JobByIDHandler serves GET /api/jobs/{id}, POST /api/jobs/{id}/dispatch
// and POST /api/jobs/{id}/sync.
func JobByIDHandler(svc *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := splitPath(r.URL.Path, "/api/jobs/")
		switch {
		case len(parts) == 1:
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			job, err := svc.GetJob(parts[0])
			if err != nil {
				serverError(w, "get job", err)
				return
			}
			if job == nil {
				http.Error(w, "Job not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, job)
		case len(parts) == 2 && parts[1] == "dispatch":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			path, err := svc.DispatchJob(parts[0])
			if err != nil {
				clientOrServerError(w, "dispatch job", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"dispatched": parts[0],
				"job_file":   path,
			})
		case len(parts) == 2 && parts[1] == "sync":
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			job, followups, err := svc.SyncJob(parts[0])
			if err != nil {
				clientOrServerError(w, "sync job", err)
				return
			}
			if job == nil {
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"status": "no_result",
				})
				return
			}
			out := map[string]interface{}{
				"id":         job.ID,
				"task_id":    job.TaskID,
				"payload":    job.Payload,
				"status":     job.Status,
				"result":     job.Result,
				"created_at": job.CreatedAt,
				"updated_at": job.UpdatedAt,
				"followups":  len(followups),
			}
			writeJSON(w, http.StatusOK, out)
		default:
			http.NotFound(w, r)
		}
	}
}

func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

// clientOrServerError maps lookup failures to 404, other validation
// failures to 400 and everything else to 500.
func clientOrServerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, relay.ErrJobNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, service.ErrMissionNotFound):
		http.Error(w, "Mission not found", http.StatusNotFound)
	case errors.Is(err, service.ErrTaskNotFound):
		http.Error(w, "Task not found", http.StatusNotFound)
	case strings.Contains(err.Error(), "cannot be empty"),
		strings.Contains(err.Error(), "too long"),
		strings.Contains(err.Error(), "already exists"):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		serverError(w, op, err)
	}
}

func serverError(w http.ResponseWriter, op string, err error) {
	log.GetLogger().Errorf("Failed to %s: %v", op, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
