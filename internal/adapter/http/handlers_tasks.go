package adapthttp

import (
	"net/http"
	"time"

	"cadence/internal/domain"
)

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string     `json:"title"`
		Deadline *time.Time `json:"deadline"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	task, err := s.svc.Tasks.Create(r.Context(), userFromContext(r).ID, req.Title, req.Deadline)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	status := domain.TaskStatus(r.URL.Query().Get("status"))
	items, err := s.svc.Tasks.List(r.Context(), userFromContext(r).ID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req struct {
		Status domain.TaskStatus `json:"status"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	task, err := s.svc.Tasks.SetStatus(r.Context(), userFromContext(r).ID, id, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}
