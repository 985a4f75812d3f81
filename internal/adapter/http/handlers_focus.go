package adapthttp

import (
	"context"
	"net/http"

	"cadence/internal/domain"
)

type focusView struct {
	Session        *domain.FocusSession `json:"session"`
	State          domain.FocusState    `json:"state"`
	ElapsedSeconds int64                `json:"elapsedSeconds"`
}

func (s *Server) focusView(sess *domain.FocusSession) focusView {
	v := focusView{Session: sess, State: sess.State()}
	if sess != nil {
		v.ElapsedSeconds = int64(s.svc.Focus.Elapsed(sess).Seconds())
	}
	return v
}

func (s *Server) handleFocusStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID int64 `json:"taskId"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.svc.Focus.Start(r.Context(), userFromContext(r).ID, req.TaskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.focusView(sess))
}

func (s *Server) handleFocusCurrent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Focus.Current(r.Context(), userFromContext(r).ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.focusView(sess))
}

type focusTransition func(ctx context.Context, userID, id int64) (*domain.FocusSession, error)

func (s *Server) focusByID(w http.ResponseWriter, r *http.Request, fn focusTransition) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := fn(r.Context(), userFromContext(r).ID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.focusView(sess))
}

func (s *Server) handleFocusPause(w http.ResponseWriter, r *http.Request) {
	s.focusByID(w, r, s.svc.Focus.Pause)
}

func (s *Server) handleFocusResume(w http.ResponseWriter, r *http.Request) {
	s.focusByID(w, r, s.svc.Focus.Resume)
}

func (s *Server) handleFocusEnd(w http.ResponseWriter, r *http.Request) {
	s.focusByID(w, r, s.svc.Focus.End)
}

// handleFocusRecover serves both /focus/{id}/recover and /focus/recover; the
// latter closes whatever session is open.
func (s *Server) handleFocusRecover(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != "" {
		s.focusByID(w, r, s.svc.Focus.Recover)
		return
	}
	sess, err := s.svc.Focus.Recover(r.Context(), userFromContext(r).ID, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.focusView(sess))
}
