package adapthttp

import (
	"fmt"
	"net/http"

	"cadence/internal/domain"
)

func (s *Server) handleReviewStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Reviews.Status(r.Context(), userFromContext(r).ID, r.URL.Query().Get("tz"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReviewSubmit(w http.ResponseWriter, r *http.Request) {
	typ := domain.ReviewType(r.PathValue("type"))
	if !typ.Valid() {
		writeDomainError(w, fmt.Errorf("%w: unknown review type %q", domain.ErrValidation, typ))
		return
	}

	var req struct {
		Content           map[string]any           `json:"content"`
		ProjectPriorities []domain.ProjectPriority `json:"projectPriorities"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	userID := userFromContext(r).ID
	var (
		review *domain.Review
		err    error
	)
	if typ == domain.ReviewWeekly {
		review, err = s.svc.Reviews.SubmitWeekly(r.Context(), userID, req.Content, req.ProjectPriorities)
	} else {
		review, err = s.svc.Reviews.Submit(r.Context(), userID, typ, req.Content)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"review": review})
}
