package adapthttp

import (
	"fmt"
	"net/http"
	"time"

	"cadence/internal/domain"
)

func (s *Server) handleGamification(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Gamification.Get(r.Context(), userFromContext(r).ID, r.URL.Query().Get("tz"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleActivityDaily(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	points, err := s.svc.Activity.GetDaily(r.Context(), userFromContext(r).ID, r.URL.Query().Get("tz"), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "points": points})
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	decision, err := s.svc.Gate.Decide(r.Context(), userFromContext(r).ID, path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handlePeriodDay(w http.ResponseWriter, r *http.Request) {
	var at time.Time
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: at must be RFC 3339", domain.ErrValidation))
			return
		}
		at = t
	}
	rng, zone, err := s.svc.Period.DayRange(r.Context(), userFromContext(r).ID, r.URL.Query().Get("tz"), at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timezone": zone,
		"day":      domain.DayKey(domain.LoadLocation(zone), rng.Start),
		"start":    rng.Start,
		"end":      rng.End,
	})
}
