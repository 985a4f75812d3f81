package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cadence/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: bad", domain.ErrValidation), http.StatusBadRequest},
		{"cooldown", &domain.CooldownError{Type: domain.ReviewWeekly, Remaining: time.Hour}, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: session 3", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: finish first", domain.ErrConflict), http.StatusConflict},
		{"invalid state", fmt.Errorf("%w: not paused", domain.ErrInvalidState), http.StatusConflict},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, tc.err)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteDomainErrorCooldownRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	writeDomainError(w, &domain.CooldownError{Type: domain.ReviewMonthly, Remaining: 90 * time.Second})
	if got := w.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("expected Retry-After 90, got %q", got)
	}
}
