package app

import (
	"context"
	"strings"
)

// Redirect targets for owed reviews.
const (
	DailyReviewPath  = "/review/daily"
	WeeklyReviewPath = "/review/weekly"
)

var ungatedPrefixes = []string{
	"/review",
	"/api/review",
	"/api/auth",
	"/api/health",
	"/api/gate",
}

// GateDecision tells the surrounding UI whether to let a request through or
// send the user to an owed review.
type GateDecision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// GateService turns review status into allow/redirect decisions.
type GateService struct {
	reviews *ReviewService
}

// NewGateService creates a GateService.
func NewGateService(reviews *ReviewService) *GateService {
	return &GateService{reviews: reviews}
}

// Decide evaluates the gate for userID requesting path.
func (g *GateService) Decide(ctx context.Context, userID int64, path string) (GateDecision, error) {
	if isUngated(path) {
		return GateDecision{Allow: true}, nil
	}
	st, err := g.reviews.Status(ctx, userID, "")
	if err != nil {
		return GateDecision{}, err
	}
	return Decide(st, path), nil
}

// Decide is the pure gate rule. The daily review is demanded before the
// weekly one; monthly never blocks.
func Decide(st *ReviewStatus, path string) GateDecision {
	switch {
	case isUngated(path):
		return GateDecision{Allow: true}
	case st.DailyRequired:
		return GateDecision{Redirect: DailyReviewPath, Reason: "daily review required"}
	case st.WeeklyRequired:
		return GateDecision{Redirect: WeeklyReviewPath, Reason: "weekly review required"}
	}
	return GateDecision{Allow: true}
}

func isUngated(path string) bool {
	for _, p := range ungatedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
