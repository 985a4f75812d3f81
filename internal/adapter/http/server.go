package adapthttp

import (
	"net/http"

	"cadence/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Services bundles the application services the HTTP adapter drives.
type Services struct {
	Auth         *app.AuthService
	Tasks        *app.TaskService
	Focus        *app.FocusService
	Reviews      *app.ReviewService
	Gate         *app.GateService
	Gamification *app.GamificationService
	Activity     *app.ActivityService
	Period       *app.PeriodService
}

// OIDCConfig holds the optional single sign-on setup.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc         Services
	oidcConfig  OIDCConfig
	webDir      string
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(svc Services, oidcConfig OIDCConfig, webDir string) *Server {
	return &Server{svc: svc, oidcConfig: oidcConfig, webDir: webDir}
}

// WithoutAuth disables authentication; every request acts as a local user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /me", s.protect(s.handleMe))
	api.Handle("PUT /me/timezone", s.protect(s.handleSetTimezone))

	api.Handle("GET /period/day", s.protect(s.handlePeriodDay))

	api.Handle("POST /tasks", s.protect(s.handleTaskCreate))
	api.Handle("GET /tasks", s.protect(s.handleTaskList))
	api.Handle("PUT /tasks/{id}/status", s.protect(s.handleTaskStatus))

	api.Handle("POST /focus/start", s.protect(s.gated(s.handleFocusStart)))
	api.Handle("GET /focus/current", s.protect(s.handleFocusCurrent))
	api.Handle("POST /focus/recover", s.protect(s.handleFocusRecover))
	api.Handle("POST /focus/{id}/pause", s.protect(s.handleFocusPause))
	api.Handle("POST /focus/{id}/resume", s.protect(s.handleFocusResume))
	api.Handle("POST /focus/{id}/end", s.protect(s.handleFocusEnd))
	api.Handle("POST /focus/{id}/recover", s.protect(s.handleFocusRecover))

	api.Handle("GET /review/status", s.protect(s.handleReviewStatus))
	api.Handle("POST /review/{type}", s.protect(s.handleReviewSubmit))

	api.Handle("GET /gate", s.protect(s.handleGate))
	api.Handle("GET /gamification", s.protect(s.handleGamification))
	api.Handle("GET /activity/daily", s.protect(s.handleActivityDaily))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.authMiddleware(h)
}
