package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	adapthttp "cadence/internal/adapter/http"
	"cadence/internal/adapter/memory"
	"cadence/internal/adapter/postgres"
	"cadence/internal/adapter/sqlite"
	"cadence/internal/app"
	"cadence/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

type store interface {
	domain.UserRepository
	domain.TaskRepository
	domain.FocusSessionRepository
	domain.ReviewRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	addr := env("ADDR", ":8080")
	webDir := env("WEB_DIR", "web")

	db, sessionRepo, closeDB, err := openStore()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer closeDB()

	clock := app.SystemClock()
	ttl, err := time.ParseDuration(env("SESSION_TTL", app.DefaultSessionTTL.String()))
	if err != nil {
		log.Fatalf("SESSION_TTL: %v", err)
	}

	svc := adapthttp.Services{
		Auth:         app.NewAuthService(db, sessionRepo, clock, ttl),
		Tasks:        app.NewTaskService(db, clock),
		Focus:        app.NewFocusService(db, db, clock),
		Reviews:      app.NewReviewService(db, db, clock),
		Gamification: app.NewGamificationService(db, db, db, db, clock),
		Activity:     app.NewActivityService(db, db, db, db, clock),
		Period:       app.NewPeriodService(db, clock),
	}
	svc.Gate = app.NewGateService(svc.Reviews)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oidcConfig, err := loadOIDC(ctx)
	if err != nil {
		log.Fatalf("oidc: %v", err)
	}

	srv := adapthttp.New(svc, oidcConfig, webDir)
	if disabled, _ := strconv.ParseBool(os.Getenv("DISABLE_AUTH")); disabled {
		log.Println("authentication disabled")
		srv = srv.WithoutAuth()
	}

	go cleanupSessions(ctx, svc.Auth)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore picks PostgreSQL, then SQLite, then the in-memory store.
func openStore() (store, domain.SessionRepository, func(), error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		db, err := postgres.Open(connStr)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("using postgres store")
		return db, postgres.NewSessionRepo(db), func() { _ = db.Close() }, nil
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("using sqlite store at %s", path)
		return db, sqlite.NewSessionRepo(db), func() { _ = db.Close() }, nil
	}
	log.Println("DATABASE_URL and SQLITE_PATH unset, using in-memory store")
	db := memory.New()
	return db, db.NewSessionRepo(), func() {}, nil
}

var oidcVars = []string{"OIDC_ISSUER", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET", "OIDC_REDIRECT_URL"}

// oidcFromEnv reads the SSO settings. SSO stays off unless every variable
// is set; a partial set is reported as missing names.
func oidcFromEnv() (issuer string, cfg oauth2.Config, missing []string) {
	vals := make(map[string]string, len(oidcVars))
	for _, k := range oidcVars {
		vals[k] = os.Getenv(k)
		if vals[k] == "" {
			missing = append(missing, k)
		}
	}
	cfg = oauth2.Config{
		ClientID:     vals["OIDC_CLIENT_ID"],
		ClientSecret: vals["OIDC_CLIENT_SECRET"],
		RedirectURL:  vals["OIDC_REDIRECT_URL"],
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return vals["OIDC_ISSUER"], cfg, missing
}

func loadOIDC(ctx context.Context) (adapthttp.OIDCConfig, error) {
	issuer, cfg, missing := oidcFromEnv()
	if len(missing) == len(oidcVars) {
		return adapthttp.OIDCConfig{}, nil
	}
	if len(missing) > 0 {
		log.Printf("oidc: SSO disabled, missing %s", strings.Join(missing, ", "))
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	cfg.Endpoint = provider.Endpoint()
	return adapthttp.OIDCConfig{
		Enabled:      true,
		Provider:     provider,
		OAuth2Config: cfg,
	}, nil
}

func cleanupSessions(ctx context.Context, auth *app.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.CleanupExpired(ctx); err != nil {
				log.Printf("session cleanup: %v", err)
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
