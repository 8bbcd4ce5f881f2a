package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/audit"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/authflow"
	authapi "github.com/mhdnifad/Aurora-Ops-sub000/pkg/authflow/api"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/client"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/config"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/identity"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/org"
	orgapi "github.com/mhdnifad/Aurora-Ops-sub000/pkg/org/api"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/rbac"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/session"
	sessionapi "github.com/mhdnifad/Aurora-Ops-sub000/pkg/session/api"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

// StorageConfig selects the repository backend. The in-memory backend exists
// for local trials; everything else runs on PostgreSQL.
type StorageConfig struct {
	InMemory bool `env:"AURORA_IN_MEMORY" env-default:"false"`
}

type repositories struct {
	identities identity.Repository
	sessions   session.Repository
	orgs       org.Repository
	audits     audit.Repository
}

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	storage := StorageConfig{}
	cleanenv.ReadEnv(&storage)

	repos, err := buildRepositories(context.Background(), cfg, storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "err", err)
		os.Exit(1)
	}

	tokens := token.NewService(
		cfg.Jwt.AccessSecret,
		cfg.Jwt.RefreshSecret,
		token.WithAccessExpiry(cfg.Jwt.AccessExpiry),
		token.WithRefreshExpiry(cfg.Jwt.RefreshExpiry),
	)

	var cache session.RevocationCache = session.NewNoopCache()
	if cfg.Cache.Enabled {
		cache = session.NewMemoryCache(cfg.Cache.CleanupInterval)
	}

	identities := identity.NewService(repos.identities)
	sessions := session.NewService(repos.sessions)
	orgs := org.NewService(repos.orgs)
	recorder := audit.NewRecorder(repos.audits, audit.WithRetention(cfg.Housekeeping.AuditRetention))
	flow := authflow.NewService(identities, sessions, tokens, cache, recorder)
	resolver := org.NewResolver(repos.orgs)
	checker := rbac.NewChecker(orgs)

	authHandle := authapi.NewHandle(flow, authapi.WithSecureCookies(cfg.Jwt.CookieSecure))
	orgHandle := orgapi.NewOrgHandler(orgs, recorder)
	sessionHandle := sessionapi.NewSessionHandler(sessions, tokens)
	tenant := client.NewTenantMiddleware(resolver)
	ja := jwtauth.New("HS256", []byte(cfg.Jwt.AccessSecret), nil)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})

	r.Route("/auth", func(r chi.Router) {
		authHandle.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(client.Verifier(ja))
			r.Use(client.AuthUserMiddleware)
			r.Use(client.RequireAuth)
			authHandle.RegisterProtectedRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(client.Verifier(ja))
		r.Use(client.AuthUserMiddleware)
		r.Use(client.RequireAuth)
		r.Use(client.TouchActivity(sessions, tokens))

		r.Route("/sessions", func(r chi.Router) {
			sessionHandle.RegisterRoutes(r)
			r.Post("/revoke-all", authHandle.LogoutAll)
		})

		r.Route("/orgs", func(r chi.Router) {
			orgHandle.RegisterRoutes(r)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Use(tenant.RequireOrganization)

				r.Group(func(r chi.Router) {
					r.Use(client.RequirePermission(checker, ""))
					orgHandle.RegisterMemberRoutes(r)
				})
				r.Group(func(r chi.Router) {
					r.Use(client.RequirePermission(checker, "manage_members"))
					orgHandle.RegisterAdminRoutes(r)
				})
				r.Group(func(r chi.Router) {
					r.Use(client.RequirePermission(checker, "view_audit_log"))
					orgHandle.RegisterAuditRoutes(r)
				})
			})
		})
	})

	go housekeeping(cfg.Housekeeping.Interval, sessions, recorder)

	slog.Info("Starting server", "addr", cfg.Server.Addr(), "in_memory", storage.InMemory)
	if err := http.ListenAndServe(cfg.Server.Addr(), r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func buildRepositories(ctx context.Context, cfg *config.Config, storage StorageConfig) (*repositories, error) {
	if storage.InMemory {
		return &repositories{
			identities: identity.NewInMemRepository(),
			sessions:   session.NewInMemRepository(),
			orgs:       org.NewInMemRepository(),
			audits:     audit.NewInMemRepository(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Db.ToDatabaseURL())
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &repositories{
		identities: identity.NewPostgresRepository(pool),
		sessions:   session.NewPostgresRepository(pool),
		orgs:       org.NewPostgresRepository(pool),
		audits:     audit.NewPostgresRepository(pool),
	}, nil
}

// housekeeping purges long-expired sessions and audit records past retention.
func housekeeping(interval time.Duration, sessions *session.Service, recorder *audit.Recorder) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := sessions.PurgeExpired(ctx); err != nil {
			slog.Error("Failed to purge expired sessions", "err", err)
		}
		if err := recorder.PurgeExpired(ctx); err != nil {
			slog.Error("Failed to purge audit records", "err", err)
		}
		cancel()
	}
}
