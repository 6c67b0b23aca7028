// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/api"
	"github.com/codr1/yogadesk/internal/api/auth"
	"github.com/codr1/yogadesk/internal/api/authz"
	apidashboard "github.com/codr1/yogadesk/internal/api/dashboard"
	"github.com/codr1/yogadesk/internal/api/nav"
	"github.com/codr1/yogadesk/internal/api/settings"
	"github.com/codr1/yogadesk/internal/config"
	appdash "github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/dashboards"
	"github.com/codr1/yogadesk/internal/db"
	"github.com/codr1/yogadesk/internal/email"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/ratelimit"
	"github.com/codr1/yogadesk/internal/scheduler"
	"github.com/codr1/yogadesk/internal/studioapi"
	settingstempl "github.com/codr1/yogadesk/internal/templates/components/settings"
)

const defaultStaticDir = "build/bin/static"

// app owns the long-lived collaborators behind the HTTP handler.
type app struct {
	cfg       *config.Config
	database  *db.DB
	scheduler *scheduler.Service
	limiter   *ratelimit.Limiter
	notifier  *email.Notifier
	registry  *prometheus.Registry
	mux       *http.ServeMux
	sessions  *auth.Manager

	closeOnce sync.Once
}

func newApp(cfg *config.Config) (*app, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{cfg: cfg, database: database, mux: http.NewServeMux()}

	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init() error {
	cfg := a.cfg

	svc, err := scheduler.New()
	if err != nil {
		return fmt.Errorf("initialize scheduler: %w", err)
	}
	a.scheduler = svc
	if err := scheduler.RegisterSessionCleanup(svc, a.database.Queries); err != nil {
		return fmt.Errorf("register session cleanup: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := studioapi.New(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		studioapi.WithMetrics(studioapi.NewMetrics(a.registry)))
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}

	policy, err := models.PolicyByName(cfg.Dashboards.StatusPolicy)
	if err != nil {
		return err
	}

	if cfg.Email.NotifyStatus {
		sender, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			return fmt.Errorf("create email client: %w", err)
		}
		a.notifier = email.NewNotifier(sender, cfg.App.Name)
	}

	if err := auth.CheckHash(cfg.Auth.AdminPasswordHash); err != nil {
		return err
	}
	sessions, err := auth.NewManager(a.database.Queries, auth.ManagerConfig{
		Secret: cfg.App.SecretKey,
		TTL:    cfg.Auth.SessionTTL,
		Secure: !cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}
	a.sessions = sessions
	a.limiter = ratelimit.New(&ratelimit.Config{
		MaxAttempts:  cfg.Auth.LoginMaxAttempts,
		Window:       cfg.Auth.LoginWindow,
		Lockout:      cfg.Auth.LoginLockout,
		MaxIPPerHour: ratelimit.DefaultConfig().MaxIPPerHour,
	})
	auth.InitHandlers(auth.ConfigAuthenticator{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	}, sessions, a.limiter, auth.Options{AppName: cfg.App.Name})

	journal := dashboards.NewAuditJournal(a.database.Queries)
	loc := cfg.Location()

	reg := dashboards.New(dashboards.Deps{
		Client:   client,
		Journal:  journal,
		Policy:   policy,
		Notifier: a.notifier,
		Shell:    nav.Shell,
		Location: loc,
	})

	overview := appdash.NewOverview(reg.Bookings, reg.ClassBookings, appdash.OverviewOptions{
		Policy:         policy,
		Journal:        journal,
		Operator:       authz.OperatorName,
		Registerer:     a.registry,
		OnStatusChange: reg.StatusChanged,
	})
	feed := apidashboard.NewFeed(svc, overview, cfg.Overview.RefreshInterval)
	overviewPage := apidashboard.New(overview, feed, apidashboard.Options{
		Shell:       nav.Shell,
		ServiceName: reg.ServiceName,
		Location:    loc,
	})

	entities := make([]settings.Entity, 0, len(reg.Pages()))
	for _, p := range reg.Pages() {
		entities = append(entities, settings.Entity{Name: p.Entity(), Title: p.Title()})
	}
	settingsPage := settings.New(a.database.Queries, settings.Options{
		AppName:  cfg.App.Name,
		Settings: configSettings(cfg, policy),
		Entities: entities,
		Shell:    nav.Shell,
		Location: loc,
	})

	menu := []nav.Page{overviewPage}
	for _, p := range reg.Pages() {
		menu = append(menu, p)
	}
	menu = append(menu, settingsPage)
	nav.InitHandlers(a.database.Queries, menu, cfg.App.Name)

	a.registerRoutes()
	overviewPage.Register(a.mux)
	reg.Register(a.mux)
	settingsPage.Register(a.mux)

	svc.Start()
	return nil
}

// configSettings lists the read-only configuration shown on the settings page.
func configSettings(cfg *config.Config, policy models.TransitionPolicy) []settingstempl.Setting {
	notify := "off"
	if cfg.Email.NotifyStatus {
		notify = "on (" + cfg.Email.Sender + ")"
	}
	return []settingstempl.Setting{
		{Label: "Backend", Value: cfg.Backend.BaseURL},
		{Label: "Status policy", Value: policy.Name()},
		{Label: "Timezone", Value: cfg.Dashboards.Timezone},
		{Label: "Overview refresh", Value: cfg.Overview.RefreshInterval.String()},
		{Label: "Status emails", Value: notify},
		{Label: "Session lifetime", Value: cfg.Auth.SessionTTL.String()},
		{Label: "Environment", Value: cfg.App.Environment},
	}
}

func (a *app) registerRoutes() {
	mux := a.mux

	mux.HandleFunc("GET /", nav.HandleHome)
	mux.HandleFunc("POST /nav/select", nav.HandleSelect)

	mux.HandleFunc("GET /login", auth.HandleLoginPage)
	mux.HandleFunc("POST /login", auth.HandleLogin)
	mux.HandleFunc("POST /logout", auth.HandleLogout)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if a.cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	staticDir := a.cfg.App.StaticDir
	if staticDir == "" {
		staticDir = defaultStaticDir
	}
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		fs.ServeHTTP(w, r)
	}))
}

// Handler returns the routes wrapped in the middleware chain. The last
// middleware listed runs first.
func (a *app) Handler() http.Handler {
	return api.ChainMiddleware(
		a.mux,
		api.WithOperatorAuth,
		api.WithAuth(a.sessions),
		api.WithContentType,
		api.WithRecovery,
		api.WithLogging,
		api.WithRequestID,
	)
}

// Close stops background work and waits for queued emails.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.scheduler != nil {
			if err := a.scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}
		if a.limiter != nil {
			a.limiter.Close()
		}
		a.notifier.Wait()
		if err := a.database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	})
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        ":" + strconv.Itoa(cfg.App.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the overview stream stays open.
		IdleTimeout: 60 * time.Second,
	}
}
