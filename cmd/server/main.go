// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/rentline/internal/analytics"
	"github.com/tomtom215/rentline/internal/api"
	"github.com/tomtom215/rentline/internal/audit"
	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/authz"
	"github.com/tomtom215/rentline/internal/backup"
	"github.com/tomtom215/rentline/internal/cache"
	"github.com/tomtom215/rentline/internal/config"
	"github.com/tomtom215/rentline/internal/conversation"
	"github.com/tomtom215/rentline/internal/digest"
	"github.com/tomtom215/rentline/internal/inquiry"
	"github.com/tomtom215/rentline/internal/listing"
	"github.com/tomtom215/rentline/internal/logging"
	"github.com/tomtom215/rentline/internal/messaging"
	"github.com/tomtom215/rentline/internal/metrics"
	"github.com/tomtom215/rentline/internal/models"
	"github.com/tomtom215/rentline/internal/notify"
	"github.com/tomtom215/rentline/internal/recommend"
	"github.com/tomtom215/rentline/internal/responder"
	"github.com/tomtom215/rentline/internal/store"
	"github.com/tomtom215/rentline/internal/supervisor"
	"github.com/tomtom215/rentline/internal/supervisor/services"
	"github.com/tomtom215/rentline/internal/upload"
	ws "github.com/tomtom215/rentline/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// stores holds the JSON collections under data.dir.
type stores struct {
	properties   *store.Collection[models.Property]
	contacts     *store.Collection[models.Contact]
	applications *store.Collection[models.Application]
	leads        *store.Collection[models.Lead]
	viewings     *store.Collection[models.ViewingRequest]
}

// files lists the collection files for backups.
func (s *stores) files() []string {
	return []string{
		s.properties.Path(),
		s.contacts.Path(),
		s.applications.Path(),
		s.leads.Path(),
		s.viewings.Path(),
	}
}

func openStores(dir string) (*stores, error) {
	var s stores
	var err error
	if s.properties, err = store.Open[models.Property](dir, "properties"); err != nil {
		return nil, err
	}
	if s.contacts, err = store.Open[models.Contact](dir, "contacts"); err != nil {
		return nil, err
	}
	if s.applications, err = store.Open[models.Application](dir, "applications"); err != nil {
		return nil, err
	}
	if s.leads, err = store.Open[models.Lead](dir, "leads"); err != nil {
		return nil, err
	}
	if s.viewings, err = store.Open[models.ViewingRequest](dir, "viewings"); err != nil {
		return nil, err
	}
	return &s, nil
}

// openAnalyticsStore uses Badger unless the memory store is configured or
// no path is set.
func openAnalyticsStore(cfg config.AnalyticsConfig) (analytics.Store, error) {
	if cfg.Store == "memory" || cfg.Path == "" {
		logging.Warn().Msg("Analytics events are kept in memory and lost on restart")
		return analytics.NewMemoryStore(100_000), nil
	}
	return analytics.OpenBadgerStore(cfg.Path)
}

//nolint:gocyclo // sequential wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("data_dir", cfg.Data.Dir).
		Bool("twilio_enabled", cfg.Twilio.Enabled).
		Strs("llm_providers", cfg.AI.Providers).
		Msg("Starting Rentline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(cfg.Data.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open data store")
	}

	eventStore, err := openAnalyticsStore(cfg.Analytics)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Analytics.Path).Msg("Failed to open analytics store")
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing analytics store")
		}
	}()

	uploads, err := upload.New(cfg.Uploads)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to prepare upload directory")
	}

	listings := listing.NewService(st.properties)
	if cfg.Data.SeedSample {
		if _, err := listings.SeedSample(ctx); err != nil {
			logging.Error().Err(err).Msg("Failed to seed sample listings")
		}
	}

	hub := ws.NewHub()
	recorder := analytics.NewRecorder(eventStore, cfg.Analytics.BufferSize)
	dispatcher := notify.NewDispatcher(notify.FromConfig(cfg.Notify), cfg.Notify.Timeout)

	inquiries := inquiry.NewService(listings, st.contacts, st.applications, recorder, dispatcher, hub)
	summaries := cache.New[*analytics.Summary](cfg.Analytics.CacheTTL)
	analyticsSvc := analytics.NewService(eventStore, recorder, summaries, inquiries)

	engine := conversation.NewEngine(conversation.Deps{
		Leads:     st.leads,
		Viewings:  st.viewings,
		Listings:  listings,
		Responder: responder.FromConfig(ctx, cfg.AI),
		Events:    recorder,
		Notifier:  dispatcher,
		Feed:      hub,
	}, conversation.Config{
		MaxHistory:        cfg.Conversation.MaxHistory,
		MaxSuggestions:    cfg.Conversation.MaxSuggestions,
		ShareVoiceWithSMS: cfg.Conversation.ShareVoiceWithSMS,
		Agency:            cfg.AI.AgencyName,
	})

	users, err := auth.NewUserStore(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load staff users")
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	lockout := auth.NewLockoutManager(auth.DefaultLockoutConfig())
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load authorization policy")
	}

	var backups *backup.Manager
	if cfg.Backup.Enabled {
		src := backup.Sources{DataFiles: st.files(), UploadsDir: uploads.Dir()}
		if bs, ok := eventStore.(*analytics.BadgerStore); ok {
			src.Analytics = bs
		}
		backups, err = backup.NewManager(cfg.Backup, src)
		if err != nil {
			logging.Fatal().Err(err).Str("dir", cfg.Backup.Dir).Msg("Failed to prepare backup directory")
		}
	}

	var similar *recommend.Engine
	if cfg.Similar.Enabled {
		rc := recommend.DefaultConfig()
		rc.Interval = cfg.Similar.Interval
		rc.Window = cfg.Similar.Window
		rc.Lambda = cfg.Similar.Lambda
		similar = recommend.NewEngine(listings, eventStore, rc)
	}

	var digests *digest.Scheduler
	if cfg.Digest.Enabled {
		schedule, err := digest.ParseCron(cfg.Digest.Schedule)
		if err != nil {
			logging.Fatal().Err(err).Msg("Invalid DIGEST_SCHEDULE")
		}
		loc, err := time.LoadLocation(cfg.Digest.Timezone)
		if err != nil {
			logging.Fatal().Err(err).Msg("Invalid DIGEST_TIMEZONE")
		}
		builder := digest.NewBuilder(cfg.AI.AgencyName, cfg.Digest.WindowDays, analyticsSvc, engine)
		digests = digest.NewScheduler(builder, dispatcher, schedule, loc)
	}

	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog = audit.NewLogger(audit.NewMemoryStore(cfg.Audit.MaxEvents), cfg.Audit)
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.Twilio.Enabled && !cfg.Twilio.ValidateSignatures {
		logging.Warn().Msg("Twilio webhook signatures are NOT validated; anyone can post to /webhooks")
	}

	handler := api.NewHandler(api.Deps{
		Config:    cfg,
		Version:   version,
		Listings:  listings,
		Inquiries: inquiries,
		Engine:    engine,
		Analytics: analyticsSvc,
		Uploads:   uploads,
		Users:     users,
		JWT:       jwtManager,
		Lockout:   lockout,
		Hub:       hub,
		Audit:     auditLog,
		Backups:   backups,
		Similar:   similar,
		Digest:    digests,
	})
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), authz.NewMiddleware(enforcer).WithAudit(auditLog))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{
		ShutdownTimeout: shutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	components := supervisor.Components{
		Recorder:  recorder,
		Retention: analytics.NewRetentionCleaner(eventStore, cfg.Analytics.Retention, time.Hour),
		Caches:    []suture.Service{summaries},
		Hub:       hub,
		HTTP:      services.NewHTTPServerService(server, shutdownTimeout),
		Lockout:   lockout,
	}
	if auditLog != nil {
		components.Audit = auditLog
	}
	if backups != nil {
		components.Backup = backups
	}
	if similar != nil {
		components.Recommend = similar
	}
	if digests != nil {
		components.Digest = digests
	}
	if c := enforcer.Cache(); c != nil {
		components.Caches = append(components.Caches, c)
	}
	if cfg.Conversation.FollowUpEnabled {
		sender := messaging.NewClient(cfg.Twilio, &http.Client{Timeout: 15 * time.Second})
		if sender.Enabled() {
			components.FollowUp = conversation.NewFollowUp(engine, sender,
				cfg.Conversation.FollowUpAfter, cfg.Conversation.FollowUpInterval)
		} else {
			logging.Warn().Msg("Follow-ups are enabled but Twilio is not configured; skipping")
		}
	}
	n := tree.Install(components)
	logging.Info().Int("services", n).Str("addr", server.Addr).Msg("Supervisor tree configured")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("Rentline stopped")
}
