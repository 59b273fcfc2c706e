// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/rentline/internal/auth"
	"github.com/tomtom215/rentline/internal/authz"
	"github.com/tomtom215/rentline/internal/messaging"
	"github.com/tomtom215/rentline/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	authn         *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. CORS and rate limits come from the security
// config.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMW *authz.Middleware) *Router {
	return &Router{
		handler:       handler,
		authn:         authn,
		authz:         authzMW,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&handler.Config.Security)),
	}
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom("health", RateLimitHealth))
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.With(router.chiMiddleware.RateLimitCustom("login", RateLimitLogin)).Post("/login", h.Login)
		r.With(router.chiMiddleware.RateLimit()).Post("/logout", h.Logout)
		r.With(router.chiMiddleware.RateLimit(), router.authn.Authenticate).Get("/me", h.Me)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Get("/properties", h.SearchProperties)
			r.Get("/properties/featured", h.FeaturedProperties)
			r.Get("/properties/cities", h.PropertyCities)
			r.Get("/properties/{ref}", h.GetProperty)
			r.Get("/properties/{ref}/similar", h.SimilarProperties)
		})

		r.With(router.chiMiddleware.RateLimitCustom("forms", RateLimitForms)).Post("/contact", h.SubmitContact)
		r.With(router.chiMiddleware.RateLimitCustom("forms", RateLimitForms)).Post("/applications", h.SubmitApplication)
		r.With(router.chiMiddleware.RateLimitCustom("chat", RateLimitChat)).Post("/chat", h.Chat)
		r.With(router.chiMiddleware.RateLimitCustom("tracking", RateLimitTracking)).Post("/events", h.TrackEvent)

		r.Route("/admin", router.adminRoutes)
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom("webhook", RateLimitWebhook))
		if tw := h.Config.Twilio; tw.ValidateSignatures {
			r.Use(messaging.RequireSignature(tw.AuthToken, h.Config.Server.PublicURL))
		}
		r.Post("/sms", h.SMSWebhook)
		r.Post("/whatsapp", h.WhatsAppWebhook)
		r.Post("/voice", h.VoiceWebhook)
		r.Post("/voice/gather", h.VoiceGatherWebhook)
		r.Post("/status", h.StatusWebhook)
	})

	r.Handle("/metrics", promhttp.Handler())

	if h.Uploads != nil {
		uploads := http.StripPrefix("/uploads/", http.FileServer(noListing{http.Dir(h.Uploads.Dir())}))
		r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=604800")
			uploads.ServeHTTP(w, r)
		})
	}

	if dir := h.Config.Server.StaticDir; dir != "" {
		r.Get("/*", serveStaticOrIndex(dir))
	}

	return r
}

func (router *Router) adminRoutes(r chi.Router) {
	h := router.handler
	r.Use(router.authn.Authenticate)
	r.Use(router.authz.AuthorizeRequest)
	r.Use(middleware.NoStore)

	r.With(router.chiMiddleware.RateLimitCustom("websocket", RateLimitWebSocket)).Get("/ws", h.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom("admin", RateLimitAdmin))

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.AdminListProperties)
			r.Post("/", h.CreateProperty)
			r.Get("/{id}", h.AdminGetProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)
			r.Post("/{id}/images", h.UploadPropertyImage)
			r.Delete("/{id}/images/{name}", h.DeletePropertyImage)
		})

		r.Get("/contacts", h.ListContacts)
		r.Put("/contacts/{id}/status", h.SetContactStatus)
		r.Delete("/contacts/{id}", h.DeleteContact)

		r.Get("/applications", h.ListApplications)
		r.Get("/applications/{id}", h.GetApplication)
		r.Put("/applications/{id}/status", h.TransitionApplication)
		r.Delete("/applications/{id}", h.DeleteApplication)

		r.Get("/leads", h.ListLeads)
		r.Get("/leads/{id}", h.GetLead)
		r.Patch("/leads/{id}", h.UpdateLead)
		r.Delete("/leads/{id}", h.DeleteLead)
		r.Get("/viewings", h.ListViewings)

		r.Get("/analytics/summary", h.AnalyticsSummary)
		r.Get("/analytics/events", h.AnalyticsEvents)

		r.Get("/audit", h.AuditEvents)
		r.Get("/audit/export", h.AuditExport)

		r.Get("/backups", h.ListBackups)
		r.Post("/backups", h.CreateBackup)
		r.Get("/backups/{id}", h.GetBackup)
		r.Get("/backups/{id}/download", h.DownloadBackup)
		r.Post("/backups/{id}/verify", h.VerifyBackup)
		r.Delete("/backups/{id}", h.DeleteBackup)
		r.Get("/digest", h.DigestPreview)
		r.Post("/digest/send", h.SendDigest)
	})
}

// noListing hides directory indexes from http.FileServer.
type noListing struct{ fs http.FileSystem }

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// serveStaticOrIndex serves files from dir and falls back to index.html so
// client-side routes resolve.
func serveStaticOrIndex(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".css"):
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case strings.HasSuffix(path, ".png"), strings.HasSuffix(path, ".svg"),
			strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".webp"):
			w.Header().Set("Cache-Control", "public, max-age=604800")
		default:
			w.Header().Set("Cache-Control", "public, max-age=300")
		}

		if path != "/" && fileExists(dir, path) {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

func fileExists(dir, path string) bool {
	f, err := http.Dir(dir).Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return !stat.IsDir()
}
