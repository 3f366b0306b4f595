package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/logging"
	"github.com/vacathon/vacathon-api/internal/metrics"
)

// Handlers bundles the route handlers for registration.
type Handlers struct {
	Auth               *auth.AuthHandler
	Events             *EventsHandler
	Registrations      *RegistrationsHandler
	Forum              *ForumHandler
	Notifications      *NotificationsHandler
	Profiles           *ProfilesHandler
	AdminEvents        *AdminEventsHandler
	AdminRegistrations *AdminRegistrationsHandler
}

var securityBearer = []map[string][]string{{"bearerAuth": {}}, {"cookieAuth": {}}}

func secured(o *huma.Operation) {
	o.Security = securityBearer
}

// RegisterRoutes mounts the full API onto the mux. Routes fall into three
// rings: public, authenticated, and staff-only.
func RegisterRoutes(r *chi.Mux, cfg *config.Config, logger zerolog.Logger, h Handlers) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	apiConfig := huma.DefaultConfig("Vacathon API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
	}
	api := humachi.New(r, apiConfig)

	// Sub-groups share the OpenAPI document but must not re-register the
	// docs routes.
	groupConfig := apiConfig
	groupConfig.OpenAPIPath = ""
	groupConfig.DocsPath = ""
	groupConfig.SchemasPath = ""

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	huma.Get(api, "/api/home", h.Events.HandleHome)
	huma.Get(api, "/api/events", h.Events.HandleList)
	huma.Get(api, "/api/events/{slug}", h.Events.HandleDetail)
	huma.Get(api, "/api/categories", h.AdminEvents.HandleListCategories)
	huma.Get(api, "/api/forum/threads", h.Forum.HandleThreads)
	huma.Get(api, "/api/forum/threads/{slug}", h.Forum.HandleThreadDetail)

	// Auth routes, rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
		authAPI := humachi.New(r, groupConfig)
		huma.Post(authAPI, "/api/auth/signup", h.Auth.HandleSignup)
		huma.Post(authAPI, "/api/auth/login", h.Auth.HandleLogin)
		huma.Post(authAPI, "/api/auth/token", h.Auth.HandleToken)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)
		userAPI := humachi.New(r, groupConfig)

		huma.Get(userAPI, "/api/auth/me", h.Auth.HandleMe, secured)

		huma.Post(userAPI, "/api/events/{slug}/register", h.Registrations.HandleRegister, secured)
		huma.Get(userAPI, "/api/registrations", h.Registrations.HandleList, secured)
		huma.Get(userAPI, "/api/registrations/{reference}", h.Registrations.HandleDetail, secured)

		huma.Post(userAPI, "/api/forum/threads", h.Forum.HandleCreateThread, secured)
		huma.Post(userAPI, "/api/forum/threads/{slug}/posts", h.Forum.HandleCreatePost, secured)
		huma.Post(userAPI, "/api/forum/posts/{post_id}/like", h.Forum.HandleToggleLike, secured)
		huma.Post(userAPI, "/api/forum/posts/{post_id}/report", h.Forum.HandleReportPost, secured)

		huma.Get(userAPI, "/api/notifications", h.Notifications.HandleInbox, secured)
		huma.Post(userAPI, "/api/notifications/{id}/read", h.Notifications.HandleMarkRead, secured)
		huma.Post(userAPI, "/api/notifications/read-all", h.Notifications.HandleMarkAllRead, secured)

		huma.Get(userAPI, "/api/profile", h.Profiles.HandleGetProfile, secured)
		huma.Put(userAPI, "/api/profile", h.Profiles.HandleUpdateProfile, secured)
		huma.Get(userAPI, "/api/dashboard", h.Profiles.HandleDashboard, secured)
		huma.Get(userAPI, "/api/achievements", h.Profiles.HandleListAchievements, secured)
		huma.Post(userAPI, "/api/achievements", h.Profiles.HandleCreateAchievement, secured)
		huma.Delete(userAPI, "/api/achievements/{id}", h.Profiles.HandleDeleteAchievement, secured)
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)
		r.Use(h.Auth.RequireStaff)
		adminAPI := humachi.New(r, groupConfig)

		huma.Post(adminAPI, "/api/admin/events", h.AdminEvents.HandleCreate, secured)
		huma.Put(adminAPI, "/api/admin/events/{slug}", h.AdminEvents.HandleUpdate, secured)
		huma.Delete(adminAPI, "/api/admin/events/{slug}", h.AdminEvents.HandleDelete, secured)
		huma.Post(adminAPI, "/api/admin/categories", h.AdminEvents.HandleCreateCategory, secured)

		huma.Delete(adminAPI, "/api/admin/forum/posts/{post_id}", h.Forum.HandleAdminDeletePost, secured)

		huma.Get(adminAPI, "/api/admin/registrations", h.AdminRegistrations.HandleList, secured)
		huma.Put(adminAPI, "/api/admin/registrations/{id}/status", h.AdminRegistrations.HandleSetStatus, secured)
		huma.Put(adminAPI, "/api/admin/registrations/{id}/payment", h.AdminRegistrations.HandleSetPayment, secured)
		huma.Delete(adminAPI, "/api/admin/registrations/{id}", h.AdminRegistrations.HandleDelete, secured)

		huma.Get(adminAPI, "/api/admin/events/{slug}/participants", h.AdminRegistrations.HandleParticipants, secured)
		huma.Post(adminAPI, "/api/admin/events/{slug}/participants/{id}/confirm", h.AdminRegistrations.HandleConfirmParticipant, secured)
	})
}
