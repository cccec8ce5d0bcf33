package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/akchatar/socialconnect-ai/internal/application/analysis"
	appcreds "github.com/akchatar/socialconnect-ai/internal/application/credentials"
	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
	domanalysis "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
	domcred "github.com/akchatar/socialconnect-ai/internal/domain/credential"
	"github.com/akchatar/socialconnect-ai/internal/middleware"
)

type Router struct {
	credsSvc    *appcreds.Service
	analysisSvc *appanalysis.Service
	localStatus domai.StatusChecker
}

// Options configure the cross-cutting middleware around the API.
type Options struct {
	AuthKeys       map[string]string
	AllowedOrigins []string

	// HealthCheckers feed the /health endpoint (e.g. database ping).
	HealthCheckers map[string]middleware.HealthChecker
}

func NewRouter(credsSvc *appcreds.Service, analysisSvc *appanalysis.Service, localStatus domai.StatusChecker, opts Options) http.Handler {
	r := &Router{credsSvc: credsSvc, analysisSvc: analysisSvc, localStatus: localStatus}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.AuthKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.AuthKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(30, 10))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(tenantGuard)
		rt.Get("/credentials", r.wrap(r.handleListCredentials))
		rt.Post("/credentials", r.wrap(r.handleAddCredential))
		rt.Delete("/credentials/{id}", r.wrap(r.handleRemoveCredential))
		rt.Get("/credentials/stats", r.wrap(r.handlePoolStats))
		rt.Post("/notes/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/notes/reformulate", r.wrap(r.handleReformulate))
		rt.Get("/analyses", r.wrap(r.handleListAnalyses))
		rt.Get("/ai/status", r.wrap(r.handleAIStatus))
	})

	return mux
}

// tenantGuard rejects requests whose URL tenant does not match the one
// the API key authenticated as, and bad tenant ids in general.
func tenantGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		urlTenant := chi.URLParam(req, "tenant")
		if err := middleware.ValidateTenantID(urlTenant); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if auth := middleware.GetTenantFromContext(req.Context()); auth != "" && auth != urlTenant {
			http.Error(w, "tenant mismatch", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domcred.ErrInvalidSecret), errors.Is(err, domanalysis.ErrEmptyNote):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domcred.ErrDuplicateSecret):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// credentialView never exposes the raw secret over the admin surface.
type credentialView struct {
	ID               domcred.ID `json:"id"`
	Secret           string     `json:"secret"`
	Label            string     `json:"label"`
	IsActive         bool       `json:"is_active"`
	IsRateLimited    bool       `json:"is_rate_limited"`
	RateLimitedUntil *time.Time `json:"rate_limited_until,omitempty"`
	RequestsToday    int        `json:"requests_today"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func viewOf(c *domcred.Credential) credentialView {
	return credentialView{
		ID:               c.ID,
		Secret:           c.Redacted(),
		Label:            c.Label,
		IsActive:         c.IsActive,
		IsRateLimited:    c.IsRateLimited,
		RateLimitedUntil: c.RateLimitedUntil,
		RequestsToday:    c.RequestsToday,
		LastUsedAt:       c.LastUsedAt,
		CreatedAt:        c.CreatedAt,
	}
}

// GET /v1/{tenant}/credentials
func (r *Router) handleListCredentials(w http.ResponseWriter, req *http.Request) error {
	creds, err := r.credsSvc.List(req.Context())
	if err != nil {
		return err
	}

	views := make([]credentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, viewOf(c))
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"credentials":   views,
		"fallback_mode": r.credsSvc.FallbackMode(),
	})
}

// POST /v1/{tenant}/credentials
// Body: {"secret": "gsk_...", "label": "Pauline"}
func (r *Router) handleAddCredential(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Secret string `json:"secret"`
		Label  string `json:"label"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateSecret(body.Secret); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	if err := middleware.ValidateLabel(body.Label); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	c, err := r.credsSvc.Add(req.Context(), body.Secret, middleware.SanitizeString(body.Label))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(viewOf(c))
}

// DELETE /v1/{tenant}/credentials/{id}
// Idempotent: deleting an id that is already gone still returns 204.
func (r *Router) handleRemoveCredential(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.credsSvc.Remove(req.Context(), domcred.ID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/{tenant}/credentials/stats
func (r *Router) handlePoolStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.credsSvc.Stats(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(stats)
}

// POST /v1/{tenant}/notes/analyze
// Body: {"text": "...", "provider": "groq|ollama"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Text     string `json:"text"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateProvider(body.Provider); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	out, err := r.analysisSvc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		TenantID:      tenant,
		Text:          body.Text,
		ForceProvider: domai.Provider(body.Provider),
	})
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	if out.ModelError != "" || out.ParseFailed {
		middleware.IncrementAnalysesDegraded()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(out)
}

// POST /v1/{tenant}/notes/reformulate
// Body: {"text": "...", "local_only": true}
func (r *Router) handleReformulate(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Text      string `json:"text"`
		LocalOnly bool   `json:"local_only"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	comp, err := r.analysisSvc.Reformulate(req.Context(), tenant, body.Text, body.LocalOnly)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(comp)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysisSvc.ListAnalyses(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/ai/status — connectivity diagnostics, not dispatch
func (r *Router) handleAIStatus(w http.ResponseWriter, req *http.Request) error {
	status := map[string]any{"local": "unconfigured"}

	if r.localStatus != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := r.localStatus.CheckStatus(ctx); err != nil {
			status["local"] = "unreachable"
			status["local_error"] = err.Error()
		} else {
			status["local"] = "ok"
		}
	}

	stats, err := r.credsSvc.Stats(req.Context())
	if err == nil {
		status["pool_active_keys"] = stats.ActiveKeys
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(status)
}
