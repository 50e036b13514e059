// Package httpapi exposes a featureflag.Service over a JSON HTTP API built on chi.
//
// Routes, relative to the mount point:
//
//	GET    /health                        liveness
//	GET    /ready                         readiness (store, cache, ...)
//	GET    /flags                         list (limit, offset, keyword, enabled, kind)
//	POST   /flags                         create
//	GET    /flags/{code}                  fetch
//	PUT    /flags/{code}                  replace
//	PATCH  /flags/{code}                  partial update
//	DELETE /flags/{code}                  soft delete
//	POST   /flags/{code}/enable           switch on
//	POST   /flags/{code}/disable          switch off
//	GET    /flags/{code}/evaluate         evaluate with query parameters as context
//	POST   /flags/{code}/evaluate         evaluate with a JSON object as context
//	GET    /flags/{code}/metadata/{key}   rule metadata projection
//	DELETE /cache                         clear the flag cache
//
// Responses use a {"data", "meta", "error", "warning"} envelope. A change
// that was committed but could not be announced is reported with its
// regular success status and a warning.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/httpserver"
	"github.com/dmitrymomot/flagkit/pkg/requestid"
)

// FlagService is the subset of *featureflag.Service served over HTTP.
type FlagService interface {
	Create(ctx context.Context, flag *feature.Flag) (*feature.Flag, error)
	Get(ctx context.Context, code string) (*feature.Flag, error)
	Enable(ctx context.Context, code string) (*feature.Flag, error)
	Disable(ctx context.Context, code string) (*feature.Flag, error)
	Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error)
	UpdateProperties(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error)
	ListByRuleKind(ctx context.Context, kind feature.RuleKind, q feature.ListQuery) (feature.Page[*feature.Flag], error)
	IsEnabled(ctx context.Context, code string, ec feature.EvalContext) (bool, error)
	MetadataValue(ctx context.Context, code, key string) (string, bool, error)
	ClearCache(ctx context.Context) error
}

// Handler serves the flag API.
type Handler struct {
	svc    FlagService
	log    *slog.Logger
	checks map[string]httpserver.Check
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithReadinessCheck adds a named dependency probe to /ready.
func WithReadinessCheck(name string, check httpserver.Check) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// New creates a Handler over svc.
func New(svc FlagService, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		log:    slog.Default(),
		checks: map[string]httpserver.Check{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(h.log, nil))
	r.Get("/ready", httpserver.HealthCheckHandler(h.log, h.checks))

	r.Route("/flags", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Patch("/", h.patch)
			r.Delete("/", h.delete)
			r.Post("/enable", h.enable)
			r.Post("/disable", h.disable)
			r.Get("/evaluate", h.evaluateQuery)
			r.Post("/evaluate", h.evaluateBody)
			r.Get("/metadata/{key}", h.metadata)
		})
	})
	r.Delete("/cache", h.clearCache)

	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var page feature.Page[*feature.Flag]
	if q.Kind != nil {
		page, err = h.svc.ListByRuleKind(r.Context(), *q.Kind, q)
	} else {
		page, err = h.svc.List(r.Context(), q)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q = q.Normalize()
	respond(w, r, http.StatusOK, envelope{
		Data: page.Items,
		Meta: &pageMeta{Count: page.Count, Limit: q.Limit, Offset: q.Offset},
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var flag feature.Flag
	if err := decodeJSON(w, r, &flag); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.svc.Create(r.Context(), &flag)
	h.committed(w, r, http.StatusCreated, created, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	flag, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, envelope{Data: flag})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var flag feature.Flag
	if err := decodeJSON(w, r, &flag); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "code"), &flag)
	h.committed(w, r, http.StatusOK, updated, err)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.svc.UpdateProperties(r.Context(), chi.URLParam(r, "code"), patch)
	h.committed(w, r, http.StatusOK, updated, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), chi.URLParam(r, "code"))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.committed(w, r, http.StatusOK, nil, err)
}

func (h *Handler) enable(w http.ResponseWriter, r *http.Request) {
	flag, err := h.svc.Enable(r.Context(), chi.URLParam(r, "code"))
	h.committed(w, r, http.StatusOK, flag, err)
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	flag, err := h.svc.Disable(r.Context(), chi.URLParam(r, "code"))
	h.committed(w, r, http.StatusOK, flag, err)
}

func (h *Handler) evaluateQuery(w http.ResponseWriter, r *http.Request) {
	ec := feature.EvalContext{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			ec[key] = values[0]
		}
	}
	h.evaluate(w, r, ec)
}

func (h *Handler) evaluateBody(w http.ResponseWriter, r *http.Request) {
	ec := feature.EvalContext{}
	if err := decodeJSON(w, r, &ec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.evaluate(w, r, ec)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, ec feature.EvalContext) {
	code := chi.URLParam(r, "code")
	enabled, err := h.svc.IsEnabled(r.Context(), code, ec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, envelope{Data: evaluation{Code: code, Enabled: enabled}})
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	code, key := chi.URLParam(r, "code"), chi.URLParam(r, "key")
	value, ok, err := h.svc.MetadataValue(r.Context(), code, key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		h.fail(w, r, errMetadataNotFound)
		return
	}
	respond(w, r, http.StatusOK, envelope{Data: metadata{Code: code, Key: key, Value: value}})
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
