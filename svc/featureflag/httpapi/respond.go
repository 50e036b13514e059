package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/requestid"
	"github.com/dmitrymomot/flagkit/svc/featureflag"
)

const maxBodySize = 1 << 20

var (
	errBadRequest       = errors.New("malformed request")
	errMetadataNotFound = errors.New("metadata key not found")
)

type envelope struct {
	Data      any       `json:"data,omitempty"`
	Meta      *pageMeta `json:"meta,omitempty"`
	Error     string    `json:"error,omitempty"`
	Warning   string    `json:"warning,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type pageMeta struct {
	Count  int64 `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type evaluation struct {
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

type metadata struct {
	Code  string `json:"code"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type patchRequest struct {
	Enabled     *bool           `json:"enabled"`
	Description *string         `json:"description"`
	Rule        json.RawMessage `json:"rule"`
}

func (p patchRequest) toPatch() (feature.Patch, error) {
	rule, err := feature.UnmarshalRule(p.Rule)
	if err != nil {
		return feature.Patch{}, err
	}
	return feature.Patch{Enabled: p.Enabled, Description: p.Description, Rule: rule}, nil
}

func respond(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	body.RequestID = requestid.FromContext(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// committed answers a mutation. A notification failure after a successful
// commit keeps the success status and surfaces as a warning.
func (h *Handler) committed(w http.ResponseWriter, r *http.Request, status int, flag *feature.Flag, err error) {
	switch {
	case err == nil:
		respond(w, r, status, envelope{Data: flag})
	case featureflag.IsNotificationError(err):
		body := envelope{Warning: err.Error()}
		if flag != nil {
			body.Data = flag
		}
		respond(w, r, status, body)
	default:
		h.fail(w, r, err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "feature flag request failed", logger.Error(err))
		msg = http.StatusText(status)
	}
	respond(w, r, status, envelope{Error: msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, feature.ErrFlagNotFound), errors.Is(err, errMetadataNotFound):
		return http.StatusNotFound
	case errors.Is(err, feature.ErrFlagExists):
		return http.StatusConflict
	case errors.Is(err, feature.ErrInvalidFlag),
		errors.Is(err, feature.ErrInvalidRule),
		errors.Is(err, feature.ErrUnknownRuleKind),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		if errors.Is(err, feature.ErrInvalidRule) || errors.Is(err, feature.ErrUnknownRuleKind) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func parseListQuery(v url.Values) (feature.ListQuery, error) {
	var (
		q   feature.ListQuery
		err error
	)
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: limit must be an integer", errBadRequest)
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: offset must be an integer", errBadRequest)
		}
	}
	q.Keyword = v.Get("keyword")
	if s := v.Get("enabled"); s != "" {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("%w: enabled must be a boolean", errBadRequest)
		}
		q.Enabled = &enabled
	}
	if s := v.Get("kind"); s != "" {
		kind, err := feature.ParseRuleKind(s)
		if err != nil {
			return q, err
		}
		q.Kind = &kind
	}
	return q, nil
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.LogAttrs(r.Context(), slog.LevelDebug, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
