package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dataprowler/dataprowler/internal/config"
	"github.com/dataprowler/dataprowler/internal/maputil"
	"github.com/dataprowler/dataprowler/internal/ratelimit"
	"github.com/dataprowler/dataprowler/internal/schema"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const redacted = "********"

// SettingsSource is the part of config.Manager the handlers read from.
type SettingsSource interface {
	Reload() map[string]any
	Validate() (*schema.Settings, error)
	Get(path string, def any) any
	Resolve(path string, def any) (any, error)
	LoadedFiles() []string
	State() config.State
}

// Handler serves read access to the resolved settings.
type Handler struct {
	settings SettingsSource

	clock func() time.Time

	mu         sync.RWMutex
	reloadedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler over the given settings source.
func NewHandler(settings SettingsSource, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings: settings,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.reloadedAt = h.clock()
	return h
}

type notFound struct{}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		State:     h.settings.State().String(),
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	tree, ok := h.validatedTree(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:    redactTree(tree),
		LoadedFiles: h.settings.LoadedFiles(),
		ReloadedAt:  h.currentReloadedAt(),
	})
}

func (h *Handler) handleGetFlatSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	tree, ok := h.validatedTree(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:    maputil.Flatten(redactTree(tree), maputil.DefaultSeparator),
		LoadedFiles: h.settings.LoadedFiles(),
		ReloadedAt:  h.currentReloadedAt(),
	})
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.PathValue("path"))
	if path == "" {
		writeError(w, http.StatusBadRequest, "Invalid path", "a dotted settings path is required")
		return
	}

	source := r.URL.Query().Get("source")
	var value any
	switch source {
	case "", "resolved":
		source = "resolved"
		v, err := h.settings.Resolve(path, notFound{})
		if err != nil {
			writeSettingsError(w, err)
			return
		}
		value = v
	case "raw":
		value = h.settings.Get(path, notFound{})
	default:
		writeError(w, http.StatusBadRequest, "Invalid source", "source must be 'resolved' or 'raw'")
		return
	}

	if _, missing := value.(notFound); missing {
		writeError(w, http.StatusNotFound, "Setting not found", "no value at "+path)
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{
		Path:   path,
		Source: source,
		Value:  redactValue(maputil.ParsePath(path), value),
	})
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	h.settings.Reload()
	h.markReloaded()

	if _, err := h.settings.Validate(); err != nil {
		writeSettingsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reloadResponse{
		LoadedFiles: h.settings.LoadedFiles(),
		ReloadedAt:  h.currentReloadedAt(),
		Message:     "Settings reloaded successfully",
	})
}

func (h *Handler) handleGetRateLimit(w http.ResponseWriter, r *http.Request) {
	domain := strings.TrimSpace(r.PathValue("domain"))
	if domain == "" {
		writeError(w, http.StatusBadRequest, "Invalid domain", "a domain is required")
		return
	}

	settings, err := h.settings.Validate()
	if err != nil {
		writeSettingsError(w, err)
		return
	}

	registry := ratelimit.NewRegistry(settings.RateLimiting)
	writeJSON(w, http.StatusOK, rateLimitResponse{
		Domain:            domain,
		Enabled:           settings.RateLimiting.Enabled,
		RequestsPerMinute: registry.RequestsPerMinute(domain),
	})
}

// validatedTree writes the error response itself when validation fails.
func (h *Handler) validatedTree(w http.ResponseWriter) (map[string]any, bool) {
	settings, err := h.settings.Validate()
	if err != nil {
		writeSettingsError(w, err)
		return nil, false
	}
	tree, err := settings.Map()
	if err != nil {
		writeInternalError(w, err)
		return nil, false
	}
	return tree, true
}

func (h *Handler) currentReloadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reloadedAt
}

func (h *Handler) markReloaded() {
	h.mu.Lock()
	h.reloadedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// isSensitive matches both the schema spelling (search.google.api_key) and
// the env-sourced one (search.google.api.key), since env names split on every
// underscore.
func isSensitive(path maputil.Path) bool {
	joined := path.String()
	return strings.HasSuffix(joined, "api_key") || strings.HasSuffix(joined, "api.key")
}

// redactTree copies tree with every value under a sensitive path masked.
func redactTree(tree map[string]any) map[string]any {
	return redactValue(nil, tree).(map[string]any)
}

// redactValue masks value when path is sensitive, whatever its type, and
// otherwise descends into maps and lists. Empty values stay visible so an
// unset key reads as unset.
func redactValue(path maputil.Path, value any) any {
	if isSensitive(path) && !isEmpty(value) {
		return redacted
	}
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[key] = redactValue(append(path[:len(path):len(path)], key), child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = redactValue(path, item)
		}
		return out
	default:
		return value
	}
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	default:
		return false
	}
}
