package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CacheClearer *service.CacheService
type CacheClearer interface {
	Clear(ctx context.Context) error
}

// AdminHandler operator endpoints. When token is set, requests must carry
// "Authorization: Bearer <token>".
type AdminHandler struct {
	cache  CacheClearer
	token  string
	logger *zap.Logger
}

// NewAdminHandler warns at construction when token is empty
func NewAdminHandler(cache CacheClearer, token string, logger *zap.Logger) *AdminHandler {
	if token == "" {
		logger.Warn("ADMIN_TOKEN is not set, admin endpoints accept unauthenticated requests")
	}
	return &AdminHandler{cache: cache, token: token, logger: logger}
}

// ClearCache invalidates every cached permission set
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return
	}
	if err := h.cache.Clear(r.Context()); err != nil {
		h.logger.Error("Failed to clear permission cache", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to clear permission cache"))
		return
	}
	h.logger.Info("Permission cache cleared by operator", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusOK, Ok(map[string]any{"cleared": true}))
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
