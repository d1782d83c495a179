package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router thin wrapper over http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// ServeHTTP a panicking handler is logged; broker hooks then answer 403, everything else 500.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("HTTP handler panicked",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Any("panic", rec),
			)
			if strings.HasPrefix(req.URL.Path, "/auth/mqtt/") {
				forbidden(w)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()
	r.mux.ServeHTTP(w, req)
}

// RegisterMQTTAuthRoutes broker auth hooks. Both trailing-slash and bare paths
// are served because broker plugins differ in how they join URIs.
func (r *Router) RegisterMQTTAuthRoutes(h *MQTTAuthHandler) {
	r.Handle("/auth/mqtt/acl/", brokerHook(h.ACL))
	r.Handle("/auth/mqtt/acl", brokerHook(h.ACL))
	r.Handle("/auth/mqtt/superuser/", brokerHook(h.Superuser))
	r.Handle("/auth/mqtt/superuser", brokerHook(h.Superuser))
}

// RegisterAdminRoutes operator actions
func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.Handle("/admin/api/v1/acl/cache/clear", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ClearCache(w, req)
	})
}

// RegisterHealthRoutes liveness probe
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}

// brokerHook only POST is evaluated. 200 means allow to the broker, so no
// other method may answer it except OPTIONS.
func brokerHook(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			next(w, req)
		case http.MethodOptions:
			w.Header().Set("Allow", "POST, OPTIONS")
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
