package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"emstrack-acl/internal/acl"
	"emstrack-acl/internal/domain"

	"go.uber.org/zap"
)

// ACLDecider *acl.Engine
type ACLDecider interface {
	Decide(ctx context.Context, req acl.Request) domain.Decision
	IsSuperuser(ctx context.Context, username string) domain.Decision
}

// MQTTAuthHandler answers the broker's HTTP auth backend:
// 200 "OK" allows, 403 denies. Nothing else is ever returned.
type MQTTAuthHandler struct {
	decider ACLDecider
	timeout time.Duration
	logger  *zap.Logger
}

func NewMQTTAuthHandler(decider ACLDecider, timeout time.Duration, logger *zap.Logger) *MQTTAuthHandler {
	return &MQTTAuthHandler{decider: decider, timeout: timeout, logger: logger}
}

// hookParams form fields, or the same keys in a JSON body
type hookParams struct {
	Username string      `json:"username"`
	ClientID string      `json:"clientid"`
	Acc      json.Number `json:"acc"`
	Topic    *string     `json:"topic"`
}

func (h *MQTTAuthHandler) readParams(w http.ResponseWriter, r *http.Request) (hookParams, error) {
	var p hookParams
	if isJSON(r) {
		err := readBodyJSON(w, r, 1<<16, &p)
		return p, err
	}
	if err := r.ParseForm(); err != nil {
		return p, err
	}
	p.Username = r.Form.Get("username")
	p.ClientID = r.Form.Get("clientid")
	p.Acc = json.Number(r.Form.Get("acc"))
	if r.Form.Has("topic") {
		topic := r.Form.Get("topic")
		p.Topic = &topic
	}
	return p, nil
}

// ACL POST username, clientid, acc (1 subscribe, 2 publish), topic
func (h *MQTTAuthHandler) ACL(w http.ResponseWriter, r *http.Request) {
	p, err := h.readParams(w, r)
	if err != nil {
		h.logger.Debug("Malformed ACL request", zap.Error(err))
		forbidden(w)
		return
	}
	access, err := domain.ParseAccessKind(parseInt(p.Acc.String(), 0))
	if err != nil || p.Topic == nil {
		h.logger.Debug("Malformed ACL request",
			zap.String("username", p.Username),
			zap.String("acc", p.Acc.String()),
			zap.Bool("has_topic", p.Topic != nil),
		)
		forbidden(w)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	decision := h.decider.Decide(ctx, acl.Request{
		Username: p.Username,
		ClientID: p.ClientID,
		Access:   access,
		Topic:    acl.ParseTopic(*p.Topic),
	})
	respond(w, decision)
}

// Superuser POST username
func (h *MQTTAuthHandler) Superuser(w http.ResponseWriter, r *http.Request) {
	p, err := h.readParams(w, r)
	if err != nil {
		forbidden(w)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	respond(w, h.decider.IsSuperuser(ctx, p.Username))
}

func (h *MQTTAuthHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func respond(w http.ResponseWriter, d domain.Decision) {
	if !d.Allowed() {
		forbidden(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func forbidden(w http.ResponseWriter) {
	w.WriteHeader(http.StatusForbidden)
}
