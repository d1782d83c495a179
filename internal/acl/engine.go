package acl

import (
	"context"
	"errors"

	"emstrack-acl/internal/domain"
	"emstrack-acl/internal/permission"
	"emstrack-acl/internal/repository"

	"go.uber.org/zap"
)

// PermissionChecker the capability lookups the rules need. *permission.Store implements it.
type PermissionChecker interface {
	CheckCanRead(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error)
	CheckCanWrite(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error)
}

// Request one broker ACL check
type Request struct {
	Username string
	ClientID string
	Access   domain.AccessKind
	Topic    Topic
}

// Engine evaluates ACL requests against an ordered rule table.
// It keeps no per-request state and is safe for concurrent use.
type Engine struct {
	users  repository.UsersRepository
	calls  repository.CallsRepository
	perms  PermissionChecker
	rules  []Rule
	logger *zap.Logger
}

// NewEngine uses DefaultRules
func NewEngine(users repository.UsersRepository, calls repository.CallsRepository, perms PermissionChecker, logger *zap.Logger) *Engine {
	return NewEngineWithRules(users, calls, perms, DefaultRules(), logger)
}

func NewEngineWithRules(users repository.UsersRepository, calls repository.CallsRepository, perms PermissionChecker, rules []Rule, logger *zap.Logger) *Engine {
	return &Engine{
		users:  users,
		calls:  calls,
		perms:  perms,
		rules:  rules,
		logger: logger,
	}
}

// Rules the table in evaluation order
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Decide returns Allow only when the first rule matching the topic allows it.
// Every error, including a panic in a check, ends in Deny.
func (e *Engine) Decide(ctx context.Context, req Request) (decision domain.Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("ACL check panicked",
				zap.String("username", req.Username),
				zap.String("topic", req.Topic.String()),
				zap.Any("panic", r),
			)
			decision = domain.Deny
		}
	}()

	if !req.Access.Valid() {
		e.logger.Debug("ACL denied: invalid access kind", zap.Int("acc", int(req.Access)))
		return domain.Deny
	}

	user, err := e.users.GetActiveUserByUsername(ctx, req.Username)
	if err != nil {
		e.logFailure("user lookup", req, err)
		return domain.Deny
	}

	// staff may subscribe to anything
	if req.Access == domain.Subscribe && user.IsStaff {
		e.logDecision(req, "staff", domain.Allow)
		return domain.Allow
	}

	ev := &evaluation{req: req, user: user}
	for _, r := range e.rules {
		if r.Access != req.Access || !r.Pattern.Match(req.Topic, user.Username, req.ClientID) {
			continue
		}
		ok, err := r.Check(ctx, e, ev)
		if err != nil {
			e.logFailure(r.Name, req, err)
			return domain.Deny
		}
		decision = domain.Deny
		if ok {
			decision = domain.Allow
		}
		e.logDecision(req, r.Name, decision)
		return decision
	}

	e.logDecision(req, "no-match", domain.Deny)
	return domain.Deny
}

// IsSuperuser the broker's superuser hook: active superusers and staff bypass ACL checks.
func (e *Engine) IsSuperuser(ctx context.Context, username string) domain.Decision {
	user, err := e.users.GetActiveUserByUsername(ctx, username)
	if err != nil {
		e.logFailure("superuser lookup", Request{Username: username}, err)
		return domain.Deny
	}
	if user.IsAdmin() {
		return domain.Allow
	}
	return domain.Deny
}

func (e *Engine) logDecision(req Request, rule string, d domain.Decision) {
	e.logger.Debug("ACL decision",
		zap.String("username", req.Username),
		zap.String("client_id", req.ClientID),
		zap.Stringer("access", req.Access),
		zap.String("topic", req.Topic.String()),
		zap.String("rule", rule),
		zap.Stringer("decision", d),
	)
}

// logFailure expected denials (unknown ids, malformed topics) go to debug;
// anything else means a backend is failing.
func (e *Engine) logFailure(stage string, req Request, err error) {
	fields := []zap.Field{
		zap.String("stage", stage),
		zap.String("username", req.Username),
		zap.String("topic", req.Topic.String()),
		zap.Error(err),
	}
	if errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, permission.ErrResourceNotFound) ||
		errors.Is(err, ErrMalformedTopic) {
		e.logger.Debug("ACL denied", fields...)
		return
	}
	e.logger.Error("ACL check failed, denying", fields...)
}
