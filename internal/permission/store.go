package permission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"emstrack-acl/internal/domain"
	"emstrack-acl/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store resolves effective permissions for a user, caching the result.
// It is safe for concurrent use.
type Store struct {
	repo   repository.PermissionsRepository
	cache  Cache
	group  singleflight.Group
	logger *zap.Logger

	// loadTimeout bounds a shared load; it does not follow any single caller's context
	loadTimeout time.Duration
}

// NewStore cache may be nil, which disables caching
func NewStore(repo repository.PermissionsRepository, cache Cache, logger *zap.Logger) *Store {
	if cache == nil {
		cache = NopCache{}
	}
	return &Store{repo: repo, cache: cache, logger: logger, loadTimeout: 5 * time.Second}
}

// Permissions returns the cached set for user, loading it on a miss.
// Cache failures are logged and bypassed; repository failures return ErrStoreUnavailable.
func (s *Store) Permissions(ctx context.Context, user *domain.User) (*Permissions, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("Permission cache unavailable, loading from repository",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return s.load(ctx, user)
	}

	p, err := s.cache.Get(ctx, gen, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("Failed to read permission cache",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	key := strconv.FormatInt(gen, 10) + ":" + strconv.FormatInt(user.ID, 10)
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		p, err := s.load(loadCtx, user)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, gen, user.ID, p); err != nil {
			s.logger.Warn("Failed to write permission cache",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
		}
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Permissions), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, ctx.Err())
	}
}

func (s *Store) load(ctx context.Context, user *domain.User) (*Permissions, error) {
	grants, err := s.repo.ListUserGrants(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	groupGrants, err := s.repo.ListGroupGrants(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	grants = append(grants, groupGrants...)

	var resources []domain.Resource
	if user.IsAdmin() {
		if resources, err = s.repo.ListResources(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	p := Build(user, grants, resources)
	s.logger.Debug("Loaded permissions",
		zap.String("username", user.Username),
		zap.Int("ambulances", len(p.Ambulances)),
		zap.Int("hospitals", len(p.Hospitals)),
		zap.Int("equipment", len(p.Equipment)),
	)
	return p, nil
}

// CheckCanRead reports whether user may read ref.
// A resource outside the user's set yields ErrResourceNotFound.
func (s *Store) CheckCanRead(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error) {
	p, err := s.Permissions(ctx, user)
	if err != nil {
		return false, err
	}
	return p.CanRead(ref)
}

// CheckCanWrite reports whether user may write ref.
func (s *Store) CheckCanWrite(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error) {
	p, err := s.Permissions(ctx, user)
	if err != nil {
		return false, err
	}
	return p.CanWrite(ref)
}

// Invalidate drops every cached permission set. Lookups that start after it
// returns see current grants.
func (s *Store) Invalidate(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear permission cache: %w", err)
	}
	s.logger.Info("Permission cache invalidated")
	return nil
}
