package repository

import (
	"context"
	"errors"

	"emstrack-acl/internal/domain"
)

// ErrNotFound the requested user or call does not exist
var ErrNotFound = errors.New("not found")

// UsersRepository read access to auth_user
type UsersRepository interface {
	// GetActiveUserByUsername returns ErrNotFound for unknown and inactive users alike.
	GetActiveUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// PermissionsRepository read access to the permission tables.
// Grants on resources that no longer exist are never returned.
type PermissionsRepository interface {
	ListUserGrants(ctx context.Context, userID int64) ([]domain.Grant, error)
	// ListGroupGrants grants of every group the user belongs to
	ListGroupGrants(ctx context.Context, userID int64) ([]domain.Grant, error)
	// ListResources every ambulance and hospital
	ListResources(ctx context.Context) ([]domain.Resource, error)
}

// CallsRepository read access to ambulance_call / ambulance_ambulancecall
type CallsRepository interface {
	// GetCall returns ErrNotFound when the call does not exist.
	GetCall(ctx context.Context, callID int64) (*domain.Call, error)
}
