package permission

import "errors"

var (
	// ErrResourceNotFound the resource is not in the user's permission set:
	// it does not exist or no grant reaches it.
	ErrResourceNotFound = errors.New("resource not found in permissions")

	// ErrStoreUnavailable the backing repository failed
	ErrStoreUnavailable = errors.New("permission store unavailable")

	// ErrCacheMiss no cached entry for the key
	ErrCacheMiss = errors.New("cache miss")
)
