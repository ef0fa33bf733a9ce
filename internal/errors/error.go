package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrTenantMissing = errors.New("tenant is missing")

	// domain errors
	ErrDomainNotFound  = errors.New("domain not found")
	ErrDuplicateDomain = errors.New("domain already registered")
	ErrInvalidHostname = errors.New("invalid hostname")
	ErrNotVerified     = errors.New("domain is not verified")

	// verification errors
	ErrRecentlyChecked = errors.New("domain was checked too recently")
)
