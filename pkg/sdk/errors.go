package imgdex

import "github.com/kailas-cloud/imgdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidRecord          = domain.ErrInvalidRecord
	ErrImageNotFound          = domain.ErrImageNotFound
	ErrCatalogUnavailable     = domain.ErrAccessorUnavailable
	ErrAllStrategiesFailed    = domain.ErrAllStrategiesFailed
	ErrDescriberUnavailable   = domain.ErrDescriberUnavailable
	ErrDescriberQuotaExceeded = domain.ErrDescriberQuotaExceeded
	ErrDescriberNotConfigured = domain.ErrNotImplemented
)
