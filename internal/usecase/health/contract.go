package health

import "context"

// Pinger checks storage availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DescriberChecker checks describer provider availability.
type DescriberChecker interface {
	HealthCheck(ctx context.Context) error
}
