package imgdex

import (
	"context"
	"sort"

	healthuc "github.com/kailas-cloud/imgdex/internal/usecase/health"
)

// HealthState is the aggregated state of the client's backends.
type HealthState string

// Health states. Degraded clients still serve search.
const (
	HealthOK       HealthState = HealthState(healthuc.Healthy)
	HealthDegraded HealthState = HealthState(healthuc.Degraded)
	HealthDown     HealthState = HealthState(healthuc.Unhealthy)
)

// HealthStatus reports the aggregated state plus a pass flag per component
// ("catalog", "cache", "describer"). Unconfigured components are absent.
type HealthStatus struct {
	State      HealthState
	Components map[string]bool
}

// Healthy reports whether search can be served.
func (h HealthStatus) Healthy() bool {
	return h.State != HealthDown
}

// Failing lists the components whose check failed, sorted by name.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, ok := range h.Components {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health checks the catalog, the metadata cache and the describer.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	components := make(map[string]bool, len(report.Checks))
	for name, res := range report.Checks {
		components[name] = res == healthuc.CheckOK
	}
	return HealthStatus{State: HealthState(report.Status), Components: components}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
