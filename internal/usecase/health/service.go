package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an auxiliary component failed; search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCatalog   = "catalog"
	ComponentCache     = "cache"
	ComponentDescriber = "describer"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// probe is one named component check. Only the catalog is critical.
type probe struct {
	name     string
	critical bool
	check    func(context.Context) error
}

// Service coordinates health checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. describer can be nil.
func New(catalog Pinger, describer DescriberChecker) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	s.probes = append(s.probes, probe{name: ComponentCatalog, critical: true, check: catalog.Ping})
	if describer != nil {
		s.probes = append(s.probes, probe{name: ComponentDescriber, check: describer.HealthCheck})
	}
	return s
}

// WithCache adds a separate cache store to the checks.
func (s *Service) WithCache(cache Pinger) *Service {
	s.probes = append(s.probes, probe{name: ComponentCache, check: cache.Ping})
	return s
}

// Check runs every probe concurrently under one shared timeout.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		status = Healthy
		checks = make(map[string]CheckResult, len(s.probes))
	)
	var g errgroup.Group
	for _, p := range s.probes {
		g.Go(func() error {
			res := CheckOK
			if err := p.check(ctx); err != nil {
				res = CheckError
			}

			mu.Lock()
			defer mu.Unlock()
			checks[p.name] = res
			switch {
			case res == CheckOK:
			case p.critical:
				status = Unhealthy
			case status == Healthy:
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
