package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"
)

// unlimited is reported when no budget is configured.
var unlimited = domusage.Budget{Remaining: -1}

// Service handles describer usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the period containing now.
// Unknown periods are reported as a day.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	if period != domusage.PeriodMonth {
		period = domusage.PeriodDay
	}
	r := domusage.Report{Period: period, Provider: s.provider, Budget: unlimited}
	r.PeriodStart, r.PeriodEnd = period.Window(s.now())
	if s.br != nil {
		r.Budget = s.br.Snapshot(period)
	}
	return r
}
