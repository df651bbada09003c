package describe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"
)

// BudgetAction defines behavior when the token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but lets the describe call through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the describe call with domain.ErrDescriberQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists token counters across restarts. Counters are kept
// per provider for the UTC day and month containing at.
type BudgetStore interface {
	Add(ctx context.Context, provider string, at time.Time, tokens int64) error
	Usage(ctx context.Context, provider string, at time.Time) (daily, monthly int64, err error)
}

// TokenBudget tracks describer token spend per UTC day and month.
// Check reads memory only; Record updates memory, then writes behind to the store.
type TokenBudget struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	action         BudgetAction
	provider       string
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          BudgetStore
	now            func() time.Time
	logger         *zap.Logger
}

// NewTokenBudget creates a budget. A zero limit means unlimited.
func NewTokenBudget(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *TokenBudget {
	b := &TokenBudget{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		provider:     provider,
		now:          time.Now,
		logger:       logger,
	}
	b.lastDayReset, b.lastMonthReset = b.periodStarts()
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *TokenBudget) WithStore(ctx context.Context, store BudgetStore) *TokenBudget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	daily, monthly, err := store.Usage(ctx, b.provider, b.now())
	if err != nil {
		b.logger.Warn("Failed to load describer budget", zap.String("provider", b.provider), zap.Error(err))
		return b
	}
	b.dailyUsed, b.monthlyUsed = daily, monthly

	b.logger.Info("Describer budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

func (b *TokenBudget) periodStarts() (day, month time.Time) {
	now := b.now()
	day, _ = domusage.PeriodDay.Window(now)
	month, _ = domusage.PeriodMonth.Window(now)
	return day, month
}

// Check reports whether a new describe call may proceed.
func (b *TokenBudget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()

	dailyExceeded := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyExceeded := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrDescriberQuotaExceeded
	}

	b.logger.Warn("Describer token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *TokenBudget) Record(tokens int64) {
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	at := b.lastDayReset
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the caller's context so a cancelled request still persists usage.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.Add(ctx, b.provider, at, tokens); err != nil {
		b.logger.Warn("Failed to persist describer budget",
			zap.String("provider", b.provider), zap.Int64("tokens", tokens), zap.Error(err))
	}
}

// Snapshot reports the limit, spend and remainder of the current day or month.
func (b *TokenBudget) Snapshot(period domusage.Period) domusage.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	limit, used := b.dailyLimit, b.dailyUsed
	if period == domusage.PeriodMonth {
		limit, used = b.monthlyLimit, b.monthlyUsed
	}
	return domusage.Budget{Limit: limit, Used: used, Remaining: remaining(limit, used)}
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *TokenBudget) rollover() {
	day, month := b.periodStarts()
	if day.After(b.lastDayReset) {
		b.dailyUsed = 0
		b.lastDayReset = day
	}
	if month.After(b.lastMonthReset) {
		b.monthlyUsed = 0
		b.lastMonthReset = month
	}
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
