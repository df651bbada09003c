package usage

import domusage "github.com/kailas-cloud/imgdex/internal/domain/usage"

// BudgetReader exposes describer token budget state per period.
type BudgetReader interface {
	Snapshot(period domusage.Period) domusage.Budget
}
