// Package analytics computes aggregates over the ledger: net worth
// evolution, spending by category and cash flow. All computation happens
// on signed integer cents; conversion to major units is left to the
// HTTP layer.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/category"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// ReaderSource yields the read surface for one user's request. The
// choice between the unified ledger and legacy tables is made once here
// and every number in a response comes from that single source.
type ReaderSource interface {
	ReaderFor(ctx context.Context, userID int64) (ledger.Reader, error)
}

// Granularity selects the cash-flow bucketing. Each granularity has a
// fixed lookback window.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"   // last 30 days
	GranularityWeekly  Granularity = "weekly"  // last 12 weeks
	GranularityMonthly Granularity = "monthly" // last 12 months
	GranularityYearly  Granularity = "yearly"  // last 5 years
)

// DefaultNetWorthMonths is the default evolution window.
const DefaultNetWorthMonths = 12

// topCategories is how many named buckets spending reports keep before
// folding the tail into the fallback bucket.
const topCategories = 5

// NetWorthPoint is one month of the evolution series.
type NetWorthPoint struct {
	Period        string // YYYY-MM
	NetWorthCents int64
}

// CategorySpend is one bucket of a spending report.
type CategorySpend struct {
	Category   string
	TotalCents int64
	Percent    float64
}

// CashFlowBucket is one period of a cash-flow report. Expense is a
// positive magnitude.
type CashFlowBucket struct {
	Period       string
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
}

// Service computes read-side aggregates.
type Service struct {
	readers ReaderSource
	now     func() time.Time
}

// NewService creates the analytics service.
func NewService(readers ReaderSource) *Service {
	return &Service{readers: readers, now: time.Now}
}

// NetWorthEvolution reconstructs one point per month by walking
// backwards from today's balances: the current month equals cash plus
// investments now, and each earlier month subtracts the net transaction
// flow of the month after it. The running value is floored at zero.
func (s *Service) NetWorthEvolution(ctx context.Context, userID int64, months int) ([]NetWorthPoint, error) {
	if months <= 0 {
		months = DefaultNetWorthMonths
	}

	reader, err := s.readers.ReaderFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	cash, err := reader.TotalCashCents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to total cash balances: %w", err)
	}
	investments, err := reader.TotalInvestmentCents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to total investments: %w", err)
	}
	total := cash + investments

	now := s.now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	oldestMonth := currentMonth.AddDate(0, -(months - 1), 0)

	txs, err := reader.TransactionsInWindow(ctx, userID, oldestMonth, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	deltaByMonth := make(map[string]int64, months)
	for _, tx := range txs {
		deltaByMonth[tx.OccurredAt.Format("2006-01")] += tx.AmountCents
	}

	points := make([]NetWorthPoint, months)
	value := total
	for i := months - 1; i >= 0; i-- {
		month := currentMonth.AddDate(0, -(months - 1 - i), 0)
		if value < 0 {
			value = 0
		}
		points[i] = NetWorthPoint{Period: month.Format("2006-01"), NetWorthCents: value}
		value -= deltaByMonth[month.Format("2006-01")]
	}

	return points, nil
}

// SpendingByCategory aggregates outflows in [from, to] into category
// buckets, keeps the five largest and folds the remainder into the
// fallback bucket. Percentages are of total spend.
func (s *Service) SpendingByCategory(ctx context.Context, userID int64, from, to time.Time) ([]CategorySpend, error) {
	reader, err := s.readers.ReaderFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs, err := reader.TransactionsInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	totals := map[string]int64{}
	for _, tx := range txs {
		if tx.AmountCents >= 0 {
			continue
		}
		totals[category.ForTransaction(tx)] += -tx.AmountCents
	}
	if len(totals) == 0 {
		return []CategorySpend{}, nil
	}

	buckets := make([]CategorySpend, 0, len(totals))
	var grandTotal int64
	for name, cents := range totals {
		buckets = append(buckets, CategorySpend{Category: name, TotalCents: cents})
		grandTotal += cents
	}
	// Amount descending, name ascending on ties, so output is stable.
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].TotalCents != buckets[j].TotalCents {
			return buckets[i].TotalCents > buckets[j].TotalCents
		}
		return buckets[i].Category < buckets[j].Category
	})

	if len(buckets) > topCategories {
		var tail int64
		for _, b := range buckets[topCategories:] {
			tail += b.TotalCents
		}
		buckets = buckets[:topCategories]

		folded := false
		for i := range buckets {
			if buckets[i].Category == category.Fallback {
				buckets[i].TotalCents += tail
				folded = true
				break
			}
		}
		if !folded {
			buckets = append(buckets, CategorySpend{Category: category.Fallback, TotalCents: tail})
		}
	}

	for i := range buckets {
		buckets[i].Percent = float64(buckets[i].TotalCents) / float64(grandTotal) * 100
	}

	return buckets, nil
}

// CashFlow buckets inflows and outflows over the granularity's fixed
// lookback window. Every period in the window is present, zero-filled
// when it saw no movement.
func (s *Service) CashFlow(ctx context.Context, userID int64, granularity Granularity) ([]CashFlowBucket, error) {
	reader, err := s.readers.ReaderFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	periods, from, keyFn := buildPeriods(granularity, now)
	if periods == nil {
		return nil, fmt.Errorf("%w: unknown granularity %q", ledger.ErrInvalidInput, granularity)
	}

	txs, err := reader.TransactionsInWindow(ctx, userID, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	index := make(map[string]int, len(periods))
	buckets := make([]CashFlowBucket, len(periods))
	for i, p := range periods {
		index[p] = i
		buckets[i] = CashFlowBucket{Period: p}
	}

	for _, tx := range txs {
		i, ok := index[keyFn(tx.OccurredAt)]
		if !ok {
			continue
		}
		if tx.AmountCents >= 0 {
			buckets[i].IncomeCents += tx.AmountCents
		} else {
			buckets[i].ExpenseCents += -tx.AmountCents
		}
	}

	for i := range buckets {
		buckets[i].NetCents = buckets[i].IncomeCents - buckets[i].ExpenseCents
	}

	return buckets, nil
}

// buildPeriods returns the ordered period keys of the lookback window,
// its start time, and the function that keys a timestamp into a period.
func buildPeriods(granularity Granularity, now time.Time) ([]string, time.Time, func(time.Time) string) {
	switch granularity {
	case GranularityDaily:
		day := func(t time.Time) string { return t.Format("2006-01-02") }
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -29)
		periods := make([]string, 30)
		for i := range periods {
			periods[i] = day(start.AddDate(0, 0, i))
		}
		return periods, start, day
	case GranularityWeekly:
		week := func(t time.Time) string { return startOfWeek(t).Format("2006-01-02") }
		start := startOfWeek(now).AddDate(0, 0, -7*11)
		periods := make([]string, 12)
		for i := range periods {
			periods[i] = start.AddDate(0, 0, 7*i).Format("2006-01-02")
		}
		return periods, start, week
	case GranularityMonthly:
		month := func(t time.Time) string { return t.Format("2006-01") }
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)
		periods := make([]string, 12)
		for i := range periods {
			periods[i] = start.AddDate(0, i, 0).Format("2006-01")
		}
		return periods, start, month
	case GranularityYearly:
		year := func(t time.Time) string { return t.Format("2006") }
		start := time.Date(now.Year()-4, 1, 1, 0, 0, 0, 0, now.Location())
		periods := make([]string, 5)
		for i := range periods {
			periods[i] = fmt.Sprintf("%d", start.Year()+i)
		}
		return periods, start, year
	}
	return nil, time.Time{}, nil
}

// startOfWeek truncates to the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
