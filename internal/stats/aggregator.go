// Package stats computes per-user and platform-wide financial summaries.
// Nothing here is cached: every call reads the current transaction set.
package stats

import (
	"context"
	"fmt"
	"time"

	"expense_tracker/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	userRecentLimit     = 10
	platformRecentLimit = 20
	recentUsersLimit    = 10
)

// UserStats summarizes one user's transactions
type UserStats struct {
	TotalBalance       decimal.Decimal      `json:"totalBalance"`
	TotalIncome        decimal.Decimal      `json:"totalIncome"`
	TotalExpenses      decimal.Decimal      `json:"totalExpenses"`
	ThisMonthIncome    decimal.Decimal      `json:"thisMonthIncome"`
	ThisMonthExpenses  decimal.Decimal      `json:"thisMonthExpenses"`
	TotalTransactions  int64                `json:"totalTransactions"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

// PlatformTotals are the headline numbers of the admin dashboard
type PlatformTotals struct {
	TotalUsers            int64           `json:"totalUsers"`
	TotalTransactions     int64           `json:"totalTransactions"`
	TotalIncome           decimal.Decimal `json:"totalIncome"`
	TotalExpenses         decimal.Decimal `json:"totalExpenses"`
	ThisMonthUsers        int64           `json:"thisMonthUsers"`
	ThisMonthTransactions int64           `json:"thisMonthTransactions"`
}

// PlatformStats is the admin dashboard payload
type PlatformStats struct {
	Stats              PlatformTotals       `json:"stats"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
	RecentUsers        []domain.User        `json:"recentUsers"`
}

// MonthTotal is the income and expense sum of one calendar month
type MonthTotal struct {
	Month    int             `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Aggregator runs the summary queries
type Aggregator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAggregator returns an Aggregator using the wall clock
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, now: time.Now}
}

// WithClock replaces the clock that decides which month is "this month"
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// typeTotal is one row of a grouped sum
type typeTotal struct {
	Type       domain.TransactionType
	Total      decimal.Decimal
	TotalCount int64
}

// datedAmount is the slice of a transaction the monthly buckets need
type datedAmount struct {
	Type   domain.TransactionType
	Amount decimal.Decimal
	Date   time.Time
}

type sums struct {
	income, expenses decimal.Decimal
	count            int64
}

// sumByType sums amounts per type over the transactions matched by scope
func sumByType(q *gorm.DB) (sums, error) {
	var rows []typeTotal
	err := q.Model(&domain.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS total_count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return sums{}, err
	}
	s := sums{income: decimal.Zero, expenses: decimal.Zero}
	for _, r := range rows {
		switch r.Type {
		case domain.TypeIncome:
			s.income = r.Total.Round(2)
		case domain.TypeExpense:
			s.expenses = r.Total.Round(2)
		}
		s.count += r.TotalCount
	}
	return s, nil
}

// monthOfDates is the current month as a range of calendar dates, which are stored at UTC midnight
func (a *Aggregator) monthOfDates() (time.Time, time.Time) {
	now := a.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// monthOfInstants is the current month in server local time, for audit timestamps
func (a *Aggregator) monthOfInstants() (time.Time, time.Time) {
	now := a.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

// UserStats summarizes ownerID's transactions
func (a *Aggregator) UserStats(ctx context.Context, ownerID uint) (*UserStats, error) {
	db := a.db.WithContext(ctx)

	all, err := sumByType(db.Where("user_id = ?", ownerID))
	if err != nil {
		return nil, fmt.Errorf("user %d totals: %w", ownerID, err)
	}
	from, to := a.monthOfDates()
	month, err := sumByType(db.Where("user_id = ? AND date >= ? AND date < ?", ownerID, from, to))
	if err != nil {
		return nil, fmt.Errorf("user %d month totals: %w", ownerID, err)
	}

	recent := []domain.Transaction{}
	err = db.Where("user_id = ?", ownerID).
		Order("created_at desc").Order("id desc").
		Limit(userRecentLimit).Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("user %d recent transactions: %w", ownerID, err)
	}

	return &UserStats{
		TotalBalance:       all.income.Sub(all.expenses),
		TotalIncome:        all.income,
		TotalExpenses:      all.expenses,
		ThisMonthIncome:    month.income,
		ThisMonthExpenses:  month.expenses,
		TotalTransactions:  all.count,
		RecentTransactions: recent,
	}, nil
}

// PlatformStats summarizes every user's transactions
func (a *Aggregator) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	db := a.db.WithContext(ctx)
	out := &PlatformStats{RecentTransactions: []domain.Transaction{}, RecentUsers: []domain.User{}}

	if err := db.Model(&domain.User{}).Count(&out.Stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	all, err := sumByType(db)
	if err != nil {
		return nil, fmt.Errorf("platform totals: %w", err)
	}
	out.Stats.TotalTransactions = all.count
	out.Stats.TotalIncome = all.income
	out.Stats.TotalExpenses = all.expenses

	from, to := a.monthOfInstants()
	err = db.Model(&domain.User{}).Where("created_at >= ? AND created_at < ?", from, to).
		Count(&out.Stats.ThisMonthUsers).Error
	if err != nil {
		return nil, fmt.Errorf("count month users: %w", err)
	}
	err = db.Model(&domain.Transaction{}).Where("created_at >= ? AND created_at < ?", from, to).
		Count(&out.Stats.ThisMonthTransactions).Error
	if err != nil {
		return nil, fmt.Errorf("count month transactions: %w", err)
	}

	err = db.Preload("User").Order("created_at desc").Order("id desc").
		Limit(platformRecentLimit).Find(&out.RecentTransactions).Error
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	err = db.Order("created_at desc").Order("id desc").Limit(recentUsersLimit).Find(&out.RecentUsers).Error
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	return out, nil
}

// MonthlyTotals returns twelve month buckets of ownerID's income and expenses in year
func (a *Aggregator) MonthlyTotals(ctx context.Context, ownerID uint, year int) ([]MonthTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	// only three narrow columns of one user's year are read
	var rows []datedAmount
	err := a.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("type, amount, date").
		Where("user_id = ? AND date >= ? AND date < ?", ownerID, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("user %d monthly totals: %w", ownerID, err)
	}

	months := make([]MonthTotal, 12)
	for i := range months {
		months[i] = MonthTotal{Month: i + 1, Income: decimal.Zero, Expenses: decimal.Zero}
	}
	for _, r := range rows {
		m := &months[r.Date.UTC().Month()-1]
		switch r.Type {
		case domain.TypeIncome:
			m.Income = m.Income.Add(r.Amount)
		case domain.TypeExpense:
			m.Expenses = m.Expenses.Add(r.Amount)
		}
	}
	return months, nil
}
