package models

import (
	"context"
	"time"

	"github.com/mlovric/trosak/config"
	"github.com/shopspring/decimal"
)

// BalanceStats is the income/expense summary for a date range.
type BalanceStats struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

func GetBalanceStats(ctx context.Context, userID string, from, to time.Time) (*BalanceStats, error) {
	db := config.GetDB()

	var rows []struct {
		Type  TransactionType
		Total decimal.Decimal
	}
	query := db.WithContext(ctx).Model(&Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("type")
	if !from.IsZero() {
		query = query.Where("date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", to)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := BalanceStats{Income: decimal.Zero, Expense: decimal.Zero}
	for _, r := range rows {
		switch r.Type {
		case TransactionTypeIncome:
			stats.Income = r.Total
		case TransactionTypeExpense:
			stats.Expense = r.Total
		}
	}
	stats.Net = stats.Income.Sub(stats.Expense)
	return &stats, nil
}

// CategoryStat is one (type, category) total for the category breakdown.
type CategoryStat struct {
	Type         TransactionType `json:"type"`
	Category     string          `json:"category"`
	CategoryIcon string          `json:"categoryIcon"`
	Total        decimal.Decimal `json:"total"`
}

func GetCategoryStats(ctx context.Context, userID string, from, to time.Time) ([]CategoryStat, error) {
	db := config.GetDB()

	var stats []CategoryStat
	query := db.WithContext(ctx).Model(&Transaction{}).
		Select(`transactions.type AS type,
			COALESCE(categories.name, 'Unknown') AS category,
			COALESCE(categories.icon, '') AS category_icon,
			COALESCE(SUM(transactions.amount), 0) AS total`).
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ?", userID).
		Group("transactions.type, categories.id").
		Order("total DESC")
	if !from.IsZero() {
		query = query.Where("transactions.date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("transactions.date <= ?", to)
	}
	if err := query.Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// GetHistoryPeriods lists the years that have any recorded activity.
func GetHistoryPeriods(ctx context.Context, userID string) ([]int, error) {
	db := config.GetDB()

	var years []int
	err := db.WithContext(ctx).Model(&MonthHistory{}).
		Where("user_id = ?", userID).
		Distinct("year").Order("year asc").
		Pluck("year", &years).Error
	if err != nil {
		return nil, err
	}
	if years == nil {
		years = []int{}
	}
	return years, nil
}

// HistoryPoint is one bucket of the history chart: a day within a month
// view, or a month within a year view.
type HistoryPoint struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Day     int             `json:"day,omitempty"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// GetMonthHistoryData returns day buckets for one month, zero-filled so the
// chart has a point for every calendar day.
func GetMonthHistoryData(ctx context.Context, userID string, year int, month int) ([]HistoryPoint, error) {
	db := config.GetDB()

	var rows []MonthHistory
	err := db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byDay := make(map[int]MonthHistory, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	points := make([]HistoryPoint, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		point := HistoryPoint{Year: year, Month: month, Day: day, Income: decimal.Zero, Expense: decimal.Zero}
		if r, ok := byDay[day]; ok {
			point.Income = r.Income
			point.Expense = r.Expense
		}
		points = append(points, point)
	}
	return points, nil
}

// GetYearHistoryData returns the twelve month buckets of one year.
func GetYearHistoryData(ctx context.Context, userID string, year int) ([]HistoryPoint, error) {
	db := config.GetDB()

	var rows []YearHistory
	err := db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]YearHistory, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	points := make([]HistoryPoint, 0, 12)
	for month := 1; month <= 12; month++ {
		point := HistoryPoint{Year: year, Month: month, Income: decimal.Zero, Expense: decimal.Zero}
		if r, ok := byMonth[month]; ok {
			point.Income = r.Income
			point.Expense = r.Expense
		}
		points = append(points, point)
	}
	return points, nil
}
