package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthHistory is the day-grained aggregate behind the monthly dashboard
// views. Grain: (user_id, day, month, year); month is 1-12. Totals are kept
// by increment-on-write: every transaction mutation adjusts the matching row
// inside the same DB transaction, so the totals always equal the sum of the
// persisted transactions sharing the key. The table is derived data and can
// be rebuilt from transactions (cmd/backfill-history).
type MonthHistory struct {
	UserId string `gorm:"primaryKey;size:36" json:"user_id"`
	Day    int    `gorm:"primaryKey" json:"day"`
	Month  int    `gorm:"primaryKey" json:"month"`
	Year   int    `gorm:"primaryKey" json:"year"`

	Income  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"income"`
	Expense decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"expense"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// YearHistory is the month-grained aggregate behind the yearly views.
// Grain: (user_id, month, year); same increment discipline as MonthHistory.
type YearHistory struct {
	UserId string `gorm:"primaryKey;size:36" json:"user_id"`
	Month  int    `gorm:"primaryKey" json:"month"`
	Year   int    `gorm:"primaryKey" json:"year"`

	Income  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"income"`
	Expense decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"expense"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// historyDelta is the signed contribution of one transaction to the two
// aggregates. A reversal is the same delta with negated amounts.
func historyDelta(txnType TransactionType, amount decimal.Decimal) (income, expense decimal.Decimal) {
	if txnType == TransactionTypeIncome {
		return amount, decimal.Zero
	}
	return decimal.Zero, amount
}

// applyHistoryIncrement upserts both aggregates for one transaction inside
// the caller's DB transaction. Negative amounts reverse an earlier
// contribution.
func applyHistoryIncrement(tx *gorm.DB, userID string, date time.Time, txnType TransactionType, amount decimal.Decimal) error {
	income, expense := historyDelta(txnType, amount)

	err := tx.Exec(`
		INSERT INTO month_histories (user_id, day, month, year, income, expense, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			income = income + VALUES(income),
			expense = expense + VALUES(expense),
			updated_at = NOW()
	`, userID, date.Day(), int(date.Month()), date.Year(), income, expense).Error
	if err != nil {
		return err
	}

	return tx.Exec(`
		INSERT INTO year_histories (user_id, month, year, income, expense, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			income = income + VALUES(income),
			expense = expense + VALUES(expense),
			updated_at = NOW()
	`, userID, int(date.Month()), date.Year(), income, expense).Error
}

// reverseHistoryIncrement removes one transaction's contribution.
func reverseHistoryIncrement(tx *gorm.DB, userID string, date time.Time, txnType TransactionType, amount decimal.Decimal) error {
	return applyHistoryIncrement(tx, userID, date, txnType, amount.Neg())
}

// RebuildHistory recomputes both aggregates for one user from the
// transactions table. It deletes the user's aggregate rows and re-inserts
// grouped sums in a single DB transaction, so readers never see a
// half-rebuilt state.
func RebuildHistory(tx *gorm.DB, userID string) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&MonthHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&YearHistory{}).Error; err != nil {
			return err
		}

		err := tx.Exec(`
			INSERT INTO month_histories (user_id, day, month, year, income, expense, created_at, updated_at)
			SELECT user_id, DAY(date), MONTH(date), YEAR(date),
				COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0),
				NOW(), NOW()
			FROM transactions
			WHERE user_id = ?
			GROUP BY user_id, DAY(date), MONTH(date), YEAR(date)
		`, userID).Error
		if err != nil {
			return err
		}

		return tx.Exec(`
			INSERT INTO year_histories (user_id, month, year, income, expense, created_at, updated_at)
			SELECT user_id, MONTH(date), YEAR(date),
				COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0),
				NOW(), NOW()
			FROM transactions
			WHERE user_id = ?
			GROUP BY user_id, MONTH(date), YEAR(date)
		`, userID).Error
	})
}
