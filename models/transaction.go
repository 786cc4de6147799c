package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Transaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserId      string          `gorm:"size:36;not null;index:idx_txn_user_date,priority:1" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	Date        time.Time       `gorm:"not null;index:idx_txn_user_date,priority:2" json:"date"`
	Type        TransactionType `gorm:"size:10;not null;index" json:"type"`
	CategoryId  string          `gorm:"size:36;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date" binding:"required"`
	Type        TransactionType `json:"type" binding:"required,transactiontype"`
	CategoryId  string          `json:"categoryId" binding:"required"`
}

func (input *NewTransaction) validate(ctx context.Context, userID string) error {
	if !input.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if y := input.Date.Year(); y < 1900 || y > 2100 {
		return errors.New("date out of range")
	}
	category, err := GetCategoryById(ctx, userID, input.CategoryId)
	if err != nil {
		return errors.New("category not found")
	}
	if category.Type != input.Type {
		return errors.New("category type does not match transaction type")
	}
	return nil
}

func GetTransactions(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Preload("Category").Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", to)
	}

	var transactions []Transaction
	err := query.Order("date desc").Find(&transactions).Error
	return transactions, err
}

func GetTransactionById(ctx context.Context, userID string, id string) (*Transaction, error) {
	db := config.GetDB()

	var txn Transaction
	err := db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND id = ?", userID, id).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CreateTransaction persists the transaction and updates both period
// aggregates in one DB transaction, so a crash cannot record a transaction
// without its rollup contribution.
func CreateTransaction(ctx context.Context, userID string, input *NewTransaction) (*Transaction, error) {
	if err := input.validate(ctx, userID); err != nil {
		return nil, err
	}

	txn := Transaction{
		ID:          uuid.NewString(),
		UserId:      userID,
		Amount:      input.Amount.Round(2),
		Description: input.Description,
		Date:        truncateToDay(input.Date),
		Type:        input.Type,
		CategoryId:  input.CategoryId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return applyHistoryIncrement(tx, userID, txn.Date, txn.Type, txn.Amount)
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateTransaction reverses the old rollup contribution and applies the new
// one in the same DB transaction as the row update.
func UpdateTransaction(ctx context.Context, userID string, id string, input *NewTransaction) (*Transaction, error) {
	if err := input.validate(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := GetTransactionById(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Amount = input.Amount.Round(2)
	updated.Description = input.Description
	updated.Date = truncateToDay(input.Date)
	updated.Type = input.Type
	updated.CategoryId = input.CategoryId
	updated.Category = nil

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reverseHistoryIncrement(tx, userID, existing.Date, existing.Type, existing.Amount); err != nil {
			return err
		}
		if err := applyHistoryIncrement(tx, userID, updated.Date, updated.Type, updated.Amount); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func DeleteTransaction(ctx context.Context, userID string, id string) error {
	existing, err := GetTransactionById(ctx, userID, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reverseHistoryIncrement(tx, userID, existing.Date, existing.Type, existing.Amount); err != nil {
			return err
		}
		return tx.Delete(&Transaction{}, "id = ?", existing.ID).Error
	})
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
