package models

import (
	"context"
	"errors"
	"time"

	"github.com/mlovric/trosak/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserSettings struct {
	UserId          string          `gorm:"primaryKey;size:36" json:"user_id"`
	Currency        string          `gorm:"size:8;default:EUR" json:"currency"`
	BillingCycleDay int             `gorm:"default:1" json:"billing_cycle_day"`
	PreferredView   string          `gorm:"size:16;default:calendar" json:"preferred_view"`
	SavingsGoal     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"savings_goal"`
	InitialBalance  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"initial_balance"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetUserSettings returns the user's settings, creating the default row on
// first access.
func GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	db := config.GetDB()

	var settings UserSettings
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = UserSettings{
			UserId:          userID,
			Currency:        "EUR",
			BillingCycleDay: 1,
			PreferredView:   "calendar",
		}
		if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func UpdateBillingCycle(ctx context.Context, userID string, cycleDay int, preferredView string) (*UserSettings, error) {
	settings, err := GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.BillingCycleDay = cycleDay
	if preferredView != "" {
		settings.PreferredView = preferredView
	}
	if err := config.GetDB().WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func UpdateSavingsGoal(ctx context.Context, userID string, goal decimal.Decimal) (*UserSettings, error) {
	settings, err := GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.SavingsGoal = goal.Round(2)
	if err := config.GetDB().WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func UpdateInitialBalance(ctx context.Context, userID string, balance decimal.Decimal) (*UserSettings, error) {
	settings, err := GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.InitialBalance = balance.Round(2)
	if err := config.GetDB().WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
