package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mlovric/trosak/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DashboardLayout stores the user's card ordering as opaque JSON arrays.
// The server never interprets the card names.
type DashboardLayout struct {
	UserId    string    `gorm:"primaryKey;size:36" json:"user_id"`
	CardOrder string    `gorm:"type:text" json:"card_order"`
	Collapsed string    `gorm:"type:text" json:"collapsed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var defaultCardOrder = []string{
	"stats-cards",
	"savings-card",
	"budget-health-score",
	"monthly-comparison-chart",
	"categories-stats",
	"top-categories-card",
	"spending-trend-chart",
}

type LayoutResponse struct {
	CardOrder []string `json:"cardOrder"`
	Collapsed []string `json:"collapsed"`
}

func GetDashboardLayout(ctx context.Context, userID string) (*LayoutResponse, error) {
	db := config.GetDB()

	var layout DashboardLayout
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&layout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &LayoutResponse{CardOrder: defaultCardOrder, Collapsed: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := LayoutResponse{CardOrder: []string{}, Collapsed: []string{}}
	if err := json.Unmarshal([]byte(layout.CardOrder), &resp.CardOrder); err != nil {
		resp.CardOrder = defaultCardOrder
	}
	if err := json.Unmarshal([]byte(layout.Collapsed), &resp.Collapsed); err != nil {
		resp.Collapsed = []string{}
	}
	return &resp, nil
}

func SaveDashboardLayout(ctx context.Context, userID string, cardOrder []string, collapsed []string) (*LayoutResponse, error) {
	db := config.GetDB()

	orderJSON, err := json.Marshal(cardOrder)
	if err != nil {
		return nil, err
	}
	collapsedJSON, err := json.Marshal(collapsed)
	if err != nil {
		return nil, err
	}

	layout := DashboardLayout{
		UserId:    userID,
		CardOrder: string(orderJSON),
		Collapsed: string(collapsedJSON),
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"card_order", "collapsed", "updated_at"}),
	}).Create(&layout).Error
	if err != nil {
		return nil, err
	}

	return &LayoutResponse{CardOrder: cardOrder, Collapsed: collapsed}, nil
}
