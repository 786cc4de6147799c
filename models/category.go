package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/utils"
	"gorm.io/gorm"
)

type Category struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserId      string          `gorm:"size:36;not null;uniqueIndex:idx_cat_user_name_type,priority:1" json:"user_id"`
	Name        string          `gorm:"size:100;not null;uniqueIndex:idx_cat_user_name_type,priority:2" json:"name"`
	Icon        string          `gorm:"size:16" json:"icon"`
	Description string          `gorm:"size:255" json:"description"`
	Type        TransactionType `gorm:"size:10;not null;uniqueIndex:idx_cat_user_name_type,priority:3" json:"type"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Icon        string          `json:"icon"`
	Description string          `json:"description" binding:"max=255"`
	Type        TransactionType `json:"type" binding:"required,transactiontype"`
}

func GetCategories(ctx context.Context, userID string, typeFilter TransactionType) ([]Category, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Where("user_id = ?", userID)
	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	}

	var categories []Category
	err := query.Order("name asc").Find(&categories).Error
	return categories, err
}

func GetCategoryById(ctx context.Context, userID string, id string) (*Category, error) {
	db := config.GetDB()

	var category Category
	err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func CreateCategory(ctx context.Context, userID string, input *NewCategory) (*Category, error) {
	db := config.GetDB()

	category := Category{
		ID:          uuid.NewString(),
		UserId:      userID,
		Name:        input.Name,
		Icon:        input.Icon,
		Description: input.Description,
		Type:        input.Type,
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, userID string, id string, input *NewCategory) (*Category, error) {
	db := config.GetDB()

	category, err := GetCategoryById(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Icon = input.Icon
	category.Description = input.Description
	category.Type = input.Type
	if err := db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to delete a category that still has transactions:
// transactions always reference a live category.
func DeleteCategory(ctx context.Context, userID string, id string) error {
	db := config.GetDB()

	category, err := GetCategoryById(ctx, userID, id)
	if err != nil {
		return err
	}

	var inUse int64
	err = db.WithContext(ctx).Model(&Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, id).
		Count(&inUse).Error
	if err != nil {
		return err
	}
	if inUse > 0 {
		return utils.ErrorCategoryInUse
	}

	return db.WithContext(ctx).Delete(category).Error
}
