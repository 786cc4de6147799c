package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mlovric/trosak/config"
)

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserId    string    `gorm:"size:36;not null;index" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func SaveChatMessage(ctx context.Context, userID string, role string, content string) error {
	db := config.GetDB()
	msg := ChatMessage{
		ID:      uuid.NewString(),
		UserId:  userID,
		Role:    role,
		Content: content,
	}
	return db.WithContext(ctx).Create(&msg).Error
}

func GetChatHistory(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	db := config.GetDB()
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []ChatMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Oldest first for the conversation view.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func ClearChatHistory(ctx context.Context, userID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Where("user_id = ?", userID).Delete(&ChatMessage{}).Error
}
