package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// CreateMessage inserts one message into a conversation. Category is only
// meaningful for assistant messages and may be empty.
func CreateMessage(ctx context.Context, db *gorm.DB, conversationID, role, content, category string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Category:       category,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches one message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a page of messages for a conversation in chronological
// order, plus the total row count for pagination headers.
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string, offset, limit int) ([]domain.Message, int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Message
	err := q.Order("created_at asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}
