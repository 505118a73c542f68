// Package services – ConversationService
//
// Manages the lifecycle of assistant conversations: creation with normalized
// titles, listing by recent activity, and renames with ownership checks.
// Title handling is intentionally minimal here because automatic title
// generation is performed in MessageService on the first user message.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mediminder/mediminder-backend/internal/domain"
	"github.com/mediminder/mediminder-backend/internal/repo"
)

// ConversationService provides conversation-level operations. It enforces
// title rules and ownership constraints.
type ConversationService struct {
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with sane defaults.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db, TitleMaxLen: 60}
}

// Create inserts a new conversation owned by userID. An empty title falls
// back to the stored default.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, s.DB, userID, s.clip(normalizeTitle(title)))
}

// List returns the user's conversations ordered by recent activity.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, s.DB, userID)
}

// UpdateTitle renames a conversation, ensuring it exists and belongs to the
// user. Falls back to "Untitled" if the title is blank.
func (s *ConversationService) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, s.clip(title))
}

// Delete soft-removes a conversation and, via the cascade, its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if err := repo.DeleteConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
