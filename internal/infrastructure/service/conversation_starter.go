package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiom-hq/axiom-hub/internal/domain/conversation"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION STARTER
// ══════════════════════════════════════════════════════════════════════════════

// ConversationService creates conversations on demand: when a team-up
// request is accepted, the pair gets a direct channel to plan their team.
// Implements command.ConversationStarter.
type ConversationService struct {
	repo conversation.Repository
}

// NewConversationService creates the conversation starter adapter.
func NewConversationService(repo conversation.Repository) *ConversationService {
	return &ConversationService{repo: repo}
}

// EnsureConversation returns the existing conversation between the pair or
// creates a new one.
func (s *ConversationService) EnsureConversation(ctx context.Context, a, b shared.UserID) (string, error) {
	existing, err := s.repo.FindByParticipants(ctx, a, b)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("find conversation: %w", err)
	}

	c, err := conversation.NewConversation(uuid.NewString(), a, b)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	if err := s.repo.SaveConversation(ctx, c); err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}
	return c.ID, nil
}
