package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/savings-planner/internal/models"
)

const maxChatTurns = 50

// Chat answers a question about a stored plan. The transcript comes from
// the caller; nothing is kept between calls.
func (s *Service) Chat(ctx context.Context, userID int64, planID string, history []models.ChatTurn, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is empty: %w", models.ErrInvalidSubmission)
	}
	if len(history) > maxChatTurns {
		history = history[len(history)-maxChatTurns:]
	}

	plan, err := s.store.GetPlan(ctx, planID, userID, s.now())
	if err != nil {
		return "", err
	}

	return s.advisor.Chat(ctx, models.ChatRequest{
		Plan:    plan,
		History: history,
		Message: message,
	})
}
