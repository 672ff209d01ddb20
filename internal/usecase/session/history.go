package session

import (
	"context"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

type ListRescheduleHistory struct {
	repo domain.Repository
}

func NewListRescheduleHistory(repo domain.Repository) *ListRescheduleHistory {
	return &ListRescheduleHistory{repo: repo}
}

func (uc *ListRescheduleHistory) Execute(
	ctx context.Context,
	sessionID uint,
	userID uint,
) ([]models.RescheduleHistory, error) {

	if _, err := loadForParticipant(ctx, uc.repo, sessionID, userID); err != nil {
		return nil, err
	}

	history, err := uc.repo.ListRescheduleHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.RescheduleHistory{}
	}
	return history, nil
}
