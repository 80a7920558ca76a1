package services

import (
	"context"
	"errors"
	"fmt"

	"festivalscheduling/internal/domain"
)

// ownedFestival loads a festival and checks that callerID owns it.
func ownedFestival(ctx context.Context, repo domain.FestivalRepository, festivalID, callerID string) (*domain.Festival, error) {
	festival, err := repo.GetByID(ctx, festivalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get festival: %w", err)
	}
	if festival.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return festival, nil
}

// festivalSession loads a session and checks it belongs to festivalID.
func festivalSession(ctx context.Context, repo domain.SessionRepository, festivalID, sessionID string) (*domain.Session, error) {
	session, err := repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.FestivalID != festivalID {
		return nil, domain.ErrNotFound
	}
	return session, nil
}
