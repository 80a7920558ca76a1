package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])$`)

// reservedSlugs cannot be festival subdomains.
var reservedSlugs = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true, "mail": true, "static": true,
}

type festivalService struct {
	festivalRepo   domain.FestivalRepository
	contextTimeout time.Duration
}

// NewFestivalService returns a FestivalService backed by the given repository.
func NewFestivalService(festivalRepo domain.FestivalRepository, timeout time.Duration) domain.FestivalService {
	return &festivalService{
		festivalRepo:   festivalRepo,
		contextTimeout: timeout,
	}
}

func (s *festivalService) CreateFestival(ctx context.Context, festival *domain.Festival) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if festival.OwnerID == "" {
		return fmt.Errorf("%w: festival owner is required", domain.ErrInvalidInput)
	}
	festival.Name = strings.TrimSpace(festival.Name)
	if festival.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	festival.Slug = strings.ToLower(strings.TrimSpace(festival.Slug))
	if err := validateSlug(festival.Slug); err != nil {
		return err
	}
	if festival.Timezone == "" {
		festival.Timezone = "UTC"
	}
	if err := validateFestivalDates(festival.Timezone, festival.StartDate, festival.EndDate); err != nil {
		return err
	}

	now := time.Now()
	festival.CreatedAt = now
	festival.UpdatedAt = now
	if err := s.festivalRepo.Create(ctx, festival); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("create festival: %w", err)
	}
	return nil
}

func (s *festivalService) GetFestival(ctx context.Context, festivalID, callerID string) (*domain.Festival, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return ownedFestival(ctx, s.festivalRepo, festivalID, callerID)
}

func (s *festivalService) GetFestivalBySlug(ctx context.Context, slug string) (*domain.Festival, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festival, err := s.festivalRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get festival: %w", err)
	}
	return festival, nil
}

func (s *festivalService) ListMyFestivals(ctx context.Context, ownerID string) ([]*domain.Festival, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	festivals, err := s.festivalRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list festivals: %w", err)
	}
	if festivals == nil {
		festivals = []*domain.Festival{}
	}
	return festivals, nil
}

func (s *festivalService) UpdateFestival(ctx context.Context, festivalID, callerID string, update domain.FestivalUpdate) (*domain.Festival, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		update.Name = &name
	}
	tz := current.Timezone
	if update.Timezone != nil {
		tz = *update.Timezone
	}
	start, end := current.StartDate, current.EndDate
	if update.StartDate != nil {
		start = update.StartDate
	}
	if update.EndDate != nil {
		end = update.EndDate
	}
	if err := validateFestivalDates(tz, start, end); err != nil {
		return nil, err
	}
	if update.Empty() {
		return current, nil
	}

	updated, err := s.festivalRepo.Update(ctx, festivalID, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update festival: %w", err)
	}
	return updated, nil
}

func (s *festivalService) DeleteFestival(ctx context.Context, festivalID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return err
	}
	if err := s.festivalRepo.Delete(ctx, festivalID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete festival: %w", err)
	}
	return nil
}

func validateSlug(slug string) error {
	if !slugRegexp.MatchString(slug) {
		return fmt.Errorf("%w: slug must be 3-63 lowercase letters, digits or hyphens", domain.ErrInvalidInput)
	}
	if reservedSlugs[slug] {
		return fmt.Errorf("%w: slug %q is reserved", domain.ErrInvalidInput, slug)
	}
	return nil
}

func validateFestivalDates(timezone string, start, end *time.Time) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, timezone)
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end date is before start date", domain.ErrInvalidInput)
	}
	return nil
}
