package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
)

type teacherService struct {
	festivalRepo   domain.FestivalRepository
	teacherRepo    domain.TeacherRepository
	contextTimeout time.Duration
}

// NewTeacherService returns a TeacherService.
func NewTeacherService(festivalRepo domain.FestivalRepository, teacherRepo domain.TeacherRepository, timeout time.Duration) domain.TeacherService {
	return &teacherService{
		festivalRepo:   festivalRepo,
		teacherRepo:    teacherRepo,
		contextTimeout: timeout,
	}
}

func (s *teacherService) CreateTeacher(ctx context.Context, callerID string, teacher *domain.Teacher) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, teacher.FestivalID, callerID); err != nil {
		return err
	}
	return s.create(ctx, teacher)
}

func (s *teacherService) create(ctx context.Context, teacher *domain.Teacher) error {
	teacher.Name = strings.TrimSpace(teacher.Name)
	if teacher.Name == "" {
		return fmt.Errorf("%w: teacher name is required", domain.ErrInvalidInput)
	}
	teacher.Bio = strings.TrimSpace(teacher.Bio)
	teacher.PhotoURL = strings.TrimSpace(teacher.PhotoURL)
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	if err := s.teacherRepo.Create(ctx, teacher); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

func (s *teacherService) ListTeachers(ctx context.Context, festivalID, callerID string) ([]*domain.Teacher, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return nil, err
	}
	teachers, err := s.teacherRepo.ListByFestivalID(ctx, festivalID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	if teachers == nil {
		teachers = []*domain.Teacher{}
	}
	return teachers, nil
}

func (s *teacherService) DeleteTeacher(ctx context.Context, festivalID, teacherID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return err
	}
	teacher, err := s.teacherRepo.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get teacher: %w", err)
	}
	if teacher.FestivalID != festivalID {
		return domain.ErrNotFound
	}
	if err := s.teacherRepo.Delete(ctx, teacherID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

func (s *teacherService) BulkCreateTeachers(ctx context.Context, festivalID, callerID string, teachers []*domain.Teacher) ([]*domain.Teacher, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if len(teachers) == 0 {
		return nil, nil, fmt.Errorf("%w: no teachers given", domain.ErrInvalidInput)
	}
	if _, err := ownedFestival(ctx, s.festivalRepo, festivalID, callerID); err != nil {
		return nil, nil, err
	}

	created := []*domain.Teacher{}
	failed := []string{}
	for i, t := range teachers {
		t.FestivalID = festivalID
		if err := s.create(ctx, t); err != nil {
			label := t.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			failed = append(failed, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		created = append(created, t)
	}
	return created, failed, nil
}
