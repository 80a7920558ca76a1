package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFestivalService_CreateFestival(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		festival *domain.Festival
		repoErr  error
		wantErr  error
	}{
		{
			name:     "success",
			festival: &domain.Festival{Name: "Salsa Weekend", Slug: " Salsa-2025 ", OwnerID: "owner-1", StartDate: &start, EndDate: &end},
		},
		{
			name:     "missing owner",
			festival: &domain.Festival{Name: "Salsa Weekend", Slug: "salsa"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "missing name",
			festival: &domain.Festival{Name: "  ", Slug: "salsa", OwnerID: "owner-1"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "slug with spaces",
			festival: &domain.Festival{Name: "Salsa", Slug: "salsa weekend", OwnerID: "owner-1"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "reserved slug",
			festival: &domain.Festival{Name: "Salsa", Slug: "www", OwnerID: "owner-1"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "unknown timezone",
			festival: &domain.Festival{Name: "Salsa", Slug: "salsa", OwnerID: "owner-1", Timezone: "Mars/Olympus"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "end before start",
			festival: &domain.Festival{Name: "Salsa", Slug: "salsa", OwnerID: "owner-1", StartDate: &end, EndDate: &start},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "repository failure",
			festival: &domain.Festival{Name: "Salsa", Slug: "salsa", OwnerID: "owner-1"},
			repoErr:  errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeFestivalRepo()
			repo.err = tt.repoErr
			svc := NewFestivalService(repo, time.Second)

			err := svc.CreateFestival(ctx, tt.festival)
			if tt.repoErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "create festival")
				return
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "salsa-2025", tt.festival.Slug)
			assert.Equal(t, "UTC", tt.festival.Timezone)
			assert.NotEmpty(t, tt.festival.ID)
			assert.False(t, tt.festival.CreatedAt.IsZero())
		})
	}
}

func TestFestivalService_CreateFestival_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFestivalRepo(testFestival())
	svc := NewFestivalService(repo, time.Second)

	err := svc.CreateFestival(ctx, &domain.Festival{Name: "Other", Slug: "salsa", OwnerID: "owner-2"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestFestivalService_Ownership(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFestivalRepo(testFestival())
	svc := NewFestivalService(repo, time.Second)

	got, err := svc.GetFestival(ctx, "fest-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "salsa", got.Slug)

	_, err = svc.GetFestival(ctx, "fest-1", "intruder")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.GetFestival(ctx, "missing", "owner-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateFestival(ctx, "fest-1", "intruder", domain.FestivalUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteFestival(ctx, "fest-1", "intruder"), domain.ErrForbidden)

	bySlug, err := svc.GetFestivalBySlug(ctx, "salsa")
	require.NoError(t, err)
	assert.Equal(t, "fest-1", bySlug.ID)
	_, err = svc.GetFestivalBySlug(ctx, "tango")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFestivalService_UpdateFestival(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFestivalRepo(testFestival())
	svc := NewFestivalService(repo, time.Second)

	updated, err := svc.UpdateFestival(ctx, "fest-1", "owner-1", domain.FestivalUpdate{
		Name:           ptr("  Salsa Weekend 2025 "),
		BookingEnabled: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Salsa Weekend 2025", updated.Name)
	assert.False(t, updated.BookingEnabled)

	unchanged, err := svc.UpdateFestival(ctx, "fest-1", "owner-1", domain.FestivalUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Salsa Weekend 2025", unchanged.Name)

	before := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.UpdateFestival(ctx, "fest-1", "owner-1", domain.FestivalUpdate{EndDate: &before})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateFestival(ctx, "fest-1", "owner-1", domain.FestivalUpdate{Name: ptr(" ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFestivalService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeFestivalRepo(testFestival())
	svc := NewFestivalService(repo, time.Second)

	mine, err := svc.ListMyFestivals(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := svc.ListMyFestivals(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, svc.DeleteFestival(ctx, "fest-1", "owner-1"))
	assert.ErrorIs(t, svc.DeleteFestival(ctx, "fest-1", "owner-1"), domain.ErrNotFound)
}
