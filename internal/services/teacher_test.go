package services

import (
	"context"
	"testing"
	"time"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeacherFixture() (*fakeTeacherRepo, domain.TeacherService) {
	repo := newFakeTeacherRepo(&domain.Teacher{ID: "t-other", FestivalID: "fest-2", Name: "Other"})
	return repo, NewTeacherService(newFakeFestivalRepo(testFestival()), repo, time.Second)
}

func TestTeacherService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo, svc := newTeacherFixture()

	teacher := &domain.Teacher{FestivalID: "fest-1", Name: "  Ana  ", Bio: " Salsa teacher "}
	require.NoError(t, svc.CreateTeacher(ctx, "owner-1", teacher))
	assert.Equal(t, "Ana", teacher.Name)
	assert.Equal(t, "Salsa teacher", teacher.Bio)
	assert.NotEmpty(t, teacher.ID)

	err := svc.CreateTeacher(ctx, "owner-1", &domain.Teacher{FestivalID: "fest-1", Name: "Ana"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = svc.CreateTeacher(ctx, "owner-1", &domain.Teacher{FestivalID: "fest-1", Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.CreateTeacher(ctx, "intruder", &domain.Teacher{FestivalID: "fest-1", Name: "Luis"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	teachers, err := svc.ListTeachers(ctx, "fest-1", "owner-1")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Ana", teachers[0].Name)
	assert.Len(t, repo.teachers, 2)
}

func TestTeacherService_DeleteTeacher(t *testing.T) {
	ctx := context.Background()
	repo, svc := newTeacherFixture()
	teacher := &domain.Teacher{FestivalID: "fest-1", Name: "Ana"}
	require.NoError(t, svc.CreateTeacher(ctx, "owner-1", teacher))

	assert.ErrorIs(t, svc.DeleteTeacher(ctx, "fest-1", "t-other", "owner-1"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTeacher(ctx, "fest-1", teacher.ID, "intruder"), domain.ErrForbidden)
	require.NoError(t, svc.DeleteTeacher(ctx, "fest-1", teacher.ID, "owner-1"))
	assert.Len(t, repo.teachers, 1)
	assert.ErrorIs(t, svc.DeleteTeacher(ctx, "fest-1", teacher.ID, "owner-1"), domain.ErrNotFound)
}

func TestTeacherService_BulkCreateTeachers(t *testing.T) {
	ctx := context.Background()
	_, svc := newTeacherFixture()

	created, failed, err := svc.BulkCreateTeachers(ctx, "fest-1", "owner-1", []*domain.Teacher{
		{Name: "Ana"},
		{Name: ""},
		{Name: "Ana"},
		{Name: "Luis"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Ana", created[0].Name)
	assert.Equal(t, "Luis", created[1].Name)
	assert.Equal(t, "fest-1", created[1].FestivalID)
	require.Len(t, failed, 2)
	assert.Contains(t, failed[0], "#2")
	assert.Contains(t, failed[1], "Ana")

	_, _, err = svc.BulkCreateTeachers(ctx, "fest-1", "owner-1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = svc.BulkCreateTeachers(ctx, "fest-1", "intruder", []*domain.Teacher{{Name: "X"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
