package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherController_CreateTeacher(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
	}{
		{name: "created", body: `{"name":"Ana","bio":"Cuban salsa","photo_url":"https://cdn.example.com/ana.jpg"}`, wantStatus: http.StatusCreated},
		{name: "missing name", body: `{"bio":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "bad photo url", body: `{"name":"Ana","photo_url":"javascript:alert(1)"}`, wantStatus: http.StatusBadRequest},
		{name: "duplicate", body: `{"name":"Ana"}`, fakeErr: domain.ErrAlreadyExists, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTeacherService{err: tt.fakeErr}
			ctrl := NewTeacherController(testLogger, fake)
			rr := httptest.NewRecorder()

			ctrl.CreateTeacher(rr, testRequest(http.MethodPost, "/x", tt.body, testUserID, festivalPath()))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusCreated {
				var teacher domain.Teacher
				decodeEnvelope(t, rr, &teacher)
				assert.Equal(t, testTeacherID, teacher.ID)
				assert.Equal(t, testFestivalID, fake.lastCreated.FestivalID)
			}
		})
	}
}

func TestTeacherController_BulkCreateTeachers(t *testing.T) {
	t.Run("partial failure keeps the batch", func(t *testing.T) {
		fake := &fakeTeacherService{failed: []string{"#2: invalid input: teacher name is required"}}
		ctrl := NewTeacherController(testLogger, fake)
		rr := httptest.NewRecorder()

		ctrl.BulkCreateTeachers(rr, testRequest(http.MethodPost, "/x",
			`{"teachers":[{"name":"Ana"},{"name":"Luis"},{"name":""}]}`, testUserID, festivalPath()))

		require.Equal(t, http.StatusOK, rr.Code)
		var data BulkCreateTeachersResponse
		decodeEnvelope(t, rr, &data)
		assert.Len(t, data.Created, 2)
		assert.Len(t, data.Failed, 1)
		require.Len(t, fake.lastBulk, 3)
		assert.Equal(t, testFestivalID, fake.lastBulk[0].FestivalID)
	})

	t.Run("empty batch", func(t *testing.T) {
		ctrl := NewTeacherController(testLogger, &fakeTeacherService{})
		rr := httptest.NewRecorder()

		ctrl.BulkCreateTeachers(rr, testRequest(http.MethodPost, "/x", `{"teachers":[]}`, testUserID, festivalPath()))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTeacherController_ListAndDelete(t *testing.T) {
	fake := &fakeTeacherService{}
	ctrl := NewTeacherController(testLogger, fake)
	rr := httptest.NewRecorder()

	ctrl.ListTeachers(rr, testRequest(http.MethodGet, "/x", "", testUserID, festivalPath()))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)

	rr = httptest.NewRecorder()
	ctrl.DeleteTeacher(rr, testRequest(http.MethodDelete, "/x", "", testUserID,
		map[string]string{"festivalID": testFestivalID, "teacherID": testTeacherID}))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	fake.err = domain.ErrNotFound
	rr = httptest.NewRecorder()
	ctrl.DeleteTeacher(rr, testRequest(http.MethodDelete, "/x", "", testUserID,
		map[string]string{"festivalID": testFestivalID, "teacherID": testTeacherID}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
