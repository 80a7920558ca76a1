package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCSV(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("title,day,start,end\nYoga,2025-11-14,07:00,08:00\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), srv.URL+"/")
	body, err := f.FetchCSV(context.Background(), "abc123", "42")
	require.NoError(t, err)
	assert.Equal(t, "/spreadsheets/d/abc123/export", gotPath)
	assert.Equal(t, "format=csv&gid=42", gotQuery)
	assert.Contains(t, string(body), "Yoga")
}

func TestFetchCSV_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.Client(), srv.URL).FetchCSV(context.Background(), "abc123", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchCSV_MissingID(t *testing.T) {
	_, err := NewHTTPFetcher(nil, "").FetchCSV(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchCSV_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("title\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(srv.Client(), srv.URL).FetchCSV(ctx, "abc123", "")
	assert.ErrorIs(t, err, context.Canceled)
}
