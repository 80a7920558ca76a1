// Package sheets downloads public Google Sheets tabs as CSV.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"festivalscheduling/internal/domain"
)

// DefaultBaseURL is the public Google Sheets host.
const DefaultBaseURL = "https://docs.google.com"

// maxExportBytes caps the size of a downloaded export.
const maxExportBytes = 10 << 20

type sheetsHTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher returns a fetcher that downloads the CSV export of a shared
// spreadsheet. An empty baseURL means DefaultBaseURL.
func NewHTTPFetcher(client *http.Client, baseURL string) domain.SheetFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &sheetsHTTPFetcher{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *sheetsHTTPFetcher) FetchCSV(ctx context.Context, sheetID, gid string) ([]byte, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("%w: sheet id is required", domain.ErrInvalidInput)
	}
	q := url.Values{"format": {"csv"}}
	if gid != "" {
		q.Set("gid", gid)
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", f.baseURL, url.PathEscape(sheetID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets export returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet export: %w", err)
	}
	if len(body) > maxExportBytes {
		return nil, fmt.Errorf("%w: sheet export larger than %d bytes", domain.ErrInvalidInput, maxExportBytes)
	}
	return body, nil
}
