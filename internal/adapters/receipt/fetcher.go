// Package receipt downloads receipt scans from the provider's storage.
package receipt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
)

const maxReceiptSize = 20 << 20 // 20 MiB

type httpFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a receipt downloader. The HTTP client may be nil.
func NewHTTPFetcher(client *http.Client) portssvc.ReceiptFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download the image of the receipt: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("could not download the receipt image from URL %s (HTTP error code %d)", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReceiptSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read the receipt image body: %w", err)
	}
	return data, extensionFromURL(rawURL), nil
}

func extensionFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Ext(parsed.Path)
}
