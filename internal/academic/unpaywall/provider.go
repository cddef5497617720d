// Package unpaywall implements the Unpaywall AcademicClient adapter. Only
// ResolveOAUrl is supported; Search/GetPaper/GetReferences/GetCitations
// satisfy academic.Client but always return empty (§4.4).
package unpaywall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/errors"
)

const (
	defaultBaseURL     = "https://api.unpaywall.org/v2"
	providerName       = "unpaywall"
	sentinelContactEmail = "lancet@example.com"
)

// Client implements academic.Client against the Unpaywall API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	contactEmail string
}

// New builds a Client. contactEmail is required by Unpaywall's terms of
// use; an empty value falls back to the sentinel contact (§4.4).
func New(httpClient *http.Client, logger *slog.Logger, contactEmail string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if contactEmail == "" {
		contactEmail = sentinelContactEmail
		logger.Warn("unpaywall contact email not configured, using sentinel", slog.String("provider", providerName))
	}
	return &Client{baseURL: defaultBaseURL, httpClient: httpClient, logger: logger, contactEmail: contactEmail}
}

func (c *Client) Name() string { return providerName }

type unpaywallResponse struct {
	DOI          string `json:"doi"`
	IsOA         bool   `json:"is_oa"`
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
		URL       string `json:"url"`
	} `json:"best_oa_location"`
}

// ResolveOAUrl returns the best open-access URL for a DOI, or "" if none is
// known. This is the only operation Unpaywall supports (§4.4).
func (c *Client) ResolveOAUrl(ctx context.Context, doi string) (string, error) {
	doi = strings.ToLower(strings.TrimPrefix(doi, "https://doi.org/"))
	u := fmt.Sprintf("%s/%s?email=%s", c.baseURL, url.PathEscape(doi), url.QueryEscape(c.contactEmail))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.NewNetworkError(providerName, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewNetworkError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.NewRateLimitError(providerName, 0)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unpaywall: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.NewSerializationError(providerName, err)
	}
	if !parsed.IsOA || parsed.BestOALocation == nil {
		return "", nil
	}
	if parsed.BestOALocation.URLForPDF != "" {
		return parsed.BestOALocation.URLForPDF, nil
	}
	return parsed.BestOALocation.URL, nil
}

func (c *Client) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	return nil, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	return academic.SearchResult{}, nil
}

func (c *Client) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}

func (c *Client) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}
