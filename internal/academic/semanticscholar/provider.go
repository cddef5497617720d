// Package semanticscholar implements the Semantic Scholar AcademicClient
// adapter, grounded on the teacher's internal/providers/semantic_scholar
// provider (HTTP client shape, slog logging, error wrapping) and
// spec.md §4.4's provider-specific contract.
package semanticscholar

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
	defaultBaseURL = "https://api.semanticscholar.org/graph/v1"
	providerName   = "semantic_scholar"
	fields         = "title,abstract,authors,year,publicationDate,externalIds,venue,citationCount,referenceCount,isOpenAccess,openAccessPdf"
)

// Client implements academic.Client against the Semantic Scholar Graph API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Client. httpClient may be nil, in which case a default
// client with a 15s timeout is used.
func New(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: defaultBaseURL, httpClient: httpClient, logger: logger}
}

func (c *Client) Name() string { return providerName }

// normalizeID strips the internal "s2:" prefix and reports whether id is a
// foreign identifier that must be skipped without any HTTP call (§4.4).
func normalizeID(id string) (normalized string, foreign bool) {
	if strings.HasPrefix(id, "s2:") {
		id = strings.TrimPrefix(id, "s2:")
	}
	if strings.HasPrefix(id, "openalex:") || strings.HasPrefix(id, "https://openalex.org/") {
		return "", true
	}
	return id, false
}

type s2Paper struct {
	PaperID        string   `json:"paperId"`
	Title          string   `json:"title"`
	Abstract       *string  `json:"abstract"`
	Authors        []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Year            *int    `json:"year"`
	PublicationDate *string `json:"publicationDate"`
	ExternalIDs     struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	Venue          *string `json:"venue"`
	CitationCount  *int    `json:"citationCount"`
	ReferenceCount *int    `json:"referenceCount"`
	IsOpenAccess   *bool   `json:"isOpenAccess"`
	OpenAccessPDF  *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

func (p s2Paper) toPaper() *canonical.Paper {
	out := &canonical.Paper{
		ID:             "s2:" + p.PaperID,
		Title:          p.Title,
		Abstract:       p.Abstract,
		Year:           p.Year,
		CitationCount:  p.CitationCount,
		ReferenceCount: p.ReferenceCount,
		IsOpenAccess:   p.IsOpenAccess,
		Venue:          p.Venue,
		SourceAPI:      providerName,
	}
	for _, a := range p.Authors {
		out.Authors = append(out.Authors, canonical.Author{Name: a.Name})
	}
	if p.ExternalIDs.DOI != "" {
		doi := strings.ToLower(p.ExternalIDs.DOI)
		out.DOI = &doi
	}
	if p.ExternalIDs.ArXiv != "" {
		out.ArxivID = &p.ExternalIDs.ArXiv
	}
	if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
		out.PDFUrl = &p.OpenAccessPDF.URL
	}
	if p.PublicationDate != nil {
		if t, err := time.Parse("2006-01-02", *p.PublicationDate); err == nil {
			out.PublishedDate = &t
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.NewNetworkError(providerName, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewNetworkError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.NewRateLimitError(providerName, 0)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("semantic scholar: status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errNotFound is a sentinel converted to (nil, nil) by GetPaper.
var errNotFound = fmt.Errorf("semantic scholar: not found")

func (c *Client) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		c.logger.Debug("skipping foreign identifier, no HTTP call", slog.String("provider", providerName), slog.String("paper_id", paperID))
		return nil, nil
	}
	var p s2Paper
	err := c.get(ctx, "/paper/"+url.PathEscape(id), url.Values{"fields": {fields}}, &p)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.toPaper(), nil
}

type s2SearchResponse struct {
	Total int       `json:"total"`
	Data  []s2Paper `json:"data"`
}

func (c *Client) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	var resp s2SearchResponse
	q := url.Values{"query": {query}, "limit": {fmt.Sprintf("%d", limit)}, "fields": {fields}}
	if err := c.get(ctx, "/paper/search", q, &resp); err != nil {
		return academic.SearchResult{}, err
	}
	out := academic.SearchResult{TotalCount: resp.Total}
	for _, p := range resp.Data {
		out.Papers = append(out.Papers, p.toPaper())
	}
	return out, nil
}

type edgeResponse struct {
	Data []struct {
		IsInfluential bool    `json:"isInfluential"`
		CitedPaper    s2Paper `json:"citedPaper"`
		CitingPaper   s2Paper `json:"citingPaper"`
	} `json:"data"`
}

func (c *Client) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		return nil, nil
	}
	var resp edgeResponse
	q := url.Values{"fields": {"title,abstract,authors,year,externalIds,venue,citationCount,referenceCount,isOpenAccess,openAccessPdf"}}
	if err := c.get(ctx, "/paper/"+url.PathEscape(id)+"/references", q, &resp); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	out := make([]*canonical.Paper, 0, len(resp.Data))
	for _, e := range resp.Data {
		if e.CitedPaper.PaperID == "" {
			continue
		}
		out = append(out, e.CitedPaper.toPaper())
	}
	return out, nil
}

func (c *Client) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		return nil, nil
	}
	var resp edgeResponse
	q := url.Values{"fields": {"title,abstract,authors,year,externalIds,venue,citationCount,referenceCount,isOpenAccess,openAccessPdf"}}
	if err := c.get(ctx, "/paper/"+url.PathEscape(id)+"/citations", q, &resp); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	out := make([]*canonical.Paper, 0, len(resp.Data))
	for _, e := range resp.Data {
		if e.CitingPaper.PaperID == "" {
			continue
		}
		out = append(out, e.CitingPaper.toPaper())
	}
	return out, nil
}
