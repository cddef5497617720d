// Package crossref implements the Crossref AcademicClient adapter.
// References and citations are unsupported by the Crossref REST API and
// always return an empty slice (§4.4).
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/errors"
)

const (
	defaultBaseURL = "https://api.crossref.org"
	providerName   = "crossref"
)

// Client implements academic.Client against the Crossref REST API,
// lookup-by-DOI only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

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

type crossrefWork struct {
	DOI     string `json:"DOI"`
	Title   []string `json:"title"`
	Abstract string `json:"abstract"`
	Author  []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	ContainerTitle []string `json:"container-title"`
	IsReferencedByCount *int `json:"is-referenced-by-count"`
	ReferencesCount     *int `json:"references-count"`
	Published           struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
}

func (w crossrefWork) toPaper() *canonical.Paper {
	out := &canonical.Paper{
		SourceAPI:      providerName,
		CitationCount:  w.IsReferencedByCount,
		ReferenceCount: w.ReferencesCount,
	}
	doi := strings.ToLower(w.DOI)
	out.DOI = &doi
	out.ID = "crossref:" + doi
	if len(w.Title) > 0 {
		out.Title = w.Title[0]
	}
	if w.Abstract != "" {
		abstract := stripJATS(w.Abstract)
		out.Abstract = &abstract
	}
	if len(w.ContainerTitle) > 0 {
		venue := w.ContainerTitle[0]
		out.Venue = &venue
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		out.Authors = append(out.Authors, canonical.Author{Name: name})
	}
	if len(w.Published.DateParts) > 0 && len(w.Published.DateParts[0]) > 0 {
		year := w.Published.DateParts[0][0]
		out.Year = &year
	}
	return out
}

// stripJATS removes the minimal set of JATS abstract tags Crossref embeds
// ("<jats:p>...</jats:p>"); a best-effort cleanup, not a full XML parse.
func stripJATS(s string) string {
	replacer := strings.NewReplacer("<jats:p>", "", "</jats:p>", " ", "<jats:title>", "", "</jats:title>", "")
	return strings.TrimSpace(replacer.Replace(s))
}

var errNotFound = fmt.Errorf("crossref: not found")

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
		return fmt.Errorf("crossref: status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	doi := strings.TrimPrefix(paperID, "DOI:")
	doi = strings.TrimPrefix(doi, "crossref:")
	var wrapper struct {
		Message crossrefWork `json:"message"`
	}
	err := c.get(ctx, "/works/"+url.PathEscape(doi), nil, &wrapper)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wrapper.Message.toPaper(), nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	var resp struct {
		Message struct {
			TotalResults int            `json:"total-results"`
			Items        []crossrefWork `json:"items"`
		} `json:"message"`
	}
	q := url.Values{"query": {query}, "rows": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/works", q, &resp); err != nil {
		return academic.SearchResult{}, err
	}
	out := academic.SearchResult{TotalCount: resp.Message.TotalResults}
	for _, w := range resp.Message.Items {
		out.Papers = append(out.Papers, w.toPaper())
	}
	return out, nil
}

// GetReferences is unsupported by Crossref and always returns an empty
// slice (§4.4).
func (c *Client) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}

// GetCitations is unsupported by Crossref and always returns an empty
// slice (§4.4).
func (c *Client) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}
