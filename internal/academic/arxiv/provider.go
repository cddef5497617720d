// Package arxiv implements the arXiv AcademicClient adapter, grounded on
// the teacher's internal/providers/arxiv XML feed shape. References and
// citations are unsupported by the arXiv API and always return empty
// (§4.4).
package arxiv

import (
	"context"
	"encoding/xml"
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
	defaultBaseURL = "https://export.arxiv.org/api/query"
	providerName   = "arxiv"
)

// Client implements academic.Client against the arXiv Atom feed API.
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

type feed struct {
	XMLName      xml.Name `xml:"feed"`
	TotalResults int      `xml:"totalResults"`
	Entries      []entry  `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Journal   string   `xml:"journal_ref"`
	DOI       string   `xml:"doi"`
}

type author struct {
	Name string `xml:"name"`
}

func arxivIDFromURL(idURL string) string {
	parts := strings.Split(strings.TrimSuffix(idURL, "/"), "/")
	return parts[len(parts)-1]
}

func (e entry) toPaper() *canonical.Paper {
	id := arxivIDFromURL(e.ID)
	out := &canonical.Paper{
		ID:        "arxiv:" + id,
		Title:     strings.TrimSpace(e.Title),
		ArxivID:   &id,
		SourceAPI: providerName,
	}
	abstract := strings.TrimSpace(e.Summary)
	out.Abstract = &abstract
	for _, a := range e.Authors {
		out.Authors = append(out.Authors, canonical.Author{Name: a.Name})
	}
	if e.Journal != "" {
		out.Venue = &e.Journal
	}
	if e.DOI != "" {
		doi := strings.ToLower(e.DOI)
		out.DOI = &doi
	}
	if e.Published != "" {
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			out.PublishedDate = &t
			year := t.Year()
			out.Year = &year
		}
	}
	return out
}

func (c *Client) fetch(ctx context.Context, query url.Values) (feed, error) {
	u := c.baseURL + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return feed{}, errors.NewNetworkError(providerName, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feed{}, errors.NewNetworkError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return feed{}, errors.NewRateLimitError(providerName, 0)
	}
	if resp.StatusCode == http.StatusNotFound {
		return feed{}, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return feed{}, fmt.Errorf("arxiv: status %d: %s", resp.StatusCode, string(body))
	}
	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return feed{}, errors.NewSerializationError(providerName, err)
	}
	return f, nil
}

func (c *Client) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	id := strings.TrimPrefix(paperID, "arxiv:")
	id = strings.TrimPrefix(id, "ArXiv:")
	f, err := c.fetch(ctx, url.Values{"id_list": {id}})
	if err != nil {
		return nil, err
	}
	if len(f.Entries) == 0 {
		return nil, nil
	}
	return f.Entries[0].toPaper(), nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	f, err := c.fetch(ctx, url.Values{
		"search_query": {"all:" + query},
		"max_results":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return academic.SearchResult{}, err
	}
	out := academic.SearchResult{TotalCount: f.TotalResults}
	for _, e := range f.Entries {
		out.Papers = append(out.Papers, e.toPaper())
	}
	return out, nil
}

// GetReferences is unsupported by arXiv and always returns an empty slice.
func (c *Client) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}

// GetCitations is unsupported by arXiv and always returns an empty slice.
func (c *Client) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}
