// Package openalex implements the OpenAlex AcademicClient adapter.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/errors"
)

const (
	defaultBaseURL       = "https://api.openalex.org"
	providerName         = "openalex"
	negativeCacheTTL     = time.Hour
	defaultFanOutCap     = 20
)

// Client implements academic.Client against the OpenAlex Works API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	negativeCache map[string]time.Time

	now func() time.Time
}

// New builds a Client.
func New(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       defaultBaseURL,
		httpClient:    httpClient,
		logger:        logger,
		negativeCache: make(map[string]time.Time),
		now:           time.Now,
	}
}

func (c *Client) Name() string { return providerName }

// normalizeID accepts "https://openalex.org/W...", "openalex:W...", or a
// bare "W..." and returns the bare Work ID. It also reports foreign=true
// for s2:-prefixed IDs per §4.4's guard.
func normalizeID(id string) (normalized string, foreign bool) {
	if strings.HasPrefix(id, "s2:") {
		return "", true
	}
	id = strings.TrimPrefix(id, "openalex:")
	id = strings.TrimPrefix(id, "https://openalex.org/")
	id = strings.TrimPrefix(id, "http://openalex.org/")
	return id, false
}

func (c *Client) isNegativelyCached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiry, ok := c.negativeCache[id]
	if !ok {
		return false
	}
	if c.now().After(expiry) {
		delete(c.negativeCache, id)
		return false
	}
	return true
}

func (c *Client) markNegative(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negativeCache[id] = c.now().Add(negativeCacheTTL)
}

type oaWork struct {
	ID               string `json:"id"`
	DOI              string `json:"doi"`
	Title            string `json:"title"`
	PublicationYear  *int   `json:"publication_year"`
	PublicationDate  string `json:"publication_date"`
	Authorships      []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	HostVenue struct {
		DisplayName string `json:"display_name"`
	} `json:"host_venue"`
	CitedByCount        *int            `json:"cited_by_count"`
	ReferencedWorks     []string        `json:"referenced_works"`
	OpenAccess          struct {
		IsOA   *bool  `json:"is_oa"`
		OAUrl  string `json:"oa_url"`
	} `json:"open_access"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

func reconstructAbstract(inverted map[string][]int) *string {
	if len(inverted) == 0 {
		return nil
	}
	maxPos := 0
	for _, positions := range inverted {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range inverted {
		for _, p := range positions {
			if p >= 0 && p < len(words) {
				words[p] = word
			}
		}
	}
	joined := strings.TrimSpace(strings.Join(words, " "))
	return &joined
}

func (w oaWork) toPaper() *canonical.Paper {
	id := strings.TrimPrefix(w.ID, "https://openalex.org/")
	out := &canonical.Paper{
		ID:             "openalex:" + id,
		Title:          w.Title,
		Abstract:       reconstructAbstract(w.AbstractInvertedIndex),
		Year:           w.PublicationYear,
		CitationCount:  w.CitedByCount,
		IsOpenAccess:   w.OpenAccess.IsOA,
		SourceAPI:      providerName,
	}
	if w.HostVenue.DisplayName != "" {
		venue := w.HostVenue.DisplayName
		out.Venue = &venue
	}
	if w.OpenAccess.OAUrl != "" {
		out.OAUrl = &w.OpenAccess.OAUrl
	}
	if w.DOI != "" {
		doi := strings.ToLower(strings.TrimPrefix(w.DOI, "https://doi.org/"))
		out.DOI = &doi
	}
	refCount := len(w.ReferencedWorks)
	out.ReferenceCount = &refCount
	for _, a := range w.Authorships {
		out.Authors = append(out.Authors, canonical.Author{Name: a.Author.DisplayName})
	}
	if w.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			out.PublishedDate = &t
		}
	}
	return out
}

var errNotFound = fmt.Errorf("openalex: not found")

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
		return fmt.Errorf("openalex: status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// resolveDOIOrID accepts either a bare Work ID or a DOI string (used when a
// caller has a DOI but not a Work ID, e.g. from SerpComplementRouter case 1).
func (c *Client) resolveDOIOrID(id string) string {
	if strings.Contains(id, "/") && !strings.HasPrefix(id, "W") {
		return "https://doi.org/" + strings.ToLower(id)
	}
	return id
}

func (c *Client) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		c.logger.Debug("skipping foreign identifier, no HTTP call", slog.String("provider", providerName), slog.String("paper_id", paperID))
		return nil, nil
	}
	if c.isNegativelyCached(id) {
		return nil, nil
	}
	resolved := c.resolveDOIOrID(id)
	var w oaWork
	err := c.get(ctx, "/works/"+url.PathEscape(resolved), nil, &w)
	if err == errNotFound {
		c.markNegative(id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w.toPaper(), nil
}

type oaSearchResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []oaWork `json:"results"`
}

func (c *Client) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	var resp oaSearchResponse
	q := url.Values{"search": {query}, "per_page": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/works", q, &resp); err != nil {
		return academic.SearchResult{}, err
	}
	out := academic.SearchResult{TotalCount: resp.Meta.Count}
	for _, w := range resp.Results {
		out.Papers = append(out.Papers, w.toPaper())
	}
	return out, nil
}

// GetReferences follows referenced_works, capped at defaultFanOutCap
// entries per §4.6.
func (c *Client) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		return nil, nil
	}
	var w oaWork
	if err := c.get(ctx, "/works/"+url.PathEscape(id), nil, &w); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	refs := w.ReferencedWorks
	if len(refs) > defaultFanOutCap {
		refs = refs[:defaultFanOutCap]
	}
	sort.Strings(refs) // deterministic ordering for capped fan-out
	out := make([]*canonical.Paper, 0, len(refs))
	for _, refID := range refs {
		p, err := c.GetPaper(ctx, refID)
		if err != nil || p == nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetCitations uses the filter=cites: query; resolution failures silently
// yield no citations rather than surfacing an error (§9 design note).
func (c *Client) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	id, foreign := normalizeID(paperID)
	if foreign {
		return nil, nil
	}
	var resp oaSearchResponse
	q := url.Values{"filter": {"cites:" + id}, "per_page": {strconv.Itoa(defaultFanOutCap)}}
	if err := c.get(ctx, "/works", q, &resp); err != nil {
		c.logger.Debug("citation lookup failed, returning empty", slog.String("provider", providerName), slog.String("paper_id", paperID), slog.Any("error", err))
		return nil, nil
	}
	out := make([]*canonical.Paper, 0, len(resp.Results))
	for _, w := range resp.Results {
		out = append(out, w.toPaper())
	}
	return out, nil
}
