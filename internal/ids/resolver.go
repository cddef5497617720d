package ids

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lancet-project/lancet/internal/retry"
)

// Resolver exposes async crosswalks between scholarly identifier formats.
// Each crosswalk uses one external public API and never raises on
// network/API error: absence of the target ID, or any transport failure,
// resolves to a nil result.
type Resolver struct {
	httpClient *http.Client
	retryer    *retry.Engine
	logger     *slog.Logger
}

// NewResolver builds a Resolver. The retry engine should be configured with
// retry.AcademicAPIPolicy (§4.1, grounded on original_source's
// ACADEMIC_API_POLICY).
func NewResolver(httpClient *http.Client, retryer *retry.Engine, logger *slog.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{httpClient: httpClient, retryer: retryer, logger: logger}
}

type crossrefWorksResponse struct {
	Message struct {
		Items []struct {
			DOI string `json:"DOI"`
		} `json:"items"`
	} `json:"message"`
}

// ResolvePMIDToDOI resolves a PubMed ID to a DOI via Crossref's pmid filter.
func (r *Resolver) ResolvePMIDToDOI(ctx context.Context, pmid string) (string, error) {
	endpoint := "https://api.crossref.org/works?" + url.Values{
		"filter": {"pmid:" + pmid},
		"rows":   {"1"},
	}.Encode()

	var doi string
	err := r.retryer.Execute(ctx, "resolve_pmid_to_doi", "crossref", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return retry.NewStatusError(resp.StatusCode)
		}
		var parsed crossrefWorksResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if len(parsed.Message.Items) > 0 && parsed.Message.Items[0].DOI != "" {
			doi = parsed.Message.Items[0].DOI
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to resolve pmid to doi", slog.String("pmid", pmid), slog.String("error", err.Error()))
		return "", nil
	}
	if doi == "" {
		r.logger.Debug("no doi found for pmid", slog.String("pmid", pmid))
	}
	return doi, nil
}

type s2ExternalIDsResponse struct {
	ExternalIDs struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
}

// ResolveArxivToDOI resolves an arXiv ID to a DOI via Semantic Scholar's
// externalIds field.
func (r *Resolver) ResolveArxivToDOI(ctx context.Context, arxivID string) (string, error) {
	endpoint := fmt.Sprintf("https://api.semanticscholar.org/graph/v1/paper/arXiv:%s?fields=externalIds", arxivID)

	var doi string
	err := r.retryer.Execute(ctx, "resolve_arxiv_to_doi", "semantic_scholar", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode >= 400 {
			return retry.NewStatusError(resp.StatusCode)
		}
		var parsed s2ExternalIDsResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		doi = parsed.ExternalIDs.DOI
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to resolve arxiv id to doi", slog.String("arxiv_id", arxivID), slog.String("error", err.Error()))
		return "", nil
	}
	return doi, nil
}

// PMCIDResolution holds the result of an NCBI idconv lookup.
type PMCIDResolution struct {
	PMID string
	DOI  string
}

type idconvResponse struct {
	Records []struct {
		PMID string `json:"pmid"`
		DOI  string `json:"doi"`
		Status string `json:"status"`
	} `json:"records"`
}

// ResolvePMCID resolves a PMCID to its PMID/DOI pair via NCBI's ID
// Converter API. Returns nil when the PMCID is unknown.
func (r *Resolver) ResolvePMCID(ctx context.Context, pmcid string) (*PMCIDResolution, error) {
	endpoint := "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/?" + url.Values{
		"ids":    {"PMC" + pmcid},
		"format": {"json"},
	}.Encode()

	var out *PMCIDResolution
	err := r.retryer.Execute(ctx, "resolve_pmcid", "ncbi", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return retry.NewStatusError(resp.StatusCode)
		}
		var parsed idconvResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if len(parsed.Records) == 0 || parsed.Records[0].Status == "error" {
			return nil
		}
		out = &PMCIDResolution{PMID: parsed.Records[0].PMID, DOI: parsed.Records[0].DOI}
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to resolve pmcid", slog.String("pmcid", pmcid), slog.String("error", err.Error()))
		return nil, nil
	}
	return out, nil
}

// ResolveCRIDToDOI resolves a CiNii CRID to a DOI. Carried forward from
// original_source as an explicit not-implemented stub: the CiNii API does
// not expose a DOI crosswalk the original ever wired up.
func (r *Resolver) ResolveCRIDToDOI(ctx context.Context, crid string) (string, error) {
	r.logger.Debug("crid to doi conversion not yet implemented", slog.String("crid", crid))
	return "", nil
}

// ResolveToDOI is the convenience dispatcher described in §4.1: it returns
// the identifier's own DOI if present, otherwise attempts PMID→DOI,
// arXiv→DOI, or CRID→DOI in that order.
func (r *Resolver) ResolveToDOI(ctx context.Context, id PaperIdentifier) (string, error) {
	if id.DOI != "" {
		return id.DOI, nil
	}
	if id.PMID != "" {
		return r.ResolvePMIDToDOI(ctx, id.PMID)
	}
	if id.ArxivID != "" {
		return r.ResolveArxivToDOI(ctx, id.ArxivID)
	}
	if id.CRID != "" {
		return r.ResolveCRIDToDOI(ctx, id.CRID)
	}
	return "", nil
}
