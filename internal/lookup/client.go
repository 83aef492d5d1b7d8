// Package lookup provides the best-effort client for the external owner
// lookup store. All failure modes collapse to "no data available"; this
// client never returns an error to the caller.
package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/platform/logger"
)

const defaultHTTPTimeout = 5 * time.Second

// OwnerLookup is the capability the enrichment processor depends on.
type OwnerLookup interface {
	// Lookup fetches ownership/funnel metadata for a lead. The second
	// return value is false when no data is available for any reason.
	Lookup(ctx context.Context, leadID string) (*crmevent.OwnerInfo, bool)
}

// Client fetches owner metadata over HTTP from a keyed store addressed
// by a deterministic URL built from the lead ID.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// New creates a new owner lookup client.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// Lookup performs a GET against <base>/<lead_id>.json. A 200 response is
// parsed and returned; a 404 is logged at debug as not-found; any other
// status, transport error or parse failure is logged at warn. None of
// these abort the caller.
func (c *Client) Lookup(ctx context.Context, leadID string) (*crmevent.OwnerInfo, bool) {
	lookupURL := c.baseURL + "/" + url.PathEscape(leadID) + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		c.log.Warn("owner lookup request build failed", "lead_id", leadID, "error", err.Error())
		return nil, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("owner lookup transport error", "lead_id", leadID, "error", err.Error())
		return nil, false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var owner crmevent.OwnerInfo
		if err := json.NewDecoder(resp.Body).Decode(&owner); err != nil {
			c.log.Warn("owner lookup parse error", "lead_id", leadID, "error", err.Error())
			return nil, false
		}
		return &owner, true
	case resp.StatusCode == http.StatusNotFound:
		c.log.Debug("owner lookup not found", "lead_id", leadID)
		return nil, false
	default:
		c.log.Warn("owner lookup unexpected status", "lead_id", leadID, "status", resp.StatusCode)
		return nil, false
	}
}
