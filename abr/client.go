package abr

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"abr-search/models"
	"abr-search/utils"
)

const defaultTimeout = 30 * time.Second

// ClientConfig holds the registry endpoint and credentials.
type ClientConfig struct {
	Endpoint   string
	AuthGUID   string
	Timeout    time.Duration
	UserAgent  string
	MaxResults int
}

// Client performs name searches against the ABR XML search service.
// It issues exactly one request per search and never retries.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *utils.Logger
}

// NewClient builds a Client. A nil httpClient gets a default client using cfg.Timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *utils.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Params builds the query string for q.
func (c *Client) Params(q models.SearchQuery) url.Values {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	v := url.Values{}
	v.Set("name", q.Term)
	v.Set("postcode", q.Postcode)
	v.Set("legalName", "Y")
	v.Set("tradingName", "Y")
	v.Set("businessName", "Y")
	v.Set("activeABNsOnly", "Y")
	v.Set("authenticationGuid", c.cfg.AuthGUID)
	v.Set("searchWidth", "Typical")
	v.Set("minimumScore", "0")
	v.Set("maxSearchResults", strconv.Itoa(maxResults))

	for _, st := range models.States {
		flag := "Y"
		if q.State != "" && q.State != st {
			flag = "N"
		}
		v.Set(string(st), flag)
	}
	return v
}

// Search runs q and returns the raw XML payload.
// Errors are always *Failure values.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", &Failure{Kind: TransportFailure, Err: eris.Wrap(err, "parse endpoint")}
	}
	u.RawQuery = c.Params(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &Failure{Kind: TransportFailure, Err: eris.Wrap(err, "create request")}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	c.logger.Info("[abr] Searching registry for %q (state=%q postcode=%q)", q.Term, q.State, q.Postcode)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Failure{Kind: TransportFailure, Err: eris.Wrap(err, "registry request")}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &Failure{
			Kind:       TransportFailure,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Failure{Kind: TransportFailure, Err: eris.Wrap(err, "read response body")}
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		return "", &Failure{Kind: EmptyResponse, Err: eris.New("registry returned no data")}
	}

	c.logger.Info("[abr] Registry responded %d with %d characters", resp.StatusCode, len(text))
	return text, nil
}
