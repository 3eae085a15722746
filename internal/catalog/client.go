// Package catalog talks to the Jikan (MyAnimeList) REST API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
	"github.com/MrSnakeDoc/animelist/internal/utils"
	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetryTime = 15 * time.Second

// StatusError is returned for non 2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request failed with status %d: %s", e.Code, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client handles communication with the catalog API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	log          logger.Logger
	metrics      *metrics.Metrics
	maxRetryTime time.Duration
}

// NewClient creates a new catalog client
func NewClient(baseURL string, timeout time.Duration, log logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
		metrics:      m,
		maxRetryTime: defaultMaxRetryTime,
	}
}

type anime struct {
	MalID        int    `json:"mal_id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	TitleEnglish string `json:"title_english"`
	Episodes     *int   `json:"episodes"`
	Aired        struct {
		From string `json:"from"`
	} `json:"aired"`
}

type searchResponse struct {
	Data []anime `json:"data"`
}

type detailResponse struct {
	Data anime `json:"data"`
}

// Search returns at most limit anime matching query, in catalog order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	started := time.Now()
	err := c.doRequest(ctx, "/anime", params, &resp)
	c.metrics.Upstream("catalog", "search", started, err)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	out := make([]domain.Candidate, 0, len(resp.Data))
	for _, a := range resp.Data {
		out = append(out, domain.Candidate{
			ID:        a.MalID,
			Title:     a.Title,
			URL:       a.URL,
			Episodes:  deref(a.Episodes),
			StartDate: a.Aired.From,
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Lookup returns the details of one anime.
func (c *Client) Lookup(ctx context.Context, id int) (domain.Detail, error) {
	var resp detailResponse
	started := time.Now()
	err := c.doRequest(ctx, "/anime/"+strconv.Itoa(id), nil, &resp)
	c.metrics.Upstream("catalog", "lookup", started, err)
	if err != nil {
		return domain.Detail{}, fmt.Errorf("lookup %d: %w", id, err)
	}

	d := domain.Detail{
		Title:        resp.Data.Title,
		TitleEnglish: resp.Data.TitleEnglish,
		EpisodeMax:   deref(resp.Data.Episodes),
		URL:          resp.Data.URL,
	}
	if d.TitleEnglish == "" {
		d.TitleEnglish = d.Title
	}
	return d, nil
}

// doRequest performs a GET, retrying rate limits and server errors with
// exponential backoff.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = c.maxRetryTime

	attempt := func() error {
		c.log.Debug("catalog request", logger.String("url", fullURL))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer utils.Close(resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{Code: resp.StatusCode, Body: string(body)}
			if serr.Temporary() {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("catalog request failed, retrying",
			logger.String("url", fullURL),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))
	}

	return backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), notify)
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
