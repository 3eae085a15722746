// Package wallpaper searches the Alpha Coders wallpaper API.
package wallpaper

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

	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
	"github.com/MrSnakeDoc/animelist/internal/utils"
	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetryTime = 10 * time.Second

// Image is one search hit.
type Image struct {
	ImageURL string
	PageURL  string
}

// Result mirrors the API answer.
type Result struct {
	Success      bool
	TotalMatches int
	Items        []Image
}

// Client handles communication with the wallpaper API
type Client struct {
	endpoint     string
	token        string
	httpClient   *http.Client
	log          logger.Logger
	metrics      *metrics.Metrics
	maxRetryTime time.Duration
}

// NewClient creates a new wallpaper client
func NewClient(endpoint, token string, timeout time.Duration, log logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		endpoint:     endpoint,
		token:        token,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
		metrics:      m,
		maxRetryTime: defaultMaxRetryTime,
	}
}

// StatusError is returned for non 2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wallpaper request failed with status %d: %s", e.Code, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type searchResponse struct {
	Success    bool   `json:"success"`
	TotalMatch string `json:"total_match"`
	Wallpapers []struct {
		URLImage string `json:"url_image"`
		URLPage  string `json:"url_page"`
	} `json:"wallpapers"`
}

// Search looks up wallpapers for term.
func (c *Client) Search(ctx context.Context, term string) (Result, error) {
	started := time.Now()
	res, err := c.search(ctx, term)
	c.metrics.Upstream("wallpaper", "search", started, err)
	return res, err
}

func (c *Client) search(ctx context.Context, term string) (Result, error) {
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	q := "auth=" + url.QueryEscape(c.token) + "&method=search&term=" + strings.Join(words, "+")
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}

	fullURL := c.endpoint + sep + q

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = c.maxRetryTime

	var raw searchResponse
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

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

		raw = searchResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	// the token is part of the query, so only the term is logged
	notify := func(err error, wait time.Duration) {
		c.log.Warn("wallpaper request failed, retrying",
			logger.String("term", term),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))
	}

	if err := backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), notify); err != nil {
		return Result{}, err
	}

	total, _ := strconv.Atoi(raw.TotalMatch)
	res := Result{
		Success:      raw.Success,
		TotalMatches: total,
		Items:        make([]Image, 0, len(raw.Wallpapers)),
	}
	for _, w := range raw.Wallpapers {
		res.Items = append(res.Items, Image{ImageURL: w.URLImage, PageURL: w.URLPage})
	}
	return res, nil
}
