package planupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// upstream allows a handful of calls per second per token
	rateLimit = 5
	rateBurst = 10

	maxRetries   = 4
	initialDelay = 1 * time.Second
	maxDelay     = 16 * time.Second
)

// Client reads plans from the upstream REST API with rate limiting and retries
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger

	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		logger:      logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// GlobalPlans fetches the catalog, ordered from the lowest to the highest plan
func (c *Client) GlobalPlans(ctx context.Context) ([]APIPlan, error) {
	var list []APIPlan
	if err := c.doRequest(ctx, "/plans", &list); err != nil {
		return nil, fmt.Errorf("failed to fetch global plans: %w", err)
	}
	return list, nil
}

// SitePlans fetches the plans offered to one blog
func (c *Client) SitePlans(ctx context.Context, blogID int64) ([]APIPlan, error) {
	var list []APIPlan
	endpoint := fmt.Sprintf("/sites/%d/plans", blogID)
	if err := c.doRequest(ctx, endpoint, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch plans for blog %d: %w", blogID, err)
	}
	return list, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	fullURL := c.baseURL + endpoint

	var lastErr error
	delay := c.initialDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "SiteHub/1.0")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				c.logger.Warn("plans_api_request_failed", "endpoint", endpoint, "attempt", attempt+1, "retry_in", delay, "error", err)
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
				delay = min(delay*2, c.maxDelay)
				continue
			}
			break
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

			if shouldRetry(resp.StatusCode) && attempt < c.maxRetries {
				if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
					delay = time.Duration(secs) * time.Second
				}
				c.logger.Warn("plans_api_retry", "endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt+1, "retry_in", delay)
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
				delay = min(delay*2, c.maxDelay)
				continue
			}
			return lastErr
		}

		err = json.NewDecoder(resp.Body).Decode(result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
