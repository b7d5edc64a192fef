package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/ratelimit"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	apiVersion = "2022-06-28"
	maxRetries = 3
)

var ErrUnathenticated = fmt.Errorf("no Notion token configured, set notion.token")

// APIError is a non-OK answer of the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// RetryAfter is set when Notion asked the caller to slow down.
	RetryAfter time.Duration `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Notion API returned status %d (%s): %s", e.Status, e.Code, e.Message)
}

type Client interface {
	QueryDatabase(ctx context.Context, databaseId string, query DatabaseQuery) (QueryResponse, error) // /v1/databases/{database_id}/query
}

type ClientImpl struct {
	httpClient *http.Client
	baseUrl    string
	limiter    *ratelimit.Limiter
	backoff    time.Duration
}

func NewClient(ctx context.Context, cfg config.Notion) (*ClientImpl, error) {
	if cfg.Token == "" {
		return nil, ErrUnathenticated
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	return newClient(httpClient, cfg.BaseUrl), nil
}

func newClient(httpClient *http.Client, baseUrl string) *ClientImpl {
	return &ClientImpl{
		httpClient: httpClient,
		baseUrl:    baseUrl,
		limiter:    ratelimit.New(ratelimit.Notion),
		backoff:    time.Second,
	}
}

// QueryDatabase returns one page of results. Callers follow NextCursor for the rest.
func (c *ClientImpl) QueryDatabase(ctx context.Context, databaseId string, query DatabaseQuery) (QueryResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return QueryResponse{}, err
	}

	url := fmt.Sprintf("%s/databases/%s/query", c.baseUrl, databaseId)
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return QueryResponse{}, err
		}

		response, err := c.post(ctx, url, body)
		if err == nil {
			return response, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !isRetryable(apiErr.Status) || attempt == maxRetries {
			log.Errorf("Failed to query Notion database %s: %v", databaseId, err)
			return QueryResponse{}, err
		}
		backoff := c.backoff << attempt
		if apiErr.RetryAfter > 0 {
			backoff = apiErr.RetryAfter
		}
		log.Warnf("Notion API returned status %d, retrying in %s", apiErr.Status, backoff)
		c.limiter.Backoff(backoff)
	}
}

func (c *ClientImpl) post(ctx context.Context, url string, body []byte) (QueryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return QueryResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return QueryResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return QueryResponse{}, decodeError(resp)
	}

	var response QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return QueryResponse{}, fmt.Errorf("failed to decode Notion response: %w", err)
	}
	return response, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(data)
	}
	apiErr.Status = resp.StatusCode
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(seconds) * time.Second
	}
	return apiErr
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
