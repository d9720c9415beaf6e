// Package notion talks to the Notion REST API and decodes page properties.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/starford/folio/internal/apperr"
)

const (
	DefaultBaseURL    = "https://api.notion.com/v1"
	DefaultAPIVersion = "2022-06-28"
	pageSize          = 100
	maxBodyBytes      = 10 << 20
)

// Sort directions accepted by the query endpoint.
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Database is the subset of a database object folio reads.
type Database struct {
	ID         string                    `json:"id"`
	Properties map[string]PropertySchema `json:"properties"`
}

// PropertySchema describes one column of a database.
type PropertySchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Kind   `json:"type"`
}

// Page is one database row with undecoded properties.
type Page struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// Sort orders a query by one property.
type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// QueryRequest is the body of a database query.
type QueryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	Sorts       []Sort         `json:"sorts,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// Client is a minimal Notion API client with a per-database schema cache.
type Client struct {
	token      string
	baseURL    string
	version    string
	httpClient *http.Client

	mu      sync.Mutex
	schemas map[string]*Database
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAPIVersion overrides the Notion-Version header.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version = strings.TrimSpace(version); version != "" {
			c.version = version
		}
	}
}

// New creates a client authenticated with token.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("notion token required")
	}
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		version:    DefaultAPIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		schemas:    make(map[string]*Database),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Database returns the schema of a database, fetching it at most once per client.
func (c *Client) Database(ctx context.Context, id string) (*Database, error) {
	c.mu.Lock()
	if db, ok := c.schemas[id]; ok {
		c.mu.Unlock()
		return db, nil
	}
	c.mu.Unlock()

	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+id, nil, &db); err != nil {
		return nil, fmt.Errorf("notion: get database %s: %w", id, err)
	}

	c.mu.Lock()
	c.schemas[id] = &db
	c.mu.Unlock()
	return &db, nil
}

// Query returns every page of a database matching req, following pagination.
func (c *Client) Query(ctx context.Context, id string, req QueryRequest) ([]Page, error) {
	if req.PageSize == 0 {
		req.PageSize = pageSize
	}
	var pages []Page
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+id+"/query", req, &resp); err != nil {
			return nil, fmt.Errorf("notion: query database %s: %w", id, err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", apperr.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperr.ErrTransport, err)
	}
	return nil
}
