package remote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/storage"
)

const (
	defaultBaseURL  = "https://firestore.googleapis.com/v1"
	defaultDatabase = "(default)"
	listPageSize    = 300
)

// DocumentStore is the subset of the document database API the backend uses.
type DocumentStore interface {
	CreateDocument(ctx context.Context, collection, id string, fields map[string]Value) (*Document, error)
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	PatchDocument(ctx context.Context, collection, id string, fields map[string]Value, mask []string) (*Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	ListDocuments(ctx context.Context, collection string) ([]Document, error)
	RunQuery(ctx context.Context, query StructuredQuery) ([]Document, error)
}

// Client talks to a Firestore style REST endpoint.
// It implements the DocumentStore interface.
type Client struct {
	client      *resty.Client
	apiKey      string
	projectID   string
	database    string
	logger      *zap.Logger
	limiter     *rate.Limiter
	maxAttempts int
}

// ensure Client implements the interface
var _ DocumentStore = (*Client)(nil)

// NewClient creates a new document store client.
func NewClient(cfg *config.Remote, logger *zap.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}

	client := resty.New().SetBaseURL(strings.TrimRight(base, "/"))
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	logger = logger.Named("docstore")
	logger.Info("Using remote document store",
		zap.String("base_url", base),
		zap.String("project", cfg.ProjectID),
		zap.String("database", database))

	return &Client{
		client:      client,
		apiKey:      cfg.ApiKey,
		projectID:   cfg.ProjectID,
		database:    database,
		logger:      logger,
		limiter:     rate.NewLimiter(limit, burst),
		maxAttempts: attempts,
	}
}

// documentsPath is the parent of every collection.
func (c *Client) documentsPath() string {
	return fmt.Sprintf("/projects/%s/databases/%s/documents", c.projectID, c.database)
}

func (c *Client) collectionPath(collection string) string {
	return c.documentsPath() + "/" + collection
}

func (c *Client) documentPath(collection, id string) string {
	return c.collectionPath(collection) + "/" + url.PathEscape(id)
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetError(&apiErrorResponse{})
	if c.apiKey != "" {
		req.SetQueryParam("key", c.apiKey)
	}
	return req
}

// CreateDocument creates collection/id. The id is chosen by the caller.
func (c *Client) CreateDocument(ctx context.Context, collection, id string, fields map[string]Value) (*Document, error) {
	req := c.newRequest(ctx).
		SetQueryParam("documentId", id).
		SetBody(Document{Fields: fields}).
		SetResult(&Document{})

	resp, err := c.doRequest(ctx, http.MethodPost, c.collectionPath(collection), req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return resp.Result().(*Document), nil
}

// GetDocument fetches collection/id. A missing document yields storage.ErrNotFound.
func (c *Client) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	req := c.newRequest(ctx).SetResult(&Document{})

	resp, err := c.doRequest(ctx, http.MethodGet, c.documentPath(collection, id), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return resp.Result().(*Document), nil
}

// PatchDocument overwrites the masked fields of an existing document.
// The document must exist; otherwise storage.ErrNotFound is returned.
func (c *Client) PatchDocument(ctx context.Context, collection, id string, fields map[string]Value, mask []string) (*Document, error) {
	params := url.Values{}
	for _, field := range mask {
		params.Add("updateMask.fieldPaths", field)
	}
	params.Set("currentDocument.exists", "true")

	req := c.newRequest(ctx).
		SetQueryParamsFromValues(params).
		SetBody(Document{Fields: fields}).
		SetResult(&Document{})

	resp, err := c.doRequest(ctx, http.MethodPatch, c.documentPath(collection, id), req)
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s/%s: %w", collection, id, err)
	}
	return resp.Result().(*Document), nil
}

// DeleteDocument removes collection/id. Deleting a missing document succeeds.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	req := c.newRequest(ctx)

	if _, err := c.doRequest(ctx, http.MethodDelete, c.documentPath(collection, id), req); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// ListDocuments returns every document of a collection, following page tokens.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	var docs []Document
	pageToken := ""

	for {
		req := c.newRequest(ctx).
			SetQueryParam("pageSize", strconv.Itoa(listPageSize)).
			SetResult(&listDocumentsResponse{})
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}

		resp, err := c.doRequest(ctx, http.MethodGet, c.collectionPath(collection), req)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}

		page := resp.Result().(*listDocumentsResponse)
		docs = append(docs, page.Documents...)
		if page.NextPageToken == "" {
			return docs, nil
		}
		pageToken = page.NextPageToken
	}
}

// RunQuery executes a structured query against the documents root.
func (c *Client) RunQuery(ctx context.Context, query StructuredQuery) ([]Document, error) {
	var results []runQueryResponse

	req := c.newRequest(ctx).
		SetBody(runQueryRequest{StructuredQuery: query}).
		SetResult(&results)

	resp, err := c.doRequest(ctx, http.MethodPost, c.documentsPath()+":runQuery", req)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}

	// Responses without a document only carry progress information.
	out := *resp.Result().(*[]runQueryResponse)
	docs := make([]Document, 0, len(out))
	for _, r := range out {
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

// doRequest handles the actual request execution with rate limiting and optional retries.
// Retries only happen when more than one attempt is configured.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < c.maxAttempts; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter wait failed: %w", storage.ErrStorage, err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("path", path))
		resp, err = req.Execute(method, path)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, apiErrorMessage(resp))
			}
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
			err = fmt.Errorf("request failed with status %s: %s", resp.Status(), apiErrorMessage(resp))
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", storage.ErrStorage, err)
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry || i == c.maxAttempts-1 {
			break
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", storage.ErrStorage, ctx.Err())
		}
	}

	c.logger.Error("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return nil, fmt.Errorf("%w: %w", storage.ErrStorage, err)
}

// apiErrorResponse is the error envelope returned by the document API.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func apiErrorMessage(resp *resty.Response) string {
	if e, ok := resp.Error().(*apiErrorResponse); ok && e.Error.Message != "" {
		return e.Error.Status + ": " + e.Error.Message
	}
	return resp.String()
}
