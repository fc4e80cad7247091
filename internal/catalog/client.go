// Package catalog talks to the remote product filter endpoint and maps its
// loosely typed records into domain.Product.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// json keeps numeric fields as json.Number so large ids survive decoding
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var (
	ErrFetchFailed = errors.New("failed to fetch products")
	ErrNotFound    = errors.New("no product found")
	ErrInvalidPage = errors.New("page must be at least 1")
)

// Page is one page of normalized search results
type Page struct {
	Items        []domain.Product `json:"items"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	TotalRecords int              `json:"totalRecords"`
}

// filterRequest is the body accepted by the product filter endpoint
type filterRequest struct {
	Page       string      `json:"page"`
	PageSize   string      `json:"pageSize"`
	SearchText string      `json:"searchText,omitempty"`
	Sort       *filterSort `json:"sort,omitempty"`
}

type filterSort struct {
	CreationDateSortOption string `json:"creationDateSortOption"`
}

type filterResponse struct {
	Data struct {
		Data         []rawProduct `json:"data"`
		TotalPages   interface{}  `json:"totalPages"`
		TotalRecords interface{}  `json:"totalRecords"`
	} `json:"data"`
}

// Client issues product filter requests
type Client struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// NewClient creates a catalog client. A zero timeout leaves the transport default.
func NewClient(cfg config.CatalogConfig, logger *zap.Logger) *Client {
	return NewClientWithHTTP(cfg.URL, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP is useful for tests
func NewClientWithHTTP(url string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{httpClient: httpClient, url: url, logger: logger}
}

// Search fetches one page of products matching query. An empty query lists
// everything, newest first. Any transport, status or decode failure is
// reported as ErrFetchFailed.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (*Page, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 {
		pageSize = 1
	}

	body := filterRequest{
		Page:     strconv.Itoa(page),
		PageSize: strconv.Itoa(pageSize),
	}
	if q := strings.TrimSpace(query); q != "" {
		body.SearchText = q
	} else {
		body.Sort = &filterSort{CreationDateSortOption: "DESC"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-internal-call", "true")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Catalog request failed", zap.Error(err), zap.String("query", query))
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Catalog returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
		)
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var decoded filterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("Catalog response could not be decoded", zap.Error(err))
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetchFailed, err)
	}

	result := &Page{
		Items:        make([]domain.Product, 0, len(decoded.Data.Data)),
		Page:         page,
		TotalPages:   toCount(decoded.Data.TotalPages, 1),
		TotalRecords: toCount(decoded.Data.TotalRecords, 0),
	}
	for _, raw := range decoded.Data.Data {
		result.Items = append(result.Items, raw.normalize())
	}

	c.logger.Debug("Catalog search completed",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int("items", len(result.Items)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// Lookup resolves a scanned or typed code to the first matching product
func (c *Client) Lookup(ctx context.Context, code string) (*domain.Product, error) {
	page, err := c.Search(ctx, code, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, ErrNotFound
	}
	product := page.Items[0]
	return &product, nil
}
