// Package catalog talks to a remote product service over REST.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

var ErrNotFound = errors.New("not found")

const defaultTimeout = 5 * time.Second

// HTTPClient serves both product lookups and stock lookups from one base URL:
//
//	GET {base}/products/{id}
//	GET {base}/stock/{id}
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client for baseURL. A zero timeout uses the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product
	if err := c.getJSON(ctx, "/products/"+strconv.FormatInt(productID, 10), &p); err != nil {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, err)
	}
	return p, nil
}

func (c *HTTPClient) GetStock(ctx context.Context, productID int64) (domain.StockLevel, error) {
	var level domain.StockLevel
	if err := c.getJSON(ctx, "/stock/"+strconv.FormatInt(productID, 10), &level); err != nil {
		return domain.StockLevel{}, fmt.Errorf("stock %d: %w", productID, err)
	}
	return level, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
