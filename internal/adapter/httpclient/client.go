// Package httpclient is the data source of the shop client backed
// by the storefront REST API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.DataSource = (*Client)(nil)

const defaultTimeout = 10 * time.Second

type Opt func(*Client)

func WithHTTPClient(hc *http.Client) Opt {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout bounds every request, including reading the response.
func WithTimeout(d time.Duration) Opt {
	return func(c *Client) {
		hc := *c.hc
		hc.Timeout = d
		c.hc = &hc
	}
}

// WithToken sends the session token with every request.
func WithToken(token string) Opt {
	return func(c *Client) {
		c.token = token
	}
}

// WithRetry sets the attempts of idempotent requests failing
// with [domain.ErrUnavailable].
func WithRetry(maxAttempts int, backoff retry.Backoff) Opt {
	return func(c *Client) {
		c.retry.MaxAttempts = maxAttempts
		c.retry.Backoff = backoff
	}
}

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	token   string
	retry   retry.RetryConfig
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "httpclient.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, u.Scheme)
	}

	c := &Client{
		baseURL: u,
		hc:      &http.Client{Timeout: defaultTimeout},
		retry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, domain.ErrUnavailable)
	}
	return c, nil
}

func (c *Client) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) (domain.ProductPage, error) {
	const op = "Client.ListProducts"

	params := url.Values{}
	if q.Page != 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize != 0 {
		params.Set("limit", strconv.Itoa(q.PageSize))
	}
	if q.SearchTerm != "" {
		params.Set("q", q.SearchTerm)
	}
	if !q.Category.IsAll() {
		params.Set("category", string(q.Category))
	}
	if q.SortField != "" {
		params.Set("sort", string(q.SortField))
	}
	if q.SortOrder != "" {
		params.Set("order", string(q.SortOrder))
	}

	var (
		vs     []httphandler.Product
		header http.Header
	)
	err := retry.Do(ctx, c.retry, func() error {
		var err error
		header, err = c.do(ctx, http.MethodGet, "/v1/products", params, nil, &vs)
		return err
	})
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	total, err := strconv.Atoi(header.Get(httphandler.TotalCountHeader))
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf(
			"%s: invalid %s header: %w", op, httphandler.TotalCountHeader, domain.ErrUnavailable,
		)
	}

	page := domain.ProductPage{
		Products:   make([]domain.Product, len(vs)),
		TotalCount: total,
	}
	for i, v := range vs {
		page.Products[i] = v.ToDomain()
	}
	return page, nil
}

func (c *Client) GetProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Client.GetProduct"

	if productID == "" {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var v httphandler.Product
	err := retry.Do(ctx, c.retry, func() error {
		_, err := c.do(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(productID), nil, nil, &v)
		return err
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v.ToDomain(), nil
}

// CreateOrder is not retried, a repeated request could place the order twice.
func (c *Client) CreateOrder(
	ctx context.Context, d domain.OrderDraft,
) (domain.Order, error) {
	const op = "Client.CreateOrder"

	var v httphandler.Order
	_, err := c.do(ctx, http.MethodPost, "/v1/orders", nil, httphandler.DraftFromDomain(d), &v)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return v.ToDomain(), nil
}

func (c *Client) ListOrdersByUser(
	ctx context.Context, userID string,
) ([]domain.Order, error) {
	const op = "Client.ListOrdersByUser"

	if c.token == "" || userID == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	var vs []httphandler.Order
	err := retry.Do(ctx, c.retry, func() error {
		_, err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID)+"/orders", nil, nil, &vs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders := make([]domain.Order, len(vs))
	for i, v := range vs {
		orders[i] = v.ToDomain()
	}
	return orders, nil
}

func (c *Client) Login(
	ctx context.Context, email, password string,
) (domain.Session, error) {
	const op = "Client.Login"

	var v httphandler.Session
	req := httphandler.LoginRequest{Email: email, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/v1/login", nil, req, &v); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.Session{User: v.User.ToDomain(), Token: v.Token}, nil
}

func (c *Client) do(
	ctx context.Context, method, path string, params url.Values, body, out any,
) (http.Header, error) {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = params.Encode()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, responseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: malformed response: %w", domain.ErrUnavailable, err)
		}
	}
	return resp.Header, nil
}

// responseError maps the response status back to the error taxonomy.
func responseError(resp *http.Response) error {
	var body httphandler.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		verr := &domain.ValidationError{}
		for _, f := range body.Fields {
			verr.Add(f.Field, f.Message)
		}
		if len(verr.Fields) == 0 {
			return fmt.Errorf("%s: %w", resp.Status, domain.ErrValidationFailed)
		}
		return verr
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", resp.Status, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", resp.Status, domain.ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", resp.Status, domain.ErrUnavailable)
}
