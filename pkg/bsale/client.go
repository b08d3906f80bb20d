// Package bsale implements a page source over the Bsale REST API.
package bsale

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/sales-sync/pkg/app/errors"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

const tokenHeader = "access_token"

// Client fetches list pages and linked resources from Bsale.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger
}

var _ syncer.Source = (*Client)(nil)

// New creates a new Bsale client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid bsale config: %w", err)
	}

	s := applyOptions(cfg, opts)
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: s.httpClient,
		limiter:    s.limiter,
		logger:     s.logger,
	}, nil
}

// ListPage fetches one offset page of req.Spec.Endpoint. Windowed specs get
// the window rendered into their date range parameter.
func (c *Client) ListPage(ctx context.Context, req syncer.PageRequest) (*syncer.Page, error) {
	q := url.Values{}
	for k, v := range req.Spec.Params {
		q.Set(k, v)
	}
	if req.Spec.Windowed() {
		q.Set(req.Spec.DateParam, req.Window.Param())
	}
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("offset", strconv.Itoa(req.Offset))

	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, req.Spec.Endpoint, q.Encode())

	body, err := c.get(ctx, u, "list "+req.Spec.Endpoint)
	if err != nil {
		return nil, err
	}
	items, err := itemsOf(body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", req.Spec.Endpoint, err)
	}

	c.logger.Debug("bsale page",
		zap.String("endpoint", req.Spec.Endpoint),
		zap.Int("offset", req.Offset),
		zap.Int("items", len(items)),
	)
	return &syncer.Page{Items: items}, nil
}

// Resolve fetches the item list behind an absolute href returned by the API.
func (c *Client) Resolve(ctx context.Context, href string) ([]gjson.Result, error) {
	body, err := c.get(ctx, href, "resolve")
	if err != nil {
		return nil, err
	}
	items, err := itemsOf(body)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", href, err)
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, u, op string) ([]byte, error) {
	c.limiter.Take()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	httpReq.Header.Set(tokenHeader, c.cfg.AccessToken)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NetworkError(err, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.DependencyError(syncer.NewStatusError(resp.StatusCode, b), resp.StatusCode, op)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NetworkError(err, op+": read body")
	}
	return body, nil
}

func itemsOf(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed response body")
	}
	return gjson.GetBytes(body, "items").Array(), nil
}
