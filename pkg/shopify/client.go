// Package shopify pages storefront orders over the Admin GraphQL API and
// aggregates them into daily sales totals.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/sales-sync/pkg/app/errors"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

const ordersQuery = `query Orders($first: Int!, $after: String, $query: String) {
  orders(first: $first, after: $after, query: $query, sortKey: CREATED_AT) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        name
        createdAt
        cancelReason
        test
        currentTotalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
      }
    }
  }
}`

// ErrResolveUnsupported is returned by Resolve; orders carry no linked lists.
var ErrResolveUnsupported = errors.New("shopify: resolve is not supported")

// Client is a cursor-paginated order source.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger
}

var _ syncer.Source = (*Client)(nil)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// New creates a new Shopify client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid shopify config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.Store, cfg.APIVersion)
	}

	s := applyOptions(cfg, opts)
	return &Client{
		cfg:        cfg,
		endpoint:   endpoint,
		httpClient: s.httpClient,
		limiter:    s.limiter,
		logger:     s.logger,
	}, nil
}

// ListPage fetches one page of orders created inside req.Window.
func (c *Client) ListPage(ctx context.Context, req syncer.PageRequest) (*syncer.Page, error) {
	vars := map[string]any{"first": req.Limit}
	if req.Cursor != "" {
		vars["after"] = req.Cursor
	}
	if !req.Window.IsZero() {
		vars["query"] = SearchQuery(req.Window)
	}

	body, err := json.Marshal(graphQLRequest{Query: ordersQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if errs := gjson.GetBytes(resp, "errors"); errs.Exists() && len(errs.Array()) > 0 {
		msgs := make([]string, 0, len(errs.Array()))
		for _, e := range errs.Array() {
			msgs = append(msgs, e.Get("message").String())
		}
		status := http.StatusBadGateway
		if gjson.GetBytes(resp, `errors.#(extensions.code=="THROTTLED")`).Exists() {
			status = http.StatusTooManyRequests
		}
		return nil, apperrors.DependencyError(
			fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")), status, "list orders")
	}

	orders := gjson.GetBytes(resp, "data.orders")
	if !orders.Exists() {
		return nil, fmt.Errorf("list orders: response has no data.orders")
	}

	hasMore := orders.Get("pageInfo.hasNextPage").Bool()
	page := &syncer.Page{
		Items:   orders.Get("edges.#.node").Array(),
		HasMore: &hasMore,
	}
	if hasMore {
		page.NextCursor = orders.Get("pageInfo.endCursor").String()
	}

	c.logger.Debug("shopify page",
		zap.Int("orders", len(page.Items)),
		zap.Bool("has_next_page", hasMore),
	)
	return page, nil
}

// Resolve is not supported by the order source.
func (c *Client) Resolve(context.Context, string) ([]gjson.Result, error) {
	return nil, ErrResolveUnsupported
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	c.limiter.Take()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NetworkError(err, "list orders")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.DependencyError(syncer.NewStatusError(resp.StatusCode, b), resp.StatusCode, "list orders")
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NetworkError(err, "list orders: read body")
	}
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("list orders: malformed response body")
	}
	return out, nil
}

// SearchQuery renders a window as an order search filter.
func SearchQuery(w syncer.Window) string {
	return fmt.Sprintf("created_at:>=%s created_at:<%s",
		w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
