package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/observability"
	"partner-edge/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// maxErrorBody caps how much of an upstream error body is kept for diagnostics.
const maxErrorBody = 64 << 10

type client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewClient creates the partner REST API adapter
func NewClient(baseURL string, httpClient *http.Client, metrics *observability.Metrics, logger zerolog.Logger) ports.PartnerAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *client) GetAccount(ctx context.Context, token *oauth2.Token, accountID string) (*domain.PartnerAccount, error) {
	var account domain.PartnerAccount
	path := "/accounts/" + url.PathEscape(accountID)
	if err := c.do(ctx, token, "get_account", http.MethodGet, path, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *client) PutCatalog(ctx context.Context, token *oauth2.Token, locationID string, catalog *domain.Catalog) error {
	path := "/catalogs/" + url.PathEscape(locationID)
	return c.do(ctx, token, "put_catalog", http.MethodPut, path, catalog, nil)
}

func (c *client) UpdateOrder(ctx context.Context, token *oauth2.Token, orderID string, update domain.OrderStatusUpdate) error {
	path := "/orders/" + url.PathEscape(orderID)
	return c.do(ctx, token, "update_order", http.MethodPatch, path, update, nil)
}

func (c *client) CreateCallback(ctx context.Context, token *oauth2.Token, locationID, callbackURL string, events []string) error {
	path := "/locations/" + url.PathEscape(locationID) + "/callbacks"
	body := map[string]any{"url": callbackURL, "events": events}
	return c.do(ctx, token, "create_callback", http.MethodPost, path, body, nil)
}

// do sends an authenticated JSON request. Non-2xx responses become upstream errors carrying the body.
func (c *client) do(ctx context.Context, token *oauth2.Token, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.PartnerRequest(op, "error")
		return domain.NewUpstreamError(failureMessage(op), "", err)
	}
	defer resp.Body.Close()

	c.metrics.PartnerRequest(op, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn().
			Str("operation", op).
			Int("status", resp.StatusCode).
			Str("body", string(raw)).
			Msg("Partner API returned an error")
		return domain.NewUpstreamError(failureMessage(op), string(raw), fmt.Errorf("partner returned status %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUpstreamError(failureMessage(op), "", fmt.Errorf("failed to decode %s response: %w", op, err))
	}
	return nil
}

func failureMessage(op string) string {
	switch op {
	case "get_account":
		return "Failed to get account info"
	case "put_catalog":
		return "Menu sync failed"
	case "update_order":
		return "Order update failed"
	case "create_callback":
		return "Callback creation failed"
	default:
		return "Partner request failed"
	}
}
