package bankfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/warungpay/qrispay/pkg/config"
)

// Client talks to the banking-aggregator HTTP API. Access tokens are passed
// per call because each configured bank account carries its own token; the
// client itself holds no mutable credential state.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	timeout := time.Duration(cfg.Bankfeed.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.Bankfeed.BaseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, token, path, query, out)
}

func (c *Client) do(ctx context.Context, method, token, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("bankfeed: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bankfeed: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bankfeed: %s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bankfeed: decode %s response: %w", path, err)
	}
	return nil
}

// Accounts lists the bank accounts connected to the aggregator.
func (c *Client) Accounts(ctx context.Context, token string) ([]Account, error) {
	var env listEnvelope[Account]
	if err := c.get(ctx, token, "/bank", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Refresh asks the aggregator to pull fresh mutations for the account. It is
// best-effort; callers treat failures as "feed may be stale", not fatal.
func (c *Client) Refresh(ctx context.Context, token, bankAccountID string) error {
	return c.do(ctx, http.MethodPost, token, "/bank/"+url.PathEscape(bankAccountID)+"/refresh", nil, nil)
}

// SearchMutations returns mutations on the account whose amount equals the
// given value exactly.
func (c *Client) SearchMutations(ctx context.Context, token, bankAccountID string, amount int64) ([]Mutation, error) {
	path := "/bank/" + url.PathEscape(bankAccountID) + "/mutation/search/" + strconv.FormatInt(amount, 10)
	var env listEnvelope[Mutation]
	if err := c.get(ctx, token, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Mutations lists mutations with the generic filter endpoint.
func (c *Client) Mutations(ctx context.Context, token string, q MutationQuery) ([]Mutation, error) {
	query := url.Values{}
	if q.BankAccountID != "" {
		query.Set("bank", q.BankAccountID)
	}
	if q.Type != "" {
		query.Set("type", string(q.Type))
	}
	if q.Amount > 0 {
		query.Set("amount", strconv.FormatInt(q.Amount, 10))
	}
	if q.StartDate != nil {
		query.Set("start_date", q.StartDate.Format("2006-01-02"))
	}
	if q.EndDate != nil {
		query.Set("end_date", q.EndDate.Format("2006-01-02"))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(q.PageSize))
	}
	var env listEnvelope[Mutation]
	if err := c.get(ctx, token, "/mutation", query, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
