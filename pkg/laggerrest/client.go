// Package laggerrest is the signed REST client for the lagger (target)
// venue: HMAC-SHA256 request signing, retry/backoff, and the order/position
// REST surface. Grounded on the teacher's
// pkg/exchanges/binance/futures_usdt/client.go doSigned() pattern, adapted
// from query-string HMAC to the lagger venue's METHOD+ts+path+query+body
// pre-hash and from Binance's unsigned-error-passthrough to the venue's
// {success,result,error} envelope.
package laggerrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"execution-core/internal/domain"

	"golang.org/x/time/rate"
)

// Config holds lagger venue credentials and endpoint.
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string // e.g. https://api.lagger.example/v2
	HTTPClient *http.Client
}

// Client issues signed REST requests against the lagger venue.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
}

// errOpenOrderNotFound is the venue error code treated as a successful
// cancellation race per the spec's 4xx-during-cancel rule.
const errOpenOrderNotFound = "open_order_not_found"

// NewClient builds a Client. The limiter paces outbound requests; callers
// configure its rate from venue-documented request budgets.
func NewClient(cfg Config, limiter *rate.Limiter) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(10), 20)
	}
	return &Client{cfg: cfg, limiter: limiter}
}

// APIError carries the venue's structured error body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("laggerrest: status %d code=%q: %s", e.StatusCode, e.Code, e.Message)
}

// PlaceOrder submits an OrderIntent and returns the venue's acknowledgement.
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent, productID int) (domain.OrderAck, error) {
	body := orderRequestBody{
		ProductID:     productID,
		Size:          intent.Size,
		Side:          toWireSide(intent.Side),
		OrderType:     toWireOrderType(intent.Kind),
		ReduceOnly:    intent.ReduceOnly,
		TimeInForce:   string(intent.TimeInForce),
		ClientOrderID: intent.ClientOrderID,
	}
	if intent.Kind == domain.OrderLimit {
		body.LimitPrice = &intent.Price
		if intent.TimeInForce == domain.TIFPostOnly {
			body.PostOnly = true
		}
	}
	if intent.Kind == domain.OrderStopMarket {
		body.StopPrice = &intent.StopPrice
		body.StopOrderType = "stop_loss_order"
	}
	if intent.Kind == domain.OrderTrailingStop {
		body.TrailAmount = &intent.TrailAmount
	}
	if intent.Bracket != nil {
		if intent.Bracket.TakeProfitPrice != 0 {
			body.BracketTakeProfitPrice = &intent.Bracket.TakeProfitPrice
		}
		if intent.Bracket.StopLossPrice != 0 {
			body.BracketStopLossPrice = &intent.Bracket.StopLossPrice
		}
		if intent.Bracket.TrailAmount != 0 {
			body.BracketTrailAmount = &intent.Bracket.TrailAmount
		}
		body.BracketStopTriggerMethod = toWireTriggerMethod(intent.Bracket.Trigger)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("laggerrest: marshal order body: %w", err)
	}

	raw, err := c.doSigned(ctx, http.MethodPost, "/orders", nil, payload)
	if err != nil {
		return domain.OrderAck{}, err
	}
	var result orderResponseResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.OrderAck{}, fmt.Errorf("laggerrest: decode order ack: %w", err)
	}
	return domain.OrderAck{
		ExchangeOrderID: result.ID,
		ClientOrderID:   result.ClientOrderID,
		Status:          result.State,
	}, nil
}

// CancelOrdersBatch cancels exchangeIDs in chunks of at most 20, the venue's
// batch-size limit.
func (c *Client) CancelOrdersBatch(ctx context.Context, productID int, exchangeIDs []string) error {
	for _, chunk := range chunkStrings(exchangeIDs, 20) {
		if err := c.cancelBatchOnce(ctx, productID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) cancelBatchOnce(ctx context.Context, productID int, ids []string) error {
	type orderRef struct {
		ID string `json:"id"`
	}
	body := struct {
		ProductID int        `json:"product_id"`
		Orders    []orderRef `json:"orders"`
	}{ProductID: productID}
	for _, id := range ids {
		body.Orders = append(body.Orders, orderRef{ID: id})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("laggerrest: marshal cancel batch: %w", err)
	}
	_, err = c.doSigned(ctx, http.MethodDelete, "/orders/batch", nil, payload)
	if apiErr, ok := err.(*APIError); ok && apiErr.Code == errOpenOrderNotFound {
		return nil
	}
	return err
}

// ListLiveOrders lists orders in the given states (default open+pending).
func (c *Client) ListLiveOrders(ctx context.Context, productID int, states ...string) ([]domain.ManagedOrder, error) {
	if len(states) == 0 {
		states = []string{"open", "pending"}
	}
	query := []queryParam{
		{"product_id", fmt.Sprintf("%d", productID)},
		{"states", joinComma(states)},
	}
	raw, err := c.doSigned(ctx, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}
	var wire []wireOrder
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("laggerrest: decode live orders: %w", err)
	}
	out := make([]domain.ManagedOrder, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.ManagedOrder{
			ExchangeID:          w.ID,
			ClientOrderID:       w.ClientOrderID,
			ParentClientOrderID: w.ParentClientOrderID,
			State:               toWireState(w.State),
		})
	}
	return out, nil
}

// CancelAll composes list_live_orders and cancel_orders_batch; it swallows
// the open_order_not_found race and is idempotent (an empty live-orders list
// is a successful no-op).
func (c *Client) CancelAll(ctx context.Context, productID int) error {
	live, err := c.ListLiveOrders(ctx, productID)
	if err != nil {
		return err
	}
	if len(live) == 0 {
		return nil
	}
	ids := make([]string, 0, len(live))
	for _, o := range live {
		ids = append(ids, o.ExchangeID)
	}
	return c.CancelOrdersBatch(ctx, productID, ids)
}

// GetPositions returns the venue's current positions, used for startup and
// state-correction reconciliation.
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	raw, err := c.doSigned(ctx, http.MethodGet, "/positions/margined", nil, nil)
	if err != nil {
		return nil, err
	}
	var wire []wirePosition
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("laggerrest: decode positions: %w", err)
	}
	out := make([]domain.Position, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Position{
			Asset:         w.ProductSymbol,
			Size:          w.Size,
			AvgEntryPrice: w.EntryPrice,
			LastUpdate:    time.Now(),
		})
	}
	return out, nil
}

// SetLeverage is only called at startup.
func (c *Client) SetLeverage(ctx context.Context, productID int, leverage float64) error {
	path := fmt.Sprintf("/products/%d/orders/leverage", productID)
	payload, err := json.Marshal(struct {
		Leverage float64 `json:"leverage"`
	}{leverage})
	if err != nil {
		return fmt.Errorf("laggerrest: marshal leverage: %w", err)
	}
	_, err = c.doSigned(ctx, http.MethodPost, path, nil, payload)
	return err
}

// SetCancelOnDisconnect informs the venue to auto-cancel open orders if this
// client drops for longer than timeout.
func (c *Client) SetCancelOnDisconnect(ctx context.Context, timeout time.Duration) error {
	payload, err := json.Marshal(struct {
		CancelAfter int `json:"cancel_after"`
	}{int(timeout.Seconds())})
	if err != nil {
		return fmt.Errorf("laggerrest: marshal cancel_after: %w", err)
	}
	_, err = c.doSigned(ctx, http.MethodPost, "/orders/cancel_after", nil, payload)
	return err
}

// doSigned issues one signed request, retrying on 5xx/406 with exponential
// backoff (500ms*2^(attempt-1), up to 3 attempts total). A transport failure
// or an unreadable response body is retried the same way. All other errors
// surface immediately with the venue's JSON error body attached.
func (c *Client) doSigned(ctx context.Context, method, path string, query []queryParam, body []byte) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("laggerrest: rate limit wait: %w", err)
		}

		raw, retryable, err := c.doSignedOnce(ctx, method, path, query, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || attempt == 3 {
			return nil, lastErr
		}

		backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) doSignedOnce(ctx context.Context, method, path string, query []queryParam, body []byte) (raw json.RawMessage, retryable bool, err error) {
	now := time.Now().Unix()
	qs := canonicalQuery(query)
	preHash := preHashString(method, now, path, qs, body)
	signature := sign(c.cfg.APISecret, preHash)

	url := c.cfg.BaseURL + path
	if qs != "" {
		url += "?" + qs
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("laggerrest: build request: %w", err)
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("timestamp", fmt.Sprintf("%d", now))
	req.Header.Set("signature", signature)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("laggerrest: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, fmt.Errorf("laggerrest: read response: %w", err)
	}

	if res.StatusCode >= 300 {
		var env envelope
		code, msg := "", string(respBody)
		if json.Unmarshal(respBody, &env) == nil && env.Error != nil {
			code = env.Error.Code
			msg = env.Error.Message
		}
		apiErr := &APIError{StatusCode: res.StatusCode, Code: code, Message: msg}
		retryable := res.StatusCode >= 500 || res.StatusCode == 406
		return nil, retryable, apiErr
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, false, fmt.Errorf("laggerrest: decode envelope: %w", err)
	}
	if !env.Success {
		code, msg := "", ""
		if env.Error != nil {
			code, msg = env.Error.Code, env.Error.Message
		}
		return nil, false, &APIError{StatusCode: res.StatusCode, Code: code, Message: msg}
	}
	return env.Result, false, nil
}

func chunkStrings(in []string, size int) [][]string {
	var out [][]string
	for len(in) > 0 {
		n := size
		if n > len(in) {
			n = len(in)
		}
		out = append(out, in[:n])
		in = in[n:]
	}
	return out
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
