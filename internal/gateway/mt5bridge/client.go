// Package mt5bridge talks to the MT5 bridge sidecar, a small REST service
// in front of the broker terminal. It is the only production implementation
// of venue.Gateway.
package mt5bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sbconfig "sigbridge/internal/config"
	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/signal"
)

// Client wraps the bridge REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
}

// NewClient constructs a bridge client from configuration.
func NewClient(cfg sbconfig.VenueConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.APIURL)
	if raw == "" {
		return nil, fmt.Errorf("venue.api_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing venue.api_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		token:      strings.TrimSpace(cfg.APIToken),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

type symbolInfoResponse struct {
	Symbol       string  `json:"symbol"`
	Digits       int     `json:"digits"`
	ContractSize float64 `json:"contract_size"`
	MinVolume    float64 `json:"min_volume"`
	MaxVolume    float64 `json:"max_volume"`
	Visible      bool    `json:"visible"`
}

type tickResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type orderPayload struct {
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	Deviation  int     `json:"deviation,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
}

type closePayload struct {
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
	Action string  `json:"action"`
	Price  float64 `json:"price,omitempty"`
}

type stopsPayload struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

type positionResponse struct {
	OrderID    string  `json:"order_id"`
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Volume     float64 `json:"volume"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// SymbolInfo implements venue.Gateway.
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (venue.SymbolInfo, error) {
	var resp symbolInfoResponse
	err := c.doRequest(ctx, http.MethodGet, "/symbols/"+url.PathEscape(symbol), nil, &resp)
	if err != nil {
		return venue.SymbolInfo{}, mapStatus(err, venue.ErrSymbolNotFound, "symbol info")
	}
	return venue.SymbolInfo{
		Symbol:       resp.Symbol,
		Digits:       resp.Digits,
		ContractSize: resp.ContractSize,
		MinVolume:    resp.MinVolume,
		MaxVolume:    resp.MaxVolume,
		Visible:      resp.Visible,
	}, nil
}

// EnsureVisible implements venue.Gateway.
func (c *Client) EnsureVisible(ctx context.Context, symbol string) error {
	err := c.doRequest(ctx, http.MethodPost, "/symbols/"+url.PathEscape(symbol)+"/select", nil, nil)
	return mapStatus(err, venue.ErrSymbolNotFound, "symbol select")
}

// Quote implements venue.Gateway.
func (c *Client) Quote(ctx context.Context, symbol string) (venue.Quote, error) {
	var resp tickResponse
	err := c.doRequest(ctx, http.MethodGet, "/ticks/"+url.PathEscape(symbol), nil, &resp)
	if err != nil {
		return venue.Quote{}, mapStatus(err, venue.ErrQuoteUnavailable, "quote")
	}
	if resp.Bid <= 0 && resp.Ask <= 0 {
		return venue.Quote{}, fmt.Errorf("quote %s: %w", symbol, venue.ErrQuoteUnavailable)
	}
	return venue.Quote{Symbol: resp.Symbol, Bid: resp.Bid, Ask: resp.Ask}, nil
}

// SubmitOrder implements venue.Gateway.
func (c *Client) SubmitOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderTicket, error) {
	payload := orderPayload{
		Action:     string(req.Action),
		Symbol:     req.Symbol,
		Volume:     req.Volume,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Deviation:  req.SlippagePoints,
		Comment:    req.Tag,
	}
	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/orders", payload, &resp); err != nil {
		return venue.OrderTicket{}, mapStatus(err, nil, "order")
	}
	if resp.OrderID == "" {
		return venue.OrderTicket{}, fmt.Errorf("bridge did not return an order_id")
	}
	return venue.OrderTicket{OrderID: resp.OrderID}, nil
}

// ClosePartial implements venue.Gateway.
func (c *Client) ClosePartial(ctx context.Context, req venue.CloseRequest) error {
	payload := closePayload{
		Symbol: req.Symbol,
		Volume: req.Volume,
		Action: string(req.Action),
		Price:  req.Price,
	}
	err := c.doRequest(ctx, http.MethodPost, "/positions/"+url.PathEscape(req.OrderID)+"/close", payload, nil)
	return mapStatus(err, venue.ErrPositionNotFound, "close")
}

// ModifyStops implements venue.Gateway.
func (c *Client) ModifyStops(ctx context.Context, orderID string, stopLoss, takeProfit float64) error {
	payload := stopsPayload{StopLoss: stopLoss, TakeProfit: takeProfit}
	err := c.doRequest(ctx, http.MethodPut, "/positions/"+url.PathEscape(orderID)+"/stops", payload, nil)
	return mapStatus(err, venue.ErrPositionNotFound, "modify stops")
}

// QueryPosition implements venue.Gateway.
func (c *Client) QueryPosition(ctx context.Context, orderID string) (venue.PositionSnapshot, error) {
	var resp positionResponse
	err := c.doRequest(ctx, http.MethodGet, "/positions/"+url.PathEscape(orderID), nil, &resp)
	if err != nil {
		return venue.PositionSnapshot{}, mapStatus(err, venue.ErrPositionNotFound, "position")
	}
	return venue.PositionSnapshot{
		OrderID:    resp.OrderID,
		Symbol:     resp.Symbol,
		Action:     signal.Action(resp.Action),
		Volume:     resp.Volume,
		EntryPrice: resp.EntryPrice,
		StopLoss:   resp.StopLoss,
		TakeProfit: resp.TakeProfit,
	}, nil
}

// apiError is a non-2xx bridge response.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("bridge returned %d: %s", e.status, e.message)
}

// mapStatus translates bridge status codes onto the venue error taxonomy.
// notFound, when non-nil, is the sentinel a 404 stands for in this call's
// context. 409 and 422 carry an explicit refusal from the terminal.
func mapStatus(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	ae, ok := err.(*apiError)
	if !ok {
		return err
	}
	switch ae.status {
	case http.StatusNotFound:
		if notFound != nil {
			return fmt.Errorf("%s: %w", op, notFound)
		}
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return venue.Rejected(op, ae.message)
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("bridge client not initialized")
	}
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request failed: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling bridge failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{status: resp.StatusCode, message: decodeErrorMessage(data, resp.Status)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding bridge response failed: %w", err)
	}
	return nil
}

func decodeErrorMessage(data []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return fallback
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("bridge API address not set")
	}
	trimmed := strings.TrimSpace(path)
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	base := *c.baseURL
	base.Path = strings.TrimSuffix(base.Path, "/") + trimmed
	base.RawPath = ""
	base.Fragment = ""
	return &base, nil
}
