// Package mt5 talks to a MetaTrader 5 terminal through its HTTP bridge. It is
// the single production implementation of the broker interface; everything
// terminal-specific (return codes, comment encoding, deal aggregation) stays
// in here.
package mt5

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

	"mt5bot/internal/broker"
	"mt5bot/internal/market"
	"mt5bot/internal/types"

	"github.com/tidwall/gjson"
)

// tradeRetcodeDone is the terminal's "request completed" code. It never
// leaves this package: callers only see OrderResult.Success.
const tradeRetcodeDone = 10009

// accountCurrency is the deposit currency profit conversions target.
const accountCurrency = "USD"

type Config struct {
	APIURL         string
	TimeoutSeconds int
	Login          int64
	Server         string
	Password       string
	// DeltaTimezone shifts terminal timestamps into the local clock, in
	// hours.
	DeltaTimezone int
}

// Client implements broker.Broker over the bridge's REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	login      int64
	server     string
	password   string
	deltaTZ    time.Duration
}

var _ broker.Broker = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.APIURL)
	if raw == "" {
		return nil, fmt.Errorf("mt5: broker.api_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("mt5: parsing broker.api_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		login:      cfg.Login,
		server:     cfg.Server,
		password:   cfg.Password,
		deltaTZ:    time.Duration(cfg.DeltaTimezone) * time.Hour,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) Connect(ctx context.Context) error {
	payload := map[string]any{
		"login":    c.login,
		"server":   c.server,
		"password": c.password,
	}
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/connect", payload, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("mt5: initialize failed: %s", out.Error)
	}
	return nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/shutdown", nil, nil)
}

type positionPayload struct {
	Symbol    string  `json:"symbol"`
	Ticket    int64   `json:"ticket"`
	Time      int64   `json:"time"`
	PriceOpen float64 `json:"price_open"`
	Type      int     `json:"type"`
	Volume    float64 `json:"volume"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Magic     int64   `json:"magic"`
	Profit    float64 `json:"profit"`
	Comment   string  `json:"comment"`
}

func (c *Client) Positions(ctx context.Context) ([]types.Position, error) {
	var out struct {
		Positions []positionPayload `json:"positions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/positions", nil, &out); err != nil {
		return nil, err
	}
	positions := make([]types.Position, 0, len(out.Positions))
	for _, p := range out.Positions {
		positions = append(positions, c.toPosition(p))
	}
	return positions, nil
}

func (c *Client) Position(ctx context.Context, ticket int64) (types.Position, error) {
	positions, err := c.Positions(ctx)
	if err != nil {
		return types.Position{}, err
	}
	for _, p := range positions {
		if p.Ticket == ticket {
			return p, nil
		}
	}
	return types.Position{}, broker.ErrPositionNotFound
}

func (c *Client) toPosition(p positionPayload) types.Position {
	strategy, timeframe := splitComment(p.Comment)
	posType := types.Buy
	if p.Type == 1 {
		posType = types.Sell
	}
	return types.Position{
		Symbol:     p.Symbol,
		Timeframe:  timeframe,
		Strategy:   strategy,
		Ticket:     p.Ticket,
		OpenTime:   c.formatTimestamp(p.Time),
		OpenPrice:  p.PriceOpen,
		Volume:     p.Volume,
		Type:       posType,
		StopLoss:   p.SL,
		TakeProfit: p.TP,
		Magic:      p.Magic,
		Profit:     p.Profit,
	}
}

type orderPayload struct {
	Symbol         string  `json:"symbol"`
	Ticket         int64   `json:"ticket"`
	TimeSetup      int64   `json:"time_setup"`
	Type           string  `json:"type"`
	VolumeCurrent  float64 `json:"volume_current"`
	PriceOpen      float64 `json:"price_open"`
	PriceStopLimit float64 `json:"price_stoplimit"`
	SL             float64 `json:"sl"`
	TP             float64 `json:"tp"`
	Magic          int64   `json:"magic"`
	Comment        string  `json:"comment"`
	Pending        bool    `json:"pending"`
}

func (c *Client) Orders(ctx context.Context) ([]types.PendingOrder, error) {
	var out struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	orders := make([]types.PendingOrder, 0, len(out.Orders))
	for _, o := range out.Orders {
		if !o.Pending {
			continue
		}
		strategy, timeframe := splitComment(o.Comment)
		orders = append(orders, types.PendingOrder{
			Symbol:     o.Symbol,
			Timeframe:  timeframe,
			Strategy:   strategy,
			Ticket:     o.Ticket,
			PlacedTime: c.formatTimestamp(o.TimeSetup),
			Price:      o.PriceOpen,
			StopLimit:  o.PriceStopLimit,
			Volume:     o.VolumeCurrent,
			Type:       types.OrderType(o.Type),
			StopLoss:   o.SL,
			TakeProfit: o.TP,
			Magic:      o.Magic,
		})
	}
	return orders, nil
}

type candlePayload struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Spread float64 `json:"spread"`
	Digits int     `json:"digits"`
}

func (c *Client) Candles(ctx context.Context, symbol string, tf types.Timeframe, count int) (market.Series, error) {
	path := fmt.Sprintf("/candles?symbol=%s&timeframe=%s&count=%d", url.QueryEscape(symbol), tf, count)
	var out struct {
		Candles []candlePayload `json:"candles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	series := make(market.Series, 0, len(out.Candles))
	for _, k := range out.Candles {
		series = append(series, market.Candle{
			Time:   time.Unix(k.Time, 0).Add(c.deltaTZ),
			Open:   k.Open,
			High:   k.High,
			Low:    k.Low,
			Close:  k.Close,
			Spread: k.Spread,
			Digits: k.Digits,
		})
	}
	return series, nil
}

type attributesPayload struct {
	Symbol         string  `json:"symbol"`
	Ask            float64 `json:"ask"`
	Bid            float64 `json:"bid"`
	Digits         int     `json:"digits"`
	TickSize       float64 `json:"trade_tick_size"`
	ContractSize   float64 `json:"trade_contract_size"`
	CurrencyBase   string  `json:"currency_base"`
	CurrencyProfit string  `json:"currency_profit"`
	VolumeMin      float64 `json:"volume_min"`
	VolumeMax      float64 `json:"volume_max"`
	VolumeStep     float64 `json:"volume_step"`
}

func (c *Client) SymbolAttributes(ctx context.Context, symbol string) (types.SymbolAttributes, error) {
	attrs, err := c.symbolInfo(ctx, symbol)
	if err != nil {
		return types.SymbolAttributes{}, err
	}
	converter, err := c.profitConverter(ctx, attrs.CurrencyProfit)
	if err != nil {
		return types.SymbolAttributes{}, err
	}
	return types.SymbolAttributes{
		Symbol:          symbol,
		Bid:             attrs.Bid,
		Ask:             attrs.Ask,
		Spread:          attrs.Ask - attrs.Bid,
		Digits:          attrs.Digits,
		TickSize:        attrs.TickSize,
		ContractSize:    attrs.ContractSize,
		CurrencyBase:    attrs.CurrencyBase,
		CurrencyProfit:  attrs.CurrencyProfit,
		ProfitConverter: converter,
		VolumeMin:       attrs.VolumeMin,
		VolumeMax:       attrs.VolumeMax,
		VolumeStep:      attrs.VolumeStep,
	}, nil
}

func (c *Client) symbolInfo(ctx context.Context, symbol string) (attributesPayload, error) {
	var out attributesPayload
	path := "/symbol?name=" + url.QueryEscape(symbol)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return attributesPayload{}, err
	}
	return out, nil
}

// profitConverter prices one unit of the profit currency in the account
// currency: 1.0 for same-currency pairs, otherwise derived from whichever of
// the two USD crosses the terminal quotes.
func (c *Client) profitConverter(ctx context.Context, currencyProfit string) (float64, error) {
	if currencyProfit == accountCurrency {
		return 1.0, nil
	}
	if info, err := c.symbolInfo(ctx, accountCurrency+currencyProfit); err == nil && info.Ask > 0 {
		return info.Ask, nil
	}
	if info, err := c.symbolInfo(ctx, currencyProfit+accountCurrency); err == nil && info.Ask > 0 {
		return 1 / info.Ask, nil
	}
	return 0, fmt.Errorf("mt5: no %s conversion pair for %s", accountCurrency, currencyProfit)
}

type dealPayload struct {
	Time       int64   `json:"time"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	Fee        float64 `json:"fee"`
	Profit     float64 `json:"profit"`
}

// TradeOutcome aggregates all deals of a ticket: money fields are summed over
// partial fills, open data comes from the earliest deal and close data from
// the latest when the ticket has more than one.
func (c *Client) TradeOutcome(ctx context.Context, ticket int64) (types.TradeOutcome, error) {
	var out struct {
		Deals []dealPayload `json:"deals"`
	}
	path := fmt.Sprintf("/history?ticket=%d", ticket)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return types.TradeOutcome{}, err
	}
	if len(out.Deals) == 0 {
		return types.TradeOutcome{}, broker.ErrOutcomeUnavailable
	}
	outcome := types.TradeOutcome{
		Ticket:    ticket,
		OpenTime:  c.formatTimestamp(out.Deals[0].Time),
		OpenPrice: out.Deals[0].Price,
	}
	for _, deal := range out.Deals {
		outcome.Commission += deal.Commission
		outcome.Swap += deal.Swap
		outcome.Fee += deal.Fee
		outcome.Profit += deal.Profit
	}
	if len(out.Deals) > 1 {
		last := out.Deals[len(out.Deals)-1]
		outcome.CloseTime = c.formatTimestamp(last.Time)
		outcome.ClosePrice = last.Price
	}
	return outcome, nil
}

func (c *Client) HasFreeMargin(ctx context.Context, orderType types.OrderType, symbol string, volume, price float64) (bool, error) {
	var account struct {
		MarginFree float64 `json:"margin_free"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/account", nil, &account); err != nil {
		return false, err
	}
	payload := map[string]any{
		"type":   string(orderType),
		"symbol": symbol,
		"volume": volume,
		"price":  price,
	}
	var calc struct {
		Margin float64 `json:"margin"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/order_calc_margin", payload, &calc); err != nil {
		return false, err
	}
	return account.MarginFree > calc.Margin, nil
}

// Send submits one order request. The bridge mirrors the terminal's
// order_send: a retcode other than "done" is a broker rejection, reported
// through the result rather than an error.
func (c *Client) Send(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	payload := map[string]any{
		"action":      string(req.Action),
		"symbol":      req.Symbol,
		"volume":      req.Volume,
		"type":        string(req.OrderType),
		"price":       req.Price,
		"sl":          req.StopLoss,
		"tp":          req.TakeProfit,
		"stoplimit":   req.StopLimit,
		"limit_price": req.LimitPrice,
		"position":    req.Ticket,
		"deviation":   req.Deviation,
		"magic":       req.Magic,
		"comment":     req.Comment,
	}
	body, err := c.doRaw(ctx, http.MethodPost, "/order_send", payload)
	if err != nil {
		return types.OrderResult{}, err
	}
	retcode := gjson.GetBytes(body, "retcode")
	if !retcode.Exists() {
		return types.OrderResult{}, fmt.Errorf("mt5: order_send response has no retcode: %s", string(body))
	}
	code := int(retcode.Int())
	ticket := gjson.GetBytes(body, "order").Int()
	if ticket == 0 {
		ticket = req.Ticket
	}
	return types.OrderResult{
		Symbol:    req.Symbol,
		Action:    req.Action,
		OrderType: req.OrderType,
		Success:   code == tradeRetcodeDone,
		Ticket:    ticket,
		Code:      code,
		Comment:   gjson.GetBytes(body, "comment").String(),
	}, nil
}

// formatTimestamp renders a terminal epoch timestamp as the ledger's local
// second-resolution string, shifted by the configured timezone delta.
func (c *Client) formatTimestamp(ts int64) string {
	if ts == 0 {
		return ""
	}
	return types.FormatTime(time.Unix(ts, 0).Add(c.deltaTZ))
}

// splitComment recovers the "strategy timeframe" stamp the bot writes on its
// orders. Foreign comments yield empty identity fields, which keeps unowned
// positions out of every strategy's scope.
func splitComment(comment string) (strategy string, timeframe types.Timeframe) {
	parts := strings.Fields(comment)
	if len(parts) > 0 {
		strategy = parts[0]
	}
	if len(parts) > 1 {
		tf := types.Timeframe(parts[1])
		if tf.Valid() {
			timeframe = tf
		}
	}
	return strategy, timeframe
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	body, err := c.doRaw(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("mt5: decoding %s response failed: %w", path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("mt5: bad path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mt5: encoding %s payload failed: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mt5: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mt5: reading %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mt5: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
