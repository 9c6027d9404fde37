// Package bridge is a Terminal that talks to a trading terminal through a
// small REST bridge running next to it, with an optional websocket price
// feed for low latency ticks.
package bridge

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
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/market"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config describes how to reach the bridge.
type Config struct {
	// BaseURL is the REST root, e.g. http://127.0.0.1:8228.
	BaseURL string
	// StreamURL is the websocket price feed. Empty disables the feed.
	StreamURL string
	// Token is sent as a bearer token when set.
	Token string

	// RateLimit is requests per second; 0 means unlimited.
	RateLimit float64
	Burst     int

	Timeout   time.Duration
	StaleTick time.Duration
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	feed       *TickFeed
	staleTick  time.Duration
	log        *zap.Logger
}

var _ broker.Terminal = (*Client)(nil)

// NewClient creates a bridge client. The tick feed, if configured, is not
// started until Initialize.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		staleTick:  cfg.StaleTick,
		log:        log,
	}
	if cfg.StreamURL != "" {
		c.feed = NewTickFeed(cfg.StreamURL, cfg.Token, log)
	}
	if c.staleTick <= 0 {
		c.staleTick = 2 * time.Second
	}
	return c
}

// apiError is a non-2xx bridge response.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("bridge http %d: %s", e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %w", broker.ErrInfrastructure, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", broker.ErrInfrastructure, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: %w: %w", method, path, broker.ErrUnavailable, apiErr)
		}
		return fmt.Errorf("%s %s: %w: %w", method, path, broker.ErrInfrastructure, apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", broker.ErrInfrastructure, path, err)
	}
	return nil
}

// Initialize checks the terminal connection, selects symbol and starts the
// tick feed when one is configured.
func (c *Client) Initialize(ctx context.Context, symbol string) error {
	var st statusDTO
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, nil, &st); err != nil {
		return fmt.Errorf("terminal status: %w", err)
	}
	if !st.Connected {
		return fmt.Errorf("%w: terminal not connected", broker.ErrInfrastructure)
	}
	if err := c.do(ctx, http.MethodPost, "/v1/symbols/"+url.PathEscape(symbol)+"/select", nil, nil, nil); err != nil {
		return fmt.Errorf("select %s: %w", symbol, err)
	}
	if _, err := c.AccountEquity(ctx); err != nil {
		return fmt.Errorf("account info: %w", err)
	}

	c.log.Info("[BROKER] terminal ready",
		zap.String("symbol", symbol),
		zap.String("terminal", st.Terminal),
		zap.Bool("feed", c.feed != nil),
	)
	if c.feed != nil {
		// The feed outlives the initialize call; Close stops it.
		c.feed.Start(context.WithoutCancel(ctx))
	}
	return nil
}

func (c *Client) Close() error {
	if c.feed != nil {
		c.feed.Stop()
	}
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) AccountEquity(ctx context.Context) (float64, error) {
	var a accountDTO
	if err := c.do(ctx, http.MethodGet, "/v1/account", nil, nil, &a); err != nil {
		return 0, err
	}
	return a.Equity, nil
}

// Tick returns the feed's latest tick when it is fresh, otherwise asks the
// bridge.
func (c *Client) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	if c.feed != nil {
		if t, ok := c.feed.Last(symbol); ok && time.Since(t.Time) <= c.staleTick {
			return t, nil
		}
	}

	var t tickDTO
	if err := c.do(ctx, http.MethodGet, "/v1/symbols/"+url.PathEscape(symbol)+"/tick", nil, nil, &t); err != nil {
		return market.Tick{}, err
	}
	return t.tick(symbol), nil
}

func (c *Client) SymbolSpec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	var s symbolDTO
	if err := c.do(ctx, http.MethodGet, "/v1/symbols/"+url.PathEscape(symbol), nil, nil, &s); err != nil {
		return market.SymbolSpec{}, err
	}
	return s.spec(symbol), nil
}

func (c *Client) Bars(ctx context.Context, symbol string, tf market.Timeframe, count int) ([]market.Bar, error) {
	q := url.Values{}
	q.Set("timeframe", string(tf))
	q.Set("count", strconv.Itoa(count))

	var resp barsDTO
	if err := c.do(ctx, http.MethodGet, "/v1/symbols/"+url.PathEscape(symbol)+"/bars", q, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Bars) == 0 {
		return nil, fmt.Errorf("bars %s %s: %w", symbol, tf, broker.ErrUnavailable)
	}

	bars := make([]market.Bar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		bars = append(bars, market.Bar{
			Time:  time.Unix(b.Time, 0).UTC(),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}
	return bars, nil
}

func (c *Client) OpenPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var resp positionsDTO
	if err := c.do(ctx, http.MethodGet, "/v1/positions", q, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]market.Position, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		pos, err := p.position()
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %w", broker.ErrInfrastructure, p.Ticket, err)
		}
		out = append(out, pos)
	}
	return out, nil
}

func (c *Client) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	in := orderDTO{
		Symbol:     req.Symbol,
		Type:       orderType(req.Direction),
		Volume:     req.Volume,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Deviation:  req.Deviation,
		Comment:    req.Comment,
		CheckOnly:  req.DryRun,
	}
	return c.trade(ctx, "/v1/orders", in)
}

func (c *Client) ModifyPositionStops(ctx context.Context, ticket uint64, sl, tp float64) (broker.OrderResult, error) {
	path := "/v1/positions/" + strconv.FormatUint(ticket, 10) + "/sltp"
	return c.trade(ctx, path, sltpDTO{StopLoss: sl, TakeProfit: tp})
}

func (c *Client) ClosePosition(ctx context.Context, ticket uint64, symbol string) (broker.OrderResult, error) {
	path := "/v1/positions/" + strconv.FormatUint(ticket, 10) + "/close"
	return c.trade(ctx, path, closeDTO{Symbol: symbol})
}

func (c *Client) trade(ctx context.Context, path string, in any) (broker.OrderResult, error) {
	var r resultDTO
	if err := c.do(ctx, http.MethodPost, path, nil, in, &r); err != nil {
		return broker.OrderResult{}, err
	}
	res := r.result()
	if !res.Modified() {
		c.log.Warn("[BROKER] request failed",
			zap.String("path", path),
			zap.Stringer("retcode", res.Retcode),
			zap.String("comment", res.Comment),
		)
	}
	return res, nil
}
