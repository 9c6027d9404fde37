package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rustyeddy/execbot/market"
	"go.uber.org/zap"
)

// streamMsg is one websocket frame. HEARTBEAT frames carry no price.
type streamMsg struct {
	Type    string  `json:"type"`
	Symbol  string  `json:"symbol"`
	TimeMsc int64   `json:"time_msc"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
}

// TickFeed keeps the latest tick per symbol from the bridge's websocket
// stream. It reconnects with backoff until stopped.
type TickFeed struct {
	url   string
	token string
	log   *zap.Logger

	mu     sync.RWMutex
	last   map[string]market.Tick
	cancel context.CancelFunc
	done   chan struct{}

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewTickFeed(url, token string, log *zap.Logger) *TickFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &TickFeed{
		url:        url,
		token:      token,
		log:        log,
		last:       make(map[string]market.Tick),
		minBackoff: 250 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
}

// Last returns the most recent tick seen for symbol.
func (f *TickFeed) Last(symbol string) (market.Tick, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.last[symbol]
	return t, ok
}

// Start launches the read loop. It runs until ctx is done or Stop is
// called. A second Start is a no-op.
func (f *TickFeed) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.run(ctx, f.done)
}

func (f *TickFeed) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	backoff := f.minBackoff
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		f.log.Warn("[BROKER] tick stream disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, f.maxBackoff)
	}
}

// Stop ends the read loop and waits for it to return.
func (f *TickFeed) Stop() {
	f.mu.RLock()
	cancel, done := f.cancel, f.done
	f.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (f *TickFeed) listen(ctx context.Context) error {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	f.log.Info("[BROKER] tick stream connected", zap.String("url", f.url))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg streamMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			f.log.Debug("[BROKER] bad stream frame", zap.Error(err), zap.String("frame", trimForErr(string(data))))
			continue
		}
		if strings.ToUpper(msg.Type) != "PRICE" || msg.Symbol == "" {
			continue
		}

		t := market.Tick{
			Symbol: msg.Symbol,
			Time:   time.UnixMilli(msg.TimeMsc).UTC(),
			Bid:    msg.Bid,
			Ask:    msg.Ask,
		}
		if msg.TimeMsc == 0 {
			t.Time = time.Now().UTC()
		}

		f.mu.Lock()
		f.last[msg.Symbol] = t
		f.mu.Unlock()
	}
}

func trimForErr(s string) string {
	const n = 200
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
