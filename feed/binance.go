package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
)

// DefaultBinanceURL is the combined-stream endpoint for spot trades.
const DefaultBinanceURL = "wss://stream.binance.com:9443/ws"

const (
	readTimeout    = 60 * time.Second
	pingInterval   = 20 * time.Second
	reconnectDelay = 3 * time.Second
	tickBuffer     = 256
)

// tradeEvent is the subset of Binance's trade stream payload we consume.
type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// Binance streams spot trades over websocket and fans them out per symbol.
// Each Subscribe gets its own connection bound to the caller's context, with
// automatic reconnect until the context is cancelled.
type Binance struct {
	url   string
	log   *logger.Logger
	store *market.TickStore

	mu     sync.Mutex
	cancel []context.CancelFunc
}

func NewBinance(url string, log *logger.Logger) *Binance {
	if url == "" {
		url = DefaultBinanceURL
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Binance{url: url, log: log, store: market.NewTickStore()}
}

// GetTick returns the last trade observed for symbol on any subscription.
func (b *Binance) GetTick(ctx context.Context, symbol string) (market.Tick, error) {
	return b.store.Get(symbol)
}

// Subscribe opens a trade stream for symbol. The returned channel closes when
// ctx is cancelled or the feed is closed. Reconnects happen transparently;
// ticks are simply absent while the connection is down, which the engine's
// staleness check surfaces on its own.
func (b *Binance) Subscribe(ctx context.Context, symbol string) (<-chan market.Tick, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	out := make(chan market.Tick, tickBuffer)
	go b.stream(streamCtx, symbol, out)
	return out, nil
}

// Close tears down every active subscription.
func (b *Binance) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = nil
	return nil
}

func (b *Binance) stream(ctx context.Context, symbol string, out chan<- market.Tick) {
	defer close(out)

	url := fmt.Sprintf("%s/%s@trade", b.url, strings.ToLower(symbol))
	log := b.log.WithSymbol(symbol)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := b.run(ctx, url, symbol, out); err != nil {
			log.WithError(err).Warn("trade stream dropped, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// run owns one connection from dial to failure.
func (b *Binance) run(ctx context.Context, url, symbol string, out chan<- market.Tick) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	b.log.WithSymbol(symbol).Info("trade stream connected")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// Close the connection when ctx dies so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ping.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var ev tradeEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			b.log.WithError(err).Debug("unparseable stream message")
			continue
		}
		if ev.EventType != "trade" {
			continue
		}
		price, err := strconv.ParseFloat(ev.Price, 64)
		if err != nil {
			continue
		}

		tick := market.Tick{
			Symbol: ev.Symbol,
			Price:  price,
			Time:   time.UnixMilli(ev.TradeTime),
		}
		b.store.Set(tick)
		select {
		case out <- tick:
		case <-ctx.Done():
			return nil
		default:
			// Slow consumer: drop the tick rather than stall the read
			// loop. The next trade restores the current price.
		}
	}
}
