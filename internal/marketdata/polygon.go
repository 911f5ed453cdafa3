package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReconnectConfig controls PolygonFeed's exponential backoff on a
// dropped connection, modeled on the teacher's websocket client.
type ReconnectConfig struct {
	Enabled      bool
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultReconnectConfig returns sensible defaults for reconnection.
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		Enabled:      true,
		MaxRetries:   10,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// PolygonFeed is the live market-data adapter: a gorilla/websocket
// client against Polygon's streaming cluster, authenticated with the
// POLYGON_KEY environment variable (spec §6).
type PolygonFeed struct {
	APIKey          string
	dialer          *websocket.Dialer
	ReconnectConfig *ReconnectConfig
}

// NewPolygonFeed builds a feed client. apiKey must be non-empty;
// config.Load is what treats a missing key as a fatal startup error
// when the live feed is enabled (spec §6).
func NewPolygonFeed(apiKey string) *PolygonFeed {
	return &PolygonFeed{
		APIKey:          apiKey,
		dialer:          websocket.DefaultDialer,
		ReconnectConfig: DefaultReconnectConfig(),
	}
}

func (f *PolygonFeed) calculateBackoff(attempt int) time.Duration {
	if f.ReconnectConfig == nil {
		return time.Second
	}
	delay := float64(f.ReconnectConfig.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= f.ReconnectConfig.Multiplier
	}
	if time.Duration(delay) > f.ReconnectConfig.MaxDelay {
		return f.ReconnectConfig.MaxDelay
	}
	return time.Duration(delay)
}

// Subscribe connects to the Polygon trades stream for symbols and
// returns a channel of decoded Trades plus a stop function. It
// auto-reconnects with exponential backoff on a dropped connection.
func (f *PolygonFeed) Subscribe(ctx context.Context, symbols []string) (<-chan Trade, func(), error) {
	u := (&url.URL{Scheme: "wss", Host: "socket.polygon.io", Path: "/stocks"}).String()

	conn, _, err := f.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial polygon ws: %w", err)
	}
	if err := f.authenticateAndSubscribe(conn, symbols); err != nil {
		conn.Close()
		return nil, nil, err
	}

	out := make(chan Trade, 256)
	stopCh := make(chan struct{})
	var stopOnce sync.Once
	var mu sync.Mutex
	current := conn

	stop := func() {
		stopOnce.Do(func() {
			close(stopCh)
			mu.Lock()
			if current != nil {
				_ = current.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = current.Close()
			}
			mu.Unlock()
			close(out)
		})
	}

	reconnect := func() (*websocket.Conn, error) {
		if f.ReconnectConfig == nil || !f.ReconnectConfig.Enabled {
			return nil, fmt.Errorf("reconnect disabled")
		}
		maxRetries := f.ReconnectConfig.MaxRetries
		if maxRetries == 0 {
			maxRetries = 100
		}
		for attempt := 0; attempt < maxRetries; attempt++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-stopCh:
				return nil, fmt.Errorf("stopped")
			default:
			}

			delay := f.calculateBackoff(attempt)
			log.Printf("marketdata: polygon feed reconnecting in %v (attempt %d/%d)", delay, attempt+1, maxRetries)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-stopCh:
				return nil, fmt.Errorf("stopped")
			}

			newConn, _, err := f.dialer.DialContext(ctx, u, nil)
			if err != nil {
				log.Printf("marketdata: polygon reconnect failed: %v", err)
				continue
			}
			if err := f.authenticateAndSubscribe(newConn, symbols); err != nil {
				newConn.Close()
				continue
			}
			return newConn, nil
		}
		return nil, fmt.Errorf("max retries (%d) exceeded", maxRetries)
	}

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			default:
			}

			mu.Lock()
			active := current
			mu.Unlock()
			if active == nil {
				return
			}

			_, msg, err := active.ReadMessage()
			if err != nil {
				select {
				case <-stopCh:
					return
				case <-ctx.Done():
					return
				default:
				}

				log.Printf("marketdata: polygon ws read error: %v", err)
				newConn, reconErr := reconnect()
				if reconErr != nil {
					log.Printf("marketdata: failed to reconnect: %v", reconErr)
					return
				}
				mu.Lock()
				current = newConn
				mu.Unlock()
				continue
			}

			for _, tr := range parseTrades(msg) {
				select {
				case out <- tr:
				default:
				}
			}
		}
	}()

	return out, stop, nil
}

func (f *PolygonFeed) authenticateAndSubscribe(conn *websocket.Conn, symbols []string) error {
	auth := map[string]string{"action": "auth", "params": f.APIKey}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("polygon auth: %w", err)
	}
	params := ""
	for i, s := range symbols {
		if i > 0 {
			params += ","
		}
		params += "T." + s
	}
	sub := map[string]string{"action": "subscribe", "params": params}
	return conn.WriteJSON(sub)
}

func parseTrades(msg []byte) []Trade {
	var trades []Trade
	if err := json.Unmarshal(msg, &trades); err != nil {
		return nil
	}
	return trades
}
