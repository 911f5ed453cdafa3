// Command acticks runs the simulated brokerage core: it wires the Asset
// Registry, the four store actors, the Coordinator, the audit WAL, and
// the market-data source together, then blocks until a shutdown signal
// arrives.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Overmuse/acticks/internal/account"
	"github.com/Overmuse/acticks/internal/assetseed"
	"github.com/Overmuse/acticks/internal/audit"
	"github.com/Overmuse/acticks/internal/brokerage"
	"github.com/Overmuse/acticks/internal/config"
	"github.com/Overmuse/acticks/internal/exchange"
	"github.com/Overmuse/acticks/internal/marketdata"
	"github.com/Overmuse/acticks/internal/order"
	"github.com/Overmuse/acticks/internal/position"
	"golang.org/x/time/rate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	assets, err := assetseed.Load(cfg.AssetSeedPath)
	if err != nil {
		log.Fatalf("assetseed: %v", err)
	}
	log.Printf("acticks: loaded %d assets from %s", len(assets.List()), cfg.AssetSeedPath)

	wal, err := audit.Open(cfg.DBPath, 50, 500*time.Millisecond)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	defer wal.Close()

	orders := order.NewStore(nil)
	defer orders.Close()

	ex := exchange.New(nil)
	defer ex.Close()
	ex.SetMarketStatus(exchange.Open)

	positions := position.NewStore()
	defer positions.Close()

	ledger := account.NewLedger(cfg.InitialCash, positions)
	defer ledger.Close()
	log.Printf("acticks: account seeded with %.2f cash", cfg.InitialCash)

	coord := brokerage.New(assets, orders, ex, positions, ledger, nil, wal)
	limiter := cfg.SubmitLimiter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	symbols := make([]string, 0, len(assets.List()))
	for _, a := range assets.List() {
		symbols = append(symbols, a.Symbol)
	}

	if cfg.UseLiveFeed {
		feed := marketdata.NewPolygonFeed(cfg.PolygonKey)
		trades, stop, err := feed.Subscribe(ctx, symbols)
		if err != nil {
			log.Fatalf("marketdata: subscribe: %v", err)
		}
		defer stop()
		go dispatchTrades(ctx, coord, limiter, trades)
		log.Println("acticks: streaming live trades from polygon")
	} else {
		log.Println("acticks: no live feed configured, coordinator is idle; submit orders and price ticks programmatically")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("acticks: shutting down")
}

// dispatchTrades forwards every trade on the channel to the Coordinator
// as a price tick, paced by limiter when it is non-nil. It returns
// without logging as soon as a rate-limiter wait fails (for example
// when ctx is canceled).
func dispatchTrades(ctx context.Context, coord *brokerage.Coordinator, limiter *rate.Limiter, trades <-chan marketdata.Trade) {
	for tr := range trades {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		coord.PriceTick(tr.Symbol, tr.Price)
	}
}
