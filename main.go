// Command execution-core is the composition root: it owns every task in
// the process (leader-venue ingest, the lagger session, position/order
// reconciliation, the signal dispatcher, and the local control-plane) and
// wires them with explicit handles, replacing the teacher's global mutable
// `let bot;` singleton with a single top-level owner (spec §9 design note).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"execution-core/internal/assetcfg"
	"execution-core/internal/control"
	"execution-core/internal/dispatch"
	"execution-core/internal/domain"
	"execution-core/internal/events"
	"execution-core/internal/ingest"
	"execution-core/internal/ingest/adapter"
	"execution-core/internal/monitor"
	"execution-core/internal/posstate"
	"execution-core/internal/session"
	"execution-core/internal/strategy"
	"execution-core/internal/strategy/grpcstrategy"
	"execution-core/internal/strategy/momentum"
	"execution-core/pkg/config"
	"execution-core/pkg/laggerrest"

	"golang.org/x/time/rate"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	applyAssetOverrides(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	metrics := monitor.NewSystemMetrics()

	rest := laggerrest.NewClient(laggerrest.Config{
		APIKey:    cfg.LaggerAPIKey,
		APISecret: cfg.LaggerAPISecret,
		BaseURL:   cfg.LaggerRESTBaseURL,
	}, rate.NewLimiter(rate.Limit(10), 20))

	sessionCfg := session.Config{
		WSURL:             cfg.LaggerWSURL,
		APIKey:            cfg.LaggerAPIKey,
		APISecret:         cfg.LaggerAPISecret,
		Asset:             cfg.Asset,
		PingInterval:      cfg.PingInterval,
		HeartbeatTimeout:  cfg.HeartbeatTimeout,
		ReconnectInterval: cfg.ReconnectInterval,
	}
	sessionMgr := session.NewManager(sessionCfg, bus)

	posMgr := posstate.NewManager(bus, rest, cfg.ProductID, cfg.Asset)

	strat, closeStrategy := buildStrategy(cfg)
	if closeStrategy != nil {
		defer closeStrategy()
	}

	dispatchCfg := dispatch.Config{
		Asset:          cfg.Asset,
		ProductID:      cfg.ProductID,
		PriceThreshold: cfg.PriceThreshold,
		UrgencyWindow:  cfg.UrgencyWindow,
		CooldownPeriod: cfg.CooldownSeconds,
		RetryCooldown:  2 * time.Second,
		DefaultTIF:     domain.TimeInForce(cfg.TimeInForce),
	}
	dispatcher := dispatch.New(bus, rest, posMgr, sessionMgr, strat, dispatchCfg)

	adapters := buildAdapters(cfg.LeaderVenues)
	ingestMgr := ingest.NewManager(bus, adapters, []string{cfg.Asset}, 50*time.Millisecond)

	controlSrv := control.NewServer(bus, metrics, cfg.ControlJWTSecret, cfg.Asset)
	controlSrv.StateSynced = posMgr.StateSynced
	controlSrv.Authenticated = sessionMgr.Authenticated

	bridgeSessionToPosState(ctx, bus, posMgr)

	go ingestMgr.Run(ctx)
	go sessionMgr.Run(ctx)
	go dispatcher.Run(ctx)
	go func() {
		if err := controlSrv.Run(":" + cfg.ControlPort); err != nil {
			log.Printf("control: server stopped: %v", err)
		}
	}()

	log.Printf("execution-core: running (asset=%s product_id=%d leaders=%v)", cfg.Asset, cfg.ProductID, cfg.LeaderVenues)

	<-ctx.Done()
	log.Printf("execution-core: shutdown signal received, cancelling all open orders for product %d", cfg.ProductID)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := rest.CancelAll(shutdownCtx, cfg.ProductID); err != nil {
		log.Printf("execution-core: best-effort cancel_all failed: %v", err)
	}
}

// applyAssetOverrides loads the optional per-asset instrument metadata file
// (assets.yaml) and, when it names the configured asset, overrides the
// env-derived tick/lot/decimals fields. Absence of the file is not fatal:
// the env config already carries working defaults.
func applyAssetOverrides(cfg *config.Config) {
	assets, err := assetcfg.Load(cfg.AssetConfigPath)
	if err != nil {
		log.Printf("assetcfg: %v (using env-derived instrument metadata)", err)
		return
	}
	a, ok := assets[cfg.Asset]
	if !ok {
		return
	}
	if cfg.ProductID == 0 {
		cfg.ProductID = a.ProductID
	}
	if a.ProductSymbol != "" {
		cfg.ProductSymbol = a.ProductSymbol
	}
	cfg.TickSize = a.TickSize
	cfg.LotSize = a.LotSize
	cfg.PriceDecimals = a.PriceDecimals
	cfg.SizeDecimals = a.SizeDecimals
}

// buildStrategy selects the pluggable Strategy: the gRPC worker bridge when
// configured, otherwise the built-in momentum reference strategy.
func buildStrategy(cfg *config.Config) (strategy.Strategy, func()) {
	if cfg.UseGRPCStrategy && cfg.StrategyGRPCAddr != "" {
		s, err := grpcstrategy.Dial(grpcstrategy.Config{
			Addr:      cfg.StrategyGRPCAddr,
			Asset:     cfg.Asset,
			OrderSize: cfg.OrderSize,
		})
		if err != nil {
			log.Fatalf("grpcstrategy: dial %s: %v", cfg.StrategyGRPCAddr, err)
		}
		return s, func() { _ = s.Close() }
	}

	momentumCfg := momentum.DefaultConfig()
	momentumCfg.Asset = cfg.Asset
	momentumCfg.OrderSize = cfg.OrderSize
	momentumCfg.TakeProfitOffset = cfg.TakeProfitOffset
	momentumCfg.StopLossOffset = cfg.StopLossOffset
	momentumCfg.TrailAmount = cfg.TrailingAmount
	return momentum.New(momentumCfg), nil
}

// buildAdapters resolves the configured leader-venue names into Adapters.
// An unknown name is fatal-at-startup (missing required config), per §7.
func buildAdapters(names []string) []ingest.Adapter {
	adapters := make([]ingest.Adapter, 0, len(names))
	for _, name := range names {
		a, err := adapter.New(name)
		if err != nil {
			log.Fatalf("ingest: %v", err)
		}
		adapters = append(adapters, a)
	}
	return adapters
}

// bridgeSessionToPosState wires the lagger session's raw WS events into the
// position/order state machine, and drives the auth-time REST reconciliation
// and cancel-on-disconnect setup. This bridge is deliberately explicit in
// the composition root rather than hidden inside either component, per the
// spec's note that REST and WS feeds race and neither component alone is
// the authority on sequencing them.
func bridgeSessionToPosState(ctx context.Context, bus *events.Bus, pos *posstate.Manager) {
	rawOrders, unsubOrders := bus.Subscribe(events.TopicRawOrderUpdate, 256)
	rawPositions, unsubPositions := bus.Subscribe(events.TopicRawPositionUpdate, 64)
	authOk, unsubAuth := bus.Subscribe(events.TopicSessionAuthOk, 4)
	disconnected, unsubDisc := bus.Subscribe(events.TopicSessionDisconnect, 4)

	go func() {
		defer unsubOrders()
		defer unsubPositions()
		defer unsubAuth()
		defer unsubDisc()
		// connCancel ends the current connection's cancel-on-disconnect
		// refresh; it is replaced on every auth and called on disconnect.
		connCancel := func() {}
		defer func() { connCancel() }()
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-rawOrders:
				if o, ok := v.(domain.ManagedOrder); ok {
					pos.OnOrderUpdate(o)
				}
			case v := <-rawPositions:
				if p, ok := v.(domain.Position); ok {
					pos.OnPositionUpdate(p)
				}
			case <-authOk:
				syncCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
				if err := pos.SyncPositionsFromREST(syncCtx); err != nil {
					log.Printf("posstate: startup REST sync failed: %v", err)
				}
				cancel()
				// Scoped to this connection, not syncCtx: the refresh
				// goroutine it starts must outlive this one-shot sync but
				// stop when the connection drops.
				connCancel()
				var connCtx context.Context
				connCtx, connCancel = context.WithCancel(ctx)
				pos.SetupCancelOnDisconnect(connCtx)
			case <-disconnected:
				connCancel()
				pos.OnReconnect()
			}
		}
	}()
}
