package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"signal-core/internal/api"
	"signal-core/internal/engine"
	"signal-core/internal/events"
	"signal-core/internal/indicators"
	"signal-core/internal/market"
	"signal-core/internal/monitor"
	"signal-core/internal/order"
	"signal-core/internal/persistence"
	"signal-core/internal/risk"
	"signal-core/internal/strategy"
	"signal-core/pkg/cache"
	"signal-core/pkg/config"
	"signal-core/pkg/db"
	"signal-core/pkg/exchanges/binance/spot"
	"signal-core/pkg/i18n"
	"signal-core/pkg/logger"
	"signal-core/pkg/market/binance"
)

const quoteAsset = "USDT"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the signal engine and dashboard",
	RunE:  runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// tickSource is implemented by market.Ingestor and market.MockFeed.
type tickSource interface {
	Ticks() <-chan market.Tick
	Run(ctx context.Context) error
	Stop()
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	i18n.SetLanguage(i18n.Language(cfg.Language))
	msg := i18n.M()
	log.Info().Str("version", Version).Msg(msg.Starting)
	log.Info().Msgf(msg.ConfigLoaded, cfg.TradingMode, len(cfg.Symbols))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := order.ParseMode(string(cfg.TradingMode))
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()
	metrics := monitor.NewSystemMetrics()

	// Statistics and strategies.
	stats := indicators.NewEngine(cfg.Symbols, cfg.HistoryCapacity, cfg.CorrelationWindow)
	strategies := strategy.NewEngine(log)
	entries, err := strategy.LoadConfig(cfg.StrategiesFile)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}
	if err := strategy.Build(strategies, entries); err != nil {
		return err
	}

	// Execution target.
	riskCfg := risk.Config{
		MaxDrawdownPct:  cfg.MaxDrawdownPct,
		MaxPositionUSD:  cfg.MaxPositionSizeUSD,
		StartingEquity:  cfg.StartingEquity,
		TargetRisk:      cfg.TargetRisk,
		FloorVolatility: cfg.FloorVolatility,
	}
	var (
		broker order.Broker
		ledger *order.PaperLedger
	)
	if mode == order.ModePaper {
		log.Info().Msg(msg.PaperMode)
		ledger = order.NewPaperLedger(cfg.StartingEquity, cfg.PaperFeeRate)
	} else {
		log.Warn().Msgf(msg.LiveMode, cfg.TradingMode)
		key, secret := cfg.Credentials()
		client := spot.New(spot.Config{APIKey: key, APISecret: secret, Testnet: cfg.Testnet(), Logger: log})
		broker = client
		riskCfg.StartingEquity = seedEquity(ctx, client, cfg.StartingEquity, log)
	}
	riskMgr := risk.NewManager(riskCfg, bus, log)
	router := order.NewRouter(broker, ledger, log)
	async := order.NewAsyncExecutor(router, cfg.ExecWorkers, cfg.ExecQueueSize, log)

	// Journal.
	var journal *persistence.Journal
	if cfg.EnableJournal {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer database.Close()
		journal = persistence.NewJournal(database, log)
		defer journal.Close()
	}

	// Market data.
	source, err := newSource(ctx, cfg, bus, stats, log)
	if err != nil {
		return err
	}

	pipeCfg := engine.Config{
		Stats:                 stats,
		Strategies:            strategies,
		Risk:                  riskMgr,
		Router:                router,
		Async:                 async,
		Ledger:                ledger,
		Bus:                   bus,
		Metrics:               metrics,
		Mode:                  mode,
		DefaultVolatility:     cfg.DefaultVolatility,
		UseRealizedVolatility: cfg.UseRealizedVolatility,
		Prices:                cache.NewPriceCache(),
		StaleAfter:            cfg.LivenessTimeout,
		FeedConnected:         feedConnected(source),
		Meta: engine.SystemStatus{
			Mode:        string(cfg.TradingMode),
			DryRun:      mode == order.ModePaper,
			Venue:       "binance",
			Symbols:     cfg.Symbols,
			UseMockFeed: cfg.UseMockFeed,
			Version:     Version,
		},
		Logger: log,
	}
	if journal != nil {
		pipeCfg.Journal = journal
	}
	pipeline, err := engine.NewPipeline(pipeCfg)
	if err != nil {
		return err
	}

	notifier := &monitor.Notifier{Bus: bus, Sink: newSink(cfg, log), Metrics: metrics, Log: log}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(pipeline, bus, metrics, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return source.Run(gctx) })
	g.Go(func() error {
		if err := pipeline.Run(gctx, source.Ticks()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		notifier.Run(gctx)
		return nil
	})
	if journal != nil {
		g.Go(func() error {
			journal.Run(gctx, bus)
			return nil
		})
	}
	g.Go(func() error {
		log.Info().Msgf(msg.ServerListening, cfg.Port)
		return server.Start(gctx, ":"+cfg.Port)
	})
	if cfg.HealthAddr != "" {
		health := api.NewHealthServer(log)
		g.Go(func() error {
			health.Watch(gctx, bus)
			return nil
		})
		g.Go(func() error { return health.Serve(gctx, cfg.HealthAddr) })
	}

	go func() {
		<-gctx.Done()
		log.Info().Msg(msg.ShuttingDown)
		source.Stop()
	}()

	err = g.Wait()
	if journal != nil {
		if m := journal.Metrics(); m.TotalErrors > 0 {
			log.Warn().Uint64("failed", m.TotalErrors).Msg("journal had failed writes")
		}
	}
	return err
}

// newSource builds the mock feed or the live trade stream, warming history
// from recent klines for the latter.
func newSource(ctx context.Context, cfg *config.Config, bus *events.Bus, stats *indicators.Engine, log zerolog.Logger) (tickSource, error) {
	msg := i18n.M()
	if cfg.UseMockFeed {
		log.Info().Msg(msg.MockFeedStarted)
		return &market.MockFeed{Bus: bus, Symbols: cfg.Symbols, Logger: log}, nil
	}

	base := cfg.StreamURL
	if base == "" {
		base = binance.StreamBase(cfg.Testnet())
	}
	url, err := binance.CombinedTradeURL(base, cfg.Symbols)
	if err != nil {
		return nil, err
	}

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n := market.Warmup(warmCtx, binance.NewClient(cfg.Testnet()), cfg.Symbols, cfg.WarmupInterval, cfg.WarmupKlines,
		func(symbol string, price float64) { stats.Update(symbol, price) }, log)
	log.Info().Msgf(msg.WarmupComplete, n)

	ing := market.NewIngestor(market.IngestorConfig{
		URL:      url,
		Liveness: cfg.LivenessTimeout,
		Backoff:  market.Backoff{Initial: cfg.ReconnectInitial, Max: cfg.ReconnectMax},
		Bus:      bus,
		Logger:   log,
	})
	log.Info().Msgf(msg.BinanceFeedStarted, len(cfg.Symbols))
	return ing, nil
}

func feedConnected(src tickSource) func() bool {
	if c, ok := src.(interface{ Connected() bool }); ok {
		return c.Connected
	}
	return func() bool { return true }
}

func newSink(cfg *config.Config, log zerolog.Logger) monitor.AlertSink {
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		return monitor.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	return monitor.LogSink{Log: log}
}

// seedEquity replaces the configured starting equity with the account's
// quote balance when it can be read.
func seedEquity(ctx context.Context, client *spot.Client, fallback float64, log zerolog.Logger) float64 {
	bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	bal, err := client.QuoteBalance(bctx, quoteAsset)
	if err != nil || bal <= 0 {
		log.Warn().Err(err).Float64("fallback", fallback).Msg("could not read quote balance; using configured equity")
		return fallback
	}
	log.Info().Float64("equity", bal).Str("asset", quoteAsset).Msg("starting equity from account balance")
	return bal
}
