package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tradsys/matchcore/pkg/config"
	"github.com/tradsys/matchcore/pkg/matching"
)

const (
	appName    = "matchcore"
	appVersion = "v1.0.0"
)

func main() {
	// Parse command line flags
	var (
		configPath = flag.String("config", "", "Path to configuration file (defaults are used if absent)")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	// Handle version flag
	if *version {
		fmt.Printf("%s %s\n", appName, appVersion)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		r := prometheus.NewRegistry()
		reg = r
		go serveMetrics(logger, cfg.Metrics, r)
	}

	// Start engine
	engine, err := matching.NewEngine(cfg.Engine, logger, reg)
	if err != nil {
		logger.Fatal("Failed to start engine", zap.Error(err))
	}

	go logEvents(logger, engine)

	logger.Info("matchengine started", zap.String("symbol", cfg.Engine.Symbol))
	runDemoSequence(logger, engine, cfg.Engine.Symbol)

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down engine...")

	// Graceful shutdown: halt admission, then drain and close.
	engine.Halt()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Engine.ShutdownTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- engine.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("error while closing engine", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out waiting for engine to close")
	}

	logger.Info("engine stopped")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableCaller = !cfg.EnableCaller
	return zcfg.Build()
}

func serveMetrics(logger *zap.Logger, cfg config.MetricsConfig, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	logger.Info("metrics server listening", zap.String("address", cfg.Address), zap.String("path", cfg.Path))
	if err := http.ListenAndServe(cfg.Address, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func logEvents(logger *zap.Logger, engine *matching.Engine) {
	for event := range engine.Events() {
		switch e := event.(type) {
		case matching.OrderPlaced:
			logger.Debug("order placed", zap.String("order_id", e.Order.OrderID))
		case matching.PriceChanged:
			logger.Info("price changed", zap.String("symbol", e.Symbol))
		case matching.TradeSettled:
			logger.Info("trade settled",
				zap.String("symbol", e.Symbol),
				zap.String("bid_order_id", e.BidOrderID),
				zap.String("ask_order_id", e.AskOrderID),
				zap.Int64("units", e.Units))
		}
	}
}

// runDemoSequence exercises the engine with a short in-process scenario so a
// fresh checkout has something observable to log on startup. A real
// deployment replaces this with an actual command source.
func runDemoSequence(logger *zap.Logger, engine *matching.Engine, symbol string) {
	ask := engine.PlaceAsk(matching.Order{
		OrderID: "demo-ask-1",
		Symbol:  symbol,
		Price:   decimal.NewFromFloat(100.50),
		Units:   10,
	})
	logger.Info("demo ask placed", zap.Bool("success", ask.Success), zap.String("reason", ask.Reason))

	bid := engine.PlaceBid(matching.Order{
		OrderID: "demo-bid-1",
		Symbol:  symbol,
		Price:   decimal.NewFromFloat(100.50),
		Units:   4,
	})
	logger.Info("demo bid placed", zap.Bool("success", bid.Success), zap.String("reason", bid.Reason))

	price := engine.GetPrice()
	logger.Info("demo price snapshot", zap.Bool("success", price.Success), zap.String("reason", price.Reason))
}
