package matching

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks orders admitted/rejected, trades settled, trade
// volume, and halted state as real Prometheus collectors, labelled by
// symbol.
type EngineMetrics struct {
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec
	tradesSettled  prometheus.Counter
	tradeVolume    prometheus.Counter
	halted         prometheus.Gauge
}

// NewEngineMetrics builds the collectors for one symbol and registers them
// against reg. Registration errors, including an already registered
// collector, are ignored: the existing collector is not re-fetched, and the
// returned EngineMetrics keeps its own instances, which reg then does not
// export.
func NewEngineMetrics(reg prometheus.Registerer, symbol string) *EngineMetrics {
	constLabels := prometheus.Labels{"symbol": symbol}

	m := &EngineMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "matchcore_orders_placed_total",
			Help:        "Orders admitted into the book.",
			ConstLabels: constLabels,
		}),
		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "matchcore_orders_rejected_total",
			Help:        "Orders rejected, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		tradesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "matchcore_trades_settled_total",
			Help:        "Trades settled.",
			ConstLabels: constLabels,
		}),
		tradeVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "matchcore_trade_units_total",
			Help:        "Total units exchanged across all settled trades.",
			ConstLabels: constLabels,
		}),
		halted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "matchcore_halted",
			Help:        "1 if the engine is halted, 0 if running.",
			ConstLabels: constLabels,
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.ordersPlaced, m.ordersRejected, m.tradesSettled, m.tradeVolume, m.halted} {
			if err := reg.Register(c); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					_ = are
				}
			}
		}
	}

	return m
}
