package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SettlementsTotal counts settlement attempts by outcome.
	SettlementsTotal *prometheus.CounterVec
	// TillShortfallTotal counts settlements whose change could not be fully
	// represented by the till.
	TillShortfallTotal prometheus.Counter
	// TillConflictTotal counts payout batches that lost a concurrent
	// decrement race and were retried.
	TillConflictTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers billing collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SettlementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Count of purchase settlement outcomes.",
		}, []string{"result"})
		TillShortfallTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "till_shortfall_total",
			Help:      "Count of settlements with change not representable by the till.",
		})
		TillConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "till_conflict_total",
			Help:      "Count of till payout batches retried after a concurrent decrement.",
		})
		reg.MustRegister(SettlementsTotal, TillShortfallTotal, TillConflictTotal)
	})
}

// ObserveSettlement records one settlement outcome when metrics are registered.
func ObserveSettlement(result string) {
	if SettlementsTotal != nil {
		SettlementsTotal.WithLabelValues(result).Inc()
	}
}

// ObserveTillShortfall records a change shortfall.
func ObserveTillShortfall() {
	if TillShortfallTotal != nil {
		TillShortfallTotal.Inc()
	}
}

// ObserveTillConflict records a lost till decrement race.
func ObserveTillConflict() {
	if TillConflictTotal != nil {
		TillConflictTotal.Inc()
	}
}
