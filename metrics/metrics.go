/*
Package metrics defines the Prometheus instrumentation for the reward
engine.

All collectors are registered with the default registry via promauto and
exposed by the API server at /metrics. Counters only: every metric here
corresponds to an append to the ledger or a decision the engines make,
so rates are the interesting signal.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TasksCompleted counts successful task completions by reward path.
// path is "plain", "lottery_points", "lottery_item" or "lottery_fallback".
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "tasks",
	Name:      "completed_total",
	Help:      "Total task completions that produced a reward, by reward path.",
}, []string{"path"})

// TasksAlreadyClaimed counts completion requests refused by the claim marker.
var TasksAlreadyClaimed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "tasks",
	Name:      "already_claimed_total",
	Help:      "Total completion requests for tasks whose reward was already claimed.",
})

// Crafts counts crafting attempts by outcome ("ok" or "insufficient").
var Crafts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "crafting",
	Name:      "attempts_total",
	Help:      "Total crafting attempts by outcome.",
}, []string{"outcome"})

// LotteryDraws counts lottery draws by result ("points", "item", "fallback").
var LotteryDraws = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "lottery",
	Name:      "draws_total",
	Help:      "Total lottery draws by result type.",
}, []string{"result"})

// Redemptions counts point purchases by outcome ("ok", "insufficient").
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "redemption",
	Name:      "attempts_total",
	Help:      "Total redemption attempts by outcome.",
}, []string{"outcome"})

// LedgerBatches counts transaction groups written to the ledger by outcome.
var LedgerBatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Subsystem: "ledger",
	Name:      "batches_total",
	Help:      "Total ledger batch writes by outcome (ok or error).",
}, []string{"outcome"})
