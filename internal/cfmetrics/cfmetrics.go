// Package cfmetrics defines the Prometheus metrics exported by the
// content-filtering engine.
package cfmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace and subsystem names shared by every metric below.
const (
	namespace        = "cfengine"
	subsystemMatch   = "match"
	subsystemProfile = "profile"
	subsystemParser  = "parser"
)

var (
	// resultCacheLookups is a counter of result-cache lookups. "hit" is "1"
	// if the query was served from the cache, "0" otherwise.
	resultCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "result_cache_lookups_total",
		Namespace: namespace,
		Subsystem: subsystemMatch,
		Help:      "Total number of check-query result cache lookups.",
	}, []string{"hit"})

	// ResultCacheHits is the total number of result-cache hits.
	ResultCacheHits = resultCacheLookups.With(prometheus.Labels{"hit": "1"})

	// ResultCacheMisses is the total number of result-cache misses.
	ResultCacheMisses = resultCacheLookups.With(prometheus.Labels{"hit": "0"})
)

var (
	// checkDecisions counts check queries by their outcome kind.
	checkDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "check_decisions_total",
		Namespace: namespace,
		Subsystem: subsystemMatch,
		Help:      "Total number of check decisions, by kind.",
	}, []string{"kind"})

	// CheckDecisionsBlock counts decisions that blocked a request.
	CheckDecisionsBlock = checkDecisions.With(prometheus.Labels{"kind": "block"})

	// CheckDecisionsExcept counts decisions that excepted a request.
	CheckDecisionsExcept = checkDecisions.With(prometheus.Labels{"kind": "except"})

	// CheckDecisionsIgnore counts decisions that ignored a request.
	CheckDecisionsIgnore = checkDecisions.With(prometheus.Labels{"kind": "ignore"})
)

var (
	// ProfileIndexNodes is a gauge of the total number of pattern-index
	// nodes currently held by the active index of a profile, labeled by
	// profile ID.
	ProfileIndexNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "index_nodes",
		Namespace: namespace,
		Subsystem: subsystemProfile,
		Help:      "The number of pattern-index nodes in a profile's active index.",
	}, []string{"profile_id"})

	// ProfileIndexRules is a gauge of the total number of network rules
	// reachable from a profile's active index, labeled by profile ID.
	ProfileIndexRules = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "index_rules",
		Namespace: namespace,
		Subsystem: subsystemProfile,
		Help:      "The number of network rules in a profile's active index.",
	}, []string{"profile_id"})

	// ProfileRefreshes counts profile refresh attempts, labeled by
	// profile ID and outcome ("ok" or "error").
	ProfileRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "refreshes_total",
		Namespace: namespace,
		Subsystem: subsystemProfile,
		Help:      "Total number of profile refresh attempts.",
	}, []string{"profile_id", "result"})
)

var (
	// ParserDroppedLines counts silently dropped filter-list lines, labeled
	// by drop reason.
	ParserDroppedLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "dropped_lines_total",
		Namespace: namespace,
		Subsystem: subsystemParser,
		Help:      "Total number of filter-list lines dropped while parsing, by reason.",
	}, []string{"reason"})

	// ParserAcceptedRules counts accepted rules, labeled by kind ("network"
	// or "cosmetic").
	ParserAcceptedRules = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "accepted_rules_total",
		Namespace: namespace,
		Subsystem: subsystemParser,
		Help:      "Total number of filter-list rules accepted while parsing, by kind.",
	}, []string{"kind"})
)

// RecordAcceptedRule increments the accepted-rule counter for kind
// ("network" or "cosmetic").
func RecordAcceptedRule(kind string) {
	ParserAcceptedRules.With(prometheus.Labels{"kind": kind}).Inc()
}

// RecordDroppedLine increments the dropped-line counter for reason.
func RecordDroppedLine(reason string) {
	ParserDroppedLines.With(prometheus.Labels{"reason": reason}).Inc()
}
