// Package cfmatch implements the matcher and rule evaluator: given a
// request against a compiled pattern index, it walks every suffix of the
// request URL and decides whether the request is blocked, excepted, or
// ignored.
package cfmatch

import "github.com/veilmesh/cfengine/internal/cfrule"

// Kind is the outcome category of a [Decision].
type Kind uint8

// Kind values.
const (
	// Ignore means no rule applied; the request proceeds unmodified.
	Ignore Kind = iota
	// Block means a blocking rule matched and no exception overrode it.
	Block
	// Except means an exception rule matched, unconditionally overriding
	// any blocking match for the same request.
	Except
)

// CosmeticOverride is the per-request cosmetic-filtering override carried
// by an [Except] decision whose rule set "elemhide" or "generichide".
type CosmeticOverride uint8

// CosmeticOverride values.
const (
	// CosmeticOverrideNone means the exception carries no cosmetic-mode
	// override.
	CosmeticOverrideNone CosmeticOverride = iota
	// CosmeticOverrideDisable means cosmetic filters are disabled
	// entirely for this page ("elemhide").
	CosmeticOverrideDisable
	// CosmeticOverrideDomainOnly means cosmetic filters are restricted to
	// domain-specific rules for this page ("generichide").
	CosmeticOverrideDomainOnly
)

// Decision is the result of [Matcher.Check].
type Decision struct {
	// Rule is the matched rule. Nil when Kind is Ignore.
	Rule *cfrule.NetworkRule

	// Kind is the outcome category.
	Kind Kind

	// CosmeticOverride is set only when Kind is Except.
	CosmeticOverride CosmeticOverride
}

// ignoreDecision is the zero-value Ignore decision, returned whenever
// nothing matched.
var ignoreDecision = Decision{Kind: Ignore}
