package cfmatch

import (
	"strings"
	"unicode"

	"github.com/veilmesh/cfengine/internal/cfmetrics"
	"github.com/veilmesh/cfengine/internal/cfrequest"
	"github.com/veilmesh/cfengine/internal/cfrule"
	"github.com/veilmesh/cfengine/internal/cftrie"
)

// Matcher answers check queries against a single compiled pattern index.
// It holds no mutable state of its own: swapping to a new ruleset means
// constructing a new Matcher over a new root, never mutating this one
// (spec §5's atomic-swap requirement lives one layer up, in cfprofile).
type Matcher struct {
	root *cftrie.Node
}

// New returns a Matcher over root.
func New(root *cftrie.Node) (m *Matcher) {
	return &Matcher{root: root}
}

// Check decides whether a request for requestURL, made from a page at
// baseURL, for resourceType, should be blocked, excepted, or ignored.
func (m *Matcher) Check(baseURL, requestURL string, resourceType cfrule.ResourceType) (d Decision) {
	defer func() { recordDecision(d.Kind) }()

	host, _ := cfrequest.Host(requestURL)
	baseHost, _ := cfrequest.Host(baseURL)

	ctx := &requestContext{
		fullURL:      normalizeURL(requestURL),
		host:         host,
		baseHost:     baseHost,
		resourceType: resourceType,
	}

	runes := []rune(ctx.fullURL)

	var block *cfrule.NetworkRule
	for i := range runes {
		except, b := m.walk(m.root, runes[i:], "", ctx)
		if except != nil {
			return *except
		}

		if b != nil {
			block = b
		}
	}

	if block != nil {
		return Decision{Kind: Block, Rule: block}
	}

	return ignoreDecision
}

// normalizeURL strips a protocol-relative "//" prefix, per spec §4.3
// preprocessing.
func normalizeURL(requestURL string) (u string) {
	return strings.TrimPrefix(requestURL, "//")
}

// recordDecision increments the check-decision counter for kind.
func recordDecision(kind Kind) {
	switch kind {
	case Block:
		cfmetrics.CheckDecisionsBlock.Inc()
	case Except:
		cfmetrics.CheckDecisionsExcept.Inc()
	default:
		cfmetrics.CheckDecisionsIgnore.Inc()
	}
}

// isSeparator reports whether r belongs to the separator character class:
// anything that is not a letter, a digit, or one of '_', '-', '.', '%'.
func isSeparator(r rune) (ok bool) {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}

	switch r {
	case '_', '-', '.', '%':
		return false
	default:
		return true
	}
}

// evaluateNode runs every rule terminating at node through the evaluator,
// returning the first exception match (if any) and the last blocking
// match (last-one-wins, per spec §4.3's tie-break policy).
func (m *Matcher) evaluateNode(
	node *cftrie.Node,
	currentRule string,
	ctx *requestContext,
) (except *Decision, block *cfrule.NetworkRule) {
	for _, rule := range node.Rules() {
		if !evaluateRule(rule, currentRule, ctx) {
			continue
		}

		d := decisionFor(rule)
		if d.Kind == Except {
			return &d, block
		}

		block = rule
	}

	return nil, block
}

// walk is the subtree-walk of spec §4.3: it evaluates node's own rules,
// then descends every applicable child edge (wildcard, separator,
// literal), accumulating the same way across every branch.
func (m *Matcher) walk(
	node *cftrie.Node,
	remaining []rune,
	currentRule string,
	ctx *requestContext,
) (except *Decision, block *cfrule.NetworkRule) {
	except, block = m.evaluateNode(node, currentRule, ctx)
	if except != nil {
		return except, block
	}

	if wc := node.WildcardChild(); wc != nil {
		for k := 0; k <= len(remaining); k++ {
			ex, bl := m.walk(wc, remaining[k:], currentRule+string(remaining[:k]), ctx)
			if ex != nil {
				return ex, bl
			}

			if bl != nil {
				block = bl
			}
		}
	}

	if sc := node.SeparatorChild(); sc != nil {
		if len(remaining) == 0 || isSeparator(remaining[0]) {
			ex, bl := m.walk(sc, remaining, currentRule, ctx)
			if ex != nil {
				return ex, bl
			}

			if bl != nil {
				block = bl
			}
		}
	}

	if len(remaining) > 0 {
		if lc := node.LiteralChild(remaining[0]); lc != nil {
			ex, bl := m.walk(lc, remaining[1:], currentRule+string(remaining[0]), ctx)
			if ex != nil {
				return ex, bl
			}

			if bl != nil {
				block = bl
			}
		}
	}

	return nil, block
}
