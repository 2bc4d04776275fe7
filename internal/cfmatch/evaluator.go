package cfmatch

import (
	"strings"

	"github.com/veilmesh/cfengine/internal/cfrequest"
	"github.com/veilmesh/cfengine/internal/cfrule"
)

// requestContext is the per-query context threaded through rule
// evaluation: the full request URL and the hosts derived from it, plus the
// resource type of the request.
type requestContext struct {
	fullURL      string
	host         string
	baseHost     string
	resourceType cfrule.ResourceType
}

// domainAnchorDelimiters are the characters that terminate a domain-anchor
// prefix, per the resolved open question in spec §9: the first occurrence
// is used unconditionally, even inside a query string.
const domainAnchorDelimiters = ":?&/="

// domainAnchorPrefix returns the portion of currentRule up to (but not
// including) the first occurrence of any rune in domainAnchorDelimiters.
func domainAnchorPrefix(currentRule string) (prefix string) {
	i := strings.IndexAny(currentRule, domainAnchorDelimiters)
	if i < 0 {
		return currentRule
	}

	return currentRule[:i]
}

// evaluateRule applies every check of the rule evaluator to rule given the
// accumulated currentRule substring, and reports whether the rule applies
// to this request.
func evaluateRule(rule *cfrule.NetworkRule, currentRule string, ctx *requestContext) (applies bool) {
	if !checkAnchor(rule, currentRule, ctx.fullURL) {
		return false
	}

	if rule.IsDomainAnchored {
		prefix := domainAnchorPrefix(currentRule)
		if !cfrequest.SubdomainListContains(ctx.host, prefix) {
			return false
		}
	}

	blocked := checkDomainList(rule, ctx.baseHost)
	blocked = applyThirdParty(rule, ctx, blocked)
	if !blocked {
		return false
	}

	return rule.Options.MatchesResourceType(ctx.resourceType)
}

// checkAnchor implements spec §4.4 step 1.
func checkAnchor(rule *cfrule.NetworkRule, currentRule, fullURL string) (ok bool) {
	switch rule.Anchor {
	case cfrule.AnchorStart:
		return strings.HasPrefix(fullURL, currentRule)
	case cfrule.AnchorEnd:
		return strings.HasSuffix(fullURL, currentRule)
	case cfrule.AnchorExact:
		return fullURL == currentRule
	default:
		return strings.Contains(fullURL, currentRule)
	}
}

// checkDomainList implements spec §4.4 step 3. The two lists are tested in
// sequence rather than as exclusive branches: when a rule carries both, an
// allowed-domain match overrides a blocked-domain match, matching the
// source's "allowedDomains wins" precedence for domain= entries.
func checkDomainList(rule *cfrule.NetworkRule, baseHost string) (blocked bool) {
	blocked = true

	if len(rule.BlockedDomains) > 0 {
		blocked = cfrequest.ContainsAny(baseHost, rule.BlockedDomains)
	}

	if len(rule.AllowedDomains) > 0 {
		blocked = !cfrequest.ContainsAny(baseHost, rule.AllowedDomains)
	}

	return blocked
}

// applyThirdParty implements spec §4.4 step 4. It does not gate blocked
// with an independent AND: when the rule carries a ThirdParty constraint,
// its outcome replaces blocked outright, the same way the source
// resolver reassigns a single isBlocked variable across both steps rather
// than combining two separately-gated booleans.
func applyThirdParty(rule *cfrule.NetworkRule, ctx *requestContext, blocked bool) (stillBlocked bool) {
	if !rule.Options.Has(cfrule.OptThirdParty) && !rule.Options.Has(cfrule.OptThirdPartyException) {
		return blocked
	}

	isSameParty := cfrequest.IsSameParty(ctx.baseHost, ctx.host)
	hasDomainList := len(rule.BlockedDomains) > 0 || len(rule.AllowedDomains) > 0

	switch {
	case isSameParty:
		return rule.Options.Has(cfrule.OptThirdPartyException)
	case !hasDomainList:
		return rule.Options.Has(cfrule.OptThirdParty)
	default:
		return blocked
	}
}

// decisionFor turns a matching rule into its [Decision], per spec §4.4
// step 6.
func decisionFor(rule *cfrule.NetworkRule) (d Decision) {
	if !rule.IsException {
		return Decision{Kind: Block, Rule: rule}
	}

	d = Decision{Kind: Except, Rule: rule}
	switch {
	case rule.Options.Has(cfrule.OptElementHide):
		d.CosmeticOverride = CosmeticOverrideDisable
	case rule.Options.Has(cfrule.OptGenericHide):
		d.CosmeticOverride = CosmeticOverrideDomainOnly
	}

	return d
}
