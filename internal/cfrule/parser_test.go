package cfrule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veilmesh/cfengine/internal/cfrule"
)

func TestParseLine_comment(t *testing.T) {
	t.Parallel()

	nr, cr, reason := cfrule.ParseLine("! a comment", true, cfrule.CosmeticFiltersAll)
	assert.Nil(t, nr)
	assert.Nil(t, cr)
	assert.Equal(t, cfrule.DropReasonNone, reason)

	nr, cr, reason = cfrule.ParseLine("", true, cfrule.CosmeticFiltersAll)
	assert.Nil(t, nr)
	assert.Nil(t, cr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
}

func TestParseLine_cosmeticGeneric(t *testing.T) {
	t.Parallel()

	nr, cr, reason := cfrule.ParseLine("##.ad-banner", true, cfrule.CosmeticFiltersAll)
	require.Nil(t, nr)
	require.NotNil(t, cr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.Equal(t, ".ad-banner", cr.Selector)
	assert.Equal(t, cfrule.CosmeticGeneric, cr.Scope)
	assert.Empty(t, cr.Domains)

	_, cr, reason = cfrule.ParseLine("##.ad-banner", true, cfrule.CosmeticFiltersDomainOnly)
	assert.Nil(t, cr)
	assert.Equal(t, cfrule.DropReasonCosmeticModeDisabled, reason)
}

func TestParseLine_cosmeticDomainScoped(t *testing.T) {
	t.Parallel()

	_, cr, reason := cfrule.ParseLine("example.test##.sponsored", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, cr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.Equal(t, []string{"example.test"}, cr.Domains)
	assert.Equal(t, ".sponsored", cr.Selector)
	assert.Equal(t, cfrule.CosmeticBlacklist, cr.Scope)

	_, cr, _ = cfrule.ParseLine("a.test,b.test#@#.ok", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, cr)
	assert.Equal(t, []string{"a.test", "b.test"}, cr.Domains)
	assert.Equal(t, cfrule.CosmeticWhitelist, cr.Scope)

	_, cr, reason = cfrule.ParseLine("example.test##.sponsored", true, cfrule.CosmeticFiltersNone)
	assert.Nil(t, cr)
	assert.Equal(t, cfrule.DropReasonCosmeticModeDisabled, reason)
}

func TestParseLine_anchorsAndException(t *testing.T) {
	t.Parallel()

	nr, _, reason := cfrule.ParseLine("@@||trackers.example^$image", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	require.Equal(t, cfrule.DropReasonNone, reason)
	assert.True(t, nr.IsException)
	assert.True(t, nr.IsDomainAnchored)
	assert.Equal(t, "trackers.example^", nr.Pattern)
	assert.True(t, nr.Options.Has(cfrule.OptImage))

	nr, _, _ = cfrule.ParseLine("|http://example.com|", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.AnchorExact, nr.Anchor)
	assert.Equal(t, "http://example.com", nr.Pattern)

	nr, _, _ = cfrule.ParseLine("|http://example.com/ads", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.AnchorStart, nr.Anchor)

	nr, _, _ = cfrule.ParseLine("ads.swf|", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.AnchorEnd, nr.Anchor)
}

func TestParseLine_wildcardStripping(t *testing.T) {
	t.Parallel()

	nr, _, _ := cfrule.ParseLine("/ads/*", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, "/ads/", nr.Pattern)

	nr, _, _ = cfrule.ParseLine("*.ads.example", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, ".ads.example", nr.Pattern)

	// A lone "*" is the pattern itself, not emptied by redundant-anchor
	// stripping.
	nr, _, reason := cfrule.ParseLine("*", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.Equal(t, "*", nr.Pattern)

	_, _, reason = cfrule.ParseLine("/ads/*", false, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonDisabledWildcard, reason)
}

func TestParseLine_emptyPatternDropped(t *testing.T) {
	t.Parallel()

	nr, cr, reason := cfrule.ParseLine("||", true, cfrule.CosmeticFiltersAll)
	assert.Nil(t, nr)
	assert.Nil(t, cr)
	assert.Equal(t, cfrule.DropReasonEmptyPattern, reason)

	_, _, reason = cfrule.ParseLine("|", true, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonEmptyPattern, reason)
}

func TestParseLine_domainOption(t *testing.T) {
	t.Parallel()

	nr, _, reason := cfrule.ParseLine("banner$domain=foo.test|~bar.foo.test", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.Equal(t, []string{"foo.test"}, nr.BlockedDomains)
	assert.Equal(t, []string{"bar.foo.test"}, nr.AllowedDomains)

	_, _, reason = cfrule.ParseLine("banner$domain=", true, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonMalformedDomain, reason)

	_, _, reason = cfrule.ParseLine("banner$domain=foo.test|", true, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonMalformedDomain, reason)
}

func TestParseLine_optionKeywords(t *testing.T) {
	t.Parallel()

	nr, _, reason := cfrule.ParseLine("/track^$image,~script", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.True(t, nr.Options.Has(cfrule.OptImage))
	assert.True(t, nr.Options.Has(cfrule.OptScriptException))
	assert.False(t, nr.Options.Has(cfrule.OptScript))

	// object-subrequest and object_subrequest are synonyms.
	nr1, _, _ := cfrule.ParseLine("a$object-subrequest", true, cfrule.CosmeticFiltersAll)
	nr2, _, _ := cfrule.ParseLine("a$object_subrequest", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr1)
	require.NotNil(t, nr2)
	assert.Equal(t, nr1.Options, nr2.Options)

	// Negated websocket is silently dropped, the rule itself survives.
	nr, _, reason = cfrule.ParseLine("a$~websocket", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.False(t, nr.Options.Has(cfrule.OptWebSocket))

	// Unknown option drops the whole rule.
	_, _, reason = cfrule.ParseLine("a$bogus", true, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonUnknownOption, reason)
}

func TestParseLine_elemhideGenerichideExceptionOnly(t *testing.T) {
	t.Parallel()

	// Ignored (but not an error) on a blocking rule.
	nr, _, reason := cfrule.ParseLine("a$elemhide", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.False(t, nr.Options.Has(cfrule.OptElementHide))

	// Honored on an exception rule.
	nr, _, reason = cfrule.ParseLine("@@a$elemhide", true, cfrule.CosmeticFiltersAll)
	require.NotNil(t, nr)
	assert.Equal(t, cfrule.DropReasonNone, reason)
	assert.True(t, nr.Options.Has(cfrule.OptElementHide))

	// Negated forms are not defined; drop the rule.
	_, _, reason = cfrule.ParseLine("@@a$~elemhide", true, cfrule.CosmeticFiltersAll)
	assert.Equal(t, cfrule.DropReasonUnknownOption, reason)
}

func TestOption_MatchesResourceType(t *testing.T) {
	t.Parallel()

	var o cfrule.Option
	// No bits set at all: vacuous.
	assert.True(t, o.MatchesResourceType(cfrule.ResourceImage))
	assert.True(t, o.MatchesResourceType(cfrule.ResourceScript))

	o = cfrule.OptImage | cfrule.OptScriptException
	assert.True(t, o.MatchesResourceType(cfrule.ResourceImage))
	assert.False(t, o.MatchesResourceType(cfrule.ResourceScript))
	assert.False(t, o.MatchesResourceType(cfrule.ResourceStyleSheet))

	o = cfrule.OptScriptException
	assert.False(t, o.MatchesResourceType(cfrule.ResourceScript))
	assert.True(t, o.MatchesResourceType(cfrule.ResourceImage))
}
