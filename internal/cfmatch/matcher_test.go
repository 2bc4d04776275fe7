package cfmatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veilmesh/cfengine/internal/cfmatch"
	"github.com/veilmesh/cfengine/internal/cfrule"
	"github.com/veilmesh/cfengine/internal/cftrie"
)

// buildMatcher parses each line as a network rule and inserts it into a
// fresh pattern index, mirroring how cfprofile wires cfrule and cftrie
// together at load time.
func buildMatcher(t *testing.T, lines ...string) *cfmatch.Matcher {
	t.Helper()

	root := cftrie.NewRoot()
	for _, line := range lines {
		nr, _, reason := cfrule.ParseLine(line, true, cfrule.CosmeticFiltersAll)
		require.NotNil(t, nr, "line %q dropped: %s", line, reason)

		cftrie.Insert(root, nr.Pattern, nr)
	}

	return cfmatch.New(root)
}

func TestCheck_containsWildcard(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "/ads/*")
	d := m.Check("http://news.example", "http://cdn.example/ads/banner.gif", cfrule.ResourceImage)
	require.Equal(t, cfmatch.Block, d.Kind)
	assert.Equal(t, "/ads/*", d.Rule.RawText)
}

func TestCheck_exceptionOverridesBlock(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "||trackers.example^", "@@||trackers.example^$image")
	d := m.Check("http://x.test", "http://trackers.example/pixel.gif", cfrule.ResourceImage)
	require.Equal(t, cfmatch.Except, d.Kind)
	assert.True(t, d.Rule.IsException)
}

func TestCheck_thirdPartyRejectsSameParty(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "||ads.example^$third-party")
	d := m.Check("http://ads.example", "http://ads.example/a.js", cfrule.ResourceScript)
	assert.Equal(t, cfmatch.Ignore, d.Kind)
}

func TestCheck_domainOptionAllowedOverridesBlocked(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "banner$domain=foo.test|~bar.foo.test")

	d := m.Check("http://bar.foo.test", "http://cdn/banner", cfrule.ResourceImage)
	assert.Equal(t, cfmatch.Ignore, d.Kind)

	d = m.Check("http://other.foo.test", "http://cdn/banner", cfrule.ResourceImage)
	require.Equal(t, cfmatch.Block, d.Kind)
}

func TestCheck_thirdPartyExceptionOverridesDomainListOnSameParty(t *testing.T) {
	t.Parallel()

	// The rule's domain list doesn't list the request's own base host, so
	// step 3 alone would leave it unblocked. Step 4 must still override
	// that with the ThirdPartyException outcome, because this is a
	// same-party request.
	m := buildMatcher(t, "ads$~third-party,domain=evil.test")
	d := m.Check("http://mysite.test", "http://mysite.test/ads.js", cfrule.ResourceScript)
	require.Equal(t, cfmatch.Block, d.Kind)
}

func TestCheck_resourceTypeMaskDistinguishesImageFromScript(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "/track^$image,~script")

	d := m.Check("http://x.test", "http://x/track?id=1", cfrule.ResourceImage)
	require.Equal(t, cfmatch.Block, d.Kind)

	d = m.Check("http://x.test", "http://x/track?id=1", cfrule.ResourceScript)
	assert.Equal(t, cfmatch.Ignore, d.Kind)
}

func TestCheck_protocolRelativeURLNormalized(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "||cdn.example^")
	d := m.Check("http://x.test", "//cdn.example/a.js", cfrule.ResourceScript)
	require.Equal(t, cfmatch.Block, d.Kind)
}

func TestCheck_noMatchIsIgnore(t *testing.T) {
	t.Parallel()

	m := buildMatcher(t, "/ads/banner")
	d := m.Check("http://x.test", "http://cdn.example/safe.js", cfrule.ResourceScript)
	assert.Equal(t, cfmatch.Ignore, d.Kind)
}
