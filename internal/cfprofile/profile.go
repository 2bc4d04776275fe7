// Package cfprofile ties the pattern index, the cosmetic store, and the
// refresh pipeline together behind a single profile: the unit spec §3/§5
// calls a profile's lifecycle, with exactly one active index swapped in
// atomically on every successful refresh.
package cfprofile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/veilmesh/cfengine/internal/cfcosmetic"
	"github.com/veilmesh/cfengine/internal/cfmatch"
	"github.com/veilmesh/cfengine/internal/cfmetrics"
	"github.com/veilmesh/cfengine/internal/cfrefresh"
	"github.com/veilmesh/cfengine/internal/cfrequest"
	"github.com/veilmesh/cfengine/internal/cfresultcache"
	"github.com/veilmesh/cfengine/internal/cfrule"
	"github.com/veilmesh/cfengine/internal/cftrie"
	"github.com/veilmesh/cfengine/internal/cfvalidate"
)

// The minimum and maximum lengths of a profile ID, enforced because the ID
// is used verbatim as a Prometheus label value and a structured-log
// attribute: an empty or oversized ID would silently corrupt metrics
// cardinality and log readability rather than fail fast at construction.
const (
	minIDLen = 1
	maxIDLen = 128
)

// validateID reports an error if id is not a valid profile ID: it must be
// within length bounds and contain only printable, non-space, non-slash
// ASCII characters, the same constraint the teacher's filter and account IDs
// enforce for the same reason (safe to use unescaped in labels, logs, and
// file paths).
func validateID(id string) (err error) {
	err = cfvalidate.Inclusion(len(id), minIDLen, maxIDLen, cfvalidate.UnitByte)
	if err != nil {
		return err
	}

	if i, r := cfvalidate.FirstNonIDRune(id, true); i != -1 {
		return fmt.Errorf("bad rune %q at index %d", r, i)
	}

	return nil
}

// generation is one fully-built index plus the cosmetic store parsed in the
// same pass. A *generation is never mutated after it is published: a
// refresh builds a brand new one and swaps the pointer, so a reader that
// loads a generation always sees a complete, internally consistent set of
// rules (spec §5, "a reader ... sees a fully built index ... never a
// half-built one").
type generation struct {
	matcher   *cfmatch.Matcher
	cosmetics *cfcosmetic.Store
	nodes     int
	rules     int
}

// Profile is one loaded filter list: its refresh source, its process-wide
// parse toggles, its result cache, and the currently active [generation].
//
// Teardown of a superseded generation is left to the Go garbage collector
// rather than implemented as manual reference counting: a [generation] is
// only reachable through the atomic pointer below or a reader's local
// variable obtained by [Profile.Check] before the next swap, so the
// collector cannot reclaim it before the last reader is done with it, and
// reclamation never blocks the goroutine that performed the swap. This
// satisfies spec §5's ordering requirement ("destruction must wait until
// no reader holds a reference") without hand-rolled epoch bookkeeping.
type Profile struct {
	id     string
	logger *slog.Logger

	refr  *cfrefresh.Refreshable
	cache *cfresultcache.Cache[cfmatch.Decision]

	wildcardsEnabled bool
	cosmeticMode     cfrule.CosmeticFiltersMode

	gen atomic.Pointer[generation]
}

// Config configures a [Profile].
type Config struct {
	// ID identifies the profile in logs and metrics labels.
	ID string

	// Refresh configures the underlying [cfrefresh.Refreshable].
	Refresh *cfrefresh.Config

	// Logger receives lifecycle diagnostics. If nil, [slog.Default] is
	// used.
	Logger *slog.Logger

	// WildcardsEnabled is the process-wide wildcard toggle applied at
	// parse time on every refresh.
	WildcardsEnabled bool

	// CosmeticMode is the process-wide cosmetic-filtering mode applied at
	// parse time on every refresh.
	CosmeticMode cfrule.CosmeticFiltersMode

	// ResultCacheSize is the number of entries the match-result cache
	// holds. Zero disables result caching.
	ResultCacheSize int
}

// New returns a new, empty Profile. Its index is empty until the first
// call to [Profile.Refresh]; until then, every [Profile.Check] returns
// [cfmatch.Ignore], matching spec §7's "behaves as if the profile were
// empty" failure behavior.
func New(c *Config) (p *Profile, err error) {
	if err = validateID(c.ID); err != nil {
		return nil, fmt.Errorf("cfprofile.New: bad profile id %q: %w", c.ID, err)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("profile_id", c.ID)

	if c.Refresh.Logger == nil {
		c.Refresh.Logger = logger
	}

	refr, err := cfrefresh.New(c.Refresh)
	if err != nil {
		return nil, fmt.Errorf("cfprofile.New: %w", err)
	}

	var cache *cfresultcache.Cache[cfmatch.Decision]
	if c.ResultCacheSize > 0 {
		cache = cfresultcache.New[cfmatch.Decision](c.ResultCacheSize)
	}

	return &Profile{
		id:               c.ID,
		logger:           logger,
		refr:             refr,
		cache:            cache,
		wildcardsEnabled: c.WildcardsEnabled,
		cosmeticMode:     c.CosmeticMode,
	}, nil
}

// Refresh reloads the profile's filter list, parses it, builds a fresh
// index and cosmetic store, and swaps them in atomically. If acceptStale
// is true, a cached-on-disk copy is preferred over a network fetch
// regardless of its age.
func (p *Profile) Refresh(ctx context.Context, acceptStale bool) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		cfmetrics.ProfileRefreshes.WithLabelValues(p.id, result).Inc()
	}()

	text, err := p.refr.Refresh(ctx, acceptStale)
	if err != nil {
		return errors.Annotate(err, "cfprofile: refreshing %q: %w", p.id)
	}

	next, stats := build(text, p.wildcardsEnabled, p.cosmeticMode)

	p.gen.Store(next)
	p.cache.Clear()

	cfmetrics.ProfileIndexNodes.WithLabelValues(p.id).Set(float64(next.nodes))
	cfmetrics.ProfileIndexRules.WithLabelValues(p.id).Set(float64(next.rules))

	p.logger.InfoContext(ctx, "refreshed",
		"network_rules", stats.NetworkRules,
		"cosmetic_rules", stats.CosmeticRules,
		"dropped", stats.Dropped(),
		"nodes", next.nodes,
	)

	return nil
}

// build parses text into a brand new generation, grounded on the same
// parse pass every load performs: network rules populate a fresh pattern
// index, cosmetic rules populate a fresh cosmetic store.
func build(
	text string,
	wildcardsEnabled bool,
	cosmeticMode cfrule.CosmeticFiltersMode,
) (g *generation, stats cfrule.ParseStats) {
	networkRules, cosmeticRules, stats := cfrule.ParseList(strings.NewReader(text), wildcardsEnabled, cosmeticMode)

	root := cftrie.NewRoot()
	for _, r := range networkRules {
		cftrie.Insert(root, r.Pattern, r)
	}

	store := cfcosmetic.NewStore()
	for _, r := range cosmeticRules {
		store.Insert(r)
	}

	return &generation{
		matcher:   cfmatch.New(root),
		cosmetics: store,
		nodes:     cftrie.NodeCount(root),
		rules:     cftrie.RuleCount(root),
	}, stats
}

// Check decides whether a request should be blocked, excepted, or
// ignored, consulting the result cache before falling back to a full trie
// walk. Before the first successful [Profile.Refresh], Check always
// returns [cfmatch.Ignore].
func (p *Profile) Check(baseURL, requestURL string, resourceType cfrule.ResourceType) (d cfmatch.Decision) {
	g := p.gen.Load()
	if g == nil {
		return cfmatch.Decision{Kind: cfmatch.Ignore}
	}

	key := cfresultcache.QueryKey(baseURL, requestURL, resourceType)
	if d, ok := p.cache.Get(key); ok {
		cfmetrics.ResultCacheHits.Inc()

		return d
	}
	cfmetrics.ResultCacheMisses.Inc()

	d = g.matcher.Check(baseURL, requestURL, resourceType)
	p.cache.Set(key, d)

	return d
}

// StyleSheet returns the generic cosmetic selectors that apply regardless
// of domain.
func (p *Profile) StyleSheet() (selectors []string) {
	g := p.gen.Load()
	if g == nil {
		return nil
	}

	return g.cosmetics.SelectorsAlwaysOn()
}

// StyleSheetBlacklist returns the blacklist cosmetic selectors registered
// for domain or any of its parent domains, per spec §4.5's "caller is
// responsible for querying by the hostname and its parent subdomains".
func (p *Profile) StyleSheetBlacklist(domain string) (selectors []string) {
	g := p.gen.Load()
	if g == nil {
		return nil
	}

	for _, d := range cfrequest.SubdomainList(domain) {
		selectors = append(selectors, g.cosmetics.SelectorsForDomain(d)...)
	}

	return selectors
}

// StyleSheetWhitelist returns the whitelist cosmetic selectors registered
// for domain or any of its parent domains.
func (p *Profile) StyleSheetWhitelist(domain string) (selectors []string) {
	g := p.gen.Load()
	if g == nil {
		return nil
	}

	for _, d := range cfrequest.SubdomainList(domain) {
		selectors = append(selectors, g.cosmetics.WhitelistedSelectorsForDomain(d)...)
	}

	return selectors
}
