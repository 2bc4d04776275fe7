// Package cfcosmetic implements the cosmetic (element-hide) store: the
// domain-keyed multimaps of CSS selectors populated by the rule parser and
// consulted once per page.
package cfcosmetic

import "github.com/veilmesh/cfengine/internal/cfrule"

// Store holds the three selector multimaps spec §4.5 names: the
// all-domains generic list, and the domain-keyed blacklist and whitelist.
// A Store is built once per profile load and replaced wholesale on
// refresh, alongside the pattern index it shares a parse pass with.
type Store struct {
	blacklist map[string][]string
	whitelist map[string][]string
	generic   []string
}

// NewStore returns an empty Store.
func NewStore() (s *Store) {
	return &Store{
		blacklist: make(map[string][]string),
		whitelist: make(map[string][]string),
	}
}

// Insert adds a parsed cosmetic rule to the store, per its scope.
func (s *Store) Insert(rule *cfrule.CosmeticRule) {
	switch rule.Scope {
	case cfrule.CosmeticGeneric:
		s.generic = append(s.generic, rule.Selector)
	case cfrule.CosmeticBlacklist:
		for _, d := range rule.Domains {
			s.blacklist[d] = append(s.blacklist[d], rule.Selector)
		}
	case cfrule.CosmeticWhitelist:
		for _, d := range rule.Domains {
			s.whitelist[d] = append(s.whitelist[d], rule.Selector)
		}
	}
}

// SelectorsAlwaysOn returns the generic selectors that apply regardless of
// domain.
func (s *Store) SelectorsAlwaysOn() (selectors []string) {
	return s.generic
}

// SelectorsForDomain returns the blacklist selectors registered for the
// exact domain string d. The caller is responsible for querying by the
// hostname and its parent subdomains if that fallback is wanted (spec
// §4.5: "the store does no network logic").
func (s *Store) SelectorsForDomain(d string) (selectors []string) {
	return s.blacklist[d]
}

// WhitelistedSelectorsForDomain returns the whitelist selectors registered
// for the exact domain string d.
func (s *Store) WhitelistedSelectorsForDomain(d string) (selectors []string) {
	return s.whitelist[d]
}
