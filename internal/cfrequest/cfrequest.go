// Package cfrequest provides the request/host helpers the rule evaluator
// needs: turning a base or request URL string into a host, enumerating a
// host's subdomain list, and the substring-containment test used to compare
// a host against a rule's domain lists.
package cfrequest

import (
	"strings"

	hqurl "github.com/hueristiq/hq-go-url"
)

// parser is shared across calls: building its TLD suffix array is the
// expensive part of construction, and it holds no per-call state.
var parser = hqurl.NewParser(hqurl.ParserWithDefaultScheme("http"))

// Host parses rawURL and returns its host component, stripped of any port.
// An empty rawURL yields an empty host and no error, matching the matcher's
// treatment of an absent base URL as "no party constraint".
func Host(rawURL string) (host string, err error) {
	if rawURL == "" {
		return "", nil
	}

	// Protocol-relative URLs ("//host/path") parse cleanly once a scheme is
	// forced on by the parser's default-scheme handling below; strip them
	// first only when the caller passed the bare form without "//" at all,
	// which addScheme inside the parser already handles.
	parsed, err := parser.Parse(rawURL)
	if err != nil {
		return "", err
	}

	return parsed.Hostname(), nil
}

// SubdomainList returns h itself plus every host obtained by stripping
// leading labels from h at each '.', from most to least specific. For
// "a.b.example.com" it returns ["a.b.example.com", "b.example.com",
// "example.com", "com"].
func SubdomainList(h string) (list []string) {
	if h == "" {
		return nil
	}

	list = append(list, h)
	for i := 0; i < len(h); i++ {
		if h[i] == '.' {
			list = append(list, h[i+1:])
		}
	}

	return list
}

// Contains reports whether host h includes entry e as a substring, the
// permissive domain-list match test: not a strict suffix check.
func Contains(h, e string) (ok bool) {
	return strings.Contains(h, e)
}

// ContainsAny reports whether host h contains any of entries as a
// substring.
func ContainsAny(h string, entries []string) (ok bool) {
	for _, e := range entries {
		if Contains(h, e) {
			return true
		}
	}

	return false
}

// SubdomainListContains reports whether target appears verbatim in the
// subdomain list of h, i.e. whether target is h itself or one of h's
// parent domains.
func SubdomainListContains(h, target string) (ok bool) {
	for _, s := range SubdomainList(h) {
		if s == target {
			return true
		}
	}

	return false
}

// IsSameParty reports whether a request to host, made from a page whose
// host is baseHost, is first-party. An empty baseHost (no base page, e.g. a
// top-level navigation) is always treated as same-party.
func IsSameParty(baseHost, host string) (ok bool) {
	return baseHost == "" || SubdomainListContains(host, baseHost)
}
