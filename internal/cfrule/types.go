// Package cfrule implements the rule parser: it tokenizes one filter-list
// line into either a network rule or a cosmetic rule, per the AdBlock Plus
// filter syntax.
package cfrule

import (
	"fmt"
	"unicode/utf8"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/veilmesh/cfengine/internal/cfvalidate"
)

// Anchor is the kind of positional constraint a network rule's pattern
// places on the matched URL.
type Anchor uint8

// Anchor values.
const (
	// AnchorContains means the pattern may match anywhere in the URL.
	AnchorContains Anchor = iota
	// AnchorStart means the pattern must match a prefix of the URL.
	AnchorStart
	// AnchorEnd means the pattern must match a suffix of the URL.
	AnchorEnd
	// AnchorExact means the pattern must match the entire URL.
	AnchorExact
)

// String implements the fmt.Stringer interface for Anchor.
func (a Anchor) String() (s string) {
	switch a {
	case AnchorContains:
		return "contains"
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	case AnchorExact:
		return "exact"
	default:
		return fmt.Sprintf("Anchor(%d)", uint8(a))
	}
}

// Option is a bit mask over the resource-type and request-kind flags a
// network rule's "$..." option list may carry.
//
// Each option except [OptWebSocket], [OptElementHide], and [OptGenericHide]
// is paired with an exception bit one position higher, set when the option
// was written with a leading "~". This pairing is a layout detail, not part
// of the externally visible contract.
type Option uint32

// Slot indices for the paired options, used only to compute the bit
// constants below.
const (
	optSlotThirdParty = iota
	optSlotStyleSheet
	optSlotScript
	optSlotImage
	optSlotObject
	optSlotObjectSubRequest
	optSlotSubDocument
	optSlotXMLHTTPRequest
)

// Option bit constants.
const (
	OptThirdParty          Option = 1 << (2 * optSlotThirdParty)
	OptThirdPartyException Option = 1 << (2*optSlotThirdParty + 1)

	OptStyleSheet          Option = 1 << (2 * optSlotStyleSheet)
	OptStyleSheetException Option = 1 << (2*optSlotStyleSheet + 1)

	OptScript          Option = 1 << (2 * optSlotScript)
	OptScriptException Option = 1 << (2*optSlotScript + 1)

	OptImage          Option = 1 << (2 * optSlotImage)
	OptImageException Option = 1 << (2*optSlotImage + 1)

	OptObject          Option = 1 << (2 * optSlotObject)
	OptObjectException Option = 1 << (2*optSlotObject + 1)

	OptObjectSubRequest          Option = 1 << (2 * optSlotObjectSubRequest)
	OptObjectSubRequestException Option = 1 << (2*optSlotObjectSubRequest + 1)

	OptSubDocument          Option = 1 << (2 * optSlotSubDocument)
	OptSubDocumentException Option = 1 << (2*optSlotSubDocument + 1)

	OptXMLHTTPRequest          Option = 1 << (2 * optSlotXMLHTTPRequest)
	OptXMLHTTPRequestException Option = 1 << (2*optSlotXMLHTTPRequest + 1)

	// OptWebSocket, OptElementHide, and OptGenericHide have no exception
	// bit: a negated "~websocket" is silently dropped at parse time, and
	// "elemhide"/"generichide" are only meaningful on exception rules.
	OptWebSocket   Option = 1 << 16
	OptElementHide Option = 1 << 17
	OptGenericHide Option = 1 << 18
)

// Has reports whether o has all bits of mask set.
func (o Option) Has(mask Option) (ok bool) {
	return o&mask == mask
}

// ResourceType is the kind of resource a network request is for, as seen by
// the [Option] resource-type mask.
type ResourceType uint8

// ResourceType values.  ResourceOther and ResourceDocument carry no
// corresponding [Option] bit: a rule with any resource-type inclusion bit
// never matches them, while a rule with only exception bits, or none,
// always does.
const (
	ResourceOther ResourceType = iota
	ResourceDocument
	ResourceImage
	ResourceScript
	ResourceStyleSheet
	ResourceObject
	ResourceObjectSubrequest
	ResourceXMLHTTPRequest
	ResourceSubFrame
	ResourceWebSocket
)

// String implements the fmt.Stringer interface for ResourceType.
func (t ResourceType) String() (s string) {
	switch t {
	case ResourceDocument:
		return "document"
	case ResourceImage:
		return "image"
	case ResourceScript:
		return "script"
	case ResourceStyleSheet:
		return "stylesheet"
	case ResourceObject:
		return "object"
	case ResourceObjectSubrequest:
		return "object-subrequest"
	case ResourceXMLHTTPRequest:
		return "xmlhttprequest"
	case ResourceSubFrame:
		return "subframe"
	case ResourceWebSocket:
		return "websocket"
	default:
		return "other"
	}
}

// resourceTypeInclusion maps a resource type to the option inclusion bit
// that names it, for the types spec'd in the resource-type option mask.
var resourceTypeInclusion = map[ResourceType]Option{
	ResourceImage:            OptImage,
	ResourceScript:           OptScript,
	ResourceStyleSheet:       OptStyleSheet,
	ResourceObject:           OptObject,
	ResourceXMLHTTPRequest:   OptXMLHTTPRequest,
	ResourceSubFrame:         OptSubDocument,
	ResourceObjectSubrequest: OptObjectSubRequest,
	ResourceWebSocket:        OptWebSocket,
}

// resourceTypeException maps a resource type to the option exception bit
// that names it.  ResourceWebSocket has no entry, since OptWebSocket has no
// exception bit.
var resourceTypeException = map[ResourceType]Option{
	ResourceImage:            OptImageException,
	ResourceScript:           OptScriptException,
	ResourceStyleSheet:       OptStyleSheetException,
	ResourceObject:           OptObjectException,
	ResourceXMLHTTPRequest:   OptXMLHTTPRequestException,
	ResourceSubFrame:         OptSubDocumentException,
	ResourceObjectSubrequest: OptObjectSubRequestException,
}

// resourceTypeInclusionMask is the union of all resource-type inclusion
// bits, used to test whether a rule declares any positive resource-type
// constraint at all.
const resourceTypeInclusionMask Option = OptImage | OptScript | OptStyleSheet |
	OptObject | OptXMLHTTPRequest | OptSubDocument | OptObjectSubRequest | OptWebSocket

// resourceTypeExceptionMask is the union of all resource-type exception
// bits.
const resourceTypeExceptionMask Option = OptImageException | OptScriptException |
	OptStyleSheetException | OptObjectException | OptXMLHTTPRequestException |
	OptSubDocumentException | OptObjectSubRequestException

// MatchesResourceType reports whether o's resource-type constraint (if any)
// is satisfied by rt, per spec §4.4 step 5.  If o declares no resource-type
// bits at all, the constraint is vacuous and MatchesResourceType always
// returns true.
func (o Option) MatchesResourceType(rt ResourceType) (ok bool) {
	posMask := o & resourceTypeInclusionMask
	negMask := o & resourceTypeExceptionMask
	if posMask == 0 && negMask == 0 {
		return true
	}

	if posMask != 0 {
		inclBit, hasIncl := resourceTypeInclusion[rt]

		return hasIncl && posMask&inclBit != 0
	}

	exclBit, hasExcl := resourceTypeException[rt]
	if hasExcl && negMask&exclBit != 0 {
		return false
	}

	return true
}

// NetworkRule is a parsed network (request-blocking) filter rule.
type NetworkRule struct {
	// RawText is the original line, preserved for diagnostic reporting.
	RawText string

	// Pattern is the stripped pattern string: no anchors, no options, but
	// possibly containing literal '*' and '^' metacharacters.
	Pattern string

	// BlockedDomains and AllowedDomains are the host lists from the
	// "domain=" option.  They are disjoint.
	BlockedDomains []string
	AllowedDomains []string

	// Options is the resource-type and request-kind flag mask.
	Options Option

	// Anchor is the positional constraint on where Pattern must match.
	Anchor Anchor

	// IsDomainAnchored is true if the pattern was introduced with "||".
	IsDomainAnchored bool

	// IsException is true if this rule unblocks a match (introduced by
	// "@@").
	IsException bool
}

// CosmeticScope is the domain scope of a [CosmeticRule].
type CosmeticScope uint8

// CosmeticScope values.
const (
	// CosmeticGeneric rules apply to all domains ("##" with no domain
	// list).
	CosmeticGeneric CosmeticScope = iota
	// CosmeticBlacklist rules hide the selector on the listed domains
	// ("domain##selector").
	CosmeticBlacklist
	// CosmeticWhitelist rules unhide the selector on the listed domains
	// ("domain#@#selector").
	CosmeticWhitelist
)

// CosmeticRule is a parsed cosmetic (element-hide) filter rule.
type CosmeticRule struct {
	// RawText is the original line.
	RawText string

	// Selector is the CSS selector to hide (or unhide).
	Selector string

	// Domains is the comma-separated domain list the rule is scoped to.
	// It is empty for [CosmeticGeneric] rules.
	Domains []string

	// Scope is the domain scope of this rule.
	Scope CosmeticScope
}

// CosmeticFiltersMode is the process-wide cosmetic-filtering toggle
// consulted by the parser, per spec §6.
type CosmeticFiltersMode uint8

// CosmeticFiltersMode values.
const (
	// CosmeticFiltersAll accepts every cosmetic rule, generic or
	// domain-scoped.
	CosmeticFiltersAll CosmeticFiltersMode = iota
	// CosmeticFiltersDomainOnly rejects generic ("##") rules but accepts
	// domain-scoped ones.
	CosmeticFiltersDomainOnly
	// CosmeticFiltersNone rejects every cosmetic rule.
	CosmeticFiltersNone
)

// DropReason records why a single filter-list line was silently dropped.
type DropReason uint8

// DropReason values.
const (
	// DropReasonNone means the line was not dropped (or was a comment,
	// which is not an error condition).
	DropReasonNone DropReason = iota
	// DropReasonDisabledWildcard means the pattern still contained '*'
	// while wildcards are globally disabled.
	DropReasonDisabledWildcard
	// DropReasonEmptyPattern means the pattern was empty after stripping
	// anchors and redundant wildcards.
	DropReasonEmptyPattern
	// DropReasonUnknownOption means an option token was not recognized.
	DropReasonUnknownOption
	// DropReasonMalformedDomain means a "domain=" option had an empty
	// entry.
	DropReasonMalformedDomain
	// DropReasonCosmeticModeDisabled means a cosmetic rule was rejected
	// by the current [CosmeticFiltersMode].
	DropReasonCosmeticModeDisabled
)

// String implements the fmt.Stringer interface for DropReason.
func (r DropReason) String() (s string) {
	switch r {
	case DropReasonDisabledWildcard:
		return "disabled wildcard"
	case DropReasonEmptyPattern:
		return "empty pattern"
	case DropReasonUnknownOption:
		return "unknown option"
	case DropReasonMalformedDomain:
		return "malformed domain list"
	case DropReasonCosmeticModeDisabled:
		return "cosmetic mode disabled"
	default:
		return "none"
	}
}

// RuleText is the text of a single rule within a filter list.
type RuleText string

// MaxRuleTextRuneLen is the maximum length of a filter rule in runes.
const MaxRuleTextRuneLen = 1024

// NewRuleText converts a simple string into a RuleText and makes sure that
// it's valid.  This should be preferred to a simple type conversion.
func NewRuleText(s string) (t RuleText, err error) {
	defer func() { err = errors.Annotate(err, "bad filter rule text %q: %w", s) }()

	err = cfvalidate.Inclusion(utf8.RuneCountInString(s), 0, MaxRuleTextRuneLen, cfvalidate.UnitRune)
	if err != nil {
		return "", err
	}

	return RuleText(s), nil
}

// ParseStats summarizes the result of parsing a whole filter list: how many
// rules of each kind were accepted, and why the rest were dropped.  This is
// the engine's only per-load diagnostic surface; per-line failures never
// propagate as errors (spec §7).
type ParseStats struct {
	// DroppedByReason counts dropped rule lines by [DropReason].
	DroppedByReason map[DropReason]int

	// NetworkRules is the number of network rules accepted.
	NetworkRules int

	// CosmeticRules is the number of cosmetic rules accepted.
	CosmeticRules int

	// CommentLines is the number of blank or "!"-prefixed lines seen.
	CommentLines int
}

// recordDrop increments the counter for reason, initializing the map if
// necessary.
func (s *ParseStats) recordDrop(reason DropReason) {
	if s.DroppedByReason == nil {
		s.DroppedByReason = make(map[DropReason]int, 1)
	}

	s.DroppedByReason[reason]++
}

// Dropped returns the total number of dropped rule lines across all
// reasons.
func (s *ParseStats) Dropped() (n int) {
	for _, c := range s.DroppedByReason {
		n += c
	}

	return n
}
