package cfrule

import "strings"

// ParseLine tokenizes one filter-list line per spec §4.1's classification
// and tokenization rules.  Exactly one of nr and cr is non-nil on success;
// both are nil if the line was a comment or was dropped, in which case
// reason explains why (reason is [DropReasonNone] for comments and blank
// lines, which are not error conditions).
func ParseLine(
	line string,
	wildcardsEnabled bool,
	cosmeticMode CosmeticFiltersMode,
) (nr *NetworkRule, cr *CosmeticRule, reason DropReason) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" || strings.HasPrefix(line, "!") {
		return nil, nil, DropReasonNone
	}

	if strings.HasPrefix(line, "##") {
		if cosmeticMode != CosmeticFiltersAll {
			return nil, nil, DropReasonCosmeticModeDisabled
		}

		return nil, &CosmeticRule{
			RawText:  line,
			Selector: line[len("##"):],
			Scope:    CosmeticGeneric,
		}, DropReasonNone
	}

	if idx := strings.Index(line, "##"); idx >= 0 {
		if cosmeticMode == CosmeticFiltersNone {
			return nil, nil, DropReasonCosmeticModeDisabled
		}

		return nil, &CosmeticRule{
			RawText:  line,
			Domains:  splitDomainList(line[:idx]),
			Selector: line[idx+len("##"):],
			Scope:    CosmeticBlacklist,
		}, DropReasonNone
	}

	if idx := strings.Index(line, "#@#"); idx >= 0 {
		if cosmeticMode == CosmeticFiltersNone {
			return nil, nil, DropReasonCosmeticModeDisabled
		}

		return nil, &CosmeticRule{
			RawText:  line,
			Domains:  splitDomainList(line[:idx]),
			Selector: line[idx+len("#@#"):],
			Scope:    CosmeticWhitelist,
		}, DropReasonNone
	}

	return parseNetworkRule(line, wildcardsEnabled)
}

// splitDomainList splits a comma-separated domain list as found on the left
// side of a domain-scoped cosmetic rule.
func splitDomainList(s string) (domains []string) {
	if s == "" {
		return nil
	}

	return strings.Split(s, ",")
}

// parseNetworkRule tokenizes the network-rule form of a filter-list line,
// per spec §4.1's network-rule tokenization steps 1-7.
func parseNetworkRule(line string, wildcardsEnabled bool) (nr *NetworkRule, cr *CosmeticRule, reason DropReason) {
	pattern := line
	optsStr := ""
	if idx := strings.IndexByte(line, '$'); idx >= 0 {
		pattern = line[:idx]
		optsStr = line[idx+1:]
	}

	// A lone "*" is the pattern itself, not a redundant anchor around an
	// empty pattern; leave it alone.
	if pattern != "*" {
		pattern = strings.TrimSuffix(pattern, "*")
		pattern = strings.TrimPrefix(pattern, "*")
	}

	if !wildcardsEnabled && strings.ContainsRune(pattern, '*') {
		return nil, nil, DropReasonDisabledWildcard
	}

	isException := false
	if strings.HasPrefix(pattern, "@@") {
		isException = true
		pattern = pattern[len("@@"):]
	}

	isDomainAnchored := false
	if strings.HasPrefix(pattern, "||") {
		isDomainAnchored = true
		pattern = pattern[len("||"):]
	}

	anchor := AnchorContains
	if strings.HasPrefix(pattern, "|") {
		anchor = AnchorStart
		pattern = pattern[len("|"):]
	}

	if strings.HasSuffix(pattern, "|") {
		if anchor == AnchorStart {
			anchor = AnchorExact
		} else {
			anchor = AnchorEnd
		}
		pattern = strings.TrimSuffix(pattern, "|")
	}

	if pattern == "" {
		return nil, nil, DropReasonEmptyPattern
	}

	nr = &NetworkRule{
		RawText:          line,
		Pattern:          pattern,
		Anchor:           anchor,
		IsDomainAnchored: isDomainAnchored,
		IsException:      isException,
	}

	if optsStr != "" {
		reason = parseOptions(nr, optsStr)
		if reason != DropReasonNone {
			return nil, nil, reason
		}
	}

	return nr, nil, DropReasonNone
}

// optionDef is a table entry for a recognized option keyword.
type optionDef struct {
	bit    Option
	excBit Option
	hasExc bool
}

// optionTable maps recognized option keywords (spec §4.1) to their bits.
var optionTable = map[string]optionDef{
	"third-party":       {bit: OptThirdParty, excBit: OptThirdPartyException, hasExc: true},
	"stylesheet":        {bit: OptStyleSheet, excBit: OptStyleSheetException, hasExc: true},
	"image":             {bit: OptImage, excBit: OptImageException, hasExc: true},
	"script":            {bit: OptScript, excBit: OptScriptException, hasExc: true},
	"object":            {bit: OptObject, excBit: OptObjectException, hasExc: true},
	"object-subrequest": {bit: OptObjectSubRequest, excBit: OptObjectSubRequestException, hasExc: true},
	"object_subrequest": {bit: OptObjectSubRequest, excBit: OptObjectSubRequestException, hasExc: true},
	"subdocument":       {bit: OptSubDocument, excBit: OptSubDocumentException, hasExc: true},
	"xmlhttprequest":    {bit: OptXMLHTTPRequest, excBit: OptXMLHTTPRequestException, hasExc: true},
	"websocket":         {bit: OptWebSocket},
	"elemhide":          {bit: OptElementHide},
	"generichide":       {bit: OptGenericHide},
}

// parseOptions parses the comma-separated option list of a network rule and
// sets the relevant fields on nr.  It returns [DropReasonNone] on success, or
// the reason the whole rule must be dropped.
func parseOptions(nr *NetworkRule, optsStr string) (reason DropReason) {
	for _, tok := range strings.Split(optsStr, ",") {
		if tok == "" {
			continue
		}

		negated := strings.HasPrefix(tok, "~")
		if negated {
			tok = tok[len("~"):]
		}

		if strings.HasPrefix(tok, "domain") {
			rest, ok := strings.CutPrefix(tok, "domain=")
			if !ok {
				return DropReasonUnknownOption
			}

			if !parseDomainOption(nr, rest) {
				return DropReasonMalformedDomain
			}

			continue
		}

		def, known := optionTable[tok]
		if !known {
			return DropReasonUnknownOption
		}

		if def.bit == OptElementHide || def.bit == OptGenericHide {
			if negated {
				return DropReasonUnknownOption
			}

			// Accepted only on exception rules; silently ignored on
			// blocking rules.
			if nr.IsException {
				nr.Options |= def.bit
			}

			continue
		}

		if !negated {
			nr.Options |= def.bit

			continue
		}

		if !def.hasExc {
			// E.g. a negated "websocket": silently dropped.
			continue
		}

		nr.Options |= def.excBit
	}

	return DropReasonNone
}

// parseDomainOption parses the "d1|d2|~d3|..." value of a "domain=" option
// into nr's BlockedDomains and AllowedDomains.
func parseDomainOption(nr *NetworkRule, rest string) (ok bool) {
	if rest == "" {
		return false
	}

	for _, d := range strings.Split(rest, "|") {
		if d == "" {
			return false
		}

		if after, isAllowed := strings.CutPrefix(d, "~"); isAllowed {
			nr.AllowedDomains = append(nr.AllowedDomains, after)
		} else {
			nr.BlockedDomains = append(nr.BlockedDomains, d)
		}
	}

	return true
}
