package cfrefresh

import (
	"crypto/md5" //nolint:gosec // Required by the filter-list checksum format.
	"encoding/base64"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
)

// ErrInvalidHeader is returned when a filter list's first line does not
// match the required header signature.
const ErrInvalidHeader errors.Error = "invalid filter-list header"

// ErrChecksumMismatch is returned when a filter list carries a checksum
// comment whose value does not match the computed digest.
const ErrChecksumMismatch errors.Error = "checksum mismatch"

// headerPrefix is the case-insensitive literal every filter list must
// begin with.
const headerPrefix = "[adblock plus"

// checksumLinePrefix marks the optional checksum comment line.
const checksumLinePrefix = "! checksum:"

// ValidateHeader reports an [ErrInvalidHeader] error if text's first line
// does not begin with the filter-list header signature, case-insensitively.
func ValidateHeader(text string) (err error) {
	firstLine, _, _ := strings.Cut(text, "\n")
	firstLine = strings.TrimRight(firstLine, "\r")

	if !strings.HasPrefix(strings.ToLower(firstLine), headerPrefix) {
		return ErrInvalidHeader
	}

	return nil
}

// ValidateChecksum verifies the optional "! Checksum: <base64-md5>" line
// against the MD5 digest of the rest of the file, per spec §6. If text
// carries no checksum line, ValidateChecksum returns nil without computing
// anything.
func ValidateChecksum(text string) (err error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil
	}

	second := strings.TrimRight(lines[1], "\r")
	if !strings.HasPrefix(strings.ToLower(second), checksumLinePrefix) {
		return nil
	}

	expected := strings.TrimSpace(second[len(checksumLinePrefix):])
	expected = strings.TrimRight(expected, "=")

	body := collapseBlankRuns(lines[2:])
	content := lines[0] + "\n" + strings.Join(body, "\n") + "\n"

	sum := md5.Sum([]byte(content)) //nolint:gosec // Required by the filter-list checksum format.
	got := strings.TrimRight(base64.StdEncoding.EncodeToString(sum[:]), "=")

	if got != expected {
		return ErrChecksumMismatch
	}

	return nil
}

// StripHeader removes the header line, and the optional checksum comment
// line immediately after it, from text. Callers must only call StripHeader
// on text that [ValidateHeader] has already accepted: it does not
// re-validate anything, it just cuts the two metadata lines spec §6
// describes so that neither reaches the rule parser as a bogus rule.
func StripHeader(text string) (body string) {
	_, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return ""
	}

	second, afterSecond, hasSecond := strings.Cut(rest, "\n")
	if hasSecond && strings.HasPrefix(strings.ToLower(strings.TrimRight(second, "\r")), checksumLinePrefix) {
		return afterSecond
	}

	return rest
}

// collapseBlankRuns replaces every run of one or more consecutive blank
// lines in lines with a single blank line.
func collapseBlankRuns(lines []string) (collapsed []string) {
	collapsed = make([]string, 0, len(lines))

	prevBlank := false
	for _, l := range lines {
		blank := strings.TrimRight(l, "\r") == ""
		if blank && prevBlank {
			continue
		}

		collapsed = append(collapsed, l)
		prevBlank = blank
	}

	return collapsed
}
