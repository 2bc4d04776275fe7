package cfrule

import (
	"bufio"
	"io"

	"github.com/veilmesh/cfengine/internal/cfmetrics"
)

// ParseList reads filter-list lines from r and classifies each one, per
// spec §4.1.  It never returns an error: per-line failures are absorbed
// into the returned [ParseStats] (spec §7's "silently dropped" policy). r
// is expected to carry only rule and comment lines: the header and the
// optional checksum comment line spec §6 requires are validated and
// stripped earlier, by package cfrefresh, before r's text is ever passed
// to ParseList.
func ParseList(
	r io.Reader,
	wildcardsEnabled bool,
	cosmeticMode CosmeticFiltersMode,
) (networkRules []*NetworkRule, cosmeticRules []*CosmeticRule, stats ParseStats) {
	sc := bufio.NewScanner(r)
	// Filter lists routinely exceed bufio.MaxScanTokenSize is not a concern
	// here (individual rule lines are short), so the default buffer is fine.
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			stats.CommentLines++

			continue
		}

		nr, cr, reason := ParseLine(line, wildcardsEnabled, cosmeticMode)
		switch {
		case nr != nil:
			networkRules = append(networkRules, nr)
			stats.NetworkRules++
			cfmetrics.RecordAcceptedRule("network")
		case cr != nil:
			cosmeticRules = append(cosmeticRules, cr)
			stats.CosmeticRules++
			cfmetrics.RecordAcceptedRule("cosmetic")
		case reason == DropReasonNone:
			stats.CommentLines++
		default:
			stats.recordDrop(reason)
			cfmetrics.RecordDroppedLine(reason.String())
		}
	}

	return networkRules, cosmeticRules, stats
}
