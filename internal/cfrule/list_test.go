package cfrule_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veilmesh/cfengine/internal/cfrule"
)

func TestParseList(t *testing.T) {
	t.Parallel()

	list := strings.Join([]string{
		"! a comment",
		"",
		"/ads/*",
		"##.ad-banner",
		"example.test##.sponsored",
		"a$bogus",
		"a$domain=",
	}, "\n")

	networkRules, cosmeticRules, stats := cfrule.ParseList(
		strings.NewReader(list),
		true,
		cfrule.CosmeticFiltersAll,
	)

	assert.Len(t, networkRules, 1)
	assert.Len(t, cosmeticRules, 2)
	assert.Equal(t, 1, stats.NetworkRules)
	assert.Equal(t, 2, stats.CosmeticRules)
	assert.Equal(t, 2, stats.Dropped())
	assert.Equal(t, 1, stats.DroppedByReason[cfrule.DropReasonUnknownOption])
	assert.Equal(t, 1, stats.DroppedByReason[cfrule.DropReasonMalformedDomain])
}
