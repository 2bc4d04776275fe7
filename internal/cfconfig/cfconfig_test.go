package cfconfig_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veilmesh/cfengine/internal/cfconfig"
)

func TestRead_defaults(t *testing.T) {
	t.Setenv("CFENGINE_FILTER_LIST_URL", "file:///tmp/list.txt")

	c, err := cfconfig.Read()
	require.NoError(t, err)

	assert.Equal(t, "./filter-list.cache", c.CachePath)
	assert.Equal(t, time.Hour, c.Staleness)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.True(t, c.WildcardsEnabled)
	assert.Equal(t, cfconfig.CosmeticFiltersAll, c.CosmeticMode)
}

func TestRead_overrides(t *testing.T) {
	t.Setenv("CFENGINE_FILTER_LIST_URL", "https://lists.example/easylist.txt")
	t.Setenv("CFENGINE_WILDCARDS_ENABLED", "false")
	t.Setenv("CFENGINE_COSMETIC_FILTERS_MODE", "none")

	c, err := cfconfig.Read()
	require.NoError(t, err)

	assert.False(t, c.WildcardsEnabled)
	assert.Equal(t, cfconfig.CosmeticFiltersNone, c.CosmeticMode)
}

func TestRead_missingRequired(t *testing.T) {
	_, err := cfconfig.Read()
	assert.Error(t, err)
}
