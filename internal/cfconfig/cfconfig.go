// Package cfconfig reads the engine's process-wide configuration from the
// environment: the two filter-list parse toggles spec §6 names, plus the
// refresh and cache tuning knobs a real deployment needs. Every other
// package receives these as explicit constructor arguments; cfconfig is
// the only place an environment variable is read (spec §9, "process-wide
// config as explicit context").
package cfconfig

import (
	"fmt"
	"time"

	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/c2h5oh/datasize"
	"github.com/caarlos0/env/v7"
)

// CosmeticFiltersMode is the environment's string spelling of
// [cfrule.CosmeticFiltersMode], kept as its own type so this package does
// not need to import cfrule just to read a string.
type CosmeticFiltersMode string

// CosmeticFiltersMode values, matching spec §6's configuration table.
const (
	CosmeticFiltersAll        CosmeticFiltersMode = "all"
	CosmeticFiltersDomainOnly CosmeticFiltersMode = "domain-only"
	CosmeticFiltersNone       CosmeticFiltersMode = "none"
)

// Config is the engine's environment-sourced configuration.
type Config struct {
	// FilterListURL is the source of the filter list: a "file://" or
	// HTTP(S) URL.
	FilterListURL *urlutil.URL `env:"CFENGINE_FILTER_LIST_URL,notEmpty"`

	// CachePath is where a downloaded filter list is cached on disk.
	CachePath string `env:"CFENGINE_CACHE_PATH" envDefault:"./filter-list.cache"`

	// UserAgent is sent with every HTTP download request.
	UserAgent string `env:"CFENGINE_USER_AGENT" envDefault:"cfengine/1.0"`

	// Staleness is how long a cached filter list is served before a
	// refresh is attempted again.
	Staleness time.Duration `env:"CFENGINE_STALENESS" envDefault:"1h"`

	// Timeout applies to the HTTP client used for filter-list downloads.
	Timeout time.Duration `env:"CFENGINE_HTTP_TIMEOUT" envDefault:"30s"`

	// MaxDownloadSize caps the size of a downloaded filter list.
	MaxDownloadSize datasize.ByteSize `env:"CFENGINE_MAX_DOWNLOAD_SIZE" envDefault:"64MB"`

	// ResultCacheSize is the number of entries the match-result cache
	// holds. Zero disables result caching.
	ResultCacheSize int `env:"CFENGINE_RESULT_CACHE_SIZE" envDefault:"65536"`

	// WildcardsEnabled controls whether rules whose pattern still
	// contains '*' after anchor stripping are kept or dropped at parse
	// time.
	WildcardsEnabled bool `env:"CFENGINE_WILDCARDS_ENABLED" envDefault:"true"`

	// CosmeticMode is the process-wide cosmetic-filtering mode.
	CosmeticMode CosmeticFiltersMode `env:"CFENGINE_COSMETIC_FILTERS_MODE" envDefault:"all"`
}

// Read parses the configuration from the environment.
func Read() (c *Config, err error) {
	c = &Config{}

	err = env.Parse(c)
	if err != nil {
		return nil, fmt.Errorf("cfconfig: parsing environment: %w", err)
	}

	return c, nil
}
