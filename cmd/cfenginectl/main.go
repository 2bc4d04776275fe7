// Command cfenginectl is a smoke-test harness for the content-filtering
// engine: it loads one filter list and runs a single check query against
// it, printing the resulting decision. It exercises the engine boundary
// spec §6 names (the "Query API") end to end, the way the teacher's own
// cmd/check.go exercises a DNS server check against live configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/veilmesh/cfengine/internal/cfconfig"
	"github.com/veilmesh/cfengine/internal/cfmatch"
	"github.com/veilmesh/cfengine/internal/cfprofile"
	"github.com/veilmesh/cfengine/internal/cfrefresh"
	"github.com/veilmesh/cfengine/internal/cfrule"
)

// resourceTypesByName maps the CLI's "-type" flag spelling to the
// resource type the matcher expects, the inverse of
// [cfrule.ResourceType.String].
var resourceTypesByName = map[string]cfrule.ResourceType{
	"other":             cfrule.ResourceOther,
	"document":          cfrule.ResourceDocument,
	"image":             cfrule.ResourceImage,
	"script":            cfrule.ResourceScript,
	"stylesheet":        cfrule.ResourceStyleSheet,
	"object":            cfrule.ResourceObject,
	"object-subrequest": cfrule.ResourceObjectSubrequest,
	"xmlhttprequest":    cfrule.ResourceXMLHTTPRequest,
	"subframe":          cfrule.ResourceSubFrame,
	"websocket":         cfrule.ResourceWebSocket,
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("cfenginectl: fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) (err error) {
	base := flag.String("base", "", "base page URL the request was made from")
	request := flag.String("request", "", "request URL to check")
	typeName := flag.String("type", "other", "resource type: "+strings.Join(resourceTypeNames(), ", "))
	acceptStale := flag.Bool("accept-stale", true, "serve a cached filter list without checking staleness")
	flag.Parse()

	if *request == "" {
		return fmt.Errorf("cfenginectl: -request is required")
	}

	resourceType, ok := resourceTypesByName[*typeName]
	if !ok {
		return fmt.Errorf("cfenginectl: unknown -type %q", *typeName)
	}

	conf, err := cfconfig.Read()
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	p, err := cfprofile.New(&cfprofile.Config{
		ID: "cfenginectl",
		Refresh: &cfrefresh.Config{
			URL:       &conf.FilterListURL.URL,
			CachePath: conf.CachePath,
			UserAgent: conf.UserAgent,
			Staleness: conf.Staleness,
			Timeout:   conf.Timeout,
			MaxSize:   conf.MaxDownloadSize,
		},
		Logger:           logger,
		WildcardsEnabled: conf.WildcardsEnabled,
		CosmeticMode:     toCosmeticMode(conf.CosmeticMode),
		ResultCacheSize:  conf.ResultCacheSize,
	})
	if err != nil {
		return fmt.Errorf("building profile: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout+10*time.Second)
	defer cancel()

	err = p.Refresh(ctx, *acceptStale)
	if err != nil {
		return fmt.Errorf("loading filter list: %w", err)
	}

	d := p.Check(*base, *request, resourceType)
	printDecision(d)

	return nil
}

// toCosmeticMode converts the environment's string spelling into the
// parser's enum, per spec §6's configuration table.
func toCosmeticMode(m cfconfig.CosmeticFiltersMode) (mode cfrule.CosmeticFiltersMode) {
	switch m {
	case cfconfig.CosmeticFiltersDomainOnly:
		return cfrule.CosmeticFiltersDomainOnly
	case cfconfig.CosmeticFiltersNone:
		return cfrule.CosmeticFiltersNone
	default:
		return cfrule.CosmeticFiltersAll
	}
}

// printDecision writes d to stdout in a plain key=value form.
func printDecision(d cfmatch.Decision) {
	kind := "ignore"
	switch d.Kind {
	case cfmatch.Block:
		kind = "block"
	case cfmatch.Except:
		kind = "except"
	}

	fmt.Printf("decision=%s", kind)
	if d.Rule != nil {
		fmt.Printf(" rule=%q", d.Rule.RawText)
	}

	switch d.CosmeticOverride {
	case cfmatch.CosmeticOverrideDisable:
		fmt.Print(" cosmetic_override=disable")
	case cfmatch.CosmeticOverrideDomainOnly:
		fmt.Print(" cosmetic_override=domain-only")
	}

	fmt.Println()
}

// resourceTypeNames lists the valid "-type" flag values for the usage
// message.
func resourceTypeNames() (names []string) {
	for name := range resourceTypesByName {
		names = append(names, name)
	}

	return names
}
