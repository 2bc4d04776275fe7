// Package cfrefresh implements filter-list refresh: loading a list's text
// from a local file or an HTTP(S) URL, validating its header and optional
// checksum, and caching downloaded content to disk.
package cfrefresh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/c2h5oh/datasize"
	renameio "github.com/google/renameio/v2"
	"github.com/veilmesh/cfengine/internal/cfhttp"
)

// Refreshable loads a filter list's text from a file or HTTP(S) URL,
// caching HTTP downloads to a local file and serving from that cache while
// it remains fresh. It mirrors the update-scheduling collaborator named at
// spec §1, adapted to the filter-list text this engine parses: on top of
// the fetch-and-cache logic, Refresh also validates and then strips the
// header and checksum lines spec §6 describes, so every other package
// only ever sees rule and comment lines.
type Refreshable struct {
	logger    *slog.Logger
	http      *cfhttp.Client
	url       *url.URL
	cachePath string
	staleness time.Duration
	maxSize   datasize.ByteSize
}

// Config configures a [Refreshable].
type Config struct {
	// Logger receives refresh diagnostics. If nil, [slog.Default] is used.
	Logger *slog.Logger

	// URL is the source of the filter-list text: either a "file://" URL or
	// an HTTP(S) URL.
	URL *url.URL

	// CachePath is where downloaded content is cached.
	CachePath string

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// Staleness is how long a cached file is served before a refresh is
	// attempted again.
	Staleness time.Duration

	// Timeout applies to the HTTP client used for downloads.
	Timeout time.Duration

	// MaxSize caps the size of a downloaded filter list.
	MaxSize datasize.ByteSize
}

// New returns a new Refreshable. c must not be nil.
func New(c *Config) (r *Refreshable, err error) {
	if c.URL == nil {
		return nil, fmt.Errorf("cfrefresh.New: nil url")
	} else if s := c.URL.Scheme; !strings.EqualFold(s, urlutil.SchemeFile) &&
		!urlutil.IsValidHTTPURLScheme(s) {
		return nil, fmt.Errorf("cfrefresh.New: bad url scheme %q", s)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Refreshable{
		logger: logger,
		http: cfhttp.NewClient(&cfhttp.ClientConfig{
			Timeout:   c.Timeout,
			UserAgent: c.UserAgent,
		}),
		url:       c.URL,
		cachePath: c.CachePath,
		staleness: c.Staleness,
		maxSize:   c.MaxSize,
	}, nil
}

// Refresh loads the filter-list text, validates its header and checksum,
// strips both from the returned body, and returns it. If acceptStale is
// true and a cached file exists, Refresh serves it regardless of
// staleness rather than re-downloading.
func (r *Refreshable) Refresh(ctx context.Context, acceptStale bool) (body string, err error) {
	defer func() { err = errors.Annotate(err, "refreshing filter list: %w") }()

	var text string
	if strings.EqualFold(r.url.Scheme, urlutil.SchemeFile) {
		text, err = r.refreshFromFile(true, r.url.Path, time.Time{})
		if err != nil {
			return "", fmt.Errorf("reading file %q: %w", r.url.Path, err)
		}

		r.logger.InfoContext(ctx, "loaded from file", "path", r.url.Path, "bytes", len(text))
	} else {
		text, err = r.useCachedOrRefreshFromURL(ctx, acceptStale)
		if err != nil {
			return "", err
		}
	}

	if err = ValidateHeader(text); err != nil {
		return "", err
	}

	if err = ValidateChecksum(text); err != nil {
		return "", err
	}

	return StripHeader(text), nil
}

// useCachedOrRefreshFromURL serves the cache file when fresh enough, or
// downloads from r.url otherwise.
func (r *Refreshable) useCachedOrRefreshFromURL(
	ctx context.Context,
	acceptStale bool,
) (text string, err error) {
	now := time.Now()
	redacted := urlutil.RedactUserinfo(r.url)

	text, err = r.refreshFromFile(acceptStale, r.cachePath, now)
	if err != nil {
		return "", fmt.Errorf("reading cache file %q: %w", r.cachePath, err)
	}

	if text != "" {
		r.logger.InfoContext(ctx, "served from cache", "path", r.cachePath, "url", redacted)

		return text, nil
	}

	r.logger.InfoContext(ctx, "downloading", "url", redacted)

	text, err = r.refreshFromURL(ctx, now)
	if err != nil {
		return "", fmt.Errorf("downloading from %q: %w", redacted, err)
	}

	r.logger.InfoContext(ctx, "downloaded", "url", redacted, "bytes", len(text))

	return text, nil
}

// refreshFromFile reads filePath's contents if its mtime shows it is still
// fresh relative to updTime, or unconditionally if acceptStale is true. An
// empty text with a nil error means the caller should refresh from the
// network.
func (r *Refreshable) refreshFromFile(
	acceptStale bool,
	filePath string,
	updTime time.Time,
) (text string, err error) {
	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("opening: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, file.Close()) }()

	if !acceptStale {
		fi, statErr := file.Stat()
		if statErr != nil {
			return "", fmt.Errorf("stat: %w", statErr)
		}

		if mtime := fi.ModTime(); !mtime.Add(r.staleness).After(updTime) {
			return "", nil
		}
	}

	b := &strings.Builder{}
	_, err = io.Copy(b, file)
	if err != nil {
		return "", fmt.Errorf("reading: %w", err)
	}

	return b.String(), nil
}

// refreshFromURL downloads r.url's content, caches it atomically at
// r.cachePath, and returns it.
func (r *Refreshable) refreshFromURL(ctx context.Context, updTime time.Time) (text string, err error) {
	tmpDir := renameio.TempDir(filepath.Dir(r.cachePath))
	tmpFile, err := renameio.TempFile(tmpDir, r.cachePath)
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() { err = r.finishTmpFile(err, tmpFile, updTime) }()

	resp, err := r.http.Get(ctx, r.url.String())
	if err != nil {
		return "", fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	err = cfhttp.CheckStatus(resp, http.StatusOK)
	if err != nil {
		return "", err
	}

	b := &strings.Builder{}
	mw := io.MultiWriter(b, tmpFile)
	_, err = io.Copy(mw, ioutil.LimitReader(resp.Body, r.maxSize.Bytes()))
	if err != nil {
		return "", cfhttp.WrapServerError(fmt.Errorf("reading body: %w", err), resp)
	}

	if b.Len() == 0 {
		return "", cfhttp.WrapServerError(errors.Error("empty response body"), resp)
	}

	return b.String(), nil
}

// finishTmpFile commits tmpFile to r.cachePath on success, or cleans it up
// on failure.
func (r *Refreshable) finishTmpFile(
	returned error,
	tmpFile *renameio.PendingFile,
	updTime time.Time,
) (err error) {
	if returned != nil {
		return errors.WithDeferred(returned, tmpFile.Cleanup())
	}

	err = tmpFile.CloseAtomicallyReplace()
	if err != nil {
		return errors.WithDeferred(nil, err)
	}

	return errors.WithDeferred(nil, os.Chtimes(r.cachePath, updTime, updTime))
}
