// Package crates lists crate versions published on crates.io.
package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/rewind/pkg/downgrade"
	rwerrors "github.com/matzehuels/rewind/pkg/errors"
	"github.com/matzehuels/rewind/pkg/httputil"
	"github.com/matzehuels/rewind/pkg/integrations"
)

const (
	// DefaultBaseURL is the crates.io API root.
	DefaultBaseURL = "https://crates.io/api/v1"

	// DefaultUserAgent identifies the crawler, as crates.io policy requires.
	DefaultUserAgent = "rewind (https://github.com/matzehuels/rewind)"

	defaultMemoSize = 1024
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL   string        // API root (DefaultBaseURL)
	UserAgent string        // User-Agent header (DefaultUserAgent)
	Interval  time.Duration // Minimum delay between requests (httputil.DefaultInterval); negative disables
	MemoSize  int           // Crates remembered for the life of the client (1024)
}

// Client provides access to the crates.io version listing.
//
// Each crate is fetched at most once per Client: answers are remembered in
// memory so asking about the same crate for several cutoffs costs one
// request. Nothing is written to disk.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	memo    *lru.Cache[string, []downgrade.VersionRecord]
}

// NewClient creates a crates.io client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Interval == 0 {
		opts.Interval = httputil.DefaultInterval
	}
	if opts.MemoSize <= 0 {
		opts.MemoSize = defaultMemoSize
	}
	memo, _ := lru.New[string, []downgrade.VersionRecord](opts.MemoSize)
	return &Client{
		Client:  integrations.NewClient(opts.Interval, map[string]string{"User-Agent": opts.UserAgent}),
		baseURL: opts.BaseURL,
		memo:    memo,
	}
}

// Versions returns every published version of crate, yanked ones included,
// in the order the registry lists them.
//
// Errors carry [rwerrors.ErrCodeRegistryFetch] around a cause coded
// NOT_FOUND (wrapping [integrations.ErrNotFound]), RATE_LIMITED, NETWORK_ERROR
// (wrapping [integrations.ErrNetwork]) or INTERNAL_ERROR for an undecodable
// response. Context cancellation is returned unwrapped.
func (c *Client) Versions(ctx context.Context, crate string) ([]downgrade.VersionRecord, error) {
	if v, ok := c.memo.Get(crate); ok {
		return v, nil
	}

	var data crateResponse
	url := fmt.Sprintf("%s/crates/%s", c.baseURL, integrations.URLEncode(crate))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, rwerrors.Wrap(rwerrors.ErrCodeRegistryFetch, classify(err), "crate %s", crate)
	}

	versions := make([]downgrade.VersionRecord, 0, len(data.Versions))
	for _, v := range data.Versions {
		published := v.CreatedAt
		if published.IsZero() {
			published = v.UpdatedAt
		}
		versions = append(versions, downgrade.VersionRecord{
			Number:      v.Num,
			PublishedAt: published,
			Yanked:      v.Yanked,
		})
	}
	c.memo.Add(crate, versions)
	return versions, nil
}

var _ downgrade.VersionSource = (*Client)(nil)

// classify codes a transport failure so callers can tell an unknown crate
// from an unreachable or throttling registry.
func classify(err error) error {
	var rl *rwerrors.RateLimitedError
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return rwerrors.Wrap(rwerrors.ErrCodeNotFound, err, "not on crates.io")
	case errors.As(err, &rl):
		return rwerrors.Wrap(rwerrors.ErrCodeRateLimited, err, "crates.io is throttling requests")
	case errors.Is(err, integrations.ErrNetwork):
		return rwerrors.Wrap(rwerrors.ErrCodeNetwork, err, "crates.io request failed")
	default:
		return rwerrors.Wrap(rwerrors.ErrCodeInternal, err, "unexpected crates.io response")
	}
}

type crateResponse struct {
	Crate struct {
		Name       string `json:"name"`
		MaxVersion string `json:"max_version"`
	} `json:"crate"`
	Versions []versionResponse `json:"versions"`
}

type versionResponse struct {
	Num       string    `json:"num"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Yanked    bool      `json:"yanked"`
}
