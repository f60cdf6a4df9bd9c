package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rocktree/internal/cache"
	"rocktree/internal/metrics"
	"rocktree/pkg/rocktree"
)

// Client errors.
var (
	// ErrHTTP marks transport-level failures (DNS, TLS, timeouts).
	ErrHTTP = errors.New("http request failed")
	// ErrHTTPStatus marks non-2xx responses.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// Client fetches protocol resources, caching raw response bytes by URL.
// It is safe for concurrent use; fetch tasks share one instance.
type Client struct {
	base  string
	http  *http.Client
	cache cache.Cache
	log   *zap.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string        // defaults to DefaultBaseURL
	Timeout time.Duration // per-request timeout, 0 for none
	Cache   cache.Cache   // defaults to the no-op cache
	Logger  *zap.Logger   // defaults to zap.NewNop()
}

// New returns a Client with the given options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		base:  opts.BaseURL,
		http:  &http.Client{Timeout: opts.Timeout},
		cache: opts.Cache,
		log:   opts.Logger,
	}
}

// Planetoid fetches and decodes the planetoid metadata bootstrapping the
// octree.
func (c *Client) Planetoid(ctx context.Context) (*rocktree.Planetoid, error) {
	data, err := c.fetch(ctx, PlanetoidURL(c.base), "planetoid")
	if err != nil {
		metrics.FetchTotal.WithLabelValues("planetoid", "error").Inc()
		return nil, err
	}

	planetoid, err := rocktree.DecodePlanetoid(data)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("planetoid", "error").Inc()
		return nil, err
	}
	metrics.FetchTotal.WithLabelValues("planetoid", "ok").Inc()
	return planetoid, nil
}

// Bulk fetches and decodes the bulk metadata rooted at path.
func (c *Client) Bulk(ctx context.Context, path string, epoch uint32) (*rocktree.BulkMetadata, error) {
	data, err := c.fetch(ctx, BulkURL(c.base, path, epoch), "bulk")
	if err != nil {
		metrics.FetchTotal.WithLabelValues("bulk", "error").Inc()
		return nil, err
	}

	bulk, err := rocktree.DecodeBulk(data, path)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("bulk", "error").Inc()
		return nil, err
	}
	metrics.FetchTotal.WithLabelValues("bulk", "ok").Inc()
	return bulk, nil
}

// Node fetches and decodes the mesh payload described by meta.
func (c *Client) Node(ctx context.Context, meta *rocktree.NodeMetadata) (*rocktree.Node, error) {
	url := NodeURL(c.base, meta.Path, meta.Epoch, meta.TextureFormat, meta.ImageryEpoch, meta.HasImageryEpoch)
	data, err := c.fetch(ctx, url, "node")
	if err != nil {
		metrics.FetchTotal.WithLabelValues("node", "error").Inc()
		return nil, err
	}

	node, err := rocktree.DecodeNode(data, meta)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("node", "error").Inc()
		return nil, err
	}
	metrics.FetchTotal.WithLabelValues("node", "ok").Inc()
	return node, nil
}

// fetch returns the raw bytes for url, from cache when possible. Fetched
// bytes are cached keyed by URL; decode happens in the caller so cached
// entries stay format-agnostic.
func (c *Client) fetch(ctx context.Context, url, kind string) ([]byte, error) {
	if data, ok, err := c.cache.Get(ctx, url); err != nil {
		c.log.Warn("cache read failed", zap.String("url", url), zap.Error(err))
	} else if ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return data, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHTTP, url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHTTP, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %d", ErrHTTPStatus, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHTTP, url, err)
	}
	metrics.FetchBytes.WithLabelValues(kind).Add(float64(len(data)))

	if err := c.cache.Put(ctx, url, data); err != nil {
		c.log.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}

	return data, nil
}
