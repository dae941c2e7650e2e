// Package roster fetches and parses the remote roster-management site.
package roster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"orbat_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	// cacheTTL bounds the fetch frequency regardless of how often the
	// tick loops ask. 59s keeps a 60s tick from ever hitting a stale
	// entry twice.
	cacheTTL = 59 * time.Second

	listingCacheKey = "listing"

	maxPageBytes = 5 * 1024 * 1024
)

// Connector fetches the listing and per-operation detail pages, parsing
// them into domain records. Both page kinds sit behind independent
// short-TTL caches so the watch and reminder loops can share fetches.
type Connector struct {
	client  HTTPClient
	baseURL string
	session string
	log     *slog.Logger
	listing *gocache.Cache
	details *gocache.Cache
}

// New creates a Connector using the given HTTP client and session cookie.
// The session credential is passed through opaquely; renewal is not this
// component's job.
func New(client HTTPClient, baseURL, sessionCookie string, log *slog.Logger) *Connector {
	return &Connector{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sessionCookie,
		log:     log,
		listing: gocache.New(cacheTTL, time.Minute),
		details: gocache.New(cacheTTL, time.Minute),
	}
}

// OrbatURL returns the deep link to an operation's roster page.
func OrbatURL(baseURL, operationID string) string {
	return strings.TrimRight(baseURL, "/") + "/operations/auth/" + operationID + "/orbat"
}

// Operations returns the current operation listing, served from cache
// when fresh. An empty listing is not an error; it is logged as a warning
// and returned as-is.
func (c *Connector) Operations(ctx context.Context) ([]model.Operation, error) {
	if v, ok := c.listing.Get(listingCacheKey); ok {
		return v.([]model.Operation), nil
	}

	c.log.Debug("fetching operation listing")
	page, err := c.get(ctx, c.baseURL+"/campaigns/deployments")
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	ops, err := ParseListing(page)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		c.log.Warn("no operation rows found in listing")
	}

	c.listing.SetDefault(listingCacheKey, ops)
	return ops, nil
}

// Operation returns one operation with its full parsed roster, served
// from cache when fresh. The base record comes from the listing; the
// groups and slots from the orbat detail page.
func (c *Connector) Operation(ctx context.Context, id string) (*model.ExtendedOperation, error) {
	if v, ok := c.details.Get(id); ok {
		return v.(*model.ExtendedOperation), nil
	}

	ops, err := c.Operations(ctx)
	if err != nil {
		return nil, err
	}
	var op *model.Operation
	for i := range ops {
		if ops[i].ID == id {
			op = &ops[i]
			break
		}
	}
	if op == nil {
		return nil, fmt.Errorf("operation %s not present in listing", id)
	}

	c.log.Debug("fetching operation roster", "operation_id", id)
	page, err := c.get(ctx, OrbatURL(c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("fetch orbat %s: %w", id, err)
	}

	groups, slots, err := ParseOrbat(page)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		c.log.Warn("no slot rows found in orbat", "operation_id", id)
	}

	ext := &model.ExtendedOperation{Operation: *op, Groups: groups, Slots: slots}
	c.details.SetDefault(id, ext)
	return ext, nil
}

func (c *Connector) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cookie", "kotaxdev_session="+c.session)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
