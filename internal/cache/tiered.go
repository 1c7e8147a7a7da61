// Package cache implements the two-tier TTL cache shared by all resolvers.
//
// Every data domain owns a short-lived live tier and, optionally, a longer
// lived backup tier holding the last known-good value. Both tiers live in one
// Backend and are addressed through a Tier parameter so that live and backup
// writes always go through the same code path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Tier selects the live or backup copy of a domain entry.
type Tier int

const (
	Live Tier = iota
	Backup
)

func (t Tier) String() string {
	if t == Backup {
		return "backup"
	}
	return "live"
}

// Domain names a family of cached values with its own TTLs.
type Domain string

const (
	DomainExchange    Domain = "exchange-rates"
	DomainWeather     Domain = "weather"
	DomainForecast    Domain = "weather-forecast"
	DomainSpots       Domain = "spots"
	DomainSpotDetails Domain = "spot-details"
)

// TTL holds the lifetime of each tier. A zero duration disables the tier.
type TTL struct {
	Live   time.Duration
	Backup time.Duration
}

// Policy maps domains to their tier lifetimes.
type Policy map[Domain]TTL

// DefaultPolicy mirrors the production lifetimes: exchange rates survive to
// the next business-day publication, weather is refreshed twice an hour.
func DefaultPolicy() Policy {
	return Policy{
		DomainExchange:    {Live: 25 * time.Hour, Backup: 7 * 24 * time.Hour},
		DomainWeather:     {Live: 30 * time.Minute, Backup: 6 * time.Hour},
		DomainForecast:    {Live: time.Hour},
		DomainSpots:       {Live: 10 * time.Minute},
		DomainSpotDetails: {Live: 30 * time.Minute},
	}
}

// Backend is the raw key/value store underneath the tiers.
type Backend interface {
	// Get returns ok=false for missing keys; err is reserved for store failures.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry is the stored envelope. Each tier write produces its own Entry.
type Entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"storedAt"`
}

// TieredCache is safe for concurrent use as long as its Backend is.
type TieredCache struct {
	backend Backend
	policy  Policy
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option customises a TieredCache.
type Option func(*TieredCache)

// WithClock overrides the time source used for logical expiry.
func WithClock(now func() time.Time) Option {
	return func(c *TieredCache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *TieredCache) { c.log = log }
}

// New creates a TieredCache over backend.
func New(backend Backend, policy Policy, opts ...Option) *TieredCache {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &TieredCache{
		backend: backend,
		policy:  policy,
		now:     time.Now,
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the tier exists for the domain.
func (c *TieredCache) Enabled(d Domain, t Tier) bool {
	return c.ttl(d, t) > 0
}

// Get decodes the entry for key into dest. It reports false when the entry is
// missing, logically expired, undecodable or the backend failed.
func (c *TieredCache) Get(ctx context.Context, d Domain, t Tier, key string, dest interface{}) bool {
	ttl := c.ttl(d, t)
	if ttl <= 0 {
		return false
	}

	fields := logrus.Fields{"domain": d, "tier": t.String(), "key": key}

	raw, ok, err := c.backend.Get(ctx, physicalKey(d, t, key))
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("cache read failed")
		return false
	}
	if !ok {
		c.log.WithFields(fields).Debug("cache miss")
		return false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.WithFields(fields).WithError(err).Warn("cache entry corrupt")
		return false
	}
	if c.now().Sub(entry.StoredAt) >= ttl {
		c.log.WithFields(fields).Debug("cache entry expired")
		return false
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		c.log.WithFields(fields).WithError(err).Warn("cache value corrupt")
		return false
	}

	c.log.WithFields(fields).Debug("cache hit")
	return true
}

// Put writes value into one tier. Writes to a disabled tier are no-ops.
func (c *TieredCache) Put(ctx context.Context, d Domain, t Tier, key string, value interface{}) error {
	ttl := c.ttl(d, t)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s/%s: %w", d, key, err)
	}
	data, err := json.Marshal(Entry{Value: raw, StoredAt: c.now()})
	if err != nil {
		return fmt.Errorf("cache: marshal entry %s/%s: %w", d, key, err)
	}

	if err := c.backend.Set(ctx, physicalKey(d, t, key), data, ttl); err != nil {
		c.log.WithFields(logrus.Fields{"domain": d, "tier": t.String(), "key": key}).
			WithError(err).Warn("cache write failed")
		return fmt.Errorf("cache: write %s/%s: %w", d, key, err)
	}
	return nil
}

// PutAll writes value through both tiers as two independent entries.
func (c *TieredCache) PutAll(ctx context.Context, d Domain, key string, value interface{}) error {
	return errors.Join(
		c.Put(ctx, d, Live, key, value),
		c.Put(ctx, d, Backup, key, value),
	)
}

// Evict removes the entry for key from one tier.
func (c *TieredCache) Evict(ctx context.Context, d Domain, t Tier, key string) error {
	if err := c.backend.Delete(ctx, physicalKey(d, t, key)); err != nil {
		return fmt.Errorf("cache: evict %s/%s: %w", d, key, err)
	}
	c.log.WithFields(logrus.Fields{"domain": d, "tier": t.String(), "key": key}).Info("cache entry evicted")
	return nil
}

// Close releases the backend.
func (c *TieredCache) Close() error {
	return c.backend.Close()
}

func (c *TieredCache) ttl(d Domain, t Tier) time.Duration {
	ttl, ok := c.policy[d]
	if !ok {
		return 0
	}
	if t == Backup {
		return ttl.Backup
	}
	return ttl.Live
}

func physicalKey(d Domain, t Tier, key string) string {
	if t == Backup {
		return string(d) + "-backup:" + key
	}
	return string(d) + ":" + key
}
