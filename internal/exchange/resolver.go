package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/common"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
)

// DefaultLookbackDays is how many earlier days are probed when today has no
// quote. The primary provider publishes once per business day, often late.
const DefaultLookbackDays = 3

var errNoQuote = errors.New("no valid quote within lookback window")

// Config holds resolver settings.
type Config struct {
	HomeCurrency string
	Location     *time.Location
	LookbackDays int
	Now          func() time.Time
}

// Resolver resolves the home-currency rate for a target currency.
type Resolver struct {
	primary   QuoteProvider
	secondary CrossRateProvider
	cache     *cache.TieredCache
	home      string
	loc       *time.Location
	lookback  int
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewResolver wires a resolver. secondary may be nil.
func NewResolver(primary QuoteProvider, secondary CrossRateProvider, c *cache.TieredCache, cfg Config, log logrus.FieldLogger) *Resolver {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HomeCurrency == "" {
		cfg.HomeCurrency = "KRW"
	}
	if log == nil {
		log = logging.Discard()
	}

	return &Resolver{
		primary:   primary,
		secondary: secondary,
		cache:     c,
		home:      strings.ToUpper(cfg.HomeCurrency),
		loc:       cfg.Location,
		lookback:  cfg.LookbackDays,
		now:       cfg.Now,
		log:       log.WithField("domain", cache.DomainExchange),
	}
}

// NormalizeCurrency upper-cases an ISO 4217 code and rejects anything that is
// not three letters.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency code %q", apperr.ErrInvalidInput, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency code %q", apperr.ErrInvalidInput, code)
		}
	}
	return code, nil
}

// Resolve returns the cached rate or fetches a fresh one, falling back to the
// secondary provider and then the backup tier. It fails with
// apperr.ErrDataUnavailable only when all of them are exhausted.
func (r *Resolver) Resolve(ctx context.Context, currency string) (ExchangeRate, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return ExchangeRate{}, err
	}

	var cached ExchangeRate
	if r.cache.Get(ctx, cache.DomainExchange, cache.Live, cur, &cached) {
		return cached, nil
	}

	log := r.log.WithField("key", cur)

	rate, err := r.fetchPrimary(ctx, cur)
	switch {
	case err == nil:
		return r.store(ctx, rate), nil

	case errors.Is(err, errNoQuote):
		log.Info("no primary quote in lookback window; trying secondary provider")
		rate, err = r.fetchSecondary(ctx, cur)
		if err == nil {
			return r.store(ctx, rate), nil
		}
		if backup, ok := r.backup(ctx, cur); ok {
			log.WithError(err).Warn("secondary provider failed; serving backup")
			return backup, nil
		}

	default:
		if backup, ok := r.backup(ctx, cur); ok {
			log.WithError(err).Warn("primary provider failed; serving backup")
			return backup, nil
		}
		log.WithError(err).Warn("primary provider failed; trying secondary provider")
		rate, err = r.fetchSecondary(ctx, cur)
		if err == nil {
			return r.store(ctx, rate), nil
		}
	}

	log.WithError(err).Error("exchange rate unavailable")
	return ExchangeRate{}, fmt.Errorf("%w: exchange rate %s: %w", apperr.ErrDataUnavailable, cur, err)
}

// Refresh evicts the live entry for currency and resolves it again.
func (r *Resolver) Refresh(ctx context.Context, currency string) (ExchangeRate, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return ExchangeRate{}, err
	}
	if err := r.cache.Evict(ctx, cache.DomainExchange, cache.Live, cur); err != nil {
		r.log.WithField("key", cur).WithError(err).Warn("evict before refresh failed")
	}
	return r.Resolve(ctx, cur)
}

func (r *Resolver) today() time.Time {
	now := r.now().In(r.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
}

func (r *Resolver) fetchPrimary(ctx context.Context, cur string) (ExchangeRate, error) {
	today := r.today()

	for back := 0; back <= r.lookback; back++ {
		day := today.AddDate(0, 0, -back)

		quotes, err := r.primary.Quotes(ctx, day)
		if err != nil {
			return ExchangeRate{}, err
		}
		if rate, ok := r.pickQuote(quotes, cur, day); ok {
			return rate, nil
		}

		r.log.WithFields(logrus.Fields{
			"key":  cur,
			"date": day.Format(DateLayout),
		}).Debug("no valid quote for date")
	}
	return ExchangeRate{}, errNoQuote
}

// pickQuote accepts only rows flagged valid for exactly cur.
func (r *Resolver) pickQuote(quotes []Quote, cur string, day time.Time) (ExchangeRate, bool) {
	for _, q := range quotes {
		if q.Result != 1 || q.Currency != cur {
			continue
		}

		base, errBase := common.ParseDecimal(q.DealBase)
		buy, errBuy := common.ParseDecimal(q.Buy)
		sell, errSell := common.ParseDecimal(q.Sell)
		if err := errors.Join(errBase, errBuy, errSell); err != nil {
			r.log.WithField("key", cur).WithError(err).Warn("unparseable quote skipped")
			continue
		}

		return ExchangeRate{
			Currency: cur,
			BaseRate: base,
			BuyRate:  buy,
			SellRate: sell,
			AsOfDate: day.Format(DateLayout),
		}, true
	}
	return ExchangeRate{}, false
}

func (r *Resolver) fetchSecondary(ctx context.Context, cur string) (ExchangeRate, error) {
	if r.secondary == nil {
		return ExchangeRate{}, fmt.Errorf("%w: no secondary provider configured", apperr.ErrUpstream)
	}

	perHome, err := r.secondary.TargetPerHome(ctx, r.home, cur)
	if err != nil {
		return ExchangeRate{}, err
	}
	if perHome <= 0 || math.IsNaN(perHome) || math.IsInf(perHome, 0) {
		return ExchangeRate{}, fmt.Errorf("%w: non-positive cross rate %v for %s", apperr.ErrUpstream, perHome, cur)
	}

	homePerTarget := common.Round2(1 / perHome)
	if homePerTarget <= 0 {
		return ExchangeRate{}, fmt.Errorf("%w: cross rate for %s rounds to zero", apperr.ErrUpstream, cur)
	}

	return ExchangeRate{
		Currency: cur,
		BaseRate: homePerTarget,
		BuyRate:  homePerTarget,
		SellRate: homePerTarget,
		AsOfDate: r.today().Format(DateLayout),
	}, nil
}

func (r *Resolver) store(ctx context.Context, rate ExchangeRate) ExchangeRate {
	if err := r.cache.PutAll(ctx, cache.DomainExchange, rate.Currency, rate); err != nil {
		r.log.WithField("key", rate.Currency).WithError(err).Warn("write-through failed")
	}
	return rate
}

func (r *Resolver) backup(ctx context.Context, cur string) (ExchangeRate, bool) {
	var rate ExchangeRate
	ok := r.cache.Get(ctx, cache.DomainExchange, cache.Backup, cur, &rate)
	return rate, ok
}
