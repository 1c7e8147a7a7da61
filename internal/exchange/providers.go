package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
)

// EximProvider queries the Korea Exim Bank daily exchange-rate API (AP01).
type EximProvider struct {
	client  *fetch.Client
	baseURL string
	apiKey  string
}

// NewEximProvider creates the primary quote provider.
func NewEximProvider(client *fetch.Client, baseURL, apiKey string) *EximProvider {
	return &EximProvider{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type eximItem struct {
	Result   int    `json:"result"`
	CurUnit  string `json:"cur_unit"`
	DealBasR string `json:"deal_bas_r"`
	TTB      string `json:"ttb"`
	TTS      string `json:"tts"`
}

// Quotes fetches the rows published for date.
func (p *EximProvider) Quotes(ctx context.Context, date time.Time) ([]Quote, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: exim api key is not configured", apperr.ErrUpstream)
	}

	values := url.Values{}
	values.Set("authkey", p.apiKey)
	values.Set("searchdate", date.Format("20060102"))
	values.Set("data", "AP01")

	var items []eximItem
	if err := p.client.GetJSON(ctx, p.baseURL, values, &items); err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(items))
	for _, it := range items {
		quotes = append(quotes, Quote{
			Result:   it.Result,
			Currency: strings.TrimSpace(it.CurUnit),
			DealBase: it.DealBasR,
			Buy:      it.TTB,
			Sell:     it.TTS,
		})
	}
	return quotes, nil
}

// OpenRatesProvider queries an open exchange-rate API that publishes every
// currency relative to a base, e.g. GET {baseURL}/KRW.
type OpenRatesProvider struct {
	client  *fetch.Client
	baseURL string
}

// NewOpenRatesProvider creates the secondary cross-rate provider.
func NewOpenRatesProvider(client *fetch.Client, baseURL string) *OpenRatesProvider {
	return &OpenRatesProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

var errCrossRateMissing = errors.New("cross rate missing")

// TargetPerHome returns rates[target] from the home-based table.
func (p *OpenRatesProvider) TargetPerHome(ctx context.Context, home, target string) (float64, error) {
	var payload struct {
		Result    string             `json:"result"`
		ErrorType string             `json:"error-type"`
		BaseCode  string             `json:"base_code"`
		Rates     map[string]float64 `json:"rates"`
	}

	if err := p.client.GetJSON(ctx, p.baseURL+"/"+url.PathEscape(home), nil, &payload); err != nil {
		return 0, err
	}

	if payload.Result != "" && payload.Result != "success" {
		return 0, fmt.Errorf("%w: %s: result=%s %s", apperr.ErrUpstream, p.client.Name(), payload.Result, payload.ErrorType)
	}

	rate, ok := payload.Rates[target]
	if !ok {
		return 0, fmt.Errorf("%w: %s: %w for %s", apperr.ErrUpstream, p.client.Name(), errCrossRateMissing, target)
	}
	return rate, nil
}
