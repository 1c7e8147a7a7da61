package exchange

import (
	"context"
	"time"
)

// DateLayout is the calendar-date format used in ExchangeRate.AsOfDate.
const DateLayout = "2006-01-02"

// ExchangeRate is the home-currency price of one unit of Currency.
// AsOfDate is the date the quote was published for and may precede today.
type ExchangeRate struct {
	Currency string  `json:"currency"`
	BaseRate float64 `json:"baseRate"`
	BuyRate  float64 `json:"buyRate"`
	SellRate float64 `json:"sellRate"`
	AsOfDate string  `json:"date"`
}

// Quote is one raw row from the primary provider. Rates are kept as the
// provider's strings until a quote is accepted.
type Quote struct {
	Result   int
	Currency string
	DealBase string
	Buy      string
	Sell     string
}

// QuoteProvider returns every quote published for a calendar date.
// An empty slice means nothing was published that day.
type QuoteProvider interface {
	Quotes(ctx context.Context, date time.Time) ([]Quote, error)
}

// CrossRateProvider reports how many units of target one unit of home buys.
type CrossRateProvider interface {
	TargetPerHome(ctx context.Context, home, target string) (float64, error)
}
