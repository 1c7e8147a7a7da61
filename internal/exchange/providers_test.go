package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
)

func testClient(srv *httptest.Server) *fetch.Client {
	return fetch.New("test", srv.Client(), fetch.Config{
		Retry: fetch.RetryPolicy{MaxRetries: 1, InitialInterval: time.Millisecond},
	}, nil)
}

func TestEximProviderQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("authkey"))
		assert.Equal(t, "20260227", r.URL.Query().Get("searchdate"))
		assert.Equal(t, "AP01", r.URL.Query().Get("data"))
		_, _ = w.Write([]byte(`[
			{"result":1,"cur_unit":"TWD","cur_nm":"대만 달러","deal_bas_r":"43.24","ttb":"42.81","tts":"43.68"},
			{"result":1,"cur_unit":"USD","deal_bas_r":"1,450.1","ttb":"1,435.6","tts":"1,464.6"}
		]`))
	}))
	defer srv.Close()

	p := NewEximProvider(testClient(srv), srv.URL, "secret")
	quotes, err := p.Quotes(context.Background(), time.Date(2026, 2, 27, 0, 0, 0, 0, kst))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, Quote{Result: 1, Currency: "TWD", DealBase: "43.24", Buy: "42.81", Sell: "43.68"}, quotes[0])
	assert.Equal(t, "1,450.1", quotes[1].DealBase)
}

func TestEximProviderRequiresKey(t *testing.T) {
	p := NewEximProvider(fetch.New("test", nil, fetch.DefaultConfig(), nil), "http://unused", "")

	_, err := p.Quotes(context.Background(), time.Now())
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestOpenRatesProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/KRW", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"success","base_code":"KRW","rates":{"KRW":1,"TWD":0.0231}}`))
	}))
	defer srv.Close()

	p := NewOpenRatesProvider(testClient(srv), srv.URL+"/v6/latest/")
	rate, err := p.TargetPerHome(context.Background(), "KRW", "TWD")
	require.NoError(t, err)
	assert.Equal(t, 0.0231, rate)

	_, err = p.TargetPerHome(context.Background(), "KRW", "XYZ")
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestOpenRatesProviderErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
	}))
	defer srv.Close()

	p := NewOpenRatesProvider(testClient(srv), srv.URL)
	_, err := p.TargetPerHome(context.Background(), "KRW", "TWD")
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestResolverEndToEndWithHTTPProviders(t *testing.T) {
	var secondaryCalls int
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer primarySrv.Close()
	secondarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryCalls++
		_, _ = w.Write([]byte(`{"result":"success","rates":{"TWD":0.025}}`))
	}))
	defer secondarySrv.Close()

	f := newFixture()
	r := NewResolver(
		NewEximProvider(testClient(primarySrv), primarySrv.URL, "k"),
		NewOpenRatesProvider(testClient(secondarySrv), secondarySrv.URL),
		f.cache,
		Config{HomeCurrency: "KRW", Location: kst, Now: f.clock.Now},
		nil,
	)

	rate, err := r.Resolve(context.Background(), "TWD")
	require.NoError(t, err)
	assert.Equal(t, 40.0, rate.BaseRate)
	assert.Equal(t, 1, secondaryCalls)
}
