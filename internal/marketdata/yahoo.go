package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// ErrNoPrice is returned when no usable price can be extracted for a symbol
var ErrNoPrice = errors.New("no price available")

// Quote paths, tried in order
var (
	pricePaths = []string{
		"$.quoteResponse.result[0].regularMarketPrice",
		"$.quoteResponse.result[0].regularMarketPreviousClose",
		"$.quoteResponse.result[0].postMarketPrice",
	}
	namePaths = []string{
		"$.quoteResponse.result[0].longName",
		"$.quoteResponse.result[0].shortName",
	}
	currencyPath = "$.quoteResponse.result[0].currency"

	closePaths = []string{
		"$.chart.result[0].indicators.adjclose[0].adjclose",
		"$.chart.result[0].indicators.quote[0].close",
	}

	yieldPaths = []string{
		"$.quoteSummary.result[0].summaryDetail.dividendYield.raw",
		"$.quoteSummary.result[0].summaryDetail.yield.raw",
	}
	expenseRatioPaths = []string{
		"$.quoteSummary.result[0].fundProfile.feesExpensesInvestment.annualReportExpenseRatio.raw",
		"$.quoteSummary.result[0].defaultKeyStatistics.expenseRatio.raw",
		"$.quoteSummary.result[0].summaryDetail.expenseRatio.raw",
	}
)

// Currencies converted to USD through their <CUR>USD=X quote
var fxCurrencies = map[string]bool{
	"EUR": true, "GBP": true, "CHF": true, "CAD": true, "JPY": true, "SEK": true, "NOK": true, "DKK": true,
}

// YahooConfig configures a YahooProvider
type YahooConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// YahooProvider is a Yahoo Finance market data client.
// Raw responses are stored in a QuoteCache so repeated refreshes stay off the network.
type YahooProvider struct {
	baseURL string
	client  *http.Client
	cache   domain.QuoteCache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(cfg YahooConfig, cache domain.QuoteCache, m *metrics.Metrics, log zerolog.Logger) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cache == nil {
		cache = NewMemoryQuoteCache()
	}

	return &YahooProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:   cache,
		ttl:     cfg.CacheTTL,
		metrics: m,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// Snapshot fetches price, currency, name, monthly history, yield and expense ratio for a symbol
// Logic:
//  1. Quote: price (market, previous close, post-market), currency, name
//  2. Chart: ten years of monthly adjusted closes; the last close backs up a missing quote price
//  3. Summary: dividend yield and expense ratio (optional)
//  4. Non-USD prices are converted to USD when an FX quote is available
func (p *YahooProvider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("symbol cannot be empty")
	}

	snap := &Snapshot{Symbol: symbol, Name: symbol}

	// Step 1: Quote
	quote, err := p.getJSON(ctx, "/v7/finance/quote", url.Values{"symbols": {symbol}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	price, hasPrice := firstFloat(quote, pricePaths...)
	snap.Currency, _ = firstString(quote, currencyPath)
	if name, ok := firstString(quote, namePaths...); ok {
		snap.Name = name
	}

	// Step 2: Monthly history
	chart, err := p.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), url.Values{
		"range":    {"10y"},
		"interval": {"1mo"},
	})
	if err != nil {
		p.log.Debug().Err(err).Str("symbol", symbol).Msg("No monthly history")
	} else {
		closes := firstFloats(chart, closePaths...)
		snap.MonthlyReturns = MonthlyReturnsFromCloses(closes)
		if (!hasPrice || price <= 0) && len(closes) > 0 {
			for i := len(closes) - 1; i >= 0; i-- {
				if closes[i] > 0 {
					price, hasPrice = closes[i], true
					break
				}
			}
		}
	}

	if !hasPrice || price <= 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}

	// Step 3: Yield and expense ratio
	summary, err := p.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), url.Values{
		"modules": {"summaryDetail,fundProfile,defaultKeyStatistics"},
	})
	if err != nil {
		p.log.Debug().Err(err).Str("symbol", symbol).Msg("No quote summary")
	} else {
		if y, ok := firstFloat(summary, yieldPaths...); ok && y >= 0 {
			snap.DividendYield = &y
		}
		if er, ok := firstFloat(summary, expenseRatioPaths...); ok && er >= 0 {
			snap.ExpenseRatio = &er
		}
	}

	// Step 4: Currency
	snap.Price, snap.Currency = p.toUSD(ctx, price, snap.Currency)

	return snap, nil
}

// toUSD converts a price to USD; the price is kept unchanged when no rate is known
func (p *YahooProvider) toUSD(ctx context.Context, price float64, currency string) (float64, string) {
	// London listings are quoted in pence
	if currency == "GBp" || currency == "GBX" {
		price, currency = price/100, "GBP"
	}

	currency = strings.ToUpper(currency)
	if currency == "" || currency == "USD" || !fxCurrencies[currency] {
		return price, currency
	}

	pair := currency + "USD=X"
	doc, err := p.getJSON(ctx, "/v7/finance/quote", url.Values{"symbols": {pair}})
	if err != nil {
		p.log.Warn().Err(err).Str("pair", pair).Msg("FX quote unavailable, keeping local currency")
		return price, currency
	}

	rate, ok := firstFloat(doc, "$.quoteResponse.result[0].regularMarketPrice")
	if !ok || rate <= 0 {
		return price, currency
	}

	return price * rate, "USD"
}

// getJSON fetches and decodes a JSON document, going through the quote cache first
func (p *YahooProvider) getJSON(ctx context.Context, path string, params url.Values) (any, error) {
	reqURL := p.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	key := "yahoo:" + strings.TrimPrefix(reqURL, p.baseURL)

	body, hit, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.count(metrics.OutcomeCacheError)
		p.log.Warn().Err(err).Str("key", key).Msg("Quote cache read failed")
	case hit:
		p.count(metrics.OutcomeCacheHit)
		var doc any
		if err := json.Unmarshal(body, &doc); err == nil {
			return doc, nil
		}
	default:
		p.count(metrics.OutcomeCacheMiss)
	}

	body, err = p.fetch(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if err := p.cache.Set(ctx, key, body, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Quote cache write failed")
	}

	return doc, nil
}

func (p *YahooProvider) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo finance returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

func (p *YahooProvider) count(outcome string) {
	if p.metrics != nil {
		p.metrics.QuoteCacheTotal.WithLabelValues(outcome).Inc()
	}
}

// lookup evaluates a JSON path; missing keys and nulls report false
func lookup(doc any, path string) (any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func firstFloat(doc any, paths ...string) (float64, bool) {
	for _, path := range paths {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		// jsonpath may wrap a single answer in a list
		if list, isList := v.([]any); isList && len(list) == 1 {
			v = list[0]
		}
		if f, isFloat := v.(float64); isFloat {
			return f, true
		}
	}
	return 0, false
}

func firstString(doc any, paths ...string) (string, bool) {
	for _, path := range paths {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// firstFloats returns the first non-empty numeric series; JSON nulls are skipped
func firstFloats(doc any, paths ...string) []float64 {
	for _, path := range paths {
		v, ok := lookup(doc, path)
		if !ok {
			continue
		}
		list, isList := v.([]any)
		if !isList {
			continue
		}

		values := make([]float64, 0, len(list))
		for _, item := range list {
			if f, isFloat := item.(float64); isFloat {
				values = append(values, f)
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
