package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/infra"
)

// WatchlistSource supplies the locally owned watchlist contents for the
// watchlist pseudo-category, which never hits the network.
type WatchlistSource interface {
	Watchlist() []domain.Coin
}

// errUpstreamIsolated marks attempts skipped by an open circuit breaker.
var errUpstreamIsolated = errors.New("upstream isolated by circuit breaker")

// Client fetches coin-list snapshots from the market API. Every logical call
// runs the same pipeline: fresh-cache short circuit, global pacing, bounded
// retries, then the three-tier fallback (fresh cache, stale cache, terminal
// FetchError). All state lives on the instance; construct one per process,
// or fresh ones per test.
type Client struct {
	cfg        *infra.Config
	httpClient *http.Client
	cache      *SnapshotCache
	pacer      *Pacer
	breaker    *infra.CircuitBreaker
	watchlist  WatchlistSource
}

// NewClient builds a client from config. watchlist may be nil; the
// watchlist pseudo-category then resolves to an empty list.
func NewClient(cfg *infra.Config, watchlist WatchlistSource) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		cache:      NewSnapshotCache(cfg.CacheFresh(), cfg.CacheStale()),
		pacer:      NewPacer(cfg.MinInterval()),
		breaker:    infra.DefaultCircuitBreaker("market-api"),
		watchlist:  watchlist,
	}
}

// FetchMarkets returns one page of global markets ordered by descending
// market cap. perPage is clamped to the upstream maximum.
func (c *Client) FetchMarkets(ctx context.Context, page, perPage int) ([]domain.Coin, error) {
	if page < 1 {
		page = 1
	}
	params := c.marketParams(perPage)
	params.Set("page", strconv.Itoa(page))
	return c.fetchCoinList(ctx, "/coins/markets", params)
}

// FetchByCategory returns coins restricted to the given category.
// The watchlist pseudo-category bypasses the network entirely and returns
// the store's current watchlist; "all" maps to the first markets page.
func (c *Client) FetchByCategory(ctx context.Context, cat domain.Category, perPage int) ([]domain.Coin, error) {
	desc, ok := cat.Descriptor()
	if !ok {
		return nil, fmt.Errorf("fetch by category: unknown category %q", cat)
	}

	if cat == domain.CategoryWatchlist {
		if c.watchlist == nil {
			return nil, nil
		}
		return c.watchlist.Watchlist(), nil
	}

	if desc.APICategory == "" {
		return c.FetchMarkets(ctx, 1, perPage)
	}

	params := c.marketParams(perPage)
	params.Set("page", "1")
	params.Set("category", desc.APICategory)
	return c.fetchCoinList(ctx, "/coins/markets", params)
}

// FetchByIDs returns coins for an explicit id set. The set is partitioned
// into batches respecting the upstream request-size limit; a failed batch is
// logged and skipped, so the result may be partial. The merged result is
// deduplicated by id, preserving first-seen order. An error is returned only
// when every batch failed.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]domain.Coin, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	batchSize := c.cfg.API.BatchSize
	var (
		merged  []domain.Coin
		seen    = make(map[string]bool, len(ids))
		lastErr error
		failed  int
		batches int
	)

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		batches++

		params := c.marketParams(len(batch))
		params.Set("page", "1")
		params.Set("ids", strings.Join(batch, ","))

		coins, err := c.fetchCoinList(ctx, "/coins/markets", params)
		if err != nil {
			failed++
			lastErr = err
			slog.Warn("id batch fetch failed, skipping",
				slog.Int("batch_size", len(batch)),
				slog.Any("error", err))
			continue
		}

		for _, coin := range coins {
			if seen[coin.ID] {
				continue
			}
			seen[coin.ID] = true
			merged = append(merged, coin)
		}
	}

	if failed == batches {
		return nil, fmt.Errorf("all %d id batches failed: %w", batches, lastErr)
	}
	return merged, nil
}

// chartResponse is the market_chart payload; only prices are consumed.
type chartResponse struct {
	Prices []domain.PricePoint `json:"prices"`
}

// FetchHistoricalPrices returns the time-ordered price series for a coin
// over the given day range. Failures are suppressed: the chart consumer
// synthesizes a fallback series, so an empty slice is returned instead of
// an error.
func (c *Client) FetchHistoricalPrices(ctx context.Context, coinID string, days int) []domain.PricePoint {
	if coinID == "" {
		return nil
	}
	if days < 1 {
		days = 1
	}

	params := url.Values{}
	params.Set("vs_currency", c.cfg.API.Currency)
	params.Set("days", strconv.Itoa(days))

	if err := c.pacer.Wait(ctx); err != nil {
		return nil
	}

	var payload chartResponse
	endpoint := "/coins/" + url.PathEscape(coinID) + "/market_chart"
	if err := c.getJSON(ctx, endpoint, params, &payload); err != nil {
		slog.Warn("historical prices fetch failed, returning empty series",
			slog.String("coin", coinID),
			slog.Any("error", err))
		return nil
	}
	return payload.Prices
}

// coinDetailPayload maps the nested /coins/{id} response. Numeric fields are
// keyed by currency upstream.
type coinDetailPayload struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank int `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice      map[string]decimal.Decimal `json:"current_price"`
		MarketCap         map[string]decimal.Decimal `json:"market_cap"`
		TotalVolume       map[string]decimal.Decimal `json:"total_volume"`
		PriceChangePct24h decimal.Decimal            `json:"price_change_percentage_24h"`
		ATH               map[string]decimal.Decimal `json:"ath"`
		ATHChangePct      map[string]decimal.Decimal `json:"ath_change_percentage"`
		ATHDate           map[string]string          `json:"ath_date"`
		CirculatingSupply decimal.NullDecimal        `json:"circulating_supply"`
		TotalSupply       decimal.NullDecimal        `json:"total_supply"`
		MaxSupply         decimal.NullDecimal        `json:"max_supply"`
		LastUpdated       string                     `json:"last_updated"`
	} `json:"market_data"`
}

// FetchCoinDetail fetches the full detail payload for one coin and flattens
// it into a Coin snapshot for the configured currency. Used by the detail
// view together with Store.UpdateCoinDetails.
func (c *Client) FetchCoinDetail(ctx context.Context, coinID string) (domain.Coin, error) {
	if coinID == "" {
		return domain.Coin{}, fmt.Errorf("fetch coin detail: empty id")
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return domain.Coin{}, err
	}

	var payload coinDetailPayload
	endpoint := "/coins/" + url.PathEscape(coinID)
	if err := c.getJSON(ctx, endpoint, url.Values{}, &payload); err != nil {
		return domain.Coin{}, fmt.Errorf("fetch coin detail %s: %w", coinID, err)
	}

	cur := c.cfg.API.Currency
	coin := domain.Coin{
		ID:                payload.ID,
		Symbol:            payload.Symbol,
		Name:              payload.Name,
		Image:             payload.Image.Large,
		Price:             payload.MarketData.CurrentPrice[cur],
		MarketCap:         payload.MarketData.MarketCap[cur],
		Rank:              payload.MarketCapRank,
		Volume24h:         payload.MarketData.TotalVolume[cur],
		ChangePct24h:      payload.MarketData.PriceChangePct24h,
		CirculatingSupply: payload.MarketData.CirculatingSupply,
		TotalSupply:       payload.MarketData.TotalSupply,
		MaxSupply:         payload.MarketData.MaxSupply,
		ATHDate:           payload.MarketData.ATHDate[cur],
		LastUpdated:       payload.MarketData.LastUpdated,
	}
	if ath, ok := payload.MarketData.ATH[cur]; ok {
		coin.ATH = decimal.NullDecimal{Decimal: ath, Valid: true}
	}
	if pct, ok := payload.MarketData.ATHChangePct[cur]; ok {
		coin.ATHChangePct = decimal.NullDecimal{Decimal: pct, Valid: true}
	}
	return coin, nil
}

// marketParams builds the shared /coins/markets query set.
func (c *Client) marketParams(perPage int) url.Values {
	if perPage < 1 {
		perPage = c.cfg.API.PageSize
	}
	if perPage > infra.MaxPageSize {
		perPage = infra.MaxPageSize
	}

	params := url.Values{}
	params.Set("vs_currency", c.cfg.API.Currency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sparkline", "false")
	return params
}

// fetchCoinList runs the full pipeline for one logical coin-list call.
func (c *Client) fetchCoinList(ctx context.Context, endpoint string, params url.Values) ([]domain.Coin, error) {
	key := cacheKey(endpoint, params)

	// Cache is consulted before pacing: a hit must not burn rate budget.
	if coins, ok := c.cache.Fresh(key); ok {
		return coins, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.API.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(infra.CalculateBackoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if !c.breaker.Allow() {
			lastErr = errUpstreamIsolated
			slog.Warn("market call rejected",
				slog.String("endpoint", endpoint),
				slog.Any("error", lastErr))
			continue
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		var coins []domain.Coin
		if err := c.getJSON(ctx, endpoint, params, &coins); err != nil {
			c.breaker.RecordFailure()
			lastErr = err
			slog.Warn("market call attempt failed",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err))
			continue
		}

		c.breaker.RecordSuccess()
		c.cache.Put(key, coins)
		return coins, nil
	}

	// Three-tier fallback: fresh cache, stale cache, terminal error.
	if coins, ok := c.cache.Fresh(key); ok {
		slog.Warn("upstream failed, serving fresh cached data",
			slog.String("endpoint", endpoint))
		return coins, nil
	}
	if coins, ok := c.cache.Usable(key); ok {
		slog.Warn("upstream failed, serving stale cached data (may be outdated)",
			slog.String("endpoint", endpoint))
		return coins, nil
	}

	slog.Error("upstream failed with no cached data available",
		slog.String("endpoint", endpoint),
		slog.Any("error", lastErr))
	return nil, &FetchError{Endpoint: endpoint, Cause: lastErr}
}

// getJSON performs one GET attempt and decodes the response body.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.cfg.API.BaseURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.API.Key != "" {
		req.Header.Set("x-cg-demo-api-key", c.cfg.API.Key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// cacheKey derives the cache key from endpoint and canonicalized params.
// url.Values.Encode sorts keys, so equal param sets always collide.
func cacheKey(endpoint string, params url.Values) string {
	return endpoint + "?" + params.Encode()
}
