package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Coin is a single market snapshot for one cryptocurrency.
// Snapshots are replaced wholesale on refresh; only Merge mutates an
// existing value, and it never touches the identity field (ID).
// JSON tags follow the upstream wire names.
type Coin struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"current_price"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	Rank         int             `json:"market_cap_rank"`
	Volume24h    decimal.Decimal `json:"total_volume"`
	ChangePct24h decimal.Decimal `json:"price_change_percentage_24h"`

	// Optional lifetime/supply metrics (absent outside the detail payloads).
	ATH               decimal.NullDecimal `json:"ath,omitempty"`
	ATHChangePct      decimal.NullDecimal `json:"ath_change_percentage,omitempty"`
	ATHDate           string              `json:"ath_date,omitempty"`
	CirculatingSupply decimal.NullDecimal `json:"circulating_supply,omitempty"`
	TotalSupply       decimal.NullDecimal `json:"total_supply,omitempty"`
	MaxSupply         decimal.NullDecimal `json:"max_supply,omitempty"`
	LastUpdated       string              `json:"last_updated,omitempty"`
}

// Merge copies every refreshable field from fresh into c.
// Identity (ID) is never overwritten; optional fields are only taken
// when the fresh snapshot actually carries them.
func (c *Coin) Merge(fresh Coin) {
	c.Symbol = fresh.Symbol
	c.Name = fresh.Name
	c.Image = fresh.Image
	c.Price = fresh.Price
	c.MarketCap = fresh.MarketCap
	c.Rank = fresh.Rank
	c.Volume24h = fresh.Volume24h
	c.ChangePct24h = fresh.ChangePct24h

	if fresh.ATH.Valid {
		c.ATH = fresh.ATH
	}
	if fresh.ATHChangePct.Valid {
		c.ATHChangePct = fresh.ATHChangePct
	}
	if fresh.ATHDate != "" {
		c.ATHDate = fresh.ATHDate
	}
	if fresh.CirculatingSupply.Valid {
		c.CirculatingSupply = fresh.CirculatingSupply
	}
	if fresh.TotalSupply.Valid {
		c.TotalSupply = fresh.TotalSupply
	}
	if fresh.MaxSupply.Valid {
		c.MaxSupply = fresh.MaxSupply
	}
	if fresh.LastUpdated != "" {
		c.LastUpdated = fresh.LastUpdated
	}
}

// PricePoint is one sample of a historical price series.
// Upstream encodes it as a 2-element array: [unix_millis, price].
type PricePoint struct {
	UnixMilli int64
	Price     decimal.Decimal
}

// UnmarshalJSON decodes the upstream [timestamp, price] pair.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var pair [2]json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("price point: %w", err)
	}

	ts, err := pair[0].Int64()
	if err != nil {
		// Upstream sometimes emits fractional milliseconds; truncate.
		f, ferr := pair[0].Float64()
		if ferr != nil {
			return fmt.Errorf("price point timestamp: %w", err)
		}
		ts = int64(f)
	}

	price, err := decimal.NewFromString(pair[1].String())
	if err != nil {
		return fmt.Errorf("price point value: %w", err)
	}

	p.UnixMilli = ts
	p.Price = price
	return nil
}

// MarshalJSON mirrors the upstream wire format.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]json.Number{
		json.Number(fmt.Sprintf("%d", p.UnixMilli)),
		json.Number(p.Price.String()),
	})
}
