package kalshi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// KalshiMarket represents a market as returned by the Kalshi REST API.
// Prices are quoted in cents (1-99).
type KalshiMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	OpenInterest   int64   `json:"open_interest"`
	ExpirationTime string  `json:"expiration_time"`
	Category       string  `json:"category"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Kalshi WebSocket DTOs
// --------------------------------------------------------------------------

// KalshiWSMessage is the envelope for Kalshi WebSocket messages.
type KalshiWSMessage struct {
	Type string          `json:"type"` // "ticker", "orderbook_snapshot", "error", etc.
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// KalshiWSTicker is the ticker-channel payload: top-of-book prices in cents.
type KalshiWSTicker struct {
	Ticker string  `json:"market_ticker"`
	YesBid float64 `json:"yes_bid"`
	YesAsk float64 `json:"yes_ask"`
	NoBid  float64 `json:"no_bid"`
	NoAsk  float64 `json:"no_ask"`
	Price  float64 `json:"price"`
	TS     int64   `json:"ts"`
}

// KalshiWSSubscribeCmd is the command sent to subscribe to Kalshi WebSocket channels.
type KalshiWSSubscribeCmd struct {
	ID     int64                   `json:"id"`
	Cmd    string                  `json:"cmd"` // "subscribe" or "unsubscribe"
	Params KalshiWSSubscribeParams `json:"params"`
}

// KalshiWSSubscribeParams defines the subscription parameters.
type KalshiWSSubscribeParams struct {
	Channels []string `json:"channels"` // e.g. ["ticker", "orderbook_delta"]
	Tickers  []string `json:"market_tickers"`
}

// --------------------------------------------------------------------------
// Conversion helpers: API types -> domain types
// --------------------------------------------------------------------------

// questionText joins title and subtitle into the text used for matching.
// Many Kalshi titles are templated ("Will X happen?") with the distinguishing
// detail in the subtitle, so both are needed.
func (m *KalshiMarket) questionText() string {
	title := strings.TrimSpace(m.Title)
	sub := strings.TrimSpace(m.Subtitle)
	if sub == "" {
		return title
	}
	return title + " " + sub
}

// ToMarketRecord converts a KalshiMarket to a domain.MarketRecord,
// converting cent prices to per-contract cost in [0,1]. Buying a side costs
// the ask for that side.
func (m *KalshiMarket) ToMarketRecord(observedAt time.Time) domain.MarketRecord {
	return domain.MarketRecord{
		Platform:   domain.PlatformKalshi,
		ExternalID: m.Ticker,
		Question:   m.questionText(),
		YesPrice:   m.YesAsk / 100,
		NoPrice:    m.NoAsk / 100,
		ObservedAt: observedAt,
	}
}

// ToQuoteSnapshot converts a KalshiMarket to a domain.QuoteSnapshot.
func (m *KalshiMarket) ToQuoteSnapshot(fetchedAt time.Time) domain.QuoteSnapshot {
	return domain.QuoteSnapshot{
		Platform:   domain.PlatformKalshi,
		ExternalID: m.Ticker,
		YesPrice:   m.YesAsk / 100,
		NoPrice:    m.NoAsk / 100,
		FetchedAt:  fetchedAt,
	}
}

// ToQuoteSnapshot converts a ticker-channel update to a domain.QuoteSnapshot.
func (t *KalshiWSTicker) ToQuoteSnapshot(fetchedAt time.Time) domain.QuoteSnapshot {
	return domain.QuoteSnapshot{
		Platform:   domain.PlatformKalshi,
		ExternalID: t.Ticker,
		YesPrice:   t.YesAsk / 100,
		NoPrice:    t.NoAsk / 100,
		FetchedAt:  fetchedAt,
	}
}
