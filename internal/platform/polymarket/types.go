package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"conditionId"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.48\",\"0.52\"]"
	Volume        string   `json:"volume"`
	EndDateISO    string   `json:"end_date_iso"`
	Description   string   `json:"description"`
	ClobTokenIDs  string   `json:"clobTokenIds"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// externalID prefers the condition ID, which is stable across Gamma and CLOB,
// falling back to the Gamma numeric ID for markets that predate condition IDs.
func (m *APIMarket) externalID() string {
	if m.ConditionID != "" {
		return m.ConditionID
	}
	return m.ID
}

// yesNoPrices decodes the doubly JSON-encoded outcomePrices field and returns
// per-contract costs for the Yes and No outcomes. ok is false when the field
// is missing, malformed, or not a two-outcome market.
func (m *APIMarket) yesNoPrices() (yes, no float64, ok bool) {
	if m.OutcomePrices == "" {
		return 0, 0, false
	}

	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return 0, 0, false
	}
	if len(raw) != 2 {
		return 0, 0, false
	}

	yes, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return 0, 0, false
	}
	no, err = strconv.ParseFloat(raw[1], 64)
	if err != nil {
		return 0, 0, false
	}

	// Outcome order follows the Outcomes field; Gamma lists Yes first for
	// binary markets, but honor an explicit reversed order if present.
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err == nil && len(outcomes) == 2 {
		if strings.EqualFold(outcomes[0], "No") {
			yes, no = no, yes
		}
	}

	return yes, no, true
}

// ToMarketRecord converts a Gamma APIMarket to a domain.MarketRecord. ok is
// false for markets without parseable binary prices, which the caller skips.
func (m *APIMarket) ToMarketRecord(observedAt time.Time) (domain.MarketRecord, bool) {
	yes, no, ok := m.yesNoPrices()
	if !ok {
		return domain.MarketRecord{}, false
	}
	return domain.MarketRecord{
		Platform:   domain.PlatformPolymarket,
		ExternalID: m.externalID(),
		Question:   strings.TrimSpace(m.Question),
		YesPrice:   yes,
		NoPrice:    no,
		ObservedAt: observedAt,
	}, true
}

// ToQuoteSnapshot converts a Gamma APIMarket to a domain.QuoteSnapshot.
func (m *APIMarket) ToQuoteSnapshot(fetchedAt time.Time) (domain.QuoteSnapshot, bool) {
	yes, no, ok := m.yesNoPrices()
	if !ok {
		return domain.QuoteSnapshot{}, false
	}
	return domain.QuoteSnapshot{
		Platform:   domain.PlatformPolymarket,
		ExternalID: m.externalID(),
		YesPrice:   yes,
		NoPrice:    no,
		FetchedAt:  fetchedAt,
	}, true
}
