package polymarket

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexBool(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`"true"`, true, false},
		{`"TRUE"`, true, false},
		{`"false"`, false, false},
		{`"1"`, true, false},
		{`"0"`, false, false},
		{`42`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f flexBool
			err := json.Unmarshal([]byte(tt.input), &f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unmarshal %s: error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && bool(f) != tt.want {
				t.Errorf("unmarshal %s = %v, want %v", tt.input, bool(f), tt.want)
			}
		})
	}
}

func TestYesNoPrices(t *testing.T) {
	tests := []struct {
		name    string
		market  APIMarket
		wantYes float64
		wantNo  float64
		wantOK  bool
	}{
		{
			name: "yes first",
			market: APIMarket{
				Outcomes:      `["Yes","No"]`,
				OutcomePrices: `["0.48","0.52"]`,
			},
			wantYes: 0.48, wantNo: 0.52, wantOK: true,
		},
		{
			name: "reversed outcome order",
			market: APIMarket{
				Outcomes:      `["No","Yes"]`,
				OutcomePrices: `["0.52","0.48"]`,
			},
			wantYes: 0.48, wantNo: 0.52, wantOK: true,
		},
		{
			name:   "missing prices",
			market: APIMarket{Outcomes: `["Yes","No"]`},
			wantOK: false,
		},
		{
			name: "malformed prices",
			market: APIMarket{
				Outcomes:      `["Yes","No"]`,
				OutcomePrices: `not json`,
			},
			wantOK: false,
		},
		{
			name: "non binary market",
			market: APIMarket{
				Outcomes:      `["A","B","C"]`,
				OutcomePrices: `["0.2","0.3","0.5"]`,
			},
			wantOK: false,
		},
		{
			name: "unparseable price value",
			market: APIMarket{
				Outcomes:      `["Yes","No"]`,
				OutcomePrices: `["abc","0.52"]`,
			},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yes, no, ok := tt.market.yesNoPrices()
			if ok != tt.wantOK {
				t.Fatalf("yesNoPrices() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if yes != tt.wantYes || no != tt.wantNo {
				t.Errorf("yesNoPrices() = %v, %v; want %v, %v", yes, no, tt.wantYes, tt.wantNo)
			}
		})
	}
}

func TestExternalIDPrefersConditionID(t *testing.T) {
	m := APIMarket{ID: "12345", ConditionID: "0xabc"}
	if got := m.externalID(); got != "0xabc" {
		t.Errorf("externalID() = %q, want 0xabc", got)
	}
	m.ConditionID = ""
	if got := m.externalID(); got != "12345" {
		t.Errorf("externalID() fallback = %q, want 12345", got)
	}
}

func TestToMarketRecord(t *testing.T) {
	observedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := APIMarket{
		ID:            "9",
		ConditionID:   "0xdef",
		Question:      "  Will it rain tomorrow?  ",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.30","0.70"]`,
	}

	rec, ok := m.ToMarketRecord(observedAt)
	if !ok {
		t.Fatal("ToMarketRecord() ok = false")
	}
	if rec.ExternalID != "0xdef" {
		t.Errorf("ExternalID = %q, want 0xdef", rec.ExternalID)
	}
	if rec.Question != "Will it rain tomorrow?" {
		t.Errorf("Question = %q, want trimmed text", rec.Question)
	}
	if rec.YesPrice != 0.30 || rec.NoPrice != 0.70 {
		t.Errorf("prices = %v/%v, want 0.30/0.70", rec.YesPrice, rec.NoPrice)
	}
	if !rec.ObservedAt.Equal(observedAt) {
		t.Errorf("ObservedAt = %v, want %v", rec.ObservedAt, observedAt)
	}

	if _, ok := (&APIMarket{}).ToMarketRecord(observedAt); ok {
		t.Error("ToMarketRecord() ok = true for market without prices")
	}
}
