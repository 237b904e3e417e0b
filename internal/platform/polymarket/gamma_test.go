package polymarket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

func marketJSON(id, conditionID, question string, active, closed bool) string {
	return fmt.Sprintf(`{
		"id": %q,
		"conditionId": %q,
		"question": %q,
		"active": %t,
		"closed": %t,
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.48\",\"0.52\"]"
	}`, id, conditionID, question, active, closed)
}

func TestFetchMarketsFiltersAndPaginates(t *testing.T) {
	// One page smaller than gammaPageSize, holding one good market, one
	// closed, one inactive, and one without parseable prices.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "0" {
			// A single short page must stop the walk.
			t.Errorf("unexpected offset %s", got)
		}
		fmt.Fprintf(w, `[%s, %s, %s, {"id":"4","conditionId":"0x4","question":"q4","active":true,"closed":false}]`,
			marketJSON("1", "0x1", "good market", true, false),
			marketJSON("2", "0x2", "closed market", true, true),
			marketJSON("3", "0x3", "inactive market", false, false),
		)
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL)
	records, err := client.FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("FetchMarkets() returned %d records, want 1", len(records))
	}
	if records[0].ExternalID != "0x1" {
		t.Errorf("ExternalID = %q, want 0x1", records[0].ExternalID)
	}
	if records[0].Platform != domain.PlatformPolymarket {
		t.Errorf("Platform = %q, want polymarket", records[0].Platform)
	}
}

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cond := r.URL.Query().Get("condition_ids")
		if cond == "0xknown" {
			fmt.Fprintf(w, "[%s]", marketJSON("1", "0xknown", "known market", true, false))
			return
		}
		fmt.Fprint(w, "[]")
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL)

	quote, err := client.FetchQuote(context.Background(), "0xknown")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}
	if quote.YesPrice != 0.48 || quote.NoPrice != 0.52 {
		t.Errorf("quote prices = %v/%v, want 0.48/0.52", quote.YesPrice, quote.NoPrice)
	}
	if quote.ExternalID != "0xknown" {
		t.Errorf("ExternalID = %q, want 0xknown", quote.ExternalID)
	}

	// An empty result array means the market does not exist.
	if _, err := client.FetchQuote(context.Background(), "0xmissing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FetchQuote(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCheckHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusOK, nil},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusInternalServerError, domain.ErrTransient},
		{http.StatusBadGateway, domain.ErrTransient},
	}
	for _, tt := range tests {
		err := checkHTTPStatus(tt.status, []byte("body"))
		if tt.want == nil {
			if err != nil {
				t.Errorf("checkHTTPStatus(%d) = %v, want nil", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("checkHTTPStatus(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}
