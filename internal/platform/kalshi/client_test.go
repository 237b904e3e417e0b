package kalshi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// newTestClient returns a client pointed at url with a freshly generated
// signing key.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	c := NewClient(url, "test-key-id")
	if err := c.SetRSAPrivateKey(pemBytes); err != nil {
		t.Fatalf("SetRSAPrivateKey() error = %v", err)
	}
	return c
}

func TestGetMarketSignsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"KALSHI-ACCESS-KEY", "KALSHI-ACCESS-SIGNATURE", "KALSHI-ACCESS-TIMESTAMP"} {
			if r.Header.Get(h) == "" {
				t.Errorf("missing header %s", h)
			}
		}
		if got := r.Header.Get("KALSHI-ACCESS-KEY"); got != "test-key-id" {
			t.Errorf("KALSHI-ACCESS-KEY = %q, want test-key-id", got)
		}
		fmt.Fprint(w, `{"market":{"ticker":"KXTEST-26","title":"Test","status":"open","yes_ask":42,"no_ask":60}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	m, err := client.GetMarket(context.Background(), "KXTEST-26")
	if err != nil {
		t.Fatalf("GetMarket() error = %v", err)
	}
	if m.Ticker != "KXTEST-26" || m.YesAsk != 42 {
		t.Errorf("GetMarket() = %+v, want ticker KXTEST-26 with yes_ask 42", m)
	}
}

func TestFetchQuoteConvertsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"market":{"ticker":"KXTEST-26","yes_ask":42,"no_ask":60}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	q, err := client.FetchQuote(context.Background(), "KXTEST-26")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}
	if q.YesPrice != 0.42 || q.NoPrice != 0.60 {
		t.Errorf("prices = %v/%v, want 0.42/0.60", q.YesPrice, q.NoPrice)
	}
}

func TestFetchMarketsPaginatesAndFiltersStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"markets":[
				{"ticker":"K1","title":"one","status":"open","yes_ask":40,"no_ask":62},
				{"ticker":"K2","title":"two","status":"settled","yes_ask":99,"no_ask":1}
			],"cursor":"next-page"}`)
		case "next-page":
			fmt.Fprint(w, `{"markets":[
				{"ticker":"K3","title":"three","status":"active","yes_ask":50,"no_ask":52}
			],"cursor":""}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	records, err := client.FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FetchMarkets() returned %d records, want 2", len(records))
	}
	if records[0].ExternalID != "K1" || records[1].ExternalID != "K3" {
		t.Errorf("records = %s, %s; want K1, K3", records[0].ExternalID, records[1].ExternalID)
	}
}

func TestCheckStatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusServiceUnavailable, domain.ErrTransient},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			fmt.Fprint(w, `{"code":"err","message":"boom"}`)
		}))

		client := newTestClient(t, srv.URL)
		_, err := client.GetMarket(context.Background(), "KXTEST-26")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestSignRequiresKey(t *testing.T) {
	client := NewClient("http://localhost:1", "key-id")
	if _, err := client.GetMarket(context.Background(), "KXTEST-26"); err == nil {
		t.Error("GetMarket() without a signing key = nil, want error")
	}
}
