package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// embedServer answers /v1/embeddings with one small vector per input,
// optionally reversing the data order to exercise index-based reassembly.
func embedServer(t *testing.T, reverse bool, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want Bearer sk-test", got)
		}

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			data[i] = datum{Index: i, Embedding: []float64{float64(len(req.Input[i]))}}
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestEmbedPreservesInputOrder(t *testing.T) {
	srv := embedServer(t, true, nil)
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", "test-model", 0)
	vecs, err := client.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("Embed() returned %d vectors, want 3", len(vecs))
	}
	// The server encodes each text's length, so order is observable even
	// though the response data arrived reversed.
	for i, wantLen := range []float64{1, 2, 3} {
		if vecs[i][0] != wantLen {
			t.Errorf("vecs[%d] = %v, want [%v]", i, vecs[i], wantLen)
		}
	}
}

func TestEmbedBaseURLWithV1Suffix(t *testing.T) {
	// The shipped default base URL ends in /v1. The client must resolve it
	// to a single /v1/embeddings path, not /v1/v1/embeddings.
	bases := []string{"", "/", "/v1", "/v1/"}
	for _, suffix := range bases {
		t.Run("suffix"+suffix, func(t *testing.T) {
			srv := embedServer(t, false, nil)
			defer srv.Close()

			client := NewClient(srv.URL+suffix, "sk-test", "test-model", 0)
			vecs, err := client.Embed(context.Background(), []string{"a"})
			if err != nil {
				t.Fatalf("Embed() error = %v", err)
			}
			if len(vecs) != 1 {
				t.Fatalf("Embed() returned %d vectors, want 1", len(vecs))
			}
		})
	}
}

func TestEmbedBatches(t *testing.T) {
	var requests atomic.Int64
	srv := embedServer(t, false, &requests)
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", "test-model", 2)
	vecs, err := client.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 5 {
		t.Fatalf("Embed() returned %d vectors, want 5", len(vecs))
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("request count = %d, want 3 for batch size 2", got)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewClient("http://localhost:1", "sk-test", "test-model", 0)
	vecs, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error = %v", err)
	}
	if vecs != nil {
		t.Errorf("Embed(nil) = %v, want nil without any request", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1.0]}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test", "test-model", 0)
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrBadData) {
		t.Errorf("Embed() error = %v, want ErrBadData", err)
	}
}

func TestEmbedErrorStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusInternalServerError, domain.ErrTransient},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewClient(srv.URL, "sk-test", "test-model", 0)
		_, err := client.Embed(context.Background(), []string{"a"})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}
