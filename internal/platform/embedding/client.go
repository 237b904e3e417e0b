package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/domain"
)

// defaultBatchSize bounds how many texts are sent per embeddings request.
const defaultBatchSize = 256

// Client calls an OpenAI-compatible embeddings endpoint. It implements
// domain.Embedder.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	httpClient *http.Client
}

var _ domain.Embedder = (*Client)(nil)

// NewClient creates a new embeddings client.
//
// baseURL is the API root, with or without a trailing "/v1", e.g.
// "https://api.openai.com/v1". model is the embedding model name, e.g.
// "text-embedding-3-small". batchSize <= 0 uses the default.
func NewClient(baseURL, apiKey, model string, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	// The request path already carries the /v1 prefix, so a base URL in the
	// common "https://host/v1" shape must not double it.
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1")
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order. Inputs are split
// into batches so large listings do not exceed request limits.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}

		copy(vectors[start:end], batch)
	}

	return vectors, nil
}

// embedBatch sends one embeddings request and returns vectors in input order.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody, err := json.Marshal(embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w: http request: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w: read response: %v", domain.ErrTransient, err)
	}

	if err := c.checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding: %w: got %d vectors for %d inputs", domain.ErrBadData, len(parsed.Data), len(texts))
	}

	// The API documents data entries in input order, but index is
	// authoritative.
	vectors := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding: %w: vector index %d out of range", domain.ErrBadData, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// checkStatus maps non-2xx HTTP status codes to domain sentinel errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("embedding: %w: %s", domain.ErrUnauthorized, bodyStr)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("embedding: %w: %s", domain.ErrRateLimited, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("embedding: %w: HTTP %d: %s", domain.ErrTransient, statusCode, bodyStr)
	default:
		return fmt.Errorf("embedding: HTTP %d: %s", statusCode, bodyStr)
	}
}
