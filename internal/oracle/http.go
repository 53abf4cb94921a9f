package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/praevita/praevita/internal/model"
)

// HTTPScorer scores rows against a remote model server exposing a /predict
// endpoint that accepts one feature payload and returns an ordered
// (cholera, typhoid) pair.
type HTTPScorer struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPScorer creates a scorer client for the given model server.
func NewHTTPScorer(baseURL string) (*HTTPScorer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("model server URL is required")
	}

	return &HTTPScorer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// predictResponse is the model server's wire format.
type predictResponse struct {
	Prediction []int `json:"prediction"`
}

// Score posts one observation's features and decodes the prediction pair.
func (s *HTTPScorer) Score(ctx context.Context, features model.Features) (int, int, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var prediction predictResponse
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(prediction.Prediction) != 2 {
		return 0, 0, fmt.Errorf("model server returned %d values, expected 2", len(prediction.Prediction))
	}
	cholera, typhoid := prediction.Prediction[0], prediction.Prediction[1]
	if cholera < 0 || typhoid < 0 {
		return 0, 0, fmt.Errorf("model server returned negative projection (%d, %d)", cholera, typhoid)
	}

	return cholera, typhoid, nil
}
