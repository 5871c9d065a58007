package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// ModelClient calls a hosted text-classification endpoint that speaks the
// Hugging Face inference format: {"inputs": text} in, a list of
// {label, score} out. Model labels are mapped through comment.ParseSentiment,
// so LABEL_0/LABEL_1 read as Negatif/Positif.
type ModelClient struct {
	URL    string
	APIKey string

	HTTPClient *http.Client
}

type modelRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type modelError struct {
	Error string `json:"error"`
}

// Classify returns the highest-scoring label.
func (c *ModelClient) Classify(ctx context.Context, text string) (Result, error) {
	if c.URL == "" {
		return Result{}, fmt.Errorf("%w: model url required", internalerr.ErrClassifierUnavailable)
	}
	scores, err := c.send(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", internalerr.ErrClassifierUnavailable, err)
	}

	var best *labelScore
	for i := range scores {
		if best == nil || scores[i].Score > best.Score {
			best = &scores[i]
		}
	}
	if best == nil {
		return Result{}, fmt.Errorf("%w: empty model response", internalerr.ErrClassifierUnavailable)
	}
	label, err := comment.ParseSentiment(best.Label)
	if err != nil {
		return Result{}, fmt.Errorf("%w: model label %q", internalerr.ErrClassifierUnavailable, best.Label)
	}
	return Result{Label: label, Confidence: best.Score, Backend: BackendModel}, nil
}

func (c *ModelClient) send(ctx context.Context, text string) ([]labelScore, error) {
	reqBody, err := json.Marshal(modelRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var payload modelError
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return nil, fmt.Errorf("model error (%d): %s", resp.StatusCode, payload.Error)
		}
		return nil, fmt.Errorf("model returned status %d", resp.StatusCode)
	}
	return decodeScores(body)
}

// decodeScores accepts both the batched [[...]] and flat [...] shapes.
func decodeScores(body []byte) ([]labelScore, error) {
	var batched [][]labelScore
	if err := json.Unmarshal(body, &batched); err == nil {
		if len(batched) == 0 {
			return nil, nil
		}
		return batched[0], nil
	}
	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return flat, nil
}

func (c *ModelClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
