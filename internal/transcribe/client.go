// Package transcribe calls an external word-level transcription service.
//
// Failures split into retryable (timeouts, rate limits, server errors) and
// permanent kinds; callers degrade to empty lyrics after the retry budget,
// never failing the analysis.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mlx93/VideoGen/pkg/logger"
	"github.com/mlx93/VideoGen/pkg/models"
)

const (
	// RequestTimeout bounds a single transcription attempt.
	RequestTimeout = 60 * time.Second
	// CostPerMinuteUSD is the fixed per-minute transcription rate.
	CostPerMinuteUSD = 0.006

	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// ErrPermanent marks failures that retrying cannot fix.
var ErrPermanent = errors.New("permanent transcription failure")

// CostRecorder receives the external cost incurred by a transcription call.
type CostRecorder interface {
	Record(jobID, api string, usd float64)
}

// Client talks to the transcription service with bounded timeout and retry.
type Client struct {
	url         string
	http        *http.Client
	costs       CostRecorder
	maxAttempts int
	baseDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCostRecorder wires the cost-accounting collaborator.
func WithCostRecorder(r CostRecorder) Option {
	return func(c *Client) { c.costs = r }
}

// WithRetry overrides the retry budget and base backoff delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.baseDelay = baseDelay
	}
}

// NewClient builds a Client for the given service URL.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:         strings.TrimRight(url, "/"),
		http:        &http.Client{Timeout: RequestTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wordEntry struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
}

type transcribeResponse struct {
	Words []wordEntry `json:"words"`
}

// Transcribe sends the audio bytes for word-level transcription. Transient
// failures are retried with exponential backoff (2s, 4s, 8s); the error
// returned after the budget is exhausted wraps the last failure. On success
// the incurred cost (duration minutes x rate) is reported to the recorder.
func (c *Client) Transcribe(ctx context.Context, data []byte, jobID string, duration float64) ([]models.LyricWord, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: no transcription service configured", ErrPermanent)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		words, err := c.call(ctx, data, jobID)
		if err == nil {
			if c.costs != nil {
				c.costs.Record(jobID, "transcription", duration/60.0*CostPerMinuteUSD)
			}
			return words, nil
		}
		if errors.Is(err, ErrPermanent) {
			return nil, err
		}
		lastErr = err

		if attempt < c.maxAttempts {
			delay := c.baseDelay * time.Duration(1<<(attempt-1))
			logger.Warnf("transcription attempt %d/%d failed: %v, retrying in %s",
				attempt, c.maxAttempts, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("transcription failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) call(ctx context.Context, data []byte, jobID string) ([]models.LyricWord, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", jobID+".wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors and timeouts are transient.
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("transcription %s: %s", resp.Status, strings.TrimSpace(string(msg)))
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrPermanent, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPermanent, err)
	}

	lyrics := make([]models.LyricWord, 0, len(out.Words))
	for _, wd := range out.Words {
		text := strings.TrimSpace(wd.Word)
		if text == "" {
			continue
		}
		lyrics = append(lyrics, models.LyricWord{Text: text, Timestamp: wd.Start})
	}
	return lyrics, nil
}
