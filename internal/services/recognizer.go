package services

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

	"naksha-backend/internal/domain"
	"naksha-backend/internal/models"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// PredictionResponse is the payload returned by the external prediction
// service for one image.
type PredictionResponse struct {
	Predictions []models.Prediction `json:"predictions"`
	Navigation  models.Navigation   `json:"navigation"`
}

// RecognizerClient forwards images to the external prediction service. A
// circuit breaker sits in front so a dead classifier fails fast instead of
// tying up request goroutines on timeouts.
type RecognizerClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*PredictionResponse]
}

// NewRecognizerClient creates a client for the prediction endpoint at baseURL.
func NewRecognizerClient(baseURL string, timeout time.Duration) *RecognizerClient {
	cb := gobreaker.NewCircuitBreaker[*PredictionResponse](gobreaker.Settings{
		Name:        "recognizer",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Recognizer circuit breaker state changed")
		},
	})

	return &RecognizerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Analyze sends the image bytes as-is to the prediction service and decodes
// its response. No retry: a failed round trip surfaces immediately as
// domain.ErrRecognitionUpstream.
func (c *RecognizerClient) Analyze(ctx context.Context, filename string, image []byte) (*PredictionResponse, error) {
	result, err := c.cb.Execute(func() (*PredictionResponse, error) {
		return c.doAnalyze(ctx, filename, image)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", domain.ErrRecognitionUpstream)
		}
		return nil, err
	}
	return result, nil
}

func (c *RecognizerClient) doAnalyze(ctx context.Context, filename string, image []byte) (*PredictionResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Upstream bodies go to logs only, never to clients.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s",
			domain.ErrRecognitionUpstream, resp.StatusCode, string(detail))
	}

	var result PredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrRecognitionUpstream, err)
	}

	return &result, nil
}
