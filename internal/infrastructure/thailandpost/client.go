// Package thailandpost is the HTTP client for the Thailand Post tracking API
// (https://trackapi.thailandpost.co.th/).
package thailandpost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/pkg/metrics"
)

const (
	DefaultURL      = "https://trackapi.thailandpost.co.th/post/api/v1/track"
	DefaultLanguage = "EN"
	DefaultTimeout  = 30 * time.Second

	// maxLoggedPayload bounds how much of a malformed body is logged.
	maxLoggedPayload = 2048
)

// Config captures the settings for talking to the carrier.
type Config struct {
	URL      string
	Token    string
	Language string
	Timeout  time.Duration
}

// Client implements ports.CarrierClient.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        zerolog.Logger
}

// New returns a Client. Empty URL, language and timeout fall back to the
// defaults.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		log:        log,
	}
}

// Configured reports whether an API token is set.
func (c *Client) Configured() bool {
	return c.cfg.Token != ""
}

type trackRequest struct {
	Status   string   `json:"status"`
	Language string   `json:"language"`
	Barcode  []string `json:"barcode"`
}

type trackResponse struct {
	Status   bool               `json:"status"`
	Message  string             `json:"message"`
	Response *trackResponseBody `json:"response"`
}

type trackResponseBody struct {
	Items      map[string][]domain.CarrierEvent `json:"items"`
	TrackCount domain.CarrierTrackCount         `json:"track_count"`
}

// Track requests every status update for trackingNumber. The call is bounded
// by the configured timeout; exceeding it yields domain.ErrCarrierTimeout.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*domain.CarrierTrackResponse, error) {
	if !c.Configured() {
		return nil, domain.ErrCarrierNotConfigured
	}

	payload, err := json.Marshal(trackRequest{
		Status:   "all",
		Language: c.cfg.Language,
		Barcode:  []string{trackingNumber},
	})
	if err != nil {
		return nil, fmt.Errorf("encode track request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create track request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("tracking_number", trackingNumber).Msg("requesting carrier tracking data")

	start := time.Now()
	body, statusCode, err := c.do(req)
	metrics.CarrierRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(err) {
			metrics.CarrierRequestsTotal.WithLabelValues("timeout").Inc()
			return nil, fmt.Errorf("%w after %s", domain.ErrCarrierTimeout, c.cfg.Timeout)
		}
		metrics.CarrierRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrCarrierUnavailable, err)
	}

	if statusCode < 200 || statusCode > 299 {
		metrics.CarrierRequestsTotal.WithLabelValues("http_error").Inc()
		return nil, &domain.UpstreamError{StatusCode: statusCode, Message: http.StatusText(statusCode)}
	}

	var decoded trackResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, c.malformed(body, err)
	}
	if !decoded.Status {
		metrics.CarrierRequestsTotal.WithLabelValues("upstream_error").Inc()
		msg := decoded.Message
		if msg == "" {
			msg = "unknown error from carrier"
		}
		return nil, &domain.UpstreamError{StatusCode: statusCode, Message: msg}
	}
	if decoded.Response == nil || decoded.Response.Items == nil {
		return nil, c.malformed(body, errors.New("missing response.items"))
	}

	metrics.CarrierRequestsTotal.WithLabelValues("success").Inc()
	count := decoded.Response.TrackCount
	metrics.CarrierQuotaUsed.Set(float64(count.CountNumber))
	metrics.CarrierQuotaLimit.Set(float64(count.TrackCountLimit))
	c.log.Debug().
		Str("tracking_number", trackingNumber).
		Int("count_number", count.CountNumber).
		Int("track_count_limit", count.TrackCountLimit).
		Msg("carrier quota")

	return &domain.CarrierTrackResponse{
		Events:     decoded.Response.Items[trackingNumber],
		TrackCount: count,
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) malformed(body []byte, cause error) error {
	metrics.CarrierRequestsTotal.WithLabelValues("malformed").Inc()
	logged := body
	if len(logged) > maxLoggedPayload {
		logged = logged[:maxLoggedPayload]
	}
	c.log.Error().Err(cause).Bytes("payload", logged).Msg("malformed carrier response")
	return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, cause)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
