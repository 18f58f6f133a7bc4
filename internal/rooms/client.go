// Package rooms provisions Daily.co video rooms for consultations.
package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/medexa/medexa-platform/internal/observability/metrics"
	"github.com/medexa/medexa-platform/pkg/logging"
)

const (
	defaultBaseURL    = "https://api.daily.co/v1"
	defaultTimeout    = 15 * time.Second
	defaultExpiration = time.Hour
)

var (
	ErrUpstream      = errors.New("rooms: provider request failed")
	ErrMissingAPIKey = errors.New("rooms: missing api key")
)

var roomsTracer = otel.Tracer("medexa.internal.rooms")

// Room is a created video room.
type Room struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Provisioner creates a room for a booking.
type Provisioner interface {
	CreateRoom(ctx context.Context, bookingID string, properties map[string]any) (*Room, error)
}

// DailyClient calls the Daily REST API.
type DailyClient struct {
	baseURL    string
	apiKey     string
	expiration time.Duration
	httpClient *http.Client
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// DailyConfig configures DailyClient. Zero values fall back to defaults.
type DailyConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Expiration time.Duration
}

// NewDailyClient creates a client. m may be nil.
func NewDailyClient(cfg DailyConfig, m *metrics.BookingMetrics, logger *logging.Logger) *DailyClient {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = defaultExpiration
	}
	return &DailyClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		expiration: cfg.Expiration,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

// RoomName is the name used for bookingID created at t.
func RoomName(bookingID string, t time.Time) string {
	return fmt.Sprintf("consultation-%s-%d", bookingID, t.UnixMilli())
}

// CreateRoom creates a uniquely named room that expires after the configured
// window. The caller's properties are passed through; exp is always set.
// There is no retry.
func (c *DailyClient) CreateRoom(ctx context.Context, bookingID string, properties map[string]any) (*Room, error) {
	ctx, span := roomsTracer.Start(ctx, "rooms.create")
	defer span.End()
	span.SetAttributes(attribute.String("medexa.booking_id", bookingID))

	start := time.Now()
	room, err := c.create(ctx, bookingID, properties)
	c.metrics.ObserveRoom(err == nil, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create room failed")
		c.logger.Error("failed to create consultation room", "error", err, "booking_id", bookingID)
		return nil, err
	}
	c.logger.Info("consultation room created", "booking_id", bookingID, "room", room.Name)
	return room, nil
}

func (c *DailyClient) create(ctx context.Context, bookingID string, properties map[string]any) (*Room, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	now := c.now()
	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	props["exp"] = now.Add(c.expiration).Unix()

	body, err := json.Marshal(createRoomRequest{Name: RoomName(bookingID, now), Properties: props})
	if err != nil {
		return nil, fmt.Errorf("rooms: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rooms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rooms: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	var room Room
	if err := json.Unmarshal(respBody, &room); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if room.URL == "" {
		return nil, fmt.Errorf("%w: response has no url", ErrUpstream)
	}
	return &room, nil
}
