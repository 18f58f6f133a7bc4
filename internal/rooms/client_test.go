package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medexa/medexa-platform/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *DailyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewDailyClient(DailyConfig{APIKey: "daily-key", BaseURL: srv.URL}, nil, logging.Discard())
	c.now = func() time.Time { return time.UnixMilli(1748772000123) }
	return c
}

func TestCreateRoomSendsNameAndExpiry(t *testing.T) {
	var got createRoomRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer daily-key" {
			t.Errorf("missing bearer key, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"name":"` + got.Name + `","url":"https://medexa.daily.co/` + got.Name + `"}`))
	})

	room, err := c.CreateRoom(context.Background(), "cita-7", map[string]any{"enable_chat": true, "exp": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "consultation-cita-7-1748772000123" {
		t.Errorf("unexpected room name %q", got.Name)
	}
	if exp, _ := got.Properties["exp"].(float64); int64(exp) != 1748772000+3600 {
		t.Errorf("unexpected exp %v", got.Properties["exp"])
	}
	if got.Properties["enable_chat"] != true {
		t.Errorf("caller properties not forwarded: %v", got.Properties)
	}
	if room.URL != "https://medexa.daily.co/consultation-cita-7-1748772000123" {
		t.Errorf("unexpected url %q", room.URL)
	}
}

func TestCreateRoomUpstreamError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid-request-error"}`))
	})

	_, err := c.CreateRoom(context.Background(), "cita-7", nil)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestCreateRoomRequiresAPIKey(t *testing.T) {
	c := NewDailyClient(DailyConfig{}, nil, logging.Discard())
	if _, err := c.CreateRoom(context.Background(), "cita-7", nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCreateRoomRejectsResponseWithoutURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	})
	if _, err := c.CreateRoom(context.Background(), "cita-7", nil); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

type stubProvisioner struct {
	room *Room
	err  error
	id   string
}

func (s *stubProvisioner) CreateRoom(ctx context.Context, bookingID string, properties map[string]any) (*Room, error) {
	s.id = bookingID
	return s.room, s.err
}

func TestHandlerCreateRoom(t *testing.T) {
	stub := &stubProvisioner{room: &Room{Name: "consultation-c1-1", URL: "https://medexa.daily.co/consultation-c1-1"}}
	h := NewHandler(stub, logging.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/create-room", strings.NewReader(`{"citaId":"c1","properties":{"max_participants":2}}`))
	rec := httptest.NewRecorder()
	h.CreateRoom(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["roomUrl"] != "https://medexa.daily.co/consultation-c1-1" || resp["roomName"] != "consultation-c1-1" {
		t.Errorf("unexpected body %v", resp)
	}
	if stub.id != "c1" {
		t.Errorf("expected booking id c1, got %q", stub.id)
	}
}

func TestHandlerCreateRoomFailure(t *testing.T) {
	h := NewHandler(&stubProvisioner{err: ErrUpstream}, logging.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/create-room", strings.NewReader(`{"citaId":"c1"}`))
	rec := httptest.NewRecorder()
	h.CreateRoom(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"Failed to create consultation room"}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandlerCreateRoomRequiresCitaID(t *testing.T) {
	stub := &stubProvisioner{}
	h := NewHandler(stub, logging.Discard())
	rec := httptest.NewRecorder()
	h.CreateRoom(rec, httptest.NewRequest(http.MethodPost, "/api/create-room", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.id != "" {
		t.Error("provisioner should not be called")
	}
}
