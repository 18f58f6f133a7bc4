package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	appconfig "github.com/medexa/medexa-platform/internal/config"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

func memoryConfig() *appconfig.Config {
	return &appconfig.Config{
		StoreBackend:       "memory",
		DraftBackend:       "memory",
		FilesBackend:       "memory",
		EmailProvider:      "stub",
		Timezone:           "America/Tegucigalpa",
		DraftTTL:           time.Hour,
		RateLimitPerSecond: 1,
		RateLimitBurst:     5,
	}
}

func TestSetupMetricsExposesBookingMetrics(t *testing.T) {
	reg, handler, m := setupMetrics()
	if reg == nil || handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveSubmission("telemedicina", "created", 0.2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "medexa_booking_submissions_total") {
		t.Fatalf("expected submission counter to be exported")
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	logger := logging.Discard()
	if loc := loadLocation("America/Tegucigalpa", logger); loc.String() != "America/Tegucigalpa" {
		t.Fatalf("expected Tegucigalpa, got %s", loc)
	}
	if loc := loadLocation("Mars/Olympus", logger); loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %s", loc)
	}
}

func TestBuildAppMemoryBackends(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig(), logging.Discard())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	// provisioner and draft cleanup listeners
	if a.hub.Len() != 2 {
		t.Fatalf("expected 2 session listeners, got %d", a.hub.Len())
	}

	for _, path := range []string{"/health", "/ready", "/api/catalog/telemedicina"} {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rr.Code, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/doctors/d1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected admin routes disabled without secret, got %d", rr.Code)
	}
}

func TestBuildAppCountsWizardAdvances(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig(), logging.Discard())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/wizards", strings.NewReader(`{"kind":"telemedicina"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("start wizard: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var started struct {
		Wizard     struct{ ID string } `json:"wizard"`
		OwnerToken string              `json:"owner_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}

	// An empty telemedicine draft fails its first gate.
	req := httptest.NewRequest(http.MethodPost, "/api/wizards/"+started.Wizard.ID+"/advance", nil)
	req.Header.Set(wizard.DraftTokenHeader, started.OwnerToken)
	rr = httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if got := advanceCount(t, a.registry, "telemedicina", "blocked"); got != 1 {
		t.Fatalf("expected 1 blocked advance, got %v", got)
	}
}

func advanceCount(t *testing.T, reg *prometheus.Registry, kind, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "medexa_wizard_advance_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "kind") == kind && labelValue(m, "result") == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestBuildAppRejectsUnknownStore(t *testing.T) {
	cfg := &appconfig.Config{StoreBackend: "sqlite", Timezone: "UTC"}
	if _, err := buildApp(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}
