package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"displayd/internal/auth"
	"displayd/internal/config"
	"displayd/internal/displaydevice"
	"displayd/internal/displaydeviceapi"
	"displayd/internal/events"
	"displayd/internal/health"
)

type memoryAuthStorage struct {
	state auth.State
}

func (m *memoryAuthStorage) Load(ctx context.Context) (auth.State, error) { return m.state, nil }
func (m *memoryAuthStorage) Save(ctx context.Context, state auth.State) error {
	m.state = state
	return nil
}

type memoryPersistence struct {
	blob []byte
	has  bool
}

func (m *memoryPersistence) Load() ([]byte, bool, error) { return m.blob, m.has, nil }
func (m *memoryPersistence) Store(blob []byte) bool {
	m.blob, m.has = blob, true
	return true
}
func (m *memoryPersistence) Clear() bool { m.has = false; m.blob = nil; return true }

type fakeReporter struct{}

func (fakeReporter) ReportApplied(req displaydevice.SingleDisplayConfiguration) {}
func (fakeReporter) ReportReverting()                                          {}
func (fakeReporter) ReportReverted(success bool)                               {}
func (fakeReporter) ReportPersistenceReset()                                   {}

func testServer(t *testing.T) (*Server, *auth.Manager) {
	t.Helper()
	api := displaydeviceapi.NewFixtureApi(displaydeviceapi.Catalog{Devices: []displaydeviceapi.CatalogDevice{
		{ID: "DeviceId1", FriendlyName: "Internal", DisplayName: "Laptop Panel"},
	}})
	manager := displaydevice.NewSettingsManager(api, nil, &memoryPersistence{})
	authManager, err := auth.NewManagerWithStorage(&memoryAuthStorage{})
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}
	if err := authManager.Setup(context.Background(), "correct horse"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	srv := New(Deps{
		Version:     "test",
		Config:      config.Config{Listen: ":0", OpenAPIPath: "does-not-exist.yaml", SessionTTL: time.Hour},
		Api:         api,
		Manager:     manager,
		Reporter:    fakeReporter{},
		AuthManager: authManager,
		Bus:         events.NewBus(),
		Health:      health.NewTracker(),
	})
	return srv, authManager
}

func TestHealthzDoesNotRequireAuth(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDevicesRequiresAuth(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginThenDevices(t *testing.T) {
	srv, _ := testServer(t)

	body, _ := json.Marshal(loginRequest{Username: "admin", Password: "correct horse"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	var loginResp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected devices request to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv, _ := testServer(t)

	body, _ := json.Marshal(loginRequest{Username: "admin", Password: "correct horse"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.router.ServeHTTP(rec, req)
	var loginResp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected logout to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv, _ := testServer(t)

	body, _ := json.Marshal(loginRequest{Username: "admin", Password: "wrong"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
