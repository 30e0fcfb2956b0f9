package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/manager"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/scheduler"
	"github.com/lifesync/lifesync-core/internal/scoreapi"
	"github.com/lifesync/lifesync-core/internal/sensors"
	"github.com/lifesync/lifesync-core/internal/store"
	"github.com/lifesync/lifesync-core/internal/timer"
)

type testEnv struct {
	server *Server
	mux    *http.ServeMux
	st     *store.Store
	relay  *detection.Relay
	mgr    *manager.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewInMemoryStore()
	relay := detection.NewRelay()
	timers := timer.NewRegistry()
	t.Cleanup(timers.Stop)
	stream := detection.NewStream(relay, timers)
	sched := scheduler.NewScheduler()
	t.Cleanup(sched.Stop)

	deps := sensors.Deps{
		Detector:    relay,
		Stream:      stream,
		Samples:     relay,
		Timers:      timers,
		Scheduler:   sched,
		Credentials: st,
	}
	mgr := manager.NewManager(st, deps, relay)
	t.Cleanup(mgr.Close)
	for _, desc := range models.SensorCatalog {
		if err := mgr.Register(desc, manager.Callbacks{}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	server := NewServer(mgr, st, relay, scoreapi.NewClient())
	return &testEnv{server: server, mux: server.Routes(), st: st, relay: relay, mgr: mgr}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func TestSensorsListing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/sensors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Result []struct {
			ID     string `json:"id"`
			Active bool   `json:"active"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(resp.Result) != len(models.SensorCatalog) {
		t.Errorf("listed %d sensors, want %d", len(resp.Result), len(models.SensorCatalog))
	}
	for _, s := range resp.Result {
		if s.Active {
			t.Errorf("sensor %s active before any start", s.ID)
		}
	}
}

func TestSensorStartStopFlow(t *testing.T) {
	env := newTestEnv(t)
	env.relay.SetPermission(detection.PermissionStatus{Granted: true})

	rec := env.do(t, http.MethodPost, "/sensors/1/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !env.mgr.IsActive("1") {
		t.Error("sensor not active after start")
	}

	rec = env.do(t, http.MethodPost, "/sensors/1/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rec.Code)
	}
	if env.mgr.IsActive("1") {
		t.Error("sensor still active after stop")
	}
}

func TestStartWithoutPermissionConflicts(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sensors/1/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestStartWithSimulatedDetectionConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.relay.SetPermission(detection.PermissionStatus{Granted: true, Simulation: true})
	rec := env.do(t, http.MethodPost, "/sensors/2/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestStepSensorRequiresAccelFeed(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sensors/3/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	// An ingested sample batch marks the feed available.
	env.do(t, http.MethodPost, "/detection/accel", `{"samples":[{"x":0,"y":0,"z":1}]}`)
	rec = env.do(t, http.MethodPost, "/sensors/3/start", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status after accel feed = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownSensorNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sensors/99/start", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDetectionEventIngestion(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/detection/events", `{"package":"com.duolingo"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	app, _ := env.relay.CurrentApp(context.Background())
	if app != "com.duolingo" {
		t.Errorf("CurrentApp = %q, want com.duolingo", app)
	}
}

func TestDetectionEventRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/detection/events", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGithubCredentialsLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/github/credentials", `{"username":"octocat","token":"tok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}
	creds, _ := env.st.GetGithubCredentials()
	if !creds.Configured() {
		t.Errorf("credentials not stored: %+v", creds)
	}

	// Missing token is rejected.
	rec = env.do(t, http.MethodPut, "/github/credentials", `{"username":"octocat"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete creds status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/github/credentials", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	creds, _ = env.st.GetGithubCredentials()
	if creds != nil {
		t.Errorf("credentials not cleared: %+v", creds)
	}
}

func TestCategoryTotalsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.st.ApplyPointsDelta("1", 5, models.CategorySocial)
	env.st.ApplyPointsDelta("3", 2, models.CategoryFisica)

	rec := env.do(t, http.MethodGet, "/points/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Result map[string]int `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Result["social"] != 5 || resp.Result["fisica"] != 2 {
		t.Errorf("unexpected totals: %v", resp.Result)
	}
	if len(resp.Result) != len(models.Categories) {
		t.Errorf("expected all categories, got %v", resp.Result)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodPost, "/lifecycle/foreground", ""); rec.Code != http.StatusOK {
		t.Errorf("foreground status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/lifecycle/background", ""); rec.Code != http.StatusOK {
		t.Errorf("background status = %d", rec.Code)
	}
	// Method guard.
	if rec := env.do(t, http.MethodGet, "/lifecycle/foreground", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET foreground status = %d, want 405", rec.Code)
	}
}

func TestScoreLoginProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"userId": 7, "username": "alice"}`))
	}))
	defer backend.Close()

	env := newTestEnv(t)
	env.server.score = scoreapi.NewClient(scoreapi.WithBaseURL(backend.URL))

	rec := env.do(t, http.MethodPost, "/score/login", `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"userId":7`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
