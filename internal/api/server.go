// Package api exposes the local HTTP surface of the engine.
//
// The platform shim feeds detection events, accelerometer batches, and
// lifecycle transitions in through it, and consumers read sensor status and
// points out of it. It is a loopback control plane, not a public API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lifesync/lifesync-core/internal/detection"
	"github.com/lifesync/lifesync-core/internal/manager"
	"github.com/lifesync/lifesync-core/internal/models"
	"github.com/lifesync/lifesync-core/internal/scoreapi"
	"github.com/lifesync/lifesync-core/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	mgr   *manager.Manager
	st    *store.Store
	relay *detection.Relay
	score *scoreapi.Client
}

// NewServer creates an API server over the given collaborators.
func NewServer(mgr *manager.Manager, st *store.Store, relay *detection.Relay, score *scoreapi.Client) *Server {
	return &Server{mgr: mgr, st: st, relay: relay, score: score}
}

// Routes registers all endpoints on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/sensors", s.sensorsHandler)
	mux.HandleFunc("/sensors/", s.sensorActionHandler)
	mux.HandleFunc("/points", s.pointsHandler)
	mux.HandleFunc("/points/categories", s.categoriesHandler)
	mux.HandleFunc("/detection/events", s.detectionEventsHandler)
	mux.HandleFunc("/detection/permission", s.detectionPermissionHandler)
	mux.HandleFunc("/detection/accel", s.detectionAccelHandler)
	mux.HandleFunc("/github/credentials", s.githubCredentialsHandler)
	mux.HandleFunc("/lifecycle/foreground", s.foregroundHandler)
	mux.HandleFunc("/lifecycle/background", s.backgroundHandler)
	mux.HandleFunc("/score/login", s.scoreLoginHandler)
	mux.HandleFunc("/score/points", s.scorePointsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// sensorStatus is one entry in the GET /sensors listing.
type sensorStatus struct {
	models.SensorDescriptor
	Active bool `json:"active"`
	Points int  `json:"points"`
}

func (s *Server) sensorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	statuses := make([]sensorStatus, 0, len(models.SensorCatalog))
	for _, desc := range models.SensorCatalog {
		status := sensorStatus{SensorDescriptor: desc, Active: s.mgr.IsActive(desc.ID)}
		if entry, err := s.st.GetSensorPoints(desc.ID); err == nil && entry != nil {
			status.Points = entry.Points
		}
		statuses = append(statuses, status)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(statuses))
}

// sensorActionHandler routes POST /sensors/{id}/start and /sensors/{id}/stop.
func (s *Server) sensorActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown sensor path"))
		return
	}
	id, action := parts[1], parts[2]
	if _, ok := models.DescriptorByID(id); !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown sensor id"))
		return
	}

	var err error
	switch action {
	case "start":
		err = s.mgr.Start(r.Context(), id)
	case "stop":
		err = s.mgr.Stop(id)
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown sensor action"))
		return
	}

	if err != nil {
		slog.Warn("Server.sensorActionHandler: action failed", "sensorID", id, "action", action, "error", err)
		writeJSONResponse(w, statusForSensorError(err), models.Error(err.Error()))
		return
	}
	slog.Info("Server.sensorActionHandler: action succeeded", "sensorID", id, "action", action)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Sensor "+action+" succeeded", nil))
}

// statusForSensorError maps activation failures to HTTP codes. Permission
// problems are the caller's to remediate, not server faults.
func statusForSensorError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, models.ErrPermissionDenied),
		errors.Is(err, models.ErrSimulatedDetection),
		errors.Is(err, models.ErrAccelerometerUnavailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrAlreadyActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) pointsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entries, err := s.st.GetAllPoints()
	if err != nil {
		slog.Error("Server.pointsHandler: failed to read ledger", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read points"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(entries))
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	totals, err := s.st.PointsByCategory()
	if err != nil {
		slog.Error("Server.categoriesHandler: failed to aggregate points", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read points"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(totals))
}

func (s *Server) detectionEventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var ev struct {
		Package string `json:"package"`
	}
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		slog.Warn("Server.detectionEventsHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	s.relay.PublishEvent(ev.Package)
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) detectionPermissionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var status detection.PermissionStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		slog.Warn("Server.detectionPermissionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	s.relay.SetPermission(status)
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) detectionAccelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var batch struct {
		Samples []models.AccelSample `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		slog.Warn("Server.detectionAccelHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	s.relay.PublishSamples(batch.Samples)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int{"accepted": len(batch.Samples)}))
}

func (s *Server) githubCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodPut:
		var creds models.GithubCredentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			slog.Warn("Server.githubCredentialsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if !creds.Configured() {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Username and token are required"))
			return
		}
		if err := s.st.SaveGithubCredentials(creds); err != nil {
			slog.Error("Server.githubCredentialsHandler: failed to save credentials", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save credentials"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Credentials saved", nil))

	case http.MethodDelete:
		if err := s.st.ClearGithubCredentials(); err != nil {
			slog.Error("Server.githubCredentialsHandler: failed to clear credentials", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear credentials"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Credentials cleared", nil))

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) foregroundHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mgr.OnForeground(r.Context())
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) backgroundHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mgr.OnBackground()
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// scoreLoginHandler proxies a login to the remote scoring backend.
func (s *Server) scoreLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.scoreLoginHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	player, err := s.score.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, scoreapi.ErrLoginFailed) {
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Login failed"))
			return
		}
		slog.Error("Server.scoreLoginHandler: backend request failed", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Scoring backend unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(player))
}

// scorePointsHandler proxies the remote per-category score lookup.
func (s *Server) scorePointsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid user_id"))
		return
	}

	points, err := s.score.GetPoints(r.Context(), userID)
	if err != nil {
		slog.Error("Server.scorePointsHandler: backend request failed", "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Scoring backend unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(points))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]any{
		"active_sensors": s.mgr.ActiveIDs(),
	}))
}
