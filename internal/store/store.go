// Package store provides storage backends for LifeSync Core.
//
// All persisted values are JSON records in a key-value table. Three backends
// are available: in-memory (tests and defaults), SQLite, and PostgreSQL.
// Malformed persisted JSON is treated as absence: logged, discarded, and the
// caller proceeds with defaults.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifesync/lifesync-core/internal/models"
)

// Storage keys. Per-sensor records append the sensor id.
const (
	keyActiveSensors = "active_sensors"
	keySensorState   = "sensor_state:"
	keySensorPoints  = "sensor_points:"
	keyGithubCreds   = "github_credentials"
)

// Opts holds configuration for store constructors.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, connection string for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// kv is the minimal backend contract the typed layer is built on.
type kv interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	List(prefix string) (map[string]string, error)
	Close() error
}

// Store exposes the typed persistence operations used by the rest of the
// engine, backed by one of the kv implementations.
type Store struct {
	kv kv
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// getJSON reads and unmarshals a record. Corrupt values are deleted and
// reported as absent.
func (s *Store) getJSON(key string, out interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Error("Store discarding corrupt record", "key", key, "error", err)
		if delErr := s.kv.Delete(key); delErr != nil {
			slog.Error("Store failed to delete corrupt record", "key", key, "error", delErr)
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) setJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", key, err)
	}
	return s.kv.Set(key, string(raw))
}

// GetActiveSensors returns the persisted set of active sensor ids.
func (s *Store) GetActiveSensors() ([]string, error) {
	var ids []string
	ok, err := s.getJSON(keyActiveSensors, &ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ids, nil
}

// SaveActiveSensors persists the set of active sensor ids.
func (s *Store) SaveActiveSensors(ids []string) error {
	slog.Debug("Store SaveActiveSensors", "count", len(ids))
	return s.setJSON(keyActiveSensors, ids)
}

// ClearActiveSensors removes the persisted active-sensor set.
func (s *Store) ClearActiveSensors() error {
	return s.kv.Delete(keyActiveSensors)
}

// GetSensorState returns the latest persisted snapshot for a sensor, or nil
// when none exists.
func (s *Store) GetSensorState(sensorID string) (*models.StateRecord, error) {
	var rec models.StateRecord
	ok, err := s.getJSON(keySensorState+sensorID, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SaveSensorState persists a sensor snapshot.
func (s *Store) SaveSensorState(rec models.StateRecord) error {
	if rec.SensorID == "" {
		return models.ErrEmptySensorID
	}
	slog.Debug("Store SaveSensorState", "sensorID", rec.SensorID, "type", rec.Type)
	return s.setJSON(keySensorState+rec.SensorID, rec)
}

// DeleteSensorState removes a sensor's persisted snapshot.
func (s *Store) DeleteSensorState(sensorID string) error {
	return s.kv.Delete(keySensorState + sensorID)
}

// GetSensorPoints returns the ledger entry for a sensor, or nil when none exists.
func (s *Store) GetSensorPoints(sensorID string) (*models.PointsEntry, error) {
	var entry models.PointsEntry
	ok, err := s.getJSON(keySensorPoints+sensorID, &entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// ApplyPointsDelta applies a signed delta to a sensor's ledger entry and
// returns the new total. The stored total never goes below zero.
func (s *Store) ApplyPointsDelta(sensorID string, delta int, category models.Category) (int, error) {
	entry, err := s.GetSensorPoints(sensorID)
	if err != nil {
		return 0, err
	}
	current := 0
	if entry != nil {
		current = entry.Points
	}
	total := current + delta
	if total < 0 {
		total = 0
	}
	newEntry := models.PointsEntry{
		SensorID:   sensorID,
		Points:     total,
		Category:   category,
		LastUpdate: time.Now(),
	}
	if err := s.setJSON(keySensorPoints+sensorID, newEntry); err != nil {
		return 0, err
	}
	slog.Debug("Store ApplyPointsDelta", "sensorID", sensorID, "delta", delta, "total", total)
	return total, nil
}

// GetAllPoints returns every ledger entry.
func (s *Store) GetAllPoints() ([]models.PointsEntry, error) {
	raw, err := s.kv.List(keySensorPoints)
	if err != nil {
		return nil, err
	}
	entries := make([]models.PointsEntry, 0, len(raw))
	for key, value := range raw {
		var entry models.PointsEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			slog.Error("Store skipping corrupt ledger entry", "key", key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PointsByCategory sums ledger points into the five wellbeing categories.
func (s *Store) PointsByCategory() (models.CategoryPoints, error) {
	entries, err := s.GetAllPoints()
	if err != nil {
		return nil, err
	}
	totals := make(models.CategoryPoints, len(models.Categories))
	for _, c := range models.Categories {
		totals[c] = 0
	}
	for _, entry := range entries {
		if models.IsValidCategory(entry.Category) {
			totals[entry.Category] += entry.Points
		}
	}
	return totals, nil
}

// GetGithubCredentials returns stored contribution-API credentials, or nil.
func (s *Store) GetGithubCredentials() (*models.GithubCredentials, error) {
	var creds models.GithubCredentials
	ok, err := s.getJSON(keyGithubCreds, &creds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &creds, nil
}

// SaveGithubCredentials persists contribution-API credentials.
func (s *Store) SaveGithubCredentials(creds models.GithubCredentials) error {
	return s.setJSON(keyGithubCreds, creds)
}

// ClearGithubCredentials removes stored contribution-API credentials.
func (s *Store) ClearGithubCredentials() error {
	return s.kv.Delete(keyGithubCreds)
}
