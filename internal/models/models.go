// Package models defines the core data structures for LifeSync Core.
//
// It includes sensor descriptors, runtime state records, and the points
// ledger types shared across modules.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// SensorType identifies which signal source a sensor processes.
type SensorType string

const (
	// SensorTypeStepCount counts steps from accelerometer samples.
	SensorTypeStepCount SensorType = "step_count"
	// SensorTypeAppSessions attributes foreground time to app categories.
	SensorTypeAppSessions SensorType = "app_sessions"
	// SensorTypePhoneUsage tracks phone active/idle time against healthy hours.
	SensorTypePhoneUsage SensorType = "phone_usage"
	// SensorTypeGithubContributions polls a contribution API for commits.
	SensorTypeGithubContributions SensorType = "github_contributions"
)

// IsValidSensorType checks if the given sensor type is supported.
func IsValidSensorType(st SensorType) bool {
	switch st {
	case SensorTypeStepCount, SensorTypeAppSessions, SensorTypePhoneUsage, SensorTypeGithubContributions:
		return true
	default:
		return false
	}
}

// Category is one of the five fixed wellbeing dimensions used by the
// remote scoring service.
type Category string

const (
	CategorySocial      Category = "social"
	CategoryFisica      Category = "fisica"
	CategoryAfectivo    Category = "afectivo"
	CategoryCognitivo   Category = "cognitivo"
	CategoryLinguistico Category = "linguistico"
)

// Categories lists all wellbeing categories in canonical order.
var Categories = []Category{CategorySocial, CategoryFisica, CategoryAfectivo, CategoryCognitivo, CategoryLinguistico}

// IsValidCategory checks if the given category is one of the five fixed dimensions.
func IsValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// AppCategory classifies an application's effect on wellbeing.
type AppCategory string

const (
	AppCategoryPositive AppCategory = "positive"
	AppCategoryNegative AppCategory = "negative"
	AppCategoryNeutral  AppCategory = "neutral"
)

// ProcessorState is the explicit lifecycle state of a sensor processor.
type ProcessorState string

const (
	ProcessorInactive ProcessorState = "inactive"
	ProcessorStarting ProcessorState = "starting"
	ProcessorActive   ProcessorState = "active"
	ProcessorStopping ProcessorState = "stopping"
)

// SensorDescriptor is the immutable configuration for one sensor. Created
// once at process start from the static catalog; never mutated.
type SensorDescriptor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        SensorType `json:"type"`
	Category    Category   `json:"category"`
	Icon        string     `json:"icon,omitempty"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
}

// Validate checks that the descriptor carries a usable configuration.
func (d *SensorDescriptor) Validate() error {
	if d.ID == "" {
		return ErrEmptySensorID
	}
	if !IsValidSensorType(d.Type) {
		return ErrInvalidSensorType
	}
	if !IsValidCategory(d.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// StateRecord is the uniform serialized snapshot of one sensor processor.
// Data holds the type-specific snapshot; each processor marshals and
// unmarshals its own payload.
type StateRecord struct {
	SensorID  string          `json:"sensor_id"`
	Type      SensorType      `json:"type"`
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
}

// PointsEntry is one points-ledger record. Points is clamped to >= 0 by the
// store when deltas are applied.
type PointsEntry struct {
	SensorID   string    `json:"sensor_id"`
	Points     int       `json:"points"`
	Category   Category  `json:"category"`
	LastUpdate time.Time `json:"last_update"`
}

// CategoryPoints aggregates ledger points per wellbeing category.
type CategoryPoints map[Category]int

// AppUsageEvent is one foreground-app change observation.
type AppUsageEvent struct {
	Package   string    `json:"package"`
	Timestamp time.Time `json:"timestamp"`
}

// AccelSample is one 3-axis accelerometer reading, in g.
type AccelSample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GithubCredentials holds the stored contribution-API configuration.
type GithubCredentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Configured reports whether both username and token are present.
func (c *GithubCredentials) Configured() bool {
	return c != nil && c.Username != "" && c.Token != ""
}

// Error variables for better error handling and testability
var (
	ErrEmptySensorID            = errors.New("sensor id cannot be empty")
	ErrInvalidSensorType        = errors.New("invalid sensor type")
	ErrInvalidCategory          = errors.New("invalid category")
	ErrNotRegistered            = errors.New("sensor is not registered")
	ErrAlreadyActive            = errors.New("sensor is already active")
	ErrPermissionDenied         = errors.New("usage detection permission not granted")
	ErrSimulatedDetection       = errors.New("usage detection is running in simulation mode")
	ErrAccelerometerUnavailable = errors.New("accelerometer is not available")
	ErrStateRecordTypeMismatch  = errors.New("state record type does not match sensor type")
	ErrGithubNotConfigured      = errors.New("github credentials not configured")
)

// SensorCatalog is the static configuration of all available sensors.
// To add a new sensor, add a descriptor here.
var SensorCatalog = []SensorDescriptor{
	{
		ID:          "1",
		Name:        "App session monitor",
		Type:        SensorTypeAppSessions,
		Category:    CategorySocial,
		Icon:        "📱",
		Description: "Tracks foreground app usage and rewards a healthy balance between positive and negative apps.",
		Color:       "#4A90E2",
	},
	{
		ID:          "2",
		Name:        "Phone usage schedule",
		Type:        SensorTypePhoneUsage,
		Category:    CategorySocial,
		Icon:        "⏰",
		Description: "Tracks phone usage patterns and rewards respecting rest hours.",
		Color:       "#50C878",
	},
	{
		ID:          "3",
		Name:        "Daily step counter",
		Type:        SensorTypeStepCount,
		Category:    CategoryFisica,
		Icon:        "👟",
		Description: "Counts steps from accelerometer data to encourage daily physical activity.",
		Color:       "#FF6B6B",
	},
	{
		ID:          "4",
		Name:        "GitHub contributions",
		Type:        SensorTypeGithubContributions,
		Category:    CategoryCognitivo,
		Icon:        "💻",
		Description: "Rewards code contributions to encourage continuous learning.",
		Color:       "#9B59B6",
	},
}

// DescriptorByID returns the catalog descriptor for the given sensor id.
func DescriptorByID(id string) (SensorDescriptor, bool) {
	for _, d := range SensorCatalog {
		if d.ID == id {
			return d, true
		}
	}
	return SensorDescriptor{}, false
}
