// Package models: type-specific sensor snapshot payloads.
//
// These are the structures carried in StateRecord.Data and forwarded to
// display consumers on every data emission.
package models

import "time"

// StepSnapshot is the step counter's accumulated state.
type StepSnapshot struct {
	Steps      int     `json:"steps"`
	DistanceKm float64 `json:"distance_km"`
	Calories   int     `json:"calories"`
	InVehicle  bool    `json:"in_vehicle"`
}

// AppHistoryEntry records one closed positive/negative app interval.
type AppHistoryEntry struct {
	App       string      `json:"app"`
	Category  AppCategory `json:"category"`
	Seconds   int         `json:"seconds"`
	Timestamp time.Time   `json:"timestamp"`
}

// AppSessionsSnapshot is the app-session tracker's accumulated state.
// Times are whole minutes for display; internal accounting is in seconds.
type AppSessionsSnapshot struct {
	TotalMinutes    int               `json:"total_minutes"`
	PositiveSeconds int               `json:"positive_seconds"`
	NegativeSeconds int               `json:"negative_seconds"`
	NeutralSeconds  int               `json:"neutral_seconds"`
	LastApp         string            `json:"last_app"`
	LastAppCategory AppCategory       `json:"last_app_category"`
	TotalPoints     int               `json:"total_points"`
	History         []AppHistoryEntry `json:"history,omitempty"`
}

// PhoneSession records one closed phone-active interval.
type PhoneSession struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Minutes    float64   `json:"minutes"`
	WasHealthy bool      `json:"was_healthy"`
}

// PhoneUsageSnapshot is the phone usage tracker's accumulated state.
type PhoneUsageSnapshot struct {
	TotalMinutes     float64        `json:"total_minutes"`
	HealthyMinutes   float64        `json:"healthy_minutes"`
	UnhealthyMinutes float64        `json:"unhealthy_minutes"`
	Pickups          int            `json:"pickups"`
	AvgSessionMin    float64        `json:"avg_session_min"`
	IsHealthyHour    bool           `json:"is_healthy_hour"`
	TotalPoints      int            `json:"total_points"`
	Sessions         []PhoneSession `json:"sessions,omitempty"`
}

// GithubSnapshot is the contribution tracker's accumulated state.
// Simulated marks display-only data that never contributes points.
type GithubSnapshot struct {
	Commits          int       `json:"commits"`
	Repos            int       `json:"repos"`
	LastPush         time.Time `json:"last_push,omitempty"`
	CommitsProcessed int       `json:"commits_processed"`
	Simulated        bool      `json:"simulated"`
}
