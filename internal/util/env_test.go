package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"off", true, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, tc := range cases {
		t.Setenv("TEST_BOOL", tc.value)
		if got := ParseBoolEnv("TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DUR", "30s")
	if got := ParseDurationEnv("TEST_DUR", time.Minute); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}

	t.Setenv("TEST_DUR", "not-a-duration")
	if got := ParseDurationEnv("TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("invalid value must fall back to default, got %v", got)
	}

	t.Setenv("TEST_DUR", "")
	if got := ParseDurationEnv("TEST_DUR", 5*time.Second); got != 5*time.Second {
		t.Errorf("empty value must fall back to default, got %v", got)
	}
}
