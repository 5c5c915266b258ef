package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAPIKey(t *testing.T) {
	deployKeys := []string{"sw_live_7f3a", "sw_test_19c2"}

	tests := []struct {
		name     string
		apiKey   string
		allowed  []string
		expected bool
	}{
		{"Live", "sw_live_7f3a", deployKeys, true},
		{"Test", "sw_test_19c2", deployKeys, true},
		{"Unknown", "sw_live_0000", deployKeys, false},
		{"Prefix", "sw_live_", deployKeys, false},
		{"Extended", "sw_live_7f3a0", deployKeys, false},
		{"CaseSensitive", "SW_LIVE_7F3A", deployKeys, false},
		{"BearerNotStripped", "Bearer sw_live_7f3a", deployKeys, false},
		{"Empty", "", deployKeys, false},
		{"EmptyAllowedKeys", "sw_live_7f3a", []string{}, false},
		{"NilAllowedKeys", "sw_live_7f3a", nil, false},
		{"EmptyAllowedEntry", "", []string{""}, false},
		{"DuplicateAllowedKeys", "sw_live_7f3a", []string{"sw_live_7f3a", "sw_live_7f3a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidAPIKey(tt.apiKey, tt.allowed))
		})
	}
}
