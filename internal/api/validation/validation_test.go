package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"valid_simple", "user@example.com", true},
		{"valid_subdomain", "cro@risk.stmary.example.com", true},
		{"valid_plus", "user+tag@example.com", true},
		{"valid_dash", "user-name@example.com", true},
		{"invalid_no_at", "userexample.com", false},
		{"invalid_no_domain", "user@", false},
		{"invalid_no_user", "@example.com", false},
		{"invalid_spaces", "user @example.com", false},
		{"invalid_no_tld", "user@example", false},
		{"too_long", strings.Repeat("a", 250) + "@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidEmail(tt.email)
			assert.Equal(t, tt.valid, result, "Email: %s", tt.email)
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
		errMsg   string
	}{
		{"valid", "SafePassw0rd!", true, ""},
		{"valid_min_length", "12345678", true, ""},
		{"too_short", "short1!", false, "at least 8 characters"},
		{"too_long", strings.Repeat("x", 129), false, "at most 128 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := IsValidPassword(tt.password)
			assert.Equal(t, tt.valid, valid, "Password: %s", tt.password)
			if !valid {
				assert.Contains(t, msg, tt.errMsg)
			}
		})
	}
}

func TestIsValidScaleIndex(t *testing.T) {
	tests := []struct {
		name  string
		index int
		valid bool
	}{
		{"lower_bound", 1, true},
		{"upper_bound", 5, true},
		{"mid", 3, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"above_scale", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidScaleIndex(tt.index), "Index: %d", tt.index)
		})
	}
}
