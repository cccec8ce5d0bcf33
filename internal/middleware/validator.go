package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Input validation and sanitization utilities

// ValidateSecret checks the cloud provider key format before it enters the pool.
func ValidateSecret(secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}
	if !strings.HasPrefix(secret, "gsk_") {
		return fmt.Errorf("invalid secret format (expected gsk_ prefix)")
	}
	if len(secret) < 14 {
		return fmt.Errorf("secret too short")
	}
	return nil
}

// ValidateLabel bounds the human label attached to a credential.
func ValidateLabel(label string) error {
	if len(label) > 128 {
		return fmt.Errorf("label too long (max 128 chars)")
	}
	return nil
}

// ValidateProvider checks an optional provider override.
func ValidateProvider(provider string) error {
	switch provider {
	case "", "groq", "ollama":
		return nil
	}
	return fmt.Errorf("invalid provider: %s (allowed: groq, ollama)", provider)
}

// ValidateDate checks an optional action date.
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format (expected YYYY-MM-DD)")
	}
	return nil
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, tenant)
	if !matched {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
