package utils

import (
	"crypto/subtle"
)

// IsValidAPIKey reports whether apiKey is one of allowedKeys, comparing in constant time.
func IsValidAPIKey(apiKey string, allowedKeys []string) bool {
	if apiKey == "" {
		return false
	}

	valid := 0
	for _, key := range allowedKeys {
		valid |= subtle.ConstantTimeCompare([]byte(apiKey), []byte(key))
	}
	return valid == 1
}
