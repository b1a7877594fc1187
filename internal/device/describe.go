// Package device turns raw User-Agent strings into short human-readable
// descriptors for session audit displays.
package device

import (
	"strings"

	"github.com/mileusna/useragent"
)

// UnknownDevice is returned when no User-Agent was presented at all.
const UnknownDevice = "Unknown Device"

// Describe normalizes a User-Agent header into "<Browser> <version> / <OS> <version>".
// Unparseable parts fall back to "Unknown Browser" / "Unknown OS"; when the
// parser extracts nothing at all, the raw input is returned as-is. Never panics.
func Describe(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return UnknownDevice
	}

	ua := useragent.Parse(userAgent)
	if ua.Name == "" && ua.OS == "" {
		return userAgent
	}

	browser := ua.Name
	if browser == "" {
		browser = "Unknown Browser"
	} else if ua.Version != "" {
		browser += " " + ua.Version
	}

	os := ua.OS
	if os == "" {
		os = "Unknown OS"
	} else if ua.OSVersion != "" {
		os += " " + ua.OSVersion
	}

	return browser + " / " + os
}
