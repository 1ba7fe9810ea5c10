package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
)

var appLocation *time.Location

// init initializes timezone with UTC as default
func init() {
	appLocation = time.UTC
}

// InitTimezone sets the timezone used when rendering timestamps
func InitTimezone(timezone string) error {
	if timezone == "" {
		logger.Debug().Msg("No timezone configured, using UTC")
		appLocation = time.UTC
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", timezone).Msg("Failed to load timezone, using UTC")
		appLocation = time.UTC
		return err
	}

	appLocation = loc
	return nil
}

// GetLocation returns the current application location
func GetLocation() *time.Location {
	return appLocation
}

// FormatTimestamp renders an RFC3339 timestamp in the application timezone.
// Unparseable input is returned unchanged.
func FormatTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return t.In(appLocation).Format(time.RFC3339)
}

// UcFirst returns a copy of the input string with the first character uppercased.
func UcFirst(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// SplitList splits a comma separated list, trimming blanks and dropping empties
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
