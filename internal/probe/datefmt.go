package probe

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Labels registries and registrars use for the expiry line, most specific
// first. "Expiry Date:" would also match inside "Registry Expiry Date:", so
// the order matters.
var expiryLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Registry Expiry Date:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Registrar Registration Expiration Date:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Expiry Date:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Expiration Date:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Expires:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Expiration Time:[ \t]*(.+)$`),
	regexp.MustCompile(`(?im)Expire Date:[ \t]*(.+)$`),
}

const (
	layoutISOSeconds  = "2006-01-02T15:04:05Z"
	layoutISOFraction = "2006-01-02T15:04:05.000Z"
	layoutSpaced      = "2006-01-02 15:04:05"
	layoutDate        = "2006-01-02"
	layoutDayMonName  = "02-Jan-2006"
	layoutDayMonth    = "02/01/2006"
	layoutMonthDay    = "01/02/2006"
	layoutSlashed     = "2006/01/02"
)

// Tried in order; the first layout that parses wins.
var expiryLayouts = []string{
	layoutISOSeconds,
	layoutISOFraction,
	layoutSpaced,
	layoutDate,
	layoutDayMonName,
	layoutDayMonth,
	layoutMonthDay,
	layoutSlashed,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006.01.02",
	"02-Jan-2006 15:04:05",
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	zoneName      = regexp.MustCompile(`\s*(UTC|GMT).*$`)
	zoneOffset    = regexp.MustCompile(`\s*\+\d{4}.*$`)
	zoneColon     = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}(?:\.\d+)?)\s*[+-]\d{2}:\d{2}$`)
)

var (
	errNoExpiryLabel  = errors.New("no expiration field in WHOIS data")
	errNoExpiryLayout = errors.New("unrecognised expiration date format")
)

// cleanDate collapses whitespace and drops trailing zone designators so the
// remaining wall-clock text can be matched against expiryLayouts.
func cleanDate(raw string) string {
	s := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	s = zoneName.ReplaceAllString(s, "")
	s = zoneOffset.ReplaceAllString(s, "")
	s = zoneColon.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// parseExpiryDate returns the parsed instant (UTC) and the layout that
// matched it.
func parseExpiryDate(raw string) (time.Time, string, error) {
	s := cleanDate(raw)
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), layout, nil
		}
	}
	return time.Time{}, "", errNoExpiryLayout
}

// extractExpiry scans a WHOIS response label by label. A label whose value
// does not parse does not stop the scan; a later, less specific label may
// still carry a usable date.
func extractExpiry(whois string) (time.Time, error) {
	matched := false
	for _, re := range expiryLabels {
		m := re.FindStringSubmatch(whois)
		if m == nil {
			continue
		}
		matched = true
		if t, _, err := parseExpiryDate(m[1]); err == nil {
			return t, nil
		}
	}
	if !matched {
		return time.Time{}, errNoExpiryLabel
	}
	return time.Time{}, errNoExpiryLayout
}
