// Package secrets keeps credentials out of logs.
package secrets

import (
	"net/url"
	"regexp"
)

const replacement = "[REDACTED]"

// keyValuePassword matches password=... in libpq keyword/value DSNs.
var keyValuePassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// RedactDSN masks the password of a connection string. URL DSNs keep
// their user, host and database; keyword/value DSNs keep everything but
// the password value. Strings without a password come back unchanged.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), replacement)
			// url.String escapes the brackets; the marker must stay readable.
			return unescapeMarker(u.String())
		}
		return dsn
	}
	return keyValuePassword.ReplaceAllString(dsn, "${1}"+replacement)
}

var escapedMarker = regexp.MustCompile(`%5BREDACTED%5D`)

func unescapeMarker(s string) string {
	return escapedMarker.ReplaceAllString(s, replacement)
}
