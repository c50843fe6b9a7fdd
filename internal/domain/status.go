package domain

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Status string

// Expiry states (domain registrations and certificates).
const (
	StatusValid               Status = "VALID"
	StatusWarning             Status = "WARNING"
	StatusExpired             Status = "EXPIRED"
	StatusParseError          Status = "PARSE_ERROR"
	StatusWhoisNotFound       Status = "WHOIS_NOT_FOUND"
	StatusCertificateNotFound Status = "CERTIFICATE_NOT_FOUND"
)

// Reachability states (ports and HTTP endpoints).
const (
	StatusOpen          Status = "OPEN"
	StatusClosed        Status = "CLOSED"
	StatusInvalidFormat Status = "INVALID_FORMAT"
	StatusAvailable     Status = "AVAILABLE"
	StatusUnavailable   Status = "UNAVAILABLE"
)

const StatusError Status = "ERROR"

// Healthy reports whether the status needs no operator attention.
func (s Status) Healthy() bool {
	switch s {
	case StatusValid, StatusOpen, StatusAvailable:
		return true
	}
	return false
}

// Undetermined reports whether the probe produced no usable signal at all,
// as opposed to a negative but meaningful answer like CLOSED or EXPIRED.
func (s Status) Undetermined() bool {
	switch s {
	case StatusParseError, StatusWhoisNotFound, StatusCertificateNotFound, StatusInvalidFormat, StatusError:
		return true
	}
	return false
}

// URLHash is the path-safe identity of an HTTP target.
func URLHash(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url))
}

// NewDomainError builds the ERROR result for a domain probe that failed
// outside of its own error handling.
func NewDomainError(name string, err error) DomainResult {
	return DomainResult{
		Domain:              name,
		DaysUntilExpiration: DaysUnknown,
		Status:              StatusError,
		Error:               err.Error(),
		LastChecked:         time.Now().UTC(),
	}
}

func NewCertError(name string, err error) CertResult {
	return CertResult{
		Domain:              name,
		DaysUntilExpiration: DaysUnknown,
		Status:              StatusError,
		Error:               err.Error(),
		LastChecked:         time.Now().UTC(),
	}
}

func NewPortError(target string, err error) PortResult {
	return PortResult{
		Target:      target,
		Host:        target,
		Port:        -1,
		Status:      StatusError,
		Error:       err.Error(),
		LastChecked: time.Now().UTC(),
	}
}

func NewHTTPError(url string, err error) HTTPResult {
	return HTTPResult{
		URL:         url,
		URLHash:     URLHash(url),
		Status:      StatusError,
		Error:       err.Error(),
		LastChecked: time.Now().UTC(),
	}
}
