package domain

import "time"

// Kind names one family of probes. Each kind owns its own target list,
// result cache and metric set.
type Kind string

const (
	KindDomain Kind = "domain"
	KindSSL    Kind = "ssl"
	KindPort   Kind = "port"
	KindHTTP   Kind = "http"
)

// Kinds lists every probe kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindDomain, KindSSL, KindPort, KindHTTP}
}

func (k Kind) Valid() bool {
	switch k {
	case KindDomain, KindSSL, KindPort, KindHTTP:
		return true
	}
	return false
}

// DaysUnknown marks an expiry that could not be determined. Dashboards alert
// on this literal value, so it must never be produced by a real date.
const DaysUnknown int64 = -999

// Result is the part every probe result has in common.
type Result interface {
	Key() string
	State() Status
	Failure() string
	CheckedAt() time.Time
}

// DomainResult is the outcome of one WHOIS expiry lookup.
type DomainResult struct {
	Domain              string     `json:"domain"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`
	DaysUntilExpiration int64      `json:"days_until_expiration"`
	Expired             bool       `json:"expired"`
	Warning             bool       `json:"warning"`
	Status              Status     `json:"status"`
	Error               string     `json:"error,omitempty"`
	LastChecked         time.Time  `json:"last_checked"`
}

func (r DomainResult) Key() string          { return r.Domain }
func (r DomainResult) State() Status        { return r.Status }
func (r DomainResult) Failure() string      { return r.Error }
func (r DomainResult) CheckedAt() time.Time { return r.LastChecked }

// CertResult is the outcome of one TLS certificate lookup.
type CertResult struct {
	Domain              string     `json:"domain"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`
	DaysUntilExpiration int64      `json:"days_until_expiration"`
	Expired             bool       `json:"expired"`
	Warning             bool       `json:"warning"`
	Issuer              string     `json:"issuer,omitempty"`
	Subject             string     `json:"subject,omitempty"`
	Status              Status     `json:"status"`
	Error               string     `json:"error,omitempty"`
	LastChecked         time.Time  `json:"last_checked"`
}

func (r CertResult) Key() string          { return r.Domain }
func (r CertResult) State() Status        { return r.Status }
func (r CertResult) Failure() string      { return r.Error }
func (r CertResult) CheckedAt() time.Time { return r.LastChecked }

// PortResult is the outcome of one TCP connect attempt against host:port.
type PortResult struct {
	Target         string    `json:"target"`
	Host           string    `json:"host"`
	Port           int       `json:"port"`
	Open           bool      `json:"open"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	Status         Status    `json:"status"`
	Error          string    `json:"error,omitempty"`
	LastChecked    time.Time `json:"last_checked"`
}

func (r PortResult) Key() string          { return r.Target }
func (r PortResult) State() Status        { return r.Status }
func (r PortResult) Failure() string      { return r.Error }
func (r PortResult) CheckedAt() time.Time { return r.LastChecked }

// HTTPResult is the outcome of one GET against a URL.
type HTTPResult struct {
	URL             string            `json:"url"`
	URLHash         string            `json:"url_hash"`
	Available       bool              `json:"available"`
	StatusCode      int               `json:"status_code,omitempty"`
	StatusMessage   string            `json:"status_message,omitempty"`
	ResponseTimeMS  int64             `json:"response_time_ms"`
	ContentLength   int64             `json:"content_length"`
	ContentType     string            `json:"content_type,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	RedirectURL     string            `json:"redirect_url,omitempty"`
	Status          Status            `json:"status"`
	Error           string            `json:"error,omitempty"`
	LastChecked     time.Time         `json:"last_checked"`
}

func (r HTTPResult) Key() string          { return r.URL }
func (r HTTPResult) State() Status        { return r.Status }
func (r HTTPResult) Failure() string      { return r.Error }
func (r HTTPResult) CheckedAt() time.Time { return r.LastChecked }
