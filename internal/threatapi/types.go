package threatapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Format identifies an export flavour offered by the threat API.
type Format string

// Supported export formats.
const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Valid reports whether the format is one the API understands.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatPDF
}

// Extension returns the file extension used for downloads.
func (f Format) Extension() string {
	return string(f)
}

// Label returns the upper-case name shown in notifications.
func (f Format) Label() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatPDF:
		return "PDF"
	default:
		return string(f)
	}
}

// IPSummary is one entry of the top offenders list.
type IPSummary struct {
	IP          *string  `json:"ip"`
	ThreatScore *float64 `json:"threat_score"`
	Confidence  *float64 `json:"confidence"`
	Country     *string  `json:"country"`
	Tags        []string `json:"tags"`
}

// TimePoint is one entry of the threats-over-time series.
type TimePoint struct {
	Date  string  `json:"date"`
	Count float64 `json:"count"`
}

// CategoryCount pairs a threat category with its count.
type CategoryCount struct {
	Category string
	Count    float64
}

// CategoryCounts keeps category_counts in the order the API sent them.
type CategoryCounts []CategoryCount

// UnmarshalJSON decodes a JSON object while retaining key order.
func (c *CategoryCounts) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("threatapi: category_counts must be an object")
	}
	counts := CategoryCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("threatapi: unexpected category key %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("threatapi: category %q: %w", key, err)
		}
		counts = append(counts, CategoryCount{Category: key, Count: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	*c = counts
	return nil
}

// DashboardStats mirrors the /api/dashboard/stats payload.
type DashboardStats struct {
	TotalThreats    *float64       `json:"total_threats"`
	TopMaliciousIPs []IPSummary    `json:"top_malicious_ips"`
	CategoryCounts  CategoryCounts `json:"category_counts"`
	ThreatsOverTime []TimePoint    `json:"threats_over_time"`
	Error           string         `json:"error"`
}

// Scalar holds any JSON scalar in its display form and remembers whether it was present.
type Scalar struct {
	text  string
	set   bool
	truth bool
}

// UnmarshalJSON accepts strings, numbers and booleans. null leaves the scalar unset.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	switch typed := v.(type) {
	case string:
		*s = Scalar{text: typed, set: true, truth: typed != ""}
	case float64:
		*s = Scalar{text: FormatNumber(typed), set: true, truth: typed != 0}
	case bool:
		*s = Scalar{text: strconv.FormatBool(typed), set: true, truth: typed}
	default:
		*s = Scalar{text: string(trimmed), set: true, truth: true}
	}
	return nil
}

// NewScalar builds a present string scalar.
func NewScalar(text string) Scalar {
	return Scalar{text: text, set: true, truth: text != ""}
}

// Present reports whether the field appeared in the payload.
func (s Scalar) Present() bool { return s.set }

// Truthy reports whether the value is non-empty, non-zero and not false.
func (s Scalar) Truthy() bool { return s.set && s.truth }

func (s Scalar) String() string { return s.text }

// VirusTotalReport is the reputation-style sub-report of a lookup.
type VirusTotalReport struct {
	Error          string   `json:"error"`
	DetectionCount *float64 `json:"detection_count"`
	TotalScans     *float64 `json:"total_scans"`
	Country        *string  `json:"country"`
	ASN            Scalar   `json:"asn"`
	Tags           []string `json:"tags"`
	Message        *string  `json:"message"`
}

// AbuseIPDBReport is the abuse-style sub-report of a lookup.
type AbuseIPDBReport struct {
	Error         string   `json:"error"`
	Confidence    *float64 `json:"confidence"`
	TotalReports  *float64 `json:"total_reports"`
	NumReports    *float64 `json:"num_reports"`
	Country       *string  `json:"country"`
	ISP           *string  `json:"isp"`
	UsageType     *string  `json:"usage_type"`
	IsWhitelisted *bool    `json:"is_whitelisted"`
	Tags          []string `json:"tags"`
	Message       *string  `json:"message"`
}

// LookupResult mirrors the /api/lookup payload.
type LookupResult struct {
	Query       string            `json:"query"`
	Type        string            `json:"type"`
	Status      string            `json:"status"`
	ThreatScore *float64          `json:"threat_score"`
	Confidence  *float64          `json:"confidence"`
	Country     *string           `json:"country"`
	Tags        []string          `json:"tags"`
	VirusTotal  *VirusTotalReport `json:"virustotal"`
	AbuseIPDB   *AbuseIPDBReport  `json:"abuseipdb"`
	Error       string            `json:"error"`
}

type tagResponse struct {
	Tags  []string `json:"tags"`
	Error string   `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type exportRequest struct {
	Limit *int `json:"limit"`
}

type lookupRequest struct {
	Query string `json:"query"`
}

type tagRequest struct {
	Query string `json:"query"`
	Tag   string `json:"tag"`
}

// FormatNumber renders a JSON number the way the dashboard displays it.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NumberOr formats an optional number, substituting fallback when absent.
func NumberOr(v *float64, fallback string) string {
	if v == nil || *v == 0 {
		return fallback
	}
	return FormatNumber(*v)
}

// StringOr returns the optional string or fallback when absent or empty.
func StringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
