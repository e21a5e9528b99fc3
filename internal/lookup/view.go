package lookup

import (
	"github.com/cti-console/cti-console/internal/threatapi"
)

// Default warnings for a sub-report that is missing or failed.
const (
	VirusTotalUnavailable = "VirusTotal API key not configured or no data available"
	AbuseIPDBUnavailable  = "AbuseIPDB API key not configured or no data available"
	NoDataAvailable       = "No data available"
)

// Banner is the status alert at the top of the results.
type Banner struct {
	Class string
	// Label is a bold prefix such as "Error:". Empty for verdict banners.
	Label string
	Text  string
}

// Field is one label/value cell of a sub-report grid.
type Field struct {
	Label string
	Value string
}

// Section is a rendered sub-report. When Warning is set nothing else is shown.
// Empty means the section shows the muted "No data available" line.
type Section struct {
	Empty   bool
	Warning string
	Fields  []Field
	Tags    []string
	Message string
}

// View is everything the results area displays.
type View struct {
	Visible     bool
	Banner      Banner
	ThreatScore string
	Confidence  string
	Country     string
	Tags        []string
	VirusTotal  Section
	AbuseIPDB   Section
}

func resultView(result threatapi.LookupResult) View {
	return View{
		Visible:     true,
		Banner:      verdictBanner(result.Status),
		ThreatScore: threatapi.NumberOr(result.ThreatScore, "0"),
		Confidence:  threatapi.NumberOr(result.Confidence, "0"),
		Country:     threatapi.StringOr(result.Country, "Unknown"),
		Tags:        cloneTags(result.Tags),
		VirusTotal:  virusTotalSection(result.VirusTotal),
		AbuseIPDB:   abuseIPDBSection(result.AbuseIPDB),
	}
}

func errorView(message string) View {
	return View{
		Visible:     true,
		Banner:      Banner{Class: "alert-danger", Label: "Error:", Text: message},
		ThreatScore: "N/A",
		Confidence:  "N/A",
		Country:     "Unknown",
		VirusTotal:  Section{Empty: true},
		AbuseIPDB:   Section{Empty: true},
	}
}

func verdictBanner(status string) Banner {
	switch status {
	case "malicious":
		return Banner{Class: "alert-danger", Text: "MALICIOUS"}
	case "suspicious":
		return Banner{Class: "alert-warning", Text: "SUSPICIOUS"}
	default:
		return Banner{Class: "alert-success", Text: "CLEAN"}
	}
}

func virusTotalSection(report *threatapi.VirusTotalReport) Section {
	if report == nil {
		return warningSection("", VirusTotalUnavailable)
	}
	if report.Error != "" {
		return warningSection(report.Error, VirusTotalUnavailable)
	}
	var fields []Field
	if report.DetectionCount != nil {
		fields = append(fields, Field{Label: "Detections", Value: threatapi.FormatNumber(*report.DetectionCount)})
	}
	if report.TotalScans != nil {
		fields = append(fields, Field{Label: "Total Scans", Value: threatapi.FormatNumber(*report.TotalScans)})
	}
	if report.Country != nil && *report.Country != "" {
		fields = append(fields, Field{Label: "Country", Value: *report.Country})
	}
	if report.ASN.Truthy() {
		fields = append(fields, Field{Label: "ASN", Value: report.ASN.String()})
	}
	return Section{
		Fields:  fields,
		Tags:    cloneTags(report.Tags),
		Message: threatapi.StringOr(report.Message, ""),
	}
}

func abuseIPDBSection(report *threatapi.AbuseIPDBReport) Section {
	if report == nil {
		return warningSection("", AbuseIPDBUnavailable)
	}
	if report.Error != "" {
		return warningSection(report.Error, AbuseIPDBUnavailable)
	}
	var fields []Field
	if report.Confidence != nil {
		fields = append(fields, Field{Label: "Abuse Confidence", Value: threatapi.FormatNumber(*report.Confidence) + "%"})
	}
	if report.TotalReports != nil && *report.TotalReports > 0 {
		fields = append(fields, Field{Label: "Total Reports", Value: threatapi.FormatNumber(*report.TotalReports)})
	}
	if report.NumReports != nil {
		fields = append(fields, Field{Label: "Recent Reports (90 days)", Value: threatapi.FormatNumber(*report.NumReports)})
	}
	if report.Country != nil && *report.Country != "" {
		fields = append(fields, Field{Label: "Country", Value: *report.Country})
	}
	if report.ISP != nil && *report.ISP != "" {
		fields = append(fields, Field{Label: "ISP", Value: *report.ISP})
	}
	if report.UsageType != nil && *report.UsageType != "" {
		fields = append(fields, Field{Label: "Usage Type", Value: *report.UsageType})
	}
	if report.IsWhitelisted != nil {
		value := "No"
		if *report.IsWhitelisted {
			value = "Yes"
		}
		fields = append(fields, Field{Label: "Whitelisted", Value: value})
	}
	return Section{
		Fields:  fields,
		Tags:    cloneTags(report.Tags),
		Message: threatapi.StringOr(report.Message, ""),
	}
}

func warningSection(errText, fallback string) Section {
	if errText == "" {
		errText = fallback
	}
	return Section{Warning: errText}
}

func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
