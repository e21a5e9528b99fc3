package dashboard

import (
	"github.com/cti-console/cti-console/internal/threatapi"
)

// TableColumns is the fixed cell count of an offenders row.
const TableColumns = 5

// EmptyTableMessage fills the single row shown when there is nothing to list.
const EmptyTableMessage = "No threats found. Use the Lookup page to check IPs or domains."

// Row is one rendered line of the top offenders table. Every field is
// populated, falling back to a placeholder when the payload omitted it.
type Row struct {
	IP         string   `json:"ip"`
	Score      string   `json:"threat_score"`
	ScoreClass string   `json:"score_class"`
	Confidence string   `json:"confidence"`
	Country    string   `json:"country"`
	Tags       []string `json:"tags"`
}

// BuildRows converts IP summaries into table rows, one per summary.
func BuildRows(ips []threatapi.IPSummary) []Row {
	rows := make([]Row, 0, len(ips))
	for _, ip := range ips {
		score := scoreOf(ip)
		var tags []string
		if len(ip.Tags) > 0 {
			tags = append(tags, ip.Tags...)
		}
		rows = append(rows, Row{
			IP:         threatapi.StringOr(ip.IP, "N/A"),
			Score:      threatapi.FormatNumber(score),
			ScoreClass: BadgeClass(score),
			Confidence: threatapi.NumberOr(ip.Confidence, "0"),
			Country:    threatapi.StringOr(ip.Country, "Unknown"),
			Tags:       tags,
		})
	}
	return rows
}
