package dashboard

import (
	"github.com/cti-console/cti-console/internal/threatapi"
)

// Risk tier boundaries for the summary counters. A score above HighRiskAbove
// is high, above MediumRiskAbove is medium, anything else is low.
const (
	HighRiskAbove   = 70
	MediumRiskAbove = 40
)

// Badge boundaries for the offenders table. These are inclusive (score >= 70
// is danger) while the tier boundaries above are exclusive, so a score of
// exactly 70 shows a danger badge yet counts as medium risk.
const (
	DangerBadgeFrom  = 70
	WarningBadgeFrom = 40
)

// Badge classes used by the offenders table.
const (
	BadgeDanger  = "bg-danger"
	BadgeWarning = "bg-warning"
	BadgeSuccess = "bg-success"
)

// RiskTiers counts high, medium and low entries among ips. Entries without a
// score count as zero, so the three counts always sum to len(ips).
func RiskTiers(ips []threatapi.IPSummary) (high, medium, low int) {
	for _, ip := range ips {
		score := scoreOf(ip)
		switch {
		case score > HighRiskAbove:
			high++
		case score > MediumRiskAbove:
			medium++
		default:
			low++
		}
	}
	return high, medium, low
}

// BadgeClass maps a threat score to its table badge class.
func BadgeClass(score float64) string {
	switch {
	case score >= DangerBadgeFrom:
		return BadgeDanger
	case score >= WarningBadgeFrom:
		return BadgeWarning
	default:
		return BadgeSuccess
	}
}

func scoreOf(ip threatapi.IPSummary) float64 {
	if ip.ThreatScore == nil {
		return 0
	}
	return *ip.ThreatScore
}
