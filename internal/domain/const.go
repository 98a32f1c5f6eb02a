package domain

import (
	"github.com/oakmere/adviserdesk"
)

const (
	RequesterIdCtxKey = "ad-requesterId"
)

const (
	RequesterIdHeader = "x-adviser-id"
)

// MaxDescriptionLength bounds vulnerability descriptions.
const MaxDescriptionLength = 500

// ValidHealthStatuses is the closed status domain for health facts.
var ValidHealthStatuses = map[string]bool{
	adviserdesk.HealthStatusActive:     true,
	adviserdesk.HealthStatusResolved:   true,
	adviserdesk.HealthStatusMonitoring: true,
	adviserdesk.HealthStatusInactive:   true,
}

// ValidVulnerabilityStatuses is the closed status domain for vulnerability
// facts.
var ValidVulnerabilityStatuses = map[string]bool{
	adviserdesk.VulnStatusActive:   true,
	adviserdesk.VulnStatusResolved: true,
	adviserdesk.VulnStatusInactive: true,
}
