package adviserdesk

import (
	"time"
)

// Owner kinds. A fact belongs to exactly one person, which is either a
// product owner tracked directly or a special relationship linked to one
// or more product owners.
const (
	OwnerKindPrimary    = "primary"
	OwnerKindAssociated = "associated"
)

// Health condition statuses.
const (
	HealthStatusActive     = "Active"
	HealthStatusResolved   = "Resolved"
	HealthStatusMonitoring = "Monitoring"
	HealthStatusInactive   = "Inactive"
)

// Vulnerability statuses.
const (
	VulnStatusActive   = "Active"
	VulnStatusResolved = "Resolved"
	VulnStatusInactive = "Inactive"
)

// OwnerRef identifies the single person a fact belongs to.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Person is the wire shape shared by both person variants.
type Person struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship,omitempty"`
	Status       string    `json:"status"`
	AccountGroup string    `json:"accountGroup,omitempty"`
	CDate        time.Time `json:"cdate"`
}

type HealthFact struct {
	ID            string     `json:"id"`
	Owner         OwnerRef   `json:"owner"`
	Category      string     `json:"category"`
	ConditionName *string    `json:"conditionName,omitempty"`
	DiagnosisDate *time.Time `json:"diagnosisDate,omitempty"`
	Status        string     `json:"status"`
	Medication    *string    `json:"medication,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CDate         time.Time  `json:"cdate"`
}

type VulnerabilityFact struct {
	ID          string    `json:"id"`
	Owner       OwnerRef  `json:"owner"`
	Description string    `json:"description"`
	Adjustments *string   `json:"adjustments,omitempty"`
	Diagnosed   bool      `json:"diagnosed"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CDate       time.Time `json:"cdate"`
}

// HealthFactDraft is the client-supplied portion of a new health fact.
type HealthFactDraft struct {
	Category      string     `json:"category"`
	ConditionName *string    `json:"conditionName,omitempty"`
	DiagnosisDate *time.Time `json:"diagnosisDate,omitempty"`
	Status        string     `json:"status,omitempty"`
	Medication    *string    `json:"medication,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// HealthFactPatch carries a partial update. Nil fields are left untouched.
type HealthFactPatch struct {
	Category      *string    `json:"category,omitempty"`
	ConditionName *string    `json:"conditionName,omitempty"`
	DiagnosisDate *time.Time `json:"diagnosisDate,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Medication    *string    `json:"medication,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type VulnerabilityFactDraft struct {
	Description string  `json:"description"`
	Adjustments *string `json:"adjustments,omitempty"`
	Diagnosed   bool    `json:"diagnosed"`
	Status      string  `json:"status,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type VulnerabilityFactPatch struct {
	Description *string `json:"description,omitempty"`
	Adjustments *string `json:"adjustments,omitempty"`
	Diagnosed   *bool   `json:"diagnosed,omitempty"`
	Status      *string `json:"status,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type CreateHealthFactRequest struct {
	Owner OwnerRef `json:"owner"`
	HealthFactDraft
}

type CreateVulnerabilityFactRequest struct {
	Owner OwnerRef `json:"owner"`
	VulnerabilityFactDraft
}

type CreatePersonRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Status       string `json:"status,omitempty"`
	AccountGroup string `json:"accountGroup,omitempty"`
}

// StatusTally is the derived active/inactive breakdown for one fact kind.
// It is recomputed from the fact sequence on every read and never stored.
type StatusTally struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type ConditionSummary struct {
	PersonID      string      `json:"personId"`
	Health        StatusTally `json:"health"`
	Vulnerability StatusTally `json:"vulnerability"`
}

// Event types published on the change feed.
const (
	EventFactCreated   = "fact.created"
	EventFactUpdated   = "fact.updated"
	EventFactDeleted   = "fact.deleted"
	EventPersonDeleted = "person.deleted"
)

// Fact kinds carried in change events.
const (
	FactKindHealth        = "health"
	FactKindVulnerability = "vulnerability"
)

type Event struct {
	Type      string    `json:"type"`
	FactKind  string    `json:"factKind,omitempty"`
	FactID    string    `json:"factId,omitempty"`
	Owner     OwnerRef  `json:"owner"`
	Group     string    `json:"group,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
