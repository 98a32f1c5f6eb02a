package models

import (
	"time"

	"github.com/oakmere/adviserdesk"
)

// HealthFact carries the exactly-one-owner shape: two nullable owner columns
// guarded by a table check so that a malformed row is rejected by the
// database itself, regardless of which writer produced it.
type HealthFact struct {
	ID                    string               `json:"id" gorm:"primaryKey;type:text"`
	ProductOwnerID        *string              `json:"productOwnerID" gorm:"type:text;index;check:chk_health_facts_owner,(product_owner_id IS NULL) <> (special_relationship_id IS NULL)"`
	ProductOwner          *ProductOwner        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SpecialRelationshipID *string              `json:"specialRelationshipID" gorm:"type:text;index"`
	SpecialRelationship   *SpecialRelationship `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Category              string               `json:"category" gorm:"type:text;not null"`
	ConditionName         *string              `json:"conditionName" gorm:"type:text"`
	DiagnosisDate         *time.Time           `json:"diagnosisDate" gorm:"type:timestamp with time zone"`
	Status                string               `json:"status" gorm:"type:text;not null;default:'Active';check:chk_health_facts_status,status IN ('Active','Resolved','Monitoring','Inactive')"`
	Medication            *string              `json:"medication" gorm:"type:text"`
	Notes                 *string              `json:"notes" gorm:"type:text"`
	CDate                 time.Time            `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type VulnerabilityFact struct {
	ID                    string               `json:"id" gorm:"primaryKey;type:text"`
	ProductOwnerID        *string              `json:"productOwnerID" gorm:"type:text;index;check:chk_vulnerability_facts_owner,(product_owner_id IS NULL) <> (special_relationship_id IS NULL)"`
	ProductOwner          *ProductOwner        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SpecialRelationshipID *string              `json:"specialRelationshipID" gorm:"type:text;index"`
	SpecialRelationship   *SpecialRelationship `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Description           string               `json:"description" gorm:"type:text;not null"`
	Adjustments           *string              `json:"adjustments" gorm:"type:text"`
	Diagnosed             bool                 `json:"diagnosed" gorm:"type:boolean;not null;default:false"`
	Status                string               `json:"status" gorm:"type:text;not null;default:'Active';check:chk_vulnerability_facts_status,status IN ('Active','Resolved','Inactive')"`
	Notes                 *string              `json:"notes" gorm:"type:text"`
	CDate                 time.Time            `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func ownerRefOf(productOwnerID, specialRelationshipID *string) adviserdesk.OwnerRef {
	if productOwnerID != nil {
		return adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: *productOwnerID}
	}
	if specialRelationshipID != nil {
		return adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: *specialRelationshipID}
	}
	return adviserdesk.OwnerRef{}
}

func (m HealthFact) Wire() adviserdesk.HealthFact {
	return adviserdesk.HealthFact{
		ID:            m.ID,
		Owner:         ownerRefOf(m.ProductOwnerID, m.SpecialRelationshipID),
		Category:      m.Category,
		ConditionName: m.ConditionName,
		DiagnosisDate: m.DiagnosisDate,
		Status:        m.Status,
		Medication:    m.Medication,
		Notes:         m.Notes,
		CDate:         m.CDate,
	}
}

func (m VulnerabilityFact) Wire() adviserdesk.VulnerabilityFact {
	return adviserdesk.VulnerabilityFact{
		ID:          m.ID,
		Owner:       ownerRefOf(m.ProductOwnerID, m.SpecialRelationshipID),
		Description: m.Description,
		Adjustments: m.Adjustments,
		Diagnosed:   m.Diagnosed,
		Status:      m.Status,
		Notes:       m.Notes,
		CDate:       m.CDate,
	}
}
