package models

import (
	"time"

	"github.com/oakmere/adviserdesk"
)

type ProductOwner struct {
	ID             string    `json:"id" gorm:"primaryKey;type:text"`
	Name           string    `json:"name" gorm:"type:text;not null"`
	Relationship   string    `json:"relationship" gorm:"type:text"`
	Status         string    `json:"status" gorm:"type:text;not null;default:'Active'"`
	AccountGroupID string    `json:"accountGroupID" gorm:"type:text;index"`
	CDate          time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type SpecialRelationship struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	Relationship string    `json:"relationship" gorm:"type:text"`
	Status       string    `json:"status" gorm:"type:text;not null;default:'Active'"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// OwnerRelation links a special relationship to a product owner. Plain keys,
// no polymorphism: the two-slot owner shape is carried by fact tables only.
type OwnerRelation struct {
	ProductOwnerID        string              `json:"productOwnerID" gorm:"type:text;primaryKey"`
	ProductOwner          ProductOwner        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SpecialRelationshipID string              `json:"specialRelationshipID" gorm:"type:text;primaryKey"`
	SpecialRelationship   SpecialRelationship `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CDate                 time.Time           `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m ProductOwner) Wire() adviserdesk.Person {
	return adviserdesk.Person{
		ID:           m.ID,
		Kind:         adviserdesk.OwnerKindPrimary,
		Name:         m.Name,
		Relationship: m.Relationship,
		Status:       m.Status,
		AccountGroup: m.AccountGroupID,
		CDate:        m.CDate,
	}
}

func (m SpecialRelationship) Wire() adviserdesk.Person {
	return adviserdesk.Person{
		ID:           m.ID,
		Kind:         adviserdesk.OwnerKindAssociated,
		Name:         m.Name,
		Relationship: m.Relationship,
		Status:       m.Status,
		CDate:        m.CDate,
	}
}
