package domain

import (
	"fmt"

	"github.com/oakmere/adviserdesk"
)

// Foreign-key columns for the two owner kinds.
const (
	OwnerSlotPrimary    = "product_owner_id"
	OwnerSlotAssociated = "special_relationship_id"
)

// OwnerSlot is the resolved storage location of an owner reference.
type OwnerSlot struct {
	Column   string
	PersonID string
}

// ResolveOwnerSlot maps an owner reference onto the single foreign-key
// column it populates. A reference with an unknown kind or empty id resolves
// to nothing, so no caller can ever populate both slots or neither.
func ResolveOwnerSlot(ref adviserdesk.OwnerRef) (OwnerSlot, error) {
	if ref.ID == "" {
		return OwnerSlot{}, ValidationError{Fields: []string{"owner.id"}}
	}
	switch ref.Kind {
	case adviserdesk.OwnerKindPrimary:
		return OwnerSlot{Column: OwnerSlotPrimary, PersonID: ref.ID}, nil
	case adviserdesk.OwnerKindAssociated:
		return OwnerSlot{Column: OwnerSlotAssociated, PersonID: ref.ID}, nil
	default:
		return OwnerSlot{}, ValidationError{Fields: []string{fmt.Sprintf("owner.kind: %s", ref.Kind)}}
	}
}
