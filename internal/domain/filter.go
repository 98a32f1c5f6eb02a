package domain

import (
	"github.com/oakmere/adviserdesk"
)

// FactFilter selects facts either by their owning person or by account
// group fan-out. Exactly one of the two must be set.
type FactFilter struct {
	Owner *adviserdesk.OwnerRef
	Group string
}

func (f FactFilter) Validate() error {
	hasOwner := f.Owner != nil
	hasGroup := f.Group != ""
	if hasOwner == hasGroup {
		return ValidationError{Fields: []string{"filter"}}
	}
	return nil
}
