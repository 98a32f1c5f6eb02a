package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/infra/database/models"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) CreateProductOwner(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error) {
	owner := models.ProductOwner{
		ID:             person.ID,
		Name:           person.Name,
		Relationship:   person.Relationship,
		Status:         person.Status,
		AccountGroupID: person.AccountGroup,
	}
	err := r.db.WithContext(ctx).Create(&owner).Error
	if err != nil {
		return adviserdesk.Person{}, translateError(err, "product owner")
	}
	return owner.Wire(), nil
}

func (r *PersonRepository) GetProductOwner(ctx context.Context, id string) (adviserdesk.Person, error) {
	var owner models.ProductOwner
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&owner).Error
	if err != nil {
		return adviserdesk.Person{}, translateError(err, "product owner")
	}
	return owner.Wire(), nil
}

func (r *PersonRepository) ListProductOwners(ctx context.Context, group string) ([]adviserdesk.Person, error) {
	query := r.db.WithContext(ctx).Order("c_date asc")
	if group != "" {
		query = query.Where("account_group_id = ?", group)
	}

	var owners []models.ProductOwner
	if err := query.Find(&owners).Error; err != nil {
		return nil, err
	}

	persons := make([]adviserdesk.Person, len(owners))
	for i, o := range owners {
		persons[i] = o.Wire()
	}
	return persons, nil
}

// DeleteProductOwner removes the owner row. Dependent facts and relation
// links go with it through the cascade foreign keys.
func (r *PersonRepository) DeleteProductOwner(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductOwner{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "product owner"}
	}
	return nil
}

func (r *PersonRepository) CreateRelation(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error) {
	relation := models.SpecialRelationship{
		ID:           person.ID,
		Name:         person.Name,
		Relationship: person.Relationship,
		Status:       person.Status,
	}
	err := r.db.WithContext(ctx).Create(&relation).Error
	if err != nil {
		return adviserdesk.Person{}, translateError(err, "special relationship")
	}
	return relation.Wire(), nil
}

func (r *PersonRepository) GetRelation(ctx context.Context, id string) (adviserdesk.Person, error) {
	var relation models.SpecialRelationship
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&relation).Error
	if err != nil {
		return adviserdesk.Person{}, translateError(err, "special relationship")
	}
	return relation.Wire(), nil
}

func (r *PersonRepository) DeleteRelation(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.SpecialRelationship{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "special relationship"}
	}
	return nil
}

// Link attaches a special relationship to a product owner.
func (r *PersonRepository) Link(ctx context.Context, ownerID, relationID string) error {
	link := models.OwnerRelation{
		ProductOwnerID:        ownerID,
		SpecialRelationshipID: relationID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.NotFoundError{Resource: "person"}
		}
		return err
	}
	return nil
}

// Exists reports whether the referenced person is present, whichever
// variant the reference names.
func (r *PersonRepository) Exists(ctx context.Context, ref adviserdesk.OwnerRef) (bool, error) {
	var count int64
	var err error
	switch ref.Kind {
	case adviserdesk.OwnerKindPrimary:
		err = r.db.WithContext(ctx).Model(&models.ProductOwner{}).
			Where("id = ?", ref.ID).Count(&count).Error
	case adviserdesk.OwnerKindAssociated:
		err = r.db.WithContext(ctx).Model(&models.SpecialRelationship{}).
			Where("id = ?", ref.ID).Count(&count).Error
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GroupMembers resolves the account-group fan-out: every product owner in
// the group plus every special relationship linked to one of them.
func (r *PersonRepository) GroupMembers(ctx context.Context, group string) ([]string, []string, error) {
	var ownerIDs []string
	err := r.db.WithContext(ctx).Model(&models.ProductOwner{}).
		Where("account_group_id = ?", group).
		Pluck("id", &ownerIDs).Error
	if err != nil {
		return nil, nil, err
	}

	var relationIDs []string
	if len(ownerIDs) > 0 {
		err = r.db.WithContext(ctx).Model(&models.OwnerRelation{}).
			Distinct("special_relationship_id").
			Where("product_owner_id IN ?", ownerIDs).
			Pluck("special_relationship_id", &relationIDs).Error
		if err != nil {
			return nil, nil, err
		}
	}

	return ownerIDs, relationIDs, nil
}

// GroupsOf lists the account groups a person's facts fan out into. A product
// owner belongs to at most one group; a special relationship inherits the
// groups of every owner it is linked to.
func (r *PersonRepository) GroupsOf(ctx context.Context, ref adviserdesk.OwnerRef) ([]string, error) {
	switch ref.Kind {
	case adviserdesk.OwnerKindPrimary:
		var owner models.ProductOwner
		err := r.db.WithContext(ctx).
			Where("id = ?", ref.ID).
			Take(&owner).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if owner.AccountGroupID == "" {
			return nil, nil
		}
		return []string{owner.AccountGroupID}, nil
	case adviserdesk.OwnerKindAssociated:
		var groups []string
		err := r.db.WithContext(ctx).Model(&models.OwnerRelation{}).
			Distinct("product_owners.account_group_id").
			Joins("JOIN product_owners ON product_owners.id = owner_relations.product_owner_id").
			Where("owner_relations.special_relationship_id = ? AND product_owners.account_group_id <> ''", ref.ID).
			Pluck("product_owners.account_group_id", &groups).Error
		if err != nil {
			return nil, err
		}
		return groups, nil
	default:
		return nil, nil
	}
}
