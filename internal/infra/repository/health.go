package repository

import (
	"context"
	"encoding/json"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/infra/database/models"
)

const groupCacheTTL = 30 // seconds

type HealthRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewHealthRepository(db *gorm.DB, mc *memcache.Client) *HealthRepository {
	return &HealthRepository{db: db, mc: mc}
}

func (r *HealthRepository) Insert(ctx context.Context, fact adviserdesk.HealthFact) (adviserdesk.HealthFact, error) {
	slot, err := domain.ResolveOwnerSlot(fact.Owner)
	if err != nil {
		return adviserdesk.HealthFact{}, err
	}

	record := models.HealthFact{
		ID:            fact.ID,
		Category:      fact.Category,
		ConditionName: fact.ConditionName,
		DiagnosisDate: fact.DiagnosisDate,
		Status:        fact.Status,
		Medication:    fact.Medication,
		Notes:         fact.Notes,
	}
	switch slot.Column {
	case domain.OwnerSlotPrimary:
		record.ProductOwnerID = &slot.PersonID
	case domain.OwnerSlotAssociated:
		record.SpecialRelationshipID = &slot.PersonID
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return adviserdesk.HealthFact{}, translateError(err, "health fact")
	}
	return record.Wire(), nil
}

func (r *HealthRepository) Get(ctx context.Context, id string) (adviserdesk.HealthFact, error) {
	var record models.HealthFact
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		return adviserdesk.HealthFact{}, translateError(err, "health fact")
	}
	return record.Wire(), nil
}

func (r *HealthRepository) ListByOwner(ctx context.Context, ref adviserdesk.OwnerRef) ([]adviserdesk.HealthFact, error) {
	slot, err := domain.ResolveOwnerSlot(ref)
	if err != nil {
		return nil, err
	}

	var records []models.HealthFact
	err = r.db.WithContext(ctx).
		Where(slot.Column+" = ?", slot.PersonID).
		Order("c_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return wireHealthFacts(records), nil
}

// ListByGroup fans out over every person in an account group. Results are
// held in memcached briefly; every mutation that touches the group flushes
// the entry.
func (r *HealthRepository) ListByGroup(ctx context.Context, group string, ownerIDs, relationIDs []string) ([]adviserdesk.HealthFact, error) {
	cacheKey := "healthfacts:group:" + group
	if r.mc != nil {
		if item, err := r.mc.Get(cacheKey); err == nil {
			var cached []adviserdesk.HealthFact
			if err := json.Unmarshal(item.Value, &cached); err == nil {
				return cached, nil
			}
		}
	}

	if len(ownerIDs) == 0 && len(relationIDs) == 0 {
		return []adviserdesk.HealthFact{}, nil
	}

	var records []models.HealthFact
	err := r.db.WithContext(ctx).
		Where("product_owner_id IN ? OR special_relationship_id IN ?", ownerIDs, relationIDs).
		Order("c_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	facts := wireHealthFacts(records)

	if r.mc != nil {
		if encoded, err := json.Marshal(facts); err == nil {
			r.mc.Set(&memcache.Item{Key: cacheKey, Value: encoded, Expiration: groupCacheTTL})
		}
	}

	return facts, nil
}

func (r *HealthRepository) Update(ctx context.Context, id string, patch adviserdesk.HealthFactPatch) (adviserdesk.HealthFact, error) {
	updates := map[string]any{}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.ConditionName != nil {
		updates["condition_name"] = *patch.ConditionName
	}
	if patch.DiagnosisDate != nil {
		updates["diagnosis_date"] = *patch.DiagnosisDate
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Medication != nil {
		updates["medication"] = *patch.Medication
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	var record models.HealthFact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&record).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&record).Error
	})
	if err != nil {
		return adviserdesk.HealthFact{}, translateError(err, "health fact")
	}
	return record.Wire(), nil
}

func (r *HealthRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.HealthFact{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "health fact")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "health fact"}
	}
	return nil
}

func (r *HealthRepository) InvalidateGroup(ctx context.Context, group string) {
	if r.mc == nil {
		return
	}
	r.mc.Delete("healthfacts:group:" + group)
}

func wireHealthFacts(records []models.HealthFact) []adviserdesk.HealthFact {
	facts := make([]adviserdesk.HealthFact, len(records))
	for i, record := range records {
		facts[i] = record.Wire()
	}
	return facts
}
