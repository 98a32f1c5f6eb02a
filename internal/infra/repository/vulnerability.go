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

type VulnerabilityRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewVulnerabilityRepository(db *gorm.DB, mc *memcache.Client) *VulnerabilityRepository {
	return &VulnerabilityRepository{db: db, mc: mc}
}

func (r *VulnerabilityRepository) Insert(ctx context.Context, fact adviserdesk.VulnerabilityFact) (adviserdesk.VulnerabilityFact, error) {
	slot, err := domain.ResolveOwnerSlot(fact.Owner)
	if err != nil {
		return adviserdesk.VulnerabilityFact{}, err
	}

	record := models.VulnerabilityFact{
		ID:          fact.ID,
		Description: fact.Description,
		Adjustments: fact.Adjustments,
		Diagnosed:   fact.Diagnosed,
		Status:      fact.Status,
		Notes:       fact.Notes,
	}
	switch slot.Column {
	case domain.OwnerSlotPrimary:
		record.ProductOwnerID = &slot.PersonID
	case domain.OwnerSlotAssociated:
		record.SpecialRelationshipID = &slot.PersonID
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return adviserdesk.VulnerabilityFact{}, translateError(err, "vulnerability fact")
	}
	return record.Wire(), nil
}

func (r *VulnerabilityRepository) Get(ctx context.Context, id string) (adviserdesk.VulnerabilityFact, error) {
	var record models.VulnerabilityFact
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		return adviserdesk.VulnerabilityFact{}, translateError(err, "vulnerability fact")
	}
	return record.Wire(), nil
}

func (r *VulnerabilityRepository) ListByOwner(ctx context.Context, ref adviserdesk.OwnerRef) ([]adviserdesk.VulnerabilityFact, error) {
	slot, err := domain.ResolveOwnerSlot(ref)
	if err != nil {
		return nil, err
	}

	var records []models.VulnerabilityFact
	err = r.db.WithContext(ctx).
		Where(slot.Column+" = ?", slot.PersonID).
		Order("c_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return wireVulnerabilityFacts(records), nil
}

func (r *VulnerabilityRepository) ListByGroup(ctx context.Context, group string, ownerIDs, relationIDs []string) ([]adviserdesk.VulnerabilityFact, error) {
	cacheKey := "vulnfacts:group:" + group
	if r.mc != nil {
		if item, err := r.mc.Get(cacheKey); err == nil {
			var cached []adviserdesk.VulnerabilityFact
			if err := json.Unmarshal(item.Value, &cached); err == nil {
				return cached, nil
			}
		}
	}

	if len(ownerIDs) == 0 && len(relationIDs) == 0 {
		return []adviserdesk.VulnerabilityFact{}, nil
	}

	var records []models.VulnerabilityFact
	err := r.db.WithContext(ctx).
		Where("product_owner_id IN ? OR special_relationship_id IN ?", ownerIDs, relationIDs).
		Order("c_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	facts := wireVulnerabilityFacts(records)

	if r.mc != nil {
		if encoded, err := json.Marshal(facts); err == nil {
			r.mc.Set(&memcache.Item{Key: cacheKey, Value: encoded, Expiration: groupCacheTTL})
		}
	}

	return facts, nil
}

func (r *VulnerabilityRepository) Update(ctx context.Context, id string, patch adviserdesk.VulnerabilityFactPatch) (adviserdesk.VulnerabilityFact, error) {
	updates := map[string]any{}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Adjustments != nil {
		updates["adjustments"] = *patch.Adjustments
	}
	if patch.Diagnosed != nil {
		updates["diagnosed"] = *patch.Diagnosed
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}

	var record models.VulnerabilityFact
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
		return adviserdesk.VulnerabilityFact{}, translateError(err, "vulnerability fact")
	}
	return record.Wire(), nil
}

func (r *VulnerabilityRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.VulnerabilityFact{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "vulnerability fact")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "vulnerability fact"}
	}
	return nil
}

func (r *VulnerabilityRepository) InvalidateGroup(ctx context.Context, group string) {
	if r.mc == nil {
		return
	}
	r.mc.Delete("vulnfacts:group:" + group)
}

func wireVulnerabilityFacts(records []models.VulnerabilityFact) []adviserdesk.VulnerabilityFact {
	facts := make([]adviserdesk.VulnerabilityFact, len(records))
	for i, record := range records {
		facts[i] = record.Wire()
	}
	return facts
}
