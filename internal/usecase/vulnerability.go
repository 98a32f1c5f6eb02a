package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
)

type VulnerabilityUsecase struct {
	repo    VulnerabilityRepository
	persons PersonRepository
	signal  SignalPublisher
}

func NewVulnerabilityUsecase(repo VulnerabilityRepository, persons PersonRepository, signal SignalPublisher) *VulnerabilityUsecase {
	return &VulnerabilityUsecase{
		repo:    repo,
		persons: persons,
		signal:  signal,
	}
}

func (uc *VulnerabilityUsecase) List(ctx context.Context, filter domain.FactFilter) ([]adviserdesk.VulnerabilityFact, error) {
	ctx, span := tracer.Start(ctx, "Vulnerability.Usecase.List")
	defer span.End()

	if err := filter.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var facts []adviserdesk.VulnerabilityFact
	var err error
	if filter.Owner != nil {
		facts, err = uc.repo.ListByOwner(ctx, *filter.Owner)
	} else {
		var ownerIDs, relationIDs []string
		ownerIDs, relationIDs, err = uc.persons.GroupMembers(ctx, filter.Group)
		if err == nil {
			facts, err = uc.repo.ListByGroup(ctx, filter.Group, ownerIDs, relationIDs)
		}
	}
	if err != nil {
		span.RecordError(errors.Wrap(err, "vulnerability fact list failed"))
		return nil, err
	}

	return facts, nil
}

func (uc *VulnerabilityUsecase) Create(ctx context.Context, owner adviserdesk.OwnerRef, draft adviserdesk.VulnerabilityFactDraft) (adviserdesk.VulnerabilityFact, error) {
	ctx, span := tracer.Start(ctx, "Vulnerability.Usecase.Create")
	defer span.End()

	if draft.Status == "" {
		draft.Status = adviserdesk.VulnStatusActive
	}

	var fields []string
	if _, err := domain.ResolveOwnerSlot(owner); err != nil {
		var verr domain.ValidationError
		if errors.As(err, &verr) {
			fields = append(fields, verr.Fields...)
		} else {
			return adviserdesk.VulnerabilityFact{}, err
		}
	}
	description := strings.TrimSpace(draft.Description)
	if description == "" || len(description) > domain.MaxDescriptionLength {
		fields = append(fields, "description")
	}
	if !domain.ValidVulnerabilityStatuses[draft.Status] {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		err := domain.ValidationError{Fields: fields}
		span.RecordError(err)
		return adviserdesk.VulnerabilityFact{}, err
	}

	exists, err := uc.persons.Exists(ctx, owner)
	if err != nil {
		span.RecordError(errors.Wrap(err, "owner lookup failed"))
		return adviserdesk.VulnerabilityFact{}, err
	}
	if !exists {
		err := domain.OwnerNotFoundError{Kind: owner.Kind, ID: owner.ID}
		span.RecordError(err)
		return adviserdesk.VulnerabilityFact{}, err
	}

	fact := adviserdesk.VulnerabilityFact{
		ID:          uuid.New().String(),
		Owner:       owner,
		Description: draft.Description,
		Adjustments: draft.Adjustments,
		Diagnosed:   draft.Diagnosed,
		Status:      draft.Status,
		Notes:       draft.Notes,
		CDate:       time.Now().UTC(),
	}

	created, err := uc.repo.Insert(ctx, fact)
	if err != nil {
		span.RecordError(errors.Wrap(err, "vulnerability fact insert failed"))
		return adviserdesk.VulnerabilityFact{}, err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactCreated,
		FactKind: adviserdesk.FactKindVulnerability,
		FactID:   created.ID,
		Owner:    created.Owner,
	})

	return created, nil
}

func (uc *VulnerabilityUsecase) Update(ctx context.Context, id string, patch adviserdesk.VulnerabilityFactPatch) (adviserdesk.VulnerabilityFact, error) {
	ctx, span := tracer.Start(ctx, "Vulnerability.Usecase.Update")
	defer span.End()

	var fields []string
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" || len(description) > domain.MaxDescriptionLength {
			fields = append(fields, "description")
		}
	}
	if patch.Status != nil && !domain.ValidVulnerabilityStatuses[*patch.Status] {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		err := domain.ValidationError{Fields: fields}
		span.RecordError(err)
		return adviserdesk.VulnerabilityFact{}, err
	}

	updated, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(errors.Wrap(err, "vulnerability fact update failed"))
		return adviserdesk.VulnerabilityFact{}, err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactUpdated,
		FactKind: adviserdesk.FactKindVulnerability,
		FactID:   updated.ID,
		Owner:    updated.Owner,
	})

	return updated, nil
}

func (uc *VulnerabilityUsecase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Vulnerability.Usecase.Delete")
	defer span.End()

	fact, err := uc.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		span.RecordError(errors.Wrap(err, "vulnerability fact delete failed"))
		return err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactDeleted,
		FactKind: adviserdesk.FactKindVulnerability,
		FactID:   fact.ID,
		Owner:    fact.Owner,
	})

	return nil
}
