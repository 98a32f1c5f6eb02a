package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
)

var tracer = otel.Tracer("usecase")

type HealthUsecase struct {
	repo    HealthRepository
	persons PersonRepository
	signal  SignalPublisher
	flagged map[string]bool
}

func NewHealthUsecase(repo HealthRepository, persons PersonRepository, signal SignalPublisher, flagged map[string]bool) *HealthUsecase {
	return &HealthUsecase{
		repo:    repo,
		persons: persons,
		signal:  signal,
		flagged: flagged,
	}
}

// List returns the facts selected by the filter in presentation order:
// flagged categories first, creation order within each partition. An unknown
// owner or group yields an empty sequence, not an error.
func (uc *HealthUsecase) List(ctx context.Context, filter domain.FactFilter) ([]adviserdesk.HealthFact, error) {
	ctx, span := tracer.Start(ctx, "Health.Usecase.List")
	defer span.End()

	if err := filter.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var facts []adviserdesk.HealthFact
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
		span.RecordError(errors.Wrap(err, "health fact list failed"))
		return nil, err
	}

	return adviserdesk.PartitionFlaggedFirst(facts, uc.flagged), nil
}

func (uc *HealthUsecase) Create(ctx context.Context, owner adviserdesk.OwnerRef, draft adviserdesk.HealthFactDraft) (adviserdesk.HealthFact, error) {
	ctx, span := tracer.Start(ctx, "Health.Usecase.Create")
	defer span.End()

	if draft.Status == "" {
		draft.Status = adviserdesk.HealthStatusActive
	}

	var fields []string
	if _, err := domain.ResolveOwnerSlot(owner); err != nil {
		var verr domain.ValidationError
		if errors.As(err, &verr) {
			fields = append(fields, verr.Fields...)
		} else {
			return adviserdesk.HealthFact{}, err
		}
	}
	if strings.TrimSpace(draft.Category) == "" {
		fields = append(fields, "category")
	}
	if !domain.ValidHealthStatuses[draft.Status] {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		err := domain.ValidationError{Fields: fields}
		span.RecordError(err)
		return adviserdesk.HealthFact{}, err
	}

	exists, err := uc.persons.Exists(ctx, owner)
	if err != nil {
		span.RecordError(errors.Wrap(err, "owner lookup failed"))
		return adviserdesk.HealthFact{}, err
	}
	if !exists {
		err := domain.OwnerNotFoundError{Kind: owner.Kind, ID: owner.ID}
		span.RecordError(err)
		return adviserdesk.HealthFact{}, err
	}

	fact := adviserdesk.HealthFact{
		ID:            uuid.New().String(),
		Owner:         owner,
		Category:      draft.Category,
		ConditionName: draft.ConditionName,
		DiagnosisDate: draft.DiagnosisDate,
		Status:        draft.Status,
		Medication:    draft.Medication,
		Notes:         draft.Notes,
		CDate:         time.Now().UTC(),
	}

	created, err := uc.repo.Insert(ctx, fact)
	if err != nil {
		span.RecordError(errors.Wrap(err, "health fact insert failed"))
		return adviserdesk.HealthFact{}, err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactCreated,
		FactKind: adviserdesk.FactKindHealth,
		FactID:   created.ID,
		Owner:    created.Owner,
	})

	return created, nil
}

func (uc *HealthUsecase) Update(ctx context.Context, id string, patch adviserdesk.HealthFactPatch) (adviserdesk.HealthFact, error) {
	ctx, span := tracer.Start(ctx, "Health.Usecase.Update")
	defer span.End()

	var fields []string
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		fields = append(fields, "category")
	}
	if patch.Status != nil && !domain.ValidHealthStatuses[*patch.Status] {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		err := domain.ValidationError{Fields: fields}
		span.RecordError(err)
		return adviserdesk.HealthFact{}, err
	}

	updated, err := uc.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(errors.Wrap(err, "health fact update failed"))
		return adviserdesk.HealthFact{}, err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactUpdated,
		FactKind: adviserdesk.FactKindHealth,
		FactID:   updated.ID,
		Owner:    updated.Owner,
	})

	return updated, nil
}

func (uc *HealthUsecase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Health.Usecase.Delete")
	defer span.End()

	fact, err := uc.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		span.RecordError(errors.Wrap(err, "health fact delete failed"))
		return err
	}

	settle(ctx, uc.persons, uc.signal, uc.repo.InvalidateGroup, adviserdesk.Event{
		Type:     adviserdesk.EventFactDeleted,
		FactKind: adviserdesk.FactKindHealth,
		FactID:   fact.ID,
		Owner:    fact.Owner,
	})

	return nil
}
