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

type PersonUsecase struct {
	persons PersonRepository
	health  HealthRepository
	vuln    VulnerabilityRepository
	signal  SignalPublisher
}

func NewPersonUsecase(persons PersonRepository, health HealthRepository, vuln VulnerabilityRepository, signal SignalPublisher) *PersonUsecase {
	return &PersonUsecase{
		persons: persons,
		health:  health,
		vuln:    vuln,
		signal:  signal,
	}
}

func (uc *PersonUsecase) CreatePerson(ctx context.Context, kind string, req adviserdesk.CreatePersonRequest) (adviserdesk.Person, error) {
	ctx, span := tracer.Start(ctx, "Person.Usecase.CreatePerson")
	defer span.End()

	if strings.TrimSpace(req.Name) == "" {
		err := domain.ValidationError{Fields: []string{"name"}}
		span.RecordError(err)
		return adviserdesk.Person{}, err
	}
	if req.Status == "" {
		req.Status = "Active"
	}

	person := adviserdesk.Person{
		ID:           uuid.New().String(),
		Kind:         kind,
		Name:         req.Name,
		Relationship: req.Relationship,
		Status:       req.Status,
		AccountGroup: req.AccountGroup,
	}

	switch kind {
	case adviserdesk.OwnerKindPrimary:
		return uc.persons.CreateProductOwner(ctx, person)
	case adviserdesk.OwnerKindAssociated:
		return uc.persons.CreateRelation(ctx, person)
	default:
		err := domain.ValidationError{Fields: []string{"kind"}}
		span.RecordError(err)
		return adviserdesk.Person{}, err
	}
}

func (uc *PersonUsecase) GetPerson(ctx context.Context, ref adviserdesk.OwnerRef) (adviserdesk.Person, error) {
	switch ref.Kind {
	case adviserdesk.OwnerKindPrimary:
		return uc.persons.GetProductOwner(ctx, ref.ID)
	case adviserdesk.OwnerKindAssociated:
		return uc.persons.GetRelation(ctx, ref.ID)
	default:
		return adviserdesk.Person{}, domain.ValidationError{Fields: []string{"kind"}}
	}
}

func (uc *PersonUsecase) ListProductOwners(ctx context.Context, group string) ([]adviserdesk.Person, error) {
	return uc.persons.ListProductOwners(ctx, group)
}

// DeletePerson removes the person row; the cascade constraints take every
// dependent fact with it. The groups are resolved before the delete so the
// caches they cover can still be flushed afterwards.
func (uc *PersonUsecase) DeletePerson(ctx context.Context, ref adviserdesk.OwnerRef) error {
	ctx, span := tracer.Start(ctx, "Person.Usecase.DeletePerson")
	defer span.End()

	groups, err := uc.persons.GroupsOf(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return err
	}

	switch ref.Kind {
	case adviserdesk.OwnerKindPrimary:
		err = uc.persons.DeleteProductOwner(ctx, ref.ID)
	case adviserdesk.OwnerKindAssociated:
		err = uc.persons.DeleteRelation(ctx, ref.ID)
	default:
		err = domain.ValidationError{Fields: []string{"kind"}}
	}
	if err != nil {
		span.RecordError(errors.Wrap(err, "person delete failed"))
		return err
	}

	event := adviserdesk.Event{
		Type:      adviserdesk.EventPersonDeleted,
		Owner:     ref,
		Timestamp: time.Now().UTC(),
	}
	for _, group := range groups {
		uc.health.InvalidateGroup(ctx, group)
		uc.vuln.InvalidateGroup(ctx, group)
		if uc.signal != nil {
			event.Group = group
			if err := uc.signal.Publish(ctx, GroupChannel(group), event); err != nil {
				span.RecordError(errors.Wrap(err, "person delete publish failed"))
			}
		}
	}

	return nil
}

func (uc *PersonUsecase) Link(ctx context.Context, ownerID, relationID string) error {
	ctx, span := tracer.Start(ctx, "Person.Usecase.Link")
	defer span.End()

	if _, err := uc.persons.GetProductOwner(ctx, ownerID); err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := uc.persons.GetRelation(ctx, relationID); err != nil {
		span.RecordError(err)
		return err
	}
	return uc.persons.Link(ctx, ownerID, relationID)
}

// ConditionSummary derives the active/inactive counts for one person from
// the facts they currently own.
func (uc *PersonUsecase) ConditionSummary(ctx context.Context, ref adviserdesk.OwnerRef) (adviserdesk.ConditionSummary, error) {
	ctx, span := tracer.Start(ctx, "Person.Usecase.ConditionSummary")
	defer span.End()

	if _, err := uc.GetPerson(ctx, ref); err != nil {
		span.RecordError(err)
		return adviserdesk.ConditionSummary{}, err
	}

	healthFacts, err := uc.health.ListByOwner(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return adviserdesk.ConditionSummary{}, err
	}
	vulnFacts, err := uc.vuln.ListByOwner(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return adviserdesk.ConditionSummary{}, err
	}

	return adviserdesk.ConditionSummary{
		PersonID:      ref.ID,
		Health:        adviserdesk.TallyStatuses(adviserdesk.HealthStatuses(healthFacts), adviserdesk.HealthActiveStatuses),
		Vulnerability: adviserdesk.TallyStatuses(adviserdesk.VulnerabilityStatuses(vulnFacts), adviserdesk.VulnerabilityActiveStatuses),
	}, nil
}
