package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
)

func newPersonFixture() (*PersonUsecase, *mockPersonRepo, *mockHealthRepo, *mockVulnRepo, *mockSignal) {
	persons := newMockPersonRepo()
	health := newMockHealthRepo()
	vuln := newMockVulnRepo()
	signal := &mockSignal{}
	uc := NewPersonUsecase(persons, health, vuln, signal)
	return uc, persons, health, vuln, signal
}

func TestCreatePersonDispatchesByKind(t *testing.T) {
	uc, persons, _, _, _ := newPersonFixture()

	owner, err := uc.CreatePerson(context.Background(), adviserdesk.OwnerKindPrimary, adviserdesk.CreatePersonRequest{
		Name:         "Alice",
		AccountGroup: "g1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner.Kind != adviserdesk.OwnerKindPrimary || owner.Status != "Active" {
		t.Fatalf("unexpected person: %+v", owner)
	}

	relation, err := uc.CreatePerson(context.Background(), adviserdesk.OwnerKindAssociated, adviserdesk.CreatePersonRequest{
		Name:         "Bob",
		Relationship: "Spouse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if relation.Kind != adviserdesk.OwnerKindAssociated {
		t.Fatalf("unexpected person: %+v", relation)
	}

	if len(persons.persons) != 2 {
		t.Fatalf("expected both variants stored, got %d", len(persons.persons))
	}
}

func TestCreatePersonValidation(t *testing.T) {
	uc, _, _, _, _ := newPersonFixture()

	_, err := uc.CreatePerson(context.Background(), adviserdesk.OwnerKindPrimary, adviserdesk.CreatePersonRequest{Name: "  "})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error got %v", err)
	}

	_, err = uc.CreatePerson(context.Background(), "household", adviserdesk.CreatePersonRequest{Name: "Carol"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown kind got %v", err)
	}
}

func TestDeletePersonFlushesGroupCaches(t *testing.T) {
	uc, persons, health, vuln, signal := newPersonFixture()
	persons.add(adviserdesk.Person{ID: "po1", Kind: adviserdesk.OwnerKindPrimary, Name: "Alice", AccountGroup: "g1"})
	persons.groups = []string{"g1", "g2"}

	err := uc.DeletePerson(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(health.invalidated) != 2 || len(vuln.invalidated) != 2 {
		t.Fatalf("expected both caches flushed per group, got %v and %v", health.invalidated, vuln.invalidated)
	}
	if len(signal.events) != 2 {
		t.Fatalf("expected one event per group, got %d", len(signal.events))
	}
	for _, ev := range signal.events {
		if ev.Type != adviserdesk.EventPersonDeleted {
			t.Fatalf("expected person.deleted events, got %+v", ev)
		}
	}
}

func TestDeletePersonMissing(t *testing.T) {
	uc, _, _, _, signal := newPersonFixture()

	err := uc.DeletePerson(context.Background(), adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: "ghost"})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error got %v", err)
	}
	if len(signal.events) != 0 {
		t.Fatalf("no event may be published for a failed delete")
	}
}

func TestLinkRequiresBothPersons(t *testing.T) {
	uc, persons, _, _, _ := newPersonFixture()
	persons.add(adviserdesk.Person{ID: "po1", Kind: adviserdesk.OwnerKindPrimary, Name: "Alice"})

	err := uc.Link(context.Background(), "po1", "ghost")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error got %v", err)
	}
	if len(persons.links) != 0 {
		t.Fatalf("no link may be recorded when a side is missing")
	}

	persons.add(adviserdesk.Person{ID: "sr1", Kind: adviserdesk.OwnerKindAssociated, Name: "Bob"})
	if err := uc.Link(context.Background(), "po1", "sr1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(persons.links) != 1 {
		t.Fatalf("expected one link, got %d", len(persons.links))
	}
}

func TestConditionSummary(t *testing.T) {
	uc, persons, health, vuln, _ := newPersonFixture()
	persons.add(adviserdesk.Person{ID: "po1", Kind: adviserdesk.OwnerKindPrimary, Name: "Alice"})

	health.listed = []adviserdesk.HealthFact{
		{ID: "h1", Status: adviserdesk.HealthStatusActive},
		{ID: "h2", Status: adviserdesk.HealthStatusMonitoring},
		{ID: "h3", Status: adviserdesk.HealthStatusResolved},
	}
	vuln.listed = []adviserdesk.VulnerabilityFact{
		{ID: "v1", Status: adviserdesk.VulnStatusActive},
		{ID: "v2", Status: adviserdesk.VulnStatusInactive},
	}

	summary, err := uc.ConditionSummary(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.PersonID != "po1" {
		t.Fatalf("unexpected person id %s", summary.PersonID)
	}
	if summary.Health.Active != 2 || summary.Health.Inactive != 1 {
		t.Fatalf("unexpected health tally %+v", summary.Health)
	}
	if summary.Vulnerability.Active != 1 || summary.Vulnerability.Inactive != 1 {
		t.Fatalf("unexpected vulnerability tally %+v", summary.Vulnerability)
	}
}

func TestConditionSummaryUnknownPerson(t *testing.T) {
	uc, _, _, _, _ := newPersonFixture()

	_, err := uc.ConditionSummary(context.Background(), adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: "ghost"})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error got %v", err)
	}
}
