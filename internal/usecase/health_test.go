package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
)

// --- mocks ---

type mockHealthRepo struct {
	facts       map[string]adviserdesk.HealthFact
	listed      []adviserdesk.HealthFact
	inserted    []adviserdesk.HealthFact
	deleted     []string
	invalidated []string
}

func newMockHealthRepo() *mockHealthRepo {
	return &mockHealthRepo{facts: map[string]adviserdesk.HealthFact{}}
}

func (m *mockHealthRepo) Insert(ctx context.Context, fact adviserdesk.HealthFact) (adviserdesk.HealthFact, error) {
	m.inserted = append(m.inserted, fact)
	m.facts[fact.ID] = fact
	return fact, nil
}

func (m *mockHealthRepo) Get(ctx context.Context, id string) (adviserdesk.HealthFact, error) {
	fact, ok := m.facts[id]
	if !ok {
		return adviserdesk.HealthFact{}, domain.NotFoundError{Resource: "health fact"}
	}
	return fact, nil
}

func (m *mockHealthRepo) ListByOwner(ctx context.Context, ref adviserdesk.OwnerRef) ([]adviserdesk.HealthFact, error) {
	return m.listed, nil
}

func (m *mockHealthRepo) ListByGroup(ctx context.Context, group string, ownerIDs, relationIDs []string) ([]adviserdesk.HealthFact, error) {
	return m.listed, nil
}

func (m *mockHealthRepo) Update(ctx context.Context, id string, patch adviserdesk.HealthFactPatch) (adviserdesk.HealthFact, error) {
	fact, ok := m.facts[id]
	if !ok {
		return adviserdesk.HealthFact{}, domain.NotFoundError{Resource: "health fact"}
	}
	if patch.Status != nil {
		fact.Status = *patch.Status
	}
	if patch.Category != nil {
		fact.Category = *patch.Category
	}
	m.facts[id] = fact
	return fact, nil
}

func (m *mockHealthRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.facts[id]; !ok {
		return domain.NotFoundError{Resource: "health fact"}
	}
	delete(m.facts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockHealthRepo) InvalidateGroup(ctx context.Context, group string) {
	m.invalidated = append(m.invalidated, group)
}

type mockPersonRepo struct {
	persons map[string]adviserdesk.Person
	groups  []string
	links   [][2]string
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: map[string]adviserdesk.Person{}, groups: []string{"g1"}}
}

func (m *mockPersonRepo) add(p adviserdesk.Person) {
	m.persons[p.Kind+":"+p.ID] = p
}

func (m *mockPersonRepo) CreateProductOwner(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error) {
	m.add(person)
	return person, nil
}

func (m *mockPersonRepo) GetProductOwner(ctx context.Context, id string) (adviserdesk.Person, error) {
	p, ok := m.persons[adviserdesk.OwnerKindPrimary+":"+id]
	if !ok {
		return adviserdesk.Person{}, domain.NotFoundError{Resource: "product owner"}
	}
	return p, nil
}

func (m *mockPersonRepo) ListProductOwners(ctx context.Context, group string) ([]adviserdesk.Person, error) {
	var out []adviserdesk.Person
	for _, p := range m.persons {
		if p.Kind == adviserdesk.OwnerKindPrimary {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) DeleteProductOwner(ctx context.Context, id string) error {
	key := adviserdesk.OwnerKindPrimary + ":" + id
	if _, ok := m.persons[key]; !ok {
		return domain.NotFoundError{Resource: "product owner"}
	}
	delete(m.persons, key)
	return nil
}

func (m *mockPersonRepo) CreateRelation(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error) {
	m.add(person)
	return person, nil
}

func (m *mockPersonRepo) GetRelation(ctx context.Context, id string) (adviserdesk.Person, error) {
	p, ok := m.persons[adviserdesk.OwnerKindAssociated+":"+id]
	if !ok {
		return adviserdesk.Person{}, domain.NotFoundError{Resource: "special relationship"}
	}
	return p, nil
}

func (m *mockPersonRepo) DeleteRelation(ctx context.Context, id string) error {
	key := adviserdesk.OwnerKindAssociated + ":" + id
	if _, ok := m.persons[key]; !ok {
		return domain.NotFoundError{Resource: "special relationship"}
	}
	delete(m.persons, key)
	return nil
}

func (m *mockPersonRepo) Link(ctx context.Context, ownerID, relationID string) error {
	m.links = append(m.links, [2]string{ownerID, relationID})
	return nil
}

func (m *mockPersonRepo) Exists(ctx context.Context, ref adviserdesk.OwnerRef) (bool, error) {
	_, ok := m.persons[ref.Kind+":"+ref.ID]
	return ok, nil
}

func (m *mockPersonRepo) GroupMembers(ctx context.Context, group string) ([]string, []string, error) {
	return []string{"po1"}, []string{"sr1"}, nil
}

func (m *mockPersonRepo) GroupsOf(ctx context.Context, ref adviserdesk.OwnerRef) ([]string, error) {
	return m.groups, nil
}

type mockSignal struct {
	channels []string
	events   []adviserdesk.Event
}

func (m *mockSignal) Publish(ctx context.Context, channel string, event adviserdesk.Event) error {
	m.channels = append(m.channels, channel)
	m.events = append(m.events, event)
	return nil
}

// --- tests ---

var testOwner = adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: "po1"}

func newHealthFixture() (*HealthUsecase, *mockHealthRepo, *mockPersonRepo, *mockSignal) {
	repo := newMockHealthRepo()
	persons := newMockPersonRepo()
	persons.add(adviserdesk.Person{ID: "po1", Kind: adviserdesk.OwnerKindPrimary, Name: "Alice", AccountGroup: "g1"})
	signal := &mockSignal{}
	uc := NewHealthUsecase(repo, persons, signal, adviserdesk.FlaggedSet(adviserdesk.DefaultFlaggedCategories))
	return uc, repo, persons, signal
}

func TestHealthCreateDefaultsStatus(t *testing.T) {
	uc, repo, _, signal := newHealthFixture()

	created, err := uc.Create(context.Background(), testOwner, adviserdesk.HealthFactDraft{
		Category: "Diabetes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != adviserdesk.HealthStatusActive {
		t.Fatalf("expected default status Active got %s", created.Status)
	}
	if created.ID == "" || adviserdesk.IsLocalID(created.ID) {
		t.Fatalf("expected server-assigned id, got %q", created.ID)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert got %d", len(repo.inserted))
	}
	if len(signal.events) != 1 || signal.events[0].Type != adviserdesk.EventFactCreated {
		t.Fatalf("expected fact.created event, got %+v", signal.events)
	}
	if signal.channels[0] != "facts:g1" {
		t.Fatalf("expected group channel, got %s", signal.channels[0])
	}
	if len(repo.invalidated) != 1 || repo.invalidated[0] != "g1" {
		t.Fatalf("expected group cache invalidation, got %v", repo.invalidated)
	}
}

func TestHealthCreateValidation(t *testing.T) {
	uc, repo, _, _ := newHealthFixture()

	_, err := uc.Create(context.Background(), adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary}, adviserdesk.HealthFactDraft{
		Category: "  ",
		Status:   "Cured",
	})

	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error got %v", err)
	}
	want := map[string]bool{"owner.id": true, "category": true, "status": true}
	for _, f := range verr.Fields {
		if !want[f] {
			t.Fatalf("unexpected field %q in %v", f, verr.Fields)
		}
		delete(want, f)
	}
	if len(want) != 0 {
		t.Fatalf("missing fields %v", want)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("nothing may be inserted on validation failure")
	}
}

func TestHealthCreateOwnerNotFound(t *testing.T) {
	uc, repo, _, signal := newHealthFixture()

	missing := adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: "ghost"}
	_, err := uc.Create(context.Background(), missing, adviserdesk.HealthFactDraft{Category: "Asthma"})

	var onf domain.OwnerNotFoundError
	if !errors.As(err, &onf) {
		t.Fatalf("expected owner-not-found error got %v", err)
	}
	if onf.Kind != adviserdesk.OwnerKindAssociated || onf.ID != "ghost" {
		t.Fatalf("unexpected error detail: %+v", onf)
	}
	if len(repo.inserted) != 0 || len(signal.events) != 0 {
		t.Fatalf("a rejected create must leave no trace")
	}
}

func TestHealthListFlaggedFirst(t *testing.T) {
	uc, repo, _, _ := newHealthFixture()
	repo.listed = []adviserdesk.HealthFact{
		{ID: "a", Category: "Diabetes"},
		{ID: "b", Category: "Smoking"},
		{ID: "c", Category: "Asthma"},
	}

	facts, err := uc.List(context.Background(), domain.FactFilter{Owner: &testOwner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts[0].ID != "b" || facts[1].ID != "a" || facts[2].ID != "c" {
		t.Fatalf("expected flagged-first order, got %v", facts)
	}
}

func TestHealthListFilterValidation(t *testing.T) {
	uc, _, _, _ := newHealthFixture()

	if _, err := uc.List(context.Background(), domain.FactFilter{}); err == nil {
		t.Fatalf("expected error for empty filter")
	}
	if _, err := uc.List(context.Background(), domain.FactFilter{Owner: &testOwner, Group: "g1"}); err == nil {
		t.Fatalf("expected error for ambiguous filter")
	}
}

func TestHealthUpdateValidation(t *testing.T) {
	uc, _, _, _ := newHealthFixture()

	empty := ""
	_, err := uc.Update(context.Background(), "f1", adviserdesk.HealthFactPatch{Category: &empty})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestHealthDeletePublishes(t *testing.T) {
	uc, repo, _, signal := newHealthFixture()
	repo.facts["f1"] = adviserdesk.HealthFact{ID: "f1", Owner: testOwner, Category: "Asthma"}

	if err := uc.Delete(context.Background(), "f1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "f1" {
		t.Fatalf("expected delete of f1, got %v", repo.deleted)
	}
	if len(signal.events) != 1 || signal.events[0].Type != adviserdesk.EventFactDeleted {
		t.Fatalf("expected fact.deleted event, got %+v", signal.events)
	}
	if signal.events[0].FactID != "f1" {
		t.Fatalf("event must carry the deleted fact id")
	}
}

func TestHealthDeleteMissing(t *testing.T) {
	uc, _, _, signal := newHealthFixture()

	err := uc.Delete(context.Background(), "nope")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error got %v", err)
	}
	if len(signal.events) != 0 {
		t.Fatalf("no event may be published for a failed delete")
	}
}
