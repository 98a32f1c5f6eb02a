package usecase

import (
	"context"

	"github.com/oakmere/adviserdesk"
)

// HealthRepository defines storage operations for health facts.
type HealthRepository interface {
	Insert(ctx context.Context, fact adviserdesk.HealthFact) (adviserdesk.HealthFact, error)
	Get(ctx context.Context, id string) (adviserdesk.HealthFact, error)
	ListByOwner(ctx context.Context, ref adviserdesk.OwnerRef) ([]adviserdesk.HealthFact, error)
	ListByGroup(ctx context.Context, group string, ownerIDs, relationIDs []string) ([]adviserdesk.HealthFact, error)
	Update(ctx context.Context, id string, patch adviserdesk.HealthFactPatch) (adviserdesk.HealthFact, error)
	Delete(ctx context.Context, id string) error
	InvalidateGroup(ctx context.Context, group string)
}

// VulnerabilityRepository defines storage operations for vulnerability facts.
type VulnerabilityRepository interface {
	Insert(ctx context.Context, fact adviserdesk.VulnerabilityFact) (adviserdesk.VulnerabilityFact, error)
	Get(ctx context.Context, id string) (adviserdesk.VulnerabilityFact, error)
	ListByOwner(ctx context.Context, ref adviserdesk.OwnerRef) ([]adviserdesk.VulnerabilityFact, error)
	ListByGroup(ctx context.Context, group string, ownerIDs, relationIDs []string) ([]adviserdesk.VulnerabilityFact, error)
	Update(ctx context.Context, id string, patch adviserdesk.VulnerabilityFactPatch) (adviserdesk.VulnerabilityFact, error)
	Delete(ctx context.Context, id string) error
	InvalidateGroup(ctx context.Context, group string)
}

// PersonRepository defines persistence/lookup for both person variants.
type PersonRepository interface {
	CreateProductOwner(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error)
	GetProductOwner(ctx context.Context, id string) (adviserdesk.Person, error)
	ListProductOwners(ctx context.Context, group string) ([]adviserdesk.Person, error)
	DeleteProductOwner(ctx context.Context, id string) error
	CreateRelation(ctx context.Context, person adviserdesk.Person) (adviserdesk.Person, error)
	GetRelation(ctx context.Context, id string) (adviserdesk.Person, error)
	DeleteRelation(ctx context.Context, id string) error
	Link(ctx context.Context, ownerID, relationID string) error
	Exists(ctx context.Context, ref adviserdesk.OwnerRef) (bool, error)
	GroupMembers(ctx context.Context, group string) ([]string, []string, error)
	GroupsOf(ctx context.Context, ref adviserdesk.OwnerRef) ([]string, error)
}

// SignalPublisher pushes change events onto the realtime feed.
type SignalPublisher interface {
	Publish(ctx context.Context, channel string, event adviserdesk.Event) error
}
