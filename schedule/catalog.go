/*
catalog.go - Collaborator entities: projects, workers, teams

PURPOSE:
  The resource catalog is owned by the surrounding application; the
  scheduling core only reads it. These are the minimal records and
  repository interfaces the engine consumes, plus ResolvedResource, the
  rate calculator's view of whatever a booking references.

SEE ALSO:
  - rate.go: Consumes ResolvedResource for pricing
  - store/sqlite: Repository implementations
*/
package schedule

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG RECORDS
// =============================================================================

// Project is the external entity allocations are booked against.
type Project struct {
	ID   string
	Name string
	Area decimal.Decimal // used by per_area pricing; zero when unset
}

// Worker carries the standard rates used by the rate calculator.
// A zero rate means "unset" and contributes nothing to the price.
type Worker struct {
	ID        string
	Name      string
	DailyRate decimal.Decimal
	AreaRate  decimal.Decimal
	FlatRate  decimal.Decimal
}

// Team is a named list of workers. Team pricing sums the per-worker
// contribution across every member.
type Team struct {
	ID        string
	Name      string
	MemberIDs []string
}

// =============================================================================
// REPOSITORIES - Read side consumed by the engine, write side for the API
// =============================================================================

type ProjectRepo interface {
	GetProject(ctx context.Context, id string) (*Project, error)
	SaveProject(ctx context.Context, p Project) error
	ListProjects(ctx context.Context) ([]Project, error)
}

type WorkerRepo interface {
	GetWorker(ctx context.Context, id string) (*Worker, error)
	SaveWorker(ctx context.Context, w Worker) error
	ListWorkers(ctx context.Context) ([]Worker, error)
}

type TeamRepo interface {
	GetTeam(ctx context.Context, id string) (*Team, error)
	SaveTeam(ctx context.Context, t Team) error
	ListTeams(ctx context.Context) ([]Team, error)
}

// =============================================================================
// RESOLVED RESOURCE - Catalog view of a booking's resource
// =============================================================================

// ResolvedResource is what the rate calculator prices: the workers behind
// a booking (one for a worker, the members for a team, none for external
// services) plus a display name for view labels.
type ResolvedResource struct {
	Kind    ResourceKind
	Name    string   // worker name, team name, or external label
	Workers []Worker // empty for external services
}

// Label returns the ranking identity, e.g. "worker:Jane", "team:Framing",
// "external:Crane Co".
func (r ResolvedResource) Label() string {
	return string(r.Kind) + ":" + r.Name
}
