/*
Package schedule provides the core labor allocation engine.

PURPOSE:
  This package contains the domain types and algorithms for booking labor
  resources (individual workers, whole teams, or external services) onto
  construction projects over inclusive date ranges. It covers pricing,
  conflict detection, transfer orchestration, and the derived views the
  application renders (priority lists, weekly calendars, usage rankings).

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: A booking of one resource to one project over a date span
  - Resource: Tagged union of worker / team / external service
  - PaymentMode: How the allocation is priced (daily, per_area, flat_rate)
  - Status: active or cancelled (cancellation is the deletion mechanism)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all monetary values
  2. Type Safety: Resource is a sum type - exactly one reference populated,
     enforced by construction rather than runtime checks
  3. Purity: Pricing, ordering, and bucketing are pure functions over
     already-fetched rows, independent of any storage backend

SEE ALSO:
  - date.go: Calendar date and inclusive span algebra
  - rate.go: Amount calculation per payment mode
  - conflict.go: Overlap detection for worker bookings
  - scheduler.go: Transactional create/update/transfer orchestration
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AllocationID string

// =============================================================================
// PAYMENT MODE & STATUS
// =============================================================================

type PaymentMode string

const (
	PayDaily    PaymentMode = "daily"     // rate * inclusive day count
	PayPerArea  PaymentMode = "per_area"  // rate * project area, independent of days
	PayFlatRate PaymentMode = "flat_rate" // fixed amount, independent of days
)

// ValidPaymentMode reports whether m is one of the known payment modes.
func ValidPaymentMode(m PaymentMode) bool {
	switch m {
	case PayDaily, PayPerArea, PayFlatRate:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled" // terminal; no transition back to active
)

// =============================================================================
// RESOURCE - Tagged union of worker / team / external service
// =============================================================================

type ResourceKind string

const (
	KindWorker   ResourceKind = "worker"
	KindTeam     ResourceKind = "team"
	KindExternal ResourceKind = "external"
)

// Resource identifies what an allocation books. Exactly one reference is
// populated; the unexported fields make the zero value "no resource" and
// force construction through WorkerResource/TeamResource/ExternalResource.
type Resource struct {
	kind ResourceKind
	ref  string
}

// WorkerResource books a single worker. Worker bookings are exclusive:
// no two active allocations for the same worker may overlap.
func WorkerResource(workerID string) Resource {
	return Resource{kind: KindWorker, ref: workerID}
}

// TeamResource books a whole team. Teams are exempt from the exclusivity rule.
func TeamResource(teamID string) Resource {
	return Resource{kind: KindTeam, ref: teamID}
}

// ExternalResource books an outside service by label. External allocations
// are never auto-priced and are exempt from the exclusivity rule.
func ExternalResource(label string) Resource {
	return Resource{kind: KindExternal, ref: label}
}

// RestoreResource rebuilds a Resource from its stored kind and reference.
// Intended for store implementations only.
func RestoreResource(kind ResourceKind, ref string) Resource {
	return Resource{kind: kind, ref: ref}
}

func (r Resource) Kind() ResourceKind { return r.kind }
func (r Resource) Ref() string        { return r.ref }
func (r Resource) IsZero() bool       { return r.kind == "" }

// WorkerID returns the worker reference, if this is a worker booking.
func (r Resource) WorkerID() (string, bool) {
	if r.kind == KindWorker {
		return r.ref, true
	}
	return "", false
}

// TeamID returns the team reference, if this is a team booking.
func (r Resource) TeamID() (string, bool) {
	if r.kind == KindTeam {
		return r.ref, true
	}
	return "", false
}

// ExternalLabel returns the service label, if this is an external booking.
func (r Resource) ExternalLabel() (string, bool) {
	if r.kind == KindExternal {
		return r.ref, true
	}
	return "", false
}

func (r Resource) String() string {
	if r.IsZero() {
		return "none"
	}
	return string(r.kind) + ":" + r.ref
}

// =============================================================================
// ALLOCATION - The central entity
// =============================================================================

// Allocation books one resource onto one project over an inclusive date span.
//
// INVARIANTS (hold for every persisted row):
//  1. Span.End >= Span.Start, except on rows cancelled by a transfer, where
//     the truncated span records that the booking was superseded before it
//     began.
//  2. Exactly one resource reference is populated.
//  3. Amount >= 0.
//  4. No two active worker allocations for the same worker overlap.
type Allocation struct {
	ID        AllocationID
	ProjectID string
	Resource  Resource
	Span      DateSpan
	Mode      PaymentMode
	Amount    decimal.Decimal
	PaidOn    *Date // set when a positive amount is first established
	Status    Status
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the allocation still occupies its resource.
func (a Allocation) Active() bool { return a.Status == StatusActive }
