/*
draft.go - Incoming allocation requests and edit patches

PURPOSE:
  Drafts are what callers submit: raw strings for dates, three optional
  resource references. Validation turns a draft into a well-formed
  Allocation or rejects it with InvalidInput before anything is written.

COERCION RULES:
  - A missing end date, or an end before the start, becomes the start
    date (same-day booking).
  - Exactly one of worker_id / team_id / external_label must be set.
  - A negative amount is rejected; zero means "price it for me".

SEE ALSO:
  - scheduler.go: Validates drafts on create and transfer
*/
package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// ALLOCATION DRAFT - Caller input for create and transfer
// =============================================================================

// AllocationDraft is the unvalidated caller request for a new allocation.
type AllocationDraft struct {
	ProjectID     string
	WorkerID      string
	TeamID        string
	ExternalLabel string
	StartDate     string // YYYY-MM-DD, required
	EndDate       string // YYYY-MM-DD, optional
	Mode          PaymentMode
	Amount        decimal.Decimal // zero = auto-price
	Notes         string
}

// Resource assembles the tagged union, rejecting zero or more-than-one
// populated references.
func (d AllocationDraft) Resource() (Resource, error) {
	var res Resource
	n := 0
	if d.WorkerID != "" {
		res = WorkerResource(d.WorkerID)
		n++
	}
	if d.TeamID != "" {
		res = TeamResource(d.TeamID)
		n++
	}
	if d.ExternalLabel != "" {
		res = ExternalResource(d.ExternalLabel)
		n++
	}
	switch n {
	case 0:
		return Resource{}, invalidf("resource", "one of worker_id, team_id or external_label is required")
	case 1:
		return res, nil
	default:
		return Resource{}, invalidf("resource", "only one of worker_id, team_id or external_label may be set")
	}
}

// toAllocation validates the draft into a persistable allocation.
func (d AllocationDraft) toAllocation() (Allocation, error) {
	if d.ProjectID == "" {
		return Allocation{}, invalidf("project_id", "required")
	}

	res, err := d.Resource()
	if err != nil {
		return Allocation{}, err
	}

	if d.StartDate == "" {
		return Allocation{}, invalidf("start_date", "required")
	}
	start, err := ParseDate(d.StartDate)
	if err != nil {
		return Allocation{}, invalidf("start_date", "unparseable date %q", d.StartDate)
	}

	var end Date
	if d.EndDate != "" {
		end, err = ParseDate(d.EndDate)
		if err != nil {
			return Allocation{}, invalidf("end_date", "unparseable date %q", d.EndDate)
		}
	}

	if !ValidPaymentMode(d.Mode) {
		return Allocation{}, invalidf("payment_mode", "unknown mode %q", d.Mode)
	}

	if d.Amount.IsNegative() {
		return Allocation{}, invalidf("amount", "must not be negative")
	}

	return Allocation{
		ProjectID: d.ProjectID,
		Resource:  res,
		Span:      NewSpan(start, end),
		Mode:      d.Mode,
		Amount:    d.Amount,
		Status:    StatusActive,
		Notes:     d.Notes,
	}, nil
}

// =============================================================================
// UPDATE PATCH - Direct edit of mutable fields
// =============================================================================

// UpdatePatch carries the fields a caller may edit on an existing
// allocation. Nil means "leave unchanged". Project and resource are
// immutable after creation; status only changes via cancel or transfer.
type UpdatePatch struct {
	StartDate *string
	EndDate   *string
	Amount    *decimal.Decimal
	Notes     *string
}

// apply merges the patch into a copy of the allocation, re-running the
// same coercion rules as a create.
func (p UpdatePatch) apply(a Allocation) (Allocation, error) {
	start := a.Span.Start
	end := a.Span.End

	if p.StartDate != nil {
		d, err := ParseDate(*p.StartDate)
		if err != nil {
			return Allocation{}, invalidf("start_date", "unparseable date %q", *p.StartDate)
		}
		start = d
	}
	if p.EndDate != nil {
		if *p.EndDate == "" {
			end = Date{}
		} else {
			d, err := ParseDate(*p.EndDate)
			if err != nil {
				return Allocation{}, invalidf("end_date", "unparseable date %q", *p.EndDate)
			}
			end = d
		}
	}
	a.Span = NewSpan(start, end)

	if p.Amount != nil {
		if p.Amount.IsNegative() {
			return Allocation{}, invalidf("amount", "must not be negative")
		}
		a.Amount = *p.Amount
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}

	return a, nil
}
