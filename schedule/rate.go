/*
rate.go - Monetary value calculation for allocations

PURPOSE:
  Computes what an allocation costs from the resource's standard rates,
  the payment mode, and the date span. This is a pure pre-commit step:
  the scheduler calls Price before every write where the incoming amount
  is zero or absent, so an explicit caller-supplied price bypasses the
  formula entirely.

RULES (per worker):
  daily:     daily_rate * inclusive day count
  per_area:  area_rate * project area (independent of days)
  flat_rate: flat_rate (independent of days)

  Teams sum the per-worker contribution across every member - flat and
  per-area rates apply once PER MEMBER, not once per team. External
  services are never auto-priced; their amount stays whatever the caller
  supplied.

PAID-ON STAMP:
  The first time a positive amount is established, PaidOn is set to the
  span's start date (there is no separate invoicing step for labor).

SEE ALSO:
  - catalog.go: ResolvedResource and Worker rates
  - scheduler.go: Invokes Price on create/update/transfer
*/
package schedule

import "github.com/shopspring/decimal"

// Price fills in the amount of an unpriced allocation and stamps PaidOn.
// It is a pure function: the input is returned updated, nothing is stored.
//
// An allocation arriving with a positive amount keeps it untouched (only
// the PaidOn stamp is applied). External-service allocations are never
// auto-priced.
func Price(a Allocation, res ResolvedResource, project Project) Allocation {
	if a.Amount.IsPositive() {
		return stampPaidOn(a)
	}

	if a.Resource.Kind() == KindExternal {
		// No formula for outside services; amount stays zero until the
		// caller supplies one.
		return a
	}

	days := decimal.NewFromInt(int64(a.Span.Days()))
	total := decimal.Zero

	for _, w := range res.Workers {
		switch a.Mode {
		case PayDaily:
			total = total.Add(w.DailyRate.Mul(days))
		case PayPerArea:
			total = total.Add(w.AreaRate.Mul(project.Area))
		case PayFlatRate:
			total = total.Add(w.FlatRate)
		}
	}

	a.Amount = total
	return stampPaidOn(a)
}

func stampPaidOn(a Allocation) Allocation {
	if a.Amount.IsPositive() && a.PaidOn == nil {
		paid := a.Span.Start
		a.PaidOn = &paid
	}
	return a
}
