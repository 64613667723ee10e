/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Allocations:
    AllocationDTO, CreateAllocationRequest, UpdateAllocationRequest,
    TransferRequest

  Views:
    WeekViewDTO, DailyCostDTO, ResourceUsageDTO

  Catalog:
    ProjectDTO, WorkerDTO, TeamDTO

MONEY:
  Amounts travel as JSON strings ("450", "137.50"). shopspring/decimal
  marshals that way by default and it keeps clients from rounding
  through float64.

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/draft.go: The domain input types these map onto
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/schedule"
)

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// AllocationDTO represents an allocation in API responses.
type AllocationDTO struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	ResourceKind  string          `json:"resource_kind"`
	WorkerID      string          `json:"worker_id,omitempty"`
	TeamID        string          `json:"team_id,omitempty"`
	ExternalLabel string          `json:"external_label,omitempty"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	PaymentMode   string          `json:"payment_mode"`
	Amount        decimal.Decimal `json:"amount"`
	PaidOn        *string         `json:"paid_on,omitempty"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

// CreateAllocationRequest is the request to create an allocation.
// Exactly one of worker_id, team_id or external_label must be set.
type CreateAllocationRequest struct {
	ProjectID     string          `json:"project_id"`
	WorkerID      string          `json:"worker_id,omitempty"`
	TeamID        string          `json:"team_id,omitempty"`
	ExternalLabel string          `json:"external_label,omitempty"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date,omitempty"`
	PaymentMode   string          `json:"payment_mode"`
	Amount        decimal.Decimal `json:"amount"` // zero = auto-price
	Notes         string          `json:"notes,omitempty"`
}

// UpdateAllocationRequest carries the editable fields. Absent fields are
// left unchanged.
type UpdateAllocationRequest struct {
	StartDate *string          `json:"start_date,omitempty"`
	EndDate   *string          `json:"end_date,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
}

// TransferRequest is the replacement allocation for a transfer. Same
// shape as a create; start_date doubles as the cutover day.
type TransferRequest = CreateAllocationRequest

// =============================================================================
// VIEW TYPES
// =============================================================================

// DayViewDTO is one day of the weekly view.
type DayViewDTO struct {
	Date        string          `json:"date"`
	Allocations []AllocationDTO `json:"allocations"`
}

// WeekViewDTO is the 7-day calendar projection.
type WeekViewDTO struct {
	Start string       `json:"start"`
	Days  []DayViewDTO `json:"days"`
}

// DailyCostDTO is one day of the trailing cost series.
type DailyCostDTO struct {
	Date           string          `json:"date"`
	Total          decimal.Decimal `json:"total"`
	HadAllocations bool            `json:"had_allocations"`
}

// ResourceUsageDTO is one entry of the usage ranking.
type ResourceUsageDTO struct {
	Label       string `json:"label"`
	Occurrences int    `json:"occurrences"`
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// ProjectDTO represents a project in API requests and responses.
type ProjectDTO struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Area decimal.Decimal `json:"area"`
}

// WorkerDTO represents a worker and their standard rates.
type WorkerDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	AreaRate  decimal.Decimal `json:"area_rate"`
	FlatRate  decimal.Decimal `json:"flat_rate"`
}

// TeamDTO represents a team and its ordered membership.
type TeamDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAllocationDTO(a schedule.Allocation) AllocationDTO {
	dto := AllocationDTO{
		ID:           string(a.ID),
		ProjectID:    a.ProjectID,
		ResourceKind: string(a.Resource.Kind()),
		StartDate:    a.Span.Start.String(),
		EndDate:      a.Span.End.String(),
		PaymentMode:  string(a.Mode),
		Amount:       a.Amount,
		Status:       string(a.Status),
		Notes:        a.Notes,
	}

	switch a.Resource.Kind() {
	case schedule.KindWorker:
		dto.WorkerID = a.Resource.Ref()
	case schedule.KindTeam:
		dto.TeamID = a.Resource.Ref()
	case schedule.KindExternal:
		dto.ExternalLabel = a.Resource.Ref()
	}

	if a.PaidOn != nil {
		s := a.PaidOn.String()
		dto.PaidOn = &s
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		dto.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}

	return dto
}

func toAllocationDTOs(allocs []schedule.Allocation) []AllocationDTO {
	dtos := make([]AllocationDTO, len(allocs))
	for i, a := range allocs {
		dtos[i] = toAllocationDTO(a)
	}
	return dtos
}

func toDraft(req CreateAllocationRequest) schedule.AllocationDraft {
	return schedule.AllocationDraft{
		ProjectID:     req.ProjectID,
		WorkerID:      req.WorkerID,
		TeamID:        req.TeamID,
		ExternalLabel: req.ExternalLabel,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Mode:          schedule.PaymentMode(req.PaymentMode),
		Amount:        req.Amount,
		Notes:         req.Notes,
	}
}
