/*
handlers.go - HTTP API handlers for the crew scheduling engine

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Allocations:
    GET    /api/allocations                List in priority order
    POST   /api/allocations                Create (validate/price/check)
    GET    /api/allocations/{id}           Get one allocation
    PUT    /api/allocations/{id}           Edit dates/amount/notes
    DELETE /api/allocations/{id}           Cancel (soft delete)
    POST   /api/allocations/{id}/transfer  Supersede with a replacement

  Views:
    GET    /api/views/week         7-day calendar projection
    GET    /api/views/daily-costs  Trailing per-day cost series
    GET    /api/views/most-used    Resource usage ranking

  Catalog:
    GET/POST /api/projects, /api/workers, /api/teams
    GET      /api/projects/{id}, /api/workers/{id}, /api/teams/{id}

REQUEST FLOW:
  1. Parse HTTP request
  2. Call domain logic (scheduler, repositories)
  3. Serialize response
  4. Map domain errors to HTTP status

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Scheduling conflict (includes the blocking allocation)
  - 500: Storage errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - schedule/scheduler.go: The domain logic behind every handler
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/crew-scheduler/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *schedule.Scheduler
	Projects schedule.ProjectRepo
	Workers  schedule.WorkerRepo
	Teams    schedule.TeamRepo
	Log      zerolog.Logger
}

// NewHandler creates a new handler around the scheduling engine.
func NewHandler(engine *schedule.Scheduler, log zerolog.Logger) *Handler {
	return &Handler{
		Engine:   engine,
		Projects: engine.Projects,
		Workers:  engine.Workers,
		Teams:    engine.Teams,
		Log:      log,
	}
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// ListAllocations returns allocations in priority order: current first,
// then future, past, cancelled. Optional ?project_id= filter.
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")

	allocs, err := h.Engine.List(r.Context(), projectID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list allocations", err)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTOs(allocs))
}

// CreateAllocation validates, prices and persists a new allocation.
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req CreateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Engine.Create(r.Context(), toDraft(req))
	if err != nil {
		h.writeDomainError(w, r, "Failed to create allocation", err)
		return
	}

	h.Log.Info().
		Str("allocation_id", string(a.ID)).
		Str("project_id", a.ProjectID).
		Str("resource", a.Resource.String()).
		Str("amount", a.Amount.String()).
		Msg("allocation created")

	writeJSON(w, http.StatusCreated, toAllocationDTO(*a))
}

// GetAllocation returns a single allocation.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := schedule.AllocationID(chi.URLParam(r, "id"))

	a, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get allocation", err)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// UpdateAllocation edits the mutable fields of an active allocation.
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id := schedule.AllocationID(chi.URLParam(r, "id"))

	var req UpdateAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Engine.Update(r.Context(), id, schedule.UpdatePatch{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Amount:    req.Amount,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to update allocation", err)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// CancelAllocation soft-deletes an allocation. Idempotent: cancelling a
// cancelled allocation returns it unchanged.
func (h *Handler) CancelAllocation(w http.ResponseWriter, r *http.Request) {
	id := schedule.AllocationID(chi.URLParam(r, "id"))

	a, err := h.Engine.Cancel(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to cancel allocation", err)
		return
	}

	h.Log.Info().Str("allocation_id", string(id)).Msg("allocation cancelled")

	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// TransferAllocation supersedes an allocation with a replacement in one
// transaction: the old row is truncated to the day before the new start,
// zeroed and cancelled, then the replacement is created.
func (h *Handler) TransferAllocation(w http.ResponseWriter, r *http.Request) {
	id := schedule.AllocationID(chi.URLParam(r, "id"))

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Engine.Transfer(r.Context(), id, toDraft(req))
	if err != nil {
		h.writeDomainError(w, r, "Failed to transfer allocation", err)
		return
	}

	h.Log.Info().
		Str("superseded_id", string(id)).
		Str("allocation_id", string(a.ID)).
		Msg("allocation transferred")

	writeJSON(w, http.StatusCreated, toAllocationDTO(*a))
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// GetWeekView returns the 7-day calendar starting at ?start= (default:
// Monday of the current week). Each day lists the active allocations
// touching it, full amounts included.
func (h *Handler) GetWeekView(w http.ResponseWriter, r *http.Request) {
	start := schedule.StartOfWeek(h.Engine.Today())
	if raw := r.URL.Query().Get("start"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date", err)
			return
		}
		start = d
	}

	view, err := h.Engine.WeeklyView(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, r, "Failed to build week view", err)
		return
	}

	dto := WeekViewDTO{Start: view.Start.String()}
	for _, day := range view.Days {
		dto.Days = append(dto.Days, DayViewDTO{
			Date:        day.Date.String(),
			Allocations: toAllocationDTOs(day.Allocations),
		})
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetDailyCosts returns the trailing per-day cost series. Query params:
// ?project_id= (optional filter), ?days= (default 30).
func (h *Handler) GetDailyCosts(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	days, err := intParam(r, "days", 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
		return
	}

	series, err := h.Engine.DailyCosts(r.Context(), projectID, days)
	if err != nil {
		h.writeDomainError(w, r, "Failed to build cost series", err)
		return
	}

	dtos := make([]DailyCostDTO, len(series))
	for i, entry := range series {
		dtos[i] = DailyCostDTO{
			Date:           entry.Date.String(),
			Total:          entry.Total,
			HadAllocations: entry.HadAllocations,
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetMostUsed ranks resources by scheduled days over a window. Query
// params: ?start= (default today), ?days= (default 7).
func (h *Handler) GetMostUsed(w http.ResponseWriter, r *http.Request) {
	start := h.Engine.Today()
	if raw := r.URL.Query().Get("start"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date", err)
			return
		}
		start = d
	}
	days, err := intParam(r, "days", 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
		return
	}

	ranked, err := h.Engine.MostUsed(r.Context(), start, days)
	if err != nil {
		h.writeDomainError(w, r, "Failed to rank usage", err)
		return
	}

	dtos := make([]ResourceUsageDTO, len(ranked))
	for i, entry := range ranked {
		dtos[i] = ResourceUsageDTO{Label: entry.Label, Occurrences: entry.Occurrences}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProjects returns the project catalog.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.ListProjects(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ProjectDTO{ID: p.ID, Name: p.Name, Area: p.Area}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveProject creates or updates a project.
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	err := h.Projects.SaveProject(r.Context(), schedule.Project{
		ID:   req.ID,
		Name: req.Name,
		Area: req.Area,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to save project", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectDTO{ID: p.ID, Name: p.Name, Area: p.Area})
}

// ListWorkers returns the worker catalog.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Workers.ListWorkers(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = toWorkerDTO(worker)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveWorker creates or updates a worker.
func (h *Handler) SaveWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	err := h.Workers.SaveWorker(r.Context(), schedule.Worker{
		ID:        req.ID,
		Name:      req.Name,
		DailyRate: req.DailyRate,
		AreaRate:  req.AreaRate,
		FlatRate:  req.FlatRate,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to save worker", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Workers.GetWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

// ListTeams returns the team catalog.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Teams.ListTeams(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list teams", err)
		return
	}

	dtos := make([]TeamDTO, len(teams))
	for i, t := range teams {
		dtos[i] = TeamDTO{ID: t.ID, Name: t.Name, MemberIDs: t.MemberIDs}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveTeam creates or updates a team. Every member must already exist
// in the worker catalog.
func (h *Handler) SaveTeam(w http.ResponseWriter, r *http.Request) {
	var req TeamDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	for _, workerID := range req.MemberIDs {
		if _, err := h.Workers.GetWorker(r.Context(), workerID); err != nil {
			if errors.Is(err, schedule.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "Unknown worker "+workerID, nil)
				return
			}
			h.writeDomainError(w, r, "Failed to verify team member", err)
			return
		}
	}

	err := h.Teams.SaveTeam(r.Context(), schedule.Team{
		ID:        req.ID,
		Name:      req.Name,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to save team", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// GetTeam returns a single team.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.Teams.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get team", err)
		return
	}
	writeJSON(w, http.StatusOK, TeamDTO{ID: t.ID, Name: t.Name, MemberIDs: t.MemberIDs})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ERROR MAPPING & HELPERS
// =============================================================================

// writeDomainError maps domain errors onto HTTP status codes. Conflict
// responses carry the blocking allocation so clients can show it.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var conflict *schedule.ConflictError
	var invalid *schedule.InvalidInputError

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: message,
			Code:  "conflict",
			Details: map[string]string{
				"allocation_id": string(conflict.AllocationID),
				"project_id":    conflict.ProjectID,
				"start_date":    conflict.Span.Start.String(),
				"end_date":      conflict.Span.End.String(),
			},
		})

	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Code:    "invalid_input",
			Details: invalid.Error(),
		})

	case errors.Is(err, schedule.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, message, err)

	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)

	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

func toWorkerDTO(w schedule.Worker) WorkerDTO {
	return WorkerDTO{
		ID:        w.ID,
		Name:      w.Name,
		DailyRate: w.DailyRate,
		AreaRate:  w.AreaRate,
		FlatRate:  w.FlatRate,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
