package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/api/dto"
	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/service"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// ProductionsHandler serves production booking endpoints.
type ProductionsHandler struct {
	productions *service.ProductionService
	assignment  *service.AssignmentService
	location    *time.Location
}

// NewProductionsHandler constructs handler. loc interprets request dates and clocks.
func NewProductionsHandler(productions *service.ProductionService, assignment *service.AssignmentService, loc *time.Location) *ProductionsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ProductionsHandler{productions: productions, assignment: assignment, location: loc}
}

// CreateProduction POST /productions.
func (h *ProductionsHandler) CreateProduction(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateProductionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	day, window, err := parseWindow(req.Date, req.StartTime, req.EndTime, h.location)
	if err != nil {
		return err
	}
	input := service.ProductionCreateInput{
		Name:             req.Name,
		Date:             day,
		StartTime:        window.Start,
		EndTime:          window.End,
		Venue:            req.Venue,
		OutsideBroadcast: req.OutsideBroadcast,
		Location:         req.Location,
	}
	if req.CallTime != "" {
		call, err := domain.CombineDateTime(day, req.CallTime)
		if err != nil {
			return apperrors.NewValidationError("invalid call time", map[string]any{"field": "call_time"})
		}
		input.CallTime = call
	}

	production, err := h.productions.CreateProduction(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": productionResponse(production)})
}

// ListProductions GET /productions.
func (h *ProductionsHandler) ListProductions(c *fiber.Ctx) error {
	filter, err := h.parseListQuery(c)
	if err != nil {
		return err
	}
	productions, err := h.productions.ListProductions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponses(productions)})
}

// GetProduction GET /productions/:id.
func (h *ProductionsHandler) GetProduction(c *fiber.Ctx) error {
	production, err := h.productions.GetProduction(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponse(production)})
}

// PreviewAssignment POST /productions/:id/assignment/preview.
func (h *ProductionsHandler) PreviewAssignment(c *fiber.Ctx) error {
	var req dto.AssignStaffRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	results, err := h.assignment.PreviewAssignment(c.UserContext(), c.Params("id"), req.AssignedStaff)
	if err != nil {
		return err
	}
	items := make([]dto.AvailabilityResponse, 0, len(results))
	for _, result := range results {
		items = append(items, availabilityResponse(result))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AssignStaff PUT /productions/:id/assignment.
func (h *ProductionsHandler) AssignStaff(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignStaffRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	result, err := h.assignment.AssignStaff(c.UserContext(), actor, c.Params("id"), req.AssignedStaff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponse(result)})
}

// CancelProduction POST /productions/:id/cancel.
func (h *ProductionsHandler) CancelProduction(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CancelProductionRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}
	production, err := h.productions.CancelProduction(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponse(production)})
}

// CompleteProduction POST /productions/:id/complete.
func (h *ProductionsHandler) CompleteProduction(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	production, err := h.productions.CompleteProduction(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponse(production)})
}

// ReportOvertime POST /productions/:id/overtime.
func (h *ProductionsHandler) ReportOvertime(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ReportOvertimeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	production, err := h.productions.ReportOvertime(c.UserContext(), actor, c.Params("id"), req.ActualEndTime, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponse(production)})
}

// AddNote POST /productions/:id/notes.
func (h *ProductionsHandler) AddNote(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AddNoteRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	note, err := h.productions.AddNote(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// ListNotes GET /productions/:id/notes.
func (h *ProductionsHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.productions.ListNotes(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, noteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /productions/:id/history.
func (h *ProductionsHandler) ListHistory(c *fiber.Ctx) error {
	history, err := h.productions.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

func (h *ProductionsHandler) parseListQuery(c *fiber.Ctx) (service.ProductionListFilter, error) {
	filter := service.ProductionListFilter{}
	for _, status := range splitQueryList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.ProductionStatus(status))
	}
	if staffID := c.Query("staff_id"); staffID != "" {
		filter.StaffID = &staffID
	}
	if requester := c.Query("requested_by"); requester != "" {
		filter.RequesterID = &requester
	}
	var err error
	if filter.DateFrom, err = parseDateQuery(c, "from", h.location); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDateQuery(c, "to", h.location); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntQuery(c, "limit", 50, 1, 200); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseIntQuery(c, "offset", 0, 0, 1_000_000); err != nil {
		return filter, err
	}
	return filter, nil
}
