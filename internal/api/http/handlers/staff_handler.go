package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/api/dto"
	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/service"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// StaffHandler serves the crew directory, availability and schedules.
type StaffHandler struct {
	staff        *service.StaffService
	availability *service.AvailabilityService
	productions  *service.ProductionService
	location     *time.Location
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff *service.StaffService, availability *service.AvailabilityService, productions *service.ProductionService, loc *time.Location) *StaffHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StaffHandler{staff: staff, availability: availability, productions: productions, location: loc}
}

// RegisterStaff POST /staff.
func (h *StaffHandler) RegisterStaff(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RegisterStaffRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	member, err := h.staff.RegisterStaff(c.UserContext(), actor, req.Name, req.Roles)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(member)})
}

// ListStaff GET /staff?slot=cameraOperators.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	filters := service.StaffListFilters{}
	if slot := strings.TrimSpace(c.Query("slot")); slot != "" {
		s := domain.RoleSlot(slot)
		filters.Slot = &s
	}
	var err error
	if filters.Limit, err = parseIntQuery(c, "limit", 100, 1, 500); err != nil {
		return err
	}
	if filters.Offset, err = parseIntQuery(c, "offset", 0, 0, 1_000_000); err != nil {
		return err
	}
	members, err := h.staff.ListStaff(c.UserContext(), filters)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		items = append(items, staffResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetStaff GET /staff/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	member, err := h.staff.GetStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

// CheckAvailability GET /staff/:id/availability?date=&start=&end=&exclude=.
func (h *StaffHandler) CheckAvailability(c *fiber.Ctx) error {
	date, start, end := c.Query("date"), c.Query("start"), c.Query("end")
	if date == "" || start == "" || end == "" {
		return apperrors.NewValidationError("date, start and end are required", nil)
	}
	_, window, err := parseWindow(date, start, end, h.location)
	if err != nil {
		return err
	}
	result, err := h.availability.CheckAvailability(c.UserContext(), c.Params("id"), window, c.Query("exclude"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": availabilityResponse(*result)})
}

// Schedule GET /staff/:id/schedule?from=&to=.
func (h *StaffHandler) Schedule(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from", h.location)
	if err != nil {
		return err
	}
	to, err := parseDateQuery(c, "to", h.location)
	if err != nil {
		return err
	}
	productions, err := h.productions.StaffSchedule(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productionResponses(productions)})
}
