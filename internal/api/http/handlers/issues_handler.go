package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/api/dto"
	"github.com/spec-kit/production-booking/internal/service"
)

// IssuesHandler serves issue reporting endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issues}
}

// ReportIssue POST /productions/:id/issues.
func (h *IssuesHandler) ReportIssue(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ReportIssueRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.ReportIssue(c.UserContext(), actor, c.Params("id"), req.Description, req.Priority)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(issue)})
}

// ListIssues GET /productions/:id/issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	issues, err := h.issues.ListIssues(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, issueResponse(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	issue, err := h.issues.GetIssue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.UpdateIssueStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// UpdatePriority PATCH /issues/:id/priority.
func (h *IssuesHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssuePriorityRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.UpdateIssuePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}
