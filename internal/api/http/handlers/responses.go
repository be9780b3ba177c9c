package handlers

import (
	"github.com/spec-kit/production-booking/internal/api/dto"
	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/service"
)

func productionResponse(p *domain.Production) dto.ProductionResponse {
	assigned := p.AssignedStaff
	if assigned == nil {
		assigned = domain.AssignedStaff{}
	}
	return dto.ProductionResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Date:               p.Date.Format(domain.DateLayout),
		CallTime:           p.CallTime,
		StartTime:          p.StartTime,
		EndTime:            p.EndTime,
		ActualEndTime:      p.ActualEndTime,
		Venue:              p.Venue,
		OutsideBroadcast:   p.OutsideBroadcast,
		Location:           p.Location,
		Status:             p.Status,
		AssignedStaff:      assigned,
		RequestedByID:      p.RequestedByID,
		ProcessedByID:      p.ProcessedByID,
		OvertimeReported:   p.OvertimeReported,
		OvertimeReason:     p.OvertimeReason,
		CancellationReason: p.CancellationReason,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func productionResponses(items []domain.Production) []dto.ProductionResponse {
	out := make([]dto.ProductionResponse, 0, len(items))
	for i := range items {
		out = append(out, productionResponse(&items[i]))
	}
	return out
}

func conflictResponses(staffID string, conflicts []domain.Production) []dto.ConflictResponse {
	out := make([]dto.ConflictResponse, 0, len(conflicts))
	for _, p := range conflicts {
		out = append(out, dto.ConflictResponse{
			ProductionID: p.ID,
			Name:         p.Name,
			StartTime:    p.StartTime,
			EndTime:      p.EndTime,
			Status:       p.Status,
			Slots:        p.AssignedStaff.SlotsOf(staffID),
		})
	}
	return out
}

func availabilityResponse(result service.AvailabilityResult) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		StaffID:   result.StaffID,
		Available: result.Available,
		Conflicts: conflictResponses(result.StaffID, result.Conflicts),
	}
}

func assignmentResponse(result *service.AssignmentResult) dto.AssignmentResponse {
	conflicts := make(map[string][]dto.ConflictResponse, len(result.Conflicts))
	for staffID, productions := range result.Conflicts {
		conflicts[staffID] = conflictResponses(staffID, productions)
	}
	return dto.AssignmentResponse{
		Production: productionResponse(result.Production),
		Conflicts:  conflicts,
	}
}

func historyResponses(entries []domain.ProductionHistory) []dto.HistoryResponse {
	out := make([]dto.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			ChangeType: e.ChangeType,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

func noteResponse(n *domain.ProductionNote) dto.NoteResponse {
	return dto.NoteResponse{ID: n.ID, AuthorID: n.AuthorID, Body: n.Body, CreatedAt: n.CreatedAt}
}

func staffResponse(s *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        s.ID,
		Name:      s.Name,
		Roles:     s.Roles,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func issueResponse(i *domain.Issue) dto.IssueResponse {
	return dto.IssueResponse{
		ID:           i.ID,
		ProductionID: i.ProductionID,
		ReporterID:   i.ReporterID,
		Description:  i.Description,
		Priority:     i.Priority,
		Status:       i.Status,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
		ResolvedAt:   i.ResolvedAt,
	}
}
