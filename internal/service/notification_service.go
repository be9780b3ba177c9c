package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/notify"
)

// NotificationService turns domain events into fan-out notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes() {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	logger := n.logger.With(
		zap.String("event_type", string(event.Type)),
		zap.String("production_id", event.ProductionID),
		zap.Int("recipients", len(event.Recipients)))
	if n.notifier == nil {
		logger.Debug("no notifier configured; dropping notification")
		return nil
	}

	notification := notify.Notification{
		ID:           uuid.NewString(),
		RecipientIDs: event.Recipients,
		Type:         string(event.Type),
		Message:      messageFor(event),
		ProductionID: event.ProductionID,
		CreatedAt:    event.Timestamp,
	}
	if err := n.notifier.Notify(ctx, notification); err != nil {
		logger.Error("notification failed", zap.Error(err))
		return err
	}
	logger.Info("notification sent")
	return nil
}

func messageFor(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.StatusChangedPayload:
		switch event.Type {
		case events.EventProductionRequested:
			return fmt.Sprintf("New production request: %s", payload.ProductionName)
		case events.EventProductionCancelled:
			if payload.Reason != "" {
				return fmt.Sprintf("%s has been cancelled: %s", payload.ProductionName, payload.Reason)
			}
			return fmt.Sprintf("%s has been cancelled", payload.ProductionName)
		case events.EventProductionCompleted:
			return fmt.Sprintf("%s has been completed", payload.ProductionName)
		}
		return fmt.Sprintf("%s moved from %s to %s", payload.ProductionName, payload.OldStatus, payload.NewStatus)
	case events.AssignmentPayload:
		if event.Type == events.EventProductionConfirmed {
			return fmt.Sprintf("%s is confirmed and crew has been assigned", payload.ProductionName)
		}
		return fmt.Sprintf("Crew assignment updated for %s", payload.ProductionName)
	case events.OvertimePayload:
		return fmt.Sprintf("%s ran over: ended %s instead of %s (%s)",
			payload.ProductionName,
			payload.ActualEnd.Format("15:04"),
			payload.ScheduledEnd.Format("15:04"),
			payload.Reason)
	case events.IssueReportedPayload:
		return fmt.Sprintf("New %s priority issue reported: %s", payload.Priority, payload.BodyPreview)
	}
	return string(event.Type)
}
