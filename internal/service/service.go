package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func lookupError(err error, resource, key, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{key: id})
	}
	return apperrors.MapError(err)
}

// writeError maps a failed production write. When another writer moved the
// status first, the error describes the status now stored: a terminal one
// rejects the change outright, anything else asks the caller to retry.
func writeError(ctx context.Context, productions repository.ProductionRepository, err error, productionID string, target domain.ProductionStatus) error {
	if !errors.Is(err, repository.ErrStatusChanged) {
		return lookupError(err, "production", "production_id", productionID)
	}
	current, getErr := productions.GetByID(ctx, productionID)
	if getErr != nil {
		return lookupError(getErr, "production", "production_id", productionID)
	}
	if current.Status.Terminal() {
		return apperrors.NewInvalidTransition(productionID, string(current.Status), string(target))
	}
	return apperrors.NewConflict("production changed concurrently; reload and retry", map[string]any{
		"production_id": productionID,
		"status":        string(current.Status),
	})
}

func requireActor(actor domain.Actor) error {
	if actor.ID == "" || !actor.Capability.Valid() {
		return apperrors.NewUnauthorized("actor required")
	}
	return nil
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Capability: actor.Capability}
}

// publish hands an event to the dispatcher. The store write has already
// happened, so a failure is reported but cannot be rolled back.
func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		return apperrors.NewNotifyFailed(event.ProductionID, err)
	}
	return nil
}

func withRequester(p *domain.Production, staffIDs []string) []string {
	return unionIDs(staffIDs, []string{p.RequestedByID})
}

func unionIDs(groups ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, ids := range groups {
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func stringPreview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
