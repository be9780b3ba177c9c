package handlers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/auth"
	"github.com/spec-kit/production-booking/internal/domain"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// bindBody decodes the JSON body into dest and validates it.
func bindBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("validation failed", map[string]any{"error": err.Error()})
	}
	details := map[string]any{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return apperrors.NewValidationError("validation failed", details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match layout %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("query parameter must be numeric", map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, apperrors.NewValidationError("query parameter out of range", map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func parseDateQuery(c *fiber.Ctx, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	date, err := domain.ParseDate(raw, loc)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": key, "layout": domain.DateLayout})
	}
	return &date, nil
}

// parseWindow combines a YYYY-MM-DD date with HH:MM start and end clocks.
// The end must fall after the start on the same day.
func parseWindow(date, start, end string, loc *time.Location) (day time.Time, window domain.Interval, err error) {
	day, err = domain.ParseDate(date, loc)
	if err != nil {
		return day, window, apperrors.NewValidationError("invalid date", map[string]any{"field": "date", "layout": domain.DateLayout})
	}
	startAt, err := domain.CombineDateTime(day, start)
	if err != nil {
		return day, window, apperrors.NewValidationError("invalid start time", map[string]any{"field": "start_time", "layout": domain.ClockLayout})
	}
	endAt, err := domain.CombineDateTime(day, end)
	if err != nil {
		return day, window, apperrors.NewValidationError("invalid end time", map[string]any{"field": "end_time", "layout": domain.ClockLayout})
	}
	window, err = domain.NewInterval(startAt, endAt)
	if err != nil {
		return day, window, apperrors.NewValidationError("end time must be after start time", map[string]any{"field": "end_time"})
	}
	return day, window, nil
}

func splitQueryList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
