package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// ValidateRequest is the only place the trip length rule is enforced.
// It has no side effects. A non-zero notBefore additionally rejects trips
// starting before that calendar day (UTC).
func ValidateRequest(raw types.CreateTripRequest, notBefore time.Time) (types.TripRequest, error) {
	req := types.TripRequest{
		Origin:          strings.TrimSpace(raw.Origin),
		Destination:     strings.TrimSpace(raw.Destination),
		Budget:          raw.Budget,
		TravelerProfile: strings.ToLower(strings.TrimSpace(raw.TravelerProfile)),
		Dietary:         strings.ToLower(strings.TrimSpace(raw.Dietary)),
	}

	required := []struct{ field, value string }{
		{"origin", req.Origin},
		{"destination", req.Destination},
		{"start_date", strings.TrimSpace(raw.StartDate)},
		{"end_date", strings.TrimSpace(raw.EndDate)},
		{"traveler_profile", req.TravelerProfile},
	}
	for _, r := range required {
		if r.value == "" {
			return types.TripRequest{}, types.NewValidationError(r.field, "is required")
		}
	}
	if req.Budget <= 0 {
		return types.TripRequest{}, types.NewValidationError("budget", "must be a positive integer")
	}

	start, err := time.Parse(types.DateLayout, strings.TrimSpace(raw.StartDate))
	if err != nil {
		return types.TripRequest{}, types.NewValidationError("start_date", "must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(types.DateLayout, strings.TrimSpace(raw.EndDate))
	if err != nil {
		return types.TripRequest{}, types.NewValidationError("end_date", "must be formatted YYYY-MM-DD")
	}
	if !end.After(start) {
		return types.TripRequest{}, types.NewValidationError("end_date", "must be after start_date")
	}
	if !notBefore.IsZero() {
		day := notBefore.UTC()
		if start.Before(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)) {
			return types.TripRequest{}, types.NewValidationError("start_date", "must not be in the past")
		}
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > types.MaxTripDays {
		return types.TripRequest{}, types.NewValidationError("end_date",
			fmt.Sprintf("trip cannot be longer than %d days (got %d)", types.MaxTripDays, days))
	}
	req.StartDate = start
	req.EndDate = end
	req.Days = days

	if req.Dietary == "" {
		req.Dietary = "none"
	}
	seen := make(map[string]struct{}, len(raw.Interests))
	for _, interest := range raw.Interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest == "" {
			continue
		}
		if _, ok := seen[interest]; ok {
			continue
		}
		seen[interest] = struct{}{}
		req.Interests = append(req.Interests, interest)
	}
	return req, nil
}
