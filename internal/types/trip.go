package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxTripDays is the longest trip the planner will generate.
	MaxTripDays = 10
	// ActivitiesPerDay is fixed by the itinerary slots below.
	ActivitiesPerDay = 4
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
)

// TimeSlot labels, in the order they appear within a day.
var TimeSlots = [ActivitiesPerDay]string{"Morning", "Lunch", "Afternoon", "Evening"}

type TripStatus string

const (
	TripStatusReady   TripStatus = "ready"
	TripStatusPartial TripStatus = "partial"
)

// CreateTripRequest is the raw request body for a new trip.
type CreateTripRequest struct {
	Origin          string   `json:"origin" example:"Lisbon, Portugal"`
	Destination     string   `json:"destination" example:"Paris, France"`
	Budget          int      `json:"budget" example:"2000"`
	StartDate       string   `json:"start_date" example:"2026-05-01"`
	EndDate         string   `json:"end_date" example:"2026-05-05"`
	TravelerProfile string   `json:"traveler_profile" example:"couple"`
	Dietary         string   `json:"dietary,omitempty" example:"vegetarian"`
	Interests       []string `json:"interests,omitempty"`
}

// TripRequest is a validated, normalized CreateTripRequest.
type TripRequest struct {
	Origin          string
	Destination     string
	Budget          int
	StartDate       time.Time
	EndDate         time.Time
	Days            int
	TravelerProfile string
	Dietary         string
	Interests       []string
}

// DailyBudget is the budget share of a single day.
func (r TripRequest) DailyBudget() float64 {
	if r.Days == 0 {
		return 0
	}
	return float64(r.Budget) / float64(r.Days)
}

// DayDate returns the calendar date of the 1-based day number.
func (r TripRequest) DayDate(dayNumber int) time.Time {
	return r.StartDate.AddDate(0, 0, dayNumber-1)
}

type GeoPoint struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

type DailyWeather struct {
	Date              string  `json:"date"`
	MaxTemp           float64 `json:"max_temp"`
	MinTemp           float64 `json:"min_temp"`
	PrecipProbability float64 `json:"precip_probability"`
	WeatherCode       int     `json:"weather_code"`
	MaxWindSpeed      float64 `json:"max_wind_speed"`
}

type Trip struct {
	ID              uuid.UUID      `json:"id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	Title           string         `json:"title"`
	Status          TripStatus     `json:"status"`
	Origin          string         `json:"origin"`
	Destination     string         `json:"destination"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Days            int            `json:"days"`
	Budget          int            `json:"budget"`
	TravelerProfile string         `json:"traveler_profile"`
	Dietary         string         `json:"dietary"`
	Interests       []string       `json:"interests"`
	Weather         []DailyWeather `json:"weather"`
	PreTripInfo     PreTripInfo    `json:"pre_trip_info"`
	Shared          bool           `json:"shared"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type TripDay struct {
	ID         uuid.UUID  `json:"id"`
	TripID     uuid.UUID  `json:"trip_id"`
	DayNumber  int        `json:"day_number"`
	Date       time.Time  `json:"date"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	ID          uuid.UUID `json:"id"`
	TripDayID   uuid.UUID `json:"trip_day_id"`
	Position    int       `json:"position"`
	TimeOfDay   string    `json:"time_of_day"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Cost        float64   `json:"cost"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	MapURL      *string   `json:"map_url,omitempty"`
}

// TripTree is a trip with its full days/activities subtree.
type TripTree struct {
	Trip Trip      `json:"trip"`
	Days []TripDay `json:"days"`
}

// TripResult is what the generation pipeline hands back. A degraded result
// is still a successful trip creation.
type TripResult struct {
	TripTree
	Degraded         bool     `json:"degraded"`
	FallbackStages   []string `json:"fallback_stages,omitempty"`
	FailedDays       int      `json:"failed_days"`
	FailedActivities int      `json:"failed_activities"`
}
