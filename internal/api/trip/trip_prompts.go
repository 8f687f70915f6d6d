package trip

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const plannerSystemPrompt = `You are an experienced travel planner. You answer with a single JSON object and nothing else. Use real, specific places that exist at the destination.`

func interestsOrDefault(req types.TripRequest) string {
	if len(req.Interests) == 0 {
		return "general sightseeing"
	}
	return strings.Join(req.Interests, ", ")
}

func generatePreTripInfoPrompt(req types.TripRequest) string {
	return fmt.Sprintf(`
        A %s traveler is going from %s to %s for %d days with a total budget of %d.
        Provide practical pre-trip guidance about currency, lodging and local transport.
        Return the response STRICTLY as a JSON object with:
        {
        "currency": {
            "local_currency": "Currency name and code used in %s",
            "exchange_rate": "Approximate rate from the traveler's home currency",
            "exchange_tips": "Where and how to exchange money, card acceptance, tipping",
            "exchange_link": "URL of a reputable currency converter"
        },
        "hotels": [
            {
            "name": "Real hotel name",
            "price_range": "Price per night",
            "description": "One sentence on why it suits this traveler",
            "address": "Street address"
            }
        ],
        "transportation": {
            "options": ["Transport option"],
            "ride_apps": ["Ride hailing app available locally"],
            "public_transport_info": "How public transport works, passes, hours",
            "costs": "Typical fares",
            "tips": "Practical advice"
        }
        }
        Suggest exactly 3 hotels at different price points that fit roughly %.0f per night.`,
		req.TravelerProfile, req.Origin, req.Destination, req.Days, req.Budget,
		req.Destination, req.DailyBudget()*hotelShareOfDailyBudget)
}

func generateEventsPrompt(req types.TripRequest) string {
	return fmt.Sprintf(`
        List festivals, concerts, exhibitions, holidays or other notable local events in %s
        taking place between %s and %s. Only include events you are confident happen in that window.
        Return the response STRICTLY as a JSON object with:
        {
        "events": [
            {
            "name": "Event name",
            "dates": "Dates within the trip",
            "description": "What happens",
            "significance": "Why a %s traveler interested in %s might care"
            }
        ]
        }
        Return {"events": []} when you know of none.`,
		req.Destination, req.StartDate.Format(types.DateLayout), req.EndDate.Format(types.DateLayout),
		req.TravelerProfile, interestsOrDefault(req))
}

func generateItineraryPrompt(req types.TripRequest, forecast []types.DailyWeather) string {
	var weatherPart string
	if len(forecast) > 0 {
		lines := make([]string, 0, len(forecast))
		for _, d := range forecast {
			lines = append(lines, fmt.Sprintf("%s: %.0f-%.0f°C, %.0f%% chance of rain", d.Date, d.MinTemp, d.MaxTemp, d.PrecipProbability))
		}
		weatherPart = "\n        Expected weather (prefer indoor plans on rainy days):\n        - " + strings.Join(lines, "\n        - ")
	}
	dietaryPart := ""
	if req.Dietary != "" && req.Dietary != "none" {
		dietaryPart = fmt.Sprintf("\n        Every meal suggestion must suit a %s diet.", req.Dietary)
	}

	return fmt.Sprintf(`
        Plan a %d-day trip to %s for a %s traveler starting %s.
        Total budget is %d, about %.0f per day. Interests: %s.%s%s
        Return EXACTLY %d entries in "itinerary", numbered 1 to %d. Each day has EXACTLY 4 activities,
        in this order and with these "time" values: "Morning", "Lunch", "Afternoon", "Evening".
        Every "title" and "location" must name a real, specific place (museum, restaurant, street, park).
        Never use placeholders such as "local restaurant" or "popular attraction".
        "cost" is a number in the trip's currency for one person, without symbols.
        Return the response STRICTLY as a JSON object with:
        {
        "itinerary": [
            {
            "day": 1,
            "activities": [
                {"time": "Morning", "title": "Place name", "description": "What to do there", "location": "Address or area", "cost": 0}
            ]
            }
        ]
        }`,
		req.Days, req.Destination, req.TravelerProfile, req.StartDate.Format(types.DateLayout),
		req.Budget, req.DailyBudget(), interestsOrDefault(req), dietaryPart, weatherPart,
		req.Days, req.Days)
}
