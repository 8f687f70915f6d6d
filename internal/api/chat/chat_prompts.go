package chat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// itinerarySummary is the system preamble sent with every chat turn.
func itinerarySummary(tree *types.TripTree) string {
	t := tree.Trip
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly travel assistant helping the traveler refine an existing trip plan.\n")
	fmt.Fprintf(&b, "Trip: %s, from %s to %s, %s to %s (%d days), total budget %d, traveler profile %q",
		t.Title, t.Origin, t.Destination,
		t.StartDate.Format(types.DateLayout), t.EndDate.Format(types.DateLayout),
		t.Days, t.Budget, t.TravelerProfile)
	if t.Dietary != "" && t.Dietary != "none" {
		fmt.Fprintf(&b, ", dietary needs: %s", t.Dietary)
	}
	if len(t.Interests) > 0 {
		fmt.Fprintf(&b, ", interests: %s", strings.Join(t.Interests, ", "))
	}
	b.WriteString(".\n")

	if len(t.Weather) > 0 {
		b.WriteString("Forecast:\n")
		for _, w := range t.Weather {
			fmt.Fprintf(&b, "- %s: %.0f-%.0f°C, %.0f%% chance of rain\n", w.Date, w.MinTemp, w.MaxTemp, w.PrecipProbability)
		}
	}

	b.WriteString("Current itinerary:\n")
	for _, d := range tree.Days {
		fmt.Fprintf(&b, "Day %d (%s):\n", d.DayNumber, d.Date.Format(types.DateLayout))
		for _, a := range d.Activities {
			fmt.Fprintf(&b, "- %s: %s", a.TimeOfDay, a.Title)
			if a.Location != "" {
				fmt.Fprintf(&b, " at %s", a.Location)
			}
			fmt.Fprintf(&b, " (about %.0f)\n", a.Cost)
		}
	}
	b.WriteString("Answer in a few short paragraphs. When suggesting changes, name real places and say which day and time slot they replace.")
	return b.String()
}

type replyRule struct {
	keywords []string
	reply    func(t types.Trip) string
}

// replyRules are checked in order; the first rule with a matching keyword wins.
var replyRules = []replyRule{
	{
		keywords: []string{"budget", "cost", "price", "expensive", "cheap", "money", "spend", "afford"},
		reply: func(t types.Trip) string {
			return fmt.Sprintf("Your budget of %d works out to about %.0f per day in %s. "+
				"To stretch it, favour free walking areas and parks, eat your main meal at lunch when menus are cheaper, "+
				"and buy a multi-day public transport pass instead of single tickets.",
				t.Budget, dailyBudget(t), t.Destination)
		},
	},
	{
		keywords: []string{"food", "eat", "restaurant", "dinner", "lunch", "breakfast", "cuisine", "vegetarian", "vegan", "drink"},
		reply: func(t types.Trip) string {
			diet := ""
			if t.Dietary != "" && t.Dietary != "none" {
				diet = fmt.Sprintf(" Ask staff about %s options before ordering; most places can adapt a dish.", t.Dietary)
			}
			return fmt.Sprintf("For food in %s, look for busy neighbourhood places away from the main sights, "+
				"try the local market for lunch and book popular restaurants a day ahead.%s", t.Destination, diet)
		},
	},
	{
		keywords: []string{"weather", "rain", "sunny", "temperature", "cold", "hot", "forecast", "umbrella"},
		reply: func(t types.Trip) string {
			if len(t.Weather) == 0 {
				return fmt.Sprintf("I don't have a forecast for %s yet. Check again a few days before you leave "+
					"and keep one indoor option, such as a museum, ready for each day.", t.Destination)
			}
			w := t.Weather[0]
			return fmt.Sprintf("The first day in %s looks like %.0f-%.0f°C with a %.0f%% chance of rain. "+
				"Pack layers and keep an indoor plan for any day with a high chance of rain.",
				t.Destination, w.MinTemp, w.MaxTemp, w.PrecipProbability)
		},
	},
	{
		keywords: []string{"activity", "activities", "visit", "see", "museum", "tour", "attraction", "things to do"},
		reply: func(t types.Trip) string {
			return fmt.Sprintf("Your %d-day plan for %s already covers a morning, lunch, afternoon and evening slot each day. "+
				"Tell me which day feels too busy or too quiet and what you enjoy most, and I will suggest alternatives.",
				t.Days, t.Destination)
		},
	},
	{
		keywords: []string{"change", "modify", "swap", "replace", "move", "remove", "add", "instead", "update"},
		reply: func(t types.Trip) string {
			return "Happy to adjust the plan. Tell me the day number, the time slot (morning, lunch, afternoon or evening) " +
				"and what you would like instead, and I will suggest a replacement."
		},
	},
}

// fallbackReply picks a deterministic answer from the user's text when the
// language model is unavailable.
func fallbackReply(text string, t types.Trip) string {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, rule := range replyRules {
		for _, kw := range rule.keywords {
			if matchesKeyword(lower, words, kw) {
				return rule.reply(t)
			}
		}
	}
	return fmt.Sprintf("I can help you fine-tune your trip to %s. Ask me about the budget, food, the weather, "+
		"activities, or tell me what you would like to change in the itinerary.", t.Destination)
}

// matchesKeyword matches whole words, plurals and, for longer keywords,
// prefixes ("restaurants", "visiting"). Phrases match as substrings.
func matchesKeyword(lower string, words []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	for _, w := range words {
		if w == kw || strings.TrimSuffix(w, "s") == kw || (len(kw) >= 5 && strings.HasPrefix(w, kw)) {
			return true
		}
	}
	return false
}

func remainingNotice(remaining int) string {
	return fmt.Sprintf("\n\n(You have %d message(s) left for this trip.)", remaining)
}

func dailyBudget(t types.Trip) float64 {
	if t.Days <= 0 {
		return float64(t.Budget)
	}
	return float64(t.Budget) / float64(t.Days)
}
