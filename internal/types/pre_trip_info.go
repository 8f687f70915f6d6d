package types

// Field names below are the literal contract with the language model.

type CurrencyInfo struct {
	LocalCurrency string `json:"local_currency"`
	ExchangeRate  string `json:"exchange_rate"`
	ExchangeTips  string `json:"exchange_tips"`
	ExchangeLink  string `json:"exchange_link"`
}

type HotelSuggestion struct {
	Name        string `json:"name"`
	PriceRange  string `json:"price_range"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

type TransportationInfo struct {
	Options             []string `json:"options"`
	RideApps            []string `json:"ride_apps"`
	PublicTransportInfo string   `json:"public_transport_info"`
	Costs               string   `json:"costs"`
	Tips                string   `json:"tips"`
}

type LocalEvent struct {
	Name         string `json:"name"`
	Dates        string `json:"dates"`
	Description  string `json:"description"`
	Significance string `json:"significance"`
}

// PreTripInfo is stored on the trip row. Events are merged in after the
// event stage runs.
type PreTripInfo struct {
	Currency       CurrencyInfo       `json:"currency"`
	Hotels         []HotelSuggestion  `json:"hotels"`
	Transportation TransportationInfo `json:"transportation"`
	Events         []LocalEvent       `json:"events"`
}

type EventsResponse struct {
	Events []LocalEvent `json:"events"`
}

type ItineraryActivity struct {
	Time        string  `json:"time"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Cost        float64 `json:"cost"`
}

type ItineraryDay struct {
	Day        int                 `json:"day"`
	Activities []ItineraryActivity `json:"activities"`
}

type Itinerary struct {
	Itinerary []ItineraryDay `json:"itinerary"`
}
