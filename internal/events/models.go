package events

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the fixed number of events per page for listings and searches.
const PageSize = 10

// Event is a stored event document.
// Coordinates are stored as [longitude, latitude] so the store can index them geospatially.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventName   string             `bson:"event_name" json:"event_name"`
	CityName    string             `bson:"city_name" json:"city_name"`
	Date        time.Time          `bson:"date" json:"date"`
	Coordinates []float64          `bson:"coordinates" json:"coordinates"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Longitude returns the event longitude and whether the coordinates are usable.
func (e Event) Longitude() (float64, bool) {
	if len(e.Coordinates) < 2 {
		return 0, false
	}
	return e.Coordinates[0], true
}

// Latitude returns the event latitude and whether the coordinates are usable.
func (e Event) Latitude() (float64, bool) {
	if len(e.Coordinates) < 2 {
		return 0, false
	}
	return e.Coordinates[1], true
}

// Strip drops the location and returns the base of an enriched view with no
// enrichment data attached.
func (e Event) Strip() EnrichedEvent {
	return EnrichedEvent{
		EventName: e.EventName,
		CityName:  e.CityName,
		Date:      e.Date,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// EventInput carries the client-writable fields of an event.
type EventInput struct {
	EventName string
	CityName  string
	Date      time.Time
	Latitude  float64
	Longitude float64
}

// toEvent builds the stored representation of the input.
func (in EventInput) toEvent() Event {
	return Event{
		EventName:   in.EventName,
		CityName:    in.CityName,
		Date:        in.Date,
		Coordinates: []float64{in.Longitude, in.Latitude},
	}
}

// EnrichedEvent is a search result: the event without its location, plus
// weather and distance data. Weather and DistanceKm are nil when the
// corresponding lookup failed.
type EnrichedEvent struct {
	EventName  string    `json:"event_name"`
	CityName   string    `json:"city_name"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Weather    *string   `json:"weather"`
	DistanceKm *float64  `json:"distance_km"`
}

// SearchQuery holds the already-validated parameters of a nearby search.
type SearchQuery struct {
	SrcLat     float64
	SrcLong    float64
	SearchDate time.Time
	Page       int
}

// SearchCriteria is what the store needs to run one geo + date + page query.
type SearchCriteria struct {
	SrcLat  float64
	SrcLong float64
	From    time.Time
	To      time.Time
	Skip    int
	Limit   int
}

// SearchPage is one page of matches plus the total number of matches.
type SearchPage struct {
	Events []Event
	Total  int
}

// SearchResult is the response body of a nearby search.
type SearchResult struct {
	Events      []EnrichedEvent `json:"events"`
	Page        int             `json:"page"`
	PageSize    int             `json:"pageSize"`
	TotalEvents int             `json:"totalEvents"`
	TotalPages  int             `json:"totalPages"`
}

// ListResult is the response body of a plain listing.
type ListResult struct {
	Events      []Event `json:"events"`
	Page        int     `json:"page"`
	PageSize    int     `json:"pageSize"`
	TotalEvents int     `json:"totalEvents"`
	TotalPages  int     `json:"totalPages"`
}
