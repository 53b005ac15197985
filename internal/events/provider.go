package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeatherProvider looks up a weather description for a city on a date.
type WeatherProvider interface {
	Name() string
	Weather(ctx context.Context, city string, date time.Time) (string, error)
}

// DistanceProvider computes the travel distance in kilometres between two points.
type DistanceProvider interface {
	Name() string
	Distance(ctx context.Context, srcLat, srcLong, destLat, destLong float64) (float64, error)
}

// Store is the contract the Mongo and in-memory stores must satisfy.
type Store interface {
	Insert(ctx context.Context, ev Event) (Event, error)
	List(ctx context.Context, skip, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (Event, error)
	UpsertByID(ctx context.Context, id primitive.ObjectID, ev Event) (Event, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (Event, error)

	// Search returns the page of events within the date window ordered by
	// date, then by proximity to the source point, with the total match count.
	Search(ctx context.Context, criteria SearchCriteria) (SearchPage, error)

	Ping(ctx context.Context) error
}
