package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/i474232898/event-finder/internal/events"
)

const distanceField = "dist_calculated"

// searchAggregate is the single document produced by the search pipeline.
type searchAggregate struct {
	Events []events.Event `bson:"events"`
	Count  int            `bson:"count"`
}

// BuildSearchPipeline builds the aggregation behind a nearby search. One
// round trip returns the requested page together with the total match count.
//
// Matches are ordered by date; equal dates keep proximity order through the
// computed distance as secondary sort key.
func BuildSearchPipeline(srcLat, srcLong float64, from, to time.Time, skip, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{srcLong, srcLat}},
			}},
			{Key: "distanceField", Value: distanceField},
			{Key: "includeLocs", Value: "coordinates"},
			{Key: "spherical", Value: true},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "date", Value: bson.D{
				{Key: "$gte", Value: from},
				{Key: "$lte", Value: to},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "date", Value: 1},
			{Key: distanceField, Value: 1},
		}}},
		{{Key: "$unset", Value: bson.A{"_id", distanceField}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "aggregation"},
			{Key: "events", Value: bson.D{{Key: "$push", Value: "$$ROOT"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "events", Value: bson.D{{Key: "$slice", Value: bson.A{"$events", skip, limit}}}},
		}}},
	}
}
