package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/events"
)

func mockStore(mt *mtest.T) *MongoStore {
	return &MongoStore{
		client: mt.Client,
		coll:   mt.Coll,
		log:    zap.NewNop(),
		now:    func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "events.events"

	mt.Run("insert assigns id and timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := mockStore(mt)

		ev, err := s.Insert(context.Background(), events.Event{EventName: "Concert"})

		require.NoError(mt, err)
		assert.False(mt, ev.ID.IsZero())
		assert.Equal(mt, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ev.CreatedAt)
		assert.Equal(mt, ev.CreatedAt, ev.UpdatedAt)
	})

	mt.Run("find by id maps missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		s := mockStore(mt)

		_, err := s.FindByID(context.Background(), primitive.NewObjectID())

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find by id decodes event", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "event_name", Value: "Concert"},
			{Key: "city_name", Value: "Pune"},
			{Key: "coordinates", Value: bson.A{73.85, 18.52}},
		}))
		s := mockStore(mt)

		ev, err := s.FindByID(context.Background(), id)

		require.NoError(mt, err)
		assert.Equal(mt, id, ev.ID)
		assert.Equal(mt, "Pune", ev.CityName)
		assert.Equal(mt, []float64{73.85, 18.52}, ev.Coordinates)
	})

	mt.Run("search decodes aggregate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "aggregation"},
			{Key: "events", Value: bson.A{
				bson.D{{Key: "event_name", Value: "a"}},
				bson.D{{Key: "event_name", Value: "b"}},
			}},
			{Key: "count", Value: 12},
		}))
		s := mockStore(mt)

		page, err := s.Search(context.Background(), events.SearchCriteria{Limit: 10})

		require.NoError(mt, err)
		assert.Equal(mt, 12, page.Total)
		assert.Equal(mt, []string{"a", "b"}, names(page.Events))
	})

	mt.Run("search without matches", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		s := mockStore(mt)

		page, err := s.Search(context.Background(), events.SearchCriteria{Limit: 10})

		require.NoError(mt, err)
		assert.Zero(mt, page.Total)
		assert.NotNil(mt, page.Events)
		assert.Empty(mt, page.Events)
	})

	mt.Run("insert surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		s := mockStore(mt)

		_, err := s.Insert(context.Background(), events.Event{EventName: "dup"})

		assert.Error(mt, err)
	})
}
