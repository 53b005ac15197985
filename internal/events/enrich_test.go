package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWeather struct {
	fn func(ctx context.Context, city string, date time.Time) (string, error)
}

func (f fakeWeather) Name() string { return "weather" }

func (f fakeWeather) Weather(ctx context.Context, city string, date time.Time) (string, error) {
	return f.fn(ctx, city, date)
}

type fakeDistance struct {
	fn func(ctx context.Context, srcLat, srcLong, destLat, destLong float64) (float64, error)
}

func (f fakeDistance) Name() string { return "distance" }

func (f fakeDistance) Distance(ctx context.Context, srcLat, srcLong, destLat, destLong float64) (float64, error) {
	return f.fn(ctx, srcLat, srcLong, destLat, destLong)
}

func weatherReturning(w string, err error) fakeWeather {
	return fakeWeather{fn: func(context.Context, string, time.Time) (string, error) { return w, err }}
}

func distanceReturning(d float64, err error) fakeDistance {
	return fakeDistance{fn: func(context.Context, float64, float64, float64, float64) (float64, error) { return d, err }}
}

func testEvent() Event {
	return Event{
		EventName:   "Concert",
		CityName:    "Pune",
		Date:        time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		Coordinates: []float64{73.85, 18.52},
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestEnricher_Enrich_Success(t *testing.T) {
	ev := testEvent()

	var (
		gotCity string
		gotDate time.Time
		gotArgs [4]float64
	)
	weather := fakeWeather{fn: func(_ context.Context, city string, date time.Time) (string, error) {
		gotCity, gotDate = city, date
		return "Sunny", nil
	}}
	distance := fakeDistance{fn: func(_ context.Context, srcLat, srcLong, destLat, destLong float64) (float64, error) {
		gotArgs = [4]float64{srcLat, srcLong, destLat, destLong}
		return 12.5, nil
	}}

	e := NewEnricher(weather, distance, nil, zap.NewNop())
	out := e.Enrich(context.Background(), ev, 19.07, 72.87)

	require.NotNil(t, out.Weather)
	require.NotNil(t, out.DistanceKm)
	assert.Equal(t, "Sunny", *out.Weather)
	assert.Equal(t, 12.5, *out.DistanceKm)
	assert.Equal(t, "Concert", out.EventName)
	assert.Equal(t, ev.Date, out.Date)
	assert.Equal(t, ev.CreatedAt, out.CreatedAt)

	assert.Equal(t, "Pune", gotCity)
	assert.Equal(t, ev.Date, gotDate)
	assert.Equal(t, [4]float64{19.07, 72.87, 18.52, 73.85}, gotArgs)
}

func TestEnricher_Enrich_WeatherFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEnricher(weatherReturning("", errors.New("boom")), distanceReturning(3.2, nil), nil, zap.New(core))

	out := e.Enrich(context.Background(), testEvent(), 19.07, 72.87)

	assert.Nil(t, out.Weather)
	require.NotNil(t, out.DistanceKm)
	assert.Equal(t, 3.2, *out.DistanceKm)

	entries := logs.FilterMessage("Enrichment lookup failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "weather", entries[0].ContextMap()["provider"])
	assert.Equal(t, "Concert", entries[0].ContextMap()["event_name"])
}

func TestEnricher_Enrich_DistanceFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEnricher(weatherReturning("Rainy", nil), distanceReturning(0, errors.New("timeout")), nil, zap.New(core))

	out := e.Enrich(context.Background(), testEvent(), 19.07, 72.87)

	require.NotNil(t, out.Weather)
	assert.Equal(t, "Rainy", *out.Weather)
	assert.Nil(t, out.DistanceKm)

	entries := logs.FilterMessage("Enrichment lookup failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "distance", entries[0].ContextMap()["provider"])
}

func TestEnricher_Enrich_BothFail(t *testing.T) {
	ev := testEvent()
	e := NewEnricher(weatherReturning("", errors.New("a")), distanceReturning(0, errors.New("b")), nil, zap.NewNop())

	out := e.Enrich(context.Background(), ev, 19.07, 72.87)

	assert.Equal(t, ev.Strip(), out)
}

func TestEnricher_Enrich_ProviderPanicIsIsolated(t *testing.T) {
	weather := fakeWeather{fn: func(context.Context, string, time.Time) (string, error) {
		panic("weather exploded")
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEnricher(weather, distanceReturning(7, nil), nil, zap.New(core))

	out := e.Enrich(context.Background(), testEvent(), 19.07, 72.87)

	assert.Nil(t, out.Weather)
	require.NotNil(t, out.DistanceKm)
	assert.Equal(t, 7.0, *out.DistanceKm)
	assert.Equal(t, 1, logs.FilterMessage("Enrichment lookup failed").Len())
}

func TestEnricher_Enrich_MissingCoordinates(t *testing.T) {
	ev := testEvent()
	ev.Coordinates = nil

	called := false
	distance := fakeDistance{fn: func(context.Context, float64, float64, float64, float64) (float64, error) {
		called = true
		return 1, nil
	}}
	e := NewEnricher(weatherReturning("Sunny", nil), distance, nil, zap.NewNop())

	out := e.Enrich(context.Background(), ev, 19.07, 72.87)

	assert.False(t, called)
	assert.Nil(t, out.DistanceKm)
	require.NotNil(t, out.Weather)
}

func TestEnricher_Enrich_NilProviders(t *testing.T) {
	e := NewEnricher(nil, nil, nil, zap.NewNop())

	out := e.Enrich(context.Background(), testEvent(), 0, 0)

	assert.Nil(t, out.Weather)
	assert.Nil(t, out.DistanceKm)
}

func TestEnricher_Enrich_RunsLookupsConcurrently(t *testing.T) {
	distanceStarted := make(chan struct{})

	weather := fakeWeather{fn: func(ctx context.Context, _ string, _ time.Time) (string, error) {
		select {
		case <-distanceStarted:
			return "Sunny", nil
		case <-time.After(2 * time.Second):
			return "", errors.New("distance lookup never started")
		}
	}}
	distance := fakeDistance{fn: func(context.Context, float64, float64, float64, float64) (float64, error) {
		close(distanceStarted)
		return 1, nil
	}}

	e := NewEnricher(weather, distance, nil, zap.NewNop())
	out := e.Enrich(context.Background(), testEvent(), 0, 0)

	require.NotNil(t, out.Weather)
	assert.Equal(t, "Sunny", *out.Weather)
}
