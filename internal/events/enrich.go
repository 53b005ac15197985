package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/metrics"
)

// Enricher attaches weather and distance data to events.
type Enricher struct {
	weather  WeatherProvider
	distance DistanceProvider
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewEnricher creates a new Enricher. m may be nil.
func NewEnricher(weather WeatherProvider, distance DistanceProvider, m *metrics.Metrics, log *zap.Logger) *Enricher {
	return &Enricher{
		weather:  weather,
		distance: distance,
		metrics:  m,
		log:      log.Named("enrich"),
	}
}

// Enrich fetches weather and distance for ev concurrently and merges them into
// its location-free view. Each lookup absorbs its own failure as a nil field,
// so the returned event is always usable.
func (e *Enricher) Enrich(ctx context.Context, ev Event, srcLat, srcLong float64) (out EnrichedEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Failed to merge enrichment",
				zap.String("event_name", ev.EventName),
				zap.Any("panic", r))
			out = ev.Strip()
		}
	}()

	var (
		wg       sync.WaitGroup
		weather  *string
		distance *float64
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		weather = e.lookupWeather(ctx, ev)
	}()
	go func() {
		defer wg.Done()
		distance = e.lookupDistance(ctx, ev, srcLat, srcLong)
	}()
	wg.Wait()

	out = ev.Strip()
	out.Weather = weather
	out.DistanceKm = distance
	return out
}

func (e *Enricher) lookupWeather(ctx context.Context, ev Event) (result *string) {
	name := "weather"
	defer func() {
		if r := recover(); r != nil {
			e.fail(name, ev, fmt.Errorf("panic: %v", r))
			result = nil
		}
	}()

	if e.weather == nil {
		return nil
	}
	name = e.weather.Name()

	w, err := e.weather.Weather(ctx, ev.CityName, ev.Date)
	if err != nil {
		e.fail(name, ev, err)
		return nil
	}

	e.metrics.ObserveEnrichment(name, metrics.StatusOK)
	return &w
}

func (e *Enricher) lookupDistance(ctx context.Context, ev Event, srcLat, srcLong float64) (result *float64) {
	name := "distance"
	defer func() {
		if r := recover(); r != nil {
			e.fail(name, ev, fmt.Errorf("panic: %v", r))
			result = nil
		}
	}()

	if e.distance == nil {
		return nil
	}
	name = e.distance.Name()

	destLat, okLat := ev.Latitude()
	destLong, okLong := ev.Longitude()
	if !okLat || !okLong {
		e.fail(name, ev, fmt.Errorf("event has no usable coordinates"))
		return nil
	}

	d, err := e.distance.Distance(ctx, srcLat, srcLong, destLat, destLong)
	if err != nil {
		e.fail(name, ev, err)
		return nil
	}

	e.metrics.ObserveEnrichment(name, metrics.StatusOK)
	return &d
}

func (e *Enricher) fail(provider string, ev Event, err error) {
	e.metrics.ObserveEnrichment(provider, metrics.StatusError)
	e.log.Warn("Enrichment lookup failed",
		zap.String("provider", provider),
		zap.String("event_name", ev.EventName),
		zap.String("city_name", ev.CityName),
		zap.Error(err))
}
