package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/common"
	"github.com/i474232898/event-finder/internal/metrics"
)

var (
	// ErrNoEvents is returned when a search matches nothing.
	ErrNoEvents = errors.New("no events to display")
	// ErrPageOutOfRange is returned when the requested page is past the last page.
	ErrPageOutOfRange = errors.New("page specified exceeds the available pages")
	// ErrInvalidID is returned for ids that are not valid object ids.
	ErrInvalidID = errors.New("invalid event id")
)

// Config tunes the Service.
type Config struct {
	// Offset is the local UTC offset search dates are expressed in.
	Offset Offset
	// EnrichTimeout bounds the enrichment phase of a search. Zero means no bound.
	EnrichTimeout time.Duration
}

// Service orchestrates the store and enrichment lookups.
type Service struct {
	store    Store
	enricher *Enricher
	cfg      Config
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewService creates a new Service.
func NewService(store Store, enricher *Enricher, cfg Config, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		enricher: enricher,
		cfg:      cfg,
		metrics:  m,
		log:      log.Named("events"),
	}
}

// Create stores a new event.
func (s *Service) Create(ctx context.Context, in EventInput) (Event, error) {
	ev, err := s.store.Insert(ctx, in.toEvent())
	if err != nil {
		return Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return ev, nil
}

// List returns one page of events, newest first.
func (s *Service) List(ctx context.Context, page int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	totalPages := common.TotalPages(total, PageSize)
	// An empty collection still has a (blank) first page.
	if page > max(totalPages, 1) {
		return nil, ErrPageOutOfRange
	}

	evs, err := s.store.List(ctx, common.Offset(page, PageSize), PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if evs == nil {
		evs = []Event{}
	}

	return &ListResult{
		Events:      evs,
		Page:        page,
		PageSize:    PageSize,
		TotalEvents: total,
		TotalPages:  totalPages,
	}, nil
}

// Get returns the event with the given id.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return Event{}, err
	}
	return s.store.FindByID(ctx, oid)
}

// Upsert replaces the event at id, creating it when absent.
func (s *Service) Upsert(ctx context.Context, id string, in EventInput) (Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return Event{}, err
	}
	ev, err := s.store.UpsertByID(ctx, oid, in.toEvent())
	if err != nil {
		return Event{}, fmt.Errorf("failed to upsert event: %w", err)
	}
	return ev, nil
}

// Delete removes the event with the given id and returns it.
func (s *Service) Delete(ctx context.Context, id string) (Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return Event{}, err
	}
	return s.store.DeleteByID(ctx, oid)
}

// Search finds events near the source point within 14 days of the search
// date and enriches every event of the requested page concurrently.
func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start)) }()

	page := q.Page
	if page < 1 {
		page = 1
	}

	from, to := Window(q.SearchDate, s.cfg.Offset)

	result, err := s.store.Search(ctx, SearchCriteria{
		SrcLat:  q.SrcLat,
		SrcLong: q.SrcLong,
		From:    from,
		To:      to,
		Skip:    common.Offset(page, PageSize),
		Limit:   PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	if result.Total == 0 {
		return nil, ErrNoEvents
	}

	totalPages := common.TotalPages(result.Total, PageSize)
	if page > totalPages {
		return nil, ErrPageOutOfRange
	}

	enriched := s.enrichAll(ctx, result.Events, q.SrcLat, q.SrcLong)

	s.log.Debug("Search completed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("page", page),
		zap.Int("returned", len(enriched)),
		zap.Int("total", result.Total))

	return &SearchResult{
		Events:      enriched,
		Page:        page,
		PageSize:    len(enriched),
		TotalEvents: result.Total,
		TotalPages:  totalPages,
	}, nil
}

// enrichAll enriches every event concurrently, keeping the store's order.
func (s *Service) enrichAll(ctx context.Context, evs []Event, srcLat, srcLong float64) []EnrichedEvent {
	if s.cfg.EnrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EnrichTimeout)
		defer cancel()
	}

	out := make([]EnrichedEvent, len(evs))

	var wg sync.WaitGroup
	for i, ev := range evs {
		wg.Add(1)
		go func(i int, ev Event) {
			defer wg.Done()
			out[i] = s.enricher.Enrich(ctx, ev, srcLat, srcLong)
		}(i, ev)
	}
	wg.Wait()

	return out
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return oid, nil
}
