package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/events"
	"github.com/i474232898/event-finder/internal/store"
)

const (
	msgNotFound     = "Event with specified id does not exist"
	msgNoEvents     = "No events to display"
	msgPageExceeded = "Page specified exceeds the available pages"
	msgUnknownError = "Unknown error occurred"
)

// EventService is the part of events.Service the routes depend on.
type EventService interface {
	Create(ctx context.Context, in events.EventInput) (events.Event, error)
	List(ctx context.Context, page int) (*events.ListResult, error)
	Get(ctx context.Context, id string) (events.Event, error)
	Upsert(ctx context.Context, id string, in events.EventInput) (events.Event, error)
	Delete(ctx context.Context, id string) (events.Event, error)
	Search(ctx context.Context, q events.SearchQuery) (*events.SearchResult, error)
}

type handler struct {
	service EventService
	log     *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service EventService, log *zap.Logger) {
	h := &handler{
		service: service,
		log:     log.Named("api.events"),
	}

	g := app.Group("/events")

	g.Post("/", h.create)
	g.Get("/", h.list)
	// Must precede "/:id".
	g.Get("/find", h.find)
	g.Get("/:id", h.get)
	g.Put("/:id", h.upsert)
	g.Delete("/:id", h.delete)
}

// ErrorHandler renders errors as plain text with their status code.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).SendString(err.Error())
}

// eventBody is the JSON body of create and upsert requests.
type eventBody struct {
	EventName *string     `json:"event_name" validate:"required,min=1"`
	CityName  *string     `json:"city_name" validate:"required,min=1"`
	Date      *string     `json:"date" validate:"required,iso8601"`
	Latitude  *flexString `json:"latitude" validate:"required,latitude"`
	Longitude *flexString `json:"longitude" validate:"required,longitude"`
}

func (b *eventBody) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(b); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	trim(b.EventName)
	trim(b.CityName)
	if msg := validationMessage(b); msg != "" {
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// toInput converts an already validated body.
func (b *eventBody) toInput() (events.EventInput, error) {
	date, err := parseISO8601(*b.Date)
	if err != nil {
		return events.EventInput{}, err
	}
	lat, err := strconv.ParseFloat(string(*b.Latitude), 64)
	if err != nil {
		return events.EventInput{}, err
	}
	long, err := strconv.ParseFloat(string(*b.Longitude), 64)
	if err != nil {
		return events.EventInput{}, err
	}

	return events.EventInput{
		EventName: *b.EventName,
		CityName:  *b.CityName,
		Date:      date,
		Latitude:  lat,
		Longitude: long,
	}, nil
}

// idParam holds the ":id" path parameter.
type idParam struct {
	ID string `validate:"required,mongodb"`
}

func parseID(c *fiber.Ctx) (string, error) {
	p := idParam{ID: c.Params("id")}
	if msg := validationMessage(p); msg != "" {
		return "", fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return p.ID, nil
}

// pageQuery holds the optional "page" query parameter.
type pageQuery struct {
	Page string `validate:"omitempty,page"`
}

func (p pageQuery) value() int {
	if p.Page == "" {
		return 1
	}
	n, _ := strconv.Atoi(p.Page)
	return n
}

// searchQuery holds the query parameters of the nearby search.
type searchQuery struct {
	SrcLat     string `validate:"required,latitude"`
	SrcLong    string `validate:"required,longitude"`
	SearchDate string `validate:"required,datetime=2006-01-02"`
	Page       string `validate:"omitempty,page"`
}

func (q *searchQuery) bind(c *fiber.Ctx) (events.SearchQuery, error) {
	q.SrcLat = c.Query("srcLat")
	q.SrcLong = c.Query("srcLong")
	q.SearchDate = c.Query("searchDate")
	q.Page = c.Query("page")

	if msg := validationMessage(q); msg != "" {
		return events.SearchQuery{}, fiber.NewError(fiber.StatusBadRequest, msg)
	}

	lat, err := strconv.ParseFloat(q.SrcLat, 64)
	if err != nil {
		return events.SearchQuery{}, fiber.NewError(fiber.StatusBadRequest, messages["SrcLat.latitude"])
	}
	long, err := strconv.ParseFloat(q.SrcLong, 64)
	if err != nil {
		return events.SearchQuery{}, fiber.NewError(fiber.StatusBadRequest, messages["SrcLong.longitude"])
	}
	// Date-only values parse as UTC midnight.
	date, err := time.Parse("2006-01-02", q.SearchDate)
	if err != nil {
		return events.SearchQuery{}, fiber.NewError(fiber.StatusBadRequest, messages["SearchDate.datetime"])
	}

	return events.SearchQuery{
		SrcLat:     lat,
		SrcLong:    long,
		SearchDate: date,
		Page:       pageQuery{Page: q.Page}.value(),
	}, nil
}

func (h *handler) create(c *fiber.Ctx) error {
	var body eventBody
	if err := body.bind(c); err != nil {
		return err
	}
	in, err := body.toInput()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ev, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return h.internalError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": ev})
}

func (h *handler) list(c *fiber.Ctx) error {
	q := pageQuery{Page: c.Query("page")}
	if msg := validationMessage(q); msg != "" {
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}

	result, err := h.service.List(c.UserContext(), q.value())
	if err != nil {
		if errors.Is(err, events.ErrPageOutOfRange) {
			return fiber.NewError(fiber.StatusBadRequest, msgPageExceeded)
		}
		return h.internalError(err)
	}

	return c.JSON(result)
}

func (h *handler) find(c *fiber.Ctx) error {
	var req searchQuery
	q, err := req.bind(c)
	if err != nil {
		return err
	}

	result, err := h.service.Search(c.UserContext(), q)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNoEvents):
			return c.Status(fiber.StatusNoContent).SendString(msgNoEvents)
		case errors.Is(err, events.ErrPageOutOfRange):
			return fiber.NewError(fiber.StatusBadRequest, msgPageExceeded)
		}
		return h.internalError(err)
	}

	return c.JSON(result)
}

func (h *handler) get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ev, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, msgNotFound)
		}
		return h.internalError(err)
	}

	return c.JSON(fiber.Map{"event": ev})
}

func (h *handler) upsert(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var body eventBody
	if err := body.bind(c); err != nil {
		return err
	}
	in, err := body.toInput()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ev, err := h.service.Upsert(c.UserContext(), id, in)
	if err != nil {
		return h.internalError(err)
	}

	return c.JSON(fiber.Map{"event": ev})
}

func (h *handler) delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ev, err := h.service.Delete(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, msgNotFound)
		}
		return h.internalError(err)
	}

	return c.JSON(fiber.Map{"event": ev})
}

// internalError logs err and turns it into a 500 carrying its message.
func (h *handler) internalError(err error) error {
	h.log.Error("Request failed", zap.Error(err))

	msg := err.Error()
	if msg == "" {
		msg = msgUnknownError
	}
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}
