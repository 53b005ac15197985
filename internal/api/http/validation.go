package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := parseISO8601(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("page", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n >= 1
	})
	return v
}

// messages maps "Field.tag" to the text sent back for that failure.
var messages = map[string]string{
	"EventName.required":  "Please provide event name",
	"EventName.min":       "Event name cannot be empty",
	"CityName.required":   "Please provide city name",
	"CityName.min":        "City name cannot be empty",
	"Date.required":       "Please provide the event date",
	"Date.iso8601":        "Event date must be a valid date",
	"Latitude.required":   "Please provide the event latitude coordinate",
	"Latitude.latitude":   "Event latitude should be a valid floating-point number",
	"Longitude.required":  "Please provide the event longitude coordinate",
	"Longitude.longitude": "Event longitude should be a valid floating-point number",

	"SrcLat.required":     "Please provide the source latitude",
	"SrcLat.latitude":     "Source latitude should be a valid floating-point number",
	"SrcLong.required":    "Please provide the source longitude",
	"SrcLong.longitude":   "Source longitude should be a valid floating-point number",
	"SearchDate.required": "Please provide the search date",
	"SearchDate.datetime": "Search date must be a valid date",

	"Page.page":   "Please specify a valid page to fetch",
	"ID.required": "Please specify a valid event id",
	"ID.mongodb":  "Please specify a valid event id",
}

const unknownValidationMessage = "Invalid request"

// validationMessage returns the message for the first failing rule of s, or "" if s is valid.
func validationMessage(s interface{}) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	first := verrs[0]
	if msg, ok := messages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	return unknownValidationMessage
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseISO8601 parses common ISO 8601 forms. Values without a zone are UTC.
func parseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
