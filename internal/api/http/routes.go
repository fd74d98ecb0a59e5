package httpapi

import (
	"encoding/json"
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// minSearchLength is the shortest search text, in characters, that is sent to the service.
const minSearchLength = 3

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, api *query.API, store *prefs.Store, session *dashboard.Session) {
	v1 := app.Group("/api/v1")

	w := v1.Group("/weather")

	w.Get("/current", func(c *fiber.Ctx) error {
		q, err := bindLocation(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetCurrentWeather(c.UserContext(), q.Location))
	})

	w.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := bindDays(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetForecast(c.UserContext(), q.Location, q.days()))
	})

	w.Get("/search", func(c *fiber.Ctx) error {
		text := queryValue(c, "q", "")
		if utf8.RuneCountInString(text) < minSearchLength {
			return c.JSON(query.Result{Status: query.StatusIdle, Data: json.RawMessage("[]")})
		}
		return respond(c, api.SearchLocation(c.UserContext(), text))
	})

	w.Get("/history", func(c *fiber.Ctx) error {
		q, err := bindDated(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetHistoricalWeather(c.UserContext(), q.Location, q.Date))
	})

	w.Get("/astronomy", func(c *fiber.Ctx) error {
		q, err := bindDated(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetAstronomy(c.UserContext(), q.Location, q.Date))
	})

	w.Get("/marine", func(c *fiber.Ctx) error {
		q, err := bindDays(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetMarineWeather(c.UserContext(), q.Location, q.days()))
	})

	w.Get("/airquality", func(c *fiber.Ctx) error {
		q, err := bindLocation(c, store)
		if err != nil {
			return err
		}
		return respond(c, api.GetAirQuality(c.UserContext(), q.Location))
	})

	registerPreferenceRoutes(v1, store)

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(session.View(c.UserContext()))
	})

	v1.Post("/session/focus", func(c *fiber.Ctx) error {
		n := api.Manager().OnFocus(c.UserContext())
		return c.JSON(fiber.Map{"trigger": query.TriggerFocus, "revalidated": n})
	})

	v1.Post("/session/reconnect", func(c *fiber.Ctx) error {
		n := api.Manager().OnReconnect(c.UserContext())
		return c.JSON(fiber.Map{"trigger": query.TriggerReconnect, "revalidated": n})
	})
}

// respond writes a query result. Failed queries go through ErrorHandler.
func respond(c *fiber.Ctx, res query.Result) error {
	if res.Status == query.StatusError && res.Error != nil {
		return res.Error
	}
	if res.IsLoading {
		c.Status(fiber.StatusAccepted)
	}
	return c.JSON(res)
}

// ErrorHandler renders every error as {"error": true, "message": ...}. Weather
// errors also carry their kind and map to a status by kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := fiber.Map{"error": true, "message": err.Error()}

	var apiErr *weather.APIError
	var fe *fiber.Error
	switch {
	case errors.As(err, &apiErr):
		code = statusFor(apiErr)
		body["message"] = apiErr.Message
		body["kind"] = apiErr.Kind
		if apiErr.Code != 0 {
			body["code"] = apiErr.Code
		}
	case errors.As(err, &fe):
		code = fe.Code
	}

	return c.Status(code).JSON(body)
}

func statusFor(e *weather.APIError) int {
	switch e.Kind {
	case weather.KindService:
		if e.StatusCode >= 400 {
			return e.StatusCode
		}
		return fiber.StatusBadGateway
	case weather.KindEmpty:
		return fiber.StatusNotFound
	case weather.KindRequest:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadGateway
	}
}

// queryValue returns a copy of the query parameter. Fiber's strings point into
// the request buffer, and these values end up in cache entries that outlive it.
func queryValue(c *fiber.Ctx, key, def string) string {
	return utils.CopyString(c.Query(key, def))
}

// locationQuery identifies a location; it defaults to the selected one.
type locationQuery struct {
	Location string `validate:"required"`
}

func bindLocation(c *fiber.Ctx, store *prefs.Store) (locationQuery, error) {
	q := locationQuery{Location: queryValue(c, "location", store.State().Location)}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

// datedQuery adds a YYYY-MM-DD date defaulting to the selected date.
type datedQuery struct {
	Location string `validate:"required"`
	Date     string `validate:"required,datetime=2006-01-02"`
}

func bindDated(c *fiber.Ctx, store *prefs.Store) (datedQuery, error) {
	st := store.State()
	q := datedQuery{
		Location: queryValue(c, "location", st.Location),
		Date:     queryValue(c, "date", st.SelectedDate),
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

// daysQuery adds an optional day count. The range is left to the service.
type daysQuery struct {
	Location string `validate:"required"`
	Days     string `validate:"omitempty,number"`
}

func (q daysQuery) days() int {
	n, _ := strconv.Atoi(q.Days)
	return n
}

func bindDays(c *fiber.Ctx, store *prefs.Store) (daysQuery, error) {
	q := daysQuery{
		Location: queryValue(c, "location", store.State().Location),
		Days:     queryValue(c, "days", ""),
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}
