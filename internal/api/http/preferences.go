package httpapi

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type locationBody struct {
	Location string `json:"location" validate:"required"`
}

type dateBody struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// Unknown views are stored as given; the dashboard renders them as current.
type viewBody struct {
	View string `json:"view" validate:"required"`
}

type favoriteBody struct {
	Name string `json:"name" validate:"required"`
}

func registerPreferenceRoutes(r fiber.Router, store *prefs.Store) {
	p := r.Group("/preferences")

	p.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(store.State())
	})

	p.Put("/location", func(c *fiber.Ctx) error {
		var body locationBody
		if err := bindBody(c, &body); err != nil {
			return err
		}
		return c.JSON(store.SetLocation(body.Location))
	})

	p.Put("/date", func(c *fiber.Ctx) error {
		var body dateBody
		if err := bindBody(c, &body); err != nil {
			return err
		}
		return c.JSON(store.SetSelectedDate(body.Date))
	})

	p.Put("/view", func(c *fiber.Ctx) error {
		var body viewBody
		if err := bindBody(c, &body); err != nil {
			return err
		}
		return c.JSON(store.SetViewMode(weather.ViewMode(body.View)))
	})

	p.Post("/unit/toggle", func(c *fiber.Ctx) error {
		return c.JSON(store.ToggleUnit())
	})

	p.Post("/theme/toggle", func(c *fiber.Ctx) error {
		return c.JSON(store.ToggleTheme())
	})

	p.Post("/favorites", func(c *fiber.Ctx) error {
		var body favoriteBody
		if err := bindBody(c, &body); err != nil {
			return err
		}
		return c.JSON(store.AddToFavorites(body.Name))
	})

	p.Delete("/favorites/:name", func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(utils.CopyString(c.Params("name")))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid favorite name")
		}
		return c.JSON(store.RemoveFromFavorites(name))
	})

	p.Delete("/recent-searches", func(c *fiber.Ctx) error {
		return c.JSON(store.ClearRecentSearches())
	})
}

func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
