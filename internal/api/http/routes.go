package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/exchange"
	"github.com/HongRae-Kim/travel-taipei/internal/spot"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

var validate = validator.New()

// Service is the facade the handlers call.
type Service interface {
	GetExchangeRate(ctx context.Context, currency string) (exchange.ExchangeRate, error)
	GetWeather(ctx context.Context) (weather.WeatherSnapshot, error)
	GetForecast(ctx context.Context) ([]weather.ForecastDay, error)
	SearchSpots(ctx context.Context, category string, criteria spot.Criteria) ([]spot.Spot, error)
	GetSpotDetail(ctx context.Context, id, category string) (spot.SpotDetail, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	api := app.Group("/api")

	api.Get("/exchange-rates", func(c *fiber.Ctx) error {
		rate, err := service.GetExchangeRate(c.UserContext(), c.Query("currency"))
		if err != nil {
			return err
		}
		return c.JSON(rate)
	})

	api.Get("/weather", func(c *fiber.Ctx) error {
		snap, err := service.GetWeather(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(snap)
	})

	api.Get("/weather/forecast", func(c *fiber.Ctx) error {
		days, err := service.GetForecast(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(days)
	})

	api.Get("/spots", func(c *fiber.Ctx) error {
		var q spotsQuery
		if err := q.bind(c); err != nil {
			return err
		}
		criteria, err := spot.NewCriteria(q.Lat, q.Lng, q.Radius, q.OpenNow, q.MinRating)
		if err != nil {
			return err
		}
		spots, err := service.SearchSpots(c.UserContext(), q.Type, criteria)
		if err != nil {
			return err
		}
		return c.JSON(spots)
	})

	api.Get("/spots/:placeId", func(c *fiber.Ctx) error {
		q := detailQuery{PlaceID: c.Params("placeId"), Type: c.Query("type")}
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
		detail, err := service.GetSpotDetail(c.UserContext(), q.PlaceID, q.Type)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})
}

// spotsQuery holds query parameters for the spot search endpoint.
type spotsQuery struct {
	Type      string `validate:"required"`
	Lat       *float64
	Lng       *float64
	Radius    *int
	OpenNow   bool
	MinRating *float64
}

func (q *spotsQuery) bind(c *fiber.Ctx) error {
	q.Type = strings.TrimSpace(c.Query("type"))

	var errs []error
	q.Lat = optionalFloat(c, "lat", &errs)
	q.Lng = optionalFloat(c, "lng", &errs)
	q.MinRating = optionalFloat(c, "minRating", &errs)
	if v := c.Query("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("radius: %q is not an integer", v))
		} else {
			q.Radius = &n
		}
	}
	if v := c.Query("openNow"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("openNow: %q is not a boolean", v))
		}
		q.OpenNow = b
	}
	if err := validate.Struct(q); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

func optionalFloat(c *fiber.Ctx, key string, errs *[]error) *float64 {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a number", key, v))
		return nil
	}
	return &f
}

// detailQuery holds parameters for the spot detail endpoint.
type detailQuery struct {
	PlaceID string `validate:"required"`
	Type    string `validate:"required"`
}

// ErrorHandler renders every error as {"error":true,"code":..,"message":..}.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   true,
				"code":    "",
				"message": fe.Message,
			})
		}

		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError && log != nil {
			log.WithFields(logrus.Fields{
				"path":   c.Path(),
				"status": status,
			}).WithError(err).Error("request failed")
		}

		return c.Status(status).JSON(fiber.Map{
			"error":   true,
			"code":    apperr.Code(err),
			"message": publicMessage(err),
		})
	}
}

// publicMessage hides upstream details from clients.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidCategory), errors.Is(err, apperr.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, apperr.ErrSpotNotFound):
		return "spot not found"
	case errors.Is(err, apperr.ErrDataUnavailable):
		return "external data is temporarily unavailable"
	case errors.Is(err, apperr.ErrUpstream):
		return "external provider error"
	default:
		return "internal server error"
	}
}
