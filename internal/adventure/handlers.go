package adventure

import (
	"errors"
	"strings"

	"backend-storymap/internal/media"
	"backend-storymap/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the adventure API. optionalAuth resolves the viewer
// for reads; authMiddleware guards mutations.
func RegisterRoutes(r fiber.Router, lc *Lifecycle, optionalAuth, authMiddleware fiber.Handler) {
	r.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		adventures, err := lc.List(c.UserContext())
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"data": adventures})
	})

	r.Get("/markers", func(c *fiber.Ctx) error {
		markers, err := lc.Markers(c.UserContext())
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"data": markers})
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, err := ParseCoordinate("lat", CoordinateText(c.Query("lat")))
		if err != nil {
			return httpError(err)
		}
		lng, err := ParseCoordinate("lng", CoordinateText(c.Query("lng")))
		if err != nil {
			return httpError(err)
		}
		markers, err := lc.Nearby(c.UserContext(), lat, lng, c.QueryFloat("radius_km", DefaultRadiusKm))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"data": markers})
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		created, err := lc.Create(c.UserContext(), viewer(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"data":     created,
			"redirect": DetailPath(created.ID),
		})
	})

	r.Get("/:id", optionalAuth, func(c *fiber.Ctx) error {
		view, err := lc.Detail(c.UserContext(), viewer(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"data": view})
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req EditInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := lc.SubmitEdit(c.UserContext(), viewer(c), c.Params("id"), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"data":     updated,
			"redirect": DetailPath(updated.ID),
		})
	})

	// The HTTP caller has already confirmed by sending DELETE.
	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := lc.Delete(c.UserContext(), viewer(c), c.Params("id"), true); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"data":     fiber.Map{"success": true},
			"redirect": "/",
		})
	})

	r.Get("/:id/photos", func(c *fiber.Ctx) error {
		photos, err := lc.Photos(c.UserContext(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"data": photos})
	})

	r.Post("/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var (
			photo Photo
			err   error
		)
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			name, data, ferr := media.ReadFormFile(c, "file")
			if ferr != nil {
				return fiber.NewError(fiber.StatusBadRequest, ferr.Error())
			}
			photo, err = lc.AttachPhoto(c.UserContext(), viewer(c), c.Params("id"), Upload{Name: name, Data: data})
		} else {
			var body struct {
				ImageURL string `json:"image_url"`
			}
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			photo, err = lc.RecordPhoto(c.UserContext(), viewer(c), c.Params("id"), body.ImageURL)
		}
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": photo})
	})
}

func viewer(c *fiber.Ctx) *session.Session {
	return session.FromContext(c.UserContext())
}

// StatusFor maps a flow error to its HTTP status. Anything unrecognised is a
// store or media failure and is reported as a bad request.
func StatusFor(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrSignInRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInFlight):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

func httpError(err error) error {
	return fiber.NewError(StatusFor(err), err.Error())
}
