package media

import (
	"errors"
	"io"

	"backend-storymap/internal/session"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		viewer := session.FromContext(c.UserContext())
		name, data, err := ReadFormFile(c, "file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		url, err := svc.Upload(c.UserContext(), viewer.ID(), name, data)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"url": url}})
	})

	r.Get("/orphans", authMiddleware, func(c *fiber.Ctx) error {
		viewer := session.FromContext(c.UserContext())
		objects, err := svc.Orphans(c.UserContext(), viewer.ID())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"data": objects})
	})
}

// ReadFormFile reads a whole multipart file field into memory.
func ReadFormFile(c *fiber.Ctx, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, errors.New(field + " required")
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
