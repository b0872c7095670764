package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrNoURL = errors.New("media store returned no url")

// Cloudinary posts unsigned uploads to a Cloudinary-compatible endpoint.
type Cloudinary struct {
	url     string
	preset  string
	timeout time.Duration
}

func NewCloudinary(url, preset string) *Cloudinary {
	return &Cloudinary{url: url, preset: preset, timeout: 30 * time.Second}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Cloudinary) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("upload_preset", c.preset)

	agent := fiber.Post(c.url).Timeout(timeout)
	agent.FileData(&fiber.FormFile{Fieldname: "file", Name: name, Content: data})
	agent.MultipartForm(args)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("media upload failed: status %d", code)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	if code < 200 || code >= 300 {
		return "", fmt.Errorf("media upload failed: status %d", code)
	}
	if resp.SecureURL != "" {
		return resp.SecureURL, nil
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return "", ErrNoURL
}
