package client

import (
	"context"
	"net/url"
	"strconv"

	"backend-storymap/internal/adventure"

	"github.com/gofiber/fiber/v2"
)

var (
	_ adventure.Records    = (*Client)(nil)
	_ adventure.MediaStore = (*Client)(nil)
)

func adventurePath(id string) string {
	return "/adventures/" + url.PathEscape(id)
}

type envelope[T any] struct {
	Data     T      `json:"data"`
	Redirect string `json:"redirect,omitempty"`
}

func (c *Client) Create(ctx context.Context, a adventure.Adventure) (adventure.Adventure, error) {
	in := adventure.CreateInput{
		Title:       a.Title,
		Description: a.Description,
		Latitude:    &a.Latitude,
		Longitude:   &a.Longitude,
		CoverImage:  a.CoverImage,
	}
	var resp envelope[adventure.Adventure]
	if err := c.do(ctx, fiber.MethodPost, "/adventures", in, &resp, true); err != nil {
		return adventure.Adventure{}, err
	}
	return resp.Data, nil
}

func (c *Client) Get(ctx context.Context, id string) (adventure.Adventure, error) {
	view, err := c.Detail(ctx, id)
	if err != nil {
		return adventure.Adventure{}, err
	}
	return view.Adventure, nil
}

// Detail fetches the server-built detail view for the signed-in viewer.
func (c *Client) Detail(ctx context.Context, id string) (adventure.DetailView, error) {
	var resp envelope[adventure.DetailView]
	if err := c.do(ctx, fiber.MethodGet, adventurePath(id), nil, &resp, true); err != nil {
		return adventure.DetailView{}, err
	}
	return resp.Data, nil
}

func (c *Client) List(ctx context.Context) ([]adventure.Adventure, error) {
	var resp envelope[[]adventure.Adventure]
	if err := c.do(ctx, fiber.MethodGet, "/adventures", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Update sends the edit; the server takes the owner from the token.
func (c *Client) Update(ctx context.Context, id, _ string, f adventure.Fields) (adventure.Adventure, error) {
	in := adventure.EditInput{
		Title:       f.Title,
		Description: f.Description,
		Latitude:    adventure.CoordinateText(strconv.FormatFloat(f.Latitude, 'f', -1, 64)),
		Longitude:   adventure.CoordinateText(strconv.FormatFloat(f.Longitude, 'f', -1, 64)),
		CoverImage:  f.CoverImage,
	}
	var resp envelope[adventure.Adventure]
	if err := c.do(ctx, fiber.MethodPut, adventurePath(id), in, &resp, true); err != nil {
		return adventure.Adventure{}, err
	}
	return resp.Data, nil
}

func (c *Client) Delete(ctx context.Context, id, _ string) error {
	return c.do(ctx, fiber.MethodDelete, adventurePath(id), nil, nil, true)
}

func (c *Client) AddPhoto(ctx context.Context, adventureID, _, imageURL string) (adventure.Photo, error) {
	body := map[string]string{"image_url": imageURL}
	var resp envelope[adventure.Photo]
	if err := c.do(ctx, fiber.MethodPost, adventurePath(adventureID)+"/photos", body, &resp, true); err != nil {
		return adventure.Photo{}, err
	}
	return resp.Data, nil
}

func (c *Client) Photos(ctx context.Context, adventureID string) ([]adventure.Photo, error) {
	var resp envelope[[]adventure.Photo]
	if err := c.do(ctx, fiber.MethodGet, adventurePath(adventureID)+"/photos", nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Upload sends the file to the API's media endpoint, which stores it and
// answers with the durable URL.
func (c *Client) Upload(ctx context.Context, _, name string, data []byte) (string, error) {
	build := func(a *fiber.Agent) {
		a.FileData(&fiber.FormFile{Fieldname: "file", Name: name, Content: data})
		a.MultipartForm(nil)
	}
	code, raw, err := c.send(ctx, fiber.MethodPost, "/media/upload", true, build)
	if err != nil {
		return "", err
	}
	if code == fiber.StatusUnauthorized && c.refresh(ctx) {
		if code, raw, err = c.send(ctx, fiber.MethodPost, "/media/upload", true, build); err != nil {
			return "", err
		}
	}
	var resp envelope[struct {
		URL string `json:"url"`
	}]
	if err := decode(code, raw, &resp); err != nil {
		return "", err
	}
	return resp.Data.URL, nil
}
